package server

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/nkapoor/esshub/internal/models"
)

// PayslipRenderer produces the downloadable payslip document. The portal
// ships a plain-text renderer; a PDF layout engine can be dropped in behind
// this interface without touching the handler.
type PayslipRenderer interface {
	Render(employee *models.UserProfile, slip *models.Payslip) (doc []byte, contentType string, err error)
}

// TextRenderer renders the payslip as an aligned plain-text statement.
type TextRenderer struct{}

// Render implements PayslipRenderer.
func (TextRenderer) Render(employee *models.UserProfile, slip *models.Payslip) ([]byte, string, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "PAYSLIP - %s %d\n\n", slip.Month, slip.Year)
	fmt.Fprintf(&buf, "Employee: %s (%s)\n", employee.DisplayName(), employee.EmployeeID)
	fmt.Fprintf(&buf, "Department: %s\nPosition: %s\n\n", employee.Department, employee.Position)

	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintln(w, "EARNINGS\t\t")
	fmt.Fprintf(w, "Basic Salary\t%.2f\t\n", slip.BasicSalary)
	fmt.Fprintf(w, "DA\t%.2f\t\n", slip.DA)
	fmt.Fprintf(w, "HRA/WS\t%.2f\t\n", slip.HRAWS)
	fmt.Fprintf(w, "NPA\t%.2f\t\n", slip.NPA)
	fmt.Fprintf(w, "SBCA\t%.2f\t\n", slip.SBCA)
	fmt.Fprintf(w, "TA\t%.2f\t\n", slip.TA)
	fmt.Fprintf(w, "Gross Salary\t%.2f\t\n", slip.GrossSalary)
	fmt.Fprintln(w, "\t\t")
	fmt.Fprintln(w, "DEDUCTIONS\t\t")
	fmt.Fprintf(w, "CPF (State)\t%.2f\t\n", slip.CPFState)
	fmt.Fprintf(w, "GIS (State)\t%.2f\t\n", slip.GISState)
	fmt.Fprintf(w, "Professional Tax\t%.2f\t\n", slip.ProfessionalTax)
	fmt.Fprintf(w, "Stamp Duty\t%.2f\t\n", slip.StampDuty)
	fmt.Fprintf(w, "Total Deductions\t%.2f\t\n", slip.TotalDeductions)
	fmt.Fprintln(w, "\t\t")
	fmt.Fprintf(w, "NET SALARY\t%.2f\t\n", slip.NetSalary)

	if err := w.Flush(); err != nil {
		return nil, "", err
	}

	return buf.Bytes(), "text/plain; charset=utf-8", nil
}
