package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/nkapoor/esshub/internal/api"
	"github.com/nkapoor/esshub/internal/models"
)

// PayslipCmd groups the payroll subcommands.
type PayslipCmd struct {
	Show     PayslipShowCmd     `cmd:"" help:"Show the payslip for a period"`
	Download PayslipDownloadCmd `cmd:"" help:"Download the payslip document for a period"`
}

type payslipFlags struct {
	ClientFlags

	Year  int    `help:"Payslip year" default:"0"`
	Month string `help:"Payslip month (e.g. January)" default:""`
}

// period fills in the current month when no period was given.
func (f *payslipFlags) period() (int, string) {
	now := time.Now()
	year, month := f.Year, f.Month
	if year == 0 {
		year = now.Year()
	}
	if month == "" {
		month = now.Month().String()
	}
	return year, month
}

// PayslipShowCmd prints one payslip.
type PayslipShowCmd struct {
	payslipFlags
}

func (c *PayslipShowCmd) Run(ctx context.Context, globals *Globals) error {
	sessions, err := c.sessions()
	if err != nil {
		return err
	}
	token, err := sessionToken(sessions)
	if err != nil {
		return err
	}
	employeeID, ok := sessions.EmployeeID()
	if !ok {
		return fmt.Errorf("session has no employee id, run 'esshub login' again")
	}

	year, month := c.period()
	slip, err := c.portal().Payslip(ctx, token, employeeID, year, month)
	switch {
	case err == nil:
		return printPayslip(slip)
	case api.IsNotFound(err):
		// No record for the period is an answer, not a failure.
		fmt.Println(notFoundMessage(err))
		return nil
	case api.IsUnauthorized(err):
		if clearErr := sessions.Clear(); clearErr != nil {
			return clearErr
		}
		return fmt.Errorf("session expired, please login again")
	default:
		return err
	}
}

// PayslipDownloadCmd saves the rendered payslip document.
type PayslipDownloadCmd struct {
	payslipFlags

	Output string `help:"Output file (default: payslip_<month>_<year>.txt)" short:"o"`
}

func (c *PayslipDownloadCmd) Run(ctx context.Context, globals *Globals) error {
	sessions, err := c.sessions()
	if err != nil {
		return err
	}
	token, err := sessionToken(sessions)
	if err != nil {
		return err
	}
	employeeID, ok := sessions.EmployeeID()
	if !ok {
		return fmt.Errorf("session has no employee id, run 'esshub login' again")
	}

	year, month := c.period()
	doc, err := c.portal().DownloadPayslip(ctx, token, employeeID, year, month)
	if err != nil {
		if api.IsUnauthorized(err) {
			if clearErr := sessions.Clear(); clearErr != nil {
				return clearErr
			}
			return fmt.Errorf("session expired, please login again")
		}
		return err
	}

	output := c.Output
	if output == "" {
		output = fmt.Sprintf("payslip_%s_%d.txt", strings.ToLower(month), year)
	}
	if err := os.WriteFile(output, doc, 0600); err != nil {
		return fmt.Errorf("failed to write payslip: %w", err)
	}

	fmt.Printf("Saved payslip for %s %d to %s\n", month, year, output)
	return nil
}

// notFoundMessage prefers the portal's own wording for a missing payslip and
// falls back to the error text when the classified value is not present.
func notFoundMessage(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

func printPayslip(slip *models.Payslip) error {
	fmt.Printf("Payslip for %s %d\n\n", slip.Month, slip.Year)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintln(w, "Earnings\t\t")
	fmt.Fprintf(w, "  Basic Salary\t%.2f\t\n", slip.BasicSalary)
	fmt.Fprintf(w, "  DA\t%.2f\t\n", slip.DA)
	fmt.Fprintf(w, "  HRA/WS\t%.2f\t\n", slip.HRAWS)
	fmt.Fprintf(w, "  NPA\t%.2f\t\n", slip.NPA)
	fmt.Fprintf(w, "  SBCA\t%.2f\t\n", slip.SBCA)
	fmt.Fprintf(w, "  TA\t%.2f\t\n", slip.TA)
	fmt.Fprintf(w, "  Gross Salary\t%.2f\t\n", slip.GrossSalary)
	fmt.Fprintln(w, "\t\t")
	fmt.Fprintln(w, "Deductions\t\t")
	fmt.Fprintf(w, "  CPF (State)\t%.2f\t\n", slip.CPFState)
	fmt.Fprintf(w, "  GIS (State)\t%.2f\t\n", slip.GISState)
	fmt.Fprintf(w, "  Professional Tax\t%.2f\t\n", slip.ProfessionalTax)
	fmt.Fprintf(w, "  Stamp Duty\t%.2f\t\n", slip.StampDuty)
	fmt.Fprintf(w, "  Total Deductions\t%.2f\t\n", slip.TotalDeductions)
	fmt.Fprintln(w, "\t\t")
	fmt.Fprintf(w, "Net Salary\t%.2f\t\n", slip.NetSalary)

	return w.Flush()
}
