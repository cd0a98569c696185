// Package seed loads employee and payslip records into the stores at startup,
// either from a YAML file or from the built-in demo fixtures.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nkapoor/esshub/internal/auth"
	"github.com/nkapoor/esshub/internal/fixtures"
	"github.com/nkapoor/esshub/internal/models"
	"github.com/nkapoor/esshub/internal/store"
)

// Employee is one seed record. Password is the plaintext to hash at load
// time; seed files are for development and provisioning, not production
// credential storage.
type Employee struct {
	EmployeeID  string `yaml:"employee_id"`
	Password    string `yaml:"password"`
	FirstName   string `yaml:"first_name"`
	LastName    string `yaml:"last_name"`
	Email       string `yaml:"email"`
	Mobile      string `yaml:"mobile"`
	Department  string `yaml:"department"`
	Position    string `yaml:"position"`
	DateOfBirth string `yaml:"date_of_birth"`
	JoinDate    string `yaml:"join_date"`
}

// Payslip is one payroll seed record.
type Payslip struct {
	EmployeeID string `yaml:"employee_id"`
	Year       int    `yaml:"year"`
	Month      string `yaml:"month"`

	BasicSalary float64 `yaml:"basic_salary"`
	DA          float64 `yaml:"da"`
	HRAWS       float64 `yaml:"hra_ws"`
	NPA         float64 `yaml:"npa"`
	SBCA        float64 `yaml:"sbca"`
	TA          float64 `yaml:"ta"`

	CPFState        float64 `yaml:"cpf_state"`
	GISState        float64 `yaml:"gis_state"`
	ProfessionalTax float64 `yaml:"professional_tax"`
	StampDuty       float64 `yaml:"stamp_duty"`

	GrossSalary     float64 `yaml:"gross_salary"`
	TotalDeductions float64 `yaml:"total_deductions"`
	NetSalary       float64 `yaml:"net_salary"`
}

// File is the YAML seed document.
type File struct {
	Employees []Employee `yaml:"employees"`
	Payslips  []Payslip  `yaml:"payslips"`
}

// LoadFile parses a YAML seed file.
func LoadFile(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &f, nil
}

// Apply hashes each password and writes the records. Records that already
// exist are skipped, so re-running against a durable store is safe.
func Apply(ctx context.Context, f *File, employees store.EmployeeStore, payslips store.PayslipStore) error {
	for i := range f.Employees {
		rec := &f.Employees[i]
		if rec.EmployeeID == "" {
			return fmt.Errorf("seed employee %d: employee_id is required", i)
		}

		hash, err := auth.HashPassword(rec.Password)
		if err != nil {
			return fmt.Errorf("seed employee %s: %w", rec.EmployeeID, err)
		}

		err = employees.Create(ctx, &models.Employee{
			EmployeeID:   rec.EmployeeID,
			PasswordHash: hash,
			FirstName:    rec.FirstName,
			LastName:     rec.LastName,
			Email:        rec.Email,
			Mobile:       rec.Mobile,
			Department:   rec.Department,
			Position:     rec.Position,
			DateOfBirth:  rec.DateOfBirth,
			JoinDate:     rec.JoinDate,
		})
		if err != nil && !errors.Is(err, store.ErrEmployeeExists) {
			return fmt.Errorf("seed employee %s: %w", rec.EmployeeID, err)
		}
	}

	for i := range f.Payslips {
		rec := &f.Payslips[i]
		err := payslips.Create(ctx, &models.Payslip{
			EmployeeID:      rec.EmployeeID,
			Year:            rec.Year,
			Month:           rec.Month,
			BasicSalary:     rec.BasicSalary,
			DA:              rec.DA,
			HRAWS:           rec.HRAWS,
			NPA:             rec.NPA,
			SBCA:            rec.SBCA,
			TA:              rec.TA,
			CPFState:        rec.CPFState,
			GISState:        rec.GISState,
			ProfessionalTax: rec.ProfessionalTax,
			StampDuty:       rec.StampDuty,
			GrossSalary:     rec.GrossSalary,
			TotalDeductions: rec.TotalDeductions,
			NetSalary:       rec.NetSalary,
		})
		if err != nil && !errors.Is(err, store.ErrPayslipExists) {
			return fmt.Errorf("seed payslip %s %s %d: %w", rec.EmployeeID, rec.Month, rec.Year, err)
		}
	}

	return nil
}

// ApplyDemo loads the built-in demo employee and payslips.
func ApplyDemo(ctx context.Context, employees store.EmployeeStore, payslips store.PayslipStore) error {
	hash, err := auth.HashPassword(fixtures.DemoPassword)
	if err != nil {
		return err
	}

	emp := fixtures.Employee()
	emp.PasswordHash = hash
	if err := employees.Create(ctx, emp); err != nil && !errors.Is(err, store.ErrEmployeeExists) {
		return fmt.Errorf("seed demo employee: %w", err)
	}

	for _, slip := range fixtures.Payslips() {
		if err := payslips.Create(ctx, slip); err != nil && !errors.Is(err, store.ErrPayslipExists) {
			return fmt.Errorf("seed demo payslip %s %d: %w", slip.Month, slip.Year, err)
		}
	}
	return nil
}
