package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nkapoor/esshub/internal/models"
	"github.com/nkapoor/esshub/internal/store"
)

// PayslipStore is a PostgreSQL implementation of store.PayslipStore.
type PayslipStore struct {
	pool *pgxpool.Pool
}

// NewPayslipStore creates a payslip store on an existing pool.
func NewPayslipStore(pool *pgxpool.Pool) *PayslipStore {
	return &PayslipStore{pool: pool}
}

// Create inserts a payroll record for its (employee, year, month) key.
func (s *PayslipStore) Create(ctx context.Context, p *models.Payslip) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO payslips (
			employee_id, year, month,
			basic_salary, da, hraws, npa, sbca, ta,
			cpf_state, gis_state, professional_tax, stamp_duty,
			gross_salary, total_deductions, net_salary,
			payment_date, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id`,
		p.EmployeeID, p.Year, p.Month,
		p.BasicSalary, p.DA, p.HRAWS, p.NPA, p.SBCA, p.TA,
		p.CPFState, p.GISState, p.ProfessionalTax, p.StampDuty,
		p.GrossSalary, p.TotalDeductions, p.NetSalary,
		p.PaymentDate, p.Status,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to create payslip: %w", mapPostgresError(err))
	}
	return nil
}

// Get retrieves the payroll record for a period, or ErrPayslipNotFound when
// the period has no data.
func (s *PayslipStore) Get(ctx context.Context, employeeID string, year int, month string) (*models.Payslip, error) {
	var p models.Payslip
	err := s.pool.QueryRow(ctx, `
		SELECT id, employee_id, year, month,
			basic_salary, da, hraws, npa, sbca, ta,
			cpf_state, gis_state, professional_tax, stamp_duty,
			gross_salary, total_deductions, net_salary,
			payment_date, status
		FROM payslips
		WHERE employee_id = $1 AND year = $2 AND month = $3`,
		employeeID, year, month,
	).Scan(
		&p.ID, &p.EmployeeID, &p.Year, &p.Month,
		&p.BasicSalary, &p.DA, &p.HRAWS, &p.NPA, &p.SBCA, &p.TA,
		&p.CPFState, &p.GISState, &p.ProfessionalTax, &p.StampDuty,
		&p.GrossSalary, &p.TotalDeductions, &p.NetSalary,
		&p.PaymentDate, &p.Status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrPayslipNotFound
		}
		return nil, fmt.Errorf("failed to get payslip: %w", mapPostgresError(err))
	}
	return &p, nil
}
