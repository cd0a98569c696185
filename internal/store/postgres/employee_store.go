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

// EmployeeStore is a PostgreSQL implementation of store.EmployeeStore.
type EmployeeStore struct {
	pool *pgxpool.Pool
}

// NewEmployeeStore creates an employee store on an existing pool.
func NewEmployeeStore(pool *pgxpool.Pool) *EmployeeStore {
	return &EmployeeStore{pool: pool}
}

// Create inserts a new employee record.
func (s *EmployeeStore) Create(ctx context.Context, e *models.Employee) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO employees (
			employee_id, first_name, last_name, department, position,
			email, mobile, date_of_birth, join_date, status, password_hash
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`,
		e.EmployeeID, e.FirstName, e.LastName, e.Department, e.Position,
		e.Email, e.Mobile, e.DateOfBirth, e.JoinDate, e.Status, e.PasswordHash,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create employee: %w", mapPostgresError(err))
	}
	return nil
}

// GetByEmployeeID retrieves an employee record by employee id.
func (s *EmployeeStore) GetByEmployeeID(ctx context.Context, employeeID string) (*models.Employee, error) {
	var e models.Employee
	err := s.pool.QueryRow(ctx, `
		SELECT id, employee_id, first_name, last_name, department, position,
			email, mobile, date_of_birth, join_date, status, password_hash,
			created_at, updated_at
		FROM employees
		WHERE employee_id = $1`,
		employeeID,
	).Scan(
		&e.ID, &e.EmployeeID, &e.FirstName, &e.LastName, &e.Department, &e.Position,
		&e.Email, &e.Mobile, &e.DateOfBirth, &e.JoinDate, &e.Status, &e.PasswordHash,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("failed to get employee: %w", mapPostgresError(err))
	}
	return &e, nil
}
