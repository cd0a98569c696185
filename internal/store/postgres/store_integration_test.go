//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/nkapoor/esshub/internal/fixtures"
	"github.com/nkapoor/esshub/internal/models"
	"github.com/nkapoor/esshub/internal/store"
)

func setupPostgresContainer(t *testing.T, ctx context.Context) (*pgxpool.Pool, func()) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connString := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	// NewPool runs the embedded migrations.
	pool, err := NewPool(ctx, PoolConfig{ConnString: connString})
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = container.Terminate(ctx)
	}

	return pool, cleanup
}

func TestIntegration_EmployeeStore(t *testing.T) {
	ctx := context.Background()
	pool, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	employees := NewEmployeeStore(pool)

	t.Run("create and get", func(t *testing.T) {
		err := employees.Create(ctx, &models.Employee{
			EmployeeID:   fixtures.DemoEmployeeID,
			FirstName:    "Rajesh",
			LastName:     "Kumar",
			Department:   "Finance",
			Position:     "Accountant",
			Mobile:       "+91-9800000001",
			PasswordHash: "$argon2id$placeholder",
		})
		require.NoError(t, err)

		emp, err := employees.GetByEmployeeID(ctx, fixtures.DemoEmployeeID)
		require.NoError(t, err)
		require.Equal(t, "Rajesh", emp.FirstName)
		require.NotZero(t, emp.ID)
		require.False(t, emp.CreatedAt.IsZero())
	})

	t.Run("duplicate employee id maps to the sentinel", func(t *testing.T) {
		err := employees.Create(ctx, &models.Employee{EmployeeID: fixtures.DemoEmployeeID})
		require.ErrorIs(t, err, store.ErrEmployeeExists)
	})

	t.Run("unknown id maps to the sentinel", func(t *testing.T) {
		_, err := employees.GetByEmployeeID(ctx, "nope")
		require.ErrorIs(t, err, store.ErrEmployeeNotFound)
	})
}

func TestIntegration_PayslipStore(t *testing.T) {
	ctx := context.Background()
	pool, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	payslips := NewPayslipStore(pool)

	t.Run("create and get by period", func(t *testing.T) {
		for _, slip := range fixtures.Payslips() {
			require.NoError(t, payslips.Create(ctx, slip))
		}

		slip, err := payslips.Get(ctx, fixtures.DemoEmployeeID, 2026, "January")
		require.NoError(t, err)
		require.Equal(t, 27710.00, slip.NetSalary)
	})

	t.Run("duplicate period maps to the sentinel", func(t *testing.T) {
		err := payslips.Create(ctx, fixtures.Payslips()[0])
		require.ErrorIs(t, err, store.ErrPayslipExists)
	})

	t.Run("absent period maps to the sentinel", func(t *testing.T) {
		_, err := payslips.Get(ctx, fixtures.DemoEmployeeID, 2026, "February")
		require.ErrorIs(t, err, store.ErrPayslipNotFound)
	})
}
