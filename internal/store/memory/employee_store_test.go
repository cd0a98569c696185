package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkapoor/esshub/internal/models"
	"github.com/nkapoor/esshub/internal/store"
)

func TestEmployeeStore(t *testing.T) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		s := NewEmployeeStore()

		err := s.Create(ctx, &models.Employee{
			EmployeeID: "20240101000001",
			FirstName:  "Rajesh",
			LastName:   "Kumar",
		})
		require.NoError(t, err)

		emp, err := s.GetByEmployeeID(ctx, "20240101000001")
		require.NoError(t, err)
		assert.Equal(t, "Rajesh", emp.FirstName)
		assert.NotZero(t, emp.ID)
	})

	t.Run("duplicate employee id is rejected", func(t *testing.T) {
		s := NewEmployeeStore()

		require.NoError(t, s.Create(ctx, &models.Employee{EmployeeID: "20240101000001"}))
		err := s.Create(ctx, &models.Employee{EmployeeID: "20240101000001"})
		require.ErrorIs(t, err, store.ErrEmployeeExists)
	})

	t.Run("unknown employee id", func(t *testing.T) {
		s := NewEmployeeStore()
		_, err := s.GetByEmployeeID(ctx, "nope")
		require.ErrorIs(t, err, store.ErrEmployeeNotFound)
	})

	t.Run("returned record is a copy", func(t *testing.T) {
		s := NewEmployeeStore()
		require.NoError(t, s.Create(ctx, &models.Employee{EmployeeID: "20240101000001", FirstName: "Rajesh"}))

		emp, err := s.GetByEmployeeID(ctx, "20240101000001")
		require.NoError(t, err)
		emp.FirstName = "changed"

		again, err := s.GetByEmployeeID(ctx, "20240101000001")
		require.NoError(t, err)
		assert.Equal(t, "Rajesh", again.FirstName)
	})
}
