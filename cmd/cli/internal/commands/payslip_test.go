package commands

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nkapoor/esshub/internal/api"
)

func TestNotFoundMessage(t *testing.T) {
	t.Run("uses the portal wording", func(t *testing.T) {
		err := &api.Error{Status: 404, Message: "No payslip data found for February 2026"}
		assert.Equal(t, "No payslip data found for February 2026", notFoundMessage(err))
	})

	t.Run("unwraps to the classified error", func(t *testing.T) {
		err := fmt.Errorf("fetch payslip: %w", &api.Error{Status: 404, Message: "No payslip data found for March 2024"})
		assert.Equal(t, "No payslip data found for March 2024", notFoundMessage(err))
	})

	t.Run("falls back to the error text", func(t *testing.T) {
		err := errors.New("record missing")
		assert.Equal(t, "record missing", notFoundMessage(err))
	})
}
