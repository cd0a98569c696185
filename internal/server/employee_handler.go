package server

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/nkapoor/esshub/internal/api"
	"github.com/nkapoor/esshub/internal/auth"
	"github.com/nkapoor/esshub/internal/store"
)

func (s *Server) handleEmployee(w http.ResponseWriter, r *http.Request) {
	employeeID := r.PathValue("employeeID")
	subject := auth.EmployeeIDFromContext(r.Context())

	// Employees can only read their own record.
	if employeeID != subject {
		writeJSON(w, http.StatusForbidden, api.PayslipResponse{Success: false, Message: "Access forbidden"})
		return
	}

	employee, err := s.cfg.Employees.GetByEmployeeID(r.Context(), employeeID)
	if err != nil {
		if errors.Is(err, store.ErrEmployeeNotFound) {
			writeJSON(w, http.StatusNotFound, api.PayslipResponse{Success: false, Message: "Employee not found"})
			return
		}
		log.Error().Err(err).Msg("employee lookup failed")
		writeJSON(w, http.StatusInternalServerError, api.PayslipResponse{Success: false, Message: "Server error"})
		return
	}

	writeJSON(w, http.StatusOK, employee.Profile())
}
