package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/nkapoor/esshub/internal/api"
	"github.com/nkapoor/esshub/internal/auth"
	"github.com/nkapoor/esshub/internal/store"
)

func (s *Server) payslipQuery(w http.ResponseWriter, r *http.Request) (employeeID string, year int, month string, ok bool) {
	q := r.URL.Query()
	employeeID = q.Get("employee_id")
	month = q.Get("month")

	subject := auth.EmployeeIDFromContext(r.Context())
	if employeeID == "" {
		employeeID = subject
	}
	if employeeID != subject {
		writeJSON(w, http.StatusForbidden, api.PayslipResponse{Success: false, Message: "Access forbidden"})
		return "", 0, "", false
	}

	year, err := strconv.Atoi(q.Get("year"))
	if err != nil || month == "" {
		writeJSON(w, http.StatusBadRequest, api.PayslipResponse{Success: false, Message: "year and month are required"})
		return "", 0, "", false
	}

	return employeeID, year, month, true
}

func (s *Server) handlePayslip(w http.ResponseWriter, r *http.Request) {
	employeeID, year, month, ok := s.payslipQuery(w, r)
	if !ok {
		return
	}

	slip, err := s.cfg.Payslips.Get(r.Context(), employeeID, year, month)
	if err != nil {
		if errors.Is(err, store.ErrPayslipNotFound) {
			// Expected state: not every period has data.
			writeJSON(w, http.StatusNotFound, api.PayslipResponse{
				Success: false,
				Message: fmt.Sprintf("No payslip data found for %s %d", month, year),
			})
			return
		}
		log.Error().Err(err).Msg("payslip lookup failed")
		writeJSON(w, http.StatusInternalServerError, api.PayslipResponse{Success: false, Message: "Server error"})
		return
	}

	writeJSON(w, http.StatusOK, api.PayslipResponse{Success: true, Data: slip})
}

func (s *Server) handlePayslipDownload(w http.ResponseWriter, r *http.Request) {
	employeeID, year, month, ok := s.payslipQuery(w, r)
	if !ok {
		return
	}

	slip, err := s.cfg.Payslips.Get(r.Context(), employeeID, year, month)
	if err != nil {
		if errors.Is(err, store.ErrPayslipNotFound) {
			writeJSON(w, http.StatusNotFound, api.PayslipResponse{
				Success: false,
				Message: fmt.Sprintf("No payslip data found for %s %d", month, year),
			})
			return
		}
		log.Error().Err(err).Msg("payslip lookup failed")
		writeJSON(w, http.StatusInternalServerError, api.PayslipResponse{Success: false, Message: "Server error"})
		return
	}

	employee, err := s.cfg.Employees.GetByEmployeeID(r.Context(), employeeID)
	if err != nil {
		log.Error().Err(err).Msg("employee lookup failed for download")
		writeJSON(w, http.StatusInternalServerError, api.PayslipResponse{Success: false, Message: "Server error"})
		return
	}

	doc, contentType, err := s.cfg.Renderer.Render(employee.Profile(), slip)
	if err != nil {
		log.Error().Err(err).Msg("payslip rendering failed")
		writeJSON(w, http.StatusInternalServerError, api.PayslipResponse{Success: false, Message: "Failed to render payslip"})
		return
	}

	filename := fmt.Sprintf("payslip-%s-%d.txt", month, year)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}
