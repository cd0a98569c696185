// Package server implements the portal's REST API: captcha issuance, the
// login/OTP handshake, and the authenticated employee/payslip endpoints.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nkapoor/esshub/internal/auth"
	"github.com/nkapoor/esshub/internal/store"
)

// Config wires the server's collaborators.
type Config struct {
	Tokens     *auth.Tokens
	Employees  store.EmployeeStore
	Payslips   store.PayslipStore
	Challenges store.ChallengeStore

	// CaptchaTTL bounds how long an issued captcha can be submitted.
	// Default 5 minutes.
	CaptchaTTL time.Duration

	// OTPTTL is the passcode validity window. Default 60 seconds.
	OTPTTL time.Duration

	// Renderer produces the payslip download document.
	Renderer PayslipRenderer

	// LogOTP writes issued passcodes to the server log. Development only.
	LogOTP bool
}

// Server holds the handler state.
type Server struct {
	cfg Config
}

// New creates a portal server.
func New(cfg Config) *Server {
	if cfg.CaptchaTTL == 0 {
		cfg.CaptchaTTL = 5 * time.Minute
	}
	if cfg.OTPTTL == 0 {
		cfg.OTPTTL = 60 * time.Second
	}
	if cfg.Renderer == nil {
		cfg.Renderer = TextRenderer{}
	}
	return &Server{cfg: cfg}
}

// Routes returns the API handler.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /api/captcha", s.handleCaptcha)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)

	mux.Handle("POST /api/auth/verify-otp",
		s.cfg.Tokens.RequireStage(auth.StageOTP, http.HandlerFunc(s.handleVerifyOTP)))
	mux.Handle("POST /api/auth/resend-otp",
		s.cfg.Tokens.RequireStage(auth.StageOTP, http.HandlerFunc(s.handleResendOTP)))

	mux.Handle("GET /api/employee/{employeeID}",
		s.cfg.Tokens.RequireStage(auth.StageSession, http.HandlerFunc(s.handleEmployee)))
	mux.Handle("GET /api/payslips",
		s.cfg.Tokens.RequireStage(auth.StageSession, http.HandlerFunc(s.handlePayslip)))
	mux.Handle("GET /api/payslips/download",
		s.cfg.Tokens.RequireStage(auth.StageSession, http.HandlerFunc(s.handlePayslipDownload)))

	return mux
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Debug().Err(err).Msg("failed to encode response")
	}
}
