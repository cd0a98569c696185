package server

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nkapoor/esshub/internal/api"
	"github.com/nkapoor/esshub/internal/auth"
	"github.com/nkapoor/esshub/internal/captcha"
	"github.com/nkapoor/esshub/internal/httpmw"
	"github.com/nkapoor/esshub/internal/otp"
	"github.com/nkapoor/esshub/internal/store"
)

func (s *Server) handleCaptcha(w http.ResponseWriter, r *http.Request) {
	ch, err := captcha.New()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, api.LoginResponse{Success: false, Message: "Failed to generate captcha"})
		return
	}

	img, err := captcha.Render(ch.Code)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, api.LoginResponse{Success: false, Message: "Failed to render captcha"})
		return
	}

	err = s.cfg.Challenges.Put(r.Context(), store.KindCaptcha, &store.Challenge{
		Key:    ch.ID,
		Answer: ch.Code,
	}, s.cfg.CaptchaTTL)
	if err != nil {
		log.Error().Err(err).Msg("failed to store captcha challenge")
		writeJSON(w, http.StatusInternalServerError, api.LoginResponse{Success: false, Message: "Failed to issue captcha"})
		return
	}

	writeJSON(w, http.StatusOK, api.CaptchaResponse{
		CaptchaID: ch.ID,
		Image:     base64.StdEncoding.EncodeToString(img),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, api.LoginResponse{Success: false, Message: "Invalid request body"})
		return
	}

	req.EmployeeID = strings.TrimSpace(req.EmployeeID)

	switch {
	case req.EmployeeID == "":
		writeJSON(w, http.StatusBadRequest, api.LoginResponse{Success: false, Message: "Employee ID is required"})
		return
	case req.Password == "":
		writeJSON(w, http.StatusBadRequest, api.LoginResponse{Success: false, Message: "Password is required"})
		return
	case req.CaptchaID == "" || strings.TrimSpace(req.CaptchaText) == "":
		writeJSON(w, http.StatusBadRequest, api.LoginResponse{Success: false, Message: "Captcha is required"})
		return
	}

	// Captcha is consumed on every attempt; a failed submission forces the
	// client to fetch a fresh challenge.
	ch, err := s.cfg.Challenges.Take(r.Context(), store.KindCaptcha, req.CaptchaID)
	if err != nil {
		if errors.Is(err, store.ErrChallengeNotFound) {
			writeJSON(w, http.StatusUnauthorized, api.LoginResponse{Success: false, Message: "Invalid captcha"})
			return
		}
		log.Error().Err(err).Msg("captcha lookup failed")
		writeJSON(w, http.StatusInternalServerError, api.LoginResponse{Success: false, Message: "Server error"})
		return
	}

	if !captcha.Match(ch.Answer, req.CaptchaText) {
		writeJSON(w, http.StatusUnauthorized, api.LoginResponse{Success: false, Message: "Invalid captcha"})
		return
	}

	employee, err := s.cfg.Employees.GetByEmployeeID(r.Context(), req.EmployeeID)
	if err != nil {
		if errors.Is(err, store.ErrEmployeeNotFound) {
			// Same message as a bad password, to avoid probing for ids.
			writeJSON(w, http.StatusUnauthorized, api.LoginResponse{Success: false, Message: "Invalid employee ID or password"})
			return
		}
		log.Error().Err(err).Msg("employee lookup failed")
		writeJSON(w, http.StatusInternalServerError, api.LoginResponse{Success: false, Message: "Server error"})
		return
	}

	ok, err := auth.VerifyPassword(req.Password, employee.PasswordHash)
	if err != nil || !ok {
		writeJSON(w, http.StatusUnauthorized, api.LoginResponse{Success: false, Message: "Invalid employee ID or password"})
		return
	}

	code, err := otp.NewCode()
	if err != nil {
		log.Error().Err(err).Msg("otp generation failed")
		writeJSON(w, http.StatusInternalServerError, api.LoginResponse{Success: false, Message: "Server error"})
		return
	}

	now := time.Now()
	err = s.cfg.Challenges.Put(r.Context(), store.KindOTP, &store.Challenge{
		Key:       employee.EmployeeID,
		Answer:    code,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.cfg.OTPTTL),
	}, s.cfg.OTPTTL)
	if err != nil {
		log.Error().Err(err).Msg("failed to store otp challenge")
		writeJSON(w, http.StatusInternalServerError, api.LoginResponse{Success: false, Message: "Server error"})
		return
	}

	if s.cfg.LogOTP {
		log.Info().Str("employee_id", employee.EmployeeID).Str("code", code).Msg("otp issued")
	}

	preAuth, err := s.cfg.Tokens.Issue(employee.EmployeeID, auth.StageOTP, auth.OTPTokenTTL)
	if err != nil {
		log.Error().Err(err).Msg("failed to issue pre-auth token")
		writeJSON(w, http.StatusInternalServerError, api.LoginResponse{Success: false, Message: "Server error"})
		return
	}

	log.Info().
		Str("employee_id", employee.EmployeeID).
		Str("client_ip", httpmw.ClientIPFromContext(r.Context())).
		Msg("login accepted, otp pending")

	requiresOTP := true
	writeJSON(w, http.StatusOK, api.LoginResponse{
		Success:     true,
		Message:     "OTP sent",
		Token:       preAuth,
		EmployeeID:  employee.EmployeeID,
		RequiresOTP: &requiresOTP,
		OTPSentTo:   maskMobile(employee.Mobile),
	})
}

func (s *Server) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	subject := auth.EmployeeIDFromContext(r.Context())

	var req api.VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, api.VerifyOTPResponse{Success: false, Message: "Invalid request body"})
		return
	}

	if req.EmployeeID != "" && req.EmployeeID != subject {
		writeJSON(w, http.StatusForbidden, api.VerifyOTPResponse{Success: false, Message: "Employee ID does not match session"})
		return
	}

	ch, err := s.cfg.Challenges.Take(r.Context(), store.KindOTP, subject)
	if err != nil {
		if errors.Is(err, store.ErrChallengeNotFound) {
			writeJSON(w, http.StatusUnauthorized, api.VerifyOTPResponse{Success: false, Message: "OTP expired"})
			return
		}
		log.Error().Err(err).Msg("otp lookup failed")
		writeJSON(w, http.StatusInternalServerError, api.VerifyOTPResponse{Success: false, Message: "Server error"})
		return
	}

	if subtle.ConstantTimeCompare([]byte(ch.Answer), []byte(strings.TrimSpace(req.OTPCode))) != 1 {
		writeJSON(w, http.StatusUnauthorized, api.VerifyOTPResponse{Success: false, Message: "Invalid OTP"})
		return
	}

	employee, err := s.cfg.Employees.GetByEmployeeID(r.Context(), subject)
	if err != nil {
		log.Error().Err(err).Msg("employee lookup failed after otp")
		writeJSON(w, http.StatusInternalServerError, api.VerifyOTPResponse{Success: false, Message: "Server error"})
		return
	}

	token, err := s.cfg.Tokens.Issue(subject, auth.StageSession, auth.SessionTokenTTL)
	if err != nil {
		log.Error().Err(err).Msg("failed to issue session token")
		writeJSON(w, http.StatusInternalServerError, api.VerifyOTPResponse{Success: false, Message: "Server error"})
		return
	}

	log.Info().Str("employee_id", subject).Msg("otp verified, session issued")

	writeJSON(w, http.StatusOK, api.VerifyOTPResponse{
		Success:      true,
		Message:      "Login successful",
		Token:        token,
		EmployeeData: employee.Profile(),
	})
}

func (s *Server) handleResendOTP(w http.ResponseWriter, r *http.Request) {
	subject := auth.EmployeeIDFromContext(r.Context())

	// Resend is only allowed once the current passcode has expired.
	if cur, err := s.cfg.Challenges.Peek(r.Context(), store.KindOTP, subject); err == nil && !cur.Expired(time.Now()) {
		writeJSON(w, http.StatusConflict, api.ResendOTPResponse{Success: false, Message: "Current OTP is still valid"})
		return
	}

	employee, err := s.cfg.Employees.GetByEmployeeID(r.Context(), subject)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, api.ResendOTPResponse{Success: false, Message: "Server error"})
		return
	}

	code, err := otp.NewCode()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, api.ResendOTPResponse{Success: false, Message: "Server error"})
		return
	}

	now := time.Now()
	err = s.cfg.Challenges.Put(r.Context(), store.KindOTP, &store.Challenge{
		Key:       subject,
		Answer:    code,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.cfg.OTPTTL),
	}, s.cfg.OTPTTL)
	if err != nil {
		log.Error().Err(err).Msg("failed to store otp challenge")
		writeJSON(w, http.StatusInternalServerError, api.ResendOTPResponse{Success: false, Message: "Server error"})
		return
	}

	if s.cfg.LogOTP {
		log.Info().Str("employee_id", subject).Str("code", code).Msg("otp reissued")
	}

	writeJSON(w, http.StatusOK, api.ResendOTPResponse{
		Success:   true,
		Message:   "OTP sent",
		OTPSentTo: maskMobile(employee.Mobile),
	})
}

// maskMobile keeps the last four digits visible, e.g. "+91-98XXXXXX01" style
// masking reduced to "******0001".
func maskMobile(mobile string) string {
	digits := make([]byte, 0, len(mobile))
	for i := 0; i < len(mobile); i++ {
		if mobile[i] >= '0' && mobile[i] <= '9' {
			digits = append(digits, mobile[i])
		}
	}
	if len(digits) < 4 {
		return "******"
	}
	return "******" + string(digits[len(digits)-4:])
}
