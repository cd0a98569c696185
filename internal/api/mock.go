package api

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nkapoor/esshub/internal/captcha"
	"github.com/nkapoor/esshub/internal/fixtures"
	"github.com/nkapoor/esshub/internal/models"
	"github.com/nkapoor/esshub/internal/otp"
)

// Mock is the offline/demo implementation of Portal. It never touches the
// network: the captcha is a fixed fixture with a sentinel id, the OTP is
// generated locally and exposed through LastOTP, and employee/payslip data
// comes from the fixtures package.
type Mock struct {
	mu        sync.Mutex
	challenge *otp.Challenge

	// now is swapped out by tests.
	now func() time.Time
}

var _ Portal = (*Mock)(nil)

// NewMock creates the demo portal.
func NewMock() *Mock {
	return &Mock{now: time.Now}
}

// LastOTP returns the most recently issued passcode so a demo caller can
// display it (the original logged it to the console).
func (m *Mock) LastOTP() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.challenge == nil {
		return "", false
	}
	return m.challenge.Code, true
}

// Captcha always succeeds immediately with the fixed fixture.
func (m *Mock) Captcha(ctx context.Context) (*CaptchaResponse, error) {
	img, err := captcha.Render(captcha.DemoCode)
	if err != nil {
		return nil, err
	}
	return &CaptchaResponse{
		CaptchaID: captcha.DemoID,
		Image:     base64.StdEncoding.EncodeToString(img),
	}, nil
}

// Login accepts any credentials for the demo employee, validates the captcha
// text locally (case-insensitive) and issues a local OTP challenge.
func (m *Mock) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if req.CaptchaText != "" && !captcha.Match(captcha.DemoCode, req.CaptchaText) {
		return &LoginResponse{Success: false, Message: "Invalid captcha"}, nil
	}

	ch, err := otp.New(m.now(), otp.DefaultTTL)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.challenge = ch
	m.mu.Unlock()

	requiresOTP := true
	return &LoginResponse{
		Success:     true,
		Message:     "OTP sent",
		Token:       "demo-" + uuid.NewString(),
		EmployeeID:  fixtures.DemoEmployeeID,
		RequiresOTP: &requiresOTP,
		OTPSentTo:   "******0001",
	}, nil
}

// VerifyOTP checks the locally issued passcode.
func (m *Mock) VerifyOTP(ctx context.Context, token string, req VerifyOTPRequest) (*VerifyOTPResponse, error) {
	m.mu.Lock()
	ch := m.challenge
	m.mu.Unlock()

	if ch == nil || ch.Expired(m.now()) {
		return &VerifyOTPResponse{Success: false, Message: "OTP expired"}, nil
	}
	if req.OTPCode != ch.Code {
		return &VerifyOTPResponse{Success: false, Message: "Invalid OTP"}, nil
	}

	m.mu.Lock()
	m.challenge = nil
	m.mu.Unlock()

	return &VerifyOTPResponse{
		Success:      true,
		Message:      "Login successful",
		Token:        "demo-" + uuid.NewString(),
		EmployeeData: fixtures.Employee().Profile(),
	}, nil
}

// ResendOTP regenerates the local challenge once the current one has expired.
func (m *Mock) ResendOTP(ctx context.Context, token string) (*ResendOTPResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.challenge != nil && !m.challenge.Expired(m.now()) {
		return &ResendOTPResponse{Success: false, Message: "Current OTP is still valid"}, nil
	}

	ch, err := otp.New(m.now(), otp.DefaultTTL)
	if err != nil {
		return nil, err
	}
	m.challenge = ch

	return &ResendOTPResponse{Success: true, Message: "OTP sent", OTPSentTo: "******0001"}, nil
}

// Employee serves the fixture profile.
func (m *Mock) Employee(ctx context.Context, token, employeeID string) (*models.UserProfile, error) {
	if employeeID != fixtures.DemoEmployeeID {
		return nil, newError(http.StatusNotFound, "Employee not found")
	}
	return fixtures.Employee().Profile(), nil
}

// Payslip serves the fixture records; any other period is absent.
func (m *Mock) Payslip(ctx context.Context, token, employeeID string, year int, month string) (*models.Payslip, error) {
	for _, slip := range fixtures.Payslips() {
		if slip.EmployeeID == employeeID && slip.Year == year && slip.Month == month {
			cp := *slip
			return &cp, nil
		}
	}
	return nil, newError(http.StatusNotFound, fmt.Sprintf("No payslip data found for %s %d", month, year))
}

// DownloadPayslip is not available offline.
func (m *Mock) DownloadPayslip(ctx context.Context, token, employeeID string, year int, month string) ([]byte, error) {
	return nil, newError(0, "Download is not available in demo mode")
}
