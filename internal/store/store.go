// Package store defines the storage ports used by the portal server.
// Implementations live in the memory, redis and postgres subpackages.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/nkapoor/esshub/internal/models"
)

// Sentinel errors returned by all store implementations.
var (
	ErrEmployeeNotFound  = errors.New("employee not found")
	ErrEmployeeExists    = errors.New("employee already exists")
	ErrPayslipNotFound   = errors.New("payslip not found")
	ErrPayslipExists     = errors.New("payslip already exists")
	ErrChallengeNotFound = errors.New("challenge not found or expired")
)

// Challenge kinds. The kind partitions the challenge keyspace so a captcha id
// can never collide with an employee id used as an OTP key.
const (
	KindCaptcha = "captcha"
	KindOTP     = "otp"
)

// Challenge is a short-lived, single-use secret: the expected captcha text
// keyed by captcha id, or the OTP code keyed by employee id.
type Challenge struct {
	Key       string    `json:"key"`
	Answer    string    `json:"answer"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the challenge is past its deadline.
func (c *Challenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// EmployeeStore provides employee record persistence.
type EmployeeStore interface {
	Create(ctx context.Context, e *models.Employee) error
	GetByEmployeeID(ctx context.Context, employeeID string) (*models.Employee, error)
}

// PayslipStore provides payroll record persistence. Absence of a record for a
// (employee, year, month) key is an expected state, reported as
// ErrPayslipNotFound.
type PayslipStore interface {
	Create(ctx context.Context, p *models.Payslip) error
	Get(ctx context.Context, employeeID string, year int, month string) (*models.Payslip, error)
}

// ChallengeStore holds captcha and OTP challenges with a TTL.
//
// Put replaces any existing challenge under the same (kind, key).
// Take consumes the challenge: a second Take for the same key returns
// ErrChallengeNotFound, which is what makes captchas single-use.
// Peek reads without consuming; the resend gate uses it to check whether a
// live OTP still exists.
type ChallengeStore interface {
	Put(ctx context.Context, kind string, ch *Challenge, ttl time.Duration) error
	Take(ctx context.Context, kind, key string) (*Challenge, error)
	Peek(ctx context.Context, kind, key string) (*Challenge, error)
}
