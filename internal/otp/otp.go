// Package otp implements the time-boxed one-time passcode used as the second
// authentication factor.
package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// CodeLength is the number of digits in a passcode.
const CodeLength = 6

// DefaultTTL is the validity window of a freshly issued passcode.
const DefaultTTL = 60 * time.Second

// Challenge is one issued passcode with its validity window.
type Challenge struct {
	Code     string
	IssuedAt time.Time
	TTL      time.Duration
}

// NewCode generates a random 6-digit numeric code. The leading digit may be
// zero, so the code is a string, never an integer.
func NewCode() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// New issues a fresh challenge starting at the given instant.
func New(issuedAt time.Time, ttl time.Duration) (*Challenge, error) {
	code, err := NewCode()
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Challenge{Code: code, IssuedAt: issuedAt, TTL: ttl}, nil
}

// Deadline returns the absolute expiry instant.
func (c *Challenge) Deadline() time.Time {
	return c.IssuedAt.Add(c.TTL)
}

// Remaining computes whole seconds left at the given instant, never negative.
// It is derived from the absolute deadline each time, never from a counter,
// so a suspended caller resumes with the correct value.
func (c *Challenge) Remaining(now time.Time) int {
	left := c.Deadline().Sub(now)
	if left <= 0 {
		return 0
	}
	return int(left / time.Second)
}

// Expired reports whether the window has closed at the given instant.
func (c *Challenge) Expired(now time.Time) bool {
	return c.Remaining(now) == 0
}
