// Package auth issues and validates the portal's bearer tokens and hashes
// employee credentials.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token stages. A login that still awaits the second factor gets a token that
// is only good for the OTP endpoints; the session token comes out of a
// successful verification.
const (
	StageOTP     = "otp"
	StageSession = "session"
)

// Token lifetimes.
const (
	OTPTokenTTL     = 5 * time.Minute
	SessionTokenTTL = 24 * time.Hour
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrWrongStage   = errors.New("token not valid for this operation")
)

// Claims are the portal's JWT claims: registered set plus the stage marker.
type Claims struct {
	Stage string `json:"stage"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies portal JWTs with an HMAC secret.
type Tokens struct {
	secret []byte
	issuer string
}

// NewTokens creates a token signer/verifier. The secret must be at least 32
// bytes for HMAC-SHA256.
func NewTokens(secret []byte, issuer string) (*Tokens, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("token secret must be at least 32 bytes")
	}
	if issuer == "" {
		issuer = "esshub"
	}
	return &Tokens{secret: secret, issuer: issuer}, nil
}

// Issue signs a token for the employee at the given stage.
func (t *Tokens) Issue(employeeID, stage string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Stage: stage,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    t.issuer,
			Subject:   employeeID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses the token, checks the signature and expiry, and enforces the
// expected stage. Returns the employee id from the subject claim.
func (t *Tokens) Verify(tokenStr, wantStage string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("invalid signing method")
		}
		return t.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return "", ErrInvalidToken
	}

	if claims.Stage != wantStage {
		return "", ErrWrongStage
	}

	return claims.Subject, nil
}
