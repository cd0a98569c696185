package api

import (
	"errors"
	"fmt"
)

// ErrCaptchaUnavailable is returned when the captcha endpoint could not be
// reached within the retry budget. Callers should surface a "failed to load,
// please refresh" state rather than retrying forever.
var ErrCaptchaUnavailable = errors.New("captcha unavailable")

// Error is a classified request failure. Status 0 means the server was never
// reached (connectivity, timeout).
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

// classify maps an HTTP status and optional server-provided message to the
// human-readable message shown to the user.
func classify(status int, serverMsg string) string {
	if serverMsg != "" {
		return serverMsg
	}
	switch status {
	case 0:
		return "Cannot connect to server. Please check your connection."
	case 401:
		return "Session expired. Please login again."
	case 404:
		return "Data not found"
	case 500:
		return "Server error. Please try again later."
	default:
		return "An error occurred"
	}
}

func newError(status int, serverMsg string) *Error {
	return &Error{Status: status, Message: classify(status, serverMsg)}
}

func statusOf(err error) (int, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status, true
	}
	return 0, false
}

// IsConnectivity reports whether the error means the server was unreachable.
func IsConnectivity(err error) bool {
	s, ok := statusOf(err)
	return ok && s == 0
}

// IsUnauthorized reports whether the error is an HTTP 401.
func IsUnauthorized(err error) bool {
	s, ok := statusOf(err)
	return ok && s == 401
}

// IsNotFound reports whether the error is an HTTP 404.
func IsNotFound(err error) bool {
	s, ok := statusOf(err)
	return ok && s == 404
}
