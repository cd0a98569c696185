package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/nkapoor/esshub/internal/models"
)

// Portal is the client-side view of the backend: captcha issuance, the
// login/OTP handshake, and the authenticated employee/payslip reads. The demo
// client in mock.go implements the same interface without network I/O.
type Portal interface {
	Captcha(ctx context.Context) (*CaptchaResponse, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	VerifyOTP(ctx context.Context, token string, req VerifyOTPRequest) (*VerifyOTPResponse, error)
	ResendOTP(ctx context.Context, token string) (*ResendOTPResponse, error)
	Employee(ctx context.Context, token, employeeID string) (*models.UserProfile, error)
	Payslip(ctx context.Context, token, employeeID string, year int, month string) (*models.Payslip, error)
	DownloadPayslip(ctx context.Context, token, employeeID string, year int, month string) ([]byte, error)
}

// Captcha retry budget: the initial request plus two automatic retries,
// bounded overall.
const (
	captchaMaxTries    = 3
	captchaMaxDuration = 10 * time.Second
)

// Config holds client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client is the HTTP implementation of Portal.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ Portal = (*Client)(nil)

// NewClient creates a portal client for the given base URL
// (e.g. "http://localhost:8000").
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Captcha fetches a fresh challenge, retrying transient failures within the
// retry budget. When the budget is exhausted the error wraps
// ErrCaptchaUnavailable.
func (c *Client) Captcha(ctx context.Context) (*CaptchaResponse, error) {
	operation := func() (*CaptchaResponse, error) {
		var resp CaptchaResponse
		if err := c.getJSON(ctx, "/api/captcha", "", &resp); err != nil {
			// Client-side errors won't improve on retry.
			if s, ok := statusOf(err); ok && s >= 400 && s < 500 {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return &resp, nil
	}

	resp, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(captchaMaxTries),
		backoff.WithMaxElapsedTime(captchaMaxDuration),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCaptchaUnavailable, err)
	}
	return resp, nil
}

// Login submits credentials plus the captcha answer. Any response with a
// decodable body is returned as-is, including rejections, so the flow
// controller can route on the server's message.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.postJSON(ctx, "/api/auth/login", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyOTP submits the passcode under the pre-auth token from Login.
func (c *Client) VerifyOTP(ctx context.Context, token string, req VerifyOTPRequest) (*VerifyOTPResponse, error) {
	var resp VerifyOTPResponse
	if err := c.postJSON(ctx, "/api/auth/verify-otp", token, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResendOTP requests a fresh passcode; the server rejects it while the
// current one is still live.
func (c *Client) ResendOTP(ctx context.Context, token string) (*ResendOTPResponse, error) {
	var resp ResendOTPResponse
	if err := c.postJSON(ctx, "/api/auth/resend-otp", token, struct{}{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Employee fetches the profile record.
func (c *Client) Employee(ctx context.Context, token, employeeID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := c.getJSON(ctx, "/api/employee/"+employeeID, token, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Payslip fetches the payroll record for one period. A 404 comes back as an
// *Error with the server's "no data for period" message; callers treat it as
// informational, not a failure.
func (c *Client) Payslip(ctx context.Context, token, employeeID string, year int, month string) (*models.Payslip, error) {
	path := fmt.Sprintf("/api/payslips?employee_id=%s&year=%d&month=%s", employeeID, year, month)
	var envelope PayslipResponse
	if err := c.getJSON(ctx, path, token, &envelope); err != nil {
		return nil, err
	}
	if !envelope.Success || envelope.Data == nil {
		return nil, newError(http.StatusNotFound, envelope.Message)
	}
	return envelope.Data, nil
}

// DownloadPayslip fetches the rendered payslip document.
func (c *Client) DownloadPayslip(ctx context.Context, token, employeeID string, year int, month string) ([]byte, error) {
	path := fmt.Sprintf("/api/payslips/download?employee_id=%s&year=%d&month=%s&format=pdf", employeeID, year, month)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	setHeaders(req, token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, newError(0, "")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(0, "")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, newError(resp.StatusCode, serverMessage(body))
	}
	return body, nil
}

func setHeaders(req *http.Request, token string) {
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func (c *Client) getJSON(ctx context.Context, path, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	setHeaders(req, token)
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path, token string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	setHeaders(req, token)
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return newError(0, "")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return newError(0, "")
	}

	// Rejections carry their detail in the JSON body; decode it into the
	// caller's response type when possible so the message survives.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if json.Unmarshal(body, out) == nil {
			if msg := serverMessage(body); msg != "" {
				return newError(resp.StatusCode, msg)
			}
		}
		return newError(resp.StatusCode, serverMessage(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// serverMessage pulls the human-readable detail out of an error body,
// tolerating both {"message": ...} and {"detail": ...} shapes.
func serverMessage(body []byte) string {
	var envelope struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	return envelope.Detail
}
