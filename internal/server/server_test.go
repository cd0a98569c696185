package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkapoor/esshub/internal/api"
	"github.com/nkapoor/esshub/internal/auth"
	"github.com/nkapoor/esshub/internal/fixtures"
	"github.com/nkapoor/esshub/internal/models"
	"github.com/nkapoor/esshub/internal/seed"
	"github.com/nkapoor/esshub/internal/store"
	memorystore "github.com/nkapoor/esshub/internal/store/memory"
)

type testEnv struct {
	server     *httptest.Server
	challenges *memorystore.ChallengeStore
	tokens     *auth.Tokens
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	tokens, err := auth.NewTokens([]byte("test-secret-key-min-32-bytes-long"), "esshub")
	require.NoError(t, err)

	employees := memorystore.NewEmployeeStore()
	payslips := memorystore.NewPayslipStore()
	challenges := memorystore.NewChallengeStore()

	require.NoError(t, seed.ApplyDemo(ctx, employees, payslips))

	srv := New(Config{
		Tokens:     tokens,
		Employees:  employees,
		Payslips:   payslips,
		Challenges: challenges,
	})

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)

	return &testEnv{server: ts, challenges: challenges, tokens: tokens}
}

func (e *testEnv) getJSON(t *testing.T, path, token string, out any) int {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, e.server.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.do(t, req, out)
}

func (e *testEnv) postJSON(t *testing.T, path, token string, body, out any) int {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, e.server.URL+path, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.do(t, req, out)
}

func (e *testEnv) do(t *testing.T, req *http.Request, out any) int {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// captchaAnswer reads the stored answer for an issued challenge, standing in
// for the human reading the image.
func (e *testEnv) captchaAnswer(t *testing.T, captchaID string) string {
	t.Helper()
	ch, err := e.challenges.Peek(context.Background(), store.KindCaptcha, captchaID)
	require.NoError(t, err)
	return ch.Answer
}

func (e *testEnv) otpCode(t *testing.T, employeeID string) string {
	t.Helper()
	ch, err := e.challenges.Peek(context.Background(), store.KindOTP, employeeID)
	require.NoError(t, err)
	return ch.Answer
}

// login walks captcha and credentials, returning the pre-auth token.
func (e *testEnv) login(t *testing.T) string {
	t.Helper()

	var captcha api.CaptchaResponse
	require.Equal(t, http.StatusOK, e.getJSON(t, "/api/captcha", "", &captcha))

	var resp api.LoginResponse
	status := e.postJSON(t, "/api/auth/login", "", api.LoginRequest{
		EmployeeID:  fixtures.DemoEmployeeID,
		Password:    fixtures.DemoPassword,
		CaptchaID:   captcha.CaptchaID,
		CaptchaText: e.captchaAnswer(t, captcha.CaptchaID),
	}, &resp)
	require.Equal(t, http.StatusOK, status)
	require.True(t, resp.Success)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestHandleCaptcha(t *testing.T) {
	env := newTestEnv(t)

	var resp api.CaptchaResponse
	status := env.getJSON(t, "/api/captcha", "", &resp)
	require.Equal(t, http.StatusOK, status)

	assert.NotEmpty(t, resp.CaptchaID)

	img, err := base64.StdEncoding.DecodeString(resp.Image)
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(img))
	require.NoError(t, err)
}

func TestHandleLogin(t *testing.T) {
	t.Run("blank fields are rejected", func(t *testing.T) {
		env := newTestEnv(t)

		cases := []struct {
			name    string
			req     api.LoginRequest
			message string
		}{
			{"missing employee id", api.LoginRequest{Password: "x", CaptchaID: "c", CaptchaText: "t"}, "Employee ID is required"},
			{"whitespace employee id", api.LoginRequest{EmployeeID: "   ", Password: "x", CaptchaID: "c", CaptchaText: "t"}, "Employee ID is required"},
			{"missing password", api.LoginRequest{EmployeeID: "e", CaptchaID: "c", CaptchaText: "t"}, "Password is required"},
			{"missing captcha", api.LoginRequest{EmployeeID: "e", Password: "x"}, "Captcha is required"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				var resp api.LoginResponse
				status := env.postJSON(t, "/api/auth/login", "", tc.req, &resp)
				assert.Equal(t, http.StatusBadRequest, status)
				assert.False(t, resp.Success)
				assert.Equal(t, tc.message, resp.Message)
			})
		}
	})

	t.Run("captcha answers are case-insensitive", func(t *testing.T) {
		env := newTestEnv(t)

		var captcha api.CaptchaResponse
		require.Equal(t, http.StatusOK, env.getJSON(t, "/api/captcha", "", &captcha))
		answer := env.captchaAnswer(t, captcha.CaptchaID)

		var resp api.LoginResponse
		status := env.postJSON(t, "/api/auth/login", "", api.LoginRequest{
			EmployeeID:  fixtures.DemoEmployeeID,
			Password:    fixtures.DemoPassword,
			CaptchaID:   captcha.CaptchaID,
			CaptchaText: strings.ToLower(answer),
		}, &resp)
		require.Equal(t, http.StatusOK, status)
		assert.True(t, resp.Success)
	})

	t.Run("wrong captcha text is rejected", func(t *testing.T) {
		env := newTestEnv(t)

		var captcha api.CaptchaResponse
		require.Equal(t, http.StatusOK, env.getJSON(t, "/api/captcha", "", &captcha))

		var resp api.LoginResponse
		status := env.postJSON(t, "/api/auth/login", "", api.LoginRequest{
			EmployeeID:  fixtures.DemoEmployeeID,
			Password:    fixtures.DemoPassword,
			CaptchaID:   captcha.CaptchaID,
			CaptchaText: "WRONG",
		}, &resp)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "Invalid captcha", resp.Message)
	})

	t.Run("a captcha is consumed by the attempt", func(t *testing.T) {
		env := newTestEnv(t)

		var captcha api.CaptchaResponse
		require.Equal(t, http.StatusOK, env.getJSON(t, "/api/captcha", "", &captcha))
		answer := env.captchaAnswer(t, captcha.CaptchaID)

		req := api.LoginRequest{
			EmployeeID:  fixtures.DemoEmployeeID,
			Password:    "wrong-password",
			CaptchaID:   captcha.CaptchaID,
			CaptchaText: answer,
		}

		var resp api.LoginResponse
		status := env.postJSON(t, "/api/auth/login", "", req, &resp)
		require.Equal(t, http.StatusUnauthorized, status)
		require.Equal(t, "Invalid employee ID or password", resp.Message)

		// Same challenge again, this time with the right password: the
		// consumed captcha is no longer accepted.
		req.Password = fixtures.DemoPassword
		status = env.postJSON(t, "/api/auth/login", "", req, &resp)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "Invalid captcha", resp.Message)
	})

	t.Run("unknown employee and bad password are indistinguishable", func(t *testing.T) {
		env := newTestEnv(t)

		for _, employeeID := range []string{"99999999999999", fixtures.DemoEmployeeID} {
			var captcha api.CaptchaResponse
			require.Equal(t, http.StatusOK, env.getJSON(t, "/api/captcha", "", &captcha))

			var resp api.LoginResponse
			status := env.postJSON(t, "/api/auth/login", "", api.LoginRequest{
				EmployeeID:  employeeID,
				Password:    "wrong-password",
				CaptchaID:   captcha.CaptchaID,
				CaptchaText: env.captchaAnswer(t, captcha.CaptchaID),
			}, &resp)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, "Invalid employee ID or password", resp.Message)
		}
	})

	t.Run("accepted credentials issue a pre-auth token and OTP", func(t *testing.T) {
		env := newTestEnv(t)

		var captcha api.CaptchaResponse
		require.Equal(t, http.StatusOK, env.getJSON(t, "/api/captcha", "", &captcha))

		var resp api.LoginResponse
		status := env.postJSON(t, "/api/auth/login", "", api.LoginRequest{
			EmployeeID:  fixtures.DemoEmployeeID,
			Password:    fixtures.DemoPassword,
			CaptchaID:   captcha.CaptchaID,
			CaptchaText: env.captchaAnswer(t, captcha.CaptchaID),
		}, &resp)
		require.Equal(t, http.StatusOK, status)

		assert.True(t, resp.Success)
		require.NotNil(t, resp.RequiresOTP)
		assert.True(t, *resp.RequiresOTP)
		assert.True(t, strings.HasPrefix(resp.OTPSentTo, "******"))

		// The token is stage-limited: it cannot read the profile.
		employeeID, err := env.tokens.Verify(resp.Token, auth.StageOTP)
		require.NoError(t, err)
		assert.Equal(t, fixtures.DemoEmployeeID, employeeID)

		status = env.getJSON(t, "/api/employee/"+fixtures.DemoEmployeeID, resp.Token, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})
}

func TestHandleVerifyOTP(t *testing.T) {
	t.Run("correct code issues a session token", func(t *testing.T) {
		env := newTestEnv(t)
		preAuth := env.login(t)

		var resp api.VerifyOTPResponse
		status := env.postJSON(t, "/api/auth/verify-otp", preAuth, api.VerifyOTPRequest{
			EmployeeID: fixtures.DemoEmployeeID,
			OTPCode:    env.otpCode(t, fixtures.DemoEmployeeID),
		}, &resp)
		require.Equal(t, http.StatusOK, status)

		assert.True(t, resp.Success)
		assert.NotEmpty(t, resp.Token)
		require.NotNil(t, resp.EmployeeData)
		assert.Equal(t, fixtures.DemoEmployeeID, resp.EmployeeData.EmployeeID)

		_, err := env.tokens.Verify(resp.Token, auth.StageSession)
		require.NoError(t, err)
	})

	t.Run("wrong code is rejected and the challenge is consumed", func(t *testing.T) {
		env := newTestEnv(t)
		preAuth := env.login(t)
		code := env.otpCode(t, fixtures.DemoEmployeeID)

		var resp api.VerifyOTPResponse
		status := env.postJSON(t, "/api/auth/verify-otp", preAuth, api.VerifyOTPRequest{
			OTPCode: "000000",
		}, &resp)
		require.Equal(t, http.StatusUnauthorized, status)
		require.Equal(t, "Invalid OTP", resp.Message)

		// The failed attempt consumed the challenge; even the right code is
		// now expired.
		status = env.postJSON(t, "/api/auth/verify-otp", preAuth, api.VerifyOTPRequest{
			OTPCode: code,
		}, &resp)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "OTP expired", resp.Message)
	})

	t.Run("requires the pre-auth token", func(t *testing.T) {
		env := newTestEnv(t)
		status := env.postJSON(t, "/api/auth/verify-otp", "", api.VerifyOTPRequest{OTPCode: "123456"}, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("rejects a mismatched employee id", func(t *testing.T) {
		env := newTestEnv(t)
		preAuth := env.login(t)

		var resp api.VerifyOTPResponse
		status := env.postJSON(t, "/api/auth/verify-otp", preAuth, api.VerifyOTPRequest{
			EmployeeID: "someone-else",
			OTPCode:    env.otpCode(t, fixtures.DemoEmployeeID),
		}, &resp)
		assert.Equal(t, http.StatusForbidden, status)
	})
}

func TestHandleResendOTP(t *testing.T) {
	t.Run("refused while the current OTP is live", func(t *testing.T) {
		env := newTestEnv(t)
		preAuth := env.login(t)

		var resp api.ResendOTPResponse
		status := env.postJSON(t, "/api/auth/resend-otp", preAuth, struct{}{}, &resp)
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, "Current OTP is still valid", resp.Message)
	})

	t.Run("issues a fresh code after the old one is consumed", func(t *testing.T) {
		env := newTestEnv(t)
		preAuth := env.login(t)

		// Burn the current challenge with a wrong code.
		env.postJSON(t, "/api/auth/verify-otp", preAuth, api.VerifyOTPRequest{OTPCode: "000000"}, nil)

		var resp api.ResendOTPResponse
		status := env.postJSON(t, "/api/auth/resend-otp", preAuth, struct{}{}, &resp)
		require.Equal(t, http.StatusOK, status)
		assert.True(t, resp.Success)

		// The reissued code completes verification.
		var verify api.VerifyOTPResponse
		status = env.postJSON(t, "/api/auth/verify-otp", preAuth, api.VerifyOTPRequest{
			OTPCode: env.otpCode(t, fixtures.DemoEmployeeID),
		}, &verify)
		assert.Equal(t, http.StatusOK, status)
		assert.True(t, verify.Success)
	})
}

func TestHandleEmployee(t *testing.T) {
	env := newTestEnv(t)
	session, err := env.tokens.Issue(fixtures.DemoEmployeeID, auth.StageSession, auth.SessionTokenTTL)
	require.NoError(t, err)

	t.Run("returns own profile", func(t *testing.T) {
		var profile models.UserProfile
		status := env.getJSON(t, "/api/employee/"+fixtures.DemoEmployeeID, session, &profile)
		require.Equal(t, http.StatusOK, status)

		assert.Equal(t, fixtures.DemoEmployeeID, profile.EmployeeID)
		assert.NotEmpty(t, profile.FirstName)
		assert.NotEmpty(t, profile.Department)
	})

	t.Run("other employees are forbidden", func(t *testing.T) {
		status := env.getJSON(t, "/api/employee/99999999999999", session, nil)
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("requires a session token", func(t *testing.T) {
		status := env.getJSON(t, "/api/employee/"+fixtures.DemoEmployeeID, "", nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})
}

func TestHandlePayslip(t *testing.T) {
	env := newTestEnv(t)
	session, err := env.tokens.Issue(fixtures.DemoEmployeeID, auth.StageSession, auth.SessionTokenTTL)
	require.NoError(t, err)

	t.Run("returns the period's record", func(t *testing.T) {
		var resp api.PayslipResponse
		status := env.getJSON(t, "/api/payslips?year=2026&month=January", session, &resp)
		require.Equal(t, http.StatusOK, status)

		require.True(t, resp.Success)
		require.NotNil(t, resp.Data)
		assert.Equal(t, 27710.00, resp.Data.NetSalary)
		assert.Equal(t, 30406.00, resp.Data.GrossSalary)
	})

	t.Run("absent period reports which period", func(t *testing.T) {
		var resp api.PayslipResponse
		status := env.getJSON(t, "/api/payslips?year=2026&month=February", session, &resp)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "No payslip data found for February 2026", resp.Message)
	})

	t.Run("year and month are required", func(t *testing.T) {
		var resp api.PayslipResponse
		status := env.getJSON(t, "/api/payslips?year=2026", session, &resp)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("other employees' payslips are forbidden", func(t *testing.T) {
		status := env.getJSON(t, "/api/payslips?employee_id=other&year=2026&month=January", session, nil)
		assert.Equal(t, http.StatusForbidden, status)
	})
}

func TestHandlePayslipDownload(t *testing.T) {
	env := newTestEnv(t)
	session, err := env.tokens.Issue(fixtures.DemoEmployeeID, auth.StageSession, auth.SessionTokenTTL)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/api/payslips/download?year=2026&month=January", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+session)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "payslip-January-2026")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "NET SALARY")
	assert.Contains(t, string(body), fmt.Sprintf("%.2f", 27710.00))
}
