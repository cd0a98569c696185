// Package api holds the portal's REST wire contract and the client that
// consumes it. The server handlers marshal the same types, so the two sides
// cannot drift apart.
package api

import "github.com/nkapoor/esshub/internal/models"

// CaptchaResponse is returned by GET /api/captcha. Image is a base64-encoded
// PNG.
type CaptchaResponse struct {
	CaptchaID string `json:"captcha_id"`
	Image     string `json:"image"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	EmployeeID  string `json:"employee_id"`
	Password    string `json:"password"`
	CaptchaID   string `json:"captcha_id"`
	CaptchaText string `json:"captcha_text"`
}

// LoginResponse is returned by POST /api/auth/login.
//
// RequiresOTP is a pointer because deployed backends have been observed both
// omitting the flag (meaning OTP required) and sending it explicitly; the
// flow controller treats absence as true.
type LoginResponse struct {
	Success      bool                `json:"success"`
	Message      string              `json:"message,omitempty"`
	Status       string              `json:"status,omitempty"`
	Token        string              `json:"token,omitempty"`
	EmployeeID   string              `json:"employee_id,omitempty"`
	RequiresOTP  *bool               `json:"requires_otp,omitempty"`
	OTPSentTo    string              `json:"otp_sent_to,omitempty"`
	EmployeeData *models.UserProfile `json:"employee_data,omitempty"`
}

// VerifyOTPRequest is the body of POST /api/auth/verify-otp.
type VerifyOTPRequest struct {
	EmployeeID string `json:"employee_id"`
	OTPCode    string `json:"otp_code"`
}

// VerifyOTPResponse is returned by POST /api/auth/verify-otp.
type VerifyOTPResponse struct {
	Success      bool                `json:"success"`
	Message      string              `json:"message,omitempty"`
	Token        string              `json:"token,omitempty"`
	EmployeeData *models.UserProfile `json:"employee_data,omitempty"`
}

// ResendOTPResponse is returned by POST /api/auth/resend-otp.
type ResendOTPResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	OTPSentTo string `json:"otp_sent_to,omitempty"`
}

// PayslipResponse is the envelope of GET /api/payslips.
type PayslipResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    *models.Payslip `json:"data,omitempty"`
}
