package entity

import (
	"time"
)

// ContactMethod is the channel an OTP is delivered through
type ContactMethod string

const (
	MethodEmail ContactMethod = "email"
	MethodPhone ContactMethod = "phone"
)

// OTPPurpose identifies what a verified code authorizes
type OTPPurpose string

const (
	PurposeCODVerification OTPPurpose = "cod_verification"
)

// OTP represents an issued one-time code. Only the SHA-256 hash of the code is stored.
type OTP struct {
	ID        int           `db:"id" json:"id"`
	Contact   string        `db:"contact" json:"contact"`
	Method    ContactMethod `db:"method" json:"method"`
	Purpose   OTPPurpose    `db:"purpose" json:"purpose"`
	CodeHash  string        `db:"code_hash" json:"-"`
	Attempts  int           `db:"attempts" json:"attempts"`
	ExpiresAt time.Time     `db:"expires_at" json:"expires_at"`
	IsUsed    bool          `db:"is_used" json:"is_used"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UsedAt    *time.Time    `db:"used_at" json:"used_at"`
}

// TableName returns the table name for the OTP entity
func (OTP) TableName() string {
	return "otps"
}

// IsExpiredAt reports whether the code can no longer be used at t
func (o *OTP) IsExpiredAt(t time.Time) bool {
	return o.IsUsed || !t.Before(o.ExpiresAt)
}

// RequestOTPRequest represents the request to issue a code
type RequestOTPRequest struct {
	Contact string        `json:"contact" validate:"required,max=254"`
	Method  ContactMethod `json:"method" validate:"required,contact_method"`
	Purpose OTPPurpose    `json:"purpose" validate:"required,otp_purpose"`
}

// VerifyOTPRequest represents the request to verify a code
type VerifyOTPRequest struct {
	Contact string        `json:"contact" validate:"required,max=254"`
	Method  ContactMethod `json:"method" validate:"required,contact_method"`
	Code    string        `json:"code" validate:"required,len=6,numeric"`
	Purpose OTPPurpose    `json:"purpose" validate:"required,otp_purpose"`
}

// OTPResponse is the wire shape shared by the request and verify endpoints
type OTPResponse struct {
	Success      bool         `json:"success"`
	Error        OTPErrorCode `json:"error,omitempty"`
	Message      string       `json:"message,omitempty"`
	CodAuthToken string       `json:"cod_auth_token,omitempty"`
	ExpiresAt    *time.Time   `json:"expires_at,omitempty"`
}

// RateLimitInfo represents rate limiting information for OTP requests
type RateLimitInfo struct {
	Contact       string    `json:"contact"`
	RequestCount  int       `json:"request_count"`
	WindowStartAt time.Time `json:"window_start_at"`
	WindowEndsAt  time.Time `json:"window_ends_at"`
}
