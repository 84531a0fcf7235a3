package entity

import "fmt"

// OTPErrorCode is the fixed failure taxonomy of the OTP flow
type OTPErrorCode string

const (
	ErrCodeInvalidContact    OTPErrorCode = "INVALID_CONTACT"
	ErrCodeRateLimitExceeded OTPErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeInvalidCode       OTPErrorCode = "INVALID_CODE"
	ErrCodeCodeExpired       OTPErrorCode = "CODE_EXPIRED"
	ErrCodeTooManyAttempts   OTPErrorCode = "TOO_MANY_ATTEMPTS"
	ErrCodeNetworkError      OTPErrorCode = "NETWORK_ERROR"
	ErrCodeUnknownError      OTPErrorCode = "UNKNOWN_ERROR"
)

// Messages are generic on purpose: they must not reveal whether a contact or code exists.
var otpErrorMessages = map[OTPErrorCode]string{
	ErrCodeInvalidContact:    "Please enter a valid email address or phone number.",
	ErrCodeRateLimitExceeded: "Too many code requests. Please try again later.",
	ErrCodeInvalidCode:       "The code you entered is incorrect.",
	ErrCodeCodeExpired:       "This code has expired. Please request a new one.",
	ErrCodeTooManyAttempts:   "Too many incorrect attempts. Please request a new code.",
	ErrCodeNetworkError:      "We could not reach the server. Check your connection and try again.",
	ErrCodeUnknownError:      "Something went wrong. Please try again.",
}

// Message returns the user-facing message for the code
func (c OTPErrorCode) Message() string {
	if msg, ok := otpErrorMessages[c]; ok {
		return msg
	}
	return otpErrorMessages[ErrCodeUnknownError]
}

// Known reports whether c belongs to the taxonomy
func (c OTPErrorCode) Known() bool {
	_, ok := otpErrorMessages[c]
	return ok
}

// OTPError is an expected OTP failure carrying its taxonomy code
type OTPError struct {
	Code  OTPErrorCode
	cause error
}

// NewOTPError creates an error for the given code
func NewOTPError(code OTPErrorCode) *OTPError {
	if !code.Known() {
		code = ErrCodeUnknownError
	}
	return &OTPError{Code: code}
}

// WrapOTPError creates an error for the given code keeping the underlying cause for logs
func WrapOTPError(code OTPErrorCode, cause error) *OTPError {
	e := NewOTPError(code)
	e.cause = cause
	return e
}

func (e *OTPError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.cause)
	}
	return string(e.Code)
}

func (e *OTPError) Unwrap() error {
	return e.cause
}

// Is matches any *OTPError with the same code
func (e *OTPError) Is(target error) bool {
	t, ok := target.(*OTPError)
	return ok && t.Code == e.Code
}

// Message returns the generic user-facing message
func (e *OTPError) Message() string {
	return e.Code.Message()
}
