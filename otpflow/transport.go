package otpflow

import (
	"context"
	"fmt"
	"time"

	"storefront/entity"

	"github.com/go-resty/resty/v2"
)

// Transport performs the network round-trips of the flow
type Transport interface {
	RequestOTP(ctx context.Context, contact string, method entity.ContactMethod, purpose entity.OTPPurpose) (*entity.OTPResponse, error)
	VerifyOTP(ctx context.Context, contact string, method entity.ContactMethod, code string, purpose entity.OTPPurpose) (*entity.OTPResponse, error)
}

const (
	requestPath = "/api/v1/otp/request"
	verifyPath  = "/api/v1/otp/verify"
)

// HTTPTransport talks to the OTP service over HTTP
type HTTPTransport struct {
	client *resty.Client
}

// NewHTTPTransport creates a transport for the OTP service at baseURL
func NewHTTPTransport(baseURL string, timeout time.Duration) *HTTPTransport {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &HTTPTransport{client: client}
}

// RequestOTP asks the service to issue and deliver a code
func (t *HTTPTransport) RequestOTP(ctx context.Context, contact string, method entity.ContactMethod, purpose entity.OTPPurpose) (*entity.OTPResponse, error) {
	return t.post(ctx, requestPath, entity.RequestOTPRequest{
		Contact: contact,
		Method:  method,
		Purpose: purpose,
	})
}

// VerifyOTP submits a code for verification
func (t *HTTPTransport) VerifyOTP(ctx context.Context, contact string, method entity.ContactMethod, code string, purpose entity.OTPPurpose) (*entity.OTPResponse, error) {
	return t.post(ctx, verifyPath, entity.VerifyOTPRequest{
		Contact: contact,
		Method:  method,
		Code:    code,
		Purpose: purpose,
	})
}

func (t *HTTPTransport) post(ctx context.Context, path string, body interface{}) (*entity.OTPResponse, error) {
	var out entity.OTPResponse

	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		SetError(&out).
		Post(path)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", path, err)
	}

	// Error statuses without a taxonomy code in the body (proxies, crashes) are unknown failures
	if resp.IsError() && out.Error == "" {
		return &entity.OTPResponse{
			Success: false,
			Error:   entity.ErrCodeUnknownError,
			Message: entity.ErrCodeUnknownError.Message(),
		}, nil
	}

	return &out, nil
}
