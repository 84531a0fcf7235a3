package repository

import (
	"context"

	"storefront/entity"
)

// RateLimitRepository tracks OTP requests per contact within a fixed window
type RateLimitRepository interface {
	GetRateLimit(ctx context.Context, contact string) (*entity.RateLimitInfo, error)
	// ReserveRequest atomically counts one request against the contact's
	// window. It reports false, without counting, once maxRequests is reached.
	ReserveRequest(ctx context.Context, contact string, maxRequests int) (*entity.RateLimitInfo, bool, error)
	CleanupRateLimits(ctx context.Context) (int, error)
}
