package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/config"
	"storefront/controller"
	"storefront/entity"
	"storefront/pkg/logger"
	"storefront/service"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJWTService struct {
	err error
}

func (s *stubJWTService) GenerateCODToken(ctx context.Context, contact string, method entity.ContactMethod, purpose entity.OTPPurpose) (string, time.Time, error) {
	return "", time.Time{}, nil
}

func (s *stubJWTService) ValidateCODToken(ctx context.Context, tokenString string) (*service.CODClaims, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &service.CODClaims{Contact: "guest@example.com"}, nil
}

func (s *stubJWTService) RedeemCODToken(ctx context.Context, tokenString string) (*service.CODClaims, error) {
	return s.ValidateCODToken(ctx, tokenString)
}

func serve(e *echo.Echo, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCODTokenMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		header string
		err    error
		status int
	}{
		{"missing header", "", nil, http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", nil, http.StatusUnauthorized},
		{"invalid token", "Bearer bad", service.ErrInvalidToken, http.StatusUnauthorized},
		{"valid token", "Bearer good", nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			var seen string
			e.POST("/cod", func(c echo.Context) error {
				seen, _ = c.Get(controller.CODTokenKey).(string)
				return c.NoContent(http.StatusOK)
			}, CODTokenMiddleware(&stubJWTService{err: tt.err}, logger.NewNop()))

			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			rec := serve(e, http.MethodPost, "/cod", headers)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "good", seen)
			}
		})
	}
}

func TestAdminKeyMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		provided   string
		status     int
	}{
		{"matching key", "s3cret", "s3cret", http.StatusOK},
		{"wrong key", "s3cret", "guess", http.StatusUnauthorized},
		{"missing key", "s3cret", "", http.StatusUnauthorized},
		{"admin disabled", "", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.GET("/admin", func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			}, AdminKeyMiddleware(tt.configured, logger.NewNop()))

			rec := serve(e, http.MethodGet, "/admin", map[string]string{"X-Admin-Key": tt.provided})
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	e := echo.New()
	e.Use(CORSMiddleware())
	e.OPTIONS("/api/v1/otp/request", func(c echo.Context) error {
		return c.NoContent(http.StatusTeapot)
	})

	rec := serve(e, http.MethodOptions, "/api/v1/otp/request", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-Admin-Key")
}

func TestRegisterRoutes(t *testing.T) {
	e := echo.New()
	log := logger.NewNop()
	cfg := &config.Config{Admin: config.Admin{APIKey: "s3cret"}}
	jwtSvc := &stubJWTService{err: service.ErrInvalidToken}

	RegisterRoutes(e, Controllers{
		OTP:      controller.NewOTPController(nil, nil, log),
		COD:      controller.NewCODController(jwtSvc, log),
		Contact:  controller.NewContactController(nil, log),
		Discount: controller.NewDiscountController(nil, nil, log),
		Health:   controller.NewHealthController(nil),
	}, jwtSvc, cfg, log)

	registered := make(map[string]bool)
	for _, r := range e.Routes() {
		registered[r.Method+" "+r.Path] = true
	}
	for _, route := range []string{
		"POST /api/v1/otp/request",
		"POST /api/v1/otp/verify",
		"GET /api/v1/discounts/checkout",
		"POST /api/v1/discounts/quote",
		"POST /api/v1/cod/redeem",
		"PUT /api/v1/admin/discounts/checkout",
		"GET /api/v1/admin/discounts/checkout",
		"PUT /api/v1/admin/discounts/products",
		"GET /api/v1/admin/discounts/products",
		"GET /api/v1/admin/contacts",
		"GET /api/v1/admin/contacts/:id",
		"GET /health",
		"GET /",
	} {
		assert.True(t, registered[route], "missing route %s", route)
	}
	assert.False(t, registered["GET /swagger/*"], "swagger is disabled")

	// guards run before the controllers, whose services are nil here
	rec := serve(e, http.MethodGet, "/api/v1/admin/contacts", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(e, http.MethodPost, "/api/v1/cod/redeem", map[string]string{"Authorization": "Bearer expired"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(e, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
