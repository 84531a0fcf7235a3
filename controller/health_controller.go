package controller

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthCheckFunc reports whether a dependency is reachable
type HealthCheckFunc func(ctx context.Context) error

type HealthController struct {
	checks map[string]HealthCheckFunc
}

// NewHealthController creates a health controller. checks maps a dependency
// name (database, redis) to its check and may be nil.
func NewHealthController(checks map[string]HealthCheckFunc) *HealthController {
	return &HealthController{checks: checks}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status       string            `json:"status" example:"healthy"`
	Service      string            `json:"service" example:"storefront-service"`
	Version      string            `json:"version" example:"1.0.0"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// HealthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the service and its dependencies
// @Tags System
// @Accept json
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthController) HealthCheck(c echo.Context) error {
	resp := HealthResponse{
		Status:  "healthy",
		Service: "storefront-service",
		Version: "1.0.0",
	}
	status := http.StatusOK

	if len(h.checks) > 0 {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		names := make([]string, 0, len(h.checks))
		for name := range h.checks {
			names = append(names, name)
		}
		sort.Strings(names)

		resp.Dependencies = make(map[string]string, len(names))
		for _, name := range names {
			if err := h.checks[name](ctx); err != nil {
				resp.Dependencies[name] = "unavailable"
				resp.Status = "unhealthy"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Dependencies[name] = "ok"
		}
	}

	return c.JSON(status, resp)
}

// ServiceInfoResponse represents the service info response
type ServiceInfoResponse struct {
	Message string `json:"message" example:"Storefront Discount and COD Verification Service"`
	Version string `json:"version" example:"1.0.0"`
	Docs    string `json:"docs" example:"/swagger/index.html"`
}

// ServiceInfo godoc
// @Summary Service information
// @Description Returns basic service information and documentation links
// @Tags System
// @Accept json
// @Produce json
// @Success 200 {object} ServiceInfoResponse
// @Router / [get]
func (h *HealthController) ServiceInfo(c echo.Context) error {
	return c.JSON(http.StatusOK, ServiceInfoResponse{
		Message: "Storefront Discount and COD Verification Service",
		Version: "1.0.0",
		Docs:    "/swagger/index.html",
	})
}
