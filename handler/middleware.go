package handler

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"storefront/controller"
	"storefront/pkg/logger"
	"storefront/service"

	"github.com/labstack/echo/v4"
)

// CODTokenMiddleware rejects requests without a valid COD auth token and
// hands the token to the handler through the echo context
func CODTokenMiddleware(jwtService service.JWTService, logger *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				logger.Warnw("Missing Authorization header", "path", path)
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"error":   "Unauthorized",
					"details": "Missing Authorization header",
				})
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				logger.Warnw("Invalid Authorization header format", "path", path)
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"error":   "Unauthorized",
					"details": "Invalid Authorization header format",
				})
			}

			tokenString := strings.TrimSpace(authHeader[len("Bearer "):])

			claims, err := jwtService.ValidateCODToken(c.Request().Context(), tokenString)
			if err != nil {
				logger.Warnw("Invalid COD token", "path", path, "error", err)
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"error":   "Unauthorized",
					"details": "Invalid or expired token",
				})
			}

			c.Set(controller.CODTokenKey, tokenString)

			logger.Debugw("COD token accepted", "token_id", claims.ID, "path", path)
			return next(c)
		}
	}
}

// AdminKeyMiddleware guards admin routes with a static X-Admin-Key header.
// An empty apiKey disables the admin surface.
func AdminKeyMiddleware(apiKey string, logger *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			provided := c.Request().Header.Get("X-Admin-Key")
			if apiKey == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				logger.Warnw("Rejected admin request", "path", c.Request().URL.Path, "remote_addr", c.RealIP())
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"error":   "Unauthorized",
					"details": "Missing or invalid admin key",
				})
			}
			return next(c)
		}
	}
}

// CORSMiddleware creates a CORS middleware
func CORSMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("Access-Control-Allow-Origin", "*")
			c.Response().Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Response().Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, X-Admin-Key")

			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusNoContent)
			}

			return next(c)
		}
	}
}

// RequestLoggerMiddleware creates a request logging middleware
func RequestLoggerMiddleware(logger *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			logger.Debugw("HTTP Request",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"remote_addr", c.RealIP(),
				"user_agent", c.Request().UserAgent(),
			)

			err := next(c)

			logger.Infow("HTTP Response",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"latency", time.Since(start),
			)

			return err
		}
	}
}
