package controller

import (
	"net/http"

	"storefront/entity"
	"storefront/pkg/logger"
	"storefront/service"

	"github.com/labstack/echo/v4"
)

// CODTokenKey is the echo context key under which the COD token middleware
// stores the bearer token it validated
const CODTokenKey = "cod_token"

// CODController handles consumption of COD auth tokens by order placement
type CODController struct {
	jwtService service.JWTService
	logger     *logger.Logger
}

// NewCODController creates a new COD controller instance
func NewCODController(jwtService service.JWTService, logger *logger.Logger) *CODController {
	return &CODController{
		jwtService: jwtService,
		logger:     logger,
	}
}

// Redeem consumes a COD auth token
// @Summary Redeem COD token
// @Description Consume a COD auth token when placing a cash-on-delivery order. Each token can be redeemed once.
// @Tags COD
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} entity.CODRedeemResponse
// @Failure 401 {object} map[string]interface{}
// @Router /cod/redeem [post]
func (c *CODController) Redeem(ctx echo.Context) error {
	tokenString, _ := ctx.Get(CODTokenKey).(string)
	if tokenString == "" {
		c.logger.Warnw("COD token missing from context", "path", ctx.Request().URL.Path)
		return ctx.JSON(http.StatusUnauthorized, map[string]interface{}{
			"error":   "Unauthorized",
			"details": "Missing COD auth token",
		})
	}

	claims, err := c.jwtService.RedeemCODToken(ctx.Request().Context(), tokenString)
	if err != nil {
		c.logger.Warnw("COD token redemption failed", "error", err)
		return ctx.JSON(http.StatusUnauthorized, map[string]interface{}{
			"error":   "Unauthorized",
			"details": "Invalid, expired or already used token",
		})
	}

	c.logger.Infow("COD token redeemed", "contact", claims.Contact, "method", claims.Method, "token_id", claims.ID)
	return ctx.JSON(http.StatusOK, entity.CODRedeemResponse{
		Contact: claims.Contact,
		Method:  claims.Method,
		Purpose: claims.Purpose,
		Message: "Contact verified for cash on delivery",
	})
}
