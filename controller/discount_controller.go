package controller

import (
	"errors"
	"net/http"

	"storefront/discount"
	"storefront/entity"
	"storefront/pkg/logger"
	"storefront/service"
	"storefront/validator"

	"github.com/labstack/echo/v4"
)

// DiscountController handles discount lookup, pricing and administration
type DiscountController struct {
	discountService service.DiscountService
	validator       *validator.Validator
	logger          *logger.Logger
}

// NewDiscountController creates a new discount controller instance
func NewDiscountController(discountService service.DiscountService, validator *validator.Validator, logger *logger.Logger) *DiscountController {
	return &DiscountController{
		discountService: discountService,
		validator:       validator,
		logger:          logger,
	}
}

// GetCheckoutDiscount returns the checkout rule currently in effect
// @Summary Active checkout discount
// @Description Returns the checkout discount rule in effect now, or null when there is none
// @Tags Discounts
// @Produce json
// @Success 200 {object} discount.CheckoutRule
// @Router /discounts/checkout [get]
func (c *DiscountController) GetCheckoutDiscount(ctx echo.Context) error {
	rule := c.discountService.GetActiveCheckoutRule(ctx.Request().Context())
	if rule == nil {
		return ctx.JSON(http.StatusOK, nil)
	}
	return ctx.JSON(http.StatusOK, rule)
}

// Quote prices a cart
// @Summary Price a cart
// @Description Applies product discounts to unit prices and the checkout discount to the subtotal
// @Tags Discounts
// @Accept json
// @Produce json
// @Param request body entity.QuoteRequest true "Cart"
// @Success 200 {object} entity.QuoteResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /discounts/quote [post]
func (c *DiscountController) Quote(ctx echo.Context) error {
	var req entity.QuoteRequest
	if !c.bindAndValidate(ctx, &req) {
		return nil
	}

	quote, err := c.discountService.Quote(ctx.Request().Context(), &req)
	if err != nil {
		return c.writeError(ctx, "Failed to price cart", err)
	}

	return ctx.JSON(http.StatusOK, quote)
}

// UpsertCheckoutRule creates or updates a checkout rule
// @Summary Save checkout rule
// @Description Creates a checkout discount rule, or updates it when id is given. Activating a rule deactivates the others.
// @Tags Admin
// @Accept json
// @Produce json
// @Security AdminKey
// @Param request body entity.UpsertCheckoutRuleRequest true "Checkout rule"
// @Success 200 {object} entity.CheckoutDiscountRule
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /admin/discounts/checkout [put]
func (c *DiscountController) UpsertCheckoutRule(ctx echo.Context) error {
	var req entity.UpsertCheckoutRuleRequest
	if !c.bindAndValidate(ctx, &req) {
		return nil
	}

	rule, err := c.discountService.UpsertCheckoutRule(ctx.Request().Context(), &req)
	if err != nil {
		return c.writeError(ctx, "Failed to save checkout rule", err)
	}

	return ctx.JSON(http.StatusOK, rule)
}

// ListCheckoutRules lists stored checkout rules
// @Summary List checkout rules
// @Tags Admin
// @Produce json
// @Security AdminKey
// @Success 200 {array} entity.CheckoutDiscountRule
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /admin/discounts/checkout [get]
func (c *DiscountController) ListCheckoutRules(ctx echo.Context) error {
	rules, err := c.discountService.ListCheckoutRules(ctx.Request().Context())
	if err != nil {
		return c.writeError(ctx, "Failed to list checkout rules", err)
	}
	return ctx.JSON(http.StatusOK, rules)
}

// UpsertProductDiscount creates or updates a product discount
// @Summary Save product discount
// @Description Creates a product discount, or updates it when id is given. Activating a discount deactivates the others for the same product.
// @Tags Admin
// @Accept json
// @Produce json
// @Security AdminKey
// @Param request body entity.UpsertProductDiscountRequest true "Product discount"
// @Success 200 {object} entity.ProductDiscount
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /admin/discounts/products [put]
func (c *DiscountController) UpsertProductDiscount(ctx echo.Context) error {
	var req entity.UpsertProductDiscountRequest
	if !c.bindAndValidate(ctx, &req) {
		return nil
	}

	d, err := c.discountService.UpsertProductDiscount(ctx.Request().Context(), &req)
	if err != nil {
		return c.writeError(ctx, "Failed to save product discount", err)
	}

	return ctx.JSON(http.StatusOK, d)
}

// ListProductDiscounts lists stored product discounts
// @Summary List product discounts
// @Tags Admin
// @Produce json
// @Security AdminKey
// @Param product_id query string false "Filter by product"
// @Success 200 {array} entity.ProductDiscount
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /admin/discounts/products [get]
func (c *DiscountController) ListProductDiscounts(ctx echo.Context) error {
	discounts, err := c.discountService.ListProductDiscounts(ctx.Request().Context(), ctx.QueryParam("product_id"))
	if err != nil {
		return c.writeError(ctx, "Failed to list product discounts", err)
	}
	return ctx.JSON(http.StatusOK, discounts)
}

// bindAndValidate writes the 400 response itself and reports false when req is unusable
func (c *DiscountController) bindAndValidate(ctx echo.Context, req interface{}) bool {
	if err := ctx.Bind(req); err != nil {
		c.logger.Errorw("Failed to bind request", "error", err)
		_ = ctx.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return false
	}

	if err := c.validator.ValidateStruct(req); err != nil {
		c.logger.Warnw("Validation failed", "error", err)
		_ = ctx.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   "Validation failed",
			"details": err.Error(),
		})
		return false
	}

	return true
}

func (c *DiscountController) writeError(ctx echo.Context, msg string, err error) error {
	if errors.Is(err, discount.ErrMalformedRule) || errors.Is(err, service.ErrInvalidQuote) {
		c.logger.Warnw(msg, "error", err)
		return ctx.JSON(http.StatusBadRequest, map[string]interface{}{
			"error":   msg,
			"details": err.Error(),
		})
	}

	c.logger.Errorw(msg, "error", err)
	return ctx.JSON(http.StatusInternalServerError, map[string]interface{}{
		"error":   msg,
		"details": "Internal server error",
	})
}
