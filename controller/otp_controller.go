package controller

import (
	"errors"
	"net/http"

	"storefront/entity"
	"storefront/pkg/logger"
	"storefront/service"
	"storefront/validator"

	"github.com/labstack/echo/v4"
)

// OTPController handles OTP-related HTTP requests
type OTPController struct {
	otpService service.OTPService
	validator  *validator.Validator
	logger     *logger.Logger
}

// NewOTPController creates a new OTP controller instance
func NewOTPController(otpService service.OTPService, validator *validator.Validator, logger *logger.Logger) *OTPController {
	return &OTPController{
		otpService: otpService,
		validator:  validator,
		logger:     logger,
	}
}

// RequestOTP handles OTP generation and delivery
// @Summary Request OTP
// @Description Generate a one-time code and deliver it to the given email address or phone number
// @Tags OTP
// @Accept json
// @Produce json
// @Param request body entity.RequestOTPRequest true "Request OTP Request"
// @Success 200 {object} entity.OTPResponse
// @Failure 400 {object} entity.OTPResponse
// @Failure 429 {object} entity.OTPResponse
// @Failure 500 {object} entity.OTPResponse
// @Router /otp/request [post]
func (c *OTPController) RequestOTP(ctx echo.Context) error {
	var req entity.RequestOTPRequest

	if err := ctx.Bind(&req); err != nil {
		c.logger.Errorw("Failed to bind request", "error", err)
		return otpFailure(ctx, http.StatusBadRequest, entity.ErrCodeInvalidContact)
	}

	if err := c.validator.ValidateStruct(&req); err != nil {
		c.logger.Warnw("Validation failed", "method", req.Method, "error", err)
		return otpFailure(ctx, http.StatusBadRequest, entity.ErrCodeInvalidContact)
	}

	response, err := c.otpService.RequestOTP(ctx.Request().Context(), &req)
	if err != nil {
		return c.otpError(ctx, "Failed to request OTP", req.Contact, err)
	}

	c.logger.Infow("OTP requested successfully", "contact", req.Contact, "method", req.Method)
	return ctx.JSON(http.StatusOK, response)
}

// VerifyOTP handles OTP verification and COD token issuance
// @Summary Verify OTP
// @Description Verify a one-time code and issue a single-use COD auth token
// @Tags OTP
// @Accept json
// @Produce json
// @Param request body entity.VerifyOTPRequest true "Verify OTP Request"
// @Success 200 {object} entity.OTPResponse
// @Failure 400 {object} entity.OTPResponse
// @Failure 401 {object} entity.OTPResponse
// @Failure 410 {object} entity.OTPResponse
// @Failure 429 {object} entity.OTPResponse
// @Failure 500 {object} entity.OTPResponse
// @Router /otp/verify [post]
func (c *OTPController) VerifyOTP(ctx echo.Context) error {
	var req entity.VerifyOTPRequest

	if err := ctx.Bind(&req); err != nil {
		c.logger.Errorw("Failed to bind request", "error", err)
		return otpFailure(ctx, http.StatusBadRequest, entity.ErrCodeUnknownError)
	}

	if err := c.validator.ValidateStruct(&req); err != nil {
		c.logger.Warnw("Validation failed", "method", req.Method, "error", err)
		code := entity.ErrCodeUnknownError
		switch {
		case validator.HasFieldError(err, "code"):
			code = entity.ErrCodeInvalidCode
		case validator.HasFieldError(err, "contact"):
			code = entity.ErrCodeInvalidContact
		}
		return otpFailure(ctx, http.StatusBadRequest, code)
	}

	response, err := c.otpService.VerifyOTP(ctx.Request().Context(), &req)
	if err != nil {
		return c.otpError(ctx, "OTP verification failed", req.Contact, err)
	}

	c.logger.Infow("OTP verified successfully", "contact", req.Contact, "method", req.Method)
	return ctx.JSON(http.StatusOK, response)
}

func (c *OTPController) otpError(ctx echo.Context, msg, contact string, err error) error {
	var otpErr *entity.OTPError
	if !errors.As(err, &otpErr) {
		c.logger.Errorw(msg, "contact", contact, "error", err)
		return otpFailure(ctx, http.StatusInternalServerError, entity.ErrCodeUnknownError)
	}

	c.logger.Warnw(msg, "contact", contact, "code", otpErr.Code)
	return otpFailure(ctx, otpStatus(otpErr.Code), otpErr.Code)
}

func otpStatus(code entity.OTPErrorCode) int {
	switch code {
	case entity.ErrCodeInvalidContact:
		return http.StatusBadRequest
	case entity.ErrCodeInvalidCode:
		return http.StatusUnauthorized
	case entity.ErrCodeCodeExpired:
		return http.StatusGone
	case entity.ErrCodeRateLimitExceeded, entity.ErrCodeTooManyAttempts:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func otpFailure(ctx echo.Context, status int, code entity.OTPErrorCode) error {
	return ctx.JSON(status, entity.OTPResponse{
		Success: false,
		Error:   code,
		Message: code.Message(),
	})
}
