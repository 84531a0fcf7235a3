package handler

import (
	"storefront/config"
	"storefront/controller"
	_ "storefront/docs" // Import for swagger docs
	"storefront/pkg/logger"
	"storefront/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// Controllers groups the HTTP controllers mounted by RegisterRoutes
type Controllers struct {
	OTP      *controller.OTPController
	COD      *controller.CODController
	Contact  *controller.ContactController
	Discount *controller.DiscountController
	Health   *controller.HealthController
}

// RegisterRoutes registers all HTTP routes and middleware
func RegisterRoutes(
	e *echo.Echo,
	controllers Controllers,
	jwtService service.JWTService,
	cfg *config.Config,
	logger *logger.Logger,
) {
	e.Use(middleware.Recover())
	e.Use(CORSMiddleware())
	e.Use(RequestLoggerMiddleware(logger))

	// System endpoints
	e.GET("/health", controllers.Health.HealthCheck)
	e.GET("/", controllers.Health.ServiceInfo)

	if cfg.Swagger.Enabled {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
		e.GET("/docs/*", echoSwagger.WrapHandler)
	}

	v1 := e.Group("/api/v1")

	// OTP routes (public)
	otpGroup := v1.Group("/otp")
	otpGroup.POST("/request", controllers.OTP.RequestOTP)
	otpGroup.POST("/verify", controllers.OTP.VerifyOTP)

	// Discount routes (public)
	discountGroup := v1.Group("/discounts")
	discountGroup.GET("/checkout", controllers.Discount.GetCheckoutDiscount)
	discountGroup.POST("/quote", controllers.Discount.Quote)

	// COD routes (COD auth token)
	codGroup := v1.Group("/cod", CODTokenMiddleware(jwtService, logger))
	codGroup.POST("/redeem", controllers.COD.Redeem)

	// Admin routes (X-Admin-Key)
	adminGroup := v1.Group("/admin", AdminKeyMiddleware(cfg.Admin.APIKey, logger))
	adminGroup.PUT("/discounts/checkout", controllers.Discount.UpsertCheckoutRule)
	adminGroup.GET("/discounts/checkout", controllers.Discount.ListCheckoutRules)
	adminGroup.PUT("/discounts/products", controllers.Discount.UpsertProductDiscount)
	adminGroup.GET("/discounts/products", controllers.Discount.ListProductDiscounts)
	adminGroup.GET("/contacts", controllers.Contact.ListContacts)
	adminGroup.GET("/contacts/:id", controllers.Contact.GetContact)
}
