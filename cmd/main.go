package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/config"
	"storefront/controller"
	_ "storefront/docs" // Import for swagger
	"storefront/entity"
	"storefront/handler"
	"storefront/migrations"
	"storefront/pkg/clock"
	"storefront/pkg/logger"
	"storefront/repository"
	"storefront/service"
	"storefront/validator"

	"github.com/redis/go-redis/v9"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	_ "github.com/lib/pq"
)

// @title Storefront Discount and COD Verification API
// @version 1.0
// @description Checkout and product discounts plus OTP verification of guest cash-on-delivery orders
// @contact.name API Support
// @contact.email support@example.com
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apiKey BearerAuth
// @in header
// @name Authorization
// @description Enter the COD auth token in format: Bearer {token}
// @securityDefinitions.apiKey AdminKey
// @in header
// @name X-Admin-Key
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logger.Level, cfg.Logger.Mode)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Infow("Starting Storefront Service",
		"version", "1.0.0",
		"port", cfg.HTTPServer.Port,
		"log_level", cfg.Logger.Level,
		"log_mode", cfg.Logger.Mode,
	)

	db, err := connectDB(cfg, log)
	if err != nil {
		log.Fatalw("Failed to connect to database", "error", err)
	}
	defer db.Close()

	log.Infow("Database connected successfully",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	if err := migrations.RunMigrations(context.Background(), db.DB, "./migrations", log); err != nil {
		log.Fatalw("Failed to run database migrations", "error", err)
	}

	log.Infow("Database migrations completed successfully")

	// Redis backs rate limiting, COD tokens and the checkout rule cache
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Fatalw("Failed to connect to Redis", "error", err)
	}

	log.Infow("Redis connected successfully", "host", cfg.Redis.Host, "port", cfg.Redis.Port)

	v := validator.New()
	clk := clock.NewRealClock()

	// Initialize repositories
	otpRepo := repository.NewOTPRepository(db)
	contactRepo := repository.NewContactRepository(db)
	discountRepo := repository.NewDiscountRepository(db)
	rateLimitRepo := repository.NewRedisRateLimitRepository(redisClient, cfg.RateLimit.WindowDuration, log)
	discountCache := repository.NewRedisDiscountCache(redisClient, cfg.Discount.CacheTTL, log)

	// Initialize services
	tokenService := service.NewTokenService(redisClient, log)
	jwtService := service.NewJWTService(cfg, log, tokenService, clk)
	notifier := newNotifier(cfg, log)
	otpService := service.NewOTPService(otpRepo, contactRepo, rateLimitRepo, jwtService, notifier, clk, cfg, log.With("component", "otp"))
	contactService := service.NewContactService(contactRepo, log)
	discountService := service.NewDiscountService(discountRepo, discountCache, clk, log.With("component", "discount"))

	controllers := handler.Controllers{
		OTP:      controller.NewOTPController(otpService, v, log),
		COD:      controller.NewCODController(jwtService, log),
		Contact:  controller.NewContactController(contactService, log),
		Discount: controller.NewDiscountController(discountService, v, log),
		Health: controller.NewHealthController(map[string]controller.HealthCheckFunc{
			"database": db.PingContext,
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		}),
	}

	e := echo.New()
	e.HideBanner = true

	handler.RegisterRoutes(e, controllers, jwtService, cfg, log)

	appCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	go startCleanupRoutine(appCtx, otpService, cfg.Application.CleanupInterval, log)

	serverAddr := fmt.Sprintf(":%d", cfg.HTTPServer.Port)
	go func() {
		log.Infow("Starting HTTP server", "address", serverAddr)
		if err := e.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalw("Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Infow("Shutting down server gracefully...")
	stopBackground()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Application.GracefulShutdownTimeout)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Failed to shutdown server gracefully", "error", err)
		os.Exit(1)
	}

	log.Infow("Server shutdown completed successfully")
}

// newNotifier prints codes to the console unless an email provider is configured
func newNotifier(cfg *config.Config, log *logger.Logger) service.Notifier {
	notifier := service.NewMultiNotifier(service.NewLogNotifier())
	if cfg.Email.APIKey != "" {
		notifier.Register(entity.MethodEmail, service.NewSendGridNotifier(cfg.Email.APIKey, cfg.Email.FromAddress, cfg.Email.FromName, log))
		log.Infow("Email delivery enabled", "provider", "sendgrid", "from", cfg.Email.FromAddress)
	}
	return notifier
}

func connectDB(cfg *config.Config, log *logger.Logger) (*sqlx.DB, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)

	var db *sqlx.DB
	var err error

	// Retry connection up to 30 times with 1 second delay
	for i := 0; i < 30; i++ {
		db, err = sqlx.Connect("postgres", connStr)
		if err == nil {
			break
		}

		log.Warnw("Database connection attempt failed", "attempt", i+1, "max_attempts", 30, "error", err)
		time.Sleep(1 * time.Second)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after 30 attempts: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// startCleanupRoutine periodically deletes expired OTPs and repairs rate limit keys
func startCleanupRoutine(ctx context.Context, otpService service.OTPService, interval time.Duration, logger *logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := otpService.CleanupExpiredOTPs(ctx); err != nil {
				logger.Errorw("Failed to cleanup expired OTPs", "error", err)
			} else {
				logger.Debugw("Cleanup routine completed successfully")
			}
		}
	}
}
