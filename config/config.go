package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Application struct {
	GracefulShutdownTimeout time.Duration
	CleanupInterval         time.Duration
}

type HTTPServer struct {
	Port int
}

type Database struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type Redis struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type Logger struct {
	Level string
	Mode  string // development or production
}

type Swagger struct {
	Enabled bool `json:"enabled"`
}

// JWT configures the COD auth token issued after a successful verification
type JWT struct {
	Secret         string
	Issuer         string
	ExpirationTime time.Duration
}

type OTP struct {
	Length         int
	ExpirationTime time.Duration
	MaxAttempts    int
}

type RateLimit struct {
	MaxRequests    int
	WindowDuration time.Duration
}

type Admin struct {
	APIKey string
}

// Email is used for delivering codes to email contacts. An empty APIKey
// falls back to console delivery.
type Email struct {
	APIKey      string
	FromAddress string
	FromName    string
}

type Discount struct {
	CacheTTL time.Duration
}

type Config struct {
	Application Application
	HTTPServer  HTTPServer
	Database    Database
	Redis       Redis
	Logger      Logger
	Swagger     Swagger
	JWT         JWT
	OTP         OTP
	RateLimit   RateLimit
	Admin       Admin
	Email       Email
	Discount    Discount
}

func Load() (*Config, error) {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg := &Config{
		Application: Application{
			GracefulShutdownTimeout: parseDurationWithDefault("APPLICATION_GRACEFUL_SHUTDOWN_TIMEOUT", 30*time.Second),
			CleanupInterval:         parseDurationWithDefault("APPLICATION_CLEANUP_INTERVAL", 5*time.Minute),
		},
		HTTPServer: HTTPServer{
			Port: parseIntWithDefault("HTTP_SERVER_PORT", 8080),
		},
		Database: Database{
			Host:     getEnvWithDefault("DATABASE_HOST", "db"),
			Port:     parseIntWithDefault("DATABASE_PORT", 5432),
			User:     getEnvWithDefault("DATABASE_USER", "storefront"),
			Password: getEnvWithDefault("DATABASE_PASSWORD", "storefront"),
			Name:     getEnvWithDefault("DATABASE_NAME", "storefront"),
			SSLMode:  getEnvWithDefault("DATABASE_SSL_MODE", "disable"),
		},
		Logger: Logger{
			Level: getEnvWithDefault("LOGGER_LEVEL", "info"),
			Mode:  getEnvWithDefault("LOGGER_MODE", "production"),
		},
		Swagger: Swagger{
			Enabled: getEnvBoolWithDefault("SWAGGER_ENABLED", true),
		},
		JWT: JWT{
			Secret:         getEnvWithDefault("JWT_SECRET", "your-super-secret-key-change-in-production"),
			Issuer:         getEnvWithDefault("JWT_ISSUER", "storefront-cod"),
			ExpirationTime: parseDurationWithDefault("JWT_EXPIRATION_TIME", 30*time.Minute),
		},
		OTP: OTP{
			Length:         parseIntWithDefault("OTP_LENGTH", 6),
			ExpirationTime: parseDurationWithDefault("OTP_EXPIRATION_TIME", 5*time.Minute),
			MaxAttempts:    parseIntWithDefault("OTP_MAX_ATTEMPTS", 3),
		},
		Redis: Redis{
			Host:     getEnvWithDefault("REDIS_HOST", "redis"),
			Port:     parseIntWithDefault("REDIS_PORT", 6379),
			Password: getEnvWithDefault("REDIS_PASSWORD", ""),
			DB:       parseIntWithDefault("REDIS_DB", 0),
		},
		RateLimit: RateLimit{
			MaxRequests:    parseIntWithDefault("RATE_LIMIT_MAX_REQUESTS", 3),
			WindowDuration: parseDurationWithDefault("RATE_LIMIT_WINDOW_DURATION", 10*time.Minute),
		},
		Admin: Admin{
			APIKey: getEnvWithDefault("ADMIN_API_KEY", ""),
		},
		Email: Email{
			APIKey:      getEnvWithDefault("SENDGRID_API_KEY", ""),
			FromAddress: getEnvWithDefault("EMAIL_FROM_ADDRESS", "no-reply@example.com"),
			FromName:    getEnvWithDefault("EMAIL_FROM_NAME", "Storefront"),
		},
		Discount: Discount{
			CacheTTL: parseDurationWithDefault("DISCOUNT_CACHE_TTL", 30*time.Second),
		},
	}

	// Support legacy environment variables for backwards compatibility
	if port := os.Getenv("APP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.HTTPServer.Port = p
		}
	}

	return cfg, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func parseDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
