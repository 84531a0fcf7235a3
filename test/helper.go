package test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"storefront/entity"
	"storefront/migrations"
	"storefront/pkg/logger"
	"storefront/repository"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

// TestDB wraps a test database connection
type TestDB struct {
	DB *sqlx.DB
}

// SetupTestDB connects to the integration database and runs migrations.
// The test is skipped unless TEST_DB_HOST is set.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping database integration test")
	}
	port := getEnvOrDefault("TEST_DB_PORT", "5432")
	user := getEnvOrDefault("TEST_DB_USER", "storefront")
	password := getEnvOrDefault("TEST_DB_PASSWORD", "storefront")

	baseDBName := getEnvOrDefault("POSTGRES_DB", "storefront")
	dbName := getEnvOrDefault("TEST_DB_NAME", baseDBName+"_test")

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbName)

	db, err := sqlx.Connect("postgres", connStr)
	require.NoError(t, err, "Failed to connect to test database")

	migrationPaths := []string{"./migrations", "../migrations", "/app/migrations"}
	for _, path := range migrationPaths {
		err = migrations.RunMigrations(context.Background(), db.DB, path, logger.NewNop())
		if err == nil {
			break
		}
	}
	require.NoError(t, err, "Failed to run test migrations")

	tdb := &TestDB{DB: db}
	t.Cleanup(tdb.Close)
	tdb.CleanTables(t)
	return tdb
}

// Close closes the test database connection
func (tdb *TestDB) Close() {
	if tdb.DB != nil {
		tdb.DB.Close()
	}
}

// CleanTables removes all data from tables (for test isolation)
func (tdb *TestDB) CleanTables(t *testing.T) {
	_, err := tdb.DB.Exec("TRUNCATE TABLE otps, verified_contacts, checkout_discount_rules, product_discounts RESTART IDENTITY CASCADE")
	require.NoError(t, err, "Failed to clean test tables")
}

// CreateTestOTP stores a code hash for contact expiring at expiresAt
func (tdb *TestDB) CreateTestOTP(t *testing.T, contact, codeHash string, expiresAt time.Time) *entity.OTP {
	otp := &entity.OTP{
		Contact:   contact,
		Method:    entity.MethodEmail,
		Purpose:   entity.PurposeCODVerification,
		CodeHash:  codeHash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}

	created, err := repository.NewOTPRepository(tdb.DB).Create(context.Background(), otp)
	require.NoError(t, err, "Failed to create test OTP")

	return created
}

// CreateValidOTP creates an OTP that expires in 2 minutes
func (tdb *TestDB) CreateValidOTP(t *testing.T, contact, codeHash string) *entity.OTP {
	return tdb.CreateTestOTP(t, contact, codeHash, time.Now().Add(2*time.Minute))
}

// CreateExpiredOTP creates an OTP that expired 5 minutes ago
func (tdb *TestDB) CreateExpiredOTP(t *testing.T, contact, codeHash string) *entity.OTP {
	return tdb.CreateTestOTP(t, contact, codeHash, time.Now().Add(-5*time.Minute))
}

// CreateTestContact records a verified email contact
func (tdb *TestDB) CreateTestContact(t *testing.T, contact string) *entity.VerifiedContact {
	created, err := repository.NewContactRepository(tdb.DB).Create(context.Background(), &entity.VerifiedContact{
		Contact: contact,
		Method:  entity.MethodEmail,
	})
	require.NoError(t, err, "Failed to create test contact")
	return created
}

// AssertOTPUsed asserts that an OTP is marked as used
func (tdb *TestDB) AssertOTPUsed(t *testing.T, otpID int) {
	var isUsed bool
	var usedAt *time.Time
	err := tdb.DB.QueryRow("SELECT is_used, used_at FROM otps WHERE id = $1", otpID).Scan(&isUsed, &usedAt)
	require.NoError(t, err, "Failed to get OTP status")
	require.True(t, isUsed, "OTP should be marked as used")
	require.NotNil(t, usedAt, "OTP should have used_at timestamp")
}

// AssertOTPNotUsed asserts that an OTP is not marked as used
func (tdb *TestDB) AssertOTPNotUsed(t *testing.T, otpID int) {
	var isUsed bool
	err := tdb.DB.Get(&isUsed, "SELECT is_used FROM otps WHERE id = $1", otpID)
	require.NoError(t, err, "Failed to get OTP status")
	require.False(t, isUsed, "OTP should not be marked as used")
}

// GetActiveOTPCount returns the number of unused, unexpired OTPs for a contact
func (tdb *TestDB) GetActiveOTPCount(t *testing.T, contact string) int {
	var count int
	err := tdb.DB.Get(&count,
		"SELECT COUNT(*) FROM otps WHERE contact = $1 AND is_used = FALSE AND expires_at > NOW()",
		contact)
	require.NoError(t, err, "Failed to count active OTPs")
	return count
}

// CountActiveCheckoutRules returns the number of checkout rules flagged active
func (tdb *TestDB) CountActiveCheckoutRules(t *testing.T) int {
	var count int
	err := tdb.DB.Get(&count, "SELECT COUNT(*) FROM checkout_discount_rules WHERE active = TRUE")
	require.NoError(t, err, "Failed to count active checkout rules")
	return count
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
