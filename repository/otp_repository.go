package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"storefront/entity"

	"github.com/jmoiron/sqlx"
)

var (
	// ErrOTPAlreadyUsed is returned when a code was consumed concurrently
	ErrOTPAlreadyUsed = errors.New("OTP not found or already used")
	// ErrAttemptsExhausted is returned when a code has no verification attempts left
	ErrAttemptsExhausted = errors.New("OTP attempts exhausted")
)

// OTPRepository interface defines OTP data operations
type OTPRepository interface {
	Create(ctx context.Context, otp *entity.OTP) (*entity.OTP, error)
	GetLatestByContact(ctx context.Context, contact string, method entity.ContactMethod, purpose entity.OTPPurpose) (*entity.OTP, error)
	IncrementAttempts(ctx context.Context, id int, maxAttempts int) (int, error)
	MarkAsUsed(ctx context.Context, id int) error
	InvalidateActive(ctx context.Context, contact string, method entity.ContactMethod, purpose entity.OTPPurpose) (int64, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// otpRepository implements OTPRepository interface
type otpRepository struct {
	db *sqlx.DB
}

// NewOTPRepository creates a new OTP repository instance
func NewOTPRepository(db *sqlx.DB) OTPRepository {
	return &otpRepository{
		db: db,
	}
}

const otpColumns = `id, contact, method, purpose, code_hash, attempts, expires_at, is_used, created_at, used_at`

// Create stores a newly issued code
func (r *otpRepository) Create(ctx context.Context, otp *entity.OTP) (*entity.OTP, error) {
	query := `
		INSERT INTO otps (contact, method, purpose, code_hash, attempts, expires_at, is_used, created_at)
		VALUES (:contact, :method, :purpose, :code_hash, :attempts, :expires_at, :is_used, :created_at)
		RETURNING ` + otpColumns

	if otp.CreatedAt.IsZero() {
		otp.CreatedAt = time.Now()
	}
	otp.IsUsed = false
	otp.Attempts = 0

	rows, err := r.db.NamedQueryContext(ctx, query, otp)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTP: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, fmt.Errorf("failed to get created OTP")
	}

	var created entity.OTP
	if err := rows.StructScan(&created); err != nil {
		return nil, fmt.Errorf("failed to scan created OTP: %w", err)
	}

	return &created, nil
}

// GetLatestByContact returns the most recent code issued to contact, used or not.
// Callers decide whether it is still valid.
func (r *otpRepository) GetLatestByContact(ctx context.Context, contact string, method entity.ContactMethod, purpose entity.OTPPurpose) (*entity.OTP, error) {
	query := `
		SELECT ` + otpColumns + `
		FROM otps
		WHERE contact = $1 AND method = $2 AND purpose = $3
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	var otp entity.OTP
	err := r.db.GetContext(ctx, &otp, query, contact, method, purpose)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get OTP: %w", err)
	}

	return &otp, nil
}

// IncrementAttempts claims one verification attempt and returns the new count.
// The row is only updated while attempts < maxAttempts and the code is unused,
// so concurrent verifies can never claim more than maxAttempts in total.
func (r *otpRepository) IncrementAttempts(ctx context.Context, id int, maxAttempts int) (int, error) {
	query := `
		UPDATE otps
		SET attempts = attempts + 1
		WHERE id = $1 AND attempts < $2 AND is_used = FALSE
		RETURNING attempts
	`

	var attempts int
	if err := r.db.GetContext(ctx, &attempts, query, id, maxAttempts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrAttemptsExhausted
		}
		return 0, fmt.Errorf("failed to increment OTP attempts: %w", err)
	}

	return attempts, nil
}

// MarkAsUsed marks an OTP as used
func (r *otpRepository) MarkAsUsed(ctx context.Context, id int) error {
	query := `
		UPDATE otps
		SET is_used = TRUE, used_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND is_used = FALSE
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark OTP as used: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrOTPAlreadyUsed
	}

	return nil
}

// InvalidateActive retires every unused code of contact so only the newest one can verify
func (r *otpRepository) InvalidateActive(ctx context.Context, contact string, method entity.ContactMethod, purpose entity.OTPPurpose) (int64, error) {
	query := `
		UPDATE otps
		SET is_used = TRUE, used_at = CURRENT_TIMESTAMP
		WHERE contact = $1 AND method = $2 AND purpose = $3 AND is_used = FALSE
	`

	result, err := r.db.ExecContext(ctx, query, contact, method, purpose)
	if err != nil {
		return 0, fmt.Errorf("failed to invalidate active OTPs: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

// DeleteExpired deletes codes that expired before the given time
func (r *otpRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM otps WHERE expires_at < $1`

	result, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired OTPs: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
