package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/entity"

	"github.com/jmoiron/sqlx"
)

// ContactRepository interface defines verified contact data operations
type ContactRepository interface {
	Create(ctx context.Context, contact *entity.VerifiedContact) (*entity.VerifiedContact, error)
	GetByID(ctx context.Context, id int) (*entity.VerifiedContact, error)
	GetByContact(ctx context.Context, contact string, method entity.ContactMethod) (*entity.VerifiedContact, error)
	UpdateLastVerified(ctx context.Context, id int) (*entity.VerifiedContact, error)
	List(ctx context.Context, page, pageSize int, search string) ([]entity.VerifiedContact, int, error)
}

// contactRepository implements ContactRepository interface
type contactRepository struct {
	db *sqlx.DB
}

// NewContactRepository creates a new contact repository instance
func NewContactRepository(db *sqlx.DB) ContactRepository {
	return &contactRepository{
		db: db,
	}
}

const contactColumns = `id, contact, method, verified_at, last_verified_at, verify_count`

// Create records a first successful verification
func (r *contactRepository) Create(ctx context.Context, contact *entity.VerifiedContact) (*entity.VerifiedContact, error) {
	query := `
		INSERT INTO verified_contacts (contact, method, verified_at, last_verified_at, verify_count)
		VALUES (:contact, :method, :verified_at, :last_verified_at, :verify_count)
		RETURNING ` + contactColumns

	now := time.Now()
	contact.VerifiedAt = now
	contact.LastVerifiedAt = &now
	contact.VerifyCount = 1

	rows, err := r.db.NamedQueryContext(ctx, query, contact)
	if err != nil {
		return nil, fmt.Errorf("failed to create verified contact: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, fmt.Errorf("failed to get created verified contact")
	}

	var created entity.VerifiedContact
	if err := rows.StructScan(&created); err != nil {
		return nil, fmt.Errorf("failed to scan created verified contact: %w", err)
	}

	return &created, nil
}

// GetByID retrieves a verified contact by ID
func (r *contactRepository) GetByID(ctx context.Context, id int) (*entity.VerifiedContact, error) {
	query := `SELECT ` + contactColumns + ` FROM verified_contacts WHERE id = $1`

	var contact entity.VerifiedContact
	err := r.db.GetContext(ctx, &contact, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get verified contact by id: %w", err)
	}

	return &contact, nil
}

// GetByContact retrieves a verified contact by its address and method
func (r *contactRepository) GetByContact(ctx context.Context, contact string, method entity.ContactMethod) (*entity.VerifiedContact, error) {
	query := `SELECT ` + contactColumns + ` FROM verified_contacts WHERE contact = $1 AND method = $2`

	var vc entity.VerifiedContact
	err := r.db.GetContext(ctx, &vc, query, contact, method)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get verified contact: %w", err)
	}

	return &vc, nil
}

// UpdateLastVerified bumps the verification timestamp and counter
func (r *contactRepository) UpdateLastVerified(ctx context.Context, id int) (*entity.VerifiedContact, error) {
	query := `
		UPDATE verified_contacts
		SET last_verified_at = CURRENT_TIMESTAMP, verify_count = verify_count + 1
		WHERE id = $1
		RETURNING ` + contactColumns

	var vc entity.VerifiedContact
	err := r.db.GetContext(ctx, &vc, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("verified contact %d not found", id)
		}
		return nil, fmt.Errorf("failed to update last verified: %w", err)
	}

	return &vc, nil
}

// List retrieves paginated verified contacts with optional search
func (r *contactRepository) List(ctx context.Context, page, pageSize int, search string) ([]entity.VerifiedContact, int, error) {
	offset := (page - 1) * pageSize

	whereClause := ""
	args := []interface{}{}
	argIndex := 1

	if search != "" {
		whereClause = fmt.Sprintf("WHERE contact ILIKE $%d", argIndex)
		args = append(args, "%"+strings.ToLower(search)+"%")
		argIndex++
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM verified_contacts %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count verified contacts: %w", err)
	}

	listQuery := fmt.Sprintf(`
		SELECT %s
		FROM verified_contacts
		%s
		ORDER BY verified_at DESC
		LIMIT $%d OFFSET $%d
	`, contactColumns, whereClause, argIndex, argIndex+1)

	args = append(args, pageSize, offset)

	var contacts []entity.VerifiedContact
	if err := r.db.SelectContext(ctx, &contacts, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list verified contacts: %w", err)
	}

	return contacts, total, nil
}
