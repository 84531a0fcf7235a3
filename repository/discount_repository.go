package repository

import (
	"context"
	"fmt"
	"time"

	"storefront/entity"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// DiscountRepository interface defines discount rule data operations
type DiscountRepository interface {
	GetActiveCheckoutRules(ctx context.Context) ([]entity.CheckoutDiscountRule, error)
	GetActiveProductDiscounts(ctx context.Context, productIDs []string) ([]entity.ProductDiscount, error)
	UpsertCheckoutRule(ctx context.Context, rule *entity.CheckoutDiscountRule) (*entity.CheckoutDiscountRule, error)
	UpsertProductDiscount(ctx context.Context, d *entity.ProductDiscount) (*entity.ProductDiscount, error)
	ListCheckoutRules(ctx context.Context) ([]entity.CheckoutDiscountRule, error)
	ListProductDiscounts(ctx context.Context, productID string) ([]entity.ProductDiscount, error)
}

// discountRepository implements DiscountRepository interface
type discountRepository struct {
	db *sqlx.DB
}

// NewDiscountRepository creates a new discount repository instance
func NewDiscountRepository(db *sqlx.DB) DiscountRepository {
	return &discountRepository{
		db: db,
	}
}

// advisory lock keys serialising writers that deactivate sibling rules
const (
	checkoutRuleLockKey    = 71001
	productDiscountLockKey = 71002
)

const (
	checkoutRuleColumns    = `id, rule_type, percent, amount, min_order, max_discount_cap, active, starts_at, ends_at, created_at, updated_at`
	productDiscountColumns = `id, product_id, mode, value, base, active, starts_at, ends_at, created_at, updated_at`
)

// GetActiveCheckoutRules returns rows flagged active, newest first. Window
// filtering is left to the caller.
func (r *discountRepository) GetActiveCheckoutRules(ctx context.Context) ([]entity.CheckoutDiscountRule, error) {
	query := `
		SELECT ` + checkoutRuleColumns + `
		FROM checkout_discount_rules
		WHERE active = TRUE
		ORDER BY updated_at DESC
	`

	var rules []entity.CheckoutDiscountRule
	if err := r.db.SelectContext(ctx, &rules, query); err != nil {
		return nil, fmt.Errorf("failed to get active checkout rules: %w", err)
	}

	return rules, nil
}

// GetActiveProductDiscounts returns active rows for the given products, newest first
func (r *discountRepository) GetActiveProductDiscounts(ctx context.Context, productIDs []string) ([]entity.ProductDiscount, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + productDiscountColumns + `
		FROM product_discounts
		WHERE active = TRUE AND product_id = ANY($1)
		ORDER BY updated_at DESC
	`

	var discounts []entity.ProductDiscount
	if err := r.db.SelectContext(ctx, &discounts, query, pq.Array(productIDs)); err != nil {
		return nil, fmt.Errorf("failed to get active product discounts: %w", err)
	}

	return discounts, nil
}

// UpsertCheckoutRule inserts or updates a rule. Saving an active rule
// deactivates every other active rule in the same transaction. Concurrent
// activations queue on an advisory lock; the single-active unique index
// backs this up.
func (r *discountRepository) UpsertCheckoutRule(ctx context.Context, rule *entity.CheckoutDiscountRule) (*entity.CheckoutDiscountRule, error) {
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	now := time.Now()

	var saved entity.CheckoutDiscountRule
	err := r.runInTx(ctx, func(tx *sqlx.Tx) error {
		if rule.Active {
			if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, checkoutRuleLockKey); err != nil {
				return fmt.Errorf("failed to lock checkout rules: %w", err)
			}

			deactivate := `
				UPDATE checkout_discount_rules
				SET active = FALSE, updated_at = $2
				WHERE active = TRUE AND id <> $1
			`
			if _, err := tx.ExecContext(ctx, deactivate, rule.ID, now); err != nil {
				return fmt.Errorf("failed to deactivate checkout rules: %w", err)
			}
		}

		upsert := `
			INSERT INTO checkout_discount_rules
				(id, rule_type, percent, amount, min_order, max_discount_cap, active, starts_at, ends_at, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
			ON CONFLICT (id) DO UPDATE SET
				rule_type = EXCLUDED.rule_type,
				percent = EXCLUDED.percent,
				amount = EXCLUDED.amount,
				min_order = EXCLUDED.min_order,
				max_discount_cap = EXCLUDED.max_discount_cap,
				active = EXCLUDED.active,
				starts_at = EXCLUDED.starts_at,
				ends_at = EXCLUDED.ends_at,
				updated_at = EXCLUDED.updated_at
			RETURNING ` + checkoutRuleColumns

		err := tx.QueryRowxContext(ctx, upsert,
			rule.ID, rule.RuleType, rule.Percent, rule.Amount, rule.MinOrder, rule.MaxDiscountCap,
			rule.Active, rule.StartsAt, rule.EndsAt, now,
		).StructScan(&saved)
		if err != nil {
			return fmt.Errorf("failed to upsert checkout rule: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &saved, nil
}

// UpsertProductDiscount inserts or updates a product discount. Saving an
// active discount deactivates the product's other active discounts.
func (r *discountRepository) UpsertProductDiscount(ctx context.Context, d *entity.ProductDiscount) (*entity.ProductDiscount, error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	now := time.Now()

	var saved entity.ProductDiscount
	err := r.runInTx(ctx, func(tx *sqlx.Tx) error {
		if d.Active {
			if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1, hashtext($2))`, productDiscountLockKey, d.ProductID); err != nil {
				return fmt.Errorf("failed to lock product discounts: %w", err)
			}

			deactivate := `
				UPDATE product_discounts
				SET active = FALSE, updated_at = $3
				WHERE product_id = $1 AND active = TRUE AND id <> $2
			`
			if _, err := tx.ExecContext(ctx, deactivate, d.ProductID, d.ID, now); err != nil {
				return fmt.Errorf("failed to deactivate product discounts: %w", err)
			}
		}

		upsert := `
			INSERT INTO product_discounts
				(id, product_id, mode, value, base, active, starts_at, ends_at, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
			ON CONFLICT (id) DO UPDATE SET
				product_id = EXCLUDED.product_id,
				mode = EXCLUDED.mode,
				value = EXCLUDED.value,
				base = EXCLUDED.base,
				active = EXCLUDED.active,
				starts_at = EXCLUDED.starts_at,
				ends_at = EXCLUDED.ends_at,
				updated_at = EXCLUDED.updated_at
			RETURNING ` + productDiscountColumns

		err := tx.QueryRowxContext(ctx, upsert,
			d.ID, d.ProductID, d.Mode, d.Value, d.Base, d.Active, d.StartsAt, d.EndsAt, now,
		).StructScan(&saved)
		if err != nil {
			return fmt.Errorf("failed to upsert product discount: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &saved, nil
}

// ListCheckoutRules returns every checkout rule, newest first
func (r *discountRepository) ListCheckoutRules(ctx context.Context) ([]entity.CheckoutDiscountRule, error) {
	query := `SELECT ` + checkoutRuleColumns + ` FROM checkout_discount_rules ORDER BY created_at DESC`

	var rules []entity.CheckoutDiscountRule
	if err := r.db.SelectContext(ctx, &rules, query); err != nil {
		return nil, fmt.Errorf("failed to list checkout rules: %w", err)
	}

	return rules, nil
}

// ListProductDiscounts returns product discounts, optionally for one product
func (r *discountRepository) ListProductDiscounts(ctx context.Context, productID string) ([]entity.ProductDiscount, error) {
	query := `SELECT ` + productDiscountColumns + ` FROM product_discounts`
	args := []interface{}{}
	if productID != "" {
		query += ` WHERE product_id = $1`
		args = append(args, productID)
	}
	query += ` ORDER BY created_at DESC`

	var discounts []entity.ProductDiscount
	if err := r.db.SelectContext(ctx, &discounts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list product discounts: %w", err)
	}

	return discounts, nil
}

func (r *discountRepository) runInTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true

	return nil
}
