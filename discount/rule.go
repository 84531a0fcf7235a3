// Package discount computes checkout-level and product-level discounts.
//
// The two kinds are independent offers: a product rule lowers the displayed
// unit price, a checkout rule lowers the order subtotal. They are never folded
// into one combined percentage.
package discount

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/entity"
)

var ErrMalformedRule = errors.New("malformed discount rule")

var hundred = decimal.NewFromInt(100)

// RuleType is the basis of a checkout rule
type RuleType string

const (
	RuleTypePercent RuleType = "percent"
	RuleTypeAmount  RuleType = "amount"
)

// Mode is the basis of a product rule
type Mode string

const (
	ModePercent Mode = "percent"
	ModeAmount  Mode = "amount"
)

// Base selects the product price field a product rule is computed against
type Base string

const (
	BasePrice Base = "price"
	BaseMRP   Base = "mrp"
)

// CheckoutRule is a store-wide rule applied to the order subtotal.
// Percent is set iff RuleType is percent, Amount iff RuleType is amount.
type CheckoutRule struct {
	ID             uuid.UUID        `json:"id"`
	RuleType       RuleType         `json:"rule_type"`
	Percent        decimal.Decimal  `json:"percent"`
	Amount         decimal.Decimal  `json:"amount"`
	MinOrder       *decimal.Decimal `json:"min_order"`
	MaxDiscountCap *decimal.Decimal `json:"max_discount_cap"`
	Active         bool             `json:"active"`
	StartsAt       *time.Time       `json:"starts_at"`
	EndsAt         *time.Time       `json:"ends_at"`
}

// InEffect reports whether the rule is active and now falls inside its window
func (r *CheckoutRule) InEffect(now time.Time) bool {
	if r == nil {
		return false
	}
	return r.Active && withinWindow(now, r.StartsAt, r.EndsAt)
}

// ProductRule is a rule tied to a single product
type ProductRule struct {
	ID        uuid.UUID       `json:"id"`
	ProductID string          `json:"product_id"`
	Mode      Mode            `json:"mode"`
	Value     decimal.Decimal `json:"value"`
	Base      Base            `json:"base"`
	Active    bool            `json:"active"`
	StartsAt  *time.Time      `json:"starts_at"`
	EndsAt    *time.Time      `json:"ends_at"`
}

// InEffect reports whether the rule is active and now falls inside its window
func (r *ProductRule) InEffect(now time.Time) bool {
	if r == nil {
		return false
	}
	return r.Active && withinWindow(now, r.StartsAt, r.EndsAt)
}

func withinWindow(now time.Time, startsAt, endsAt *time.Time) bool {
	if startsAt != nil && now.Before(*startsAt) {
		return false
	}
	if endsAt != nil && now.After(*endsAt) {
		return false
	}
	return true
}

// ParseCheckoutRule converts a stored row into a CheckoutRule, rejecting rows
// whose fields contradict their rule type.
func ParseCheckoutRule(row entity.CheckoutDiscountRule) (*CheckoutRule, error) {
	rule := &CheckoutRule{
		ID:       row.ID,
		RuleType: RuleType(row.RuleType),
		Active:   row.Active,
		StartsAt: row.StartsAt,
		EndsAt:   row.EndsAt,
	}
	if row.Percent.Valid {
		rule.Percent = row.Percent.Decimal
	}
	if row.Amount.Valid {
		rule.Amount = row.Amount.Decimal
	}
	if row.MinOrder.Valid {
		v := row.MinOrder.Decimal
		rule.MinOrder = &v
	}
	if row.MaxDiscountCap.Valid {
		v := row.MaxDiscountCap.Decimal
		rule.MaxDiscountCap = &v
	}

	if err := ValidateCheckoutRule(rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// ValidateCheckoutRule checks the invariants of a checkout rule
func ValidateCheckoutRule(r *CheckoutRule) error {
	switch r.RuleType {
	case RuleTypePercent:
		if !r.Percent.IsPositive() || r.Percent.GreaterThan(hundred) {
			return fmt.Errorf("%w: percent must be in (0, 100], got %s", ErrMalformedRule, r.Percent)
		}
	case RuleTypeAmount:
		if !r.Amount.IsPositive() {
			return fmt.Errorf("%w: amount must be positive, got %s", ErrMalformedRule, r.Amount)
		}
	default:
		return fmt.Errorf("%w: unknown rule type %q", ErrMalformedRule, r.RuleType)
	}

	if r.MinOrder != nil && r.MinOrder.IsNegative() {
		return fmt.Errorf("%w: min order cannot be negative", ErrMalformedRule)
	}
	if r.MaxDiscountCap != nil && r.MaxDiscountCap.IsNegative() {
		return fmt.Errorf("%w: max discount cap cannot be negative", ErrMalformedRule)
	}
	if r.StartsAt != nil && r.EndsAt != nil && r.EndsAt.Before(*r.StartsAt) {
		return fmt.Errorf("%w: ends_at is before starts_at", ErrMalformedRule)
	}
	return nil
}

// ParseProductRule converts a stored row into a ProductRule. An empty base defaults to price.
func ParseProductRule(row entity.ProductDiscount) (*ProductRule, error) {
	rule := &ProductRule{
		ID:        row.ID,
		ProductID: row.ProductID,
		Mode:      Mode(row.Mode),
		Value:     row.Value,
		Base:      Base(row.Base),
		Active:    row.Active,
		StartsAt:  row.StartsAt,
		EndsAt:    row.EndsAt,
	}
	if rule.Base == "" {
		rule.Base = BasePrice
	}

	if err := ValidateProductRule(rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// ValidateProductRule checks the invariants of a product rule
func ValidateProductRule(r *ProductRule) error {
	if r.ProductID == "" {
		return fmt.Errorf("%w: product id is required", ErrMalformedRule)
	}
	switch r.Mode {
	case ModePercent:
		if r.Value.GreaterThan(hundred) {
			return fmt.Errorf("%w: percent value must be at most 100, got %s", ErrMalformedRule, r.Value)
		}
	case ModeAmount:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrMalformedRule, r.Mode)
	}
	if !r.Value.IsPositive() {
		return fmt.Errorf("%w: value must be positive, got %s", ErrMalformedRule, r.Value)
	}
	if r.Base != BasePrice && r.Base != BaseMRP {
		return fmt.Errorf("%w: unknown base %q", ErrMalformedRule, r.Base)
	}
	if r.StartsAt != nil && r.EndsAt != nil && r.EndsAt.Before(*r.StartsAt) {
		return fmt.Errorf("%w: ends_at is before starts_at", ErrMalformedRule)
	}
	return nil
}
