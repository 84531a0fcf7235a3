package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckoutDiscountRule is a row of checkout_discount_rules. Optional numeric
// columns stay nullable here and are validated when converted for the engine.
type CheckoutDiscountRule struct {
	ID             uuid.UUID           `db:"id" json:"id"`
	RuleType       string              `db:"rule_type" json:"rule_type"`
	Percent        decimal.NullDecimal `db:"percent" json:"percent"`
	Amount         decimal.NullDecimal `db:"amount" json:"amount"`
	MinOrder       decimal.NullDecimal `db:"min_order" json:"min_order"`
	MaxDiscountCap decimal.NullDecimal `db:"max_discount_cap" json:"max_discount_cap"`
	Active         bool                `db:"active" json:"active"`
	StartsAt       *time.Time          `db:"starts_at" json:"starts_at"`
	EndsAt         *time.Time          `db:"ends_at" json:"ends_at"`
	CreatedAt      time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time           `db:"updated_at" json:"updated_at"`
}

// TableName returns the table name for the CheckoutDiscountRule entity
func (CheckoutDiscountRule) TableName() string {
	return "checkout_discount_rules"
}

// ProductDiscount is a row of product_discounts
type ProductDiscount struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	ProductID string          `db:"product_id" json:"product_id"`
	Mode      string          `db:"mode" json:"mode"`
	Value     decimal.Decimal `db:"value" json:"value"`
	Base      string          `db:"base" json:"base"`
	Active    bool            `db:"active" json:"active"`
	StartsAt  *time.Time      `db:"starts_at" json:"starts_at"`
	EndsAt    *time.Time      `db:"ends_at" json:"ends_at"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// TableName returns the table name for the ProductDiscount entity
func (ProductDiscount) TableName() string {
	return "product_discounts"
}

// UpsertCheckoutRuleRequest creates a checkout rule, or updates it when ID is set
type UpsertCheckoutRuleRequest struct {
	ID             *uuid.UUID       `json:"id,omitempty"`
	RuleType       string           `json:"rule_type" validate:"required,oneof=percent amount"`
	Percent        *decimal.Decimal `json:"percent,omitempty"`
	Amount         *decimal.Decimal `json:"amount,omitempty"`
	MinOrder       *decimal.Decimal `json:"min_order,omitempty"`
	MaxDiscountCap *decimal.Decimal `json:"max_discount_cap,omitempty"`
	Active         bool             `json:"active"`
	StartsAt       *time.Time       `json:"starts_at,omitempty"`
	EndsAt         *time.Time       `json:"ends_at,omitempty"`
}

// UnmarshalJSON accepts "type" as an alias of "rule_type"
func (r *UpsertCheckoutRuleRequest) UnmarshalJSON(data []byte) error {
	type plain UpsertCheckoutRuleRequest
	aux := struct {
		*plain
		Type string `json:"type"`
	}{plain: (*plain)(r)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if r.RuleType == "" {
		r.RuleType = aux.Type
	}
	return nil
}

// UpsertProductDiscountRequest creates a product discount, or updates it when ID is set
type UpsertProductDiscountRequest struct {
	ID        *uuid.UUID      `json:"id,omitempty"`
	ProductID string          `json:"product_id" validate:"required,max=64"`
	Mode      string          `json:"mode" validate:"required,oneof=percent amount"`
	Value     decimal.Decimal `json:"value"`
	Base      string          `json:"base" validate:"omitempty,oneof=price mrp"`
	Active    bool            `json:"active"`
	StartsAt  *time.Time      `json:"starts_at,omitempty"`
	EndsAt    *time.Time      `json:"ends_at,omitempty"`
}

// QuoteItem is one cart line submitted for pricing
type QuoteItem struct {
	ProductID string           `json:"product_id" validate:"required"`
	Price     decimal.Decimal  `json:"price"`
	MRP       *decimal.Decimal `json:"mrp,omitempty"`
	Quantity  int              `json:"quantity" validate:"required,min=1"`
}

// QuoteRequest represents a cart to price
type QuoteRequest struct {
	Items []QuoteItem `json:"items" validate:"required,min=1,dive"`
}

// QuoteLine is the priced cart line
type QuoteLine struct {
	ProductID           string          `json:"product_id"`
	Quantity            int             `json:"quantity"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	DiscountedUnitPrice decimal.Decimal `json:"discounted_unit_price"`
	LineTotal           decimal.Decimal `json:"line_total"`
	Savings             decimal.Decimal `json:"savings"`
}

// QuoteResponse reports product savings and the checkout discount as separate offers
type QuoteResponse struct {
	Lines            []QuoteLine     `json:"lines"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	ProductSavings   decimal.Decimal `json:"product_savings"`
	CheckoutDiscount decimal.Decimal `json:"checkout_discount"`
	CheckoutRuleID   *uuid.UUID      `json:"checkout_rule_id,omitempty"`
	Total            decimal.Decimal `json:"total"`
}
