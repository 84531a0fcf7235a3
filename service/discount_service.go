package service

import (
	"context"
	"errors"
	"fmt"

	"storefront/discount"
	"storefront/entity"
	"storefront/pkg/clock"
	"storefront/pkg/logger"
	"storefront/repository"

	"github.com/shopspring/decimal"
)

// ErrInvalidQuote is returned for carts that cannot be priced
var ErrInvalidQuote = errors.New("invalid quote request")

// DiscountService interface defines discount lookup, administration and pricing
type DiscountService interface {
	GetActiveCheckoutRule(ctx context.Context) *discount.CheckoutRule
	GetActiveProductDiscounts(ctx context.Context, productIDs []string) map[string]*discount.ProductRule
	UpsertCheckoutRule(ctx context.Context, req *entity.UpsertCheckoutRuleRequest) (*entity.CheckoutDiscountRule, error)
	UpsertProductDiscount(ctx context.Context, req *entity.UpsertProductDiscountRequest) (*entity.ProductDiscount, error)
	ListCheckoutRules(ctx context.Context) ([]entity.CheckoutDiscountRule, error)
	ListProductDiscounts(ctx context.Context, productID string) ([]entity.ProductDiscount, error)
	Quote(ctx context.Context, req *entity.QuoteRequest) (*entity.QuoteResponse, error)
}

// discountService implements DiscountService interface
type discountService struct {
	discountRepo repository.DiscountRepository
	cache        repository.DiscountCache
	clock        clock.Clock
	logger       *logger.Logger
}

// NewDiscountService creates a new discount service instance. cache may be nil.
func NewDiscountService(discountRepo repository.DiscountRepository, cache repository.DiscountCache, clk clock.Clock, logger *logger.Logger) DiscountService {
	return &discountService{
		discountRepo: discountRepo,
		cache:        cache,
		clock:        clk,
		logger:       logger,
	}
}

// GetActiveCheckoutRule returns the newest active rule in effect now, or nil.
// Lookup failures are logged and treated as no discount.
func (s *discountService) GetActiveCheckoutRule(ctx context.Context) *discount.CheckoutRule {
	rows, err := s.activeCheckoutRows(ctx)
	if err != nil {
		s.logger.Errorw("Failed to load checkout discount rules", "error", err)
		return nil
	}

	now := s.clock.Now()
	for _, row := range rows {
		rule, err := discount.ParseCheckoutRule(row)
		if err != nil {
			s.logger.Warnw("Skipping malformed checkout rule", "rule_id", row.ID, "error", err)
			continue
		}
		if rule.InEffect(now) {
			return rule
		}
	}

	return nil
}

func (s *discountService) activeCheckoutRows(ctx context.Context) ([]entity.CheckoutDiscountRule, error) {
	if s.cache != nil {
		rows, ok, err := s.cache.GetActiveCheckoutRules(ctx)
		if err != nil {
			s.logger.Warnw("Checkout rule cache read failed", "error", err)
		} else if ok {
			return rows, nil
		}
	}

	rows, err := s.discountRepo.GetActiveCheckoutRules(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetActiveCheckoutRules(ctx, rows); err != nil {
			s.logger.Warnw("Checkout rule cache write failed", "error", err)
		}
	}

	return rows, nil
}

// GetActiveProductDiscounts returns the newest rule in effect per product.
// Lookup failures are logged and yield an empty map.
func (s *discountService) GetActiveProductDiscounts(ctx context.Context, productIDs []string) map[string]*discount.ProductRule {
	result := make(map[string]*discount.ProductRule)
	if len(productIDs) == 0 {
		return result
	}

	rows, err := s.discountRepo.GetActiveProductDiscounts(ctx, productIDs)
	if err != nil {
		s.logger.Errorw("Failed to load product discounts", "product_count", len(productIDs), "error", err)
		return result
	}

	now := s.clock.Now()
	for _, row := range rows {
		if _, seen := result[row.ProductID]; seen {
			continue
		}
		rule, err := discount.ParseProductRule(row)
		if err != nil {
			s.logger.Warnw("Skipping malformed product discount", "discount_id", row.ID, "product_id", row.ProductID, "error", err)
			continue
		}
		if rule.InEffect(now) {
			result[row.ProductID] = rule
		}
	}

	return result
}

// UpsertCheckoutRule validates and saves a checkout rule
func (s *discountService) UpsertCheckoutRule(ctx context.Context, req *entity.UpsertCheckoutRuleRequest) (*entity.CheckoutDiscountRule, error) {
	rule := &discount.CheckoutRule{
		RuleType:       discount.RuleType(req.RuleType),
		MinOrder:       req.MinOrder,
		MaxDiscountCap: req.MaxDiscountCap,
		Active:         req.Active,
		StartsAt:       req.StartsAt,
		EndsAt:         req.EndsAt,
	}
	if req.Percent != nil {
		rule.Percent = *req.Percent
	}
	if req.Amount != nil {
		rule.Amount = *req.Amount
	}
	if err := discount.ValidateCheckoutRule(rule); err != nil {
		return nil, err
	}

	row := &entity.CheckoutDiscountRule{
		RuleType:       req.RuleType,
		MinOrder:       nullDecimal(req.MinOrder),
		MaxDiscountCap: nullDecimal(req.MaxDiscountCap),
		Active:         req.Active,
		StartsAt:       req.StartsAt,
		EndsAt:         req.EndsAt,
	}
	// only the field matching the rule type is stored
	switch rule.RuleType {
	case discount.RuleTypePercent:
		row.Percent = nullDecimal(req.Percent)
	case discount.RuleTypeAmount:
		row.Amount = nullDecimal(req.Amount)
	}
	if req.ID != nil {
		row.ID = *req.ID
	}

	saved, err := s.discountRepo.UpsertCheckoutRule(ctx, row)
	if err != nil {
		s.logger.Errorw("Failed to save checkout rule", "rule_type", req.RuleType, "error", err)
		return nil, fmt.Errorf("failed to save checkout rule: %w", err)
	}

	s.invalidateCache(ctx)
	s.logger.Infow("Checkout rule saved", "rule_id", saved.ID, "rule_type", saved.RuleType, "active", saved.Active)
	return saved, nil
}

// UpsertProductDiscount validates and saves a product discount
func (s *discountService) UpsertProductDiscount(ctx context.Context, req *entity.UpsertProductDiscountRequest) (*entity.ProductDiscount, error) {
	base := req.Base
	if base == "" {
		base = string(discount.BasePrice)
	}

	rule := &discount.ProductRule{
		ProductID: req.ProductID,
		Mode:      discount.Mode(req.Mode),
		Value:     req.Value,
		Base:      discount.Base(base),
		Active:    req.Active,
		StartsAt:  req.StartsAt,
		EndsAt:    req.EndsAt,
	}
	if err := discount.ValidateProductRule(rule); err != nil {
		return nil, err
	}

	row := &entity.ProductDiscount{
		ProductID: req.ProductID,
		Mode:      req.Mode,
		Value:     req.Value,
		Base:      base,
		Active:    req.Active,
		StartsAt:  req.StartsAt,
		EndsAt:    req.EndsAt,
	}
	if req.ID != nil {
		row.ID = *req.ID
	}

	saved, err := s.discountRepo.UpsertProductDiscount(ctx, row)
	if err != nil {
		s.logger.Errorw("Failed to save product discount", "product_id", req.ProductID, "error", err)
		return nil, fmt.Errorf("failed to save product discount: %w", err)
	}

	s.logger.Infow("Product discount saved", "discount_id", saved.ID, "product_id", saved.ProductID, "active", saved.Active)
	return saved, nil
}

// ListCheckoutRules returns every stored checkout rule
func (s *discountService) ListCheckoutRules(ctx context.Context) ([]entity.CheckoutDiscountRule, error) {
	rules, err := s.discountRepo.ListCheckoutRules(ctx)
	if err != nil {
		s.logger.Errorw("Failed to list checkout rules", "error", err)
		return nil, fmt.Errorf("failed to list checkout rules: %w", err)
	}
	return rules, nil
}

// ListProductDiscounts returns stored product discounts, optionally for one product
func (s *discountService) ListProductDiscounts(ctx context.Context, productID string) ([]entity.ProductDiscount, error) {
	discounts, err := s.discountRepo.ListProductDiscounts(ctx, productID)
	if err != nil {
		s.logger.Errorw("Failed to list product discounts", "product_id", productID, "error", err)
		return nil, fmt.Errorf("failed to list product discounts: %w", err)
	}
	return discounts, nil
}

// Quote prices a cart. Product discounts set the unit prices, the checkout
// discount then applies to the subtotal of those prices. Both savings are
// reported separately.
func (s *discountService) Quote(ctx context.Context, req *entity.QuoteRequest) (*entity.QuoteResponse, error) {
	productIDs := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Price.IsNegative() {
			return nil, fmt.Errorf("%w: price of %s cannot be negative", ErrInvalidQuote, item.ProductID)
		}
		if item.MRP != nil && item.MRP.IsNegative() {
			return nil, fmt.Errorf("%w: mrp of %s cannot be negative", ErrInvalidQuote, item.ProductID)
		}
		if item.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity of %s must be at least 1", ErrInvalidQuote, item.ProductID)
		}
		productIDs = append(productIDs, item.ProductID)
	}

	productRules := s.GetActiveProductDiscounts(ctx, productIDs)

	resp := &entity.QuoteResponse{
		Lines:          make([]entity.QuoteLine, 0, len(req.Items)),
		Subtotal:       decimal.Zero,
		ProductSavings: decimal.Zero,
	}

	for _, item := range req.Items {
		qty := decimal.NewFromInt(int64(item.Quantity))
		unit := discount.ApplyProductDiscount(item.Price, item.MRP, productRules[item.ProductID])
		lineTotal := unit.Mul(qty)

		savings := item.Price.Sub(unit).Mul(qty)
		if savings.IsNegative() {
			savings = decimal.Zero
		}

		resp.Lines = append(resp.Lines, entity.QuoteLine{
			ProductID:           item.ProductID,
			Quantity:            item.Quantity,
			UnitPrice:           item.Price,
			DiscountedUnitPrice: unit,
			LineTotal:           lineTotal,
			Savings:             savings,
		})
		resp.Subtotal = resp.Subtotal.Add(lineTotal)
		resp.ProductSavings = resp.ProductSavings.Add(savings)
	}

	rule := s.GetActiveCheckoutRule(ctx)
	resp.CheckoutDiscount = discount.ComputeCheckoutDiscount(rule, resp.Subtotal)
	if rule != nil && resp.CheckoutDiscount.IsPositive() {
		id := rule.ID
		resp.CheckoutRuleID = &id
	}
	resp.Total = resp.Subtotal.Sub(resp.CheckoutDiscount)

	return resp, nil
}

func (s *discountService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warnw("Failed to invalidate checkout rule cache", "error", err)
	}
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}
