package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"storefront/discount"
	"storefront/entity"
	"storefront/pkg/clock"
	"storefront/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func dp(v string) *decimal.Decimal {
	x := d(v)
	return &x
}

func nd(v string) decimal.NullDecimal {
	return decimal.NewNullDecimal(d(v))
}

func assertDec(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, d(expected).Equal(actual), "expected %s, got %s", expected, actual)
}

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newDiscountService(repo *fakeDiscountRepo, cache *fakeDiscountCache) DiscountService {
	if cache == nil {
		return NewDiscountService(repo, nil, clock.NewMockClock(testNow), logger.NewNop())
	}
	return NewDiscountService(repo, cache, clock.NewMockClock(testNow), logger.NewNop())
}

func TestDiscountService_GetActiveCheckoutRule(t *testing.T) {
	past := testNow.Add(-time.Hour)
	future := testNow.Add(time.Hour)

	inEffect := entity.CheckoutDiscountRule{ID: uuid.New(), RuleType: "percent", Percent: nd("10"), Active: true}
	notStarted := entity.CheckoutDiscountRule{ID: uuid.New(), RuleType: "amount", Amount: nd("50"), Active: true, StartsAt: &future}
	ended := entity.CheckoutDiscountRule{ID: uuid.New(), RuleType: "amount", Amount: nd("50"), Active: true, EndsAt: &past}
	malformed := entity.CheckoutDiscountRule{ID: uuid.New(), RuleType: "percent", Active: true}

	tests := []struct {
		name   string
		rows   []entity.CheckoutDiscountRule
		err    error
		wantID *uuid.UUID
	}{
		{name: "no rules", rows: nil},
		{name: "rule in effect", rows: []entity.CheckoutDiscountRule{inEffect}, wantID: &inEffect.ID},
		{name: "only rule not started", rows: []entity.CheckoutDiscountRule{notStarted}},
		{name: "only rule ended", rows: []entity.CheckoutDiscountRule{ended}},
		{name: "out of window rows are skipped", rows: []entity.CheckoutDiscountRule{ended, notStarted, inEffect}, wantID: &inEffect.ID},
		{name: "malformed rows are skipped", rows: []entity.CheckoutDiscountRule{malformed, inEffect}, wantID: &inEffect.ID},
		{name: "store error soft fails", err: errors.New("db down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newDiscountService(&fakeDiscountRepo{checkoutRules: tt.rows, err: tt.err}, nil)

			rule := svc.GetActiveCheckoutRule(context.Background())
			if tt.wantID == nil {
				assert.Nil(t, rule)
				return
			}
			require.NotNil(t, rule)
			assert.Equal(t, *tt.wantID, rule.ID)
		})
	}
}

func TestDiscountService_GetActiveCheckoutRule_UsesCache(t *testing.T) {
	repo := &fakeDiscountRepo{checkoutRules: []entity.CheckoutDiscountRule{
		{ID: uuid.New(), RuleType: "amount", Amount: nd("20"), Active: true},
	}}
	cache := &fakeDiscountCache{}
	svc := newDiscountService(repo, cache)
	ctx := context.Background()

	require.NotNil(t, svc.GetActiveCheckoutRule(ctx))
	require.NotNil(t, svc.GetActiveCheckoutRule(ctx))
	assert.Equal(t, 1, repo.checkoutCalls)

	_, err := svc.UpsertCheckoutRule(ctx, &entity.UpsertCheckoutRuleRequest{RuleType: "amount", Amount: dp("30"), Active: true})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.invalidated)

	svc.GetActiveCheckoutRule(ctx)
	assert.Equal(t, 2, repo.checkoutCalls)
}

func TestDiscountService_GetActiveProductDiscounts(t *testing.T) {
	past := testNow.Add(-time.Hour)
	newest := entity.ProductDiscount{ID: uuid.New(), ProductID: "sku-1", Mode: "percent", Value: d("20"), Active: true}
	older := entity.ProductDiscount{ID: uuid.New(), ProductID: "sku-1", Mode: "amount", Value: d("5"), Active: true}
	ended := entity.ProductDiscount{ID: uuid.New(), ProductID: "sku-2", Mode: "amount", Value: d("5"), Active: true, EndsAt: &past}

	svc := newDiscountService(&fakeDiscountRepo{productDiscounts: []entity.ProductDiscount{newest, older, ended}}, nil)

	rules := svc.GetActiveProductDiscounts(context.Background(), []string{"sku-1", "sku-2", "sku-3"})
	require.Len(t, rules, 1)
	assert.Equal(t, newest.ID, rules["sku-1"].ID)
	assert.Equal(t, discount.BasePrice, rules["sku-1"].Base)

	failing := newDiscountService(&fakeDiscountRepo{err: errors.New("db down")}, nil)
	assert.Empty(t, failing.GetActiveProductDiscounts(context.Background(), []string{"sku-1"}))
}

func TestDiscountService_UpsertCheckoutRule_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  entity.UpsertCheckoutRuleRequest
	}{
		{"percent without value", entity.UpsertCheckoutRuleRequest{RuleType: "percent"}},
		{"percent over 100", entity.UpsertCheckoutRuleRequest{RuleType: "percent", Percent: dp("120")}},
		{"zero amount", entity.UpsertCheckoutRuleRequest{RuleType: "amount", Amount: dp("0")}},
		{"negative cap", entity.UpsertCheckoutRuleRequest{RuleType: "amount", Amount: dp("10"), MaxDiscountCap: dp("-1")}},
		{"inverted window", entity.UpsertCheckoutRuleRequest{
			RuleType: "amount", Amount: dp("10"),
			StartsAt: &testNow, EndsAt: func() *time.Time { t := testNow.Add(-time.Hour); return &t }(),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeDiscountRepo{}
			svc := newDiscountService(repo, nil)

			_, err := svc.UpsertCheckoutRule(context.Background(), &tt.req)
			assert.ErrorIs(t, err, discount.ErrMalformedRule)
			assert.Nil(t, repo.savedCheckout)
		})
	}
}

func TestDiscountService_UpsertCheckoutRule_StoresOnlyMatchingField(t *testing.T) {
	repo := &fakeDiscountRepo{}
	svc := newDiscountService(repo, nil)

	_, err := svc.UpsertCheckoutRule(context.Background(), &entity.UpsertCheckoutRuleRequest{
		RuleType: "percent",
		Percent:  dp("15"),
		Amount:   dp("40"),
		MinOrder: dp("100"),
		Active:   true,
	})
	require.NoError(t, err)

	saved := repo.savedCheckout
	require.NotNil(t, saved)
	assert.True(t, saved.Percent.Valid)
	assert.False(t, saved.Amount.Valid)
	assertDec(t, "100", saved.MinOrder.Decimal)
}

func TestDiscountService_UpsertProductDiscount(t *testing.T) {
	repo := &fakeDiscountRepo{}
	svc := newDiscountService(repo, nil)

	saved, err := svc.UpsertProductDiscount(context.Background(), &entity.UpsertProductDiscountRequest{
		ProductID: "sku-1",
		Mode:      "amount",
		Value:     d("10"),
		Active:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, "price", saved.Base)

	_, err = svc.UpsertProductDiscount(context.Background(), &entity.UpsertProductDiscountRequest{
		ProductID: "sku-1",
		Mode:      "percent",
		Value:     d("150"),
	})
	assert.ErrorIs(t, err, discount.ErrMalformedRule)
}

func TestDiscountService_Quote(t *testing.T) {
	ruleID := uuid.New()
	repo := &fakeDiscountRepo{
		checkoutRules: []entity.CheckoutDiscountRule{
			{ID: ruleID, RuleType: "percent", Percent: nd("10"), MaxDiscountCap: nd("15"), Active: true},
		},
		productDiscounts: []entity.ProductDiscount{
			{ID: uuid.New(), ProductID: "shirt", Mode: "percent", Value: d("20"), Base: "price", Active: true},
			{ID: uuid.New(), ProductID: "shoes", Mode: "amount", Value: d("30"), Base: "mrp", Active: true},
		},
	}
	svc := newDiscountService(repo, nil)

	resp, err := svc.Quote(context.Background(), &entity.QuoteRequest{Items: []entity.QuoteItem{
		{ProductID: "shirt", Price: d("50"), Quantity: 2},
		{ProductID: "shoes", Price: d("90"), MRP: dp("100"), Quantity: 1},
		{ProductID: "socks", Price: d("5"), Quantity: 3},
	}})
	require.NoError(t, err)
	require.Len(t, resp.Lines, 3)

	// shirt: 50 - 20% = 40, x2
	assertDec(t, "40", resp.Lines[0].DiscountedUnitPrice)
	assertDec(t, "80", resp.Lines[0].LineTotal)
	assertDec(t, "20", resp.Lines[0].Savings)
	// shoes: mrp 100 - 30 = 70
	assertDec(t, "70", resp.Lines[1].DiscountedUnitPrice)
	assertDec(t, "20", resp.Lines[1].Savings)
	// socks: no rule
	assertDec(t, "5", resp.Lines[2].DiscountedUnitPrice)
	assertDec(t, "0", resp.Lines[2].Savings)

	assertDec(t, "165", resp.Subtotal)
	assertDec(t, "40", resp.ProductSavings)
	// 10% of 165 = 16.5, capped at 15
	assertDec(t, "15", resp.CheckoutDiscount)
	require.NotNil(t, resp.CheckoutRuleID)
	assert.Equal(t, ruleID, *resp.CheckoutRuleID)
	assertDec(t, "150", resp.Total)
}

func TestDiscountService_Quote_BelowMinimumOrder(t *testing.T) {
	repo := &fakeDiscountRepo{checkoutRules: []entity.CheckoutDiscountRule{
		{ID: uuid.New(), RuleType: "amount", Amount: nd("25"), MinOrder: nd("500"), Active: true},
	}}
	svc := newDiscountService(repo, nil)

	resp, err := svc.Quote(context.Background(), &entity.QuoteRequest{Items: []entity.QuoteItem{
		{ProductID: "mug", Price: d("120"), Quantity: 2},
	}})
	require.NoError(t, err)
	assertDec(t, "0", resp.CheckoutDiscount)
	assert.Nil(t, resp.CheckoutRuleID)
	assertDec(t, "240", resp.Total)
}

func TestDiscountService_Quote_RejectsNegativePrice(t *testing.T) {
	svc := newDiscountService(&fakeDiscountRepo{}, nil)

	_, err := svc.Quote(context.Background(), &entity.QuoteRequest{Items: []entity.QuoteItem{
		{ProductID: "mug", Price: d("-1"), Quantity: 1},
	}})
	assert.ErrorIs(t, err, ErrInvalidQuote)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := &LogNotifier{out: &buf}

	err := n.SendOTP(context.Background(), "guest@example.com", entity.MethodEmail, "123456", testNow)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "guest@example.com")
	assert.Contains(t, buf.String(), "123456")
}

func TestMultiNotifier(t *testing.T) {
	email := &fakeNotifier{}
	fallback := &fakeNotifier{}
	m := NewMultiNotifier(fallback).Register(entity.MethodEmail, email)
	ctx := context.Background()

	require.NoError(t, m.SendOTP(ctx, "a@b.co", entity.MethodEmail, "111111", testNow))
	require.NoError(t, m.SendOTP(ctx, "+15551234567", entity.MethodPhone, "222222", testNow))

	assert.Len(t, email.sent, 1)
	assert.Len(t, fallback.sent, 1)
	assert.Equal(t, "222222", fallback.last().code)

	bare := NewMultiNotifier(nil)
	assert.Error(t, bare.SendOTP(ctx, "+15551234567", entity.MethodPhone, "333333", testNow))
}

func TestContactService_GetList(t *testing.T) {
	repo := &fakeContactRepo{}
	ctx := context.Background()
	for _, c := range []string{"a@b.co", "c@d.co", "e@f.co"} {
		_, err := repo.Create(ctx, &entity.VerifiedContact{Contact: c, Method: entity.MethodEmail})
		require.NoError(t, err)
	}
	svc := NewContactService(repo, logger.NewNop())

	list, err := svc.GetList(ctx, 0, 500, "")
	require.NoError(t, err)
	assert.Equal(t, 1, list.Page)
	assert.Equal(t, 20, list.PageSize)
	assert.Equal(t, 3, list.Total)
	assert.Equal(t, 1, list.TotalPages)
	assert.Len(t, list.Contacts, 3)

	_, err = svc.GetByID(ctx, 99)
	assert.ErrorIs(t, err, ErrContactNotFound)

	got, err := svc.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "c@d.co", got.Contact)
}
