package repository_test

import (
	"context"
	"testing"

	"storefront/entity"
	"storefront/repository"
	"storefront/test"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_OTPLifecycle(t *testing.T) {
	tdb := test.SetupTestDB(t)
	repo := repository.NewOTPRepository(tdb.DB)
	ctx := context.Background()

	first := tdb.CreateValidOTP(t, "guest@example.com", "hash-1")
	second := tdb.CreateValidOTP(t, "guest@example.com", "hash-2")
	tdb.CreateExpiredOTP(t, "guest@example.com", "hash-0")
	other := tdb.CreateValidOTP(t, "other@example.com", "hash-x")

	latest, err := repo.GetLatestByContact(ctx, "guest@example.com", entity.MethodEmail, entity.PurposeCODVerification)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Greater(t, latest.ID, second.ID)

	n, err := repo.InvalidateActive(ctx, "guest@example.com", entity.MethodEmail, entity.PurposeCODVerification)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	tdb.AssertOTPUsed(t, first.ID)
	tdb.AssertOTPNotUsed(t, other.ID)
	assert.Equal(t, 0, tdb.GetActiveOTPCount(t, "guest@example.com"))

	fresh := tdb.CreateValidOTP(t, "guest@example.com", "hash-3")
	attempts, err := repo.IncrementAttempts(ctx, fresh.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	_, err = repo.IncrementAttempts(ctx, fresh.ID, 1)
	assert.ErrorIs(t, err, repository.ErrAttemptsExhausted)

	require.NoError(t, repo.MarkAsUsed(ctx, fresh.ID))
	assert.ErrorIs(t, repo.MarkAsUsed(ctx, fresh.ID), repository.ErrOTPAlreadyUsed)
}

func TestIntegration_ContactVerifyCount(t *testing.T) {
	tdb := test.SetupTestDB(t)
	repo := repository.NewContactRepository(tdb.DB)
	ctx := context.Background()

	created := tdb.CreateTestContact(t, "guest@example.com")
	assert.Equal(t, 1, created.VerifyCount)

	updated, err := repo.UpdateLastVerified(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.VerifyCount)
	assert.NotNil(t, updated.LastVerifiedAt)

	contacts, total, err := repo.List(ctx, 1, 20, "GUEST")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, contacts, 1)
}

func TestIntegration_SingleActiveCheckoutRule(t *testing.T) {
	tdb := test.SetupTestDB(t)
	repo := repository.NewDiscountRepository(tdb.DB)
	ctx := context.Background()

	for _, pct := range []int64{10, 15} {
		_, err := repo.UpsertCheckoutRule(ctx, &entity.CheckoutDiscountRule{
			RuleType: "percent",
			Percent:  decimal.NewNullDecimal(decimal.NewFromInt(pct)),
			Active:   true,
		})
		require.NoError(t, err)
	}

	assert.Equal(t, 1, tdb.CountActiveCheckoutRules(t))

	active, err := repo.GetActiveCheckoutRules(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.True(t, active[0].Percent.Decimal.Equal(decimal.NewFromInt(15)))
}
