package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/entity"
	"storefront/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const activeCheckoutRulesKey = "discount:checkout:active"

// DiscountCache memoizes the active checkout rule rows
type DiscountCache interface {
	GetActiveCheckoutRules(ctx context.Context) ([]entity.CheckoutDiscountRule, bool, error)
	SetActiveCheckoutRules(ctx context.Context, rules []entity.CheckoutDiscountRule) error
	Invalidate(ctx context.Context) error
}

// RedisDiscountCache implements DiscountCache using Redis
type RedisDiscountCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

// NewRedisDiscountCache creates a new Redis discount cache
func NewRedisDiscountCache(client *redis.Client, ttl time.Duration, logger *logger.Logger) DiscountCache {
	return &RedisDiscountCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// GetActiveCheckoutRules returns the cached rows and whether there was a hit
func (c *RedisDiscountCache) GetActiveCheckoutRules(ctx context.Context) ([]entity.CheckoutDiscountRule, bool, error) {
	data, err := c.client.Get(ctx, activeCheckoutRulesKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached checkout rules: %w", err)
	}

	var rules []entity.CheckoutDiscountRule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached checkout rules: %w", err)
	}

	return rules, true, nil
}

// SetActiveCheckoutRules stores the rows for the configured TTL
func (c *RedisDiscountCache) SetActiveCheckoutRules(ctx context.Context, rules []entity.CheckoutDiscountRule) error {
	if rules == nil {
		rules = []entity.CheckoutDiscountRule{}
	}

	data, err := json.Marshal(rules)
	if err != nil {
		return fmt.Errorf("failed to marshal checkout rules: %w", err)
	}

	if err := c.client.Set(ctx, activeCheckoutRulesKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache checkout rules: %w", err)
	}

	c.logger.Debugw("Checkout rules cached", "count", len(rules), "ttl_seconds", int(c.ttl.Seconds()))
	return nil
}

// Invalidate drops the cached rows
func (c *RedisDiscountCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, activeCheckoutRulesKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate checkout rules cache: %w", err)
	}
	return nil
}
