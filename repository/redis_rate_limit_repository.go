package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/entity"
	"storefront/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const rateLimitKeyPrefix = "otp_rate_limit:"

// reserveRequestScript checks and increments the window counter in one step.
// The window starts with the first request and the key expires when it closes.
// A key that lost its expiry gets one again here.
var reserveRequestScript = redis.NewScript(`
local count = tonumber(redis.call('GET', KEYS[1]) or '0')
if count >= tonumber(ARGV[1]) then
	return {count, redis.call('PTTL', KEYS[1]), 0}
end
count = redis.call('INCR', KEYS[1])
if redis.call('PTTL', KEYS[1]) < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return {count, redis.call('PTTL', KEYS[1]), 1}
`)

// RedisRateLimitRepository implements rate limiting using Redis
type RedisRateLimitRepository struct {
	client *redis.Client
	window time.Duration
	logger *logger.Logger
}

// NewRedisRateLimitRepository creates a new Redis rate limit repository
func NewRedisRateLimitRepository(client *redis.Client, window time.Duration, logger *logger.Logger) RateLimitRepository {
	return &RedisRateLimitRepository{
		client: client,
		window: window,
		logger: logger,
	}
}

func rateLimitKey(contact string) string {
	return rateLimitKeyPrefix + contact
}

// GetRateLimit retrieves the request window of a contact. A contact with no
// record gets an empty window.
func (r *RedisRateLimitRepository) GetRateLimit(ctx context.Context, contact string) (*entity.RateLimitInfo, error) {
	key := rateLimitKey(contact)

	// count and TTL in one round trip
	pipe := r.client.Pipeline()
	countCmd := pipe.Get(ctx, key)
	ttlCmd := pipe.PTTL(ctx, key)
	_, _ = pipe.Exec(ctx)

	count, err := countCmd.Int()
	if errors.Is(err, redis.Nil) {
		r.logger.Debugw("No rate limit record found", "contact", contact)
		return &entity.RateLimitInfo{Contact: contact}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rate limit info: %w", err)
	}

	ttl, err := ttlCmd.Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get rate limit ttl: %w", err)
	}

	info := windowInfo(contact, count, ttl, time.Now(), r.window)
	r.logger.Debugw("Rate limit retrieved",
		"contact", contact,
		"request_count", info.RequestCount,
		"ttl_seconds", int(ttl.Seconds()))

	return info, nil
}

// ReserveRequest counts a request if the contact still has room in its window
func (r *RedisRateLimitRepository) ReserveRequest(ctx context.Context, contact string, maxRequests int) (*entity.RateLimitInfo, bool, error) {
	res, err := reserveRequestScript.Run(ctx, r.client,
		[]string{rateLimitKey(contact)}, maxRequests, r.window.Milliseconds()).Int64Slice()
	if err != nil {
		return nil, false, fmt.Errorf("failed to reserve rate limit slot: %w", err)
	}
	if len(res) != 3 {
		return nil, false, fmt.Errorf("unexpected rate limit reply: %v", res)
	}

	ttl := time.Duration(res[1]) * time.Millisecond
	info := windowInfo(contact, int(res[0]), ttl, time.Now(), r.window)
	allowed := res[2] == 1

	r.logger.Debugw("Rate limit reserved",
		"contact", contact,
		"request_count", info.RequestCount,
		"allowed", allowed,
		"ttl_seconds", int(ttl.Seconds()))

	return info, allowed, nil
}

// windowInfo derives the window start from the remaining key TTL. A key
// without an expiry has no known start.
func windowInfo(contact string, count int, ttl time.Duration, now time.Time, window time.Duration) *entity.RateLimitInfo {
	info := &entity.RateLimitInfo{Contact: contact, RequestCount: count}
	if ttl > 0 {
		info.WindowEndsAt = now.Add(ttl)
		info.WindowStartAt = info.WindowEndsAt.Add(-window)
	}
	return info
}

// CleanupRateLimits sets an expiry on any record that lost it. Redis expires
// the rest on its own.
func (r *RedisRateLimitRepository) CleanupRateLimits(ctx context.Context) (int, error) {
	fixed := 0
	iter := r.client.Scan(ctx, 0, rateLimitKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		ttl, err := r.client.TTL(ctx, key).Result()
		if err != nil {
			r.logger.Warnw("Failed to get TTL for key", "key", key, "error", err)
			continue
		}

		// -1 means no expiration
		if ttl == -1 {
			if err := r.client.Expire(ctx, key, r.window).Err(); err != nil {
				r.logger.Warnw("Failed to set TTL for key", "key", key, "error", err)
				continue
			}
			fixed++
		}
	}
	if err := iter.Err(); err != nil {
		return fixed, fmt.Errorf("failed to scan rate limit keys: %w", err)
	}

	if fixed > 0 {
		r.logger.Infow("Rate limit cleanup completed", "keys_with_ttl_added", fixed)
	}

	return fixed, nil
}
