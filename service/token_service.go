package service

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

// ErrTokenNotFound is returned for tokens that were never stored, expired or already redeemed
var ErrTokenNotFound = errors.New("token not found or expired")

// TokenInfo stores COD token metadata in Redis
type TokenInfo struct {
	TokenID   string               `json:"token_id"`
	Contact   string               `json:"contact"`
	Method    entity.ContactMethod `json:"method"`
	Purpose   entity.OTPPurpose    `json:"purpose"`
	IssuedAt  time.Time            `json:"issued_at"`
	ExpiresAt time.Time            `json:"expires_at"`
}

// TokenStore keeps issued COD tokens so they can be redeemed once
type TokenStore interface {
	StoreToken(ctx context.Context, tokenHash string, tokenInfo *TokenInfo, expiration time.Duration) error
	ValidateToken(ctx context.Context, tokenHash string) (*TokenInfo, error)
	ConsumeToken(ctx context.Context, tokenHash string) (*TokenInfo, error)
}

// TokenService handles token storage and management in Redis
type TokenService struct {
	redis  *redis.Client
	logger *logger.Logger
}

// NewTokenService creates a new token service
func NewTokenService(redis *redis.Client, logger *logger.Logger) *TokenService {
	return &TokenService{
		redis:  redis,
		logger: logger,
	}
}

func tokenKey(tokenHash string) string {
	return "cod_token:" + tokenHash
}

// StoreToken stores token information in Redis
func (s *TokenService) StoreToken(ctx context.Context, tokenHash string, tokenInfo *TokenInfo, expiration time.Duration) error {
	data, err := json.Marshal(tokenInfo)
	if err != nil {
		s.logger.Errorw("Failed to marshal token info", "error", err)
		return fmt.Errorf("failed to marshal token info: %w", err)
	}

	if err := s.redis.Set(ctx, tokenKey(tokenHash), data, expiration).Err(); err != nil {
		s.logger.Errorw("Failed to store token in Redis", "token_hash", shortHash(tokenHash), "error", err)
		return fmt.Errorf("failed to store token in Redis: %w", err)
	}

	s.logger.Infow("Token stored successfully", "contact", tokenInfo.Contact, "token_hash", shortHash(tokenHash))
	return nil
}

// ValidateToken checks if token exists and is valid in Redis
func (s *TokenService) ValidateToken(ctx context.Context, tokenHash string) (*TokenInfo, error) {
	data, err := s.redis.Get(ctx, tokenKey(tokenHash)).Bytes()
	return s.decode(tokenHash, data, err)
}

// ConsumeToken atomically reads and deletes the token. Only one caller can
// consume a given token.
func (s *TokenService) ConsumeToken(ctx context.Context, tokenHash string) (*TokenInfo, error) {
	data, err := s.redis.GetDel(ctx, tokenKey(tokenHash)).Bytes()
	info, err := s.decode(tokenHash, data, err)
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Token consumed", "contact", info.Contact, "token_hash", shortHash(tokenHash))
	return info, nil
}

func (s *TokenService) decode(tokenHash string, data []byte, err error) (*TokenInfo, error) {
	if errors.Is(err, redis.Nil) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		s.logger.Errorw("Failed to get token from Redis", "token_hash", shortHash(tokenHash), "error", err)
		return nil, fmt.Errorf("failed to get token from Redis: %w", err)
	}

	var tokenInfo TokenInfo
	if err := json.Unmarshal(data, &tokenInfo); err != nil {
		s.logger.Errorw("Failed to unmarshal token info", "error", err)
		return nil, fmt.Errorf("failed to unmarshal token info: %w", err)
	}

	return &tokenInfo, nil
}

func shortHash(tokenHash string) string {
	if len(tokenHash) <= 8 {
		return tokenHash
	}
	return tokenHash[:8] + "..."
}
