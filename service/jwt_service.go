package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"storefront/config"
	"storefront/entity"
	"storefront/pkg/clock"
	"storefront/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken covers malformed, expired, forged and already redeemed tokens
var ErrInvalidToken = errors.New("invalid COD auth token")

// JWTService interface defines COD auth token operations
type JWTService interface {
	GenerateCODToken(ctx context.Context, contact string, method entity.ContactMethod, purpose entity.OTPPurpose) (string, time.Time, error)
	ValidateCODToken(ctx context.Context, tokenString string) (*CODClaims, error)
	RedeemCODToken(ctx context.Context, tokenString string) (*CODClaims, error)
}

// jwtService implements JWTService interface
type jwtService struct {
	cfg        *config.Config
	logger     *logger.Logger
	tokenStore TokenStore
	clock      clock.Clock
}

// CODClaims proves that contact passed OTP verification for purpose
type CODClaims struct {
	Contact string               `json:"contact"`
	Method  entity.ContactMethod `json:"method"`
	Purpose entity.OTPPurpose    `json:"purpose"`
	jwt.RegisteredClaims
}

// NewJWTService creates a new JWT service instance. tokenStore may be nil,
// in which case tokens are stateless and cannot be redeemed once.
func NewJWTService(cfg *config.Config, logger *logger.Logger, tokenStore TokenStore, clk clock.Clock) JWTService {
	return &jwtService{
		cfg:        cfg,
		logger:     logger,
		tokenStore: tokenStore,
		clock:      clk,
	}
}

// GenerateCODToken signs a token for a verified contact
func (s *jwtService) GenerateCODToken(ctx context.Context, contact string, method entity.ContactMethod, purpose entity.OTPPurpose) (string, time.Time, error) {
	now := s.clock.Now()
	expiresAt := now.Add(s.cfg.JWT.ExpirationTime)
	tokenID := uuid.NewString()

	claims := CODClaims{
		Contact: contact,
		Method:  method,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.cfg.JWT.Issuer,
			Subject:   fmt.Sprintf("%s:%s", method, contact),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		s.logger.Errorw("Failed to sign COD token", "contact", contact, "error", err)
		return "", time.Time{}, fmt.Errorf("failed to generate token: %w", err)
	}

	if s.tokenStore != nil {
		info := &TokenInfo{
			TokenID:   tokenID,
			Contact:   contact,
			Method:    method,
			Purpose:   purpose,
			IssuedAt:  now,
			ExpiresAt: expiresAt,
		}
		if err := s.tokenStore.StoreToken(ctx, hashToken(tokenString), info, s.cfg.JWT.ExpirationTime); err != nil {
			// an unstored token could never be redeemed
			return "", time.Time{}, fmt.Errorf("failed to store token: %w", err)
		}
	}

	s.logger.Infow("COD token generated", "contact", contact, "method", method, "expires_at", expiresAt)
	return tokenString, expiresAt, nil
}

// ValidateCODToken checks the signature, lifetime and that the token was not redeemed yet
func (s *jwtService) ValidateCODToken(ctx context.Context, tokenString string) (*CODClaims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}

	if s.tokenStore != nil {
		if _, err := s.tokenStore.ValidateToken(ctx, hashToken(tokenString)); err != nil {
			if errors.Is(err, ErrTokenNotFound) {
				return nil, ErrInvalidToken
			}
			return nil, err
		}
	}

	return claims, nil
}

// RedeemCODToken validates the token and consumes it so it cannot be used again
func (s *jwtService) RedeemCODToken(ctx context.Context, tokenString string) (*CODClaims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}

	if s.tokenStore == nil {
		return claims, nil
	}

	if _, err := s.tokenStore.ConsumeToken(ctx, hashToken(tokenString)); err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			s.logger.Warnw("COD token already redeemed or expired", "contact", claims.Contact)
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	s.logger.Infow("COD token redeemed", "contact", claims.Contact, "method", claims.Method)
	return claims, nil
}

func (s *jwtService) parse(tokenString string) (*CODClaims, error) {
	claims := &CODClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWT.Secret), nil
	},
		jwt.WithIssuer(s.cfg.JWT.Issuer),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		s.logger.Warnw("Failed to validate COD token", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid || claims.Purpose != entity.PurposeCODVerification {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// hashToken keys the store by token hash so raw tokens never sit in Redis
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
