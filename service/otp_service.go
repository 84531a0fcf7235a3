package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"storefront/config"
	"storefront/entity"
	"storefront/pkg/clock"
	"storefront/pkg/logger"
	"storefront/repository"
	"storefront/validator"
)

// OTPService interface defines OTP business operations. Expected failures
// are returned as *entity.OTPError.
type OTPService interface {
	RequestOTP(ctx context.Context, req *entity.RequestOTPRequest) (*entity.OTPResponse, error)
	VerifyOTP(ctx context.Context, req *entity.VerifyOTPRequest) (*entity.OTPResponse, error)
	CleanupExpiredOTPs(ctx context.Context) error
}

// otpService implements OTPService interface
type otpService struct {
	otpRepo       repository.OTPRepository
	contactRepo   repository.ContactRepository
	rateLimitRepo repository.RateLimitRepository
	jwtService    JWTService
	notifier      Notifier
	clock         clock.Clock
	cfg           *config.Config
	logger        *logger.Logger
}

// NewOTPService creates a new OTP service instance
func NewOTPService(
	otpRepo repository.OTPRepository,
	contactRepo repository.ContactRepository,
	rateLimitRepo repository.RateLimitRepository,
	jwtService JWTService,
	notifier Notifier,
	clk clock.Clock,
	cfg *config.Config,
	logger *logger.Logger,
) OTPService {
	return &otpService{
		otpRepo:       otpRepo,
		contactRepo:   contactRepo,
		rateLimitRepo: rateLimitRepo,
		jwtService:    jwtService,
		notifier:      notifier,
		clock:         clk,
		cfg:           cfg,
		logger:        logger,
	}
}

// RequestOTP issues a new code for the contact and delivers it. Earlier
// unused codes stop being valid.
func (s *otpService) RequestOTP(ctx context.Context, req *entity.RequestOTPRequest) (*entity.OTPResponse, error) {
	contact := validator.NormalizeContact(req.Contact, req.Method)
	if !validator.IsValidContact(contact, req.Method) {
		return nil, entity.NewOTPError(entity.ErrCodeInvalidContact)
	}

	// the slot is taken before delivery so parallel requests cannot overshoot the window
	_, allowed, err := s.rateLimitRepo.ReserveRequest(ctx, contact, s.cfg.RateLimit.MaxRequests)
	if err != nil {
		s.logger.Errorw("Failed to check rate limit", "contact", contact, "error", err)
		return nil, fmt.Errorf("failed to check rate limit: %w", err)
	}
	if !allowed {
		s.logger.Warnw("OTP rate limit exceeded", "contact", contact,
			"max_requests", s.cfg.RateLimit.MaxRequests, "window", s.cfg.RateLimit.WindowDuration)
		return nil, entity.NewOTPError(entity.ErrCodeRateLimitExceeded)
	}

	if n, err := s.otpRepo.InvalidateActive(ctx, contact, req.Method, req.Purpose); err != nil {
		s.logger.Errorw("Failed to invalidate previous OTPs", "contact", contact, "error", err)
		return nil, fmt.Errorf("failed to invalidate previous OTPs: %w", err)
	} else if n > 0 {
		s.logger.Debugw("Invalidated previous OTPs", "contact", contact, "count", n)
	}

	code, err := generateOTPCode(s.cfg.OTP.Length)
	if err != nil {
		s.logger.Errorw("Failed to generate OTP code", "error", err)
		return nil, fmt.Errorf("failed to generate OTP code: %w", err)
	}

	now := s.clock.Now()
	otp := &entity.OTP{
		Contact:   contact,
		Method:    req.Method,
		Purpose:   req.Purpose,
		CodeHash:  hashCode(contact, code),
		ExpiresAt: now.Add(s.cfg.OTP.ExpirationTime),
		CreatedAt: now,
	}

	created, err := s.otpRepo.Create(ctx, otp)
	if err != nil {
		s.logger.Errorw("Failed to create OTP", "contact", contact, "error", err)
		return nil, fmt.Errorf("failed to create OTP: %w", err)
	}

	if err := s.notifier.SendOTP(ctx, contact, req.Method, code, created.ExpiresAt); err != nil {
		s.logger.Errorw("Failed to deliver OTP", "contact", contact, "method", req.Method, "error", err)
		return nil, fmt.Errorf("failed to deliver OTP: %w", err)
	}

	s.logger.Infow("OTP generated", "contact", contact, "method", req.Method, "expires_at", created.ExpiresAt)

	expiresAt := created.ExpiresAt
	return &entity.OTPResponse{
		Success:   true,
		Message:   "Verification code sent",
		ExpiresAt: &expiresAt,
	}, nil
}

// VerifyOTP checks the code against the latest one issued to the contact and
// returns a COD auth token on success
func (s *otpService) VerifyOTP(ctx context.Context, req *entity.VerifyOTPRequest) (*entity.OTPResponse, error) {
	contact := validator.NormalizeContact(req.Contact, req.Method)

	otp, err := s.otpRepo.GetLatestByContact(ctx, contact, req.Method, req.Purpose)
	if err != nil {
		s.logger.Errorw("Failed to get OTP", "contact", contact, "error", err)
		return nil, fmt.Errorf("failed to verify OTP: %w", err)
	}

	if otp == nil {
		s.logger.Warnw("No OTP issued for contact", "contact", contact)
		return nil, entity.NewOTPError(entity.ErrCodeInvalidCode)
	}
	if otp.IsExpiredAt(s.clock.Now()) {
		return nil, entity.NewOTPError(entity.ErrCodeCodeExpired)
	}

	// the attempt is claimed before the comparison so parallel guesses share the limit
	attempts, err := s.otpRepo.IncrementAttempts(ctx, otp.ID, s.cfg.OTP.MaxAttempts)
	if err != nil {
		if errors.Is(err, repository.ErrAttemptsExhausted) {
			s.logger.Warnw("OTP attempts exhausted", "contact", contact, "otp_id", otp.ID)
			return nil, entity.NewOTPError(entity.ErrCodeTooManyAttempts)
		}
		s.logger.Errorw("Failed to record attempt", "otp_id", otp.ID, "error", err)
		return nil, fmt.Errorf("failed to record attempt: %w", err)
	}

	if !codeMatches(otp.CodeHash, hashCode(contact, req.Code)) {
		s.logger.Warnw("Invalid OTP code", "contact", contact, "attempts", attempts)
		return nil, entity.NewOTPError(entity.ErrCodeInvalidCode)
	}

	if err := s.otpRepo.MarkAsUsed(ctx, otp.ID); err != nil {
		if errors.Is(err, repository.ErrOTPAlreadyUsed) {
			// a concurrent verify won
			return nil, entity.NewOTPError(entity.ErrCodeCodeExpired)
		}
		s.logger.Errorw("Failed to mark OTP as used", "otp_id", otp.ID, "error", err)
		return nil, fmt.Errorf("failed to mark OTP as used: %w", err)
	}

	s.recordVerifiedContact(ctx, contact, req.Method)

	token, expiresAt, err := s.jwtService.GenerateCODToken(ctx, contact, req.Method, req.Purpose)
	if err != nil {
		s.logger.Errorw("Failed to issue COD token", "contact", contact, "error", err)
		return nil, fmt.Errorf("failed to issue COD token: %w", err)
	}

	return &entity.OTPResponse{
		Success:      true,
		Message:      "Verification successful",
		CodAuthToken: token,
		ExpiresAt:    &expiresAt,
	}, nil
}

// recordVerifiedContact keeps the verified contacts ledger. Failures are
// logged only since the code has already been consumed.
func (s *otpService) recordVerifiedContact(ctx context.Context, contact string, method entity.ContactMethod) {
	existing, err := s.contactRepo.GetByContact(ctx, contact, method)
	if err != nil {
		s.logger.Errorw("Failed to get verified contact", "contact", contact, "error", err)
		return
	}

	if existing == nil {
		created, err := s.contactRepo.Create(ctx, &entity.VerifiedContact{Contact: contact, Method: method})
		if err != nil {
			s.logger.Errorw("Failed to create verified contact", "contact", contact, "error", err)
			return
		}
		s.logger.Infow("New contact verified", "contact_id", created.ID, "contact", contact)
		return
	}

	if _, err := s.contactRepo.UpdateLastVerified(ctx, existing.ID); err != nil {
		s.logger.Errorw("Failed to update last verified", "contact", contact, "error", err)
		return
	}
	s.logger.Infow("Contact verified again", "contact_id", existing.ID, "contact", contact)
}

// CleanupExpiredOTPs removes expired OTPs and repairs rate limit records
func (s *otpService) CleanupExpiredOTPs(ctx context.Context) error {
	deleted, err := s.otpRepo.DeleteExpired(ctx, s.clock.Now())
	if err != nil {
		s.logger.Errorw("Failed to delete expired OTPs", "error", err)
		return fmt.Errorf("failed to delete expired OTPs: %w", err)
	}
	if deleted > 0 {
		s.logger.Infow("Deleted expired OTPs", "count", deleted)
	}

	if _, err := s.rateLimitRepo.CleanupRateLimits(ctx); err != nil {
		s.logger.Errorw("Failed to cleanup rate limits", "error", err)
		return fmt.Errorf("failed to cleanup rate limits: %w", err)
	}

	return nil
}

// generateOTPCode returns a uniformly random numeric code with leading zeros
func generateOTPCode(length int) (string, error) {
	maxValue := big.NewInt(1)
	for i := 0; i < length; i++ {
		maxValue.Mul(maxValue, big.NewInt(10))
	}

	randomNumber, err := rand.Int(rand.Reader, maxValue)
	if err != nil {
		return "", fmt.Errorf("failed to generate random number: %w", err)
	}

	return fmt.Sprintf("%0*d", length, randomNumber), nil
}

// hashCode binds the code to its contact so equal codes hash differently
func hashCode(contact, code string) string {
	sum := sha256.Sum256([]byte(contact + ":" + code))
	return hex.EncodeToString(sum[:])
}

func codeMatches(storedHash, candidateHash string) bool {
	return subtle.ConstantTimeCompare([]byte(storedHash), []byte(candidateHash)) == 1
}
