// Package otpflow drives the guest COD verification: request a code, enter it,
// verify it, with a resend cooldown and a local attempt budget.
//
// The counters kept here mirror the server for UX only. The OTP service
// enforces its own limits and is the security boundary.
package otpflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode"

	"storefront/entity"
	"storefront/pkg/logger"
	"storefront/validator"
)

var (
	ErrRequestInFlight = errors.New("otp request already in flight")
	ErrVerifyInFlight  = errors.New("otp verification already in flight")
	ErrSessionReset    = errors.New("session was reset while the call was in flight")
	ErrSessionClosed   = errors.New("session is closed")
)

// RequestStatus is the state of the request step
type RequestStatus string

const (
	RequestIdle       RequestStatus = "idle"
	RequestRequesting RequestStatus = "requesting"
	RequestFailed     RequestStatus = "error"
)

// VerifyStatus is the state of the verify step
type VerifyStatus string

const (
	VerifyIdle      VerifyStatus = "idle"
	VerifyVerifying VerifyStatus = "verifying"
	VerifyFailed    VerifyStatus = "error"
)

// Options tunes a Session. Zero values take the defaults.
type Options struct {
	MaxResends       int
	MaxAttempts      int
	CooldownDuration time.Duration
	CodeLength       int
	TickerFactory    TickerFactory
	// OnChange receives a snapshot after every state change. It is called
	// without the session lock held, possibly from the countdown goroutine.
	OnChange func(State)
}

// DefaultOptions returns 3 resends, 3 attempts, a 60s cooldown and 6-digit codes
func DefaultOptions() Options {
	return Options{
		MaxResends:       3,
		MaxAttempts:      3,
		CooldownDuration: 60 * time.Second,
		CodeLength:       6,
		TickerFactory:    NewStdTicker,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxResends <= 0 {
		o.MaxResends = d.MaxResends
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = d.MaxAttempts
	}
	if o.CooldownDuration <= 0 {
		o.CooldownDuration = d.CooldownDuration
	}
	if o.CodeLength <= 0 {
		o.CodeLength = d.CodeLength
	}
	if o.TickerFactory == nil {
		o.TickerFactory = d.TickerFactory
	}
	return o
}

// State is an immutable snapshot of a session
type State struct {
	Contact           string
	Method            entity.ContactMethod
	Purpose           entity.OTPPurpose
	OTPValue          string
	RequestStatus     RequestStatus
	RequestError      *entity.OTPError
	VerifyStatus      VerifyStatus
	VerifyError       *entity.OTPError
	CooldownRemaining int
	ResendCount       int
	AttemptsLeft      int
	IsVerified        bool
	CodAuthToken      string
	CanResend         bool
}

type countdown struct {
	stop chan struct{}
}

// Session is one verification flow. It is owned by the UI instance that created it
// and must be closed on every exit path so the countdown timer is released.
type Session struct {
	mu        sync.Mutex
	transport Transport
	opts      Options
	logger    *logger.Logger

	contact  string
	method   entity.ContactMethod
	purpose  entity.OTPPurpose
	otpValue string

	requestStatus RequestStatus
	requestErr    *entity.OTPError
	verifyStatus  VerifyStatus
	verifyErr     *entity.OTPError

	cooldownRemaining int
	resendCount       int
	attemptsLeft      int
	verified          bool
	codAuthToken      string

	// epoch is bumped on every reset; late transport results from an older epoch are dropped
	epoch     uint64
	countdown *countdown
	closed    bool
}

// NewSession creates a session in the idle state. A nil log discards output.
func NewSession(transport Transport, opts Options, log *logger.Logger) *Session {
	opts = opts.withDefaults()
	if log == nil {
		log = logger.NewNop()
	}
	return &Session{
		transport:     transport,
		opts:          opts,
		logger:        log,
		method:        entity.MethodEmail,
		purpose:       entity.PurposeCODVerification,
		requestStatus: RequestIdle,
		verifyStatus:  VerifyIdle,
		attemptsLeft:  opts.MaxAttempts,
	}
}

// RequestOTP asks the transport to send a code to contact. Local validation
// failures return without a network call.
func (s *Session) RequestOTP(ctx context.Context, contact string, method entity.ContactMethod, purpose entity.OTPPurpose) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.requestStatus == RequestRequesting {
		s.mu.Unlock()
		return ErrRequestInFlight
	}

	s.contact, s.method, s.purpose = contact, method, purpose

	if !validator.IsValidContact(contact, method) {
		err := s.failRequestLocked(entity.NewOTPError(entity.ErrCodeInvalidContact))
		s.unlockAndEmit()
		return err
	}
	if s.resendCount >= s.opts.MaxResends {
		err := s.failRequestLocked(entity.NewOTPError(entity.ErrCodeRateLimitExceeded))
		s.unlockAndEmit()
		return err
	}

	s.requestStatus = RequestRequesting
	s.requestErr = nil
	epoch := s.epoch
	s.unlockAndEmit()

	resp, callErr := s.transport.RequestOTP(ctx, contact, method, purpose)

	s.mu.Lock()
	if s.closed || s.epoch != epoch {
		s.mu.Unlock()
		s.logger.Debugw("Dropping stale OTP request result", "contact", contact)
		return ErrSessionReset
	}

	if otpErr := classify(resp, callErr); otpErr != nil {
		err := s.failRequestLocked(otpErr)
		s.unlockAndEmit()
		s.logger.Warnw("OTP request failed", "contact", contact, "method", method, "error", otpErr)
		return err
	}

	s.resendCount++
	s.requestStatus = RequestIdle
	s.startCountdownLocked()
	s.unlockAndEmit()

	s.logger.Infow("OTP requested", "contact", contact, "method", method, "resend_count", s.ResendCount())
	return nil
}

// VerifyOTP submits code. On success the session becomes verified and the
// COD auth token is returned.
func (s *Session) VerifyOTP(ctx context.Context, contact string, method entity.ContactMethod, code string, purpose entity.OTPPurpose) (string, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", ErrSessionClosed
	}
	if s.verified {
		token := s.codAuthToken
		s.mu.Unlock()
		return token, nil
	}
	if s.verifyStatus == VerifyVerifying {
		s.mu.Unlock()
		return "", ErrVerifyInFlight
	}

	if len([]rune(code)) != s.opts.CodeLength {
		err := s.failVerifyLocked(entity.NewOTPError(entity.ErrCodeInvalidCode), false)
		s.unlockAndEmit()
		return "", err
	}
	if s.attemptsLeft <= 0 {
		err := s.failVerifyLocked(entity.NewOTPError(entity.ErrCodeTooManyAttempts), false)
		s.unlockAndEmit()
		return "", err
	}

	s.verifyStatus = VerifyVerifying
	s.verifyErr = nil
	epoch := s.epoch
	s.unlockAndEmit()

	resp, callErr := s.transport.VerifyOTP(ctx, contact, method, code, purpose)

	s.mu.Lock()
	if s.closed || s.epoch != epoch {
		s.mu.Unlock()
		s.logger.Debugw("Dropping stale OTP verify result", "contact", contact)
		return "", ErrSessionReset
	}

	otpErr := classify(resp, callErr)
	if otpErr == nil && resp.CodAuthToken == "" {
		otpErr = entity.NewOTPError(entity.ErrCodeUnknownError)
	}
	if otpErr != nil {
		err := s.failVerifyLocked(otpErr, true)
		left := s.attemptsLeft
		s.unlockAndEmit()
		s.logger.Warnw("OTP verification failed", "contact", contact, "error", otpErr, "attempts_left", left)
		return "", err
	}

	s.verified = true
	s.codAuthToken = resp.CodAuthToken
	s.attemptsLeft = s.opts.MaxAttempts
	s.verifyStatus = VerifyIdle
	s.stopCountdownLocked()
	s.cooldownRemaining = 0
	token := s.codAuthToken
	s.unlockAndEmit()

	s.logger.Infow("OTP verified", "contact", contact, "method", method)
	return token, nil
}

// HandleOTPChange records the code typed so far, keeping digits only and at
// most CodeLength of them. Any verify error is cleared so the user can retry.
// It reports false once the session is verified or closed.
func (s *Session) HandleOTPChange(value string) bool {
	s.mu.Lock()
	if s.closed || s.verified {
		s.mu.Unlock()
		return false
	}

	s.otpValue = sanitizeCode(value, s.opts.CodeLength)
	s.verifyErr = nil
	if s.verifyStatus == VerifyFailed {
		s.verifyStatus = VerifyIdle
	}
	s.unlockAndEmit()
	return true
}

// SwitchMethod changes the contact method, which starts the flow over
func (s *Session) SwitchMethod(method entity.ContactMethod) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.resetLocked()
	s.method = method
	s.contact = ""
	s.unlockAndEmit()
}

// Reset returns the session to its initial state. The contact and method
// selections are kept. Results of calls still in flight will be discarded.
func (s *Session) Reset() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.resetLocked()
	s.unlockAndEmit()
}

// Close releases the countdown timer. The session cannot be used afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.resetLocked()
	s.closed = true
}

// Snapshot returns the current state
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// CanResend reports whether a new code may be requested now
func (s *Session) CanResend() bool {
	return s.Snapshot().CanResend
}

// ResendCount returns the number of successful requests in this session
func (s *Session) ResendCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resendCount
}

func (s *Session) resetLocked() {
	s.stopCountdownLocked()
	s.epoch++
	s.otpValue = ""
	s.requestStatus = RequestIdle
	s.requestErr = nil
	s.verifyStatus = VerifyIdle
	s.verifyErr = nil
	s.cooldownRemaining = 0
	s.resendCount = 0
	s.attemptsLeft = s.opts.MaxAttempts
	s.verified = false
	s.codAuthToken = ""
}

func (s *Session) failRequestLocked(otpErr *entity.OTPError) error {
	s.requestStatus = RequestFailed
	s.requestErr = otpErr
	return otpErr
}

func (s *Session) failVerifyLocked(otpErr *entity.OTPError, consumeAttempt bool) error {
	s.verifyStatus = VerifyFailed
	s.verifyErr = otpErr
	if consumeAttempt {
		if otpErr.Code == entity.ErrCodeTooManyAttempts {
			s.attemptsLeft = 0
		} else if s.attemptsLeft > 0 {
			s.attemptsLeft--
		}
	}
	return otpErr
}

func (s *Session) snapshotLocked() State {
	return State{
		Contact:           s.contact,
		Method:            s.method,
		Purpose:           s.purpose,
		OTPValue:          s.otpValue,
		RequestStatus:     s.requestStatus,
		RequestError:      s.requestErr,
		VerifyStatus:      s.verifyStatus,
		VerifyError:       s.verifyErr,
		CooldownRemaining: s.cooldownRemaining,
		ResendCount:       s.resendCount,
		AttemptsLeft:      s.attemptsLeft,
		IsVerified:        s.verified,
		CodAuthToken:      s.codAuthToken,
		CanResend: s.cooldownRemaining == 0 &&
			s.resendCount < s.opts.MaxResends &&
			s.requestStatus != RequestRequesting,
	}
}

// unlockAndEmit releases the lock and publishes the new state
func (s *Session) unlockAndEmit() {
	st := s.snapshotLocked()
	s.mu.Unlock()
	if s.opts.OnChange != nil {
		s.opts.OnChange(st)
	}
}

// startCountdownLocked replaces any running countdown with a fresh one
func (s *Session) startCountdownLocked() {
	s.stopCountdownLocked()

	seconds := int(s.opts.CooldownDuration / time.Second)
	if seconds <= 0 {
		s.cooldownRemaining = 0
		return
	}
	s.cooldownRemaining = seconds

	cd := &countdown{stop: make(chan struct{})}
	s.countdown = cd
	ticker := s.opts.TickerFactory(time.Second)
	go s.runCountdown(ticker, cd)
}

func (s *Session) stopCountdownLocked() {
	if s.countdown != nil {
		close(s.countdown.stop)
		s.countdown = nil
	}
}

func (s *Session) runCountdown(ticker Ticker, cd *countdown) {
	defer ticker.Stop()
	for {
		select {
		case <-cd.stop:
			return
		case <-ticker.C():
			if s.tick(cd) {
				return
			}
		}
	}
}

// tick decrements the cooldown and reports whether the countdown is finished
func (s *Session) tick(cd *countdown) bool {
	s.mu.Lock()
	if s.countdown != cd {
		s.mu.Unlock()
		return true
	}
	if s.cooldownRemaining > 0 {
		s.cooldownRemaining--
	}
	done := s.cooldownRemaining == 0
	if done {
		s.countdown = nil
	}
	s.unlockAndEmit()
	return done
}

func classify(resp *entity.OTPResponse, err error) *entity.OTPError {
	if err != nil {
		var otpErr *entity.OTPError
		if errors.As(err, &otpErr) {
			return otpErr
		}
		return entity.WrapOTPError(entity.ErrCodeNetworkError, err)
	}
	if resp == nil {
		return entity.NewOTPError(entity.ErrCodeUnknownError)
	}
	if resp.Success {
		return nil
	}
	return entity.NewOTPError(resp.Error)
}

func sanitizeCode(value string, length int) string {
	var b strings.Builder
	for _, r := range value {
		if b.Len() >= length {
			break
		}
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return b.String()
}
