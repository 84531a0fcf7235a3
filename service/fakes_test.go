package service

import (
	"context"
	"sync"
	"time"

	"storefront/config"
	"storefront/entity"
	"storefront/pkg/clock"
	"storefront/repository"
)

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWT{
			Secret:         "test-secret",
			Issuer:         "storefront-cod",
			ExpirationTime: 30 * time.Minute,
		},
		OTP: config.OTP{
			Length:         6,
			ExpirationTime: 5 * time.Minute,
			MaxAttempts:    3,
		},
		RateLimit: config.RateLimit{
			MaxRequests:    3,
			WindowDuration: 10 * time.Minute,
		},
	}
}

type fakeOTPRepo struct {
	mu     sync.Mutex
	otps   []*entity.OTP
	nextID int
	err    error
}

func (f *fakeOTPRepo) Create(ctx context.Context, otp *entity.OTP) (*entity.OTP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	cp := *otp
	cp.ID = f.nextID
	f.otps = append(f.otps, &cp)
	out := cp
	return &out, nil
}

func (f *fakeOTPRepo) GetLatestByContact(ctx context.Context, contact string, method entity.ContactMethod, purpose entity.OTPPurpose) (*entity.OTP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for i := len(f.otps) - 1; i >= 0; i-- {
		o := f.otps[i]
		if o.Contact == contact && o.Method == method && o.Purpose == purpose {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeOTPRepo) IncrementAttempts(ctx context.Context, id int, maxAttempts int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := f.byID(id)
	if o.Attempts >= maxAttempts || o.IsUsed {
		return 0, repository.ErrAttemptsExhausted
	}
	o.Attempts++
	return o.Attempts, nil
}

func (f *fakeOTPRepo) MarkAsUsed(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := f.byID(id)
	if o.IsUsed {
		return repository.ErrOTPAlreadyUsed
	}
	now := time.Now()
	o.IsUsed = true
	o.UsedAt = &now
	return nil
}

func (f *fakeOTPRepo) InvalidateActive(ctx context.Context, contact string, method entity.ContactMethod, purpose entity.OTPPurpose) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, o := range f.otps {
		if o.Contact == contact && o.Method == method && o.Purpose == purpose && !o.IsUsed {
			o.IsUsed = true
			n++
		}
	}
	return n, nil
}

func (f *fakeOTPRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.otps[:0]
	var n int64
	for _, o := range f.otps {
		if o.ExpiresAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, o)
	}
	f.otps = kept
	return n, nil
}

func (f *fakeOTPRepo) byID(id int) *entity.OTP {
	for _, o := range f.otps {
		if o.ID == id {
			return o
		}
	}
	panic("unknown otp id")
}

type fakeContactRepo struct {
	mu       sync.Mutex
	contacts []*entity.VerifiedContact
	listErr  error
}

func (f *fakeContactRepo) Create(ctx context.Context, c *entity.VerifiedContact) (*entity.VerifiedContact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	cp.ID = len(f.contacts) + 1
	cp.VerifyCount = 1
	f.contacts = append(f.contacts, &cp)
	out := cp
	return &out, nil
}

func (f *fakeContactRepo) GetByID(ctx context.Context, id int) (*entity.VerifiedContact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.contacts {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeContactRepo) GetByContact(ctx context.Context, contact string, method entity.ContactMethod) (*entity.VerifiedContact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.contacts {
		if c.Contact == contact && c.Method == method {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeContactRepo) UpdateLastVerified(ctx context.Context, id int) (*entity.VerifiedContact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.contacts {
		if c.ID == id {
			c.VerifyCount++
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeContactRepo) List(ctx context.Context, page, pageSize int, search string) ([]entity.VerifiedContact, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	out := make([]entity.VerifiedContact, 0, len(f.contacts))
	for _, c := range f.contacts {
		out = append(out, *c)
	}
	return out, len(out), nil
}

type fakeRateLimitRepo struct {
	mu      sync.Mutex
	clock   clock.Clock
	window  time.Duration
	records map[string]entity.RateLimitInfo
	err     error
}

func newFakeRateLimitRepo(clk clock.Clock, window time.Duration) *fakeRateLimitRepo {
	return &fakeRateLimitRepo{clock: clk, window: window, records: make(map[string]entity.RateLimitInfo)}
}

// current drops a window that has closed, the way a redis key expires
func (f *fakeRateLimitRepo) current(contact string) entity.RateLimitInfo {
	info, ok := f.records[contact]
	if !ok || !f.clock.Now().Before(info.WindowEndsAt) {
		return entity.RateLimitInfo{Contact: contact}
	}
	return info
}

func (f *fakeRateLimitRepo) GetRateLimit(ctx context.Context, contact string) (*entity.RateLimitInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	info := f.current(contact)
	return &info, nil
}

func (f *fakeRateLimitRepo) ReserveRequest(ctx context.Context, contact string, maxRequests int) (*entity.RateLimitInfo, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, false, f.err
	}
	info := f.current(contact)
	if info.RequestCount >= maxRequests {
		return &info, false, nil
	}
	if info.RequestCount == 0 {
		info.WindowStartAt = f.clock.Now()
		info.WindowEndsAt = info.WindowStartAt.Add(f.window)
	}
	info.RequestCount++
	f.records[contact] = info
	return &info, true, nil
}

func (f *fakeRateLimitRepo) CleanupRateLimits(ctx context.Context) (int, error) {
	return 0, nil
}

type sentCode struct {
	contact string
	method  entity.ContactMethod
	code    string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentCode
	err  error
}

func (f *fakeNotifier) SendOTP(ctx context.Context, contact string, method entity.ContactMethod, code string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentCode{contact: contact, method: method, code: code})
	return nil
}

func (f *fakeNotifier) last() sentCode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

type memoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]TokenInfo
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{tokens: make(map[string]TokenInfo)}
}

func (m *memoryTokenStore) StoreToken(ctx context.Context, tokenHash string, info *TokenInfo, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[tokenHash] = *info
	return nil
}

func (m *memoryTokenStore) ValidateToken(ctx context.Context, tokenHash string) (*TokenInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.tokens[tokenHash]
	if !ok {
		return nil, ErrTokenNotFound
	}
	return &info, nil
}

func (m *memoryTokenStore) ConsumeToken(ctx context.Context, tokenHash string) (*TokenInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.tokens[tokenHash]
	if !ok {
		return nil, ErrTokenNotFound
	}
	delete(m.tokens, tokenHash)
	return &info, nil
}


type fakeDiscountRepo struct {
	checkoutRules    []entity.CheckoutDiscountRule
	productDiscounts []entity.ProductDiscount
	err              error
	checkoutCalls    int
	savedCheckout    *entity.CheckoutDiscountRule
	savedProduct     *entity.ProductDiscount
}

func (f *fakeDiscountRepo) GetActiveCheckoutRules(ctx context.Context) ([]entity.CheckoutDiscountRule, error) {
	f.checkoutCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.checkoutRules, nil
}

func (f *fakeDiscountRepo) GetActiveProductDiscounts(ctx context.Context, productIDs []string) ([]entity.ProductDiscount, error) {
	if f.err != nil {
		return nil, f.err
	}
	wanted := make(map[string]bool, len(productIDs))
	for _, id := range productIDs {
		wanted[id] = true
	}
	var out []entity.ProductDiscount
	for _, d := range f.productDiscounts {
		if wanted[d.ProductID] {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDiscountRepo) UpsertCheckoutRule(ctx context.Context, rule *entity.CheckoutDiscountRule) (*entity.CheckoutDiscountRule, error) {
	if f.err != nil {
		return nil, f.err
	}
	cp := *rule
	f.savedCheckout = &cp
	return &cp, nil
}

func (f *fakeDiscountRepo) UpsertProductDiscount(ctx context.Context, d *entity.ProductDiscount) (*entity.ProductDiscount, error) {
	if f.err != nil {
		return nil, f.err
	}
	cp := *d
	f.savedProduct = &cp
	return &cp, nil
}

func (f *fakeDiscountRepo) ListCheckoutRules(ctx context.Context) ([]entity.CheckoutDiscountRule, error) {
	return f.checkoutRules, f.err
}

func (f *fakeDiscountRepo) ListProductDiscounts(ctx context.Context, productID string) ([]entity.ProductDiscount, error) {
	return f.productDiscounts, f.err
}

type fakeDiscountCache struct {
	rules       []entity.CheckoutDiscountRule
	hit         bool
	invalidated int
}

func (f *fakeDiscountCache) GetActiveCheckoutRules(ctx context.Context) ([]entity.CheckoutDiscountRule, bool, error) {
	return f.rules, f.hit, nil
}

func (f *fakeDiscountCache) SetActiveCheckoutRules(ctx context.Context, rules []entity.CheckoutDiscountRule) error {
	f.rules = rules
	f.hit = true
	return nil
}

func (f *fakeDiscountCache) Invalidate(ctx context.Context) error {
	f.invalidated++
	f.rules = nil
	f.hit = false
	return nil
}
