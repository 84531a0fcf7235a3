package controller

import (
	"context"
	"net/http/httptest"
	"strings"
	"time"

	"storefront/discount"
	"storefront/entity"
	"storefront/service"

	"github.com/labstack/echo/v4"
)

func newJSONContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

type fakeOTPService struct {
	requestResp *entity.OTPResponse
	verifyResp  *entity.OTPResponse
	err         error
	calls       int
}

func (f *fakeOTPService) RequestOTP(ctx context.Context, req *entity.RequestOTPRequest) (*entity.OTPResponse, error) {
	f.calls++
	return f.requestResp, f.err
}

func (f *fakeOTPService) VerifyOTP(ctx context.Context, req *entity.VerifyOTPRequest) (*entity.OTPResponse, error) {
	f.calls++
	return f.verifyResp, f.err
}

func (f *fakeOTPService) CleanupExpiredOTPs(ctx context.Context) error {
	return nil
}

type fakeJWTService struct {
	claims   *service.CODClaims
	err      error
	redeemed []string
}

func (f *fakeJWTService) GenerateCODToken(ctx context.Context, contact string, method entity.ContactMethod, purpose entity.OTPPurpose) (string, time.Time, error) {
	return "token", time.Now().Add(time.Minute), nil
}

func (f *fakeJWTService) ValidateCODToken(ctx context.Context, tokenString string) (*service.CODClaims, error) {
	return f.claims, f.err
}

func (f *fakeJWTService) RedeemCODToken(ctx context.Context, tokenString string) (*service.CODClaims, error) {
	f.redeemed = append(f.redeemed, tokenString)
	return f.claims, f.err
}

type fakeContactService struct {
	contact  *entity.ContactResponse
	list     *entity.ContactsListResponse
	err      error
	lastPage int
	lastSize int
}

func (f *fakeContactService) GetByID(ctx context.Context, id int) (*entity.ContactResponse, error) {
	return f.contact, f.err
}

func (f *fakeContactService) GetList(ctx context.Context, page, pageSize int, search string) (*entity.ContactsListResponse, error) {
	f.lastPage, f.lastSize = page, pageSize
	return f.list, f.err
}

type fakeDiscountService struct {
	checkout  *discount.CheckoutRule
	quote     *entity.QuoteResponse
	savedRule *entity.CheckoutDiscountRule
	saved     *entity.ProductDiscount
	err       error
	productID string
	lastRule  *entity.UpsertCheckoutRuleRequest
}

func (f *fakeDiscountService) GetActiveCheckoutRule(ctx context.Context) *discount.CheckoutRule {
	return f.checkout
}

func (f *fakeDiscountService) GetActiveProductDiscounts(ctx context.Context, productIDs []string) map[string]*discount.ProductRule {
	return map[string]*discount.ProductRule{}
}

func (f *fakeDiscountService) UpsertCheckoutRule(ctx context.Context, req *entity.UpsertCheckoutRuleRequest) (*entity.CheckoutDiscountRule, error) {
	f.lastRule = req
	return f.savedRule, f.err
}

func (f *fakeDiscountService) UpsertProductDiscount(ctx context.Context, req *entity.UpsertProductDiscountRequest) (*entity.ProductDiscount, error) {
	return f.saved, f.err
}

func (f *fakeDiscountService) ListCheckoutRules(ctx context.Context) ([]entity.CheckoutDiscountRule, error) {
	return []entity.CheckoutDiscountRule{}, f.err
}

func (f *fakeDiscountService) ListProductDiscounts(ctx context.Context, productID string) ([]entity.ProductDiscount, error) {
	f.productID = productID
	return []entity.ProductDiscount{}, f.err
}

func (f *fakeDiscountService) Quote(ctx context.Context, req *entity.QuoteRequest) (*entity.QuoteResponse, error) {
	return f.quote, f.err
}
