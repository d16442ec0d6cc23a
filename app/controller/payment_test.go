package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/vibast-solutions/ms-go-payment-intake/app/entity"
	"github.com/vibast-solutions/ms-go-payment-intake/app/provider"
	"github.com/vibast-solutions/ms-go-payment-intake/app/repository"
	"github.com/vibast-solutions/ms-go-payment-intake/app/service"
	"github.com/vibast-solutions/ms-go-payment-intake/app/types"
)

type controllerPaymentRepo struct {
	mu       sync.Mutex
	payments map[string]*entity.Payment
	createFn func(ctx context.Context, payment *entity.Payment) error
	findFn   func(ctx context.Context, id string) (*entity.Payment, error)
	pingErr  error
}

func newControllerPaymentRepo() *controllerPaymentRepo {
	return &controllerPaymentRepo{payments: map[string]*entity.Payment{}}
}

func (r *controllerPaymentRepo) Create(ctx context.Context, payment *entity.Payment) error {
	if r.createFn != nil {
		return r.createFn(ctx, payment)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.payments {
		if item.IdempotencyKey == payment.IdempotencyKey {
			return repository.ErrPaymentAlreadyExists
		}
	}
	payment.ID = repository.NewPaymentID()
	copyItem := *payment
	r.payments[payment.ID] = &copyItem
	return nil
}

func (r *controllerPaymentRepo) FindByID(ctx context.Context, id string) (*entity.Payment, error) {
	if r.findFn != nil {
		return r.findFn(ctx, id)
	}
	if !repository.IsValidPaymentID(id) {
		return nil, repository.ErrInvalidPaymentID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.payments[id]
	if !ok {
		return nil, nil
	}
	copyItem := *item
	return &copyItem, nil
}

func (r *controllerPaymentRepo) FindByIdempotencyKey(_ context.Context, key string) (*entity.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.payments {
		if item.IdempotencyKey == key {
			copyItem := *item
			return &copyItem, nil
		}
	}
	return nil, nil
}

func (r *controllerPaymentRepo) Ping(context.Context) error {
	return r.pingErr
}

func newControllerForTest(repo *controllerPaymentRepo, paypal provider.PayPalConfig) *PaymentController {
	paymentService := service.NewPaymentService(
		repo,
		service.NewPrefixOrderDirectory("ord_"),
		provider.NewRegistry(provider.NewInternalProvider(), provider.NewPayPalProvider(paypal)),
	)
	return NewPaymentController(paymentService)
}

func newJSONContext(method, path, body, idempotencyKey string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if idempotencyKey != "" {
		req.Header.Set(types.HeaderIdempotencyKey, idempotencyKey)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodePayment(t *testing.T, rec *httptest.ResponseRecorder) types.Payment {
	t.Helper()
	var payload types.Payment
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal failed: %v body=%s", err, rec.Body.String())
	}
	return payload
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) types.ErrorResponse {
	t.Helper()
	var payload types.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal failed: %v body=%s", err, rec.Body.String())
	}
	return payload
}

const internalBody = `{"orderId":"ord_1","amount":250,"method":"card","currency":"usd"}`
const externalBody = `{"orderId":"ord_1","amount":"80.10","method":"paypal","currency":"EUR","provider":"paypal"}`

func TestCreatePaymentSuccess(t *testing.T) {
	ctrl := newControllerForTest(newControllerPaymentRepo(), provider.PayPalConfig{})
	ctx, rec := newJSONContext(http.MethodPost, "/api/payments", internalBody, "key-1")

	if err := ctrl.CreatePayment(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}

	payload := decodePayment(t, rec)
	if payload.Status != "approved" || payload.Provider != "internal" || payload.ProviderReference != nil {
		t.Fatalf("unexpected payment payload: %+v", payload)
	}
	if payload.Currency != "USD" || payload.Amount != 250 || payload.IdempotencyKey != "key-1" {
		t.Fatalf("unexpected payment payload: %+v", payload)
	}
	if payload.Message == nil || *payload.Message != "Payment approved" {
		t.Fatalf("unexpected message: %v", payload.Message)
	}
}

func TestCreatePaymentReplayReturnsSamePayment(t *testing.T) {
	ctrl := newControllerForTest(newControllerPaymentRepo(), provider.PayPalConfig{})

	ctx, first := newJSONContext(http.MethodPost, "/api/payments", internalBody, "key-1")
	_ = ctrl.CreatePayment(ctx)
	ctx, second := newJSONContext(http.MethodPost, "/api/payments", internalBody, "key-1")
	_ = ctrl.CreatePayment(ctx)

	if first.Code != http.StatusCreated || second.Code != http.StatusOK {
		t.Fatalf("expected 201 then 200, got %d then %d", first.Code, second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("expected identical bodies:\n%s\n%s", first.Body.String(), second.Body.String())
	}
}

func TestCreatePaymentValidationErrors(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		key    string
		status int
		kind   string
		msg    string
	}{
		{"missing key", internalBody, "", http.StatusBadRequest, "BadRequest", "Idempotency-Key header is required"},
		{"bad body", "{bad", "key-1", http.StatusBadRequest, "BadRequest", "invalid request body"},
		{"missing order", `{"amount":1,"method":"card","currency":"USD"}`, "key-1", http.StatusBadRequest, "BadRequest", "orderId is required"},
		{"zero amount", `{"orderId":"ord_1","amount":0,"method":"card","currency":"USD"}`, "key-1", http.StatusBadRequest, "BadRequest", "amount must be greater than 0"},
		{"negative amount", `{"orderId":"ord_1","amount":-3,"method":"card","currency":"USD"}`, "key-1", http.StatusBadRequest, "BadRequest", "amount must be greater than 0"},
		{"short currency", `{"orderId":"ord_1","amount":1,"method":"card","currency":"US"}`, "key-1", http.StatusBadRequest, "BadRequest", "currency must be a 3-letter code"},
		{"padded currency", `{"orderId":"ord_1","amount":1,"method":"card","currency":" usd"}`, "key-1", http.StatusBadRequest, "BadRequest", "currency must be a 3-letter code"},
		{"amount below float range", `{"orderId":"ord_1","amount":1e-400,"method":"card","currency":"USD"}`, "key-1", http.StatusBadRequest, "BadRequest", "amount must be greater than 0"},
		{"amount above float range", `{"orderId":"ord_1","amount":1e400,"method":"card","currency":"USD"}`, "key-1", http.StatusBadRequest, "BadRequest", "amount must be less than 1000000000000"},
		{"amount too precise", `{"orderId":"ord_1","amount":0.123456789,"method":"card","currency":"USD"}`, "key-1", http.StatusBadRequest, "BadRequest", "amount must have at most 8 decimal places"},
		{"padded order", `{"orderId":" ord_1","amount":1,"method":"card","currency":"USD"}`, "key-1", http.StatusNotFound, "NotFound", "orderId does not exist"},
		{"unknown order", `{"orderId":"xyz123","amount":1,"method":"card","currency":"USD"}`, "key-1", http.StatusNotFound, "NotFound", "orderId does not exist"},
		{"paypal on internal", `{"orderId":"ord_1","amount":1,"method":"paypal","currency":"USD"}`, "key-1", http.StatusBadRequest, "BadRequest", "method is not allowed for internal payments"},
	}

	for _, tc := range cases {
		repo := newControllerPaymentRepo()
		ctrl := newControllerForTest(repo, provider.PayPalConfig{})
		ctx, rec := newJSONContext(http.MethodPost, "/api/payments", tc.body, tc.key)

		_ = ctrl.CreatePayment(ctx)
		if rec.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d body=%s", tc.name, tc.status, rec.Code, rec.Body.String())
		}
		payload := decodeError(t, rec)
		if payload.Error != tc.kind || payload.Message != tc.msg {
			t.Fatalf("%s: unexpected error payload %+v", tc.name, payload)
		}
		if len(repo.payments) != 0 {
			t.Fatalf("%s: expected nothing persisted", tc.name)
		}
	}
}

func TestCreatePaymentWithoutJSONContentType(t *testing.T) {
	repo := newControllerPaymentRepo()
	ctrl := newControllerForTest(repo, provider.PayPalConfig{})
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/payments", bytes.NewBufferString(internalBody))
	req.Header.Set(types.HeaderIdempotencyKey, "key-1")
	rec := httptest.NewRecorder()

	_ = ctrl.CreatePayment(e.NewContext(req, rec))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if payload := decodeError(t, rec); payload.Message != "orderId is required" {
		t.Fatalf("unexpected error payload %+v", payload)
	}
}

func TestCreatePaymentAmountRoundTrip(t *testing.T) {
	ctrl := newControllerForTest(newControllerPaymentRepo(), provider.PayPalConfig{})
	body := `{"orderId":"ord_1","amount":999999999999.99999999,"method":"card","currency":"USD"}`
	ctx, created := newJSONContext(http.MethodPost, "/api/payments", body, "key-max")

	_ = ctrl.CreatePayment(ctx)
	if created.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", created.Code, created.Body.String())
	}
	payload := decodePayment(t, created)
	if payload.Amount <= 0 {
		t.Fatalf("expected positive amount, got %v", payload.Amount)
	}

	getCtx, rec := newGetContext(payload.ID)
	_ = ctrl.GetPayment(getCtx)
	if rec.Body.String() != created.Body.String() {
		t.Fatalf("expected lookup to match creation:\n%s\n%s", rec.Body.String(), created.Body.String())
	}
}

func TestCreatePaymentStorageFailure(t *testing.T) {
	repo := newControllerPaymentRepo()
	repo.createFn = func(context.Context, *entity.Payment) error { return errors.New("connection reset") }
	ctrl := newControllerForTest(repo, provider.PayPalConfig{})
	ctx, rec := newJSONContext(http.MethodPost, "/api/payments", internalBody, "key-1")

	_ = ctrl.CreatePayment(ctx)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if payload := decodeError(t, rec); payload.Error != "InternalServerError" || payload.Message != "Unexpected error" {
		t.Fatalf("unexpected error payload %+v", payload)
	}
}

func TestCreatePaymentConflictWithoutRecordIsInternalError(t *testing.T) {
	repo := newControllerPaymentRepo()
	repo.createFn = func(context.Context, *entity.Payment) error { return repository.ErrPaymentAlreadyExists }
	ctrl := newControllerForTest(repo, provider.PayPalConfig{})
	ctx, rec := newJSONContext(http.MethodPost, "/api/payments", internalBody, "key-1")

	_ = ctrl.CreatePayment(ctx)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestCreateExternalPaymentSuccess(t *testing.T) {
	ctrl := newControllerForTest(newControllerPaymentRepo(), provider.PayPalConfig{})

	ctx, first := newJSONContext(http.MethodPost, "/api/payments/external", externalBody, "key-ext")
	_ = ctrl.CreateExternalPayment(ctx)
	ctx, second := newJSONContext(http.MethodPost, "/api/payments/external", externalBody, "key-ext")
	_ = ctrl.CreateExternalPayment(ctx)

	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("expected 200 twice, got %d and %d", first.Code, second.Code)
	}
	payload := decodePayment(t, first)
	if payload.ProviderReference == nil || payload.Provider != "paypal" || payload.Method != "paypal" {
		t.Fatalf("unexpected payment payload: %+v", payload)
	}
	if payload.Message == nil || *payload.Message != "Approved by PayPal" {
		t.Fatalf("unexpected message: %v", payload.Message)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("expected identical bodies:\n%s\n%s", first.Body.String(), second.Body.String())
	}
}

func TestCreateExternalPaymentValidationErrors(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		key    string
		status int
		msg    string
	}{
		{"missing key", externalBody, "", http.StatusBadRequest, "Idempotency-Key header is required"},
		{"zero amount", `{"orderId":"ord_1","amount":0,"method":"paypal","currency":"USD","provider":"paypal"}`, "key-1", http.StatusBadRequest, "amount must be greater than 0"},
		{"cash", `{"orderId":"ord_1","amount":5,"method":"cash","currency":"USD","provider":"paypal"}`, "key-1", http.StatusBadRequest, "method is not allowed for external payments"},
		{"provider mismatch", `{"orderId":"ord_1","amount":5,"method":"paypal","currency":"USD","provider":"internal"}`, "key-1", http.StatusBadRequest, "method is not allowed for external payments"},
		{"unknown order", `{"orderId":"xyz123","amount":5,"method":"paypal","currency":"USD","provider":"paypal"}`, "key-1", http.StatusNotFound, "orderId does not exist"},
	}

	for _, tc := range cases {
		ctrl := newControllerForTest(newControllerPaymentRepo(), provider.PayPalConfig{})
		ctx, rec := newJSONContext(http.MethodPost, "/api/payments/external", tc.body, tc.key)

		_ = ctrl.CreateExternalPayment(ctx)
		if rec.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d body=%s", tc.name, tc.status, rec.Code, rec.Body.String())
		}
		if payload := decodeError(t, rec); payload.Message != tc.msg {
			t.Fatalf("%s: unexpected error payload %+v", tc.name, payload)
		}
	}
}

func TestCreateExternalPaymentProviderFailureIsBadGateway(t *testing.T) {
	ctrl := newControllerForTest(newControllerPaymentRepo(), provider.PayPalConfig{SimulateFailure: true})
	ctx, rec := newJSONContext(http.MethodPost, "/api/payments/external", externalBody, "key-1")

	_ = ctrl.CreateExternalPayment(ctx)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if payload := decodeError(t, rec); payload.Error != "BadGateway" || payload.Message != "unable to communicate with PayPal" {
		t.Fatalf("unexpected error payload %+v", payload)
	}
}

func TestCreateExternalPaymentStorageFailureIsBadGateway(t *testing.T) {
	repo := newControllerPaymentRepo()
	repo.createFn = func(context.Context, *entity.Payment) error { return errors.New("connection reset") }
	ctrl := newControllerForTest(repo, provider.PayPalConfig{})
	ctx, rec := newJSONContext(http.MethodPost, "/api/payments/external", externalBody, "key-1")

	_ = ctrl.CreateExternalPayment(ctx)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func newGetContext(id string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/payments/"+id, nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("paymentId")
	ctx.SetParamValues(id)
	return ctx, rec
}

func TestGetPaymentRoundTrip(t *testing.T) {
	ctrl := newControllerForTest(newControllerPaymentRepo(), provider.PayPalConfig{})
	ctx, created := newJSONContext(http.MethodPost, "/api/payments/external", externalBody, "key-1")
	_ = ctrl.CreateExternalPayment(ctx)
	payload := decodePayment(t, created)

	getCtx, rec := newGetContext(payload.ID)
	_ = ctrl.GetPayment(getCtx)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != created.Body.String() {
		t.Fatalf("expected lookup to match creation:\n%s\n%s", rec.Body.String(), created.Body.String())
	}
}

func TestGetPaymentNotFound(t *testing.T) {
	ctrl := newControllerForTest(newControllerPaymentRepo(), provider.PayPalConfig{})

	for _, id := range []string{repository.NewPaymentID(), "not-a-valid-id"} {
		ctx, rec := newGetContext(id)
		_ = ctrl.GetPayment(ctx)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("id %q: expected 404, got %d", id, rec.Code)
		}
		if payload := decodeError(t, rec); payload.Error != "NotFound" || payload.Message != "paymentId does not exist" {
			t.Fatalf("unexpected error payload %+v", payload)
		}
	}
}

func TestGetPaymentMissingID(t *testing.T) {
	ctrl := newControllerForTest(newControllerPaymentRepo(), provider.PayPalConfig{})
	ctx, rec := newGetContext("")

	_ = ctrl.GetPayment(ctx)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetPaymentStorageFailure(t *testing.T) {
	repo := newControllerPaymentRepo()
	repo.findFn = func(context.Context, string) (*entity.Payment, error) { return nil, errors.New("timeout") }
	ctrl := newControllerForTest(repo, provider.PayPalConfig{})
	ctx, rec := newGetContext(repository.NewPaymentID())

	_ = ctrl.GetPayment(ctx)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	repo := newControllerPaymentRepo()
	ctrl := newControllerForTest(repo, provider.PayPalConfig{})

	ctx, rec := newJSONContext(http.MethodGet, "/health", "", "")
	_ = ctrl.Health(ctx)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	repo.pingErr = errors.New("no reachable servers")
	ctx, rec = newJSONContext(http.MethodGet, "/health", "", "")
	_ = ctrl.Health(ctx)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
