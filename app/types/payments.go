package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ErrorKindBadRequest          = "BadRequest"
	ErrorKindNotFound            = "NotFound"
	ErrorKindInternalServerError = "InternalServerError"
	ErrorKindBadGateway          = "BadGateway"
)

var ErrIdempotencyKeyRequired = errors.New("Idempotency-Key header is required")

// maxAmountScale and maxAmount bound what both storage backends hold exactly.
const maxAmountScale = 8

var maxAmount = decimal.New(1, 12)

type CreatePaymentRequest struct {
	IdempotencyKey string          `json:"-"`
	OrderID        string          `json:"orderId"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Method         string          `json:"method"`
	Provider       string          `json:"provider"`
}

func (r *CreatePaymentRequest) GetIdempotencyKey() string  { return r.IdempotencyKey }
func (r *CreatePaymentRequest) GetOrderID() string         { return r.OrderID }
func (r *CreatePaymentRequest) GetAmount() decimal.Decimal { return r.Amount }
func (r *CreatePaymentRequest) GetCurrency() string        { return r.Currency }
func (r *CreatePaymentRequest) GetMethod() string          { return r.Method }
func (r *CreatePaymentRequest) GetProvider() string        { return r.Provider }

// NewCreatePaymentRequestFromContext reads the idempotency key before the
// body so a missing header is always reported first. Bodies that are not
// JSON are treated as empty. Field values are kept as sent.
func NewCreatePaymentRequestFromContext(ctx echo.Context) (*CreatePaymentRequest, error) {
	key := strings.TrimSpace(ctx.Request().Header.Get(HeaderIdempotencyKey))
	if key == "" {
		return nil, ErrIdempotencyKeyRequired
	}

	var body CreatePaymentRequest
	if isJSONContent(ctx.Request().Header.Get(echo.HeaderContentType)) {
		if err := ctx.Bind(&body); err != nil {
			return nil, err
		}
	}

	body.IdempotencyKey = key
	body.Currency = strings.ToUpper(body.Currency)

	return &body, nil
}

// Validate checks the payload shape shared by every intake path. Order
// existence and method rules are path specific and live in the service.
func (r *CreatePaymentRequest) Validate() error {
	if strings.TrimSpace(r.GetIdempotencyKey()) == "" {
		return ErrIdempotencyKeyRequired
	}
	if r.GetOrderID() == "" {
		return errors.New("orderId is required")
	}
	if err := validateAmount(r.GetAmount()); err != nil {
		return err
	}
	if !isCurrencyCode(r.GetCurrency()) {
		return errors.New("currency must be a 3-letter code")
	}
	return nil
}

type GetPaymentRequest struct {
	PaymentID string
}

func (r *GetPaymentRequest) GetPaymentID() string { return r.PaymentID }

func NewGetPaymentRequestFromContext(ctx echo.Context) (*GetPaymentRequest, error) {
	return &GetPaymentRequest{PaymentID: strings.TrimSpace(ctx.Param("paymentId"))}, nil
}

func (r *GetPaymentRequest) Validate() error {
	if r.GetPaymentID() == "" {
		return errors.New("paymentId is required")
	}
	return nil
}

type Payment struct {
	ID                string  `json:"id"`
	OrderID           string  `json:"orderId"`
	Amount            float64 `json:"amount"`
	Currency          string  `json:"currency"`
	Method            string  `json:"method"`
	Status            string  `json:"status"`
	Provider          string  `json:"provider"`
	ProviderReference *string `json:"providerReference"`
	IdempotencyKey    string  `json:"idempotencyKey"`
	Message           *string `json:"message"`
	CreatedAt         string  `json:"createdAt"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

// validateAmount rejects values that would not survive storage and the
// float64 JSON projection unchanged.
func validateAmount(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return errors.New("amount must be greater than 0")
	}
	if f, _ := amount.Float64(); f <= 0 {
		return errors.New("amount must be greater than 0")
	}
	if amount.Cmp(maxAmount) >= 0 {
		return fmt.Errorf("amount must be less than %s", maxAmount.String())
	}
	if !amount.Equal(amount.Round(maxAmountScale)) {
		return fmt.Errorf("amount must have at most %d decimal places", maxAmountScale)
	}
	return nil
}

func isJSONContent(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), echo.MIMEApplicationJSON)
}

func isCurrencyCode(v string) bool {
	if len(v) != 3 {
		return false
	}
	for i := 0; i < len(v); i++ {
		c := v[i]
		if (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') {
			return false
		}
	}
	return true
}
