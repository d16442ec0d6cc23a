package provider

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-payment-intake/app/entity"
)

var ErrProviderUnavailable = errors.New("provider is unavailable")

type AuthorizeInput struct {
	OrderID        string
	Amount         decimal.Decimal
	Currency       string
	Method         entity.PaymentMethod
	IdempotencyKey string
}

type AuthorizeOutput struct {
	Status            entity.PaymentStatus
	ProviderReference *string
	Message           string
}

type Provider interface {
	Code() entity.PaymentProvider
	Authorize(ctx context.Context, input *AuthorizeInput) (*AuthorizeOutput, error)
}
