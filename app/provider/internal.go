package provider

import (
	"context"

	"github.com/vibast-solutions/ms-go-payment-intake/app/entity"
)

// InternalProvider settles card and cash payments in-house. It approves
// every request synchronously.
type InternalProvider struct{}

func NewInternalProvider() *InternalProvider {
	return &InternalProvider{}
}

func (p *InternalProvider) Code() entity.PaymentProvider {
	return entity.PaymentProviderInternal
}

func (p *InternalProvider) Authorize(context.Context, *AuthorizeInput) (*AuthorizeOutput, error) {
	return &AuthorizeOutput{
		Status:  entity.PaymentStatusApproved,
		Message: "Payment approved",
	}, nil
}
