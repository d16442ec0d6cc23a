package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodPayPal PaymentMethod = "paypal"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodCash, PaymentMethodPayPal:
		return true
	default:
		return false
	}
}

// Provider returns the provider that settles payments made with m.
func (m PaymentMethod) Provider() PaymentProvider {
	if m == PaymentMethodPayPal {
		return PaymentProviderPayPal
	}
	return PaymentProviderInternal
}

type PaymentStatus string

const (
	PaymentStatusCreated  PaymentStatus = "created"
	PaymentStatusApproved PaymentStatus = "approved"
	PaymentStatusDeclined PaymentStatus = "declined"
	PaymentStatusFailed   PaymentStatus = "failed"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusCreated, PaymentStatusApproved, PaymentStatusDeclined, PaymentStatusFailed:
		return true
	default:
		return false
	}
}

type PaymentProvider string

const (
	PaymentProviderInternal PaymentProvider = "internal"
	PaymentProviderPayPal   PaymentProvider = "paypal"
)

func (p PaymentProvider) Valid() bool {
	return p == PaymentProviderInternal || p == PaymentProviderPayPal
}

type Payment struct {
	ID string

	OrderID string

	Amount   decimal.Decimal
	Currency string

	Method   PaymentMethod
	Status   PaymentStatus
	Provider PaymentProvider

	ProviderReference *string

	IdempotencyKey string

	Message *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
