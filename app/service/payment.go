package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-payment-intake/app/entity"
	"github.com/vibast-solutions/ms-go-payment-intake/app/provider"
	"github.com/vibast-solutions/ms-go-payment-intake/app/repository"
)

type createPaymentRequest interface {
	GetIdempotencyKey() string
	GetOrderID() string
	GetAmount() decimal.Decimal
	GetCurrency() string
	GetMethod() string
	GetProvider() string
}

type paymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	FindByID(ctx context.Context, id string) (*entity.Payment, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*entity.Payment, error)
	Ping(ctx context.Context) error
}

type orderDirectory interface {
	Exists(ctx context.Context, orderID string) (bool, error)
}

type PaymentService struct {
	paymentRepo paymentRepository
	orders      orderDirectory
	providerReg *provider.Registry
	now         func() time.Time
}

func NewPaymentService(
	paymentRepo paymentRepository,
	orders orderDirectory,
	providerReg *provider.Registry,
) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		orders:      orders,
		providerReg: providerReg,
		now:         time.Now,
	}
}

// CreateInternalPayment records a card or cash payment. The boolean result
// is false when the payment already existed for the idempotency key.
func (s *PaymentService) CreateInternalPayment(ctx context.Context, req createPaymentRequest) (*entity.Payment, bool, error) {
	if err := s.checkOrder(ctx, req.GetOrderID()); err != nil {
		return nil, false, err
	}

	method := entity.PaymentMethod(req.GetMethod())
	if method != entity.PaymentMethodCard && method != entity.PaymentMethodCash {
		return nil, false, ErrInternalMethodNotAllowed
	}

	return s.createIdempotent(ctx, req, method)
}

// CreateExternalPayment records a payment settled by the PayPal provider.
// Both method and provider must name paypal.
func (s *PaymentService) CreateExternalPayment(ctx context.Context, req createPaymentRequest) (*entity.Payment, bool, error) {
	if err := s.checkOrder(ctx, req.GetOrderID()); err != nil {
		return nil, false, err
	}

	method := entity.PaymentMethod(req.GetMethod())
	if method != entity.PaymentMethodPayPal || entity.PaymentProvider(req.GetProvider()) != entity.PaymentProviderPayPal {
		return nil, false, ErrExternalMethodNotAllowed
	}

	return s.createIdempotent(ctx, req, method)
}

func (s *PaymentService) GetPayment(ctx context.Context, id string) (*entity.Payment, error) {
	payment, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidPaymentID) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}

func (s *PaymentService) Ping(ctx context.Context) error {
	return s.paymentRepo.Ping(ctx)
}

func (s *PaymentService) checkOrder(ctx context.Context, orderID string) error {
	exists, err := s.orders.Exists(ctx, orderID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrOrderNotFound
	}
	return nil
}

func (s *PaymentService) createIdempotent(ctx context.Context, req createPaymentRequest, method entity.PaymentMethod) (*entity.Payment, bool, error) {
	key := strings.TrimSpace(req.GetIdempotencyKey())
	if key == "" {
		return nil, false, ErrInvalidRequest
	}

	existing, err := s.paymentRepo.FindByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	providerClient, err := s.providerReg.Get(method.Provider())
	if err != nil {
		if errors.Is(err, provider.ErrProviderNotSupported) {
			return nil, false, ErrProviderUnsupported
		}
		return nil, false, err
	}

	currency := strings.ToUpper(strings.TrimSpace(req.GetCurrency()))
	output, err := providerClient.Authorize(ctx, &provider.AuthorizeInput{
		OrderID:        req.GetOrderID(),
		Amount:         req.GetAmount(),
		Currency:       currency,
		Method:         method,
		IdempotencyKey: key,
	})
	if err != nil {
		return nil, false, fmt.Errorf("authorize with %s: %w", providerClient.Code(), err)
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	payment := &entity.Payment{
		OrderID:           req.GetOrderID(),
		Amount:            req.GetAmount(),
		Currency:          currency,
		Method:            method,
		Status:            output.Status,
		Provider:          providerClient.Code(),
		ProviderReference: output.ProviderReference,
		IdempotencyKey:    key,
		Message:           normalizeOptionalString(output.Message),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err = s.paymentRepo.Create(ctx, payment)
	switch {
	case err == nil:
		return payment, true, nil
	case errors.Is(err, repository.ErrPaymentAlreadyExists):
		return s.resolveConflict(ctx, key)
	default:
		return nil, false, err
	}
}

// resolveConflict handles a concurrent insert that won the unique index on
// the idempotency key: the stored payment is the answer for every caller.
func (s *PaymentService) resolveConflict(ctx context.Context, key string) (*entity.Payment, bool, error) {
	existing, err := s.paymentRepo.FindByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, ErrIdempotencyRecordMissing
	}
	return existing, false, nil
}

func normalizeOptionalString(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
