package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vibast-solutions/ms-go-payment-intake/app/entity"
)

type PayPalConfig struct {
	ReferencePrefix  string
	SimulateFailure  bool
	SimulatedLatency time.Duration
}

// PayPalProvider simulates a PayPal authorization. No network call is made;
// failures and latency are injected from configuration.
type PayPalProvider struct {
	cfg PayPalConfig
}

func NewPayPalProvider(cfg PayPalConfig) *PayPalProvider {
	cfg.ReferencePrefix = strings.TrimSpace(cfg.ReferencePrefix)
	if cfg.ReferencePrefix == "" {
		cfg.ReferencePrefix = "PAYPAL"
	}
	return &PayPalProvider{cfg: cfg}
}

func (p *PayPalProvider) Code() entity.PaymentProvider {
	return entity.PaymentProviderPayPal
}

func (p *PayPalProvider) Authorize(ctx context.Context, _ *AuthorizeInput) (*AuthorizeOutput, error) {
	if p.cfg.SimulatedLatency > 0 {
		timer := time.NewTimer(p.cfg.SimulatedLatency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, ctx.Err())
		case <-timer.C:
		}
	}

	if p.cfg.SimulateFailure {
		return nil, fmt.Errorf("%w: simulated paypal outage", ErrProviderUnavailable)
	}

	reference := p.cfg.ReferencePrefix + "-" + strings.ToUpper(uuid.NewString())
	return &AuthorizeOutput{
		Status:            entity.PaymentStatusApproved,
		ProviderReference: &reference,
		Message:           "Approved by PayPal",
	}, nil
}
