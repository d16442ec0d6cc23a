package provider

import (
	"errors"

	"github.com/vibast-solutions/ms-go-payment-intake/app/entity"
)

var ErrProviderNotSupported = errors.New("provider is not supported")

type Registry struct {
	providers map[entity.PaymentProvider]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	items := make(map[entity.PaymentProvider]Provider, len(providers))
	for _, p := range providers {
		items[p.Code()] = p
	}
	return &Registry{providers: items}
}

func (r *Registry) Get(code entity.PaymentProvider) (Provider, error) {
	provider, ok := r.providers[code]
	if !ok {
		return nil, ErrProviderNotSupported
	}
	return provider, nil
}
