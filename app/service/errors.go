package service

import "errors"

var (
	ErrInvalidRequest           = errors.New("invalid request")
	ErrOrderNotFound            = errors.New("orderId does not exist")
	ErrInternalMethodNotAllowed = errors.New("method is not allowed for internal payments")
	ErrExternalMethodNotAllowed = errors.New("method is not allowed for external payments")
	ErrPaymentNotFound          = errors.New("payment not found")
	ErrIdempotencyRecordMissing = errors.New("idempotency conflict reported but no payment found for key")
	ErrProviderUnsupported      = errors.New("provider is not supported")
)
