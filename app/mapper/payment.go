package mapper

import (
	"github.com/vibast-solutions/ms-go-payment-intake/app/entity"
	"github.com/vibast-solutions/ms-go-payment-intake/app/types"
)

const createdAtLayout = "2006-01-02T15:04:05.000Z07:00"

func PaymentToResponse(item *entity.Payment) *types.Payment {
	if item == nil {
		return nil
	}

	return &types.Payment{
		ID:                item.ID,
		OrderID:           item.OrderID,
		Amount:            item.Amount.InexactFloat64(),
		Currency:          item.Currency,
		Method:            string(item.Method),
		Status:            string(item.Status),
		Provider:          string(item.Provider),
		ProviderReference: cloneString(item.ProviderReference),
		IdempotencyKey:    item.IdempotencyKey,
		Message:           cloneString(item.Message),
		CreatedAt:         item.CreatedAt.UTC().Format(createdAtLayout),
	}
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	s := *v
	return &s
}
