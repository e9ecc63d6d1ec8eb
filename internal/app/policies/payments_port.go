package policies

import (
	"context"
)

// OrderRequest asks the gateway to open a payment intent.
type OrderRequest struct {
	// AmountMinor is expressed in the currency's smallest unit (paise, cents).
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

// PaymentOrder is the gateway-owned order; only its id is persisted locally.
type PaymentOrder struct {
	ID          string
	AmountMinor int64
	Currency    string
	Receipt     string
	Status      string
}

// PaymentGateway creates remote payment orders. Transport failures must be
// reported wrapped in fault.ErrUpstream.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (PaymentOrder, error)
}

// SignatureVerifier checks the authenticity of a payment callback.
type SignatureVerifier interface {
	Verify(orderID, paymentID, signature string) bool
}
