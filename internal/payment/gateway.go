package payment

import (
	"context"
	"errors"
)

// ErrPaymentsDisabled is returned by the gateway used when no provider key is configured.
var ErrPaymentsDisabled = errors.New("card payments are not configured")

// Intent is a provider-side payment the client completes with ClientSecret.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

// Gateway is the payment provider used by order placement and cancellation.
type Gateway interface {
	// CreateIntent opens a payment for amount minor units of currency.
	CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error)

	// CancelIntent voids an intent that was never captured.
	CancelIntent(ctx context.Context, intentID string) error

	// Refund returns the captured amount of an intent in full.
	Refund(ctx context.Context, intentID string) error
}

type disabledGateway struct{}

// NewDisabledGateway returns a gateway that rejects every call.
func NewDisabledGateway() Gateway {
	return disabledGateway{}
}

func (disabledGateway) CreateIntent(context.Context, int64, string, map[string]string) (*Intent, error) {
	return nil, ErrPaymentsDisabled
}

func (disabledGateway) CancelIntent(context.Context, string) error {
	return ErrPaymentsDisabled
}

func (disabledGateway) Refund(context.Context, string) error {
	return ErrPaymentsDisabled
}
