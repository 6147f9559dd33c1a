package payment

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeGateway talks to Stripe PaymentIntents and Refunds.
type StripeGateway struct {
	api    *client.API
	logger zerolog.Logger
}

// NewStripeGateway creates a gateway authenticated with secretKey.
// backends may be nil to use Stripe's default endpoints.
func NewStripeGateway(secretKey string, backends *stripe.Backends, logger zerolog.Logger) *StripeGateway {
	return &StripeGateway{
		api:    client.New(secretKey, backends),
		logger: logger.With().Str("gateway", "stripe").Logger(),
	}
}

// CreateIntent creates a PaymentIntent for amount minor units.
func (g *StripeGateway) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		g.logger.Error().Err(err).Int64("amount", amount).Str("currency", currency).Msg("failed to create payment intent")
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	g.logger.Info().Str("intent_id", pi.ID).Int64("amount", amount).Msg("payment intent created")

	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
	}, nil
}

// CancelIntent cancels an uncaptured PaymentIntent.
func (g *StripeGateway) CancelIntent(ctx context.Context, intentID string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx

	if _, err := g.api.PaymentIntents.Cancel(intentID, params); err != nil {
		g.logger.Error().Err(err).Str("intent_id", intentID).Msg("failed to cancel payment intent")
		return fmt.Errorf("failed to cancel payment intent: %w", err)
	}

	g.logger.Info().Str("intent_id", intentID).Msg("payment intent cancelled")
	return nil
}

// Refund issues a full refund against a captured PaymentIntent.
func (g *StripeGateway) Refund(ctx context.Context, intentID string) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(intentID),
	}
	params.Context = ctx

	refund, err := g.api.Refunds.New(params)
	if err != nil {
		g.logger.Error().Err(err).Str("intent_id", intentID).Msg("failed to refund payment")
		return fmt.Errorf("failed to refund payment: %w", err)
	}

	g.logger.Info().Str("intent_id", intentID).Str("refund_id", refund.ID).Msg("payment refunded")
	return nil
}
