package payments

import (
	"context"
	"fmt"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"

	"github.com/skeebs10/settlr/internal/models"
)

// Config holds the Stripe credentials.
type Config struct {
	SecretKey string
}

// StripeProvider implements Provider using Stripe payment intents.
type StripeProvider struct {
	cfg Config
}

var _ Provider = (*StripeProvider)(nil)

// NewStripeProvider configures the Stripe client library and returns a
// provider.
func NewStripeProvider(cfg Config) *StripeProvider {
	stripe.Key = cfg.SecretKey
	return &StripeProvider{cfg: cfg}
}

// CreateIntent creates a Stripe payment intent for the amount.
func (p *StripeProvider) CreateIntent(ctx context.Context, amount models.Cents, tabID, payerID string) (Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(amount)),
		Currency: stripe.String(string(stripe.CurrencyUSD)),
	}
	params.Context = ctx
	params.AddMetadata("tab_id", tabID)
	params.AddMetadata("payer_id", payerID)

	pi, err := paymentintent.New(params)
	if err != nil {
		return Intent{}, fmt.Errorf("create payment intent: %w", err)
	}
	return Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       amount,
	}, nil
}

// ConfirmIntent fetches the intent and reports its outcome.
func (p *StripeProvider) ConfirmIntent(ctx context.Context, intentID string) (Result, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := paymentintent.Get(intentID, params)
	if err != nil {
		return Result{}, fmt.Errorf("get payment intent: %w", err)
	}

	res := Result{IntentID: pi.ID}
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		res.Succeeded = true
	case stripe.PaymentIntentStatusCanceled:
		res.Error = "payment canceled"
	default:
		res.Error = fmt.Sprintf("payment not complete: %s", pi.Status)
	}
	return res, nil
}
