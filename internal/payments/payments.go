// Package payments wraps the payment provider behind the narrow contract
// the settlement flow needs: create an intent for an amount, confirm it,
// and learn success or failure. Provider-specific detail stays here.
package payments

import (
	"context"

	"github.com/skeebs10/settlr/internal/models"
)

// Intent is a pending provider-side payment.
type Intent struct {
	// ID is the provider's payment-intent identifier.
	ID string `json:"payment_intent_id"`

	// ClientSecret is handed to the paying client to complete the payment.
	ClientSecret string `json:"client_secret"`

	// Amount is the total being collected, in cents.
	Amount models.Cents `json:"amount_cents"`
}

// Result is the outcome of confirming an intent.
type Result struct {
	Succeeded bool   `json:"succeeded"`
	IntentID  string `json:"payment_intent_id"`

	// Error is the provider's structured error string when Succeeded is
	// false.
	Error string `json:"error,omitempty"`
}

// Provider collects payments. Implementations must treat amounts as integer
// cents and never surface provider internals beyond Result.Error.
type Provider interface {
	// CreateIntent registers a pending payment for the amount, tagged with
	// the tab and payer for reconciliation on the provider's side.
	CreateIntent(ctx context.Context, amount models.Cents, tabID, payerID string) (Intent, error)

	// ConfirmIntent reports whether the payment went through.
	ConfirmIntent(ctx context.Context, intentID string) (Result, error)
}
