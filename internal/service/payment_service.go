package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/skeebs10/settlr/internal/models"
	"github.com/skeebs10/settlr/internal/payments"
	"github.com/skeebs10/settlr/internal/settlement"
)

// ErrPaymentFailed is returned when the provider reports a failed or
// incomplete payment on confirmation.
var ErrPaymentFailed = errors.New("payment failed")

// ErrIntentNotFound is returned when confirming an intent this server
// never created.
var ErrIntentNotFound = errors.New("payment intent not found")

var paymentsConfirmed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "settlr_payments_confirmed_total",
	Help: "Payment confirmations, by outcome.",
}, []string{"outcome"})

type pendingIntent struct {
	tabID   string
	payerID string
	amount  models.Cents
}

// PaymentService drives the two-step pay flow: create a provider intent
// for a participant's amount, then on confirmation record the payment on
// the tab.
type PaymentService struct {
	tabs     *TabService
	provider payments.Provider

	mu      sync.Mutex
	pending map[string]pendingIntent
}

// NewPaymentService creates a PaymentService backed by the given provider.
func NewPaymentService(tabs *TabService, provider payments.Provider) *PaymentService {
	return &PaymentService{
		tabs:     tabs,
		provider: provider,
		pending:  make(map[string]pendingIntent),
	}
}

// CreateIntent opens a provider payment for the participant's amount. The
// amount is what the payer owes including their tax share and any tip
// portion; callers compute it from the tab's totals.
func (s *PaymentService) CreateIntent(ctx context.Context, tabID, payerID string, amount models.Cents) (payments.Intent, error) {
	if amount <= 0 {
		return payments.Intent{}, settlement.ErrInvalidAmount
	}
	tab, err := s.tabs.GetTab(ctx, tabID)
	if err != nil {
		return payments.Intent{}, err
	}
	if tab.ParticipantByID(payerID) == nil {
		return payments.Intent{}, settlement.ErrParticipantNotFound
	}

	intent, err := s.provider.CreateIntent(ctx, amount, tabID, payerID)
	if err != nil {
		return payments.Intent{}, fmt.Errorf("failed to create payment intent: %w", err)
	}

	s.mu.Lock()
	s.pending[intent.ID] = pendingIntent{tabID: tabID, payerID: payerID, amount: amount}
	s.mu.Unlock()

	slog.Info("Payment intent created", "tab_id", tabID, "payer_id", payerID, "intent_id", intent.ID, "amount", amount)
	return intent, nil
}

// Confirm checks the intent with the provider and, on success, records the
// payment against the tab. Failed confirmations leave the tab untouched.
func (s *PaymentService) Confirm(ctx context.Context, intentID string) (*models.Tab, error) {
	s.mu.Lock()
	p, ok := s.pending[intentID]
	s.mu.Unlock()
	if !ok {
		return nil, ErrIntentNotFound
	}

	result, err := s.provider.ConfirmIntent(ctx, intentID)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm payment intent: %w", err)
	}
	if !result.Succeeded {
		paymentsConfirmed.WithLabelValues("failed").Inc()
		slog.Warn("Payment failed", "intent_id", intentID, "tab_id", p.tabID, "error", result.Error)
		return nil, fmt.Errorf("%w: %s", ErrPaymentFailed, result.Error)
	}

	tab, err := s.tabs.PayRestaurant(ctx, p.tabID, p.payerID, p.amount)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	delete(s.pending, intentID)
	s.mu.Unlock()

	paymentsConfirmed.WithLabelValues("succeeded").Inc()
	return tab, nil
}
