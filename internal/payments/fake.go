package payments

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skeebs10/settlr/internal/models"
)

// FakeProvider is an in-memory Provider for development and tests. Every
// intent it creates confirms successfully unless FailNext is set.
type FakeProvider struct {
	mu       sync.Mutex
	intents  map[string]models.Cents
	FailNext bool
}

var _ Provider = (*FakeProvider)(nil)

// NewFakeProvider creates an empty fake provider.
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{intents: make(map[string]models.Cents)}
}

// CreateIntent registers an in-memory intent.
func (p *FakeProvider) CreateIntent(_ context.Context, amount models.Cents, _, _ string) (Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := fmt.Sprintf("pi_fake_%s", uuid.New().String()[:8])
	p.intents[id] = amount
	return Intent{
		ID:           id,
		ClientSecret: fmt.Sprintf("%s_secret_%d", id, time.Now().UnixNano()),
		Amount:       amount,
	}, nil
}

// ConfirmIntent succeeds for any known intent.
func (p *FakeProvider) ConfirmIntent(_ context.Context, intentID string) (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.intents[intentID]; !ok {
		return Result{IntentID: intentID, Error: "unknown payment intent"}, nil
	}
	if p.FailNext {
		p.FailNext = false
		return Result{IntentID: intentID, Error: "card declined"}, nil
	}
	return Result{IntentID: intentID, Succeeded: true}, nil
}

// Amount returns the amount registered for an intent, for tests.
func (p *FakeProvider) Amount(intentID string) (models.Cents, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	amount, ok := p.intents[intentID]
	return amount, ok
}
