// Package service implements the application services over the settlement
// engine: loading tab aggregates, applying mutations, persisting them, and
// notifying subscribers. Exactly one mutator touches a tab's state at a
// time; every mutation entry point is synchronous and atomic with respect
// to the others.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/skeebs10/settlr/internal/live"
	"github.com/skeebs10/settlr/internal/models"
	"github.com/skeebs10/settlr/internal/settlement"
	"github.com/skeebs10/settlr/internal/storage"
)

var (
	claimsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlr_claims_applied_total",
		Help: "Claims applied, by claim type.",
	}, []string{"type"})

	tabsClosed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlr_tabs_closed_total",
		Help: "Tabs explicitly closed by staff.",
	})

	openTabs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "settlr_open_tabs",
		Help: "Tabs created and not yet finalized.",
	})

	nudgesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlr_nudges_sent_total",
		Help: "Nudges sent to tab participants.",
	})
)

// errNoChange aborts a mutation without treating it as a failure; nothing
// is persisted or broadcast.
var errNoChange = errors.New("no change")

// TabService owns all tab mutations. It serializes them behind a single
// mutex, recomputes derived state through the settlement engine, persists
// the aggregate, and broadcasts the new revision to live subscribers.
type TabService struct {
	store       storage.Store
	hub         *live.Hub
	baseURL     string
	graceWindow time.Duration
	nudges      *settlement.NudgeLimiter

	mu     sync.Mutex
	timers map[string]*settlement.GraceTimer
}

// NewTabService creates a TabService with the given storage backend and
// live hub. hub may be nil in tests. baseURL is the public origin used to
// derive a tab's shareable URLs.
func NewTabService(store storage.Store, hub *live.Hub, baseURL string, graceWindow, nudgeCooldown time.Duration) *TabService {
	return &TabService{
		store:       store,
		hub:         hub,
		baseURL:     baseURL,
		graceWindow: graceWindow,
		nudges:      settlement.NewNudgeLimiter(nudgeCooldown),
		timers:      make(map[string]*settlement.GraceTimer),
	}
}

// GetTab loads a tab with all derived state recomputed. A close whose
// grace window elapsed while no timer was armed (e.g. across a restart)
// is finalized lazily here.
func (s *TabService) GetTab(ctx context.Context, tabID string) (*models.Tab, error) {
	tab, err := s.store.GetTab(ctx, tabID)
	if err != nil {
		return nil, err
	}
	s.decorate(tab)
	settlement.RecomputeTab(tab)

	if tab.Status == models.TabClosed && tab.GraceEndsAt != nil && !time.Now().Before(*tab.GraceEndsAt) {
		if finalized, err := s.finalizeClose(ctx, tabID); err == nil {
			return finalized, nil
		}
	}
	return tab, nil
}

// ListTabs returns staff-dashboard summaries, newest first.
func (s *TabService) ListTabs(ctx context.Context) ([]models.TabSummary, error) {
	return s.store.ListTabs(ctx)
}

// CreateTab persists a new tab with the given items. Used by seeding and
// by venue integrations that push checks in.
func (s *TabService) CreateTab(ctx context.Context, tab *models.Tab) (*models.Tab, error) {
	if tab.ID == "" {
		tab.ID = uuid.New().String()
	}
	if tab.QRToken == "" {
		tab.QRToken = uuid.New().String()
	}
	s.decorate(tab)

	settlement.RecomputeTab(tab)
	if err := s.store.CreateTab(ctx, tab); err != nil {
		return nil, err
	}

	openTabs.Inc()
	slog.Info("Tab created", "tab_id", tab.ID, "venue", tab.VenueName, "items", len(tab.Items))
	return tab, nil
}

// decorate fills the tab's shareable URLs, which are derived rather than
// stored.
func (s *TabService) decorate(tab *models.Tab) {
	if s.baseURL == "" {
		return
	}
	tab.PublicTabURL = fmt.Sprintf("%s/t/%s", s.baseURL, tab.QRToken)
	tab.PublicReceiptURL = fmt.Sprintf("%s/receipt/%s", s.baseURL, tab.ID)
}

// withTab runs one mutation against a freshly-loaded, recomputed aggregate.
// On success the revision is bumped, the aggregate persisted, and the new
// revision broadcast. If fn fails nothing is persisted: the caller observes
// either the whole mutation or none of it.
func (s *TabService) withTab(ctx context.Context, tabID string, fn func(*models.Tab) error) (*models.Tab, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tab, err := s.store.GetTab(ctx, tabID)
	if err != nil {
		return nil, err
	}
	s.decorate(tab)
	settlement.RecomputeTab(tab)

	if err := fn(tab); err != nil {
		return nil, err
	}
	settlement.RecomputeTab(tab)

	tab.Revision++
	if err := s.store.SaveTab(ctx, tab); err != nil {
		return nil, err
	}
	if s.hub != nil {
		s.hub.Broadcast(live.TabUpdated(tab.ID, tab.Revision))
	}
	return tab, nil
}

// ClaimItem resolves and applies a claim by a participant on an item.
// Re-claiming an item replaces the participant's prior claim.
func (s *TabService) ClaimItem(ctx context.Context, tabID, participantID, itemID string, claimType models.ClaimType, req settlement.ClaimRequest) (*models.Tab, error) {
	tab, err := s.withTab(ctx, tabID, func(tab *models.Tab) error {
		if tab.ParticipantByID(participantID) == nil {
			return settlement.ErrParticipantNotFound
		}
		item := tab.ItemByID(itemID)
		if item == nil {
			return settlement.ErrItemNotFound
		}
		amount, err := settlement.ResolveClaimAmount(item, claimType, req)
		if err != nil {
			return err
		}
		settlement.ApplyClaim(item, participantID, claimType, amount, time.Now().UTC())
		return nil
	})
	if err != nil {
		return nil, err
	}

	claimsApplied.WithLabelValues(string(claimType)).Inc()
	slog.Info("Claim applied", "tab_id", tabID, "item_id", itemID, "participant_id", participantID, "type", claimType)
	return tab, nil
}

// RemoveClaim deletes a participant's claim. Participants can only remove
// their own claims; a claim held by someone else looks like a missing one.
func (s *TabService) RemoveClaim(ctx context.Context, tabID, participantID, claimID string) (*models.Tab, error) {
	tab, err := s.withTab(ctx, tabID, func(tab *models.Tab) error {
		for i := range tab.Items {
			item := &tab.Items[i]
			if claim := item.ClaimBy(participantID); claim != nil && claim.ID == claimID {
				return settlement.RemoveClaim(item, claimID)
			}
		}
		return settlement.ErrClaimNotFound
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Claim removed", "tab_id", tabID, "claim_id", claimID, "participant_id", participantID)
	return tab, nil
}

// SetTip sets the tab's tip amount and recomputes totals. Zero clears the
// tip; negative amounts are rejected.
func (s *TabService) SetTip(ctx context.Context, tabID string, tip models.Cents) (*models.Tab, error) {
	return s.withTab(ctx, tabID, func(tab *models.Tab) error {
		if tip < 0 {
			return settlement.ErrInvalidAmount
		}
		tab.TipAmount = tip
		return nil
	})
}

// MarkReceived records cash the host received from a participant.
func (s *TabService) MarkReceived(ctx context.Context, tabID, participantID string, amount models.Cents) (*models.Tab, error) {
	tab, err := s.withTab(ctx, tabID, func(tab *models.Tab) error {
		p := tab.ParticipantByID(participantID)
		if p == nil {
			return settlement.ErrParticipantNotFound
		}
		return settlement.MarkReceived(p, amount)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Payment received", "tab_id", tabID, "participant_id", participantID, "amount", amount)
	return tab, nil
}

// PayRestaurant records a provider payment from a participant toward the
// tab.
func (s *TabService) PayRestaurant(ctx context.Context, tabID, payerID string, amount models.Cents) (*models.Tab, error) {
	tab, err := s.withTab(ctx, tabID, func(tab *models.Tab) error {
		return settlement.PayRestaurant(tab, payerID, amount)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Restaurant payment recorded", "tab_id", tabID, "payer_id", payerID, "amount", amount)
	return tab, nil
}

// AddParticipant attaches a new participant to the tab. The first joiner of
// a hostless tab becomes its host.
func (s *TabService) AddParticipant(ctx context.Context, tabID, displayName string) (*models.Participant, *models.Tab, error) {
	id := uuid.New().String()
	tab, err := s.withTab(ctx, tabID, func(tab *models.Tab) error {
		p := models.Participant{
			ID:          id,
			DisplayName: displayName,
			IsHost:      tab.HostID == "",
		}
		if p.IsHost {
			tab.HostID = p.ID
		}
		tab.Participants = append(tab.Participants, p)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	joined := tab.ParticipantByID(id)
	slog.Info("Participant joined", "tab_id", tabID, "participant_id", joined.ID, "host", joined.IsHost)
	return joined, tab, nil
}

// CloseTab transitions the tab to CLOSED and arms the grace timer. Fails
// with settlement.ErrCannotClose while anything is unclaimed or unpaid.
func (s *TabService) CloseTab(ctx context.Context, tabID string) (*models.Tab, error) {
	tab, err := s.withTab(ctx, tabID, func(tab *models.Tab) error {
		return settlement.CloseTab(tab, time.Now().UTC(), s.graceWindow)
	})
	if err != nil {
		return nil, err
	}

	s.armGraceTimer(tabID)
	tabsClosed.Inc()
	slog.Info("Tab closed", "tab_id", tabID, "grace_ends_at", tab.GraceEndsAt)
	return tab, nil
}

// UndoClose reverts a close while the grace window is still open.
func (s *TabService) UndoClose(ctx context.Context, tabID string) (*models.Tab, error) {
	tab, err := s.withTab(ctx, tabID, func(tab *models.Tab) error {
		return settlement.UndoClose(tab, time.Now().UTC())
	})
	if err != nil {
		return nil, err
	}

	s.disarmGraceTimer(tabID)
	slog.Info("Tab close undone", "tab_id", tabID)
	return tab, nil
}

func (s *TabService) armGraceTimer(tabID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.timers[tabID]; ok {
		old.Cancel()
	}
	s.timers[tabID] = settlement.NewGraceTimer(s.graceWindow, func() {
		if _, err := s.finalizeClose(context.Background(), tabID); err != nil && !errors.Is(err, errNoChange) {
			slog.Error("Grace expiry finalize failed", "tab_id", tabID, "error", err)
		}
	})
}

func (s *TabService) disarmGraceTimer(tabID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[tabID]; ok {
		t.Cancel()
		delete(s.timers, tabID)
	}
}

// finalizeClose makes an elapsed close permanent. Undone closes are a
// no-op: the timer may fire after an undo already won the race.
func (s *TabService) finalizeClose(ctx context.Context, tabID string) (*models.Tab, error) {
	tab, err := s.withTab(ctx, tabID, func(tab *models.Tab) error {
		if !settlement.FinalizeClose(tab) {
			return errNoChange
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	openTabs.Dec()
	slog.Info("Tab close finalized", "tab_id", tabID)
	return tab, nil
}

// Nudge notifies a tab's participants that something is outstanding.
// Repeat nudges inside the cooldown are rejected with
// settlement.ErrCooldown.
func (s *TabService) Nudge(ctx context.Context, tabID string, reason settlement.NudgeReason) error {
	if !reason.Valid() {
		return fmt.Errorf("%w: %q", settlement.ErrInvalidReason, reason)
	}
	if _, err := s.store.GetTab(ctx, tabID); err != nil {
		return err
	}
	if err := s.nudges.Allow(tabID); err != nil {
		return err
	}

	if s.hub != nil {
		s.hub.Broadcast(live.Nudge(tabID, string(reason)))
	}
	nudgesSent.Inc()
	slog.Info("Nudge sent", "tab_id", tabID, "reason", reason)
	return nil
}

// NudgeCooldownRemaining reports how long staff must wait before nudging
// the tab again.
func (s *TabService) NudgeCooldownRemaining(tabID string) time.Duration {
	return s.nudges.Remaining(tabID)
}
