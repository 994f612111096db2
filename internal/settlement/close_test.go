package settlement

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/skeebs10/settlr/internal/models"
)

// settleTab claims and pays off everything so the tab is closable.
func settleTab(t *testing.T, tab *models.Tab) {
	t.Helper()
	for i := range tab.Items {
		item := &tab.Items[i]
		amount, err := ResolveClaimAmount(item, models.ClaimFull, ClaimRequest{})
		if err != nil {
			t.Fatalf("resolve %s: %v", item.ID, err)
		}
		ApplyClaim(item, tab.HostID, models.ClaimFull, amount, time.Now())
	}
	RecomputeTab(tab)
}

func TestCloseTab(t *testing.T) {
	now := time.Now()

	t.Run("rejected while amounts outstanding", func(t *testing.T) {
		tab := newTestTab()
		claim(t, tab, "item-2", "alex-1", models.ClaimFull, ClaimRequest{})
		claim(t, tab, "item-3", "alex-1", models.ClaimCustomAmount, ClaimRequest{Amount: 100})
		if tab.Totals.UnclaimedTotal != 1900 {
			t.Fatalf("setup: unclaimed = %d, want 1900", tab.Totals.UnclaimedTotal)
		}

		err := CloseTab(tab, now, DefaultGraceWindow)
		if !errors.Is(err, ErrCannotClose) {
			t.Fatalf("error = %v, want ErrCannotClose", err)
		}
		if tab.Status == models.TabClosed {
			t.Error("rejected close must not change status")
		}
	})

	t.Run("undo inside grace window restores open", func(t *testing.T) {
		tab := newTestTab()
		settleTab(t, tab)
		if tab.Status != models.TabReadyToClose {
			t.Fatalf("setup: status = %s, want READY_TO_CLOSE", tab.Status)
		}

		if err := CloseTab(tab, now, DefaultGraceWindow); err != nil {
			t.Fatalf("CloseTab: %v", err)
		}
		if tab.Status != models.TabClosed || tab.GraceEndsAt == nil {
			t.Fatalf("status/grace = %s/%v after close", tab.Status, tab.GraceEndsAt)
		}

		// t=44s: still inside the 45s window.
		if err := UndoClose(tab, now.Add(44*time.Second)); err != nil {
			t.Fatalf("UndoClose at 44s: %v", err)
		}
		if tab.Status == models.TabClosed || tab.GraceEndsAt != nil {
			t.Errorf("undo left status=%s grace=%v", tab.Status, tab.GraceEndsAt)
		}

		// t=46s: the window is gone; a second undo must not silently
		// reopen anything.
		if err := UndoClose(tab, now.Add(46*time.Second)); !errors.Is(err, ErrGraceExpired) {
			t.Errorf("UndoClose at 46s error = %v, want ErrGraceExpired", err)
		}
	})

	t.Run("undo exactly at deadline is expired", func(t *testing.T) {
		tab := newTestTab()
		settleTab(t, tab)
		if err := CloseTab(tab, now, DefaultGraceWindow); err != nil {
			t.Fatal(err)
		}
		if err := UndoClose(tab, now.Add(DefaultGraceWindow)); !errors.Is(err, ErrGraceExpired) {
			t.Errorf("error = %v, want ErrGraceExpired", err)
		}
	})

	t.Run("undo after finalize is expired", func(t *testing.T) {
		tab := newTestTab()
		settleTab(t, tab)
		if err := CloseTab(tab, now, DefaultGraceWindow); err != nil {
			t.Fatal(err)
		}
		if !FinalizeClose(tab) {
			t.Fatal("FinalizeClose returned false on closed tab")
		}
		if err := UndoClose(tab, now.Add(time.Second)); !errors.Is(err, ErrGraceExpired) {
			t.Errorf("error = %v, want ErrGraceExpired", err)
		}
	})

	t.Run("double close rejected", func(t *testing.T) {
		tab := newTestTab()
		settleTab(t, tab)
		if err := CloseTab(tab, now, DefaultGraceWindow); err != nil {
			t.Fatal(err)
		}
		if err := CloseTab(tab, now, DefaultGraceWindow); !errors.Is(err, ErrCannotClose) {
			t.Errorf("second close error = %v, want ErrCannotClose", err)
		}
	})
}

func TestFinalizeCloseAfterUndo(t *testing.T) {
	tab := newTestTab()
	settleTab(t, tab)
	now := time.Now()

	if err := CloseTab(tab, now, DefaultGraceWindow); err != nil {
		t.Fatal(err)
	}
	if err := UndoClose(tab, now.Add(time.Second)); err != nil {
		t.Fatal(err)
	}

	// The timer may still fire after an undo; it must be a no-op.
	if FinalizeClose(tab) {
		t.Error("FinalizeClose on reopened tab should report false")
	}
	if tab.Status == models.TabClosed {
		t.Errorf("status = %s after stale finalize", tab.Status)
	}
}

func TestGraceTimerFiresOnce(t *testing.T) {
	var fired atomic.Int32
	done := make(chan struct{})
	NewGraceTimer(10*time.Millisecond, func() {
		fired.Add(1)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
	time.Sleep(20 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Errorf("expiry fired %d times, want 1", got)
	}
}

func TestGraceTimerCancel(t *testing.T) {
	var fired atomic.Int32
	g := NewGraceTimer(30*time.Millisecond, func() { fired.Add(1) })

	if !g.Cancel() {
		t.Fatal("first Cancel returned false")
	}
	if g.Cancel() {
		t.Error("second Cancel returned true")
	}
	time.Sleep(60 * time.Millisecond)
	if fired.Load() != 0 {
		t.Error("cancelled timer fired")
	}
}

func TestGraceTimerConcurrentCancel(t *testing.T) {
	var fired atomic.Int32
	g := NewGraceTimer(5*time.Millisecond, func() { fired.Add(1) })

	var wg sync.WaitGroup
	var prevented atomic.Int32
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Cancel() {
				prevented.Add(1)
			}
		}()
	}
	wg.Wait()
	time.Sleep(20 * time.Millisecond)

	// Either exactly one Cancel won, or the timer beat them all and fired
	// exactly once. Never both, never more than once.
	if fired.Load()+prevented.Load() != 1 {
		t.Errorf("fired=%d prevented=%d, want exactly one total", fired.Load(), prevented.Load())
	}
}

func TestNudgeLimiter(t *testing.T) {
	l := NewNudgeLimiter(DefaultNudgeCooldown)
	base := time.Now()
	current := base
	l.now = func() time.Time { return current }

	if err := l.Allow("tab-1"); err != nil {
		t.Fatalf("first nudge: %v", err)
	}
	if err := l.Allow("tab-1"); !errors.Is(err, ErrCooldown) {
		t.Fatalf("immediate repeat error = %v, want ErrCooldown", err)
	}

	// A different tab has its own cooldown.
	if err := l.Allow("tab-2"); err != nil {
		t.Errorf("other tab nudge: %v", err)
	}

	current = base.Add(29 * time.Second)
	if err := l.Allow("tab-1"); !errors.Is(err, ErrCooldown) {
		t.Errorf("at 29s error = %v, want ErrCooldown", err)
	}
	if got := l.Remaining("tab-1"); got != time.Second {
		t.Errorf("Remaining = %v, want 1s", got)
	}

	current = base.Add(30 * time.Second)
	if err := l.Allow("tab-1"); err != nil {
		t.Errorf("after cooldown: %v", err)
	}
}
