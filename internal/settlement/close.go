package settlement

import (
	"sync"
	"time"

	"github.com/skeebs10/settlr/internal/models"
)

// DefaultGraceWindow is how long a close remains undoable.
const DefaultGraceWindow = 45 * time.Second

// CloseTab transitions a tab to CLOSED and opens the grace window. The tab
// must have nothing unclaimed and nothing unpaid to the host; otherwise, or
// if the tab is already closed, ErrCannotClose is returned and the tab is
// untouched.
func CloseTab(tab *models.Tab, now time.Time, grace time.Duration) error {
	if tab.Status == models.TabClosed {
		return ErrCannotClose
	}
	RecomputeTab(tab)
	if tab.Totals.UnclaimedTotal > 0 || tab.Totals.UnpaidToHost > 0 {
		return ErrCannotClose
	}

	tab.Status = models.TabClosed
	end := now.Add(grace)
	tab.GraceEndsAt = &end
	return nil
}

// UndoClose reverts a close while its grace window is still open, restoring
// the tab to OPEN with no other data loss. After the window has elapsed, or
// on a tab that is not closed (including one already reopened by an earlier
// undo), it returns ErrGraceExpired rather than silently reopening.
func UndoClose(tab *models.Tab, now time.Time) error {
	if tab.Status != models.TabClosed {
		return ErrGraceExpired
	}
	if tab.GraceEndsAt == nil || !now.Before(*tab.GraceEndsAt) {
		return ErrGraceExpired
	}

	tab.Status = models.TabOpen
	tab.GraceEndsAt = nil
	RecomputeTab(tab)
	return nil
}

// FinalizeClose makes an elapsed close permanent by clearing the grace
// deadline. Returns false if the tab is not closed (the close was undone
// before the timer fired) or the deadline was already cleared.
func FinalizeClose(tab *models.Tab) bool {
	if tab.Status != models.TabClosed || tab.GraceEndsAt == nil {
		return false
	}
	tab.GraceEndsAt = nil
	return true
}

// GraceTimer runs the expiry side of one tab's grace window. The callback
// fires exactly once, even under concurrent Cancel calls or repeated
// polling of the underlying deadline; a cancelled timer never fires.
type GraceTimer struct {
	mu    sync.Mutex
	timer *time.Timer
	done  bool
}

// NewGraceTimer starts a timer that invokes onExpire after d unless
// cancelled first.
func NewGraceTimer(d time.Duration, onExpire func()) *GraceTimer {
	g := &GraceTimer{}
	g.timer = time.AfterFunc(d, func() {
		g.mu.Lock()
		if g.done {
			g.mu.Unlock()
			return
		}
		g.done = true
		g.mu.Unlock()
		onExpire()
	})
	return g
}

// Cancel stops the timer. Safe to call multiple times and after expiry;
// returns true if the callback was prevented from running.
func (g *GraceTimer) Cancel() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.done {
		return false
	}
	g.done = true
	g.timer.Stop()
	return true
}
