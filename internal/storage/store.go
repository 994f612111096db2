// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/skeebs10/settlr/internal/models"
)

// ErrNotFound is returned when the requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the interface for tab and session storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// etc.) without changing the service layer.
//
// Tabs are written as whole aggregates: SaveTab persists the tab row and
// replaces its items, claims, and participants atomically. Derived fields
// are not authoritative in storage; callers recompute them after loading.
type Store interface {
	// CreateTab persists a new tab aggregate. Missing IDs and timestamps
	// are populated by the store.
	CreateTab(ctx context.Context, tab *models.Tab) error

	// GetTab retrieves a tab aggregate by ID, including items, claims, and
	// participants. Returns ErrNotFound if no tab matches.
	GetTab(ctx context.Context, tabID string) (*models.Tab, error)

	// GetTabByToken retrieves the tab whose QR token matches.
	GetTabByToken(ctx context.Context, qrToken string) (*models.Tab, error)

	// SaveTab replaces the stored aggregate with the given one in a single
	// transaction. Returns ErrNotFound if the tab does not exist.
	SaveTab(ctx context.Context, tab *models.Tab) error

	// ListTabs returns staff-dashboard summaries of all tabs, newest first.
	ListTabs(ctx context.Context) ([]models.TabSummary, error)

	// CreateSession persists a guest or staff session.
	CreateSession(ctx context.Context, session *models.Session) error

	// GetSession retrieves a session by its ID. Returns ErrNotFound if no
	// session matches.
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)

	// Close releases any resources held by the store.
	Close() error
}
