// Package client is the guest-side API client. Every mutation is applied
// to the local tab first so the UI reflects it instantly, then sent to the
// server; when the server rejects or cannot be reached, the local state is
// rolled back to the pre-mutation snapshot. The server's response is
// always authoritative once it arrives.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/skeebs10/settlr/internal/models"
	"github.com/skeebs10/settlr/internal/settlement"
)

// ErrRemoteFailure marks a mutation that was rolled back locally because
// the remote call failed.
var ErrRemoteFailure = errors.New("remote update failed")

// ErrNoSession is returned when a call requires a session but none was
// established or loaded.
var ErrNoSession = errors.New("no active session")

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Type    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d (%s): %s", e.Status, e.Type, e.Message)
}

// Client talks to one settlr server on behalf of one session.
type Client struct {
	baseURL string
	http    *http.Client
	cache   *cache

	mu      sync.Mutex
	session *models.Session
	tab     *models.Tab
}

// New creates a Client for the given server. cacheDir holds the durable
// session and tab caches; pass "" to disable caching.
func New(baseURL string, cacheDir string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		cache:   newCache(cacheDir),
	}
}

// sessionResponse mirrors the server's session payloads, which name the
// tab "check".
type sessionResponse struct {
	SessionID     string `json:"session_id"`
	Role          string `json:"role"`
	CheckID       string `json:"check_id"`
	ParticipantID string `json:"participant_id"`
	Name          string `json:"name"`
	Token         string `json:"token"`
	ShareLink     string `json:"share_link"`
}

func (r sessionResponse) session() *models.Session {
	return &models.Session{
		SessionID:     r.SessionID,
		Role:          models.Role(r.Role),
		TabID:         r.CheckID,
		ParticipantID: r.ParticipantID,
		Name:          r.Name,
		Token:         r.Token,
		ShareLink:     r.ShareLink,
		CreatedAt:     time.Now().UTC(),
	}
}

// Join scans a QR token: it establishes a guest session, stores its
// credentials, and loads the joined tab.
func (c *Client) Join(ctx context.Context, qrToken, name string) (*models.Session, error) {
	var resp sessionResponse
	err := c.do(ctx, http.MethodPost, "/api/session/join",
		map[string]string{"qr_token": qrToken, "name": name}, &resp)
	if err != nil {
		return nil, err
	}
	session := resp.session()

	c.mu.Lock()
	c.session = session
	c.mu.Unlock()

	if err := c.cache.saveSession(session); err != nil {
		return nil, err
	}
	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}
	return session, nil
}

// StaffLogin establishes a staff session for the staff operations.
func (c *Client) StaffLogin(ctx context.Context, name, password string) (*models.Session, error) {
	var resp sessionResponse
	err := c.do(ctx, http.MethodPost, "/api/staff/login",
		map[string]string{"name": name, "password": password}, &resp)
	if err != nil {
		return nil, err
	}
	session := resp.session()

	c.mu.Lock()
	c.session = session
	c.mu.Unlock()

	return session, c.cache.saveSession(session)
}

// Resume restores a previously cached session and tab by session ID.
func (c *Client) Resume(sessionID string) error {
	session, err := c.cache.loadSession(sessionID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = session
	if session.TabID != "" {
		if tab, err := c.cache.loadTab(session.TabID); err == nil {
			c.tab = tab
		}
	}
	return nil
}

// LoadCheck fetches a check into local state. Staff sessions are not bound
// to a check, so they pick one explicitly before mutating it.
func (c *Client) LoadCheck(ctx context.Context, tabID string) error {
	if c.Session() == nil {
		return ErrNoSession
	}
	var remote models.Tab
	if err := c.do(ctx, http.MethodGet, "/api/checks/"+tabID, nil, &remote); err != nil {
		return err
	}
	return c.adopt(&remote)
}

// Session returns the active session, or nil.
func (c *Client) Session() *models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Tab returns a copy of the current local tab, or nil before the first
// load.
func (c *Client) Tab() *models.Tab {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tab == nil {
		return nil
	}
	return c.tab.Clone()
}

// Refresh fetches the remote tab. The fetched state is applied only when
// its revision is newer than the local one, so a stale read racing a local
// optimistic update never clobbers it.
func (c *Client) Refresh(ctx context.Context) error {
	tabID := c.currentTabID()
	if tabID == "" {
		return ErrNoSession
	}

	var remote models.Tab
	if err := c.do(ctx, http.MethodGet, "/api/checks/"+tabID, nil, &remote); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tab != nil && remote.Revision <= c.tab.Revision {
		return nil
	}
	c.tab = &remote
	return c.cache.saveTab(&remote)
}

// ClaimItem claims an item for the session's participant.
func (c *Client) ClaimItem(ctx context.Context, itemID string, claimType models.ClaimType, req settlement.ClaimRequest) error {
	return c.mutate(ctx,
		func(tab *models.Tab, session *models.Session) error {
			item := tab.ItemByID(itemID)
			if item == nil {
				return settlement.ErrItemNotFound
			}
			amount, err := settlement.ResolveClaimAmount(item, claimType, req)
			if err != nil {
				return err
			}
			settlement.ApplyClaim(item, session.ParticipantID, claimType, amount, time.Now().UTC())
			return nil
		},
		http.MethodPost, "/checks/{id}/claims", map[string]any{
			"item_id":      itemID,
			"type":         claimType,
			"amount_cents": req.Amount,
			"percent":      req.Percent,
		})
}

// RemoveClaim removes one of the participant's claims.
func (c *Client) RemoveClaim(ctx context.Context, claimID string) error {
	return c.mutate(ctx,
		func(tab *models.Tab, session *models.Session) error {
			for i := range tab.Items {
				claim := tab.Items[i].ClaimBy(session.ParticipantID)
				if claim != nil && claim.ID == claimID {
					return settlement.RemoveClaim(&tab.Items[i], claimID)
				}
			}
			return settlement.ErrClaimNotFound
		},
		http.MethodDelete, "/checks/{id}/claims/"+claimID, nil)
}

// SetTip sets the tab's tip.
func (c *Client) SetTip(ctx context.Context, tip models.Cents) error {
	return c.mutate(ctx,
		func(tab *models.Tab, _ *models.Session) error {
			if tip < 0 {
				return settlement.ErrInvalidAmount
			}
			tab.TipAmount = tip
			return nil
		},
		http.MethodPut, "/checks/{id}/tip", map[string]any{"tip_cents": tip})
}

// MarkReceived records cash the host received from a participant.
func (c *Client) MarkReceived(ctx context.Context, participantID string, amount models.Cents) error {
	return c.mutate(ctx,
		func(tab *models.Tab, _ *models.Session) error {
			p := tab.ParticipantByID(participantID)
			if p == nil {
				return settlement.ErrParticipantNotFound
			}
			return settlement.MarkReceived(p, amount)
		},
		http.MethodPost, "/checks/{id}/received", map[string]any{
			"participant_id": participantID,
			"amount_cents":   amount,
		})
}

// CloseTab closes the check (staff session required).
func (c *Client) CloseTab(ctx context.Context) error {
	return c.mutate(ctx,
		func(tab *models.Tab, _ *models.Session) error {
			return settlement.CloseTab(tab, time.Now().UTC(), settlement.DefaultGraceWindow)
		},
		http.MethodPost, "/staff/checks/{id}/close", nil)
}

// UndoClose reverts a close during the grace window (staff session
// required).
func (c *Client) UndoClose(ctx context.Context) error {
	return c.mutate(ctx,
		func(tab *models.Tab, _ *models.Session) error {
			return settlement.UndoClose(tab, time.Now().UTC())
		},
		http.MethodPost, "/staff/checks/{id}/reopen", nil)
}

// Nudge pings the tab's guests (staff session required). Nudges carry no
// tab state, so there is nothing to apply or roll back locally.
func (c *Client) Nudge(ctx context.Context, tabID string, reason settlement.NudgeReason) error {
	err := c.do(ctx, http.MethodPost, "/api/staff/checks/"+tabID+"/nudge",
		map[string]any{"reason": reason}, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRemoteFailure, err)
	}
	return nil
}

// PayRestaurant runs the full payment flow for the session's participant:
// create an intent for the amount plus tip, confirm it, and apply the
// resulting payment. The local tab reflects the payment optimistically
// while the provider round-trips.
func (c *Client) PayRestaurant(ctx context.Context, amount, tip models.Cents) error {
	session := c.Session()
	if session == nil || session.TabID == "" {
		return ErrNoSession
	}

	snapshot, err := c.applyLocal(func(tab *models.Tab, session *models.Session) error {
		return settlement.PayRestaurant(tab, session.ParticipantID, amount+tip)
	})
	if err != nil {
		return err
	}

	var intent struct {
		ID string `json:"payment_intent_id"`
	}
	err = c.do(ctx, http.MethodPost, "/api/payments/intent", map[string]any{
		"check_id":     session.TabID,
		"amount_cents": amount,
		"tip_cents":    tip,
	}, &intent)
	if err == nil {
		var remote models.Tab
		err = c.do(ctx, http.MethodPost, "/api/payments/confirm",
			map[string]any{"payment_intent_id": intent.ID}, &remote)
		if err == nil {
			return c.adopt(&remote)
		}
	}

	c.rollback(snapshot)
	return fmt.Errorf("%w: %w", ErrRemoteFailure, err)
}

// mutate applies fn to the local tab, issues the remote call, and adopts
// the server's authoritative response. On any remote failure the local tab
// is restored to its pre-mutation snapshot.
func (c *Client) mutate(ctx context.Context, fn func(*models.Tab, *models.Session) error, method, pathTemplate string, body any) error {
	tabID := c.currentTabID()
	if tabID == "" {
		return ErrNoSession
	}

	snapshot, err := c.applyLocal(fn)
	if err != nil {
		return err
	}

	path := "/api" + replaceID(pathTemplate, tabID)
	var remote models.Tab
	if err := c.do(ctx, method, path, body, &remote); err != nil {
		c.rollback(snapshot)
		return fmt.Errorf("%w: %w", ErrRemoteFailure, err)
	}
	return c.adopt(&remote)
}

// applyLocal runs fn against the local tab and returns the pre-mutation
// snapshot for rollback.
func (c *Client) applyLocal(fn func(*models.Tab, *models.Session) error) (*models.Tab, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tab == nil || c.session == nil {
		return nil, ErrNoSession
	}

	snapshot := c.tab.Clone()
	if err := fn(c.tab, c.session); err != nil {
		return nil, err
	}
	settlement.RecomputeTab(c.tab)
	return snapshot, nil
}

func (c *Client) rollback(snapshot *models.Tab) {
	c.mu.Lock()
	c.tab = snapshot
	c.mu.Unlock()
}

func (c *Client) adopt(remote *models.Tab) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tab = remote
	return c.cache.saveTab(remote)
}

// currentTabID is the session's check for guests or the loaded check for
// staff.
func (c *Client) currentTabID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	if c.session.TabID != "" {
		return c.session.TabID
	}
	if c.tab != nil {
		return c.tab.ID
	}
	return ""
}

func replaceID(template, id string) string {
	return strings.Replace(template, "{id}", id, 1)
}

// do issues one HTTP request with the session's bearer token and decodes
// the JSON response into out when it is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if session := c.Session(); session != nil && session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+session.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var payload struct {
			Error struct {
				Type    string `json:"type"`
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		return &APIError{Status: resp.StatusCode, Type: payload.Error.Type, Message: payload.Error.Message}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
