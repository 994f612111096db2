package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/skeebs10/settlr/internal/auth"
	"github.com/skeebs10/settlr/internal/models"
	"github.com/skeebs10/settlr/internal/storage"
)

// SessionService establishes guest and staff sessions and issues their
// bearer tokens.
type SessionService struct {
	store   storage.Store
	tabs    *TabService
	jwt     *auth.JWTManager
	staff   *auth.StaffAuthenticator
	baseURL string
}

// NewSessionService creates a SessionService. baseURL is the public origin
// used to build share links, e.g. "https://settlr.example.com".
func NewSessionService(store storage.Store, tabs *TabService, jwt *auth.JWTManager, staff *auth.StaffAuthenticator, baseURL string) *SessionService {
	return &SessionService{
		store:   store,
		tabs:    tabs,
		jwt:     jwt,
		staff:   staff,
		baseURL: baseURL,
	}
}

// Join resolves a scanned QR token to its tab, creates a participant for
// the guest, and returns a session with a signed token. The first guest to
// join a hostless tab becomes its host.
func (s *SessionService) Join(ctx context.Context, qrToken, name string) (*models.Session, *models.Tab, error) {
	tab, err := s.store.GetTabByToken(ctx, qrToken)
	if err != nil {
		return nil, nil, err
	}

	if name == "" {
		name = "Guest"
	}

	participant, tab, err := s.tabs.AddParticipant(ctx, tab.ID, name)
	if err != nil {
		return nil, nil, err
	}

	session := &models.Session{
		Role:          models.RoleGuest,
		TabID:         tab.ID,
		ParticipantID: participant.ID,
		Name:          participant.DisplayName,
		ShareLink:     fmt.Sprintf("%s/t/%s", s.baseURL, tab.QRToken),
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, nil, err
	}

	token, err := s.jwt.Generate(session)
	if err != nil {
		return nil, nil, err
	}
	session.Token = token

	slog.Info("Guest joined", "session_id", session.SessionID, "tab_id", tab.ID, "participant_id", participant.ID)
	return session, tab, nil
}

// StaffLogin authenticates a staff member and returns a staff session.
// Staff sessions are not bound to a tab.
func (s *SessionService) StaffLogin(ctx context.Context, name, password string) (*models.Session, error) {
	if err := s.staff.Authenticate(name, password); err != nil {
		return nil, err
	}

	session := &models.Session{
		Role:      models.RoleStaff,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	token, err := s.jwt.Generate(session)
	if err != nil {
		return nil, err
	}
	session.Token = token

	slog.Info("Staff logged in", "session_id", session.SessionID, "name", name)
	return session, nil
}
