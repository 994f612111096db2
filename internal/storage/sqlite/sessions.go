package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/skeebs10/settlr/internal/models"
	"github.com/skeebs10/settlr/internal/storage"
)

// CreateSession persists a new session to the database.
// Tokens are not stored; they are stateless JWTs re-validated per request.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *models.Session) error {
	if session.SessionID == "" {
		session.SessionID = uuid.New().String()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, role, tab_id, participant_id, name, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		session.SessionID, string(session.Role), session.TabID, session.ParticipantID,
		session.Name, session.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by its ID.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	session := &models.Session{}
	var role string
	var createdAt int64

	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, role, tab_id, participant_id, name, created_at
		 FROM sessions WHERE session_id = ?`,
		sessionID,
	).Scan(&session.SessionID, &role, &session.TabID, &session.ParticipantID,
		&session.Name, &createdAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	session.Role = models.Role(role)
	session.CreatedAt = time.UnixMilli(createdAt).UTC()
	return session, nil
}
