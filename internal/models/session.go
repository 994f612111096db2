package models

import "time"

// Role distinguishes guest sessions from staff sessions.
type Role string

const (
	RoleGuest Role = "guest"
	RoleStaff Role = "staff"
)

// Session is a joined guest's (or logged-in staff member's) credential record.
// Sessions are created by scanning a tab's QR token and are cached client-side
// keyed by SessionID.
type Session struct {
	// SessionID is the unique identifier for the session (UUID format).
	SessionID string `json:"session_id"`

	// Role is guest or staff.
	Role Role `json:"role"`

	// TabID is the tab this session is attached to. Empty for staff
	// sessions, which can see every tab.
	TabID string `json:"tab_id,omitempty"`

	// ParticipantID is the participant created for this session on join.
	// Empty for staff sessions.
	ParticipantID string `json:"participant_id,omitempty"`

	// Name is the display name the guest joined with.
	Name string `json:"name,omitempty"`

	// Token is the signed bearer token presented on subsequent requests.
	Token string `json:"token"`

	// ShareLink is the public URL other guests can use to join the same tab.
	ShareLink string `json:"share_link,omitempty"`

	// CreatedAt is when the session was established.
	CreatedAt time.Time `json:"created_at"`
}
