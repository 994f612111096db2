package settlement

import "errors"

var (
	// ErrInvalidClaim rejects non-positive or out-of-range claim requests,
	// including requests that resolve to zero cents.
	ErrInvalidClaim = errors.New("invalid claim")

	// ErrClaimNotFound is returned when removing or editing a claim that
	// does not exist.
	ErrClaimNotFound = errors.New("claim not found")

	// ErrCannotClose is returned when a tab still has unclaimed items or
	// amounts unpaid to the host.
	ErrCannotClose = errors.New("tab cannot be closed")

	// ErrGraceExpired is returned when an undo is attempted after the close
	// grace window has elapsed.
	ErrGraceExpired = errors.New("grace window expired")

	// ErrCooldown rejects repeat nudges inside the cooldown interval.
	ErrCooldown = errors.New("nudge cooldown active")

	// ErrInvalidReason rejects nudges with an unrecognized reason.
	ErrInvalidReason = errors.New("invalid nudge reason")

	// ErrInvalidAmount rejects non-positive payment amounts.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrParticipantNotFound is returned when a payment references a
	// participant not on the tab.
	ErrParticipantNotFound = errors.New("participant not found")

	// ErrItemNotFound is returned when a claim references an item not on
	// the tab.
	ErrItemNotFound = errors.New("item not found")
)
