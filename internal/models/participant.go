package models

// PaymentStatus describes whether a participant has settled what they owe.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
)

// Participant is a guest (or the host) attached to a tab.
type Participant struct {
	// ID is the unique identifier for the participant (UUID format).
	ID string `json:"id"`

	// DisplayName is the name shown to other guests and staff.
	DisplayName string `json:"display_name"`

	// IsHost marks the single host of the tab. The host's claimed items are
	// owed to the restaurant, never to themself, so their OwesToHost is
	// always zero.
	IsHost bool `json:"is_host"`

	// ClaimedTotal is the derived sum of this participant's claim amounts
	// across all items on the tab.
	ClaimedTotal Cents `json:"claimed_total"`

	// PaidTotal is the cumulative amount this participant has paid or the
	// host has recorded as received from them. Monotonically increasing.
	PaidTotal Cents `json:"paid_total"`

	// OwesToHost is the derived outstanding amount: max(0, ClaimedTotal -
	// PaidTotal) for non-hosts, always 0 for the host. Overpayment drives
	// this to zero, never negative.
	OwesToHost Cents `json:"owes_to_host"`

	// Status is PAID once OwesToHost reaches zero; it reverts to PENDING if
	// later claims raise ClaimedTotal above PaidTotal again.
	Status PaymentStatus `json:"status"`
}
