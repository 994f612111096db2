package models

import "time"

// TabStatus is the lifecycle state of a tab.
//
// OPEN is the default. READY_TO_CLOSE is a purely informational derived state
// entered automatically while OPEN once nothing is unclaimed and nothing is
// unpaid to the host. CLOSED is entered only by an explicit close action and
// can be undone during the grace window; after the window elapses the close
// is permanent.
type TabStatus string

const (
	TabOpen         TabStatus = "OPEN"
	TabReadyToClose TabStatus = "READY_TO_CLOSE"
	TabClosed       TabStatus = "CLOSED"
)

// DefaultTaxRateBps is the tax rate applied to new tabs, in basis points
// of the items subtotal (1000 = 10%).
const DefaultTaxRateBps = 1000

// Totals holds the derived check-wide amounts for a tab. Totals are always a
// pure function of the current items, participants, and tip; they are never
// independently mutated.
type Totals struct {
	// ItemsSubtotal is the sum of all item prices.
	ItemsSubtotal Cents `json:"items_subtotal"`

	// ClaimedSubtotal is the sum of all item claimed amounts.
	ClaimedSubtotal Cents `json:"claimed_subtotal"`

	// UnclaimedTotal is the portion of the bill no participant has claimed.
	UnclaimedTotal Cents `json:"unclaimed_total"`

	// Tax is ItemsSubtotal times the tab's tax rate, rounded to the cent.
	Tax Cents `json:"tax"`

	// Tip is the tip amount set on the tab.
	Tip Cents `json:"tip"`

	// GrandTotal is ItemsSubtotal + Tax + Tip.
	GrandTotal Cents `json:"grand_total"`

	// UnpaidToHost is the sum of every participant's OwesToHost.
	UnpaidToHost Cents `json:"unpaid_to_host"`
}

// Tab is the shared check being split. It exclusively owns its Items and
// Participants; they cannot outlive or be shared outside the tab.
type Tab struct {
	// ID is the unique identifier for the tab (UUID format).
	ID string `json:"id"`

	// VenueName is the restaurant name (e.g., "TAO").
	VenueName string `json:"venue_name"`

	// TableName identifies the table (e.g., "Table 12").
	TableName string `json:"table_name,omitempty"`

	// HostID is the participant ID of the tab's single host.
	HostID string `json:"host_id"`

	// Status is the tab lifecycle state.
	Status TabStatus `json:"status"`

	// Items are the line items on the check.
	Items []Item `json:"items"`

	// Participants are the guests attached to the tab, host included.
	Participants []Participant `json:"participants"`

	// TipAmount is the tip in cents, set explicitly by guests.
	TipAmount Cents `json:"tip_amount"`

	// TaxRateBps is the tab's tax rate in basis points of the items
	// subtotal. Stored once per tab; never recomputed from a ratio of
	// existing totals.
	TaxRateBps int64 `json:"tax_rate_bps"`

	// Totals are the derived check-wide amounts.
	Totals Totals `json:"totals"`

	// GraceEndsAt is set while a close is undoable; nil otherwise. Once the
	// grace window elapses the close is permanent.
	GraceEndsAt *time.Time `json:"grace_ends_at,omitempty"`

	// Revision increases on every committed mutation. Clients use it to
	// discard stale reads during polling.
	Revision int64 `json:"revision"`

	// QRToken is the opaque token printed in the table's QR code. Guests
	// present it to join; it is never serialized back to clients.
	QRToken string `json:"-"`

	// PublicTabURL and PublicReceiptURL are shareable links for the tab.
	PublicTabURL     string `json:"public_tab_url,omitempty"`
	PublicReceiptURL string `json:"public_receipt_url,omitempty"`

	// CreatedAt and UpdatedAt are set by the storage layer.
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the tab. Mutating the copy never touches
// the original's items, claims, or participants.
func (t *Tab) Clone() *Tab {
	clone := *t
	if t.GraceEndsAt != nil {
		ends := *t.GraceEndsAt
		clone.GraceEndsAt = &ends
	}
	clone.Items = make([]Item, len(t.Items))
	for i, item := range t.Items {
		clone.Items[i] = item
		clone.Items[i].Claims = append([]Claim(nil), item.Claims...)
	}
	clone.Participants = append([]Participant(nil), t.Participants...)
	return &clone
}

// ParticipantByID returns the participant with the given ID, or nil.
func (t *Tab) ParticipantByID(id string) *Participant {
	for idx := range t.Participants {
		if t.Participants[idx].ID == id {
			return &t.Participants[idx]
		}
	}
	return nil
}

// ItemByID returns the item with the given ID, or nil.
func (t *Tab) ItemByID(id string) *Item {
	for idx := range t.Items {
		if t.Items[idx].ID == id {
			return &t.Items[idx]
		}
	}
	return nil
}

// TabSummary is the staff-dashboard view of one tab.
type TabSummary struct {
	ID                string    `json:"id"`
	VenueName         string    `json:"venue_name"`
	TableName         string    `json:"table_name,omitempty"`
	Status            TabStatus `json:"status"`
	ItemsSubtotal     Cents     `json:"items_subtotal"`
	ClaimedSubtotal   Cents     `json:"claimed_subtotal"`
	UnpaidToHost      Cents     `json:"unpaid_to_host"`
	ClaimedPercentage int       `json:"claimed_percentage"`
	ParticipantCount  int       `json:"participant_count"`
	CreatedAt         time.Time `json:"created_at"`
}
