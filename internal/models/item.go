package models

import "time"

// Cents is a money amount in integer minor currency units (US cents).
// All settlement arithmetic is done on this type; fractions that arise from
// percentages or rates are rounded half away from zero at the cent.
type Cents int64

// ClaimType identifies how a claim amount was requested.
type ClaimType string

const (
	// ClaimFull claims whatever remains unclaimed on the item.
	ClaimFull ClaimType = "FULL"

	// ClaimHalf claims half the item price, clamped to the remaining amount.
	ClaimHalf ClaimType = "HALF"

	// ClaimCustomAmount claims an explicit cent amount, clamped to the
	// remaining amount.
	ClaimCustomAmount ClaimType = "CUSTOM_AMOUNT"

	// ClaimCustomPercent claims a percentage (0–100) of the item price,
	// clamped to the remaining amount.
	ClaimCustomPercent ClaimType = "CUSTOM_PERCENT"
)

// ItemStatus describes how much of an item has been claimed.
type ItemStatus string

const (
	ItemUnclaimed    ItemStatus = "UNCLAIMED"
	ItemPartial      ItemStatus = "PARTIAL"
	ItemFullyClaimed ItemStatus = "FULLY_CLAIMED"
)

// Claim records one participant's responsibility for part of an item's price.
// A participant holds at most one claim per item: re-claiming replaces the
// prior claim rather than adding to it.
type Claim struct {
	// ID is the unique identifier for the claim (UUID format).
	ID string `json:"id"`

	// ItemID is the item this claim was made against.
	ItemID string `json:"item_id"`

	// ParticipantID references the claiming participant. This is a
	// back-reference only; deleting the claim never touches the participant.
	ParticipantID string `json:"participant_id"`

	// Type records how the amount was requested (full, half, custom).
	Type ClaimType `json:"type"`

	// Amount is the resolved cent value of the claim. It is always stored,
	// regardless of Type, so derived totals never re-resolve percentages.
	Amount Cents `json:"amount"`

	// CreatedAt is when the claim was made.
	CreatedAt time.Time `json:"created_at"`
}

// Item is a single line item on a tab.
type Item struct {
	// ID is the unique identifier for the item (UUID format).
	ID string `json:"id"`

	// Name is the menu name of the item (e.g., "Burger").
	Name string `json:"name"`

	// Price is the item price in cents. Immutable after creation.
	Price Cents `json:"price"`

	// Claims is the ordered list of claims against this item, at most one
	// per participant.
	Claims []Claim `json:"claims"`

	// ClaimedAmount is the derived sum of claim amounts. Never exceeds Price.
	ClaimedAmount Cents `json:"claimed_amount"`

	// RemainingAmount is the derived unclaimed portion: Price - ClaimedAmount,
	// floored at zero.
	RemainingAmount Cents `json:"remaining_amount"`

	// Status is derived from ClaimedAmount and RemainingAmount.
	Status ItemStatus `json:"status"`
}

// ClaimBy returns this item's claim held by the given participant, or nil.
func (i *Item) ClaimBy(participantID string) *Claim {
	for idx := range i.Claims {
		if i.Claims[idx].ParticipantID == participantID {
			return &i.Claims[idx]
		}
	}
	return nil
}
