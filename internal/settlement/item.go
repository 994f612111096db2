// Package settlement implements the claim and settlement engine for shared
// tabs: resolving and applying claims against line items, aggregating each
// participant's position, recomputing check-wide totals, and driving the tab
// close/grace lifecycle.
//
// All functions here are synchronous and operate on an in-memory Tab
// aggregate passed in by the caller. Recomputation is deterministic and
// idempotent: given the same set of claims it always yields the same derived
// state, with no hidden accumulation.
package settlement

import (
	"time"

	"github.com/google/uuid"

	"github.com/skeebs10/settlr/internal/models"
)

// ClaimRequest carries the caller-supplied value for custom claim types.
// Amount is used for CUSTOM_AMOUNT, Percent for CUSTOM_PERCENT; both are
// ignored for FULL and HALF.
type ClaimRequest struct {
	Amount  models.Cents
	Percent float64
}

// ResolveClaimAmount resolves a claim request against an item's current
// state and returns the cent amount the claim would take.
//
//   - FULL takes the item's remaining amount.
//   - HALF takes half the item price, clamped to the remaining amount.
//   - CUSTOM_AMOUNT takes the requested cents, clamped to the remaining
//     amount; a non-positive request is ErrInvalidClaim.
//   - CUSTOM_PERCENT takes the requested percentage of the item price,
//     clamped to the remaining amount; percentages outside 0–100 are
//     ErrInvalidClaim.
//
// A request that resolves to zero cents (for example FULL on a fully-claimed
// item) is ErrInvalidClaim: zero-value claims are rejected, never stored.
func ResolveClaimAmount(item *models.Item, claimType models.ClaimType, req ClaimRequest) (models.Cents, error) {
	var amount models.Cents

	switch claimType {
	case models.ClaimFull:
		amount = item.RemainingAmount
	case models.ClaimHalf:
		amount = min(roundRatio(item.Price, 1, 2), item.RemainingAmount)
	case models.ClaimCustomAmount:
		if req.Amount <= 0 {
			return 0, ErrInvalidClaim
		}
		amount = min(req.Amount, item.RemainingAmount)
	case models.ClaimCustomPercent:
		if req.Percent < 0 || req.Percent > 100 {
			return 0, ErrInvalidClaim
		}
		amount = min(roundRatio(item.Price, percentToBps(req.Percent), 10000), item.RemainingAmount)
	default:
		return 0, ErrInvalidClaim
	}

	if amount <= 0 {
		return 0, ErrInvalidClaim
	}
	return amount, nil
}

// ApplyClaim records a claim of the given resolved amount by a participant
// on an item. Any existing claim by that participant on the item is replaced,
// not merged. The item's derived fields are recomputed before returning.
//
// The amount must come from ResolveClaimAmount against the item's current
// state; since it is clamped to the remaining amount there, replacing the
// prior claim can only widen the available room, so the claimed-amount
// invariant holds without further checks.
func ApplyClaim(item *models.Item, participantID string, claimType models.ClaimType, amount models.Cents, now time.Time) models.Claim {
	for idx := range item.Claims {
		if item.Claims[idx].ParticipantID == participantID {
			item.Claims = append(item.Claims[:idx], item.Claims[idx+1:]...)
			break
		}
	}

	claim := models.Claim{
		ID:            uuid.New().String(),
		ItemID:        item.ID,
		ParticipantID: participantID,
		Type:          claimType,
		Amount:        amount,
		CreatedAt:     now,
	}
	item.Claims = append(item.Claims, claim)
	RecomputeItem(item)
	return claim
}

// RemoveClaim deletes the claim with the given ID from the item and
// recomputes its derived fields. Returns ErrClaimNotFound if no claim
// matches.
func RemoveClaim(item *models.Item, claimID string) error {
	for idx := range item.Claims {
		if item.Claims[idx].ID == claimID {
			item.Claims = append(item.Claims[:idx], item.Claims[idx+1:]...)
			RecomputeItem(item)
			return nil
		}
	}
	return ErrClaimNotFound
}

// RecomputeItem derives ClaimedAmount, RemainingAmount, and Status from the
// item's claim list.
func RecomputeItem(item *models.Item) {
	var claimed models.Cents
	for idx := range item.Claims {
		claimed += item.Claims[idx].Amount
	}
	item.ClaimedAmount = claimed
	item.RemainingAmount = max(0, item.Price-claimed)

	switch {
	case claimed == 0:
		item.Status = models.ItemUnclaimed
	case item.RemainingAmount == 0 && item.Price > 0:
		item.Status = models.ItemFullyClaimed
	default:
		item.Status = models.ItemPartial
	}
}
