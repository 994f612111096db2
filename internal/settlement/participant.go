package settlement

import (
	"github.com/skeebs10/settlr/internal/models"
)

// RecomputeParticipant derives a participant's ClaimedTotal, OwesToHost, and
// Status from the given item set. Pure with respect to the items: it sums
// the participant's claim amounts across all items.
//
// The host always has OwesToHost = 0 regardless of claims: the host's items
// are owed to the restaurant, not to themself.
func RecomputeParticipant(p *models.Participant, items []models.Item) {
	var claimed models.Cents
	for i := range items {
		for j := range items[i].Claims {
			if items[i].Claims[j].ParticipantID == p.ID {
				claimed += items[i].Claims[j].Amount
			}
		}
	}
	p.ClaimedTotal = claimed

	if p.IsHost {
		p.OwesToHost = 0
	} else {
		p.OwesToHost = max(0, claimed-p.PaidTotal)
	}

	if p.PaidTotal >= p.ClaimedTotal {
		p.Status = models.PaymentPaid
	} else {
		p.Status = models.PaymentPending
	}
}

// MarkReceived records a manual payment the host received from a
// participant, typically cash. The amount must be positive; overpayment is
// allowed and simply drives OwesToHost to zero, never negative.
//
// The caller must recompute the tab afterwards so OwesToHost and the
// check-wide unpaid total pick up the new paid amount.
func MarkReceived(p *models.Participant, amount models.Cents) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	p.PaidTotal += amount
	return nil
}
