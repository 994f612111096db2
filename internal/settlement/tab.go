package settlement

import (
	"github.com/skeebs10/settlr/internal/models"
)

// RecomputeTotals derives the check-wide totals from items, participants,
// the tip, and the tab's stored tax rate.
func RecomputeTotals(items []models.Item, participants []models.Participant, tip models.Cents, taxRateBps int64) models.Totals {
	var itemsSubtotal, claimedSubtotal, unpaidToHost models.Cents
	for i := range items {
		itemsSubtotal += items[i].Price
		claimedSubtotal += items[i].ClaimedAmount
	}
	for i := range participants {
		unpaidToHost += participants[i].OwesToHost
	}

	tax := Tax(itemsSubtotal, taxRateBps)
	return models.Totals{
		ItemsSubtotal:   itemsSubtotal,
		ClaimedSubtotal: claimedSubtotal,
		UnclaimedTotal:  itemsSubtotal - claimedSubtotal,
		Tax:             tax,
		Tip:             tip,
		GrandTotal:      itemsSubtotal + tax + tip,
		UnpaidToHost:    unpaidToHost,
	}
}

// RecomputeTab recomputes every item, then every participant, then the
// totals, in that dependency order, and finally derives the lifecycle
// status. CLOSED is sticky: only the grace-window undo leaves it. While not
// closed, the tab is READY_TO_CLOSE exactly when nothing is unclaimed and
// nothing is unpaid to the host; otherwise it is OPEN.
//
// Calling RecomputeTab twice with no intervening mutation yields identical
// output.
func RecomputeTab(tab *models.Tab) {
	for i := range tab.Items {
		RecomputeItem(&tab.Items[i])
	}
	for i := range tab.Participants {
		RecomputeParticipant(&tab.Participants[i], tab.Items)
	}
	tab.Totals = RecomputeTotals(tab.Items, tab.Participants, tab.TipAmount, tab.TaxRateBps)

	if tab.Status != models.TabClosed {
		if tab.Totals.UnclaimedTotal == 0 && tab.Totals.UnpaidToHost == 0 {
			tab.Status = models.TabReadyToClose
		} else {
			tab.Status = models.TabOpen
		}
	}
}

// PayRestaurant records a payment from a participant toward the tab itself
// (card payment through the provider, as opposed to MarkReceived, which is
// the host recording cash). The participant's PaidTotal increases by the
// amount and their status is set to PAID. The tab is recomputed before
// returning.
func PayRestaurant(tab *models.Tab, payerID string, amount models.Cents) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	p := tab.ParticipantByID(payerID)
	if p == nil {
		return ErrParticipantNotFound
	}
	p.PaidTotal += amount
	p.Status = models.PaymentPaid
	RecomputeTab(tab)
	return nil
}
