package checkout

import (
	"github.com/marioumm/woocommerce/internal/order"
	"github.com/marioumm/woocommerce/internal/payment"
)

// statusUpdate is the pure reconciliation function: it maps a payment
// method and outcome to the order mutation to apply. An empty update means
// no upstream write happens at all.
//
// Pay-on-delivery always moves to processing without marking paid. A
// completed payment moves to processing and marks paid. A failed payment
// moves to failed. Any other non-pending outcome is applied verbatim,
// including provider-specific intermediate states. Pending leaves the order
// untouched. The transaction id, when present, is attached on every branch.
func statusUpdate(method string, outcome payment.Outcome) order.Update {
	var update order.Update

	switch {
	case method == payment.MethodCOD:
		update.Status = "processing"
	case outcome.Status == payment.StatusCompleted:
		update.Status = "processing"
		update.SetPaid = true
	case outcome.Status == payment.StatusFailed:
		update.Status = "failed"
	case outcome.Status != payment.StatusPending:
		update.Status = outcome.StatusString()
	}

	if outcome.TransactionID != "" {
		update.TransactionID = outcome.TransactionID
	}
	return update
}
