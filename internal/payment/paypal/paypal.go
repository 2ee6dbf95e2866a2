// Package paypal implements the wallet-gateway payment adapter. It is the
// integration seam for a real PayPal SDK: the token is validated, then a
// success outcome is synthesized with a generated transaction id.
package paypal

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/marioumm/woocommerce/internal/order"
	"github.com/marioumm/woocommerce/internal/payment"
)

// Adapter implements payment.Adapter for PayPal.
type Adapter struct{}

// New creates a PayPal adapter.
func New() *Adapter {
	return &Adapter{}
}

// Name returns the payment method identifier this adapter serves.
func (a *Adapter) Name() string {
	return payment.MethodPayPal
}

// Attempt validates the wallet token and settles the charge.
func (a *Adapter) Attempt(_ context.Context, ord *order.Order, data []payment.Field) (payment.Outcome, error) {
	if _, ok := payment.Token(data, "paypal_token"); !ok {
		return payment.Failed(), fmt.Errorf("paypal: payment token not provided for order %d", ord.ID)
	}

	if _, err := payment.MinorUnits(ord.Total); err != nil {
		return payment.Failed(), fmt.Errorf("paypal: invalid amount for order %d: %w", ord.ID, err)
	}

	transactionID := "paypal_" + uuid.NewString()
	log.Printf("paypal: payment processed for order %d - %s", ord.ID, transactionID)
	return payment.Outcome{Status: payment.StatusCompleted, TransactionID: transactionID}, nil
}
