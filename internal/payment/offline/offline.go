// Package offline implements the manual payment adapters: direct bank
// transfer and cheque. Neither contacts a provider; the order waits on-hold
// until funds are confirmed by hand.
package offline

import (
	"context"
	"log"

	"github.com/marioumm/woocommerce/internal/order"
	"github.com/marioumm/woocommerce/internal/payment"
)

// Adapter implements payment.Adapter for a manual method.
type Adapter struct {
	method string
}

// NewBankTransfer creates the direct bank transfer (BACS) adapter.
func NewBankTransfer() *Adapter {
	return &Adapter{method: payment.MethodBACS}
}

// NewCheque creates the cheque adapter.
func NewCheque() *Adapter {
	return &Adapter{method: payment.MethodCheque}
}

// Name returns the payment method identifier this adapter serves.
func (a *Adapter) Name() string {
	return a.method
}

// Attempt records the order as awaiting manual payment confirmation.
func (a *Adapter) Attempt(_ context.Context, ord *order.Order, _ []payment.Field) (payment.Outcome, error) {
	log.Printf("%s: payment for order %d - awaiting payment", a.method, ord.ID)
	return payment.Outcome{Status: payment.StatusOnHold}, nil
}
