// Package payment defines the uniform contract every payment provider
// adapter implements, plus the dispatch table the checkout orchestrator
// selects adapters from. Adapters own all provider-specific calls and error
// mapping, normalizing raw provider responses into a common Outcome.
package payment

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/marioumm/woocommerce/internal/order"
)

// Recognized payment method identifiers. Anything else is treated as
// unrecognized by the dispatcher and settles as pending.
const (
	MethodStripe   = "stripe"
	MethodPayPal   = "paypal"
	MethodSkipCash = "skipcash"
	MethodBACS     = "bacs"
	MethodCheque   = "cheque"
	MethodCOD      = "cod"
)

// tokenKeyMethodID is accepted by every adapter as a token alias.
const tokenKeyMethodID = "payment_method_id"

// Field is one opaque provider-specific key/value pair supplied with a
// checkout request.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Adapter is implemented by each payment gateway. Attempt charges the given
// order using the supplied payment data and reports the outcome. An error
// return means the attempt itself broke; the caller downgrades it to a
// failed outcome rather than propagating, because the order already exists
// upstream.
type Adapter interface {
	Name() string
	Attempt(ctx context.Context, ord *order.Order, data []Field) (Outcome, error)
}

// Immediate reports whether the method settles synchronously; such orders
// are created with set_paid requested up front.
func Immediate(method string) bool {
	switch method {
	case MethodStripe, MethodPayPal, MethodSkipCash:
		return true
	}
	return false
}

// Token finds a provider token in the payment data by the adapter's accepted
// key names. The generic method-id key is always accepted.
func Token(data []Field, keys ...string) (string, bool) {
	accepted := append(keys, tokenKeyMethodID)
	for _, field := range data {
		for _, key := range accepted {
			if field.Key == key && field.Value != "" {
				return field.Value, true
			}
		}
	}
	return "", false
}

// MinorUnits converts an upstream decimal total into the provider minor
// unit (cents). Non-numeric or non-positive totals are a caller-input
// defect and error without any provider contact.
func MinorUnits(total string) (int64, error) {
	amount, err := strconv.ParseFloat(total, 64)
	if err != nil {
		return 0, fmt.Errorf("payment: order total %q is not numeric", total)
	}
	cents := int64(math.Round(amount * 100))
	if cents <= 0 {
		return 0, fmt.Errorf("payment: order total %q is not positive", total)
	}
	return cents, nil
}

// Registry is the closed dispatch table from method identifier to adapter.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds a Registry keyed by each adapter's name.
func NewRegistry(adapters ...Adapter) *Registry {
	table := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		table[a.Name()] = a
	}
	return &Registry{adapters: table}
}

// Lookup returns the adapter registered for a payment method, if any.
func (r *Registry) Lookup(method string) (Adapter, bool) {
	a, ok := r.adapters[method]
	return a, ok
}

// Methods lists the registered method identifiers.
func (r *Registry) Methods() []string {
	methods := make([]string, 0, len(r.adapters))
	for m := range r.adapters {
		methods = append(methods, m)
	}
	return methods
}
