package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marioumm/woocommerce/internal/order"
)

func TestToken(t *testing.T) {
	data := []Field{
		{Key: "other", Value: "x"},
		{Key: "stripe_token", Value: "tok_abc"},
	}

	tok, ok := Token(data, "stripe_token", "stripe_source")
	require.True(t, ok)
	assert.Equal(t, "tok_abc", tok)

	// The generic method-id key is accepted by every adapter.
	tok, ok = Token([]Field{{Key: "payment_method_id", Value: "pm_123"}}, "stripe_token")
	require.True(t, ok)
	assert.Equal(t, "pm_123", tok)

	_, ok = Token([]Field{{Key: "paypal_token", Value: "t"}}, "stripe_token")
	assert.False(t, ok)

	_, ok = Token([]Field{{Key: "stripe_token", Value: ""}}, "stripe_token")
	assert.False(t, ok, "empty values do not count as a token")

	_, ok = Token(nil, "stripe_token")
	assert.False(t, ok)
}

func TestMinorUnits(t *testing.T) {
	cents, err := MinorUnits("123.45")
	require.NoError(t, err)
	assert.Equal(t, int64(12345), cents)

	cents, err = MinorUnits("10.005")
	require.NoError(t, err)
	assert.Equal(t, int64(1001), cents, "half cents round to nearest")

	_, err = MinorUnits("0.00")
	require.Error(t, err)

	_, err = MinorUnits("-5.00")
	require.Error(t, err)

	_, err = MinorUnits("not-a-number")
	require.Error(t, err)

	_, err = MinorUnits("")
	require.Error(t, err)
}

func TestImmediate(t *testing.T) {
	assert.True(t, Immediate(MethodStripe))
	assert.True(t, Immediate(MethodPayPal))
	assert.True(t, Immediate(MethodSkipCash))
	assert.False(t, Immediate(MethodCOD))
	assert.False(t, Immediate(MethodBACS))
	assert.False(t, Immediate(MethodCheque))
	assert.False(t, Immediate("giftcard"))
}

type staticAdapter struct {
	name    string
	outcome Outcome
}

func (s staticAdapter) Name() string { return s.name }

func (s staticAdapter) Attempt(context.Context, *order.Order, []Field) (Outcome, error) {
	return s.outcome, nil
}

func TestRegistry_Lookup(t *testing.T) {
	reg := NewRegistry(
		staticAdapter{name: MethodStripe, outcome: Outcome{Status: StatusCompleted}},
		staticAdapter{name: MethodBACS, outcome: Outcome{Status: StatusOnHold}},
	)

	a, ok := reg.Lookup(MethodStripe)
	require.True(t, ok)
	assert.Equal(t, MethodStripe, a.Name())

	_, ok = reg.Lookup("giftcard")
	assert.False(t, ok)

	assert.ElementsMatch(t, []string{MethodStripe, MethodBACS}, reg.Methods())
}

func TestOutcome_StatusString(t *testing.T) {
	assert.Equal(t, "completed", Outcome{Status: StatusCompleted}.StatusString())
	assert.Equal(t, "requires_payment_method", Outcome{
		Status:         StatusRequiresAction,
		ProviderStatus: "requires_payment_method",
	}.StatusString())
	assert.Equal(t, "pending", Pending().StatusString())
	assert.Equal(t, "failed", Failed().StatusString())
}
