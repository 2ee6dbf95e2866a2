package offline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marioumm/woocommerce/internal/order"
	"github.com/marioumm/woocommerce/internal/payment"
)

func TestBankTransfer_AlwaysOnHold(t *testing.T) {
	adapter := NewBankTransfer()
	assert.Equal(t, payment.MethodBACS, adapter.Name())

	outcome, err := adapter.Attempt(context.Background(), &order.Order{ID: 1, Total: "10.00"}, nil)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusOnHold, outcome.Status)
	assert.Empty(t, outcome.TransactionID)
}

func TestCheque_AlwaysOnHold(t *testing.T) {
	adapter := NewCheque()
	assert.Equal(t, payment.MethodCheque, adapter.Name())

	// No token and no amount validation: manual methods never reach a provider.
	outcome, err := adapter.Attempt(context.Background(), &order.Order{ID: 2, Total: "0.00"}, nil)
	require.NoError(t, err)
	assert.Equal(t, payment.StatusOnHold, outcome.Status)
}
