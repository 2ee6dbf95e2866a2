package stripe

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marioumm/woocommerce/internal/config"
	"github.com/marioumm/woocommerce/internal/order"
	"github.com/marioumm/woocommerce/internal/payment"
)

func testOrder() *order.Order {
	return &order.Order{
		ID:       321,
		Total:    "49.99",
		Currency: "USD",
		Billing:  order.Address{Email: "buyer@example.com"},
	}
}

func tokenData() []payment.Field {
	return []payment.Field{{Key: "payment_method_id", Value: "pm_card_visa"}}
}

func newTestAdapter(serverURL string) *Adapter {
	return New(config.Stripe{SecretKey: "sk_test_key", BaseURL: serverURL}, nil)
}

func TestAdapter_Attempt_Succeeded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payment_intents", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_key", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("Idempotency-Key"))
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		form := string(body)
		assert.Contains(t, form, "amount=4999")
		assert.Contains(t, form, "currency=usd")
		assert.Contains(t, form, "payment_method=pm_card_visa")
		assert.Contains(t, form, "confirm=true")
		assert.Contains(t, form, "metadata%5Border_id%5D=321")

		json.NewEncoder(w).Encode(map[string]string{"id": "pi_123", "status": "succeeded"})
	}))
	defer server.Close()

	outcome, err := newTestAdapter(server.URL).Attempt(context.Background(), testOrder(), tokenData())
	require.NoError(t, err)
	assert.Equal(t, payment.StatusCompleted, outcome.Status)
	assert.Equal(t, "pi_123", outcome.TransactionID)
}

func TestAdapter_Attempt_RequiresAction_PassesThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "pi_sca", "status": "requires_action"})
	}))
	defer server.Close()

	outcome, err := newTestAdapter(server.URL).Attempt(context.Background(), testOrder(), tokenData())
	require.NoError(t, err)
	assert.Equal(t, payment.StatusRequiresAction, outcome.Status)
	assert.Equal(t, "requires_action", outcome.StatusString())
	assert.Equal(t, "pi_sca", outcome.TransactionID)
}

func TestAdapter_Attempt_NewPaymentMethodNeeded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "pi_retry", "status": "requires_payment_method"})
	}))
	defer server.Close()

	outcome, err := newTestAdapter(server.URL).Attempt(context.Background(), testOrder(), tokenData())
	require.NoError(t, err)
	assert.Equal(t, payment.StatusRequiresAction, outcome.Status)
	assert.Equal(t, "requires_payment_method", outcome.StatusString())
}

func TestAdapter_Attempt_NonTerminalStatusIsPending(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "pi_proc", "status": "processing"})
	}))
	defer server.Close()

	outcome, err := newTestAdapter(server.URL).Attempt(context.Background(), testOrder(), tokenData())
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, outcome.Status)
	assert.Equal(t, "pending", outcome.StatusString())
}

func TestAdapter_Attempt_CardDeclined(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{
				"type": "card_error", "code": "card_declined",
				"message": "Your card was declined.", "decline_code": "insufficient_funds",
			},
		})
	}))
	defer server.Close()

	outcome, err := newTestAdapter(server.URL).Attempt(context.Background(), testOrder(), tokenData())
	require.Error(t, err)
	assert.Equal(t, payment.StatusFailed, outcome.Status)
	assert.Contains(t, err.Error(), "insufficient_funds")
	assert.Contains(t, err.Error(), "Your card was declined.")
}

func TestAdapter_Attempt_MissingToken_NoNetworkCall(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	outcome, err := newTestAdapter(server.URL).Attempt(context.Background(), testOrder(), nil)
	require.Error(t, err)
	assert.Equal(t, payment.StatusFailed, outcome.Status)
	assert.False(t, called, "missing token must not reach the provider")
}

func TestAdapter_Attempt_InvalidAmount_NoNetworkCall(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	for _, total := range []string{"0.00", "abc", ""} {
		ord := testOrder()
		ord.Total = total
		outcome, err := newTestAdapter(server.URL).Attempt(context.Background(), ord, tokenData())
		require.Error(t, err, "total %q", total)
		assert.Equal(t, payment.StatusFailed, outcome.Status)
	}
	assert.False(t, called)
}

func TestAdapter_Attempt_MissingSecretKey(t *testing.T) {
	adapter := New(config.Stripe{BaseURL: "http://unused.example.com"}, nil)
	outcome, err := adapter.Attempt(context.Background(), testOrder(), tokenData())
	require.Error(t, err)
	assert.Equal(t, payment.StatusFailed, outcome.Status)
	assert.Contains(t, err.Error(), "secret key")
}

func TestAdapter_Attempt_DefaultCurrency(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), "currency=usd")
		json.NewEncoder(w).Encode(map[string]string{"id": "pi_1", "status": "succeeded"})
	}))
	defer server.Close()

	ord := testOrder()
	ord.Currency = ""
	_, err := newTestAdapter(server.URL).Attempt(context.Background(), ord, tokenData())
	require.NoError(t, err)
}
