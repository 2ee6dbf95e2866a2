package skipcash

import (
	"context"
	"encoding/json"
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
		ID:       88,
		Total:    "120.50",
		Currency: "QAR",
		Billing: order.Address{
			FirstName: "Amal",
			LastName:  "Hassan",
			Email:     "amal@example.com",
			Phone:     "+97450000000",
		},
	}
}

func tokenData() []payment.Field {
	return []payment.Field{{Key: "skipcash_token", Value: "sc_tok_1"}}
}

func newTestAdapter(serverURL string) *Adapter {
	return New(config.SkipCash{APIKey: "sc_key", BaseURL: serverURL}, nil)
}

func TestAdapter_Attempt_Succeeded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/payment", r.URL.Path)
		assert.Equal(t, "Bearer sc_key", r.Header.Get("Authorization"))

		var charge map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&charge))
		assert.Equal(t, float64(12050), charge["amount"])
		assert.Equal(t, "qar", charge["currency"])
		assert.Equal(t, "88", charge["reference"])
		assert.Equal(t, "sc_tok_1", charge["token"])

		cust := charge["customer"].(map[string]any)
		assert.Equal(t, "Amal Hassan", cust["name"])
		assert.Equal(t, "amal@example.com", cust["email"])

		json.NewEncoder(w).Encode(map[string]string{
			"status": "succeeded", "transaction_id": "sc_txn_9", "payment_url": "https://pay.example.com/9",
		})
	}))
	defer server.Close()

	outcome, err := newTestAdapter(server.URL).Attempt(context.Background(), testOrder(), tokenData())
	require.NoError(t, err)
	assert.Equal(t, payment.StatusCompleted, outcome.Status)
	assert.Equal(t, "sc_txn_9", outcome.TransactionID)
	assert.Equal(t, "https://pay.example.com/9", outcome.RedirectURL)
}

func TestAdapter_Attempt_RequiresAction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"status": "requires_action", "payment_url": "https://pay.example.com/3ds",
		})
	}))
	defer server.Close()

	outcome, err := newTestAdapter(server.URL).Attempt(context.Background(), testOrder(), tokenData())
	require.NoError(t, err)
	assert.Equal(t, payment.StatusRequiresAction, outcome.Status)
	assert.Equal(t, "requires_action", outcome.StatusString())
	assert.Equal(t, "https://pay.example.com/3ds", outcome.RedirectURL)
}

func TestAdapter_Attempt_PendingAndEmptyStatus(t *testing.T) {
	for _, status := range []string{"pending", ""} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"status": status, "payment_url": "https://pay.example.com/p"})
		}))

		outcome, err := newTestAdapter(server.URL).Attempt(context.Background(), testOrder(), tokenData())
		require.NoError(t, err)
		assert.Equal(t, payment.StatusPending, outcome.Status, "status %q", status)
		assert.Equal(t, "https://pay.example.com/p", outcome.RedirectURL)
		server.Close()
	}
}

func TestAdapter_Attempt_UnknownStatusPassesThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "awaiting_review", "transaction_id": "sc_1"})
	}))
	defer server.Close()

	outcome, err := newTestAdapter(server.URL).Attempt(context.Background(), testOrder(), tokenData())
	require.NoError(t, err)
	assert.Equal(t, "awaiting_review", outcome.StatusString())
	assert.Equal(t, "sc_1", outcome.TransactionID)
}

func TestAdapter_Attempt_MissingConfig_FailsClosed(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	adapter := New(config.SkipCash{BaseURL: server.URL}, nil) // no API key
	outcome, err := adapter.Attempt(context.Background(), testOrder(), tokenData())
	require.Error(t, err)
	assert.Equal(t, payment.StatusFailed, outcome.Status)
	assert.False(t, called)
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
	assert.False(t, called)
}

func TestAdapter_Attempt_InvalidAmount_NoNetworkCall(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	ord := testOrder()
	ord.Total = "0.00"
	outcome, err := newTestAdapter(server.URL).Attempt(context.Background(), ord, tokenData())
	require.Error(t, err)
	assert.Equal(t, payment.StatusFailed, outcome.Status)
	assert.False(t, called)
}

func TestAdapter_Attempt_GatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	outcome, err := newTestAdapter(server.URL).Attempt(context.Background(), testOrder(), tokenData())
	require.Error(t, err)
	assert.Equal(t, payment.StatusFailed, outcome.Status)
	assert.Contains(t, err.Error(), "502")
}
