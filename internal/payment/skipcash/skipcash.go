// Package skipcash implements the regional-gateway payment adapter. Charges
// are posted to a configured SkipCash endpoint with bearer-token auth; the
// adapter fails closed when either the API key or base URL is missing.
package skipcash

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/marioumm/woocommerce/internal/config"
	"github.com/marioumm/woocommerce/internal/order"
	"github.com/marioumm/woocommerce/internal/payment"
)

const (
	paymentPath     = "/api/v1/payment"
	defaultCurrency = "usd"
	requestTimeout  = 20 * time.Second
)

var tokenKeys = []string{"skipcash_token", "skipcash_payment_method"}

// Adapter implements payment.Adapter for SkipCash.
type Adapter struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

// New creates a SkipCash adapter.
func New(cfg config.SkipCash, client *http.Client) *Adapter {
	if client == nil {
		client = &http.Client{Timeout: requestTimeout}
	}
	return &Adapter{
		httpClient: client,
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// Name returns the payment method identifier this adapter serves.
func (a *Adapter) Name() string {
	return payment.MethodSkipCash
}

type customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type chargeRequest struct {
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Reference   string            `json:"reference"`
	Customer    customer          `json:"customer"`
	Token       string            `json:"token"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata"`
}

type chargeResponse struct {
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
	PaymentURL    string `json:"payment_url"`
}

// Attempt posts a charge for the order total and maps the gateway status.
func (a *Adapter) Attempt(ctx context.Context, ord *order.Order, data []payment.Field) (payment.Outcome, error) {
	token, ok := payment.Token(data, tokenKeys...)
	if !ok {
		return payment.Failed(), fmt.Errorf("skipcash: payment token not provided for order %d", ord.ID)
	}

	if a.apiKey == "" || a.baseURL == "" {
		return payment.Failed(), fmt.Errorf("skipcash: API key or base URL is not configured")
	}

	cents, err := payment.MinorUnits(ord.Total)
	if err != nil {
		return payment.Failed(), fmt.Errorf("skipcash: invalid amount for order %d: %w", ord.ID, err)
	}

	currency := strings.ToLower(ord.Currency)
	if currency == "" {
		currency = defaultCurrency
	}

	charge := chargeRequest{
		Amount:    cents,
		Currency:  currency,
		Reference: fmt.Sprintf("%d", ord.ID),
		Customer: customer{
			Name:  strings.TrimSpace(ord.Billing.FirstName + " " + ord.Billing.LastName),
			Email: ord.Billing.Email,
			Phone: ord.Billing.Phone,
		},
		Token:       token,
		Description: fmt.Sprintf("Payment for WooCommerce order #%d", ord.ID),
		Metadata: map[string]string{
			"order_id":       fmt.Sprintf("%d", ord.ID),
			"customer_email": ord.Billing.Email,
		},
	}

	body, err := json.Marshal(charge)
	if err != nil {
		return payment.Failed(), fmt.Errorf("skipcash: failed to encode charge for order %d: %w", ord.ID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+paymentPath, bytes.NewReader(body))
	if err != nil {
		return payment.Failed(), fmt.Errorf("skipcash: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return payment.Failed(), fmt.Errorf("skipcash: charge request for order %d failed: %w", ord.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return payment.Failed(), fmt.Errorf("skipcash: charge for order %d returned HTTP %d", ord.ID, resp.StatusCode)
	}

	var result chargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return payment.Failed(), fmt.Errorf("skipcash: failed to decode response for order %d: %w", ord.ID, err)
	}

	return mapStatus(ord.ID, result), nil
}

func mapStatus(orderID int64, result chargeResponse) payment.Outcome {
	switch result.Status {
	case "succeeded", "completed":
		log.Printf("skipcash: payment succeeded for order %d - %s", orderID, result.TransactionID)
		return payment.Outcome{
			Status:        payment.StatusCompleted,
			TransactionID: result.TransactionID,
			RedirectURL:   result.PaymentURL,
		}
	case "requires_action":
		log.Printf("skipcash: payment requires action for order %d", orderID)
		return payment.Outcome{
			Status:         payment.StatusRequiresAction,
			ProviderStatus: result.Status,
			TransactionID:  result.TransactionID,
			RedirectURL:    result.PaymentURL,
		}
	case "pending", "":
		return payment.Outcome{
			Status:        payment.StatusPending,
			TransactionID: result.TransactionID,
			RedirectURL:   result.PaymentURL,
		}
	case "failed":
		log.Printf("skipcash: payment failed for order %d", orderID)
		return payment.Outcome{Status: payment.StatusFailed, TransactionID: result.TransactionID}
	case "on-hold":
		return payment.Outcome{Status: payment.StatusOnHold, TransactionID: result.TransactionID}
	default:
		// Provider-specific intermediate state, carried through verbatim for
		// the reconciler's pass-through branch.
		log.Printf("skipcash: payment for order %d not completed, status %q", orderID, result.Status)
		return payment.Outcome{
			Status:         payment.StatusRequiresAction,
			ProviderStatus: result.Status,
			TransactionID:  result.TransactionID,
			RedirectURL:    result.PaymentURL,
		}
	}
}
