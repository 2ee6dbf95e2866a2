// Package stripe implements the card-gateway payment adapter. It creates
// and immediately confirms a payment intent over Stripe's form-encoded HTTP
// API. Charges are never retried here: once a confirm request has been sent
// the safe failure mode is to report the attempt failed and let
// reconciliation settle the order, not to risk a double charge.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marioumm/woocommerce/internal/config"
	"github.com/marioumm/woocommerce/internal/order"
	"github.com/marioumm/woocommerce/internal/payment"
)

const (
	apiBaseURL      = "https://api.stripe.com/v1"
	defaultCurrency = "usd"
	requestTimeout  = 20 * time.Second
)

// Token key aliases accepted from checkout payment data.
var tokenKeys = []string{"stripe_token", "stripe_source"}

// Adapter implements payment.Adapter for Stripe.
type Adapter struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
}

// New creates a Stripe adapter. A missing secret key is tolerated until a
// charge is actually attempted.
func New(cfg config.Stripe, client *http.Client) *Adapter {
	if client == nil {
		client = &http.Client{Timeout: requestTimeout}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = apiBaseURL
	}
	return &Adapter{
		httpClient: client,
		baseURL:    baseURL,
		secretKey:  cfg.SecretKey,
	}
}

// Name returns the payment method identifier this adapter serves.
func (a *Adapter) Name() string {
	return payment.MethodStripe
}

// intentResponse is the subset of the payment intent object we act on.
type intentResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// errorResponse is Stripe's error envelope.
type errorResponse struct {
	Error struct {
		Type        string `json:"type"`
		Code        string `json:"code"`
		Message     string `json:"message"`
		DeclineCode string `json:"decline_code"`
	} `json:"error"`
}

// Attempt creates and confirms a payment intent for the order total.
func (a *Adapter) Attempt(ctx context.Context, ord *order.Order, data []payment.Field) (payment.Outcome, error) {
	token, ok := payment.Token(data, tokenKeys...)
	if !ok {
		return payment.Failed(), fmt.Errorf("stripe: payment token not provided for order %d", ord.ID)
	}

	if a.secretKey == "" {
		return payment.Failed(), fmt.Errorf("stripe: secret key is not configured")
	}

	cents, err := payment.MinorUnits(ord.Total)
	if err != nil {
		return payment.Failed(), fmt.Errorf("stripe: invalid amount for order %d: %w", ord.ID, err)
	}

	body := buildIntentPayload(ord, token, cents)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/payment_intents", strings.NewReader(body.Encode()))
	if err != nil {
		return payment.Failed(), fmt.Errorf("stripe: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Idempotency-Key", idempotencyKey(ord.ID))

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return payment.Failed(), fmt.Errorf("stripe: payment intent request for order %d failed: %w", ord.ID, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return payment.Failed(), fmt.Errorf("stripe: failed to read response for order %d: %w", ord.ID, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var stripeErr errorResponse
		if json.Unmarshal(raw, &stripeErr) == nil && stripeErr.Error.Message != "" {
			code := stripeErr.Error.Code
			if stripeErr.Error.DeclineCode != "" {
				code = stripeErr.Error.DeclineCode
			}
			return payment.Failed(), fmt.Errorf("stripe: charge for order %d declined (%s): %s", ord.ID, code, stripeErr.Error.Message)
		}
		return payment.Failed(), fmt.Errorf("stripe: payment intent for order %d returned HTTP %d", ord.ID, resp.StatusCode)
	}

	var intent intentResponse
	if err := json.Unmarshal(raw, &intent); err != nil {
		return payment.Failed(), fmt.Errorf("stripe: failed to decode intent for order %d: %w", ord.ID, err)
	}

	switch intent.Status {
	case "succeeded":
		log.Printf("stripe: payment succeeded for order %d - %s", ord.ID, intent.ID)
		return payment.Outcome{Status: payment.StatusCompleted, TransactionID: intent.ID}, nil
	case "requires_action", "requires_payment_method":
		// Surfaced verbatim so the caller can run the SCA/continuation flow.
		log.Printf("stripe: payment requires action for order %d: %s", ord.ID, intent.Status)
		return payment.Outcome{
			Status:         payment.StatusRequiresAction,
			ProviderStatus: intent.Status,
			TransactionID:  intent.ID,
		}, nil
	default:
		log.Printf("stripe: payment for order %d not completed, status %q", ord.ID, intent.Status)
		return payment.Outcome{Status: payment.StatusPending, TransactionID: intent.ID}, nil
	}
}

func buildIntentPayload(ord *order.Order, token string, cents int64) url.Values {
	currency := strings.ToLower(ord.Currency)
	if currency == "" {
		currency = defaultCurrency
	}

	body := url.Values{}
	body.Set("amount", strconv.FormatInt(cents, 10))
	body.Set("currency", currency)
	body.Set("payment_method", token)
	body.Set("confirmation_method", "manual")
	body.Set("confirm", "true")
	body.Set("description", fmt.Sprintf("Payment for WooCommerce order #%d", ord.ID))
	body.Set("metadata[order_id]", strconv.FormatInt(ord.ID, 10))
	body.Set("metadata[customer_email]", ord.Billing.Email)
	return body
}

// idempotencyKey guards the confirm call against transport-level duplicates.
func idempotencyKey(orderID int64) string {
	return fmt.Sprintf("order-%d-%s", orderID, uuid.NewString())
}
