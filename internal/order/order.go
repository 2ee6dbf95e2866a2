// Package order exposes a typed view of the upstream /orders resource. The
// upstream platform owns the order store; this package only shapes requests
// and decodes replies.
package order

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/marioumm/woocommerce/internal/wooclient"
)

// Meta is a generic key/value entry in upstream meta_data blocks.
type Meta struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Address is a billing or shipping address block.
type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company,omitempty"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2,omitempty"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// LineItem is a single purchasable row in an order.
type LineItem struct {
	ProductID   int64  `json:"product_id"`
	VariationID int64  `json:"variation_id,omitempty"`
	Quantity    int    `json:"quantity"`
	MetaData    []Meta `json:"meta_data,omitempty"`
}

// ShippingLine is the chosen shipping method and its cost.
type ShippingLine struct {
	MethodID    string `json:"method_id"`
	MethodTitle string `json:"method_title"`
	Total       string `json:"total"`
}

// Order mirrors the upstream order record. Total is a decimal string as the
// platform reports it.
type Order struct {
	ID                 int64          `json:"id"`
	Number             string         `json:"number"`
	OrderKey           string         `json:"order_key"`
	Status             string         `json:"status"`
	Currency           string         `json:"currency"`
	Total              string         `json:"total"`
	PaymentMethod      string         `json:"payment_method"`
	PaymentMethodTitle string         `json:"payment_method_title"`
	TransactionID      string         `json:"transaction_id,omitempty"`
	DatePaid           string         `json:"date_paid,omitempty"`
	CustomerNote       string         `json:"customer_note,omitempty"`
	Billing            Address        `json:"billing"`
	Shipping           Address        `json:"shipping"`
	LineItems          []LineItem     `json:"line_items"`
	ShippingLines      []ShippingLine `json:"shipping_lines"`
	MetaData           []Meta         `json:"meta_data,omitempty"`
}

// CreatePayload is the body for POST /orders.
type CreatePayload struct {
	PaymentMethod string         `json:"payment_method"`
	Billing       Address        `json:"billing"`
	Shipping      Address        `json:"shipping"`
	LineItems     []LineItem     `json:"line_items"`
	ShippingLines []ShippingLine `json:"shipping_lines"`
	CustomerNote  string         `json:"customer_note"`
	SetPaid       bool           `json:"set_paid"`
}

// Update is a partial order mutation. Zero-value fields are omitted from the
// request; SetPaid is only ever sent as true.
type Update struct {
	Status        string `json:"status,omitempty"`
	SetPaid       bool   `json:"set_paid,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
}

// Empty reports whether applying the update would be a no-op write.
func (u Update) Empty() bool {
	return u.Status == "" && !u.SetPaid && u.TransactionID == ""
}

var v3Opts = wooclient.Options{Version: wooclient.V3, BasicAuth: true}

// Service performs order operations against the upstream platform.
type Service struct {
	client *wooclient.Client
}

// NewService creates an order Service backed by the given upstream client.
func NewService(client *wooclient.Client) *Service {
	return &Service{client: client}
}

// Create submits a new order.
func (s *Service) Create(ctx context.Context, payload CreatePayload) (*Order, error) {
	resp, err := s.client.Post(ctx, "/orders", payload, v3Opts)
	if err != nil {
		return nil, fmt.Errorf("order: failed to create order: %w", err)
	}
	return decodeOrder(resp.Data)
}

// Update applies a partial mutation to an existing order.
func (s *Service) Update(ctx context.Context, id int64, update Update) (*Order, error) {
	resp, err := s.client.Put(ctx, fmt.Sprintf("/orders/%d", id), update, v3Opts)
	if err != nil {
		return nil, fmt.Errorf("order: failed to update order %d: %w", id, err)
	}
	return decodeOrder(resp.Data)
}

// Get fetches a single order by id.
func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	resp, err := s.client.Get(ctx, fmt.Sprintf("/orders/%d", id), v3Opts)
	if err != nil {
		return nil, fmt.Errorf("order: failed to fetch order %d: %w", id, err)
	}
	return decodeOrder(resp.Data)
}

// List returns the raw upstream order collection. Callers pass it through
// unchanged, so no decoding happens here.
func (s *Service) List(ctx context.Context) (json.RawMessage, error) {
	resp, err := s.client.Get(ctx, "/orders", v3Opts)
	if err != nil {
		return nil, fmt.Errorf("order: failed to list orders: %w", err)
	}
	return resp.Data, nil
}

// Cancel force-cancels an order. Failures propagate to the caller as-is; no
// compensating behavior is defined for cancellation.
func (s *Service) Cancel(ctx context.Context, id string) (json.RawMessage, error) {
	resp, err := s.client.Put(ctx, fmt.Sprintf("/orders/%s?force=true", id), map[string]string{"status": "cancelled"}, v3Opts)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func decodeOrder(data json.RawMessage) (*Order, error) {
	var o Order
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("order: failed to decode upstream order: %w", err)
	}
	return &o, nil
}
