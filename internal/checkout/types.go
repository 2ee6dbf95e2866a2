package checkout

import (
	"github.com/marioumm/woocommerce/internal/payment"
)

// VariationAttr is one selected attribute of a product variation.
type VariationAttr struct {
	Attribute string `json:"attribute"`
	Value     string `json:"value"`
}

// Item is one ordered line in a checkout request.
type Item struct {
	ProductID   int64           `json:"product_id"`
	VariationID int64           `json:"variation_id,omitempty"`
	Quantity    int             `json:"quantity"`
	Variation   []VariationAttr `json:"variation,omitempty"`
}

// ShippingOption is the shipping method the customer selected. Cost is
// optional; a missing cost defaults to "0.00" on the order.
type ShippingOption struct {
	MethodID    string   `json:"method_id,omitempty"`
	MethodTitle string   `json:"method_title,omitempty"`
	Cost        *float64 `json:"cost,omitempty"`
}

// Address carries the customer-supplied address fields.
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
}

// CustomerData is the customer block of a checkout request. The top-level
// address doubles as the shipping address unless a distinct one is given.
type CustomerData struct {
	Address
	Email           string          `json:"email"`
	Phone           string          `json:"phone,omitempty"`
	ShippingAddress *Address        `json:"shipping_address,omitempty"`
	ShippingOption  *ShippingOption `json:"shipping_option,omitempty"`
	OrderNotes      string          `json:"order_notes,omitempty"`
}

// Request is the input to the checkout workflow.
type Request struct {
	Items         []Item          `json:"items"`
	CustomerData  CustomerData    `json:"customer_data"`
	PaymentMethod string          `json:"payment_method"`
	PaymentData   []payment.Field `json:"payment_data,omitempty"`
}

// Result is what the workflow reports back to the caller. Payment and
// reconciliation failures are reflected in the status fields rather than
// surfaced as errors.
type Result struct {
	Success       bool   `json:"success"`
	OrderID       int64  `json:"order_id"`
	OrderNumber   string `json:"order_number"`
	OrderKey      string `json:"order_key"`
	OrderStatus   string `json:"order_status"`
	PaymentStatus string `json:"payment_status"`
	Total         string `json:"total"`
	Currency      string `json:"currency"`
	Message       string `json:"message"`
}
