// Package checkout implements the checkout orchestration workflow: order
// creation against the upstream platform, a single payment attempt through
// the matching provider adapter, and reconciliation of the order status
// with the payment outcome.
//
// Failure policy per step: order creation is fatal to the request; payment
// and reconciliation failures degrade to a safe terminal state instead,
// because by then a durable order already exists upstream. Payment attempts
// are never retried.
package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/marioumm/woocommerce/internal/metrics"
	"github.com/marioumm/woocommerce/internal/order"
	"github.com/marioumm/woocommerce/internal/payment"
)

// Defaults applied to the shipping line when the selection is incomplete.
const (
	defaultShippingMethodID = "flat_rate"
	defaultShippingTitle    = "Shipping"
	defaultShippingCost     = "0.00"
)

// OrderStore is the slice of the upstream order API the workflow needs.
type OrderStore interface {
	Create(ctx context.Context, payload order.CreatePayload) (*order.Order, error)
	Update(ctx context.Context, id int64, update order.Update) (*order.Order, error)
	Get(ctx context.Context, id int64) (*order.Order, error)
	List(ctx context.Context) (json.RawMessage, error)
	Cancel(ctx context.Context, id string) (json.RawMessage, error)
}

// Service sequences the checkout workflow.
type Service struct {
	orders   OrderStore
	registry *payment.Registry
}

// NewService creates the checkout Service.
func NewService(orders OrderStore, registry *payment.Registry) *Service {
	if orders == nil {
		panic("order store cannot be nil")
	}
	if registry == nil {
		panic("payment registry cannot be nil")
	}
	return &Service{orders: orders, registry: registry}
}

// Complete runs the full workflow for one checkout request. Only order
// creation failures surface as errors; everything after that point reports
// through the Result status fields.
func (s *Service) Complete(ctx context.Context, req Request) (*Result, error) {
	tracer := otel.Tracer("checkout")
	ctx, span := tracer.Start(ctx, "Checkout.Complete")
	defer span.End()

	log.Printf("checkout: starting complete checkout, method %s", req.PaymentMethod)

	ord, err := s.createOrder(ctx, req)
	if err != nil {
		metrics.RecordCheckout("error")
		return nil, err
	}

	outcome := s.attemptPayment(ctx, ord, req)
	metrics.RecordPaymentOutcome(ord.PaymentMethod, string(outcome.Status))

	final := s.reconcile(ctx, ord, req.PaymentMethod, outcome)

	log.Printf("checkout: completed for order %d, payment status %s", final.ID, outcome.StatusString())
	metrics.RecordCheckout("success")

	return &Result{
		Success:       true,
		OrderID:       final.ID,
		OrderNumber:   final.Number,
		OrderKey:      final.OrderKey,
		OrderStatus:   final.Status,
		PaymentStatus: outcome.StatusString(),
		Total:         final.Total,
		Currency:      final.Currency,
		Message:       "Order completed successfully",
	}, nil
}

// createOrder assembles the upstream order payload and submits it. This is
// the only fatal boundary in the workflow: no order exists yet, so there is
// nothing to roll back.
func (s *Service) createOrder(ctx context.Context, req Request) (*order.Order, error) {
	payload := buildOrderPayload(req)

	start := time.Now()
	ord, err := s.orders.Create(ctx, payload)
	metrics.ObserveOrderCreate(time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("checkout: failed to create order: %w", err)
	}

	log.Printf("checkout: order created with ID %d", ord.ID)
	return ord, nil
}

func buildOrderPayload(req Request) order.CreatePayload {
	lineItems := make([]order.LineItem, 0, len(req.Items))
	for _, item := range req.Items {
		line := order.LineItem{
			ProductID:   item.ProductID,
			VariationID: item.VariationID,
			Quantity:    item.Quantity,
		}
		for _, attr := range item.Variation {
			line.MetaData = append(line.MetaData, order.Meta{Key: attr.Attribute, Value: attr.Value})
		}
		lineItems = append(lineItems, line)
	}

	customer := req.CustomerData
	billing := toOrderAddress(customer.Address)
	billing.Email = customer.Email
	billing.Phone = customer.Phone

	// Shipping defaults to the billing address when none is supplied.
	shipping := toOrderAddress(customer.Address)
	if customer.ShippingAddress != nil {
		shipping = toOrderAddress(*customer.ShippingAddress)
	}

	var shippingLines []order.ShippingLine
	if opt := customer.ShippingOption; opt != nil {
		line := order.ShippingLine{
			MethodID:    opt.MethodID,
			MethodTitle: opt.MethodTitle,
			Total:       defaultShippingCost,
		}
		if line.MethodID == "" {
			line.MethodID = defaultShippingMethodID
		}
		if line.MethodTitle == "" {
			line.MethodTitle = defaultShippingTitle
		}
		if opt.Cost != nil {
			line.Total = strconv.FormatFloat(*opt.Cost, 'f', 2, 64)
		}
		shippingLines = append(shippingLines, line)
	}

	return order.CreatePayload{
		PaymentMethod: req.PaymentMethod,
		Billing:       billing,
		Shipping:      shipping,
		LineItems:     lineItems,
		ShippingLines: shippingLines,
		CustomerNote:  customer.OrderNotes,
		SetPaid:       payment.Immediate(req.PaymentMethod),
	}
}

func toOrderAddress(a Address) order.Address {
	return order.Address{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Company:   a.Company,
		Address1:  a.Address1,
		Address2:  a.Address2,
		City:      a.City,
		State:     a.State,
		Postcode:  a.Postcode,
		Country:   a.Country,
	}
}

// attemptPayment dispatches to the matching provider adapter. Adapter
// errors are absorbed into a failed outcome: an order already exists
// upstream and must still be reconciled, and retrying here could charge the
// customer twice.
func (s *Service) attemptPayment(ctx context.Context, ord *order.Order, req Request) payment.Outcome {
	if req.PaymentMethod == payment.MethodCOD || len(req.PaymentData) == 0 {
		return payment.Pending()
	}

	adapter, ok := s.registry.Lookup(ord.PaymentMethod)
	if !ok {
		log.Printf("checkout: no payment processing for method %q", ord.PaymentMethod)
		return payment.Pending()
	}

	outcome, err := adapter.Attempt(ctx, ord, req.PaymentData)
	if err != nil {
		log.Printf("checkout: payment processing failed for order %d: %v", ord.ID, err)
		return payment.Failed()
	}
	return outcome
}

// reconcile applies the status update derived from the payment outcome. An
// empty update issues no upstream write; a failed write keeps the original
// order as the final state rather than aborting.
func (s *Service) reconcile(ctx context.Context, ord *order.Order, method string, outcome payment.Outcome) *order.Order {
	update := statusUpdate(method, outcome)
	if update.Empty() {
		return ord
	}

	updated, err := s.orders.Update(ctx, ord.ID, update)
	if err != nil {
		log.Printf("checkout: failed to update order %d after payment: %v", ord.ID, err)
		metrics.RecordReconcileFailure()
		return ord
	}
	return updated
}

// ListOrders passes the upstream order collection through unchanged.
func (s *Service) ListOrders(ctx context.Context) (json.RawMessage, error) {
	return s.orders.List(ctx)
}

// GetOrder fetches a single order.
func (s *Service) GetOrder(ctx context.Context, id int64) (*order.Order, error) {
	return s.orders.Get(ctx, id)
}

// CancelOrder force-cancels an order; failures propagate unchanged.
func (s *Service) CancelOrder(ctx context.Context, id string) (json.RawMessage, error) {
	return s.orders.Cancel(ctx, id)
}
