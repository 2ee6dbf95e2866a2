// Package tracking reads shipment tracking data off upstream orders and
// enriches it with carrier timelines from the 17track API. The whole
// surface is read only.
package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/marioumm/woocommerce/internal/wooclient"
)

// trackingMetaKey is the order meta entry the shipment tracking plugin
// stores its items under.
const trackingMetaKey = "_wc_shipment_tracking_items"

const defaultTrackAPIBaseURL = "https://api.17track.net"

// TimelineEvent is one carrier scan on a shipment's journey.
type TimelineEvent struct {
	Date        string `json:"date"`
	Time        string `json:"time,omitempty"`
	Status      string `json:"status"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
}

// Item is one shipment tracking entry on an order.
type Item struct {
	TrackingProvider       string          `json:"tracking_provider"`
	CustomTrackingProvider string          `json:"custom_tracking_provider,omitempty"`
	TrackingNumber         string          `json:"tracking_number"`
	DateShipped            string          `json:"date_shipped,omitempty"`
	CustomTrackingLink     string          `json:"custom_tracking_link,omitempty"`
	Timeline               []TimelineEvent `json:"timeline"`
}

// OrderTracking is the full tracking view of one order.
type OrderTracking struct {
	OrderID       int64           `json:"order_id"`
	OrderStatus   string          `json:"order_status"`
	TrackingItems []Item          `json:"tracking_items"`
	TotalTracking int             `json:"total_tracking"`
	Shipping      json.RawMessage `json:"shipping,omitempty"`
	ShippingLines json.RawMessage `json:"shipping_lines,omitempty"`
}

// Service resolves tracking data. The carrier API key is optional; without
// it timelines come back empty and only the plugin data is served.
type Service struct {
	woo        *wooclient.Client
	httpClient *http.Client
	apiKey     string
	apiBaseURL string
}

// NewService creates the tracking Service. apiBaseURL overrides the
// 17track endpoint, mainly for tests; empty means the production API.
func NewService(woo *wooclient.Client, apiKey, apiBaseURL string) *Service {
	if woo == nil {
		panic("woo client cannot be nil")
	}
	if apiBaseURL == "" {
		apiBaseURL = defaultTrackAPIBaseURL
	}
	return &Service{
		woo:        woo,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		apiKey:     apiKey,
		apiBaseURL: apiBaseURL,
	}
}

// OrderTracking fetches the order, extracts the shipment tracking items
// from its metadata, and attaches a carrier timeline to each. Timeline
// failures degrade to an empty timeline on that item.
func (s *Service) OrderTracking(ctx context.Context, orderID string) (*OrderTracking, error) {
	resp, err := s.woo.Get(ctx, "/orders/"+orderID, wooclient.Options{
		Version:   wooclient.V3,
		BasicAuth: true,
	})
	if err != nil {
		return nil, fmt.Errorf("tracking: fetching order %s: %w", orderID, err)
	}

	var ord struct {
		ID       int64  `json:"id"`
		Status   string `json:"status"`
		MetaData []struct {
			Key   string          `json:"key"`
			Value json.RawMessage `json:"value"`
		} `json:"meta_data"`
		Shipping      json.RawMessage `json:"shipping"`
		ShippingLines json.RawMessage `json:"shipping_lines"`
	}
	if err := json.Unmarshal(resp.Data, &ord); err != nil {
		return nil, fmt.Errorf("tracking: decoding order %s: %w", orderID, err)
	}

	var items []Item
	for _, meta := range ord.MetaData {
		if meta.Key != trackingMetaKey {
			continue
		}
		if err := json.Unmarshal(meta.Value, &items); err != nil {
			log.Printf("tracking: malformed tracking metadata on order %s: %v", orderID, err)
		}
		break
	}

	for i := range items {
		items[i].Timeline = []TimelineEvent{}
		if items[i].TrackingNumber != "" {
			items[i].Timeline = s.Timeline(ctx, items[i].TrackingNumber)
		}
	}

	return &OrderTracking{
		OrderID:       ord.ID,
		OrderStatus:   ord.Status,
		TrackingItems: items,
		TotalTracking: len(items),
		Shipping:      ord.Shipping,
		ShippingLines: ord.ShippingLines,
	}, nil
}

// ShipmentTrackings reads the shipment tracking plugin's own endpoint.
// Orders without the plugin data, or a missing plugin, yield an empty
// list rather than an error.
func (s *Service) ShipmentTrackings(ctx context.Context, orderID string) []Item {
	resp, err := s.woo.Get(ctx, "/orders/"+orderID+"/shipment-trackings", wooclient.Options{
		Version:   wooclient.V3,
		BasicAuth: true,
	})
	if err != nil {
		log.Printf("tracking: shipment tracking endpoint failed for order %s: %v", orderID, err)
		return []Item{}
	}

	var items []Item
	if err := json.Unmarshal(resp.Data, &items); err != nil {
		return []Item{}
	}
	if items == nil {
		items = []Item{}
	}
	return items
}

type trackInfoResponse struct {
	Data []struct {
		TrackInfo []struct {
			Date              string `json:"date"`
			Time              string `json:"time"`
			Status            string `json:"status"`
			StatusDescription string `json:"status_description"`
			Location          string `json:"location"`
			Details           string `json:"details"`
		} `json:"track_info"`
	} `json:"data"`
}

// Timeline fetches the carrier scan history for one tracking number,
// newest event first. Every failure path returns an empty timeline; the
// tracking view stays useful without carrier data.
func (s *Service) Timeline(ctx context.Context, trackingNumber string) []TimelineEvent {
	if s.apiKey == "" {
		log.Printf("tracking: carrier API key not configured, skipping timeline fetch")
		return []TimelineEvent{}
	}

	body, err := json.Marshal([]map[string]string{{"number": trackingNumber}})
	if err != nil {
		return []TimelineEvent{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.apiBaseURL+"/track/v2.2/gettrackinfo", bytes.NewReader(body))
	if err != nil {
		return []TimelineEvent{}
	}
	req.Header.Set("17token", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Printf("tracking: carrier API failed for %s: %v", trackingNumber, err)
		return []TimelineEvent{}
	}
	defer resp.Body.Close()

	var parsed trackInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		log.Printf("tracking: decoding carrier response for %s: %v", trackingNumber, err)
		return []TimelineEvent{}
	}
	if len(parsed.Data) == 0 {
		log.Printf("tracking: no carrier data for %s", trackingNumber)
		return []TimelineEvent{}
	}

	raw := parsed.Data[0].TrackInfo
	events := make([]TimelineEvent, 0, len(raw))
	// Carrier events arrive oldest first; the view wants newest first.
	for i := len(raw) - 1; i >= 0; i-- {
		event := raw[i]
		status := event.StatusDescription
		if status == "" {
			status = event.Status
		}
		if status == "" {
			status = "Unknown"
		}
		description := event.Details
		if description == "" {
			description = event.StatusDescription
		}
		events = append(events, TimelineEvent{
			Date:        event.Date,
			Time:        event.Time,
			Status:      status,
			Location:    event.Location,
			Description: description,
		})
	}
	return events
}
