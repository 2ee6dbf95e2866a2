// Package shipping exposes the platform shipping configuration (zones,
// locations, methods) and computes the shipping rates available for a
// destination and cart.
package shipping

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"

	"github.com/marioumm/woocommerce/internal/wooclient"
)

// defaultZoneID is the platform's "Locations not covered by your other
// zones" zone. It is skipped while matching and used as the fallback.
const defaultZoneID = 1

// Method is a globally registered shipping method.
type Method struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Zone is one shipping zone.
type Zone struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// ZoneLocation is one location attached to a zone. Type is one of
// "country", "state", "postcode", or "continent"; state codes arrive as
// "CC:SS".
type ZoneLocation struct {
	Code string `json:"code"`
	Type string `json:"type"`
}

// Setting is one entry of a zone method's settings block. Only the
// resolved value matters here.
type Setting struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// ZoneMethod is a shipping method instance configured on a zone.
type ZoneMethod struct {
	InstanceID        int64              `json:"instance_id"`
	Title             string             `json:"title"`
	Order             int                `json:"order"`
	Enabled           bool               `json:"enabled"`
	MethodID          string             `json:"method_id"`
	MethodTitle       string             `json:"method_title"`
	MethodDescription string             `json:"method_description"`
	Settings          map[string]Setting `json:"settings"`
}

// CartItem is one line of the cart a rate is being computed for.
type CartItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// RateParams is the input to a rate calculation.
type RateParams struct {
	Country   string
	State     string
	Postcode  string
	CartItems []CartItem
	CartTotal float64
}

// Rate is one computed shipping option.
type Rate struct {
	InstanceID  int64   `json:"instance_id"`
	MethodID    string  `json:"method_id"`
	Title       string  `json:"title"`
	Cost        float64 `json:"cost"`
	Description string  `json:"description,omitempty"`
}

// ZoneOverview bundles a zone with its locations and method instances.
type ZoneOverview struct {
	Zone      Zone           `json:"zone"`
	Locations []ZoneLocation `json:"locations"`
	Methods   []ZoneMethod   `json:"methods"`
}

// Service reads shipping configuration from the authenticated upstream API.
type Service struct {
	woo *wooclient.Client
}

// NewService creates the shipping Service.
func NewService(woo *wooclient.Client) *Service {
	if woo == nil {
		panic("woo client cannot be nil")
	}
	return &Service{woo: woo}
}

func v3Opts() wooclient.Options {
	return wooclient.Options{Version: wooclient.V3, BasicAuth: true}
}

// Methods lists all registered shipping methods.
func (s *Service) Methods(ctx context.Context) ([]Method, error) {
	resp, err := s.woo.Get(ctx, "/shipping_methods", v3Opts())
	if err != nil {
		return nil, fmt.Errorf("shipping: fetching methods: %w", err)
	}
	var methods []Method
	if err := json.Unmarshal(resp.Data, &methods); err != nil {
		return nil, fmt.Errorf("shipping: decoding methods: %w", err)
	}
	return methods, nil
}

// Zones lists all shipping zones.
func (s *Service) Zones(ctx context.Context) ([]Zone, error) {
	resp, err := s.woo.Get(ctx, "/shipping/zones", v3Opts())
	if err != nil {
		return nil, fmt.Errorf("shipping: fetching zones: %w", err)
	}
	var zones []Zone
	if err := json.Unmarshal(resp.Data, &zones); err != nil {
		return nil, fmt.Errorf("shipping: decoding zones: %w", err)
	}
	return zones, nil
}

// ZoneLocations lists the locations attached to a zone.
func (s *Service) ZoneLocations(ctx context.Context, zoneID int64) ([]ZoneLocation, error) {
	resp, err := s.woo.Get(ctx, fmt.Sprintf("/shipping/zones/%d/locations", zoneID), v3Opts())
	if err != nil {
		return nil, fmt.Errorf("shipping: fetching locations for zone %d: %w", zoneID, err)
	}
	var locations []ZoneLocation
	if err := json.Unmarshal(resp.Data, &locations); err != nil {
		return nil, fmt.Errorf("shipping: decoding locations for zone %d: %w", zoneID, err)
	}
	return locations, nil
}

// ZoneMethods lists the method instances configured on a zone.
func (s *Service) ZoneMethods(ctx context.Context, zoneID int64) ([]ZoneMethod, error) {
	resp, err := s.woo.Get(ctx, fmt.Sprintf("/shipping/zones/%d/methods", zoneID), v3Opts())
	if err != nil {
		return nil, fmt.Errorf("shipping: fetching methods for zone %d: %w", zoneID, err)
	}
	var methods []ZoneMethod
	if err := json.Unmarshal(resp.Data, &methods); err != nil {
		return nil, fmt.Errorf("shipping: decoding methods for zone %d: %w", zoneID, err)
	}
	return methods, nil
}

// ZonesOverview returns every zone with its locations and methods.
func (s *Service) ZonesOverview(ctx context.Context) ([]ZoneOverview, error) {
	zones, err := s.Zones(ctx)
	if err != nil {
		return nil, err
	}

	overview := make([]ZoneOverview, 0, len(zones))
	for _, zone := range zones {
		locations, err := s.ZoneLocations(ctx, zone.ID)
		if err != nil {
			return nil, err
		}
		methods, err := s.ZoneMethods(ctx, zone.ID)
		if err != nil {
			return nil, err
		}
		overview = append(overview, ZoneOverview{Zone: zone, Locations: locations, Methods: methods})
	}
	return overview, nil
}

// ZoneForLocation matches a destination against the configured zones. The
// default zone never matches directly; it is returned as the fallback when
// no other zone covers the destination. Continent locations are not
// matched.
func (s *Service) ZoneForLocation(ctx context.Context, country, state, postcode string) (*Zone, error) {
	zones, err := s.Zones(ctx)
	if err != nil {
		return nil, err
	}

	for _, zone := range zones {
		if zone.ID == defaultZoneID {
			continue
		}
		locations, err := s.ZoneLocations(ctx, zone.ID)
		if err != nil {
			return nil, err
		}
		for _, loc := range locations {
			if locationMatches(loc, country, state, postcode) {
				matched := zone
				return &matched, nil
			}
		}
	}

	for _, zone := range zones {
		if zone.ID == defaultZoneID {
			fallback := zone
			return &fallback, nil
		}
	}
	return nil, nil
}

func locationMatches(loc ZoneLocation, country, state, postcode string) bool {
	switch loc.Type {
	case "country":
		return loc.Code == country
	case "state":
		return loc.Code == country+":"+state
	case "postcode":
		return loc.Code == postcode
	default:
		return false
	}
}

// Rates computes the shipping options available for the given destination
// and cart. Methods whose requirements are not met are omitted; the rest
// come back sorted by cost ascending.
func (s *Service) Rates(ctx context.Context, params RateParams) ([]Rate, error) {
	zone, err := s.ZoneForLocation(ctx, params.Country, params.State, params.Postcode)
	if err != nil {
		return nil, err
	}
	if zone == nil {
		log.Printf("shipping: no zone covers destination %s", params.Country)
		return []Rate{}, nil
	}

	methods, err := s.ZoneMethods(ctx, zone.ID)
	if err != nil {
		return nil, err
	}

	rates := make([]Rate, 0, len(methods))
	for _, method := range methods {
		if !method.Enabled {
			continue
		}
		cost, available := methodCost(method, params)
		if !available {
			continue
		}
		rates = append(rates, Rate{
			InstanceID:  method.InstanceID,
			MethodID:    method.MethodID,
			Title:       method.Title,
			Cost:        cost,
			Description: method.MethodDescription,
		})
	}

	sort.Slice(rates, func(i, j int) bool { return rates[i].Cost < rates[j].Cost })
	return rates, nil
}

// methodCost computes the cost of one method instance. The second return
// is false when the method is configured but not available for this cart,
// such as free shipping below its minimum amount.
func methodCost(method ZoneMethod, params RateParams) (float64, bool) {
	switch method.MethodID {
	case "flat_rate":
		cost := parseSetting(method.Settings, "cost")
		if cost < 0 {
			cost = 0
		}
		return cost, true
	case "free_shipping":
		return freeShippingCost(method.Settings, params.CartTotal)
	case "local_pickup":
		return 0, true
	default:
		if setting, ok := method.Settings["cost"]; ok && setting.Value != "" {
			return evaluateCostExpression(setting.Value, params), true
		}
		return 0, true
	}
}

// freeShippingCost applies the method's requirement setting. Coupon-based
// requirements cannot be satisfied here because no coupon state is carried
// on the request.
func freeShippingCost(settings map[string]Setting, cartTotal float64) (float64, bool) {
	requires := ""
	if setting, ok := settings["requires"]; ok {
		requires = setting.Value
	}
	minAmount := parseSetting(settings, "min_amount")

	switch requires {
	case "min_amount", "either", "both":
		if cartTotal >= minAmount {
			return 0, true
		}
		return 0, false
	case "coupon":
		return 0, false
	default:
		return 0, true
	}
}

var feePattern = regexp.MustCompile(`\[fee\s+percent="([^"]+)"(?:\s+min_fee="([^"]*)")?(?:\s+max_fee="([^"]*)")?\]`)

// evaluateCostExpression resolves a platform cost expression such as
// "10 + 2 * [qty]" or "[fee percent=\"10\" min_fee=\"5\"]". Placeholders
// are substituted first and the remaining arithmetic goes through an
// expression evaluator. An expression that cannot be evaluated costs zero.
func evaluateCostExpression(expr string, params RateParams) float64 {
	totalQty := 0
	for _, item := range params.CartItems {
		totalQty += item.Quantity
	}

	resolved := strings.ReplaceAll(expr, "[qty]", strconv.Itoa(totalQty))
	resolved = strings.ReplaceAll(resolved, "[cost]", strconv.FormatFloat(params.CartTotal, 'f', -1, 64))

	resolved = feePattern.ReplaceAllStringFunc(resolved, func(match string) string {
		groups := feePattern.FindStringSubmatch(match)
		percent, err := strconv.ParseFloat(groups[1], 64)
		if err != nil {
			return "0"
		}
		fee := params.CartTotal * percent / 100
		if groups[2] != "" {
			if minFee, err := strconv.ParseFloat(groups[2], 64); err == nil && fee < minFee {
				fee = minFee
			}
		}
		if groups[3] != "" {
			if maxFee, err := strconv.ParseFloat(groups[3], 64); err == nil && fee > maxFee {
				fee = maxFee
			}
		}
		return strconv.FormatFloat(fee, 'f', -1, 64)
	})

	evaluable, err := govaluate.NewEvaluableExpression(resolved)
	if err != nil {
		log.Printf("shipping: invalid cost expression %q: %v", expr, err)
		return 0
	}
	result, err := evaluable.Evaluate(nil)
	if err != nil {
		log.Printf("shipping: evaluating cost expression %q: %v", expr, err)
		return 0
	}

	cost, ok := result.(float64)
	if !ok || cost < 0 {
		return 0
	}
	return cost
}

func parseSetting(settings map[string]Setting, key string) float64 {
	setting, ok := settings[key]
	if !ok {
		return 0
	}
	value, err := strconv.ParseFloat(setting.Value, 64)
	if err != nil {
		return 0
	}
	return value
}
