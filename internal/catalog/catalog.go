// Package catalog serves the storefront product surface: listing and
// single-product fetches passed through from the upstream platform, with
// price normalization, a Redis read-through cache, and per-product view
// counters. Redis is optional; without it the catalog still works, only
// uncached and with zero view counts.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/url"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marioumm/woocommerce/internal/wooclient"
)

// priceMultiplier converts upstream minor-unit price strings into the
// display prices this storefront charges.
const priceMultiplier = 5

const (
	defaultPerPage = 10
	// topUpBatch pads refill pages so one extra fetch usually covers the
	// products dropped by filtering.
	topUpBatch = 30
)

// Service fetches and shapes catalog data.
type Service struct {
	woo     *wooclient.Client
	redis   *redis.Client
	baseTTL time.Duration
}

// NewService creates the catalog Service. redisClient may be nil.
func NewService(woo *wooclient.Client, redisClient *redis.Client) *Service {
	if woo == nil {
		panic("woo client cannot be nil")
	}
	return &Service{
		woo:     woo,
		redis:   redisClient,
		baseTTL: 15 * time.Minute,
	}
}

// Product is a shaped catalog document. The upstream payload is passed
// through as-is under Raw with the prices block rewritten.
type Product map[string]any

// ListQuery carries the supported product list filters.
type ListQuery struct {
	Page     int
	PerPage  int
	Search   string
	Category string
	OrderBy  string
	Order    string
	MinPrice float64
	MaxPrice float64
}

// ListProducts fetches one page of products, drops entries without a
// positive price or any image, applies the price-range filter, and tops the
// page back up from subsequent upstream pages until it is full or the
// upstream runs out. Prices are normalized and view counts attached.
func (s *Service) ListProducts(ctx context.Context, q ListQuery) ([]Product, error) {
	perPage := q.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	page := q.Page
	if page <= 0 {
		page = 1
	}

	resp, err := s.fetchPage(ctx, q, perPage, page)
	if err != nil {
		return nil, err
	}

	totalPages := 1
	if v := resp.Headers.Get("X-WP-TotalPages"); v != "" {
		if n, perr := strconv.Atoi(v); perr == nil {
			totalPages = n
		}
	}

	products, err := decodeProducts(resp.Data)
	if err != nil {
		return nil, err
	}
	kept := filterProducts(products, q.MinPrice, q.MaxPrice)

	// Filtering can leave the page short; refill from the next upstream
	// pages so callers always see a full page when the catalog has one.
	nextPage := page + 1
	for len(kept) < perPage && nextPage <= totalPages {
		extra, ferr := s.fetchPage(ctx, q, perPage-len(kept)+topUpBatch, nextPage)
		if ferr != nil {
			log.Printf("catalog: top-up fetch for page %d failed: %v", nextPage, ferr)
			break
		}
		extraProducts, derr := decodeProducts(extra.Data)
		if derr != nil {
			break
		}
		kept = append(kept, filterProducts(extraProducts, q.MinPrice, q.MaxPrice)...)
		nextPage++
	}

	if len(kept) > perPage {
		kept = kept[:perPage]
	}

	for i := range kept {
		kept[i] = transformPrices(kept[i])
	}
	s.attachViewCounts(ctx, kept)
	return kept, nil
}

func (s *Service) fetchPage(ctx context.Context, q ListQuery, perPage, page int) (*wooclient.Response, error) {
	params := url.Values{}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	if q.Category != "" {
		params.Set("category", q.Category)
	}
	if q.OrderBy != "" {
		params.Set("orderby", q.OrderBy)
	}
	if q.Order != "" {
		params.Set("order", q.Order)
	}
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("page", strconv.Itoa(page))

	return s.woo.Get(ctx, "/products?"+params.Encode(), wooclient.Options{Version: wooclient.StoreV1})
}

// GetProduct fetches one product with its variations, normalizes prices,
// and records a view. Results are cached; a cache hit still records the
// view so counters stay live.
func (s *Service) GetProduct(ctx context.Context, id string) (Product, error) {
	if cached := s.cacheGet(ctx, id); cached != nil {
		viewCount := s.recordView(ctx, id)
		cached["view_count"] = viewCount
		return cached, nil
	}

	resp, err := s.woo.Get(ctx, "/products/"+id, wooclient.Options{Version: wooclient.StoreV1})
	if err != nil {
		return nil, fmt.Errorf("catalog: fetching product %s: %w", id, err)
	}

	var product Product
	if err := json.Unmarshal(resp.Data, &product); err != nil {
		return nil, fmt.Errorf("catalog: decoding product %s: %w", id, err)
	}

	if variations, verr := s.fetchVariations(ctx, id); verr != nil {
		log.Printf("catalog: fetching variations for product %s failed: %v", id, verr)
	} else if len(variations) > 0 {
		product["variations"] = variations
	}

	product = transformPrices(product)
	product["reviews_count"] = numberAt(product, "rating_count")
	product["average_rating"] = safeParse(product["average_rating"])

	s.cacheSet(ctx, id, product)

	product["view_count"] = s.recordView(ctx, id)
	return product, nil
}

// Variation is the trimmed variation summary exposed on product documents.
type Variation struct {
	ID            int64             `json:"id"`
	Attributes    []VariationOption `json:"attributes"`
	Image         string            `json:"image,omitempty"`
	Price         float64           `json:"price,omitempty"`
	RegularPrice  float64           `json:"regular_price,omitempty"`
	SalePrice     float64           `json:"sale_price,omitempty"`
	StockQuantity *int64            `json:"stock_quantity"`
	StockStatus   string            `json:"stock_status,omitempty"`
}

// VariationOption is one attribute/option pair of a variation.
type VariationOption struct {
	Name   string `json:"name"`
	Option string `json:"option"`
}

func (s *Service) fetchVariations(ctx context.Context, id string) ([]Variation, error) {
	resp, err := s.woo.Get(ctx, "/products/"+id+"/variations", wooclient.Options{
		Version:   wooclient.V3,
		BasicAuth: true,
	})
	if err != nil {
		return nil, err
	}

	var raw []struct {
		ID         int64 `json:"id"`
		Attributes []struct {
			Name   string `json:"name"`
			Option string `json:"option"`
		} `json:"attributes"`
		Image struct {
			Src string `json:"src"`
		} `json:"image"`
		Price         string `json:"price"`
		RegularPrice  string `json:"regular_price"`
		SalePrice     string `json:"sale_price"`
		StockQuantity *int64 `json:"stock_quantity"`
		StockStatus   string `json:"stock_status"`
	}
	if err := json.Unmarshal(resp.Data, &raw); err != nil {
		return nil, err
	}

	variations := make([]Variation, 0, len(raw))
	for _, v := range raw {
		variation := Variation{
			ID:            v.ID,
			Attributes:    make([]VariationOption, 0, len(v.Attributes)),
			Image:         v.Image.Src,
			Price:         safeParse(v.Price) * priceMultiplier,
			RegularPrice:  safeParse(v.RegularPrice) * priceMultiplier,
			SalePrice:     safeParse(v.SalePrice) * priceMultiplier,
			StockQuantity: v.StockQuantity,
			StockStatus:   v.StockStatus,
		}
		for _, attr := range v.Attributes {
			variation.Attributes = append(variation.Attributes, VariationOption{Name: attr.Name, Option: attr.Option})
		}
		variations = append(variations, variation)
	}
	return variations, nil
}

func decodeProducts(data json.RawMessage) ([]Product, error) {
	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("catalog: decoding product list: %w", err)
	}
	return products, nil
}

// filterProducts drops products that cannot be sold as listed: no positive
// price or no image. The price-range bounds apply to the raw upstream
// price, before normalization.
func filterProducts(products []Product, minPrice, maxPrice float64) []Product {
	kept := make([]Product, 0, len(products))
	for _, p := range products {
		rawPrice := safeParse(priceAt(p, "price"))
		if rawPrice <= 0 || !hasImages(p) {
			continue
		}
		if minPrice > 0 && rawPrice < minPrice {
			continue
		}
		if maxPrice > 0 && rawPrice > maxPrice {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

func hasImages(p Product) bool {
	images, ok := p["images"].([]any)
	return ok && len(images) > 0
}

// transformPrices rewrites the prices block from upstream minor units into
// two-decimal display strings.
func transformPrices(p Product) Product {
	prices, ok := p["prices"].(map[string]any)
	if !ok {
		return p
	}
	for _, key := range []string{"price", "regular_price", "sale_price"} {
		scaled := safeParse(prices[key]) * priceMultiplier / 100
		prices[key] = strconv.FormatFloat(scaled, 'f', 2, 64)
	}
	p["prices"] = prices
	return p
}

func priceAt(p Product, key string) any {
	prices, ok := p["prices"].(map[string]any)
	if !ok {
		return nil
	}
	return prices[key]
}

func numberAt(p Product, key string) float64 {
	return safeParse(p[key])
}

// safeParse reads a numeric value out of the loosely typed upstream
// payload. Anything unparseable counts as zero.
func safeParse(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return f
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func cacheKey(id string) string {
	return fmt.Sprintf("product:%s", id)
}

func viewKey(id string) string {
	return fmt.Sprintf("product:%s:views", id)
}

func (s *Service) cacheGet(ctx context.Context, id string) Product {
	if s.redis == nil {
		return nil
	}
	data, err := s.redis.Get(ctx, cacheKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		log.Printf("catalog: redis get failed: %v", err)
		return nil
	}
	var product Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil
	}
	return product
}

func (s *Service) cacheSet(ctx context.Context, id string, product Product) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(product)
	if err != nil {
		return
	}
	// Jitter spreads expiries so a hot catalog does not refill all at once.
	ttl := s.baseTTL + time.Duration(rand.Intn(5))*time.Minute
	if err := s.redis.Set(ctx, cacheKey(id), data, ttl).Err(); err != nil {
		log.Printf("catalog: redis set failed: %v", err)
	}
}

// recordView bumps the product view counter and returns the new count.
// Counter failures degrade to zero rather than failing the fetch.
func (s *Service) recordView(ctx context.Context, id string) int64 {
	if s.redis == nil {
		return 0
	}
	count, err := s.redis.Incr(ctx, viewKey(id)).Result()
	if err != nil {
		log.Printf("catalog: recording view for product %s failed: %v", id, err)
		return 0
	}
	return count
}

// attachViewCounts reads the view counters for a whole page in one
// pipelined round trip.
func (s *Service) attachViewCounts(ctx context.Context, products []Product) {
	if s.redis == nil || len(products) == 0 {
		return
	}

	pipe := s.redis.Pipeline()
	cmds := make([]*redis.StringCmd, len(products))
	for i, p := range products {
		id := idString(p)
		cmds[i] = pipe.Get(ctx, viewKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		log.Printf("catalog: reading view counts failed: %v", err)
		return
	}

	for i, cmd := range cmds {
		count, err := cmd.Int64()
		if err != nil {
			count = 0
		}
		products[i]["view_count"] = count
	}
}

func idString(p Product) string {
	switch id := p["id"].(type) {
	case float64:
		return strconv.FormatInt(int64(id), 10)
	case string:
		return id
	default:
		return ""
	}
}
