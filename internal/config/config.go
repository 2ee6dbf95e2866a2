// Package config loads and validates the gateway configuration from the
// process environment. Every credential a payment adapter or upstream client
// needs is resolved here once, at startup, and injected explicitly; nothing
// else in the codebase reads the environment.
package config

import (
	"fmt"
	"os"
	"time"
)

const (
	defaultStoreBaseURL = "https://pro-get.camion-app.com/wp-json/wc/store/v1"
	defaultV3BaseURL    = "https://pro-get.camion-app.com/wp-json/wc/v3"
	defaultListenAddr   = ":8080"
	defaultHTTPTimeout  = 15 * time.Second
)

// WooCommerce holds the upstream commerce platform settings. The consumer
// key/secret pair authenticates V3 (admin) API calls via basic auth.
type WooCommerce struct {
	StoreBaseURL   string // Store API (V1) base URL
	V3BaseURL      string // REST API (V3) base URL
	ConsumerKey    string
	ConsumerSecret string
	RequestTimeout time.Duration
}

// Stripe holds the card-gateway credentials. A missing secret key is not
// fatal at startup; charge attempts fail closed instead.
type Stripe struct {
	SecretKey string
	BaseURL   string // overridable for tests; empty means the public API
}

// SkipCash holds the regional-gateway settings. Both fields are required
// before the adapter will attempt a charge.
type SkipCash struct {
	APIKey  string
	BaseURL string
}

// Redis holds the optional product-cache settings. An empty Addr disables
// caching entirely.
type Redis struct {
	Addr     string
	Password string
}

// Tracking holds the shipment-timeline provider settings.
type Tracking struct {
	APIKey string
}

// Config is the root configuration injected into the server wiring.
type Config struct {
	ListenAddr  string
	WooCommerce WooCommerce
	Stripe      Stripe
	SkipCash    SkipCash
	Redis       Redis
	Tracking    Tracking
}

// Load reads the configuration from the environment, applying defaults for
// optional values. It does not validate; call Validate before use.
func Load() Config {
	return Config{
		ListenAddr: envOr("LISTEN_ADDR", defaultListenAddr),
		WooCommerce: WooCommerce{
			StoreBaseURL:   envOr("WOOCOMMERCE_BASE_URL_V1", defaultStoreBaseURL),
			V3BaseURL:      envOr("WOOCOMMERCE_BASE_URL_V3", defaultV3BaseURL),
			ConsumerKey:    os.Getenv("WOOCOMMERCE_CONSUMER_KEY"),
			ConsumerSecret: os.Getenv("WOOCOMMERCE_CONSUMER_SECRET"),
			RequestTimeout: defaultHTTPTimeout,
		},
		Stripe: Stripe{
			SecretKey: os.Getenv("STRIPE_SECRET_KEY"),
		},
		SkipCash: SkipCash{
			APIKey:  os.Getenv("SKIPCASH_API_KEY"),
			BaseURL: os.Getenv("SKIPCASH_BASE_URL"),
		},
		Redis: Redis{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		Tracking: Tracking{
			APIKey: os.Getenv("TRACK17_API_KEY"),
		},
	}
}

// Validate reports the first missing required setting. Provider credentials
// are deliberately not required here: an unconfigured provider fails closed
// when a charge is actually attempted.
func (c Config) Validate() error {
	if c.WooCommerce.StoreBaseURL == "" {
		return fmt.Errorf("config: WOOCOMMERCE_BASE_URL_V1 is required")
	}
	if c.WooCommerce.V3BaseURL == "" {
		return fmt.Errorf("config: WOOCOMMERCE_BASE_URL_V3 is required")
	}
	if c.WooCommerce.ConsumerKey == "" {
		return fmt.Errorf("config: WOOCOMMERCE_CONSUMER_KEY is required")
	}
	if c.WooCommerce.ConsumerSecret == "" {
		return fmt.Errorf("config: WOOCOMMERCE_CONSUMER_SECRET is required")
	}
	return nil
}

// SkipCashConfigured reports whether the regional gateway has everything it
// needs to attempt a charge.
func (c Config) SkipCashConfigured() bool {
	return c.SkipCash.APIKey != "" && c.SkipCash.BaseURL != ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
