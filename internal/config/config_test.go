package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		ListenAddr: ":8080",
		WooCommerce: WooCommerce{
			StoreBaseURL:   "https://shop.example.com/wp-json/wc/store/v1",
			V3BaseURL:      "https://shop.example.com/wp-json/wc/v3",
			ConsumerKey:    "ck_test",
			ConsumerSecret: "cs_test",
		},
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("WOOCOMMERCE_BASE_URL_V1", "")
	t.Setenv("WOOCOMMERCE_BASE_URL_V3", "")
	t.Setenv("LISTEN_ADDR", "")

	cfg := Load()
	assert.Equal(t, defaultStoreBaseURL, cfg.WooCommerce.StoreBaseURL)
	assert.Equal(t, defaultV3BaseURL, cfg.WooCommerce.V3BaseURL)
	assert.Equal(t, defaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, defaultHTTPTimeout, cfg.WooCommerce.RequestTimeout)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("WOOCOMMERCE_BASE_URL_V3", "https://other.example.com/wc/v3")
	t.Setenv("WOOCOMMERCE_CONSUMER_KEY", "ck_live")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("SKIPCASH_API_KEY", "sc_key")
	t.Setenv("SKIPCASH_BASE_URL", "https://skipcash.example.com")

	cfg := Load()
	assert.Equal(t, "https://other.example.com/wc/v3", cfg.WooCommerce.V3BaseURL)
	assert.Equal(t, "ck_live", cfg.WooCommerce.ConsumerKey)
	assert.Equal(t, "sk_test_123", cfg.Stripe.SecretKey)
	assert.True(t, cfg.SkipCashConfigured())
}

func TestValidate(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())

	missingKey := validConfig()
	missingKey.WooCommerce.ConsumerKey = ""
	err := missingKey.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WOOCOMMERCE_CONSUMER_KEY")

	missingSecret := validConfig()
	missingSecret.WooCommerce.ConsumerSecret = ""
	require.Error(t, missingSecret.Validate())
}

func TestSkipCashConfigured(t *testing.T) {
	cfg := validConfig()
	assert.False(t, cfg.SkipCashConfigured())

	cfg.SkipCash.APIKey = "key-only"
	assert.False(t, cfg.SkipCashConfigured(), "base URL still missing")

	cfg.SkipCash.BaseURL = "https://skipcash.example.com"
	assert.True(t, cfg.SkipCashConfigured())
}
