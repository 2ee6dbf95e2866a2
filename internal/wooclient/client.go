// Package wooclient provides the authenticated HTTP client for the upstream
// WooCommerce platform. It speaks both API surfaces: the Store API (V1, used
// for storefront reads such as products) and the REST API (V3, used for
// admin-level resources such as orders), selecting auth per request.
package wooclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/marioumm/woocommerce/internal/config"
)

// Version selects which upstream API surface a request targets.
type Version int

const (
	// StoreV1 is the storefront Store API (unauthenticated reads).
	StoreV1 Version = iota
	// V3 is the admin REST API (basic auth with consumer key/secret).
	V3
)

// Options control auth and surface selection for a single request.
type Options struct {
	Version   Version
	BasicAuth bool // send consumer key/secret as basic auth
}

// Response is the normalized upstream reply. Data is the raw JSON body so
// callers decode into their own types.
type Response struct {
	Data    json.RawMessage
	Status  int
	Headers http.Header
}

// APIError is returned for non-2xx upstream replies. Message carries the
// upstream error detail when the body was a WooCommerce error object.
type APIError struct {
	Status  int
	Code    string
	Message string
	Body    []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("woocommerce: upstream returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("woocommerce: upstream returned %d", e.Status)
}

// wooErrorBody matches the WooCommerce REST error envelope.
type wooErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Client is the upstream HTTP client. Safe for concurrent use.
type Client struct {
	httpClient   *http.Client
	storeBaseURL string
	v3BaseURL    string
	consumerKey  string
	consumerSec  string
}

// New creates a Client from the gateway configuration. A nil httpClient gets
// a default with the configured request timeout.
func New(cfg config.WooCommerce, httpClient *http.Client) *Client {
	if httpClient == nil {
		timeout := cfg.RequestTimeout
		if timeout == 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		httpClient:   httpClient,
		storeBaseURL: cfg.StoreBaseURL,
		v3BaseURL:    cfg.V3BaseURL,
		consumerKey:  cfg.ConsumerKey,
		consumerSec:  cfg.ConsumerSecret,
	}
}

// Get issues a GET against the selected API surface.
func (c *Client) Get(ctx context.Context, path string, opts Options) (*Response, error) {
	return c.request(ctx, http.MethodGet, path, nil, opts)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any, opts Options) (*Response, error) {
	return c.request(ctx, http.MethodPost, path, body, opts)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any, opts Options) (*Response, error) {
	return c.request(ctx, http.MethodPut, path, body, opts)
}

// Delete issues a DELETE against the selected API surface.
func (c *Client) Delete(ctx context.Context, path string, opts Options) (*Response, error) {
	return c.request(ctx, http.MethodDelete, path, nil, opts)
}

func (c *Client) request(ctx context.Context, method, path string, body any, opts Options) (*Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("wooclient: failed to encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(encoded)
	}

	url := c.baseURL(opts.Version) + path
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("wooclient: failed to create %s %s request: %w", method, path, err)
	}
	c.setHeaders(req, opts)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("wooclient: %s %s failed: %v", method, path, err)
		return nil, fmt.Errorf("wooclient: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("wooclient: failed to read %s %s response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Body: data}
		var envelope wooErrorBody
		if unmarshalErr := json.Unmarshal(data, &envelope); unmarshalErr == nil {
			apiErr.Code = envelope.Code
			apiErr.Message = envelope.Message
		}
		log.Printf("wooclient: %s %s returned %d: %s", method, path, resp.StatusCode, apiErr.Message)
		return nil, apiErr
	}

	return &Response{Data: data, Status: resp.StatusCode, Headers: resp.Header}, nil
}

func (c *Client) baseURL(v Version) string {
	if v == V3 {
		return c.v3BaseURL
	}
	return c.storeBaseURL
}

func (c *Client) setHeaders(req *http.Request, opts Options) {
	req.Header.Set("Content-Type", "application/json")

	if opts.BasicAuth {
		creds := base64.StdEncoding.EncodeToString([]byte(c.consumerKey + ":" + c.consumerSec))
		req.Header.Set("Authorization", "Basic "+creds)
	}
}
