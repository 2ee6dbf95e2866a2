package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/marioumm/woocommerce/internal/catalog"
	"github.com/marioumm/woocommerce/internal/checkout"
	"github.com/marioumm/woocommerce/internal/config"
	"github.com/marioumm/woocommerce/internal/monitor"
	"github.com/marioumm/woocommerce/internal/order"
	"github.com/marioumm/woocommerce/internal/payment"
	"github.com/marioumm/woocommerce/internal/payment/offline"
	"github.com/marioumm/woocommerce/internal/payment/paypal"
	"github.com/marioumm/woocommerce/internal/payment/skipcash"
	"github.com/marioumm/woocommerce/internal/payment/stripe"
	"github.com/marioumm/woocommerce/internal/shipping"
	"github.com/marioumm/woocommerce/internal/tracking"
	"github.com/marioumm/woocommerce/internal/wooclient"
)

var startTime = time.Now()

// server bundles the request handlers with their dependencies.
type server struct {
	checkout *checkout.Service
	monitor  *monitor.ContractMonitor
	catalog  *catalog.Service
	shipping *shipping.Service
	tracking *tracking.Service
}

func (s *server) completeCheckoutHandler(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	valid, violations, err := s.monitor.Validate(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": monitor.FormatErrors(violations)})
		return
	}

	var req checkout.Request
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	result, err := s.checkout.Complete(c.Request.Context(), req)
	if err != nil {
		log.Printf("Checkout failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *server) listOrdersHandler(c *gin.Context) {
	orders, err := s.checkout.ListOrders(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch orders: " + err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json", orders)
}

func (s *server) cancelOrderHandler(c *gin.Context) {
	result, err := s.checkout.CancelOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to cancel order: " + err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json", result)
}

func (s *server) listProductsHandler(c *gin.Context) {
	query := catalog.ListQuery{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		OrderBy:  c.Query("orderby"),
		Order:    c.Query("order"),
	}
	query.Page, _ = strconv.Atoi(c.Query("page"))
	query.PerPage, _ = strconv.Atoi(c.Query("per_page"))
	query.MinPrice, _ = strconv.ParseFloat(c.Query("min_price"), 64)
	query.MaxPrice, _ = strconv.ParseFloat(c.Query("max_price"), 64)

	products, err := s.catalog.ListProducts(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch products: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, products)
}

func (s *server) getProductHandler(c *gin.Context) {
	product, err := s.catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := http.StatusBadGateway
		var apiErr *wooclient.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "Failed to fetch product: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, product)
}

func (s *server) shippingMethodsHandler(c *gin.Context) {
	methods, err := s.shipping.Methods(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch shipping methods: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, methods)
}

func (s *server) shippingZonesHandler(c *gin.Context) {
	zones, err := s.shipping.Zones(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch shipping zones: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, zones)
}

func (s *server) shippingZoneLocationsHandler(c *gin.Context) {
	zoneID, err := strconv.ParseInt(c.Param("zoneId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid zone id"})
		return
	}
	locations, err := s.shipping.ZoneLocations(c.Request.Context(), zoneID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch zone locations: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, locations)
}

func (s *server) shippingZoneMethodsHandler(c *gin.Context) {
	zoneID, err := strconv.ParseInt(c.Param("zoneId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid zone id"})
		return
	}
	methods, err := s.shipping.ZoneMethods(c.Request.Context(), zoneID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch zone methods: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, methods)
}

func (s *server) shippingOverviewHandler(c *gin.Context) {
	overview, err := s.shipping.ZonesOverview(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch shipping overview: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (s *server) shippingRatesHandler(c *gin.Context) {
	country := c.Query("country")
	if country == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Country parameter is required"})
		return
	}
	cartTotal, _ := strconv.ParseFloat(c.Query("cartTotal"), 64)

	rates, err := s.shipping.Rates(c.Request.Context(), shipping.RateParams{
		Country:   country,
		State:     c.Query("state"),
		Postcode:  c.Query("postcode"),
		CartTotal: cartTotal,
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch shipping rates: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, rates)
}

func (s *server) shippingRatesBodyHandler(c *gin.Context) {
	var req struct {
		Country   string              `json:"country"`
		State     string              `json:"state"`
		Postcode  string              `json:"postcode"`
		CartTotal float64             `json:"cartTotal"`
		CartItems []shipping.CartItem `json:"cartItems"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	if req.Country == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Country parameter is required"})
		return
	}

	rates, err := s.shipping.Rates(c.Request.Context(), shipping.RateParams{
		Country:   req.Country,
		State:     req.State,
		Postcode:  req.Postcode,
		CartTotal: req.CartTotal,
		CartItems: req.CartItems,
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to calculate shipping rates: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, rates)
}

func (s *server) orderTrackingHandler(c *gin.Context) {
	info, err := s.tracking.OrderTracking(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Failed to get tracking: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tracking information retrieved successfully", "data": info})
}

func (s *server) shipmentTrackingsHandler(c *gin.Context) {
	orderID := c.Param("orderId")
	shipments := s.tracking.ShipmentTrackings(c.Request.Context(), orderID)
	c.JSON(http.StatusOK, gin.H{
		"message": "Shipment trackings retrieved successfully",
		"data": gin.H{
			"orderId":   orderID,
			"shipments": shipments,
			"count":     len(shipments),
		},
	})
}

func rootHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "WooCommerce API Server is running",
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"uptime":    time.Since(startTime).Seconds(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func setupRouter(s *server) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("woocommerce-gateway"))

	router.GET("/", rootHandler)
	router.GET("/health", healthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.POST("/checkout/complete", s.completeCheckoutHandler)
		api.GET("/checkout", s.listOrdersHandler)
		api.DELETE("/checkout/:id", s.cancelOrderHandler)

		api.GET("/products", s.listProductsHandler)
		api.GET("/products/:id", s.getProductHandler)

		api.GET("/shipping/methods", s.shippingMethodsHandler)
		api.GET("/shipping/zones", s.shippingZonesHandler)
		api.GET("/shipping/zones/:zoneId/locations", s.shippingZoneLocationsHandler)
		api.GET("/shipping/zones/:zoneId/methods", s.shippingZoneMethodsHandler)
		api.GET("/shipping/overview", s.shippingOverviewHandler)
		api.GET("/shipping/rates", s.shippingRatesHandler)
		api.POST("/shipping/rates", s.shippingRatesBodyHandler)

		api.GET("/tracking/:orderId", s.orderTrackingHandler)
		api.GET("/tracking/:orderId/shipments", s.shipmentTrackingsHandler)
	}

	return router
}

// initTracing installs a stdout span exporter and returns its shutdown
// hook.
func initTracing() func(context.Context) error {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		log.Printf("Tracing disabled, exporter init failed: %v", err)
		return func(context.Context) error { return nil }
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return tp.Shutdown
}

func newServer(cfg config.Config) *server {
	woo := wooclient.New(cfg.WooCommerce, nil)
	orders := order.NewService(woo)

	if cfg.Stripe.SecretKey == "" {
		log.Println("Warning: Stripe secret key not configured, card payments will fail")
	}
	if !cfg.SkipCashConfigured() {
		log.Println("Warning: SkipCash not configured, skipcash payments will fail")
	}

	registry := payment.NewRegistry(
		stripe.New(cfg.Stripe, nil),
		paypal.New(),
		skipcash.New(cfg.SkipCash, nil),
		offline.NewBankTransfer(),
		offline.NewCheque(),
	)

	contractMonitor, err := monitor.NewContractMonitor()
	if err != nil {
		log.Fatalf("Failed to compile checkout schema: %v", err)
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Printf("Warning: Redis unreachable at %s, catalog cache disabled: %v", cfg.Redis.Addr, err)
			redisClient = nil
		}
	}

	return &server{
		checkout: checkout.NewService(orders, registry),
		monitor:  contractMonitor,
		catalog:  catalog.NewService(woo, redisClient),
		shipping: shipping.NewService(woo),
		tracking: tracking.NewService(woo, cfg.Tracking.APIKey, ""),
	}
}

func main() {
	log.Println("Starting server...")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	shutdownTracing := initTracing()

	srv := newServer(cfg)
	router := setupRouter(srv)

	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: router}
	go func() {
		log.Printf("Listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to run server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		log.Printf("Tracing shutdown: %v", err)
	}
}
