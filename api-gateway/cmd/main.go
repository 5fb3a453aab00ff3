package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	gatewayhttp "github.com/kirangajul/e-commerce-microservices/api-gateway/internal/http"
	"github.com/kirangajul/e-commerce-microservices/pkg/circuitbreaker"
	"github.com/kirangajul/e-commerce-microservices/pkg/env"
	"github.com/kirangajul/e-commerce-microservices/pkg/httpx"
	"github.com/kirangajul/e-commerce-microservices/pkg/logger"
	"github.com/kirangajul/e-commerce-microservices/pkg/metrics"
	"github.com/kirangajul/e-commerce-microservices/pkg/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const serviceName = "api-gateway"

type Config struct {
	Env                 string
	HTTPPort            string
	InventoryServiceURL string
	OrdersServiceURL    string
	ProductServiceURL   string
	UserServiceURL      string
	RequestTimeout      time.Duration
	ShutdownTimeout     time.Duration
	MaxRequestBodySize  int64
	OTLPEndpoint        string
}

func loadConfig() *Config {
	return &Config{
		Env:                 env.String("APP_ENV", "development"),
		HTTPPort:            env.String("HTTP_PORT", "8080"),
		InventoryServiceURL: env.String("INVENTORY_SERVICE_URL", "http://localhost:8081"),
		OrdersServiceURL:    env.String("ORDERS_SERVICE_URL", "http://localhost:8082"),
		ProductServiceURL:   env.String("PRODUCT_SERVICE_URL", "http://localhost:8083"),
		UserServiceURL:      env.String("USER_SERVICE_URL", "http://localhost:8084"),
		RequestTimeout:      env.Duration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout:     env.Duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxRequestBodySize:  int64(env.Int("MAX_REQUEST_BODY_BYTES", 1<<20)),
		OTLPEndpoint:        env.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

func main() {
	cfg := loadConfig()

	log := logger.Must(serviceName, cfg.Env)
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	if err := run(cfg, log); err != nil {
		log.Fatal("api-gateway stopped with error", zap.Error(err))
	}
}

func run(cfg *Config, log *zap.Logger) error {
	ctx := context.Background()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName: serviceName,
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    true,
	})
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	reg := metrics.NewRegistry()
	r := httpx.NewRouter(httpx.RouterConfig{
		Logger:         log,
		Metrics:        metrics.NewHTTP(reg, "gateway"),
		Gatherer:       reg,
		RequestTimeout: cfg.RequestTimeout,
	})
	gateway := gatewayhttp.GatewayConfig{
		Upstreams: gatewayhttp.DefaultUpstreams(
			cfg.InventoryServiceURL,
			cfg.OrdersServiceURL,
			cfg.ProductServiceURL,
			cfg.UserServiceURL,
		),
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Breaker:   circuitbreaker.DefaultConfig(),
		Metrics:   metrics.NewRemote(reg, "gateway"),
		Logger:    log,
	}
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))
		r.Use(middleware.Compress(5))
		err = gatewayhttp.Register(r, gateway)
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      httpx.Instrument(serviceName, r),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return httpx.Run(srv, cfg.ShutdownTimeout, log)
}
