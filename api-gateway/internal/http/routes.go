package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kirangajul/e-commerce-microservices/pkg/circuitbreaker"
	"github.com/kirangajul/e-commerce-microservices/pkg/metrics"
	"go.uber.org/zap"
)

type GatewayConfig struct {
	Upstreams []Upstream
	// Transport defaults to http.DefaultTransport.
	Transport http.RoundTripper
	Breaker   circuitbreaker.Config
	Metrics   *metrics.Remote
	Logger    *zap.Logger
}

// DefaultUpstreams maps every public API prefix to the service that owns it.
func DefaultUpstreams(inventoryURL, ordersURL, productURL, userURL string) []Upstream {
	return []Upstream{
		{Name: "inventory-service", BaseURL: inventoryURL, Prefixes: []string{"/api/inventory"}},
		{Name: "orders-service", BaseURL: ordersURL, Prefixes: []string{"/api/orders", "/api/carts"}},
		{Name: "product-service", BaseURL: productURL, Prefixes: []string{"/api/products", "/api/categories"}},
		{Name: "user-service", BaseURL: userURL, Prefixes: []string{"/api/auth", "/api/manager"}},
	}
}

// Register mounts one reverse proxy per upstream under each of its prefixes.
// Unknown paths fall through to the router's 404.
func Register(r chi.Router, cfg GatewayConfig) error {
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if cfg.Breaker.ConsecutiveFailures == 0 {
		cfg.Breaker = circuitbreaker.DefaultConfig()
	}

	for _, u := range cfg.Upstreams {
		p, err := newUpstreamProxy(u, transport, cfg.Breaker, cfg.Metrics, cfg.Logger)
		if err != nil {
			return err
		}
		for _, prefix := range u.Prefixes {
			r.Handle(prefix, p)
			r.Handle(prefix+"/*", p)
		}
	}
	return nil
}
