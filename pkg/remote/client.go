// Package remote fetches users and products from their owning services.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kirangajul/e-commerce-microservices/pkg/apperr"
	"github.com/kirangajul/e-commerce-microservices/pkg/circuitbreaker"
	"github.com/kirangajul/e-commerce-microservices/pkg/metrics"
	"github.com/kirangajul/e-commerce-microservices/pkg/retry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const (
	ResourceUser    = "user"
	ResourceProduct = "product"
)

// User is the user-service representation consumed by aggregation.
type User struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name,omitempty"`
	Username string   `json:"username,omitempty"`
	Email    string   `json:"email,omitempty"`
	Phone    string   `json:"phone,omitempty"`
	Avatar   string   `json:"avatar,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

// Product is the product-service representation consumed by aggregation.
type Product struct {
	ID         int64   `json:"productId"`
	Title      string  `json:"productTitle,omitempty"`
	ImageURL   string  `json:"imageUrl,omitempty"`
	SKU        string  `json:"sku,omitempty"`
	PriceUnit  float64 `json:"priceUnit,omitempty"`
	Quantity   int     `json:"quantity,omitempty"`
	CategoryID int64   `json:"categoryId,omitempty"`
}

// UpstreamError describes a failed lookup. It matches apperr.ErrUpstreamUnavailable.
type UpstreamError struct {
	Resource   string
	ID         int64
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s %d: upstream status %d", e.Resource, e.ID, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s %d: %v", e.Resource, e.ID, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool {
	return target == apperr.ErrUpstreamUnavailable
}

// clientFault reports 4xx replies, which are neither retried nor counted
// against the breaker.
func (e *UpstreamError) clientFault() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

type Config struct {
	UserServiceURL    string
	ProductServiceURL string
	Timeout           time.Duration
	Retry             retry.Config
	Breaker           circuitbreaker.Config
}

type Client struct {
	userBase    string
	productBase string
	http        *http.Client
	timeout     time.Duration
	retry       retry.Config
	users       *circuitbreaker.Breaker[User]
	products    *circuitbreaker.Breaker[Product]
	metrics     *metrics.Remote
}

// NewClient builds a lookup client. A nil httpClient gets an otelhttp-instrumented default.
func NewClient(cfg Config, httpClient *http.Client, m *metrics.Remote, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = retry.DefaultConfig()
	}
	if cfg.Breaker.ConsecutiveFailures == 0 {
		cfg.Breaker = circuitbreaker.DefaultConfig()
	}
	cfg.Breaker.IsSuccessful = func(err error) bool {
		if errors.Is(err, errCallerDone) {
			return true
		}
		var upErr *UpstreamError
		if errors.As(err, &upErr) && upErr.clientFault() {
			return true
		}
		return err == nil || errors.Is(err, context.Canceled)
	}

	return &Client{
		userBase:    strings.TrimRight(cfg.UserServiceURL, "/"),
		productBase: strings.TrimRight(cfg.ProductServiceURL, "/"),
		http:        httpClient,
		timeout:     cfg.Timeout,
		retry:       cfg.Retry,
		users:       circuitbreaker.New[User]("user-service", cfg.Breaker, log),
		products:    circuitbreaker.New[Product]("product-service", cfg.Breaker, log),
		metrics:     m,
	}
}

// FetchUser loads a user, forwarding the caller's Authorization header.
func (c *Client) FetchUser(ctx context.Context, id int64, authorization string) (User, error) {
	url := c.userBase + "/api/manager/user/" + strconv.FormatInt(id, 10)
	return fetch(ctx, c, c.users, ResourceUser, id, url, authorization)
}

func (c *Client) FetchProduct(ctx context.Context, id int64) (Product, error) {
	url := c.productBase + "/api/products/" + strconv.FormatInt(id, 10)
	return fetch(ctx, c, c.products, ResourceProduct, id, url, "")
}

// errCallerDone marks failures caused by the caller's own context. They say
// nothing about the upstream and are not counted by the breaker.
var errCallerDone = errors.New("caller context done")

func fetch[T any](ctx context.Context, c *Client, breaker *circuitbreaker.Breaker[T], resource string, id int64, url, authorization string) (T, error) {
	if err := ctx.Err(); err != nil {
		var zero T
		c.metrics.Inc(resource, "canceled")
		return zero, &UpstreamError{Resource: resource, ID: id, Err: err}
	}

	out, err := breaker.Execute(func() (T, error) {
		var result T
		err := retry.Do(ctx, c.retry, func(ctx context.Context) error {
			res, err := getJSON[T](ctx, c, url, authorization)
			if err != nil {
				var upErr *UpstreamError
				if errors.As(err, &upErr) && upErr.clientFault() {
					return retry.Permanent(err)
				}
				return err
			}
			result = res
			return nil
		})
		if err != nil && ctx.Err() != nil {
			err = fmt.Errorf("%w: %w", errCallerDone, err)
		}
		return result, err
	})

	if err != nil {
		c.metrics.Inc(resource, outcome(err))
		var upErr *UpstreamError
		if errors.As(err, &upErr) {
			upErr.Resource, upErr.ID = resource, id
			return out, upErr
		}
		return out, &UpstreamError{Resource: resource, ID: id, Err: err}
	}

	c.metrics.Inc(resource, "ok")
	return out, nil
}

func getJSON[T any](ctx context.Context, c *Client, url, authorization string) (T, error) {
	var out T

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return out, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return out, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, res.Body)
		return out, &UpstreamError{StatusCode: res.StatusCode}
	}

	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

func outcome(err error) string {
	var upErr *UpstreamError
	switch {
	case errors.Is(err, circuitbreaker.ErrOpen):
		return "circuit_open"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &upErr) && upErr.StatusCode != 0:
		return "status_" + strconv.Itoa(upErr.StatusCode)
	default:
		return "error"
	}
}
