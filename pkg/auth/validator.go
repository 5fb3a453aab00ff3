// Package auth gates requests on a remote token authority.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kirangajul/e-commerce-microservices/pkg/apperr"
	"github.com/kirangajul/e-commerce-microservices/pkg/logger"
	"github.com/kirangajul/e-commerce-microservices/pkg/metrics"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const (
	BearerPrefix      = "Bearer "
	ValidTokenMessage = "Valid token"
	ValidatePath      = "/api/auth/validateToken"
)

var ErrValidationBusy = errors.New("token validation budget exhausted")

type ValidationResult struct {
	Valid         bool
	PrincipalName string
	Authorities   []string
}

func (r ValidationResult) HasAuthority(roles ...string) bool {
	for _, have := range r.Authorities {
		for _, want := range roles {
			if strings.EqualFold(strings.TrimPrefix(have, "ROLE_"), want) {
				return true
			}
		}
	}
	return false
}

// TokenValidator is satisfied by Validator and by test doubles.
type TokenValidator interface {
	Validate(ctx context.Context, authorizationHeader string) (ValidationResult, error)
}

type ValidatorConfig struct {
	AuthorityURL  string
	Timeout       time.Duration
	MaxConcurrent int64
}

type Validator struct {
	endpoint string
	client   *http.Client
	timeout  time.Duration
	budget   *semaphore.Weighted
	metrics  *metrics.Remote
}

type validateResponse struct {
	Message     string   `json:"message"`
	Username    string   `json:"username"`
	Authorities []string `json:"authorities"`
}

// NewValidator builds a validator. A nil client gets an otelhttp-instrumented default.
func NewValidator(cfg ValidatorConfig, client *http.Client, m *metrics.Remote) *Validator {
	if client == nil {
		client = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 64
	}
	return &Validator{
		endpoint: strings.TrimRight(cfg.AuthorityURL, "/") + ValidatePath,
		client:   client,
		timeout:  cfg.Timeout,
		budget:   semaphore.NewWeighted(cfg.MaxConcurrent),
		metrics:  m,
	}
}

// Validate checks the Authorization header value against the authority. It
// fails closed: anything other than a 2xx "Valid token" reply is ErrUnauthorized.
func (v *Validator) Validate(ctx context.Context, authorizationHeader string) (ValidationResult, error) {
	token, ok := strings.CutPrefix(authorizationHeader, BearerPrefix)
	if !ok || strings.TrimSpace(token) == "" {
		v.metrics.Inc("auth", "missing")
		return ValidationResult{}, apperr.Unauthorized("missing bearer token")
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	if err := v.budget.Acquire(ctx, 1); err != nil {
		v.metrics.Inc("auth", "busy")
		return ValidationResult{}, fmt.Errorf("%w: %w", apperr.ErrUnauthorized, ErrValidationBusy)
	}
	defer v.budget.Release(1)

	resp, err := v.call(ctx, token)
	if err != nil {
		v.metrics.Inc("auth", "error")
		logger.FromContext(ctx).Warn("token validation call failed", zap.Error(err))
		return ValidationResult{}, apperr.Unauthorized("token could not be validated")
	}
	if resp.Message != ValidTokenMessage {
		v.metrics.Inc("auth", "denied")
		return ValidationResult{}, apperr.Unauthorized("invalid token")
	}

	v.metrics.Inc("auth", "valid")
	return ValidationResult{
		Valid:         true,
		PrincipalName: resp.Username,
		Authorities:   resp.Authorities,
	}, nil
}

func (v *Validator) call(ctx context.Context, token string) (validateResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.endpoint, nil)
	if err != nil {
		return validateResponse{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", BearerPrefix+token)
	req.Header.Set("Accept", "application/json")

	res, err := v.client.Do(req)
	if err != nil {
		return validateResponse{}, fmt.Errorf("call authority: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, res.Body)
		return validateResponse{}, fmt.Errorf("authority returned status %d", res.StatusCode)
	}

	var out validateResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return validateResponse{}, fmt.Errorf("decode authority response: %w", err)
	}
	return out, nil
}
