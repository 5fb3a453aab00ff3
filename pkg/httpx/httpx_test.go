package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirangajul/e-commerce-microservices/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", apperr.Validation("bad sort"), http.StatusBadRequest},
		{"unauthorized", apperr.Unauthorized("missing token"), http.StatusUnauthorized},
		{"forbidden", apperr.Forbidden("role"), http.StatusForbidden},
		{"not found", fmt.Errorf("get cart: %w", apperr.NotFound("cart 1")), http.StatusNotFound},
		{"conflict", apperr.Conflict("duplicate"), http.StatusConflict},
		{"upstream", fmt.Errorf("%w: users", apperr.ErrUpstreamUnavailable), http.StatusBadGateway},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := Classify(tt.err)
			assert.Equal(t, tt.status, status)
		})
	}
}

func TestRespondError_Payload(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(context.Background(), rec, apperr.NotFound("cart with id 5"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, http.StatusNotFound, body.Status)
	assert.Equal(t, "not_found", body.Code)
	assert.Contains(t, body.Message, "cart with id 5")
	assert.False(t, body.Timestamp.IsZero())
}

func TestRespondError_HidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(context.Background(), rec, errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestDecodeJSON(t *testing.T) {
	var dst map[string]any

	r := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
	assert.ErrorIs(t, DecodeJSON(r, &dst), apperr.ErrValidation)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
	assert.ErrorIs(t, DecodeJSON(r, &dst), apperr.ErrValidation)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`))
	require.NoError(t, DecodeJSON(r, &dst))
	assert.Equal(t, float64(1), dst["a"])
}

func TestRequestID_GeneratesAndEchoes(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	h.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", seen)
}
