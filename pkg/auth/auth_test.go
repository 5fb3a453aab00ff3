package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kirangajul/e-commerce-microservices/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authorityServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func replyJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestValidate_ValidToken(t *testing.T) {
	var gotHeader, gotPath string
	srv := authorityServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		replyJSON(w, http.StatusOK, map[string]any{
			"message":     "Valid token",
			"username":    "alice",
			"authorities": []string{"USER"},
		})
	})

	v := NewValidator(ValidatorConfig{AuthorityURL: srv.URL, Timeout: time.Second}, srv.Client(), nil)
	res, err := v.Validate(context.Background(), "Bearer good-token")

	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, "alice", res.PrincipalName)
	assert.Equal(t, []string{"USER"}, res.Authorities)
	assert.Equal(t, "Bearer good-token", gotHeader)
	assert.Equal(t, ValidatePath, gotPath)
}

func TestValidate_RejectsOtherMessages(t *testing.T) {
	for _, msg := range []string{"Invalid", "valid token", "Valid token ", ""} {
		t.Run(msg, func(t *testing.T) {
			srv := authorityServer(t, func(w http.ResponseWriter, r *http.Request) {
				replyJSON(w, http.StatusOK, map[string]string{"message": msg})
			})
			v := NewValidator(ValidatorConfig{AuthorityURL: srv.URL}, srv.Client(), nil)

			res, err := v.Validate(context.Background(), "Bearer bad-token")
			assert.ErrorIs(t, err, apperr.ErrUnauthorized)
			assert.False(t, res.Valid)
		})
	}
}

func TestValidate_MissingOrMalformedHeader(t *testing.T) {
	var calls atomic.Int32
	srv := authorityServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		replyJSON(w, http.StatusOK, map[string]string{"message": "Valid token"})
	})
	v := NewValidator(ValidatorConfig{AuthorityURL: srv.URL}, srv.Client(), nil)

	for _, header := range []string{"", "good-token", "Basic abc", "Bearer ", "bearer good-token"} {
		_, err := v.Validate(context.Background(), header)
		assert.ErrorIs(t, err, apperr.ErrUnauthorized, "header %q", header)
	}
	assert.Zero(t, calls.Load())
}

func TestValidate_FailsClosed(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			replyJSON(w, http.StatusInternalServerError, map[string]string{"message": "Valid token"})
		}},
		{"unauthorized", func(w http.ResponseWriter, r *http.Request) {
			replyJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid token"})
		}},
		{"garbage body", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("<html>"))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := authorityServer(t, tt.handler)
			v := NewValidator(ValidatorConfig{AuthorityURL: srv.URL}, srv.Client(), nil)

			_, err := v.Validate(context.Background(), "Bearer good-token")
			assert.ErrorIs(t, err, apperr.ErrUnauthorized)
		})
	}
}

func TestValidate_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	v := NewValidator(ValidatorConfig{AuthorityURL: url, Timeout: time.Second}, nil, nil)
	_, err := v.Validate(context.Background(), "Bearer good-token")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestValidate_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := authorityServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	v := NewValidator(ValidatorConfig{AuthorityURL: srv.URL, Timeout: 50 * time.Millisecond}, srv.Client(), nil)

	start := time.Now()
	_, err := v.Validate(context.Background(), "Bearer slow-token")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestValidate_ConcurrencyBudget(t *testing.T) {
	var inFlight, peak atomic.Int32
	srv := authorityServer(t, func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		replyJSON(w, http.StatusOK, map[string]string{"message": "Valid token"})
	})

	v := NewValidator(ValidatorConfig{AuthorityURL: srv.URL, Timeout: 5 * time.Second, MaxConcurrent: 2}, srv.Client(), nil)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := v.Validate(context.Background(), "Bearer good-token")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(2))
}

type stubValidator struct {
	result ValidationResult
	err    error
}

func (s stubValidator) Validate(context.Context, string) (ValidationResult, error) {
	return s.result, s.err
}

func TestMiddleware_StoresPrincipalAndToken(t *testing.T) {
	v := stubValidator{result: ValidationResult{Valid: true, PrincipalName: "bob", Authorities: []string{"ADMIN"}}}

	var principal ValidationResult
	var token string
	h := Middleware(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, _ = PrincipalFromContext(r.Context())
		token = TokenFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	req.Header.Set("Authorization", "Bearer abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "bob", principal.PrincipalName)
	assert.Equal(t, "Bearer abc", token)
}

func TestMiddleware_Rejects(t *testing.T) {
	v := stubValidator{err: apperr.Unauthorized("invalid token")}
	h := Middleware(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthority(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name        string
		authorities []string
		roles       []string
		want        int
	}{
		{"matching role", []string{"USER"}, []string{RoleUser}, http.StatusOK},
		{"any of roles", []string{"ADMIN"}, []string{RoleUser, RoleAdmin}, http.StatusOK},
		{"spring style prefix", []string{"ROLE_ADMIN"}, []string{RoleAdmin}, http.StatusOK},
		{"missing role", []string{"USER"}, []string{RoleAdmin}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(WithPrincipal(req.Context(), ValidationResult{Valid: true, Authorities: tt.authorities}))
			rec := httptest.NewRecorder()
			RequireAuthority(tt.roles...)(ok).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	rec := httptest.NewRecorder()
	RequireAuthority(RoleUser)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
