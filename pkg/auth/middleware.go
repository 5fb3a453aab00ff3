package auth

import (
	"context"
	"net/http"

	"github.com/kirangajul/e-commerce-microservices/pkg/apperr"
	"github.com/kirangajul/e-commerce-microservices/pkg/httpx"
)

const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

type principalKey struct{}
type tokenKey struct{}

// Middleware rejects requests the validator does not accept. On success the
// principal and the raw Authorization header are stored on the context so
// downstream calls can forward the token explicitly.
func Middleware(v TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			result, err := v.Validate(r.Context(), header)
			if err != nil {
				httpx.RespondError(r.Context(), w, err)
				return
			}

			ctx := WithPrincipal(r.Context(), result)
			ctx = WithToken(ctx, header)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuthority allows the request when the principal holds any of roles.
func RequireAuthority(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				httpx.RespondError(r.Context(), w, apperr.Unauthorized("no authenticated principal"))
				return
			}
			if !p.HasAuthority(roles...) {
				httpx.RespondError(r.Context(), w, apperr.Forbidden("requires one of %v", roles))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithPrincipal(ctx context.Context, p ValidationResult) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (ValidationResult, bool) {
	p, ok := ctx.Value(principalKey{}).(ValidationResult)
	return p, ok && p.Valid
}

func WithToken(ctx context.Context, authorizationHeader string) context.Context {
	return context.WithValue(ctx, tokenKey{}, authorizationHeader)
}

// TokenFromContext returns the Authorization header value accepted by Middleware.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}
