package http

import (
	"context"
	"net/http"
	"time"

	"github.com/kirangajul/e-commerce-microservices/pkg/httpx"
	"github.com/kirangajul/e-commerce-microservices/pkg/logger"
	"github.com/kirangajul/e-commerce-microservices/pkg/paging"
	"github.com/kirangajul/e-commerce-microservices/user-service/internal/domain"
	"go.uber.org/zap"
)

const invalidTokenMessage = "Invalid token"

type UserService interface {
	Register(ctx context.Context, form domain.SignUp) (domain.User, error)
	Login(ctx context.Context, form domain.Login) (domain.AuthResponse, error)
	ValidateToken(ctx context.Context, authorizationHeader string) (domain.TokenInfo, error)
	FindByID(ctx context.Context, id int64) (domain.User, error)
	FindPage(ctx context.Context, spec paging.Spec) (paging.Page[domain.User], error)
}

type AuthHandler struct {
	users   UserService
	timeout time.Duration
}

func NewAuthHandler(users UserService, timeout time.Duration) *AuthHandler {
	return &AuthHandler{users: users, timeout: timeout}
}

// POST /api/auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var form domain.SignUp
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	u, err := h.users.Register(ctx, form)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusCreated, u)
}

// POST /api/auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var form domain.Login
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp, err := h.users.Login(ctx, form)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, resp)
}

// GET /api/auth/validateToken
//
// Callers only look at the message, so every failure gets the same 401 body.
func (h *AuthHandler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	info, err := h.users.ValidateToken(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		logger.FromContext(r.Context()).Debug("token rejected", zap.Error(err))
		httpx.RespondJSON(w, http.StatusUnauthorized, domain.TokenInfo{Message: invalidTokenMessage})
		return
	}
	httpx.RespondJSON(w, http.StatusOK, info)
}
