package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kirangajul/e-commerce-microservices/pkg/apperr"
	"github.com/kirangajul/e-commerce-microservices/pkg/httpx"
	"github.com/kirangajul/e-commerce-microservices/user-service/internal/domain"
)

type ManagerHandler struct {
	users   UserService
	timeout time.Duration
}

func NewManagerHandler(users UserService, timeout time.Duration) *ManagerHandler {
	return &ManagerHandler{users: users, timeout: timeout}
}

// GET /api/manager/user/{user_id}
func (h *ManagerHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "user_id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.RespondError(r.Context(), w, apperr.Validation("user_id must be a positive integer"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	u, err := h.users.FindByID(ctx, id)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, u)
}

// GET /api/manager/users?page&size&sortBy&sortOrder
func (h *ManagerHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	spec, err := domain.UserSortFields.Parse(q.Get("page"), q.Get("size"), q.Get("sortBy"), q.Get("sortOrder"))
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	page, err := h.users.FindPage(ctx, spec)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, page)
}
