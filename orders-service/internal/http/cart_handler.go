package http

import (
	"context"
	"net/http"
	"time"

	"github.com/kirangajul/e-commerce-microservices/orders-service/internal/domain"
	"github.com/kirangajul/e-commerce-microservices/pkg/auth"
	"github.com/kirangajul/e-commerce-microservices/pkg/httpx"
	"github.com/kirangajul/e-commerce-microservices/pkg/paging"
)

type CartService interface {
	ListAll(ctx context.Context, authorization string) ([]domain.EnrichedCart, error)
	ListPaged(ctx context.Context, spec paging.Spec, authorization string) (paging.Page[domain.EnrichedCart], error)
	FindByID(ctx context.Context, id int64, authorization string) (domain.EnrichedCart, error)
	Save(ctx context.Context, cart domain.Cart) (domain.Cart, error)
	Update(ctx context.Context, cart domain.Cart) (domain.Cart, error)
	UpdateByID(ctx context.Context, id int64, cart domain.Cart) (domain.Cart, error)
	DeleteByID(ctx context.Context, id int64) error
}

// CartHandler forwards the caller's token to the user lookups explicitly.
type CartHandler struct {
	carts   CartService
	timeout time.Duration
}

func NewCartHandler(carts CartService, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		timeout: timeout,
	}
}

// GET /api/carts
func (h *CartHandler) ListCarts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	carts, err := h.carts.ListAll(ctx, auth.TokenFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, carts)
}

// GET /api/carts/all?page&size&sortBy&sortOrder
func (h *CartHandler) ListCartsPaged(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	spec, err := domain.CartSortFields.Parse(q.Get("page"), q.Get("size"), q.Get("sortBy"), q.Get("sortOrder"))
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	page, err := h.carts.ListPaged(ctx, spec, auth.TokenFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, page)
}

// GET /api/carts/{cart_id}
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "cart_id")
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart, err := h.carts.FindByID(ctx, id, auth.TokenFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, cart)
}

// POST /api/carts
func (h *CartHandler) CreateCart(w http.ResponseWriter, r *http.Request) {
	var in domain.Cart
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart, err := h.carts.Save(ctx, in)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, cart)
}

// PUT /api/carts
func (h *CartHandler) UpdateCart(w http.ResponseWriter, r *http.Request) {
	var in domain.Cart
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart, err := h.carts.Update(ctx, in)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, cart)
}

// PUT /api/carts/{cart_id}
func (h *CartHandler) UpdateCartByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "cart_id")
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	var in domain.Cart
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart, err := h.carts.UpdateByID(ctx, id, in)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, cart)
}

// DELETE /api/carts/{cart_id}
func (h *CartHandler) DeleteCart(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "cart_id")
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.carts.DeleteByID(ctx, id); err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, true)
}
