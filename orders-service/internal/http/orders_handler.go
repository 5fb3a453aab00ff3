package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kirangajul/e-commerce-microservices/orders-service/internal/domain"
	"github.com/kirangajul/e-commerce-microservices/pkg/apperr"
	"github.com/kirangajul/e-commerce-microservices/pkg/httpx"
	"github.com/kirangajul/e-commerce-microservices/pkg/paging"
)

type OrderService interface {
	ListAll(ctx context.Context) ([]domain.EnrichedOrder, error)
	ListPaged(ctx context.Context, spec paging.Spec) (paging.Page[domain.EnrichedOrder], error)
	FindByID(ctx context.Context, id int64) (domain.EnrichedOrder, error)
	Save(ctx context.Context, order domain.Order) (domain.Order, error)
	Update(ctx context.Context, order domain.Order) (domain.Order, error)
	UpdateByID(ctx context.Context, id int64, order domain.Order) (domain.Order, error)
	DeleteByID(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
}

type OrdersHandler struct {
	orders  OrderService
	timeout time.Duration
}

func NewOrdersHandler(orders OrderService, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
	}
}

// GET /api/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.ListAll(ctx)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, orders)
}

// GET /api/orders/all?page&size&sortBy&sortOrder
func (h *OrdersHandler) ListOrdersPaged(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	spec, err := domain.OrderSortFields.Parse(q.Get("page"), q.Get("size"), q.Get("sortBy"), q.Get("sortOrder"))
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	page, err := h.orders.ListPaged(ctx, spec)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, page)
}

// GET /api/orders/{order_id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "order_id")
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	order, err := h.orders.FindByID(ctx, id)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, order)
}

// POST /api/orders
func (h *OrdersHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var in domain.Order
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	order, err := h.orders.Save(ctx, in)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, order)
}

// PUT /api/orders
func (h *OrdersHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	var in domain.Order
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	order, err := h.orders.Update(ctx, in)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, order)
}

// PUT /api/orders/{order_id}
func (h *OrdersHandler) UpdateOrderByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "order_id")
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	var in domain.Order
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	order, err := h.orders.UpdateByID(ctx, id, in)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, order)
}

// DELETE /api/orders/{order_id}
func (h *OrdersHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "order_id")
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.orders.DeleteByID(ctx, id); err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, true)
}

// GET /api/orders/existOrderId?orderId=
func (h *OrdersHandler) OrderExists(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.URL.Query().Get("orderId"), "orderId")
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	exists, err := h.orders.Exists(ctx, id)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, exists)
}

func pathID(r *http.Request, param string) (int64, error) {
	return parseID(chi.URLParam(r, param), param)
}

func parseID(raw, name string) (int64, error) {
	if raw == "" {
		return 0, apperr.Validation("%s is required", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("%s must be a positive integer", name)
	}
	return id, nil
}
