package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kirangajul/e-commerce-microservices/pkg/apperr"
	"github.com/kirangajul/e-commerce-microservices/pkg/httpx"
	"github.com/kirangajul/e-commerce-microservices/pkg/logger"
	"github.com/kirangajul/e-commerce-microservices/product-service/internal/domain"
	"go.uber.org/zap"
)

type ProductService interface {
	FindAll(ctx context.Context) ([]domain.Product, error)
	FindByID(ctx context.Context, id int64) (domain.Product, error)
	Save(ctx context.Context, p domain.Product) (domain.Product, error)
	SaveAll(ctx context.Context, ps []domain.Product) ([]domain.Product, error)
	Patch(ctx context.Context, patch domain.ProductPatch) (domain.Product, error)
	UpdateByID(ctx context.Context, id int64, p domain.Product) (domain.Product, error)
	DeleteByID(ctx context.Context, id int64) error
}

type ProductHandler struct {
	products ProductService
	timeout  time.Duration
}

func NewProductHandler(products ProductService, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		products: products,
		timeout:  timeout,
	}
}

// GET /api/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.products.FindAll(ctx)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, products)
}

// GET /api/products/{product_id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "product_id")
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := h.products.FindByID(ctx, id)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, p)
}

// POST /api/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var in domain.Product
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := h.products.Save(ctx, in)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, p)
}

// POST /api/products/bulk
func (h *ProductHandler) CreateProducts(w http.ResponseWriter, r *http.Request) {
	var in []domain.Product
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	ps, err := h.products.SaveAll(ctx, in)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	logger.FromContext(r.Context()).Info("products saved in bulk", zap.Int("count", len(ps)))
	httpx.RespondJSON(w, http.StatusCreated, ps)
}

// PATCH /api/products
func (h *ProductHandler) PatchProduct(w http.ResponseWriter, r *http.Request) {
	var in domain.ProductPatch
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := h.products.Patch(ctx, in)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, p)
}

// PUT /api/products/{product_id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "product_id")
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	var in domain.Product
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := h.products.UpdateByID(ctx, id, in)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, p)
}

// DELETE /api/products/{product_id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "product_id")
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.products.DeleteByID(ctx, id); err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, true)
}

func pathID(r *http.Request, param string) (int64, error) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("%s must be a positive integer", param)
	}
	return id, nil
}
