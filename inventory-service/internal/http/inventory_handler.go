package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kirangajul/e-commerce-microservices/inventory-service/internal/domain"
	"github.com/kirangajul/e-commerce-microservices/pkg/apperr"
	"github.com/kirangajul/e-commerce-microservices/pkg/auth"
	"github.com/kirangajul/e-commerce-microservices/pkg/httpx"
	"github.com/kirangajul/e-commerce-microservices/pkg/logger"
	"go.uber.org/zap"
)

type StockReader interface {
	FindByProductNames(ctx context.Context, names []string) ([]domain.Inventory, error)
}

type InventoryHandler struct {
	stock     StockReader
	validator auth.TokenValidator
	timeout   time.Duration
	// strict rejects invalid tokens with 401 instead of the degraded reply.
	strict bool
}

func NewInventoryHandler(stock StockReader, validator auth.TokenValidator, timeout time.Duration, strict bool) *InventoryHandler {
	return &InventoryHandler{
		stock:     stock,
		validator: validator,
		timeout:   timeout,
		strict:    strict,
	}
}

func (h *InventoryHandler) Register(r chi.Router) {
	r.Get("/api/inventory", h.IsInStock)
}

// GET /api/inventory?productName=a&productName=b (or productName=a,b)
func (h *InventoryHandler) IsInStock(w http.ResponseWriter, r *http.Request) {
	if _, err := h.validator.Validate(r.Context(), r.Header.Get("Authorization")); err != nil {
		if h.strict || !errors.Is(err, apperr.ErrUnauthorized) {
			httpx.RespondError(r.Context(), w, err)
			return
		}
		logger.FromContext(r.Context()).Info("token rejected, returning empty stock status")
		httpx.RespondJSON(w, http.StatusOK, domain.UnauthorizedStatus())
		return
	}

	names := productNames(r)
	if len(names) == 0 {
		httpx.RespondError(r.Context(), w, apperr.Validation("productName is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	logger.FromContext(r.Context()).Info("checking inventory", zap.Strings("product_names", names))
	items, err := h.stock.FindByProductNames(ctx, names)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	out := make([]domain.StockStatus, 0, len(items))
	for _, i := range items {
		out = append(out, domain.NewStockStatus(i))
	}
	httpx.RespondJSON(w, http.StatusOK, out)
}

func productNames(r *http.Request) []string {
	var names []string
	for _, v := range r.URL.Query()["productName"] {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}
