package http

import (
	"context"
	"net/http"
	"time"

	"github.com/kirangajul/e-commerce-microservices/pkg/httpx"
	"github.com/kirangajul/e-commerce-microservices/pkg/paging"
	"github.com/kirangajul/e-commerce-microservices/product-service/internal/domain"
)

type CategoryService interface {
	FindAll(ctx context.Context) ([]domain.Category, error)
	FindPage(ctx context.Context, spec paging.Spec, title string) (paging.Page[domain.Category], error)
	FindSorted(ctx context.Context, spec paging.Spec) ([]domain.Category, error)
	FindByID(ctx context.Context, id int64) (domain.Category, error)
	Save(ctx context.Context, c domain.Category) (domain.Category, error)
	SaveAll(ctx context.Context, cs []domain.Category) ([]domain.Category, error)
	Update(ctx context.Context, c domain.Category) (domain.Category, error)
	UpdateByID(ctx context.Context, id int64, c domain.Category) (domain.Category, error)
	DeleteByID(ctx context.Context, id int64) error
}

type CategoryHandler struct {
	categories CategoryService
	timeout    time.Duration
}

func NewCategoryHandler(categories CategoryService, timeout time.Duration) *CategoryHandler {
	return &CategoryHandler{
		categories: categories,
		timeout:    timeout,
	}
}

// GET /api/categories
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cs, err := h.categories.FindAll(ctx)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, cs)
}

// GET /api/categories/paging?page&size&title
func (h *CategoryHandler) ListCategoriesPaged(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	spec, err := domain.CategorySortFields.Parse(q.Get("page"), q.Get("size"), "", "")
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	page, err := h.categories.FindPage(ctx, spec, q.Get("title"))
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, page)
}

// GET /api/categories/paging-and-sorting?pageNo&pageSize&sortBy
func (h *CategoryHandler) ListCategoriesSorted(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	spec, err := domain.CategorySortFields.Parse(q.Get("pageNo"), q.Get("pageSize"), q.Get("sortBy"), "")
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cs, err := h.categories.FindSorted(ctx, spec)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, cs)
}

// GET /api/categories/{category_id}
func (h *CategoryHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "category_id")
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	c, err := h.categories.FindByID(ctx, id)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, c)
}

// POST /api/categories
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in domain.Category
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	c, err := h.categories.Save(ctx, in)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, c)
}

// POST /api/categories/bulk
func (h *CategoryHandler) CreateCategories(w http.ResponseWriter, r *http.Request) {
	var in []domain.Category
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cs, err := h.categories.SaveAll(ctx, in)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusCreated, cs)
}

// PUT /api/categories
func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var in domain.Category
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	c, err := h.categories.Update(ctx, in)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, c)
}

// PUT /api/categories/{category_id}
func (h *CategoryHandler) UpdateCategoryByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "category_id")
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	var in domain.Category
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	c, err := h.categories.UpdateByID(ctx, id, in)
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, c)
}

// DELETE /api/categories/{category_id}
func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "category_id")
	if err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.categories.DeleteByID(ctx, id); err != nil {
		httpx.RespondError(r.Context(), w, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, true)
}
