package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kirangajul/e-commerce-microservices/pkg/apperr"
	"github.com/kirangajul/e-commerce-microservices/pkg/paging"
	"github.com/kirangajul/e-commerce-microservices/product-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ProductServiceMock struct {
	products  []domain.Product
	err       error
	lastID    int64
	lastPatch domain.ProductPatch
	saved     []domain.Product
}

func (m *ProductServiceMock) FindAll(context.Context) ([]domain.Product, error) {
	return m.products, m.err
}

func (m *ProductServiceMock) FindByID(_ context.Context, id int64) (domain.Product, error) {
	m.lastID = id
	if m.err != nil {
		return domain.Product{}, m.err
	}
	return domain.Product{ID: id, Title: "Laptop"}, nil
}

func (m *ProductServiceMock) Save(_ context.Context, p domain.Product) (domain.Product, error) {
	p.ID = 42
	return p, m.err
}

func (m *ProductServiceMock) SaveAll(_ context.Context, ps []domain.Product) ([]domain.Product, error) {
	m.saved = ps
	return ps, m.err
}

func (m *ProductServiceMock) Patch(_ context.Context, patch domain.ProductPatch) (domain.Product, error) {
	m.lastPatch = patch
	return domain.Product{ID: patch.ID}, m.err
}

func (m *ProductServiceMock) UpdateByID(_ context.Context, id int64, p domain.Product) (domain.Product, error) {
	m.lastID = id
	p.ID = id
	return p, m.err
}

func (m *ProductServiceMock) DeleteByID(_ context.Context, id int64) error {
	m.lastID = id
	return m.err
}

type CategoryServiceMock struct {
	err         error
	lastSpec    paging.Spec
	lastTitle   string
	lastID      int64
	updated     domain.Category
	page        paging.Page[domain.Category]
	sortedItems []domain.Category
}

func (m *CategoryServiceMock) FindAll(context.Context) ([]domain.Category, error) {
	return []domain.Category{{ID: 1, Title: "Electronics"}}, m.err
}

func (m *CategoryServiceMock) FindPage(_ context.Context, spec paging.Spec, title string) (paging.Page[domain.Category], error) {
	m.lastSpec, m.lastTitle = spec, title
	return m.page, m.err
}

func (m *CategoryServiceMock) FindSorted(_ context.Context, spec paging.Spec) ([]domain.Category, error) {
	m.lastSpec = spec
	return m.sortedItems, m.err
}

func (m *CategoryServiceMock) FindByID(_ context.Context, id int64) (domain.Category, error) {
	m.lastID = id
	return domain.Category{ID: id}, m.err
}

func (m *CategoryServiceMock) Save(_ context.Context, c domain.Category) (domain.Category, error) {
	c.ID = 7
	return c, m.err
}

func (m *CategoryServiceMock) SaveAll(_ context.Context, cs []domain.Category) ([]domain.Category, error) {
	return cs, m.err
}

func (m *CategoryServiceMock) Update(_ context.Context, c domain.Category) (domain.Category, error) {
	m.updated = c
	return c, m.err
}

func (m *CategoryServiceMock) UpdateByID(_ context.Context, id int64, c domain.Category) (domain.Category, error) {
	m.lastID = id
	c.ID = id
	m.updated = c
	return c, m.err
}

func (m *CategoryServiceMock) DeleteByID(_ context.Context, id int64) error {
	m.lastID = id
	return m.err
}

func newTestRouter(products *ProductServiceMock, categories *CategoryServiceMock) http.Handler {
	r := chi.NewRouter()
	Register(r,
		NewProductHandler(products, time.Second),
		NewCategoryHandler(categories, time.Second),
	)
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestGetProduct(t *testing.T) {
	products := &ProductServiceMock{}
	h := newTestRouter(products, &CategoryServiceMock{})

	rr := do(t, h, http.MethodGet, "/api/products/3", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(3), products.lastID)

	var got domain.Product
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "Laptop", got.Title)
}

func TestGetProduct_Errors(t *testing.T) {
	t.Run("non numeric id", func(t *testing.T) {
		rr := do(t, newTestRouter(&ProductServiceMock{}, &CategoryServiceMock{}), http.MethodGet, "/api/products/abc", "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("missing product", func(t *testing.T) {
		products := &ProductServiceMock{err: apperr.NotFound("product not found")}
		rr := do(t, newTestRouter(products, &CategoryServiceMock{}), http.MethodGet, "/api/products/99", "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("storage failure hides details", func(t *testing.T) {
		products := &ProductServiceMock{err: errors.New("disk I/O error")}
		rr := do(t, newTestRouter(products, &CategoryServiceMock{}), http.MethodGet, "/api/products/1", "")
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, rr.Body.String(), "disk")
	})
}

func TestCreateProducts_Bulk(t *testing.T) {
	products := &ProductServiceMock{}
	h := newTestRouter(products, &CategoryServiceMock{})

	rr := do(t, h, http.MethodPost, "/api/products/bulk", `[{"productTitle":"A"},{"productTitle":"B"}]`)
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Len(t, products.saved, 2)
	assert.Equal(t, "B", products.saved[1].Title)
}

func TestCreateProduct_MalformedBody(t *testing.T) {
	rr := do(t, newTestRouter(&ProductServiceMock{}, &CategoryServiceMock{}), http.MethodPost, "/api/products", `{"productTitle":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPatchProduct(t *testing.T) {
	products := &ProductServiceMock{}
	h := newTestRouter(products, &CategoryServiceMock{})

	rr := do(t, h, http.MethodPatch, "/api/products", `{"productId":4,"quantity":150}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(4), products.lastPatch.ID)
	require.NotNil(t, products.lastPatch.Quantity)
	assert.Equal(t, 150, *products.lastPatch.Quantity)
	assert.Nil(t, products.lastPatch.Title)
}

func TestDeleteProduct(t *testing.T) {
	products := &ProductServiceMock{}
	h := newTestRouter(products, &CategoryServiceMock{})

	rr := do(t, h, http.MethodDelete, "/api/products/5", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `true`, rr.Body.String())
	assert.Equal(t, int64(5), products.lastID)
}

func TestListCategoriesPaged(t *testing.T) {
	categories := &CategoryServiceMock{
		page: paging.NewPage([]domain.Category{{ID: 2, Title: "Books"}}, paging.Spec{Page: 1, Size: 1}, 3),
	}
	h := newTestRouter(&ProductServiceMock{}, categories)

	rr := do(t, h, http.MethodGet, "/api/categories/paging?page=1&size=1&title=Bo", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, categories.lastSpec.Page)
	assert.Equal(t, 1, categories.lastSpec.Size)
	assert.Equal(t, "Bo", categories.lastTitle)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.EqualValues(t, 3, got["totalElements"])
	assert.EqualValues(t, 3, got["totalPages"])
	assert.Len(t, got["content"], 1)
}

func TestListCategoriesSorted(t *testing.T) {
	categories := &CategoryServiceMock{sortedItems: []domain.Category{{ID: 1}, {ID: 2}}}
	h := newTestRouter(&ProductServiceMock{}, categories)

	rr := do(t, h, http.MethodGet, "/api/categories/paging-and-sorting?pageNo=0&pageSize=2&sortBy=categoryTitle", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "categoryTitle", categories.lastSpec.SortField)
	assert.Equal(t, paging.Asc, categories.lastSpec.Direction)

	var got []domain.Category
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Len(t, got, 2)
}

func TestListCategories_BadPaging(t *testing.T) {
	h := newTestRouter(&ProductServiceMock{}, &CategoryServiceMock{})

	for _, target := range []string{
		"/api/categories/paging?page=-1",
		"/api/categories/paging?size=1000",
		"/api/categories/paging-and-sorting?sortBy=password",
	} {
		rr := do(t, h, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
	}
}

func TestUpdateCategory(t *testing.T) {
	categories := &CategoryServiceMock{}
	h := newTestRouter(&ProductServiceMock{}, categories)

	rr := do(t, h, http.MethodPut, "/api/categories/8", `{"categoryId":1,"categoryTitle":"Garden"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(8), categories.updated.ID)

	rr = do(t, h, http.MethodPut, "/api/categories", `{"categoryId":2,"categoryTitle":"Toys"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(2), categories.updated.ID)
}

func TestDeleteCategory_Conflict(t *testing.T) {
	categories := &CategoryServiceMock{err: apperr.Conflict("data integrity violation")}
	h := newTestRouter(&ProductServiceMock{}, categories)

	rr := do(t, h, http.MethodDelete, "/api/categories/1", "")
	assert.Equal(t, http.StatusConflict, rr.Code)
}
