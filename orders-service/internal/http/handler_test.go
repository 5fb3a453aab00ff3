package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kirangajul/e-commerce-microservices/orders-service/internal/domain"
	"github.com/kirangajul/e-commerce-microservices/orders-service/internal/repository"
	"github.com/kirangajul/e-commerce-microservices/pkg/apperr"
	"github.com/kirangajul/e-commerce-microservices/pkg/auth"
	"github.com/kirangajul/e-commerce-microservices/pkg/httpx"
	"github.com/kirangajul/e-commerce-microservices/pkg/paging"
	"github.com/kirangajul/e-commerce-microservices/pkg/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type OrderServiceMock struct {
	orders   []domain.EnrichedOrder
	page     paging.Page[domain.EnrichedOrder]
	err      error
	lastSpec paging.Spec
	lastID   int64
	saved    domain.Order
	exists   bool
}

func (m *OrderServiceMock) ListAll(context.Context) ([]domain.EnrichedOrder, error) {
	return m.orders, m.err
}

func (m *OrderServiceMock) ListPaged(_ context.Context, spec paging.Spec) (paging.Page[domain.EnrichedOrder], error) {
	m.lastSpec = spec
	return m.page, m.err
}

func (m *OrderServiceMock) FindByID(_ context.Context, id int64) (domain.EnrichedOrder, error) {
	m.lastID = id
	if m.err != nil {
		return domain.EnrichedOrder{}, m.err
	}
	return domain.EnrichedOrder{Order: domain.Order{ID: id}}, nil
}

func (m *OrderServiceMock) Save(_ context.Context, o domain.Order) (domain.Order, error) {
	m.saved = o
	o.ID = 1
	return o, m.err
}

func (m *OrderServiceMock) Update(_ context.Context, o domain.Order) (domain.Order, error) {
	m.saved = o
	return o, m.err
}

func (m *OrderServiceMock) UpdateByID(_ context.Context, id int64, o domain.Order) (domain.Order, error) {
	m.lastID = id
	o.ID = id
	return o, m.err
}

func (m *OrderServiceMock) DeleteByID(_ context.Context, id int64) error {
	m.lastID = id
	return m.err
}

func (m *OrderServiceMock) Exists(_ context.Context, id int64) (bool, error) {
	m.lastID = id
	return m.exists, m.err
}

type CartServiceMock struct {
	carts     []domain.EnrichedCart
	err       error
	lastToken string
	deleted   int64
}

func (m *CartServiceMock) ListAll(_ context.Context, token string) ([]domain.EnrichedCart, error) {
	m.lastToken = token
	return m.carts, m.err
}

func (m *CartServiceMock) ListPaged(_ context.Context, spec paging.Spec, token string) (paging.Page[domain.EnrichedCart], error) {
	m.lastToken = token
	return paging.NewPage(m.carts, spec, int64(len(m.carts))), m.err
}

func (m *CartServiceMock) FindByID(_ context.Context, id int64, token string) (domain.EnrichedCart, error) {
	m.lastToken = token
	return domain.EnrichedCart{Cart: domain.Cart{ID: id}}, m.err
}

func (m *CartServiceMock) Save(_ context.Context, c domain.Cart) (domain.Cart, error) {
	return c, m.err
}

func (m *CartServiceMock) Update(_ context.Context, c domain.Cart) (domain.Cart, error) {
	return c, m.err
}

func (m *CartServiceMock) UpdateByID(_ context.Context, id int64, c domain.Cart) (domain.Cart, error) {
	c.ID = id
	return c, m.err
}

func (m *CartServiceMock) DeleteByID(_ context.Context, id int64) error {
	m.deleted = id
	return m.err
}

// tokenTable maps bearer tokens to the authorities the authority would return.
type tokenTable map[string][]string

func (t tokenTable) Validate(_ context.Context, header string) (auth.ValidationResult, error) {
	roles, ok := t[strings.TrimPrefix(header, auth.BearerPrefix)]
	if !ok || !strings.HasPrefix(header, auth.BearerPrefix) {
		return auth.ValidationResult{}, apperr.Unauthorized("invalid token")
	}
	return auth.ValidationResult{Valid: true, PrincipalName: "tester", Authorities: roles}, nil
}

// --- helpers ---

var tokens = tokenTable{
	"admin-token": {"ADMIN"},
	"user-token":  {"USER"},
	"both-token":  {"ADMIN", "USER"},
}

func newTestRouter(orders OrderService, carts CartService) http.Handler {
	r := chi.NewRouter()
	Register(r, tokens, NewOrdersHandler(orders, time.Second), NewCartHandler(carts, time.Second))
	return r
}

func do(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// --- tests ---

func TestRoleGating(t *testing.T) {
	h := newTestRouter(&OrderServiceMock{}, &CartServiceMock{})
	order := `{"cartId":1,"productId":2,"orderFee":3}`

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   string
		want   int
	}{
		{"list without token", http.MethodGet, "/api/orders", "", "", http.StatusUnauthorized},
		{"list with bad token", http.MethodGet, "/api/orders", "nope", "", http.StatusUnauthorized},
		{"list as user", http.MethodGet, "/api/orders", "user-token", "", http.StatusOK},
		{"list as admin", http.MethodGet, "/api/orders", "admin-token", "", http.StatusOK},
		{"create as user", http.MethodPost, "/api/orders", "user-token", order, http.StatusOK},
		{"create as admin", http.MethodPost, "/api/orders", "admin-token", order, http.StatusForbidden},
		{"bulk update as admin", http.MethodPut, "/api/orders", "admin-token", `{"orderId":1}`, http.StatusOK},
		{"bulk update as user", http.MethodPut, "/api/orders", "user-token", `{"orderId":1}`, http.StatusForbidden},
		{"update by id as user", http.MethodPut, "/api/orders/4", "user-token", order, http.StatusOK},
		{"update by id as admin", http.MethodPut, "/api/orders/4", "admin-token", order, http.StatusForbidden},
		{"delete as user", http.MethodDelete, "/api/orders/4", "user-token", "", http.StatusOK},
		{"delete as admin", http.MethodDelete, "/api/orders/4", "admin-token", "", http.StatusOK},
		{"exists is public", http.MethodGet, "/api/orders/existOrderId?orderId=4", "", "", http.StatusOK},
		{"cart list without token", http.MethodGet, "/api/carts", "", "", http.StatusUnauthorized},
		{"cart create as admin", http.MethodPost, "/api/carts", "admin-token", `{"userId":1}`, http.StatusForbidden},
		{"cart delete as both", http.MethodDelete, "/api/carts/5", "both-token", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestListOrdersPaged_ParsesSpec(t *testing.T) {
	mock := &OrderServiceMock{page: paging.Page[domain.EnrichedOrder]{Items: []domain.EnrichedOrder{}, TotalElements: 25}}
	h := newTestRouter(mock, &CartServiceMock{})

	rec := do(t, h, http.MethodGet, "/api/orders/all?page=0&size=10&sortBy=orderId&sortOrder=DESC", "user-token", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, paging.Spec{Page: 0, Size: 10, SortField: "orderId", Direction: paging.Desc}, mock.lastSpec)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, float64(25), body["totalElements"])
	assert.Contains(t, body, "content")
}

func TestListOrdersPaged_BadSortParams(t *testing.T) {
	h := newTestRouter(&OrderServiceMock{}, &CartServiceMock{})

	rec := do(t, h, http.MethodGet, "/api/orders/all?sortBy=password", "user-token", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/orders/all?sortOrder=up", "user-token", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body httpx.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "invalid_argument", body.Code)
}

func TestGetOrder_Errors(t *testing.T) {
	mock := &OrderServiceMock{err: repository.ErrOrderNotFound}
	h := newTestRouter(mock, &CartServiceMock{})

	rec := do(t, h, http.MethodGet, "/api/orders/77", "user-token", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, int64(77), mock.lastID)

	rec = do(t, h, http.MethodGet, "/api/orders/abc", "user-token", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOrder_ConflictAndBadBody(t *testing.T) {
	mock := &OrderServiceMock{err: repository.ErrIntegrity}
	h := newTestRouter(mock, &CartServiceMock{})

	rec := do(t, h, http.MethodPost, "/api/orders", "user-token", `{"cartId":999,"productId":1}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/orders", "user-token", `{"cartId":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateOrderByID_UsesPathID(t *testing.T) {
	mock := &OrderServiceMock{}
	h := newTestRouter(mock, &CartServiceMock{})

	rec := do(t, h, http.MethodPut, "/api/orders/12", "user-token", `{"orderId":3,"cartId":1,"productId":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(12), mock.lastID)
}

func TestOrderExists(t *testing.T) {
	mock := &OrderServiceMock{exists: true}
	h := newTestRouter(mock, &CartServiceMock{})

	rec := do(t, h, http.MethodGet, "/api/orders/existOrderId?orderId=9", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "true", rec.Body.String())
	assert.Equal(t, int64(9), mock.lastID)

	rec = do(t, h, http.MethodGet, "/api/orders/existOrderId", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListCarts_ForwardsToken(t *testing.T) {
	mock := &CartServiceMock{carts: []domain.EnrichedCart{
		{Cart: domain.Cart{ID: 1, UserID: 2, Orders: []domain.Order{}}, User: remote.User{ID: 2}},
	}}
	h := newTestRouter(&OrderServiceMock{}, mock)

	rec := do(t, h, http.MethodGet, "/api/carts", "user-token", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bearer user-token", mock.lastToken)

	var body []map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body, 1)
	assert.Equal(t, float64(1), body[0]["cartId"])
	assert.Equal(t, map[string]any{"id": float64(2)}, body[0]["user"])
}

func TestDeleteCart(t *testing.T) {
	mock := &CartServiceMock{}
	h := newTestRouter(&OrderServiceMock{}, mock)

	rec := do(t, h, http.MethodDelete, "/api/carts/5", "user-token", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(5), mock.deleted)
	assert.JSONEq(t, "true", rec.Body.String())
}
