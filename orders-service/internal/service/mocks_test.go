package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kirangajul/e-commerce-microservices/orders-service/internal/domain"
	"github.com/kirangajul/e-commerce-microservices/orders-service/internal/repository"
	"github.com/kirangajul/e-commerce-microservices/pkg/apperr"
	"github.com/kirangajul/e-commerce-microservices/pkg/paging"
	"github.com/kirangajul/e-commerce-microservices/pkg/remote"
)

type MockCartRepository struct {
	Carts     []domain.Cart
	Total     int64
	ListErr   error
	GetErr    error
	Created   *domain.Cart
	Updated   *domain.Cart
	UpdateErr error
	LastSpec  paging.Spec
}

func (m *MockCartRepository) ListCarts(context.Context) ([]domain.Cart, error) {
	return m.Carts, m.ListErr
}

func (m *MockCartRepository) ListCartsPage(_ context.Context, spec paging.Spec) ([]domain.Cart, int64, error) {
	m.LastSpec = spec
	return m.Carts, m.Total, m.ListErr
}

func (m *MockCartRepository) GetCart(_ context.Context, id int64) (domain.Cart, error) {
	if m.GetErr != nil {
		return domain.Cart{}, m.GetErr
	}
	for _, c := range m.Carts {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Cart{}, fmt.Errorf("%w: id %d", repository.ErrCartNotFound, id)
}

func (m *MockCartRepository) CreateCart(_ context.Context, cart domain.Cart) (domain.Cart, error) {
	cart.ID = 100
	m.Created = &cart
	return cart, nil
}

func (m *MockCartRepository) UpdateCart(_ context.Context, cart domain.Cart) (domain.Cart, error) {
	m.Updated = &cart
	return cart, m.UpdateErr
}

type MockOrderRepository struct {
	Orders    []domain.Order
	Total     int64
	ListErr   error
	CreateErr error
	Created   *domain.Order
	Deleted   []int64
	Exists    bool
}

func (m *MockOrderRepository) ListOrders(context.Context) ([]domain.Order, error) {
	return m.Orders, m.ListErr
}

func (m *MockOrderRepository) ListOrdersPage(_ context.Context, spec paging.Spec) ([]domain.Order, int64, error) {
	return m.Orders, m.Total, m.ListErr
}

func (m *MockOrderRepository) GetOrder(_ context.Context, id int64) (domain.Order, error) {
	for _, o := range m.Orders {
		if o.ID == id {
			return o, nil
		}
	}
	return domain.Order{}, fmt.Errorf("%w: id %d", repository.ErrOrderNotFound, id)
}

func (m *MockOrderRepository) CreateOrder(_ context.Context, order domain.Order) (domain.Order, error) {
	if m.CreateErr != nil {
		return domain.Order{}, m.CreateErr
	}
	order.ID = 500
	m.Created = &order
	return order, nil
}

func (m *MockOrderRepository) UpdateOrder(_ context.Context, order domain.Order) (domain.Order, error) {
	return order, nil
}

func (m *MockOrderRepository) DeleteOrder(_ context.Context, id int64) error {
	m.Deleted = append(m.Deleted, id)
	return nil
}

func (m *MockOrderRepository) OrderExists(context.Context, int64) (bool, error) {
	return m.Exists, nil
}

// MockUserFetcher fails for ids listed in Fail and records the forwarded token.
type MockUserFetcher struct {
	Fail  map[int64]bool
	Delay time.Duration

	mu        sync.Mutex
	Tokens    []string
	inFlight  atomic.Int32
	PeakCalls atomic.Int32
}

func (m *MockUserFetcher) FetchUser(ctx context.Context, id int64, authorization string) (remote.User, error) {
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		p := m.PeakCalls.Load()
		if n <= p || m.PeakCalls.CompareAndSwap(p, n) {
			break
		}
	}

	m.mu.Lock()
	m.Tokens = append(m.Tokens, authorization)
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return remote.User{}, ctx.Err()
		}
	}
	if m.Fail[id] {
		return remote.User{}, &remote.UpstreamError{Resource: remote.ResourceUser, ID: id, StatusCode: 503}
	}
	return remote.User{ID: id, Username: fmt.Sprintf("user-%d", id), Email: fmt.Sprintf("user%d@example.com", id)}, nil
}

type MockProductFetcher struct {
	Fail  map[int64]bool
	Delay time.Duration
}

func (m *MockProductFetcher) FetchProduct(ctx context.Context, id int64) (remote.Product, error) {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return remote.Product{}, ctx.Err()
		}
	}
	if m.Fail[id] {
		return remote.Product{}, fmt.Errorf("%w: product %d", apperr.ErrUpstreamUnavailable, id)
	}
	return remote.Product{ID: id, Title: fmt.Sprintf("product-%d", id), PriceUnit: 10}, nil
}

// MockUnitOfWork runs the callback against an in-memory store and records the
// order of the calls made inside the transaction.
type MockUnitOfWork struct {
	Carts  map[int64]domain.Cart
	Orders map[int64][]domain.Order
	Calls  []string
	Events []domain.OutboxEvent

	FailOn string
}

func NewMockUnitOfWork() *MockUnitOfWork {
	return &MockUnitOfWork{
		Carts:  map[int64]domain.Cart{},
		Orders: map[int64][]domain.Order{},
	}
}

func (m *MockUnitOfWork) WithinTx(ctx context.Context, fn func(tx repository.CascadeStore) error) error {
	carts := make(map[int64]domain.Cart, len(m.Carts))
	for k, v := range m.Carts {
		carts[k] = v
	}
	orders := make(map[int64][]domain.Order, len(m.Orders))
	for k, v := range m.Orders {
		orders[k] = v
	}
	events := append([]domain.OutboxEvent(nil), m.Events...)

	tx := &mockTx{uow: m, carts: carts, orders: orders, events: events}
	if err := fn(tx); err != nil {
		return err
	}
	m.Carts, m.Orders, m.Events = tx.carts, tx.orders, tx.events
	return nil
}

type mockTx struct {
	uow    *MockUnitOfWork
	carts  map[int64]domain.Cart
	orders map[int64][]domain.Order
	events []domain.OutboxEvent
}

func (t *mockTx) record(call string) error {
	t.uow.Calls = append(t.uow.Calls, call)
	if t.uow.FailOn == call {
		return fmt.Errorf("%s failed", call)
	}
	return nil
}

func (t *mockTx) LockCart(_ context.Context, id int64) (domain.Cart, bool, error) {
	if err := t.record("lock"); err != nil {
		return domain.Cart{}, false, err
	}
	c, ok := t.carts[id]
	if ok {
		c.Orders = t.orders[id]
	}
	return c, ok, nil
}

func (t *mockTx) DeleteOrdersByCart(_ context.Context, cartID int64) (int64, error) {
	if err := t.record("delete_orders"); err != nil {
		return 0, err
	}
	n := int64(len(t.orders[cartID]))
	delete(t.orders, cartID)
	return n, nil
}

func (t *mockTx) DeleteCart(_ context.Context, id int64) error {
	if err := t.record("delete_cart"); err != nil {
		return err
	}
	if len(t.orders[id]) > 0 {
		return apperr.Conflict("cart %d still has orders", id)
	}
	delete(t.carts, id)
	return nil
}

func (t *mockTx) AppendOutbox(_ context.Context, e domain.OutboxEvent) error {
	if err := t.record("outbox"); err != nil {
		return err
	}
	t.events = append(t.events, e)
	return nil
}
