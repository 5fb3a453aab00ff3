package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/kirangajul/e-commerce-microservices/orders-service/internal/domain"
	"github.com/kirangajul/e-commerce-microservices/pkg/apperr"
	"github.com/kirangajul/e-commerce-microservices/pkg/paging"
)

var (
	ErrCartNotFound  = apperr.NotFound("cart not found")
	ErrOrderNotFound = apperr.NotFound("order not found")
	ErrIntegrity     = apperr.Conflict("integrity constraint violated")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	SSLMode           string
	MigrationsDirPath string
}

type CartRepository interface {
	ListCarts(ctx context.Context) ([]domain.Cart, error)
	ListCartsPage(ctx context.Context, spec paging.Spec) ([]domain.Cart, int64, error)
	GetCart(ctx context.Context, id int64) (domain.Cart, error)
	// CreateCart inserts the cart, its orders and a cart.created outbox event atomically.
	CreateCart(ctx context.Context, cart domain.Cart) (domain.Cart, error)
	UpdateCart(ctx context.Context, cart domain.Cart) (domain.Cart, error)
}

type OrderRepository interface {
	ListOrders(ctx context.Context) ([]domain.Order, error)
	ListOrdersPage(ctx context.Context, spec paging.Spec) ([]domain.Order, int64, error)
	GetOrder(ctx context.Context, id int64) (domain.Order, error)
	CreateOrder(ctx context.Context, order domain.Order) (domain.Order, error)
	UpdateOrder(ctx context.Context, order domain.Order) (domain.Order, error)
	DeleteOrder(ctx context.Context, id int64) error
	OrderExists(ctx context.Context, id int64) (bool, error)
}

// CascadeStore is the set of writes available inside one transaction.
type CascadeStore interface {
	// LockCart loads the cart row FOR UPDATE. Missing carts report ok=false.
	LockCart(ctx context.Context, id int64) (cart domain.Cart, ok bool, err error)
	DeleteOrdersByCart(ctx context.Context, cartID int64) (int64, error)
	DeleteCart(ctx context.Context, id int64) error
	AppendOutbox(ctx context.Context, event domain.OutboxEvent) error
}

type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(tx CascadeStore) error) error
}

type OutboxRepository interface {
	FetchUnpublished(ctx context.Context, limit int) ([]domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id uuid.UUID) error
}
