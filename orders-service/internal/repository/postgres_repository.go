package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/kirangajul/e-commerce-microservices/orders-service/internal/domain"
	"github.com/kirangajul/e-commerce-microservices/pkg/paging"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Repository struct {
	db  *sql.DB
	log *zap.Logger
}

func NewRepository(cred *Credentials, log *zap.Logger) (*Repository, error) {
	if log == nil {
		log = zap.L()
	}
	sslMode := cred.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName,
		sslMode)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if e2 := db.PingContext(ctx); e2 != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	log.Info("connected to postgres", zap.String("host", cred.Host), zap.String("db", cred.DBName))
	return &Repository{db: db, log: log}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "orders_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// --- carts ---

func (r *Repository) ListCarts(ctx context.Context) ([]domain.Cart, error) {
	carts, err := queryCarts(ctx, r.db, `SELECT id, user_id FROM carts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return carts, attachOrders(ctx, r.db, carts)
}

func (r *Repository) ListCartsPage(ctx context.Context, spec paging.Spec) ([]domain.Cart, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM carts`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count carts: %w", err)
	}
	if spec.Size == 0 {
		return []domain.Cart{}, total, nil
	}

	query := `SELECT id, user_id FROM carts ORDER BY ` + domain.CartSortFields.OrderBy(spec) + ` LIMIT $1 OFFSET $2`
	carts, err := queryCarts(ctx, r.db, query, spec.Size, spec.Offset())
	if err != nil {
		return nil, 0, err
	}
	return carts, total, attachOrders(ctx, r.db, carts)
}

func (r *Repository) GetCart(ctx context.Context, id int64) (domain.Cart, error) {
	cart, err := getCart(ctx, r.db, id, false)
	if err != nil {
		return domain.Cart{}, err
	}
	carts := []domain.Cart{cart}
	if err := attachOrders(ctx, r.db, carts); err != nil {
		return domain.Cart{}, err
	}
	return carts[0], nil
}

func (r *Repository) CreateCart(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO carts (user_id) VALUES ($1) RETURNING id`, cart.UserID,
		).Scan(&cart.ID)
		if err != nil {
			return mapWriteErr("insert cart", err)
		}

		for i := range cart.Orders {
			cart.Orders[i].CartID = cart.ID
			created, err := insertOrder(ctx, tx, cart.Orders[i])
			if err != nil {
				return err
			}
			cart.Orders[i] = created
		}

		event, err := domain.NewCartEvent(domain.EventCartCreated, cart, time.Now())
		if err != nil {
			return fmt.Errorf("build cart event: %w", err)
		}
		return insertOutbox(ctx, tx, event)
	})
	if err != nil {
		return domain.Cart{}, err
	}
	if cart.Orders == nil {
		cart.Orders = []domain.Order{}
	}
	return cart, nil
}

// UpdateCart changes the cart's owner. Orders are managed through the order endpoints.
func (r *Repository) UpdateCart(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE carts SET user_id = $1, updated_at = NOW() WHERE id = $2`, cart.UserID, cart.ID)
	if err != nil {
		return domain.Cart{}, mapWriteErr("update cart", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Cart{}, fmt.Errorf("%w: id %d", ErrCartNotFound, cart.ID)
	}
	return r.GetCart(ctx, cart.ID)
}

// --- orders ---

const orderColumns = `id, cart_id, product_id, order_fee, order_date, order_desc`

func (r *Repository) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return queryOrders(ctx, r.db, `SELECT `+orderColumns+` FROM orders ORDER BY id`)
}

func (r *Repository) ListOrdersPage(ctx context.Context, spec paging.Spec) ([]domain.Order, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}
	if spec.Size == 0 {
		return []domain.Order{}, total, nil
	}

	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY ` + domain.OrderSortFields.OrderBy(spec) + ` LIMIT $1 OFFSET $2`
	orders, err := queryOrders(ctx, r.db, query, spec.Size, spec.Offset())
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *Repository) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	var o domain.Order
	err := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id).Scan(
		&o.ID, &o.CartID, &o.ProductID, &o.Fee, &o.Date, &o.Description,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, fmt.Errorf("%w: id %d", ErrOrderNotFound, id)
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("query order by id: %w", err)
	}
	return o, nil
}

func (r *Repository) CreateOrder(ctx context.Context, order domain.Order) (domain.Order, error) {
	return insertOrder(ctx, r.db, order)
}

func (r *Repository) UpdateOrder(ctx context.Context, order domain.Order) (domain.Order, error) {
	if order.Date.IsZero() {
		order.Date = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET cart_id = $1, product_id = $2, order_fee = $3, order_date = $4, order_desc = $5
		 WHERE id = $6`,
		order.CartID, order.ProductID, order.Fee, order.Date, order.Description, order.ID)
	if err != nil {
		return domain.Order{}, mapWriteErr("update order", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Order{}, fmt.Errorf("%w: id %d", ErrOrderNotFound, order.ID)
	}
	return r.GetOrder(ctx, order.ID)
}

func (r *Repository) DeleteOrder(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
		return mapWriteErr("delete order", err)
	}
	return nil
}

func (r *Repository) OrderExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check order exists: %w", err)
	}
	return exists, nil
}

// --- transactions ---

func (r *Repository) WithinTx(ctx context.Context, fn func(tx CascadeStore) error) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		return fn(&txStore{tx: tx})
	})
}

func (r *Repository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			r.log.Warn("rollback failed", zap.Error(rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type txStore struct {
	tx *sql.Tx
}

func (s *txStore) LockCart(ctx context.Context, id int64) (domain.Cart, bool, error) {
	cart, err := getCart(ctx, s.tx, id, true)
	if errors.Is(err, ErrCartNotFound) {
		return domain.Cart{}, false, nil
	}
	if err != nil {
		return domain.Cart{}, false, err
	}
	carts := []domain.Cart{cart}
	if err := attachOrders(ctx, s.tx, carts); err != nil {
		return domain.Cart{}, false, err
	}
	return carts[0], true, nil
}

func (s *txStore) DeleteOrdersByCart(ctx context.Context, cartID int64) (int64, error) {
	res, err := s.tx.ExecContext(ctx, `DELETE FROM orders WHERE cart_id = $1`, cartID)
	if err != nil {
		return 0, mapWriteErr("delete orders by cart", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *txStore) DeleteCart(ctx context.Context, id int64) error {
	if _, err := s.tx.ExecContext(ctx, `DELETE FROM carts WHERE id = $1`, id); err != nil {
		return mapWriteErr("delete cart", err)
	}
	return nil
}

func (s *txStore) AppendOutbox(ctx context.Context, event domain.OutboxEvent) error {
	return insertOutbox(ctx, s.tx, event)
}

// --- outbox ---

func (r *Repository) FetchUnpublished(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, aggregate_type, aggregate_id, event_type, payload, created_at
		 FROM outbox_events WHERE published_at IS NULL
		 ORDER BY created_at, id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox events: %w", err)
	}
	defer rows.Close()

	var events []domain.OutboxEvent
	for rows.Next() {
		var e domain.OutboxEvent
		var payload []byte
		if err := rows.Scan(&e.ID, &e.AggregateType, &e.AggregateID, &e.EventType, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		e.Payload = payload
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return events, nil
}

func (r *Repository) MarkPublished(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE outbox_events SET published_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark outbox event published: %w", err)
	}
	return nil
}

// --- helpers ---

func getCart(ctx context.Context, q querier, id int64, forUpdate bool) (domain.Cart, error) {
	query := `SELECT id, user_id FROM carts WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var c domain.Cart
	err := q.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Cart{}, fmt.Errorf("%w: id %d", ErrCartNotFound, id)
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("query cart by id: %w", err)
	}
	return c, nil
}

func queryCarts(ctx context.Context, q querier, query string, args ...any) ([]domain.Cart, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query carts: %w", err)
	}
	defer rows.Close()

	carts := []domain.Cart{}
	for rows.Next() {
		var c domain.Cart
		if err := rows.Scan(&c.ID, &c.UserID); err != nil {
			return nil, fmt.Errorf("scan cart row: %w", err)
		}
		carts = append(carts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return carts, nil
}

// attachOrders loads the orders of all carts with a single query.
func attachOrders(ctx context.Context, q querier, carts []domain.Cart) error {
	if len(carts) == 0 {
		return nil
	}
	ids := make([]int64, len(carts))
	for i, c := range carts {
		ids[i] = c.ID
	}

	orders, err := queryOrders(ctx, q,
		`SELECT `+orderColumns+` FROM orders WHERE cart_id = ANY($1) ORDER BY id`, pq.Array(ids))
	if err != nil {
		return err
	}

	byCart := make(map[int64][]domain.Order, len(carts))
	for _, o := range orders {
		byCart[o.CartID] = append(byCart[o.CartID], o)
	}
	for i := range carts {
		carts[i].Orders = byCart[carts[i].ID]
		if carts[i].Orders == nil {
			carts[i].Orders = []domain.Order{}
		}
	}
	return nil
}

func queryOrders(ctx context.Context, q querier, query string, args ...any) ([]domain.Order, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.CartID, &o.ProductID, &o.Fee, &o.Date, &o.Description); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return orders, nil
}

func insertOrder(ctx context.Context, q querier, order domain.Order) (domain.Order, error) {
	if order.Date.IsZero() {
		order.Date = time.Now().UTC()
	}
	err := q.QueryRowContext(ctx,
		`INSERT INTO orders (cart_id, product_id, order_fee, order_date, order_desc)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id, order_date`,
		order.CartID, order.ProductID, order.Fee, order.Date, order.Description,
	).Scan(&order.ID, &order.Date)
	if err != nil {
		return domain.Order{}, mapWriteErr("insert order", err)
	}
	return order, nil
}

func insertOutbox(ctx context.Context, q querier, e domain.OutboxEvent) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO outbox_events (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.AggregateType, e.AggregateID, e.EventType, string(e.Payload), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

// mapWriteErr turns integrity violations into ErrIntegrity so callers see a conflict.
func mapWriteErr(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23503", "23505", "23502", "23514":
			return fmt.Errorf("%s: %w: %s", op, ErrIntegrity, pqErr.Message)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
