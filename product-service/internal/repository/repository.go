package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kirangajul/e-commerce-microservices/pkg/apperr"
	"github.com/kirangajul/e-commerce-microservices/pkg/paging"
	"github.com/kirangajul/e-commerce-microservices/pkg/sqlitedb"
	"github.com/kirangajul/e-commerce-microservices/product-service/internal/domain"
)

var (
	ErrProductNotFound  = apperr.NotFound("product not found")
	ErrCategoryNotFound = apperr.NotFound("category not found")
	ErrIntegrity        = apperr.Conflict("data integrity violation")
)

type ProductRepository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (domain.Product, error)
	CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error)
	CreateProducts(ctx context.Context, ps []domain.Product) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, p domain.Product) (domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

type CategoryRepository interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	// ListCategoriesPage returns one page and the size of the backing set.
	// A non-empty titleFilter restricts both to titles containing it.
	ListCategoriesPage(ctx context.Context, spec paging.Spec, titleFilter string) ([]domain.Category, int64, error)
	GetCategory(ctx context.Context, id int64) (domain.Category, error)
	CreateCategory(ctx context.Context, c domain.Category) (domain.Category, error)
	CreateCategories(ctx context.Context, cs []domain.Category) ([]domain.Category, error)
	UpdateCategory(ctx context.Context, c domain.Category) (domain.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Repository struct {
	db *sql.DB
}

func NewRepository(ctx context.Context, dbPath string) (*Repository, error) {
	db, err := sqlitedb.Open(ctx, dbPath)
	if err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(migrationsPath string) error {
	return sqlitedb.RunMigrations(r.db, migrationsPath)
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// --- products ---

const productColumns = `id, title, image_url, sku, price_unit, quantity, category_id`

func (r *Repository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return products, nil
}

func (r *Repository) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("%w: id %d", ErrProductNotFound, id)
	}
	return p, err
}

func (r *Repository) CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	return insertProduct(ctx, r.db, p)
}

// CreateProducts inserts all products in one transaction; any failure inserts none.
func (r *Repository) CreateProducts(ctx context.Context, ps []domain.Product) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(ps))
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		for _, p := range ps {
			created, err := insertProduct(ctx, tx, p)
			if err != nil {
				return err
			}
			out = append(out, created)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) UpdateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET title = ?, image_url = ?, sku = ?, price_unit = ?, quantity = ?, category_id = ?
		WHERE id = ?
	`, p.Title, p.ImageURL, p.SKU, p.PriceUnit, p.Quantity, nullableID(p.CategoryID), p.ID)
	if err != nil {
		return domain.Product{}, mapWriteErr("update product", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Product{}, fmt.Errorf("%w: id %d", ErrProductNotFound, p.ID)
	}
	return p, nil
}

func (r *Repository) DeleteProduct(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return mapWriteErr("delete product", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: id %d", ErrProductNotFound, id)
	}
	return nil
}

func insertProduct(ctx context.Context, q querier, p domain.Product) (domain.Product, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO products (title, image_url, sku, price_unit, quantity, category_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.Title, p.ImageURL, p.SKU, p.PriceUnit, p.Quantity, nullableID(p.CategoryID))
	if err != nil {
		return domain.Product{}, mapWriteErr("insert product", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Product{}, fmt.Errorf("read product id: %w", err)
	}
	p.ID = id
	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (domain.Product, error) {
	var (
		p          domain.Product
		categoryID sql.NullInt64
	)
	if err := s.Scan(&p.ID, &p.Title, &p.ImageURL, &p.SKU, &p.PriceUnit, &p.Quantity, &categoryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, err
		}
		return domain.Product{}, fmt.Errorf("failed to scan product: %w", err)
	}
	if categoryID.Valid {
		id := categoryID.Int64
		p.CategoryID = &id
	}
	return p, nil
}

// --- categories ---

const categoryColumns = `id, title, image_url, parent_category_id`

func (r *Repository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return queryCategories(ctx, r.db, `SELECT `+categoryColumns+` FROM categories ORDER BY id`)
}

func (r *Repository) ListCategoriesPage(ctx context.Context, spec paging.Spec, titleFilter string) ([]domain.Category, int64, error) {
	where, args := "", []any{}
	if titleFilter != "" {
		where = ` WHERE title LIKE '%' || ? || '%'`
		args = append(args, titleFilter)
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count categories: %w", err)
	}
	if spec.Size == 0 {
		return []domain.Category{}, total, nil
	}

	query := `SELECT ` + categoryColumns + ` FROM categories` + where +
		` ORDER BY ` + domain.CategorySortFields.OrderBy(spec) + ` LIMIT ? OFFSET ?`
	cs, err := queryCategories(ctx, r.db, query, append(args, spec.Size, spec.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	return cs, total, nil
}

func (r *Repository) GetCategory(ctx context.Context, id int64) (domain.Category, error) {
	cs, err := queryCategories(ctx, r.db, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	if err != nil {
		return domain.Category{}, err
	}
	if len(cs) == 0 {
		return domain.Category{}, fmt.Errorf("%w: id %d", ErrCategoryNotFound, id)
	}
	return cs[0], nil
}

func (r *Repository) CreateCategory(ctx context.Context, c domain.Category) (domain.Category, error) {
	return insertCategory(ctx, r.db, c)
}

func (r *Repository) CreateCategories(ctx context.Context, cs []domain.Category) ([]domain.Category, error) {
	out := make([]domain.Category, 0, len(cs))
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		for _, c := range cs {
			created, err := insertCategory(ctx, tx, c)
			if err != nil {
				return err
			}
			out = append(out, created)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, c domain.Category) (domain.Category, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE categories SET title = ?, image_url = ?, parent_category_id = ? WHERE id = ?
	`, c.Title, c.ImageURL, nullableID(c.ParentCategoryID), c.ID)
	if err != nil {
		return domain.Category{}, mapWriteErr("update category", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Category{}, fmt.Errorf("%w: id %d", ErrCategoryNotFound, c.ID)
	}
	return c, nil
}

// DeleteCategory removes the category; products and subcategories keep
// existing with their reference cleared. A missing id is not an error.
func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
		return mapWriteErr("delete category", err)
	}
	return nil
}

func insertCategory(ctx context.Context, q querier, c domain.Category) (domain.Category, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO categories (title, image_url, parent_category_id) VALUES (?, ?, ?)
	`, c.Title, c.ImageURL, nullableID(c.ParentCategoryID))
	if err != nil {
		return domain.Category{}, mapWriteErr("insert category", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Category{}, fmt.Errorf("read category id: %w", err)
	}
	c.ID = id
	return c, nil
}

func queryCategories(ctx context.Context, q querier, query string, args ...any) ([]domain.Category, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	out := []domain.Category{}
	for rows.Next() {
		var (
			c      domain.Category
			parent sql.NullInt64
		)
		if err := rows.Scan(&c.ID, &c.Title, &c.ImageURL, &parent); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		if parent.Valid {
			id := parent.Int64
			c.ParentCategoryID = &id
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

// --- helpers ---

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
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func mapWriteErr(op string, err error) error {
	if sqlitedb.IsConstraint(err) {
		return fmt.Errorf("%s: %w: %v", op, ErrIntegrity, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
