package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kirangajul/e-commerce-microservices/inventory-service/internal/domain"
	"github.com/kirangajul/e-commerce-microservices/pkg/sqlitedb"
)

// SQLiteStore implements InventoryStore on an embedded SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	db, err := sqlitedb.Open(ctx, dbPath)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) RunMigrations(migrationsPath string) error {
	return sqlitedb.RunMigrations(s.db, migrationsPath)
}

func (s *SQLiteStore) FindByProductNames(ctx context.Context, names []string) ([]domain.Inventory, error) {
	if len(names) == 0 {
		return []domain.Inventory{}, nil
	}
	list, err := json.Marshal(names)
	if err != nil {
		return nil, fmt.Errorf("encode product names: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_name, quantity
		FROM inventory
		WHERE product_name IN (SELECT value FROM json_each(?))
		ORDER BY id
	`, string(list))
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}
	defer rows.Close()

	out := []domain.Inventory{}
	for rows.Next() {
		var i domain.Inventory
		if err := rows.Scan(&i.ID, &i.ProductName, &i.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan inventory: %w", err)
		}
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
