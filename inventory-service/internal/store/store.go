package store

import (
	"context"

	"github.com/kirangajul/e-commerce-microservices/inventory-service/internal/domain"
)

// InventoryStore defines the interface for inventory storage operations
type InventoryStore interface {
	// FindByProductNames returns the rows whose name is in names, ordered by id.
	// Unknown names are skipped.
	FindByProductNames(ctx context.Context, names []string) ([]domain.Inventory, error)

	Ping(ctx context.Context) error
	Close() error
}
