package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(context.Background(), ":memory:")
	require.NoError(t, err)
	require.NoError(t, s.RunMigrations("./migrations"))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestFindByProductNames_SeededCatalogue(t *testing.T) {
	s := setupTestStore(t)

	items, err := s.FindByProductNames(context.Background(), []string{"Laptop", "Smartphone", "Men's Shoes"})
	require.NoError(t, err)
	require.Len(t, items, 3)

	// Ordered by id, not by the order of the request.
	assert.Equal(t, "Smartphone", items[0].ProductName)
	assert.Equal(t, 50, items[0].Quantity)
	assert.Equal(t, "Laptop", items[1].ProductName)
	assert.Equal(t, "Men's Shoes", items[2].ProductName)
	for _, i := range items {
		assert.True(t, i.InStock())
	}
}

func TestFindByProductNames_SkipsUnknown(t *testing.T) {
	s := setupTestStore(t)

	items, err := s.FindByProductNames(context.Background(), []string{"Sofa", "Spaceship"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Sofa", items[0].ProductName)
}

func TestFindByProductNames_Empty(t *testing.T) {
	s := setupTestStore(t)

	items, err := s.FindByProductNames(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestFindByProductNames_OutOfStock(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.db.Exec(`UPDATE inventory SET quantity = 0 WHERE product_name = 'Lawn Mower'`)
	require.NoError(t, err)

	items, err := s.FindByProductNames(context.Background(), []string{"Lawn Mower"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.False(t, items[0].InStock())
}

func TestFindByProductNames_CancelledContext(t *testing.T) {
	s := setupTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.FindByProductNames(ctx, []string{"Laptop"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	s := setupTestStore(t)
	require.NoError(t, s.RunMigrations("./migrations"))

	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM inventory`).Scan(&n))
	assert.Equal(t, 25, n)
}
