package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nvelasquez/threadline-backend/pkg/db/models"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:cartrepo?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	carts := `
CREATE TABLE IF NOT EXISTS carts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`
	cartItems := `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (cart_id, product_id)
);`
	productsTable := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT NOT NULL,
  category TEXT NOT NULL,
  price_cents INTEGER NOT NULL,
  stripe_product_id TEXT NOT NULL,
  stripe_price_id TEXT NOT NULL,
  product_details TEXT NOT NULL DEFAULT '{}',
  care_details TEXT NOT NULL DEFAULT '{}',
  shipping_returns TEXT NOT NULL,
  deleted INTEGER NOT NULL DEFAULT 0,
  deleted_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`

	for _, ddl := range []string{carts, cartItems, productsTable} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM cart_items")
		db.Exec("DELETE FROM carts")
		db.Exec("DELETE FROM products")
	})
	return db
}

func TestFindOrCreateByUserCreatesOnce(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	first, err := repo.FindOrCreateByUser(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Empty(t, first.Items)

	second, err := repo.FindOrCreateByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestUpsertItemConvergesOnOneLine(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	cart, err := repo.FindOrCreateByUser(ctx, uuid.New())
	require.NoError(t, err)
	productID := uuid.New()

	first, err := repo.UpsertItem(ctx, cart.ID, productID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Quantity)

	second, err := repo.UpsertItem(ctx, cart.ID, productID, 5)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Quantity)

	var count int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("cart_id = ?", cart.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDeleteItemScopedToCart(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	mine, err := repo.FindOrCreateByUser(ctx, uuid.New())
	require.NoError(t, err)
	theirs, err := repo.FindOrCreateByUser(ctx, uuid.New())
	require.NoError(t, err)

	line, err := repo.UpsertItem(ctx, theirs.ID, uuid.New(), 1)
	require.NoError(t, err)

	rows, err := repo.DeleteItem(ctx, mine.ID, line.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)

	rows, err = repo.DeleteItem(ctx, theirs.ID, line.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
}

func TestDeleteItemsByProductClearsEveryCart(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	productID := uuid.New()

	for i := 0; i < 3; i++ {
		cart, err := repo.FindOrCreateByUser(ctx, uuid.New())
		require.NoError(t, err)
		_, err = repo.UpsertItem(ctx, cart.ID, productID, i+1)
		require.NoError(t, err)
	}

	require.NoError(t, repo.DeleteItemsByProductWithTx(nil, productID))

	var count int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("product_id = ?", productID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestDeleteItemsByIDs(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	cart, err := repo.FindOrCreateByUser(ctx, uuid.New())
	require.NoError(t, err)

	kept, err := repo.UpsertItem(ctx, cart.ID, uuid.New(), 1)
	require.NoError(t, err)
	gone, err := repo.UpsertItem(ctx, cart.ID, uuid.New(), 2)
	require.NoError(t, err)

	require.NoError(t, repo.DeleteItemsByIDsWithTx(nil, []uuid.UUID{gone.ID}))

	var remaining []models.CartItem
	require.NoError(t, db.Where("cart_id = ?", cart.ID).Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, kept.ID, remaining[0].ID)
}
