package payments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nvelasquez/threadline-backend/pkg/db/models"
	"github.com/nvelasquez/threadline-backend/pkg/enums"
)

func setupPaymentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:paymentsrepo?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	paymentsTable := `
CREATE TABLE IF NOT EXISTS payments (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  checkout_id TEXT NOT NULL UNIQUE,
  payment_link TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'PENDING',
  total_cents INTEGER NOT NULL,
  expires_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	paymentItems := `
CREATE TABLE IF NOT EXISTS payment_items (
  id TEXT PRIMARY KEY,
  payment_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  cart_item_id TEXT,
  quantity INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (payment_id, product_id)
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

	for _, ddl := range []string{paymentsTable, paymentItems, productsTable} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM payment_items")
		db.Exec("DELETE FROM payments")
		db.Exec("DELETE FROM products")
	})
	return db
}

func seedPendingPayment(t *testing.T, repo *Repository, userID uuid.UUID, checkoutID string) *models.Payment {
	t.Helper()
	expires := time.Now().Add(30 * time.Minute).UTC()
	payment, err := repo.Create(context.Background(), &models.Payment{
		UserID:      userID,
		CheckoutID:  checkoutID,
		PaymentLink: "https://checkout.stripe.test/" + checkoutID,
		Status:      enums.PaymentStatusPending,
		TotalCents:  2500,
		ExpiresAt:   &expires,
		Items: []models.PaymentItem{
			{ProductID: uuid.New(), Quantity: 1},
		},
	})
	require.NoError(t, err)
	return payment
}

func TestSettlePendingTransitionsOnce(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedPendingPayment(t, repo, uuid.New(), "cs_settle_once")

	rows, err := repo.SettlePending(ctx, "cs_settle_once", enums.PaymentStatusSuccessful)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	// replayed delivery finds nothing PENDING
	rows, err = repo.SettlePending(ctx, "cs_settle_once", enums.PaymentStatusSuccessful)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)

	stored, err := repo.FindByCheckoutID(ctx, "cs_settle_once")
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusSuccessful, stored.Status)
	assert.Nil(t, stored.ExpiresAt)
}

func TestSettlePendingUnknownCheckout(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)

	rows, err := repo.SettlePending(context.Background(), "cs_never_seen", enums.PaymentStatusExpired)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)
}

func TestMarkExpiredOnlyWhilePending(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	payment := seedPendingPayment(t, repo, uuid.New(), "cs_cancel")

	rows, err := repo.MarkExpired(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	rows, err = repo.MarkExpired(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)
}

func TestExpirePendingByProduct(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	productID := uuid.New()

	tracked, err := repo.Create(ctx, &models.Payment{
		UserID:      uuid.New(),
		CheckoutID:  "cs_with_product",
		PaymentLink: "https://checkout.stripe.test/cs_with_product",
		Status:      enums.PaymentStatusPending,
		TotalCents:  1000,
		Items:       []models.PaymentItem{{ProductID: productID, Quantity: 1}},
	})
	require.NoError(t, err)

	unrelated := seedPendingPayment(t, repo, uuid.New(), "cs_other_product")

	rows, err := repo.ExpirePendingByProductWithTx(nil, productID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	stored, err := repo.FindByID(ctx, tracked.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusExpired, stored.Status)

	untouched, err := repo.FindByID(ctx, unrelated.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPending, untouched.Status)
}

func TestListByUserFiltersStatus(t *testing.T) {
	db := setupPaymentsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	seedPendingPayment(t, repo, userID, "cs_list_pending")
	settled := seedPendingPayment(t, repo, userID, "cs_list_settled")
	_, err := repo.SettlePending(ctx, settled.CheckoutID, enums.PaymentStatusSuccessful)
	require.NoError(t, err)
	seedPendingPayment(t, repo, uuid.New(), "cs_other_user")

	status := enums.PaymentStatusSuccessful
	rows, total, err := repo.ListByUser(ctx, userID, ListFilter{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, settled.ID, rows[0].ID)

	rows, total, err = repo.ListByUser(ctx, userID, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, rows, 2)
}
