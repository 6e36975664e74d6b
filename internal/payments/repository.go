package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nvelasquez/threadline-backend/pkg/db/models"
	"github.com/nvelasquez/threadline-backend/pkg/enums"
	"github.com/nvelasquez/threadline-backend/pkg/pagination"
)

// PaymentRepository defines the persistence surface required by the payment service.
type PaymentRepository interface {
	WithTx(tx *gorm.DB) PaymentRepository
	Create(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Payment, error)
	FindByCheckoutID(ctx context.Context, checkoutID string) (*models.Payment, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]models.Payment, int64, error)
	SettlePending(ctx context.Context, checkoutID string, status enums.PaymentStatus) (int64, error)
	MarkExpired(ctx context.Context, id uuid.UUID) (int64, error)
}

// ListFilter narrows a user's payment history.
type ListFilter struct {
	Status *enums.PaymentStatus
	Page   pagination.Params
}

// Repository persists payments and their snapshot items.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a payment repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) PaymentRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts the payment together with its item snapshots.
func (r *Repository) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	for i := range payment.Items {
		if payment.Items[i].ID == uuid.Nil {
			payment.Items[i].ID = uuid.New()
		}
		payment.Items[i].PaymentID = payment.ID
	}
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		return nil, err
	}
	return payment, nil
}

// FindByID loads a payment with items and their (possibly soft-deleted) products.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("payment_items.created_at ASC")
		}).
		Preload("Items.Product").
		Where("id = ?", id).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// FindByIDAndUser loads a payment restricted to its owner.
func (r *Repository) FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND user_id = ?", id, userID).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// FindByCheckoutID loads a payment with items by its checkout session id.
func (r *Repository) FindByCheckoutID(ctx context.Context, checkoutID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("checkout_id = ?", checkoutID).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// ListByUser returns a history page plus the unpaged match count.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]models.Payment, int64, error) {
	page := filter.Page.Normalize()

	query := r.db.WithContext(ctx).Model(&models.Payment{}).Where("user_id = ?", userID)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Payment
	err := query.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("payment_items.created_at ASC")
		}).
		Preload("Items.Product").
		Order("created_at DESC").
		Order("id ASC").
		Offset(page.Skip).
		Limit(page.Take).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// SettlePending applies the PENDING-conditioned terminal transition. Zero
// affected rows means the checkout id is unknown or the payment already
// settled; the caller decides which.
func (r *Repository) SettlePending(ctx context.Context, checkoutID string, status enums.PaymentStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("checkout_id = ? AND status = ?", checkoutID, enums.PaymentStatusPending).
		Updates(map[string]any{
			"status":     status,
			"expires_at": nil,
		})
	return res.RowsAffected, res.Error
}

// MarkExpired expires a payment by id while it is still PENDING.
func (r *Repository) MarkExpired(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, enums.PaymentStatusPending).
		Updates(map[string]any{
			"status":     enums.PaymentStatusExpired,
			"expires_at": nil,
		})
	return res.RowsAffected, res.Error
}

// ExpirePendingByProductWithTx expires every PENDING payment that snapshots
// the given product. Used by the product delete sweep.
func (r *Repository) ExpirePendingByProductWithTx(tx *gorm.DB, productID uuid.UUID) (int64, error) {
	db := tx
	if db == nil {
		db = r.db
	}
	res := db.
		Model(&models.Payment{}).
		Where("status = ?", enums.PaymentStatusPending).
		Where("id IN (?)", db.Session(&gorm.Session{NewDB: true}).
			Model(&models.PaymentItem{}).
			Select("payment_id").
			Where("product_id = ?", productID)).
		Updates(map[string]any{
			"status":     enums.PaymentStatusExpired,
			"expires_at": nil,
		})
	return res.RowsAffected, res.Error
}
