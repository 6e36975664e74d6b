package products

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nvelasquez/threadline-backend/pkg/db/models"
	"github.com/nvelasquez/threadline-backend/pkg/enums"
	"github.com/nvelasquez/threadline-backend/pkg/pagination"
)

// ProductRepository defines the persistence surface required by the product service.
type ProductRepository interface {
	WithTx(tx *gorm.DB) ProductRepository
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) (*models.Product, error)
	FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	List(ctx context.Context, filter ListFilter) ([]models.Product, int64, error)
	ReplaceAssets(ctx context.Context, productID uuid.UUID, assets []models.ProductAsset) error
	ListAssets(ctx context.Context, productID uuid.UUID) ([]models.ProductAsset, error)
	DeleteAssets(ctx context.Context, productID uuid.UUID) error
	MarkDeleted(ctx context.Context, id, userID uuid.UUID) (int64, error)
}

// ListFilter narrows the public catalog listing.
type ListFilter struct {
	Name       string
	PriceGte   *int
	PriceLte   *int
	Categories []enums.ProductCategory
	Page       pagination.Params
}

// Repository persists products and their asset rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a product repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) ProductRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a product together with its asset rows.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	for i := range product.Assets {
		if product.Assets[i].ID == uuid.Nil {
			product.Assets[i].ID = uuid.New()
		}
		product.Assets[i].ProductID = product.ID
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// Update saves the provided product row. Associations are not touched.
func (r *Repository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Omit("Assets").Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// FindActiveByID loads a non-deleted product with its assets.
func (r *Repository) FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Assets", func(db *gorm.DB) *gorm.DB {
			return db.Order("product_assets.created_at ASC")
		}).
		Where("id = ? AND deleted = ?", id, false).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindActiveByIDs loads the non-deleted products matching the given ids.
func (r *Repository) FindActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("id IN ? AND deleted = ?", ids, false).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// List returns a catalog page plus the unpaged match count.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Product, int64, error) {
	page := filter.Page.Normalize()

	query := r.db.WithContext(ctx).Model(&models.Product{}).Where("deleted = ?", false)
	if name := strings.TrimSpace(filter.Name); name != "" {
		query = query.Where("name ILIKE ?", "%"+name+"%")
	}
	if filter.PriceGte != nil {
		query = query.Where("price_cents >= ?", *filter.PriceGte)
	}
	if filter.PriceLte != nil {
		query = query.Where("price_cents <= ?", *filter.PriceLte)
	}
	if len(filter.Categories) > 0 {
		query = query.Where("category IN ?", filter.Categories)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Product
	err := query.
		Preload("Assets", func(db *gorm.DB) *gorm.DB {
			return db.Order("product_assets.created_at ASC")
		}).
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

// ReplaceAssets atomically swaps the asset rows for the product.
func (r *Repository) ReplaceAssets(ctx context.Context, productID uuid.UUID, assets []models.ProductAsset) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("product_id = ?", productID).Delete(&models.ProductAsset{}).Error; err != nil {
		return err
	}
	if len(assets) == 0 {
		return nil
	}
	for i := range assets {
		if assets[i].ID == uuid.Nil {
			assets[i].ID = uuid.New()
		}
		assets[i].ProductID = productID
	}
	return tx.Create(&assets).Error
}

// ListAssets returns asset rows belonging to the product.
func (r *Repository) ListAssets(ctx context.Context, productID uuid.UUID) ([]models.ProductAsset, error) {
	var rows []models.ProductAsset
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteAssets removes all asset rows for the product.
func (r *Repository) DeleteAssets(ctx context.Context, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&models.ProductAsset{}).Error
}

// MarkDeleted soft-deletes the product scoped to its owner.
func (r *Repository) MarkDeleted(ctx context.Context, id, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND user_id = ? AND deleted = ?", id, userID, false).
		Updates(map[string]any{
			"deleted":    true,
			"deleted_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}
