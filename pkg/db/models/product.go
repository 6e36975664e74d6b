package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/nvelasquez/threadline-backend/pkg/enums"
)

// Product represents a catalog listing owned by a seller. Rows are never hard
// deleted; historical payments keep rendering name/price through the soft flag.
type Product struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID             `gorm:"column:user_id;type:uuid;not null"`
	Name            string                `gorm:"column:name;not null"`
	Description     string                `gorm:"column:description;not null"`
	Category        enums.ProductCategory `gorm:"column:category;type:text;not null"`
	PriceCents      int                   `gorm:"column:price_cents;not null"`
	StripeProductID string                `gorm:"column:stripe_product_id;not null"`
	StripePriceID   string                `gorm:"column:stripe_price_id;not null"`
	ProductDetails  pq.StringArray        `gorm:"column:product_details;type:text[];not null;default:ARRAY[]::text[]"`
	CareDetails     pq.StringArray        `gorm:"column:care_details;type:text[];not null;default:ARRAY[]::text[]"`
	ShippingReturns string                `gorm:"column:shipping_returns;not null"`
	Deleted         bool                  `gorm:"column:deleted;not null;default:false"`
	DeletedAt       *time.Time            `gorm:"column:deleted_at"`
	Assets          []ProductAsset        `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
