package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductAsset references an uploaded object in the storage bucket. Rows are
// replaced wholesale when a seller swaps product images.
type ProductAsset struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	Key       string    `gorm:"column:key;not null"`
	PublicURL string    `gorm:"column:public_url;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
