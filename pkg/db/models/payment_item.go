package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentItem snapshots one cart line at checkout time. ProductID is a weak
// reference (the product may be soft-deleted later); CartItemID points at the
// originating cart line so webhook reconciliation can clear it, and stays nil
// once that line is gone.
type PaymentItem struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PaymentID  uuid.UUID  `gorm:"column:payment_id;type:uuid;not null;uniqueIndex:idx_payment_items_payment_product"`
	ProductID  uuid.UUID  `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_payment_items_payment_product"`
	Quantity   int        `gorm:"column:quantity;not null"`
	CartItemID *uuid.UUID `gorm:"column:cart_item_id;type:uuid"`
	Product    *Product   `gorm:"foreignKey:ProductID"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
}
