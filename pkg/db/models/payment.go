package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nvelasquez/threadline-backend/pkg/enums"
)

// Payment records one hosted checkout session. Status leaves PENDING exactly
// once, to SUCCESSFUL or EXPIRED; the gateway session is authoritative for
// total and expiry.
type Payment struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	CheckoutID  string              `gorm:"column:checkout_id;not null;uniqueIndex"`
	PaymentLink string              `gorm:"column:payment_link;not null"`
	Status      enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'PENDING'"`
	TotalCents  int                 `gorm:"column:total_cents;not null"`
	ExpiresAt   *time.Time          `gorm:"column:expires_at"`
	Items       []PaymentItem       `gorm:"foreignKey:PaymentID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
