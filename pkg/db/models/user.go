package models

import (
	"time"

	"github.com/google/uuid"
)

// User mirrors the identity record owned by the external identity provider.
// Only the fields the storefront needs locally are kept here.
type User struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Email            string    `gorm:"column:email;not null;uniqueIndex"`
	Name             string    `gorm:"column:name;not null"`
	StripeCustomerID *string   `gorm:"column:stripe_customer_id"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
