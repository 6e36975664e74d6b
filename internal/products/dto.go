package products

import (
	"github.com/nvelasquez/threadline-backend/pkg/enums"
)

// CreateProductInput captures a new catalog listing.
type CreateProductInput struct {
	Name            string
	Description     string
	Category        enums.ProductCategory
	PriceCents      int
	ProductDetails  []string
	CareDetails     []string
	ShippingReturns string
	AssetKeys       []string
}

// EditProductInput carries partial updates; nil fields are left untouched.
type EditProductInput struct {
	Name            *string
	Description     *string
	Category        *enums.ProductCategory
	PriceCents      *int
	ProductDetails  *[]string
	CareDetails     *[]string
	ShippingReturns *string
	AssetKeys       *[]string
}
