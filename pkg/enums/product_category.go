package enums

import "fmt"

// ProductCategory describes the allowed values for the `category` column in products.
type ProductCategory string

const (
	ProductCategoryApparel     ProductCategory = "apparel"
	ProductCategoryAccessories ProductCategory = "accessories"
	ProductCategoryFootwear    ProductCategory = "footwear"
	ProductCategoryHome        ProductCategory = "home"
)

var validProductCategories = []ProductCategory{
	ProductCategoryApparel,
	ProductCategoryAccessories,
	ProductCategoryFootwear,
	ProductCategoryHome,
}

// IsValid reports whether the value matches the canonical product category enum.
func (p ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == p {
			return true
		}
	}
	return false
}

func (p ProductCategory) String() string {
	return string(p)
}

// ParseProductCategory converts the raw string to ProductCategory.
func ParseProductCategory(value string) (ProductCategory, error) {
	for _, candidate := range validProductCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}
