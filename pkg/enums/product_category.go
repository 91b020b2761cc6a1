package enums

import "fmt"

// ProductCategory classifies catalog entries the quote builder can select.
type ProductCategory string

const (
	ProductCategoryFrame        ProductCategory = "frame"
	ProductCategoryLensType     ProductCategory = "lens_type"
	ProductCategoryLensMaterial ProductCategory = "lens_material"
	ProductCategoryEnhancement  ProductCategory = "enhancement"
	ProductCategoryContactLens  ProductCategory = "contact_lens"
	ProductCategoryExamService  ProductCategory = "exam_service"
)

var validProductCategories = []ProductCategory{
	ProductCategoryFrame,
	ProductCategoryLensType,
	ProductCategoryLensMaterial,
	ProductCategoryEnhancement,
	ProductCategoryContactLens,
	ProductCategoryExamService,
}

// String implements fmt.Stringer.
func (c ProductCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ProductCategory.
func (c ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseProductCategory converts raw input into a ProductCategory.
func ParseProductCategory(value string) (ProductCategory, error) {
	for _, candidate := range validProductCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}
