package enums

import "fmt"

// ProductType distinguishes sellable, rentable and spare-part catalog items.
type ProductType string

const (
	ProductTypeSale ProductType = "sale"
	ProductTypeRent ProductType = "rent"
	ProductTypePart ProductType = "part"
)

var validProductTypes = []ProductType{
	ProductTypeSale,
	ProductTypeRent,
	ProductTypePart,
}

// IsValid reports whether the value is a known ProductType.
func (t ProductType) IsValid() bool {
	for _, candidate := range validProductTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseProductType converts raw input into a ProductType.
func ParseProductType(value string) (ProductType, error) {
	for _, candidate := range validProductTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product type %q", value)
}
