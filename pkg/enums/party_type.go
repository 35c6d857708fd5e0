package enums

import "fmt"

// PartyType distinguishes suppliers from customers.
type PartyType string

const (
	PartyTypeSupplier PartyType = "supplier"
	PartyTypeCustomer PartyType = "customer"
)

var validPartyTypes = []PartyType{
	PartyTypeSupplier,
	PartyTypeCustomer,
}

// IsValid reports whether the value is a known PartyType.
func (t PartyType) IsValid() bool {
	for _, candidate := range validPartyTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParsePartyType converts raw input into a PartyType.
func ParsePartyType(value string) (PartyType, error) {
	for _, candidate := range validPartyTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid party type %q", value)
}
