package enums

import "fmt"

// UnitOwnership records who owns a tracked asset while it sits in the shop.
type UnitOwnership string

const (
	UnitOwnershipOwned         UnitOwnership = "owned"
	UnitOwnershipCustomerOwned UnitOwnership = "customer_owned"
	UnitOwnershipRentedIn      UnitOwnership = "rented_in"
)

var validUnitOwnerships = []UnitOwnership{
	UnitOwnershipOwned,
	UnitOwnershipCustomerOwned,
	UnitOwnershipRentedIn,
}

// IsValid reports whether the value is a known UnitOwnership.
func (o UnitOwnership) IsValid() bool {
	for _, candidate := range validUnitOwnerships {
		if candidate == o {
			return true
		}
	}
	return false
}

// TagLetter returns the single letter embedded in shop-generated tags.
func (o UnitOwnership) TagLetter() string {
	switch o {
	case UnitOwnershipCustomerOwned:
		return "C"
	case UnitOwnershipRentedIn:
		return "R"
	default:
		return "O"
	}
}

// ParseUnitOwnership converts raw input into a UnitOwnership.
func ParseUnitOwnership(value string) (UnitOwnership, error) {
	for _, candidate := range validUnitOwnerships {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid unit ownership %q", value)
}
