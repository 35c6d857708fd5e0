package enums

import "fmt"

// UnitStatus is the lifecycle of an individually tracked asset. Terminal
// statuses are immutable once reached.
type UnitStatus string

const (
	UnitStatusAvailable          UnitStatus = "available"
	UnitStatusInService          UnitStatus = "in_service"
	UnitStatusRentedOut          UnitStatus = "rented_out"
	UnitStatusIdleAtCustomer     UnitStatus = "idle_at_customer"
	UnitStatusSold               UnitStatus = "sold"
	UnitStatusScrapped           UnitStatus = "scrapped"
	UnitStatusReturnedToSupplier UnitStatus = "returned_to_supplier"
	UnitStatusReturnedToCustomer UnitStatus = "returned_to_customer"
)

var validUnitStatuses = []UnitStatus{
	UnitStatusAvailable,
	UnitStatusInService,
	UnitStatusRentedOut,
	UnitStatusIdleAtCustomer,
	UnitStatusSold,
	UnitStatusScrapped,
	UnitStatusReturnedToSupplier,
	UnitStatusReturnedToCustomer,
}

var terminalUnitStatuses = map[UnitStatus]bool{
	UnitStatusSold:               true,
	UnitStatusScrapped:           true,
	UnitStatusReturnedToSupplier: true,
	UnitStatusReturnedToCustomer: true,
}

// IsValid reports whether the value is a known UnitStatus.
func (s UnitStatus) IsValid() bool {
	for _, candidate := range validUnitStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status ends the unit lifecycle.
func (s UnitStatus) IsTerminal() bool {
	return terminalUnitStatuses[s]
}

// ParseUnitStatus converts raw input into a UnitStatus.
func ParseUnitStatus(value string) (UnitStatus, error) {
	for _, candidate := range validUnitStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid unit status %q", value)
}
