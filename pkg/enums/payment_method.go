package enums

import "fmt"

// PaymentMethod describes how a customer settles a sale. Each method
// resolves to the active ledger account of the matching kind.
type PaymentMethod string

const (
	PaymentMethodCash        PaymentMethod = "cash"
	PaymentMethodBank        PaymentMethod = "bank"
	PaymentMethodMobileMoney PaymentMethod = "mobile_money"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCash,
	PaymentMethodBank,
	PaymentMethodMobileMoney,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// AccountKind returns the ledger account kind this method settles into.
func (p PaymentMethod) AccountKind() AccountKind {
	switch p {
	case PaymentMethodBank:
		return AccountKindBank
	case PaymentMethodMobileMoney:
		return AccountKindMobileMoney
	default:
		return AccountKindCash
	}
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
