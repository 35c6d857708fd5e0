package enums

import "fmt"

// AccountKind classifies a ledger account bucket.
type AccountKind string

const (
	AccountKindCash        AccountKind = "cash"
	AccountKindBank        AccountKind = "bank"
	AccountKindMobileMoney AccountKind = "mobile_money"
)

var validAccountKinds = []AccountKind{
	AccountKindCash,
	AccountKindBank,
	AccountKindMobileMoney,
}

// IsValid reports whether the value is a known AccountKind.
func (k AccountKind) IsValid() bool {
	for _, candidate := range validAccountKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseAccountKind converts raw input into an AccountKind.
func ParseAccountKind(value string) (AccountKind, error) {
	for _, candidate := range validAccountKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid account kind %q", value)
}
