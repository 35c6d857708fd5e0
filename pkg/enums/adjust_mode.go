package enums

import "fmt"

// AdjustMode selects how an inventory adjustment interprets its value:
// a signed delta or an absolute target quantity.
type AdjustMode string

const (
	AdjustModeDelta AdjustMode = "delta"
	AdjustModeSet   AdjustMode = "set"
)

var validAdjustModes = []AdjustMode{
	AdjustModeDelta,
	AdjustModeSet,
}

// IsValid reports whether the value is a known AdjustMode.
func (m AdjustMode) IsValid() bool {
	for _, candidate := range validAdjustModes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseAdjustMode converts raw input into an AdjustMode.
func ParseAdjustMode(value string) (AdjustMode, error) {
	for _, candidate := range validAdjustModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid adjust mode %q", value)
}
