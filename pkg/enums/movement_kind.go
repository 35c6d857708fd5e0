package enums

import "fmt"

// MovementKind classifies a stock movement row.
type MovementKind string

const (
	MovementKindIn     MovementKind = "in"
	MovementKindOut    MovementKind = "out"
	MovementKindAdjust MovementKind = "adjust"
)

var validMovementKinds = []MovementKind{
	MovementKindIn,
	MovementKindOut,
	MovementKindAdjust,
}

// IsValid reports whether the value is a known MovementKind.
func (k MovementKind) IsValid() bool {
	for _, candidate := range validMovementKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseMovementKind converts raw input into a MovementKind.
func ParseMovementKind(value string) (MovementKind, error) {
	for _, candidate := range validMovementKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement kind %q", value)
}
