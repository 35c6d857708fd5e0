package enums

import "fmt"

// EntryDirection tags a ledger entry as money in or money out.
// The ledger is single-sided: balance = opening + Σ(in) − Σ(out).
type EntryDirection string

const (
	EntryDirectionIn  EntryDirection = "in"
	EntryDirectionOut EntryDirection = "out"
)

var validEntryDirections = []EntryDirection{
	EntryDirectionIn,
	EntryDirectionOut,
}

// IsValid reports whether the value is a known EntryDirection.
func (d EntryDirection) IsValid() bool {
	for _, candidate := range validEntryDirections {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseEntryDirection converts raw input into an EntryDirection.
func ParseEntryDirection(value string) (EntryDirection, error) {
	for _, candidate := range validEntryDirections {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid entry direction %q", value)
}
