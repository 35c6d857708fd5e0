package pagination

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

// Params carries limit/offset paging for list projections.
type Params struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Normalize clamps the params into their allowed ranges.
func (p Params) Normalize() Params {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Page wraps one page of results with the total row count.
type Page[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}
