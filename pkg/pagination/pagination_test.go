package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDefaults(t *testing.T) {
	p := Params{}.Normalize()
	assert.Equal(t, DefaultLimit, p.Limit)
	assert.Equal(t, 0, p.Offset)
}

func TestNormalizeClampsLimit(t *testing.T) {
	p := Params{Limit: 5000, Offset: -3}.Normalize()
	assert.Equal(t, MaxLimit, p.Limit)
	assert.Equal(t, 0, p.Offset)
}

func TestNormalizeKeepsValidValues(t *testing.T) {
	p := Params{Limit: 10, Offset: 40}.Normalize()
	assert.Equal(t, 10, p.Limit)
	assert.Equal(t, 40, p.Offset)
}
