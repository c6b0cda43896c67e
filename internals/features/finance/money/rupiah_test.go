package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestIsWholeRupiah(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"0", true},
		{"90000", true},
		{"90000.00", true},
		{"49999.5", false},
		{"0.01", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsWholeRupiah(decimal.RequireFromString(tt.in)), tt.in)
	}
}

func TestRupiah(t *testing.T) {
	assert.True(t, Rupiah(decimal.RequireFromString("49999.5")).Equal(decimal.NewFromInt(50000)))
	assert.True(t, Rupiah(decimal.RequireFromString("12500.4")).Equal(decimal.NewFromInt(12500)))
}
