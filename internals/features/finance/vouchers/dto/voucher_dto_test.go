package dto

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"tahfidzku_backend/internals/constants"
)

func TestCheckValue(t *testing.T) {
	tests := []struct {
		name  string
		kind  string
		value string
		ok    bool
	}{
		{"fixed whole", "FIXED", "25000", true},
		{"fixed with sen", "FIXED", "25000.50", false},
		{"percentage fraction allowed", "PERCENTAGE", "12.5", true},
		{"zero", "PERCENTAGE", "0", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CreateVoucherRequest{Code: "HEMAT", Kind: tt.kind, Value: decimal.RequireFromString(tt.value)}.CheckValue()
			if tt.ok {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, constants.ErrInvalidAmount)
		})
	}
}
