package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tahfidzku_backend/internals/constants"
	"tahfidzku_backend/internals/features/finance/vouchers/model"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func voucher(kind model.VoucherKind, value string, active bool) *model.VoucherModel {
	return &model.VoucherModel{
		VoucherCode:   "TEST",
		VoucherKind:   kind,
		VoucherValue:  dec(value),
		VoucherActive: active,
	}
}

func TestComputeNet(t *testing.T) {
	tests := []struct {
		name         string
		base         string
		v            *model.VoucherModel
		wantDiscount string
		wantNet      string
	}{
		{"registration 10 percent", "100000", voucher(model.VoucherKindPercentage, "10", true), "10000", "90000"},
		{"no voucher", "150000", nil, "0", "150000"},
		{"fixed below base", "150000", voucher(model.VoucherKindFixed, "25000", true), "25000", "125000"},
		{"fixed above base capped", "50000", voucher(model.VoucherKindFixed, "75000", true), "50000", "0"},
		{"percentage over 100 capped", "80000", voucher(model.VoucherKindPercentage, "150", true), "80000", "0"},
		{"negative fixed floored", "80000", voucher(model.VoucherKindFixed, "-1000", true), "0", "80000"},
		{"percentage rounds to rupiah", "99999", voucher(model.VoucherKindPercentage, "15", true), "15000", "84999"},
		{"zero base", "0", voucher(model.VoucherKindPercentage, "10", true), "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			discount, net, err := ComputeNet(dec(tt.base), tt.v)
			require.NoError(t, err)
			assert.True(t, dec(tt.wantDiscount).Equal(discount), "discount got %s", discount)
			assert.True(t, dec(tt.wantNet).Equal(net), "net got %s", net)
			assert.True(t, net.Add(discount).Equal(dec(tt.base)))
		})
	}
}

func TestComputeNetInactiveVoucher(t *testing.T) {
	_, _, err := ComputeNet(dec("100000"), voucher(model.VoucherKindFixed, "10000", false))
	require.ErrorIs(t, err, constants.ErrVoucherInactive)
}

func TestComputeNetNegativeBase(t *testing.T) {
	_, _, err := ComputeNet(dec("-1"), nil)
	require.ErrorIs(t, err, constants.ErrInvalidAmount)
}

func TestComputeNetBoundsAndPurity(t *testing.T) {
	bases := []string{"0", "1", "1000", "99999", "150000", "2500000.50"}
	vouchers := []*model.VoucherModel{
		nil,
		voucher(model.VoucherKindPercentage, "0", true),
		voucher(model.VoucherKindPercentage, "33.3", true),
		voucher(model.VoucherKindPercentage, "100", true),
		voucher(model.VoucherKindPercentage, "250", true),
		voucher(model.VoucherKindFixed, "0", true),
		voucher(model.VoucherKindFixed, "1", true),
		voucher(model.VoucherKindFixed, "100000000", true),
	}

	for _, b := range bases {
		base := dec(b)
		for _, v := range vouchers {
			d1, n1, err := ComputeNet(base, v)
			require.NoError(t, err)
			assert.False(t, n1.IsNegative())
			assert.True(t, n1.LessThanOrEqual(base))
			assert.False(t, d1.IsNegative())

			d2, n2, err := ComputeNet(base, v)
			require.NoError(t, err)
			assert.True(t, d1.Equal(d2))
			assert.True(t, n1.Equal(n2))
		}
	}
}
