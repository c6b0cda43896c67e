package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"tahfidzku_backend/internals/constants"
	"tahfidzku_backend/internals/features/finance/vouchers/model"
)

var hundred = decimal.NewFromInt(100)

// ComputeNet menghitung diskon dan nominal bersih dari biaya dasar.
// voucher nil = tanpa diskon. Voucher nonaktif yang dikirim eksplisit ditolak.
// Fungsi murni: tidak ada I/O, hasil selalu sama untuk input yang sama.
func ComputeNet(baseFee decimal.Decimal, v *model.VoucherModel) (discount, netPayable decimal.Decimal, err error) {
	if baseFee.IsNegative() {
		return decimal.Zero, decimal.Zero, fmt.Errorf("base fee %s: %w", baseFee, constants.ErrInvalidAmount)
	}
	if v == nil {
		return decimal.Zero, baseFee, nil
	}
	if !v.VoucherActive {
		return decimal.Zero, decimal.Zero, fmt.Errorf("voucher %s: %w", v.VoucherCode, constants.ErrVoucherInactive)
	}

	switch v.VoucherKind {
	case model.VoucherKindPercentage:
		// dibulatkan ke rupiah penuh
		discount = baseFee.Mul(v.VoucherValue).Div(hundred).Round(0)
	case model.VoucherKindFixed:
		discount = v.VoucherValue
	default:
		return decimal.Zero, decimal.Zero, fmt.Errorf("voucher %s: unknown kind %q", v.VoucherCode, v.VoucherKind)
	}

	discount = clamp(discount, decimal.Zero, baseFee)
	return discount, baseFee.Sub(discount), nil
}

func clamp(d, lo, hi decimal.Decimal) decimal.Decimal {
	if d.LessThan(lo) {
		return lo
	}
	if d.GreaterThan(hi) {
		return hi
	}
	return d
}
