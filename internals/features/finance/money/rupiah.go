package money

import "github.com/shopspring/decimal"

// IsWholeRupiah: Midtrans dan Xendit hanya menerima IDR tanpa sen.
func IsWholeRupiah(v decimal.Decimal) bool {
	return v.Equal(v.Truncate(0))
}

// Rupiah membulatkan ke rupiah penuh (half away from zero).
func Rupiah(v decimal.Decimal) decimal.Decimal {
	return v.Round(0)
}
