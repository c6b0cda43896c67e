package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tahfidzku_backend/internals/constants"
	"tahfidzku_backend/internals/features/finance/money"
	"tahfidzku_backend/internals/features/finance/vouchers/model"
)

type CreateVoucherRequest struct {
	Code  string          `json:"code" validate:"required,min=3,max=50"`
	Kind  string          `json:"kind" validate:"required,oneof=PERCENTAGE FIXED"`
	Value decimal.Decimal `json:"value"`
}

// CheckValue: nilai > 0; voucher FIXED harus rupiah penuh supaya tagihan tetap bulat.
func (r CreateVoucherRequest) CheckValue() error {
	if !r.Value.IsPositive() {
		return fmt.Errorf("value %s: %w", r.Value, constants.ErrInvalidAmount)
	}
	if model.VoucherKind(r.Kind) == model.VoucherKindFixed && !money.IsWholeRupiah(r.Value) {
		return fmt.Errorf("fixed value %s bukan rupiah penuh: %w", r.Value, constants.ErrInvalidAmount)
	}
	return nil
}

func (r CreateVoucherRequest) ToModel() model.VoucherModel {
	return model.VoucherModel{
		VoucherCode:   strings.ToUpper(strings.TrimSpace(r.Code)),
		VoucherKind:   model.VoucherKind(r.Kind),
		VoucherValue:  r.Value,
		VoucherActive: true,
	}
}

// QuoteRequest: preview diskon tanpa mengonsumsi voucher
type QuoteRequest struct {
	BaseFee     decimal.Decimal `json:"base_fee"`
	VoucherCode string          `json:"voucher_code"`
}

type QuoteResponse struct {
	BaseFee     decimal.Decimal `json:"base_fee"`
	VoucherCode string          `json:"voucher_code,omitempty"`
	Discount    decimal.Decimal `json:"discount"`
	NetPayable  decimal.Decimal `json:"net_payable"`
}

type VoucherResponse struct {
	ID           uuid.UUID       `json:"id"`
	Code         string          `json:"code"`
	Kind         string          `json:"kind"`
	Value        decimal.Decimal `json:"value"`
	UsesConsumed int64           `json:"uses_consumed"`
	Active       bool            `json:"active"`
	CreatedAt    time.Time       `json:"created_at"`
}

func FromModel(m model.VoucherModel) VoucherResponse {
	return VoucherResponse{
		ID:           m.VoucherID,
		Code:         m.VoucherCode,
		Kind:         string(m.VoucherKind),
		Value:        m.VoucherValue,
		UsesConsumed: m.VoucherUsesConsumed,
		Active:       m.VoucherActive,
		CreatedAt:    m.VoucherCreatedAt,
	}
}

func FromModels(list []model.VoucherModel) []VoucherResponse {
	out := make([]VoucherResponse, 0, len(list))
	for _, m := range list {
		out = append(out, FromModel(m))
	}
	return out
}
