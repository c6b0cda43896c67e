package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type VoucherKind string

const (
	VoucherKindPercentage VoucherKind = "PERCENTAGE"
	VoucherKindFixed      VoucherKind = "FIXED"
)

/*
  vouchers = instrumen diskon untuk pendaftaran & SPP
  - satu counter uses_consumed dipakai bersama oleh registrasi dan periode SPP
  - increment hanya lewat SQL (uses_consumed = uses_consumed + 1), tidak pernah read-then-write
*/
type VoucherModel struct {
	VoucherID           uuid.UUID       `gorm:"column:voucher_id;type:uuid;default:gen_random_uuid();primaryKey" json:"voucher_id"`
	VoucherCode         string          `gorm:"column:voucher_code;type:varchar(50);not null;uniqueIndex:uq_vouchers_code" json:"voucher_code"`
	VoucherKind         VoucherKind     `gorm:"column:voucher_kind;type:varchar(20);not null" json:"voucher_kind"`
	VoucherValue        decimal.Decimal `gorm:"column:voucher_value;type:numeric(14,2);not null" json:"voucher_value"`
	VoucherUsesConsumed int64           `gorm:"column:voucher_uses_consumed;not null;default:0" json:"voucher_uses_consumed"`
	VoucherActive       bool            `gorm:"column:voucher_active;not null;default:true" json:"voucher_active"`

	VoucherCreatedAt time.Time `gorm:"column:voucher_created_at;not null;autoCreateTime" json:"voucher_created_at"`
	VoucherUpdatedAt time.Time `gorm:"column:voucher_updated_at;not null;autoUpdateTime" json:"voucher_updated_at"`
}

func (VoucherModel) TableName() string {
	return "vouchers"
}
