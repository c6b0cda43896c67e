package model

import (
	"time"

	"github.com/google/uuid"
)

/*
  gateway_payments = instance invoice/VA di payment gateway (1:1 dengan payment non-tunai)
  - external_id = order_id yang kita kirim ke gateway, dipakai callback untuk lookup
  - gateway_status monoton: PENDING → {PAID, SETTLED, EXPIRED, FAILED}, PAID → SETTLED
*/
type GatewayPaymentModel struct {
	GatewayPaymentID        uuid.UUID `gorm:"column:gateway_payment_id;type:uuid;default:gen_random_uuid();primaryKey" json:"gateway_payment_id"`
	GatewayPaymentPaymentID uuid.UUID `gorm:"column:gateway_payment_payment_id;type:uuid;not null;uniqueIndex:uq_gateway_payments_payment" json:"gateway_payment_payment_id"`

	GatewayPaymentInvoiceID  *string `gorm:"column:gateway_payment_invoice_id;type:varchar(120)" json:"gateway_payment_invoice_id"`
	GatewayPaymentExternalID string  `gorm:"column:gateway_payment_external_id;type:varchar(80);not null;uniqueIndex:uq_gateway_payments_external" json:"gateway_payment_external_id"`
	GatewayPaymentURL        *string `gorm:"column:gateway_payment_url" json:"gateway_payment_url"`
	GatewayPaymentChannel    *string `gorm:"column:gateway_payment_channel;type:varchar(40)" json:"gateway_payment_channel"`

	GatewayPaymentExpiry *time.Time    `gorm:"column:gateway_payment_expiry;index" json:"gateway_payment_expiry"`
	GatewayPaymentPaidAt *time.Time    `gorm:"column:gateway_payment_paid_at" json:"gateway_payment_paid_at"`
	GatewayPaymentStatus GatewayStatus `gorm:"column:gateway_payment_status;type:varchar(20);not null;default:'PENDING';index" json:"gateway_payment_status"`

	GatewayPaymentCreatedAt time.Time `gorm:"column:gateway_payment_created_at;not null;autoCreateTime" json:"gateway_payment_created_at"`
	GatewayPaymentUpdatedAt time.Time `gorm:"column:gateway_payment_updated_at;not null;autoUpdateTime" json:"gateway_payment_updated_at"`
}

func (GatewayPaymentModel) TableName() string {
	return "gateway_payments"
}
