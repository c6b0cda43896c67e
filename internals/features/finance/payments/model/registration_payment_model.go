package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RegistrationPaymentModel: tagihan biaya pendaftaran satu kali.
// net_payable = base_fee - discount; keduanya >= 0 (CHECK di DB).
type RegistrationPaymentModel struct {
	RegistrationPaymentID               uuid.UUID `gorm:"column:registration_payment_id;type:uuid;default:gen_random_uuid();primaryKey" json:"registration_payment_id"`
	RegistrationPaymentStudentProgramID uuid.UUID `gorm:"column:registration_payment_student_program_id;type:uuid;not null;index" json:"registration_payment_student_program_id"`
	RegistrationPaymentDate             time.Time `gorm:"column:registration_payment_date;type:date;not null" json:"registration_payment_date"`

	RegistrationPaymentBaseFee    decimal.Decimal `gorm:"column:registration_payment_base_fee;type:numeric(14,2);not null" json:"registration_payment_base_fee"`
	RegistrationPaymentVoucherID  *uuid.UUID      `gorm:"column:registration_payment_voucher_id;type:uuid" json:"registration_payment_voucher_id"`
	RegistrationPaymentDiscount   decimal.Decimal `gorm:"column:registration_payment_discount;type:numeric(14,2);not null;default:0" json:"registration_payment_discount"`
	RegistrationPaymentNetPayable decimal.Decimal `gorm:"column:registration_payment_net_payable;type:numeric(14,2);not null" json:"registration_payment_net_payable"`
	RegistrationPaymentSettledAt  *time.Time      `gorm:"column:registration_payment_settled_at" json:"registration_payment_settled_at"`

	RegistrationPaymentCreatedAt time.Time `gorm:"column:registration_payment_created_at;not null;autoCreateTime" json:"registration_payment_created_at"`
}

func (RegistrationPaymentModel) TableName() string {
	return "registration_payments"
}
