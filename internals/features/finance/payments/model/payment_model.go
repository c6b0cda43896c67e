// file: internals/features/finance/payments/model/payment_model.go
package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

/*
  payments = pembayaran generik untuk biaya pendaftaran ATAU SPP bulanan.
  Referensi bertipe: tepat satu dari registration_payment_id / recurring_period_id terisi,
  sesuai kind. Dijaga di konstruktor + CHECK constraint di DB (lihat migrate.go).
*/
type PaymentModel struct {
	PaymentID   uuid.UUID   `gorm:"column:payment_id;type:uuid;default:gen_random_uuid();primaryKey" json:"payment_id"`
	PaymentKind PaymentKind `gorm:"column:payment_kind;type:varchar(20);not null" json:"payment_kind"`

	PaymentRegistrationPaymentID *uuid.UUID `gorm:"column:payment_registration_payment_id;type:uuid;index" json:"payment_registration_payment_id,omitempty"`
	PaymentRecurringPeriodID     *uuid.UUID `gorm:"column:payment_recurring_period_id;type:uuid;index" json:"payment_recurring_period_id,omitempty"`

	PaymentMethod PaymentMethod   `gorm:"column:payment_method;type:varchar(20);not null" json:"payment_method"`
	PaymentAmount decimal.Decimal `gorm:"column:payment_amount;type:numeric(14,2);not null" json:"payment_amount"`
	PaymentStatus PaymentStatus   `gorm:"column:payment_status;type:varchar(20);not null;default:'PENDING';index" json:"payment_status"`
	PaymentPaidAt *time.Time      `gorm:"column:payment_paid_at" json:"payment_paid_at"`

	PaymentCreatedAt time.Time `gorm:"column:payment_created_at;not null;autoCreateTime" json:"payment_created_at"`
	PaymentUpdatedAt time.Time `gorm:"column:payment_updated_at;not null;autoUpdateTime" json:"payment_updated_at"`
}

func (PaymentModel) TableName() string {
	return "payments"
}

var ErrBadReference = errors.New("payment reference does not match kind")

// NewRegistrationPayment: Payment(PENDING) untuk satu RegistrationPayment, nominal = net_payable.
func NewRegistrationPayment(reg *RegistrationPaymentModel, method PaymentMethod) (*PaymentModel, error) {
	if reg == nil || reg.RegistrationPaymentID == uuid.Nil {
		return nil, ErrBadReference
	}
	id := reg.RegistrationPaymentID
	return newPayment(PaymentKindRegistration, &id, nil, method, reg.RegistrationPaymentNetPayable)
}

// NewTuitionPayment: Payment(PENDING) untuk satu periode SPP.
func NewTuitionPayment(period *RecurringPeriodModel, method PaymentMethod) (*PaymentModel, error) {
	if period == nil || period.RecurringPeriodID == uuid.Nil {
		return nil, ErrBadReference
	}
	id := period.RecurringPeriodID
	return newPayment(PaymentKindTuition, nil, &id, method, period.RecurringPeriodNetPayable)
}

func newPayment(kind PaymentKind, regID, periodID *uuid.UUID, method PaymentMethod, amount decimal.Decimal) (*PaymentModel, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("unknown payment method %q", method)
	}
	p := &PaymentModel{
		PaymentID:                    uuid.New(),
		PaymentKind:                  kind,
		PaymentRegistrationPaymentID: regID,
		PaymentRecurringPeriodID:     periodID,
		PaymentMethod:                method,
		PaymentAmount:                amount,
		PaymentStatus:                PaymentStatusPending,
	}
	if err := p.ValidateReference(); err != nil {
		return nil, err
	}
	return p, nil
}

// ValidateReference memastikan tag kind cocok dengan kolom referensi yang terisi.
func (p *PaymentModel) ValidateReference() error {
	switch p.PaymentKind {
	case PaymentKindRegistration:
		if p.PaymentRegistrationPaymentID == nil || p.PaymentRecurringPeriodID != nil {
			return ErrBadReference
		}
	case PaymentKindTuition:
		if p.PaymentRecurringPeriodID == nil || p.PaymentRegistrationPaymentID != nil {
			return ErrBadReference
		}
	default:
		return fmt.Errorf("unknown payment kind %q", p.PaymentKind)
	}
	return nil
}

// ReferenceID: id RegistrationPayment atau RecurringPeriod yang dilunasi.
func (p *PaymentModel) ReferenceID() uuid.UUID {
	if p.PaymentKind == PaymentKindRegistration && p.PaymentRegistrationPaymentID != nil {
		return *p.PaymentRegistrationPaymentID
	}
	if p.PaymentRecurringPeriodID != nil {
		return *p.PaymentRecurringPeriodID
	}
	return uuid.Nil
}
