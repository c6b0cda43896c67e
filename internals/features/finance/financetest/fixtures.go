package financetest

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	enrollModel "tahfidzku_backend/internals/features/enrollments/student_programs/model"
	"tahfidzku_backend/internals/features/finance/payments/model"
)

// Program: student program ACTIVE dengan tarif yang diberikan
func Program(registrationFee, monthlyFee int64) enrollModel.StudentProgramModel {
	return enrollModel.StudentProgramModel{
		StudentProgramID:              uuid.New(),
		StudentProgramStudentID:       uuid.New(),
		StudentProgramStudentName:     "Ahmad Fauzan",
		StudentProgramName:            "Tahfidz Reguler",
		StudentProgramRegistrationFee: decimal.NewFromInt(registrationFee),
		StudentProgramMonthlyFee:      decimal.NewFromInt(monthlyFee),
		StudentProgramStatus:          enrollModel.StudentProgramActive,
	}
}

// AwaitingRegistration menanam RegistrationPayment + Payment(AWAITING_PAYMENT) + GatewayPayment(PENDING).
// Mengembalikan payment dan external id gateway.
func (s *PaymentStore) AwaitingRegistration(amount int64, externalID string, expiry time.Time) (model.PaymentModel, model.RegistrationPaymentModel) {
	sp := Program(amount, 0)
	s.AddProgram(sp)

	reg := model.RegistrationPaymentModel{
		RegistrationPaymentID:               uuid.New(),
		RegistrationPaymentStudentProgramID: sp.StudentProgramID,
		RegistrationPaymentDate:             time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		RegistrationPaymentBaseFee:          decimal.NewFromInt(amount),
		RegistrationPaymentDiscount:         decimal.Zero,
		RegistrationPaymentNetPayable:       decimal.NewFromInt(amount),
	}
	s.AddRegistration(reg)

	regID := reg.RegistrationPaymentID
	p := model.PaymentModel{
		PaymentID:                    uuid.New(),
		PaymentKind:                  model.PaymentKindRegistration,
		PaymentRegistrationPaymentID: &regID,
		PaymentMethod:                model.PaymentMethodVirtualAccount,
		PaymentAmount:                decimal.NewFromInt(amount),
		PaymentStatus:                model.PaymentStatusAwaitingPayment,
		PaymentCreatedAt:             time.Now().UTC(),
	}
	s.AddPayment(p)

	exp := expiry
	s.AddGateway(model.GatewayPaymentModel{
		GatewayPaymentID:         uuid.New(),
		GatewayPaymentPaymentID:  p.PaymentID,
		GatewayPaymentExternalID: externalID,
		GatewayPaymentExpiry:     &exp,
		GatewayPaymentStatus:     model.GatewayStatusPending,
	})
	return p, reg
}

// PendingTuition menanam RecurringPeriod + Payment(PENDING) dengan method tertentu.
func (s *PaymentStore) PendingTuition(amount int64, method model.PaymentMethod) model.PaymentModel {
	sp := Program(0, amount)
	s.AddProgram(sp)

	per := model.RecurringPeriodModel{
		RecurringPeriodID:               uuid.New(),
		RecurringPeriodStudentProgramID: sp.StudentProgramID,
		RecurringPeriodMonth:            7,
		RecurringPeriodYear:             2025,
		RecurringPeriodBaseFee:          decimal.NewFromInt(amount),
		RecurringPeriodNetPayable:       decimal.NewFromInt(amount),
	}
	s.AddPeriod(per)

	p, err := model.NewTuitionPayment(&per, method)
	if err != nil {
		panic(err)
	}
	p.PaymentCreatedAt = time.Now().UTC()
	s.AddPayment(*p)
	return *p
}
