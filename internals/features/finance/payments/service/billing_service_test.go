package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tahfidzku_backend/internals/constants"
	enrollModel "tahfidzku_backend/internals/features/enrollments/student_programs/model"
	"tahfidzku_backend/internals/features/finance/financetest"
	outboxModel "tahfidzku_backend/internals/features/finance/outbox/model"
	"tahfidzku_backend/internals/features/finance/payments/model"
	voucherModel "tahfidzku_backend/internals/features/finance/vouchers/model"
)

func newBillingFixture() (*financetest.PaymentStore, *BillingService) {
	store := financetest.NewPaymentStore()
	svc := NewBillingService(store.Repo(), zap.NewNop()).WithClock(func() time.Time { return fixedNow })
	return store, svc
}

func seedVoucher(store *financetest.PaymentStore, code string, kind voucherModel.VoucherKind, value int64, active bool) voucherModel.VoucherModel {
	v := voucherModel.VoucherModel{
		VoucherID:     uuid.New(),
		VoucherCode:   code,
		VoucherKind:   kind,
		VoucherValue:  decimal.NewFromInt(value),
		VoucherActive: active,
	}
	store.AddVoucher(v)
	return v
}

func TestCreateRegistrationWithPercentageVoucher(t *testing.T) {
	store, svc := newBillingFixture()
	sp := financetest.Program(100000, 150000)
	store.AddProgram(sp)
	v := seedVoucher(store, "HEMAT10", voucherModel.VoucherKindPercentage, 10, true)

	bill, err := svc.CreateRegistration(context.Background(), RegistrationInput{
		StudentProgramID: sp.StudentProgramID,
		VoucherCode:      "hemat10",
		Method:           model.PaymentMethodVirtualAccount,
	})
	require.NoError(t, err)

	assert.True(t, bill.Registration.RegistrationPaymentDiscount.Equal(decimal.NewFromInt(10000)))
	assert.True(t, bill.Registration.RegistrationPaymentNetPayable.Equal(decimal.NewFromInt(90000)))
	require.NotNil(t, bill.Registration.RegistrationPaymentVoucherID)
	assert.Equal(t, v.VoucherID, *bill.Registration.RegistrationPaymentVoucherID)

	assert.Equal(t, model.PaymentKindRegistration, bill.Payment.PaymentKind)
	assert.Equal(t, bill.Registration.RegistrationPaymentID, bill.Payment.ReferenceID())
	assert.True(t, bill.Payment.PaymentAmount.Equal(decimal.NewFromInt(90000)))
	assert.Equal(t, model.PaymentStatusPending, store.Payment(bill.Payment.PaymentID).PaymentStatus)
	assert.EqualValues(t, 1, store.Voucher(v.VoucherID).VoucherUsesConsumed)
}

func TestCreateRegistrationVoucherErrors(t *testing.T) {
	store, svc := newBillingFixture()
	sp := financetest.Program(100000, 150000)
	store.AddProgram(sp)
	off := seedVoucher(store, "LAMA", voucherModel.VoucherKindFixed, 20000, false)

	_, err := svc.CreateRegistration(context.Background(), RegistrationInput{
		StudentProgramID: sp.StudentProgramID,
		VoucherCode:      "LAMA",
		Method:           model.PaymentMethodCash,
	})
	require.ErrorIs(t, err, constants.ErrVoucherInactive)
	assert.Empty(t, store.Payments())
	assert.EqualValues(t, 0, store.Voucher(off.VoucherID).VoucherUsesConsumed)

	_, err = svc.CreateRegistration(context.Background(), RegistrationInput{
		StudentProgramID: sp.StudentProgramID,
		VoucherCode:      "TIDAKADA",
		Method:           model.PaymentMethodCash,
	})
	require.ErrorIs(t, err, constants.ErrVoucherNotFound)

	_, err = svc.CreateRegistration(context.Background(), RegistrationInput{
		StudentProgramID: sp.StudentProgramID,
		Method:           "TRANSFER",
	})
	require.ErrorIs(t, err, constants.ErrInvalidInput)
}

func TestBillingRejectsFeesWithSen(t *testing.T) {
	store, svc := newBillingFixture()
	sp := financetest.Program(100000, 150000)
	sp.StudentProgramRegistrationFee = decimal.RequireFromString("100000.50")
	sp.StudentProgramMonthlyFee = decimal.RequireFromString("150000.25")
	store.AddProgram(sp)

	_, err := svc.CreateRegistration(context.Background(), RegistrationInput{
		StudentProgramID: sp.StudentProgramID,
		Method:           model.PaymentMethodVirtualAccount,
	})
	require.ErrorIs(t, err, constants.ErrInvalidAmount)

	_, err = svc.IssueRecurringPeriod(context.Background(), PeriodInput{
		StudentProgramID: sp.StudentProgramID,
		Month:            8,
		Year:             2025,
		Method:           model.PaymentMethodVirtualAccount,
	})
	require.ErrorIs(t, err, constants.ErrInvalidAmount)
	assert.Empty(t, store.Payments())
}

func TestConcurrentVoucherRedemption(t *testing.T) {
	store, svc := newBillingFixture()
	v := seedVoucher(store, "RAMADHAN", voucherModel.VoucherKindFixed, 25000, true)

	const n = 40
	programs := make([]enrollModel.StudentProgramModel, n)
	for i := range programs {
		programs[i] = financetest.Program(100000, 150000)
		store.AddProgram(programs[i])
	}

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(sp enrollModel.StudentProgramModel) {
			defer wg.Done()
			_, err := svc.CreateRegistration(context.Background(), RegistrationInput{
				StudentProgramID: sp.StudentProgramID,
				VoucherCode:      "RAMADHAN",
				Method:           model.PaymentMethodVirtualAccount,
			})
			errs <- err
		}(programs[i])
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.EqualValues(t, n, store.Voucher(v.VoucherID).VoucherUsesConsumed)
	assert.Len(t, store.Payments(), n)
}

func TestFullyDiscountedRegistrationSettlesImmediately(t *testing.T) {
	store, svc := newBillingFixture()
	sp := financetest.Program(50000, 150000)
	store.AddProgram(sp)
	seedVoucher(store, "GRATIS", voucherModel.VoucherKindPercentage, 100, true)

	bill, err := svc.CreateRegistration(context.Background(), RegistrationInput{
		StudentProgramID: sp.StudentProgramID,
		VoucherCode:      "GRATIS",
		Method:           model.PaymentMethodCash,
	})
	require.NoError(t, err)
	assert.True(t, bill.Payment.PaymentAmount.IsZero())
	assert.Equal(t, model.PaymentStatusPaid, store.Payment(bill.Payment.PaymentID).PaymentStatus)
	assert.Len(t, store.OutboxOfType(outboxModel.EventEnrollmentActivationRequested), 1)
}

func TestIssueRecurringPeriod(t *testing.T) {
	store, svc := newBillingFixture()
	sp := financetest.Program(100000, 150000)
	store.AddProgram(sp)
	ctx := context.Background()

	bill, err := svc.IssueRecurringPeriod(ctx, PeriodInput{StudentProgramID: sp.StudentProgramID, Month: 8, Year: 2025, Method: model.PaymentMethodVirtualAccount})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentKindTuition, bill.Payment.PaymentKind)
	assert.True(t, bill.Payment.PaymentAmount.Equal(decimal.NewFromInt(150000)))
	assert.Equal(t, time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC), bill.Period.RecurringPeriodDueDate)

	_, err = svc.IssueRecurringPeriod(ctx, PeriodInput{StudentProgramID: sp.StudentProgramID, Month: 8, Year: 2025, Method: model.PaymentMethodVirtualAccount})
	require.ErrorIs(t, err, constants.ErrPeriodExists)
	assert.Len(t, store.Payments(), 1)

	_, err = svc.IssueRecurringPeriod(ctx, PeriodInput{StudentProgramID: sp.StudentProgramID, Month: 13, Year: 2025, Method: model.PaymentMethodCash})
	require.ErrorIs(t, err, constants.ErrInvalidInput)
}

func TestIssueRecurringPeriodRequiresActiveProgram(t *testing.T) {
	store, svc := newBillingFixture()
	sp := financetest.Program(100000, 150000)
	sp.StudentProgramStatus = enrollModel.StudentProgramPending
	store.AddProgram(sp)

	_, err := svc.IssueRecurringPeriod(context.Background(), PeriodInput{StudentProgramID: sp.StudentProgramID, Month: 8, Year: 2025, Method: model.PaymentMethodCash})
	require.ErrorIs(t, err, constants.ErrInvalidTransition)
}

func TestRunMonthlyIsIdempotent(t *testing.T) {
	store, svc := newBillingFixture()
	for i := 0; i < 3; i++ {
		store.AddProgram(financetest.Program(100000, 150000))
	}
	inactive := financetest.Program(100000, 150000)
	inactive.StudentProgramStatus = enrollModel.StudentProgramInactive
	store.AddProgram(inactive)

	res, err := svc.RunMonthly(context.Background(), 9, 2025, model.PaymentMethodVirtualAccount)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Issued)
	assert.Equal(t, 0, res.Skipped)

	res, err = svc.RunMonthly(context.Background(), 9, 2025, model.PaymentMethodVirtualAccount)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Issued)
	assert.Equal(t, 3, res.Skipped)
	assert.Len(t, store.Payments(), 3)
}
