package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tahfidzku_backend/internals/constants"
	"tahfidzku_backend/internals/features/finance/financetest"
	outboxModel "tahfidzku_backend/internals/features/finance/outbox/model"
	"tahfidzku_backend/internals/features/finance/payroll/model"
)

var payrollNow = time.Date(2025, 8, 1, 8, 0, 0, 0, time.UTC)

type fakePayout struct {
	mu    sync.Mutex
	calls []PayoutRequest
	err   error
}

func (f *fakePayout) RequestDisbursement(ctx context.Context, req PayoutRequest) (PayoutResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return PayoutResult{}, f.err
	}
	return PayoutResult{ID: "disb-" + req.ExternalID[:8], Status: "PENDING"}, nil
}

func newPayrollFixture() (*financetest.PayrollStore, *PayrollService, *fakePayout) {
	store := financetest.NewPayrollStore()
	payout := &fakePayout{}
	rates := DeductionRates{LeavePerDay: dec(20000), SickPerDay: dec(0), AbsencePerDay: dec(10000)}
	svc := NewPayrollService(store.Repo(), payout, rates, zap.NewNop()).WithClock(func() time.Time { return payrollNow })
	return store, svc, payout
}

func recordJuly(t *testing.T, svc *PayrollService, teacherID uuid.UUID) {
	t.Helper()
	entries := []AttendanceInput{
		{Date: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), Status: model.AttendancePresent, HoursTaught: dec(8)},
		{Date: time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC), Status: model.AttendancePresent, HoursTaught: dec(6)},
		{Date: time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC), Status: model.AttendancePresent, HoursTaught: dec(6)},
		{Date: time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC), Status: model.AttendanceLeave},
		{Date: time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC), Status: model.AttendanceAbsent},
		// bulan lain tidak ikut dihitung
		{Date: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), Status: model.AttendancePresent, HoursTaught: dec(4)},
	}
	for _, e := range entries {
		e.TeacherID = teacherID
		_, err := svc.RecordAttendance(context.Background(), e)
		require.NoError(t, err)
	}
}

func TestFinalizeCompletesOnDisbursementCallback(t *testing.T) {
	store, svc, payout := newPayrollFixture()
	ctx := context.Background()
	teacher := store.Teacher(25000, 50000)
	tid := teacher.TeacherPayrollProfileTeacherID
	recordJuly(t, svc, tid)

	rec, err := svc.Calculate(ctx, tid, 7, 2025)
	require.NoError(t, err)
	assert.Equal(t, model.PayrollStatusDraft, rec.PayrollStatus)
	assert.True(t, rec.PayrollBaseSalary.Equal(dec(500000)))
	assert.True(t, rec.PayrollIncentive.Equal(dec(50000)))
	assert.True(t, rec.PayrollLeaveDeduction.Equal(dec(20000)))
	assert.True(t, rec.PayrollSickDeduction.IsZero())
	assert.True(t, rec.PayrollAbsenceDeduction.Equal(dec(10000)))
	assert.True(t, rec.PayrollTotalSalary.Equal(dec(520000)))

	detail, err := svc.Finalize(ctx, rec.PayrollID)
	require.NoError(t, err)
	require.NotNil(t, detail.Disbursement)
	assert.Equal(t, model.PayrollStatusProcessing, store.Payroll(rec.PayrollID).PayrollStatus)
	assert.Equal(t, model.DisbursementPending, detail.Disbursement.DisbursementStatus)
	assert.True(t, detail.Disbursement.DisbursementAmount.Equal(dec(520000)))
	require.NotNil(t, detail.Disbursement.DisbursementGatewayID)

	require.Len(t, payout.calls, 1)
	assert.Equal(t, detail.Disbursement.DisbursementID.String(), payout.calls[0].ExternalID)
	assert.Equal(t, "BSI", payout.calls[0].BankCode)

	res, err := svc.ApplyDisbursementEvent(ctx, DisbursementUpdate{
		DisbursementID: detail.Disbursement.DisbursementID.String(),
		Status:         model.DisbursementCompleted,
		Amount:         dec(520000),
	})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, model.PayrollStatusCompleted, store.Payroll(rec.PayrollID).PayrollStatus)
	assert.Equal(t, model.DisbursementCompleted, store.Disbursement(detail.Disbursement.DisbursementID).DisbursementStatus)

	out := store.Outbox()
	require.Len(t, out, 1)
	assert.Equal(t, outboxModel.EventPayrollCompleted, out[0].OutboxEventType)

	// callback kedua tidak mengubah apa pun
	_, err = svc.ApplyDisbursementEvent(ctx, DisbursementUpdate{
		DisbursementID: detail.Disbursement.DisbursementID.String(),
		Status:         model.DisbursementFailed,
	})
	require.ErrorIs(t, err, constants.ErrAlreadyFinalized)
	assert.Equal(t, model.PayrollStatusCompleted, store.Payroll(rec.PayrollID).PayrollStatus)
	assert.Len(t, store.Outbox(), 1)
}

func TestCalculateLocksAfterFinalize(t *testing.T) {
	store, svc, _ := newPayrollFixture()
	ctx := context.Background()
	teacher := store.Teacher(25000, 0)
	tid := teacher.TeacherPayrollProfileTeacherID
	recordJuly(t, svc, tid)

	rec, err := svc.Calculate(ctx, tid, 7, 2025)
	require.NoError(t, err)
	again, err := svc.Calculate(ctx, tid, 7, 2025)
	require.NoError(t, err, "DRAFT boleh dihitung ulang")
	assert.Equal(t, rec.PayrollID, again.PayrollID)

	_, err = svc.Finalize(ctx, rec.PayrollID)
	require.NoError(t, err)

	_, err = svc.Calculate(ctx, tid, 7, 2025)
	require.ErrorIs(t, err, constants.ErrAlreadyLocked)
	_, err = svc.Finalize(ctx, rec.PayrollID)
	require.ErrorIs(t, err, constants.ErrAlreadyLocked)

	_, err = svc.RecordAttendance(ctx, AttendanceInput{
		TeacherID: tid, Date: time.Date(2025, 7, 20, 0, 0, 0, 0, time.UTC),
		Status: model.AttendancePresent, HoursTaught: dec(2),
	})
	require.ErrorIs(t, err, constants.ErrAlreadyLocked)
	assert.Len(t, store.Disbursements(), 1)
}

func TestFinalizeRejections(t *testing.T) {
	t.Run("zero salary", func(t *testing.T) {
		store, svc, payout := newPayrollFixture()
		teacher := store.Teacher(25000, 0)
		rec, err := svc.Calculate(context.Background(), teacher.TeacherPayrollProfileTeacherID, 7, 2025)
		require.NoError(t, err)

		_, err = svc.Finalize(context.Background(), rec.PayrollID)
		require.ErrorIs(t, err, constants.ErrNothingToDisburse)
		assert.Equal(t, model.PayrollStatusDraft, store.Payroll(rec.PayrollID).PayrollStatus)
		assert.Empty(t, payout.calls)
	})

	t.Run("unknown payroll", func(t *testing.T) {
		_, svc, _ := newPayrollFixture()
		_, err := svc.Finalize(context.Background(), uuid.New())
		require.ErrorIs(t, err, constants.ErrNotFound)
	})

	t.Run("missing profile", func(t *testing.T) {
		_, svc, _ := newPayrollFixture()
		_, err := svc.Calculate(context.Background(), uuid.New(), 7, 2025)
		require.ErrorIs(t, err, constants.ErrNotFound)
	})
}

func TestFinalizeSurvivesPayoutFailure(t *testing.T) {
	store, svc, payout := newPayrollFixture()
	ctx := context.Background()
	teacher := store.Teacher(25000, 100000)
	rec, err := svc.Calculate(ctx, teacher.TeacherPayrollProfileTeacherID, 7, 2025)
	require.NoError(t, err)

	payout.err = errors.New("xendit 503")
	detail, err := svc.Finalize(ctx, rec.PayrollID)
	require.NoError(t, err)
	assert.Nil(t, detail.Disbursement.DisbursementGatewayID)
	assert.Equal(t, model.PayrollStatusProcessing, store.Payroll(rec.PayrollID).PayrollStatus)

	payout.err = nil
	retried, err := svc.RequestPayout(ctx, rec.PayrollID)
	require.NoError(t, err)
	require.NotNil(t, retried.Disbursement.DisbursementGatewayID)
	require.Len(t, payout.calls, 2)
	assert.Equal(t, payout.calls[0].ExternalID, payout.calls[1].ExternalID, "idempotency key harus sama")
}

func TestApplyDisbursementEventOutcomes(t *testing.T) {
	seed := func(store *financetest.PayrollStore) (model.PayrollRecordModel, model.DisbursementModel) {
		p := model.PayrollRecordModel{
			PayrollID:          uuid.New(),
			PayrollTeacherID:   uuid.New(),
			PayrollMonth:       7,
			PayrollYear:        2025,
			PayrollTotalSalary: dec(300000),
			PayrollStatus:      model.PayrollStatusProcessing,
		}
		d := model.DisbursementModel{
			DisbursementID:        uuid.New(),
			DisbursementPayrollID: p.PayrollID,
			DisbursementAmount:    dec(300000),
			DisbursementStatus:    model.DisbursementPending,
		}
		store.AddPayroll(p)
		store.AddDisbursement(d)
		return p, d
	}

	t.Run("failed", func(t *testing.T) {
		store, svc, _ := newPayrollFixture()
		p, d := seed(store)
		res, err := svc.ApplyDisbursementEvent(context.Background(), DisbursementUpdate{
			DisbursementID: d.DisbursementID.String(),
			Status:         model.DisbursementFailed,
			FailureCode:    "INVALID_DESTINATION",
			GatewayID:      "disb-xyz",
		})
		require.NoError(t, err)
		assert.Equal(t, model.PayrollStatusFailed, res.PayrollStatus)
		assert.Equal(t, model.PayrollStatusFailed, store.Payroll(p.PayrollID).PayrollStatus)
		got := store.Disbursement(d.DisbursementID)
		require.NotNil(t, got.DisbursementFailureCode)
		assert.Equal(t, "INVALID_DESTINATION", *got.DisbursementFailureCode)
		require.NotNil(t, got.DisbursementGatewayID)
		assert.Equal(t, outboxModel.EventPayrollFailed, store.Outbox()[0].OutboxEventType)
	})

	t.Run("amount mismatch", func(t *testing.T) {
		store, svc, _ := newPayrollFixture()
		p, d := seed(store)
		_, err := svc.ApplyDisbursementEvent(context.Background(), DisbursementUpdate{
			DisbursementID: d.DisbursementID.String(),
			Status:         model.DisbursementCompleted,
			Amount:         dec(250000),
		})
		require.ErrorIs(t, err, constants.ErrAmountMismatch)
		assert.Equal(t, model.PayrollStatusProcessing, store.Payroll(p.PayrollID).PayrollStatus)
		assert.Equal(t, model.DisbursementPending, store.Disbursement(d.DisbursementID).DisbursementStatus)
	})

	t.Run("pending is no effect", func(t *testing.T) {
		store, svc, _ := newPayrollFixture()
		_, d := seed(store)
		res, err := svc.ApplyDisbursementEvent(context.Background(), DisbursementUpdate{
			DisbursementID: d.DisbursementID.String(),
			Status:         model.DisbursementPending,
		})
		require.ErrorIs(t, err, constants.ErrInvalidTransition)
		assert.False(t, res.Changed)
	})

	t.Run("unknown reference", func(t *testing.T) {
		_, svc, _ := newPayrollFixture()
		_, err := svc.ApplyDisbursementEvent(context.Background(), DisbursementUpdate{DisbursementID: uuid.NewString(), Status: model.DisbursementCompleted})
		require.ErrorIs(t, err, constants.ErrUnknownReference)

		_, err = svc.ApplyDisbursementEvent(context.Background(), DisbursementUpdate{DisbursementID: "bukan-uuid", Status: model.DisbursementCompleted})
		require.ErrorIs(t, err, constants.ErrUnknownReference)
	})

	t.Run("concurrent callbacks apply once", func(t *testing.T) {
		store, svc, _ := newPayrollFixture()
		_, d := seed(store)
		var wg sync.WaitGroup
		changed := make(chan bool, 10)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, _ := svc.ApplyDisbursementEvent(context.Background(), DisbursementUpdate{
					DisbursementID: d.DisbursementID.String(),
					Status:         model.DisbursementCompleted,
				})
				changed <- res.Changed
			}()
		}
		wg.Wait()
		close(changed)
		n := 0
		for c := range changed {
			if c {
				n++
			}
		}
		assert.Equal(t, 1, n)
		assert.Len(t, store.Outbox(), 1)
	})
}

func TestFinalizeRejectsFractionalTotal(t *testing.T) {
	store, svc, payout := newPayrollFixture()
	p := model.PayrollRecordModel{
		PayrollID:          uuid.New(),
		PayrollTeacherID:   store.Teacher(25000, 0).TeacherPayrollProfileTeacherID,
		PayrollMonth:       7,
		PayrollYear:        2025,
		PayrollTotalSalary: decimal.RequireFromString("49999.5"),
		PayrollStatus:      model.PayrollStatusDraft,
		PayrollComputedAt:  &payrollNow,
	}
	store.AddPayroll(p)

	_, err := svc.Finalize(context.Background(), p.PayrollID)
	require.ErrorIs(t, err, constants.ErrInvalidAmount)
	assert.Equal(t, model.PayrollStatusDraft, store.Payroll(p.PayrollID).PayrollStatus)
	assert.Empty(t, store.Disbursements())
	assert.Empty(t, payout.calls)
}

func TestRecordAttendanceValidation(t *testing.T) {
	_, svc, _ := newPayrollFixture()
	ctx := context.Background()
	base := AttendanceInput{TeacherID: uuid.New(), Date: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)}

	in := base
	in.Status = "TELAT"
	_, err := svc.RecordAttendance(ctx, in)
	require.ErrorIs(t, err, constants.ErrInvalidInput)

	in = base
	in.Status = model.AttendanceSick
	in.HoursTaught = dec(2)
	_, err = svc.RecordAttendance(ctx, in)
	require.ErrorIs(t, err, constants.ErrInvalidInput)

	in = base
	in.Status = model.AttendancePresent
	in.HoursTaught = dec(-1)
	_, err = svc.RecordAttendance(ctx, in)
	require.ErrorIs(t, err, constants.ErrInvalidAmount)
}
