package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tahfidzku_backend/internals/constants"
	"tahfidzku_backend/internals/features/finance/callbacks/model"
	"tahfidzku_backend/internals/features/finance/callbacks/repository"
	"tahfidzku_backend/internals/features/finance/financetest"
	paymentModel "tahfidzku_backend/internals/features/finance/payments/model"
	paymentService "tahfidzku_backend/internals/features/finance/payments/service"
	payrollModel "tahfidzku_backend/internals/features/finance/payroll/model"
	payrollService "tahfidzku_backend/internals/features/finance/payroll/service"
)

const (
	testServerKey = "SB-Mid-server-test"
	testXenditTok = "xnd-callback-token"
)

var ingestNow = time.Date(2025, 7, 15, 10, 0, 0, 0, time.UTC)

type ingestFixture struct {
	payments  *financetest.PaymentStore
	payroll   *financetest.PayrollStore
	callbacks *financetest.CallbackStore
	applier   *flakyApplier
	svc       *IngestService
}

// flakyApplier meneruskan ke PaymentService, kecuali fail di-set (simulasi crash setelah simpan).
type flakyApplier struct {
	inner *paymentService.PaymentService
	fail  error
}

func (f *flakyApplier) ApplyGatewayUpdate(ctx context.Context, u paymentService.GatewayUpdate) (paymentService.ApplyResult, error) {
	if f.fail != nil {
		return paymentService.ApplyResult{}, f.fail
	}
	return f.inner.ApplyGatewayUpdate(ctx, u)
}

type noGateway struct{}

func (noGateway) OpenPayable(context.Context, paymentService.OpenPayableRequest) (paymentService.OpenPayableResult, error) {
	return paymentService.OpenPayableResult{}, errors.New("not used")
}

type noPayout struct{}

func (noPayout) RequestDisbursement(context.Context, payrollService.PayoutRequest) (payrollService.PayoutResult, error) {
	return payrollService.PayoutResult{}, errors.New("not used")
}

func newIngestFixture() *ingestFixture {
	clock := func() time.Time { return ingestNow }
	f := &ingestFixture{
		payments: financetest.NewPaymentStore(),
		payroll:  financetest.NewPayrollStore(),
	}
	f.callbacks = financetest.NewCallbackStore(f.payments, f.payroll)

	paySvc := paymentService.NewPaymentService(f.payments.Repo(), noGateway{}, zap.NewNop()).WithClock(clock)
	payrollSvc := payrollService.NewPayrollService(f.payroll.Repo(), noPayout{}, payrollService.DeductionRates{}, zap.NewNop()).WithClock(clock)
	f.applier = &flakyApplier{inner: paySvc}

	f.svc = NewIngestService(f.callbacks.Repo(), f.applier, payrollSvc, Secrets{
		MidtransServerKey:   testServerKey,
		XenditCallbackToken: testXenditTok,
	}, zap.NewNop()).WithClock(clock)
	return f
}

func midtransBody(t *testing.T, orderID, status, gross, txID string) []byte {
	t.Helper()
	body, err := sonic.Marshal(map[string]any{
		"transaction_time":   "2025-07-15 16:55:00",
		"transaction_status": status,
		"transaction_id":     txID,
		"status_code":        "200",
		"signature_key":      MidtransSignature(orderID, "200", gross, testServerKey),
		"order_id":           orderID,
		"gross_amount":       gross,
		"payment_type":       "bank_transfer",
		"va_numbers":         []map[string]string{{"bank": "bca", "va_number": "12345678901"}},
	})
	require.NoError(t, err)
	return body
}

func midtransRaw(body []byte) RawEvent {
	return RawEvent{Source: SourceMidtrans, Body: body}
}

func TestIngestMidtransSettlementAndReplay(t *testing.T) {
	f := newIngestFixture()
	ctx := context.Background()
	p, _ := f.payments.AwaitingRegistration(90000, "REG-B", ingestNow.Add(time.Hour))

	body := midtransBody(t, "REG-B", "settlement", "90000.00", "tx-1")
	res, err := f.svc.Ingest(ctx, midtransRaw(body))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, res.Outcome)
	assert.Equal(t, "REG-B", res.ReferenceID)
	assert.Equal(t, paymentModel.PaymentStatusPaid, f.payments.Payment(p.PaymentID).PaymentStatus)

	gw, ok := f.payments.GatewayFor(p.PaymentID)
	require.True(t, ok)
	assert.Equal(t, paymentModel.GatewayStatusSettled, gw.GatewayPaymentStatus)

	// gateway mengirim ulang notifikasi yang sama
	res, err = f.svc.Ingest(ctx, midtransRaw(body))
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicateIgnored, res.Outcome)
	assert.Len(t, f.callbacks.Callbacks(), 1)
	assert.Equal(t, paymentModel.PaymentStatusPaid, f.payments.Payment(p.PaymentID).PaymentStatus)

	cbs := f.callbacks.Callbacks()
	assert.Equal(t, model.CallbackKindVirtualAccount, cbs[0].GatewayCallbackKind)
	assert.Equal(t, "settlement", cbs[0].GatewayCallbackRawStatus)
	assert.True(t, decimal.NewFromInt(90000).Equal(cbs[0].GatewayCallbackAmount))
}

func TestIngestAmountMismatchGoesToReview(t *testing.T) {
	f := newIngestFixture()
	p, _ := f.payments.AwaitingRegistration(90000, "REG-C", ingestNow.Add(time.Hour))

	res, err := f.svc.Ingest(context.Background(), midtransRaw(midtransBody(t, "REG-C", "settlement", "85000.00", "tx-c")))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAmountMismatch, res.Outcome)
	assert.Equal(t, paymentModel.PaymentStatusAwaitingPayment, f.payments.Payment(p.PaymentID).PaymentStatus)
	assert.Len(t, f.callbacks.Callbacks(), 1)

	reviews := f.callbacks.Reviews()
	require.Len(t, reviews, 1)
	assert.Equal(t, model.ReviewAmountMismatch, reviews[0].ReviewReason)
	require.NotNil(t, reviews[0].ReviewExpectedAmount)
	assert.True(t, decimal.NewFromInt(90000).Equal(*reviews[0].ReviewExpectedAmount))
	assert.True(t, decimal.NewFromInt(85000).Equal(reviews[0].ReviewReportedAmount))
}

func TestIngestRejectsBadSignature(t *testing.T) {
	f := newIngestFixture()
	p, _ := f.payments.AwaitingRegistration(90000, "REG-E", ingestNow.Add(time.Hour))

	body, err := sonic.Marshal(map[string]any{
		"transaction_status": "settlement",
		"transaction_id":     "tx-e",
		"status_code":        "200",
		"signature_key":      MidtransSignature("REG-E", "200", "90000.00", "wrong-key"),
		"order_id":           "REG-E",
		"gross_amount":       "90000.00",
	})
	require.NoError(t, err)

	_, err = f.svc.Ingest(context.Background(), midtransRaw(body))
	require.ErrorIs(t, err, constants.ErrInvalidSignature)
	assert.Empty(t, f.callbacks.Callbacks())
	assert.Equal(t, paymentModel.PaymentStatusAwaitingPayment, f.payments.Payment(p.PaymentID).PaymentStatus)
}

func TestIngestMalformedAndUnknownSource(t *testing.T) {
	f := newIngestFixture()
	ctx := context.Background()

	_, err := f.svc.Ingest(ctx, midtransRaw([]byte(`{"order_id":`)))
	require.ErrorIs(t, err, constants.ErrMalformedCallback)

	_, err = f.svc.Ingest(ctx, midtransRaw([]byte(`{"order_id":"X"}`)))
	require.ErrorIs(t, err, constants.ErrMalformedCallback)

	_, err = f.svc.Ingest(ctx, RawEvent{Source: "doku", Body: []byte(`{}`)})
	require.ErrorIs(t, err, constants.ErrMalformedCallback)
	assert.Empty(t, f.callbacks.Callbacks())
}

func TestIngestUnknownReference(t *testing.T) {
	f := newIngestFixture()

	res, err := f.svc.Ingest(context.Background(), midtransRaw(midtransBody(t, "NOPE-1", "settlement", "10000.00", "tx-x")))
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnknownReference, res.Outcome)
	assert.Len(t, f.callbacks.Callbacks(), 1)

	reviews := f.callbacks.Reviews()
	require.Len(t, reviews, 1)
	assert.Equal(t, model.ReviewUnknownReference, reviews[0].ReviewReason)
	assert.Nil(t, reviews[0].ReviewExpectedAmount)
}

func TestIngestLateSuccessAfterExpiry(t *testing.T) {
	f := newIngestFixture()
	ctx := context.Background()
	p, _ := f.payments.AwaitingRegistration(90000, "REG-L", ingestNow.Add(time.Hour))

	res, err := f.svc.Ingest(ctx, midtransRaw(midtransBody(t, "REG-L", "expire", "90000.00", "tx-l")))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, res.Outcome)
	assert.Equal(t, paymentModel.PaymentStatusExpired, f.payments.Payment(p.PaymentID).PaymentStatus)

	res, err = f.svc.Ingest(ctx, midtransRaw(midtransBody(t, "REG-L", "settlement", "90000.00", "tx-l")))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyFinalized, res.Outcome)
	assert.Equal(t, paymentModel.PaymentStatusExpired, f.payments.Payment(p.PaymentID).PaymentStatus)

	reviews := f.callbacks.Reviews()
	require.Len(t, reviews, 1)
	assert.Equal(t, model.ReviewLateSuccessAfterFinal, reviews[0].ReviewReason)
}

func TestIngestPendingHasNoEffect(t *testing.T) {
	f := newIngestFixture()
	p, _ := f.payments.AwaitingRegistration(90000, "REG-P", ingestNow.Add(time.Hour))

	res, err := f.svc.Ingest(context.Background(), midtransRaw(midtransBody(t, "REG-P", "pending", "90000.00", "tx-p")))
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoEffect, res.Outcome)
	assert.Equal(t, paymentModel.PaymentStatusAwaitingPayment, f.payments.Payment(p.PaymentID).PaymentStatus)
	assert.Len(t, f.callbacks.Callbacks(), 1)
}

func seedProcessingPayroll(f *ingestFixture, amount int64) payrollModel.DisbursementModel {
	computed := ingestNow
	rec := payrollModel.PayrollRecordModel{
		PayrollID:          uuid.New(),
		PayrollTeacherID:   uuid.New(),
		PayrollMonth:       6,
		PayrollYear:        2025,
		PayrollTotalSalary: decimal.NewFromInt(amount),
		PayrollComputedAt:  &computed,
		PayrollStatus:      payrollModel.PayrollStatusProcessing,
	}
	f.payroll.AddPayroll(rec)
	d := payrollModel.DisbursementModel{
		DisbursementID:        uuid.New(),
		DisbursementPayrollID: rec.PayrollID,
		DisbursementAmount:    decimal.NewFromInt(amount),
		DisbursementStatus:    payrollModel.DisbursementPending,
	}
	f.payroll.AddDisbursement(d)
	return d
}

func xenditBody(t *testing.T, externalID, status string, amount int64) []byte {
	t.Helper()
	body, err := sonic.Marshal(map[string]any{
		"id":                  "disb-" + externalID[:8],
		"external_id":         externalID,
		"amount":              amount,
		"bank_code":           "BSI",
		"account_holder_name": "Hafidz Ramadhan",
		"status":              status,
		"updated":             "2025-07-15T10:00:00.000Z",
	})
	require.NoError(t, err)
	return body
}

func TestIngestXenditDisbursementCompleted(t *testing.T) {
	f := newIngestFixture()
	ctx := context.Background()
	d := seedProcessingPayroll(f, 520000)
	body := xenditBody(t, d.DisbursementID.String(), "COMPLETED", 520000)

	_, err := f.svc.Ingest(ctx, RawEvent{Source: SourceXendit, Body: body, CallbackToken: "salah"})
	require.ErrorIs(t, err, constants.ErrInvalidSignature)
	assert.Empty(t, f.callbacks.Callbacks())

	res, err := f.svc.Ingest(ctx, RawEvent{Source: SourceXendit, Body: body, CallbackToken: testXenditTok})
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, res.Outcome)

	got := f.payroll.Disbursement(d.DisbursementID)
	assert.Equal(t, payrollModel.DisbursementCompleted, got.DisbursementStatus)
	assert.Equal(t, payrollModel.PayrollStatusCompleted, f.payroll.Payroll(d.DisbursementPayrollID).PayrollStatus)

	// event_type berbeda → bukan duplikat, tapi disbursement sudah final
	res, err = f.svc.Ingest(ctx, RawEvent{Source: SourceXendit, Body: xenditBody(t, d.DisbursementID.String(), "FAILED", 520000), CallbackToken: testXenditTok})
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyFinalized, res.Outcome)
	assert.Equal(t, payrollModel.PayrollStatusCompleted, f.payroll.Payroll(d.DisbursementPayrollID).PayrollStatus)
}

func TestIngestXenditAmountMismatch(t *testing.T) {
	f := newIngestFixture()
	d := seedProcessingPayroll(f, 520000)

	res, err := f.svc.Ingest(context.Background(), RawEvent{
		Source:        SourceXendit,
		Body:          xenditBody(t, d.DisbursementID.String(), "COMPLETED", 500000),
		CallbackToken: testXenditTok,
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeAmountMismatch, res.Outcome)
	assert.Equal(t, payrollModel.DisbursementPending, f.payroll.Disbursement(d.DisbursementID).DisbursementStatus)

	reviews := f.callbacks.Reviews()
	require.Len(t, reviews, 1)
	assert.Equal(t, model.ReferenceDisbursement, reviews[0].ReviewReferenceKind)
	assert.True(t, decimal.NewFromInt(520000).Equal(*reviews[0].ReviewExpectedAmount))
}

func TestIngestStoreFailureIsReturned(t *testing.T) {
	f := newIngestFixture()
	f.payments.AwaitingRegistration(90000, "REG-S", ingestNow.Add(time.Hour))
	f.callbacks.FailInsert = errors.New("connection refused")

	_, err := f.svc.Ingest(context.Background(), midtransRaw(midtransBody(t, "REG-S", "settlement", "90000.00", "tx-s")))
	require.Error(t, err)
	assert.NotErrorIs(t, err, constants.ErrInvalidSignature)
}

func TestReconcileAppliesStoredCallbacks(t *testing.T) {
	f := newIngestFixture()
	ctx := context.Background()
	p, _ := f.payments.AwaitingRegistration(90000, "REG-R", ingestNow.Add(time.Hour))
	body := midtransBody(t, "REG-R", "settlement", "90000.00", "tx-r")

	// callback tersimpan, efek gagal
	f.applier.fail = errors.New("db timeout")
	_, err := f.svc.Ingest(ctx, midtransRaw(body))
	require.Error(t, err)
	assert.Len(t, f.callbacks.Callbacks(), 1)
	assert.Equal(t, paymentModel.PaymentStatusAwaitingPayment, f.payments.Payment(p.PaymentID).PaymentStatus)

	// retry gateway ter-dedup, jadi reconcile yang memulihkan
	f.applier.fail = nil
	res, err := f.svc.Ingest(ctx, midtransRaw(body))
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicateIgnored, res.Outcome)

	out, err := f.svc.Reconcile(ctx, 24*time.Hour, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Scanned)
	assert.Equal(t, 1, out.Applied)
	assert.Equal(t, paymentModel.PaymentStatusPaid, f.payments.Payment(p.PaymentID).PaymentStatus)

	// target sudah final → tidak dipindai lagi
	out, err = f.svc.Reconcile(ctx, 24*time.Hour, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Scanned)
}

func TestReconcileSkipsReviewedAndNoOpCallbacks(t *testing.T) {
	f := newIngestFixture()
	ctx := context.Background()
	mismatch, _ := f.payments.AwaitingRegistration(90000, "REG-M", ingestNow.Add(time.Hour))
	waiting, _ := f.payments.AwaitingRegistration(90000, "REG-P", ingestNow.Add(time.Hour))

	res, err := f.svc.Ingest(ctx, midtransRaw(midtransBody(t, "REG-M", "settlement", "85000.00", "tx-m")))
	require.NoError(t, err)
	require.Equal(t, OutcomeAmountMismatch, res.Outcome)
	res, err = f.svc.Ingest(ctx, midtransRaw(midtransBody(t, "REG-P", "pending", "90000.00", "tx-p")))
	require.NoError(t, err)
	require.Equal(t, OutcomeNoEffect, res.Outcome)
	require.Len(t, f.callbacks.Callbacks(), 2)

	for i := 0; i < 2; i++ {
		out, err := f.svc.Reconcile(ctx, 72*time.Hour, 100)
		require.NoError(t, err)
		assert.Zero(t, out.Scanned)
	}
	assert.Len(t, f.callbacks.Reviews(), 1)
	assert.Equal(t, paymentModel.PaymentStatusAwaitingPayment, f.payments.Payment(mismatch.PaymentID).PaymentStatus)
	assert.Equal(t, paymentModel.PaymentStatusAwaitingPayment, f.payments.Payment(waiting.PaymentID).PaymentStatus)
}

func TestResolveReview(t *testing.T) {
	f := newIngestFixture()
	ctx := context.Background()
	_, err := f.svc.Ingest(ctx, midtransRaw(midtransBody(t, "NOPE-2", "settlement", "10000.00", "tx-n")))
	require.NoError(t, err)

	open, total, err := f.svc.Reviews(ctx, repository.ReviewFilter{OpenOnly: true, Limit: 20})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)

	admin := uuid.New()
	rv, err := f.svc.ResolveReview(ctx, open[0].ReviewID, "transfer manual dikembalikan", &admin)
	require.NoError(t, err)
	require.NotNil(t, rv.ReviewResolvedAt)
	assert.Equal(t, ingestNow, *rv.ReviewResolvedAt)

	_, err = f.svc.ResolveReview(ctx, open[0].ReviewID, "lagi", &admin)
	require.ErrorIs(t, err, constants.ErrAlreadyFinalized)

	_, err = f.svc.ResolveReview(ctx, uuid.New(), "x", &admin)
	require.ErrorIs(t, err, constants.ErrNotFound)

	open, total, err = f.svc.Reviews(ctx, repository.ReviewFilter{OpenOnly: true, Limit: 20})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, open)

	trail, err := f.svc.AuditTrail(ctx, "NOPE-2")
	require.NoError(t, err)
	assert.Len(t, trail, 1)
}
