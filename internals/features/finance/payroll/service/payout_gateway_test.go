package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tahfidzku_backend/internals/constants"
	"tahfidzku_backend/internals/features/finance/financetest"
	"tahfidzku_backend/internals/features/finance/payroll/model"
)

func TestXenditPayoutClient(t *testing.T) {
	var gotBody map[string]any
	var gotKey, gotUser string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/disbursements", r.URL.Path)
		gotKey = r.Header.Get("X-IDEMPOTENCY-KEY")
		gotUser, _, _ = r.BasicAuth()
		raw, _ := io.ReadAll(r.Body)
		_ = sonic.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"57f1ce05bb1a631a65eee662","external_id":"ext-1","status":"PENDING"}`))
	}))
	defer srv.Close()

	c := NewXenditPayoutClient(srv.URL+"/", "xnd_development_secret", time.Second)
	res, err := c.RequestDisbursement(context.Background(), PayoutRequest{
		ExternalID:        "ext-1",
		Amount:            decimal.NewFromInt(520000),
		BankCode:          "BSI",
		AccountHolderName: "Hafidz Ramadhan",
		AccountNumber:     "7123456789",
	})
	require.NoError(t, err)
	assert.Equal(t, "57f1ce05bb1a631a65eee662", res.ID)
	assert.Equal(t, "ext-1", gotKey)
	assert.Equal(t, "xnd_development_secret", gotUser)
	assert.EqualValues(t, 520000, gotBody["amount"])
	assert.Equal(t, "BSI", gotBody["bank_code"])
}

func TestXenditPayoutClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error_code":"DISBURSEMENT_DESCRIPTION_NOT_ALLOWED_ERROR","message":"nope"}`))
	}))
	defer srv.Close()

	c := NewXenditPayoutClient(srv.URL, "key", time.Second)
	_, err := c.RequestDisbursement(context.Background(), PayoutRequest{ExternalID: "x", Amount: decimal.NewFromInt(1000)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DISBURSEMENT_DESCRIPTION_NOT_ALLOWED_ERROR")

	_, err = c.RequestDisbursement(context.Background(), PayoutRequest{ExternalID: "x", Amount: decimal.RequireFromString("1000.50")})
	require.ErrorIs(t, err, constants.ErrInvalidAmount)
}

func TestFractionalHoursReachXenditAsWholeRupiah(t *testing.T) {
	var hits int
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		raw, _ := io.ReadAll(r.Body)
		_ = sonic.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"disb-frac","status":"PENDING"}`))
	}))
	defer srv.Close()

	store := financetest.NewPayrollStore()
	client := NewXenditPayoutClient(srv.URL, "xnd_development_secret", time.Second)
	svc := NewPayrollService(store.Repo(), client, DeductionRates{}, zap.NewNop()).WithClock(func() time.Time { return payrollNow })
	ctx := context.Background()

	tid := store.Teacher(33333, 0).TeacherPayrollProfileTeacherID
	_, err := svc.RecordAttendance(ctx, AttendanceInput{
		TeacherID:   tid,
		Date:        time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		Status:      model.AttendancePresent,
		HoursTaught: decimal.RequireFromString("1.5"),
	})
	require.NoError(t, err)

	rec, err := svc.Calculate(ctx, tid, 7, 2025)
	require.NoError(t, err)
	assert.True(t, rec.PayrollTotalSalary.Equal(decimal.NewFromInt(50000)), "total %s", rec.PayrollTotalSalary)

	detail, err := svc.Finalize(ctx, rec.PayrollID)
	require.NoError(t, err)
	require.Equal(t, 1, hits)
	assert.EqualValues(t, 50000, gotBody["amount"])
	require.NotNil(t, detail.Disbursement.DisbursementGatewayID)
	assert.Equal(t, "disb-frac", *detail.Disbursement.DisbursementGatewayID)
}
