// file: internals/features/finance/callbacks/service/ingest_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"tahfidzku_backend/internals/constants"
	"tahfidzku_backend/internals/features/finance/callbacks/model"
	"tahfidzku_backend/internals/features/finance/callbacks/repository"
	paymentModel "tahfidzku_backend/internals/features/finance/payments/model"
	paymentService "tahfidzku_backend/internals/features/finance/payments/service"
	payrollService "tahfidzku_backend/internals/features/finance/payroll/service"
	"tahfidzku_backend/internals/metrics"
)

type Outcome string

const (
	OutcomeApplied          Outcome = "APPLIED"
	OutcomeNoEffect         Outcome = "NO_EFFECT"
	OutcomeDuplicateIgnored Outcome = "DUPLICATE_IGNORED"
	OutcomeAlreadyFinalized Outcome = "ALREADY_FINALIZED"
	OutcomeAmountMismatch   Outcome = "AMOUNT_MISMATCH"
	OutcomeUnknownReference Outcome = "UNKNOWN_REFERENCE"
)

// RawEvent: body webhook apa adanya + header autentikasi.
type RawEvent struct {
	Source        string
	Body          []byte
	CallbackToken string
}

type IngestResult struct {
	CallbackID  uuid.UUID `json:"callback_id"`
	Outcome     Outcome   `json:"outcome"`
	ReferenceID string    `json:"reference_id"`
	EventType   string    `json:"event_type"`
}

type PaymentApplier interface {
	ApplyGatewayUpdate(ctx context.Context, u paymentService.GatewayUpdate) (paymentService.ApplyResult, error)
}

type DisbursementApplier interface {
	ApplyDisbursementEvent(ctx context.Context, u payrollService.DisbursementUpdate) (payrollService.DisbursementResult, error)
}

type Secrets struct {
	MidtransServerKey   string
	XenditCallbackToken string
}

// IngestService: verifikasi → dedup + simpan → terapkan efek.
// Simpan dan efek berada di transaksi terpisah; callback yang tersimpan tapi belum diterapkan
// diambil ulang oleh Reconcile.
type IngestService struct {
	repo         repository.Repository
	payments     PaymentApplier
	disbursement DisbursementApplier
	secrets      Secrets
	log          *zap.Logger
	now          func() time.Time
}

func NewIngestService(repo repository.Repository, payments PaymentApplier, disb DisbursementApplier, secrets Secrets, log *zap.Logger) *IngestService {
	return &IngestService{
		repo:         repo,
		payments:     payments,
		disbursement: disb,
		secrets:      secrets,
		log:          log.Named("callbacks"),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *IngestService) WithClock(now func() time.Time) *IngestService {
	s.now = now
	return s
}

// Ingest mengembalikan error hanya untuk ErrInvalidSignature, ErrMalformedCallback,
// atau kegagalan store. Hasil domain lain ada di IngestResult.Outcome.
func (s *IngestService) Ingest(ctx context.Context, raw RawEvent) (IngestResult, error) {
	receivedAt := s.now()
	ev, err := s.verifyAndNormalize(raw, receivedAt)
	if err != nil {
		if errors.Is(err, constants.ErrInvalidSignature) {
			s.log.Warn("[CALLBACK] ⚠️ signature tidak valid", zap.String("source", raw.Source), zap.Error(err))
			metrics.CallbackOutcomes.WithLabelValues(raw.Source, "INVALID_SIGNATURE").Inc()
		} else {
			metrics.CallbackOutcomes.WithLabelValues(raw.Source, "MALFORMED").Inc()
		}
		return IngestResult{}, err
	}

	cb := &model.GatewayCallbackModel{
		GatewayCallbackID:             uuid.New(),
		GatewayCallbackKind:           ev.Kind,
		GatewayCallbackSource:         ev.Source,
		GatewayCallbackReferenceID:    ev.ReferenceID,
		GatewayCallbackReferenceKind:  ev.ReferenceKind,
		GatewayCallbackEventType:      ev.EventType,
		GatewayCallbackRawStatus:      ev.RawStatus,
		GatewayCallbackAmount:         ev.Amount,
		GatewayCallbackGatewayEventID: ev.GatewayEventID,
		GatewayCallbackDedupKey:       ev.DedupKey(),
		GatewayCallbackRawPayload:     datatypes.JSON(raw.Body),
		GatewayCallbackReceivedAt:     receivedAt,
	}
	res := IngestResult{CallbackID: cb.GatewayCallbackID, ReferenceID: ev.ReferenceID, EventType: ev.EventType}

	inserted, err := s.repo.InsertIfAbsent(ctx, cb)
	if err != nil {
		s.log.Error("[CALLBACK] gagal simpan callback", zap.String("reference_id", ev.ReferenceID), zap.Error(err))
		return IngestResult{}, err
	}
	if !inserted {
		res.Outcome = OutcomeDuplicateIgnored
		metrics.CallbackOutcomes.WithLabelValues(ev.Source, string(res.Outcome)).Inc()
		s.log.Info("[CALLBACK] duplikat diabaikan",
			zap.String("reference_id", ev.ReferenceID),
			zap.String("event_type", ev.EventType))
		return res, nil
	}

	outcome, err := s.apply(ctx, cb, ev)
	if err != nil {
		s.log.Error("[CALLBACK] gagal menerapkan efek, menunggu reconcile",
			zap.String("callback_id", cb.GatewayCallbackID.String()),
			zap.String("reference_id", ev.ReferenceID),
			zap.Error(err))
		return IngestResult{}, err
	}
	res.Outcome = outcome
	metrics.CallbackOutcomes.WithLabelValues(ev.Source, string(outcome)).Inc()
	s.log.Info("[CALLBACK] diproses",
		zap.String("source", ev.Source),
		zap.String("reference_id", ev.ReferenceID),
		zap.String("event_type", ev.EventType),
		zap.String("outcome", string(outcome)))
	return res, nil
}

func (s *IngestService) verifyAndNormalize(raw RawEvent, receivedAt time.Time) (Event, error) {
	switch raw.Source {
	case SourceMidtrans:
		n, err := ParseMidtrans(raw.Body)
		if err != nil {
			return Event{}, err
		}
		if err := VerifyMidtrans(n, s.secrets.MidtransServerKey); err != nil {
			return Event{}, err
		}
		return n.Normalize(receivedAt)
	case SourceXendit:
		if err := VerifyCallbackToken(raw.CallbackToken, s.secrets.XenditCallbackToken); err != nil {
			return Event{}, err
		}
		cb, err := ParseXenditDisbursement(raw.Body)
		if err != nil {
			return Event{}, err
		}
		return cb.Normalize(receivedAt), nil
	}
	return Event{}, fmt.Errorf("unknown callback source %q: %w", raw.Source, constants.ErrMalformedCallback)
}

/* =========================================================
   Efek per reference_kind
========================================================= */

func (s *IngestService) apply(ctx context.Context, cb *model.GatewayCallbackModel, ev Event) (Outcome, error) {
	switch ev.ReferenceKind {
	case model.ReferencePayment:
		return s.applyPayment(ctx, cb, ev)
	case model.ReferenceDisbursement:
		return s.applyDisbursement(ctx, cb, ev)
	}
	return OutcomeNoEffect, nil
}

func (s *IngestService) applyPayment(ctx context.Context, cb *model.GatewayCallbackModel, ev Event) (Outcome, error) {
	if ev.PaymentAction == "" {
		return OutcomeNoEffect, nil
	}
	res, err := s.payments.ApplyGatewayUpdate(ctx, paymentService.GatewayUpdate{
		ExternalID: ev.ReferenceID,
		Action:     ev.PaymentAction,
		Amount:     ev.Amount,
		OccurredAt: ev.OccurredAt,
		Channel:    ev.Channel,
	})

	switch {
	case err == nil && res.Changed:
		return OutcomeApplied, nil
	case err == nil, errors.Is(err, constants.ErrInvalidTransition):
		return OutcomeNoEffect, nil
	case errors.Is(err, constants.ErrUnknownReference):
		s.review(ctx, cb, model.ReviewUnknownReference, nil)
		return OutcomeUnknownReference, nil
	case errors.Is(err, constants.ErrAmountMismatch):
		expected := res.Amount
		s.review(ctx, cb, model.ReviewAmountMismatch, &expected)
		return OutcomeAmountMismatch, nil
	case errors.Is(err, constants.ErrAlreadyFinalized):
		success := ev.PaymentAction == paymentService.GatewayActionPaid || ev.PaymentAction == paymentService.GatewayActionSettled
		if success && res.To != paymentModel.PaymentStatusPaid {
			expected := res.Amount
			s.review(ctx, cb, model.ReviewLateSuccessAfterFinal, &expected)
		}
		return OutcomeAlreadyFinalized, nil
	}
	return "", err
}

func (s *IngestService) applyDisbursement(ctx context.Context, cb *model.GatewayCallbackModel, ev Event) (Outcome, error) {
	res, err := s.disbursement.ApplyDisbursementEvent(ctx, payrollService.DisbursementUpdate{
		DisbursementID: ev.ReferenceID,
		Status:         ev.DisbursementStatus,
		GatewayID:      ev.GatewayEventID,
		FailureCode:    ev.FailureCode,
		Amount:         ev.Amount,
		OccurredAt:     ev.OccurredAt,
	})

	switch {
	case err == nil && res.Changed:
		return OutcomeApplied, nil
	case err == nil, errors.Is(err, constants.ErrInvalidTransition):
		return OutcomeNoEffect, nil
	case errors.Is(err, constants.ErrUnknownReference):
		s.review(ctx, cb, model.ReviewUnknownReference, nil)
		return OutcomeUnknownReference, nil
	case errors.Is(err, constants.ErrAmountMismatch):
		expected := res.Amount
		s.review(ctx, cb, model.ReviewAmountMismatch, &expected)
		return OutcomeAmountMismatch, nil
	case errors.Is(err, constants.ErrAlreadyFinalized):
		return OutcomeAlreadyFinalized, nil
	}
	return "", err
}

// review: gagal tulis review tidak menggagalkan callback (sudah tersimpan untuk audit).
func (s *IngestService) review(ctx context.Context, cb *model.GatewayCallbackModel, reason model.ReviewReason, expected *decimal.Decimal) {
	err := s.repo.CreateReview(ctx, &model.ReconciliationReviewModel{
		ReviewID:             uuid.New(),
		ReviewCallbackID:     cb.GatewayCallbackID,
		ReviewReferenceKind:  cb.GatewayCallbackReferenceKind,
		ReviewReferenceID:    cb.GatewayCallbackReferenceID,
		ReviewReason:         reason,
		ReviewExpectedAmount: expected,
		ReviewReportedAmount: cb.GatewayCallbackAmount,
	})
	if err != nil {
		s.log.Error("[CALLBACK] gagal menulis review", zap.String("callback_id", cb.GatewayCallbackID.String()), zap.Error(err))
		return
	}
	s.log.Warn("[CALLBACK] masuk antrian review",
		zap.String("reference_id", cb.GatewayCallbackReferenceID),
		zap.String("reason", string(reason)))
}

/* =========================================================
   Reconcile sweep
========================================================= */

type ReconcileResult struct {
	Scanned int `json:"scanned"`
	Applied int `json:"applied"`
	Failed  int `json:"failed"`
}

// Reconcile menerapkan ulang callback tersimpan yang target-nya masih terbuka
// (mis. proses mati di antara simpan dan efek). Aman diulang karena state machine idempotent.
func (s *IngestService) Reconcile(ctx context.Context, lookback time.Duration, limit int) (ReconcileResult, error) {
	var out ReconcileResult
	if limit <= 0 {
		limit = 500
	}
	rows, err := s.repo.ListForReconcile(ctx, s.now().Add(-lookback), limit)
	if err != nil {
		return out, err
	}

	for i := range rows {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		cb := &rows[i]
		out.Scanned++

		ev, err := decodeStored(cb.GatewayCallbackSource, cb.GatewayCallbackRawPayload, cb.GatewayCallbackReceivedAt)
		if err != nil {
			out.Failed++
			s.log.Error("[RECONCILE] payload tersimpan tidak bisa dibaca", zap.String("callback_id", cb.GatewayCallbackID.String()), zap.Error(err))
			continue
		}
		outcome, err := s.apply(ctx, cb, ev)
		if err != nil {
			out.Failed++
			metrics.JobItems.WithLabelValues("reconcile", "failed").Inc()
			s.log.Error("[RECONCILE] gagal", zap.String("callback_id", cb.GatewayCallbackID.String()), zap.Error(err))
			continue
		}
		if outcome == OutcomeApplied {
			out.Applied++
			metrics.JobItems.WithLabelValues("reconcile", "applied").Inc()
		}
	}

	s.log.Info("[RECONCILE] selesai", zap.Int("scanned", out.Scanned), zap.Int("applied", out.Applied), zap.Int("failed", out.Failed))
	return out, nil
}

/* =========================================================
   Read side (audit trail & review queue)
========================================================= */

func (s *IngestService) AuditTrail(ctx context.Context, referenceID string) ([]model.GatewayCallbackModel, error) {
	return s.repo.ListByReference(ctx, referenceID)
}

func (s *IngestService) Reviews(ctx context.Context, f repository.ReviewFilter) ([]model.ReconciliationReviewModel, int64, error) {
	return s.repo.ListReviews(ctx, f)
}

func (s *IngestService) ResolveReview(ctx context.Context, id uuid.UUID, note string, by *uuid.UUID) (*model.ReconciliationReviewModel, error) {
	return s.repo.ResolveReview(ctx, id, note, by, s.now())
}
