package financetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"tahfidzku_backend/internals/constants"
	"tahfidzku_backend/internals/features/finance/callbacks/model"
	"tahfidzku_backend/internals/features/finance/callbacks/repository"
	paymentModel "tahfidzku_backend/internals/features/finance/payments/model"
	payrollModel "tahfidzku_backend/internals/features/finance/payroll/model"
)

// CallbackStore: gateway_callbacks + reconciliation_reviews in-memory.
// Payments / Payroll dipakai ListForReconcile untuk menentukan target yang masih terbuka.
type CallbackStore struct {
	mu sync.Mutex

	callbacks []model.GatewayCallbackModel
	dedup     map[string]struct{}
	reviews   map[uuid.UUID]model.ReconciliationReviewModel

	Payments *PaymentStore
	Payroll  *PayrollStore

	// FailInsert memaksa InsertIfAbsent error (simulasi store down)
	FailInsert error
}

func NewCallbackStore(payments *PaymentStore, payroll *PayrollStore) *CallbackStore {
	return &CallbackStore{
		dedup:    map[string]struct{}{},
		reviews:  map[uuid.UUID]model.ReconciliationReviewModel{},
		Payments: payments,
		Payroll:  payroll,
	}
}

func (s *CallbackStore) Repo() repository.Repository {
	return &callbackRepo{s: s}
}

func (s *CallbackStore) Callbacks() []model.GatewayCallbackModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.GatewayCallbackModel(nil), s.callbacks...)
}

func (s *CallbackStore) Reviews() []model.ReconciliationReviewModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ReconciliationReviewModel, 0, len(s.reviews))
	for _, r := range s.reviews {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReviewCreatedAt.Before(out[j].ReviewCreatedAt) })
	return out
}

type callbackRepo struct {
	s *CallbackStore
}

func (r *callbackRepo) InsertIfAbsent(_ context.Context, cb *model.GatewayCallbackModel) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.FailInsert != nil {
		return false, r.s.FailInsert
	}
	if _, dup := r.s.dedup[cb.GatewayCallbackDedupKey]; dup {
		return false, nil
	}
	if cb.GatewayCallbackID == uuid.Nil {
		cb.GatewayCallbackID = uuid.New()
	}
	r.s.dedup[cb.GatewayCallbackDedupKey] = struct{}{}
	r.s.callbacks = append(r.s.callbacks, *cb)
	return true, nil
}

func (r *callbackRepo) ListByReference(_ context.Context, referenceID string) ([]model.GatewayCallbackModel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.GatewayCallbackModel
	for _, cb := range r.s.callbacks {
		if cb.GatewayCallbackReferenceID == referenceID {
			out = append(out, cb)
		}
	}
	return out, nil
}

func (r *callbackRepo) ListForReconcile(_ context.Context, since time.Time, limit int) ([]model.GatewayCallbackModel, error) {
	r.s.mu.Lock()
	rows := append([]model.GatewayCallbackModel(nil), r.s.callbacks...)
	r.s.mu.Unlock()

	var out []model.GatewayCallbackModel
	for _, cb := range rows {
		if cb.GatewayCallbackReceivedAt.Before(since) || !r.s.open(cb) {
			continue
		}
		if !model.IsReconcilable(cb.GatewayCallbackEventType, cb.GatewayCallbackRawStatus) || r.s.hasReview(cb.GatewayCallbackID) {
			continue
		}
		out = append(out, cb)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *CallbackStore) hasReview(callbackID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rv := range s.reviews {
		if rv.ReviewCallbackID == callbackID {
			return true
		}
	}
	return false
}

func (s *CallbackStore) open(cb model.GatewayCallbackModel) bool {
	switch cb.GatewayCallbackReferenceKind {
	case model.ReferencePayment:
		if s.Payments == nil {
			return false
		}
		s.Payments.mu.Lock()
		defer s.Payments.mu.Unlock()
		for _, g := range s.Payments.gateways {
			if g.GatewayPaymentExternalID != cb.GatewayCallbackReferenceID {
				continue
			}
			st := s.Payments.payments[g.GatewayPaymentPaymentID].PaymentStatus
			return st == paymentModel.PaymentStatusPending || st == paymentModel.PaymentStatusAwaitingPayment
		}
	case model.ReferenceDisbursement:
		if s.Payroll == nil {
			return false
		}
		id, err := uuid.Parse(cb.GatewayCallbackReferenceID)
		if err != nil {
			return false
		}
		s.Payroll.mu.Lock()
		defer s.Payroll.mu.Unlock()
		d, ok := s.Payroll.disbursements[id]
		return ok && d.DisbursementStatus == payrollModel.DisbursementPending
	}
	return false
}

func (r *callbackRepo) CreateReview(_ context.Context, rv *model.ReconciliationReviewModel) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.reviews {
		if existing.ReviewCallbackID == rv.ReviewCallbackID {
			return nil
		}
	}
	if rv.ReviewID == uuid.Nil {
		rv.ReviewID = uuid.New()
	}
	if rv.ReviewCreatedAt.IsZero() {
		rv.ReviewCreatedAt = time.Now().UTC()
	}
	r.s.reviews[rv.ReviewID] = *rv
	return nil
}

func (r *callbackRepo) ListReviews(_ context.Context, f repository.ReviewFilter) ([]model.ReconciliationReviewModel, int64, error) {
	all := r.s.Reviews()
	var filtered []model.ReconciliationReviewModel
	for _, rv := range all {
		if f.OpenOnly && rv.ReviewResolvedAt != nil {
			continue
		}
		filtered = append(filtered, rv)
	}
	total := int64(len(filtered))
	if f.Offset >= len(filtered) {
		return nil, total, nil
	}
	filtered = filtered[f.Offset:]
	if f.Limit > 0 && len(filtered) > f.Limit {
		filtered = filtered[:f.Limit]
	}
	return filtered, total, nil
}

func (r *callbackRepo) ResolveReview(_ context.Context, id uuid.UUID, note string, by *uuid.UUID, at time.Time) (*model.ReconciliationReviewModel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rv, ok := r.s.reviews[id]
	if !ok {
		return nil, fmt.Errorf("review %s: %w", id, constants.ErrNotFound)
	}
	if rv.ReviewResolvedAt != nil {
		return nil, fmt.Errorf("review %s: %w", id, constants.ErrAlreadyFinalized)
	}
	rv.ReviewNote = &note
	rv.ReviewResolvedAt = &at
	rv.ReviewResolvedBy = by
	r.s.reviews[id] = rv
	return &rv, nil
}
