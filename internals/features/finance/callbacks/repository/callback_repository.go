// file: internals/features/finance/callbacks/repository/callback_repository.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tahfidzku_backend/internals/constants"
	"tahfidzku_backend/internals/features/finance/callbacks/model"
)

type ReviewFilter struct {
	OpenOnly bool
	Offset   int
	Limit    int
}

type Repository interface {
	// InsertIfAbsent: false kalau dedup_key sudah ada (callback duplikat).
	InsertIfAbsent(ctx context.Context, cb *model.GatewayCallbackModel) (bool, error)
	ListByReference(ctx context.Context, referenceID string) ([]model.GatewayCallbackModel, error)
	// ListForReconcile: callback efektif sejak `since` yang target-nya masih terbuka
	// dan belum masuk antrian review.
	ListForReconcile(ctx context.Context, since time.Time, limit int) ([]model.GatewayCallbackModel, error)

	CreateReview(ctx context.Context, r *model.ReconciliationReviewModel) error
	ListReviews(ctx context.Context, f ReviewFilter) ([]model.ReconciliationReviewModel, int64, error)
	ResolveReview(ctx context.Context, id uuid.UUID, note string, by *uuid.UUID, at time.Time) (*model.ReconciliationReviewModel, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) InsertIfAbsent(ctx context.Context, cb *model.GatewayCallbackModel) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "gateway_callback_dedup_key"}},
			DoNothing: true,
		}).
		Create(cb)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *gormRepository) ListByReference(ctx context.Context, referenceID string) ([]model.GatewayCallbackModel, error) {
	var rows []model.GatewayCallbackModel
	err := r.db.WithContext(ctx).
		Where("gateway_callback_reference_id = ?", referenceID).
		Order("gateway_callback_received_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *gormRepository) ListForReconcile(ctx context.Context, since time.Time, limit int) ([]model.GatewayCallbackModel, error) {
	var rows []model.GatewayCallbackModel
	types := model.ReconcilableEventTypes()
	// callback yang sudah masuk review tidak diulang
	err := r.db.WithContext(ctx).Raw(`
		SELECT c.* FROM gateway_callbacks c
		JOIN gateway_payments g ON g.gateway_payment_external_id = c.gateway_callback_reference_id
		JOIN payments p ON p.payment_id = g.gateway_payment_payment_id
		WHERE c.gateway_callback_reference_kind = 'PAYMENT'
		  AND c.gateway_callback_received_at >= ?
		  AND c.gateway_callback_event_type IN ?
		  AND c.gateway_callback_raw_status <> ?
		  AND p.payment_status IN ('PENDING', 'AWAITING_PAYMENT')
		  AND NOT EXISTS (SELECT 1 FROM reconciliation_reviews rv WHERE rv.review_callback_id = c.gateway_callback_id)
		UNION ALL
		SELECT c.* FROM gateway_callbacks c
		JOIN disbursements d ON d.disbursement_id::text = c.gateway_callback_reference_id
		WHERE c.gateway_callback_reference_kind = 'DISBURSEMENT'
		  AND c.gateway_callback_received_at >= ?
		  AND c.gateway_callback_event_type IN ?
		  AND d.disbursement_status = 'PENDING'
		  AND NOT EXISTS (SELECT 1 FROM reconciliation_reviews rv WHERE rv.review_callback_id = c.gateway_callback_id)
		ORDER BY gateway_callback_received_at ASC
		LIMIT ?`, since, types, model.RawStatusChallengedCapture, since, types, limit).
		Scan(&rows).Error
	return rows, err
}

/* ===================== review queue ===================== */

func (r *gormRepository) CreateReview(ctx context.Context, rv *model.ReconciliationReviewModel) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "review_callback_id"}},
			DoNothing: true,
		}).
		Create(rv).Error
}

func (r *gormRepository) ListReviews(ctx context.Context, f ReviewFilter) ([]model.ReconciliationReviewModel, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.ReconciliationReviewModel{})
	if f.OpenOnly {
		q = q.Where("review_resolved_at IS NULL")
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.ReconciliationReviewModel
	if err := q.Order("review_created_at DESC").Offset(f.Offset).Limit(f.Limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *gormRepository) ResolveReview(ctx context.Context, id uuid.UUID, note string, by *uuid.UUID, at time.Time) (*model.ReconciliationReviewModel, error) {
	var out model.ReconciliationReviewModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("review_id = ?", id).First(&out).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("review %s: %w", id, constants.ErrNotFound)
			}
			return err
		}
		if out.ReviewResolvedAt != nil {
			return fmt.Errorf("review %s: %w", id, constants.ErrAlreadyFinalized)
		}
		out.ReviewNote = &note
		out.ReviewResolvedAt = &at
		out.ReviewResolvedBy = by
		return tx.Model(&model.ReconciliationReviewModel{}).
			Where("review_id = ?", id).
			Updates(map[string]any{
				"review_note":        note,
				"review_resolved_at": at,
				"review_resolved_by": by,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
