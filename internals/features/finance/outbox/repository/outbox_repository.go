// file: internals/features/finance/outbox/repository/outbox_repository.go
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tahfidzku_backend/internals/constants"
	"tahfidzku_backend/internals/features/finance/outbox/model"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(tx Repository) error) error

	// FetchPending: belum terkirim, attempts < maxAttempts, dan sudah lewat next_attempt_at.
	// Di Postgres pakai FOR UPDATE SKIP LOCKED supaya beberapa worker tidak mengambil baris yang sama.
	FetchPending(ctx context.Context, now time.Time, limit, maxAttempts int) ([]model.OutboxEventModel, error)
	MarkDispatched(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string, nextAttemptAt time.Time) error
	CountPending(ctx context.Context, maxAttempts int) (int64, error)

	// ListDead: event yang sudah habis jatah retry.
	ListDead(ctx context.Context, maxAttempts, offset, limit int) ([]model.OutboxEventModel, int64, error)
	// Requeue mereset attempts & jadwal retry event yang belum terkirim.
	Requeue(ctx context.Context, id uuid.UUID) error
}

type gormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Transaction(ctx context.Context, fn func(tx Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}

func (r *gormRepository) FetchPending(ctx context.Context, now time.Time, limit, maxAttempts int) ([]model.OutboxEventModel, error) {
	var rows []model.OutboxEventModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("outbox_event_dispatched_at IS NULL").
		Where("outbox_event_attempts < ?", maxAttempts).
		Where("outbox_event_next_attempt_at IS NULL OR outbox_event_next_attempt_at <= ?", now).
		Order("outbox_event_created_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *gormRepository) MarkDispatched(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.OutboxEventModel{}).
		Where("outbox_event_id = ?", id).
		Updates(map[string]any{
			"outbox_event_dispatched_at":   at,
			"outbox_event_attempts":        gorm.Expr("outbox_event_attempts + 1"),
			"outbox_event_last_error":      nil,
			"outbox_event_next_attempt_at": nil,
		}).Error
}

func (r *gormRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string, nextAttemptAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.OutboxEventModel{}).
		Where("outbox_event_id = ?", id).
		Updates(map[string]any{
			"outbox_event_attempts":        gorm.Expr("outbox_event_attempts + 1"),
			"outbox_event_last_error":      reason,
			"outbox_event_next_attempt_at": nextAttemptAt,
		}).Error
}

func (r *gormRepository) CountPending(ctx context.Context, maxAttempts int) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.OutboxEventModel{}).
		Where("outbox_event_dispatched_at IS NULL AND outbox_event_attempts < ?", maxAttempts).
		Count(&n).Error
	return n, err
}

func (r *gormRepository) ListDead(ctx context.Context, maxAttempts, offset, limit int) ([]model.OutboxEventModel, int64, error) {
	q := r.db.WithContext(ctx).
		Model(&model.OutboxEventModel{}).
		Where("outbox_event_dispatched_at IS NULL AND outbox_event_attempts >= ?", maxAttempts)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.OutboxEventModel
	if err := q.Order("outbox_event_created_at ASC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *gormRepository) Requeue(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&model.OutboxEventModel{}).
		Where("outbox_event_id = ? AND outbox_event_dispatched_at IS NULL", id).
		Updates(map[string]any{
			"outbox_event_attempts":        0,
			"outbox_event_next_attempt_at": nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("outbox event %s belum ada atau sudah terkirim: %w", id, constants.ErrNotFound)
	}
	return nil
}
