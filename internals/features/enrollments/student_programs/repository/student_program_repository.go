// file: internals/features/enrollments/student_programs/repository/student_program_repository.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tahfidzku_backend/internals/constants"
	"tahfidzku_backend/internals/features/enrollments/student_programs/model"
)

type Repository interface {
	Create(ctx context.Context, sp *model.StudentProgramModel) error
	Get(ctx context.Context, id uuid.UUID) (*model.StudentProgramModel, error)
	// Activate: PENDING → ACTIVE. false kalau sudah ACTIVE/INACTIVE (tidak ada perubahan).
	Activate(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, sp *model.StudentProgramModel) error {
	return r.db.WithContext(ctx).Create(sp).Error
}

func (r *gormRepository) Get(ctx context.Context, id uuid.UUID) (*model.StudentProgramModel, error) {
	var sp model.StudentProgramModel
	err := r.db.WithContext(ctx).Where("student_program_id = ?", id).Take(&sp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("student program %s: %w", id, constants.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

// Activate: conditional update, aman dipanggil berulang / paralel.
func (r *gormRepository) Activate(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.StudentProgramModel{}).
		Where("student_program_id = ? AND student_program_status = ?", id, model.StudentProgramPending).
		Updates(map[string]any{
			"student_program_status":       model.StudentProgramActive,
			"student_program_activated_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
