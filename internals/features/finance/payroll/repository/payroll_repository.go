// file: internals/features/finance/payroll/repository/payroll_repository.go
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
	outboxModel "tahfidzku_backend/internals/features/finance/outbox/model"
	"tahfidzku_backend/internals/features/finance/payroll/model"
)

// Repository: akses data payroll & disbursement.
// Lock* hanya bermakna di dalam Transaction.
type Repository interface {
	Transaction(ctx context.Context, fn func(tx Repository) error) error

	GetProfile(ctx context.Context, teacherID uuid.UUID) (*model.TeacherPayrollProfileModel, error)
	UpsertProfile(ctx context.Context, p *model.TeacherPayrollProfileModel) error

	UpsertAttendance(ctx context.Context, a *model.TeacherAttendanceModel) error
	ListAttendance(ctx context.Context, teacherID uuid.UUID, from, to time.Time) ([]model.TeacherAttendanceModel, error)

	EnsurePayroll(ctx context.Context, teacherID uuid.UUID, month, year int) error
	LockPayrollByPeriod(ctx context.Context, teacherID uuid.UUID, month, year int) (*model.PayrollRecordModel, error)
	FindPayrollByPeriod(ctx context.Context, teacherID uuid.UUID, month, year int) (*model.PayrollRecordModel, error)
	GetPayroll(ctx context.Context, id uuid.UUID) (*model.PayrollRecordModel, error)
	LockPayroll(ctx context.Context, id uuid.UUID) (*model.PayrollRecordModel, error)
	SavePayroll(ctx context.Context, p *model.PayrollRecordModel) error

	CreateDisbursement(ctx context.Context, d *model.DisbursementModel) error
	GetDisbursementByPayroll(ctx context.Context, payrollID uuid.UUID) (*model.DisbursementModel, error)
	LockDisbursement(ctx context.Context, id uuid.UUID) (*model.DisbursementModel, error)
	SaveDisbursement(ctx context.Context, d *model.DisbursementModel) error

	AddOutboxEvent(ctx context.Context, ev *outboxModel.OutboxEventModel) error
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

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, constants.ErrNotFound)
	}
	return err
}

/* ===================== profiles & attendance ===================== */

func (r *gormRepository) GetProfile(ctx context.Context, teacherID uuid.UUID) (*model.TeacherPayrollProfileModel, error) {
	var p model.TeacherPayrollProfileModel
	if err := r.db.WithContext(ctx).Where("teacher_payroll_profile_teacher_id = ?", teacherID).First(&p).Error; err != nil {
		return nil, notFound(err, "payroll profile for teacher "+teacherID.String())
	}
	return &p, nil
}

func (r *gormRepository) UpsertProfile(ctx context.Context, p *model.TeacherPayrollProfileModel) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "teacher_payroll_profile_teacher_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"teacher_payroll_profile_name",
				"teacher_payroll_profile_hourly_rate",
				"teacher_payroll_profile_incentive",
				"teacher_payroll_profile_bank_code",
				"teacher_payroll_profile_account_number",
				"teacher_payroll_profile_account_holder_name",
				"teacher_payroll_profile_updated_at",
			}),
		}).
		Create(p).Error
}

func (r *gormRepository) UpsertAttendance(ctx context.Context, a *model.TeacherAttendanceModel) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "teacher_attendance_teacher_id"}, {Name: "teacher_attendance_date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"teacher_attendance_status",
				"teacher_attendance_hours_taught",
				"teacher_attendance_note",
				"teacher_attendance_updated_at",
			}),
		}).
		Create(a).Error
}

// ListAttendance: rentang [from, to)
func (r *gormRepository) ListAttendance(ctx context.Context, teacherID uuid.UUID, from, to time.Time) ([]model.TeacherAttendanceModel, error) {
	var rows []model.TeacherAttendanceModel
	err := r.db.WithContext(ctx).
		Where("teacher_attendance_teacher_id = ?", teacherID).
		Where("teacher_attendance_date >= ? AND teacher_attendance_date < ?", from, to).
		Order("teacher_attendance_date ASC").
		Find(&rows).Error
	return rows, err
}

/* ===================== payroll records ===================== */

// EnsurePayroll menyisipkan baris DRAFT kosong kalau belum ada, supaya selalu ada baris untuk di-lock.
func (r *gormRepository) EnsurePayroll(ctx context.Context, teacherID uuid.UUID, month, year int) error {
	row := model.PayrollRecordModel{
		PayrollID:        uuid.New(),
		PayrollTeacherID: teacherID,
		PayrollMonth:     month,
		PayrollYear:      year,
		PayrollStatus:    model.PayrollStatusDraft,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
}

func (r *gormRepository) LockPayrollByPeriod(ctx context.Context, teacherID uuid.UUID, month, year int) (*model.PayrollRecordModel, error) {
	var p model.PayrollRecordModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("payroll_teacher_id = ? AND payroll_month = ? AND payroll_year = ?", teacherID, month, year).
		First(&p).Error
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("payroll %02d/%d teacher %s", month, year, teacherID))
	}
	return &p, nil
}

func (r *gormRepository) FindPayrollByPeriod(ctx context.Context, teacherID uuid.UUID, month, year int) (*model.PayrollRecordModel, error) {
	var p model.PayrollRecordModel
	err := r.db.WithContext(ctx).
		Where("payroll_teacher_id = ? AND payroll_month = ? AND payroll_year = ?", teacherID, month, year).
		First(&p).Error
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("payroll %02d/%d teacher %s", month, year, teacherID))
	}
	return &p, nil
}

func (r *gormRepository) GetPayroll(ctx context.Context, id uuid.UUID) (*model.PayrollRecordModel, error) {
	var p model.PayrollRecordModel
	if err := r.db.WithContext(ctx).Where("payroll_id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err, "payroll "+id.String())
	}
	return &p, nil
}

func (r *gormRepository) LockPayroll(ctx context.Context, id uuid.UUID) (*model.PayrollRecordModel, error) {
	var p model.PayrollRecordModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("payroll_id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, notFound(err, "payroll "+id.String())
	}
	return &p, nil
}

func (r *gormRepository) SavePayroll(ctx context.Context, p *model.PayrollRecordModel) error {
	return r.db.WithContext(ctx).Save(p).Error
}

/* ===================== disbursements ===================== */

func (r *gormRepository) CreateDisbursement(ctx context.Context, d *model.DisbursementModel) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *gormRepository) GetDisbursementByPayroll(ctx context.Context, payrollID uuid.UUID) (*model.DisbursementModel, error) {
	var d model.DisbursementModel
	if err := r.db.WithContext(ctx).Where("disbursement_payroll_id = ?", payrollID).First(&d).Error; err != nil {
		return nil, notFound(err, "disbursement for payroll "+payrollID.String())
	}
	return &d, nil
}

func (r *gormRepository) LockDisbursement(ctx context.Context, id uuid.UUID) (*model.DisbursementModel, error) {
	var d model.DisbursementModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("disbursement_id = ?", id).
		First(&d).Error
	if err != nil {
		return nil, notFound(err, "disbursement "+id.String())
	}
	return &d, nil
}

// SaveDisbursement tidak pernah menyentuh amount.
func (r *gormRepository) SaveDisbursement(ctx context.Context, d *model.DisbursementModel) error {
	return r.db.WithContext(ctx).
		Model(&model.DisbursementModel{}).
		Where("disbursement_id = ?", d.DisbursementID).
		Updates(map[string]any{
			"disbursement_gateway_id":   d.DisbursementGatewayID,
			"disbursement_status":       d.DisbursementStatus,
			"disbursement_processed_at": d.DisbursementProcessedAt,
			"disbursement_failure_code": d.DisbursementFailureCode,
			"disbursement_updated_at":   time.Now().UTC(),
		}).Error
}

func (r *gormRepository) AddOutboxEvent(ctx context.Context, ev *outboxModel.OutboxEventModel) error {
	return r.db.WithContext(ctx).Create(ev).Error
}
