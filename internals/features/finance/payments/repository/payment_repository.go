// file: internals/features/finance/payments/repository/payment_repository.go
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
	enrollModel "tahfidzku_backend/internals/features/enrollments/student_programs/model"
	outboxModel "tahfidzku_backend/internals/features/finance/outbox/model"
	"tahfidzku_backend/internals/features/finance/payments/model"
	voucherModel "tahfidzku_backend/internals/features/finance/vouchers/model"
	helper "tahfidzku_backend/internals/helpers"
)

type ListFilter struct {
	Status string
	Kind   string
	Method string
	Offset int
	Limit  int
}

// Repository: akses data untuk ledger pembayaran.
// Method Lock* wajib dipanggil di dalam Transaction (SELECT ... FOR UPDATE).
type Repository interface {
	Transaction(ctx context.Context, fn func(tx Repository) error) error

	CreatePayment(ctx context.Context, p *model.PaymentModel) error
	GetPayment(ctx context.Context, id uuid.UUID) (*model.PaymentModel, error)
	LockPayment(ctx context.Context, id uuid.UUID) (*model.PaymentModel, error)
	SavePaymentStatus(ctx context.Context, p *model.PaymentModel) error
	ListPayments(ctx context.Context, f ListFilter) ([]model.PaymentModel, int64, error)

	CreateGatewayPayment(ctx context.Context, g *model.GatewayPaymentModel) error
	GetGatewayByPayment(ctx context.Context, paymentID uuid.UUID) (*model.GatewayPaymentModel, error)
	LockGatewayByExternalID(ctx context.Context, externalID string) (*model.GatewayPaymentModel, error)
	SaveGatewayPayment(ctx context.Context, g *model.GatewayPaymentModel) error
	ListOverdueGateways(ctx context.Context, cutoff time.Time, limit int) ([]model.GatewayPaymentModel, error)

	CreateRegistrationPayment(ctx context.Context, r *model.RegistrationPaymentModel) error
	CreateRecurringPeriod(ctx context.Context, r *model.RecurringPeriodModel) error
	GetRegistrationPayment(ctx context.Context, id uuid.UUID) (*model.RegistrationPaymentModel, error)
	GetRecurringPeriod(ctx context.Context, id uuid.UUID) (*model.RecurringPeriodModel, error)
	MarkOwnerSettled(ctx context.Context, p *model.PaymentModel, at time.Time) error

	FindVoucherByCode(ctx context.Context, code string) (*voucherModel.VoucherModel, error)
	ConsumeVoucher(ctx context.Context, voucherID uuid.UUID) error

	GetStudentProgram(ctx context.Context, id uuid.UUID) (*enrollModel.StudentProgramModel, error)
	ListActiveStudentPrograms(ctx context.Context) ([]enrollModel.StudentProgramModel, error)

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

/* ===================== payments ===================== */

func (r *gormRepository) CreatePayment(ctx context.Context, p *model.PaymentModel) error {
	if err := p.ValidateReference(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *gormRepository) GetPayment(ctx context.Context, id uuid.UUID) (*model.PaymentModel, error) {
	var p model.PaymentModel
	if err := r.db.WithContext(ctx).Where("payment_id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err, "payment "+id.String())
	}
	return &p, nil
}

func (r *gormRepository) LockPayment(ctx context.Context, id uuid.UUID) (*model.PaymentModel, error) {
	var p model.PaymentModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("payment_id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, notFound(err, "payment "+id.String())
	}
	return &p, nil
}

func (r *gormRepository) SavePaymentStatus(ctx context.Context, p *model.PaymentModel) error {
	return r.db.WithContext(ctx).
		Model(&model.PaymentModel{}).
		Where("payment_id = ?", p.PaymentID).
		Updates(map[string]any{
			"payment_status":     p.PaymentStatus,
			"payment_paid_at":    p.PaymentPaidAt,
			"payment_updated_at": time.Now().UTC(),
		}).Error
}

func (r *gormRepository) ListPayments(ctx context.Context, f ListFilter) ([]model.PaymentModel, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.PaymentModel{})
	if f.Status != "" {
		q = q.Where("payment_status = ?", f.Status)
	}
	if f.Kind != "" {
		q = q.Where("payment_kind = ?", f.Kind)
	}
	if f.Method != "" {
		q = q.Where("payment_method = ?", f.Method)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.PaymentModel
	if err := q.Order("payment_created_at DESC").Offset(f.Offset).Limit(f.Limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

/* ===================== gateway payments ===================== */

func (r *gormRepository) CreateGatewayPayment(ctx context.Context, g *model.GatewayPaymentModel) error {
	err := r.db.WithContext(ctx).Create(g).Error
	if helper.IsUniqueViolation(err) {
		return fmt.Errorf("gateway record for payment %s already exists: %w", g.GatewayPaymentPaymentID, constants.ErrInvalidTransition)
	}
	return err
}

func (r *gormRepository) GetGatewayByPayment(ctx context.Context, paymentID uuid.UUID) (*model.GatewayPaymentModel, error) {
	var g model.GatewayPaymentModel
	if err := r.db.WithContext(ctx).Where("gateway_payment_payment_id = ?", paymentID).First(&g).Error; err != nil {
		return nil, notFound(err, "gateway payment for "+paymentID.String())
	}
	return &g, nil
}

func (r *gormRepository) LockGatewayByExternalID(ctx context.Context, externalID string) (*model.GatewayPaymentModel, error) {
	var g model.GatewayPaymentModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("gateway_payment_external_id = ?", externalID).
		First(&g).Error
	if err != nil {
		return nil, notFound(err, "gateway payment "+externalID)
	}
	return &g, nil
}

func (r *gormRepository) SaveGatewayPayment(ctx context.Context, g *model.GatewayPaymentModel) error {
	return r.db.WithContext(ctx).
		Model(&model.GatewayPaymentModel{}).
		Where("gateway_payment_id = ?", g.GatewayPaymentID).
		Updates(map[string]any{
			"gateway_payment_status":     g.GatewayPaymentStatus,
			"gateway_payment_paid_at":    g.GatewayPaymentPaidAt,
			"gateway_payment_channel":    g.GatewayPaymentChannel,
			"gateway_payment_updated_at": time.Now().UTC(),
		}).Error
}

func (r *gormRepository) ListOverdueGateways(ctx context.Context, cutoff time.Time, limit int) ([]model.GatewayPaymentModel, error) {
	var rows []model.GatewayPaymentModel
	err := r.db.WithContext(ctx).
		Table("gateway_payments AS g").
		Select("g.*").
		Joins("JOIN payments p ON p.payment_id = g.gateway_payment_payment_id").
		Where("g.gateway_payment_status = ?", model.GatewayStatusPending).
		Where("g.gateway_payment_expiry IS NOT NULL AND g.gateway_payment_expiry < ?", cutoff).
		Where("p.payment_status = ?", model.PaymentStatusAwaitingPayment).
		Order("g.gateway_payment_expiry ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

/* ===================== registration & periods ===================== */

func (r *gormRepository) CreateRegistrationPayment(ctx context.Context, reg *model.RegistrationPaymentModel) error {
	return r.db.WithContext(ctx).Create(reg).Error
}

func (r *gormRepository) CreateRecurringPeriod(ctx context.Context, p *model.RecurringPeriodModel) error {
	err := r.db.WithContext(ctx).Create(p).Error
	if helper.IsUniqueViolation(err) {
		return fmt.Errorf("period %02d/%d for program %s: %w",
			p.RecurringPeriodMonth, p.RecurringPeriodYear, p.RecurringPeriodStudentProgramID, constants.ErrPeriodExists)
	}
	return err
}

func (r *gormRepository) GetRegistrationPayment(ctx context.Context, id uuid.UUID) (*model.RegistrationPaymentModel, error) {
	var row model.RegistrationPaymentModel
	if err := r.db.WithContext(ctx).Where("registration_payment_id = ?", id).First(&row).Error; err != nil {
		return nil, notFound(err, "registration payment "+id.String())
	}
	return &row, nil
}

func (r *gormRepository) GetRecurringPeriod(ctx context.Context, id uuid.UUID) (*model.RecurringPeriodModel, error) {
	var row model.RecurringPeriodModel
	if err := r.db.WithContext(ctx).Where("recurring_period_id = ?", id).First(&row).Error; err != nil {
		return nil, notFound(err, "recurring period "+id.String())
	}
	return &row, nil
}

// MarkOwnerSettled menandai RegistrationPayment / RecurringPeriod pemilik payment sebagai lunas.
func (r *gormRepository) MarkOwnerSettled(ctx context.Context, p *model.PaymentModel, at time.Time) error {
	var res *gorm.DB
	switch p.PaymentKind {
	case model.PaymentKindRegistration:
		res = r.db.WithContext(ctx).
			Model(&model.RegistrationPaymentModel{}).
			Where("registration_payment_id = ? AND registration_payment_settled_at IS NULL", p.ReferenceID()).
			Update("registration_payment_settled_at", at)
	case model.PaymentKindTuition:
		res = r.db.WithContext(ctx).
			Model(&model.RecurringPeriodModel{}).
			Where("recurring_period_id = ? AND recurring_period_settled_at IS NULL", p.ReferenceID()).
			Update("recurring_period_settled_at", at)
	default:
		return model.ErrBadReference
	}
	return res.Error
}

/* ===================== vouchers ===================== */

func (r *gormRepository) FindVoucherByCode(ctx context.Context, code string) (*voucherModel.VoucherModel, error) {
	var v voucherModel.VoucherModel
	if err := r.db.WithContext(ctx).Where("voucher_code = ?", code).First(&v).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("voucher %s: %w", code, constants.ErrVoucherNotFound)
		}
		return nil, err
	}
	return &v, nil
}

// ConsumeVoucher: increment atomik di SQL, gagal kalau voucher sudah nonaktif.
func (r *gormRepository) ConsumeVoucher(ctx context.Context, voucherID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&voucherModel.VoucherModel{}).
		Where("voucher_id = ? AND voucher_active = TRUE", voucherID).
		UpdateColumn("voucher_uses_consumed", gorm.Expr("voucher_uses_consumed + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("voucher %s: %w", voucherID, constants.ErrVoucherInactive)
	}
	return nil
}

/* ===================== enrollment (read-only) ===================== */

func (r *gormRepository) GetStudentProgram(ctx context.Context, id uuid.UUID) (*enrollModel.StudentProgramModel, error) {
	var sp enrollModel.StudentProgramModel
	if err := r.db.WithContext(ctx).Where("student_program_id = ?", id).First(&sp).Error; err != nil {
		return nil, notFound(err, "student program "+id.String())
	}
	return &sp, nil
}

func (r *gormRepository) ListActiveStudentPrograms(ctx context.Context) ([]enrollModel.StudentProgramModel, error) {
	var rows []enrollModel.StudentProgramModel
	err := r.db.WithContext(ctx).
		Where("student_program_status = ?", enrollModel.StudentProgramActive).
		Order("student_program_created_at ASC").
		Find(&rows).Error
	return rows, err
}

/* ===================== outbox ===================== */

func (r *gormRepository) AddOutboxEvent(ctx context.Context, ev *outboxModel.OutboxEventModel) error {
	return r.db.WithContext(ctx).Create(ev).Error
}
