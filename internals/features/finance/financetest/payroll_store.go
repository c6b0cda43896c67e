package financetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tahfidzku_backend/internals/constants"
	outboxModel "tahfidzku_backend/internals/features/finance/outbox/model"
	"tahfidzku_backend/internals/features/finance/payroll/model"
	"tahfidzku_backend/internals/features/finance/payroll/repository"
)

type periodKey struct {
	teacher     uuid.UUID
	month, year int
}

type attendanceKey struct {
	teacher uuid.UUID
	day     string
}

type PayrollStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	profiles      map[uuid.UUID]model.TeacherPayrollProfileModel
	attendances   map[attendanceKey]model.TeacherAttendanceModel
	payrolls      map[uuid.UUID]model.PayrollRecordModel
	disbursements map[uuid.UUID]model.DisbursementModel
	outbox        []outboxModel.OutboxEventModel
}

func NewPayrollStore() *PayrollStore {
	return &PayrollStore{
		profiles:      map[uuid.UUID]model.TeacherPayrollProfileModel{},
		attendances:   map[attendanceKey]model.TeacherAttendanceModel{},
		payrolls:      map[uuid.UUID]model.PayrollRecordModel{},
		disbursements: map[uuid.UUID]model.DisbursementModel{},
	}
}

func (s *PayrollStore) Repo() repository.Repository {
	return &payrollRepo{s: s}
}

/* ===================== seeding & inspection ===================== */

// Teacher menanam profil payroll dengan tarif per jam & insentif.
func (s *PayrollStore) Teacher(hourlyRate, incentive int64) model.TeacherPayrollProfileModel {
	p := model.TeacherPayrollProfileModel{
		TeacherPayrollProfileID:                uuid.New(),
		TeacherPayrollProfileTeacherID:         uuid.New(),
		TeacherPayrollProfileName:              "Ustadz Hafidz",
		TeacherPayrollProfileHourlyRate:        decimal.NewFromInt(hourlyRate),
		TeacherPayrollProfileIncentive:         decimal.NewFromInt(incentive),
		TeacherPayrollProfileBankCode:          "BSI",
		TeacherPayrollProfileAccountNumber:     "7123456789",
		TeacherPayrollProfileAccountHolderName: "Hafidz Ramadhan",
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.TeacherPayrollProfileTeacherID] = p
	return p
}

func (s *PayrollStore) AddPayroll(p model.PayrollRecordModel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payrolls[p.PayrollID] = p
}

func (s *PayrollStore) AddDisbursement(d model.DisbursementModel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disbursements[d.DisbursementID] = d
}

func (s *PayrollStore) Payroll(id uuid.UUID) model.PayrollRecordModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payrolls[id]
}

func (s *PayrollStore) Disbursements() []model.DisbursementModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.DisbursementModel, 0, len(s.disbursements))
	for _, d := range s.disbursements {
		out = append(out, d)
	}
	return out
}

func (s *PayrollStore) Disbursement(id uuid.UUID) model.DisbursementModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disbursements[id]
}

func (s *PayrollStore) Outbox() []outboxModel.OutboxEventModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]outboxModel.OutboxEventModel(nil), s.outbox...)
}

/* ===================== snapshot / rollback ===================== */

type payrollSnapshot struct {
	profiles      map[uuid.UUID]model.TeacherPayrollProfileModel
	attendances   map[attendanceKey]model.TeacherAttendanceModel
	payrolls      map[uuid.UUID]model.PayrollRecordModel
	disbursements map[uuid.UUID]model.DisbursementModel
	outbox        []outboxModel.OutboxEventModel
}

func (s *PayrollStore) snapshot() payrollSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return payrollSnapshot{
		profiles:      copyMap(s.profiles),
		attendances:   copyMap(s.attendances),
		payrolls:      copyMap(s.payrolls),
		disbursements: copyMap(s.disbursements),
		outbox:        append([]outboxModel.OutboxEventModel(nil), s.outbox...),
	}
}

func (s *PayrollStore) restore(snap payrollSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles = snap.profiles
	s.attendances = snap.attendances
	s.payrolls = snap.payrolls
	s.disbursements = snap.disbursements
	s.outbox = snap.outbox
}

/* ===================== repository.Repository ===================== */

type payrollRepo struct {
	s    *PayrollStore
	inTx bool
}

func (r *payrollRepo) Transaction(ctx context.Context, fn func(tx repository.Repository) error) error {
	if r.inTx {
		return fn(r)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.txMu.Lock()
	defer r.s.txMu.Unlock()

	snap := r.s.snapshot()
	if err := fn(&payrollRepo{s: r.s, inTx: true}); err != nil {
		r.s.restore(snap)
		return err
	}
	return nil
}

func (r *payrollRepo) GetProfile(ctx context.Context, teacherID uuid.UUID) (*model.TeacherPayrollProfileModel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[teacherID]
	if !ok {
		return nil, fmt.Errorf("payroll profile for teacher %s: %w", teacherID, constants.ErrNotFound)
	}
	return &p, nil
}

func (r *payrollRepo) UpsertProfile(ctx context.Context, p *model.TeacherPayrollProfileModel) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if old, ok := r.s.profiles[p.TeacherPayrollProfileTeacherID]; ok {
		p.TeacherPayrollProfileID = old.TeacherPayrollProfileID
		p.TeacherPayrollProfileCreatedAt = old.TeacherPayrollProfileCreatedAt
	}
	p.TeacherPayrollProfileUpdatedAt = time.Now().UTC()
	r.s.profiles[p.TeacherPayrollProfileTeacherID] = *p
	return nil
}

func (r *payrollRepo) UpsertAttendance(ctx context.Context, a *model.TeacherAttendanceModel) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := attendanceKey{teacher: a.TeacherAttendanceTeacherID, day: a.TeacherAttendanceDate.Format("2006-01-02")}
	if old, ok := r.s.attendances[key]; ok {
		a.TeacherAttendanceID = old.TeacherAttendanceID
	}
	r.s.attendances[key] = *a
	return nil
}

func (r *payrollRepo) ListAttendance(ctx context.Context, teacherID uuid.UUID, from, to time.Time) ([]model.TeacherAttendanceModel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.TeacherAttendanceModel
	for k, a := range r.s.attendances {
		if k.teacher != teacherID {
			continue
		}
		if a.TeacherAttendanceDate.Before(from) || !a.TeacherAttendanceDate.Before(to) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeacherAttendanceDate.Before(out[j].TeacherAttendanceDate) })
	return out, nil
}

func (r *payrollRepo) findByPeriod(teacherID uuid.UUID, month, year int) (model.PayrollRecordModel, bool) {
	for _, p := range r.s.payrolls {
		if (periodKey{p.PayrollTeacherID, p.PayrollMonth, p.PayrollYear}) == (periodKey{teacherID, month, year}) {
			return p, true
		}
	}
	return model.PayrollRecordModel{}, false
}

func (r *payrollRepo) EnsurePayroll(ctx context.Context, teacherID uuid.UUID, month, year int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.findByPeriod(teacherID, month, year); ok {
		return nil
	}
	p := model.PayrollRecordModel{
		PayrollID:        uuid.New(),
		PayrollTeacherID: teacherID,
		PayrollMonth:     month,
		PayrollYear:      year,
		PayrollStatus:    model.PayrollStatusDraft,
		PayrollCreatedAt: time.Now().UTC(),
	}
	r.s.payrolls[p.PayrollID] = p
	return nil
}

func (r *payrollRepo) FindPayrollByPeriod(ctx context.Context, teacherID uuid.UUID, month, year int) (*model.PayrollRecordModel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.findByPeriod(teacherID, month, year)
	if !ok {
		return nil, fmt.Errorf("payroll %02d/%d teacher %s: %w", month, year, teacherID, constants.ErrNotFound)
	}
	return &p, nil
}

func (r *payrollRepo) LockPayrollByPeriod(ctx context.Context, teacherID uuid.UUID, month, year int) (*model.PayrollRecordModel, error) {
	return r.FindPayrollByPeriod(ctx, teacherID, month, year)
}

func (r *payrollRepo) GetPayroll(ctx context.Context, id uuid.UUID) (*model.PayrollRecordModel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payrolls[id]
	if !ok {
		return nil, fmt.Errorf("payroll %s: %w", id, constants.ErrNotFound)
	}
	return &p, nil
}

func (r *payrollRepo) LockPayroll(ctx context.Context, id uuid.UUID) (*model.PayrollRecordModel, error) {
	return r.GetPayroll(ctx, id)
}

func (r *payrollRepo) SavePayroll(ctx context.Context, p *model.PayrollRecordModel) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.payrolls[p.PayrollID]; !ok {
		return fmt.Errorf("payroll %s: %w", p.PayrollID, constants.ErrNotFound)
	}
	p.PayrollUpdatedAt = time.Now().UTC()
	r.s.payrolls[p.PayrollID] = *p
	return nil
}

func (r *payrollRepo) CreateDisbursement(ctx context.Context, d *model.DisbursementModel) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, old := range r.s.disbursements {
		if old.DisbursementPayrollID == d.DisbursementPayrollID {
			return fmt.Errorf("disbursement for payroll %s already exists", d.DisbursementPayrollID)
		}
	}
	d.DisbursementCreatedAt = time.Now().UTC()
	r.s.disbursements[d.DisbursementID] = *d
	return nil
}

func (r *payrollRepo) GetDisbursementByPayroll(ctx context.Context, payrollID uuid.UUID) (*model.DisbursementModel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range r.s.disbursements {
		if d.DisbursementPayrollID == payrollID {
			return &d, nil
		}
	}
	return nil, fmt.Errorf("disbursement for payroll %s: %w", payrollID, constants.ErrNotFound)
}

func (r *payrollRepo) LockDisbursement(ctx context.Context, id uuid.UUID) (*model.DisbursementModel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.disbursements[id]
	if !ok {
		return nil, fmt.Errorf("disbursement %s: %w", id, constants.ErrNotFound)
	}
	return &d, nil
}

// SaveDisbursement mengabaikan perubahan amount, sama seperti repository GORM.
func (r *payrollRepo) SaveDisbursement(ctx context.Context, d *model.DisbursementModel) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	old, ok := r.s.disbursements[d.DisbursementID]
	if !ok {
		return fmt.Errorf("disbursement %s: %w", d.DisbursementID, constants.ErrNotFound)
	}
	old.DisbursementGatewayID = d.DisbursementGatewayID
	old.DisbursementStatus = d.DisbursementStatus
	old.DisbursementProcessedAt = d.DisbursementProcessedAt
	old.DisbursementFailureCode = d.DisbursementFailureCode
	old.DisbursementUpdatedAt = time.Now().UTC()
	r.s.disbursements[d.DisbursementID] = old
	return nil
}

func (r *payrollRepo) AddOutboxEvent(ctx context.Context, ev *outboxModel.OutboxEventModel) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.outbox = append(r.s.outbox, *ev)
	return nil
}
