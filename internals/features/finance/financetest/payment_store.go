// Package financetest menyediakan store in-memory untuk test service keuangan.
// Transaksi diserialisasi dengan satu mutex (meniru row lock) dan di-rollback saat fn error.
package financetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tahfidzku_backend/internals/constants"
	enrollModel "tahfidzku_backend/internals/features/enrollments/student_programs/model"
	outboxModel "tahfidzku_backend/internals/features/finance/outbox/model"
	"tahfidzku_backend/internals/features/finance/payments/model"
	"tahfidzku_backend/internals/features/finance/payments/repository"
	voucherModel "tahfidzku_backend/internals/features/finance/vouchers/model"
)

type PaymentStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	payments      map[uuid.UUID]model.PaymentModel
	gateways      map[uuid.UUID]model.GatewayPaymentModel
	registrations map[uuid.UUID]model.RegistrationPaymentModel
	periods       map[uuid.UUID]model.RecurringPeriodModel
	vouchers      map[uuid.UUID]voucherModel.VoucherModel
	programs      map[uuid.UUID]enrollModel.StudentProgramModel
	outbox        []outboxModel.OutboxEventModel

	// FailOn memaksa method tertentu error (simulasi store down)
	FailOn map[string]error
}

func NewPaymentStore() *PaymentStore {
	return &PaymentStore{
		payments:      map[uuid.UUID]model.PaymentModel{},
		gateways:      map[uuid.UUID]model.GatewayPaymentModel{},
		registrations: map[uuid.UUID]model.RegistrationPaymentModel{},
		periods:       map[uuid.UUID]model.RecurringPeriodModel{},
		vouchers:      map[uuid.UUID]voucherModel.VoucherModel{},
		programs:      map[uuid.UUID]enrollModel.StudentProgramModel{},
		FailOn:        map[string]error{},
	}
}

func (s *PaymentStore) Repo() repository.Repository {
	return &paymentRepo{s: s}
}

/* ===================== seeding & inspection ===================== */

func (s *PaymentStore) AddProgram(sp enrollModel.StudentProgramModel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.programs[sp.StudentProgramID] = sp
}

func (s *PaymentStore) AddVoucher(v voucherModel.VoucherModel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vouchers[v.VoucherID] = v
}

func (s *PaymentStore) AddPayment(p model.PaymentModel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[p.PaymentID] = p
}

func (s *PaymentStore) AddGateway(g model.GatewayPaymentModel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gateways[g.GatewayPaymentID] = g
}

func (s *PaymentStore) AddRegistration(r model.RegistrationPaymentModel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registrations[r.RegistrationPaymentID] = r
}

func (s *PaymentStore) AddPeriod(p model.RecurringPeriodModel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.periods[p.RecurringPeriodID] = p
}

func (s *PaymentStore) Payment(id uuid.UUID) model.PaymentModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payments[id]
}

func (s *PaymentStore) Payments() []model.PaymentModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.PaymentModel, 0, len(s.payments))
	for _, p := range s.payments {
		out = append(out, p)
	}
	return out
}

func (s *PaymentStore) Voucher(id uuid.UUID) voucherModel.VoucherModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vouchers[id]
}

func (s *PaymentStore) Registration(id uuid.UUID) model.RegistrationPaymentModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registrations[id]
}

func (s *PaymentStore) Period(id uuid.UUID) model.RecurringPeriodModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.periods[id]
}

func (s *PaymentStore) GatewayFor(paymentID uuid.UUID) (model.GatewayPaymentModel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.gateways {
		if g.GatewayPaymentPaymentID == paymentID {
			return g, true
		}
	}
	return model.GatewayPaymentModel{}, false
}

func (s *PaymentStore) Outbox() []outboxModel.OutboxEventModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]outboxModel.OutboxEventModel(nil), s.outbox...)
}

func (s *PaymentStore) OutboxOfType(eventType string) []outboxModel.OutboxEventModel {
	var out []outboxModel.OutboxEventModel
	for _, ev := range s.Outbox() {
		if ev.OutboxEventType == eventType {
			out = append(out, ev)
		}
	}
	return out
}

/* ===================== snapshot / rollback ===================== */

type paymentSnapshot struct {
	payments      map[uuid.UUID]model.PaymentModel
	gateways      map[uuid.UUID]model.GatewayPaymentModel
	registrations map[uuid.UUID]model.RegistrationPaymentModel
	periods       map[uuid.UUID]model.RecurringPeriodModel
	vouchers      map[uuid.UUID]voucherModel.VoucherModel
	outbox        []outboxModel.OutboxEventModel
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (s *PaymentStore) snapshot() paymentSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return paymentSnapshot{
		payments:      copyMap(s.payments),
		gateways:      copyMap(s.gateways),
		registrations: copyMap(s.registrations),
		periods:       copyMap(s.periods),
		vouchers:      copyMap(s.vouchers),
		outbox:        append([]outboxModel.OutboxEventModel(nil), s.outbox...),
	}
}

func (s *PaymentStore) restore(snap paymentSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments = snap.payments
	s.gateways = snap.gateways
	s.registrations = snap.registrations
	s.periods = snap.periods
	s.vouchers = snap.vouchers
	s.outbox = snap.outbox
}

/* ===================== repository.Repository ===================== */

type paymentRepo struct {
	s    *PaymentStore
	inTx bool
}

func (r *paymentRepo) fail(op string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.FailOn[op]
}

func (r *paymentRepo) Transaction(ctx context.Context, fn func(tx repository.Repository) error) error {
	if r.inTx {
		return fn(r)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.txMu.Lock()
	defer r.s.txMu.Unlock()

	snap := r.s.snapshot()
	if err := fn(&paymentRepo{s: r.s, inTx: true}); err != nil {
		r.s.restore(snap)
		return err
	}
	return nil
}

func (r *paymentRepo) CreatePayment(ctx context.Context, p *model.PaymentModel) error {
	if err := r.fail("CreatePayment"); err != nil {
		return err
	}
	if err := p.ValidateReference(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.PaymentID == uuid.Nil {
		p.PaymentID = uuid.New()
	}
	now := time.Now().UTC()
	p.PaymentCreatedAt, p.PaymentUpdatedAt = now, now
	r.s.payments[p.PaymentID] = *p
	return nil
}

func (r *paymentRepo) GetPayment(ctx context.Context, id uuid.UUID) (*model.PaymentModel, error) {
	if err := r.fail("GetPayment"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[id]
	if !ok {
		return nil, fmt.Errorf("payment %s: %w", id, constants.ErrNotFound)
	}
	return &p, nil
}

func (r *paymentRepo) LockPayment(ctx context.Context, id uuid.UUID) (*model.PaymentModel, error) {
	return r.GetPayment(ctx, id)
}

func (r *paymentRepo) SavePaymentStatus(ctx context.Context, p *model.PaymentModel) error {
	if err := r.fail("SavePaymentStatus"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.payments[p.PaymentID]
	if !ok {
		return fmt.Errorf("payment %s: %w", p.PaymentID, constants.ErrNotFound)
	}
	cur.PaymentStatus = p.PaymentStatus
	cur.PaymentPaidAt = p.PaymentPaidAt
	cur.PaymentUpdatedAt = time.Now().UTC()
	r.s.payments[p.PaymentID] = cur
	return nil
}

func (r *paymentRepo) ListPayments(ctx context.Context, f repository.ListFilter) ([]model.PaymentModel, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var rows []model.PaymentModel
	for _, p := range r.s.payments {
		if f.Status != "" && string(p.PaymentStatus) != f.Status {
			continue
		}
		if f.Kind != "" && string(p.PaymentKind) != f.Kind {
			continue
		}
		if f.Method != "" && string(p.PaymentMethod) != f.Method {
			continue
		}
		rows = append(rows, p)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].PaymentCreatedAt.After(rows[j].PaymentCreatedAt) })
	total := int64(len(rows))
	if f.Offset >= len(rows) {
		return nil, total, nil
	}
	rows = rows[f.Offset:]
	if f.Limit > 0 && len(rows) > f.Limit {
		rows = rows[:f.Limit]
	}
	return rows, total, nil
}

func (r *paymentRepo) CreateGatewayPayment(ctx context.Context, g *model.GatewayPaymentModel) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.gateways {
		if existing.GatewayPaymentPaymentID == g.GatewayPaymentPaymentID {
			return fmt.Errorf("gateway record for payment %s already exists: %w", g.GatewayPaymentPaymentID, constants.ErrInvalidTransition)
		}
		if existing.GatewayPaymentExternalID == g.GatewayPaymentExternalID {
			return gorm.ErrDuplicatedKey
		}
	}
	if g.GatewayPaymentID == uuid.Nil {
		g.GatewayPaymentID = uuid.New()
	}
	r.s.gateways[g.GatewayPaymentID] = *g
	return nil
}

func (r *paymentRepo) GetGatewayByPayment(ctx context.Context, paymentID uuid.UUID) (*model.GatewayPaymentModel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, g := range r.s.gateways {
		if g.GatewayPaymentPaymentID == paymentID {
			return &g, nil
		}
	}
	return nil, fmt.Errorf("gateway payment for %s: %w", paymentID, constants.ErrNotFound)
}

func (r *paymentRepo) LockGatewayByExternalID(ctx context.Context, externalID string) (*model.GatewayPaymentModel, error) {
	if err := r.fail("LockGatewayByExternalID"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, g := range r.s.gateways {
		if g.GatewayPaymentExternalID == externalID {
			return &g, nil
		}
	}
	return nil, fmt.Errorf("gateway payment %s: %w", externalID, constants.ErrNotFound)
}

func (r *paymentRepo) SaveGatewayPayment(ctx context.Context, g *model.GatewayPaymentModel) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.gateways[g.GatewayPaymentID]
	if !ok {
		return fmt.Errorf("gateway payment %s: %w", g.GatewayPaymentID, constants.ErrNotFound)
	}
	cur.GatewayPaymentStatus = g.GatewayPaymentStatus
	cur.GatewayPaymentPaidAt = g.GatewayPaymentPaidAt
	cur.GatewayPaymentChannel = g.GatewayPaymentChannel
	r.s.gateways[g.GatewayPaymentID] = cur
	return nil
}

func (r *paymentRepo) ListOverdueGateways(ctx context.Context, cutoff time.Time, limit int) ([]model.GatewayPaymentModel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var rows []model.GatewayPaymentModel
	for _, g := range r.s.gateways {
		if g.GatewayPaymentStatus != model.GatewayStatusPending || g.GatewayPaymentExpiry == nil || !g.GatewayPaymentExpiry.Before(cutoff) {
			continue
		}
		if p, ok := r.s.payments[g.GatewayPaymentPaymentID]; !ok || p.PaymentStatus != model.PaymentStatusAwaitingPayment {
			continue
		}
		rows = append(rows, g)
		if limit > 0 && len(rows) >= limit {
			break
		}
	}
	return rows, nil
}

func (r *paymentRepo) CreateRegistrationPayment(ctx context.Context, reg *model.RegistrationPaymentModel) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if reg.RegistrationPaymentID == uuid.Nil {
		reg.RegistrationPaymentID = uuid.New()
	}
	r.s.registrations[reg.RegistrationPaymentID] = *reg
	return nil
}

func (r *paymentRepo) CreateRecurringPeriod(ctx context.Context, p *model.RecurringPeriodModel) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.periods {
		if existing.RecurringPeriodStudentProgramID == p.RecurringPeriodStudentProgramID &&
			existing.RecurringPeriodMonth == p.RecurringPeriodMonth &&
			existing.RecurringPeriodYear == p.RecurringPeriodYear {
			return fmt.Errorf("period %02d/%d: %w", p.RecurringPeriodMonth, p.RecurringPeriodYear, constants.ErrPeriodExists)
		}
	}
	if p.RecurringPeriodID == uuid.Nil {
		p.RecurringPeriodID = uuid.New()
	}
	r.s.periods[p.RecurringPeriodID] = *p
	return nil
}

func (r *paymentRepo) GetRegistrationPayment(ctx context.Context, id uuid.UUID) (*model.RegistrationPaymentModel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	reg, ok := r.s.registrations[id]
	if !ok {
		return nil, fmt.Errorf("registration payment %s: %w", id, constants.ErrNotFound)
	}
	return &reg, nil
}

func (r *paymentRepo) GetRecurringPeriod(ctx context.Context, id uuid.UUID) (*model.RecurringPeriodModel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.periods[id]
	if !ok {
		return nil, fmt.Errorf("recurring period %s: %w", id, constants.ErrNotFound)
	}
	return &p, nil
}

func (r *paymentRepo) MarkOwnerSettled(ctx context.Context, p *model.PaymentModel, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	switch p.PaymentKind {
	case model.PaymentKindRegistration:
		reg, ok := r.s.registrations[p.ReferenceID()]
		if ok && reg.RegistrationPaymentSettledAt == nil {
			reg.RegistrationPaymentSettledAt = &at
			r.s.registrations[reg.RegistrationPaymentID] = reg
		}
	case model.PaymentKindTuition:
		per, ok := r.s.periods[p.ReferenceID()]
		if ok && per.RecurringPeriodSettledAt == nil {
			per.RecurringPeriodSettledAt = &at
			r.s.periods[per.RecurringPeriodID] = per
		}
	default:
		return model.ErrBadReference
	}
	return nil
}

func (r *paymentRepo) FindVoucherByCode(ctx context.Context, code string) (*voucherModel.VoucherModel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, v := range r.s.vouchers {
		if v.VoucherCode == code {
			return &v, nil
		}
	}
	return nil, fmt.Errorf("voucher %s: %w", code, constants.ErrVoucherNotFound)
}

func (r *paymentRepo) ConsumeVoucher(ctx context.Context, voucherID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.vouchers[voucherID]
	if !ok || !v.VoucherActive {
		return fmt.Errorf("voucher %s: %w", voucherID, constants.ErrVoucherInactive)
	}
	v.VoucherUsesConsumed++
	r.s.vouchers[voucherID] = v
	return nil
}

func (r *paymentRepo) GetStudentProgram(ctx context.Context, id uuid.UUID) (*enrollModel.StudentProgramModel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sp, ok := r.s.programs[id]
	if !ok {
		return nil, fmt.Errorf("student program %s: %w", id, constants.ErrNotFound)
	}
	return &sp, nil
}

func (r *paymentRepo) ListActiveStudentPrograms(ctx context.Context) ([]enrollModel.StudentProgramModel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var rows []enrollModel.StudentProgramModel
	for _, sp := range r.s.programs {
		if sp.StudentProgramStatus == enrollModel.StudentProgramActive {
			rows = append(rows, sp)
		}
	}
	return rows, nil
}

func (r *paymentRepo) AddOutboxEvent(ctx context.Context, ev *outboxModel.OutboxEventModel) error {
	if err := r.fail("AddOutboxEvent"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ev.OutboxEventCreatedAt = time.Now().UTC()
	r.s.outbox = append(r.s.outbox, *ev)
	return nil
}
