// file: internals/features/finance/payroll/service/payroll_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tahfidzku_backend/internals/constants"
	"tahfidzku_backend/internals/features/finance/money"
	outboxModel "tahfidzku_backend/internals/features/finance/outbox/model"
	"tahfidzku_backend/internals/features/finance/payroll/model"
	"tahfidzku_backend/internals/features/finance/payroll/repository"
	"tahfidzku_backend/internals/metrics"
)

type AttendanceInput struct {
	TeacherID   uuid.UUID
	Date        time.Time
	Status      model.AttendanceStatus
	HoursTaught decimal.Decimal
	Note        string
}

type ProfileInput struct {
	TeacherID         uuid.UUID
	Name              string
	HourlyRate        decimal.Decimal
	Incentive         decimal.Decimal
	BankCode          string
	AccountNumber     string
	AccountHolderName string
}

type PayrollDetail struct {
	Payroll      *model.PayrollRecordModel `json:"payroll"`
	Disbursement *model.DisbursementModel  `json:"disbursement,omitempty"`
}

// DisbursementUpdate: status payout yang sudah dinormalisasi dari callback.
// DisbursementID = external_id yang kita kirim ke gateway.
type DisbursementUpdate struct {
	DisbursementID string
	Status         model.DisbursementStatus
	GatewayID      string
	FailureCode    string
	Amount         decimal.Decimal
	OccurredAt     time.Time
}

type DisbursementResult struct {
	DisbursementID uuid.UUID
	PayrollID      uuid.UUID
	Amount         decimal.Decimal
	Changed        bool
	From           model.DisbursementStatus
	To             model.DisbursementStatus
	PayrollStatus  model.PayrollStatus
}

type PayrollService struct {
	repo   repository.Repository
	payout PayoutGateway
	rates  DeductionRates
	log    *zap.Logger
	now    func() time.Time
}

func NewPayrollService(repo repository.Repository, payout PayoutGateway, rates DeductionRates, log *zap.Logger) *PayrollService {
	return &PayrollService{
		repo:   repo,
		payout: payout,
		rates:  rates,
		log:    log.Named("payroll"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *PayrollService) WithClock(now func() time.Time) *PayrollService {
	s.now = now
	return s
}

/* =========================================================
   Input payroll: profil & absensi
========================================================= */

func (s *PayrollService) UpsertProfile(ctx context.Context, in ProfileInput) (*model.TeacherPayrollProfileModel, error) {
	if in.HourlyRate.IsNegative() || in.Incentive.IsNegative() {
		return nil, fmt.Errorf("profile rates: %w", constants.ErrInvalidAmount)
	}
	p := &model.TeacherPayrollProfileModel{
		TeacherPayrollProfileID:                uuid.New(),
		TeacherPayrollProfileTeacherID:         in.TeacherID,
		TeacherPayrollProfileName:              strings.TrimSpace(in.Name),
		TeacherPayrollProfileHourlyRate:        in.HourlyRate,
		TeacherPayrollProfileIncentive:         in.Incentive,
		TeacherPayrollProfileBankCode:          strings.ToUpper(strings.TrimSpace(in.BankCode)),
		TeacherPayrollProfileAccountNumber:     strings.TrimSpace(in.AccountNumber),
		TeacherPayrollProfileAccountHolderName: strings.TrimSpace(in.AccountHolderName),
	}
	if err := s.repo.UpsertProfile(ctx, p); err != nil {
		return nil, err
	}
	return s.repo.GetProfile(ctx, in.TeacherID)
}

// RecordAttendance: upsert absensi harian. Ditolak kalau payroll bulan itu sudah dikunci.
func (s *PayrollService) RecordAttendance(ctx context.Context, in AttendanceInput) (*model.TeacherAttendanceModel, error) {
	if !in.Status.Valid() {
		return nil, fmt.Errorf("attendance status %q: %w", in.Status, constants.ErrInvalidInput)
	}
	if in.HoursTaught.IsNegative() {
		return nil, fmt.Errorf("hours taught %s: %w", in.HoursTaught, constants.ErrInvalidAmount)
	}
	if in.Status != model.AttendancePresent && !in.HoursTaught.IsZero() {
		return nil, fmt.Errorf("%s day cannot carry teaching hours: %w", in.Status, constants.ErrInvalidInput)
	}
	if in.Date.IsZero() {
		return nil, fmt.Errorf("attendance date: %w", constants.ErrInvalidInput)
	}

	day := truncateDay(in.Date)
	row := &model.TeacherAttendanceModel{
		TeacherAttendanceID:          uuid.New(),
		TeacherAttendanceTeacherID:   in.TeacherID,
		TeacherAttendanceDate:        day,
		TeacherAttendanceStatus:      in.Status,
		TeacherAttendanceHoursTaught: in.HoursTaught,
	}
	if note := strings.TrimSpace(in.Note); note != "" {
		row.TeacherAttendanceNote = &note
	}

	err := s.repo.Transaction(ctx, func(tx repository.Repository) error {
		p, err := tx.LockPayrollByPeriod(ctx, in.TeacherID, int(day.Month()), day.Year())
		switch {
		case errors.Is(err, constants.ErrNotFound):
		case err != nil:
			return err
		case p.PayrollStatus.Locked():
			return fmt.Errorf("payroll %02d/%d is %s: %w", p.PayrollMonth, p.PayrollYear, p.PayrollStatus, constants.ErrAlreadyLocked)
		}
		return tx.UpsertAttendance(ctx, row)
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

/* =========================================================
   calculate & finalize
========================================================= */

// Calculate menghitung (ulang) payroll DRAFT guru untuk satu bulan.
func (s *PayrollService) Calculate(ctx context.Context, teacherID uuid.UUID, month, year int) (*model.PayrollRecordModel, error) {
	if month < 1 || month > 12 || year < 2000 {
		return nil, fmt.Errorf("period %d/%d: %w", month, year, constants.ErrInvalidInput)
	}

	var out *model.PayrollRecordModel
	err := s.repo.Transaction(ctx, func(tx repository.Repository) error {
		profile, err := tx.GetProfile(ctx, teacherID)
		if err != nil {
			return err
		}
		if err := tx.EnsurePayroll(ctx, teacherID, month, year); err != nil {
			return err
		}
		p, err := tx.LockPayrollByPeriod(ctx, teacherID, month, year)
		if err != nil {
			return err
		}
		if p.PayrollStatus.Locked() {
			return fmt.Errorf("payroll %s is %s: %w", p.PayrollID, p.PayrollStatus, constants.ErrAlreadyLocked)
		}

		from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		att, err := tx.ListAttendance(ctx, teacherID, from, from.AddDate(0, 1, 0))
		if err != nil {
			return err
		}
		b, err := Compute(att, profile.TeacherPayrollProfileHourlyRate, profile.TeacherPayrollProfileIncentive, s.rates)
		if err != nil {
			return err
		}

		applyBreakdown(p, b)
		at := s.now()
		p.PayrollComputedAt = &at
		if err := tx.SavePayroll(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("[PAYROLL] dihitung",
		zap.String("payroll_id", out.PayrollID.String()),
		zap.String("teacher_id", teacherID.String()),
		zap.Int("month", month), zap.Int("year", year),
		zap.String("total_salary", out.PayrollTotalSalary.String()))
	return out, nil
}

// Finalize: DRAFT -> PROCESSING + Disbursement(PENDING) dalam satu transaksi,
// lalu minta payout ke gateway di luar lock.
func (s *PayrollService) Finalize(ctx context.Context, payrollID uuid.UUID) (*PayrollDetail, error) {
	var (
		detail  PayrollDetail
		profile *model.TeacherPayrollProfileModel
	)
	err := s.repo.Transaction(ctx, func(tx repository.Repository) error {
		p, err := tx.LockPayroll(ctx, payrollID)
		if err != nil {
			return err
		}
		if p.PayrollStatus.Locked() {
			return fmt.Errorf("payroll %s is %s: %w", p.PayrollID, p.PayrollStatus, constants.ErrAlreadyLocked)
		}
		if p.PayrollComputedAt == nil {
			return fmt.Errorf("payroll %s belum dihitung: %w", p.PayrollID, constants.ErrInvalidTransition)
		}
		if !p.PayrollTotalSalary.IsPositive() {
			return fmt.Errorf("payroll %s: %w", p.PayrollID, constants.ErrNothingToDisburse)
		}
		if !money.IsWholeRupiah(p.PayrollTotalSalary) {
			// tetap DRAFT supaya bisa dihitung ulang
			return fmt.Errorf("payroll %s total %s bukan rupiah penuh: %w", p.PayrollID, p.PayrollTotalSalary, constants.ErrInvalidAmount)
		}
		profile, err = tx.GetProfile(ctx, p.PayrollTeacherID)
		if err != nil {
			return err
		}

		p.PayrollStatus = model.PayrollStatusProcessing
		if err := tx.SavePayroll(ctx, p); err != nil {
			return err
		}
		d := &model.DisbursementModel{
			DisbursementID:        uuid.New(),
			DisbursementPayrollID: p.PayrollID,
			DisbursementAmount:    p.PayrollTotalSalary,
			DisbursementStatus:    model.DisbursementPending,
		}
		if err := tx.CreateDisbursement(ctx, d); err != nil {
			return err
		}
		detail = PayrollDetail{Payroll: p, Disbursement: d}
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.PayrollTransitions.WithLabelValues("payroll", string(model.PayrollStatusProcessing)).Inc()

	if err := s.requestPayout(ctx, &detail, profile); err != nil {
		// disbursement tetap PENDING tanpa gateway id; bisa diulang lewat RequestPayout
		s.log.Warn("[PAYROLL] payout belum terkirim",
			zap.String("payroll_id", payrollID.String()),
			zap.String("disbursement_id", detail.Disbursement.DisbursementID.String()),
			zap.Error(err))
	}
	return &detail, nil
}

// RequestPayout mengulang permintaan payout untuk payroll PROCESSING yang disbursement-nya masih PENDING.
func (s *PayrollService) RequestPayout(ctx context.Context, payrollID uuid.UUID) (*PayrollDetail, error) {
	p, err := s.repo.GetPayroll(ctx, payrollID)
	if err != nil {
		return nil, err
	}
	if p.PayrollStatus != model.PayrollStatusProcessing {
		return nil, fmt.Errorf("payroll %s is %s: %w", p.PayrollID, p.PayrollStatus, constants.ErrInvalidTransition)
	}
	d, err := s.repo.GetDisbursementByPayroll(ctx, payrollID)
	if err != nil {
		return nil, err
	}
	if d.DisbursementStatus.Terminal() {
		return nil, fmt.Errorf("disbursement %s: %w", d.DisbursementID, constants.ErrAlreadyFinalized)
	}
	profile, err := s.repo.GetProfile(ctx, p.PayrollTeacherID)
	if err != nil {
		return nil, err
	}

	detail := PayrollDetail{Payroll: p, Disbursement: d}
	if err := s.requestPayout(ctx, &detail, profile); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (s *PayrollService) requestPayout(ctx context.Context, detail *PayrollDetail, profile *model.TeacherPayrollProfileModel) error {
	d := detail.Disbursement
	res, err := s.payout.RequestDisbursement(ctx, PayoutRequest{
		ExternalID:        d.DisbursementID.String(),
		Amount:            d.DisbursementAmount,
		BankCode:          profile.TeacherPayrollProfileBankCode,
		AccountHolderName: profile.TeacherPayrollProfileAccountHolderName,
		AccountNumber:     profile.TeacherPayrollProfileAccountNumber,
		Description:       fmt.Sprintf("Gaji %02d/%d %s", detail.Payroll.PayrollMonth, detail.Payroll.PayrollYear, profile.TeacherPayrollProfileName),
	})
	if err != nil {
		return err
	}

	return s.repo.Transaction(ctx, func(tx repository.Repository) error {
		locked, err := tx.LockDisbursement(ctx, d.DisbursementID)
		if err != nil {
			return err
		}
		if locked.DisbursementGatewayID == nil {
			locked.DisbursementGatewayID = &res.ID
			if err := tx.SaveDisbursement(ctx, locked); err != nil {
				return err
			}
		}
		detail.Disbursement = locked
		return nil
	})
}

/* =========================================================
   Efek callback payout
========================================================= */

// ApplyDisbursementEvent menerapkan status payout di bawah lock disbursement + payroll.
// Error hasil: ErrUnknownReference, ErrAlreadyFinalized, ErrAmountMismatch, ErrInvalidTransition.
func (s *PayrollService) ApplyDisbursementEvent(ctx context.Context, u DisbursementUpdate) (DisbursementResult, error) {
	var (
		res        DisbursementResult
		outcomeErr error
	)
	id, perr := uuid.Parse(strings.TrimSpace(u.DisbursementID))
	if perr != nil {
		return res, fmt.Errorf("disbursement %q: %w", u.DisbursementID, constants.ErrUnknownReference)
	}
	at := u.OccurredAt
	if at.IsZero() {
		at = s.now()
	}

	err := s.repo.Transaction(ctx, func(tx repository.Repository) error {
		d, err := tx.LockDisbursement(ctx, id)
		if errors.Is(err, constants.ErrNotFound) {
			outcomeErr = fmt.Errorf("disbursement %s: %w", id, constants.ErrUnknownReference)
			return nil
		}
		if err != nil {
			return err
		}
		p, err := tx.LockPayroll(ctx, d.DisbursementPayrollID)
		if err != nil {
			return err
		}

		res.DisbursementID = d.DisbursementID
		res.PayrollID = p.PayrollID
		res.Amount = d.DisbursementAmount
		res.From, res.To = d.DisbursementStatus, d.DisbursementStatus
		res.PayrollStatus = p.PayrollStatus

		next, terr := NextDisbursementStatus(d.DisbursementStatus, u.Status)
		if terr != nil {
			outcomeErr = terr
			return nil
		}
		if u.Amount.IsPositive() && !u.Amount.Equal(d.DisbursementAmount) {
			outcomeErr = fmt.Errorf("disbursement %s: got %s want %s: %w", d.DisbursementID, u.Amount, d.DisbursementAmount, constants.ErrAmountMismatch)
			return nil
		}

		d.DisbursementStatus = next
		d.DisbursementProcessedAt = &at
		if u.GatewayID != "" && d.DisbursementGatewayID == nil {
			gid := u.GatewayID
			d.DisbursementGatewayID = &gid
		}
		if next == model.DisbursementFailed && u.FailureCode != "" {
			code := u.FailureCode
			d.DisbursementFailureCode = &code
		}
		if err := tx.SaveDisbursement(ctx, d); err != nil {
			return err
		}

		p.PayrollStatus = payrollStatusFor(next)
		if err := tx.SavePayroll(ctx, p); err != nil {
			return err
		}

		evType := outboxModel.EventPayrollCompleted
		if next == model.DisbursementFailed {
			evType = outboxModel.EventPayrollFailed
		}
		ev, err := outboxModel.NewEvent(evType, p.PayrollID, outboxModel.PayrollOutcomePayload{
			PayrollID:      p.PayrollID,
			DisbursementID: d.DisbursementID,
			TeacherID:      p.PayrollTeacherID,
			Amount:         d.DisbursementAmount.StringFixed(2),
			FailureCode:    u.FailureCode,
		})
		if err != nil {
			return err
		}
		if err := tx.AddOutboxEvent(ctx, ev); err != nil {
			return err
		}

		res.Changed = true
		res.To = next
		res.PayrollStatus = p.PayrollStatus
		return nil
	})
	if err != nil {
		return res, err
	}

	if res.Changed {
		metrics.PayrollTransitions.WithLabelValues("disbursement", string(res.To)).Inc()
		metrics.PayrollTransitions.WithLabelValues("payroll", string(res.PayrollStatus)).Inc()
		s.log.Info("[PAYROLL] disbursement selesai",
			zap.String("disbursement_id", res.DisbursementID.String()),
			zap.String("payroll_id", res.PayrollID.String()),
			zap.String("status", string(res.To)))
	}
	return res, outcomeErr
}

func (s *PayrollService) Get(ctx context.Context, payrollID uuid.UUID) (*PayrollDetail, error) {
	p, err := s.repo.GetPayroll(ctx, payrollID)
	if err != nil {
		return nil, err
	}
	detail := &PayrollDetail{Payroll: p}
	d, err := s.repo.GetDisbursementByPayroll(ctx, payrollID)
	switch {
	case err == nil:
		detail.Disbursement = d
	case !errors.Is(err, constants.ErrNotFound):
		return nil, err
	}
	return detail, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
