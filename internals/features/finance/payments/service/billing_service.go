package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tahfidzku_backend/internals/constants"
	enrollModel "tahfidzku_backend/internals/features/enrollments/student_programs/model"
	"tahfidzku_backend/internals/features/finance/money"
	"tahfidzku_backend/internals/features/finance/payments/model"
	"tahfidzku_backend/internals/features/finance/payments/repository"
	voucherModel "tahfidzku_backend/internals/features/finance/vouchers/model"
	voucherService "tahfidzku_backend/internals/features/finance/vouchers/service"
	"tahfidzku_backend/internals/metrics"
)

const defaultDueDay = 10

type RegistrationInput struct {
	StudentProgramID uuid.UUID
	VoucherCode      string
	Method           model.PaymentMethod
	RegistrationDate time.Time
}

type PeriodInput struct {
	StudentProgramID uuid.UUID
	Month            int
	Year             int
	VoucherCode      string
	Method           model.PaymentMethod
	DueDay           int
}

type RegistrationBill struct {
	Registration *model.RegistrationPaymentModel `json:"registration"`
	Payment      *model.PaymentModel             `json:"payment"`
}

type PeriodBill struct {
	Period  *model.RecurringPeriodModel `json:"period"`
	Payment *model.PaymentModel         `json:"payment"`
}

type MonthlyRunResult struct {
	Month   int `json:"month"`
	Year    int `json:"year"`
	Issued  int `json:"issued"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// BillingService membuat tagihan (pendaftaran & SPP) + Payment(PENDING).
// Pemakaian voucher di-increment di transaksi yang sama.
type BillingService struct {
	repo repository.Repository
	log  *zap.Logger
	now  func() time.Time
}

func NewBillingService(repo repository.Repository, log *zap.Logger) *BillingService {
	return &BillingService{
		repo: repo,
		log:  log.Named("billing"),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *BillingService) WithClock(now func() time.Time) *BillingService {
	s.now = now
	return s
}

func (s *BillingService) CreateRegistration(ctx context.Context, in RegistrationInput) (*RegistrationBill, error) {
	if !in.Method.Valid() {
		return nil, fmt.Errorf("method %q: %w", in.Method, constants.ErrInvalidInput)
	}
	regDate := in.RegistrationDate
	if regDate.IsZero() {
		regDate = s.now()
	}

	var bill RegistrationBill
	err := s.repo.Transaction(ctx, func(tx repository.Repository) error {
		sp, err := tx.GetStudentProgram(ctx, in.StudentProgramID)
		if err != nil {
			return err
		}
		v, err := s.lookupVoucher(ctx, tx, in.VoucherCode)
		if err != nil {
			return err
		}
		discount, net, err := voucherService.ComputeNet(sp.StudentProgramRegistrationFee, v)
		if err != nil {
			return err
		}
		if !money.IsWholeRupiah(net) {
			return fmt.Errorf("net payable %s bukan rupiah penuh: %w", net, constants.ErrInvalidAmount)
		}

		reg := &model.RegistrationPaymentModel{
			RegistrationPaymentID:               uuid.New(),
			RegistrationPaymentStudentProgramID: sp.StudentProgramID,
			RegistrationPaymentDate:             truncateDay(regDate),
			RegistrationPaymentBaseFee:          sp.StudentProgramRegistrationFee,
			RegistrationPaymentDiscount:         discount,
			RegistrationPaymentNetPayable:       net,
		}
		if v != nil {
			reg.RegistrationPaymentVoucherID = &v.VoucherID
		}
		if err := tx.CreateRegistrationPayment(ctx, reg); err != nil {
			return err
		}
		if v != nil {
			if err := tx.ConsumeVoucher(ctx, v.VoucherID); err != nil {
				return err
			}
		}

		pay, err := model.NewRegistrationPayment(reg, in.Method)
		if err != nil {
			return err
		}
		if err := tx.CreatePayment(ctx, pay); err != nil {
			return err
		}
		if err := s.settleIfFree(ctx, tx, pay); err != nil {
			return err
		}

		bill = RegistrationBill{Registration: reg, Payment: pay}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("[BILLING] tagihan pendaftaran dibuat",
		zap.String("student_program_id", in.StudentProgramID.String()),
		zap.String("payment_id", bill.Payment.PaymentID.String()),
		zap.String("net_payable", bill.Registration.RegistrationPaymentNetPayable.String()))
	return &bill, nil
}

func (s *BillingService) IssueRecurringPeriod(ctx context.Context, in PeriodInput) (*PeriodBill, error) {
	if in.Month < 1 || in.Month > 12 || in.Year < 2000 {
		return nil, fmt.Errorf("period %d/%d: %w", in.Month, in.Year, constants.ErrInvalidInput)
	}
	if !in.Method.Valid() {
		return nil, fmt.Errorf("method %q: %w", in.Method, constants.ErrInvalidInput)
	}
	dueDay := in.DueDay
	if dueDay <= 0 || dueDay > 28 {
		dueDay = defaultDueDay
	}

	var bill PeriodBill
	err := s.repo.Transaction(ctx, func(tx repository.Repository) error {
		sp, err := tx.GetStudentProgram(ctx, in.StudentProgramID)
		if err != nil {
			return err
		}
		if sp.StudentProgramStatus != enrollModel.StudentProgramActive {
			return fmt.Errorf("student program %s is %s: %w", sp.StudentProgramID, sp.StudentProgramStatus, constants.ErrInvalidTransition)
		}
		v, err := s.lookupVoucher(ctx, tx, in.VoucherCode)
		if err != nil {
			return err
		}
		discount, net, err := voucherService.ComputeNet(sp.StudentProgramMonthlyFee, v)
		if err != nil {
			return err
		}
		if !money.IsWholeRupiah(net) {
			return fmt.Errorf("net payable %s bukan rupiah penuh: %w", net, constants.ErrInvalidAmount)
		}

		period := &model.RecurringPeriodModel{
			RecurringPeriodID:               uuid.New(),
			RecurringPeriodStudentProgramID: sp.StudentProgramID,
			RecurringPeriodMonth:            in.Month,
			RecurringPeriodYear:             in.Year,
			RecurringPeriodIssueDate:        truncateDay(s.now()),
			RecurringPeriodDueDate:          time.Date(in.Year, time.Month(in.Month), dueDay, 0, 0, 0, 0, time.UTC),
			RecurringPeriodBaseFee:          sp.StudentProgramMonthlyFee,
			RecurringPeriodDiscount:         discount,
			RecurringPeriodNetPayable:       net,
		}
		if v != nil {
			period.RecurringPeriodVoucherID = &v.VoucherID
		}
		if err := tx.CreateRecurringPeriod(ctx, period); err != nil {
			return err
		}
		if v != nil {
			if err := tx.ConsumeVoucher(ctx, v.VoucherID); err != nil {
				return err
			}
		}

		pay, err := model.NewTuitionPayment(period, in.Method)
		if err != nil {
			return err
		}
		if err := tx.CreatePayment(ctx, pay); err != nil {
			return err
		}
		if err := s.settleIfFree(ctx, tx, pay); err != nil {
			return err
		}

		bill = PeriodBill{Period: period, Payment: pay}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

// RunMonthly menerbitkan periode SPP untuk semua program ACTIVE.
// Aman diulang: periode yang sudah ada dihitung sebagai skipped.
func (s *BillingService) RunMonthly(ctx context.Context, month, year int, method model.PaymentMethod) (MonthlyRunResult, error) {
	res := MonthlyRunResult{Month: month, Year: year}
	programs, err := s.repo.ListActiveStudentPrograms(ctx)
	if err != nil {
		return res, err
	}

	for _, sp := range programs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		_, err := s.IssueRecurringPeriod(ctx, PeriodInput{
			StudentProgramID: sp.StudentProgramID,
			Month:            month,
			Year:             year,
			Method:           method,
		})
		switch {
		case err == nil:
			res.Issued++
			metrics.JobItems.WithLabelValues("monthly_billing", "issued").Inc()
		case errors.Is(err, constants.ErrPeriodExists):
			res.Skipped++
			metrics.JobItems.WithLabelValues("monthly_billing", "skipped").Inc()
		default:
			res.Failed++
			metrics.JobItems.WithLabelValues("monthly_billing", "failed").Inc()
			s.log.Error("[BILLING] gagal terbitkan SPP",
				zap.String("student_program_id", sp.StudentProgramID.String()),
				zap.Error(err))
		}
	}

	s.log.Info("[BILLING] ✅ run bulanan selesai",
		zap.Int("month", month), zap.Int("year", year),
		zap.Int("issued", res.Issued), zap.Int("skipped", res.Skipped), zap.Int("failed", res.Failed))
	return res, nil
}

func (s *BillingService) lookupVoucher(ctx context.Context, tx repository.Repository, code string) (*voucherModel.VoucherModel, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, nil
	}
	return tx.FindVoucherByCode(ctx, code)
}

// settleIfFree: tagihan yang habis didiskon langsung PAID (tidak ada yang perlu dibayar).
func (s *BillingService) settleIfFree(ctx context.Context, tx repository.Repository, p *model.PaymentModel) error {
	if !p.PaymentAmount.IsZero() {
		return nil
	}
	next, err := NextStatus(snapshotOf(p, false), Transition{Event: EventMarkPaid, Amount: p.PaymentAmount})
	if err != nil {
		return err
	}
	at := s.now()
	p.PaymentStatus = next
	p.PaymentPaidAt = &at
	if err := tx.SavePaymentStatus(ctx, p); err != nil {
		return err
	}
	return settlePayment(ctx, tx, p, at)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
