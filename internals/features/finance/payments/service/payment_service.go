// file: internals/features/finance/payments/service/payment_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tahfidzku_backend/internals/constants"
	outboxModel "tahfidzku_backend/internals/features/finance/outbox/model"
	"tahfidzku_backend/internals/features/finance/payments/model"
	"tahfidzku_backend/internals/features/finance/payments/repository"
	"tahfidzku_backend/internals/metrics"
)

// GatewayAction: status gateway yang sudah dinormalisasi dari callback
type GatewayAction string

const (
	GatewayActionPending GatewayAction = "pending"
	GatewayActionPaid    GatewayAction = "paid"
	GatewayActionSettled GatewayAction = "settled"
	GatewayActionExpired GatewayAction = "expired"
	GatewayActionFailed  GatewayAction = "failed"
)

type GatewayUpdate struct {
	ExternalID string
	Action     GatewayAction
	Amount     decimal.Decimal
	OccurredAt time.Time
	Channel    string
}

type ApplyResult struct {
	PaymentID     uuid.UUID
	Amount        decimal.Decimal
	Changed       bool
	From          model.PaymentStatus
	To            model.PaymentStatus
	GatewayStatus model.GatewayStatus
}

type PaymentService struct {
	repo    repository.Repository
	gateway Gateway
	log     *zap.Logger
	now     func() time.Time
}

func NewPaymentService(repo repository.Repository, gateway Gateway, log *zap.Logger) *PaymentService {
	return &PaymentService{
		repo:    repo,
		gateway: gateway,
		log:     log.Named("payments"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock mengganti sumber waktu (dipakai test).
func (s *PaymentService) WithClock(now func() time.Time) *PaymentService {
	s.now = now
	return s
}

func (s *PaymentService) Get(ctx context.Context, id uuid.UUID) (*model.PaymentModel, *model.GatewayPaymentModel, error) {
	p, err := s.repo.GetPayment(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	gw, err := s.repo.GetGatewayByPayment(ctx, id)
	if err != nil {
		if !errors.Is(err, constants.ErrNotFound) {
			return nil, nil, err
		}
		gw = nil
	}
	return p, gw, nil
}

func (s *PaymentService) List(ctx context.Context, f repository.ListFilter) ([]model.PaymentModel, int64, error) {
	return s.repo.ListPayments(ctx, f)
}

/* =========================================================
   open_gateway_instance
   Panggilan ke gateway dilakukan SEBELUM lock; hasilnya ditulis di transaksi pendek.
========================================================= */

func (s *PaymentService) OpenGatewayInstance(ctx context.Context, paymentID uuid.UUID, customer Customer) (*model.GatewayPaymentModel, error) {
	p, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	hasGateway, err := s.hasGateway(ctx, s.repo, paymentID)
	if err != nil {
		return nil, err
	}
	if _, err := NextStatus(snapshotOf(p, hasGateway), Transition{Event: EventOpenGateway}); err != nil {
		return nil, err
	}

	externalID := GenOrderID(orderPrefix(p.PaymentKind))
	opened, err := s.gateway.OpenPayable(ctx, OpenPayableRequest{
		Amount:      p.PaymentAmount,
		ExternalID:  externalID,
		Method:      p.PaymentMethod,
		Customer:    customer,
		Description: describe(p),
	})
	if err != nil {
		s.log.Error("[OPEN-GATEWAY] gateway menolak", zap.String("payment_id", paymentID.String()), zap.Error(err))
		return nil, fmt.Errorf("open payable: %w", err)
	}

	var gw *model.GatewayPaymentModel
	err = s.repo.Transaction(ctx, func(tx repository.Repository) error {
		locked, err := tx.LockPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		has, err := s.hasGateway(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		// status bisa berubah selama call ke gateway; instance yang sudah dibuka dibiarkan expired
		next, err := NextStatus(snapshotOf(locked, has), Transition{Event: EventOpenGateway})
		if err != nil {
			return err
		}

		expiry := opened.ExpiresAt
		gw = &model.GatewayPaymentModel{
			GatewayPaymentID:         uuid.New(),
			GatewayPaymentPaymentID:  paymentID,
			GatewayPaymentInvoiceID:  strPtr(opened.InvoiceID),
			GatewayPaymentExternalID: externalID,
			GatewayPaymentURL:        strPtr(opened.PaymentURL),
			GatewayPaymentChannel:    strPtr(opened.Channel),
			GatewayPaymentExpiry:     &expiry,
			GatewayPaymentStatus:     model.GatewayStatusPending,
		}
		if err := tx.CreateGatewayPayment(ctx, gw); err != nil {
			return err
		}

		from := locked.PaymentStatus
		locked.PaymentStatus = next
		if err := tx.SavePaymentStatus(ctx, locked); err != nil {
			return err
		}
		metrics.PaymentTransitions.WithLabelValues(string(from), string(next)).Inc()
		return nil
	})
	if err != nil {
		s.log.Warn("[OPEN-GATEWAY] instance gateway dibuka tapi tidak tersimpan",
			zap.String("payment_id", paymentID.String()),
			zap.String("external_id", externalID),
			zap.Error(err))
		return nil, err
	}

	s.log.Info("[OPEN-GATEWAY] ✅ menunggu pembayaran",
		zap.String("payment_id", paymentID.String()),
		zap.String("external_id", externalID))
	return gw, nil
}

/* =========================================================
   Efek callback gateway (dipanggil pipeline ingest & sweep)
========================================================= */

// ApplyGatewayUpdate menerapkan update gateway di bawah lock gateway record + payment.
// Error yang mungkin: ErrUnknownReference, ErrAlreadyFinalized, ErrAmountMismatch, ErrInvalidTransition.
// Untuk error-error itu ApplyResult tetap berisi status saat ini.
func (s *PaymentService) ApplyGatewayUpdate(ctx context.Context, u GatewayUpdate) (ApplyResult, error) {
	var (
		res        ApplyResult
		outcomeErr error
	)
	at := u.OccurredAt
	if at.IsZero() {
		at = s.now()
	}

	err := s.repo.Transaction(ctx, func(tx repository.Repository) error {
		gw, err := tx.LockGatewayByExternalID(ctx, u.ExternalID)
		if errors.Is(err, constants.ErrNotFound) {
			outcomeErr = fmt.Errorf("order %s: %w", u.ExternalID, constants.ErrUnknownReference)
			return nil
		}
		if err != nil {
			return err
		}
		p, err := tx.LockPayment(ctx, gw.GatewayPaymentPaymentID)
		if err != nil {
			return err
		}

		res.PaymentID = p.PaymentID
		res.Amount = p.PaymentAmount
		res.From, res.To = p.PaymentStatus, p.PaymentStatus
		res.GatewayStatus = gw.GatewayPaymentStatus

		ev, target, ok := eventForAction(u.Action)
		if !ok {
			return nil
		}

		next, terr := NextStatus(snapshotOf(p, true), Transition{Event: ev, Amount: u.Amount})
		if terr != nil {
			outcomeErr = terr
			// payment sudah PAID tapi gateway baru lapor settlement: majukan gateway record saja
			if errors.Is(terr, constants.ErrAlreadyFinalized) && p.PaymentStatus == model.PaymentStatusPaid {
				if ng, moved := NextGatewayStatus(gw.GatewayPaymentStatus, target); moved {
					gw.GatewayPaymentStatus = ng
					res.GatewayStatus = ng
					return tx.SaveGatewayPayment(ctx, gw)
				}
			}
			return nil
		}

		p.PaymentStatus = next
		if next == model.PaymentStatusPaid {
			p.PaymentPaidAt = &at
		}
		if err := tx.SavePaymentStatus(ctx, p); err != nil {
			return err
		}

		if ng, moved := NextGatewayStatus(gw.GatewayPaymentStatus, target); moved {
			gw.GatewayPaymentStatus = ng
			if target == model.GatewayStatusPaid || target == model.GatewayStatusSettled {
				gw.GatewayPaymentPaidAt = &at
			}
			if u.Channel != "" {
				gw.GatewayPaymentChannel = strPtr(u.Channel)
			}
			if err := tx.SaveGatewayPayment(ctx, gw); err != nil {
				return err
			}
		}

		if next == model.PaymentStatusPaid {
			if err := settlePayment(ctx, tx, p, at); err != nil {
				return err
			}
		}

		res.Changed = true
		res.To = next
		res.GatewayStatus = gw.GatewayPaymentStatus
		return nil
	})
	if err != nil {
		return res, err
	}

	if res.Changed {
		metrics.PaymentTransitions.WithLabelValues(string(res.From), string(res.To)).Inc()
		s.log.Info("[PAYMENT] status berubah",
			zap.String("payment_id", res.PaymentID.String()),
			zap.String("from", string(res.From)),
			zap.String("to", string(res.To)),
			zap.String("gateway_status", string(res.GatewayStatus)))
	}
	return res, outcomeErr
}

func eventForAction(a GatewayAction) (PaymentEvent, model.GatewayStatus, bool) {
	switch a {
	case GatewayActionPaid:
		return EventMarkPaid, model.GatewayStatusPaid, true
	case GatewayActionSettled:
		return EventMarkPaid, model.GatewayStatusSettled, true
	case GatewayActionExpired:
		return EventMarkExpired, model.GatewayStatusExpired, true
	case GatewayActionFailed:
		return EventCancel, model.GatewayStatusFailed, true
	default:
		return "", "", false
	}
}

/* =========================================================
   Alur tunai & admin
========================================================= */

// ConfirmCash: konfirmasi manual pembayaran tunai oleh bendahara/admin.
func (s *PaymentService) ConfirmCash(ctx context.Context, paymentID uuid.UUID, amount decimal.Decimal, paidAt *time.Time) (*model.PaymentModel, error) {
	at := s.now()
	if paidAt != nil && !paidAt.IsZero() {
		at = paidAt.UTC()
	}
	return s.transition(ctx, paymentID, Transition{Event: EventMarkPaid, Amount: amount}, func(p *model.PaymentModel) error {
		if !p.PaymentMethod.IsCash() {
			return fmt.Errorf("confirm-cash on %s payment: %w", p.PaymentMethod, constants.ErrInvalidTransition)
		}
		return nil
	}, at)
}

func (s *PaymentService) MarkUnpaid(ctx context.Context, paymentID uuid.UUID) (*model.PaymentModel, error) {
	return s.transition(ctx, paymentID, Transition{Event: EventMarkUnpaid}, nil, s.now())
}

func (s *PaymentService) Cancel(ctx context.Context, paymentID uuid.UUID) (*model.PaymentModel, error) {
	return s.transition(ctx, paymentID, Transition{Event: EventCancel}, nil, s.now())
}

func (s *PaymentService) transition(ctx context.Context, paymentID uuid.UUID, t Transition, guard func(*model.PaymentModel) error, at time.Time) (*model.PaymentModel, error) {
	var out *model.PaymentModel
	var from model.PaymentStatus
	err := s.repo.Transaction(ctx, func(tx repository.Repository) error {
		p, err := tx.LockPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		from = p.PaymentStatus
		if guard != nil {
			if err := guard(p); err != nil {
				return err
			}
		}
		has, err := s.hasGateway(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		next, err := NextStatus(snapshotOf(p, has), t)
		if err != nil {
			return err
		}

		p.PaymentStatus = next
		if next == model.PaymentStatusPaid {
			p.PaymentPaidAt = &at
		}
		if err := tx.SavePaymentStatus(ctx, p); err != nil {
			return err
		}
		if next == model.PaymentStatusPaid {
			if err := settlePayment(ctx, tx, p, at); err != nil {
				return err
			}
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.PaymentTransitions.WithLabelValues(string(from), string(out.PaymentStatus)).Inc()
	s.log.Info("[PAYMENT] transisi manual",
		zap.String("payment_id", paymentID.String()),
		zap.String("event", string(t.Event)),
		zap.String("to", string(out.PaymentStatus)))
	return out, nil
}

/* =========================================================
   Sweep expired (cron)
========================================================= */

// ExpiryGrace: jeda setelah expiry gateway sebelum sweep boleh meng-EXPIRE.
// Pembayaran yang disetujui di detik terakhir masih perlu waktu sampai callback-nya tiba.
const ExpiryGrace = 5 * time.Minute

// ExpireOverdue menandai EXPIRED payment yang instance gateway-nya lewat expiry + ExpiryGrace.
// Tidak memanggil gateway; pakai jalur yang sama dengan callback expire.
func (s *PaymentService) ExpireOverdue(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 200
	}
	now := s.now()
	overdue, err := s.repo.ListOverdueGateways(ctx, now.Add(-ExpiryGrace), limit)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, gw := range overdue {
		res, err := s.ApplyGatewayUpdate(ctx, GatewayUpdate{
			ExternalID: gw.GatewayPaymentExternalID,
			Action:     GatewayActionExpired,
			OccurredAt: now,
		})
		switch {
		case err == nil && res.Changed:
			expired++
		case err == nil,
			errors.Is(err, constants.ErrAlreadyFinalized),
			errors.Is(err, constants.ErrInvalidTransition):
			// keduluan callback lain
		default:
			s.log.Error("[EXPIRY-SWEEP] gagal expire", zap.String("external_id", gw.GatewayPaymentExternalID), zap.Error(err))
		}
	}
	return expired, nil
}

/* =========================================================
   helpers
========================================================= */

func (s *PaymentService) hasGateway(ctx context.Context, repo repository.Repository, paymentID uuid.UUID) (bool, error) {
	_, err := repo.GetGatewayByPayment(ctx, paymentID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, constants.ErrNotFound) {
		return false, nil
	}
	return false, err
}

// settlePayment: tandai pemilik lunas + tulis event domain di transaksi yang sama.
func settlePayment(ctx context.Context, tx repository.Repository, p *model.PaymentModel, at time.Time) error {
	if err := tx.MarkOwnerSettled(ctx, p, at); err != nil {
		return err
	}

	ev, err := outboxModel.NewEvent(outboxModel.EventPaymentSettled, p.PaymentID, outboxModel.PaymentSettledPayload{
		PaymentID:   p.PaymentID,
		Kind:        string(p.PaymentKind),
		ReferenceID: p.ReferenceID(),
		Amount:      p.PaymentAmount.StringFixed(2),
		PaidAt:      at,
	})
	if err != nil {
		return err
	}
	if err := tx.AddOutboxEvent(ctx, ev); err != nil {
		return err
	}

	if p.PaymentKind != model.PaymentKindRegistration {
		return nil
	}
	reg, err := tx.GetRegistrationPayment(ctx, p.ReferenceID())
	if err != nil {
		return err
	}
	act, err := outboxModel.NewEvent(outboxModel.EventEnrollmentActivationRequested, reg.RegistrationPaymentStudentProgramID, outboxModel.EnrollmentActivationPayload{
		StudentProgramID:      reg.RegistrationPaymentStudentProgramID,
		RegistrationPaymentID: reg.RegistrationPaymentID,
		PaymentID:             p.PaymentID,
	})
	if err != nil {
		return err
	}
	return tx.AddOutboxEvent(ctx, act)
}

func snapshotOf(p *model.PaymentModel, hasGateway bool) PaymentSnapshot {
	return PaymentSnapshot{
		Status:           p.PaymentStatus,
		Method:           p.PaymentMethod,
		Amount:           p.PaymentAmount,
		HasGatewayRecord: hasGateway,
	}
}

func describe(p *model.PaymentModel) string {
	if p.PaymentKind == model.PaymentKindRegistration {
		return "Biaya Pendaftaran Tahfidz"
	}
	return "SPP Tahfidz"
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
