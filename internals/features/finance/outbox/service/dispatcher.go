// file: internals/features/finance/outbox/service/dispatcher.go
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tahfidzku_backend/internals/features/finance/outbox/model"
	"tahfidzku_backend/internals/features/finance/outbox/repository"
	"tahfidzku_backend/internals/metrics"
)

const (
	DefaultMaxAttempts = 10

	retryBaseDelay = 30 * time.Second
	retryMaxDelay  = time.Hour
	maxReasonBytes = 1000
)

// RetryDelay: 30s, 1m, 2m, ... maksimal 1 jam.
func RetryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := retryBaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= retryMaxDelay {
			return retryMaxDelay
		}
	}
	return d
}

// clipReason memotong pesan error tanpa memecah karakter UTF-8.
func clipReason(s string) string {
	if len(s) <= maxReasonBytes {
		return s
	}
	return strings.ToValidUTF8(s[:maxReasonBytes], "")
}

// Handler memproses satu event. Harus idempotent: event bisa terkirim lebih dari sekali
// kalau proses mati setelah handler sukses tapi sebelum commit.
type Handler interface {
	Handle(ctx context.Context, ev model.OutboxEventModel) error
}

type HandlerFunc func(ctx context.Context, ev model.OutboxEventModel) error

func (f HandlerFunc) Handle(ctx context.Context, ev model.OutboxEventModel) error { return f(ctx, ev) }

type DispatchResult struct {
	Fetched    int `json:"fetched"`
	Dispatched int `json:"dispatched"`
	Failed     int `json:"failed"`
}

type Dispatcher struct {
	repo        repository.Repository
	handlers    map[string][]Handler
	maxAttempts int
	log         *zap.Logger
	now         func() time.Time
}

func NewDispatcher(repo repository.Repository, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		repo:        repo,
		handlers:    map[string][]Handler{},
		maxAttempts: DefaultMaxAttempts,
		log:         log.Named("outbox"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

func (d *Dispatcher) WithMaxAttempts(n int) *Dispatcher {
	if n > 0 {
		d.maxAttempts = n
	}
	return d
}

// Subscribe mendaftarkan handler untuk satu tipe event. Event tanpa subscriber langsung ditandai terkirim.
func (d *Dispatcher) Subscribe(eventType string, h Handler) {
	d.handlers[eventType] = append(d.handlers[eventType], h)
}

// DispatchOnce mengambil satu batch lalu menjalankan handler di dalam transaksi yang sama
// (row tetap terkunci selama handler berjalan).
func (d *Dispatcher) DispatchOnce(ctx context.Context, limit int) (DispatchResult, error) {
	var res DispatchResult
	if limit <= 0 {
		limit = 100
	}

	err := d.repo.Transaction(ctx, func(tx repository.Repository) error {
		rows, err := tx.FetchPending(ctx, d.now(), limit, d.maxAttempts)
		if err != nil {
			return err
		}
		res.Fetched = len(rows)

		for _, ev := range rows {
			if herr := d.handle(ctx, ev); herr != nil {
				res.Failed++
				metrics.JobItems.WithLabelValues("outbox", "failed").Inc()
				d.log.Warn("[OUTBOX] handler gagal",
					zap.String("event_id", ev.OutboxEventID.String()),
					zap.String("type", ev.OutboxEventType),
					zap.Int("attempt", ev.OutboxEventAttempts+1),
					zap.Error(herr))
				attempt := ev.OutboxEventAttempts + 1
				if attempt >= d.maxAttempts {
					d.log.Error("[OUTBOX] ❌ event melewati batas retry, perlu requeue manual", zap.String("event_id", ev.OutboxEventID.String()))
				}
				if err := tx.MarkFailed(ctx, ev.OutboxEventID, clipReason(herr.Error()), d.now().Add(RetryDelay(attempt))); err != nil {
					return err
				}
				continue
			}
			if err := tx.MarkDispatched(ctx, ev.OutboxEventID, d.now()); err != nil {
				return err
			}
			res.Dispatched++
			metrics.JobItems.WithLabelValues("outbox", "dispatched").Inc()
		}
		return nil
	})
	if err != nil {
		return DispatchResult{}, err
	}
	if res.Fetched > 0 {
		d.log.Info("[OUTBOX] batch selesai",
			zap.Int("fetched", res.Fetched),
			zap.Int("dispatched", res.Dispatched),
			zap.Int("failed", res.Failed))
	}
	return res, nil
}

func (d *Dispatcher) handle(ctx context.Context, ev model.OutboxEventModel) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s handler: %v", ev.OutboxEventType, r)
		}
	}()
	for _, h := range d.handlers[ev.OutboxEventType] {
		if err := h.Handle(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) Pending(ctx context.Context) (int64, error) {
	return d.repo.CountPending(ctx, d.maxAttempts)
}

// DeadLetters: event yang berhenti di-retry.
func (d *Dispatcher) DeadLetters(ctx context.Context, offset, limit int) ([]model.OutboxEventModel, int64, error) {
	return d.repo.ListDead(ctx, d.maxAttempts, offset, limit)
}

// Requeue menjadwalkan ulang event yang belum terkirim (mis. setelah data diperbaiki).
func (d *Dispatcher) Requeue(ctx context.Context, id uuid.UUID) error {
	if err := d.repo.Requeue(ctx, id); err != nil {
		return err
	}
	d.log.Info("[OUTBOX] event di-requeue", zap.String("event_id", id.String()))
	return nil
}
