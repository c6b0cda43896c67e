// file: internals/scheduler/finance_jobs.go
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"tahfidzku_backend/internals/configs"
	"tahfidzku_backend/internals/features/finance"
	paymentModel "tahfidzku_backend/internals/features/finance/payments/model"
	"tahfidzku_backend/internals/metrics"
)

const (
	JobExpirySweep    = "expiry_sweep"
	JobReconcile      = "reconcile"
	JobMonthlyBilling = "monthly_billing"
	JobOutbox         = "outbox_dispatch"
)

// Jobs: satu fungsi per pekerjaan terjadwal, dipanggil cron maupun CLI ops.
type Jobs struct {
	svc *finance.Services
	cfg configs.FinanceConfig
	log *zap.Logger
	now func() time.Time
}

func NewJobs(svc *finance.Services, cfg configs.FinanceConfig, log *zap.Logger) *Jobs {
	return &Jobs{svc: svc, cfg: cfg, log: log.Named("jobs"), now: time.Now}
}

func (j *Jobs) SweepExpired(ctx context.Context) error {
	n, err := j.svc.Payments.ExpireOverdue(ctx, 500)
	if err != nil {
		return err
	}
	if n > 0 {
		j.log.Info("[EXPIRY-SWEEP] payment kadaluarsa", zap.Int("expired", n))
	}
	return nil
}

func (j *Jobs) Reconcile(ctx context.Context) error {
	_, err := j.svc.Ingest.Reconcile(ctx, j.cfg.ReconcileLookback, 500)
	return err
}

// BillMonth menerbitkan tagihan SPP untuk semua program ACTIVE.
func (j *Jobs) BillMonth(ctx context.Context, month, year int, method paymentModel.PaymentMethod) error {
	res, err := j.svc.Billing.RunMonthly(ctx, month, year, method)
	if err != nil {
		return err
	}
	j.log.Info("[MONTHLY-BILLING] selesai",
		zap.Int("month", res.Month), zap.Int("year", res.Year),
		zap.Int("issued", res.Issued), zap.Int("skipped", res.Skipped), zap.Int("failed", res.Failed))
	return nil
}

// BillCurrentMonth: dipakai cron tanggal 1, bulan mengikuti WIB.
func (j *Jobs) BillCurrentMonth(ctx context.Context) error {
	now := j.now().In(time.FixedZone("WIB", 7*60*60))
	return j.BillMonth(ctx, int(now.Month()), now.Year(), paymentModel.PaymentMethodVirtualAccount)
}

// DispatchOutbox mengosongkan antrian outbox per batch sampai habis atau ctx selesai.
func (j *Jobs) DispatchOutbox(ctx context.Context) error {
	for {
		res, err := j.svc.Outbox.DispatchOnce(ctx, 100)
		if err != nil {
			return err
		}
		if res.Fetched < 100 || res.Dispatched == 0 {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// Run membungkus job dengan timeout, metrics, dan log.
func (j *Jobs) Run(name string, timeout time.Duration, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	if err != nil {
		metrics.JobRuns.WithLabelValues(name, "error").Inc()
		j.log.Error("[JOB] gagal", zap.String("job", name), zap.Duration("took", time.Since(start)), zap.Error(err))
		return
	}
	metrics.JobRuns.WithLabelValues(name, "ok").Inc()
	j.log.Debug("[JOB] selesai", zap.String("job", name), zap.Duration("took", time.Since(start)))
}

// Start mendaftarkan semua job ke cron (SkipIfStillRunning) dan menjalankannya.
// Panggil Stop() pada hasilnya saat shutdown.
func Start(jobs *Jobs, cfg configs.FinanceConfig, log *zap.Logger) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(
		cron.Recover(cron.DefaultLogger),
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))

	entries := []struct {
		name     string
		schedule string
		timeout  time.Duration
		fn       func(context.Context) error
	}{
		{JobExpirySweep, cfg.CronExpirySweep, 2 * time.Minute, jobs.SweepExpired},
		{JobReconcile, cfg.CronReconcile, 5 * time.Minute, jobs.Reconcile},
		{JobMonthlyBilling, cfg.CronMonthlyBilling, 30 * time.Minute, jobs.BillCurrentMonth},
		{JobOutbox, cfg.CronOutbox, 50 * time.Second, jobs.DispatchOutbox},
	}
	for _, e := range entries {
		e := e
		if e.schedule == "" || e.schedule == "-" {
			log.Info("[SCHEDULER] job dimatikan", zap.String("job", e.name))
			continue
		}
		if _, err := c.AddFunc(e.schedule, func() { jobs.Run(e.name, e.timeout, e.fn) }); err != nil {
			return nil, err
		}
		log.Info("[SCHEDULER] job terdaftar", zap.String("job", e.name), zap.String("schedule", e.schedule))
	}
	c.Start()
	return c, nil
}
