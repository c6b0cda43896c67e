package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tahfidzku_backend/internals/configs"
	database "tahfidzku_backend/internals/databases"
	"tahfidzku_backend/internals/features/finance"
	paymentModel "tahfidzku_backend/internals/features/finance/payments/model"
	"tahfidzku_backend/internals/scheduler"
)

func init() {
	rootCmd.AddCommand(migrateCmd, sweepCmd, reconcileCmd, billMonthlyCmd, dispatchOutboxCmd, requeueOutboxCmd)

	now := time.Now()
	billMonthlyCmd.Flags().Int("month", int(now.Month()), "Bulan tagihan (1-12)")
	billMonthlyCmd.Flags().Int("year", now.Year(), "Tahun tagihan")
	billMonthlyCmd.Flags().String("method", string(paymentModel.PaymentMethodVirtualAccount), "Metode bayar default")

	reconcileCmd.Flags().Duration("lookback", 0, "Override RECONCILE_LOOKBACK_HOURS (mis. 168h)")
	rootCmd.PersistentFlags().Duration("timeout", 10*time.Minute, "Batas waktu eksekusi")
}

type env struct {
	log  *zap.Logger
	svc  *finance.Services
	jobs *scheduler.Jobs
}

func setup() *env {
	configs.LoadEnv()
	log := configs.NewLogger()
	database.ConnectDB(log)
	svc := finance.NewServices(database.DB, configs.Finance, log)
	return &env{log: log, svc: svc, jobs: scheduler.NewJobs(svc, configs.Finance, log)}
}

func withTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	d, _ := cmd.Flags().GetDuration("timeout")
	return context.WithTimeout(cmd.Context(), d)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "AutoMigrate semua tabel keuangan + CHECK constraint",
	RunE: func(cmd *cobra.Command, args []string) error {
		configs.LoadEnv()
		log := configs.NewLogger()
		database.ConnectDB(log)
		return database.Migrate(database.DB, log)
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep-expired",
	Short: "Tandai EXPIRED payment yang lewat batas gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		e := setup()
		ctx, cancel := withTimeout(cmd)
		defer cancel()
		n, err := e.svc.Payments.ExpireOverdue(ctx, 5000)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "expired: %d\n", n)
		return nil
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Terapkan ulang callback tersimpan yang target-nya masih terbuka",
	RunE: func(cmd *cobra.Command, args []string) error {
		e := setup()
		ctx, cancel := withTimeout(cmd)
		defer cancel()
		lookback, _ := cmd.Flags().GetDuration("lookback")
		if lookback <= 0 {
			lookback = configs.Finance.ReconcileLookback
		}
		res, err := e.svc.Ingest.Reconcile(ctx, lookback, 5000)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "scanned: %d applied: %d failed: %d\n", res.Scanned, res.Applied, res.Failed)
		return nil
	},
}

var billMonthlyCmd = &cobra.Command{
	Use:   "bill-monthly",
	Short: "Terbitkan tagihan SPP untuk semua program ACTIVE",
	RunE: func(cmd *cobra.Command, args []string) error {
		month, _ := cmd.Flags().GetInt("month")
		year, _ := cmd.Flags().GetInt("year")
		method, _ := cmd.Flags().GetString("method")
		if month < 1 || month > 12 {
			return fmt.Errorf("month harus 1-12, dapat %d", month)
		}
		pm := paymentModel.PaymentMethod(strings.ToUpper(method))
		if !pm.Valid() {
			return fmt.Errorf("method %q tidak dikenal", method)
		}

		e := setup()
		ctx, cancel := withTimeout(cmd)
		defer cancel()
		return e.jobs.BillMonth(ctx, month, year, pm)
	},
}

var dispatchOutboxCmd = &cobra.Command{
	Use:   "dispatch-outbox",
	Short: "Kirim event outbox yang tertunda",
	RunE: func(cmd *cobra.Command, args []string) error {
		e := setup()
		ctx, cancel := withTimeout(cmd)
		defer cancel()
		if err := e.jobs.DispatchOutbox(ctx); err != nil {
			return err
		}
		n, err := e.svc.Outbox.Pending(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "pending tersisa: %d\n", n)
		return nil
	},
}

var requeueOutboxCmd = &cobra.Command{
	Use:   "requeue-outbox <event-id>...",
	Short: "Jadwalkan ulang event outbox yang sudah melewati batas retry",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]uuid.UUID, 0, len(args))
		for _, a := range args {
			id, err := uuid.Parse(strings.TrimSpace(a))
			if err != nil {
				return fmt.Errorf("event id %q tidak valid", a)
			}
			ids = append(ids, id)
		}

		e := setup()
		ctx, cancel := withTimeout(cmd)
		defer cancel()
		for _, id := range ids {
			if err := e.svc.Outbox.Requeue(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "requeued: %s\n", id)
		}
		return nil
	},
}
