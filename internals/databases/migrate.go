package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	enrollModel "tahfidzku_backend/internals/features/enrollments/student_programs/model"
	callbackModel "tahfidzku_backend/internals/features/finance/callbacks/model"
	outboxModel "tahfidzku_backend/internals/features/finance/outbox/model"
	paymentModel "tahfidzku_backend/internals/features/finance/payments/model"
	payrollModel "tahfidzku_backend/internals/features/finance/payroll/model"
	voucherModel "tahfidzku_backend/internals/features/finance/vouchers/model"
)

// constraintDDL: aturan yang tidak bisa diekspresikan lewat tag GORM.
// Idempotent (DROP ... IF EXISTS lalu ADD) supaya migrate aman diulang.
var constraintDDL = []struct {
	table, name, check string
}{
	// Payment merujuk tepat satu pemilik sesuai kind
	{"payments", "ck_payment_reference", `(payment_kind = 'REGISTRATION' AND payment_registration_payment_id IS NOT NULL AND payment_recurring_period_id IS NULL)
		OR (payment_kind = 'TUITION' AND payment_recurring_period_id IS NOT NULL AND payment_registration_payment_id IS NULL)`},
	{"payments", "ck_payment_amount", "payment_amount >= 0"},
	{"registration_payments", "ck_registration_amounts", "registration_payment_discount >= 0 AND registration_payment_net_payable >= 0 AND registration_payment_discount <= registration_payment_base_fee"},
	{"recurring_periods", "ck_recurring_amounts", "recurring_period_discount >= 0 AND recurring_period_net_payable >= 0 AND recurring_period_discount <= recurring_period_base_fee"},
	{"recurring_periods", "ck_recurring_month", "recurring_period_month BETWEEN 1 AND 12"},
	{"vouchers", "ck_voucher_value", "voucher_value >= 0 AND (voucher_kind <> 'PERCENTAGE' OR voucher_value <= 100)"},
	// IDR tanpa sen
	{"vouchers", "ck_voucher_fixed_whole", "voucher_kind <> 'FIXED' OR voucher_value = trunc(voucher_value)"},
	{"student_programs", "ck_student_program_fees", "student_program_registration_fee >= 0 AND student_program_monthly_fee >= 0 AND student_program_registration_fee = trunc(student_program_registration_fee) AND student_program_monthly_fee = trunc(student_program_monthly_fee)"},
	{"payroll_records", "ck_payroll_total", "payroll_total_salary >= 0"},
	{"payroll_records", "ck_payroll_month", "payroll_month BETWEEN 1 AND 12"},
	{"disbursements", "ck_disbursement_amount", "disbursement_amount > 0 AND disbursement_amount = trunc(disbursement_amount)"},
	{"teacher_attendances", "ck_attendance_hours", "teacher_attendance_hours_taught >= 0"},
}

var extraDDL = []string{
	// sweep expiry & reconcile hanya melihat payment yang masih terbuka
	`CREATE INDEX IF NOT EXISTS idx_payments_open ON payments (payment_status) WHERE payment_status IN ('PENDING', 'AWAITING_PAYMENT')`,
	`CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox_events (outbox_event_created_at) WHERE outbox_event_dispatched_at IS NULL`,
}

func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("[MIGRATE] AutoMigrate mulai")
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("pgcrypto: %w", err)
	}

	if err := db.AutoMigrate(
		&enrollModel.StudentProgramModel{},
		&voucherModel.VoucherModel{},
		&paymentModel.RegistrationPaymentModel{},
		&paymentModel.RecurringPeriodModel{},
		&paymentModel.PaymentModel{},
		&paymentModel.GatewayPaymentModel{},
		&payrollModel.TeacherPayrollProfileModel{},
		&payrollModel.TeacherAttendanceModel{},
		&payrollModel.PayrollRecordModel{},
		&payrollModel.DisbursementModel{},
		&callbackModel.GatewayCallbackModel{},
		&callbackModel.ReconciliationReviewModel{},
		&outboxModel.OutboxEventModel{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for _, c := range constraintDDL {
			if err := tx.Exec(fmt.Sprintf(`ALTER TABLE %s DROP CONSTRAINT IF EXISTS %s`, c.table, c.name)).Error; err != nil {
				return fmt.Errorf("drop %s: %w", c.name, err)
			}
			if err := tx.Exec(fmt.Sprintf(`ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s)`, c.table, c.name, c.check)).Error; err != nil {
				return fmt.Errorf("add %s: %w", c.name, err)
			}
		}
		for _, ddl := range extraDDL {
			if err := tx.Exec(ddl).Error; err != nil {
				return err
			}
		}
		log.Info("[MIGRATE] ✅ selesai", zap.Int("constraints", len(constraintDDL)))
		return nil
	})
}
