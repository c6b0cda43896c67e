// file: internals/features/finance/services.go
// Package finance merakit repository, gateway client, dan service keuangan dari satu *gorm.DB.
// Dipakai bersama oleh server HTTP, scheduler, dan CLI ops.
package finance

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tahfidzku_backend/internals/configs"
	enrollRepo "tahfidzku_backend/internals/features/enrollments/student_programs/repository"
	enrollService "tahfidzku_backend/internals/features/enrollments/student_programs/service"
	callbackRepo "tahfidzku_backend/internals/features/finance/callbacks/repository"
	callbackService "tahfidzku_backend/internals/features/finance/callbacks/service"
	outboxModel "tahfidzku_backend/internals/features/finance/outbox/model"
	outboxRepo "tahfidzku_backend/internals/features/finance/outbox/repository"
	outboxService "tahfidzku_backend/internals/features/finance/outbox/service"
	paymentRepo "tahfidzku_backend/internals/features/finance/payments/repository"
	paymentService "tahfidzku_backend/internals/features/finance/payments/service"
	payrollRepo "tahfidzku_backend/internals/features/finance/payroll/repository"
	payrollService "tahfidzku_backend/internals/features/finance/payroll/service"
)

type Services struct {
	DB *gorm.DB

	Payments   *paymentService.PaymentService
	Billing    *paymentService.BillingService
	Payroll    *payrollService.PayrollService
	Ingest     *callbackService.IngestService
	Outbox     *outboxService.Dispatcher
	Programs   enrollRepo.Repository
	Activation *enrollService.ActivationConsumer
}

func NewServices(db *gorm.DB, cfg configs.FinanceConfig, log *zap.Logger) *Services {
	payRepo := paymentRepo.NewGormRepository(db)
	gateway := paymentService.NewMidtransGateway(cfg.MidtransServerKey, cfg.MidtransUseProd, cfg.MidtransExpiryMinutes)
	payments := paymentService.NewPaymentService(payRepo, gateway, log)

	payout := payrollService.NewXenditPayoutClient(cfg.XenditBaseURL, cfg.XenditSecretKey, 20*time.Second)
	payroll := payrollService.NewPayrollService(payrollRepo.NewGormRepository(db), payout, payrollService.DeductionRates{
		LeavePerDay:   cfg.LeaveDeductionPerDay,
		SickPerDay:    cfg.SickDeductionPerDay,
		AbsencePerDay: cfg.AbsenceDeductionPerDay,
	}, log)

	ingest := callbackService.NewIngestService(callbackRepo.NewGormRepository(db), payments, payroll, callbackService.Secrets{
		MidtransServerKey:   cfg.MidtransServerKey,
		XenditCallbackToken: cfg.XenditCallbackToken,
	}, log)

	programs := enrollRepo.NewGormRepository(db)
	activation := enrollService.NewActivationConsumer(programs, log)

	dispatcher := outboxService.NewDispatcher(outboxRepo.NewGormRepository(db), log)
	dispatcher.Subscribe(outboxModel.EventEnrollmentActivationRequested, activation)

	return &Services{
		DB:         db,
		Payments:   payments,
		Billing:    paymentService.NewBillingService(payRepo, log),
		Payroll:    payroll,
		Ingest:     ingest,
		Outbox:     dispatcher,
		Programs:   programs,
		Activation: activation,
	}
}
