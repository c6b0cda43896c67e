// file: internals/route/details/finance_routes.go
package details

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	enrollRoute "tahfidzku_backend/internals/features/enrollments/student_programs/route"
	"tahfidzku_backend/internals/features/finance"
	callbackRoute "tahfidzku_backend/internals/features/finance/callbacks/route"
	outboxRoute "tahfidzku_backend/internals/features/finance/outbox/route"
	paymentRoute "tahfidzku_backend/internals/features/finance/payments/route"
	payrollRoute "tahfidzku_backend/internals/features/finance/payroll/route"
	voucherRoute "tahfidzku_backend/internals/features/finance/vouchers/route"
)

// FinanceWebhookRoutes: /api/webhooks (tanpa JWT)
func FinanceWebhookRoutes(r fiber.Router, svc *finance.Services, log *zap.Logger) {
	callbackRoute.WebhookRoutes(r, svc.Ingest, log)
}

// FinanceAdminRoutes: /api/a/finance (JWT + role finance)
func FinanceAdminRoutes(r fiber.Router, svc *finance.Services, log *zap.Logger) {
	voucherRoute.VoucherAdminRoutes(r, svc.DB, log)
	paymentRoute.PaymentAdminRoutes(r, svc.Payments, svc.Billing, svc.Ingest, log)
	callbackRoute.CallbackAdminRoutes(r, svc.Ingest, log)
	payrollRoute.PayrollAdminRoutes(r, svc.Payroll, log)
	enrollRoute.StudentProgramAdminRoutes(r, svc.Programs, log)
	outboxRoute.OutboxAdminRoutes(r, svc.Outbox, log)
}
