package route

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"tahfidzku_backend/internals/constants"
	"tahfidzku_backend/internals/features/finance/payments/controller"
	"tahfidzku_backend/internals/features/finance/payments/service"
	authMiddleware "tahfidzku_backend/internals/middlewares/auth"
)

/*
Admin routes (mount di /api/a/finance, sudah lewat AuthMiddleware):
  - GET  /payments, /payments/:id
  - POST /payments/:id/open | confirm-cash | mark-unpaid | cancel
  - POST /billing/registrations, /billing/periods, /billing/periods/run
*/
func PaymentAdminRoutes(r fiber.Router, paySvc *service.PaymentService, billSvc *service.BillingService, audit controller.AuditTrail, log *zap.Logger) {
	pay := controller.NewPaymentController(paySvc, audit, log)
	bill := controller.NewBillingController(billSvc, log)

	g := r.Group("/payments")
	g.Get("/", pay.List)
	g.Get("/:id", pay.Get)
	g.Post("/:id/open", pay.OpenGateway)
	g.Post("/:id/confirm-cash", authMiddleware.OnlyRoles(constants.RoleErrorFinance("konfirmasi tunai"), constants.RoleAdmin, constants.RoleTreasurer), pay.ConfirmCash)
	g.Post("/:id/mark-unpaid", pay.MarkUnpaid)
	g.Post("/:id/cancel", pay.Cancel)

	b := r.Group("/billing")
	b.Post("/registrations", bill.CreateRegistration)
	b.Post("/periods", bill.IssuePeriod)
	b.Post("/periods/run", bill.RunMonthly)
}
