package route

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"tahfidzku_backend/internals/features/finance/payroll/controller"
	"tahfidzku_backend/internals/features/finance/payroll/service"
)

// PayrollAdminRoutes: mount di /api/a/finance
func PayrollAdminRoutes(r fiber.Router, svc *service.PayrollService, log *zap.Logger) {
	ctl := controller.NewPayrollController(svc, log)

	r.Post("/attendances", ctl.RecordAttendance)

	g := r.Group("/payroll")
	g.Put("/profiles/:teacher_id", ctl.UpsertProfile)
	g.Post("/calculate", ctl.Calculate)
	g.Get("/:id", ctl.Get)
	g.Post("/:id/finalize", ctl.Finalize)
	g.Post("/:id/payout", ctl.RequestPayout)
}
