package route

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"tahfidzku_backend/internals/constants"
	"tahfidzku_backend/internals/features/finance/outbox/controller"
	"tahfidzku_backend/internals/features/finance/outbox/service"
	authMiddleware "tahfidzku_backend/internals/middlewares/auth"
)

// OutboxAdminRoutes: dead letter & requeue. Mount di /api/a/finance
func OutboxAdminRoutes(r fiber.Router, d *service.Dispatcher, log *zap.Logger) {
	ctl := controller.NewOutboxController(d, log)
	g := r.Group("/outbox", authMiddleware.OnlyRoles(constants.RoleErrorFinance("kelola outbox"), constants.RoleAdmin))
	g.Get("/dead", ctl.ListDead)
	g.Post("/:id/requeue", ctl.Requeue)
}
