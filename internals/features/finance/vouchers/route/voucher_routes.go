package route

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tahfidzku_backend/internals/features/finance/vouchers/controller"
)

// VoucherAdminRoutes: mount di /api/a/finance
func VoucherAdminRoutes(r fiber.Router, db *gorm.DB, log *zap.Logger) {
	ctl := controller.NewVoucherController(db, log)

	g := r.Group("/vouchers")
	g.Get("/", ctl.List)
	g.Post("/", ctl.Create)
	g.Post("/quote", ctl.Quote)
	g.Patch("/:id/deactivate", ctl.Deactivate)
}
