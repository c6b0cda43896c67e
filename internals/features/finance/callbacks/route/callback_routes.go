package route

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"tahfidzku_backend/internals/features/finance/callbacks/controller"
	"tahfidzku_backend/internals/features/finance/callbacks/service"
)

// WebhookRoutes: tanpa JWT, autentikasi lewat signature / callback token. Mount di /api/webhooks
func WebhookRoutes(r fiber.Router, svc *service.IngestService, log *zap.Logger) {
	ctl := controller.NewWebhookController(svc, log)
	r.Post("/midtrans", ctl.Midtrans)
	r.Post("/xendit/disbursements", ctl.XenditDisbursement)
}

// CallbackAdminRoutes: audit trail & antrian review. Mount di /api/a/finance
func CallbackAdminRoutes(r fiber.Router, svc *service.IngestService, log *zap.Logger) {
	ctl := controller.NewReviewController(svc, log)
	r.Get("/callbacks", ctl.ListCallbacks)
	r.Get("/reviews", ctl.ListReviews)
	r.Patch("/reviews/:id/resolve", ctl.Resolve)
}
