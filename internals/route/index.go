// file: internals/route/index.go
package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"tahfidzku_backend/internals/constants"
	"tahfidzku_backend/internals/features/finance"
	middlewares "tahfidzku_backend/internals/middlewares"
	authMiddleware "tahfidzku_backend/internals/middlewares/auth"
	routeDetails "tahfidzku_backend/internals/route/details"
)

var startTime time.Time

func SetupRoutes(app *fiber.App, svc *finance.Services, log *zap.Logger) {
	startTime = time.Now()

	log.Info("[INFO] Setting up BaseRoutes...")
	BaseRoutes(app, svc.DB)

	// ===================== WEBHOOKS (signature / callback token) =====================
	log.Info("[INFO] Setting up WEBHOOK group...")
	webhooks := app.Group("/api/webhooks", middlewares.WebhookRateLimiter())
	routeDetails.FinanceWebhookRoutes(webhooks, svc, log)

	// ===================== ADMIN FINANCE (JWT + role) =====================
	log.Info("[INFO] Setting up ADMIN finance group (Auth + RoleCheck)...")
	admin := app.Group("/api/a/finance",
		authMiddleware.AuthMiddleware(log),
		authMiddleware.OnlyRoles(constants.RoleErrorFinance("keuangan"), constants.FinanceRoles...),
	)
	routeDetails.FinanceAdminRoutes(admin, svc, log)
}
