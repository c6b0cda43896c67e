package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"tahfidzku_backend/internals/configs"
	database "tahfidzku_backend/internals/databases"
	"tahfidzku_backend/internals/features/finance"
	middlewares "tahfidzku_backend/internals/middlewares"
	httpLogger "tahfidzku_backend/internals/middlewares/logger"
	routes "tahfidzku_backend/internals/route"
	"tahfidzku_backend/internals/scheduler"
)

func main() {
	configs.LoadEnv()
	logger := configs.NewLogger()
	defer func() { _ = logger.Sync() }()

	app := fiber.New(fiber.Config{
		// 🚀 JSON super cepat
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"}, // sesuaikan dengan CIDR Cloudflare jika perlu
		BodyLimit:               1 * 1024 * 1024,
	})

	// ⚙️ middleware dasar + performa
	app.Use(middlewares.RecoveryMiddleware(logger))
	app.Use(requestid.New())
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault})) // gzip
	app.Use(etag.New())                                                  // 304 caching
	app.Use(middlewares.CorsMiddleware())
	app.Use(middlewares.GlobalRateLimiter())
	if os.Getenv("APP_ENV") == "development" {
		app.Use(httpLogger.LoggerMiddleware())
	} else {
		app.Use(httpLogger.ZapAccessLog(logger))
	}

	// HTTP timeout guard (selaras dengan statement_timeout di DB)
	app.Use(func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), 10*time.Second)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	})

	// 🔌 DB connect + pool + warm-up
	database.ConnectDB(logger)
	database.TunePool()
	database.WarmUpQueries()
	if configs.GetEnvBool("AUTO_MIGRATE", false) {
		if err := database.Migrate(database.DB, logger); err != nil {
			logger.Fatal("migrate gagal", zap.Error(err))
		}
	}

	svc := finance.NewServices(database.DB, configs.Finance, logger)

	// ⏱ scheduler setelah DB siap
	jobs := scheduler.NewJobs(svc, configs.Finance, logger)
	cr, err := scheduler.Start(jobs, configs.Finance, logger)
	if err != nil {
		logger.Fatal("scheduler gagal start", zap.Error(err))
	}

	// ✅ Routes
	routes.SetupRoutes(app, svc, logger)

	// 🔒 Keep-Alive & timeout koneksi server
	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	port := configs.GetEnv("PORT", "3000")

	// Start server non-blocking
	go func() {
		logger.Info("✅ Listening", zap.String("port", port))
		if err := app.Listen("0.0.0.0:" + port); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// graceful shutdown: stop cron (tunggu job berjalan) + tutup pool DB
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)

	select {
	case <-cr.Stop().Done():
	case <-ctx.Done():
		logger.Warn("job masih berjalan saat shutdown")
	}

	if sqlDB, err := database.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
