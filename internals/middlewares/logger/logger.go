package logger

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

// LoggerMiddleware untuk mencatat semua request (format console)
func LoggerMiddleware() fiber.Handler {
	return logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Asia/Jakarta",
		Format:     "[${time}] ${ip} - ${locals:requestid} - ${method} ${path} - ${status} - ${latency}\n",
	})
}

// ZapAccessLog: access log terstruktur, dipakai saat production (JSON)
func ZapAccessLog(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.IP()),
		}
		if rid, ok := c.Locals("requestid").(string); ok {
			fields = append(fields, zap.String("request_id", rid))
		}
		if status >= 500 {
			log.Error("[HTTP]", fields...)
		} else {
			log.Info("[HTTP]", fields...)
		}
		return err
	}
}
