package middlewares

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	helper "tahfidzku_backend/internals/helpers"
)

const msgPanic = "Terjadi kesalahan internal pada layanan keuangan"

// RecoveryMiddleware menahan panic handler supaya proses tidak mati di tengah
// transaksi keuangan. Detail panic hanya masuk log, klien dapat 500 generik.
func RecoveryMiddleware(log *zap.Logger) fiber.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("recover")
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			rid, _ := c.Locals("requestid").(string)
			log.Error("[RECOVER] panic di handler",
				zap.String("panic", fmt.Sprint(r)),
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("request_id", rid),
				zap.Stack("stack"),
			)
			err = helper.JsonError(c, fiber.StatusInternalServerError, msgPanic)
		}()
		return c.Next()
	}
}
