// file: internals/features/finance/callbacks/controller/webhook_controller.go
package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"tahfidzku_backend/internals/constants"
	"tahfidzku_backend/internals/features/finance/callbacks/dto"
	"tahfidzku_backend/internals/features/finance/callbacks/service"
	helper "tahfidzku_backend/internals/helpers"
)

type WebhookController struct {
	Svc *service.IngestService
	Log *zap.Logger
}

func NewWebhookController(svc *service.IngestService, log *zap.Logger) *WebhookController {
	return &WebhookController{Svc: svc, Log: log.Named("webhook-http")}
}

// POST /api/webhooks/midtrans
func (h *WebhookController) Midtrans(c *fiber.Ctx) error {
	return h.ingest(c, service.RawEvent{Source: service.SourceMidtrans, Body: body(c)})
}

// POST /api/webhooks/xendit/disbursements
func (h *WebhookController) XenditDisbursement(c *fiber.Ctx) error {
	return h.ingest(c, service.RawEvent{
		Source:        service.SourceXendit,
		Body:          body(c),
		CallbackToken: c.Get("x-callback-token"),
	})
}

// ingest: semua outcome domain (termasuk duplikat & mismatch) dibalas 200 supaya gateway berhenti retry.
// 401 signature salah, 400 payload rusak, 500 store gagal (gateway akan retry).
func (h *WebhookController) ingest(c *fiber.Ctx, raw service.RawEvent) error {
	res, err := h.Svc.Ingest(c.UserContext(), raw)
	switch {
	case err == nil:
		return c.Status(fiber.StatusOK).JSON(dto.WebhookAck{
			Outcome:     string(res.Outcome),
			CallbackID:  res.CallbackID,
			ReferenceID: res.ReferenceID,
		})
	case errors.Is(err, constants.ErrInvalidSignature):
		return helper.JsonError(c, fiber.StatusUnauthorized, "invalid signature")
	case errors.Is(err, constants.ErrMalformedCallback):
		return helper.JsonError(c, fiber.StatusBadRequest, "malformed callback")
	}
	h.Log.Error("[WEBHOOK] gagal memproses callback", zap.String("source", raw.Source), zap.Error(err))
	return helper.JsonError(c, fiber.StatusInternalServerError, "Terjadi kesalahan pada server")
}

// body: salinan body; buffer fiber dipakai ulang setelah handler selesai.
func body(c *fiber.Ctx) []byte {
	return append([]byte(nil), c.Body()...)
}
