package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"tahfidzku_backend/internals/features/finance/outbox/service"
	helper "tahfidzku_backend/internals/helpers"
)

type OutboxController struct {
	Dispatcher *service.Dispatcher
	Log        *zap.Logger
}

func NewOutboxController(d *service.Dispatcher, log *zap.Logger) *OutboxController {
	return &OutboxController{Dispatcher: d, Log: log.Named("outbox-http")}
}

// GET /outbox/dead?page=&per_page=
func (h *OutboxController) ListDead(c *fiber.Ctx) error {
	p := helper.ResolvePaging(c, 20, 100)
	rows, total, err := h.Dispatcher.DeadLetters(c.UserContext(), p.Offset, p.Limit)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonList(c, "ok", rows, helper.BuildPagination(total, p, len(rows)))
}

// POST /outbox/:id/requeue
func (h *OutboxController) Requeue(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "event id tidak valid")
	}
	actor, err := helper.ActorID(c)
	if err != nil {
		return helper.FromError(c, err)
	}
	if err := h.Dispatcher.Requeue(c.UserContext(), id); err != nil {
		return helper.FromError(c, err)
	}
	h.Log.Info("[OUTBOX] requeue manual",
		zap.String("event_id", id.String()),
		zap.String("actor_id", actor.String()),
		zap.String("actor_name", helper.ActorName(c)),
	)
	return helper.JsonUpdated(c, "Event dijadwalkan ulang", fiber.Map{"outbox_event_id": id})
}
