package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"tahfidzku_backend/internals/features/finance/callbacks/dto"
	"tahfidzku_backend/internals/features/finance/callbacks/repository"
	"tahfidzku_backend/internals/features/finance/callbacks/service"
	helper "tahfidzku_backend/internals/helpers"
)

type ReviewController struct {
	Svc *service.IngestService
	Log *zap.Logger
}

func NewReviewController(svc *service.IngestService, log *zap.Logger) *ReviewController {
	return &ReviewController{Svc: svc, Log: log.Named("review-http")}
}

// GET /callbacks?reference_id=
func (h *ReviewController) ListCallbacks(c *fiber.Ctx) error {
	ref := strings.TrimSpace(c.Query("reference_id"))
	if ref == "" {
		return helper.JsonError(c, fiber.StatusBadRequest, "reference_id wajib diisi")
	}
	rows, err := h.Svc.AuditTrail(c.UserContext(), ref)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromCallbacks(rows))
}

// GET /reviews?open=true&page=&per_page=
func (h *ReviewController) ListReviews(c *fiber.Ctx) error {
	p := helper.ResolvePaging(c, 20, 100)
	rows, total, err := h.Svc.Reviews(c.UserContext(), repository.ReviewFilter{
		OpenOnly: c.QueryBool("open", true),
		Offset:   p.Offset,
		Limit:    p.Limit,
	})
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonList(c, "ok", rows, helper.BuildPagination(total, p, len(rows)))
}

// PATCH /reviews/:id/resolve
func (h *ReviewController) Resolve(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "review id tidak valid")
	}
	var req dto.ResolveReviewRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	var by *uuid.UUID
	if uid, err := helper.ActorID(c); err == nil {
		by = &uid
	}
	rv, err := h.Svc.ResolveReview(c.UserContext(), id, strings.TrimSpace(req.Note), by)
	if err != nil {
		return helper.FromError(c, err)
	}
	h.Log.Info("[REVIEW] diselesaikan", zap.String("review_id", id.String()))
	return helper.JsonUpdated(c, "Review diselesaikan", rv)
}
