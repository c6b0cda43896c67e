// file: internals/features/finance/payments/controller/payment_controller.go
package controller

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	callbackDTO "tahfidzku_backend/internals/features/finance/callbacks/dto"
	callbackModel "tahfidzku_backend/internals/features/finance/callbacks/model"
	"tahfidzku_backend/internals/features/finance/payments/dto"
	"tahfidzku_backend/internals/features/finance/payments/repository"
	"tahfidzku_backend/internals/features/finance/payments/service"
	helper "tahfidzku_backend/internals/helpers"
)

// AuditTrail: sumber riwayat callback per external id (diisi IngestService)
type AuditTrail interface {
	AuditTrail(ctx context.Context, referenceID string) ([]callbackModel.GatewayCallbackModel, error)
}

type PaymentController struct {
	Svc   *service.PaymentService
	Audit AuditTrail
	Log   *zap.Logger
}

func NewPaymentController(svc *service.PaymentService, audit AuditTrail, log *zap.Logger) *PaymentController {
	return &PaymentController{Svc: svc, Audit: audit, Log: log.Named("payments-http")}
}

// GET /payments?status=&kind=&method=&page=&per_page=
func (h *PaymentController) List(c *fiber.Ctx) error {
	p := helper.ResolvePaging(c, 20, 200)
	rows, total, err := h.Svc.List(c.UserContext(), repository.ListFilter{
		Status: strings.ToUpper(strings.TrimSpace(c.Query("status"))),
		Kind:   strings.ToUpper(strings.TrimSpace(c.Query("kind"))),
		Method: strings.ToUpper(strings.TrimSpace(c.Query("method"))),
		Offset: p.Offset,
		Limit:  p.Limit,
	})
	if err != nil {
		return h.fail(c, "list", err)
	}
	return helper.JsonList(c, "ok", rows, helper.BuildPagination(total, p, len(rows)))
}

// GET /payments/:id → payment + gateway record + riwayat callback
func (h *PaymentController) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "payment id tidak valid")
	}
	p, gw, err := h.Svc.Get(c.UserContext(), id)
	if err != nil {
		return helper.FromError(c, err)
	}

	resp := dto.PaymentDetailResponse{Payment: p, Gateway: gw, Callbacks: []callbackDTO.CallbackResponse{}}
	if gw != nil && h.Audit != nil {
		rows, err := h.Audit.AuditTrail(c.UserContext(), gw.GatewayPaymentExternalID)
		if err != nil {
			return h.fail(c, "audit trail", err)
		}
		resp.Callbacks = callbackDTO.FromCallbacks(rows)
	}
	return helper.JsonOK(c, "ok", resp)
}

// POST /payments/:id/open
func (h *PaymentController) OpenGateway(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "payment id tidak valid")
	}
	var req dto.OpenGatewayRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	gw, err := h.Svc.OpenGatewayInstance(c.UserContext(), id, req.ToCustomer())
	if err != nil {
		return h.fail(c, "open gateway", err)
	}
	return helper.JsonCreated(c, "Instance pembayaran dibuat", gw)
}

// POST /payments/:id/confirm-cash
func (h *PaymentController) ConfirmCash(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "payment id tidak valid")
	}
	var req dto.ConfirmCashRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	if !req.Amount.IsPositive() {
		return helper.JsonError(c, fiber.StatusBadRequest, "amount harus lebih dari 0")
	}
	p, err := h.Svc.ConfirmCash(c.UserContext(), id, req.Amount, req.PaidAt)
	if err != nil {
		return h.fail(c, "confirm cash", err)
	}
	return helper.JsonUpdated(c, "Pembayaran tunai dikonfirmasi", p)
}

// POST /payments/:id/mark-unpaid
func (h *PaymentController) MarkUnpaid(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "payment id tidak valid")
	}
	p, err := h.Svc.MarkUnpaid(c.UserContext(), id)
	if err != nil {
		return h.fail(c, "mark unpaid", err)
	}
	return helper.JsonUpdated(c, "Pembayaran ditandai belum dibayar", p)
}

// POST /payments/:id/cancel
func (h *PaymentController) Cancel(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "payment id tidak valid")
	}
	p, err := h.Svc.Cancel(c.UserContext(), id)
	if err != nil {
		return h.fail(c, "cancel", err)
	}
	return helper.JsonUpdated(c, "Pembayaran dibatalkan", p)
}

func (h *PaymentController) fail(c *fiber.Ctx, op string, err error) error {
	if helper.StatusForError(err) >= fiber.StatusInternalServerError {
		h.Log.Error("[PAYMENT] "+op+" gagal", zap.Error(err))
	}
	return helper.FromError(c, err)
}
