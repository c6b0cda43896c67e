package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"tahfidzku_backend/internals/features/finance/payments/dto"
	"tahfidzku_backend/internals/features/finance/payments/service"
	helper "tahfidzku_backend/internals/helpers"
)

type BillingController struct {
	Svc *service.BillingService
	Log *zap.Logger
}

func NewBillingController(svc *service.BillingService, log *zap.Logger) *BillingController {
	return &BillingController{Svc: svc, Log: log.Named("billing-http")}
}

// POST /billing/registrations
func (h *BillingController) CreateRegistration(c *fiber.Ctx) error {
	var req dto.CreateRegistrationRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	bill, err := h.Svc.CreateRegistration(c.UserContext(), req.ToInput(time.Now().UTC()))
	if err != nil {
		return h.fail(c, "create registration", err)
	}
	return helper.JsonCreated(c, "Tagihan pendaftaran dibuat", bill)
}

// POST /billing/periods
func (h *BillingController) IssuePeriod(c *fiber.Ctx) error {
	var req dto.IssuePeriodRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	bill, err := h.Svc.IssueRecurringPeriod(c.UserContext(), req.ToInput())
	if err != nil {
		return h.fail(c, "issue period", err)
	}
	return helper.JsonCreated(c, "Tagihan SPP dibuat", bill)
}

// POST /billing/periods/run
func (h *BillingController) RunMonthly(c *fiber.Ctx) error {
	var req dto.RunMonthlyRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	res, err := h.Svc.RunMonthly(c.UserContext(), req.Month, req.Year, req.PaymentMethod())
	if err != nil {
		return h.fail(c, "run monthly", err)
	}
	return helper.JsonOK(c, "Tagihan bulanan diproses", res)
}

func (h *BillingController) fail(c *fiber.Ctx, op string, err error) error {
	if helper.StatusForError(err) >= fiber.StatusInternalServerError {
		h.Log.Error("[BILLING] "+op+" gagal", zap.Error(err))
	}
	return helper.FromError(c, err)
}
