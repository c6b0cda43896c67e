// file: internals/features/finance/payroll/controller/payroll_controller.go
package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"tahfidzku_backend/internals/features/finance/payroll/dto"
	"tahfidzku_backend/internals/features/finance/payroll/service"
	helper "tahfidzku_backend/internals/helpers"
)

type PayrollController struct {
	Svc *service.PayrollService
	Log *zap.Logger
}

func NewPayrollController(svc *service.PayrollService, log *zap.Logger) *PayrollController {
	return &PayrollController{Svc: svc, Log: log.Named("payroll-http")}
}

// POST /attendances
func (h *PayrollController) RecordAttendance(c *fiber.Ctx) error {
	var req dto.RecordAttendanceRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	in, err := req.ToInput()
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "format tanggal harus YYYY-MM-DD")
	}
	row, err := h.Svc.RecordAttendance(c.UserContext(), in)
	if err != nil {
		return h.fail(c, "record attendance", err)
	}
	return helper.JsonCreated(c, "Absensi tersimpan", row)
}

// PUT /payroll/profiles/:teacher_id
func (h *PayrollController) UpsertProfile(c *fiber.Ctx) error {
	teacherID, err := uuid.Parse(c.Params("teacher_id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "teacher_id tidak valid")
	}
	var req dto.UpsertProfileRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	p, err := h.Svc.UpsertProfile(c.UserContext(), req.ToInput(teacherID))
	if err != nil {
		return h.fail(c, "upsert profile", err)
	}
	return helper.JsonUpdated(c, "Profil payroll tersimpan", p)
}

// POST /payroll/calculate
func (h *PayrollController) Calculate(c *fiber.Ctx) error {
	var req dto.CalculateRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	rec, err := h.Svc.Calculate(c.UserContext(), req.TeacherID, req.Month, req.Year)
	if err != nil {
		return h.fail(c, "calculate", err)
	}
	return helper.JsonOK(c, "Payroll dihitung", rec)
}

// POST /payroll/:id/finalize
func (h *PayrollController) Finalize(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "payroll id tidak valid")
	}
	detail, err := h.Svc.Finalize(c.UserContext(), id)
	if err != nil {
		return h.fail(c, "finalize", err)
	}
	return helper.JsonOK(c, "Payroll difinalisasi", detail)
}

// POST /payroll/:id/payout
func (h *PayrollController) RequestPayout(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "payroll id tidak valid")
	}
	detail, err := h.Svc.RequestPayout(c.UserContext(), id)
	if err != nil {
		return h.fail(c, "request payout", err)
	}
	return helper.JsonOK(c, "Payout diminta", detail)
}

// GET /payroll/:id
func (h *PayrollController) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "payroll id tidak valid")
	}
	detail, err := h.Svc.Get(c.UserContext(), id)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "ok", detail)
}

func (h *PayrollController) fail(c *fiber.Ctx, op string, err error) error {
	if helper.StatusForError(err) >= fiber.StatusInternalServerError {
		h.Log.Error("[PAYROLL] "+op+" gagal", zap.Error(err))
	}
	return helper.FromError(c, err)
}
