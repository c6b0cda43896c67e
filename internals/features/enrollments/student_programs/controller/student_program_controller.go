package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"tahfidzku_backend/internals/features/enrollments/student_programs/dto"
	"tahfidzku_backend/internals/features/enrollments/student_programs/repository"
	helper "tahfidzku_backend/internals/helpers"
)

type StudentProgramController struct {
	Repo repository.Repository
	Log  *zap.Logger
}

func NewStudentProgramController(repo repository.Repository, log *zap.Logger) *StudentProgramController {
	return &StudentProgramController{Repo: repo, Log: log.Named("student-program-http")}
}

// POST /student-programs
func (h *StudentProgramController) Create(c *fiber.Ctx) error {
	var req dto.CreateStudentProgramRequest
	if ok, err := helper.BindAndValidate(c, &req); !ok {
		return err
	}
	if err := req.CheckFees(); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "tarif harus rupiah penuh dan tidak negatif")
	}
	m := req.ToModel()
	if err := h.Repo.Create(c.UserContext(), m); err != nil {
		h.Log.Error("[STUDENT_PROGRAM] gagal membuat", zap.Error(err))
		return helper.FromError(c, err)
	}
	return helper.JsonCreated(c, "Program santri dibuat", m)
}

// GET /student-programs/:id
func (h *StudentProgramController) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "id tidak valid")
	}
	m, err := h.Repo.Get(c.UserContext(), id)
	if err != nil {
		return helper.FromError(c, err)
	}
	return helper.JsonOK(c, "ok", m)
}
