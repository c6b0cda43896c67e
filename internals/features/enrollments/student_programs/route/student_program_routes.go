package route

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"tahfidzku_backend/internals/features/enrollments/student_programs/controller"
	"tahfidzku_backend/internals/features/enrollments/student_programs/repository"
)

// StudentProgramAdminRoutes: mount di /api/a/finance
func StudentProgramAdminRoutes(r fiber.Router, repo repository.Repository, log *zap.Logger) {
	ctl := controller.NewStudentProgramController(repo, log)
	g := r.Group("/student-programs")
	g.Post("/", ctl.Create)
	g.Get("/:id", ctl.Get)
}
