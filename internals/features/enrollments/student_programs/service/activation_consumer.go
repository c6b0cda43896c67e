// file: internals/features/enrollments/student_programs/service/activation_consumer.go
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"tahfidzku_backend/internals/constants"
	"tahfidzku_backend/internals/features/enrollments/student_programs/model"
	"tahfidzku_backend/internals/features/enrollments/student_programs/repository"
	outboxModel "tahfidzku_backend/internals/features/finance/outbox/model"
)

// ActivationConsumer menangani enrollment.activation_requested: StudentProgram PENDING → ACTIVE.
type ActivationConsumer struct {
	repo repository.Repository
	log  *zap.Logger
	now  func() time.Time
}

func NewActivationConsumer(repo repository.Repository, log *zap.Logger) *ActivationConsumer {
	return &ActivationConsumer{repo: repo, log: log.Named("enrollment"), now: func() time.Time { return time.Now().UTC() }}
}

func (c *ActivationConsumer) WithClock(now func() time.Time) *ActivationConsumer {
	c.now = now
	return c
}

func (c *ActivationConsumer) Handle(ctx context.Context, ev outboxModel.OutboxEventModel) error {
	var p outboxModel.EnrollmentActivationPayload
	if err := sonic.Unmarshal(ev.OutboxEventPayload, &p); err != nil {
		return fmt.Errorf("decode activation payload: %w", err)
	}
	if p.StudentProgramID == uuid.Nil {
		return fmt.Errorf("activation payload without student_program_id: %w", constants.ErrInvalidInput)
	}

	changed, err := c.repo.Activate(ctx, p.StudentProgramID, c.now())
	if err != nil {
		return err
	}
	if changed {
		c.log.Info("[ENROLLMENT] ✅ program diaktifkan",
			zap.String("student_program_id", p.StudentProgramID.String()),
			zap.String("payment_id", p.PaymentID.String()))
		return nil
	}

	sp, err := c.repo.Get(ctx, p.StudentProgramID)
	if err != nil {
		return err
	}
	if sp.StudentProgramStatus == model.StudentProgramInactive {
		c.log.Warn("[ENROLLMENT] pendaftaran lunas tapi program INACTIVE, butuh tindakan admin",
			zap.String("student_program_id", p.StudentProgramID.String()))
	}
	return nil
}
