package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tahfidzku_backend/internals/constants"
	"tahfidzku_backend/internals/features/enrollments/student_programs/model"
	outboxModel "tahfidzku_backend/internals/features/finance/outbox/model"
)

type memPrograms struct {
	mu   sync.Mutex
	rows map[uuid.UUID]model.StudentProgramModel
}

func (m *memPrograms) Create(_ context.Context, sp *model.StudentProgramModel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[sp.StudentProgramID] = *sp
	return nil
}

func (m *memPrograms) Get(_ context.Context, id uuid.UUID) (*model.StudentProgramModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sp, ok := m.rows[id]
	if !ok {
		return nil, fmt.Errorf("student program %s: %w", id, constants.ErrNotFound)
	}
	return &sp, nil
}

func (m *memPrograms) Activate(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sp, ok := m.rows[id]
	if !ok || sp.StudentProgramStatus != model.StudentProgramPending {
		return false, nil
	}
	sp.StudentProgramStatus = model.StudentProgramActive
	sp.StudentProgramActivatedAt = &at
	m.rows[id] = sp
	return true, nil
}

var activatedAt = time.Date(2025, 7, 15, 9, 0, 0, 0, time.UTC)

func activationEvent(t *testing.T, spID uuid.UUID) outboxModel.OutboxEventModel {
	t.Helper()
	ev, err := outboxModel.NewEvent(outboxModel.EventEnrollmentActivationRequested, spID, outboxModel.EnrollmentActivationPayload{
		StudentProgramID:      spID,
		RegistrationPaymentID: uuid.New(),
		PaymentID:             uuid.New(),
	})
	require.NoError(t, err)
	return *ev
}

func TestActivationConsumer(t *testing.T) {
	pending := model.StudentProgramModel{StudentProgramID: uuid.New(), StudentProgramStatus: model.StudentProgramPending}
	inactive := model.StudentProgramModel{StudentProgramID: uuid.New(), StudentProgramStatus: model.StudentProgramInactive}
	repo := &memPrograms{rows: map[uuid.UUID]model.StudentProgramModel{
		pending.StudentProgramID:  pending,
		inactive.StudentProgramID: inactive,
	}}
	c := NewActivationConsumer(repo, zap.NewNop()).WithClock(func() time.Time { return activatedAt })
	ctx := context.Background()

	t.Run("pending jadi active", func(t *testing.T) {
		require.NoError(t, c.Handle(ctx, activationEvent(t, pending.StudentProgramID)))
		got, _ := repo.Get(ctx, pending.StudentProgramID)
		assert.Equal(t, model.StudentProgramActive, got.StudentProgramStatus)
		require.NotNil(t, got.StudentProgramActivatedAt)
		assert.Equal(t, activatedAt, *got.StudentProgramActivatedAt)
	})

	t.Run("dikirim ulang tetap sukses", func(t *testing.T) {
		require.NoError(t, c.Handle(ctx, activationEvent(t, pending.StudentProgramID)))
	})

	t.Run("inactive tidak diubah", func(t *testing.T) {
		require.NoError(t, c.Handle(ctx, activationEvent(t, inactive.StudentProgramID)))
		got, _ := repo.Get(ctx, inactive.StudentProgramID)
		assert.Equal(t, model.StudentProgramInactive, got.StudentProgramStatus)
	})

	t.Run("program tidak ada → error supaya di-retry", func(t *testing.T) {
		err := c.Handle(ctx, activationEvent(t, uuid.New()))
		require.ErrorIs(t, err, constants.ErrNotFound)
	})

	t.Run("payload rusak", func(t *testing.T) {
		ev := activationEvent(t, pending.StudentProgramID)
		ev.OutboxEventPayload = []byte(`{"student_program_id":`)
		require.Error(t, c.Handle(ctx, ev))
	})
}
