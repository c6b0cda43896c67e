package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tahfidzku_backend/internals/constants"
	"tahfidzku_backend/internals/features/finance/outbox/model"
	"tahfidzku_backend/internals/features/finance/outbox/repository"
)

type memOutbox struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*model.OutboxEventModel
}

func newMemOutbox(events ...*model.OutboxEventModel) *memOutbox {
	m := &memOutbox{rows: map[uuid.UUID]*model.OutboxEventModel{}}
	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	for i, ev := range events {
		ev.OutboxEventCreatedAt = base.Add(time.Duration(i) * time.Second)
		m.rows[ev.OutboxEventID] = ev
	}
	return m
}

func (m *memOutbox) Transaction(ctx context.Context, fn func(tx repository.Repository) error) error {
	return fn(m)
}

func (m *memOutbox) FetchPending(_ context.Context, now time.Time, limit, maxAttempts int) ([]model.OutboxEventModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.OutboxEventModel
	for _, r := range m.rows {
		if r.OutboxEventNextAttemptAt != nil && r.OutboxEventNextAttemptAt.After(now) {
			continue
		}
		if r.OutboxEventDispatchedAt == nil && r.OutboxEventAttempts < maxAttempts {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OutboxEventCreatedAt.Before(out[j].OutboxEventCreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memOutbox) MarkDispatched(_ context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.rows[id]
	r.OutboxEventDispatchedAt = &at
	r.OutboxEventAttempts++
	r.OutboxEventLastError = nil
	r.OutboxEventNextAttemptAt = nil
	return nil
}

func (m *memOutbox) MarkFailed(_ context.Context, id uuid.UUID, reason string, next time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.rows[id]
	r.OutboxEventAttempts++
	r.OutboxEventLastError = &reason
	r.OutboxEventNextAttemptAt = &next
	return nil
}

func (m *memOutbox) CountPending(_ context.Context, maxAttempts int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.rows {
		if r.OutboxEventDispatchedAt == nil && r.OutboxEventAttempts < maxAttempts {
			n++
		}
	}
	return n, nil
}

func (m *memOutbox) ListDead(_ context.Context, maxAttempts, offset, limit int) ([]model.OutboxEventModel, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.OutboxEventModel
	for _, r := range m.rows {
		if r.OutboxEventDispatchedAt == nil && r.OutboxEventAttempts >= maxAttempts {
			out = append(out, *r)
		}
	}
	total := int64(len(out))
	if offset >= len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (m *memOutbox) Requeue(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok || r.OutboxEventDispatchedAt != nil {
		return constants.ErrNotFound
	}
	r.OutboxEventAttempts = 0
	r.OutboxEventNextAttemptAt = nil
	return nil
}

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time          { return c.t }
func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestClock() *testClock {
	return &testClock{t: time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)}
}

func event(t *testing.T, typ string) *model.OutboxEventModel {
	t.Helper()
	ev, err := model.NewEvent(typ, uuid.New(), map[string]string{"k": "v"})
	require.NoError(t, err)
	return ev
}

func TestDispatchOnceRoutesByType(t *testing.T) {
	settled := event(t, model.EventPaymentSettled)
	activation := event(t, model.EventEnrollmentActivationRequested)
	store := newMemOutbox(settled, activation)

	var seen []string
	d := NewDispatcher(store, zap.NewNop())
	d.Subscribe(model.EventEnrollmentActivationRequested, HandlerFunc(func(_ context.Context, ev model.OutboxEventModel) error {
		seen = append(seen, ev.OutboxEventType)
		return nil
	}))

	res, err := d.DispatchOnce(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, DispatchResult{Fetched: 2, Dispatched: 2}, res)
	assert.Equal(t, []string{model.EventEnrollmentActivationRequested}, seen)
	assert.NotNil(t, store.rows[settled.OutboxEventID].OutboxEventDispatchedAt)

	res, err = d.DispatchOnce(context.Background(), 10)
	require.NoError(t, err)
	assert.Zero(t, res.Fetched)
}

func TestDispatchOnceRetriesUntilMaxAttempts(t *testing.T) {
	ev := event(t, model.EventPayrollFailed)
	store := newMemOutbox(ev)

	clock := newTestClock()
	d := NewDispatcher(store, zap.NewNop()).WithMaxAttempts(3).WithClock(clock.now)
	d.Subscribe(model.EventPayrollFailed, HandlerFunc(func(context.Context, model.OutboxEventModel) error {
		return errors.New("smtp down")
	}))

	for i := 0; i < 5; i++ {
		_, err := d.DispatchOnce(context.Background(), 10)
		require.NoError(t, err)
		clock.advance(2 * time.Hour)
	}
	row := store.rows[ev.OutboxEventID]
	assert.Equal(t, 3, row.OutboxEventAttempts)
	assert.Nil(t, row.OutboxEventDispatchedAt)
	require.NotNil(t, row.OutboxEventLastError)
	assert.Equal(t, "smtp down", *row.OutboxEventLastError)

	n, err := d.Pending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDispatchOnceRecoversHandlerPanic(t *testing.T) {
	ev := event(t, model.EventPayrollCompleted)
	store := newMemOutbox(ev)

	d := NewDispatcher(store, zap.NewNop())
	d.Subscribe(model.EventPayrollCompleted, HandlerFunc(func(context.Context, model.OutboxEventModel) error {
		panic("nil map")
	}))

	res, err := d.DispatchOnce(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Contains(t, *store.rows[ev.OutboxEventID].OutboxEventLastError, "panic")
}

func TestDispatchOnceBacksOffAfterFailure(t *testing.T) {
	ev := event(t, model.EventEnrollmentActivationRequested)
	store := newMemOutbox(ev)
	clock := newTestClock()

	fail := true
	d := NewDispatcher(store, zap.NewNop()).WithClock(clock.now)
	d.Subscribe(model.EventEnrollmentActivationRequested, HandlerFunc(func(context.Context, model.OutboxEventModel) error {
		if fail {
			return errors.New("connection reset")
		}
		return nil
	}))

	res, err := d.DispatchOnce(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	require.NotNil(t, store.rows[ev.OutboxEventID].OutboxEventNextAttemptAt)
	assert.Equal(t, clock.now().Add(30*time.Second), *store.rows[ev.OutboxEventID].OutboxEventNextAttemptAt)

	// belum waktunya retry
	res, err = d.DispatchOnce(context.Background(), 10)
	require.NoError(t, err)
	assert.Zero(t, res.Fetched)
	assert.Equal(t, 1, store.rows[ev.OutboxEventID].OutboxEventAttempts)

	fail = false
	clock.advance(31 * time.Second)
	res, err = d.DispatchOnce(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Dispatched)
	assert.Nil(t, store.rows[ev.OutboxEventID].OutboxEventNextAttemptAt)
}

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 30 * time.Second},
		{1, 30 * time.Second},
		{2, time.Minute},
		{4, 4 * time.Minute},
		{8, time.Hour},
		{10, time.Hour},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RetryDelay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestRequeueDeadLetter(t *testing.T) {
	ev := event(t, model.EventEnrollmentActivationRequested)
	store := newMemOutbox(ev)
	clock := newTestClock()
	ctx := context.Background()

	fail := true
	d := NewDispatcher(store, zap.NewNop()).WithMaxAttempts(2).WithClock(clock.now)
	d.Subscribe(model.EventEnrollmentActivationRequested, HandlerFunc(func(context.Context, model.OutboxEventModel) error {
		if fail {
			return errors.New("student program belum ada")
		}
		return nil
	}))

	for i := 0; i < 3; i++ {
		_, err := d.DispatchOnce(ctx, 10)
		require.NoError(t, err)
		clock.advance(2 * time.Hour)
	}
	dead, total, err := d.DeadLetters(ctx, 0, 20)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, ev.OutboxEventID, dead[0].OutboxEventID)

	fail = false
	require.NoError(t, d.Requeue(ctx, ev.OutboxEventID))
	res, err := d.DispatchOnce(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Dispatched)

	_, total, err = d.DeadLetters(ctx, 0, 20)
	require.NoError(t, err)
	assert.Zero(t, total)

	require.ErrorIs(t, d.Requeue(ctx, ev.OutboxEventID), constants.ErrNotFound)
	require.ErrorIs(t, d.Requeue(ctx, uuid.New()), constants.ErrNotFound)
}

func TestFailureReasonKeepsValidUTF8(t *testing.T) {
	ev := event(t, model.EventPayrollFailed)
	store := newMemOutbox(ev)

	d := NewDispatcher(store, zap.NewNop())
	d.Subscribe(model.EventPayrollFailed, HandlerFunc(func(context.Context, model.OutboxEventModel) error {
		// "é" = 2 byte, potongan di byte 1000 jatuh di tengah karakter kalau offset ganjil
		return errors.New("x" + strings.Repeat("é", 600))
	}))

	_, err := d.DispatchOnce(context.Background(), 10)
	require.NoError(t, err)
	reason := *store.rows[ev.OutboxEventID].OutboxEventLastError
	assert.True(t, utf8.ValidString(reason))
	assert.LessOrEqual(t, len(reason), 1000)
	assert.Equal(t, 999, len(reason))
}
