package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tahfidzku_backend/internals/configs"
)

func TestStartRejectsBadSchedule(t *testing.T) {
	jobs := &Jobs{log: zap.NewNop()}
	_, err := Start(jobs, configs.FinanceConfig{CronExpirySweep: "every five minutes"}, zap.NewNop())
	require.Error(t, err)
}

func TestStartSkipsDisabledJobs(t *testing.T) {
	jobs := &Jobs{log: zap.NewNop()}
	c, err := Start(jobs, configs.FinanceConfig{CronExpirySweep: "-", CronOutbox: "*/1 * * * *"}, zap.NewNop())
	require.NoError(t, err)
	defer c.Stop()
	assert.Len(t, c.Entries(), 1)
}

func TestRunPassesDeadline(t *testing.T) {
	jobs := &Jobs{log: zap.NewNop()}
	called := false
	jobs.Run("test", 0, func(ctx context.Context) error {
		called = true
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		return errors.New("boom")
	})
	assert.True(t, called)
}
