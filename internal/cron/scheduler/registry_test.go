package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(context.Context) error { return nil }

func TestValidateSchedule(t *testing.T) {
	tests := []struct {
		expr  string
		valid bool
	}{
		{"0 9 * * *", true},
		{"*/5 * * * *", true},
		{"0 30 9 * * 1-5", true},
		{"@daily", true},
		{"@every 1h", true},
		{"99 99 * *", false},
		{"99 99 * * *", false},
		{"not a cron", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			err := ValidateSchedule(tt.expr)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidSchedule)
			}
		})
	}
}

func TestScheduleJob_InvalidScheduleRegistersNothing(t *testing.T) {
	r := NewRegistry(0)

	err := r.ScheduleJob(Job{Identifier: "u1_j1", Schedule: "not a cron", Enabled: true, Task: noop})
	assert.ErrorIs(t, err, ErrInvalidSchedule)
	assert.False(t, r.IsRegistered("u1_j1"))
	assert.Empty(t, r.ListActive())
}

func TestScheduleJob_Validation(t *testing.T) {
	r := NewRegistry(0)

	assert.ErrorIs(t, r.ScheduleJob(Job{Schedule: "0 9 * * *", Task: noop}), ErrEmptyIdentifier)
	assert.Error(t, r.ScheduleJob(Job{Identifier: "x", Schedule: "0 9 * * *"}))
}

func TestScheduleJob_ReplaceKeepsSingleTimer(t *testing.T) {
	r := NewRegistry(0)
	defer r.StopAllJobs(context.Background())

	require.NoError(t, r.ScheduleJob(Job{Identifier: "J", Schedule: "0 9 * * *", Enabled: true, Task: noop}))
	require.NoError(t, r.ScheduleJob(Job{Identifier: "J", Schedule: "0 10 * * *", Enabled: true, Task: noop}))

	assert.Equal(t, []string{"J"}, r.ListActive())

	r.mu.Lock()
	assert.Len(t, r.jobs, 1)
	assert.Equal(t, "0 10 * * *", r.jobs["J"].job.Schedule)
	r.mu.Unlock()
}

func TestScheduleJob_DisabledIsRegisteredButStopped(t *testing.T) {
	r := NewRegistry(0)
	defer r.StopAllJobs(context.Background())

	require.NoError(t, r.ScheduleJob(Job{Identifier: "J", Schedule: "@hourly", Enabled: false, Task: noop}))

	assert.True(t, r.IsRegistered("J"))
	assert.Empty(t, r.ListActive())

	require.NoError(t, r.StartJob("J"))
	assert.Equal(t, []string{"J"}, r.ListActive())

	next, ok := r.NextRun("J")
	assert.True(t, ok)
	assert.True(t, next.After(time.Now()))
}

func TestStopJob(t *testing.T) {
	r := NewRegistry(0)
	defer r.StopAllJobs(context.Background())

	require.NoError(t, r.ScheduleJob(Job{Identifier: "A", Schedule: "@daily", Enabled: true, Task: noop}))
	require.NoError(t, r.ScheduleJob(Job{Identifier: "B", Schedule: "@daily", Enabled: true, Task: noop}))

	require.NoError(t, r.StopJob("A"))
	assert.Equal(t, []string{"B"}, r.ListActive())
	assert.True(t, r.IsRegistered("A"))

	// stopping twice is harmless
	require.NoError(t, r.StopJob("A"))

	assert.ErrorIs(t, r.StopJob("missing"), ErrJobNotFound)
	assert.ErrorIs(t, r.StartJob("missing"), ErrJobNotFound)
}

func TestRemoveJobAndStopAll(t *testing.T) {
	r := NewRegistry(0)

	require.NoError(t, r.ScheduleJob(Job{Identifier: "A", Schedule: "@daily", Enabled: true, Task: noop}))
	require.NoError(t, r.ScheduleJob(Job{Identifier: "B", Schedule: "@daily", Enabled: true, Task: noop}))
	require.NoError(t, r.ScheduleJob(Job{Identifier: "C", Schedule: "@daily", Enabled: false, Task: noop}))

	r.RemoveJob("A")
	r.RemoveJob("unknown")
	assert.False(t, r.IsRegistered("A"))
	assert.Equal(t, []string{"B"}, r.ListActive())

	r.StopAllJobs(context.Background())
	assert.Empty(t, r.ListActive())
	assert.False(t, r.IsRegistered("C"))
}

func TestTick_ErrorsAndPanicsDoNotStopTimer(t *testing.T) {
	r := NewRegistry(time.Second)
	defer r.StopAllJobs(context.Background())

	var calls atomic.Int32
	task := func(ctx context.Context) error {
		n := calls.Add(1)
		if n == 1 {
			panic("boom")
		}
		return errors.New("always failing")
	}

	require.NoError(t, r.ScheduleJob(Job{Identifier: "flaky", Schedule: "@every 1s", Enabled: true, Task: task}))

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, 6*time.Second, 100*time.Millisecond)
	assert.Equal(t, []string{"flaky"}, r.ListActive())
}

func TestWrap_PassesDeadline(t *testing.T) {
	r := NewRegistry(time.Minute)

	var hadDeadline bool
	r.wrap(Job{Identifier: "x", Task: func(ctx context.Context) error {
		_, hadDeadline = ctx.Deadline()
		return nil
	}})()

	assert.True(t, hadDeadline)
}
