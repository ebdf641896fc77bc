// Package scheduler keeps the live recurring timers for scheduled jobs.
// It uses robfig/cron/v3; each job identifier owns exactly one *cron.Cron.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"office-agent/pkg/metrics"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidSchedule = errors.New("invalid cron expression")
	ErrJobNotFound     = errors.New("scheduled job not found")
	ErrEmptyIdentifier = errors.New("job identifier is required")
)

// Task is the callback run on every tick
type Task func(ctx context.Context) error

// Job describes one recurring job
type Job struct {
	Identifier string
	Schedule   string
	Enabled    bool
	Task       Task
}

type entry struct {
	job     Job
	runner  *cron.Cron
	running bool
}

// Registry maps job identifiers to live timers. All mutations are serialized by mu.
type Registry struct {
	mu          sync.Mutex
	parser      cron.Parser
	jobs        map[string]*entry
	taskTimeout time.Duration
	location    *time.Location
}

// parser accepts standard 5-field expressions, an optional leading seconds
// field and descriptors such as @daily
var parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// NewRegistry creates an empty registry. taskTimeout bounds each tick (0 means 10 minutes).
func NewRegistry(taskTimeout time.Duration) *Registry {
	if taskTimeout <= 0 {
		taskTimeout = 10 * time.Minute
	}
	return &Registry{
		parser:      parser,
		jobs:        make(map[string]*entry),
		taskTimeout: taskTimeout,
		location:    time.Local,
	}
}

// ValidateSchedule checks cron syntax without registering anything
func ValidateSchedule(expr string) error {
	if _, err := parser.Parse(expr); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidSchedule, expr, err)
	}
	return nil
}

// ScheduleJob registers job, replacing any live timer under the same identifier.
// A disabled job is registered stopped and can be activated with StartJob.
func (r *Registry) ScheduleJob(job Job) error {
	if job.Identifier == "" {
		return ErrEmptyIdentifier
	}
	if job.Task == nil {
		return fmt.Errorf("job %s has no task", job.Identifier)
	}
	schedule, err := r.parser.Parse(job.Schedule)
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidSchedule, job.Schedule, err)
	}

	runner := cron.New(cron.WithParser(r.parser), cron.WithLocation(r.location))
	runner.Schedule(schedule, cron.FuncJob(r.wrap(job)))

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.jobs[job.Identifier]; ok {
		if old.running {
			old.runner.Stop()
		}
		log.Info().Str("job", job.Identifier).Msg("[Scheduler] Replacing existing job")
	}

	e := &entry{job: job, runner: runner}
	if job.Enabled {
		runner.Start()
		e.running = true
	}
	r.jobs[job.Identifier] = e
	r.updateGauge()

	log.Info().
		Str("job", job.Identifier).
		Str("schedule", job.Schedule).
		Bool("enabled", job.Enabled).
		Msg("[Scheduler] Job scheduled")
	return nil
}

// wrap runs the task with a fresh context inside its own error boundary so a
// failing or panicking task never stops later ticks
func (r *Registry) wrap(job Job) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.taskTimeout)
		defer cancel()

		start := time.Now()
		defer func() {
			if rec := recover(); rec != nil {
				metrics.CronRuns.WithLabelValues("panic").Inc()
				log.Error().Str("job", job.Identifier).Interface("panic", rec).Msg("[Scheduler] Job panicked")
			}
		}()

		if err := job.Task(ctx); err != nil {
			metrics.CronRuns.WithLabelValues("error").Inc()
			log.Error().Err(err).Str("job", job.Identifier).Dur("took", time.Since(start)).Msg("[Scheduler] Job failed")
			return
		}
		metrics.CronRuns.WithLabelValues("success").Inc()
		log.Info().Str("job", job.Identifier).Dur("took", time.Since(start)).Msg("[Scheduler] Job completed")
	}
}

// StartJob activates a registered job
func (r *Registry) StartJob(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if !e.running {
		e.runner.Start()
		e.running = true
		r.updateGauge()
		log.Info().Str("job", id).Msg("[Scheduler] Job started")
	}
	return nil
}

// StopJob pauses a registered job; it stays registered
func (r *Registry) StopJob(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if e.running {
		e.runner.Stop()
		e.running = false
		r.updateGauge()
		log.Info().Str("job", id).Msg("[Scheduler] Job stopped")
	}
	return nil
}

// RemoveJob stops and forgets a job. Removing an unknown id is a no-op.
func (r *Registry) RemoveJob(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.jobs[id]; ok {
		if e.running {
			e.runner.Stop()
		}
		delete(r.jobs, id)
		r.updateGauge()
		log.Info().Str("job", id).Msg("[Scheduler] Job removed")
	}
}

// StopAllJobs stops every timer, waits (bounded by ctx) for in-flight ticks and
// clears the registry
func (r *Registry) StopAllJobs(ctx context.Context) {
	r.mu.Lock()
	var pending []context.Context
	for id, e := range r.jobs {
		if e.running {
			pending = append(pending, e.runner.Stop())
		}
		delete(r.jobs, id)
	}
	r.updateGauge()
	r.mu.Unlock()

	for _, done := range pending {
		select {
		case <-done.Done():
		case <-ctx.Done():
			log.Warn().Msg("[Scheduler] Gave up waiting for running jobs")
			return
		}
	}
	log.Info().Int("jobs", len(pending)).Msg("[Scheduler] All jobs stopped")
}

// ListActive returns the sorted identifiers of ticking jobs
func (r *Registry) ListActive() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.jobs))
	for id, e := range r.jobs {
		if e.running {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// IsRegistered reports whether id has an entry, running or not
func (r *Registry) IsRegistered(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.jobs[id]
	return ok
}

// NextRun returns the next activation time of a running job
func (r *Registry) NextRun(id string) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.jobs[id]
	if !ok || !e.running {
		return time.Time{}, false
	}
	entries := e.runner.Entries()
	if len(entries) == 0 {
		return time.Time{}, false
	}
	return entries[0].Next, true
}

// must hold mu
func (r *Registry) updateGauge() {
	running := 0
	for _, e := range r.jobs {
		if e.running {
			running++
		}
	}
	metrics.CronActiveJobs.Set(float64(running))
}
