package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"office-agent/internal/cron/domain"
	"office-agent/internal/cron/repository"
	"office-agent/internal/cron/scheduler"

	"github.com/rs/zerolog/log"
)

// Registry is the subset of *scheduler.Registry the usecase drives
type Registry interface {
	ScheduleJob(job scheduler.Job) error
	StartJob(id string) error
	StopJob(id string) error
	RemoveJob(id string)
	IsRegistered(id string) bool
	ListActive() []string
}

type cronUsecase struct {
	repo     repository.CronJobRepository
	registry Registry
	runner   *TaskRunner
}

// NewCronUsecase creates a new instance of cronUsecase
func NewCronUsecase(repo repository.CronJobRepository, registry Registry, runner *TaskRunner) CronUsecase {
	return &cronUsecase{
		repo:     repo,
		registry: registry,
		runner:   runner,
	}
}

func (u *cronUsecase) CreateJob(ctx context.Context, userID string, input CreateJobInput) (*domain.CronJob, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidRequest)
	}
	schedule := strings.TrimSpace(input.Schedule)
	if err := scheduler.ValidateSchedule(schedule); err != nil {
		return nil, err
	}
	taskType := domain.TaskType(input.TaskType)
	if !taskType.Valid() {
		return nil, fmt.Errorf("%w: task_type must be email, pdf or scraper", domain.ErrInvalidRequest)
	}

	enabled := true
	if input.Enabled != nil {
		enabled = *input.Enabled
	}
	taskConfig := input.TaskConfig
	if taskConfig == nil {
		taskConfig = map[string]interface{}{}
	}

	job := &domain.CronJob{
		UserID:     userID,
		Name:       name,
		Schedule:   schedule,
		TaskType:   taskType,
		TaskConfig: taskConfig,
		Enabled:    enabled,
		Status:     domain.StatusPending,
	}
	if err := u.repo.Create(job); err != nil {
		return nil, fmt.Errorf("failed to create cron job: %w", err)
	}

	if err := u.register(job); err != nil {
		// the schedule was validated above, so this is unexpected
		log.Error().Err(err).Str("job_id", job.ID).Msg("[Cron] Failed to register job")
		return job, err
	}

	job.Status = statusFor(job.Enabled)
	if err := u.repo.SetStatusSystem(job.ID, job.Status); err != nil {
		log.Warn().Err(err).Str("job_id", job.ID).Msg("[Cron] Failed to update job status")
	}

	log.Info().Str("user_id", userID).Str("job_id", job.ID).Str("schedule", schedule).Msg("[Cron] Job created")
	return job, nil
}

func (u *cronUsecase) register(job *domain.CronJob) error {
	return u.registry.ScheduleJob(scheduler.Job{
		Identifier: job.Identifier(),
		Schedule:   job.Schedule,
		Enabled:    job.Enabled,
		Task:       u.runner.Build(job),
	})
}

func statusFor(enabled bool) domain.JobStatus {
	if enabled {
		return domain.StatusActive
	}
	return domain.StatusStopped
}

func (u *cronUsecase) ListJobs(userID string, enabled *bool) ([]*domain.CronJob, error) {
	return u.repo.FindByUserID(userID, enabled)
}

func (u *cronUsecase) GetJob(userID, jobID string) (*domain.CronJob, error) {
	job, err := u.repo.FindByID(userID, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, domain.ErrCronJobNotFound
	}
	return job, nil
}

func (u *cronUsecase) UpdateJob(ctx context.Context, userID, jobID string, input UpdateJobInput) (*domain.CronJob, error) {
	job, err := u.GetJob(userID, jobID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", domain.ErrInvalidRequest)
		}
		job.Name = name
	}
	if input.Schedule != nil {
		schedule := strings.TrimSpace(*input.Schedule)
		if err := scheduler.ValidateSchedule(schedule); err != nil {
			return nil, err
		}
		job.Schedule = schedule
	}
	if input.TaskType != nil {
		taskType := domain.TaskType(*input.TaskType)
		if !taskType.Valid() {
			return nil, fmt.Errorf("%w: task_type must be email, pdf or scraper", domain.ErrInvalidRequest)
		}
		job.TaskType = taskType
	}
	if input.TaskConfig != nil {
		job.TaskConfig = input.TaskConfig
	}
	if input.Enabled != nil {
		job.Enabled = *input.Enabled
	}
	job.Status = statusFor(job.Enabled)

	if err := u.repo.Update(job); err != nil {
		return nil, fmt.Errorf("failed to update cron job: %w", err)
	}
	if err := u.register(job); err != nil {
		return nil, err
	}
	return job, nil
}

func (u *cronUsecase) StartJob(userID, jobID string) (*domain.CronJob, error) {
	job, err := u.GetJob(userID, jobID)
	if err != nil {
		return nil, err
	}

	job.Enabled = true
	job.Status = domain.StatusActive
	if err := u.repo.Update(job); err != nil {
		return nil, fmt.Errorf("failed to update cron job: %w", err)
	}

	if u.registry.IsRegistered(job.Identifier()) {
		err = u.registry.StartJob(job.Identifier())
	} else {
		err = u.register(job)
	}
	if err != nil {
		return nil, err
	}
	log.Info().Str("user_id", userID).Str("job_id", jobID).Msg("[Cron] Job started")
	return job, nil
}

func (u *cronUsecase) StopJob(userID, jobID string) (*domain.CronJob, error) {
	job, err := u.GetJob(userID, jobID)
	if err != nil {
		return nil, err
	}

	job.Enabled = false
	job.Status = domain.StatusStopped
	if err := u.repo.Update(job); err != nil {
		return nil, fmt.Errorf("failed to update cron job: %w", err)
	}

	if err := u.registry.StopJob(job.Identifier()); err != nil && !errors.Is(err, scheduler.ErrJobNotFound) {
		return nil, err
	}
	log.Info().Str("user_id", userID).Str("job_id", jobID).Msg("[Cron] Job stopped")
	return job, nil
}

func (u *cronUsecase) DeleteJob(userID, jobID string) error {
	job, err := u.GetJob(userID, jobID)
	if err != nil {
		return err
	}
	u.registry.RemoveJob(job.Identifier())
	return u.repo.Delete(userID, jobID)
}

func (u *cronUsecase) ListActive(userID string) []string {
	prefix := userID + "_"
	var ids []string
	for _, id := range u.registry.ListActive() {
		if strings.HasPrefix(id, prefix) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (u *cronUsecase) RestoreJobs(ctx context.Context) (int, error) {
	jobs, err := u.repo.FindEnabledSystem()
	if err != nil {
		return 0, fmt.Errorf("failed to load cron jobs: %w", err)
	}

	restored := 0
	for _, job := range jobs {
		if ctx.Err() != nil {
			return restored, ctx.Err()
		}
		if err := u.register(job); err != nil {
			log.Warn().Err(err).Str("job_id", job.ID).Str("schedule", job.Schedule).Msg("[Cron] Skipping job with invalid schedule")
			_ = u.repo.SetStatusSystem(job.ID, domain.StatusFailed)
			continue
		}
		restored++
	}
	log.Info().Int("restored", restored).Int("total", len(jobs)).Msg("[Cron] Jobs restored")
	return restored, nil
}
