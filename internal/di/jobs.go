package di

import (
	"fmt"
	"time"

	"github.com/aristath/returns/internal/config"
	"github.com/aristath/returns/internal/scheduler"
	"github.com/rs/zerolog"
)

// ScheduledRunTimeout bounds one scheduled run
const ScheduledRunTimeout = 30 * time.Minute

// RegisterJobs creates the scheduler and registers the jobs whose schedules are set.
// The scheduler is not started.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	sched := scheduler.New(log)
	container.Scheduler = sched
	instances := &JobInstances{}

	if cfg.Schedule != "" {
		job := scheduler.NewReturnsJob(container.Pipeline, ScheduledRunTimeout, log)
		if err := sched.AddJob(cfg.Schedule, job); err != nil {
			return nil, fmt.Errorf("failed to register %s job: %w", job.Name(), err)
		}
		instances.Returns = job
	}

	if cfg.Maintenance != "" {
		var rotator scheduler.UploadRotator
		if container.Uploader != nil {
			rotator = container.Uploader
		}
		job := scheduler.NewMaintenanceJob(container.OutputDB, rotator, cfg.Upload.RetentionDays, log)
		if err := sched.AddJob(cfg.Maintenance, job); err != nil {
			return nil, fmt.Errorf("failed to register %s job: %w", job.Name(), err)
		}
		instances.Maintenance = job
	}

	return instances, nil
}
