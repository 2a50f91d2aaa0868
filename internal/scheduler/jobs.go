package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/returns/internal/pipeline"
	"github.com/aristath/returns/internal/returns"
	"github.com/rs/zerolog"
)

// ReturnsJobName names the scheduled returns job
const ReturnsJobName = "compute_returns"

// RunService starts pipeline runs
type RunService interface {
	Run(ctx context.Context, trigger string) (*pipeline.RunResult, error)
}

// ReturnsJob recomputes the returns report
type ReturnsJob struct {
	service RunService
	timeout time.Duration
	log     zerolog.Logger
}

// NewReturnsJob creates a job that runs the pipeline with the given timeout
func NewReturnsJob(service RunService, timeout time.Duration, log zerolog.Logger) *ReturnsJob {
	return &ReturnsJob{
		service: service,
		timeout: timeout,
		log:     log.With().Str("job", ReturnsJobName).Logger(),
	}
}

// Name returns the job name
func (j *ReturnsJob) Name() string {
	return ReturnsJobName
}

// Run executes one pipeline run. Overlapping runs and empty inputs are not failures.
func (j *ReturnsJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	result, err := j.service.Run(ctx, "schedule")
	switch {
	case errors.Is(err, pipeline.ErrRunInProgress):
		j.log.Warn().Msg("Previous run still in progress, skipping")
		return nil
	case errors.Is(err, returns.ErrInputEmpty):
		return nil
	case err != nil:
		return err
	}

	j.log.Info().
		Str("run_id", result.ID).
		Str("status", string(result.Status)).
		Msg("Scheduled run finished")
	return nil
}

// HealthChecker verifies a database
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// UploadRotator prunes old uploads
type UploadRotator interface {
	RotateOldUploads(ctx context.Context, retentionDays int) (int, error)
}

// MaintenanceJob checks the output database and rotates old uploads
type MaintenanceJob struct {
	output        HealthChecker
	rotator       UploadRotator
	retentionDays int
	log           zerolog.Logger
}

// NewMaintenanceJob creates a maintenance job. rotator may be nil.
func NewMaintenanceJob(output HealthChecker, rotator UploadRotator, retentionDays int, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		output:        output,
		rotator:       rotator,
		retentionDays: retentionDays,
		log:           log.With().Str("job", "maintenance").Logger(),
	}
}

// Name returns the job name
func (j *MaintenanceJob) Name() string {
	return "maintenance"
}

// Run executes the maintenance job
func (j *MaintenanceJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := j.output.HealthCheck(ctx); err != nil {
		j.log.Error().Err(err).Msg("Output database integrity check failed")
		return fmt.Errorf("output database check: %w", err)
	}
	j.log.Debug().Msg("Output database integrity OK")

	if j.rotator == nil {
		return nil
	}
	deleted, err := j.rotator.RotateOldUploads(ctx, j.retentionDays)
	if err != nil {
		return fmt.Errorf("rotate uploads: %w", err)
	}
	j.log.Info().Int("deleted", deleted).Msg("Maintenance completed")
	return nil
}
