package di

import (
	"context"
	"fmt"

	"github.com/aristath/returns/internal/config"
	"github.com/aristath/returns/internal/pipeline"
	"github.com/aristath/returns/internal/reliability"
	"github.com/aristath/returns/internal/returns"
	"github.com/rs/zerolog"
)

// InitializeServices creates the calculator, runner, optional uploader and the pipeline service
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.Calculator = returns.NewCalculator(log)

	runner, err := returns.NewRunner(container.Calculator, cfg.Periods, cfg.Parallel, log)
	if err != nil {
		return fmt.Errorf("failed to create runner: %w", err)
	}
	container.Runner = runner

	deps := pipeline.Deps{
		Source: container.SourceRepo,
		Sink:   container.SinkRepo,
		Runner: runner,
		Options: pipeline.Options{
			InputTable:   cfg.InputTable,
			DateColumn:   cfg.DateColumn,
			OutputTable:  cfg.OutputTable,
			SummaryTable: cfg.SummaryTable,
			OutputPath:   container.OutputDB.Path(),
		},
	}

	if cfg.Upload.Enabled() {
		client, err := reliability.NewS3Client(ctx, reliability.S3Config{
			Bucket:          cfg.Upload.Bucket,
			Endpoint:        cfg.Upload.Endpoint,
			Region:          cfg.Upload.Region,
			AccessKeyID:     cfg.Upload.AccessKeyID,
			SecretAccessKey: cfg.Upload.SecretAccessKey,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to create object store client: %w", err)
		}
		container.ObjectStore = client
		container.Uploader = reliability.NewOutputUploader(client, cfg.Upload.Prefix, log)
		deps.Uploader = container.Uploader
		log.Info().Str("bucket", cfg.Upload.Bucket).Msg("Output upload enabled")
	}

	container.Pipeline = pipeline.NewService(deps, log)

	return nil
}
