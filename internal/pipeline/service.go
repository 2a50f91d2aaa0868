// Package pipeline runs one complete returns computation: load the source
// table, compute every holding period, persist the report and upload it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aristath/returns/internal/reliability"
	"github.com/aristath/returns/internal/returns"
	"github.com/aristath/returns/internal/table"
	"github.com/aristath/returns/internal/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrRunInProgress is returned when a run is requested while another one is active
var ErrRunInProgress = errors.New("a run is already in progress")

// DefaultHistorySize is the number of run results kept in memory
const DefaultHistorySize = 20

// Source loads the observation table
type Source interface {
	Load(ctx context.Context, tableName string) (*table.Table, error)
}

// Sink replaces a result table
type Sink interface {
	Replace(ctx context.Context, tableName string, t *table.Table) error
}

// Uploader copies the result database somewhere safe
type Uploader interface {
	Upload(ctx context.Context, path string) (*reliability.UploadInfo, error)
}

// Options names the tables a run reads and writes
type Options struct {
	InputTable   string
	DateColumn   string
	OutputTable  string
	SummaryTable string // Empty skips the summary table
	OutputPath   string // Result database file, required for uploads
	HistorySize  int
}

// Deps holds the collaborators of a Service. Uploader is optional.
type Deps struct {
	Source   Source
	Sink     Sink
	Runner   *returns.Runner
	Uploader Uploader
	Options  Options
}

// Service executes runs one at a time and remembers recent results
type Service struct {
	deps    Deps
	log     zerolog.Logger
	running atomic.Bool

	mu      sync.RWMutex
	history []*RunResult

	now func() time.Time
}

// NewService creates a pipeline service
func NewService(deps Deps, log zerolog.Logger) *Service {
	if deps.Options.HistorySize <= 0 {
		deps.Options.HistorySize = DefaultHistorySize
	}
	if deps.Options.DateColumn == "" {
		deps.Options.DateColumn = returns.DefaultDateColumn
	}
	return &Service{
		deps: deps,
		log:  log.With().Str("service", "pipeline").Logger(),
		now:  time.Now,
	}
}

// Running reports whether a run is active
func (s *Service) Running() bool {
	return s.running.Load()
}

// Run executes one run. trigger names what started it ("startup", "schedule", "api").
// The result is returned and recorded even when the run fails; an empty input
// yields a skipped result together with returns.ErrInputEmpty.
func (s *Service) Run(ctx context.Context, trigger string) (*RunResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer s.running.Store(false)

	return s.run(ctx, trigger)
}

// Start reserves the run slot and executes the run in the background.
// It fails with ErrRunInProgress instead of queueing behind an active run.
func (s *Service) Start(trigger string) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrRunInProgress
	}

	go func() {
		defer s.running.Store(false)
		// Outcome is logged and kept in History
		_, _ = s.run(context.Background(), trigger)
	}()
	return nil
}

func (s *Service) run(ctx context.Context, trigger string) (*RunResult, error) {
	result := &RunResult{
		ID:        uuid.New().String(),
		Trigger:   trigger,
		Status:    StatusRunning,
		StartedAt: s.now().UTC(),
	}
	log := s.log.With().Str("run_id", result.ID).Str("trigger", trigger).Logger()
	log.Info().Str("table", s.deps.Options.InputTable).Msg("Run started")
	timer := utils.NewTimer("returns_run", log)

	err := s.execute(ctx, result, log)
	result.Duration = timer.Elapsed()

	switch {
	case errors.Is(err, returns.ErrInputEmpty):
		result.Status = StatusSkipped
		result.Error = err.Error()
		log.Warn().Msg("Input table is empty, nothing to compute")
	case err != nil:
		result.Status = StatusFailed
		result.Error = err.Error()
		log.Error().Err(err).Msg("Run failed")
	case result.Status == StatusRunning:
		result.Status = StatusSucceeded
	}

	timer.StopWithFields(map[string]interface{}{
		"status":      string(result.Status),
		"input_rows":  result.InputRows,
		"output_rows": result.OutputRows,
	})
	s.record(result)

	return result, err
}

func (s *Service) execute(ctx context.Context, result *RunResult, log zerolog.Logger) error {
	opts := s.deps.Options

	source, err := s.deps.Source.Load(ctx, opts.InputTable)
	if err != nil {
		return fmt.Errorf("load %s: %w", opts.InputTable, err)
	}
	if source.Len() == 0 {
		return returns.ErrInputEmpty
	}

	obs, err := returns.NewObservations(source, opts.DateColumn)
	if err != nil {
		return fmt.Errorf("normalize %s: %w", opts.InputTable, err)
	}
	result.InputRows = obs.Len()

	report, err := s.deps.Runner.Run(ctx, obs)
	if report != nil {
		result.Periods = periodStats(report)
	}
	if err != nil {
		return fmt.Errorf("compute returns: %w", err)
	}
	if len(report.Failed) > 0 {
		result.Status = StatusPartial
	}
	for _, p := range report.Periods {
		if len(p.ColumnFailures()) > 0 {
			result.Status = StatusPartial
		}
	}

	out, err := report.Table()
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}
	if err := s.deps.Sink.Replace(ctx, opts.OutputTable, out); err != nil {
		return fmt.Errorf("write %s: %w", opts.OutputTable, err)
	}
	result.OutputRows = out.Len()

	if opts.SummaryTable != "" {
		summary, err := returns.SummaryTable(returns.Summarize(report))
		if err != nil {
			return fmt.Errorf("build summary: %w", err)
		}
		if err := s.deps.Sink.Replace(ctx, opts.SummaryTable, summary); err != nil {
			return fmt.Errorf("write %s: %w", opts.SummaryTable, err)
		}
	}

	if s.deps.Uploader != nil && opts.OutputPath != "" {
		info, err := s.deps.Uploader.Upload(ctx, opts.OutputPath)
		if err != nil {
			log.Error().Err(err).Msg("Output upload failed")
			result.Status = StatusPartial
			result.UploadError = err.Error()
		} else {
			result.Upload = info
		}
	}

	return nil
}

func (s *Service) record(result *RunResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, result)
	if extra := len(s.history) - s.deps.Options.HistorySize; extra > 0 {
		s.history = append([]*RunResult(nil), s.history[extra:]...)
	}
}

// History returns the recorded runs, newest first
func (s *Service) History() []RunResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]RunResult, 0, len(s.history))
	for i := len(s.history) - 1; i >= 0; i-- {
		out = append(out, *s.history[i])
	}
	return out
}

// Last returns the most recent run, or false when nothing has run yet
func (s *Service) Last() (RunResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.history) == 0 {
		return RunResult{}, false
	}
	return *s.history[len(s.history)-1], true
}
