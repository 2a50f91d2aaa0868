package returns

import (
	"context"
	"errors"
	"fmt"

	"github.com/aristath/returns/internal/table"
	"github.com/aristath/returns/internal/utils"
	"github.com/guregu/null/v6"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultPeriods are the holding periods, in years, computed when none are configured
var DefaultPeriods = []int{1, 3, 5, 7, 10}

// ReportTitle labels the first cell of the header row
const ReportTitle = "Annualized Return"

// Report collects the per-period results of one batch
type Report struct {
	InputRows int
	Periods   []*PeriodResult
	Failed    []*PeriodError
}

// Table merges the period frames side by side and prepends the header row.
// Repeated column names keep their first occurrence.
func (r *Report) Table() (*table.Table, error) {
	if len(r.Periods) == 0 {
		return nil, errors.New("report has no period results")
	}

	frames := make([]*table.Table, 0, len(r.Periods))
	for _, p := range r.Periods {
		frame, err := p.Table()
		if err != nil {
			return nil, fmt.Errorf("build %d year frame: %w", p.Years, err)
		}
		frames = append(frames, frame)
	}

	merged := table.Concat(frames...)
	header := make([]null.String, merged.Width())
	for i := range header {
		header[i] = null.StringFrom("")
	}
	header[0] = null.StringFrom(ReportTitle)

	return merged.PrependRow(header...)
}

// Runner computes every configured holding period over the same observations
type Runner struct {
	calc     *Calculator
	periods  []int
	parallel bool
	log      zerolog.Logger
}

// NewRunner creates a batch runner. Periods keep the given order.
func NewRunner(calc *Calculator, periods []int, parallel bool, log zerolog.Logger) (*Runner, error) {
	if len(periods) == 0 {
		return nil, ErrNoPeriods
	}
	for _, years := range periods {
		if years <= 0 {
			return nil, fmt.Errorf("invalid holding period %d", years)
		}
	}

	return &Runner{
		calc:     calc,
		periods:  append([]int(nil), periods...),
		parallel: parallel,
		log:      log.With().Str("component", "period_runner").Logger(),
	}, nil
}

// Periods returns the configured holding periods
func (r *Runner) Periods() []int {
	return append([]int(nil), r.periods...)
}

// Run computes every period. A failed period is reported and skipped;
// the run fails only when no period succeeds.
func (r *Runner) Run(ctx context.Context, obs *Observations) (*Report, error) {
	if obs.Len() == 0 {
		return nil, ErrInputEmpty
	}

	results := make([]*PeriodResult, len(r.periods))
	failures := make([]error, len(r.periods))

	if r.parallel {
		g, gctx := errgroup.WithContext(ctx)
		for i, years := range r.periods {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i], failures[i] = r.runPeriod(obs.Clone(), years)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, years := range r.periods {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i], failures[i] = r.runPeriod(obs.Clone(), years)
		}
	}

	report := &Report{InputRows: obs.Len()}
	for i, years := range r.periods {
		if failures[i] != nil {
			var periodErr *PeriodError
			if !errors.As(failures[i], &periodErr) {
				periodErr = &PeriodError{Years: years, Message: "unexpected failure", Cause: failures[i]}
			}
			r.log.Error().Err(periodErr).Int("years", years).Msg("Period failed")
			report.Failed = append(report.Failed, periodErr)
			continue
		}
		report.Periods = append(report.Periods, results[i])
	}

	if len(report.Periods) == 0 {
		errs := make([]error, 0, len(report.Failed))
		for _, f := range report.Failed {
			errs = append(errs, f)
		}
		return report, fmt.Errorf("every holding period failed: %w", errors.Join(errs...))
	}

	return report, nil
}

// runPeriod computes one period on its own copy of the observations
func (r *Runner) runPeriod(obs *Observations, years int) (result *PeriodResult, err error) {
	r.log.Info().Int("years", years).Msgf("Calculating returns for %d year period", years)
	timer := utils.NewTimer(fmt.Sprintf("period_%dy", years), r.log)

	defer func() {
		if p := recover(); p != nil {
			result = nil
			err = &PeriodError{Years: years, Message: "unexpected failure", Cause: fmt.Errorf("panic: %v", p)}
		}
	}()

	result, err = r.calc.ComputePeriod(obs, years)
	if err != nil {
		return nil, err
	}

	timer.StopWithFields(map[string]interface{}{
		"years":           years,
		"rows":            result.Len(),
		"dropped_rows":    result.DroppedRows,
		"column_failures": len(result.ColumnFailures()),
	})
	return result, nil
}
