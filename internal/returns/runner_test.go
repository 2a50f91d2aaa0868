package returns

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func yearlyObservations(t *testing.T) *Observations {
	t.Helper()
	return buildObservations(t,
		[]string{
			"2015-01-01", "2016-01-01", "2017-01-01", "2018-01-01",
			"2019-01-01", "2020-01-01", "2021-01-01", "2022-01-01",
		},
		map[string][]string{
			"Close": {"100", "104", "99", "120", "131", "128", "150", "161"},
			"Open":  {"98", "103", "101", "118", "n/a", "127", "149", "160"},
		},
		"Close", "Open",
	)
}

func newTestRunner(t *testing.T, periods []int, parallel bool) *Runner {
	t.Helper()
	runner, err := NewRunner(NewCalculator(zerolog.Nop()), periods, parallel, zerolog.Nop())
	require.NoError(t, err)
	return runner
}

func TestNewRunner_Validation(t *testing.T) {
	calc := NewCalculator(zerolog.Nop())

	_, err := NewRunner(calc, nil, false, zerolog.Nop())
	assert.ErrorIs(t, err, ErrNoPeriods)

	_, err = NewRunner(calc, []int{1, -3}, false, zerolog.Nop())
	assert.Error(t, err)

	periods := []int{5, 1}
	runner, err := NewRunner(calc, periods, false, zerolog.Nop())
	require.NoError(t, err)
	periods[0] = 99
	assert.Equal(t, []int{5, 1}, runner.Periods())
}

func TestRunner_Run_MergesPeriods(t *testing.T) {
	report, err := newTestRunner(t, []int{1, 3}, false).Run(context.Background(), yearlyObservations(t))
	require.NoError(t, err)
	require.Len(t, report.Periods, 2)
	assert.Empty(t, report.Failed)
	assert.Equal(t, 8, report.InputRows)

	out, err := report.Table()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"From", "To (1Yr)", "Close (1Yr)", "Open (1Yr)",
		"To (3Yr)", "Close (3Yr)", "Open (3Yr)",
	}, out.Names())
	assert.Equal(t, 8, out.Len(), "header plus seven one-year rows")

	header := out.Row(0)
	assert.Equal(t, ReportTitle, header[0].String)
	for _, cell := range header[1:] {
		assert.True(t, cell.Valid)
		assert.Equal(t, "", cell.String)
	}

	to3, err := out.Column("To (3Yr)")
	require.NoError(t, err)
	assert.Equal(t, "01/01/2018", to3[1].String)
	assert.Equal(t, "01/01/2022", to3[5].String)
	assert.False(t, to3[6].Valid, "shorter periods are padded with NULL")
	assert.False(t, to3[7].Valid)

	open1, err := out.Column("Open (1Yr)")
	require.NoError(t, err)
	assert.Equal(t, "", open1[4].String, "2018 to 2019 ends on a missing value")
	assert.Equal(t, "", open1[5].String, "2019 starts on a missing value")
	assert.NotEmpty(t, open1[6].String)
}

func TestRunner_Run_ParallelMatchesSequential(t *testing.T) {
	periods := []int{1, 3, 5, 7, 10}

	sequential, err := newTestRunner(t, periods, false).Run(context.Background(), yearlyObservations(t))
	require.NoError(t, err)
	parallel, err := newTestRunner(t, periods, true).Run(context.Background(), yearlyObservations(t))
	require.NoError(t, err)

	seqTable, err := sequential.Table()
	require.NoError(t, err)
	parTable, err := parallel.Table()
	require.NoError(t, err)

	assert.Equal(t, seqTable.Names(), parTable.Names())
	require.Equal(t, seqTable.Len(), parTable.Len())
	for i := 0; i < seqTable.Len(); i++ {
		assert.Equal(t, seqTable.Row(i), parTable.Row(i), "row %d", i)
	}
}

func TestRunner_Run_EmptyInput(t *testing.T) {
	obs := buildObservations(t, []string{}, map[string][]string{"Close": {}}, "Close")

	report, err := newTestRunner(t, DefaultPeriods, false).Run(context.Background(), obs)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, ErrInputEmpty)
}

func TestRunner_Run_PeriodLongerThanData(t *testing.T) {
	report, err := newTestRunner(t, []int{1, 10}, false).Run(context.Background(), yearlyObservations(t))
	require.NoError(t, err)

	require.Len(t, report.Periods, 2)
	assert.Equal(t, 0, report.Periods[1].Len())
	assert.Equal(t, 8, report.Periods[1].DroppedRows)

	out, err := report.Table()
	require.NoError(t, err)
	assert.True(t, out.Has("To (10Yr)"))
	assert.Equal(t, 8, out.Len())
}

func TestRunner_Run_Canceled(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newTestRunner(t, []int{1, 3}, parallel).Run(ctx, yearlyObservations(t))
		assert.True(t, errors.Is(err, context.Canceled), "parallel=%v", parallel)
	}
}

func TestReport_TableWithoutPeriods(t *testing.T) {
	_, err := (&Report{}).Table()
	assert.Error(t, err)
}

func TestRunner_RunPeriod_RecoversPanic(t *testing.T) {
	// A nil calculator panics as soon as it logs
	runner := &Runner{periods: []int{1}, log: zerolog.Nop()}

	result, err := runner.runPeriod(yearlyObservations(t), 1)

	assert.Nil(t, result)
	var periodErr *PeriodError
	require.True(t, errors.As(err, &periodErr))
	assert.Equal(t, 1, periodErr.Years)
	assert.Equal(t, "unexpected failure", periodErr.Message)
	assert.Contains(t, periodErr.Error(), "panic")
}

func TestRunner_Run_PanickingPeriodsAreReported(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		runner := &Runner{periods: []int{1, 3}, parallel: parallel, log: zerolog.Nop()}

		report, err := runner.Run(context.Background(), yearlyObservations(t))

		require.Error(t, err, "parallel=%v", parallel)
		assert.Contains(t, err.Error(), "every holding period failed")
		require.NotNil(t, report)
		assert.Empty(t, report.Periods)
		require.Len(t, report.Failed, 2)
		assert.Equal(t, 1, report.Failed[0].Years)
		assert.Equal(t, 3, report.Failed[1].Years)
	}
}

func TestRunner_Run_FailedPeriodDoesNotStopOthers(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		// A zero-year period is rejected by the calculator; NewRunner would refuse it
		runner := &Runner{
			calc:     NewCalculator(zerolog.Nop()),
			periods:  []int{1, 0, 3},
			parallel: parallel,
			log:      zerolog.Nop(),
		}

		report, err := runner.Run(context.Background(), yearlyObservations(t))
		require.NoError(t, err, "parallel=%v", parallel)

		require.Len(t, report.Periods, 2)
		assert.Equal(t, 1, report.Periods[0].Years)
		assert.Equal(t, 3, report.Periods[1].Years)
		require.Len(t, report.Failed, 1)
		assert.Equal(t, 0, report.Failed[0].Years)

		out, err := report.Table()
		require.NoError(t, err)
		assert.True(t, out.Has("Close (1Yr)"))
		assert.True(t, out.Has("Close (3Yr)"))
		assert.False(t, out.Has("To (0Yr)"))
	}
}
