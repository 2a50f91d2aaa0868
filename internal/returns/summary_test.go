package returns

import (
	"context"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	report := &Report{
		Periods: []*PeriodResult{{
			Years: 3,
			Columns: []ColumnResult{
				{
					Name:    "Close",
					Returns: []null.Float{null.FloatFrom(10), null.FloatFrom(20), {}, null.FloatFrom(30)},
				},
				{
					Name:    "Single",
					Returns: []null.Float{{}, null.FloatFrom(-4.5)},
				},
				{
					Name: "Ticker",
					Err:  &ColumnError{Years: 3, Column: "Ticker", Message: "numeric conversion", Cause: ErrNoNumericValues},
				},
			},
		}},
	}

	summaries := Summarize(report)
	require.Len(t, summaries, 2)

	closeStats := summaries[0]
	assert.Equal(t, 3, closeStats.Years)
	assert.Equal(t, "Close", closeStats.Series)
	assert.Equal(t, 3, closeStats.Count)
	assert.InDelta(t, 20.0, closeStats.Mean.Float64, 1e-9)
	assert.InDelta(t, 10.0, closeStats.StdDev.Float64, 1e-9)
	assert.Equal(t, 10.0, closeStats.Min.Float64)
	assert.Equal(t, 20.0, closeStats.Median.Float64)
	assert.Equal(t, 30.0, closeStats.Max.Float64)

	single := summaries[1]
	assert.Equal(t, 1, single.Count)
	assert.False(t, single.StdDev.Valid)
	assert.Equal(t, -4.5, single.Median.Float64)

	out, err := SummaryTable(summaries)
	require.NoError(t, err)
	assert.Equal(t, SummaryColumns, out.Names())
	require.Equal(t, 2, out.Len())

	row := out.Row(0)
	assert.Equal(t, "3Yr", row[0].String)
	assert.Equal(t, "Close", row[1].String)
	assert.Equal(t, "3", row[2].String)
	assert.Equal(t, "20.00%", row[3].String)
	assert.Equal(t, "10.00%", row[4].String)
	assert.Equal(t, "10.00%", row[5].String)
	assert.Equal(t, "20.00%", row[6].String)
	assert.Equal(t, "30.00%", row[7].String)

	assert.False(t, out.Row(1)[4].Valid, "no deviation for a single value")
}

func TestSummarize_EmptyColumn(t *testing.T) {
	report := &Report{
		Periods: []*PeriodResult{{
			Years:   1,
			Columns: []ColumnResult{{Name: "Close", Returns: []null.Float{{}, {}}}},
		}},
	}

	summaries := Summarize(report)
	require.Len(t, summaries, 1)
	assert.Equal(t, 0, summaries[0].Count)
	assert.False(t, summaries[0].Mean.Valid)
	assert.False(t, summaries[0].Max.Valid)
}

func TestSummarize_FromRun(t *testing.T) {
	report, err := newTestRunner(t, []int{1}, false).Run(context.Background(), yearlyObservations(t))
	require.NoError(t, err)

	summaries := Summarize(report)
	require.Len(t, summaries, 2)
	assert.Equal(t, "Close", summaries[0].Series)
	assert.Equal(t, 7, summaries[0].Count)
	assert.Equal(t, 5, summaries[1].Count, "two Open windows touch the missing value")
	assert.LessOrEqual(t, summaries[0].Min.Float64, summaries[0].Median.Float64)
	assert.LessOrEqual(t, summaries[0].Median.Float64, summaries[0].Max.Float64)
}

func TestSummaryTable_Empty(t *testing.T) {
	out, err := SummaryTable(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Len())
	assert.Equal(t, len(SummaryColumns), out.Width())
}
