package returns

import (
	"sort"
	"strconv"

	"github.com/aristath/returns/internal/table"
	"github.com/guregu/null/v6"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SummaryColumns are the headers of the summary table
var SummaryColumns = []string{"Period", "Series", "Count", "Mean", "StdDev", "Min", "Median", "Max"}

// SeriesSummary describes the distribution of one series' annualized returns in one period
type SeriesSummary struct {
	Years  int
	Series string
	Count  int
	Mean   null.Float
	StdDev null.Float
	Min    null.Float
	Median null.Float
	Max    null.Float
}

// Summarize computes distribution statistics for every computed series of every period.
// Failed columns are left out.
func Summarize(report *Report) []SeriesSummary {
	var out []SeriesSummary
	for _, p := range report.Periods {
		for _, c := range p.Columns {
			if c.Failed() {
				continue
			}
			out = append(out, summarizeColumn(p.Years, c))
		}
	}
	return out
}

func summarizeColumn(years int, c ColumnResult) SeriesSummary {
	values := make([]float64, 0, len(c.Returns))
	for _, v := range c.Returns {
		if v.Valid {
			values = append(values, v.Float64)
		}
	}

	s := SeriesSummary{Years: years, Series: c.Name, Count: len(values)}
	if len(values) == 0 {
		return s
	}

	sort.Float64s(values)
	s.Mean = null.FloatFrom(stat.Mean(values, nil))
	s.Min = null.FloatFrom(floats.Min(values))
	s.Max = null.FloatFrom(floats.Max(values))
	s.Median = null.FloatFrom(stat.Quantile(0.5, stat.Empirical, values, nil))
	if len(values) > 1 {
		s.StdDev = null.FloatFrom(stat.StdDev(values, nil))
	}
	return s
}

// SummaryTable renders summaries with percentages formatted like the report
func SummaryTable(summaries []SeriesSummary) (*table.Table, error) {
	t, err := table.New(SummaryColumns...)
	if err != nil {
		return nil, err
	}
	for _, s := range summaries {
		err := t.AppendRow(
			null.StringFrom(strconv.Itoa(s.Years)+"Yr"),
			null.StringFrom(s.Series),
			null.StringFrom(strconv.Itoa(s.Count)),
			percentCell(s.Mean),
			percentCell(s.StdDev),
			percentCell(s.Min),
			percentCell(s.Median),
			percentCell(s.Max),
		)
		if err != nil {
			return nil, err
		}
	}
	return t, nil
}

func percentCell(v null.Float) null.String {
	if !v.Valid {
		return null.String{}
	}
	return null.StringFrom(FormatPercent(v.Float64))
}
