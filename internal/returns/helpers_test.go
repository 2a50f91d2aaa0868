package returns

import (
	"testing"
	"time"

	"github.com/aristath/returns/internal/table"
	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/require"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// buildTable makes a source table from a date column and named series columns
func buildTable(t *testing.T, dates []string, series map[string][]string, order ...string) *table.Table {
	t.Helper()
	columns := []table.Column{{Name: "Date", Values: cellsOf(dates)}}
	for _, name := range order {
		columns = append(columns, table.Column{Name: name, Values: cellsOf(series[name])})
	}
	tbl, err := table.FromColumns(columns...)
	require.NoError(t, err)
	return tbl
}

func cellsOf(values []string) []null.String {
	out := make([]null.String, len(values))
	for i, v := range values {
		if v == "<null>" {
			continue
		}
		out[i] = null.StringFrom(v)
	}
	return out
}

func buildObservations(t *testing.T, dates []string, series map[string][]string, order ...string) *Observations {
	t.Helper()
	obs, err := NewObservations(buildTable(t, dates, series, order...), "Date")
	require.NoError(t, err)
	return obs
}
