package returns

import (
	"fmt"
	"time"

	"github.com/aristath/returns/internal/table"
	"github.com/guregu/null/v6"
)

// DefaultDateColumn is the name of the date column in the source table
const DefaultDateColumn = "Date"

// Observations is a source table normalized for return computation:
// dates parsed and rows stable-sorted ascending by date. It is read-only
// once built; Clone gives a period its own copy.
type Observations struct {
	dateColumn string
	dates      []time.Time
	rows       *table.Table
}

// NewObservations parses the date column and sorts the rows by date.
// Every row must carry a readable date.
func NewObservations(t *table.Table, dateColumn string) (*Observations, error) {
	if dateColumn == "" {
		dateColumn = DefaultDateColumn
	}

	if !t.Has(dateColumn) {
		return nil, fmt.Errorf("date column %q not found in %v", dateColumn, t.Names())
	}
	raw, err := t.Column(dateColumn)
	if err != nil {
		return nil, fmt.Errorf("date column: %w", err)
	}

	parsed := make([]time.Time, len(raw))
	for i, cell := range raw {
		if !cell.Valid || cell.String == "" {
			return nil, &DateError{Column: dateColumn, Row: i}
		}
		d, err := ParseDate(cell.String)
		if err != nil {
			return nil, &DateError{Column: dateColumn, Row: i, Value: cell.String, Cause: err}
		}
		parsed[i] = d
	}

	order := table.StableOrder(len(parsed), func(i, j int) bool {
		return parsed[i].Before(parsed[j])
	})
	sorted, err := t.Take(order)
	if err != nil {
		return nil, fmt.Errorf("sort by date: %w", err)
	}

	dates := make([]time.Time, len(order))
	for k, i := range order {
		dates[k] = parsed[i]
	}

	return &Observations{
		dateColumn: dateColumn,
		dates:      dates,
		rows:       sorted,
	}, nil
}

// Len returns the number of rows
func (o *Observations) Len() int {
	return len(o.dates)
}

// Dates returns the sorted dates. Callers must not modify the slice.
func (o *Observations) Dates() []time.Time {
	return o.dates
}

// DateColumn returns the name of the date column
func (o *Observations) DateColumn() string {
	return o.dateColumn
}

// SeriesNames returns every non-date column in source order
func (o *Observations) SeriesNames() []string {
	names := make([]string, 0, o.rows.Width())
	for _, name := range o.rows.Names() {
		if name != o.dateColumn {
			names = append(names, name)
		}
	}
	return names
}

// Raw returns the unparsed cells of a series in date order
func (o *Observations) Raw(name string) ([]null.String, error) {
	return o.rows.Column(name)
}

// Span returns the years between the first and last date
func (o *Observations) Span() float64 {
	if len(o.dates) == 0 {
		return 0
	}
	return float64(ElapsedDays(o.dates[0], o.dates[len(o.dates)-1])) / DaysPerYear
}

// Clone returns an independent deep copy
func (o *Observations) Clone() *Observations {
	dates := make([]time.Time, len(o.dates))
	copy(dates, o.dates)
	return &Observations{
		dateColumn: o.dateColumn,
		dates:      dates,
		rows:       o.rows.Clone(),
	}
}
