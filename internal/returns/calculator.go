package returns

import (
	"fmt"
	"math"
	"strconv"

	"github.com/aristath/returns/internal/table"
	"github.com/guregu/null/v6"
	"github.com/rs/zerolog"
)

// MinimumWindowRatio is the smallest realized window, as a fraction of the
// requested period, that still gets an annualized value
const MinimumWindowRatio = 0.5

// Skip tells why a cell has no annualized return
type Skip int

const (
	SkipNone Skip = iota
	SkipUnmatched
	SkipMissing
	SkipZeroStart
	SkipNonPositiveSpan
	SkipPeriodTooShort
	SkipUndefined
)

func (s Skip) String() string {
	switch s {
	case SkipNone:
		return "none"
	case SkipUnmatched:
		return "unmatched"
	case SkipMissing:
		return "missing_value"
	case SkipZeroStart:
		return "zero_start"
	case SkipNonPositiveSpan:
		return "non_positive_span"
	case SkipPeriodTooShort:
		return "period_too_short"
	case SkipUndefined:
		return "undefined"
	}
	return "unknown"
}

// AnnualizedReturn converts the move from start to end over days into a
// compound annual rate in percent
func AnnualizedReturn(start, end null.Float, days int64, years int) (float64, Skip) {
	if !start.Valid || !end.Valid {
		return 0, SkipMissing
	}
	if start.Float64 == 0 {
		return 0, SkipZeroStart
	}
	totalReturn := end.Float64/start.Float64 - 1
	if days <= 0 {
		return 0, SkipNonPositiveSpan
	}
	actualYears := float64(days) / DaysPerYear
	if actualYears < float64(years)*MinimumWindowRatio {
		return 0, SkipPeriodTooShort
	}
	pct := (math.Pow(1+totalReturn, 1/actualYears) - 1) * 100
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return 0, SkipUndefined
	}
	return pct, SkipNone
}

// FormatPercent renders a percentage with two decimals and a trailing %
func FormatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + "%"
}

// ToHeader is the name of the aligned end-date column for a period
func ToHeader(years int) string {
	return fmt.Sprintf("To (%dYr)", years)
}

// SeriesHeader is the name of a series' return column for a period, e.g. "SPX (5Yr)".
// There is no leading space before the series name.
func SeriesHeader(name string, years int) string {
	return fmt.Sprintf("%s (%dYr)", name, years)
}

// FromHeader is the name of the start-date column
const FromHeader = "From"

// ColumnResult holds one series' returns for one period
type ColumnResult struct {
	Name    string
	Returns []null.Float
	Cells   []string
	Skipped map[Skip]int
	Err     *ColumnError
}

// Failed reports whether the column could not be computed
func (c ColumnResult) Failed() bool {
	return c.Err != nil
}

// PeriodResult holds the aligned rows of one holding period. Rows without a
// match have already been dropped.
type PeriodResult struct {
	Years       int
	From        []string
	To          []string
	Columns     []ColumnResult
	InputRows   int
	DroppedRows int
	SpanYears   float64
}

// Len returns the number of retained rows
func (p *PeriodResult) Len() int {
	return len(p.From)
}

// ColumnFailures lists the columns that could not be computed
func (p *PeriodResult) ColumnFailures() []*ColumnError {
	var failures []*ColumnError
	for _, c := range p.Columns {
		if c.Err != nil {
			failures = append(failures, c.Err)
		}
	}
	return failures
}

// Table renders the period as From, To (NYr) and one column per series
func (p *PeriodResult) Table() (*table.Table, error) {
	columns := make([]table.Column, 0, len(p.Columns)+2)
	columns = append(columns,
		table.Column{Name: FromHeader, Values: textCells(p.From)},
		table.Column{Name: ToHeader(p.Years), Values: textCells(p.To)},
	)
	for _, c := range p.Columns {
		columns = append(columns, table.Column{Name: SeriesHeader(c.Name, p.Years), Values: textCells(c.Cells)})
	}
	return table.FromColumns(columns...)
}

func textCells(values []string) []null.String {
	out := make([]null.String, len(values))
	for i, v := range values {
		out[i] = null.StringFrom(v)
	}
	return out
}

// Calculator computes the trailing annualized returns of one holding period
type Calculator struct {
	log zerolog.Logger
}

// NewCalculator creates a calculator
func NewCalculator(log zerolog.Logger) *Calculator {
	return &Calculator{
		log: log.With().Str("component", "period_calculator").Logger(),
	}
}

// ComputePeriod aligns every row with the observation closest to years later
// and annualizes the move of every series column over that window
func (c *Calculator) ComputePeriod(obs *Observations, years int) (*PeriodResult, error) {
	if years <= 0 {
		return nil, &PeriodError{Years: years, Message: "holding period must be positive"}
	}

	log := c.log.With().Int("years", years).Logger()
	dates := obs.Dates()
	n := len(dates)

	span := obs.Span()
	if n > 0 && span < float64(years) {
		log.Warn().
			Float64("span_years", span).
			Msgf("Data only spans %.2f years, which is less than the requested %d years", span, years)
	}

	ends := make([]int, n)
	for i := range dates {
		j, ok := Locate(dates, AddYears(dates[i], years), i)
		if !ok {
			j = -1
		}
		ends[i] = j
	}

	columns := make([]ColumnResult, 0, len(obs.SeriesNames()))
	for _, name := range obs.SeriesNames() {
		col := c.computeColumn(years, name, obs, ends)
		if col.Err != nil {
			log.Warn().
				Err(col.Err).
				Str("column", name).
				Msg("Column could not be processed, emitting empty values")
		} else {
			log.Debug().
				Str("column", name).
				Interface("skipped", skipCounts(col.Skipped)).
				Msg("Column processed")
		}
		columns = append(columns, col)
	}

	kept := make([]int, 0, n)
	for i, j := range ends {
		if j >= 0 {
			kept = append(kept, i)
		}
	}

	result := &PeriodResult{
		Years:       years,
		From:        make([]string, len(kept)),
		To:          make([]string, len(kept)),
		Columns:     make([]ColumnResult, len(columns)),
		InputRows:   n,
		DroppedRows: n - len(kept),
		SpanYears:   span,
	}
	for k, i := range kept {
		result.From[k] = FormatDate(dates[i])
		result.To[k] = FormatDate(dates[ends[i]])
	}
	for ci, col := range columns {
		filtered := ColumnResult{
			Name:    col.Name,
			Returns: make([]null.Float, len(kept)),
			Cells:   make([]string, len(kept)),
			Skipped: col.Skipped,
			Err:     col.Err,
		}
		for k, i := range kept {
			filtered.Returns[k] = col.Returns[i]
			filtered.Cells[k] = col.Cells[i]
		}
		result.Columns[ci] = filtered
	}

	if result.DroppedRows > 0 {
		log.Info().
			Int("dropped_rows", result.DroppedRows).
			Msgf("Removed %d rows with no valid 'To' date for %d year period", result.DroppedRows, years)
	}

	return result, nil
}

// computeColumn fills one series column. A panic is confined to the column.
func (c *Calculator) computeColumn(years int, name string, obs *Observations, ends []int) (col ColumnResult) {
	n := len(ends)
	col = emptyColumn(name, n)

	defer func() {
		if p := recover(); p != nil {
			col = emptyColumn(name, n)
			col.Err = &ColumnError{
				Years:   years,
				Column:  name,
				Message: "unexpected failure",
				Cause:   fmt.Errorf("panic: %v", p),
			}
		}
	}()

	raw, err := obs.Raw(name)
	if err != nil {
		col.Err = &ColumnError{Years: years, Column: name, Message: "read column", Cause: err}
		return col
	}

	series, err := CoerceSeries(raw)
	if err != nil {
		col.Err = &ColumnError{Years: years, Column: name, Message: "numeric conversion", Cause: err}
		return col
	}

	dates := obs.Dates()
	for i, j := range ends {
		if j < 0 {
			col.Skipped[SkipUnmatched]++
			continue
		}
		pct, skip := AnnualizedReturn(series[i], series[j], ElapsedDays(dates[i], dates[j]), years)
		if skip != SkipNone {
			col.Skipped[skip]++
			continue
		}
		col.Returns[i] = null.FloatFrom(pct)
		col.Cells[i] = FormatPercent(pct)
	}
	return col
}

func emptyColumn(name string, n int) ColumnResult {
	return ColumnResult{
		Name:    name,
		Returns: make([]null.Float, n),
		Cells:   make([]string, n),
		Skipped: make(map[Skip]int),
	}
}

func skipCounts(skipped map[Skip]int) map[string]int {
	out := make(map[string]int, len(skipped))
	for k, v := range skipped {
		out[k.String()] = v
	}
	return out
}
