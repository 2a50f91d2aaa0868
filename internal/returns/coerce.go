package returns

import (
	"math"
	"strconv"
	"strings"

	"github.com/guregu/null/v6"
)

// ParseNumber reads a numeric cell. Thousands separators are stripped; empty,
// non-numeric, NaN and infinite values are reported as missing.
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// CoerceSeries converts raw cells to optional numbers. It fails with
// ErrNoNumericValues when not a single cell is numeric.
func CoerceSeries(raw []null.String) ([]null.Float, error) {
	values := make([]null.Float, len(raw))
	found := 0
	for i, cell := range raw {
		if !cell.Valid {
			continue
		}
		if v, ok := ParseNumber(cell.String); ok {
			values[i] = null.FloatFrom(v)
			found++
		}
	}
	if found == 0 {
		return values, ErrNoNumericValues
	}
	return values, nil
}
