package returns

import (
	"fmt"
	"strings"
	"time"
)

// DisplayLayout is the month/day/year layout used for From and To cells
const DisplayLayout = "01/02/2006"

// DaysPerYear converts elapsed days into fractional years
const DaysPerYear = 365.25

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006-1-2",
	"2006/01/02",
	"1/2/2006",
	"1/2/2006 15:04:05",
}

// ParseDate reads a date in any of the accepted layouts. Dates without a zone are UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", s)
}

// FormatDate renders a date for the report
func FormatDate(t time.Time) string {
	return t.Format(DisplayLayout)
}

// AddYears shifts t by whole calendar years keeping month, day and time of day.
// Feb 29 maps to Feb 28 when the target year is not a leap year.
func AddYears(t time.Time, years int) time.Time {
	year, month, day := t.Date()
	year += years
	if month == time.February && day == 29 && !isLeap(year) {
		day = 28
	}
	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// ElapsedDays counts whole days from start to end, rounding toward negative infinity
func ElapsedDays(start, end time.Time) int64 {
	d := end.Sub(start)
	days := int64(d / (24 * time.Hour))
	if d < 0 && d%(24*time.Hour) != 0 {
		days--
	}
	return days
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
