package returns

import (
	"errors"
	"fmt"
)

var (
	// ErrInputEmpty is returned when the source table has no rows
	ErrInputEmpty = errors.New("input table has no rows")

	// ErrNoNumericValues marks a column where no cell could be read as a number
	ErrNoNumericValues = errors.New("column has no numeric values")

	// ErrNoPeriods is returned when a runner is built without holding periods
	ErrNoPeriods = errors.New("no holding periods configured")
)

// ColumnError reports a failure confined to one series column of one period
type ColumnError struct {
	Years   int
	Column  string
	Message string
	Cause   error
}

func (e *ColumnError) Error() string {
	msg := fmt.Sprintf("column '%s' (%dYr): %s", e.Column, e.Years, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ColumnError) Unwrap() error {
	return e.Cause
}

// PeriodError reports a failure that aborted one holding period
type PeriodError struct {
	Years   int
	Message string
	Cause   error
}

func (e *PeriodError) Error() string {
	msg := fmt.Sprintf("%d year period: %s", e.Years, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *PeriodError) Unwrap() error {
	return e.Cause
}

// DateError reports a date cell that could not be interpreted
type DateError struct {
	Column string
	Row    int
	Value  string
	Cause  error
}

func (e *DateError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("column '%s' row %d: missing date", e.Column, e.Row)
	}
	return fmt.Sprintf("column '%s' row %d: invalid date %q", e.Column, e.Row, e.Value)
}

func (e *DateError) Unwrap() error {
	return e.Cause
}
