// Package utils holds small helpers shared across packages: operation timers and list parsing.
package utils

import (
	"time"

	"github.com/rs/zerolog"
)

// SlowOperationThreshold is the duration after which a finished operation is logged as a warning
const SlowOperationThreshold = 30 * time.Second

// SlowQueryThreshold is the duration after which a table load or write is logged as a warning
const SlowQueryThreshold = 5 * time.Second

// Timer measures how long a named operation (a run, a period) takes
type Timer struct {
	start time.Time
	name  string
	log   zerolog.Logger
	now   func() time.Time
}

// NewTimer starts a timer
func NewTimer(name string, log zerolog.Logger) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
		log:   log,
		now:   time.Now,
	}
}

// Elapsed returns the time since the timer was created without logging
func (t *Timer) Elapsed() time.Duration {
	return t.now().Sub(t.start)
}

// Stop logs the duration and returns it
func (t *Timer) Stop() time.Duration {
	return t.StopWithFields(nil)
}

// StopWithFields logs the duration together with fields. Operations slower
// than SlowOperationThreshold are logged at warn level.
func (t *Timer) StopWithFields(fields map[string]interface{}) time.Duration {
	duration := t.Elapsed()

	event := t.log.Info()
	if duration > SlowOperationThreshold {
		event = t.log.Warn()
	}
	if len(fields) > 0 {
		event = event.Fields(fields)
	}

	event.
		Str("operation", t.name).
		Dur("duration_ms", duration).
		Float64("duration_seconds", duration.Seconds()).
		Msg("Operation completed")

	return duration
}

// MeasureDBQuery starts timing a table load or write. Call the returned
// function with the number of rows read or written.
func MeasureDBQuery(queryName string, log zerolog.Logger) func(rows int64) {
	start := time.Now()

	return func(rows int64) {
		duration := time.Since(start)

		event := log.Debug()
		msg := "Database query completed"
		if duration > SlowQueryThreshold {
			event = log.Warn()
			msg = "Slow database query detected"
		}
		event.
			Str("query", queryName).
			Dur("duration_ms", duration).
			Int64("rows", rows).
			Msg(msg)
	}
}
