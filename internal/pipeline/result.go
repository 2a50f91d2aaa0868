package pipeline

import (
	"encoding/json"
	"time"

	"github.com/aristath/returns/internal/reliability"
	"github.com/aristath/returns/internal/returns"
)

// Status is the outcome of a run
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	// StatusPartial means results were written but some periods, columns or the upload failed
	StatusPartial Status = "partial"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// PeriodStat summarizes one holding period of a run
type PeriodStat struct {
	Years          int      `json:"years"`
	Rows           int      `json:"rows"`
	DroppedRows    int      `json:"dropped_rows"`
	SpanYears      float64  `json:"span_years"`
	ColumnFailures []string `json:"column_failures,omitempty"`
	Error          string   `json:"error,omitempty"`
}

// RunResult describes one run
type RunResult struct {
	ID          string                  `json:"id"`
	Trigger     string                  `json:"trigger"`
	Status      Status                  `json:"status"`
	StartedAt   time.Time               `json:"started_at"`
	Duration    time.Duration           `json:"-"`
	InputRows   int                     `json:"input_rows"`
	OutputRows  int                     `json:"output_rows"`
	Periods     []PeriodStat            `json:"periods"`
	Upload      *reliability.UploadInfo `json:"upload,omitempty"`
	UploadError string                  `json:"upload_error,omitempty"`
	Error       string                  `json:"error,omitempty"`
}

// MarshalJSON adds the duration in milliseconds
func (r RunResult) MarshalJSON() ([]byte, error) {
	type plain RunResult
	return json.Marshal(struct {
		plain
		DurationMS int64 `json:"duration_ms"`
	}{plain(r), r.Duration.Milliseconds()})
}

func periodStats(report *returns.Report) []PeriodStat {
	stats := make([]PeriodStat, 0, len(report.Periods)+len(report.Failed))
	for _, p := range report.Periods {
		stat := PeriodStat{
			Years:       p.Years,
			Rows:        p.Len(),
			DroppedRows: p.DroppedRows,
			SpanYears:   p.SpanYears,
		}
		for _, f := range p.ColumnFailures() {
			stat.ColumnFailures = append(stat.ColumnFailures, f.Error())
		}
		stats = append(stats, stat)
	}
	for _, f := range report.Failed {
		stats = append(stats, PeriodStat{Years: f.Years, Error: f.Error()})
	}
	return stats
}
