package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/returns/internal/pipeline"
	"github.com/aristath/returns/internal/returns"
)

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// HealthResponse is returned by /health
type HealthResponse struct {
	Status        string              `json:"status"`
	Running       bool                `json:"running"`
	UptimeSeconds int64               `json:"uptime_seconds"`
	OutputDB      string              `json:"output_db"`
	OutputBytes   int64               `json:"output_bytes"`
	LastRun       *pipeline.RunResult `json:"last_run,omitempty"`
	NextRun       *time.Time          `json:"next_run,omitempty"`
}

// handleHealth reports service health. An unreachable output database makes it 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:        "healthy",
		Running:       s.runs.Running(),
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		OutputDB:      "ok",
	}
	status := http.StatusOK

	if s.outputDB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.outputDB.QuickCheck(ctx); err != nil {
			resp.Status = "unhealthy"
			resp.OutputDB = err.Error()
			status = http.StatusServiceUnavailable
		}
		resp.OutputBytes = s.outputDB.SizeBytes()
	}

	if last, ok := s.runs.Last(); ok {
		resp.LastRun = &last
	}
	if s.scheduler != nil {
		if next, ok := s.scheduler.NextRun(s.jobName); ok {
			resp.NextRun = &next
		}
	}

	s.writeJSON(w, status, resp)
}

// handleListRuns returns recent runs, newest first
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":    s.runs.History(),
		"running": s.runs.Running(),
	})
}

// handleLatestRun returns the most recent run
func (s *Server) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	last, ok := s.runs.Last()
	if !ok {
		s.writeError(w, http.StatusNotFound, "no runs yet")
		return
	}
	s.writeJSON(w, http.StatusOK, last)
}

// handleTriggerRun starts a run. With ?async=true it returns 202 right away,
// otherwise it waits and returns the result.
func (s *Server) handleTriggerRun(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("async") == "true" {
		if err := s.runs.Start("api"); err != nil {
			s.writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
		return
	}

	result, err := s.runs.Run(r.Context(), "api")
	switch {
	case errors.Is(err, pipeline.ErrRunInProgress):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, returns.ErrInputEmpty):
		s.writeJSON(w, http.StatusOK, result)
	case err != nil && result != nil:
		s.writeJSON(w, http.StatusInternalServerError, result)
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	default:
		s.writeJSON(w, http.StatusOK, result)
	}
}

// SystemStatsResponse is returned by /api/system/stats
type SystemStatsResponse struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsedMB  uint64  `json:"memory_used_mb"`
	Goroutines    int     `json:"goroutines"`
	HeapAllocMB   uint64  `json:"heap_alloc_mb"`
}

// handleSystemStats reports host CPU and memory usage
func (s *Server) handleSystemStats(w http.ResponseWriter, r *http.Request) {
	resp := SystemStatsResponse{Goroutines: runtime.NumGoroutine()}

	// 100ms sample keeps the endpoint responsive
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get CPU percentage")
	} else if len(cpuPercent) > 0 {
		resp.CPUPercent = cpuPercent[0]
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get memory statistics")
	} else {
		resp.MemoryPercent = memStat.UsedPercent
		resp.MemoryUsedMB = memStat.Used / 1024 / 1024
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	resp.HeapAllocMB = ms.HeapAlloc / 1024 / 1024

	s.writeJSON(w, http.StatusOK, resp)
}
