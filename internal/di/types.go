// Package di wires databases, repositories, services and jobs together.
package di

import (
	"github.com/aristath/returns/internal/database"
	"github.com/aristath/returns/internal/pipeline"
	"github.com/aristath/returns/internal/reliability"
	"github.com/aristath/returns/internal/returns"
	"github.com/aristath/returns/internal/scheduler"
	"github.com/aristath/returns/internal/store"
)

// Container holds every long-lived dependency of the process
type Container struct {
	// Databases
	InputDB  *database.DB
	OutputDB *database.DB

	// Repositories
	SourceRepo *store.SourceRepository
	SinkRepo   *store.SinkRepository

	// Computation
	Calculator *returns.Calculator
	Runner     *returns.Runner

	// Upload (nil when no bucket is configured)
	ObjectStore reliability.ObjectStore
	Uploader    *reliability.OutputUploader

	Pipeline *pipeline.Service

	// Scheduler is set by RegisterJobs
	Scheduler *scheduler.Scheduler
}

// JobInstances holds the registered scheduled jobs. A job is nil when its schedule is empty.
type JobInstances struct {
	Returns     *scheduler.ReturnsJob
	Maintenance *scheduler.MaintenanceJob
}

// Close closes both databases
func (c *Container) Close() {
	if c.InputDB != nil {
		c.InputDB.Close()
	}
	if c.OutputDB != nil {
		c.OutputDB.Close()
	}
}
