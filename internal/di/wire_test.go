package di

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aristath/returns/internal/config"
	"github.com/aristath/returns/internal/database"
	"github.com/aristath/returns/internal/pipeline"
	testingpkg "github.com/aristath/returns/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		DataDir:      dir,
		InputDB:      filepath.Join(dir, "database.db"),
		InputTable:   "Sheet1",
		DateColumn:   "Date",
		OutputDB:     filepath.Join(dir, "out", "final.db"),
		OutputTable:  "returns",
		SummaryTable: "returns_summary",
		Periods:      []int{1, 3},
		DBDriver:     database.DriverModernc,
		Maintenance:  "0 30 3 * * *",
	}
	testingpkg.WriteSourceDB(t, cfg.InputDB, cfg.InputTable, testingpkg.ObservationColumns, testingpkg.ObservationRows())
	return cfg
}

func TestWire(t *testing.T) {
	cfg := testConfig(t)

	container, jobs, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(container.Close)

	// One-shot mode registers nothing
	assert.Nil(t, jobs)
	assert.Nil(t, container.Scheduler)

	assert.NotNil(t, container.SourceRepo)
	assert.NotNil(t, container.SinkRepo)
	assert.Equal(t, []int{1, 3}, container.Runner.Periods())
	assert.Nil(t, container.Uploader)
	assert.Equal(t, database.ProfileSource, container.InputDB.Profile())
	assert.Equal(t, database.ProfileOutput, container.OutputDB.Profile())

	result, err := container.Pipeline.Run(context.Background(), "startup")
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusSucceeded, result.Status)
	assert.Nil(t, result.Upload)

	var count int
	err = container.OutputDB.Conn().QueryRow(`SELECT COUNT(*) FROM "returns"`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 8, count)

	_, err = os.Stat(filepath.Join(cfg.DataDir, "out", "final.db"))
	assert.NoError(t, err)
}

func TestWire_Daemon(t *testing.T) {
	cfg := testConfig(t)
	cfg.Schedule = "0 0 18 * * MON-FRI"
	cfg.Upload = config.UploadConfig{
		Bucket:          "returns",
		Endpoint:        "http://localhost:9000",
		Region:          "auto",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		RetentionDays:   30,
	}

	container, jobs, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(container.Close)

	require.NotNil(t, jobs)
	assert.NotNil(t, jobs.Returns)
	assert.NotNil(t, jobs.Maintenance)
	assert.Equal(t, "compute_returns", jobs.Returns.Name())
	require.NotNil(t, container.Scheduler)
	assert.NotNil(t, container.Uploader)
	assert.NotNil(t, container.ObjectStore)

	container.Scheduler.Start()
	defer container.Scheduler.Stop()
	_, ok := container.Scheduler.NextRun(jobs.Returns.Name())
	assert.True(t, ok)
}

func TestWire_MissingInput(t *testing.T) {
	cfg := testConfig(t)
	cfg.InputDB = filepath.Join(cfg.DataDir, "missing.db")

	_, _, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, statErr := os.Stat(filepath.Join(cfg.DataDir, "out", "final.db"))
	assert.True(t, os.IsNotExist(statErr), "output database must not be created")
}

func TestWire_BadSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.Schedule = "every day"

	_, _, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compute_returns")
}

func TestInitializeRepositories_RequiresDatabases(t *testing.T) {
	err := InitializeRepositories(&Container{}, zerolog.Nop())
	assert.Error(t, err)
}
