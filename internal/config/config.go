// Package config provides configuration management functionality.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/aristath/returns/internal/database"
	"github.com/aristath/returns/internal/scheduler"
	"github.com/aristath/returns/internal/utils"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir      string // Base directory for relative database paths (always absolute)
	InputDB      string // Observation database (absolute)
	InputTable   string
	DateColumn   string
	OutputDB     string // Result database (absolute)
	OutputTable  string
	SummaryTable string // Empty disables the summary table
	Periods      []int  // Holding periods in years, in output order
	Parallel     bool
	DBDriver     string
	Schedule     string // Cron expression with seconds; empty runs once and exits
	Maintenance  string // Cron expression for output checks and upload rotation in daemon mode
	Port         int    // HTTP API port; 0 disables the API
	LogLevel     string
	LogPretty    bool
	Upload       UploadConfig
}

// UploadConfig holds S3-compatible storage settings for the output database
type UploadConfig struct {
	Bucket          string
	Endpoint        string // Custom endpoint, e.g. https://<account>.r2.cloudflarestorage.com
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
	RetentionDays   int // Uploads older than this are rotated out; 0 keeps everything
}

// Enabled reports whether an upload target is configured
func (u UploadConfig) Enabled() bool {
	return u.Bucket != ""
}

// Daemon reports whether the process keeps running after the first run
func (c *Config) Daemon() bool {
	return c.Schedule != "" || c.Port > 0
}

// Load reads configuration from environment variables. Values from the
// given .env files (or ./.env when none are given) fill in unset variables.
func Load(envFiles ...string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(envFiles...)

	dataDir, err := filepath.Abs(getEnv("RETURNS_DATA_DIR", "."))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	periods, err := utils.ParsePositiveInts(getEnv("RETURNS_PERIODS", "1,3,5,7,10"))
	if err != nil {
		return nil, fmt.Errorf("RETURNS_PERIODS: %w", err)
	}

	cfg := &Config{
		DataDir:      dataDir,
		InputDB:      resolvePath(dataDir, getEnv("RETURNS_INPUT_DB", "database.db")),
		InputTable:   getEnv("RETURNS_INPUT_TABLE", "Sheet1"),
		DateColumn:   getEnv("RETURNS_DATE_COLUMN", "Date"),
		OutputDB:     resolvePath(dataDir, getEnv("RETURNS_OUTPUT_DB", "final.db")),
		OutputTable:  getEnv("RETURNS_OUTPUT_TABLE", "returns"),
		SummaryTable: getEnvAllowEmpty("RETURNS_SUMMARY_TABLE", "returns_summary"),
		Periods:      periods,
		Parallel:     getEnvAsBool("RETURNS_PARALLEL", false),
		DBDriver:     getEnv("RETURNS_DB_DRIVER", database.DriverModernc),
		Schedule:     getEnv("RETURNS_SCHEDULE", ""),
		Maintenance:  getEnv("RETURNS_MAINTENANCE_SCHEDULE", "0 30 3 * * *"),
		Port:         getEnvAsInt("RETURNS_PORT", 0),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogPretty:    getEnvAsBool("LOG_PRETTY", true),
		Upload: UploadConfig{
			Bucket:          getEnv("S3_BUCKET", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			Region:          getEnv("S3_REGION", "auto"),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			Prefix:          getEnv("S3_PREFIX", ""),
			RetentionDays:   getEnvAsInt("S3_RETENTION_DAYS", 30),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	var errs []error

	if c.InputTable == "" {
		errs = append(errs, errors.New("input table name is required"))
	}
	if c.OutputTable == "" {
		errs = append(errs, errors.New("output table name is required"))
	}
	if c.SummaryTable != "" && c.SummaryTable == c.OutputTable {
		errs = append(errs, fmt.Errorf("summary table %q must differ from the output table", c.SummaryTable))
	}
	if c.InputDB == c.OutputDB {
		errs = append(errs, fmt.Errorf("output database %s would overwrite the input database", c.OutputDB))
	}
	if len(c.Periods) == 0 {
		errs = append(errs, errors.New("at least one holding period is required"))
	}
	if c.DBDriver != database.DriverModernc && c.DBDriver != database.DriverMattn {
		errs = append(errs, fmt.Errorf("unsupported database driver %q (want %q or %q)",
			c.DBDriver, database.DriverModernc, database.DriverMattn))
	}
	if c.Schedule != "" {
		if err := scheduler.ValidateSchedule(c.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("invalid RETURNS_SCHEDULE %q: %w", c.Schedule, err))
		}
	}
	if c.Maintenance != "" {
		if err := scheduler.ValidateSchedule(c.Maintenance); err != nil {
			errs = append(errs, fmt.Errorf("invalid RETURNS_MAINTENANCE_SCHEDULE %q: %w", c.Maintenance, err))
		}
	}
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Port))
	}
	if c.Upload.RetentionDays < 0 {
		errs = append(errs, fmt.Errorf("invalid upload retention %d days", c.Upload.RetentionDays))
	}
	if c.Upload.Enabled() && (c.Upload.AccessKeyID == "") != (c.Upload.SecretAccessKey == "") {
		errs = append(errs, errors.New("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY must be set together"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func resolvePath(dir, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(dir, path)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAllowEmpty distinguishes an explicitly empty variable from an unset one
func getEnvAllowEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
