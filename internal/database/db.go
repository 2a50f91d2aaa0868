// Package database provides SQLite connection handling for the input and output databases.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // cgo SQLite driver, registered as "sqlite3"
	_ "modernc.org/sqlite"          // Pure Go SQLite driver, registered as "sqlite"
)

// Driver names accepted by database/sql
const (
	DriverModernc = "sqlite"
	DriverMattn   = "sqlite3"
)

// DatabaseProfile defines how a database is opened
type DatabaseProfile string

const (
	// ProfileSource - read-only access to an existing observation database
	ProfileSource DatabaseProfile = "source"
	// ProfileOutput - single self-contained file, fsync on every commit
	ProfileOutput DatabaseProfile = "output"
	// ProfileStandard - WAL journal for general read/write use
	ProfileStandard DatabaseProfile = "standard"
)

// DB wraps a database connection with its profile and driver
type DB struct {
	conn    *sql.DB
	path    string
	driver  string
	profile DatabaseProfile
	name    string // Database name for logging
}

// Config holds database configuration
type Config struct {
	Path    string
	Driver  string // DriverModernc (default) or DriverMattn
	Profile DatabaseProfile
	Name    string // Friendly name for logging (e.g., "input", "output")
}

// New opens a database. A source database must already exist; any other
// profile creates the file and its directory when missing.
func New(cfg Config) (*DB, error) {
	if cfg.Profile == "" {
		cfg.Profile = ProfileStandard
	}
	if cfg.Driver == "" {
		cfg.Driver = DriverModernc
	}
	if cfg.Driver != DriverModernc && cfg.Driver != DriverMattn {
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	// file: URIs are used as-is (in-memory databases in tests)
	if !strings.HasPrefix(cfg.Path, "file:") {
		absPath, err := filepath.Abs(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve database path to absolute: %w", err)
		}
		cfg.Path = absPath

		if cfg.Profile == ProfileSource {
			if _, err := os.Stat(absPath); err != nil {
				return nil, fmt.Errorf("database %s not found at %s: %w", cfg.Name, absPath, err)
			}
		} else if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	connStr := buildConnectionString(cfg.Path, cfg.Driver, cfg.Profile)

	conn, err := sql.Open(cfg.Driver, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Name, err)
	}

	configureConnectionPool(conn, cfg.Profile)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database %s: %w", cfg.Name, err)
	}

	return &DB{
		conn:    conn,
		path:    cfg.Path,
		driver:  cfg.Driver,
		profile: cfg.Profile,
		name:    cfg.Name,
	}, nil
}

// buildConnectionString creates the driver-specific connection string with profile PRAGMAs
func buildConnectionString(path, driver string, profile DatabaseProfile) string {
	var pragmas [][2]string
	switch profile {
	case ProfileSource:
		// Never touch the journal mode of a database we only read
		pragmas = append(pragmas, [2]string{"query_only", "1"})
	case ProfileOutput:
		// The file is uploaded after the run, keep everything in the main file
		pragmas = append(pragmas,
			[2]string{"journal_mode", "DELETE"},
			[2]string{"synchronous", "FULL"},
		)
	default:
		pragmas = append(pragmas,
			[2]string{"journal_mode", "WAL"},
			[2]string{"synchronous", "NORMAL"},
		)
	}
	pragmas = append(pragmas, [2]string{"busy_timeout", "5000"})

	params := make([]string, 0, len(pragmas))
	for _, p := range pragmas {
		if driver == DriverMattn {
			params = append(params, "_"+p[0]+"="+p[1])
		} else {
			params = append(params, "_pragma="+p[0]+"("+p[1]+")")
		}
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(params, "&")
}

// configureConnectionPool sizes the pool for short batch runs
func configureConnectionPool(conn *sql.DB, profile DatabaseProfile) {
	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxIdleTime(30 * time.Minute)

	// One writer keeps the replace transaction and the upload consistent
	if profile == ProfileOutput {
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
	}
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying sql.DB connection
// Used by repositories to execute queries
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Name returns the database name for logging
func (db *DB) Name() string {
	return db.name
}

// Driver returns the database/sql driver name
func (db *DB) Driver() string {
	return db.driver
}

// Profile returns the database profile
func (db *DB) Profile() DatabaseProfile {
	return db.profile
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// WithTransaction executes a function within a database transaction.
// If the function returns an error or panics, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func WithTransaction(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) (err error) {
	if db == nil {
		return errors.New("database connection is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			err = fmt.Errorf("panic in transaction: %v", p)
		} else if err != nil {
			rollbackErr := tx.Rollback()
			if rollbackErr != nil {
				err = fmt.Errorf("transaction failed: %w (rollback also failed: %v)", err, rollbackErr)
			} else {
				err = fmt.Errorf("transaction failed: %w", err)
			}
		} else if commitErr := tx.Commit(); commitErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", commitErr)
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck pings the database and runs an integrity check
func (db *DB) HealthCheck(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed for %s: %w", db.name, err)
	}

	var integrityResult string
	err := db.conn.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&integrityResult)
	if err != nil {
		return fmt.Errorf("integrity check query failed for %s: %w", db.name, err)
	}
	if integrityResult != "ok" {
		return fmt.Errorf("integrity check failed for %s: %s", db.name, integrityResult)
	}
	return nil
}

// QuickCheck performs a quick health check (just ping, no integrity check)
func (db *DB) QuickCheck(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// SizeBytes returns the size of the database file, 0 for in-memory databases
func (db *DB) SizeBytes() int64 {
	info, err := os.Stat(db.path)
	if err != nil {
		return 0
	}
	return info.Size()
}
