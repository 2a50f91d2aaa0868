// Package store reads observation tables from and writes result tables to SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/returns/internal/table"
	"github.com/aristath/returns/internal/utils"
	"github.com/guregu/null/v6"
	"github.com/rs/zerolog"
)

// ErrTableNotFound is returned when the requested table does not exist
var ErrTableNotFound = errors.New("table not found")

// DateTimeLayout is used for values the driver hands back as time.Time
const DateTimeLayout = "2006-01-02 15:04:05"

// SourceRepository loads whole tables as text cells
type SourceRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSourceRepository creates a new source repository
func NewSourceRepository(db *sql.DB, log zerolog.Logger) *SourceRepository {
	return &SourceRepository{
		db:  db,
		log: log.With().Str("repo", "source").Logger(),
	}
}

// Load reads every row of tableName in storage order. Every value is
// converted to text; NULL becomes an invalid cell.
func (r *SourceRepository) Load(ctx context.Context, tableName string) (*table.Table, error) {
	exists, err := tableExists(ctx, r.db, tableName)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, tableName)
	}

	done := utils.MeasureDBQuery("load_"+tableName, r.log)
	rows, err := r.db.QueryContext(ctx, "SELECT * FROM "+QuoteIdent(tableName))
	if err != nil {
		return nil, fmt.Errorf("failed to query table %s: %w", tableName, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", tableName, err)
	}

	out, err := table.New(names...)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", tableName, err)
	}

	values := make([]interface{}, len(names))
	ptrs := make([]interface{}, len(names))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row %d of %s: %w", out.Len(), tableName, err)
		}
		cells := make([]null.String, len(values))
		for i, v := range values {
			cells[i] = toCell(v)
		}
		if err := out.AppendRow(cells...); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows of %s: %w", tableName, err)
	}
	done(int64(out.Len()))

	r.log.Debug().
		Str("table", tableName).
		Int("rows", out.Len()).
		Int("columns", out.Width()).
		Msg("Table loaded")

	return out, nil
}

// toCell renders a scanned SQLite value as text
func toCell(v interface{}) null.String {
	switch x := v.(type) {
	case nil:
		return null.String{}
	case string:
		return null.StringFrom(x)
	case []byte:
		return null.StringFrom(string(x))
	case int64:
		return null.StringFrom(strconv.FormatInt(x, 10))
	case float64:
		return null.StringFrom(strconv.FormatFloat(x, 'f', -1, 64))
	case bool:
		if x {
			return null.StringFrom("1")
		}
		return null.StringFrom("0")
	case time.Time:
		return null.StringFrom(x.Format(DateTimeLayout))
	default:
		return null.StringFrom(fmt.Sprint(x))
	}
}

func tableExists(ctx context.Context, db *sql.DB, tableName string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type IN ('table', 'view') AND name = ?",
		tableName,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to look up table %s: %w", tableName, err)
	}
	return n > 0, nil
}

// QuoteIdent quotes an SQLite identifier
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
