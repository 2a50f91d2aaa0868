package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/aristath/returns/internal/database"
	"github.com/aristath/returns/internal/table"
	"github.com/aristath/returns/internal/utils"
	"github.com/rs/zerolog"
)

// SinkRepository replaces whole tables with the contents of an in-memory table
type SinkRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSinkRepository creates a new sink repository
func NewSinkRepository(db *sql.DB, log zerolog.Logger) *SinkRepository {
	return &SinkRepository{
		db:  db,
		log: log.With().Str("repo", "sink").Logger(),
	}
}

// Replace drops tableName and recreates it with one TEXT column per table
// column, in order. Invalid cells are stored as NULL. Either the whole table
// is written or the previous contents are kept.
func (r *SinkRepository) Replace(ctx context.Context, tableName string, t *table.Table) error {
	if t.Width() == 0 {
		return errors.New("cannot write a table without columns")
	}

	names := t.Names()
	defs := make([]string, len(names))
	for i, name := range names {
		defs[i] = QuoteIdent(name) + " TEXT"
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")

	quoted := QuoteIdent(tableName)
	done := utils.MeasureDBQuery("replace_"+tableName, r.log)
	err := database.WithTransaction(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoted); err != nil {
			return fmt.Errorf("failed to drop %s: %w", tableName, err)
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", quoted, strings.Join(defs, ", "))); err != nil {
			return fmt.Errorf("failed to create %s: %w", tableName, err)
		}

		stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoted, placeholders))
		if err != nil {
			return fmt.Errorf("failed to prepare insert into %s: %w", tableName, err)
		}
		defer stmt.Close()

		args := make([]interface{}, len(names))
		for i := 0; i < t.Len(); i++ {
			for c, cell := range t.Row(i) {
				if cell.Valid {
					args[c] = cell.String
				} else {
					args[c] = nil
				}
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("failed to insert row %d into %s: %w", i, tableName, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	done(int64(t.Len()))

	r.log.Info().
		Str("table", tableName).
		Int("rows", t.Len()).
		Int("columns", t.Width()).
		Msg("Table replaced")
	return nil
}
