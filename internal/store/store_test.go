package store

import (
	"context"
	"errors"
	"testing"

	"github.com/aristath/returns/internal/table"
	testingpkg "github.com/aristath/returns/internal/testing"
	"github.com/guregu/null/v6"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceRepository_Load(t *testing.T) {
	db, cleanup := testingpkg.NewTestDBWithSchema(t, "source", `
		CREATE TABLE "Sheet1" ("Date", "Close", "Volume", "Note");
		INSERT INTO "Sheet1" VALUES ('2020-01-02', 3257.85, 120, NULL);
		INSERT INTO "Sheet1" VALUES ('2019-01-02', '2,510.03', 98, 'holiday');
	`)
	defer cleanup()

	repo := NewSourceRepository(db.Conn(), zerolog.Nop())
	tbl, err := repo.Load(context.Background(), "Sheet1")
	require.NoError(t, err)

	assert.Equal(t, []string{"Date", "Close", "Volume", "Note"}, tbl.Names())
	require.Equal(t, 2, tbl.Len())

	first := tbl.Row(0)
	assert.Equal(t, "2020-01-02", first[0].String)
	assert.Equal(t, "3257.85", first[1].String)
	assert.Equal(t, "120", first[2].String)
	assert.False(t, first[3].Valid)

	second := tbl.Row(1)
	assert.Equal(t, "2,510.03", second[1].String)
	assert.Equal(t, "holiday", second[3].String)
}

func TestSourceRepository_LoadQuotedName(t *testing.T) {
	db, cleanup := testingpkg.NewTestDBWithSchema(t, "quoted", `
		CREATE TABLE "weird ""name""" ("Date", "S&P 500");
		INSERT INTO "weird ""name""" VALUES ('2020-01-02', 1);
	`)
	defer cleanup()

	tbl, err := NewSourceRepository(db.Conn(), zerolog.Nop()).Load(context.Background(), `weird "name"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "S&P 500"}, tbl.Names())
	assert.Equal(t, 1, tbl.Len())
}

func TestSourceRepository_LoadMissingTable(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "empty")
	defer cleanup()

	_, err := NewSourceRepository(db.Conn(), zerolog.Nop()).Load(context.Background(), "Sheet1")
	assert.True(t, errors.Is(err, ErrTableNotFound))
}

func TestSourceRepository_LoadEmptyTable(t *testing.T) {
	db, cleanup := testingpkg.NewTestDBWithSchema(t, "no_rows", `CREATE TABLE "Sheet1" ("Date", "Close")`)
	defer cleanup()

	tbl, err := NewSourceRepository(db.Conn(), zerolog.Nop()).Load(context.Background(), "Sheet1")
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
	assert.Equal(t, 2, tbl.Width())
}

func TestToCell(t *testing.T) {
	assert.False(t, toCell(nil).Valid)
	assert.Equal(t, "abc", toCell([]byte("abc")).String)
	assert.Equal(t, "-7", toCell(int64(-7)).String)
	assert.Equal(t, "0.1", toCell(0.1).String)
	assert.Equal(t, "1", toCell(true).String)
}

func TestSinkRepository_Replace(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "sink")
	defer cleanup()
	ctx := context.Background()

	out, err := table.FromColumns(
		table.Column{Name: "From", Values: []null.String{null.StringFrom("Annualized Return"), null.StringFrom("01/02/2019")}},
		table.Column{Name: "SPX (1Yr)", Values: []null.String{null.StringFrom(""), {}}},
	)
	require.NoError(t, err)

	sink := NewSinkRepository(db.Conn(), zerolog.Nop())
	require.NoError(t, sink.Replace(ctx, "returns", out))

	var (
		count int
		empty null.String
		nul   null.String
	)
	require.NoError(t, db.Conn().QueryRow(`SELECT COUNT(*) FROM "returns"`).Scan(&count))
	assert.Equal(t, 2, count)
	require.NoError(t, db.Conn().QueryRow(`SELECT "SPX (1Yr)" FROM "returns" WHERE "From" = 'Annualized Return'`).Scan(&empty))
	assert.True(t, empty.Valid)
	assert.Equal(t, "", empty.String)
	require.NoError(t, db.Conn().QueryRow(`SELECT "SPX (1Yr)" FROM "returns" WHERE "From" = '01/02/2019'`).Scan(&nul))
	assert.False(t, nul.Valid)

	// Round trip through the source repository keeps names and order
	loaded, err := NewSourceRepository(db.Conn(), zerolog.Nop()).Load(ctx, "returns")
	require.NoError(t, err)
	assert.Equal(t, out.Names(), loaded.Names())
	assert.Equal(t, out.Row(1), loaded.Row(1))
}

func TestSinkRepository_ReplaceOverwrites(t *testing.T) {
	db, cleanup := testingpkg.NewTestDBWithSchema(t, "overwrite", `
		CREATE TABLE "returns" ("old" INTEGER);
		INSERT INTO "returns" VALUES (1), (2), (3);
	`)
	defer cleanup()

	out, err := table.FromColumns(table.Column{Name: "new", Values: []null.String{null.StringFrom("x")}})
	require.NoError(t, err)
	require.NoError(t, NewSinkRepository(db.Conn(), zerolog.Nop()).Replace(context.Background(), "returns", out))

	loaded, err := NewSourceRepository(db.Conn(), zerolog.Nop()).Load(context.Background(), "returns")
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, loaded.Names())
	assert.Equal(t, 1, loaded.Len())
}

func TestSinkRepository_ReplaceCanceledKeepsPrevious(t *testing.T) {
	db, cleanup := testingpkg.NewTestDBWithSchema(t, "canceled", `
		CREATE TABLE "returns" ("old");
		INSERT INTO "returns" VALUES ('kept');
	`)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := table.FromColumns(table.Column{Name: "new", Values: []null.String{null.StringFrom("x")}})
	require.NoError(t, err)
	assert.Error(t, NewSinkRepository(db.Conn(), zerolog.Nop()).Replace(ctx, "returns", out))

	loaded, err := NewSourceRepository(db.Conn(), zerolog.Nop()).Load(context.Background(), "returns")
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, loaded.Names())
}

func TestSinkRepository_ReplaceWithoutColumns(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "no_columns")
	defer cleanup()

	empty, err := table.New()
	require.NoError(t, err)
	assert.Error(t, NewSinkRepository(db.Conn(), zerolog.Nop()).Replace(context.Background(), "returns", empty))
}
