package testing

import (
	"fmt"
	"strings"
)

// ObservationColumns are the columns of ObservationRows
var ObservationColumns = []string{"Date", "SPX", "AGG"}

// ObservationRows returns eight year-end index levels, deliberately out of date order.
// AGG has a missing value on 2018-12-31 and SPX uses a thousands separator once.
func ObservationRows() [][]interface{} {
	return [][]interface{}{
		{"2018-12-31", 2506.85, nil},
		{"2014-12-31", 2058.90, 110.21},
		{"2015-12-31", "2,043.94", 108.89},
		{"2016-12-31", 2238.83, 108.17},
		{"2017-12-31", 2673.61, 109.44},
		{"2019-12-31", 3230.78, 112.40},
		{"2020-12-31", 3756.07, 118.19},
		{"2021-12-31", 4766.18, 114.08},
	}
}

// CreateTableSQL builds an untyped CREATE TABLE statement so values keep their storage class
func CreateTableSQL(tableName string, columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(tableName), strings.Join(quoted, ", "))
}

// InsertSQL builds an INSERT statement with n placeholders
func InsertSQL(tableName string, n int) string {
	return fmt.Sprintf("INSERT INTO %s VALUES (%s)",
		quoteIdent(tableName), strings.TrimSuffix(strings.Repeat("?, ", n), ", "))
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
