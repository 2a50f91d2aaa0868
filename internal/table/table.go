// Package table provides a small column-oriented in-memory table.
// Every column is an ordered sequence of optional string cells and all columns
// share the same row count and row order.
package table

import (
	"fmt"
	"sort"

	"github.com/guregu/null/v6"
)

// Error describes a failed table operation
type Error struct {
	Op      string // Operation name (e.g., "AddColumn", "Slice")
	Column  string // Column name if applicable
	Message string
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s operation failed on column '%s': %s", e.Op, e.Column, e.Message)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Op, e.Message)
}

// Column is a named sequence of optional cells
type Column struct {
	Name   string
	Values []null.String
}

// Table is an ordered set of equally long columns
type Table struct {
	columns []Column
	index   map[string]int
	rows    int
}

// New creates an empty table with the given column names and no rows
func New(names ...string) (*Table, error) {
	t := &Table{index: make(map[string]int, len(names))}
	for _, name := range names {
		if err := t.AddColumn(name, nil); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// FromColumns builds a table from columns that all have the same length
func FromColumns(columns ...Column) (*Table, error) {
	t := &Table{index: make(map[string]int, len(columns))}
	for _, c := range columns {
		if err := t.AddColumn(c.Name, c.Values); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// AddColumn appends a column. The first column fixes the row count.
func (t *Table) AddColumn(name string, values []null.String) error {
	if _, exists := t.index[name]; exists {
		return &Error{Op: "AddColumn", Column: name, Message: "column already exists"}
	}
	if len(t.columns) > 0 && len(values) != t.rows {
		return &Error{
			Op:      "AddColumn",
			Column:  name,
			Message: fmt.Sprintf("length %d does not match table length %d", len(values), t.rows),
		}
	}
	if t.index == nil {
		t.index = make(map[string]int)
	}
	if len(t.columns) == 0 {
		t.rows = len(values)
	}
	t.index[name] = len(t.columns)
	t.columns = append(t.columns, Column{Name: name, Values: values})
	return nil
}

// AppendRow adds one row; cells are given in column order
func (t *Table) AppendRow(cells ...null.String) error {
	if len(cells) != len(t.columns) {
		return &Error{
			Op:      "AppendRow",
			Message: fmt.Sprintf("got %d cells for %d columns", len(cells), len(t.columns)),
		}
	}
	for i := range t.columns {
		t.columns[i].Values = append(t.columns[i].Values, cells[i])
	}
	t.rows++
	return nil
}

// Len returns the number of rows
func (t *Table) Len() int {
	return t.rows
}

// Width returns the number of columns
func (t *Table) Width() int {
	return len(t.columns)
}

// Names returns the column names in order
func (t *Table) Names() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Has reports whether a column exists
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the cells of a column. The slice is shared with the table.
func (t *Table) Column(name string) ([]null.String, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, &Error{Op: "Column", Column: name, Message: "column does not exist"}
	}
	return t.columns[i].Values, nil
}

// Row returns a copy of the cells of row i in column order
func (t *Table) Row(i int) []null.String {
	row := make([]null.String, len(t.columns))
	for c := range t.columns {
		row[c] = t.columns[c].Values[i]
	}
	return row
}

// Clone returns a deep copy
func (t *Table) Clone() *Table {
	return t.selectRows(nil)
}

// Take returns a copy holding the given rows in the given order
func (t *Table) Take(rows []int) (*Table, error) {
	if rows == nil {
		rows = []int{}
	}
	for _, r := range rows {
		if r < 0 || r >= t.rows {
			return nil, &Error{
				Op:      "Take",
				Message: fmt.Sprintf("row %d out of bounds for %d rows", r, t.rows),
			}
		}
	}
	return t.selectRows(rows), nil
}

// StableOrder returns the permutation of [0, n) that sorts rows by less
func StableOrder(n int, less func(i, j int) bool) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	sort.SliceStable(rows, func(a, b int) bool {
		return less(rows[a], rows[b])
	})
	return rows
}

// Concat merges tables horizontally. When a column name repeats, the first
// occurrence wins. Columns shorter than the widest table are padded with NULL cells.
func Concat(tables ...*Table) *Table {
	rows := 0
	for _, other := range tables {
		if other.rows > rows {
			rows = other.rows
		}
	}

	out := &Table{index: make(map[string]int), rows: rows}
	for _, other := range tables {
		for _, c := range other.columns {
			if _, exists := out.index[c.Name]; exists {
				continue
			}
			values := make([]null.String, rows)
			copy(values, c.Values)
			out.index[c.Name] = len(out.columns)
			out.columns = append(out.columns, Column{Name: c.Name, Values: values})
		}
	}
	return out
}

// PrependRow returns a copy with the given cells inserted as row 0
func (t *Table) PrependRow(cells ...null.String) (*Table, error) {
	if len(cells) != len(t.columns) {
		return nil, &Error{
			Op:      "PrependRow",
			Message: fmt.Sprintf("got %d cells for %d columns", len(cells), len(t.columns)),
		}
	}
	out := &Table{index: make(map[string]int, len(t.columns)), rows: t.rows + 1}
	for i, c := range t.columns {
		values := make([]null.String, 0, t.rows+1)
		values = append(values, cells[i])
		values = append(values, c.Values...)
		out.index[c.Name] = i
		out.columns = append(out.columns, Column{Name: c.Name, Values: values})
	}
	return out, nil
}

// selectRows copies the given rows into a new table; nil selects every row
func (t *Table) selectRows(rows []int) *Table {
	n := t.rows
	if rows != nil {
		n = len(rows)
	}

	out := &Table{index: make(map[string]int, len(t.columns)), rows: n}
	for i, c := range t.columns {
		values := make([]null.String, n)
		if rows == nil {
			copy(values, c.Values)
		} else {
			for k, r := range rows {
				values[k] = c.Values[r]
			}
		}
		out.index[c.Name] = i
		out.columns = append(out.columns, Column{Name: c.Name, Values: values})
	}
	return out
}
