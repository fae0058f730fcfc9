package table

import (
	"fmt"
	"sort"
)

// Table is a fixed-length collection of named columns keyed by a unique
// int64 ID column. Column iteration order is deterministic (insertion order).
type Table struct {
	idName string
	ids    []int64
	cols   map[string]*Column
	order  []string
}

// New creates a table keyed by the named ID column.
func New(idName string, ids []int64) *Table {
	return &Table{
		idName: idName,
		ids:    ids,
		cols:   make(map[string]*Column),
	}
}

// IDName returns the name of the table's ID column.
func (t *Table) IDName() string { return t.idName }

// Len returns the row count.
func (t *Table) Len() int { return len(t.ids) }

// ID returns the row ID at index i.
func (t *Table) ID(i int) int64 { return t.ids[i] }

// IDs returns a copy of the ID column.
func (t *Table) IDs() []int64 { return append([]int64(nil), t.ids...) }

// AddColumn attaches a column under the given name. Lengths must match.
func (t *Table) AddColumn(name string, col *Column) error {
	if col.Len() != len(t.ids) {
		return fmt.Errorf("%w: column %q has %d rows, table has %d",
			ErrLengthMismatch, name, col.Len(), len(t.ids))
	}
	if _, dup := t.cols[name]; !dup {
		t.order = append(t.order, name)
	}
	t.cols[name] = col
	return nil
}

// Column returns the named column, or false if absent.
func (t *Table) Column(name string) (*Column, bool) {
	c, ok := t.cols[name]
	return c, ok
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.cols[name]
	return ok
}

// ColumnNames returns column names in insertion order.
func (t *Table) ColumnNames() []string { return append([]string(nil), t.order...) }

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := New(t.idName, append([]int64(nil), t.ids...))
	for _, name := range t.order {
		_ = out.AddColumn(name, t.cols[name].Clone())
	}
	return out
}

// Gather builds a new table from the given row indices.
func (t *Table) Gather(rows []int) *Table {
	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = t.ids[r]
	}
	out := New(t.idName, ids)
	for _, name := range t.order {
		_ = out.AddColumn(name, t.cols[name].gather(rows))
	}
	return out
}

// FilterIDs returns the rows whose ID is in the inclusion set, preserving
// row order.
func (t *Table) FilterIDs(include map[int64]struct{}) *Table {
	rows := make([]int, 0, len(t.ids))
	for i, id := range t.ids {
		if _, ok := include[id]; ok {
			rows = append(rows, i)
		}
	}
	return t.Gather(rows)
}

// FilterIntIn returns the rows whose value in the named int column is in the
// inclusion set. An absent column yields an empty table.
func (t *Table) FilterIntIn(name string, include map[int64]struct{}) *Table {
	col, ok := t.cols[name]
	if !ok {
		return t.Gather(nil)
	}
	rows := make([]int, 0, len(t.ids))
	for i := range t.ids {
		if v, present := col.Int(i); present {
			if _, in := include[v]; in {
				rows = append(rows, i)
			}
		}
	}
	return t.Gather(rows)
}

// FilterStringIn returns the rows whose value in the named string column is
// in the inclusion set. An absent column yields an empty table.
func (t *Table) FilterStringIn(name string, include map[string]struct{}) *Table {
	col, ok := t.cols[name]
	if !ok {
		return t.Gather(nil)
	}
	rows := make([]int, 0, len(t.ids))
	for i := range t.ids {
		if v, present := col.String(i); present {
			if _, in := include[v]; in {
				rows = append(rows, i)
			}
		}
	}
	return t.Gather(rows)
}

// DropNulls returns the rows where the named column is present. An absent
// column yields an empty table.
func (t *Table) DropNulls(name string) *Table {
	col, ok := t.cols[name]
	if !ok {
		return t.Gather(nil)
	}
	rows := make([]int, 0, len(t.ids))
	for i := range t.ids {
		if col.IsPresent(i) {
			rows = append(rows, i)
		}
	}
	return t.Gather(rows)
}

// SortStable reorders rows by the given comparison over row indices, keeping
// equal rows in their current order. All columns and the ID column move
// together.
func (t *Table) SortStable(less func(i, j int) bool) {
	rows := make([]int, len(t.ids))
	for i := range rows {
		rows[i] = i
	}
	sort.SliceStable(rows, func(a, b int) bool { return less(rows[a], rows[b]) })

	sorted := t.Gather(rows)
	t.ids = sorted.ids
	t.cols = sorted.cols
	t.order = sorted.order
}

// UpdateByID writes the named columns of src into the receiver, matching rows
// by ID. Rows of the receiver absent from src are untouched; src rows whose
// ID does not exist in the receiver are ignored. Columns missing from the
// receiver are created null-initialized, so concurrently maintained columns
// survive the update.
func (t *Table) UpdateByID(src *Table, cols []string) error {
	rowByID := make(map[int64]int, len(t.ids))
	for i, id := range t.ids {
		rowByID[id] = i
	}

	for _, name := range cols {
		srcCol, ok := src.cols[name]
		if !ok {
			continue
		}
		dst, ok := t.cols[name]
		if !ok || dst.Kind() != srcCol.Kind() {
			dst = NewNullColumn(srcCol.Kind(), len(t.ids))
			if err := t.AddColumn(name, dst); err != nil {
				return err
			}
		}
		for i, id := range src.ids {
			row, ok := rowByID[id]
			if !ok {
				continue
			}
			if !srcCol.IsPresent(i) {
				dst.SetNull(row)
				continue
			}
			switch srcCol.Kind() {
			case KindString:
				v, _ := srcCol.String(i)
				dst.SetString(row, v)
			case KindFloat:
				v, _ := srcCol.Float(i)
				dst.SetFloat(row, v)
			case KindInt:
				v, _ := srcCol.Int(i)
				dst.SetInt(row, v)
			case KindTime:
				v, _ := srcCol.Time(i)
				dst.SetTime(row, v)
			}
		}
	}
	return nil
}
