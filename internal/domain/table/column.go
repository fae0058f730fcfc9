// Package table provides the nullable, typed columnar storage the
// preprocessing engine operates on: per-table ID columns, named value
// columns, inclusion filtering, and keyed update joins.
//
// Conventions:
//   - Columns are tagged unions over string, float, int, and time values with
//     an explicit validity mask; NaN floats are normalized to null.
//   - Reads of absent data degrade to empty results; only structural misuse
//     (length mismatches, unknown kinds) returns errors.
package table

import (
	"math"
	"time"
)

// Kind identifies the value type a Column holds.
type Kind int

// Column kinds.
const (
	KindString Kind = iota
	KindFloat
	KindInt
	KindTime
)

// Column is a fixed-length nullable vector of a single kind.
type Column struct {
	kind   Kind
	strs   []string
	floats []float64
	ints   []int64
	times  []time.Time
	valid  []bool
}

// NewStringColumn builds a string column. A nil valid mask marks every entry
// present. Empty strings are legal values, not nulls.
func NewStringColumn(vals []string, valid []bool) *Column {
	return &Column{kind: KindString, strs: vals, valid: normalizeMask(len(vals), valid)}
}

// NewFloatColumn builds a float column. NaN entries are normalized to null.
func NewFloatColumn(vals []float64, valid []bool) *Column {
	mask := normalizeMask(len(vals), valid)
	for i, v := range vals {
		if math.IsNaN(v) {
			mask[i] = false
		}
	}
	return &Column{kind: KindFloat, floats: vals, valid: mask}
}

// NewIntColumn builds an int column.
func NewIntColumn(vals []int64, valid []bool) *Column {
	return &Column{kind: KindInt, ints: vals, valid: normalizeMask(len(vals), valid)}
}

// NewTimeColumn builds a time column.
func NewTimeColumn(vals []time.Time, valid []bool) *Column {
	return &Column{kind: KindTime, times: vals, valid: normalizeMask(len(vals), valid)}
}

// NewNullColumn builds an all-null column of the given kind and length.
func NewNullColumn(kind Kind, n int) *Column {
	c := &Column{kind: kind, valid: make([]bool, n)}
	switch kind {
	case KindString:
		c.strs = make([]string, n)
	case KindFloat:
		c.floats = make([]float64, n)
	case KindInt:
		c.ints = make([]int64, n)
	case KindTime:
		c.times = make([]time.Time, n)
	}
	return c
}

func normalizeMask(n int, valid []bool) []bool {
	if valid != nil {
		return valid
	}
	mask := make([]bool, n)
	for i := range mask {
		mask[i] = true
	}
	return mask
}

// Kind returns the column's value kind.
func (c *Column) Kind() Kind { return c.kind }

// Len returns the number of entries, null or not.
func (c *Column) Len() int { return len(c.valid) }

// IsPresent reports whether entry i holds a value.
func (c *Column) IsPresent(i int) bool { return c.valid[i] }

// PresentCount returns the number of non-null entries.
func (c *Column) PresentCount() int {
	n := 0
	for _, ok := range c.valid {
		if ok {
			n++
		}
	}
	return n
}

// String returns the string value at i and whether it is present.
func (c *Column) String(i int) (string, bool) {
	if c.kind != KindString || !c.valid[i] {
		return "", false
	}
	return c.strs[i], true
}

// Float returns the float value at i and whether it is present.
func (c *Column) Float(i int) (float64, bool) {
	if c.kind != KindFloat || !c.valid[i] {
		return 0, false
	}
	return c.floats[i], true
}

// Int returns the int value at i and whether it is present.
func (c *Column) Int(i int) (int64, bool) {
	if c.kind != KindInt || !c.valid[i] {
		return 0, false
	}
	return c.ints[i], true
}

// Time returns the time value at i and whether it is present.
func (c *Column) Time(i int) (time.Time, bool) {
	if c.kind != KindTime || !c.valid[i] {
		return time.Time{}, false
	}
	return c.times[i], true
}

// SetNull clears entry i.
func (c *Column) SetNull(i int) { c.valid[i] = false }

// SetString stores a string value at i.
func (c *Column) SetString(i int, v string) {
	c.strs[i] = v
	c.valid[i] = true
}

// SetFloat stores a float value at i; NaN clears the entry instead.
func (c *Column) SetFloat(i int, v float64) {
	if math.IsNaN(v) {
		c.valid[i] = false
		return
	}
	c.floats[i] = v
	c.valid[i] = true
}

// SetInt stores an int value at i.
func (c *Column) SetInt(i int, v int64) {
	c.ints[i] = v
	c.valid[i] = true
}

// SetTime stores a time value at i.
func (c *Column) SetTime(i int, v time.Time) {
	c.times[i] = v
	c.valid[i] = true
}

// Clone returns a deep copy of the column.
func (c *Column) Clone() *Column {
	out := &Column{kind: c.kind, valid: append([]bool(nil), c.valid...)}
	out.strs = append([]string(nil), c.strs...)
	out.floats = append([]float64(nil), c.floats...)
	out.ints = append([]int64(nil), c.ints...)
	out.times = append([]time.Time(nil), c.times...)
	return out
}

// gather builds a new column from the given row indices.
func (c *Column) gather(rows []int) *Column {
	out := NewNullColumn(c.kind, len(rows))
	for i, r := range rows {
		if !c.valid[r] {
			continue
		}
		switch c.kind {
		case KindString:
			out.SetString(i, c.strs[r])
		case KindFloat:
			out.SetFloat(i, c.floats[r])
		case KindInt:
			out.SetInt(i, c.ints[r])
		case KindTime:
			out.SetTime(i, c.times[r])
		}
	}
	return out
}

// SymbolCount pairs an observed symbol with its occurrence count.
type SymbolCount struct {
	Symbol string
	Count  int
}

// ValueCounts returns the distinct present string values ordered by
// descending count, ties broken by first observation. Non-string columns
// return an empty slice.
func (c *Column) ValueCounts() []SymbolCount {
	if c.kind != KindString {
		return nil
	}
	counts := make(map[string]int)
	order := make([]string, 0)
	for i, ok := range c.valid {
		if !ok {
			continue
		}
		s := c.strs[i]
		if counts[s] == 0 {
			order = append(order, s)
		}
		counts[s]++
	}
	out := make([]SymbolCount, len(order))
	for i, s := range order {
		out[i] = SymbolCount{Symbol: s, Count: counts[s]}
	}
	// Stable by construction: insertion order preserved within equal counts.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Count > out[j-1].Count; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// DistinctFloats returns the number of distinct present float values.
func (c *Column) DistinctFloats() int {
	if c.kind != KindFloat {
		return 0
	}
	seen := make(map[float64]struct{})
	for i, ok := range c.valid {
		if ok {
			seen[c.floats[i]] = struct{}{}
		}
	}
	return len(seen)
}

// PresentFloats returns all present float values in row order.
func (c *Column) PresentFloats() []float64 {
	if c.kind != KindFloat {
		return nil
	}
	out := make([]float64, 0, len(c.valid))
	for i, ok := range c.valid {
		if ok {
			out = append(out, c.floats[i])
		}
	}
	return out
}
