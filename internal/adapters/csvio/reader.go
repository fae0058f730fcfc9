// Package csvio loads the three input tables from CSV files and writes
// transformed tables and encoded batches back out. All errors carry the
// offending file, column and row.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/okian/seqprep/internal/domain/dataset"
	"github.com/okian/seqprep/internal/domain/table"
)

// Schema describes how to type a CSV file's columns. Columns not listed in
// Kinds load as strings. Empty cells load as nulls.
type Schema struct {
	// IDColumn names the required unique int64 key column.
	IDColumn string
	Kinds    map[string]table.Kind
}

// SubjectsSchema returns the default schema for the subjects file, extended
// with the caller's typed columns.
func SubjectsSchema(kinds map[string]table.Kind) Schema {
	return Schema{IDColumn: dataset.ColSubjectID, Kinds: kinds}
}

// EventsSchema returns the default schema for the events file: subject id,
// timestamp and event type, extended with the caller's typed columns.
func EventsSchema(kinds map[string]table.Kind) Schema {
	merged := map[string]table.Kind{
		dataset.ColSubjectID: table.KindInt,
		dataset.ColTimestamp: table.KindTime,
		dataset.ColEventType: table.KindString,
	}
	for k, v := range kinds {
		merged[k] = v
	}
	return Schema{IDColumn: dataset.ColEventID, Kinds: merged}
}

// MeasurementsSchema returns the default schema for the dynamic
// measurements file, extended with the caller's typed columns.
func MeasurementsSchema(kinds map[string]table.Kind) Schema {
	merged := map[string]table.Kind{dataset.ColEventID: table.KindInt}
	for k, v := range kinds {
		merged[k] = v
	}
	return Schema{IDColumn: "measurement_id", Kinds: merged}
}

// ReadTable loads one CSV file into a table under the given schema.
func ReadTable(path string, schema Schema) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	t, err := Read(f, schema)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return t, nil
}

// Read loads CSV content into a table under the given schema.
func Read(r io.Reader, schema Schema) (*table.Table, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, err
	}
	idCol := -1
	names := make([]string, len(header))
	for i, name := range header {
		names[i] = name
		if name == schema.IDColumn {
			idCol = i
		}
	}
	if idCol < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, schema.IDColumn)
	}

	var ids []int64
	cells := make([][]string, len(header))
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		id, err := strconv.ParseInt(rec[idCol], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d column %q: %q is not an integer id",
				ErrBadCell, row, schema.IDColumn, rec[idCol])
		}
		ids = append(ids, id)
		for i, v := range rec {
			cells[i] = append(cells[i], v)
		}
	}

	t := table.New(schema.IDColumn, ids)
	for i, name := range names {
		if i == idCol {
			continue
		}
		kind, ok := schema.Kinds[name]
		if !ok {
			kind = table.KindString
		}
		col, err := parseColumn(cells[i], kind)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		if err := t.AddColumn(name, col); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func parseColumn(cells []string, kind table.Kind) (*table.Column, error) {
	n := len(cells)
	valid := make([]bool, n)
	switch kind {
	case table.KindFloat:
		vals := make([]float64, n)
		for i, c := range cells {
			if c == "" {
				vals[i] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(c, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d: %q is not a number", ErrBadCell, i+1, c)
			}
			vals[i] = v
			valid[i] = true
		}
		return table.NewFloatColumn(vals, valid), nil
	case table.KindInt:
		vals := make([]int64, n)
		for i, c := range cells {
			if c == "" {
				continue
			}
			v, err := strconv.ParseInt(c, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d: %q is not an integer", ErrBadCell, i+1, c)
			}
			vals[i] = v
			valid[i] = true
		}
		return table.NewIntColumn(vals, valid), nil
	case table.KindTime:
		vals := make([]time.Time, n)
		for i, c := range cells {
			if c == "" {
				continue
			}
			v, err := time.Parse(time.RFC3339, c)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d: %q is not an RFC 3339 timestamp", ErrBadCell, i+1, c)
			}
			vals[i] = v
			valid[i] = true
		}
		return table.NewTimeColumn(vals, valid), nil
	default:
		vals := make([]string, n)
		for i, c := range cells {
			if c == "" {
				continue
			}
			vals[i] = c
			valid[i] = true
		}
		return table.NewStringColumn(vals, valid), nil
	}
}
