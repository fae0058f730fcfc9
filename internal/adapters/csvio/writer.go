package csvio

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/okian/seqprep/internal/domain/batch"
	"github.com/okian/seqprep/internal/domain/table"
)

// WriteTable writes a table as CSV: the id column first, then the remaining
// columns in insertion order. Nulls render as empty cells, timestamps as
// RFC 3339.
func WriteTable(path string, t *table.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if err := Write(f, t); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Write writes a table as CSV.
func Write(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)
	names := t.ColumnNames()
	header := append([]string{t.IDName()}, names...)
	if err := cw.Write(header); err != nil {
		return err
	}

	rec := make([]string, len(header))
	for i := 0; i < t.Len(); i++ {
		rec[0] = strconv.FormatInt(t.ID(i), 10)
		for j, name := range names {
			col, _ := t.Column(name)
			rec[j+1] = renderCell(col, i)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func renderCell(col *table.Column, i int) string {
	if !col.IsPresent(i) {
		return ""
	}
	switch col.Kind() {
	case table.KindFloat:
		v, _ := col.Float(i)
		return strconv.FormatFloat(v, 'g', -1, 64)
	case table.KindInt:
		v, _ := col.Int(i)
		return strconv.FormatInt(v, 10)
	case table.KindTime:
		v, _ := col.Time(i)
		return v.Format(time.RFC3339)
	default:
		v, _ := col.String(i)
		return v
	}
}

// WriteBatches writes encoded subject batches as a JSON array. NaN values
// are not representable in JSON, so missing dynamic values are nulled.
func WriteBatches(path string, batches []batch.SubjectBatch) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	if err := enc.Encode(jsonSafe(batches)); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// jsonBatch mirrors SubjectBatch with nullable dynamic values.
type jsonBatch struct {
	SubjectID                 int64        `json:"subject_id"`
	StartTime                 time.Time    `json:"start_time"`
	Times                     []float64    `json:"times"`
	DynamicIndices            [][]int      `json:"dynamic_indices"`
	DynamicValues             [][]*float64 `json:"dynamic_values"`
	DynamicMeasurementIndices [][]int      `json:"dynamic_measurement_indices"`
	StaticIndices             []int        `json:"static_indices"`
	StaticMeasurementIndices  []int        `json:"static_measurement_indices"`
}

func jsonSafe(batches []batch.SubjectBatch) []jsonBatch {
	out := make([]jsonBatch, len(batches))
	for i, b := range batches {
		jb := jsonBatch{
			SubjectID:                 b.SubjectID,
			StartTime:                 b.StartTime,
			Times:                     b.Times,
			DynamicIndices:            b.DynamicIndices,
			DynamicMeasurementIndices: b.DynamicMeasurementIndices,
			StaticIndices:             b.StaticIndices,
			StaticMeasurementIndices:  b.StaticMeasurementIndices,
		}
		jb.DynamicValues = make([][]*float64, len(b.DynamicValues))
		for t, vals := range b.DynamicValues {
			row := make([]*float64, len(vals))
			for j, v := range vals {
				if v == v { // not NaN
					vv := v
					row[j] = &vv
				}
			}
			jb.DynamicValues[t] = row
		}
		out[i] = jb
	}
	return out
}
