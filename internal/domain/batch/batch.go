// Package batch flattens a fitted, transformed dataset into per-subject
// sequences over the unified index space: one row of indices and values per
// event, ordered chronologically, with the static side attached. Subjects
// without events keep their static side and empty sequences.
package batch

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/okian/seqprep/internal/domain/dataset"
	"github.com/okian/seqprep/internal/domain/indexspace"
	"github.com/okian/seqprep/internal/domain/measurement"
	"github.com/okian/seqprep/internal/domain/table"
	"github.com/okian/seqprep/pkg/logger"
)

// SubjectBatch is one subject's encoded sequence.
type SubjectBatch struct {
	SubjectID int64 `json:"subject_id"`

	// StartTime is the timestamp of the first event; zero without events.
	StartTime time.Time `json:"start_time"`
	// Times holds minutes since StartTime per event: first 0, non-decreasing.
	Times []float64 `json:"times"`

	// DynamicIndices[t] lists the unified indices observed at event t.
	DynamicIndices [][]int `json:"dynamic_indices"`
	// DynamicValues[t] aligns with DynamicIndices[t]; NaN where the
	// observation carries no numeric value.
	DynamicValues [][]float64 `json:"dynamic_values"`
	// DynamicMeasurementIndices[t] aligns likewise, holding the small
	// per-measurement index of each observation.
	DynamicMeasurementIndices [][]int `json:"dynamic_measurement_indices"`

	StaticIndices            []int `json:"static_indices"`
	StaticMeasurementIndices []int `json:"static_measurement_indices"`
}

// Encoder encodes subjects of a fitted dataset.
type Encoder struct {
	fitted *dataset.Fitted
	space  *indexspace.Space
	log    logger.Logger
}

// Option customizes an Encoder.
type Option func(*Encoder)

// WithLogger sets the encoder's logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Encoder) { e.log = l }
}

// NewEncoder builds an encoder over a fitted dataset.
func NewEncoder(f *dataset.Fitted, opts ...Option) *Encoder {
	e := &Encoder{fitted: f, space: f.IndexSpace(), log: logger.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EncodeAll encodes every subject, ordered by subject id.
func (e *Encoder) EncodeAll(ctx context.Context) ([]SubjectBatch, error) {
	return e.encode(ctx, nil)
}

// EncodeSplit encodes the subjects of a named split, ordered by subject id.
// An unknown split yields no batches.
func (e *Encoder) EncodeSplit(ctx context.Context, split string) ([]SubjectBatch, error) {
	ids := e.fitted.SplitSubjects(split)
	include := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		include[id] = struct{}{}
	}
	return e.encode(ctx, include)
}

// observation is one (index, value, measurement) triple attached to an event.
type observation struct {
	index int
	value float64
	meas  int
}

func (e *Encoder) encode(ctx context.Context, include map[int64]struct{}) ([]SubjectBatch, error) {
	events := e.fitted.Events()
	subjects := e.fitted.Subjects()
	configs := e.fitted.MeasurementConfigs()

	wanted := func(id int64) bool {
		if include == nil {
			return true
		}
		_, ok := include[id]
		return ok
	}

	// Events arrive sorted by subject then timestamp, so per-subject row
	// lists stay chronological.
	subjCol, _ := events.Column(dataset.ColSubjectID)
	tsCol, _ := events.Column(dataset.ColTimestamp)
	typeCol, _ := events.Column(dataset.ColEventType)
	eventRows := make(map[int64][]int)
	slots := make(map[int64][]observation, events.Len())
	for i := 0; i < events.Len(); i++ {
		sid, _ := subjCol.Int(i)
		if !wanted(sid) {
			continue
		}
		eventRows[sid] = append(eventRows[sid], i)
		eid := events.ID(i)
		et, _ := typeCol.String(i)
		if idx := e.space.Encode(indexspace.EventType, et); idx != 0 {
			slots[eid] = append(slots[eid], observation{
				index: idx,
				value: math.NaN(),
				meas:  e.space.MeasurementIndex(indexspace.EventType),
			})
		}
	}

	for _, name := range sortedConfigNames(configs) {
		cfg := configs[name]
		switch cfg.Temporality {
		case measurement.FunctionalTimeDependent:
			e.meltEventColumn(cfg, events, slots)
		case measurement.Dynamic:
			e.meltDynamicColumn(cfg, slots)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]SubjectBatch, 0, subjects.Len())
	for row := 0; row < subjects.Len(); row++ {
		sid := subjects.ID(row)
		if !wanted(sid) {
			continue
		}
		sb := SubjectBatch{SubjectID: sid}
		e.encodeStatic(configs, subjects, row, &sb)

		rows := eventRows[sid]
		for _, er := range rows {
			ts, _ := tsCol.Time(er)
			if len(sb.Times) == 0 {
				sb.StartTime = ts
			}
			sb.Times = append(sb.Times, ts.Sub(sb.StartTime).Minutes())
			obs := slots[events.ID(er)]
			indices := make([]int, len(obs))
			values := make([]float64, len(obs))
			meas := make([]int, len(obs))
			for j, o := range obs {
				indices[j] = o.index
				values[j] = o.value
				meas[j] = o.meas
			}
			sb.DynamicIndices = append(sb.DynamicIndices, indices)
			sb.DynamicValues = append(sb.DynamicValues, values)
			sb.DynamicMeasurementIndices = append(sb.DynamicMeasurementIndices, meas)
		}
		out = append(out, sb)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubjectID < out[j].SubjectID })
	return out, nil
}

// meltEventColumn attaches one functional time-dependent column's
// observations to their events.
func (e *Encoder) meltEventColumn(cfg *measurement.Config, events *table.Table, slots map[int64][]observation) {
	col, ok := events.Column(cfg.Name)
	if !ok {
		return
	}
	meas := e.space.MeasurementIndex(cfg.Name)
	for i := 0; i < events.Len(); i++ {
		eid := events.ID(i)
		if _, tracked := slots[eid]; !tracked {
			continue
		}
		if o, ok := e.observe(cfg, col, nil, i, meas); ok {
			slots[eid] = append(slots[eid], o)
		}
	}
}

// meltDynamicColumn attaches one dynamic measurement's rows to their events.
func (e *Encoder) meltDynamicColumn(cfg *measurement.Config, slots map[int64][]observation) {
	ms := e.fitted.Measurements()
	keyCol, ok := ms.Column(cfg.Name)
	if !ok {
		return
	}
	var valCol *table.Column
	if cfg.Modality == measurement.MultivariateRegression {
		valCol, _ = ms.Column(cfg.ValuesColumn)
	}
	evCol, _ := ms.Column(dataset.ColEventID)
	meas := e.space.MeasurementIndex(cfg.Name)
	for i := 0; i < ms.Len(); i++ {
		eid, _ := evCol.Int(i)
		if _, tracked := slots[eid]; !tracked {
			continue
		}
		if o, ok := e.observe(cfg, keyCol, valCol, i, meas); ok {
			slots[eid] = append(slots[eid], o)
		}
	}
}

// observe encodes a single measurement observation at row i. Categorical
// observations resolve through the vocabulary block; continuous ones use the
// measurement's singleton slot with the value attached.
func (e *Encoder) observe(cfg *measurement.Config, keyCol, valCol *table.Column, i, meas int) (observation, bool) {
	if keyCol.Kind() == table.KindString {
		sym, ok := keyCol.String(i)
		if !ok {
			return observation{}, false
		}
		idx := e.space.Encode(cfg.Name, sym)
		if idx == 0 {
			return observation{}, false
		}
		value := math.NaN()
		if valCol != nil {
			if v, ok := valCol.Float(i); ok {
				value = v
			}
		}
		return observation{index: idx, value: value, meas: meas}, true
	}

	v, ok := keyCol.Float(i)
	if !ok {
		return observation{}, false
	}
	return observation{index: e.space.Offset(cfg.Name), value: v, meas: meas}, true
}

// encodeStatic attaches the subject's static observations.
func (e *Encoder) encodeStatic(configs map[string]*measurement.Config, subjects *table.Table, row int, sb *SubjectBatch) {
	for _, name := range sortedConfigNames(configs) {
		cfg := configs[name]
		if cfg.Temporality != measurement.Static {
			continue
		}
		col, ok := subjects.Column(name)
		if !ok {
			continue
		}
		if o, ok := e.observe(cfg, col, nil, row, e.space.MeasurementIndex(name)); ok {
			sb.StaticIndices = append(sb.StaticIndices, o.index)
			sb.StaticMeasurementIndices = append(sb.StaticMeasurementIndices, o.meas)
		}
	}
}

func sortedConfigNames(m map[string]*measurement.Config) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
