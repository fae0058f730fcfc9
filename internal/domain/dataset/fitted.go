package dataset

import (
	"github.com/okian/seqprep/internal/domain/indexspace"
	"github.com/okian/seqprep/internal/domain/measurement"
	"github.com/okian/seqprep/internal/domain/table"
)

// Fitted is the post-fit handle. Only a Fitted dataset exposes the inferred
// measurement configurations, the unified index space and the transform,
// so half-fitted state is unobservable.
type Fitted struct {
	d     *Dataset
	space *indexspace.Space
}

// MeasurementConfigs returns the fitted configuration of every measurement
// that survived fitting. Measurements dropped during fitting are excluded;
// DroppedMeasurements lists those. Callers must treat the result as
// read-only.
func (f *Fitted) MeasurementConfigs() map[string]*measurement.Config {
	out := make(map[string]*measurement.Config, len(f.d.inferred))
	for name, cfg := range f.d.inferred {
		if cfg.IsDropped() {
			continue
		}
		out[name] = cfg
	}
	return out
}

// Config returns the fitted configuration of one surviving measurement.
// Dropped measurements report absent.
func (f *Fitted) Config(name string) (*measurement.Config, bool) {
	cfg, ok := f.d.inferred[name]
	if !ok || cfg.IsDropped() {
		return nil, false
	}
	return cfg, true
}

// DroppedMeasurements returns the configurations of measurements dropped
// during fitting, keyed by name. Dropped configs still carry whatever state
// was computed before the drop, such as the observation frequency.
func (f *Fitted) DroppedMeasurements() map[string]*measurement.Config {
	out := make(map[string]*measurement.Config)
	for name, cfg := range f.d.inferred {
		if cfg.IsDropped() {
			out[name] = cfg
		}
	}
	return out
}

// IndexSpace returns the unified categorical index space over all
// non-dropped measurements, built lazily and cached.
func (f *Fitted) IndexSpace() *indexspace.Space {
	if f.space == nil {
		f.space = indexspace.Build(f.d.eventTypes, f.MeasurementConfigs())
	}
	return f.space
}

// Subjects returns the subjects table.
func (f *Fitted) Subjects() *table.Table { return f.d.subjects }

// Events returns the events table.
func (f *Fitted) Events() *table.Table { return f.d.events }

// Measurements returns the dynamic measurements table.
func (f *Fitted) Measurements() *table.Table { return f.d.measurements }

// EventTypes returns the observed event types by descending frequency.
func (f *Fitted) EventTypes() []string { return f.d.EventTypes() }

// SplitSubjects returns the subject ids of a named split.
func (f *Fitted) SplitSubjects(name string) []int64 { return f.d.SplitSubjects(name) }
