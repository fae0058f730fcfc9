package measurement

import (
	"github.com/okian/seqprep/internal/domain/vocabulary"
)

// Config is the declared-then-inferred configuration of one measurement
// column. Declared configs are never mutated by fitting; the fitting
// pipeline clones them and annotates the clone.
type Config struct {
	// Name is the measurement key: the column holding category symbols (or,
	// for univariate regression, the values themselves).
	Name string

	Temporality Temporality
	Modality    Modality

	// ValuesColumn names the paired numeric column of a multivariate
	// regression measurement.
	ValuesColumn string

	// PresentInEventTypes restricts a dynamic measurement to events of the
	// listed types. Empty means all event types.
	PresentInEventTypes []string

	// Functor derives a functional time-dependent column from event
	// timestamps and static subject attributes.
	Functor Functor

	// Vocabulary is either pre-declared or learned during fitting.
	Vocabulary *vocabulary.Vocabulary

	// Metadata holds per-key bounds, value types and fitted model parameters
	// for numeric columns.
	Metadata *MetadataTable

	// ObservationFrequency is the fraction of possible observations actually
	// present, computed during fitting.
	ObservationFrequency float64

	dropped bool
}

// IsNumeric reports whether the column carries numeric values to fit models
// over.
func (c *Config) IsNumeric() bool {
	return c.Modality == UnivariateRegression || c.Modality == MultivariateRegression
}

// IsDropped reports whether the column was declared or inferred dropped.
func (c *Config) IsDropped() bool { return c.dropped || c.Modality == Dropped }

// Drop marks the column dropped. Dropping is monotonic; there is no undo.
func (c *Config) Drop() { c.dropped = true }

// ValuesColumnName returns the table column holding this measurement's
// numeric values: the paired column for multivariate regression, the
// measurement column itself for univariate.
func (c *Config) ValuesColumnName() string {
	if c.Modality == MultivariateRegression {
		return c.ValuesColumn
	}
	return c.Name
}

// CanTransform reports whether the config carries enough fitted state to
// drive a transform: non-dropped configs need a vocabulary and/or metadata.
func (c *Config) CanTransform() bool {
	if c.IsDropped() {
		return false
	}
	return c.Vocabulary != nil || (c.Metadata != nil && c.Metadata.Len() > 0)
}

// Clone deep-copies the config so fitting can annotate without touching the
// declared original.
func (c *Config) Clone() *Config {
	out := &Config{
		Name:                 c.Name,
		Temporality:          c.Temporality,
		Modality:             c.Modality,
		ValuesColumn:         c.ValuesColumn,
		Functor:              c.Functor,
		ObservationFrequency: c.ObservationFrequency,
		dropped:              c.dropped,
	}
	out.PresentInEventTypes = append([]string(nil), c.PresentInEventTypes...)
	if c.Vocabulary != nil {
		out.Vocabulary = c.Vocabulary.Clone()
	}
	if c.Metadata != nil {
		out.Metadata = c.Metadata.Clone()
	}
	return out
}
