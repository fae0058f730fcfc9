// Package config defines pipeline configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load layers file and env.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"fmt"

	"github.com/okian/seqprep/internal/domain/preprocess"
	"github.com/okian/seqprep/internal/domain/types"
)

// Threshold expresses a count-or-proportion cutoff. Exactly one of the two
// fields should be set; Count wins when both are.
type Threshold struct {
	Count      int     `koanf:"count"`
	Proportion float64 `koanf:"proportion"`
}

// Resolve converts the threshold to its domain representation.
func (t Threshold) Resolve() types.CountOrProportion {
	if t.Count > 0 {
		return types.Count(t.Count)
	}
	if t.Proportion > 0 {
		return types.Proportion(t.Proportion)
	}
	return types.CountOrProportion{}
}

// BoundSpec declares one optional scalar bound.
type BoundSpec struct {
	Value float64 `koanf:"value"`
	// Inclusive marks the bound value itself as out of range. Only
	// meaningful on drop bounds.
	Inclusive bool `koanf:"inclusive"`
}

// MetadataSpec declares per-vocabulary-key numeric handling: hard bounds and
// an optional value-type override that skips inference for the key.
type MetadataSpec struct {
	// ValueType overrides inference: integer, float, categorical_integer,
	// categorical_float or dropped. Empty leaves inference in charge.
	ValueType string `koanf:"value_type"`

	DropLowerBound   *BoundSpec `koanf:"drop_lower_bound"`
	DropUpperBound   *BoundSpec `koanf:"drop_upper_bound"`
	CensorLowerBound *BoundSpec `koanf:"censor_lower_bound"`
	CensorUpperBound *BoundSpec `koanf:"censor_upper_bound"`
}

// MeasurementSpec declares one measurement column in the configuration file.
type MeasurementSpec struct {
	// Temporality is static, functional_time_dependent or dynamic.
	Temporality string `koanf:"temporality"`
	// Modality is single_label_classification, multi_label_classification,
	// univariate_regression or multivariate_regression.
	Modality string `koanf:"modality"`
	// ValuesColumn names the paired numeric column of a multivariate
	// measurement.
	ValuesColumn string `koanf:"values_column"`
	// PresentInEventTypes restricts a dynamic measurement to these event
	// types.
	PresentInEventTypes []string `koanf:"present_in_event_types"`
	// Functor selects a derived column: age or time_of_day.
	Functor string `koanf:"functor"`
	// FunctorDOBColumn names the date-of-birth column for the age functor.
	FunctorDOBColumn string `koanf:"functor_dob_column"`
	// Metadata declares per-key bounds and value-type overrides, keyed by
	// vocabulary key. Univariate measurements use the measurement's own
	// name as the key.
	Metadata map[string]MetadataSpec `koanf:"metadata"`
}

// Config contains the full pipeline configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// SubjectsFile, EventsFile and MeasurementsFile locate the input CSVs.
	SubjectsFile     string `koanf:"subjects_file"`
	EventsFile       string `koanf:"events_file"`
	MeasurementsFile string `koanf:"measurements_file"`

	// OutputDir receives transformed tables and encoded batches.
	OutputDir string `koanf:"output_dir"`

	// Measurements declares the measurement columns by name.
	Measurements map[string]MeasurementSpec `koanf:"measurements"`

	// SplitNames and SplitFractions drive the subject split. The last
	// fraction may be omitted.
	SplitNames     []string  `koanf:"split_names"`
	SplitFractions []float64 `koanf:"split_fractions"`
	// Seed fixes the split permutation.
	Seed int64 `koanf:"seed"`

	MinValidColumnObservations       Threshold `koanf:"min_valid_column_observations"`
	MinValidVocabElementObservations Threshold `koanf:"min_valid_vocab_element_observations"`
	MinUniqueNumericalObservations   Threshold `koanf:"min_unique_numerical_observations"`
	MinTrueFloatFrequency            float64   `koanf:"min_true_float_frequency"`

	// OutlierDetector and Normalizer name preprocessing models; empty
	// disables the stage.
	OutlierDetector        string             `koanf:"outlier_detector"`
	OutlierDetectorOptions map[string]float64 `koanf:"outlier_detector_options"`
	Normalizer             string             `koanf:"normalizer"`
	NormalizerOptions      map[string]float64 `koanf:"normalizer_options"`

	// AggregateEvents merges same-subject same-timestamp same-type events.
	AggregateEvents bool `koanf:"aggregate_events"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		OutputDir:             "out",
		SplitNames:            []string{types.SplitTrain, types.SplitTuning, types.SplitHeldOut},
		SplitFractions:        []float64{0.8, 0.1},
		Seed:                  1,
		MinTrueFloatFrequency: 0.1,
		OutlierDetector:       preprocess.StddevCutoffName,
		Normalizer:            preprocess.StandardScalerName,
		AggregateEvents:       true,
	}
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	if c.SubjectsFile == "" || c.EventsFile == "" {
		return fmt.Errorf("%w: subjects_file and events_file are required", ErrInvalidConfig)
	}
	if len(c.SplitNames) == 0 {
		return fmt.Errorf("%w: at least one split name is required", ErrInvalidConfig)
	}
	if n := len(c.SplitFractions); n != len(c.SplitNames) && n != len(c.SplitNames)-1 {
		return fmt.Errorf("%w: %d split fractions for %d names", ErrInvalidConfig, n, len(c.SplitNames))
	}
	if c.MinTrueFloatFrequency < 0 || c.MinTrueFloatFrequency > 1 {
		return fmt.Errorf("%w: min_true_float_frequency %v outside [0,1]", ErrInvalidConfig, c.MinTrueFloatFrequency)
	}
	for name, spec := range c.Measurements {
		if spec.Modality == "multivariate_regression" && spec.ValuesColumn == "" {
			return fmt.Errorf("%w: measurement %q needs a values_column", ErrInvalidConfig, name)
		}
	}
	return nil
}
