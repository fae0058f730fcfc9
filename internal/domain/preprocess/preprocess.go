// Package preprocess provides the pluggable statistical models fit per
// vocabulary key during measurement fitting: outlier detectors and value
// normalizers, selected from a named registry.
//
// Conventions:
//   - Models are stateless; fitted state lives in the opaque Params record
//     stored in measurement metadata, so fitting and prediction can run on
//     different dataset partitions.
//   - Unknown model names fail at construction, never at fit time.
package preprocess

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Params is the opaque fitted-parameter record a model produces and later
// consumes. Keys are model-specific.
type Params map[string]float64

// OutlierDetector flags values to be treated as missing prior to
// normalization.
type OutlierDetector interface {
	// Name returns the registry name of the model.
	Name() string
	// Fit learns parameters from training values.
	Fit(values []float64) (Params, error)
	// IsOutlier applies fitted parameters to a single value.
	IsOutlier(v float64, p Params) bool
}

// Normalizer rescales values using parameters fit on inlier training values.
type Normalizer interface {
	// Name returns the registry name of the model.
	Name() string
	// Fit learns parameters from training values.
	Fit(values []float64) (Params, error)
	// Transform applies fitted parameters to a single value.
	Transform(v float64, p Params) float64
}

// Registry names of the built-in models.
const (
	StddevCutoffName   = "stddev_cutoff"
	StandardScalerName = "standard_scaler"
)

// NewOutlierDetector resolves an outlier detector by registry name. Options
// are model-specific tuning values; unknown names are a configuration error.
func NewOutlierDetector(name string, options map[string]float64) (OutlierDetector, error) {
	switch name {
	case StddevCutoffName:
		d := &StddevCutoff{cutoff: defaultStddevCutoff}
		if c, ok := options["stddev_cutoff"]; ok && c > 0 {
			d.cutoff = c
		}
		return d, nil
	default:
		return nil, fmt.Errorf("%w: outlier detector %q", ErrUnknownModel, name)
	}
}

// NewNormalizer resolves a normalizer by registry name.
func NewNormalizer(name string, _ map[string]float64) (Normalizer, error) {
	switch name {
	case StandardScalerName:
		return &StandardScaler{}, nil
	default:
		return nil, fmt.Errorf("%w: normalizer %q", ErrUnknownModel, name)
	}
}

// meanStddev computes the sample mean and standard deviation, degrading to a
// zero deviation when fewer than two observations exist.
func meanStddev(values []float64) (float64, float64) {
	if len(values) < 2 {
		if len(values) == 1 {
			return values[0], 0
		}
		return 0, 0
	}
	mean, std := stat.MeanStdDev(values, nil)
	return mean, std
}
