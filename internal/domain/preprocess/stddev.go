package preprocess

import "math"

// Parameter keys shared by the built-in models.
const (
	paramMean   = "mean"
	paramStddev = "stddev"
	paramCutoff = "cutoff"

	defaultStddevCutoff = 5.0
)

// StddevCutoff flags values further than cutoff standard deviations from the
// training mean.
type StddevCutoff struct {
	cutoff float64
}

// Name returns the registry name.
func (d *StddevCutoff) Name() string { return StddevCutoffName }

// Fit learns the training mean and standard deviation.
func (d *StddevCutoff) Fit(values []float64) (Params, error) {
	if len(values) == 0 {
		return nil, ErrNoObservations
	}
	mean, std := meanStddev(values)
	return Params{paramMean: mean, paramStddev: std, paramCutoff: d.cutoff}, nil
}

// IsOutlier reports whether v falls outside mean +/- cutoff*stddev. A nil
// parameter record flags nothing.
func (d *StddevCutoff) IsOutlier(v float64, p Params) bool {
	if p == nil {
		return false
	}
	return math.Abs(v-p[paramMean]) > p[paramCutoff]*p[paramStddev]
}
