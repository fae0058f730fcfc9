package preprocess

// StandardScaler centers values on the training mean and scales by the
// training standard deviation.
type StandardScaler struct{}

// Name returns the registry name.
func (s *StandardScaler) Name() string { return StandardScalerName }

// Fit learns the training mean and standard deviation.
func (s *StandardScaler) Fit(values []float64) (Params, error) {
	if len(values) == 0 {
		return nil, ErrNoObservations
	}
	mean, std := meanStddev(values)
	return Params{paramMean: mean, paramStddev: std}, nil
}

// Transform rescales a single value. A degenerate zero deviation centers
// without scaling; a nil parameter record passes the value through.
func (s *StandardScaler) Transform(v float64, p Params) float64 {
	if p == nil {
		return v
	}
	if p[paramStddev] == 0 {
		return v - p[paramMean]
	}
	return (v - p[paramMean]) / p[paramStddev]
}
