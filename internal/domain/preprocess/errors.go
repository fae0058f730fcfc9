package preprocess

import "errors"

// Sentinel kinds for preprocessing model errors.
var (
	ErrUnknownModel   = errors.New("unknown preprocessing model")
	ErrNoObservations = errors.New("no observations to fit on")
)
