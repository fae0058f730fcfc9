package csvio

import "errors"

// Sentinel kinds for CSV adapter errors.
var (
	ErrMissingHeader = errors.New("missing header row")
	ErrMissingColumn = errors.New("missing required column")
	ErrBadCell       = errors.New("malformed cell")
)
