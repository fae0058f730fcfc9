package dataset

import "errors"

// Sentinel kinds for dataset errors. These allow errors.Is/As from callers.
var (
	// ErrInvalidTable marks malformed input tables: duplicate or negative
	// ids, missing mandatory columns, wrong column kinds, or declared
	// measurements found in a table of the wrong temporality.
	ErrInvalidTable = errors.New("invalid input table")

	// ErrInvalidSplit marks bad split fractions or names.
	ErrInvalidSplit = errors.New("invalid split specification")

	// ErrAlreadyFitted rejects a second Fit on the same dataset.
	ErrAlreadyFitted = errors.New("dataset already fitted")

	// ErrFitColumn wraps a failure while fitting a single measurement
	// column. Fitting of other columns continues; the joined error is
	// returned at the end.
	ErrFitColumn = errors.New("fitting measurement column failed")

	// ErrTransformColumn wraps a failure while transforming a single
	// measurement column. It aborts the whole transform.
	ErrTransformColumn = errors.New("transforming measurement column failed")
)
