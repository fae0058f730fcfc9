package table

import "errors"

// Sentinel kinds for table errors. These allow errors.Is/As from callers.
var (
	ErrLengthMismatch = errors.New("column length mismatch")
)
