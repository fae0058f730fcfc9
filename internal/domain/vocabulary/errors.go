package vocabulary

import "errors"

// Sentinel kinds for vocabulary errors. These allow errors.Is/As from callers.
var (
	ErrEmptyVocabulary = errors.New("vocabulary must not be empty")
	ErrLengthMismatch  = errors.New("symbols and counts length mismatch")
	ErrDuplicateSymbol = errors.New("duplicate vocabulary symbol")
	ErrNegativeCount   = errors.New("negative observation count")
)
