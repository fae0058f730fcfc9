// Package types contains small shared types used across the preprocessing engine.
package types

import "math"

// Canonical split names. The train split has special significance: all
// measurement fitting is performed exclusively over it.
const (
	SplitTrain   = "train"
	SplitTuning  = "tuning"
	SplitHeldOut = "held_out"
)

// CountOrProportion expresses a cutoff either as an absolute count or as a
// proportion of a total. Exactly one of the two should be set; the zero
// value means "no cutoff configured" and is a no-op everywhere.
type CountOrProportion struct {
	Count      int
	Proportion float64
}

// Count builds an absolute-count cutoff.
func Count(n int) CountOrProportion { return CountOrProportion{Count: n} }

// Proportion builds a proportional cutoff resolved against a total.
func Proportion(p float64) CountOrProportion { return CountOrProportion{Proportion: p} }

// IsSet reports whether a cutoff was configured at all.
func (c CountOrProportion) IsSet() bool { return c.Count > 0 || c.Proportion > 0 }

// Cutoff resolves the threshold against a total. Counts are returned as-is;
// proportions are rounded against the total.
func (c CountOrProportion) Cutoff(total int) int {
	if c.Count > 0 {
		return c.Count
	}
	return int(math.Round(c.Proportion * float64(total)))
}

// LessThan reports whether observed falls below the resolved cutoff. An
// unset cutoff never rejects anything.
func (c CountOrProportion) LessThan(observed, total int) bool {
	if !c.IsSet() {
		return false
	}
	return observed < c.Cutoff(total)
}
