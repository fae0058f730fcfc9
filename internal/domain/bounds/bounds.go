// Package bounds implements the per-key drop/censor bound policy: values
// outside a drop bound become missing, values outside a censor bound are
// clamped. Drop takes precedence, so the two rules never overlap in effect.
package bounds

import "math"

// Bound is an optional scalar bound. The zero value is absent and a no-op.
type Bound struct {
	Value     float64
	Inclusive bool // the bound value itself is also out of range
	Set       bool
}

// At returns a non-inclusive bound at v.
func At(v float64) Bound { return Bound{Value: v, Set: true} }

// AtInclusive returns an inclusive bound at v.
func AtInclusive(v float64) Bound { return Bound{Value: v, Inclusive: true, Set: true} }

// Bounds carries the full drop/censor policy for one vocabulary key.
type Bounds struct {
	DropLower   Bound
	DropUpper   Bound
	CensorLower Bound // censor bounds have no inclusive flag; clamping at the bound is identity
	CensorUpper Bound
}

// IsZero reports whether no bound is configured.
func (b Bounds) IsZero() bool {
	return !b.DropLower.Set && !b.DropUpper.Set && !b.CensorLower.Set && !b.CensorUpper.Set
}

// Apply evaluates the policy for a single value. It returns the resulting
// value and whether it survived: dropped values return (NaN, false), censored
// values return the clamped bound, in-range values pass through unchanged.
// Pure and order-independent per value.
func (b Bounds) Apply(v float64) (float64, bool) {
	if math.IsNaN(v) {
		return math.NaN(), false
	}
	if b.DropLower.Set && (v < b.DropLower.Value || (v == b.DropLower.Value && b.DropLower.Inclusive)) {
		return math.NaN(), false
	}
	if b.DropUpper.Set && (v > b.DropUpper.Value || (v == b.DropUpper.Value && b.DropUpper.Inclusive)) {
		return math.NaN(), false
	}
	if b.CensorLower.Set && v < b.CensorLower.Value {
		return b.CensorLower.Value, true
	}
	if b.CensorUpper.Set && v > b.CensorUpper.Value {
		return b.CensorUpper.Value, true
	}
	return v, true
}
