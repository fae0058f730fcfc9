// Package infer decides the effective numeric subtype of a measurement key
// from its observed training values: integral vs. float, categorical vs.
// continuous, or dropped as uninformative.
package infer

import (
	"math"

	"github.com/okian/seqprep/internal/domain/measurement"
	"github.com/okian/seqprep/internal/domain/types"
)

// Thresholds carries the global value-type inference knobs.
type Thresholds struct {
	// MinTrueFloatFrequency is the minimum fraction of genuinely fractional
	// values required to keep a key floating point. Zero disables the
	// integral test entirely (keys are always float).
	MinTrueFloatFrequency float64

	// MinUniqueNumericalObservations is the distinct-count cutoff below which
	// a key is re-categorized as categorical. Unset disables the test.
	MinUniqueNumericalObservations types.CountOrProportion
}

// ValueType infers the numeric subtype for one key from its observed
// non-null values. Pure; never fails on ordinary data. Callers must not
// overwrite a previously assigned subtype with the result.
func ValueType(values []float64, t Thresholds) measurement.ValueType {
	if len(values) == 0 {
		return measurement.Unset
	}

	isInt := false
	if t.MinTrueFloatFrequency > 0 {
		integral := 0
		for _, v := range values {
			if v == math.Round(v) {
				integral++
			}
		}
		isInt = float64(integral)/float64(len(values)) > 1-t.MinTrueFloatFrequency
	}

	distinct := make(map[float64]struct{}, len(values))
	for _, v := range values {
		if isInt {
			v = math.Round(v)
		}
		distinct[v] = struct{}{}
	}

	// A key with a single observed value carries no information.
	if len(distinct) == 1 {
		return measurement.DroppedValue
	}

	isCategorical := t.MinUniqueNumericalObservations.LessThan(len(distinct), len(values))

	switch {
	case isInt && isCategorical:
		return measurement.CategoricalInteger
	case isCategorical:
		return measurement.CategoricalFloat
	case isInt:
		return measurement.Integer
	default:
		return measurement.Float
	}
}
