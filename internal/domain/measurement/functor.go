package measurement

import (
	"time"

	"github.com/okian/seqprep/internal/domain/table"
)

// Time-of-day bucket symbols.
const (
	TimeOfDayEarlyAM = "EARLY_AM"
	TimeOfDayAM      = "AM"
	TimeOfDayPM      = "PM"
	TimeOfDayLatePM  = "LATE_PM"
)

// StaticValues resolves static attributes of the subject owning an event.
type StaticValues interface {
	Time(column string) (time.Time, bool)
	Float(column string) (float64, bool)
	String(column string) (string, bool)
}

// FunctorResult is a single derived value; which field is meaningful depends
// on the functor's output kind.
type FunctorResult struct {
	Str string
	Num float64
}

// Functor derives a functional time-dependent column from an event timestamp
// and the owning subject's static attributes.
type Functor interface {
	// OutputKind is table.KindFloat or table.KindString.
	OutputKind() table.Kind
	// StaticColumns lists the subject columns the functor reads.
	StaticColumns() []string
	// Evaluate computes the derived value; false means missing.
	Evaluate(ts time.Time, static StaticValues) (FunctorResult, bool)
}

const hoursPerYear = 24 * 365.25

// AgeFunctor derives the subject's age in years at event time from a static
// date-of-birth column. Numeric univariate.
type AgeFunctor struct {
	DOBColumn string
}

// OutputKind returns the derived column kind.
func (f AgeFunctor) OutputKind() table.Kind { return table.KindFloat }

// StaticColumns lists the subject columns read.
func (f AgeFunctor) StaticColumns() []string { return []string{f.DOBColumn} }

// Evaluate computes the age at ts; missing when the subject has no DOB.
func (f AgeFunctor) Evaluate(ts time.Time, static StaticValues) (FunctorResult, bool) {
	dob, ok := static.Time(f.DOBColumn)
	if !ok {
		return FunctorResult{}, false
	}
	return FunctorResult{Num: ts.Sub(dob).Hours() / hoursPerYear}, true
}

// TimeOfDayFunctor buckets the event timestamp into coarse day segments.
// Single-label categorical.
type TimeOfDayFunctor struct{}

// OutputKind returns the derived column kind.
func (f TimeOfDayFunctor) OutputKind() table.Kind { return table.KindString }

// StaticColumns lists the subject columns read.
func (f TimeOfDayFunctor) StaticColumns() []string { return nil }

// Evaluate buckets ts by local hour.
func (f TimeOfDayFunctor) Evaluate(ts time.Time, _ StaticValues) (FunctorResult, bool) {
	switch h := ts.Hour(); {
	case h < 6:
		return FunctorResult{Str: TimeOfDayEarlyAM}, true
	case h < 12:
		return FunctorResult{Str: TimeOfDayAM}, true
	case h < 21:
		return FunctorResult{Str: TimeOfDayPM}, true
	default:
		return FunctorResult{Str: TimeOfDayLatePM}, true
	}
}
