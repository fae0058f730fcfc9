// Package dataset holds the central preprocessing engine: it validates the
// three input tables (subjects, events, dynamic measurements), derives
// functional time-dependent columns, splits subjects, fits per-measurement
// preprocessing state over the training split, and transforms the full
// dataset with that state.
package dataset

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/okian/seqprep/internal/domain/measurement"
	"github.com/okian/seqprep/internal/domain/preprocess"
	"github.com/okian/seqprep/internal/domain/table"
	"github.com/okian/seqprep/internal/domain/types"
	"github.com/okian/seqprep/pkg/logger"
)

// Well-known column names shared by the input tables.
const (
	ColSubjectID = "subject_id"
	ColEventID   = "event_id"
	ColTimestamp = "timestamp"
	ColEventType = "event_type"
)

// InlierSuffix is appended to a numeric measurement's name to form the
// column recording outlier-detector verdicts during transform.
const InlierSuffix = "_is_inlier"

// Config carries the declared measurements and the fitting thresholds.
type Config struct {
	// Measurements maps measurement name to its declared configuration.
	Measurements map[string]*measurement.Config

	// MinValidColumnObservations drops whole columns observed too rarely.
	MinValidColumnObservations types.CountOrProportion
	// MinValidVocabElementObservations collapses rare vocabulary elements
	// into UNK and drops rare multivariate keys.
	MinValidVocabElementObservations types.CountOrProportion
	// MinUniqueNumericalObservations decides categorical vs continuous
	// during value type inference.
	MinUniqueNumericalObservations types.CountOrProportion
	// MinTrueFloatFrequency is the integrality threshold for inference.
	MinTrueFloatFrequency float64

	// OutlierDetector names the outlier model to fit per numeric key.
	// Empty disables outlier detection.
	OutlierDetector        string
	OutlierDetectorOptions map[string]float64
	// Normalizer names the normalization model to fit per numeric key.
	// Empty disables normalization.
	Normalizer        string
	NormalizerOptions map[string]float64

	// AggregateEvents merges events sharing (subject, timestamp, event
	// type) into one event, remapping measurement rows accordingly.
	AggregateEvents bool
}

// Dataset is the mutable pre-fit engine state.
type Dataset struct {
	cfg Config

	subjects     *table.Table
	events       *table.Table
	measurements *table.Table

	// eventTypes is ordered by descending event frequency.
	eventTypes []string
	// splits maps split name to its subject id membership set.
	splits map[string]map[int64]struct{}

	outlier    preprocess.OutlierDetector
	normalizer preprocess.Normalizer

	log logger.Logger

	// inferred holds the fitted measurement configurations. Populated by
	// Fit; nil before.
	inferred map[string]*measurement.Config
	// transformed guards against re-running the transform pipeline.
	transformed bool
}

// Option customizes a Dataset.
type Option func(*Dataset)

// WithLogger sets the logger used during fitting and transformation.
func WithLogger(l logger.Logger) Option {
	return func(d *Dataset) {
		d.log = l
	}
}

// New validates the three input tables and assembles a Dataset.
//
// Subjects must have unique non-negative ids. Events must carry valid
// timestamp and event_type columns. Measurements must reference existing
// events. Declared measurement columns must live in the table matching
// their temporality.
func New(cfg Config, subjects, events, measurements *table.Table, opts ...Option) (*Dataset, error) {
	d := &Dataset{
		cfg:          cfg,
		subjects:     subjects,
		events:       events,
		measurements: measurements,
		splits:       make(map[string]map[int64]struct{}),
		log:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}

	if cfg.OutlierDetector != "" {
		det, err := preprocess.NewOutlierDetector(cfg.OutlierDetector, cfg.OutlierDetectorOptions)
		if err != nil {
			return nil, fmt.Errorf("outlier detector %q: %w", cfg.OutlierDetector, err)
		}
		d.outlier = det
	}
	if cfg.Normalizer != "" {
		norm, err := preprocess.NewNormalizer(cfg.Normalizer, cfg.NormalizerOptions)
		if err != nil {
			return nil, fmt.Errorf("normalizer %q: %w", cfg.Normalizer, err)
		}
		d.normalizer = norm
	}

	if err := d.validate(); err != nil {
		return nil, err
	}
	d.sortEvents()
	if cfg.AggregateEvents {
		if err := d.aggregateEvents(); err != nil {
			return nil, err
		}
	}
	if err := d.attachMeasurementContext(); err != nil {
		return nil, err
	}
	d.collectEventTypes()
	return d, nil
}

// Subjects returns the subjects table.
func (d *Dataset) Subjects() *table.Table { return d.subjects }

// Events returns the events table, sorted by subject then timestamp.
func (d *Dataset) Events() *table.Table { return d.events }

// Measurements returns the dynamic measurements table.
func (d *Dataset) Measurements() *table.Table { return d.measurements }

// EventTypes returns the observed event types by descending frequency.
func (d *Dataset) EventTypes() []string {
	out := make([]string, len(d.eventTypes))
	copy(out, d.eventTypes)
	return out
}

// SplitSubjects returns the subject ids assigned to the named split, or
// nil if the split does not exist.
func (d *Dataset) SplitSubjects(name string) []int64 {
	set, ok := d.splits[name]
	if !ok {
		return nil
	}
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Split partitions the subjects into the named splits using the given
// fractions and a deterministic seed. Fractions must be positive and sum
// to at most 1; a trailing remainder fraction may be implied by one fewer
// fraction than names.
func (d *Dataset) Split(fractions []float64, names []string, seed int64) error {
	switch {
	case len(names) == 0:
		return fmt.Errorf("%w: no split names", ErrInvalidSplit)
	case len(fractions) == len(names)-1:
		sum := 0.0
		for _, f := range fractions {
			sum += f
		}
		if sum >= 1 {
			return fmt.Errorf("%w: fractions sum to %v with an implied remainder split", ErrInvalidSplit, sum)
		}
		fractions = append(append([]float64{}, fractions...), 1-sum)
	case len(fractions) != len(names):
		return fmt.Errorf("%w: %d fractions for %d names", ErrInvalidSplit, len(fractions), len(names))
	}
	sum := 0.0
	for _, f := range fractions {
		if f <= 0 {
			return fmt.Errorf("%w: non-positive fraction %v", ErrInvalidSplit, f)
		}
		sum += f
	}
	if sum > 1+1e-9 {
		return fmt.Errorf("%w: fractions sum to %v", ErrInvalidSplit, sum)
	}
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, dup := seen[n]; dup {
			return fmt.Errorf("%w: duplicate split name %q", ErrInvalidSplit, n)
		}
		seen[n] = struct{}{}
	}

	ids := append([]int64{}, d.subjects.IDs()...)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

	d.splits = make(map[string]map[int64]struct{}, len(names))
	start := 0
	for i, name := range names {
		n := int(fractions[i]*float64(len(ids)) + 0.5)
		if i == len(names)-1 {
			n = len(ids) - start
		}
		if start+n > len(ids) {
			n = len(ids) - start
		}
		set := make(map[int64]struct{}, n)
		for _, id := range ids[start : start+n] {
			set[id] = struct{}{}
		}
		d.splits[name] = set
		start += n
	}
	return nil
}

// AssignSplit sets the membership of a named split explicitly.
func (d *Dataset) AssignSplit(name string, subjectIDs []int64) {
	set := make(map[int64]struct{}, len(subjectIDs))
	for _, id := range subjectIDs {
		set[id] = struct{}{}
	}
	d.splits[name] = set
}

// trainSet returns the training split membership. When no splits were
// assigned, every subject is treated as training data.
func (d *Dataset) trainSet() map[int64]struct{} {
	if set, ok := d.splits[types.SplitTrain]; ok {
		return set
	}
	set := make(map[int64]struct{}, d.subjects.Len())
	for _, id := range d.subjects.IDs() {
		set[id] = struct{}{}
	}
	return set
}

// AddTimeDependentMeasurements evaluates every functional time-dependent
// measurement's functor over the events table and materializes the result
// as an events column.
func (d *Dataset) AddTimeDependentMeasurements() error {
	names := sortedNames(d.cfg.Measurements)
	subjectRows := make(map[int64]int, d.subjects.Len())
	for i, id := range d.subjects.IDs() {
		subjectRows[id] = i
	}
	for _, name := range names {
		cfg := d.cfg.Measurements[name]
		if cfg.Temporality != measurement.FunctionalTimeDependent || cfg.Functor == nil {
			continue
		}
		col := table.NewNullColumn(cfg.Functor.OutputKind(), d.events.Len())
		ts, _ := d.events.Column(ColTimestamp)
		subj, _ := d.events.Column(ColSubjectID)
		for i := 0; i < d.events.Len(); i++ {
			t, ok := ts.Time(i)
			if !ok {
				continue
			}
			sid, ok := subj.Int(i)
			if !ok {
				continue
			}
			row, ok := subjectRows[sid]
			if !ok {
				continue
			}
			res, ok := cfg.Functor.Evaluate(t, subjectView{t: d.subjects, row: row})
			if !ok {
				continue
			}
			switch cfg.Functor.OutputKind() {
			case table.KindString:
				col.SetString(i, res.Str)
			default:
				col.SetFloat(i, res.Num)
			}
		}
		if err := d.events.AddColumn(name, col); err != nil {
			return fmt.Errorf("time-dependent column %q: %w", name, err)
		}
	}
	return nil
}

// subjectView adapts a subjects table row to measurement.StaticValues.
type subjectView struct {
	t   *table.Table
	row int
}

func (v subjectView) Time(col string) (time.Time, bool) {
	c, ok := v.t.Column(col)
	if !ok {
		return time.Time{}, false
	}
	return c.Time(v.row)
}

func (v subjectView) Float(col string) (float64, bool) {
	c, ok := v.t.Column(col)
	if !ok {
		return 0, false
	}
	return c.Float(v.row)
}

func (v subjectView) String(col string) (string, bool) {
	c, ok := v.t.Column(col)
	if !ok {
		return "", false
	}
	return c.String(v.row)
}

func sortedNames(m map[string]*measurement.Config) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
