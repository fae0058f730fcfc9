package dataset

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/okian/seqprep/internal/domain/infer"
	"github.com/okian/seqprep/internal/domain/measurement"
	"github.com/okian/seqprep/internal/domain/table"
	"github.com/okian/seqprep/internal/domain/vocabulary"
	"github.com/okian/seqprep/pkg/logger"
)

// Fit runs the preprocessing fit over the training split: observation
// frequencies, per-key numeric metadata (bounds, value types, outlier and
// normalizer parameters) and vocabularies. Declared configurations are never
// mutated; fitted clones live on the returned handle.
//
// A failure on one column does not stop the others. All per-column errors
// are joined and returned together, in which case no handle is produced.
func (d *Dataset) Fit(ctx context.Context) (*Fitted, error) {
	if d.inferred != nil {
		return nil, ErrAlreadyFitted
	}
	train := d.trainSet()

	inferred := make(map[string]*measurement.Config, len(d.cfg.Measurements))
	var errs []error
	for _, name := range sortedNames(d.cfg.Measurements) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cfg, err := d.fitColumn(ctx, name, d.cfg.Measurements[name], train)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %q: %w", ErrFitColumn, name, err))
			continue
		}
		inferred[name] = cfg
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	d.inferred = inferred
	return &Fitted{d: d}, nil
}

// fitColumn fits a single measurement column over the training rows and
// returns the annotated clone of its declared configuration.
func (d *Dataset) fitColumn(ctx context.Context, name string, declared *measurement.Config, train map[int64]struct{}) (*measurement.Config, error) {
	cfg := declared.Clone()
	if cfg.IsDropped() {
		return cfg, nil
	}
	if cfg.Metadata == nil && cfg.IsNumeric() {
		cfg.Metadata = measurement.NewMetadataTable()
	}

	source := d.fitSource(cfg, train)
	col, ok := source.Column(name)
	if !ok {
		d.log.Warn(ctx, "measurement column absent, dropping", logger.String("column", name))
		cfg.Drop()
		return cfg, nil
	}

	possible, observed := observationCounts(cfg, source, col)
	if possible == 0 {
		d.log.Warn(ctx, "no possible observations, dropping", logger.String("column", name))
		cfg.Drop()
		return cfg, nil
	}
	cfg.ObservationFrequency = float64(observed) / float64(possible)
	if observed == 0 || d.cfg.MinValidColumnObservations.LessThan(observed, possible) {
		d.log.Info(ctx, "measurement observed too rarely, dropping",
			logger.String("column", name),
			logger.Int("observed", observed),
			logger.Int("possible", possible))
		cfg.Drop()
		return cfg, nil
	}

	source = source.DropNulls(name)
	if cfg.IsNumeric() {
		if err := d.fitMetadata(cfg, source); err != nil {
			return nil, err
		}
	}
	if cfg.Vocabulary == nil {
		if err := d.fitVocabulary(cfg, source); err != nil {
			return nil, err
		}
	}
	if cfg.Vocabulary != nil && cfg.Vocabulary.OnlyUNK() {
		d.log.Info(ctx, "vocabulary collapsed entirely into UNK, dropping",
			logger.String("column", name))
		cfg.Drop()
	}
	return cfg, nil
}

// fitSource returns the training rows owning this measurement's column.
func (d *Dataset) fitSource(cfg *measurement.Config, train map[int64]struct{}) *table.Table {
	switch cfg.Temporality {
	case measurement.Static:
		return d.subjects.FilterIDs(train)
	case measurement.FunctionalTimeDependent:
		return d.events.FilterIntIn(ColSubjectID, train)
	default:
		src := d.measurements.FilterIntIn(ColSubjectID, train)
		if len(cfg.PresentInEventTypes) > 0 {
			include := make(map[string]struct{}, len(cfg.PresentInEventTypes))
			for _, et := range cfg.PresentInEventTypes {
				include[et] = struct{}{}
			}
			src = src.FilterStringIn(ColEventType, include)
		}
		return src
	}
}

// observationCounts computes how often the column could have been observed
// and how often it was. Dynamic measurements count distinct events rather
// than rows, since one event may carry many measurement rows.
func observationCounts(cfg *measurement.Config, source *table.Table, col *table.Column) (possible, observed int) {
	if cfg.Temporality != measurement.Dynamic {
		return source.Len(), col.PresentCount()
	}
	evCol, ok := source.Column(ColEventID)
	if !ok {
		return 0, 0
	}
	all := make(map[int64]struct{})
	present := make(map[int64]struct{})
	for i := 0; i < source.Len(); i++ {
		eid, _ := evCol.Int(i)
		all[eid] = struct{}{}
		if col.IsPresent(i) {
			present[eid] = struct{}{}
		}
	}
	return len(all), len(present)
}

// keyedObservations splits a numeric measurement's training rows into
// per-key value slices. Univariate columns have a single key, the
// measurement's own name; multivariate columns key by the measurement
// column and read values from the paired values column.
func keyedObservations(cfg *measurement.Config, source *table.Table) (keys []string, valuesByKey map[string][]float64, rowsByKey map[string]int) {
	valuesByKey = make(map[string][]float64)
	rowsByKey = make(map[string]int)

	keyCol, _ := source.Column(cfg.Name)
	valCol, _ := source.Column(cfg.ValuesColumnName())
	for i := 0; i < source.Len(); i++ {
		key := cfg.Name
		if cfg.Modality == measurement.MultivariateRegression {
			k, ok := keyCol.String(i)
			if !ok {
				continue
			}
			key = k
		}
		if _, seen := valuesByKey[key]; !seen {
			keys = append(keys, key)
			valuesByKey[key] = nil
		}
		rowsByKey[key]++
		if valCol == nil {
			continue
		}
		if v, ok := valCol.Float(i); ok {
			valuesByKey[key] = append(valuesByKey[key], v)
		}
	}
	return keys, valuesByKey, rowsByKey
}

// fitMetadata fits per-key numeric state: key-level rarity filtering, bound
// application, value type inference and the outlier/normalizer models.
// Outliers are excluded from normalizer fitting but the detector itself is
// fit on all bounded values.
func (d *Dataset) fitMetadata(cfg *measurement.Config, source *table.Table) error {
	keys, valuesByKey, rowsByKey := keyedObservations(cfg, source)

	for _, key := range keys {
		meta := cfg.Metadata.Ensure(key)

		// Rare multivariate keys carry too little signal for a model of
		// their own; their values are dropped while the key symbol stays
		// observable.
		if cfg.Modality == measurement.MultivariateRegression &&
			d.cfg.MinValidVocabElementObservations.LessThan(rowsByKey[key], source.Len()) {
			if meta.ValueType == measurement.Unset {
				meta.ValueType = measurement.DroppedValue
			}
			continue
		}

		vals := make([]float64, 0, len(valuesByKey[key]))
		for _, v := range valuesByKey[key] {
			if kept, ok := meta.Bounds.Apply(v); ok {
				vals = append(vals, kept)
			}
		}
		if meta.ValueType == measurement.Unset {
			meta.ValueType = infer.ValueType(vals, infer.Thresholds{
				MinTrueFloatFrequency:          d.cfg.MinTrueFloatFrequency,
				MinUniqueNumericalObservations: d.cfg.MinUniqueNumericalObservations,
			})
		}
		switch meta.ValueType {
		case measurement.Integer:
			for i, v := range vals {
				vals[i] = math.Round(v)
			}
		case measurement.Float:
		default:
			// Categorical and dropped keys get no numeric models.
			continue
		}
		if len(vals) == 0 {
			continue
		}

		inliers := vals
		if d.outlier != nil {
			params, err := d.outlier.Fit(vals)
			if err != nil {
				return fmt.Errorf("fitting %s for key %q: %w", d.outlier.Name(), key, err)
			}
			meta.OutlierParams = params
			inliers = make([]float64, 0, len(vals))
			for _, v := range vals {
				if !d.outlier.IsOutlier(v, params) {
					inliers = append(inliers, v)
				}
			}
		}
		if d.normalizer != nil && len(inliers) > 0 {
			params, err := d.normalizer.Fit(inliers)
			if err != nil {
				return fmt.Errorf("fitting %s for key %q: %w", d.normalizer.Name(), key, err)
			}
			meta.NormalizerParams = params
		}
	}
	return nil
}

// fitVocabulary learns the measurement's vocabulary from its training rows.
// Categorical-numeric keys are rewritten to key__EQ_value symbols so each
// observed level becomes its own vocabulary element. Continuous univariate
// columns carry no vocabulary.
func (d *Dataset) fitVocabulary(cfg *measurement.Config, source *table.Table) error {
	keyCol, _ := source.Column(cfg.Name)
	valCol, _ := source.Column(cfg.ValuesColumnName())

	counts := make(map[string]int)
	var order []string
	record := func(sym string) {
		if _, seen := counts[sym]; !seen {
			order = append(order, sym)
		}
		counts[sym]++
	}

	switch cfg.Modality {
	case measurement.UnivariateRegression:
		meta := cfg.Metadata.Get(cfg.Name)
		if meta == nil || !meta.ValueType.IsCategorical() {
			return nil
		}
		for i := 0; i < source.Len(); i++ {
			v, ok := keyCol.Float(i)
			if !ok {
				continue
			}
			record(rewriteSymbol(cfg.Name, meta.ValueType, v))
		}
	case measurement.MultivariateRegression:
		for i := 0; i < source.Len(); i++ {
			key, ok := keyCol.String(i)
			if !ok {
				continue
			}
			meta := cfg.Metadata.Get(key)
			if meta == nil || !meta.ValueType.IsCategorical() {
				record(key)
				continue
			}
			v, ok := valCol.Float(i)
			if !ok {
				continue
			}
			record(rewriteSymbol(key, meta.ValueType, v))
		}
	default:
		for i := 0; i < source.Len(); i++ {
			if sym, ok := keyCol.String(i); ok {
				record(sym)
			}
		}
	}
	if len(order) == 0 {
		return nil
	}

	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	orderedCounts := make([]int, len(order))
	for i, sym := range order {
		orderedCounts[i] = counts[sym]
	}
	vocab, err := vocabulary.New(order, orderedCounts)
	if err != nil {
		return err
	}
	vocab.Filter(source.Len(), d.cfg.MinValidVocabElementObservations)
	cfg.Vocabulary = vocab
	return nil
}

// rewriteSymbol renders a categorical-numeric observation as a composite
// vocabulary symbol.
func rewriteSymbol(key string, vt measurement.ValueType, v float64) string {
	if vt == measurement.CategoricalInteger {
		return key + "__EQ_" + strconv.FormatInt(int64(math.Round(v)), 10)
	}
	return key + "__EQ_" + strconv.FormatFloat(v, 'g', -1, 64)
}
