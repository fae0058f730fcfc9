package dataset

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/seqprep/internal/domain/measurement"
	"github.com/okian/seqprep/internal/domain/table"
	"github.com/okian/seqprep/internal/domain/vocabulary"
)

// Transform applies the fitted preprocessing state to the full dataset in
// place: bound application, categorical-numeric rewriting, outlier masking,
// normalization and UNK mapping. Columns are processed in a stable order
// since later updates read the table state left by earlier ones.
//
// Transform is one-shot; a second call is a no-op.
func (f *Fitted) Transform(ctx context.Context) error {
	d := f.d
	if d.transformed {
		d.log.Debug(ctx, "dataset already transformed, skipping")
		return nil
	}
	for _, name := range sortedNames(d.inferred) {
		if err := ctx.Err(); err != nil {
			return err
		}
		cfg := d.inferred[name]
		if cfg.IsDropped() {
			continue
		}
		if err := d.transformColumn(cfg); err != nil {
			return fmt.Errorf("%w: %q: %w", ErrTransformColumn, name, err)
		}
	}
	d.transformed = true
	return nil
}

// transformColumn rewrites one measurement column in its owning table.
func (d *Dataset) transformColumn(cfg *measurement.Config) error {
	owner, _ := d.ownerTable(cfg.Temporality)
	if !owner.HasColumn(cfg.Name) {
		return nil
	}

	source := owner
	if cfg.Temporality == measurement.Dynamic && len(cfg.PresentInEventTypes) > 0 {
		include := make(map[string]struct{}, len(cfg.PresentInEventTypes))
		for _, et := range cfg.PresentInEventTypes {
			include[et] = struct{}{}
		}
		source = source.FilterStringIn(ColEventType, include)
	}
	source = source.DropNulls(cfg.Name)

	var updated []string
	var err error
	switch {
	case cfg.Modality == measurement.UnivariateRegression:
		updated, err = d.transformUnivariate(cfg, source)
	case cfg.Modality == measurement.MultivariateRegression:
		updated, err = d.transformMultivariate(cfg, source)
	default:
		updated, err = d.transformCategorical(cfg, source)
	}
	if err != nil {
		return err
	}
	return owner.UpdateByID(source, updated)
}

// transformUnivariate processes a single-key numeric column. Categorical
// value types turn the column into rewritten symbols; continuous ones apply
// bounds, outlier masking and normalization in place.
func (d *Dataset) transformUnivariate(cfg *measurement.Config, source *table.Table) ([]string, error) {
	meta := cfg.Metadata.Get(cfg.Name)
	if meta == nil {
		return nil, nil
	}
	col, _ := source.Column(cfg.Name)
	n := source.Len()

	if meta.ValueType.IsCategorical() {
		out := table.NewNullColumn(table.KindString, n)
		for i := 0; i < n; i++ {
			v, ok := col.Float(i)
			if !ok {
				continue
			}
			v, ok = meta.Bounds.Apply(v)
			if !ok {
				continue
			}
			sym := rewriteSymbol(cfg.Name, meta.ValueType, v)
			if cfg.Vocabulary != nil && !cfg.Vocabulary.Contains(sym) {
				sym = vocabulary.UNK
			}
			out.SetString(i, sym)
		}
		if err := source.AddColumn(cfg.Name, out); err != nil {
			return nil, err
		}
		return []string{cfg.Name}, nil
	}

	var inlier *table.Column
	if d.outlier != nil && meta.OutlierParams != nil {
		inlier = table.NewNullColumn(table.KindInt, n)
	}
	for i := 0; i < n; i++ {
		v, ok := col.Float(i)
		if !ok {
			continue
		}
		v, ok = meta.Bounds.Apply(v)
		if !ok {
			col.SetNull(i)
			continue
		}
		switch meta.ValueType {
		case measurement.DroppedValue:
			col.SetNull(i)
			continue
		case measurement.Integer:
			v = math.Round(v)
		}
		if inlier != nil {
			if d.outlier.IsOutlier(v, meta.OutlierParams) {
				inlier.SetInt(i, 0)
				col.SetNull(i)
				continue
			}
			inlier.SetInt(i, 1)
		}
		if d.normalizer != nil && meta.NormalizerParams != nil {
			v = d.normalizer.Transform(v, meta.NormalizerParams)
		}
		col.SetFloat(i, v)
	}

	updated := []string{cfg.Name}
	if inlier != nil {
		name := cfg.Name + InlierSuffix
		if err := source.AddColumn(name, inlier); err != nil {
			return nil, err
		}
		updated = append(updated, name)
	}
	return updated, nil
}

// transformMultivariate processes a keyed numeric column pair: the key
// column may be rewritten per row (categorical keys, UNK mapping) while the
// values column is bounded, masked and normalized under that row's key
// metadata.
func (d *Dataset) transformMultivariate(cfg *measurement.Config, source *table.Table) ([]string, error) {
	keyCol, _ := source.Column(cfg.Name)
	valCol, _ := source.Column(cfg.ValuesColumnName())
	n := source.Len()

	var inlier *table.Column
	if d.outlier != nil {
		inlier = table.NewNullColumn(table.KindInt, n)
	}
	for i := 0; i < n; i++ {
		key, ok := keyCol.String(i)
		if !ok {
			continue
		}
		meta := cfg.Metadata.Get(key)
		v, hasV := 0.0, false
		if valCol != nil {
			v, hasV = valCol.Float(i)
		}

		if meta != nil {
			if hasV {
				var keep bool
				v, keep = meta.Bounds.Apply(v)
				if !keep {
					valCol.SetNull(i)
					hasV = false
				}
			}
			switch meta.ValueType {
			case measurement.DroppedValue:
				if hasV {
					valCol.SetNull(i)
					hasV = false
				}
			case measurement.CategoricalInteger, measurement.CategoricalFloat:
				if hasV {
					key = rewriteSymbol(key, meta.ValueType, v)
					keyCol.SetString(i, key)
					valCol.SetNull(i)
					hasV = false
				}
			case measurement.Integer:
				if hasV {
					v = math.Round(v)
					valCol.SetFloat(i, v)
				}
			}
			if inlier != nil && meta.OutlierParams != nil && hasV {
				if d.outlier.IsOutlier(v, meta.OutlierParams) {
					inlier.SetInt(i, 0)
					valCol.SetNull(i)
					hasV = false
				} else {
					inlier.SetInt(i, 1)
				}
			}
			if d.normalizer != nil && meta.NormalizerParams != nil && hasV {
				v = d.normalizer.Transform(v, meta.NormalizerParams)
				valCol.SetFloat(i, v)
			}
		}

		if cfg.Vocabulary != nil && !cfg.Vocabulary.Contains(key) {
			keyCol.SetString(i, vocabulary.UNK)
			if hasV && valCol != nil {
				valCol.SetNull(i)
			}
		}
	}

	updated := []string{cfg.Name}
	if valCol != nil {
		updated = append(updated, cfg.ValuesColumnName())
	}
	if inlier != nil {
		name := cfg.Name + InlierSuffix
		if err := source.AddColumn(name, inlier); err != nil {
			return nil, err
		}
		updated = append(updated, name)
	}
	return updated, nil
}

// transformCategorical maps out-of-vocabulary symbols of a classification
// column to UNK.
func (d *Dataset) transformCategorical(cfg *measurement.Config, source *table.Table) ([]string, error) {
	if cfg.Vocabulary == nil {
		return nil, nil
	}
	col, _ := source.Column(cfg.Name)
	for i := 0; i < source.Len(); i++ {
		sym, ok := col.String(i)
		if !ok {
			continue
		}
		if !cfg.Vocabulary.Contains(sym) {
			col.SetString(i, vocabulary.UNK)
		}
	}
	return []string{cfg.Name}, nil
}
