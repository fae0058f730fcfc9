package dataset

import (
	"fmt"

	"github.com/okian/seqprep/internal/domain/measurement"
	"github.com/okian/seqprep/internal/domain/table"
)

// validate checks table shape and the placement of declared measurement
// columns before any processing touches the data.
func (d *Dataset) validate() error {
	if err := checkIDs(d.subjects); err != nil {
		return fmt.Errorf("subjects: %w", err)
	}
	if err := checkIDs(d.events); err != nil {
		return fmt.Errorf("events: %w", err)
	}
	if err := checkIDs(d.measurements); err != nil {
		return fmt.Errorf("measurements: %w", err)
	}

	if err := requireColumn(d.events, ColTimestamp, table.KindTime); err != nil {
		return fmt.Errorf("events: %w", err)
	}
	if err := requireColumn(d.events, ColEventType, table.KindString); err != nil {
		return fmt.Errorf("events: %w", err)
	}
	if err := requireColumn(d.events, ColSubjectID, table.KindInt); err != nil {
		return fmt.Errorf("events: %w", err)
	}
	if err := requireColumn(d.measurements, ColEventID, table.KindInt); err != nil {
		return fmt.Errorf("measurements: %w", err)
	}

	subjects := make(map[int64]struct{}, d.subjects.Len())
	for _, id := range d.subjects.IDs() {
		subjects[id] = struct{}{}
	}
	subjCol, _ := d.events.Column(ColSubjectID)
	for i := 0; i < d.events.Len(); i++ {
		sid, _ := subjCol.Int(i)
		if _, ok := subjects[sid]; !ok {
			return fmt.Errorf("%w: event %d references unknown subject %d",
				ErrInvalidTable, d.events.ID(i), sid)
		}
	}
	events := make(map[int64]struct{}, d.events.Len())
	for _, id := range d.events.IDs() {
		events[id] = struct{}{}
	}
	evCol, _ := d.measurements.Column(ColEventID)
	for i := 0; i < d.measurements.Len(); i++ {
		eid, _ := evCol.Int(i)
		if _, ok := events[eid]; !ok {
			return fmt.Errorf("%w: measurement %d references unknown event %d",
				ErrInvalidTable, d.measurements.ID(i), eid)
		}
	}

	for _, name := range sortedNames(d.cfg.Measurements) {
		if err := d.checkPlacement(name, d.cfg.Measurements[name]); err != nil {
			return err
		}
	}
	return nil
}

// checkPlacement verifies a declared measurement column lives only in the
// table matching its temporality, with the column kind its modality needs.
func (d *Dataset) checkPlacement(name string, cfg *measurement.Config) error {
	owner, others := d.ownerTable(cfg.Temporality)
	for tbl, label := range others {
		if tbl.HasColumn(name) {
			return fmt.Errorf("%w: %s measurement %q found in %s table",
				ErrInvalidTable, cfg.Temporality, name, label)
		}
	}

	wantKind := table.KindString
	if cfg.Modality == measurement.UnivariateRegression {
		wantKind = table.KindFloat
	}
	if col, ok := owner.Column(name); ok && col.Kind() != wantKind {
		return fmt.Errorf("%w: measurement column %q has kind %v, want %v",
			ErrInvalidTable, name, col.Kind(), wantKind)
	}
	if cfg.Modality == measurement.MultivariateRegression {
		vals := cfg.ValuesColumnName()
		if vals == name {
			return fmt.Errorf("%w: multivariate measurement %q has no values column",
				ErrInvalidTable, name)
		}
		if col, ok := owner.Column(vals); ok && col.Kind() != table.KindFloat {
			return fmt.Errorf("%w: values column %q of %q has kind %v, want float",
				ErrInvalidTable, vals, name, col.Kind())
		}
	}
	return nil
}

// ownerTable maps a temporality to its owning table plus the other tables a
// column of that temporality must not appear in. Events are exempt from the
// functional time-dependent check since functors materialize there.
func (d *Dataset) ownerTable(t measurement.Temporality) (*table.Table, map[*table.Table]string) {
	switch t {
	case measurement.Static:
		return d.subjects, map[*table.Table]string{d.events: "events", d.measurements: "measurements"}
	case measurement.FunctionalTimeDependent:
		return d.events, map[*table.Table]string{d.subjects: "subjects", d.measurements: "measurements"}
	default:
		return d.measurements, map[*table.Table]string{d.subjects: "subjects", d.events: "events"}
	}
}

func checkIDs(t *table.Table) error {
	seen := make(map[int64]struct{}, t.Len())
	for i := 0; i < t.Len(); i++ {
		id := t.ID(i)
		if id < 0 {
			return fmt.Errorf("%w: negative %s %d", ErrInvalidTable, t.IDName(), id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate %s %d", ErrInvalidTable, t.IDName(), id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func requireColumn(t *table.Table, name string, kind table.Kind) error {
	col, ok := t.Column(name)
	if !ok {
		return fmt.Errorf("%w: missing column %q", ErrInvalidTable, name)
	}
	if col.Kind() != kind {
		return fmt.Errorf("%w: column %q has kind %v, want %v", ErrInvalidTable, name, col.Kind(), kind)
	}
	for i := 0; i < t.Len(); i++ {
		if !col.IsPresent(i) {
			return fmt.Errorf("%w: column %q is null at row %d", ErrInvalidTable, name, i)
		}
	}
	return nil
}

// sortEvents orders events by subject, then timestamp, then id so that every
// subject's history is contiguous and chronological.
func (d *Dataset) sortEvents() {
	subj, _ := d.events.Column(ColSubjectID)
	ts, _ := d.events.Column(ColTimestamp)
	d.events.SortStable(func(i, j int) bool {
		si, _ := subj.Int(i)
		sj, _ := subj.Int(j)
		if si != sj {
			return si < sj
		}
		ti, _ := ts.Time(i)
		tj, _ := ts.Time(j)
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return d.events.ID(i) < d.events.ID(j)
	})
}

// aggregateEvents merges events sharing (subject, timestamp, event type)
// into a single event. Event ids are renumbered densely in sorted order and
// the measurements table is remapped to the new ids. For other event columns
// the first present value in each group wins.
func (d *Dataset) aggregateEvents() error {
	subj, _ := d.events.Column(ColSubjectID)
	ts, _ := d.events.Column(ColTimestamp)
	typ, _ := d.events.Column(ColEventType)

	type groupKey struct {
		subject int64
		nanos   int64
		typ     string
	}
	groupOf := make(map[groupKey]int64, d.events.Len())
	remap := make(map[int64]int64, d.events.Len())
	firstRows := make([]int, 0, d.events.Len())

	for i := 0; i < d.events.Len(); i++ {
		s, _ := subj.Int(i)
		t, _ := ts.Time(i)
		et, _ := typ.String(i)
		key := groupKey{subject: s, nanos: t.UnixNano(), typ: et}
		gid, ok := groupOf[key]
		if !ok {
			gid = int64(len(firstRows))
			groupOf[key] = gid
			firstRows = append(firstRows, i)
		}
		remap[d.events.ID(i)] = gid
	}
	if len(firstRows) == d.events.Len() {
		// Nothing to merge; keep the original event ids.
		return nil
	}

	merged := d.events.Gather(firstRows)
	agg := table.New(ColEventID, seqIDs(len(firstRows)))
	for _, name := range merged.ColumnNames() {
		col, _ := merged.Column(name)
		if err := agg.AddColumn(name, col); err != nil {
			return err
		}
	}
	// Backfill group columns from later rows of each group where the first
	// row was null.
	for i := 0; i < d.events.Len(); i++ {
		s, _ := subj.Int(i)
		t, _ := ts.Time(i)
		et, _ := typ.String(i)
		gid := groupOf[groupKey{subject: s, nanos: t.UnixNano(), typ: et}]
		for _, name := range d.events.ColumnNames() {
			src, _ := d.events.Column(name)
			dst, _ := agg.Column(name)
			if dst.IsPresent(int(gid)) || !src.IsPresent(i) {
				continue
			}
			copyValue(dst, int(gid), src, i)
		}
	}
	d.events = agg

	evCol, _ := d.measurements.Column(ColEventID)
	for i := 0; i < d.measurements.Len(); i++ {
		old, _ := evCol.Int(i)
		evCol.SetInt(i, remap[old])
	}
	return nil
}

// attachMeasurementContext joins subject id and event type from the events
// table onto every measurement row, so splits and per-event-type filters can
// operate on the measurements table directly.
func (d *Dataset) attachMeasurementContext() error {
	subjOf := make(map[int64]int64, d.events.Len())
	typeOf := make(map[int64]string, d.events.Len())
	subj, _ := d.events.Column(ColSubjectID)
	typ, _ := d.events.Column(ColEventType)
	for i := 0; i < d.events.Len(); i++ {
		s, _ := subj.Int(i)
		et, _ := typ.String(i)
		subjOf[d.events.ID(i)] = s
		typeOf[d.events.ID(i)] = et
	}

	n := d.measurements.Len()
	sids := make([]int64, n)
	valid := make([]bool, n)
	typs := make([]string, n)
	evCol, _ := d.measurements.Column(ColEventID)
	for i := 0; i < n; i++ {
		eid, _ := evCol.Int(i)
		sids[i] = subjOf[eid]
		typs[i] = typeOf[eid]
		valid[i] = true
	}
	if err := d.measurements.AddColumn(ColSubjectID, table.NewIntColumn(sids, valid)); err != nil {
		return err
	}
	return d.measurements.AddColumn(ColEventType, table.NewStringColumn(typs, append([]bool(nil), valid...)))
}

// collectEventTypes orders the observed event types by descending frequency,
// breaking ties by first appearance.
func (d *Dataset) collectEventTypes() {
	typ, _ := d.events.Column(ColEventType)
	counts := typ.ValueCounts()
	d.eventTypes = make([]string, len(counts))
	for i, sc := range counts {
		d.eventTypes[i] = sc.Symbol
	}
}

func seqIDs(n int) []int64 {
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = int64(i)
	}
	return ids
}

func copyValue(dst *table.Column, di int, src *table.Column, si int) {
	switch src.Kind() {
	case table.KindString:
		v, _ := src.String(si)
		dst.SetString(di, v)
	case table.KindFloat:
		v, _ := src.Float(si)
		dst.SetFloat(di, v)
	case table.KindInt:
		v, _ := src.Int(si)
		dst.SetInt(di, v)
	case table.KindTime:
		v, _ := src.Time(si)
		dst.SetTime(di, v)
	}
}
