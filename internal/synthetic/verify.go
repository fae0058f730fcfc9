package synthetic

import (
	"errors"
	"fmt"

	"github.com/okian/seqprep/internal/adapters/csvio"
	"github.com/okian/seqprep/internal/domain/table"
)

// ErrInconsistent reports a generated dataset that violates its own
// referential or ordering invariants.
var ErrInconsistent = errors.New("inconsistent dataset")

// Summary describes a verified dataset.
type Summary struct {
	Subjects              int
	Events                int
	Measurements          int
	SubjectsWithoutEvents int
	EventTypeCounts       map[string]int
}

// Verify reads the generated files back and checks the invariants the
// preprocessing engine relies on: unique ids, resolvable references and
// per-subject timestamp ordering.
func Verify(files *Files) (*Summary, error) {
	subjects, err := csvio.ReadTable(files.Subjects, csvio.SubjectsSchema(map[string]table.Kind{
		"sex": table.KindString,
		"dob": table.KindTime,
	}))
	if err != nil {
		return nil, err
	}
	events, err := csvio.ReadTable(files.Events, csvio.EventsSchema(nil))
	if err != nil {
		return nil, err
	}
	measurements, err := csvio.ReadTable(files.Measurements, csvio.MeasurementsSchema(map[string]table.Kind{
		"hr":        table.KindFloat,
		"lab_name":  table.KindString,
		"lab_value": table.KindFloat,
	}))
	if err != nil {
		return nil, err
	}

	knownSubjects := make(map[int64]bool, subjects.Len())
	for i := 0; i < subjects.Len(); i++ {
		id := subjects.ID(i)
		if knownSubjects[id] {
			return nil, fmt.Errorf("%w: duplicate subject id %d", ErrInconsistent, id)
		}
		knownSubjects[id] = true
	}

	subjCol, _ := events.Column("subject_id")
	tsCol, _ := events.Column("timestamp")
	typeCol, _ := events.Column("event_type")
	if subjCol == nil || tsCol == nil || typeCol == nil {
		return nil, fmt.Errorf("%w: events file missing a required column", ErrInconsistent)
	}

	typeCounts := make(map[string]int)
	withEvents := make(map[int64]bool)
	knownEvents := make(map[int64]bool, events.Len())
	for i := 0; i < events.Len(); i++ {
		id := events.ID(i)
		if knownEvents[id] {
			return nil, fmt.Errorf("%w: duplicate event id %d", ErrInconsistent, id)
		}
		knownEvents[id] = true

		sid, ok := subjCol.Int(i)
		if !ok || !knownSubjects[sid] {
			return nil, fmt.Errorf("%w: event %d references unknown subject", ErrInconsistent, id)
		}
		withEvents[sid] = true

		ts, ok := tsCol.Time(i)
		if !ok {
			return nil, fmt.Errorf("%w: event %d has no timestamp", ErrInconsistent, id)
		}
		// Events are written grouped by subject in ascending time order.
		if i > 0 {
			prev, _ := subjCol.Int(i - 1)
			if prev == sid {
				prevTS, _ := tsCol.Time(i - 1)
				if ts.Before(prevTS) {
					return nil, fmt.Errorf("%w: subject %d events out of order at event %d",
						ErrInconsistent, sid, id)
				}
			}
		}

		et, _ := typeCol.String(i)
		typeCounts[et]++
	}

	evtCol, _ := measurements.Column("event_id")
	if evtCol == nil {
		return nil, fmt.Errorf("%w: measurements file missing event_id", ErrInconsistent)
	}
	for i := 0; i < measurements.Len(); i++ {
		eid, ok := evtCol.Int(i)
		if !ok || !knownEvents[eid] {
			return nil, fmt.Errorf("%w: measurement %d references unknown event", ErrInconsistent, measurements.ID(i))
		}
	}

	return &Summary{
		Subjects:              subjects.Len(),
		Events:                events.Len(),
		Measurements:          measurements.Len(),
		SubjectsWithoutEvents: subjects.Len() - len(withEvents),
		EventTypeCounts:       typeCounts,
	}, nil
}
