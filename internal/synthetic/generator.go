// Package synthetic generates random but structurally valid input datasets
// for smoke runs: a subjects file with static attributes, an event stream
// per subject and a keyed measurements file referencing those events.
package synthetic

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/okian/seqprep/internal/adapters/csvio"
	"github.com/okian/seqprep/internal/domain/table"
)

// Config controls dataset generation.
type Config struct {
	// Subjects is the number of subjects to generate.
	Subjects int
	// MaxEventsPerSubject caps each subject's event count; some subjects
	// get zero events on purpose.
	MaxEventsPerSubject int
	// Seed fixes the generator.
	Seed int64
	// OutDir receives the three CSV files.
	OutDir string
}

// Files lists the generated file paths.
type Files struct {
	Subjects     string
	Events       string
	Measurements string
}

// Lab measurement keys with rough physiological ranges.
var labKeys = []struct {
	name string
	mean float64
	std  float64
}{
	{"sodium", 140, 4},
	{"potassium", 4.2, 0.5},
	{"glucose", 100, 25},
}

var eventTypes = []string{"visit", "lab", "admission"}

var genesis = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// Generate writes a random dataset and returns its file paths.
func Generate(cfg *Config) (*Files, error) {
	if cfg.Subjects <= 0 {
		return nil, fmt.Errorf("subject count must be positive, got %d", cfg.Subjects)
	}
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	subjects := genSubjects(rng, cfg.Subjects)
	events := genEvents(rng, cfg)
	measurements := genMeasurements(rng, events)

	f := &Files{
		Subjects:     filepath.Join(cfg.OutDir, "subjects.csv"),
		Events:       filepath.Join(cfg.OutDir, "events.csv"),
		Measurements: filepath.Join(cfg.OutDir, "measurements.csv"),
	}
	if err := csvio.WriteTable(f.Subjects, subjects); err != nil {
		return nil, err
	}
	if err := csvio.WriteTable(f.Events, events); err != nil {
		return nil, err
	}
	if err := csvio.WriteTable(f.Measurements, measurements); err != nil {
		return nil, err
	}
	return f, nil
}

func genSubjects(rng *rand.Rand, n int) *table.Table {
	ids := make([]int64, n)
	sex := make([]string, n)
	dob := make([]time.Time, n)
	for i := 0; i < n; i++ {
		ids[i] = int64(i + 1)
		if rng.Intn(2) == 0 {
			sex[i] = "F"
		} else {
			sex[i] = "M"
		}
		// Birth years between 1940 and 2005.
		dob[i] = genesis.AddDate(-80+rng.Intn(65), rng.Intn(12), rng.Intn(28))
	}
	t := table.New("subject_id", ids)
	_ = t.AddColumn("sex", table.NewStringColumn(sex, nil))
	_ = t.AddColumn("dob", table.NewTimeColumn(dob, nil))
	return t
}

func genEvents(rng *rand.Rand, cfg *Config) *table.Table {
	var ids, subjects []int64
	var ts []time.Time
	var types []string

	next := int64(1)
	for s := 1; s <= cfg.Subjects; s++ {
		n := rng.Intn(cfg.MaxEventsPerSubject + 1)
		times := make([]time.Time, n)
		for i := range times {
			times[i] = genesis.Add(time.Duration(rng.Int63n(int64(365 * 24 * time.Hour))))
		}
		sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
		for i := 0; i < n; i++ {
			ids = append(ids, next)
			next++
			subjects = append(subjects, int64(s))
			ts = append(ts, times[i])
			types = append(types, pickEventType(rng))
		}
	}

	t := table.New("event_id", ids)
	_ = t.AddColumn("subject_id", table.NewIntColumn(subjects, nil))
	_ = t.AddColumn("timestamp", table.NewTimeColumn(ts, nil))
	_ = t.AddColumn("event_type", table.NewStringColumn(types, nil))
	return t
}

func pickEventType(rng *rand.Rand) string {
	switch r := rng.Float64(); {
	case r < 0.5:
		return eventTypes[0]
	case r < 0.9:
		return eventTypes[1]
	default:
		return eventTypes[2]
	}
}

func genMeasurements(rng *rand.Rand, events *table.Table) *table.Table {
	typeCol, _ := events.Column("event_type")

	var ids, eventIDs []int64
	var hr []float64
	var hrValid []bool
	var labName []string
	var labNameValid []bool
	var labValue []float64
	var labValueValid []bool

	next := int64(1)
	add := func(eid int64, heart float64, hasHeart bool, key string, val float64, hasLab bool) {
		ids = append(ids, next)
		next++
		eventIDs = append(eventIDs, eid)
		hr = append(hr, heart)
		hrValid = append(hrValid, hasHeart)
		labName = append(labName, key)
		labNameValid = append(labNameValid, hasLab)
		labValue = append(labValue, val)
		labValueValid = append(labValueValid, hasLab)
	}

	for i := 0; i < events.Len(); i++ {
		eid := events.ID(i)
		et, _ := typeCol.String(i)
		switch et {
		case "visit", "admission":
			// Heart rate at most visits, with the occasional wild sensor
			// glitch to exercise outlier handling downstream.
			if rng.Float64() < 0.9 {
				v := 75 + rng.NormFloat64()*12
				if rng.Float64() < 0.01 {
					v *= 10
				}
				add(eid, v, true, "", 0, false)
			}
		case "lab":
			n := 1 + rng.Intn(len(labKeys))
			for _, k := range rng.Perm(len(labKeys))[:n] {
				lk := labKeys[k]
				add(eid, 0, false, lk.name, lk.mean+rng.NormFloat64()*lk.std, true)
			}
		}
	}

	t := table.New("measurement_id", ids)
	_ = t.AddColumn("event_id", table.NewIntColumn(eventIDs, nil))
	_ = t.AddColumn("hr", table.NewFloatColumn(hr, hrValid))
	_ = t.AddColumn("lab_name", table.NewStringColumn(labName, labNameValid))
	_ = t.AddColumn("lab_value", table.NewFloatColumn(labValue, labValueValid))
	return t
}
