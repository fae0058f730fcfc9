// Package service orchestrates the preprocessing pipeline: load the input
// tables, split subjects, derive time-dependent columns, fit over the
// training split, transform the full dataset and encode per-split batches.
package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/okian/seqprep/internal/adapters/csvio"
	"github.com/okian/seqprep/internal/config"
	"github.com/okian/seqprep/internal/domain/batch"
	"github.com/okian/seqprep/internal/domain/dataset"
	"github.com/okian/seqprep/internal/domain/measurement"
	"github.com/okian/seqprep/internal/domain/table"
	"github.com/okian/seqprep/pkg/logger"
	"github.com/okian/seqprep/pkg/metrics"
)

// Pipeline stage names used in logs and metrics.
const (
	StageLoad      = "load"
	StageSplit     = "split"
	StageFunctors  = "functors"
	StageFit       = "fit"
	StageTransform = "transform"
	StageEncode    = "encode"
	StageWrite     = "write"
)

// Report summarizes one pipeline run.
type Report struct {
	RunID          string
	Splits         map[string]int
	DroppedColumns []string
	SubjectCount   int
	EventCount     int
	BatchFiles     map[string]string
}

// Service runs the preprocessing pipeline.
type Service struct {
	cfg    *config.Config
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Service from the given configuration.
func New(cfg *config.Config, opts ...Option) *Service {
	s := &Service{cfg: cfg, logger: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes the full pipeline and returns a run report.
func (s *Service) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:      uuid.NewString(),
		Splits:     make(map[string]int),
		BatchFiles: make(map[string]string),
	}
	s.logger.Info(ctx, "starting preprocessing run", logger.String("runID", report.RunID))

	measurements, err := s.cfg.BuildMeasurements()
	if err != nil {
		return nil, err
	}

	var d *dataset.Dataset
	if err := s.stage(ctx, StageLoad, func() error {
		var err error
		d, err = s.load(measurements)
		return err
	}); err != nil {
		return nil, err
	}
	report.SubjectCount = d.Subjects().Len()
	report.EventCount = d.Events().Len()

	if err := s.stage(ctx, StageSplit, func() error {
		if err := d.Split(s.cfg.SplitFractions, s.cfg.SplitNames, s.cfg.Seed); err != nil {
			return err
		}
		for _, name := range s.cfg.SplitNames {
			n := len(d.SplitSubjects(name))
			report.Splits[name] = n
			metrics.SetSplitSubjects(name, n)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if err := s.stage(ctx, StageFunctors, func() error {
		return d.AddTimeDependentMeasurements()
	}); err != nil {
		return nil, err
	}

	var fitted *dataset.Fitted
	if err := s.stage(ctx, StageFit, func() error {
		var err error
		fitted, err = d.Fit(ctx)
		if err != nil {
			metrics.RecordFitError()
		}
		return err
	}); err != nil {
		return nil, err
	}
	for name := range fitted.DroppedMeasurements() {
		report.DroppedColumns = append(report.DroppedColumns, name)
		metrics.RecordColumnDropped()
	}
	sort.Strings(report.DroppedColumns)
	for name, cfg := range fitted.MeasurementConfigs() {
		metrics.RecordColumnFit()
		if cfg.Vocabulary != nil {
			metrics.SetVocabularySize(name, cfg.Vocabulary.Len())
		}
	}

	if err := s.stage(ctx, StageTransform, func() error {
		return fitted.Transform(ctx)
	}); err != nil {
		return nil, err
	}

	if err := s.stage(ctx, StageEncode, func() error {
		return s.encode(ctx, fitted, report)
	}); err != nil {
		return nil, err
	}

	if err := s.stage(ctx, StageWrite, func() error {
		return s.writeTables(fitted)
	}); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "preprocessing run finished",
		logger.String("runID", report.RunID),
		logger.Int("subjects", report.SubjectCount),
		logger.Int("events", report.EventCount),
		logger.Int("droppedColumns", len(report.DroppedColumns)))
	return report, nil
}

// stage runs one pipeline stage with duration and failure accounting.
func (s *Service) stage(ctx context.Context, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.ObserveStageDuration(name, time.Since(start))
	if err != nil {
		metrics.RecordStageError(name)
		s.logger.Error(ctx, "pipeline stage failed",
			logger.String("stage", name), logger.Error(err))
		return fmt.Errorf("%s: %w", name, err)
	}
	s.logger.Debug(ctx, "pipeline stage finished",
		logger.String("stage", name),
		logger.Any("duration", time.Since(start)))
	return nil
}

// load reads the input CSVs, typing columns from the declared measurements.
func (s *Service) load(measurements map[string]*measurement.Config) (*dataset.Dataset, error) {
	subjectKinds := make(map[string]table.Kind)
	eventKinds := make(map[string]table.Kind)
	measurementKinds := make(map[string]table.Kind)
	for name, cfg := range measurements {
		kinds := measurementKinds
		switch cfg.Temporality {
		case measurement.Static:
			kinds = subjectKinds
		case measurement.FunctionalTimeDependent:
			// Functor columns are derived, not read.
			if f, ok := cfg.Functor.(measurement.AgeFunctor); ok {
				subjectKinds[f.DOBColumn] = table.KindTime
			}
			continue
		}
		if cfg.Modality == measurement.UnivariateRegression {
			kinds[name] = table.KindFloat
		}
		if cfg.Modality == measurement.MultivariateRegression {
			kinds[cfg.ValuesColumn] = table.KindFloat
		}
	}

	subjects, err := csvio.ReadTable(s.cfg.SubjectsFile, csvio.SubjectsSchema(subjectKinds))
	if err != nil {
		return nil, err
	}
	events, err := csvio.ReadTable(s.cfg.EventsFile, csvio.EventsSchema(eventKinds))
	if err != nil {
		return nil, err
	}
	ms := table.New("measurement_id", nil)
	_ = ms.AddColumn(dataset.ColEventID, table.NewIntColumn(nil, nil))
	if s.cfg.MeasurementsFile != "" {
		ms, err = csvio.ReadTable(s.cfg.MeasurementsFile, csvio.MeasurementsSchema(measurementKinds))
		if err != nil {
			return nil, err
		}
	}
	metrics.RecordRowsRead("subjects", subjects.Len())
	metrics.RecordRowsRead("events", events.Len())
	metrics.RecordRowsRead("measurements", ms.Len())

	return dataset.New(dataset.Config{
		Measurements:                     measurements,
		MinValidColumnObservations:       s.cfg.MinValidColumnObservations.Resolve(),
		MinValidVocabElementObservations: s.cfg.MinValidVocabElementObservations.Resolve(),
		MinUniqueNumericalObservations:   s.cfg.MinUniqueNumericalObservations.Resolve(),
		MinTrueFloatFrequency:            s.cfg.MinTrueFloatFrequency,
		OutlierDetector:                  s.cfg.OutlierDetector,
		OutlierDetectorOptions:           s.cfg.OutlierDetectorOptions,
		Normalizer:                       s.cfg.Normalizer,
		NormalizerOptions:                s.cfg.NormalizerOptions,
		AggregateEvents:                  s.cfg.AggregateEvents,
	}, subjects, events, ms, dataset.WithLogger(s.logger))
}

// writeTables writes the transformed tables into the output directory.
func (s *Service) writeTables(fitted *dataset.Fitted) error {
	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return err
	}
	if err := csvio.WriteTable(filepath.Join(s.cfg.OutputDir, "subjects.csv"), fitted.Subjects()); err != nil {
		return err
	}
	if err := csvio.WriteTable(filepath.Join(s.cfg.OutputDir, "events.csv"), fitted.Events()); err != nil {
		return err
	}
	return csvio.WriteTable(filepath.Join(s.cfg.OutputDir, "measurements.csv"), fitted.Measurements())
}

// encode writes one batch JSON file per split.
func (s *Service) encode(ctx context.Context, fitted *dataset.Fitted, report *Report) error {
	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return err
	}
	enc := batch.NewEncoder(fitted, batch.WithLogger(s.logger))
	for _, split := range s.cfg.SplitNames {
		batches, err := enc.EncodeSplit(ctx, split)
		if err != nil {
			return err
		}
		path := filepath.Join(s.cfg.OutputDir, fmt.Sprintf("batches_%s.json", split))
		if err := csvio.WriteBatches(path, batches); err != nil {
			return err
		}
		report.BatchFiles[split] = path
		metrics.RecordSubjectsEncoded(split, len(batches))
		for _, b := range batches {
			metrics.RecordEventsEncoded(len(b.Times))
		}
	}
	return nil
}
