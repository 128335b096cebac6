// Package pipeline runs the survey ETL end to end: merge the workbook,
// transform it into clean records and load them in one transaction.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/config"
	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/core"
	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/extract"
	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/load"
	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/logging"
	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/observability"
	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/transform"
)

// RunLog records pipeline runs. Implementations must not depend on the load
// transaction so failed runs are kept.
type RunLog interface {
	StartRun(ctx context.Context, run core.RunRecord) error
	FinishRun(ctx context.Context, run core.RunRecord) error
}

// Options tune a Service.
type Options struct {
	MaxFileSize   int64
	Timeout       time.Duration
	MaxConcurrent int
	MaxWaitTime   time.Duration
}

// OptionsFromConfig maps pipeline settings onto Options.
func OptionsFromConfig(cfg config.PipelineConfig) Options {
	return Options{
		MaxFileSize:   cfg.MaxFileSize,
		Timeout:       cfg.Timeout,
		MaxConcurrent: cfg.MaxConcurrent,
		MaxWaitTime:   cfg.MaxWaitTime,
	}
}

// Service wires the three stages together.
type Service struct {
	merger      *extract.Merger
	transformer *transform.Transformer
	loader      *load.Loader
	runs        RunLog
	limiter     *RunLimiter
	timeout     time.Duration
}

// NewService builds a Service that loads into store. runs may be nil.
func NewService(store load.Store, runs RunLog, lookups transform.Lookups, opts Options) *Service {
	return &Service{
		merger:      extract.NewMerger(opts.MaxFileSize),
		transformer: transform.New(lookups),
		loader:      load.NewLoader(store, load.DefaultCountryResolver()),
		runs:        runs,
		limiter:     NewRunLimiter(opts.MaxConcurrent, opts.MaxWaitTime),
		timeout:     opts.Timeout,
	}
}

// Result is the outcome of one run. Exactly one of Summary and Failure is
// set once the run has finished.
type Result struct {
	RunID    uuid.UUID
	File     string
	Sheets   []string
	Skipped  []extract.SkippedSheet
	RowsRead int
	Records  int
	Summary  *load.LoadSummary
	Failure  *core.Failure
	Duration time.Duration
}

// OK reports whether the run committed.
func (r *Result) OK() bool {
	return r.Failure == nil && r.Summary != nil
}

// Run executes extract, transform and load for src. The returned Result is
// never nil; the error, when set, is the one described by Result.Failure.
func (s *Service) Run(ctx context.Context, src extract.Source) (res *Result, err error) {
	start := time.Now()
	res = &Result{RunID: uuid.New(), File: src.Name()}

	ctx, span := observability.StartSpan(ctx, "pipeline.run",
		attribute.String("run.id", res.RunID.String()),
		attribute.String("file.name", res.File),
	)
	defer func() { observability.EndSpan(span, err) }()

	ctx = logging.WithRun(ctx, res.RunID.String())
	log := logging.WithFields(ctx, "file", res.File)

	s.startRun(ctx, res)

	if err := s.limiter.Acquire(ctx); err != nil {
		log.Warn("run rejected", "error", err)
		return s.fail(ctx, res, start, err)
	}
	defer s.limiter.Release()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	log.Info("run started")

	records, err := s.extractAndTransform(ctx, src, res)
	if err != nil {
		return s.fail(ctx, res, start, err)
	}

	loadCtx, loadSpan := observability.StartSpan(ctx, "load", attribute.Int("records", len(records)))
	summary, err := s.loader.Load(loadCtx, records)
	observability.EndSpan(loadSpan, err)
	if err != nil {
		return s.fail(ctx, res, start, fmt.Errorf("load: %w", err))
	}

	res.Summary = summary
	res.Duration = time.Since(start)
	s.finishRun(ctx, res)
	log.Info("run succeeded",
		"rows", res.RowsRead,
		"students", summary.Students,
		"duration", res.Duration,
	)
	return res, nil
}

// Inspection is what a run would load, computed without writing.
type Inspection struct {
	Result
	CleanRecords []core.CleanRecord
	Tables       *load.CategoryTables
}

// Inspect runs extract and transform and builds the category tables. The
// store is never touched.
func (s *Service) Inspect(ctx context.Context, src extract.Source) (_ *Inspection, err error) {
	start := time.Now()
	in := &Inspection{Result: Result{RunID: uuid.New(), File: src.Name()}}

	ctx, span := observability.StartSpan(ctx, "pipeline.inspect",
		attribute.String("run.id", in.RunID.String()),
		attribute.String("file.name", in.File),
	)
	defer func() { observability.EndSpan(span, err) }()
	ctx = logging.WithRun(ctx, in.RunID.String())

	records, err := s.extractAndTransform(ctx, src, &in.Result)
	in.Duration = time.Since(start)
	if err != nil {
		in.Failure = core.Describe(err)
		logging.FromContext(ctx).Error("inspect failed", "failure", in.Failure.String())
		return in, err
	}

	in.CleanRecords = records
	in.Tables = load.BuildCategoryTables(records)
	return in, nil
}

func (s *Service) extractAndTransform(ctx context.Context, src extract.Source, res *Result) ([]core.CleanRecord, error) {
	extractCtx, span := observability.StartSpan(ctx, "extract")
	merged, err := s.merger.Merge(extractCtx, src)
	if err == nil {
		span.SetAttributes(
			attribute.Int("sheets.merged", len(merged.Sheets)),
			attribute.Int("sheets.skipped", len(merged.Skipped)),
			attribute.Int("rows", len(merged.Table.Rows)),
		)
	}
	observability.EndSpan(span, err)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	res.Sheets = merged.Sheets
	res.Skipped = merged.Skipped
	res.RowsRead = len(merged.Table.Rows)

	transformCtx, span := observability.StartSpan(ctx, "transform")
	records, err := s.transformer.Clean(transformCtx, merged.Table)
	observability.EndSpan(span, err)
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}
	res.Records = len(records)
	return records, nil
}

func (s *Service) fail(ctx context.Context, res *Result, start time.Time, err error) (*Result, error) {
	res.Failure = core.Describe(err)
	res.Duration = time.Since(start)
	logging.FromContext(ctx).Error("run failed",
		"kind", res.Failure.Kind,
		"code", res.Failure.Code,
		"row", res.Failure.Row,
		"column", res.Failure.Column,
		"error", err,
	)
	s.finishRun(ctx, res)
	return res, err
}

func (s *Service) startRun(ctx context.Context, res *Result) {
	if s.runs == nil {
		return
	}
	run := core.RunRecord{
		RunID:     res.RunID,
		FileName:  res.File,
		Status:    core.RunRunning,
		StartedAt: time.Now(),
	}
	if err := s.runs.StartRun(ctx, run); err != nil {
		logging.FromContext(ctx).Warn("failed to record run start", "error", err)
	}
}

func (s *Service) finishRun(ctx context.Context, res *Result) {
	if s.runs == nil {
		return
	}
	run := core.RunRecord{
		RunID:      res.RunID,
		FileName:   res.File,
		Status:     core.RunSucceeded,
		RowsRead:   res.RowsRead,
		FinishedAt: time.Now(),
	}
	if res.Summary != nil {
		run.StudentsLoaded = res.Summary.Students
	}
	if res.Failure != nil {
		run.Status = core.RunFailed
		run.ErrorKind = res.Failure.Kind
		run.ErrorMessage = res.Failure.Detail
	}

	// The run context may already be cancelled or expired.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.runs.FinishRun(recordCtx, run); err != nil {
		logging.FromContext(ctx).Warn("failed to record run result", "error", err)
	}
}

// WaitForRuns blocks until active runs finish or ctx is done.
func (s *Service) WaitForRuns(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
