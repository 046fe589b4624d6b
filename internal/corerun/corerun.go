// Package corerun wires the scheduling core's seven components into a
// single entrypoint: Domain → Preprocessor → Variable builder →
// Constraint compiler + Objective builder → Search driver → Solution
// extractor.
package corerun

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/labsched/scheduler/internal/cpmodel"
	"github.com/labsched/scheduler/internal/domain"
	"github.com/labsched/scheduler/internal/extractor"
	"github.com/labsched/scheduler/internal/preprocessor"
	"github.com/labsched/scheduler/internal/search"
)

// Config bundles everything a Run needs beyond the raw Input: the
// objective's weight table and the search driver's configuration.
type Config struct {
	Weights cpmodel.ObjectiveWeights
	Search  search.Config
}

// DefaultConfig returns the fixed default weights and search
// configuration.
func DefaultConfig() Config {
	return Config{Weights: cpmodel.DefaultWeights(), Search: search.DefaultConfig()}
}

// Output is what a caller receives from a successful Run: the normalized
// calendar and the solver report.
type Output struct {
	Records []extractor.CalendarRecord
	Report  extractor.Report
}

// Runner owns the logger used for phase-timing logs at every component
// boundary (logging is advisory and never affects the outcome) and the
// trainer mask cache, which is built once and reused across every Run
// call so repeated lookups against the same trainer roster actually hit.
type Runner struct {
	logger    *zap.Logger
	maskCache *preprocessor.TrainerMaskCache
}

// NewRunner constructs a Runner. A nil logger is replaced with zap's
// no-op logger so callers that don't care about logs don't have to
// construct one.
func NewRunner(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger, maskCache: preprocessor.NewTrainerMaskCache()}
}

// Run executes the full pipeline for one Input and returns the
// normalized calendar and solver report, or a structured *errors.Error
// from whichever phase first fails.
func (r *Runner) Run(ctx context.Context, in domain.Input, cfg Config) (Output, error) {
	if err := in.Validate(); err != nil {
		r.logger.Error("input_invalid", zap.Error(err))
		return Output{}, err
	}

	pre, err := r.runPreprocessor(in)
	if err != nil {
		return Output{}, err
	}

	model := r.runModelBuild(in, pre, cfg.Weights)

	result, err := r.runSearch(ctx, model, cfg.Search)
	if err != nil {
		return Output{}, err
	}

	return r.runExtraction(model, result), nil
}

func (r *Runner) runPreprocessor(in domain.Input) (preprocessor.Result, error) {
	start := time.Now()
	pre, err := preprocessor.PreprocessWithCache(in, r.maskCache)
	elapsed := time.Since(start)
	if err != nil {
		r.logger.Error("preprocessor_failed", zap.Duration("elapsed", elapsed), zap.Error(err))
		return preprocessor.Result{}, err
	}
	r.logger.Info("preprocessor_done", zap.Duration("elapsed", elapsed), zap.Int("meetingDomains", len(pre.MeetingDomains)))
	return pre, nil
}

func (r *Runner) runModelBuild(in domain.Input, pre preprocessor.Result, weights cpmodel.ObjectiveWeights) *cpmodel.Model {
	start := time.Now()
	model := cpmodel.NewModel(in, pre, weights)
	r.logger.Info("model_built",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("meetings", len(model.Domains)),
		zap.Int("groupingCandidates", len(model.GroupCandidates)),
	)
	return model
}

func (r *Runner) runSearch(ctx context.Context, model *cpmodel.Model, cfg search.Config) (search.Result, error) {
	start := time.Now()
	result, err := search.Run(ctx, model, cfg)
	elapsed := time.Since(start)
	if err != nil {
		r.logger.Error("search_failed",
			zap.Duration("elapsed", elapsed),
			zap.String("status", string(result.Status)),
			zap.Bool("diagnosticRetryRan", result.DiagnosticRetryRan),
			zap.Error(err),
		)
		return result, err
	}
	r.logger.Info("search_done",
		zap.Duration("elapsed", elapsed),
		zap.String("status", string(result.Status)),
		zap.Float64("objective", result.Objective),
	)
	return result, nil
}

func (r *Runner) runExtraction(model *cpmodel.Model, result search.Result) Output {
	start := time.Now()
	records, report := extractor.Extract(model, result)
	r.logger.Info("extraction_done",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("records", len(records)),
		zap.Int("realizedGroupings", report.RealizedGroupings),
	)
	return Output{Records: records, Report: report}
}
