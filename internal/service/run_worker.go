package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/labsched/scheduler/internal/corerun"
	"github.com/labsched/scheduler/internal/domain"
	"github.com/labsched/scheduler/internal/models"
	"github.com/labsched/scheduler/pkg/jobs"
)

// runJobType identifies a queued solve job; RunService never enqueues
// anything else on this queue.
const runJobType = "run.solve"

// runJobPayload is what RunService.Submit hands the queue and RunWorker
// reads back out of jobs.Job.Payload.
type runJobPayload struct {
	RunID string
	Input domain.Input
	Cfg   corerun.Config
}

// RunWorker performs the actual solve-then-persist work a queued run
// job describes. It is the Handler a jobs.Queue drives; RunService only
// ever enqueues, never solves inline.
type RunWorker struct {
	core   *corerun.Runner
	runs   runRepository
	slots  runSlotRepository
	logger *zap.Logger
}

// NewRunWorker builds a worker around the scheduling core and run
// persistence.
func NewRunWorker(core *corerun.Runner, runs runRepository, slots runSlotRepository, logger *zap.Logger) *RunWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunWorker{core: core, runs: runs, slots: slots, logger: logger}
}

// Handle is the jobs.Handler a run queue is built around: it solves one
// payload and writes the outcome back onto the Run row the job names,
// regardless of whether the solve succeeded.
func (w *RunWorker) Handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(runJobPayload)
	if !ok {
		return fmt.Errorf("run worker: unexpected payload type %T", job.Payload)
	}

	run := &models.Run{ID: payload.RunID, Status: models.RunStatusRunning}
	if err := w.runs.Update(ctx, run); err != nil {
		w.logger.Sugar().Errorw("failed to mark run running", "runId", payload.RunID, "error", err)
	}

	out, err := w.core.Run(ctx, payload.Input, payload.Cfg)
	if err != nil {
		w.logger.Sugar().Errorw("run solve failed", "runId", payload.RunID, "error", err)
		failed := &models.Run{ID: payload.RunID, Status: models.RunStatusFailed, Error: err.Error()}
		if updateErr := w.runs.Update(ctx, failed); updateErr != nil {
			w.logger.Sugar().Errorw("failed to persist run failure", "runId", payload.RunID, "error", updateErr)
		}
		return err
	}

	reportBytes, err := json.Marshal(out.Report)
	if err != nil {
		failed := &models.Run{ID: payload.RunID, Status: models.RunStatusFailed, Error: err.Error()}
		if updateErr := w.runs.Update(ctx, failed); updateErr != nil {
			w.logger.Sugar().Errorw("failed to persist run failure", "runId", payload.RunID, "error", updateErr)
		}
		return fmt.Errorf("encode run report: %w", err)
	}

	done := &models.Run{
		ID:          payload.RunID,
		Status:      models.RunStatus(strings.ToUpper(string(out.Report.Status))),
		Objective:   out.Report.Objective,
		WallSeconds: out.Report.WallSeconds,
		Report:      reportBytes,
	}
	if err := w.runs.Update(ctx, done); err != nil {
		w.logger.Sugar().Errorw("failed to persist run result", "runId", payload.RunID, "error", err)
		return err
	}

	slotModels := make([]models.RunSlot, 0, len(out.Records))
	for _, rec := range out.Records {
		slot := models.RunSlot{
			RunID:      payload.RunID,
			ClassID:    rec.ClassID,
			SchoolID:   rec.SchoolID,
			WorkshopID: rec.WorkshopID,
			Ordinal:    rec.Ordinal,
			TrainerID:  rec.TrainerID,
			Week:       int(rec.Week),
			Weekday:    rec.Weekday.String(),
			Band:       rec.Band.String(),
		}
		if len(rec.CoTaughtWith) > 0 {
			partner := rec.CoTaughtWith[0].ClassID
			slot.CoTaughtWith = &partner
		}
		slotModels = append(slotModels, slot)
	}
	if err := w.slots.InsertBatch(ctx, slotModels); err != nil {
		w.logger.Sugar().Errorw("failed to persist run slots", "runId", payload.RunID, "error", err)
		return err
	}

	return nil
}
