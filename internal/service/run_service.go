package service

import (
	"context"
	"encoding/json"
	"strconv"

	"go.uber.org/zap"

	"github.com/labsched/scheduler/internal/corerun"
	"github.com/labsched/scheduler/internal/cpmodel"
	"github.com/labsched/scheduler/internal/dto"
	"github.com/labsched/scheduler/internal/extractor"
	"github.com/labsched/scheduler/internal/models"
	appErrors "github.com/labsched/scheduler/pkg/errors"
	"github.com/labsched/scheduler/pkg/export"
	"github.com/labsched/scheduler/pkg/jobs"
)

type runRepository interface {
	Create(ctx context.Context, run *models.Run) error
	Update(ctx context.Context, run *models.Run) error
	List(ctx context.Context) ([]models.Run, error)
	FindByID(ctx context.Context, id string) (*models.Run, error)
	Delete(ctx context.Context, id string) error
}

type runSlotRepository interface {
	InsertBatch(ctx context.Context, slots []models.RunSlot) error
	ListByRun(ctx context.Context, runID string) ([]models.RunSlot, error)
}

// RunService exposes the scheduling core (internal/corerun) over a
// request/response shape persistence can store. A submission never
// solves inline: it creates a QUEUED run row and hands the payload to
// the queue, so the HTTP request returns before the solve even starts
// — RunWorker.Handle is what actually drives corerun.Runner.Run.
type RunService struct {
	runs  runRepository
	slots runSlotRepository
	queue *jobs.Queue
	cfg   corerun.Config
}

// NewRunService wires run persistence to the queue a RunWorker drains.
func NewRunService(runs runRepository, slots runSlotRepository, queue *jobs.Queue, logger *zap.Logger) *RunService {
	return &RunService{runs: runs, slots: slots, queue: queue, cfg: corerun.DefaultConfig()}
}

// Submit validates the requested weight overrides, persists a QUEUED
// run row, and enqueues the solve — it returns as soon as the job is
// accepted, not once it finishes.
func (s *RunService) Submit(ctx context.Context, req dto.SubmitRunRequest) (*dto.SubmitRunResponse, error) {
	cfg := s.cfg
	cfg.Weights = cpmodel.DefaultWeights()
	for name, value := range req.WeightOverride {
		if err := cpmodel.ApplyWeightOverride(&cfg.Weights, name, value); err != nil {
			return nil, err
		}
	}

	run := &models.Run{Status: models.RunStatusQueued}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist run")
	}

	job := jobs.Job{ID: run.ID, Type: runJobType, Payload: runJobPayload{RunID: run.ID, Input: req.Input, Cfg: cfg}}
	if err := s.queue.Enqueue(job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue run")
	}

	return &dto.SubmitRunResponse{RunID: run.ID, Status: string(models.RunStatusQueued)}, nil
}

// Status reports a run's current lifecycle state, attaching the solve
// report's summary figures once it reaches a terminal status.
func (s *RunService) Status(ctx context.Context, runID string) (*dto.RunStatusResponse, error) {
	run, err := s.runs.FindByID(ctx, runID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "run not found")
	}

	resp := &dto.RunStatusResponse{RunID: run.ID, Status: string(run.Status), Error: run.Error}
	if !run.Status.Terminal() || run.Status == models.RunStatusFailed {
		return resp, nil
	}

	var report extractor.Report
	if err := json.Unmarshal(run.Report, &report); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode run report")
	}

	resp.Objective = report.Objective
	resp.WallSeconds = report.WallSeconds
	resp.RealizedGroupings = report.RealizedGroupings
	for id, h := range report.PerTrainerHours {
		resp.TrainerHours = append(resp.TrainerHours, dto.TrainerHoursView{TrainerID: id, Used: h.Used, Remaining: h.Remaining})
	}
	for _, c := range report.Completions {
		resp.Completions = append(resp.Completions, dto.CompletionView{
			ClassID: c.ClassID, WorkshopID: c.WorkshopID,
			RequiredCount: c.RequiredCount, EmittedCount: c.EmittedCount,
		})
	}
	return resp, nil
}

// List returns every persisted run, most recent first.
func (s *RunService) List(ctx context.Context) ([]dto.RunSummary, error) {
	runs, err := s.runs.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list runs")
	}
	out := make([]dto.RunSummary, 0, len(runs))
	for _, r := range runs {
		out = append(out, dto.RunSummary{
			ID: r.ID, Status: string(r.Status), Objective: r.Objective,
			WallSeconds: r.WallSeconds, CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}

// Slots returns the persisted calendar records for a run.
func (s *RunService) Slots(ctx context.Context, runID string) ([]models.RunSlot, error) {
	if _, err := s.runs.FindByID(ctx, runID); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "run not found")
	}
	slots, err := s.slots.ListByRun(ctx, runID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list run slots")
	}
	return slots, nil
}

// Export renders a run's persisted calendar as a CSV or PDF dataset for
// download by an administrator who wants it outside the API — "pdf"
// selects the PDF exporter, anything else (including the empty string)
// falls back to CSV.
func (s *RunService) Export(ctx context.Context, runID, format string) ([]byte, string, error) {
	slots, err := s.Slots(ctx, runID)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{
		Headers: []string{"classId", "schoolId", "workshopId", "ordinal", "trainerId", "week", "weekday", "band", "coTaughtWith"},
		Rows:    make([]map[string]string, 0, len(slots)),
	}
	for _, slot := range slots {
		coTaughtWith := ""
		if slot.CoTaughtWith != nil {
			coTaughtWith = *slot.CoTaughtWith
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"classId": slot.ClassID, "schoolId": slot.SchoolID, "workshopId": slot.WorkshopID,
			"ordinal": strconv.Itoa(slot.Ordinal), "trainerId": slot.TrainerID,
			"week": strconv.Itoa(slot.Week), "weekday": slot.Weekday, "band": slot.Band,
			"coTaughtWith": coTaughtWith,
		})
	}

	if format == "pdf" {
		body, err := export.NewPDFExporter().Render(dataset, "Run "+runID)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render run export")
		}
		return body, "application/pdf", nil
	}
	body, err := export.NewCSVExporter().Render(dataset)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render run export")
	}
	return body, "text/csv", nil
}

// Delete removes a stored run.
func (s *RunService) Delete(ctx context.Context, runID string) error {
	if err := s.runs.Delete(ctx, runID); err != nil {
		return appErrors.Clone(appErrors.ErrNotFound, "run not found")
	}
	return nil
}
