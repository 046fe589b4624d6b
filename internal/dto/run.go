package dto

import (
	"time"

	"github.com/labsched/scheduler/internal/domain"
)

// SubmitRunRequest carries one full scheduling problem plus the optional weight overrides an admin wants to apply
// before solving.
type SubmitRunRequest struct {
	Input          domain.Input       `json:"input" validate:"required"`
	WeightOverride map[string]float64 `json:"weightOverride"`
}

// SubmitRunResponse is returned immediately after a run has been queued
// — the caller polls GET /runs/{id} for the solve outcome.
type SubmitRunResponse struct {
	RunID  string `json:"runId"`
	Status string `json:"status"`
}

// TrainerHoursView reports one trainer's budget consumption.
type TrainerHoursView struct {
	TrainerID string  `json:"trainerId"`
	Used      float64 `json:"used"`
	Remaining float64 `json:"remaining"`
}

// CompletionView reports one enrollment's fulfilled-meeting count.
type CompletionView struct {
	ClassID       string `json:"classId"`
	WorkshopID    string `json:"workshopId"`
	RequiredCount int    `json:"requiredCount"`
	EmittedCount  int    `json:"emittedCount"`
}

// RunStatusResponse is what GET /runs/{id} returns: while the run is
// QUEUED or RUNNING only RunID/Status are populated; once it reaches a
// terminal status the solve figures and calendar are attached, or Error
// is set if the worker failed before producing a report.
type RunStatusResponse struct {
	RunID             string             `json:"runId"`
	Status            string             `json:"status"`
	Error             string             `json:"error,omitempty"`
	Objective         float64            `json:"objective,omitempty"`
	WallSeconds       float64            `json:"wallSeconds,omitempty"`
	RealizedGroupings int                `json:"realizedGroupings,omitempty"`
	TrainerHours      []TrainerHoursView `json:"trainerHours,omitempty"`
	Completions       []CompletionView   `json:"completions,omitempty"`
}

// RunSummary is the lightweight listing shape for GET /runs.
type RunSummary struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	Objective   float64   `json:"objective"`
	WallSeconds float64   `json:"wallSeconds"`
	CreatedAt   time.Time `json:"createdAt"`
}
