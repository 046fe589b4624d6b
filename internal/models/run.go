package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// RunStatus mirrors search.Status (upper-cased) for persistence, plus the three states
// that exist only before a solve starts (QUEUED, RUNNING) or after it
// errors out instead of returning a result (FAILED), kept as its own
// type so the models package has no dependency on internal/search.
type RunStatus string

const (
	RunStatusQueued     RunStatus = "QUEUED"
	RunStatusRunning    RunStatus = "RUNNING"
	RunStatusOptimal    RunStatus = "OPTIMAL"
	RunStatusFeasible   RunStatus = "FEASIBLE"
	RunStatusInfeasible RunStatus = "INFEASIBLE"
	RunStatusTimeout    RunStatus = "TIMEOUT"
	RunStatusFailed     RunStatus = "FAILED"
)

// Terminal reports whether a run has finished one way or another and
// will never transition again.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusOptimal, RunStatusFeasible, RunStatusInfeasible, RunStatusTimeout, RunStatusFailed:
		return true
	default:
		return false
	}
}

// Run is a persisted invocation of the scheduling core: one Input fed
// through corerun.Run, with the resulting report kept as JSON meta so it
// can be displayed without re-solving. A run is created in QUEUED status
// and updated in place as the worker picks it up, solves it, and
// finishes — Error is only populated on RunStatusFailed.
type Run struct {
	ID          string         `db:"id" json:"id"`
	Status      RunStatus      `db:"status" json:"status"`
	Objective   float64        `db:"objective" json:"objective"`
	WallSeconds float64        `db:"wall_seconds" json:"wall_seconds"`
	Report      types.JSONText `db:"report" json:"report"`
	Error       string         `db:"error" json:"error,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// RunSlot is one calendar record emitted for a Run — a single trainer's
// meeting with a class on one band/weekday/week.
type RunSlot struct {
	ID           string    `db:"id" json:"id"`
	RunID        string    `db:"run_id" json:"run_id"`
	ClassID      string    `db:"class_id" json:"class_id"`
	SchoolID     string    `db:"school_id" json:"school_id"`
	WorkshopID   string    `db:"workshop_id" json:"workshop_id"`
	Ordinal      int       `db:"ordinal" json:"ordinal"`
	TrainerID    string    `db:"trainer_id" json:"trainer_id"`
	Week         int       `db:"week" json:"week"`
	Weekday      string    `db:"weekday" json:"weekday"`
	Band         string    `db:"band" json:"band"`
	CoTaughtWith *string   `db:"co_taught_with" json:"co_taught_with,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
