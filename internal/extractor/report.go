package extractor

import "github.com/labsched/scheduler/internal/search"

// TrainerHours summarizes one trainer's budget consumption.
type TrainerHours struct {
	Used      float64
	Remaining float64
}

// Completion counts meeting instances actually emitted for one
// (class, workshop) enrollment, so the caller can confirm H-COUNT
// visually without re-deriving it from the record list.
type Completion struct {
	ClassID       string
	WorkshopID    string
	RequiredCount int
	EmittedCount  int
}

// Report summarizes one solved run: status, objective value,
// wall-clock seconds, per-trainer hours, and realized groupings.
type Report struct {
	Status            search.Status
	Objective         float64
	WallSeconds       float64
	PerTrainerHours   map[string]TrainerHours
	RealizedGroupings int
	Completions       []Completion
}
