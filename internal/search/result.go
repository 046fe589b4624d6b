package search

import (
	"time"

	"github.com/labsched/scheduler/internal/cpmodel"
)

// Result is what the search driver hands the solution extractor: the
// best solution any worker found, its status, and the figures the
// solver report names.
type Result struct {
	Status             Status
	Solution           cpmodel.Solution
	HardViolations     []cpmodel.Violation
	Objective          float64
	WallSeconds        float64
	DiagnosticRetryRan bool
}

// Feasible reports whether Result.Solution has zero hard violations.
func (r Result) Feasible() bool {
	return len(r.HardViolations) == 0
}

func elapsedSeconds(start time.Time) float64 {
	return time.Since(start).Seconds()
}
