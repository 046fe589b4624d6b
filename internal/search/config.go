// Package search implements the search driver: it configures and runs
// a parallel local-search solver over a compiled cpmodel.Model and
// extracts the best solution found within a wall-clock budget.
package search

import (
	"runtime"
	"time"
)

// Config configures one search run.
type Config struct {
	// WallClock bounds total solving time; default 300s.
	WallClock time.Duration
	// Workers is the parallel restart count; default min(CPUs, 12).
	Workers int
	// Seed makes a run reproducible: the same Seed and Model always
	// produce the same per-worker random streams.
	Seed int64
	// DiagnosticRetry enables the second pass with soft weights zeroed,
	// used to confirm a genuinely Infeasible result.
	DiagnosticRetry bool
	// Iterations bounds each worker's annealing loop independent of wall
	// clock, so a run is reproducible across machines of different
	// speed; the wall-clock deadline is still respected as a hard stop.
	Iterations int
}

// DefaultConfig returns the default search configuration.
func DefaultConfig() Config {
	return Config{
		WallClock:       300 * time.Second,
		Workers:         defaultWorkerCount(),
		Seed:            1,
		DiagnosticRetry: true,
		Iterations:      200_000,
	}
}

func defaultWorkerCount() int {
	n := runtime.NumCPU()
	if n > 12 {
		return 12
	}
	if n < 1 {
		return 1
	}
	return n
}
