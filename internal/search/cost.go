package search

import "github.com/labsched/scheduler/internal/cpmodel"

// hardPenaltyWeight dominates every soft term so the annealer only ever
// prefers a hard-violating move over a hard-clean one when no hard-clean
// move is reachable from the current state; soft terms never override a
// hard constraint.
const hardPenaltyWeight = 1_000_000.0

// cost is the scalar the annealer minimizes: hard violations at an
// overwhelming weight, plus the configured soft objective.
func cost(m *cpmodel.Model, sol cpmodel.Solution) (total float64, violations []cpmodel.Violation) {
	violations = m.HardViolations(sol)
	total = float64(len(violations))*hardPenaltyWeight + m.SoftObjective(sol)
	return total, violations
}
