package search

import (
	"context"
	"math"
	"math/rand"

	"github.com/labsched/scheduler/internal/cpmodel"
)

// annealConfig are the simulated-annealing schedule parameters for one
// worker's run. They are fixed constants rather than exposed tuning
// knobs — only the deterministic seed, time limit and worker count are
// configurable, not the move acceptance schedule.
const (
	initialTemperature = 50_000.0
	coolingRate        = 0.9999
	intensifyEvery     = 500
)

// workerResult is one worker's outcome: its best solution and cost.
type workerResult struct {
	solution cpmodel.Solution
	cost     float64
	hard     []cpmodel.Violation
}

// anneal runs one simulated-annealing restart seeded deterministically
// from seed, starting from start, for up to maxIterations moves or until
// ctx is done. The move family is picked per pickMoveKind's weighting; a
// periodic deterministic grouping intensification pass implements the
// symmetry-breaking tie-break rule.
func anneal(ctx context.Context, m *cpmodel.Model, start cpmodel.Solution, seed int64, maxIterations int) workerResult {
	rng := rand.New(rand.NewSource(seed))

	current := start.Clone()
	currentCost, currentViolations := cost(m, current)

	best := current.Clone()
	bestCost := currentCost
	bestViolations := currentViolations

	temperature := initialTemperature

	for i := 0; i < maxIterations; i++ {
		if i%256 == 0 {
			select {
			case <-ctx.Done():
				return workerResult{solution: best, cost: bestCost, hard: bestViolations}
			default:
			}
		}

		kind := pickMoveKind(rng, len(m.GroupCandidates) > 0)
		var undo undoFunc
		switch kind {
		case moveGroup:
			undo = applyGroupMove(m, current, rng)
		case moveTrainer:
			undo = applyTrainerMove(m, current, rng)
		default:
			undo = applySlotMove(m, current, rng)
		}

		newCost, newViolations := cost(m, current)
		delta := newCost - currentCost

		accept := delta < 0
		if !accept && temperature > 1e-9 {
			accept = rng.Float64() < math.Exp(-delta/temperature)
		}

		if accept {
			currentCost = newCost
			currentViolations = newViolations
			if currentCost < bestCost {
				bestCost = currentCost
				bestViolations = currentViolations
				best = current.Clone()
			}
		} else {
			undo()
		}

		temperature *= coolingRate

		if i%intensifyEvery == intensifyEvery-1 {
			intensifyGrouping(m, current)
			currentCost, currentViolations = cost(m, current)
			if currentCost < bestCost {
				bestCost = currentCost
				bestViolations = currentViolations
				best = current.Clone()
			}
		}
	}

	return workerResult{solution: best, cost: bestCost, hard: bestViolations}
}
