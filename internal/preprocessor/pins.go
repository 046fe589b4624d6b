package preprocessor

import (
	appErrors "github.com/labsched/scheduler/pkg/errors"

	"github.com/labsched/scheduler/internal/domain"
)

// classWeekConsumption tracks, per class, which weeks are already spoken
// for by a pin or an external (non-covered) occupation — both must be
// folded into every other enrollment's domain for that class before
// H-CLASS-UNIQ is even checked by the solver.
type classWeekConsumption map[string]map[domain.Week]bool

func (c classWeekConsumption) consume(classID string, week domain.Week) {
	if c[classID] == nil {
		c[classID] = make(map[domain.Week]bool)
	}
	c[classID][week] = true
}

func (c classWeekConsumption) isConsumed(classID string, week domain.Week) bool {
	return c[classID][week]
}

// bindPins validates that no two pins of the same class collide on the
// same week, nor with a week already consumed for that class, and records
// the weeks they consume in consumed.
func bindPins(classID string, enrollments []domain.Enrollment, consumed classWeekConsumption) error {
	seen := make(map[domain.Week]bool)
	for _, e := range enrollments {
		if e.ClassID != classID {
			continue
		}
		for _, pin := range e.Pins {
			if seen[pin.Date.Week] || consumed.isConsumed(classID, pin.Date.Week) {
				return appErrors.PinConflict(classID, int(pin.Date.Week))
			}
			seen[pin.Date.Week] = true
			consumed.consume(classID, pin.Date.Week)
		}
	}
	return nil
}

// reserveExternal consumes a class's weeks for external (non-covered)
// workshop occupations.
func reserveExternal(occupations []domain.ExternalOccupation, consumed classWeekConsumption) {
	for _, occ := range occupations {
		consumed.consume(occ.ClassID, occ.Week)
	}
}

// removeConsumedWeeks filters out candidate slots landing on a week
// already consumed by a pin or an external occupation for this class.
func removeConsumedWeeks(slots []domain.CandidateSlot, classID string, consumed classWeekConsumption) []domain.CandidateSlot {
	out := make([]domain.CandidateSlot, 0, len(slots))
	for _, s := range slots {
		if consumed.isConsumed(classID, s.Week) {
			continue
		}
		out = append(out, s)
	}
	return out
}
