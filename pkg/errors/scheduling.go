package errors

import "net/http"

// Error codes surfaced by the scheduling core.
const (
	CodeDomainEmpty      = "DOMAIN_EMPTY"
	CodePinConflict      = "PIN_CONFLICT"
	CodeBudgetOver       = "BUDGET_OVER"
	CodeSolverTimeout    = "SOLVER_TIMEOUT_NO_FEASIBLE"
	CodeSolverInfeasible = "SOLVER_INFEASIBLE"
	CodeInputInvalid     = "INPUT_INVALID"
)

// Predefined base errors for the five scheduling error kinds plus
// malformed input (ErrInputInvalid). Callers
// attach offending-entity identifiers with WithMeta rather than
// constructing new sentinels per occurrence.
var (
	ErrDomainEmpty      = New(CodeDomainEmpty, http.StatusUnprocessableEntity, "no admissible slot remains for an enrollment")
	ErrPinConflict      = New(CodePinConflict, http.StatusUnprocessableEntity, "two pinned meetings collide on the same class/week")
	ErrBudgetOver       = New(CodeBudgetOver, http.StatusUnprocessableEntity, "trainer hour budget cannot be met even with full grouping")
	ErrSolverTimeout    = New(CodeSolverTimeout, http.StatusRequestTimeout, "solver reached its wall-clock limit without a feasible solution")
	ErrSolverInfeasible = New(CodeSolverInfeasible, http.StatusUnprocessableEntity, "no feasible assignment satisfies the hard constraints")
	ErrInputInvalid     = New(CodeInputInvalid, http.StatusBadRequest, "malformed or cross-referentially invalid input record")
)

// DomainEmpty reports that an enrollment's admissible slot domain emptied
// out during preprocessing.
func DomainEmpty(classID, workshopID, reason string) *Error {
	return ErrDomainEmpty.WithMeta(map[string]any{
		"classId":    classID,
		"workshopId": workshopID,
		"reason":     reason,
	})
}

// PinConflict reports two pinned meetings landing on the same class/week.
func PinConflict(classID string, week int) *Error {
	return ErrPinConflict.WithMeta(map[string]any{
		"classId": classID,
		"week":    week,
	})
}

// BudgetOver reports a trainer whose required hours exceed their budget
// even assuming every eligible pair is grouped.
func BudgetOver(trainerID string, needed, budget float64) *Error {
	return ErrBudgetOver.WithMeta(map[string]any{
		"trainerId": trainerID,
		"needed":    needed,
		"budget":    budget,
	})
}

// SolverTimeoutNoFeasible reports that the wall-clock limit elapsed with
// no feasible solution found.
func SolverTimeoutNoFeasible(elapsedSeconds float64) *Error {
	return ErrSolverTimeout.WithMeta(map[string]any{"elapsedSeconds": elapsedSeconds})
}

// SolverInfeasible reports that the hard-constraint system itself has no
// solution (confirmed by the diagnostic zero-soft-weights retry).
func SolverInfeasible(confirmedByRetry bool) *Error {
	return ErrSolverInfeasible.WithMeta(map[string]any{"confirmedByRetry": confirmedByRetry})
}
