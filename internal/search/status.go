package search

// Status is the search driver's outcome state:
// Built → Solving → {Optimal, Feasible, Infeasible, Timeout}.
type Status string

const (
	StatusBuilt      Status = "Built"
	StatusSolving    Status = "Solving"
	StatusOptimal    Status = "Optimal"
	StatusFeasible   Status = "Feasible"
	StatusInfeasible Status = "Infeasible"
	StatusTimeout    Status = "Timeout"
)
