package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labsched/scheduler/internal/cpmodel"
	"github.com/labsched/scheduler/internal/domain"
	"github.com/labsched/scheduler/internal/preprocessor"
	"github.com/labsched/scheduler/internal/search"
)

func buildPairModel(t *testing.T) *cpmodel.Model {
	t.Helper()
	weekdays := []domain.Weekday{domain.Mon, domain.Tue, domain.Wed, domain.Thu, domain.Fri}
	morning := map[domain.Weekday]bool{domain.Mon: true}
	afternoon := map[domain.Weekday]bool{domain.Mon: true}
	in := domain.Input{
		Schools: []domain.School{{ID: "sch-1"}},
		Classes: []domain.Class{
			{ID: "cls-a", SchoolID: "sch-1"},
			{ID: "cls-b", SchoolID: "sch-1"},
		},
		Trainers: []domain.Trainer{{ID: "trn-1", TotalHourBudget: 8, MorningAvailability: morning, AfternoonAvailability: afternoon}},
		Workshops: []domain.Workshop{{ID: "wks-1", DefaultMeetingCount: 1, HoursPerMeeting: 2}},
		Enrollments: []domain.Enrollment{
			{ClassID: "cls-a", WorkshopID: "wks-1"},
			{ClassID: "cls-b", WorkshopID: "wks-1"},
		},
		Policies: []domain.TimeSlotPolicy{
			{ClassID: "cls-a", PermittedBands: []domain.Band{domain.BandM1}, PermittedWeekdays: weekdays, Mode: domain.PolicyHard},
			{ClassID: "cls-b", PermittedBands: []domain.Band{domain.BandM1}, PermittedWeekdays: weekdays, Mode: domain.PolicyHard},
		},
		Horizon: domain.Horizon{Weeks: 4},
	}
	pre, err := preprocessor.Preprocess(in)
	require.NoError(t, err)
	return cpmodel.NewModel(in, pre, cpmodel.DefaultWeights())
}

func TestExtractMarksRealizedGroupingOnBothSides(t *testing.T) {
	m := buildPairModel(t)
	require.Len(t, m.GroupCandidates, 1)

	sol := m.InitialSolution()
	key := m.GroupCandidates[0].Key
	// Force the coupled assignment H-GROUP-COUPLING requires.
	a := sol.Assignments[key.A]
	sol.Assignments[key.B] = cpmodel.Assignment{Slot: a.Slot, TrainerID: a.TrainerID}
	sol.Groups[key] = true

	records, report := Extract(m, search.Result{Solution: sol, Status: search.StatusOptimal})

	require.Len(t, records, 2)
	for _, rec := range records {
		require.Len(t, rec.CoTaughtWith, 1)
	}
	assert.Equal(t, 1, report.RealizedGroupings)
}

func TestExtractChargesBudgetOncePerGroupedPair(t *testing.T) {
	m := buildPairModel(t)
	sol := m.InitialSolution()
	key := m.GroupCandidates[0].Key
	a := sol.Assignments[key.A]
	sol.Assignments[key.B] = cpmodel.Assignment{Slot: a.Slot, TrainerID: a.TrainerID}
	sol.Groups[key] = true

	_, report := Extract(m, search.Result{Solution: sol, Status: search.StatusOptimal})
	assert.Equal(t, 2.0, report.PerTrainerHours["trn-1"].Used)
}

func TestExtractReportsCompletionCounts(t *testing.T) {
	m := buildPairModel(t)
	sol := m.InitialSolution()
	_, report := Extract(m, search.Result{Solution: sol, Status: search.StatusOptimal})
	require.Len(t, report.Completions, 2)
	for _, c := range report.Completions {
		assert.Equal(t, 1, c.RequiredCount)
		assert.Equal(t, 1, c.EmittedCount)
	}
}
