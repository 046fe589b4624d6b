package cpmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labsched/scheduler/internal/domain"
	"github.com/labsched/scheduler/internal/preprocessor"
)

func tinyHorizon() domain.Horizon {
	return domain.Horizon{Weeks: 6}
}

func tinyInput() domain.Input {
	return domain.Input{
		Schools:  []domain.School{{ID: "sch-1", Name: "North"}},
		Classes:  []domain.Class{{ID: "cls-a", SchoolID: "sch-1", Year: domain.Year4}},
		Trainers: []domain.Trainer{{
			ID:              "trn-1",
			TotalHourBudget: 40,
			MorningAvailability: map[domain.Weekday]bool{
				domain.Mon: true, domain.Tue: true, domain.Wed: true, domain.Thu: true, domain.Fri: true,
			},
			AfternoonAvailability: map[domain.Weekday]bool{
				domain.Mon: true, domain.Tue: true, domain.Wed: true, domain.Thu: true, domain.Fri: true,
			},
		}},
		Workshops: []domain.Workshop{{ID: "wks-1", DefaultMeetingCount: 2, HoursPerMeeting: 2}},
		Enrollments: []domain.Enrollment{
			{ClassID: "cls-a", WorkshopID: "wks-1"},
		},
		Policies: []domain.TimeSlotPolicy{{
			ClassID:           "cls-a",
			PermittedBands:    []domain.Band{domain.BandM1, domain.BandM2, domain.BandP},
			PermittedWeekdays: []domain.Weekday{domain.Mon, domain.Tue, domain.Wed, domain.Thu, domain.Fri},
			Mode:              domain.PolicyHard,
		}},
		Horizon: tinyHorizon(),
	}
}

func buildTinyModel(t *testing.T) *Model {
	t.Helper()
	in := tinyInput()
	pre, err := preprocessor.Preprocess(in)
	require.NoError(t, err)
	return NewModel(in, pre, DefaultWeights())
}

func TestInitialSolutionHasNoGapsInAssignments(t *testing.T) {
	m := buildTinyModel(t)
	sol := m.InitialSolution()
	assert.Len(t, sol.Assignments, 2)
	for _, d := range m.Domains {
		_, ok := sol.Assignments[d.Meeting.ID]
		assert.True(t, ok)
	}
}

func TestCheckSequenceFlagsNonIncreasingOrdinals(t *testing.T) {
	m := buildTinyModel(t)
	sol := m.InitialSolution()
	// Both meetings of the same enrollment start pinned to the same first
	// candidate slot by InitialSolution, so H-SEQUENCE must fire.
	violations := m.checkSequence(sol)
	require.Len(t, violations, 1)
	assert.Equal(t, "H-SEQUENCE", violations[0].Code)
}

func TestCheckBudgetPassesUnderCap(t *testing.T) {
	m := buildTinyModel(t)
	sol := m.InitialSolution()
	violations := m.checkBudget(sol)
	assert.Empty(t, violations)
}

func TestCheckBudgetFlagsOverCap(t *testing.T) {
	in := tinyInput()
	in.Trainers[0].TotalHourBudget = 3 // passes the halved 2h pre-check, but two 2h meetings use 4h
	pre, err := preprocessor.Preprocess(in)
	require.NoError(t, err)
	m := NewModel(in, pre, DefaultWeights())
	sol := m.InitialSolution()
	violations := m.checkBudget(sol)
	require.Len(t, violations, 1)
	assert.Equal(t, "H-BUDGET", violations[0].Code)
}

func TestGroupingCandidatesRequireSameSchoolWorkshopOrdinal(t *testing.T) {
	in := domain.Input{
		Schools: []domain.School{{ID: "sch-1"}},
		Classes: []domain.Class{
			{ID: "cls-a", SchoolID: "sch-1"},
			{ID: "cls-b", SchoolID: "sch-1"},
		},
		Trainers: []domain.Trainer{{
			ID:              "trn-1",
			TotalHourBudget: 100,
			MorningAvailability: map[domain.Weekday]bool{domain.Mon: true},
		}},
		Workshops: []domain.Workshop{{ID: "wks-1", DefaultMeetingCount: 1, HoursPerMeeting: 2}},
		Enrollments: []domain.Enrollment{
			{ClassID: "cls-a", WorkshopID: "wks-1"},
			{ClassID: "cls-b", WorkshopID: "wks-1"},
		},
		Policies: []domain.TimeSlotPolicy{
			{ClassID: "cls-a", PermittedBands: []domain.Band{domain.BandM1}, PermittedWeekdays: []domain.Weekday{domain.Mon}, Mode: domain.PolicyHard},
			{ClassID: "cls-b", PermittedBands: []domain.Band{domain.BandM1}, PermittedWeekdays: []domain.Weekday{domain.Mon}, Mode: domain.PolicyHard},
		},
		Horizon: tinyHorizon(),
	}
	pre, err := preprocessor.Preprocess(in)
	require.NoError(t, err)
	m := NewModel(in, pre, DefaultWeights())
	require.Len(t, m.GroupCandidates, 1)
	assert.ElementsMatch(t, []string{"cls-a", "cls-b"}, []string{m.GroupCandidates[0].Key.A.ClassID, m.GroupCandidates[0].Key.B.ClassID})
}

func TestApplyWeightOverrideRejectsUnknownName(t *testing.T) {
	w := DefaultWeights()
	err := ApplyWeightOverride(&w, "not-a-real-term", 5)
	assert.Error(t, err)
}

func TestApplyWeightOverrideSetsKnownName(t *testing.T) {
	w := DefaultWeights()
	require.NoError(t, ApplyWeightOverride(&w, "group", 99))
	assert.Equal(t, 99.0, w.Group)
}

func TestSoftObjectiveRewardsRealizedGroup(t *testing.T) {
	in := tinyInput()
	in.Classes = append(in.Classes, domain.Class{ID: "cls-b", SchoolID: "sch-1", Year: domain.Year4})
	in.Enrollments = append(in.Enrollments, domain.Enrollment{ClassID: "cls-b", WorkshopID: "wks-1"})
	policyB := in.Policies[0]
	policyB.ClassID = "cls-b"
	in.Policies = append(in.Policies, policyB)
	pre, err := preprocessor.Preprocess(in)
	require.NoError(t, err)
	m := NewModel(in, pre, DefaultWeights())
	require.NotEmpty(t, m.GroupCandidates)

	sol := m.InitialSolution()
	base := m.SoftObjective(sol)

	grouped := sol.Clone()
	grouped.Groups[m.GroupCandidates[0].Key] = true
	assert.Less(t, m.SoftObjective(grouped), base)
}
