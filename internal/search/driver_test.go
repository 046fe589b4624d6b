package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labsched/scheduler/internal/cpmodel"
	"github.com/labsched/scheduler/internal/domain"
	"github.com/labsched/scheduler/internal/preprocessor"
)

func tinyFeasibleInput() domain.Input {
	weekdays := []domain.Weekday{domain.Mon, domain.Tue, domain.Wed, domain.Thu, domain.Fri}
	morning := map[domain.Weekday]bool{}
	afternoon := map[domain.Weekday]bool{}
	for _, wd := range weekdays {
		morning[wd] = true
		afternoon[wd] = true
	}
	return domain.Input{
		Schools: []domain.School{{ID: "sch-1"}, {ID: "sch-2"}},
		Classes: []domain.Class{
			{ID: "cls-a", SchoolID: "sch-1", Year: domain.Year4},
			{ID: "cls-b", SchoolID: "sch-2", Year: domain.Year3},
		},
		Trainers: []domain.Trainer{{
			ID: "trn-1", TotalHourBudget: 100,
			MorningAvailability: morning, AfternoonAvailability: afternoon,
		}},
		Workshops: []domain.Workshop{
			{ID: "wks-1", DefaultMeetingCount: 2, HoursPerMeeting: 2},
			{ID: "wks-2", DefaultMeetingCount: 1, HoursPerMeeting: 2},
		},
		Enrollments: []domain.Enrollment{
			{ClassID: "cls-a", WorkshopID: "wks-1"},
			{ClassID: "cls-a", WorkshopID: "wks-2"},
			{ClassID: "cls-b", WorkshopID: "wks-1"},
			{ClassID: "cls-b", WorkshopID: "wks-2"},
		},
		Policies: []domain.TimeSlotPolicy{
			{ClassID: "cls-a", PermittedBands: []domain.Band{domain.BandM1, domain.BandM2, domain.BandP}, PermittedWeekdays: weekdays, Mode: domain.PolicyHard},
			{ClassID: "cls-b", PermittedBands: []domain.Band{domain.BandM1, domain.BandM2, domain.BandP}, PermittedWeekdays: weekdays, Mode: domain.PolicyHard},
		},
		Horizon: domain.Horizon{Weeks: 6},
	}
}

func TestRunFindsFeasibleSolutionOnTinyInstance(t *testing.T) {
	in := tinyFeasibleInput()
	pre, err := preprocessor.Preprocess(in)
	require.NoError(t, err)
	m := cpmodel.NewModel(in, pre, cpmodel.DefaultWeights())

	cfg := Config{WallClock: 5 * time.Second, Workers: 2, Seed: 7, Iterations: 5_000, DiagnosticRetry: true}
	result, err := Run(context.Background(), m, cfg)
	require.NoError(t, err)
	assert.Empty(t, result.HardViolations)
	assert.Contains(t, []Status{StatusOptimal, StatusFeasible}, result.Status)
}

func TestRunIsReproducibleForSameSeed(t *testing.T) {
	in := tinyFeasibleInput()
	pre, err := preprocessor.Preprocess(in)
	require.NoError(t, err)
	m := cpmodel.NewModel(in, pre, cpmodel.DefaultWeights())

	cfg := Config{WallClock: 5 * time.Second, Workers: 1, Seed: 42, Iterations: 2_000, DiagnosticRetry: true}
	r1, err1 := Run(context.Background(), m, cfg)
	r2, err2 := Run(context.Background(), m, cfg)
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, r1.Objective, r2.Objective)
	assert.Equal(t, len(r1.HardViolations), len(r2.HardViolations))
}

func TestRunReportsPinConflictUpstreamNeverReachesSearch(t *testing.T) {
	in := tinyFeasibleInput()
	in.Enrollments[0].Pins = []domain.Pin{{Ordinal: 1, Date: domain.Date{Week: 5, Weekday: domain.Mon}, Band: domain.BandM1}}
	in.Enrollments[1].Pins = []domain.Pin{{Ordinal: 1, Date: domain.Date{Week: 5, Weekday: domain.Tue}, Band: domain.BandM1}}
	_, err := preprocessor.Preprocess(in)
	require.Error(t, err)
}
