package corerun

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/labsched/scheduler/internal/domain"
	"github.com/labsched/scheduler/internal/search"
	appErrors "github.com/labsched/scheduler/pkg/errors"
)

// tinyFeasibleScenario is a small, easily satisfiable instance: two
// schools, two classes, two workshops, one trainer, no pins — expected
// to complete with no grouping needed.
func tinyFeasibleScenario() domain.Input {
	weekdays := []domain.Weekday{domain.Mon, domain.Tue, domain.Wed, domain.Thu, domain.Fri}
	allDays := map[domain.Weekday]bool{}
	for _, wd := range weekdays {
		allDays[wd] = true
	}
	return domain.Input{
		Schools: []domain.School{{ID: "sch-1"}, {ID: "sch-2"}},
		Classes: []domain.Class{
			{ID: "cls-a", SchoolID: "sch-1", Year: domain.Year4},
			{ID: "cls-b", SchoolID: "sch-2", Year: domain.Year4},
		},
		Trainers: []domain.Trainer{{
			ID: "trn-1", TotalHourBudget: 16,
			MorningAvailability: allDays, AfternoonAvailability: allDays,
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

func TestRunTinyFeasibleScenarioCompletesAllEnrollments(t *testing.T) {
	r := NewRunner(zap.NewNop())
	cfg := DefaultConfig()
	cfg.Search.WallClock = 5 * time.Second
	cfg.Search.Workers = 2
	cfg.Search.Iterations = 5_000

	out, err := r.Run(context.Background(), tinyFeasibleScenario(), cfg)
	require.NoError(t, err)
	assert.Len(t, out.Records, 6)
	for _, c := range out.Report.Completions {
		assert.Equal(t, c.RequiredCount, c.EmittedCount)
	}
	assert.Contains(t, []search.Status{search.StatusOptimal, search.StatusFeasible}, out.Report.Status)
}

func TestRunSurfacesPinConflictBeforeSearch(t *testing.T) {
	in := tinyFeasibleScenario()
	in.Enrollments[0].Pins = []domain.Pin{{Ordinal: 1, Date: domain.Date{Week: 3, Weekday: domain.Mon}, Band: domain.BandM1}}
	in.Enrollments[1].Pins = []domain.Pin{{Ordinal: 1, Date: domain.Date{Week: 3, Weekday: domain.Tue}, Band: domain.BandM1}}

	r := NewRunner(zap.NewNop())
	_, err := r.Run(context.Background(), in, DefaultConfig())
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.CodePinConflict, appErr.Code)
}

func TestRunSurfacesInputInvalidForUnknownSchool(t *testing.T) {
	in := tinyFeasibleScenario()
	in.Classes[0].SchoolID = "does-not-exist"

	r := NewRunner(zap.NewNop())
	_, err := r.Run(context.Background(), in, DefaultConfig())
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.CodeInputInvalid, appErr.Code)
}

func TestNewRunnerToleratesNilLogger(t *testing.T) {
	r := NewRunner(nil)
	assert.NotNil(t, r)
}
