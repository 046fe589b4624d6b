package extractor

import (
	"github.com/labsched/scheduler/internal/cpmodel"
	"github.com/labsched/scheduler/internal/domain"
	"github.com/labsched/scheduler/internal/search"
)

// Extract reads back a search.Result's solution into a normalized
// calendar record list plus the solver report. It performs
// no solving; it only projects variable assignments.
func Extract(m *cpmodel.Model, result search.Result) ([]CalendarRecord, Report) {
	partner := groupPartners(m, result.Solution)

	records := make([]CalendarRecord, 0, len(m.Domains))
	for _, d := range m.Domains {
		id := d.Meeting.ID
		a := result.Solution.Assignments[id]
		rec := CalendarRecord{
			ClassID:      id.ClassID,
			SchoolID:     d.Meeting.SchoolID,
			WorkshopID:   id.WorkshopID,
			Ordinal:      id.Ordinal,
			TrainerID:    a.TrainerID,
			Week:         a.Slot.Week,
			Weekday:      a.Slot.Weekday,
			Band:         a.Slot.Band,
			AbsoluteDate: a.Slot.ToDate(),
		}
		if p, ok := partner[id]; ok {
			rec.CoTaughtWith = []domain.MeetingInstanceID{p}
		}
		records = append(records, rec)
	}

	return records, buildReport(m, result)
}

// groupPartners resolves, for every meeting, its realized grouping
// partner if any. A grouping pair is always binary by H-GROUP-CAP, so a
// map to a single partner ID suffices; no transitive closure walk is
// needed.
func groupPartners(m *cpmodel.Model, sol cpmodel.Solution) map[domain.MeetingInstanceID]domain.MeetingInstanceID {
	out := make(map[domain.MeetingInstanceID]domain.MeetingInstanceID)
	for key, active := range sol.Groups {
		if !active {
			continue
		}
		out[key.A] = key.B
		out[key.B] = key.A
	}
	return out
}

func buildReport(m *cpmodel.Model, result search.Result) Report {
	hours := m.TrainerHours(result.Solution)
	perTrainer := make(map[string]TrainerHours, len(m.TrainerByID))
	for id, t := range m.TrainerByID {
		used := hours[id]
		perTrainer[id] = TrainerHours{Used: used, Remaining: t.TotalHourBudget - used}
	}

	realized := 0
	for _, active := range result.Solution.Groups {
		if active {
			realized++
		}
	}

	completions := make([]Completion, 0, len(m.EnrollmentMeetings))
	for _, e := range m.Input.Enrollments {
		ids := m.MeetingIDsFor(e.ClassID, e.WorkshopID)
		completions = append(completions, Completion{
			ClassID:       e.ClassID,
			WorkshopID:    e.WorkshopID,
			RequiredCount: e.EffectiveMeetingCount(m.WorkshopByID[e.WorkshopID]),
			EmittedCount:  len(ids),
		})
	}

	return Report{
		Status:            result.Status,
		Objective:         result.Objective,
		WallSeconds:       result.WallSeconds,
		PerTrainerHours:   perTrainer,
		RealizedGroupings: realized,
		Completions:       completions,
	}
}
