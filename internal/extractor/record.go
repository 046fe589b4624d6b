// Package extractor is the solution extractor: it reads back a
// search.Result's variable assignments into a normalized, caller-owned
// calendar record list plus summary statistics.
package extractor

import (
	"github.com/labsched/scheduler/internal/domain"
)

// CalendarRecord is one scheduled meeting:
// `{class, school, workshop, ordinal, trainer, week, weekday, band,
// absolute-date, co-taught-with[]}`. AbsoluteDate is left as the
// (week, weekday) pair — mapping it to a real calendar date is the
// output layer's job, per school.
type CalendarRecord struct {
	ClassID      string
	SchoolID     string
	WorkshopID   string
	Ordinal      int
	TrainerID    string
	Week         domain.Week
	Weekday      domain.Weekday
	Band         domain.Band
	AbsoluteDate domain.Date
	CoTaughtWith []domain.MeetingInstanceID
}
