package cpmodel

import (
	"fmt"

	"github.com/labsched/scheduler/internal/domain"
)

// Violation is one failure of a named hard constraint, identified by its
// id (e.g. "H-NO-OVERLAP") so tests and the diagnostic retry can
// attribute blame.
type Violation struct {
	Code   string
	Detail string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Code, v.Detail)
}

// HardViolations evaluates every hard constraint in the catalogue against
// sol and returns every failure found. H-COUNT, H-WINDOW, H-BAND-ALLOWED,
// H-WEEKDAY-ALLOWED, H-BLACKOUT and H-EXTERNAL-BLOCK are enforced
// structurally by the preprocessor's domain construction and
// by construction a Solution can only assign values drawn from a
// meeting's CandidateSlots/TrainerIDs, so they are never re-checked here
// except where a constructed Solution could still drift outside the
// domain (defensive, e.g. a corrupted or externally-constructed
// Solution) — checkDomainMembership below covers that case for test round-trips.
func (m *Model) HardViolations(sol Solution) []Violation {
	var v []Violation
	v = append(v, m.checkDomainMembership(sol)...)
	v = append(v, m.checkPins(sol)...)
	v = append(v, m.checkClassUniq(sol)...)
	v = append(v, m.checkTrainerAvail(sol)...)
	v = append(v, m.checkNoOverlap(sol)...)
	v = append(v, m.checkSaturday(sol)...)
	v = append(v, m.checkBudget(sol)...)
	v = append(v, m.checkGroupCap(sol)...)
	v = append(v, m.checkGroupCoupling(sol)...)
	v = append(v, m.checkSequence(sol)...)
	v = append(v, m.checkLast(sol)...)
	v = append(v, m.checkPrecede(sol)...)
	v = append(v, m.checkAutonomousGap(sol)...)
	return v
}

// checkDomainMembership re-verifies every assignment is drawn from its
// meeting's admissible domain (P12's round-trip check; H-WINDOW /
// H-BAND-ALLOWED / H-WEEKDAY-ALLOWED / H-BLACKOUT / H-EXTERNAL-BLOCK are
// all folded into domain membership by the preprocessor).
func (m *Model) checkDomainMembership(sol Solution) []Violation {
	var out []Violation
	for id, d := range m.DomainByID {
		a, ok := sol.Assignments[id]
		if !ok {
			out = append(out, Violation{Code: "H-COUNT", Detail: fmt.Sprintf("meeting %+v has no assignment", id)})
			continue
		}
		if !slotInDomain(a.Slot, d.CandidateSlots) {
			out = append(out, Violation{Code: "H-WINDOW", Detail: fmt.Sprintf("meeting %+v assigned slot outside its admissible domain", id)})
		}
		if !trainerInDomain(a.TrainerID, d.TrainerIDs) {
			out = append(out, Violation{Code: "H-TRAINER-AVAIL", Detail: fmt.Sprintf("meeting %+v assigned trainer %q outside its eligible set", id, a.TrainerID)})
		}
	}
	return out
}

func slotInDomain(s domain.CandidateSlot, domainSlots []domain.CandidateSlot) bool {
	for _, d := range domainSlots {
		if d == s {
			return true
		}
	}
	return false
}

func trainerInDomain(id string, ids []string) bool {
	for _, t := range ids {
		if t == id {
			return true
		}
	}
	return false
}

// checkPins enforces H-PIN: a pinned meeting's assignment must equal the
// pin exactly.
func (m *Model) checkPins(sol Solution) []Violation {
	var out []Violation
	for id, d := range m.DomainByID {
		if d.Meeting.Pin == nil {
			continue
		}
		pin := *d.Meeting.Pin
		a := sol.Assignments[id]
		want := domain.CandidateSlot{Week: pin.Date.Week, Weekday: pin.Date.Weekday, Band: pin.Band}
		if a.Slot != want {
			out = append(out, Violation{Code: "H-PIN", Detail: fmt.Sprintf("meeting %+v does not match its pin", id)})
		}
		if pin.TrainerID != "" && a.TrainerID != pin.TrainerID {
			out = append(out, Violation{Code: "H-PIN", Detail: fmt.Sprintf("meeting %+v pinned to trainer %q but assigned %q", id, pin.TrainerID, a.TrainerID)})
		}
	}
	return out
}

// checkClassUniq enforces H-CLASS-UNIQ: at most one meeting per (class,
// week), with a realized group pair permitted to share the week (they
// collapse to one physical meeting, but each still contributes a slot for
// its own class).
func (m *Model) checkClassUniq(sol Solution) []Violation {
	type classWeek struct {
		ClassID string
		Week    domain.Week
	}
	seen := make(map[classWeek]domain.MeetingInstanceID)
	var out []Violation
	for id, a := range sol.Assignments {
		key := classWeek{ClassID: id.ClassID, Week: a.Slot.Week}
		if other, ok := seen[key]; ok {
			if m.realizedGroup(sol, id, other) {
				continue
			}
			out = append(out, Violation{Code: "H-CLASS-UNIQ", Detail: fmt.Sprintf("class %q has two ungrouped meetings in week %d (%+v and %+v)", id.ClassID, a.Slot.Week, id, other)})
			continue
		}
		seen[key] = id
	}
	return out
}

func (m *Model) realizedGroup(sol Solution, a, b domain.MeetingInstanceID) bool {
	return sol.Groups[newGroupKey(a, b)]
}

// checkTrainerAvail re-checks H-TRAINER-AVAIL against the trainer slot
// mask directly (domain membership already implies this for a
// well-formed Solution, but a mask check catches a meeting whose domain
// was built from a stale trainer list).
func (m *Model) checkTrainerAvail(sol Solution) []Violation {
	var out []Violation
	for id, a := range sol.Assignments {
		mask, ok := m.TrainerMasks[a.TrainerID]
		if !ok {
			continue
		}
		if !mask.Allows(a.Slot) {
			out = append(out, Violation{Code: "H-TRAINER-AVAIL", Detail: fmt.Sprintf("meeting %+v: trainer %q unavailable at %+v", id, a.TrainerID, a.Slot)})
		}
	}
	return out
}

// checkNoOverlap enforces H-NO-OVERLAP: for a trainer t and slot s, at
// most one physical meeting — two meetings sharing (trainer, slot) are
// allowed only when linked by a realized grouping.
func (m *Model) checkNoOverlap(sol Solution) []Violation {
	type trainerSlot struct {
		TrainerID string
		Slot      int
	}
	seen := make(map[trainerSlot]domain.MeetingInstanceID)
	var out []Violation
	for id, a := range sol.Assignments {
		key := trainerSlot{TrainerID: a.TrainerID, Slot: a.Slot.ToSlot().Encode()}
		if other, ok := seen[key]; ok {
			if m.realizedGroup(sol, id, other) {
				continue
			}
			out = append(out, Violation{Code: "H-NO-OVERLAP", Detail: fmt.Sprintf("trainer %q double-booked at slot %+v (%+v and %+v)", a.TrainerID, a.Slot, id, other)})
			continue
		}
		seen[key] = id
	}
	return out
}

// checkSaturday enforces H-SATURDAY: a Saturday assignment requires a
// saturday-allowed trainer.
func (m *Model) checkSaturday(sol Solution) []Violation {
	var out []Violation
	for id, a := range sol.Assignments {
		if a.Slot.Weekday != domain.Sat {
			continue
		}
		t, ok := m.TrainerByID[a.TrainerID]
		if !ok || !t.SaturdayAllowed {
			out = append(out, Violation{Code: "H-SATURDAY", Detail: fmt.Sprintf("meeting %+v scheduled Saturday with non-Saturday trainer %q", id, a.TrainerID)})
		}
	}
	return out
}

// checkBudget enforces H-BUDGET: per trainer, total hours (a realized
// group pair charged once, not twice) must not exceed the trainer's
// total-hour budget.
func (m *Model) checkBudget(sol Solution) []Violation {
	hours := m.trainerHours(sol)
	var out []Violation
	for trainerID, used := range hours {
		t, ok := m.TrainerByID[trainerID]
		if !ok {
			continue
		}
		if used > t.TotalHourBudget+1e-9 {
			out = append(out, Violation{Code: "H-BUDGET", Detail: fmt.Sprintf("trainer %q used %.2fh over budget %.2fh", trainerID, used, t.TotalHourBudget)})
		}
	}
	return out
}

// TrainerHours exposes trainerHours for callers outside this package
// (the solution extractor's per-trainer budget summary).
func (m *Model) TrainerHours(sol Solution) map[string]float64 {
	return m.trainerHours(sol)
}

// trainerHours computes, per trainer, the hour total charged under
// H-BUDGET's rule: once per physical meeting, so a realized grouping
// pair contributes hours-per-meeting a single time rather than once per
// participating class.
func (m *Model) trainerHours(sol Solution) map[string]float64 {
	charged := make(map[GroupKey]bool)
	hours := make(map[string]float64)
	for id, a := range sol.Assignments {
		d, ok := m.DomainByID[id]
		if !ok {
			continue
		}
		skip := false
		for _, gk := range m.GroupsByMeeting[id] {
			if sol.Groups[gk] && charged[gk] {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		for _, gk := range m.GroupsByMeeting[id] {
			if sol.Groups[gk] {
				charged[gk] = true
			}
		}
		hours[a.TrainerID] += d.Meeting.HoursPerMeeting
	}
	return hours
}

// checkGroupCap enforces H-GROUP-CAP: at most one grouping partner per
// meeting, and the relation is symmetric by construction (GroupKey is
// undirected).
func (m *Model) checkGroupCap(sol Solution) []Violation {
	count := make(map[domain.MeetingInstanceID]int)
	for k, active := range sol.Groups {
		if !active {
			continue
		}
		count[k.A]++
		count[k.B]++
	}
	var out []Violation
	for id, n := range count {
		if n > 1 {
			out = append(out, Violation{Code: "H-GROUP-CAP", Detail: fmt.Sprintf("meeting %+v has %d grouping partners", id, n)})
		}
	}
	return out
}

// checkGroupCoupling enforces H-GROUP-COUPLING: a realized group(m1,m2)
// forces both meetings to the same (week, weekday, band, trainer).
func (m *Model) checkGroupCoupling(sol Solution) []Violation {
	var out []Violation
	for k, active := range sol.Groups {
		if !active {
			continue
		}
		a, okA := sol.Assignments[k.A]
		b, okB := sol.Assignments[k.B]
		if !okA || !okB {
			continue
		}
		if a.Slot != b.Slot || a.TrainerID != b.TrainerID {
			out = append(out, Violation{Code: "H-GROUP-COUPLING", Detail: fmt.Sprintf("realized group %+v does not coincide in slot/trainer", k)})
		}
	}
	return out
}

// checkSequence enforces H-SEQUENCE: within an enrollment, meeting
// ordinals are strictly increasing in date.
func (m *Model) checkSequence(sol Solution) []Violation {
	var out []Violation
	for key, ids := range m.EnrollmentMeetings {
		for i := 0; i+1 < len(ids); i++ {
			a, b := sol.Assignments[ids[i]], sol.Assignments[ids[i+1]]
			if !a.Slot.ToDate().Less(b.Slot.ToDate()) {
				out = append(out, Violation{Code: "H-SEQUENCE", Detail: fmt.Sprintf("enrollment %+v: meeting %d does not strictly precede meeting %d", key, i+1, i+2)})
			}
		}
	}
	return out
}

// checkLast enforces H-LAST: the workshop flagged MustBeLast must, for
// every class that covers it, be scheduled strictly after every other
// covered workshop of that class.
func (m *Model) checkLast(sol Solution) []Violation {
	var out []Violation
	for classID, workshopIDs := range m.ClassWorkshops {
		var lastWorkshopID string
		for _, wid := range workshopIDs {
			if m.WorkshopByID[wid].MustBeLast {
				lastWorkshopID = wid
				break
			}
		}
		if lastWorkshopID == "" {
			continue
		}
		lastWeek := m.maxWeek(sol, classID, lastWorkshopID)
		for _, wid := range workshopIDs {
			if wid == lastWorkshopID {
				continue
			}
			otherMax := m.maxWeek(sol, classID, wid)
			if lastWeek <= otherMax {
				out = append(out, Violation{Code: "H-LAST", Detail: fmt.Sprintf("class %q: must-be-last workshop %q (week %d) does not exceed workshop %q (week %d)", classID, lastWorkshopID, lastWeek, wid, otherMax)})
			}
		}
	}
	return out
}

// checkPrecede enforces H-PRECEDE: for every configured ordering pair,
// and every class enrolled in both workshops, the "before" workshop's
// last meeting must precede the "after" workshop's first meeting.
func (m *Model) checkPrecede(sol Solution) []Violation {
	var out []Violation
	for _, p := range m.Input.Precedences {
		for classID, workshopIDs := range m.ClassWorkshops {
			if !containsString(workshopIDs, p.BeforeWorkshopID) || !containsString(workshopIDs, p.AfterWorkshopID) {
				continue
			}
			beforeMax := m.maxWeek(sol, classID, p.BeforeWorkshopID)
			afterMin := m.minWeek(sol, classID, p.AfterWorkshopID)
			if !(beforeMax < afterMin) {
				out = append(out, Violation{Code: "H-PRECEDE", Detail: fmt.Sprintf("class %q: workshop %q (max week %d) does not precede workshop %q (min week %d)", classID, p.BeforeWorkshopID, beforeMax, p.AfterWorkshopID, afterMin)})
			}
		}
	}
	return out
}

// checkAutonomousGap enforces H-GAP-AUTONOMOUS: for a flagged workshop in
// a flagged school, the gap between meeting ordinals 2 and 3 (1-based)
// must be at least two weeks.
func (m *Model) checkAutonomousGap(sol Solution) []Violation {
	var out []Violation
	for _, rule := range m.Input.AutonomousGapRules {
		for classID, class := range m.ClassByID {
			if !containsString(rule.SchoolIDs, class.SchoolID) {
				continue
			}
			ids, ok := m.EnrollmentMeetings[enrollmentKey{ClassID: classID, WorkshopID: rule.WorkshopID}]
			if !ok || len(ids) < 3 {
				continue
			}
			second, third := sol.Assignments[ids[1]], sol.Assignments[ids[2]]
			if third.Slot.Week < second.Slot.Week+2 {
				out = append(out, Violation{Code: "H-GAP-AUTONOMOUS", Detail: fmt.Sprintf("class %q workshop %q: gap between meeting 2 (week %d) and meeting 3 (week %d) is under two weeks", classID, rule.WorkshopID, second.Slot.Week, third.Slot.Week)})
			}
		}
	}
	return out
}

func (m *Model) maxWeek(sol Solution, classID, workshopID string) domain.Week {
	ids := m.EnrollmentMeetings[enrollmentKey{ClassID: classID, WorkshopID: workshopID}]
	max := domain.Week(-1)
	for _, id := range ids {
		if w := sol.Assignments[id].Slot.Week; w > max {
			max = w
		}
	}
	return max
}

func (m *Model) minWeek(sol Solution, classID, workshopID string) domain.Week {
	ids := m.EnrollmentMeetings[enrollmentKey{ClassID: classID, WorkshopID: workshopID}]
	min := domain.Week(1 << 30)
	for _, id := range ids {
		if w := sol.Assignments[id].Slot.Week; w < min {
			min = w
		}
	}
	return min
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
