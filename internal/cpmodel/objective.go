package cpmodel

import (
	"fmt"
	"sort"

	"github.com/labsched/scheduler/internal/domain"
	appErrors "github.com/labsched/scheduler/pkg/errors"
)

// ObjectiveWeights holds the ten named coefficients recognized as the
// sole soft-objective weights. Any name outside this set is a
// configuration error.
type ObjectiveWeights struct {
	Group       float64
	Continuity  float64
	PrefGroup   float64
	Year5Early  float64
	SeqPref     float64
	BandVar     float64
	LoadBal     float64
	WeeklyHours float64
	TimePref    float64
	LateMay     float64
}

// DefaultWeights returns the fixed default weight table.
func DefaultWeights() ObjectiveWeights {
	return ObjectiveWeights{
		Group:       20,
		Continuity:  10,
		PrefGroup:   5,
		Year5Early:  3,
		SeqPref:     2,
		BandVar:     2,
		LoadBal:     2,
		WeeklyHours: 3,
		TimePref:    1,
		LateMay:     1,
	}
}

// weightFieldNames is the enumerated set of recognized configuration
// keys.
var weightFieldNames = map[string]func(*ObjectiveWeights, float64){
	"group":       func(w *ObjectiveWeights, v float64) { w.Group = v },
	"continuity":  func(w *ObjectiveWeights, v float64) { w.Continuity = v },
	"pref-group":  func(w *ObjectiveWeights, v float64) { w.PrefGroup = v },
	"year5":       func(w *ObjectiveWeights, v float64) { w.Year5Early = v },
	"seq-pref":    func(w *ObjectiveWeights, v float64) { w.SeqPref = v },
	"band-var":    func(w *ObjectiveWeights, v float64) { w.BandVar = v },
	"load-bal":    func(w *ObjectiveWeights, v float64) { w.LoadBal = v },
	"weekly-hrs":  func(w *ObjectiveWeights, v float64) { w.WeeklyHours = v },
	"time-pref":   func(w *ObjectiveWeights, v float64) { w.TimePref = v },
	"late-may":    func(w *ObjectiveWeights, v float64) { w.LateMay = v },
}

// ApplyWeightOverride sets one named weight, rejecting any name outside
// the enumerated set.
func ApplyWeightOverride(w *ObjectiveWeights, name string, value float64) error {
	set, ok := weightFieldNames[name]
	if !ok {
		return appErrors.ErrInputInvalid.WithMeta(map[string]any{
			"reason": fmt.Sprintf("unrecognized soft-objective weight %q", name),
		})
	}
	set(w, value)
	return nil
}

// Zeroed returns a copy of w with every term set to zero, used for the
// diagnostic retry: if the model is still infeasible with every soft
// term muted, the hard constraint system itself rejects it.
func (w ObjectiveWeights) Zeroed() ObjectiveWeights {
	return ObjectiveWeights{}
}

// SoftObjective evaluates obj = Σ wᵢ·termᵢ over every O-* term for the
// given solution.
func (m *Model) SoftObjective(sol Solution) float64 {
	w := m.Weights
	total := 0.0
	total += w.Group * m.termGroup(sol)
	total += w.Continuity * m.termContinuity(sol)
	total += w.PrefGroup * m.termPrefGroup(sol)
	total += w.Year5Early * m.termYear5Early(sol)
	total += w.SeqPref * m.termSeqPref(sol)
	total += w.BandVar * m.termBandVar(sol)
	total += w.LoadBal * m.termLoadBal(sol)
	total += w.WeeklyHours * m.termWeeklyHours(sol)
	total += w.TimePref * m.termTimePref(sol)
	total += w.LateMay * m.termLateMay(sol)
	return total
}

// termGroup is O-GROUP: a bonus (negative term) per realized grouping.
func (m *Model) termGroup(sol Solution) float64 {
	count := 0
	for _, active := range sol.Groups {
		if active {
			count++
		}
	}
	return -float64(count)
}

// termContinuity is O-CONTINUITY: penalizes classes taught by many
// distinct trainers — distinct-trainer-count minus one, summed, floored
// at zero per class.
func (m *Model) termContinuity(sol Solution) float64 {
	trainersByClass := make(map[string]map[string]bool)
	for id, a := range sol.Assignments {
		if trainersByClass[id.ClassID] == nil {
			trainersByClass[id.ClassID] = make(map[string]bool)
		}
		trainersByClass[id.ClassID][a.TrainerID] = true
	}
	total := 0.0
	for _, trainers := range trainersByClass {
		if n := len(trainers) - 1; n > 0 {
			total += float64(n)
		}
	}
	return total
}

// termPrefGroup is O-PREF-GROUP: a bonus per realized grouping between a
// school's preferred partner pair.
func (m *Model) termPrefGroup(sol Solution) float64 {
	preferred := make(map[[2]string]bool)
	for _, g := range m.Input.Groupings {
		a, b := g.ClassIDA, g.ClassIDB
		if b < a {
			a, b = b, a
		}
		preferred[[2]string{a, b}] = true
	}
	count := 0
	for k, active := range sol.Groups {
		if !active {
			continue
		}
		a, b := k.A.ClassID, k.B.ClassID
		if b < a {
			a, b = b, a
		}
		if preferred[[2]string{a, b}] {
			count++
		}
	}
	return -float64(count)
}

// termYear5Early is O-YEAR5-EARLY: penalizes late weeks for year-5
// classes.
func (m *Model) termYear5Early(sol Solution) float64 {
	total := 0.0
	for id, a := range sol.Assignments {
		if m.ClassByID[id.ClassID].Year == domain.Year5 {
			total += float64(a.Slot.Week)
		}
	}
	return total
}

// termSeqPref is O-SEQ-PREF: a bonus per class whose covered-workshop
// chronological order matches the preferred sequence, restricted to the
// workshops that class actually covers.
func (m *Model) termSeqPref(sol Solution) float64 {
	if len(m.Input.PreferredWorkshopSequence) == 0 {
		return 0
	}
	rank := make(map[string]int, len(m.Input.PreferredWorkshopSequence))
	for i, id := range m.Input.PreferredWorkshopSequence {
		rank[id] = i
	}

	count := 0
	for classID, workshopIDs := range m.ClassWorkshops {
		type wFirst struct {
			WorkshopID string
			FirstWeek  domain.Week
		}
		var covered []wFirst
		for _, wid := range workshopIDs {
			if _, ok := rank[wid]; !ok {
				continue
			}
			ids := m.EnrollmentMeetings[enrollmentKey{ClassID: classID, WorkshopID: wid}]
			if len(ids) == 0 {
				continue
			}
			first := m.minWeek(sol, classID, wid)
			covered = append(covered, wFirst{WorkshopID: wid, FirstWeek: first})
		}
		if len(covered) < 2 {
			continue
		}
		sort.Slice(covered, func(i, j int) bool { return covered[i].FirstWeek < covered[j].FirstWeek })
		matches := true
		for i := 0; i+1 < len(covered); i++ {
			if rank[covered[i].WorkshopID] > rank[covered[i+1].WorkshopID] {
				matches = false
				break
			}
		}
		if matches {
			count++
		}
	}
	return -float64(count)
}

// termBandVar is O-BAND-VAR: penalizes a class's chronologically
// consecutive meetings sharing the same band.
func (m *Model) termBandVar(sol Solution) float64 {
	byClass := make(map[string][]domain.CandidateSlot)
	for id, a := range sol.Assignments {
		byClass[id.ClassID] = append(byClass[id.ClassID], a.Slot)
	}
	total := 0.0
	for _, slots := range byClass {
		sort.Slice(slots, func(i, j int) bool { return slots[i].ToDate().Less(slots[j].ToDate()) })
		for i := 0; i+1 < len(slots); i++ {
			if slots[i].Band == slots[i+1].Band {
				total++
			}
		}
	}
	return total
}

// termLoadBal is O-LOAD-BAL: a variance proxy over each trainer's
// per-week hour load, summed as pairwise absolute differences across the
// weeks the trainer actually works, clamped so a single wildly uneven
// trainer cannot dominate the whole objective.
func (m *Model) termLoadBal(sol Solution) float64 {
	const perTrainerClamp = 500.0
	hoursByTrainerWeek := make(map[string]map[domain.Week]float64)
	for id, a := range sol.Assignments {
		d := m.DomainByID[id]
		if hoursByTrainerWeek[a.TrainerID] == nil {
			hoursByTrainerWeek[a.TrainerID] = make(map[domain.Week]float64)
		}
		hoursByTrainerWeek[a.TrainerID][a.Slot.Week] += d.Meeting.HoursPerMeeting
	}
	total := 0.0
	for _, byWeek := range hoursByTrainerWeek {
		weeks := make([]domain.Week, 0, len(byWeek))
		for w := range byWeek {
			weeks = append(weeks, w)
		}
		sort.Slice(weeks, func(i, j int) bool { return weeks[i] < weeks[j] })
		trainerTotal := 0.0
		for i := 0; i < len(weeks); i++ {
			for j := i + 1; j < len(weeks); j++ {
				diff := byWeek[weeks[i]] - byWeek[weeks[j]]
				if diff < 0 {
					diff = -diff
				}
				trainerTotal += diff
			}
		}
		if trainerTotal > perTrainerClamp {
			trainerTotal = perTrainerClamp
		}
		total += trainerTotal
	}
	return total
}

// termWeeklyHours is O-WKLY-HRS: penalizes the gap between a trainer's
// realized average weekly hours (total hours over the weeks they are
// actually scheduled, per the Open Question decision to treat the
// advisory target as a mean) and their configured target.
func (m *Model) termWeeklyHours(sol Solution) float64 {
	hours := m.trainerHours(sol)
	weeksUsed := make(map[string]map[domain.Week]bool)
	for _, a := range sol.Assignments {
		if weeksUsed[a.TrainerID] == nil {
			weeksUsed[a.TrainerID] = make(map[domain.Week]bool)
		}
		weeksUsed[a.TrainerID][a.Slot.Week] = true
	}
	sum := 0.0
	for trainerID, trainerHours := range hours {
		n := len(weeksUsed[trainerID])
		if n == 0 {
			continue
		}
		actual := trainerHours / float64(n)
		target := m.TrainerByID[trainerID].AverageWeeklyHours
		diff := actual - target
		if diff < 0 {
			diff = -diff
		}
		sum += diff
	}
	return sum
}

// termTimePref is O-TIME-PREF: penalizes a meeting whose band disagrees
// with its trainer's half-day preference.
func (m *Model) termTimePref(sol Solution) float64 {
	total := 0.0
	for _, a := range sol.Assignments {
		pref := m.TrainerByID[a.TrainerID].HalfDayPreference
		switch pref {
		case domain.PreferMorning:
			if a.Slot.Band == domain.BandP {
				total++
			}
		case domain.PreferAfternoon:
			if a.Slot.Band != domain.BandP {
				total++
			}
		}
	}
	return total
}

// termLateMay is O-LATE-MAY: penalizes meetings landing in the last two
// horizon weeks.
func (m *Model) termLateMay(sol Solution) float64 {
	total := 0.0
	threshold := domain.Week(m.Input.Horizon.Weeks - 2)
	for _, a := range sol.Assignments {
		if a.Slot.Week >= threshold {
			total += float64(a.Slot.Week)
		}
	}
	return total
}
