package preprocessor

import "github.com/labsched/scheduler/internal/domain"

// BuildClassAdmissibleSlots computes the class-level candidate slot set:
// it starts from the full horizon, removes boundary-week weekdays
// outside the truncated set, removes blacked-out dates/bands, and
// restricts to the class's permitted bands/weekdays (policy is always
// applied as hard, per the Open Question decision in DESIGN.md).
func BuildClassAdmissibleSlots(horizon domain.Horizon, policy domain.TimeSlotPolicy, blackout domain.Blackout) []domain.CandidateSlot {
	permittedBands := toBandSet(policy.PermittedBands)
	permittedWeekdays := toWeekdaySet(policy.PermittedWeekdays)
	forbidden := toForbiddenSet(policy.ForbiddenBandWeekday)
	blacked := toBlackoutSet(blackout)

	var out []domain.CandidateSlot
	for w := domain.Week(0); int(w) < horizon.Weeks; w++ {
		for _, wd := range domain.Weekdays {
			if !horizon.WeekdayAllowed(w, wd) {
				continue
			}
			if len(permittedWeekdays) > 0 && !permittedWeekdays[wd] {
				continue
			}
			for _, band := range domain.Bands {
				if len(permittedBands) > 0 && !permittedBands[band] {
					continue
				}
				if forbidden[domain.WeekdayBand{Weekday: wd, Band: band}] {
					continue
				}
				slot := domain.CandidateSlot{Week: w, Weekday: wd, Band: band}
				if isBlacked(blacked, slot) {
					continue
				}
				out = append(out, slot)
			}
		}
	}
	return out
}

// RestrictByHalfDayRequirement narrows a candidate slot set to the bands
// an enrollment's half-day requirement allows.
func RestrictByHalfDayRequirement(slots []domain.CandidateSlot, req domain.HalfDayRequirement) []domain.CandidateSlot {
	if req == domain.RequireNone {
		return slots
	}
	out := make([]domain.CandidateSlot, 0, len(slots))
	for _, s := range slots {
		switch req {
		case domain.RequireMorning:
			if s.Band == domain.BandM1 || s.Band == domain.BandM2 {
				out = append(out, s)
			}
		case domain.RequireAfternoon:
			if s.Band == domain.BandP {
				out = append(out, s)
			}
		}
	}
	return out
}

func toBandSet(bands []domain.Band) map[domain.Band]bool {
	if len(bands) == 0 {
		return nil
	}
	m := make(map[domain.Band]bool, len(bands))
	for _, b := range bands {
		m[b] = true
	}
	return m
}

func toWeekdaySet(weekdays []domain.Weekday) map[domain.Weekday]bool {
	if len(weekdays) == 0 {
		return nil
	}
	m := make(map[domain.Weekday]bool, len(weekdays))
	for _, wd := range weekdays {
		m[wd] = true
	}
	return m
}

func toForbiddenSet(pairs []domain.WeekdayBand) map[domain.WeekdayBand]bool {
	m := make(map[domain.WeekdayBand]bool, len(pairs))
	for _, p := range pairs {
		m[p] = true
	}
	return m
}

type blackoutSet struct {
	wholeDates map[domain.Date]bool
	bandDates  map[domain.Date]map[domain.Band]bool
}

func toBlackoutSet(b domain.Blackout) blackoutSet {
	set := blackoutSet{
		wholeDates: make(map[domain.Date]bool),
		bandDates:  make(map[domain.Date]map[domain.Band]bool),
	}
	for _, e := range b.Entries {
		if e.Band == nil {
			set.wholeDates[e.Date] = true
			continue
		}
		if set.bandDates[e.Date] == nil {
			set.bandDates[e.Date] = make(map[domain.Band]bool)
		}
		set.bandDates[e.Date][*e.Band] = true
	}
	return set
}

func isBlacked(set blackoutSet, slot domain.CandidateSlot) bool {
	date := slot.ToDate()
	if set.wholeDates[date] {
		return true
	}
	return set.bandDates[date][slot.Band]
}
