package preprocessor

import (
	"fmt"

	"github.com/labsched/scheduler/internal/domain"
	appErrors "github.com/labsched/scheduler/pkg/errors"
)

// MeetingDomain is the admissible domain Dom(m) for one meeting
// instance: a set of candidate (week, weekday, band) slots and a set of
// eligible trainers. A meeting with a Pin has its slots reduced to the
// pinned slot before the variable builder ever runs; its trainers are
// reduced to one only when the pin (or the enrollment) fixes a trainer.
type MeetingDomain struct {
	Meeting        domain.MeetingInstance
	CandidateSlots []domain.CandidateSlot
	TrainerIDs     []string
}

// Result is everything the variable builder needs: one domain per
// meeting instance, in enrollment order, plus the trainer slot masks
// each constraint/local-search move consults.
type Result struct {
	MeetingDomains []MeetingDomain
	TrainerMasks   map[string]TrainerMask
	ConsumedWeeks  classWeekConsumption
}

// Preprocess runs the full domain-reduction pipeline against a
// throwaway trainer mask cache. Most callers that only ever solve one
// Input want this; a caller driving many successive Run invocations
// against the same trainer roster should build a TrainerMaskCache once
// and call PreprocessWithCache instead, so mask lookups hit across
// calls.
func Preprocess(in domain.Input) (Result, error) {
	return PreprocessWithCache(in, NewTrainerMaskCache())
}

// PreprocessWithCache runs the full domain-reduction pipeline:
// reserve_external, bind_pins, build_trainer_slot_mask and then, per
// enrollment, build_admissible_slots, in that order, emitting one
// MeetingDomain per meeting instance. Returns a *errors.Error wrapping DomainEmpty,
// PinConflict or BudgetOver on pre-solve infeasibility.
func PreprocessWithCache(in domain.Input, maskCache *TrainerMaskCache) (Result, error) {
	classByID := make(map[string]domain.Class, len(in.Classes))
	for _, c := range in.Classes {
		classByID[c.ID] = c
	}
	workshopByID := make(map[string]domain.Workshop, len(in.Workshops))
	for _, w := range in.Workshops {
		workshopByID[w.ID] = w
	}
	policyByClass := make(map[string]domain.TimeSlotPolicy, len(in.Policies))
	for _, p := range in.Policies {
		policyByClass[p.ClassID] = p
	}
	blackoutByClass := make(map[string]domain.Blackout, len(in.Blackouts))
	for _, b := range in.Blackouts {
		blackoutByClass[b.ClassID] = b
	}

	consumed := classWeekConsumption{}
	reserveExternal(in.ExternalOccupations, consumed)
	for _, c := range in.Classes {
		if err := bindPins(c.ID, in.Enrollments, consumed); err != nil {
			return Result{}, err
		}
	}

	if maskCache == nil {
		maskCache = NewTrainerMaskCache()
	}
	masks := make(map[string]TrainerMask, len(in.Trainers))
	allTrainerIDs := make([]string, 0, len(in.Trainers))
	for _, t := range in.Trainers {
		masks[t.ID] = maskCache.Get(t)
		allTrainerIDs = append(allTrainerIDs, t.ID)
	}

	autonomousGapSchools := make(map[string]map[string]bool, len(in.AutonomousGapRules))
	for _, r := range in.AutonomousGapRules {
		set := make(map[string]bool, len(r.SchoolIDs))
		for _, sid := range r.SchoolIDs {
			set[sid] = true
		}
		autonomousGapSchools[r.WorkshopID] = set
	}

	var domains []MeetingDomain
	for _, e := range in.Enrollments {
		class := classByID[e.ClassID]
		workshop := workshopByID[e.WorkshopID]

		classSlots := BuildClassAdmissibleSlots(in.Horizon, policyByClass[e.ClassID], blackoutByClass[e.ClassID])
		classSlots = RestrictByHalfDayRequirement(classSlots, e.HalfDayRequirement)
		classSlots = removeConsumedWeeks(classSlots, e.ClassID, consumed)

		trainerIDs := e.EligibleTrainerIDs
		if e.FixedTrainerID != "" {
			trainerIDs = []string{e.FixedTrainerID}
		} else if len(trainerIDs) == 0 {
			trainerIDs = allTrainerIDs
		}

		count := e.EffectiveMeetingCount(workshop)
		if schools, flagged := autonomousGapSchools[e.WorkshopID]; flagged && schools[class.SchoolID] && count > 1 {
			// The skipped week between meetings 2 and 3 replaces what
			// would otherwise be a meeting — the class covers the
			// material autonomously instead of in a trainer-led session.
			count--
		}
		pinByOrdinal := make(map[int]domain.Pin, len(e.Pins))
		for _, p := range e.Pins {
			pinByOrdinal[p.Ordinal] = p
		}

		for ordinal := 1; ordinal <= count; ordinal++ {
			meeting := domain.MeetingInstance{
				ID: domain.MeetingInstanceID{
					ClassID:    e.ClassID,
					WorkshopID: e.WorkshopID,
					Ordinal:    ordinal,
				},
				SchoolID:        class.SchoolID,
				HoursPerMeeting: workshop.HoursPerMeeting,
			}

			if pin, pinned := pinByOrdinal[ordinal]; pinned {
				meeting.Pin = &pin
				trainersHere := trainerIDs
				if pin.TrainerID != "" {
					trainersHere = []string{pin.TrainerID}
				}
				domains = append(domains, MeetingDomain{
					Meeting:        meeting,
					CandidateSlots: []domain.CandidateSlot{{Week: pin.Date.Week, Weekday: pin.Date.Weekday, Band: pin.Band}},
					TrainerIDs:     trainersHere,
				})
				continue
			}

			feasibleSlots := filterSlotsWithFeasibleTrainer(classSlots, trainerIDs, masks)
			if len(feasibleSlots) == 0 {
				return Result{}, appErrors.DomainEmpty(e.ClassID, e.WorkshopID, fmt.Sprintf("no admissible (week,weekday,band,trainer) combination for meeting %d/%d", ordinal, count))
			}
			domains = append(domains, MeetingDomain{
				Meeting:        meeting,
				CandidateSlots: feasibleSlots,
				TrainerIDs:     trainerIDs,
			})
		}
	}

	if err := checkTrainerBudgetFeasibility(domains, in.Trainers); err != nil {
		return Result{}, err
	}

	return Result{MeetingDomains: domains, TrainerMasks: masks, ConsumedWeeks: consumed}, nil
}

// checkTrainerBudgetFeasibility raises BudgetOver for a trainer whose
// mandatory hours — meetings only that trainer is eligible for, which no
// amount of search can reassign — exceed their budget even in the best
// case where every such meeting is realized as a grouped pair (charged
// once instead of twice). It is a conservative lower bound, not an exact
// feasibility test: a trainer that clears this check can still end up
// over budget once the free-trainer meetings are assigned by search.
func checkTrainerBudgetFeasibility(domains []MeetingDomain, trainers []domain.Trainer) error {
	mandatory := make(map[string]float64, len(trainers))
	for _, d := range domains {
		if len(d.TrainerIDs) == 1 {
			mandatory[d.TrainerIDs[0]] += d.Meeting.HoursPerMeeting
		}
	}
	for _, t := range trainers {
		needed := mandatory[t.ID]
		if needed == 0 {
			continue
		}
		bestCase := needed / 2
		if bestCase > t.TotalHourBudget {
			return appErrors.BudgetOver(t.ID, bestCase, t.TotalHourBudget)
		}
	}
	return nil
}

func filterSlotsWithFeasibleTrainer(slots []domain.CandidateSlot, trainerIDs []string, masks map[string]TrainerMask) []domain.CandidateSlot {
	out := make([]domain.CandidateSlot, 0, len(slots))
	for _, s := range slots {
		for _, tid := range trainerIDs {
			if masks[tid].Allows(s) {
				out = append(out, s)
				break
			}
		}
	}
	return out
}
