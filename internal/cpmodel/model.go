package cpmodel

import (
	"github.com/labsched/scheduler/internal/domain"
	"github.com/labsched/scheduler/internal/preprocessor"
)

// Assignment is the concrete value a meeting instance's variables take:
// the channeled (week, weekday, band) slot triple, plus the chosen
// trainer.
type Assignment struct {
	Slot      domain.CandidateSlot
	TrainerID string
}

// Solution is one point in the search space: a full assignment for every
// meeting instance plus a realization of every grouping boolean. Only
// candidates present and true in Groups are considered realized; absent
// keys are implicitly false.
type Solution struct {
	Assignments map[domain.MeetingInstanceID]Assignment
	Groups      map[GroupKey]bool
}

// Clone deep-copies a Solution so a search move can be tried and rolled
// back without mutating the incumbent.
func (s Solution) Clone() Solution {
	out := Solution{
		Assignments: make(map[domain.MeetingInstanceID]Assignment, len(s.Assignments)),
		Groups:      make(map[GroupKey]bool, len(s.Groups)),
	}
	for k, v := range s.Assignments {
		out.Assignments[k] = v
	}
	for k, v := range s.Groups {
		out.Groups[k] = v
	}
	return out
}

// Model is the compiled constraint model: the variable domains (from the
// preprocessor), the grouping candidates (the variable builder's output)
// and everything the constraint compiler and objective builder need to
// evaluate a Solution. It does not itself hold a Solution — Model is
// immutable once built, shared read-only across every search worker.
type Model struct {
	Input domain.Input

	Domains    []preprocessor.MeetingDomain
	DomainByID map[domain.MeetingInstanceID]preprocessor.MeetingDomain

	TrainerMasks map[string]preprocessor.TrainerMask

	GroupCandidates []GroupCandidate
	GroupByKey      map[GroupKey]GroupCandidate
	// GroupsByMeeting indexes, for quick lookup during search moves, every
	// candidate a meeting instance participates in.
	GroupsByMeeting map[domain.MeetingInstanceID][]GroupKey

	ClassByID    map[string]domain.Class
	WorkshopByID map[string]domain.Workshop
	TrainerByID  map[string]domain.Trainer

	// EnrollmentMeetings lists, per (classID, workshopID), the meeting IDs
	// in ordinal order — the sequencing constraints (H-SEQUENCE, H-LAST,
	// H-PRECEDE, H-GAP-AUTONOMOUS) all walk this.
	EnrollmentMeetings map[enrollmentKey][]domain.MeetingInstanceID
	// ClassWorkshops lists every workshop ID a class is enrolled in, used
	// by H-LAST and H-PRECEDE to find "every other covered workshop".
	ClassWorkshops map[string][]string

	Weights ObjectiveWeights
}

type enrollmentKey struct {
	ClassID    string
	WorkshopID string
}

// MeetingIDsFor returns the meeting instance IDs for one enrollment, in
// ordinal order, exposed for the solution extractor's completion summary.
func (m *Model) MeetingIDsFor(classID, workshopID string) []domain.MeetingInstanceID {
	return m.EnrollmentMeetings[enrollmentKey{ClassID: classID, WorkshopID: workshopID}]
}

// NewModel compiles a preprocessor.Result plus the original Input into a
// Model. It performs no search; it is the variable-builder/model-assembly
// step, materializing everything the constraint compiler (constraints.go)
// and objective builder (objective.go) consult.
func NewModel(in domain.Input, pre preprocessor.Result, weights ObjectiveWeights) *Model {
	m := &Model{
		Input:              in,
		Domains:            pre.MeetingDomains,
		DomainByID:         make(map[domain.MeetingInstanceID]preprocessor.MeetingDomain, len(pre.MeetingDomains)),
		TrainerMasks:       pre.TrainerMasks,
		GroupByKey:         make(map[GroupKey]GroupCandidate),
		GroupsByMeeting:    make(map[domain.MeetingInstanceID][]GroupKey),
		ClassByID:          make(map[string]domain.Class, len(in.Classes)),
		WorkshopByID:       make(map[string]domain.Workshop, len(in.Workshops)),
		TrainerByID:        make(map[string]domain.Trainer, len(in.Trainers)),
		EnrollmentMeetings: make(map[enrollmentKey][]domain.MeetingInstanceID),
		ClassWorkshops:     make(map[string][]string),
		Weights:            weights,
	}

	for _, d := range pre.MeetingDomains {
		m.DomainByID[d.Meeting.ID] = d
	}
	for _, c := range in.Classes {
		m.ClassByID[c.ID] = c
	}
	for _, w := range in.Workshops {
		m.WorkshopByID[w.ID] = w
	}
	for _, t := range in.Trainers {
		m.TrainerByID[t.ID] = t
	}

	m.GroupCandidates = BuildGroupingCandidates(in, pre.MeetingDomains)
	for _, g := range m.GroupCandidates {
		m.GroupByKey[g.Key] = g
		m.GroupsByMeeting[g.Key.A] = append(m.GroupsByMeeting[g.Key.A], g.Key)
		m.GroupsByMeeting[g.Key.B] = append(m.GroupsByMeeting[g.Key.B], g.Key)
	}

	// Sort meetings into ordinal order per enrollment; preprocessor.Result
	// already emits them in ordinal order within an enrollment, so a
	// simple append preserves it.
	seenWorkshop := make(map[enrollmentKey]bool)
	for _, d := range pre.MeetingDomains {
		key := enrollmentKey{ClassID: d.Meeting.ID.ClassID, WorkshopID: d.Meeting.ID.WorkshopID}
		m.EnrollmentMeetings[key] = append(m.EnrollmentMeetings[key], d.Meeting.ID)
		if !seenWorkshop[key] {
			seenWorkshop[key] = true
			m.ClassWorkshops[d.Meeting.ID.ClassID] = append(m.ClassWorkshops[d.Meeting.ID.ClassID], d.Meeting.ID.WorkshopID)
		}
	}

	return m
}

// InitialSolution builds a naive, structurally valid starting point for
// the search: every meeting takes its first candidate slot and first
// eligible trainer, no groupings realized. It commonly carries hard
// violations (H-CLASS-UNIQ, H-NO-OVERLAP, H-BUDGET...) the search must
// repair; it never violates anything the preprocessor already pruned out
// of the domain (H-WINDOW, H-BAND-ALLOWED, H-BLACKOUT, H-EXTERNAL-BLOCK).
func (m *Model) InitialSolution() Solution {
	sol := Solution{
		Assignments: make(map[domain.MeetingInstanceID]Assignment, len(m.Domains)),
		Groups:      make(map[GroupKey]bool, len(m.GroupCandidates)),
	}
	for _, d := range m.Domains {
		trainerID := ""
		if len(d.TrainerIDs) > 0 {
			trainerID = d.TrainerIDs[0]
		}
		sol.Assignments[d.Meeting.ID] = Assignment{Slot: d.CandidateSlots[0], TrainerID: trainerID}
	}
	return sol
}
