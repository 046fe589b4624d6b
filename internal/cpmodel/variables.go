// Package cpmodel is the variable builder, constraint compiler and
// objective builder: it turns a preprocessed domain into a Model the
// search driver can evaluate candidate solutions against, without
// depending on any particular search algorithm.
package cpmodel

import (
	"sort"

	"github.com/labsched/scheduler/internal/domain"
	"github.com/labsched/scheduler/internal/preprocessor"
)

// GroupKey identifies an undirected grouping edge between two meeting
// instances, stored keyed by the lexicographically smaller class ID to
// avoid double representation.
type GroupKey struct {
	A domain.MeetingInstanceID
	B domain.MeetingInstanceID
}

func newGroupKey(a, b domain.MeetingInstanceID) GroupKey {
	if lessMeetingID(b, a) {
		a, b = b, a
	}
	return GroupKey{A: a, B: b}
}

func lessMeetingID(a, b domain.MeetingInstanceID) bool {
	if a.ClassID != b.ClassID {
		return a.ClassID < b.ClassID
	}
	if a.WorkshopID != b.WorkshopID {
		return a.WorkshopID < b.WorkshopID
	}
	return a.Ordinal < b.Ordinal
}

// GroupCandidate is a candidate co-teaching pair: two meeting instances
// from different classes in the same school, same workshop, same
// ordinal, whose slot and trainer domains intersect.
type GroupCandidate struct {
	Key                 GroupKey
	SlotIntersection    map[int]domain.CandidateSlot // keyed by Slot.Encode()
	TrainerIntersection map[string]bool
}

// BuildGroupingCandidates enumerates every pair of meeting instances
// eligible to be reified as a group(m1,m2) boolean.
func BuildGroupingCandidates(in domain.Input, domains []preprocessor.MeetingDomain) []GroupCandidate {
	classByID := make(map[string]domain.Class, len(in.Classes))
	for _, c := range in.Classes {
		classByID[c.ID] = c
	}

	// Group meetings by workshopID so only same-workshop pairs are ever
	// compared; pairs with different ordinals are skipped in the loop.
	byWorkshopOrdinal := make(map[string][]preprocessor.MeetingDomain)
	for _, d := range domains {
		key := d.Meeting.ID.WorkshopID
		byWorkshopOrdinal[key] = append(byWorkshopOrdinal[key], d)
	}

	var out []GroupCandidate
	seen := make(map[GroupKey]bool)

	for _, group := range byWorkshopOrdinal {
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				d1, d2 := group[i], group[j]
				if d1.Meeting.ID.ClassID == d2.Meeting.ID.ClassID {
					continue // a class cannot group with itself
				}
				if d1.Meeting.ID.Ordinal != d2.Meeting.ID.Ordinal {
					continue
				}
				c1, c2 := classByID[d1.Meeting.ID.ClassID], classByID[d2.Meeting.ID.ClassID]
				if c1.SchoolID == "" || c1.SchoolID != c2.SchoolID {
					continue
				}

				trainerInt := intersectTrainers(d1.TrainerIDs, d2.TrainerIDs)
				if len(trainerInt) == 0 {
					continue
				}
				slotInt := intersectSlots(d1.CandidateSlots, d2.CandidateSlots)
				if len(slotInt) == 0 {
					continue
				}

				key := newGroupKey(d1.Meeting.ID, d2.Meeting.ID)
				if seen[key] {
					continue
				}
				seen[key] = true
				out = append(out, GroupCandidate{Key: key, SlotIntersection: slotInt, TrainerIntersection: trainerInt})
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return lessGroupKey(out[i].Key, out[j].Key)
	})
	return out
}

func lessGroupKey(a, b GroupKey) bool {
	if a.A != b.A {
		return lessMeetingID(a.A, b.A)
	}
	return lessMeetingID(a.B, b.B)
}

func intersectTrainers(a, b []string) map[string]bool {
	setB := make(map[string]bool, len(b))
	for _, id := range b {
		setB[id] = true
	}
	out := make(map[string]bool)
	for _, id := range a {
		if setB[id] {
			out[id] = true
		}
	}
	return out
}

func intersectSlots(a, b []domain.CandidateSlot) map[int]domain.CandidateSlot {
	setB := make(map[int]domain.CandidateSlot, len(b))
	for _, s := range b {
		setB[s.ToSlot().Encode()] = s
	}
	out := make(map[int]domain.CandidateSlot)
	for _, s := range a {
		enc := s.ToSlot().Encode()
		if _, ok := setB[enc]; ok {
			out[enc] = s
		}
	}
	return out
}
