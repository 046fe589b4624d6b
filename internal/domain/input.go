package domain

import (
	"fmt"

	appErrors "github.com/labsched/scheduler/pkg/errors"
)

// Input aggregates every record group the core expects as input. It is
// produced by an external loader and handed to the preprocessor as
// read-only data.
type Input struct {
	Schools      []School
	Classes      []Class
	Trainers     []Trainer
	Workshops    []Workshop
	Enrollments  []Enrollment
	Policies     []TimeSlotPolicy
	Blackouts    []Blackout
	Preferences  []TrainerClassPreference
	Groupings    []GroupingPreference
	Horizon      Horizon
	ExternalOccupations []ExternalOccupation

	// Precedences lists inter-workshop ordering requirements. A
	// MustBeLast workshop must be scheduled strictly after every other
	// covered workshop for a class it appears in — modeled as a per-workshop
	// flag on Workshop rather than a well-known ID, since more than one
	// workshop in the catalogue could in principle carry it.
	Precedences        []OrderingPrecedence
	AutonomousGapRules  []AutonomousGapRule

	// PreferredWorkshopSequence is the ordering O-SEQ-PREF rewards a
	// class for matching, by workshop ID.
	PreferredWorkshopSequence []string
}

// Validate performs the cross-reference checks that classify an input
// as invalid: every foreign key the input implies must resolve to a
// record that actually exists. This never touches domain feasibility
// (empty slot domains, pin conflicts, budget) — that is the
// preprocessor's job and raises a different error kind.
func (in Input) Validate() error {
	schools := indexByID(in.Schools, func(s School) string { return s.ID })
	classes := indexByID(in.Classes, func(c Class) string { return c.ID })
	trainers := indexByID(in.Trainers, func(t Trainer) string { return t.ID })
	workshops := indexByID(in.Workshops, func(w Workshop) string { return w.ID })

	for _, c := range in.Classes {
		if _, ok := schools[c.SchoolID]; !ok {
			return appErrors.ErrInputInvalid.WithMeta(map[string]any{
				"classId": c.ID, "reason": fmt.Sprintf("unknown school %q", c.SchoolID),
			})
		}
	}
	for _, e := range in.Enrollments {
		if _, ok := classes[e.ClassID]; !ok {
			return appErrors.ErrInputInvalid.WithMeta(map[string]any{
				"reason": fmt.Sprintf("enrollment references unknown class %q", e.ClassID),
			})
		}
		w, ok := workshops[e.WorkshopID]
		if !ok {
			return appErrors.ErrInputInvalid.WithMeta(map[string]any{
				"reason": fmt.Sprintf("enrollment references unknown workshop %q", e.WorkshopID),
			})
		}
		if w.External {
			return appErrors.ErrInputInvalid.WithMeta(map[string]any{
				"reason": fmt.Sprintf("enrollment references external workshop %q, which the core never covers", e.WorkshopID),
			})
		}
		if e.FixedTrainerID != "" {
			if _, ok := trainers[e.FixedTrainerID]; !ok {
				return appErrors.ErrInputInvalid.WithMeta(map[string]any{
					"reason": fmt.Sprintf("enrollment fixes unknown trainer %q", e.FixedTrainerID),
				})
			}
		}
		for _, id := range e.EligibleTrainerIDs {
			if _, ok := trainers[id]; !ok {
				return appErrors.ErrInputInvalid.WithMeta(map[string]any{
					"reason": fmt.Sprintf("enrollment lists unknown eligible trainer %q", id),
				})
			}
		}
		if e.EffectiveMeetingCount(w) <= 0 {
			return appErrors.ErrInputInvalid.WithMeta(map[string]any{
				"reason": fmt.Sprintf("enrollment for class %q workshop %q has non-positive meeting count", e.ClassID, e.WorkshopID),
			})
		}
	}
	for _, p := range in.Policies {
		if _, ok := classes[p.ClassID]; !ok {
			return appErrors.ErrInputInvalid.WithMeta(map[string]any{
				"reason": fmt.Sprintf("time-slot policy references unknown class %q", p.ClassID),
			})
		}
	}
	for _, b := range in.Blackouts {
		if _, ok := classes[b.ClassID]; !ok {
			return appErrors.ErrInputInvalid.WithMeta(map[string]any{
				"reason": fmt.Sprintf("blackout references unknown class %q", b.ClassID),
			})
		}
	}
	for _, pref := range in.Preferences {
		if _, ok := trainers[pref.TrainerID]; !ok {
			return appErrors.ErrInputInvalid.WithMeta(map[string]any{
				"reason": fmt.Sprintf("trainer preference references unknown trainer %q", pref.TrainerID),
			})
		}
		if _, ok := classes[pref.ClassID]; !ok {
			return appErrors.ErrInputInvalid.WithMeta(map[string]any{
				"reason": fmt.Sprintf("trainer preference references unknown class %q", pref.ClassID),
			})
		}
	}
	for _, g := range in.Groupings {
		if _, ok := classes[g.ClassIDA]; !ok {
			return appErrors.ErrInputInvalid.WithMeta(map[string]any{
				"reason": fmt.Sprintf("grouping preference references unknown class %q", g.ClassIDA),
			})
		}
		if _, ok := classes[g.ClassIDB]; !ok {
			return appErrors.ErrInputInvalid.WithMeta(map[string]any{
				"reason": fmt.Sprintf("grouping preference references unknown class %q", g.ClassIDB),
			})
		}
	}
	for _, p := range in.Precedences {
		if _, ok := workshops[p.BeforeWorkshopID]; !ok {
			return appErrors.ErrInputInvalid.WithMeta(map[string]any{
				"reason": fmt.Sprintf("precedence references unknown workshop %q", p.BeforeWorkshopID),
			})
		}
		if _, ok := workshops[p.AfterWorkshopID]; !ok {
			return appErrors.ErrInputInvalid.WithMeta(map[string]any{
				"reason": fmt.Sprintf("precedence references unknown workshop %q", p.AfterWorkshopID),
			})
		}
	}
	for _, r := range in.AutonomousGapRules {
		if _, ok := workshops[r.WorkshopID]; !ok {
			return appErrors.ErrInputInvalid.WithMeta(map[string]any{
				"reason": fmt.Sprintf("autonomous-gap rule references unknown workshop %q", r.WorkshopID),
			})
		}
	}
	if in.Horizon.Weeks <= 0 {
		return appErrors.ErrInputInvalid.WithMeta(map[string]any{"reason": "horizon must have at least one week"})
	}
	return nil
}

func indexByID[T any](items []T, key func(T) string) map[string]T {
	m := make(map[string]T, len(items))
	for _, it := range items {
		m[key(it)] = it
	}
	return m
}
