package preprocessor

import (
	"reflect"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/labsched/scheduler/internal/domain"
)

// TrainerMask is the materialized predicate over (weekday, band, date)
// a trainer is available for.
type TrainerMask struct {
	allowed         map[domain.WeekdayBand]bool
	blacklistDates  map[domain.Date]bool
	saturdayAllowed bool
}

// Allows reports whether the trainer may be assigned the given
// candidate slot.
func (m TrainerMask) Allows(c domain.CandidateSlot) bool {
	if c.Weekday == domain.Sat && !m.saturdayAllowed {
		return false
	}
	if m.blacklistDates[c.ToDate()] {
		return false
	}
	return m.allowed[domain.WeekdayBand{Weekday: c.Weekday, Band: c.Band}]
}

// BuildTrainerSlotMask computes the admissible (weekday, band) predicate
// for a trainer. If SpecificSlotWhitelist is present it supersedes the
// weekday availability maps entirely.
func BuildTrainerSlotMask(t domain.Trainer) TrainerMask {
	allowed := make(map[domain.WeekdayBand]bool)

	if len(t.SpecificSlotWhitelist) > 0 {
		for _, wb := range t.SpecificSlotWhitelist {
			allowed[wb] = true
		}
	} else {
		for wd, ok := range t.MorningAvailability {
			if !ok {
				continue
			}
			allowed[domain.WeekdayBand{Weekday: wd, Band: domain.BandM1}] = true
			allowed[domain.WeekdayBand{Weekday: wd, Band: domain.BandM2}] = true
		}
		for wd, ok := range t.AfternoonAvailability {
			if !ok {
				continue
			}
			allowed[domain.WeekdayBand{Weekday: wd, Band: domain.BandP}] = true
		}
	}

	blacklist := make(map[domain.Date]bool, len(t.SpecificSlotBlacklist))
	for d, ok := range t.SpecificSlotBlacklist {
		if ok {
			blacklist[d] = true
		}
	}

	return TrainerMask{
		allowed:         allowed,
		blacklistDates:  blacklist,
		saturdayAllowed: t.SaturdayAllowed,
	}
}

// TrainerMaskCache memoizes BuildTrainerSlotMask per trainer ID; a
// cached mask is rebuilt when the trainer record passed in differs from
// the one it was built from. It is
// meant to outlive a single Preprocess call — a caller that runs many
// Preprocess calls against the same trainer roster (corerun.Runner,
// across repeated Run invocations) should own one instance and pass it
// to PreprocessWithCache so lookups actually hit across calls instead
// of being rebuilt from scratch every time. Sized generously; a single
// roster rarely exceeds a few hundred trainers.
type TrainerMaskCache struct {
	cache *lru.Cache[string, trainerMaskEntry]
}

type trainerMaskEntry struct {
	trainer domain.Trainer
	mask    TrainerMask
}

// NewTrainerMaskCache builds an empty cache.
func NewTrainerMaskCache() *TrainerMaskCache {
	c, _ := lru.New[string, trainerMaskEntry](512)
	return &TrainerMaskCache{cache: c}
}

// Get returns t's mask, building and storing it on a miss or when t
// differs from the trainer record the cached mask was built from.
func (c *TrainerMaskCache) Get(t domain.Trainer) TrainerMask {
	if e, ok := c.cache.Get(t.ID); ok && reflect.DeepEqual(e.trainer, t) {
		return e.mask
	}
	mask := BuildTrainerSlotMask(t)
	c.cache.Add(t.ID, trainerMaskEntry{trainer: t, mask: mask})
	return mask
}
