package scheduling

import (
	"github.com/google/uuid"

	"github.com/Alijeyrad/simorq_scheduler/internal/store"
	"github.com/Alijeyrad/simorq_scheduler/pkg/slottime"
)

// Occurrence is one concrete slot on one date, after exceptions are applied.
// ID is the pattern id, or the exception id when the slot was modified.
type Occurrence struct {
	ID              uuid.UUID      `json:"id"`
	Date            slottime.Date  `json:"date"`
	StartTime       slottime.Clock `json:"start_time"`
	EndTime         slottime.Clock `json:"end_time"`
	IsModified      bool           `json:"is_modified"`
	SourcePatternID uuid.UUID      `json:"source_pattern_id"`
}

// Week maps each of the 7 dates starting at Start ("YYYY-MM-DD") to its
// occurrences. Every date is present; days without slots map to an empty list.
type Week struct {
	Start slottime.Date           `json:"week_start"`
	Days  map[string][]Occurrence `json:"days"`
}

// Dates returns the week's dates in order.
func (w Week) Dates() [7]slottime.Date {
	return slottime.WeekDates(w.Start)
}

// On returns the occurrences for d, or nil if d is outside the week.
func (w Week) On(d slottime.Date) []Occurrence {
	return w.Days[d.String()]
}

// Contains reports whether d falls inside the week.
func (w Week) Contains(d slottime.Date) bool {
	return !d.Before(w.Start) && !d.After(w.End())
}

// End is the last date of the week (Start+6).
func (w Week) End() slottime.Date {
	return w.Start.AddDays(6)
}

type exceptionKey struct {
	patternID uuid.UUID
	date      string
}

// ResolveWeek merges patterns and exceptions into the 7 days starting at
// weekStart. It is pure: same inputs, same output, no I/O.
//
// Exceptions outside the week, or pointing at patterns not in the list, have
// no effect. When a cancelled and a modified exception share a (pattern, date)
// the cancellation wins.
func ResolveWeek(patterns []store.RecurringPattern, exceptions []store.Exception, weekStart slottime.Date) Week {
	weekEnd := weekStart.AddDays(6)

	byKey := make(map[exceptionKey][]store.Exception, len(exceptions))
	for _, e := range exceptions {
		if e.ExceptionDate.Before(weekStart) || e.ExceptionDate.After(weekEnd) {
			continue
		}
		k := exceptionKey{patternID: e.RecurringPatternID, date: e.ExceptionDate.String()}
		byKey[k] = append(byKey[k], e)
	}

	week := Week{
		Start: weekStart,
		Days:  make(map[string][]Occurrence, 7),
	}

	for _, date := range slottime.WeekDates(weekStart) {
		dateStr := date.String()
		day := make([]Occurrence, 0, 2)

		for _, p := range patterns {
			if p.DayOfWeek != date.Weekday() {
				continue
			}
			if occ, ok := resolveOne(p, byKey[exceptionKey{patternID: p.ID, date: dateStr}], date); ok {
				day = append(day, occ)
			}
		}

		week.Days[dateStr] = day
	}

	return week
}

func resolveOne(p store.RecurringPattern, excs []store.Exception, date slottime.Date) (Occurrence, bool) {
	e, ok := EffectiveException(excs)
	switch {
	case !ok:
		return Occurrence{
			ID:              p.ID,
			Date:            date,
			StartTime:       p.StartTime,
			EndTime:         p.EndTime,
			IsModified:      false,
			SourcePatternID: p.ID,
		}, true
	case e.Kind == store.KindCancelled:
		return Occurrence{}, false
	default:
		return Occurrence{
			ID:              e.ID,
			Date:            date,
			StartTime:       e.StartTime,
			EndTime:         e.EndTime,
			IsModified:      true,
			SourcePatternID: p.ID,
		}, true
	}
}

// EffectiveException picks the exception that applies among those sharing a
// (pattern, date) key: any cancellation, else the first modification. It
// reports false when none applies.
func EffectiveException(excs []store.Exception) (store.Exception, bool) {
	var modified *store.Exception
	for i := range excs {
		switch excs[i].Kind {
		case store.KindCancelled:
			return excs[i], true
		case store.KindModified:
			if modified == nil {
				modified = &excs[i]
			}
		}
	}
	if modified != nil {
		return *modified, true
	}
	return store.Exception{}, false
}

// CheckCapacity returns a CapacityError when date already holds limit or
// more occurrences in week. It is advisory: callers run it against a week
// they resolved earlier, before creating a new pattern.
func CheckCapacity(week Week, date slottime.Date, limit int) error {
	if limit <= 0 || !week.Contains(date) {
		return nil
	}
	if len(week.On(date)) >= limit {
		return CapacityError{Date: date, Limit: limit}
	}
	return nil
}
