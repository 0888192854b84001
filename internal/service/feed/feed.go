// Package feed exports an owner's schedule as an iCalendar document.
//
// Each recurring pattern becomes one weekly VEVENT with an RRULE. Cancelled
// dates are listed as EXDATE and modified dates as override VEVENTs carrying
// RECURRENCE-ID. Times are floating (no TZID), matching the scheduler's
// timezone-free model.
package feed

import (
	"context"
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	"github.com/Alijeyrad/simorq_scheduler/internal/service/scheduling"
	"github.com/Alijeyrad/simorq_scheduler/internal/store"
	"github.com/Alijeyrad/simorq_scheduler/pkg/slottime"
)

const (
	productID = "-//Simorq//Scheduler//EN"
	uidDomain = "scheduler.simorq"

	floatingLayout = "20060102T150405"

	// DefaultWeeks is how far ahead a feed reaches when the caller does not say.
	DefaultWeeks = 12
	MaxWeeks     = 104
)

type Service interface {
	Calendar(ctx context.Context, ownerID uuid.UUID, from slottime.Date, weeks int) (*ical.Calendar, error)
}

type feedService struct {
	db  store.Store
	now func() time.Time
}

func New(db store.Store) Service {
	return &feedService{db: db, now: time.Now}
}

func (s *feedService) Calendar(ctx context.Context, ownerID uuid.UUID, from slottime.Date, weeks int) (*ical.Calendar, error) {
	if weeks <= 0 {
		weeks = DefaultWeeks
	}
	if weeks > MaxWeeks {
		return nil, scheduling.ValidationError{Field: "weeks", Reason: fmt.Sprintf("must be at most %d", MaxWeeks)}
	}
	from = slottime.WeekStart(from)
	to := from.AddDays(7*weeks - 1)

	patterns, err := s.db.ListPatterns(ctx, ownerID)
	if err != nil {
		return nil, scheduling.DataAccessError{Op: "feed: list recurring patterns", Err: err}
	}
	exceptions, err := s.db.ListExceptions(ctx, ownerID, from, to)
	if err != nil {
		return nil, scheduling.DataAccessError{Op: "feed: list exceptions", Err: err}
	}

	return Build(patterns, exceptions, from, weeks, s.now())
}

// Build renders patterns and exceptions for the given number of weeks starting
// at from. It performs no I/O.
func Build(patterns []store.RecurringPattern, exceptions []store.Exception, from slottime.Date, weeks int, stamp time.Time) (*ical.Calendar, error) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName("Weekly schedule")

	byPattern := make(map[uuid.UUID]map[string][]store.Exception)
	for _, e := range exceptions {
		m, ok := byPattern[e.RecurringPatternID]
		if !ok {
			m = make(map[string][]store.Exception)
			byPattern[e.RecurringPatternID] = m
		}
		key := e.ExceptionDate.String()
		m[key] = append(m[key], e)
	}

	for _, p := range patterns {
		if err := addPattern(cal, p, byPattern[p.ID], from, weeks, stamp); err != nil {
			return nil, err
		}
	}
	return cal, nil
}

func firstOnOrAfter(from slottime.Date, day time.Weekday) slottime.Date {
	offset := (int(day) - int(from.Weekday()) + 7) % 7
	return from.AddDays(offset)
}

func addPattern(cal *ical.Calendar, p store.RecurringPattern, excs map[string][]store.Exception, from slottime.Date, weeks int, stamp time.Time) error {
	first := firstOnOrAfter(from, p.DayOfWeek)
	dtStart := first.At(p.StartTime, time.UTC)
	dtEnd := first.At(p.EndTime, time.UTC)

	opt := rrule.ROption{Freq: rrule.WEEKLY, Count: weeks}
	rule, err := rrule.NewRRule(rrule.ROption{Freq: rrule.WEEKLY, Count: weeks, Dtstart: dtStart})
	if err != nil {
		return fmt.Errorf("feed: build rule for pattern %s: %w", p.ID, err)
	}

	uid := fmt.Sprintf("%s@%s", p.ID, uidDomain)
	summary := fmt.Sprintf("%s - %s", p.StartTime.Display(), p.EndTime.Display())

	ev := cal.AddEvent(uid)
	ev.SetDtStampTime(stamp)
	ev.SetProperty(ical.ComponentPropertyDtStart, dtStart.Format(floatingLayout))
	ev.SetProperty(ical.ComponentPropertyDtEnd, dtEnd.Format(floatingLayout))
	ev.SetSummary(summary)
	ev.AddRrule(opt.RRuleString())

	for _, at := range rule.All() {
		date := slottime.DateOf(at)
		e, ok := scheduling.EffectiveException(excs[date.String()])
		if !ok {
			continue
		}
		recurrenceID := at.Format(floatingLayout)

		if e.Kind == store.KindCancelled {
			ev.AddExdate(recurrenceID)
			continue
		}

		ov := cal.AddEvent(uid)
		ov.SetDtStampTime(stamp)
		ov.SetProperty(ical.ComponentProperty("RECURRENCE-ID"), recurrenceID)
		ov.SetProperty(ical.ComponentPropertyDtStart, date.At(e.StartTime, time.UTC).Format(floatingLayout))
		ov.SetProperty(ical.ComponentPropertyDtEnd, date.At(e.EndTime, time.UTC).Format(floatingLayout))
		ov.SetSummary(fmt.Sprintf("%s - %s (modified)", e.StartTime.Display(), e.EndTime.Display()))
	}
	return nil
}
