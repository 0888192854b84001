package handler

import (
	"github.com/google/uuid"

	"github.com/Alijeyrad/simorq_scheduler/internal/service/scheduling"
	"github.com/Alijeyrad/simorq_scheduler/internal/store"
	"github.com/Alijeyrad/simorq_scheduler/pkg/slottime"
)

type occurrenceView struct {
	ID              uuid.UUID `json:"id"`
	Date            string    `json:"date"`
	StartTime       string    `json:"start_time"`
	EndTime         string    `json:"end_time"`
	StartDisplay    string    `json:"start_display"`
	EndDisplay      string    `json:"end_display"`
	IsModified      bool      `json:"is_modified"`
	SourcePatternID uuid.UUID `json:"source_pattern_id"`
}

type dayView struct {
	Date    string           `json:"date"`
	Weekday string           `json:"weekday"`
	IsToday bool             `json:"is_today"`
	Slots   []occurrenceView `json:"slots"`
}

type weekView struct {
	WeekStart string    `json:"week_start"`
	Label     string    `json:"label"`
	Days      []dayView `json:"days"`
}

type patternView struct {
	ID           uuid.UUID `json:"id"`
	DayOfWeek    int       `json:"day_of_week"`
	Weekday      string    `json:"weekday"`
	StartTime    string    `json:"start_time"`
	EndTime      string    `json:"end_time"`
	StartDisplay string    `json:"start_display"`
	EndDisplay   string    `json:"end_display"`
}

type exceptionView struct {
	ID                 uuid.UUID `json:"id"`
	RecurringPatternID uuid.UUID `json:"recurring_pattern_id"`
	ExceptionDate      string    `json:"exception_date"`
	Kind               string    `json:"exception_kind"`
	StartTime          *string   `json:"start_time"`
	EndTime            *string   `json:"end_time"`
}

func newWeekView(w scheduling.Week, today slottime.Date) weekView {
	dates := w.Dates()
	out := weekView{
		WeekStart: w.Start.String(),
		Label:     "Week of " + w.Start.Label(),
		Days:      make([]dayView, 0, len(dates)),
	}
	for _, d := range dates {
		occs := w.On(d)
		day := dayView{
			Date:    d.String(),
			Weekday: d.Weekday().String(),
			IsToday: d.Equal(today),
			Slots:   make([]occurrenceView, 0, len(occs)),
		}
		for _, o := range occs {
			day.Slots = append(day.Slots, occurrenceView{
				ID:              o.ID,
				Date:            o.Date.String(),
				StartTime:       o.StartTime.String(),
				EndTime:         o.EndTime.String(),
				StartDisplay:    o.StartTime.Display(),
				EndDisplay:      o.EndTime.Display(),
				IsModified:      o.IsModified,
				SourcePatternID: o.SourcePatternID,
			})
		}
		out.Days = append(out.Days, day)
	}
	return out
}

func newPatternView(p store.RecurringPattern) patternView {
	return patternView{
		ID:           p.ID,
		DayOfWeek:    int(p.DayOfWeek),
		Weekday:      p.DayOfWeek.String(),
		StartTime:    p.StartTime.String(),
		EndTime:      p.EndTime.String(),
		StartDisplay: p.StartTime.Display(),
		EndDisplay:   p.EndTime.Display(),
	}
}

func newExceptionView(e store.Exception) exceptionView {
	v := exceptionView{
		ID:                 e.ID,
		RecurringPatternID: e.RecurringPatternID,
		ExceptionDate:      e.ExceptionDate.String(),
		Kind:               string(e.Kind),
	}
	if e.Kind == store.KindModified {
		start, end := e.StartTime.String(), e.EndTime.String()
		v.StartTime, v.EndTime = &start, &end
	}
	return v
}
