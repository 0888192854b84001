package handler

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/simorq_scheduler/internal/service/feed"
	"github.com/Alijeyrad/simorq_scheduler/internal/service/scheduling"
	"github.com/Alijeyrad/simorq_scheduler/internal/service/weeks"
	"github.com/Alijeyrad/simorq_scheduler/pkg/reqctx"
	"github.com/Alijeyrad/simorq_scheduler/pkg/slottime"
)

type ScheduleOptions struct {
	MaxSlotsPerDay int
	FeedWeeks      int
}

type ScheduleHandler struct {
	svc    scheduling.Service
	pagers *weeks.Registry
	feed   feed.Service
	opts   ScheduleOptions
	today  func() slottime.Date
}

func NewScheduleHandler(svc scheduling.Service, pagers *weeks.Registry, feedSvc feed.Service, opts ScheduleOptions) *ScheduleHandler {
	if opts.FeedWeeks <= 0 {
		opts.FeedWeeks = feed.DefaultWeeks
	}
	return &ScheduleHandler{
		svc:    svc,
		pagers: pagers,
		feed:   feedSvc,
		opts:   opts,
		today:  slottime.Today,
	}
}

func mapScheduleError(c fiber.Ctx, err error) error {
	switch {
	case scheduling.IsAuthentication(err):
		return unauthorized(c)
	case scheduling.IsValidation(err):
		return badRequest(c, err.Error())
	case scheduling.IsCapacity(err):
		return capacityExceeded(c, err.Error())
	case errors.Is(err, scheduling.ErrPatternNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, scheduling.ErrExceptionNotFound):
		return notFound(c, err.Error())
	default:
		attrs := append([]any{"method", c.Method(), "path", c.Path(), "err", err}, reqctx.LogAttrs(c.Context())...)
		slog.Error("schedule request failed", attrs...)
		return internalError(c)
	}
}

func (h *ScheduleHandler) pager(c fiber.Ctx) (*weeks.Pager, error) {
	ownerID, ok := reqctx.OwnerIDFromContext(c.Context())
	if !ok {
		return nil, scheduling.AuthenticationError{}
	}
	return h.pagers.For(ownerID)
}

// refresh re-resolves the caller's loaded weeks after a committed mutation.
// A failed refresh does not undo the mutation, so it is only logged.
func (h *ScheduleHandler) refresh(ctx context.Context, p *weeks.Pager) {
	if err := p.RefreshAll(ctx); err != nil {
		slog.Warn("schedule: week refresh after mutation failed", "err", err)
	}
}

func patternIDParam(c fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, scheduling.ValidationError{Field: "id", Reason: "invalid pattern id"}
	}
	return id, nil
}

func dateParam(c fiber.Ctx, name string) (slottime.Date, error) {
	d, err := slottime.ParseDate(c.Params(name))
	if err != nil {
		return slottime.Date{}, scheduling.ValidationError{Field: name, Reason: err.Error()}
	}
	return d, nil
}

func parseTimes(start, end string) (slottime.Clock, slottime.Clock, error) {
	s, err := slottime.ParseClock(start)
	if err != nil {
		return slottime.Clock{}, slottime.Clock{}, scheduling.ValidationError{Field: "start_time", Reason: err.Error()}
	}
	e, err := slottime.ParseClock(end)
	if err != nil {
		return slottime.Clock{}, slottime.Clock{}, scheduling.ValidationError{Field: "end_time", Reason: err.Error()}
	}
	return s, e, nil
}

// ---------------------------------------------------------------------------
// Recurring patterns
// ---------------------------------------------------------------------------

// GET /schedule/patterns
func (h *ScheduleHandler) ListPatterns(c fiber.Ctx) error {
	patterns, err := h.svc.ListRecurringPatterns(c.Context())
	if err != nil {
		return mapScheduleError(c, err)
	}

	out := make([]patternView, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, newPatternView(p))
	}
	return ok(c, out)
}

// POST /schedule/patterns
//
// The per-day cap is checked against the week of the date the pattern first
// lands on before anything is written. With "date" that is the given date;
// with only "day_of_week" it is that weekday in the current week.
func (h *ScheduleHandler) CreatePattern(c fiber.Ctx) error {
	var body struct {
		Date      string `json:"date"`
		DayOfWeek *int   `json:"day_of_week"`
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	start, end, err := parseTimes(body.StartTime, body.EndTime)
	if err != nil {
		return mapScheduleError(c, err)
	}

	p, err := h.pager(c)
	if err != nil {
		return mapScheduleError(c, err)
	}

	var date slottime.Date
	switch {
	case body.Date != "":
		date, err = slottime.ParseDate(body.Date)
		if err != nil {
			return badRequest(c, err.Error())
		}
	case body.DayOfWeek != nil:
		day := *body.DayOfWeek
		if day < int(time.Sunday) || day > int(time.Saturday) {
			return badRequest(c, "day_of_week must be between 0 (Sunday) and 6 (Saturday)")
		}
		date = slottime.WeekStart(h.today()).AddDays(day)
	default:
		return badRequest(c, "either date or day_of_week is required")
	}
	req := scheduling.CreatePatternRequest{DayOfWeek: date.Weekday(), StartTime: start, EndTime: end}

	week, err := p.EnsureWeekLoaded(c.Context(), date)
	if err != nil {
		return mapScheduleError(c, err)
	}
	if err := scheduling.CheckCapacity(week, date, h.opts.MaxSlotsPerDay); err != nil {
		return mapScheduleError(c, err)
	}

	pattern, err := h.svc.CreateRecurringPattern(c.Context(), req)
	if err != nil {
		return mapScheduleError(c, err)
	}

	h.refresh(c.Context(), p)
	return created(c, newPatternView(pattern))
}

// DELETE /schedule/patterns/:id
func (h *ScheduleHandler) DeletePattern(c fiber.Ctx) error {
	id, err := patternIDParam(c)
	if err != nil {
		return mapScheduleError(c, err)
	}
	p, err := h.pager(c)
	if err != nil {
		return mapScheduleError(c, err)
	}

	if err := h.svc.DeleteRecurringPattern(c.Context(), id); err != nil {
		return mapScheduleError(c, err)
	}

	h.refresh(c.Context(), p)
	return noContent(c)
}

// ---------------------------------------------------------------------------
// Single occurrences
// ---------------------------------------------------------------------------

// PUT /schedule/patterns/:id/occurrences/:date
func (h *ScheduleHandler) ModifyOccurrence(c fiber.Ctx) error {
	id, err := patternIDParam(c)
	if err != nil {
		return mapScheduleError(c, err)
	}
	date, err := dateParam(c, "date")
	if err != nil {
		return mapScheduleError(c, err)
	}

	var body struct {
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	start, end, err := parseTimes(body.StartTime, body.EndTime)
	if err != nil {
		return mapScheduleError(c, err)
	}

	p, err := h.pager(c)
	if err != nil {
		return mapScheduleError(c, err)
	}

	e, err := h.svc.UpsertExceptionModified(c.Context(), id, date, start, end)
	if err != nil {
		return mapScheduleError(c, err)
	}

	h.refresh(c.Context(), p)
	return ok(c, newExceptionView(e))
}

// DELETE /schedule/patterns/:id/occurrences/:date
func (h *ScheduleHandler) CancelOccurrence(c fiber.Ctx) error {
	id, err := patternIDParam(c)
	if err != nil {
		return mapScheduleError(c, err)
	}
	date, err := dateParam(c, "date")
	if err != nil {
		return mapScheduleError(c, err)
	}
	p, err := h.pager(c)
	if err != nil {
		return mapScheduleError(c, err)
	}

	e, err := h.svc.UpsertExceptionCancelled(c.Context(), id, date)
	if err != nil {
		return mapScheduleError(c, err)
	}

	h.refresh(c.Context(), p)
	return ok(c, newExceptionView(e))
}

// POST /schedule/patterns/:id/occurrences/:date/restore
func (h *ScheduleHandler) RestoreOccurrence(c fiber.Ctx) error {
	id, err := patternIDParam(c)
	if err != nil {
		return mapScheduleError(c, err)
	}
	date, err := dateParam(c, "date")
	if err != nil {
		return mapScheduleError(c, err)
	}
	p, err := h.pager(c)
	if err != nil {
		return mapScheduleError(c, err)
	}

	if err := h.svc.RestoreOccurrence(c.Context(), id, date); err != nil {
		return mapScheduleError(c, err)
	}

	h.refresh(c.Context(), p)
	return noContent(c)
}

// ---------------------------------------------------------------------------
// Weeks
// ---------------------------------------------------------------------------

// GET /schedule/weeks
func (h *ScheduleHandler) ListWeeks(c fiber.Ctx) error {
	p, err := h.pager(c)
	if err != nil {
		return mapScheduleError(c, err)
	}
	if _, err := p.Start(c.Context()); err != nil {
		return mapScheduleError(c, err)
	}

	list, err := p.Weeks(c.Context())
	if err != nil {
		return mapScheduleError(c, err)
	}

	today := h.today()
	out := make([]weekView, 0, len(list))
	for _, w := range list {
		out = append(out, newWeekView(w, today))
	}
	return ok(c, out)
}

// GET /schedule/weeks/:start
func (h *ScheduleHandler) GetWeek(c fiber.Ctx) error {
	start, err := dateParam(c, "start")
	if err != nil {
		return mapScheduleError(c, err)
	}
	p, err := h.pager(c)
	if err != nil {
		return mapScheduleError(c, err)
	}

	w, err := p.EnsureWeekLoaded(c.Context(), start)
	if err != nil {
		return mapScheduleError(c, err)
	}
	return ok(c, newWeekView(w, h.today()))
}

// POST /schedule/weeks/next
func (h *ScheduleHandler) NextWeek(c fiber.Ctx) error {
	p, err := h.pager(c)
	if err != nil {
		return mapScheduleError(c, err)
	}

	w, err := p.AppendNextWeek(c.Context())
	if err != nil {
		return mapScheduleError(c, err)
	}
	return ok(c, newWeekView(w, h.today()))
}

// ---------------------------------------------------------------------------
// Calendar feed
// ---------------------------------------------------------------------------

// GET /schedule/feed.ics?from=YYYY-MM-DD&weeks=N
func (h *ScheduleHandler) Feed(c fiber.Ctx) error {
	ownerID, ok := reqctx.OwnerIDFromContext(c.Context())
	if !ok {
		return unauthorized(c)
	}

	from := h.today()
	if s := c.Query("from"); s != "" {
		d, err := slottime.ParseDate(s)
		if err != nil {
			return badRequest(c, err.Error())
		}
		from = d
	}

	n := h.opts.FeedWeeks
	if s := c.Query("weeks"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			return badRequest(c, "weeks must be a positive integer")
		}
		n = v
	}

	cal, err := h.feed.Calendar(c.Context(), ownerID, from, n)
	if err != nil {
		return mapScheduleError(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/calendar; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="schedule.ics"`)
	return c.SendString(cal.Serialize())
}
