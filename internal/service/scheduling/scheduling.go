package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/simorq_scheduler/internal/store"
	"github.com/Alijeyrad/simorq_scheduler/pkg/events"
	"github.com/Alijeyrad/simorq_scheduler/pkg/reqctx"
	"github.com/Alijeyrad/simorq_scheduler/pkg/slottime"
)

// DefaultMaxSlotsPerDay is the per-date cap checked before creating a pattern.
const DefaultMaxSlotsPerDay = 2

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreatePatternRequest struct {
	DayOfWeek time.Weekday
	StartTime slottime.Clock
	EndTime   slottime.Clock
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

// Service reads and mutates one owner's schedule. Mutations take the owner from
// the authenticated identity in ctx; reads take it explicitly so week loaders
// can run without a request context.
type Service interface {
	// Recurring patterns
	ListRecurringPatterns(ctx context.Context) ([]store.RecurringPattern, error)
	CreateRecurringPattern(ctx context.Context, req CreatePatternRequest) (store.RecurringPattern, error)
	DeleteRecurringPattern(ctx context.Context, patternID uuid.UUID) error

	// Per-date overrides
	UpsertExceptionModified(ctx context.Context, patternID uuid.UUID, date slottime.Date, start, end slottime.Clock) (store.Exception, error)
	UpsertExceptionCancelled(ctx context.Context, patternID uuid.UUID, date slottime.Date) (store.Exception, error)
	RestoreOccurrence(ctx context.Context, patternID uuid.UUID, date slottime.Date) error

	// Resolution
	GetWeek(ctx context.Context, ownerID uuid.UUID, weekStart slottime.Date) (Week, error)

	// Maintenance
	SweepOrphans(ctx context.Context) (int64, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type schedulingService struct {
	db     store.Store
	events *events.Emitter
	locks  *occurrenceLocks
}

func New(db store.Store, emitter *events.Emitter) Service {
	return &schedulingService{db: db, events: emitter, locks: newOccurrenceLocks()}
}

func ownerFromContext(ctx context.Context) (uuid.UUID, error) {
	id, ok := reqctx.OwnerIDFromContext(ctx)
	if !ok {
		return uuid.Nil, AuthenticationError{}
	}
	return id, nil
}

func validateRange(start, end slottime.Clock) error {
	if start.IsZero() {
		return ValidationError{Field: "start_time", Reason: "is required"}
	}
	if end.IsZero() {
		return ValidationError{Field: "end_time", Reason: "is required"}
	}
	if !end.After(start) {
		return ValidationError{Field: "end_time", Reason: ErrInvalidTimeRange.Error(), Err: ErrInvalidTimeRange}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Recurring patterns
// ---------------------------------------------------------------------------

func (s *schedulingService) ListRecurringPatterns(ctx context.Context) ([]store.RecurringPattern, error) {
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	patterns, err := s.db.ListPatterns(ctx, ownerID)
	if err != nil {
		return nil, dataAccess("list recurring patterns", err)
	}
	return patterns, nil
}

func (s *schedulingService) CreateRecurringPattern(ctx context.Context, req CreatePatternRequest) (store.RecurringPattern, error) {
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return store.RecurringPattern{}, err
	}
	if req.DayOfWeek < time.Sunday || req.DayOfWeek > time.Saturday {
		return store.RecurringPattern{}, ValidationError{Field: "day_of_week", Reason: "must be between 0 (Sunday) and 6 (Saturday)"}
	}
	if err := validateRange(req.StartTime, req.EndTime); err != nil {
		return store.RecurringPattern{}, err
	}

	p, err := s.db.InsertPattern(ctx, store.RecurringPattern{
		OwnerID:   ownerID,
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		return store.RecurringPattern{}, dataAccess("create recurring pattern", err)
	}

	s.events.Emit(events.PatternCreated, ownerID, p.ID)
	return p, nil
}

func (s *schedulingService) DeleteRecurringPattern(ctx context.Context, patternID uuid.UUID) error {
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return err
	}
	if err := s.db.DeletePattern(ctx, ownerID, patternID); err != nil {
		if store.IsNotFound(err) {
			return ErrPatternNotFound
		}
		return dataAccess("delete recurring pattern", err)
	}

	s.events.Emit(events.PatternDeleted, ownerID, patternID)
	return nil
}

// ---------------------------------------------------------------------------
// Per-date overrides
// ---------------------------------------------------------------------------

// ownedPattern confirms the pattern exists and belongs to the caller.
func (s *schedulingService) ownedPattern(ctx context.Context, patternID uuid.UUID) (uuid.UUID, error) {
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	if _, err := s.db.GetPattern(ctx, ownerID, patternID); err != nil {
		if store.IsNotFound(err) {
			return uuid.Nil, ErrPatternNotFound
		}
		return uuid.Nil, dataAccess("get recurring pattern", err)
	}
	return ownerID, nil
}

// upsertException writes e at (pattern, date): it overwrites the existing row
// whatever its kind, or inserts one. At most one row exists per pair.
func (s *schedulingService) upsertException(ctx context.Context, e store.Exception) (store.Exception, error) {
	unlock := s.locks.lock(e.RecurringPatternID, e.ExceptionDate)
	defer unlock()

	existing, err := s.db.FindException(ctx, e.RecurringPatternID, e.ExceptionDate)
	switch {
	case err == nil:
		e.ID = existing.ID
		updated, err := s.db.UpdateException(ctx, e)
		if err != nil {
			return store.Exception{}, dataAccess("update exception", err)
		}
		return updated, nil
	case store.IsNotFound(err):
		inserted, err := s.db.InsertException(ctx, e)
		if err != nil {
			return store.Exception{}, dataAccess("insert exception", err)
		}
		return inserted, nil
	default:
		return store.Exception{}, dataAccess("find exception", err)
	}
}

func (s *schedulingService) UpsertExceptionModified(ctx context.Context, patternID uuid.UUID, date slottime.Date, start, end slottime.Clock) (store.Exception, error) {
	if _, err := ownerFromContext(ctx); err != nil {
		return store.Exception{}, err
	}
	if date.IsZero() {
		return store.Exception{}, ValidationError{Field: "date", Reason: "is required"}
	}
	if err := validateRange(start, end); err != nil {
		return store.Exception{}, err
	}
	ownerID, err := s.ownedPattern(ctx, patternID)
	if err != nil {
		return store.Exception{}, err
	}

	e, err := s.upsertException(ctx, store.Exception{
		RecurringPatternID: patternID,
		ExceptionDate:      date,
		Kind:               store.KindModified,
		StartTime:          start,
		EndTime:            end,
	})
	if err != nil {
		return store.Exception{}, err
	}

	s.events.Emit(events.ExceptionModified, ownerID, e.ID)
	return e, nil
}

func (s *schedulingService) UpsertExceptionCancelled(ctx context.Context, patternID uuid.UUID, date slottime.Date) (store.Exception, error) {
	if _, err := ownerFromContext(ctx); err != nil {
		return store.Exception{}, err
	}
	if date.IsZero() {
		return store.Exception{}, ValidationError{Field: "date", Reason: "is required"}
	}
	ownerID, err := s.ownedPattern(ctx, patternID)
	if err != nil {
		return store.Exception{}, err
	}

	e, err := s.upsertException(ctx, store.Exception{
		RecurringPatternID: patternID,
		ExceptionDate:      date,
		Kind:               store.KindCancelled,
	})
	if err != nil {
		return store.Exception{}, err
	}

	s.events.Emit(events.ExceptionCancelled, ownerID, e.ID)
	return e, nil
}

func (s *schedulingService) RestoreOccurrence(ctx context.Context, patternID uuid.UUID, date slottime.Date) error {
	if _, err := ownerFromContext(ctx); err != nil {
		return err
	}
	if date.IsZero() {
		return ValidationError{Field: "date", Reason: "is required"}
	}
	ownerID, err := s.ownedPattern(ctx, patternID)
	if err != nil {
		return err
	}

	unlock := s.locks.lock(patternID, date)
	defer unlock()

	existing, err := s.db.FindException(ctx, patternID, date)
	if err != nil {
		if store.IsNotFound(err) {
			return ErrExceptionNotFound
		}
		return dataAccess("find exception", err)
	}
	if err := s.db.DeleteException(ctx, existing.ID); err != nil {
		if store.IsNotFound(err) {
			return ErrExceptionNotFound
		}
		return dataAccess("delete exception", err)
	}

	s.events.Emit(events.ExceptionRestored, ownerID, existing.ID)
	return nil
}

// ---------------------------------------------------------------------------
// Resolution
// ---------------------------------------------------------------------------

func (s *schedulingService) GetWeek(ctx context.Context, ownerID uuid.UUID, weekStart slottime.Date) (Week, error) {
	if weekStart.IsZero() {
		return Week{}, ValidationError{Field: "week_start", Reason: "is required"}
	}

	patterns, err := s.db.ListPatterns(ctx, ownerID)
	if err != nil {
		return Week{}, dataAccess("list recurring patterns", err)
	}
	exceptions, err := s.db.ListExceptions(ctx, ownerID, weekStart, weekStart.AddDays(6))
	if err != nil {
		return Week{}, dataAccess(fmt.Sprintf("list exceptions for week %s", weekStart), err)
	}

	return ResolveWeek(patterns, exceptions, weekStart), nil
}

// ---------------------------------------------------------------------------
// Maintenance
// ---------------------------------------------------------------------------

func (s *schedulingService) SweepOrphans(ctx context.Context) (int64, error) {
	n, err := s.db.DeleteOrphanExceptions(ctx)
	if err != nil {
		return 0, dataAccess("sweep orphan exceptions", err)
	}
	return n, nil
}
