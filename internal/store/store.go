package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/simorq_scheduler/pkg/slottime"
)

// ErrNotFound is returned by single-row lookups that match nothing.
var ErrNotFound = errors.New("store: not found")

// IsNotFound reports whether err is (or wraps) ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// ExceptionKind is the persisted kind of a per-date override.
type ExceptionKind string

const (
	// KindCancelled is persisted as "deleted" for compatibility with existing rows.
	KindCancelled ExceptionKind = "deleted"
	KindModified  ExceptionKind = "modified"
)

func (k ExceptionKind) Valid() bool {
	return k == KindCancelled || k == KindModified
}

// RecurringPattern is a standing weekly time slot owned by one user.
type RecurringPattern struct {
	ID        uuid.UUID      `json:"id"`
	OwnerID   uuid.UUID      `json:"owner_id"`
	DayOfWeek time.Weekday   `json:"day_of_week"`
	StartTime slottime.Clock `json:"start_time"`
	EndTime   slottime.Clock `json:"end_time"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Exception overrides one occurrence of a pattern on a single date.
// StartTime and EndTime are zero when Kind is KindCancelled.
type Exception struct {
	ID                 uuid.UUID      `json:"id"`
	RecurringPatternID uuid.UUID      `json:"recurring_pattern_id"`
	ExceptionDate      slottime.Date  `json:"exception_date"`
	Kind               ExceptionKind  `json:"exception_kind"`
	StartTime          slottime.Clock `json:"start_time"`
	EndTime            slottime.Clock `json:"end_time"`
	CreatedAt          time.Time      `json:"created_at"`
}

// Store is the persistence contract the scheduling service runs against.
// Implementations must be safe for concurrent use.
type Store interface {
	// ListPatterns returns the owner's patterns ordered by day_of_week, start_time.
	ListPatterns(ctx context.Context, ownerID uuid.UUID) ([]RecurringPattern, error)
	// GetPattern returns ErrNotFound when the pattern does not exist or is not the owner's.
	GetPattern(ctx context.Context, ownerID, patternID uuid.UUID) (RecurringPattern, error)
	InsertPattern(ctx context.Context, p RecurringPattern) (RecurringPattern, error)
	// DeletePattern removes the pattern and its exceptions atomically.
	DeletePattern(ctx context.Context, ownerID, patternID uuid.UUID) error

	// ListExceptions returns exceptions of the owner's patterns with
	// from <= exception_date <= to.
	ListExceptions(ctx context.Context, ownerID uuid.UUID, from, to slottime.Date) ([]Exception, error)
	// FindException returns the exception at (patternID, date) or ErrNotFound.
	FindException(ctx context.Context, patternID uuid.UUID, date slottime.Date) (Exception, error)
	InsertException(ctx context.Context, e Exception) (Exception, error)
	UpdateException(ctx context.Context, e Exception) (Exception, error)
	DeleteException(ctx context.Context, exceptionID uuid.UUID) error

	// DeleteOrphanExceptions removes exceptions whose pattern no longer exists
	// and reports how many rows were removed.
	DeleteOrphanExceptions(ctx context.Context) (int64, error)
}

// NewID returns a time-ordered UUIDv7, falling back to v4.
func NewID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}
