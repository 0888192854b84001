// Package memstore is an in-memory store.Store used by tests and the
// "memory" store driver.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/simorq_scheduler/internal/store"
	"github.com/Alijeyrad/simorq_scheduler/pkg/slottime"
)

type Store struct {
	mu         sync.RWMutex
	patterns   map[uuid.UUID]store.RecurringPattern
	exceptions map[uuid.UUID]store.Exception
	now        func() time.Time

	// Err, when set, is returned by every call. Tests use it to simulate
	// an unreachable backend.
	Err error
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		patterns:   make(map[uuid.UUID]store.RecurringPattern),
		exceptions: make(map[uuid.UUID]store.Exception),
		now:        time.Now,
	}
}

func (s *Store) ListPatterns(ctx context.Context, ownerID uuid.UUID) ([]store.RecurringPattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}

	out := make([]store.RecurringPattern, 0)
	for _, p := range s.patterns {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *Store) GetPattern(ctx context.Context, ownerID, patternID uuid.UUID) (store.RecurringPattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return store.RecurringPattern{}, s.Err
	}

	p, ok := s.patterns[patternID]
	if !ok || p.OwnerID != ownerID {
		return store.RecurringPattern{}, store.ErrNotFound
	}
	return p, nil
}

func (s *Store) InsertPattern(ctx context.Context, p store.RecurringPattern) (store.RecurringPattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return store.RecurringPattern{}, s.Err
	}

	if p.ID == uuid.Nil {
		p.ID = store.NewID()
	}
	now := s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	s.patterns[p.ID] = p
	return p, nil
}

func (s *Store) DeletePattern(ctx context.Context, ownerID, patternID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}

	p, ok := s.patterns[patternID]
	if !ok || p.OwnerID != ownerID {
		return store.ErrNotFound
	}
	delete(s.patterns, patternID)
	for id, e := range s.exceptions {
		if e.RecurringPatternID == patternID {
			delete(s.exceptions, id)
		}
	}
	return nil
}

func (s *Store) ListExceptions(ctx context.Context, ownerID uuid.UUID, from, to slottime.Date) ([]store.Exception, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}

	out := make([]store.Exception, 0)
	for _, e := range s.exceptions {
		p, ok := s.patterns[e.RecurringPatternID]
		if !ok || p.OwnerID != ownerID {
			continue
		}
		if e.ExceptionDate.Before(from) || e.ExceptionDate.After(to) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *Store) FindException(ctx context.Context, patternID uuid.UUID, date slottime.Date) (store.Exception, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return store.Exception{}, s.Err
	}

	for _, e := range s.exceptions {
		if e.RecurringPatternID == patternID && e.ExceptionDate.Equal(date) {
			return e, nil
		}
	}
	return store.Exception{}, store.ErrNotFound
}

func (s *Store) InsertException(ctx context.Context, e store.Exception) (store.Exception, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return store.Exception{}, s.Err
	}

	if e.ID == uuid.Nil {
		e.ID = store.NewID()
	}
	e.CreatedAt = s.now()
	s.exceptions[e.ID] = e
	return e, nil
}

func (s *Store) UpdateException(ctx context.Context, e store.Exception) (store.Exception, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return store.Exception{}, s.Err
	}

	cur, ok := s.exceptions[e.ID]
	if !ok {
		return store.Exception{}, store.ErrNotFound
	}
	cur.Kind = e.Kind
	cur.StartTime = e.StartTime
	cur.EndTime = e.EndTime
	s.exceptions[e.ID] = cur
	return cur, nil
}

func (s *Store) DeleteException(ctx context.Context, exceptionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}

	if _, ok := s.exceptions[exceptionID]; !ok {
		return store.ErrNotFound
	}
	delete(s.exceptions, exceptionID)
	return nil
}

func (s *Store) DeleteOrphanExceptions(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}

	var n int64
	for id, e := range s.exceptions {
		if _, ok := s.patterns[e.RecurringPatternID]; !ok {
			delete(s.exceptions, id)
			n++
		}
	}
	return n, nil
}

// PutException stores e as-is, bypassing upsert rules. Tests use it to seed
// duplicate or orphaned rows that the service itself never writes.
func (s *Store) PutException(e store.Exception) store.Exception {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == uuid.Nil {
		e.ID = store.NewID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	s.exceptions[e.ID] = e
	return e
}

// ExceptionCount returns the number of stored exception rows.
func (s *Store) ExceptionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.exceptions)
}
