package scheduling

import (
	"sync"

	"github.com/google/uuid"

	"github.com/Alijeyrad/simorq_scheduler/pkg/slottime"
)

type occurrenceKey struct {
	patternID uuid.UUID
	date      string
}

type occurrenceLock struct {
	mu   sync.Mutex
	refs int
}

// occurrenceLocks serialises writes to one (pattern, date) pair so the
// lookup and the write of an exception happen as one step. Entries are
// dropped once no caller holds or waits on them.
type occurrenceLocks struct {
	mu    sync.Mutex
	locks map[occurrenceKey]*occurrenceLock
}

func newOccurrenceLocks() *occurrenceLocks {
	return &occurrenceLocks{locks: make(map[occurrenceKey]*occurrenceLock)}
}

// lock blocks until the pair is free and returns its release func.
func (l *occurrenceLocks) lock(patternID uuid.UUID, date slottime.Date) func() {
	key := occurrenceKey{patternID: patternID, date: date.String()}

	l.mu.Lock()
	ol, ok := l.locks[key]
	if !ok {
		ol = &occurrenceLock{}
		l.locks[key] = ol
	}
	ol.refs++
	l.mu.Unlock()

	ol.mu.Lock()
	return func() {
		ol.mu.Unlock()

		l.mu.Lock()
		ol.refs--
		if ol.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

func (l *occurrenceLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
