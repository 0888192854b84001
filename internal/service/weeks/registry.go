package weeks

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Alijeyrad/simorq_scheduler/internal/service/scheduling"
	"github.com/Alijeyrad/simorq_scheduler/pkg/slottime"
)

// DefaultRegistrySize bounds how many owners keep a pager in memory.
const DefaultRegistrySize = 1024

// Registry hands out one Pager per owner. Pagers of owners that have not been
// seen recently are dropped and rebuilt empty on the next request.
type Registry struct {
	svc       scheduling.Service
	cacheSize int

	mu     sync.Mutex
	pagers *lru.Cache[uuid.UUID, *Pager]
}

func NewRegistry(svc scheduling.Service, size, weekCacheSize int) (*Registry, error) {
	if size <= 0 {
		size = DefaultRegistrySize
	}
	pagers, err := lru.New[uuid.UUID, *Pager](size)
	if err != nil {
		return nil, fmt.Errorf("weeks: create registry: %w", err)
	}
	return &Registry{svc: svc, cacheSize: weekCacheSize, pagers: pagers}, nil
}

// For returns the owner's pager, creating it on first use.
func (r *Registry) For(ownerID uuid.UUID) (*Pager, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.pagers.Get(ownerID); ok {
		return p, nil
	}

	p, err := NewPager(func(ctx context.Context, weekStart slottime.Date) (scheduling.Week, error) {
		return r.svc.GetWeek(ctx, ownerID, weekStart)
	}, r.cacheSize)
	if err != nil {
		return nil, err
	}
	r.pagers.Add(ownerID, p)
	return p, nil
}

// Len reports how many pagers are held.
func (r *Registry) Len() int {
	return r.pagers.Len()
}
