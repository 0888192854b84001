// Package weeks keeps resolved weeks in memory for one owner and pages
// forward through them.
package weeks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/Alijeyrad/simorq_scheduler/internal/service/scheduling"
	"github.com/Alijeyrad/simorq_scheduler/pkg/observability"
	"github.com/Alijeyrad/simorq_scheduler/pkg/slottime"
)

const meterName = "github.com/Alijeyrad/simorq_scheduler/internal/service/weeks"

// DefaultCacheSize bounds the resolved weeks held per owner.
const DefaultCacheSize = 52

// DefaultLoadTimeout bounds a shared week load, which runs detached from the
// context of the caller that started it.
const DefaultLoadTimeout = 10 * time.Second

// Loader resolves one week from the backing store.
type Loader func(ctx context.Context, weekStart slottime.Date) (scheduling.Week, error)

// Pager caches resolved weeks keyed by their Sunday start date and keeps the
// ordered, append-only list of weeks the caller has paged through.
//
// Week data is bounded by an LRU; a week that was evicted is reloaded the next
// time it is read. The ordered list is never trimmed.
type Pager struct {
	load        Loader
	today       func() slottime.Date
	loadTimeout time.Duration

	mu    sync.Mutex
	order []slottime.Date
	cache *lru.Cache[string, scheduling.Week]

	flight singleflight.Group

	loads    metric.Int64Counter
	failures metric.Int64Counter
	latency  metric.Float64Histogram
}

// NewPager returns a pager that loads weeks with load. size <= 0 uses
// DefaultCacheSize.
func NewPager(load Loader, size int) (*Pager, error) {
	if load == nil {
		return nil, errors.New("weeks: nil loader")
	}
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, scheduling.Week](size)
	if err != nil {
		return nil, fmt.Errorf("weeks: create cache: %w", err)
	}

	meter := otel.Meter(meterName)
	loads, _ := meter.Int64Counter(
		"scheduler_week_loads_total",
		metric.WithDescription("Week resolutions issued by the pager"),
	)
	failures, _ := meter.Int64Counter(
		"scheduler_week_load_failures_total",
		metric.WithDescription("Week resolutions that failed and cached nothing"),
	)
	latency, _ := meter.Float64Histogram(
		"scheduler_week_load_duration_ms",
		metric.WithDescription("Week resolution duration in milliseconds"),
		metric.WithUnit("ms"),
	)

	return &Pager{
		load:        load,
		today:       slottime.Today,
		loadTimeout: DefaultLoadTimeout,
		cache:       cache,
		loads:       loads,
		failures:    failures,
		latency:     latency,
	}, nil
}

// fetch runs the loader for weekStart and stores the result. Nothing is
// cached on failure.
func (p *Pager) fetch(ctx context.Context, weekStart slottime.Date, reason string) (scheduling.Week, error) {
	key := weekStart.String()
	start := time.Now()
	attrs := metric.WithAttributes(attribute.String("reason", reason))

	ctx, span := observability.Tracer().Start(ctx, "weeks.load",
		trace.WithAttributes(attribute.String("week_start", key), attribute.String("reason", reason)))
	defer span.End()

	week, err := p.load(ctx, weekStart)
	p.loads.Add(ctx, 1, attrs)
	p.latency.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)
	if err != nil {
		p.failures.Add(ctx, 1, attrs)
		span.RecordError(err)
		slog.Error("weeks: load failed", "week_start", key, "reason", reason, "err", err)
		return scheduling.Week{}, err
	}

	p.mu.Lock()
	p.cache.Add(key, week)
	p.mu.Unlock()
	return week, nil
}

// EnsureWeekLoaded returns the cached week containing weekStart, loading it
// first when absent. weekStart is normalised to its Sunday.
func (p *Pager) EnsureWeekLoaded(ctx context.Context, weekStart slottime.Date) (scheduling.Week, error) {
	weekStart = slottime.WeekStart(weekStart)

	p.mu.Lock()
	week, ok := p.cache.Get(weekStart.String())
	p.mu.Unlock()
	if ok {
		return week, nil
	}

	// Concurrent first reads of the same week share one load. It outlives
	// any single caller's cancellation; each caller still stops waiting when
	// its own ctx is done.
	ch := p.flight.DoChan(weekStart.String(), func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.loadTimeout)
		defer cancel()
		return p.fetch(lctx, weekStart, "ensure")
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return scheduling.Week{}, res.Err
		}
		return res.Val.(scheduling.Week), nil
	case <-ctx.Done():
		return scheduling.Week{}, ctx.Err()
	}
}

// Invalidate re-resolves the week and overwrites the cached copy. It never
// joins an in-flight load, so the result reflects writes committed before
// the call.
func (p *Pager) Invalidate(ctx context.Context, weekStart slottime.Date) (scheduling.Week, error) {
	return p.fetch(ctx, slottime.WeekStart(weekStart), "invalidate")
}

// Start seeds the ordered list with the current week when it is empty.
func (p *Pager) Start(ctx context.Context) (scheduling.Week, error) {
	return p.StartAt(ctx, p.today())
}

// StartAt seeds the ordered list with the week containing d when it is empty
// and returns the first listed week.
func (p *Pager) StartAt(ctx context.Context, d slottime.Date) (scheduling.Week, error) {
	current := slottime.WeekStart(d)

	p.mu.Lock()
	if len(p.order) == 0 {
		p.order = append(p.order, current)
	} else {
		current = p.order[0]
	}
	p.mu.Unlock()

	return p.EnsureWeekLoaded(ctx, current)
}

// AppendNextWeek appends the week after the latest listed one (or the current
// week when the list is empty) and loads it. The week stays listed even if the
// load fails; reading it later retries.
func (p *Pager) AppendNextWeek(ctx context.Context) (scheduling.Week, error) {
	p.mu.Lock()
	var next slottime.Date
	if n := len(p.order); n > 0 {
		next = p.order[n-1].AddDays(7)
	} else {
		next = slottime.WeekStart(p.today())
	}
	p.order = append(p.order, next)
	p.mu.Unlock()

	return p.EnsureWeekLoaded(ctx, next)
}

// RefreshAll re-resolves every listed or cached week concurrently. Each
// refresh is independent; failures are joined and do not stop the others.
func (p *Pager) RefreshAll(ctx context.Context) error {
	targets := p.loadedStarts()

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	for _, ws := range targets {
		g.Go(func() error {
			if _, err := p.fetch(ctx, ws, "refresh"); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("refresh week %s: %w", ws, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

// loadedStarts returns the listed weeks in order followed by any other cached
// week, without duplicates.
func (p *Pager) loadedStarts() []slottime.Date {
	p.mu.Lock()
	defer p.mu.Unlock()

	seen := make(map[string]struct{}, len(p.order))
	out := make([]slottime.Date, 0, len(p.order)+p.cache.Len())
	for _, ws := range p.order {
		if _, dup := seen[ws.String()]; dup {
			continue
		}
		seen[ws.String()] = struct{}{}
		out = append(out, ws)
	}
	for _, key := range p.cache.Keys() {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, slottime.MustParseDate(key))
	}
	return out
}

// Listed returns the ordered week starts the caller has paged through.
func (p *Pager) Listed() []slottime.Date {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]slottime.Date(nil), p.order...)
}

// Week returns the cached week for weekStart without loading.
func (p *Pager) Week(weekStart slottime.Date) (scheduling.Week, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cache.Peek(slottime.WeekStart(weekStart).String())
}

// Weeks returns the listed weeks in order, reloading any that were evicted.
// The first failure aborts; no partial week is returned.
func (p *Pager) Weeks(ctx context.Context) ([]scheduling.Week, error) {
	starts := p.Listed()
	out := make([]scheduling.Week, 0, len(starts))
	for _, ws := range starts {
		w, err := p.EnsureWeekLoaded(ctx, ws)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}
