package feed

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/simorq_scheduler/internal/service/scheduling"
	"github.com/Alijeyrad/simorq_scheduler/internal/store"
	"github.com/Alijeyrad/simorq_scheduler/internal/store/memstore"
	"github.com/Alijeyrad/simorq_scheduler/pkg/slottime"
)

var (
	jan7  = slottime.MustParseDate("2024-01-07")
	stamp = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
)

func monday() store.RecurringPattern {
	return store.RecurringPattern{
		ID:        uuid.New(),
		OwnerID:   uuid.New(),
		DayOfWeek: time.Monday,
		StartTime: slottime.MustParseClock("09:00"),
		EndTime:   slottime.MustParseClock("10:00"),
	}
}

func exception(p store.RecurringPattern, date string, kind store.ExceptionKind, times ...string) store.Exception {
	e := store.Exception{
		ID:                 uuid.New(),
		RecurringPatternID: p.ID,
		ExceptionDate:      slottime.MustParseDate(date),
		Kind:               kind,
	}
	if len(times) == 2 {
		e.StartTime = slottime.MustParseClock(times[0])
		e.EndTime = slottime.MustParseClock(times[1])
	}
	return e
}

func TestBuild_RecurringEvent(t *testing.T) {
	p := monday()

	cal, err := Build([]store.RecurringPattern{p}, nil, jan7, 3, stamp)
	require.NoError(t, err)

	out := cal.Serialize()
	assert.Contains(t, out, "PRODID:"+productID)
	assert.Contains(t, out, "UID:"+p.ID.String()+"@"+uidDomain)
	assert.Contains(t, out, "DTSTART:20240108T090000")
	assert.Contains(t, out, "DTEND:20240108T100000")
	assert.Contains(t, out, "FREQ=WEEKLY")
	assert.Contains(t, out, "COUNT=3")
	assert.Contains(t, out, "SUMMARY:9:00 AM - 10:00 AM")
	assert.NotContains(t, out, "EXDATE")
	assert.Len(t, cal.Events(), 1)
}

func TestBuild_ExceptionsBecomeExdateAndOverride(t *testing.T) {
	p := monday()
	excs := []store.Exception{
		exception(p, "2024-01-15", store.KindCancelled),
		exception(p, "2024-01-22", store.KindModified, "14:00", "15:00"),
		exception(p, "2024-02-19", store.KindCancelled), // beyond the window
	}

	cal, err := Build([]store.RecurringPattern{p}, excs, jan7, 3, stamp)
	require.NoError(t, err)

	out := cal.Serialize()
	assert.Contains(t, out, "EXDATE:20240115T090000")
	assert.NotContains(t, out, "20240219")
	assert.Contains(t, out, "RECURRENCE-ID:20240122T090000")
	assert.Contains(t, out, "DTSTART:20240122T140000")
	assert.Contains(t, out, "DTEND:20240122T150000")
	assert.Contains(t, out, "(modified)")

	parsed, err := ical.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	assert.Len(t, parsed.Events(), 2)
}

func TestBuild_CancelWinsOverModify(t *testing.T) {
	p := monday()
	excs := []store.Exception{
		exception(p, "2024-01-08", store.KindModified, "14:00", "15:00"),
		exception(p, "2024-01-08", store.KindCancelled),
	}

	cal, err := Build([]store.RecurringPattern{p}, excs, jan7, 1, stamp)
	require.NoError(t, err)

	out := cal.Serialize()
	assert.Contains(t, out, "EXDATE:20240108T090000")
	assert.NotContains(t, out, "RECURRENCE-ID")
}

func TestBuild_SundayPatternStartsOnFirstDay(t *testing.T) {
	p := monday()
	p.DayOfWeek = time.Sunday

	cal, err := Build([]store.RecurringPattern{p}, nil, jan7, 1, stamp)
	require.NoError(t, err)
	assert.Contains(t, cal.Serialize(), "DTSTART:20240107T090000")
}

func TestCalendar(t *testing.T) {
	db := memstore.New()
	owner := uuid.New()
	ctx := context.Background()

	p, err := db.InsertPattern(ctx, store.RecurringPattern{
		OwnerID:   owner,
		DayOfWeek: time.Wednesday,
		StartTime: slottime.MustParseClock("13:00"),
		EndTime:   slottime.MustParseClock("14:30"),
	})
	require.NoError(t, err)

	svc := New(db)

	t.Run("normalises start and defaults weeks", func(t *testing.T) {
		cal, err := svc.Calendar(ctx, owner, slottime.MustParseDate("2024-01-09"), 0)
		require.NoError(t, err)
		out := cal.Serialize()
		assert.Contains(t, out, "DTSTART:20240110T130000")
		assert.Contains(t, out, "COUNT=12")
		assert.Contains(t, out, p.ID.String())
	})

	t.Run("other owner sees nothing", func(t *testing.T) {
		cal, err := svc.Calendar(ctx, uuid.New(), jan7, 2)
		require.NoError(t, err)
		assert.Empty(t, cal.Events())
	})

	t.Run("too many weeks", func(t *testing.T) {
		_, err := svc.Calendar(ctx, owner, jan7, MaxWeeks+1)
		assert.True(t, scheduling.IsValidation(err))
	})

	t.Run("store failure", func(t *testing.T) {
		db.Err = errors.New("down")
		defer func() { db.Err = nil }()

		_, err := svc.Calendar(ctx, owner, jan7, 2)
		assert.True(t, scheduling.IsDataAccess(err))
	})
}
