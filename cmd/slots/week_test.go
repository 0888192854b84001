package slots

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Alijeyrad/simorq_scheduler/internal/service/scheduling"
	"github.com/Alijeyrad/simorq_scheduler/internal/store"
	"github.com/Alijeyrad/simorq_scheduler/pkg/slottime"
)

func TestRenderWeek(t *testing.T) {
	start := slottime.NewDate(2024, time.January, 7)
	p := store.RecurringPattern{
		ID:        store.NewID(),
		DayOfWeek: time.Monday,
		StartTime: slottime.MustParseClock("09:00"),
		EndTime:   slottime.MustParseClock("10:00"),
	}
	w := scheduling.ResolveWeek([]store.RecurringPattern{p}, nil, start)

	var buf bytes.Buffer
	renderWeek(&buf, w, start.AddDays(1))
	out := buf.String()

	assert.Contains(t, out, "Week of January 7, 2024")
	assert.Contains(t, out, "9:00 AM")
	assert.Contains(t, out, "10:00 AM")
	assert.Contains(t, out, "Monday *")
	assert.Contains(t, out, "2024-01-13")
}
