package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/simorq_scheduler/internal/service/feed"
	"github.com/Alijeyrad/simorq_scheduler/internal/service/scheduling"
	"github.com/Alijeyrad/simorq_scheduler/internal/service/weeks"
	"github.com/Alijeyrad/simorq_scheduler/internal/store/memstore"
	pasetotoken "github.com/Alijeyrad/simorq_scheduler/pkg/paseto"
	"github.com/Alijeyrad/simorq_scheduler/pkg/reqctx"
	"github.com/Alijeyrad/simorq_scheduler/pkg/slottime"
)

const testUserHeader = "X-Test-User"

type testEnv struct {
	app *fiber.App
	db  *memstore.Store
}

// newTestEnv wires the handler against an in-memory store. Requests carrying
// X-Test-User are treated as authenticated as that user.
func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	db := memstore.New()
	svc := scheduling.New(db, nil)
	reg, err := weeks.NewRegistry(svc, 0, 0)
	require.NoError(t, err)

	h := NewScheduleHandler(svc, reg, feed.New(db), ScheduleOptions{MaxSlotsPerDay: 2})
	h.today = func() slottime.Date { return slottime.NewDate(2024, time.January, 10) }

	app := fiber.New()
	app.Use(func(c fiber.Ctx) error {
		if id, err := uuid.Parse(c.Get(testUserHeader)); err == nil {
			c.SetContext(reqctx.WithIdentity(c.Context(), &pasetotoken.Claims{
				UserID:    id,
				ExpiresAt: time.Now().Add(time.Hour),
			}))
		}
		return c.Next()
	})

	s := app.Group("/schedule")
	s.Get("/patterns", h.ListPatterns)
	s.Post("/patterns", h.CreatePattern)
	s.Delete("/patterns/:id", h.DeletePattern)
	s.Put("/patterns/:id/occurrences/:date", h.ModifyOccurrence)
	s.Delete("/patterns/:id/occurrences/:date", h.CancelOccurrence)
	s.Post("/patterns/:id/occurrences/:date/restore", h.RestoreOccurrence)
	s.Get("/weeks", h.ListWeeks)
	s.Post("/weeks/next", h.NextWeek)
	s.Get("/weeks/:start", h.GetWeek)
	s.Get("/feed.ics", h.Feed)

	return testEnv{app: app, db: db}
}

func (e testEnv) do(t *testing.T, user uuid.UUID, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != uuid.Nil {
		req.Header.Set(testUserHeader, user.String())
	}
	resp, err := e.app.Test(req)
	require.NoError(t, err)
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func decodeData[T any](t *testing.T, body []byte) T {
	t.Helper()
	var env struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	return env.Data
}

func decodeError(t *testing.T, body []byte) apiError {
	t.Helper()
	var env struct {
		Error apiError `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	return env.Error
}

func (e testEnv) createPattern(t *testing.T, user uuid.UUID, body map[string]any) patternView {
	t.Helper()
	resp, out := e.do(t, user, "POST", "/schedule/patterns", body)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(out))
	return decodeData[patternView](t, out)
}

func monday9(date string) map[string]any {
	return map[string]any{"date": date, "start_time": "09:00", "end_time": "10:00"}
}

func TestCreatePattern(t *testing.T) {
	env := newTestEnv(t)
	user := uuid.New()

	p := env.createPattern(t, user, monday9("2024-01-08"))
	assert.Equal(t, int(time.Monday), p.DayOfWeek)
	assert.Equal(t, "09:00", p.StartTime)
	assert.Equal(t, "9:00 AM", p.StartDisplay)
	assert.Equal(t, "10:00 AM", p.EndDisplay)

	p = env.createPattern(t, user, map[string]any{"day_of_week": 3, "start_time": "14:30", "end_time": "15:00"})
	assert.Equal(t, "Wednesday", p.Weekday)

	resp, out := env.do(t, user, "GET", "/schedule/patterns", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, decodeData[[]patternView](t, out), 2)
}

func TestCreatePattern_Rejects(t *testing.T) {
	env := newTestEnv(t)
	user := uuid.New()

	tests := []struct {
		name   string
		user   uuid.UUID
		body   map[string]any
		status int
	}{
		{"no identity", uuid.Nil, monday9("2024-01-08"), fiber.StatusUnauthorized},
		{"no day", user, map[string]any{"start_time": "09:00", "end_time": "10:00"}, fiber.StatusBadRequest},
		{"bad date", user, monday9("2024-13-40"), fiber.StatusBadRequest},
		{"end before start", user, map[string]any{"date": "2024-01-08", "start_time": "10:00", "end_time": "09:00"}, fiber.StatusBadRequest},
		{"equal times", user, map[string]any{"date": "2024-01-08", "start_time": "10:00", "end_time": "10:00"}, fiber.StatusBadRequest},
		{"missing end", user, map[string]any{"date": "2024-01-08", "start_time": "10:00"}, fiber.StatusBadRequest},
		{"bad weekday", user, map[string]any{"day_of_week": 9, "start_time": "09:00", "end_time": "10:00"}, fiber.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, out := env.do(t, tt.user, "POST", "/schedule/patterns", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, string(out))
			assert.NotEmpty(t, decodeError(t, out).Code)
		})
	}

	_, out := env.do(t, user, "GET", "/schedule/patterns", nil)
	assert.Empty(t, decodeData[[]patternView](t, out))
}

func TestCreatePattern_CapacityConflict(t *testing.T) {
	env := newTestEnv(t)
	user := uuid.New()

	env.createPattern(t, user, monday9("2024-01-08"))
	env.createPattern(t, user, map[string]any{"date": "2024-01-08", "start_time": "11:00", "end_time": "12:00"})

	resp, out := env.do(t, user, "POST", "/schedule/patterns",
		map[string]any{"date": "2024-01-08", "start_time": "13:00", "end_time": "14:00"})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	apiErr := decodeError(t, out)
	assert.Equal(t, codeCapacityExceeded, apiErr.Code)
	assert.Contains(t, apiErr.Message, "maximum 2 slots per day")

	// Another user's day is unaffected.
	env.createPattern(t, uuid.New(), map[string]any{"date": "2024-01-08", "start_time": "13:00", "end_time": "14:00"})
}

func TestCreatePattern_CapacityByWeekday(t *testing.T) {
	env := newTestEnv(t)
	user := uuid.New()
	body := func(start, end string) map[string]any {
		return map[string]any{"day_of_week": int(time.Monday), "start_time": start, "end_time": end}
	}

	env.createPattern(t, user, body("09:00", "10:00"))
	env.createPattern(t, user, body("11:00", "12:00"))

	resp, out := env.do(t, user, "POST", "/schedule/patterns", body("13:00", "14:00"))
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode, string(out))

	// A date-based create for the same Monday hits the same cap.
	resp, _ = env.do(t, user, "POST", "/schedule/patterns", monday9("2024-01-08"))
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, out = env.do(t, user, "GET", "/schedule/weeks/2024-01-07", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	week := decodeData[weekView](t, out)
	for _, d := range week.Days {
		if d.Date == "2024-01-08" {
			assert.Len(t, d.Slots, 2)
		}
	}

	// Tuesday still has room.
	env.createPattern(t, user, map[string]any{"day_of_week": int(time.Tuesday), "start_time": "13:00", "end_time": "14:00"})
}

func TestOccurrenceLifecycle_RefreshesWeeks(t *testing.T) {
	env := newTestEnv(t)
	user := uuid.New()
	p := env.createPattern(t, user, monday9("2024-01-08"))
	base := "/schedule/patterns/" + p.ID.String() + "/occurrences/2024-01-08"

	monday := func() []occurrenceView {
		resp, out := env.do(t, user, "GET", "/schedule/weeks/2024-01-07", nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		w := decodeData[weekView](t, out)
		require.Len(t, w.Days, 7)
		return w.Days[1].Slots
	}

	slots := monday()
	require.Len(t, slots, 1)
	assert.Equal(t, p.ID, slots[0].ID)
	assert.False(t, slots[0].IsModified)

	resp, out := env.do(t, user, "PUT", base, map[string]string{"start_time": "13:00", "end_time": "14:30"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(out))
	exc := decodeData[exceptionView](t, out)
	assert.Equal(t, "modified", exc.Kind)

	slots = monday()
	require.Len(t, slots, 1)
	assert.Equal(t, exc.ID, slots[0].ID)
	assert.True(t, slots[0].IsModified)
	assert.Equal(t, "1:00 PM", slots[0].StartDisplay)
	assert.Equal(t, p.ID, slots[0].SourcePatternID)

	resp, out = env.do(t, user, "DELETE", base, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(out))
	assert.Equal(t, "deleted", decodeData[exceptionView](t, out).Kind)
	assert.Empty(t, monday())

	resp, _ = env.do(t, user, "POST", base+"/restore", nil)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Len(t, monday(), 1)

	resp, _ = env.do(t, user, "POST", base+"/restore", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestOccurrence_Errors(t *testing.T) {
	env := newTestEnv(t)
	owner, other := uuid.New(), uuid.New()
	p := env.createPattern(t, owner, monday9("2024-01-08"))

	tests := []struct {
		name   string
		user   uuid.UUID
		method string
		path   string
		body   any
		status int
	}{
		{"bad pattern id", owner, "DELETE", "/schedule/patterns/nope/occurrences/2024-01-08", nil, fiber.StatusBadRequest},
		{"bad date", owner, "DELETE", "/schedule/patterns/" + p.ID.String() + "/occurrences/jan-8", nil, fiber.StatusBadRequest},
		{"unknown pattern", owner, "DELETE", "/schedule/patterns/" + uuid.NewString() + "/occurrences/2024-01-08", nil, fiber.StatusNotFound},
		{"other owner", other, "DELETE", "/schedule/patterns/" + p.ID.String() + "/occurrences/2024-01-08", nil, fiber.StatusNotFound},
		{"anonymous", uuid.Nil, "DELETE", "/schedule/patterns/" + p.ID.String() + "/occurrences/2024-01-08", nil, fiber.StatusUnauthorized},
		{"modify inverted", owner, "PUT", "/schedule/patterns/" + p.ID.String() + "/occurrences/2024-01-08",
			map[string]string{"start_time": "15:00", "end_time": "14:00"}, fiber.StatusBadRequest},
		{"delete other owner", other, "DELETE", "/schedule/patterns/" + p.ID.String(), nil, fiber.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, out := env.do(t, tt.user, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, string(out))
		})
	}
	assert.Equal(t, 0, env.db.ExceptionCount())
}

func TestDeletePattern_RemovesFromWeeks(t *testing.T) {
	env := newTestEnv(t)
	user := uuid.New()
	p := env.createPattern(t, user, monday9("2024-01-08"))

	resp, _ := env.do(t, user, "DELETE", "/schedule/patterns/"+p.ID.String()+"/occurrences/2024-01-15", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, user, "DELETE", "/schedule/patterns/"+p.ID.String(), nil)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 0, env.db.ExceptionCount())

	_, out := env.do(t, user, "GET", "/schedule/weeks/2024-01-07", nil)
	assert.Empty(t, decodeData[weekView](t, out).Days[1].Slots)
}

func TestWeeksPaging(t *testing.T) {
	env := newTestEnv(t)
	user := uuid.New()
	env.createPattern(t, user, monday9("2024-01-08"))

	resp, out := env.do(t, user, "GET", "/schedule/weeks", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	list := decodeData[[]weekView](t, out)
	require.Len(t, list, 1)
	assert.Equal(t, "2024-01-07", list[0].WeekStart)
	assert.Equal(t, "Week of January 7, 2024", list[0].Label)
	assert.True(t, list[0].Days[3].IsToday)
	assert.Equal(t, "Sunday", list[0].Days[0].Weekday)

	resp, out = env.do(t, user, "POST", "/schedule/weeks/next", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "2024-01-14", decodeData[weekView](t, out).WeekStart)

	_, out = env.do(t, user, "GET", "/schedule/weeks", nil)
	list = decodeData[[]weekView](t, out)
	require.Len(t, list, 2)
	assert.Equal(t, "2024-01-14", list[1].WeekStart)
	assert.Len(t, list[1].Days[1].Slots, 1)
}

func TestGetWeek_NormalisesToSunday(t *testing.T) {
	env := newTestEnv(t)
	user := uuid.New()

	resp, out := env.do(t, user, "GET", "/schedule/weeks/2024-01-10", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "2024-01-07", decodeData[weekView](t, out).WeekStart)
}

func TestWeeks_StoreFailure(t *testing.T) {
	env := newTestEnv(t)
	env.db.Err = errors.New("connection refused")

	resp, out := env.do(t, uuid.New(), "GET", "/schedule/weeks/2024-01-07", nil)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.NotContains(t, string(out), "connection refused")
	assert.Equal(t, codeInternal, decodeError(t, out).Code)
}

func TestFeed(t *testing.T) {
	env := newTestEnv(t)
	user := uuid.New()
	p := env.createPattern(t, user, monday9("2024-01-08"))
	env.do(t, user, "DELETE", "/schedule/patterns/"+p.ID.String()+"/occurrences/2024-01-15", nil)

	resp, out := env.do(t, user, "GET", "/schedule/feed.ics?from=2024-01-07&weeks=4", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(out))
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/calendar"))

	body := string(out)
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "FREQ=WEEKLY")
	assert.Contains(t, body, "COUNT=4")
	assert.Contains(t, body, "EXDATE")

	resp, _ = env.do(t, user, "GET", "/schedule/feed.ics?weeks=zero", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	resp, _ = env.do(t, user, "GET", "/schedule/feed.ics?weeks=500", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	resp, _ = env.do(t, uuid.Nil, "GET", "/schedule/feed.ics", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
