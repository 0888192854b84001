package middleware

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pasetotoken "github.com/Alijeyrad/simorq_scheduler/pkg/paseto"
	"github.com/Alijeyrad/simorq_scheduler/pkg/reqctx"
)

type fakeSessions struct {
	live map[uuid.UUID]bool
	err  error
}

func (f fakeSessions) Active(_ context.Context, id uuid.UUID) (bool, error) {
	return f.live[id], f.err
}

func testManager(t *testing.T) *pasetotoken.Manager {
	t.Helper()
	keys, err := pasetotoken.GenerateKeys(pasetotoken.ModeLocal)
	require.NoError(t, err)
	mgr, err := pasetotoken.New(pasetotoken.Config{
		Mode:      keys.Mode,
		Issuer:    "simorq",
		Audience:  "scheduler",
		AccessTTL: time.Minute,
	}, keys)
	require.NoError(t, err)
	return mgr
}

func whoAmIApp(mgr *pasetotoken.Manager, sessions SessionChecker) *fiber.App {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/me", AuthRequired(mgr, sessions), func(c fiber.Ctx) error {
		id, ok := reqctx.OwnerIDFromContext(c.Context())
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.SendString(id.String())
	})
	return app
}

func TestAuthRequired(t *testing.T) {
	mgr := testManager(t)
	owner := uuid.New()
	live, dead := uuid.New(), uuid.New()
	sessions := fakeSessions{live: map[uuid.UUID]bool{live: true}}

	withSession := func(sid uuid.UUID) string {
		tok, err := mgr.IssueAccess(owner, &sid)
		require.NoError(t, err)
		return "Bearer " + tok
	}
	noSession, err := mgr.IssueAccess(owner, nil)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		sessions   SessionChecker
		wantStatus int
	}{
		{"missing header", "", sessions, fiber.StatusUnauthorized},
		{"wrong scheme", "Basic abc", sessions, fiber.StatusUnauthorized},
		{"garbage token", "Bearer nope", sessions, fiber.StatusUnauthorized},
		{"live session", withSession(live), sessions, fiber.StatusOK},
		{"dead session", withSession(dead), sessions, fiber.StatusUnauthorized},
		{"session store down", withSession(live), fakeSessions{err: errors.New("down")}, fiber.StatusUnauthorized},
		{"no session claim", "Bearer " + noSession, sessions, fiber.StatusOK},
		{"sessions disabled", withSession(dead), nil, fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, err := whoAmIApp(mgr, tt.sessions).Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantStatus == fiber.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				assert.Equal(t, owner.String(), string(body))
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString(reqctx.RequestIDFromContext(c.Context()))
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "abc-123", string(body))
	assert.Equal(t, "abc-123", resp.Header.Get(HeaderRequestID))

	resp, err = app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get(HeaderRequestID))
}

func TestNewLimiter_InMemory(t *testing.T) {
	app := fiber.New()
	app.Use(NewLimiter(nil, 2))
	app.Get("/", func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	var last int
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		last = resp.StatusCode
	}
	assert.Equal(t, fiber.StatusTooManyRequests, last)
}
