package middleware

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	pasetotoken "github.com/Alijeyrad/simorq_scheduler/pkg/paseto"
	"github.com/Alijeyrad/simorq_scheduler/pkg/reqctx"
)

// SessionChecker reports whether a token's session is still live.
type SessionChecker interface {
	Active(ctx context.Context, sessionID uuid.UUID) (bool, error)
}

// AuthRequired validates a Bearer PASETO access token and, when sessions is
// non-nil, checks the token's session. On success the claims become the
// request context's identity, which services read the schedule owner from.
func AuthRequired(mgr *pasetotoken.Manager, sessions SessionChecker) fiber.Handler {
	return func(c fiber.Ctx) error {
		h := c.Get("Authorization")
		if h == "" {
			return fiber.ErrUnauthorized
		}

		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.ErrUnauthorized
		}

		claims, err := mgr.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			return fiber.ErrUnauthorized
		}

		if sessions != nil && claims.SessionID != nil {
			active, err := sessions.Active(c.Context(), *claims.SessionID)
			if err != nil {
				slog.Warn("auth: session lookup failed", "session_id", claims.SessionID.String(), "err", err)
				return fiber.ErrUnauthorized
			}
			if !active {
				return fiber.ErrUnauthorized
			}
		}

		c.SetContext(reqctx.WithIdentity(c.Context(), claims))
		return c.Next()
	}
}
