package middleware

import (
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/simorq_scheduler/pkg/reqctx"
)

const HeaderRequestID = "X-Request-Id"

// RequestID keeps an incoming request id or generates one, echoes it back, and
// attaches the request metadata to the request context.
func RequestID() fiber.Handler {
	return func(c fiber.Ctx) error {
		rid := c.Get(HeaderRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}

		c.Set(HeaderRequestID, rid)

		c.SetContext(reqctx.WithRequestMeta(c.Context(), reqctx.RequestMeta{
			RequestID: rid,
			ClientIP:  c.IP(),
		}))

		return c.Next()
	}
}
