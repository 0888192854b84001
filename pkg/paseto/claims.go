package pasetotoken

import (
	"time"

	"github.com/google/uuid"
)

// accessTokenType is the only "typ" the scheduler issues or accepts.
const accessTokenType = "access"

// Claims are the verified contents of an access token. They satisfy
// reqctx.Identity, so the middleware stores them on the request context as-is.
type Claims struct {
	// UserID is the token subject and owns the schedule rows.
	UserID uuid.UUID
	// SessionID is set when the token was issued against a Redis session.
	SessionID *uuid.UUID
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func (c *Claims) OwnerID() uuid.UUID { return c.UserID }

func (c *Claims) Expired(now time.Time) bool { return now.After(c.ExpiresAt) }
