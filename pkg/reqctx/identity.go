package reqctx

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Identity is the verified caller of a request. Its owner id scopes every
// schedule row the caller can read or change.
type Identity interface {
	OwnerID() uuid.UUID
	Expired(now time.Time) bool
}

// WithIdentity attaches the verified caller to ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, keyIdentity, id)
}

func identityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(keyIdentity).(Identity)
	return id, ok && id != nil
}

// OwnerIDFromContext returns the schedule owner of the caller. It reports
// false when ctx carries no identity, the identity has expired, or its owner
// id is empty.
func OwnerIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := identityFromContext(ctx)
	if !ok || id.Expired(time.Now()) {
		return uuid.Nil, false
	}
	owner := id.OwnerID()
	return owner, owner != uuid.Nil
}
