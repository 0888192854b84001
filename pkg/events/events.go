// Package events publishes scheduler domain events on NATS.
package events

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// SubjectPrefix is the root of every scheduler subject.
const SubjectPrefix = "scheduler"

const (
	PatternCreated     = "pattern.created"
	PatternDeleted     = "pattern.deleted"
	ExceptionModified  = "exception.modified"
	ExceptionCancelled = "exception.cancelled"
	ExceptionRestored  = "exception.restored"
)

// Publisher is satisfied by *nats.Conn.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Subject builds "scheduler.<event>.<ownerID>".
func Subject(event string, ownerID uuid.UUID) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, event, ownerID.String())
}

// Emitter publishes best-effort events. A nil Emitter or nil publisher is a no-op.
type Emitter struct {
	pub Publisher
}

func NewEmitter(pub Publisher) *Emitter {
	return &Emitter{pub: pub}
}

// Emit publishes the entity id on the event subject. Failures are logged, not returned.
func (e *Emitter) Emit(event string, ownerID, entityID uuid.UUID) {
	if e == nil || e.pub == nil {
		return
	}
	subject := Subject(event, ownerID)
	if err := e.pub.Publish(subject, []byte(entityID.String())); err != nil {
		slog.Warn("events: publish failed", "subject", subject, "err", err)
	}
}

// Connect dials NATS. An empty url disables events and returns nil.
func Connect(url string) (*nats.Conn, error) {
	if url == "" {
		return nil, nil
	}
	nc, err := nats.Connect(url, nats.Name("simorq-scheduler"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return nc, nil
}
