package events

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	subject string
	data    []byte
	err     error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	f.subject, f.data = subject, data
	return f.err
}

func TestSubject(t *testing.T) {
	owner := uuid.MustParse("0190c0de-0000-7000-8000-000000000001")
	assert.Equal(t, "scheduler.pattern.created.0190c0de-0000-7000-8000-000000000001", Subject(PatternCreated, owner))
}

func TestEmit(t *testing.T) {
	pub := &fakePublisher{}
	owner, entity := uuid.New(), uuid.New()

	NewEmitter(pub).Emit(ExceptionCancelled, owner, entity)
	assert.Equal(t, Subject(ExceptionCancelled, owner), pub.subject)
	assert.Equal(t, entity.String(), string(pub.data))
}

func TestEmit_BestEffort(t *testing.T) {
	assert.NotPanics(t, func() {
		NewEmitter(&fakePublisher{err: errors.New("no responders")}).Emit(PatternDeleted, uuid.New(), uuid.New())
	})

	var nilEmitter *Emitter
	assert.NotPanics(t, func() { nilEmitter.Emit(PatternDeleted, uuid.New(), uuid.New()) })
	assert.NotPanics(t, func() { NewEmitter(nil).Emit(PatternDeleted, uuid.New(), uuid.New()) })
}

func TestConnect_EmptyURLDisables(t *testing.T) {
	nc, err := Connect("")
	require.NoError(t, err)
	assert.Nil(t, nc)
}
