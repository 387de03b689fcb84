// Package domain holds typed identifiers shared across the service. Distinct
// ID types keep a ParticipantID from ever being passed where a TaskID belongs;
// the compiler enforces what a string id never could.
package domain

import (
	"github.com/google/uuid"

	dErrors "reentry/pkg/domain-errors"
)

// ParticipantID identifies a participant record in the document store.
type ParticipantID uuid.UUID

// TaskID identifies a guidance task.
type TaskID uuid.UUID

// NewParticipantID returns a fresh random participant id.
func NewParticipantID() ParticipantID {
	return ParticipantID(uuid.New())
}

// NewTaskID returns a fresh random task id.
func NewTaskID() TaskID {
	return TaskID(uuid.New())
}

// ParseParticipantID validates an id at a trust boundary. Empty, malformed
// and nil UUIDs are rejected.
func ParseParticipantID(s string) (ParticipantID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return ParticipantID{}, err
	}
	return ParticipantID(u), nil
}

// ParseTaskID validates a task id at a trust boundary.
func ParseTaskID(s string) (TaskID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return TaskID{}, err
	}
	return TaskID(u), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}

func (p ParticipantID) String() string { return uuid.UUID(p).String() }
func (t TaskID) String() string        { return uuid.UUID(t).String() }

// IsNil reports whether the id is the zero value.
func (p ParticipantID) IsNil() bool { return uuid.UUID(p) == uuid.Nil }

// IsNil reports whether the id is the zero value.
func (t TaskID) IsNil() bool { return uuid.UUID(t) == uuid.Nil }

// MarshalText implements encoding.TextMarshaler so IDs serialize as their
// canonical UUID string in JSON documents.
func (p ParticipantID) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText accepts the canonical UUID string form.
func (p *ParticipantID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*p = ParticipantID(u)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (t TaskID) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText accepts the canonical UUID string form.
func (t *TaskID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*t = TaskID(u)
	return nil
}
