package audit

import (
	"context"
	"sync"
)

// Store is an append-only sink for audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByParticipant(ctx context.Context, participantID string) ([]Event, error)
}

// MemoryStore keeps events in memory. Useful for tests and single-process
// deployments.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *MemoryStore) ListByParticipant(_ context.Context, participantID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, event := range s.events {
		if event.ParticipantID == participantID {
			out = append(out, event)
		}
	}
	return out, nil
}

// All returns every stored event in emission order.
func (s *MemoryStore) All() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
