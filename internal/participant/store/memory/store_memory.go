// Package memory provides the in-memory participant store used in tests and
// single-node deployments.
package memory

import (
	"context"
	"sync"

	"reentry/internal/participant/models"
	id "reentry/pkg/domain"
	"reentry/pkg/platform/sentinel"
)

// subscriberBuffer bounds each subscription channel; a subscriber that stops
// draining misses intermediate snapshots rather than blocking writers.
const subscriberBuffer = 8

type InMemory struct {
	mu          sync.RWMutex
	records     map[id.ParticipantID]*models.Participant
	subscribers map[id.ParticipantID][]chan *models.Participant
}

func NewInMemory() *InMemory {
	return &InMemory{
		records:     make(map[id.ParticipantID]*models.Participant),
		subscribers: make(map[id.ParticipantID][]chan *models.Participant),
	}
}

func (s *InMemory) Create(_ context.Context, p *models.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[p.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	p.Version = 1
	s.records[p.ID] = p.Clone()
	return nil
}

func (s *InMemory) Get(_ context.Context, participantID id.ParticipantID) (*models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.records[participantID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return p.Clone(), nil
}

func (s *InMemory) Update(_ context.Context, p *models.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.records[p.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Version != p.Version {
		return sentinel.ErrConflict
	}
	p.Version++
	s.records[p.ID] = p.Clone()
	s.notifyLocked(p.ID, p.Clone())
	return nil
}

func (s *InMemory) Delete(_ context.Context, participantID id.ParticipantID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[participantID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.records, participantID)
	for _, ch := range s.subscribers[participantID] {
		close(ch)
	}
	delete(s.subscribers, participantID)
	return nil
}

func (s *InMemory) List(_ context.Context) ([]*models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Participant, 0, len(s.records))
	for _, p := range s.records {
		out = append(out, p.Clone())
	}
	return out, nil
}

func (s *InMemory) Subscribe(ctx context.Context, participantID id.ParticipantID) (<-chan *models.Participant, error) {
	s.mu.Lock()
	if _, ok := s.records[participantID]; !ok {
		s.mu.Unlock()
		return nil, sentinel.ErrNotFound
	}
	ch := make(chan *models.Participant, subscriberBuffer)
	s.subscribers[participantID] = append(s.subscribers[participantID], ch)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		subs := s.subscribers[participantID]
		for i, sub := range subs {
			if sub == ch {
				s.subscribers[participantID] = append(subs[:i], subs[i+1:]...)
				close(ch)
				break
			}
		}
	}()

	return ch, nil
}

func (s *InMemory) notifyLocked(participantID id.ParticipantID, snapshot *models.Participant) {
	for _, ch := range s.subscribers[participantID] {
		select {
		case ch <- snapshot:
		default:
			// Slow subscriber: drop the intermediate snapshot.
		}
	}
}
