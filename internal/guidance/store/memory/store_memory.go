// Package memory provides an in-memory guidance task store for tests and
// single-process deployments.
package memory

import (
	"context"
	"sort"
	"sync"

	"reentry/internal/guidance/models"
	id "reentry/pkg/domain"
	"reentry/pkg/platform/sentinel"
)

type InMemory struct {
	mu    sync.RWMutex
	tasks map[id.TaskID]*models.Task
}

func New() *InMemory {
	return &InMemory{tasks: make(map[id.TaskID]*models.Task)}
}

func (s *InMemory) Create(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	s.tasks[task.ID] = task.Clone()
	return nil
}

func (s *InMemory) Get(_ context.Context, taskID id.TaskID) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return task.Clone(), nil
}

func (s *InMemory) Update(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.tasks[task.ID] = task.Clone()
	return nil
}

func (s *InMemory) ListByStatus(_ context.Context, status models.TaskStatus) ([]*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Task
	for _, task := range s.tasks {
		if task.Status == status {
			out = append(out, task.Clone())
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *InMemory) ListByParticipant(_ context.Context, participantID id.ParticipantID) ([]*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Task
	for _, task := range s.tasks {
		if task.ParticipantID == participantID {
			out = append(out, task.Clone())
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(tasks []*models.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
}
