// Package store defines persistence for guidance tasks. Implementations
// return infrastructure sentinels; the service translates them into coded
// errors.
package store

import (
	"context"

	"reentry/internal/guidance/models"
	id "reentry/pkg/domain"
)

type Store interface {
	// Create persists a new task. Returns sentinel.ErrAlreadyUsed when the
	// id already exists.
	Create(ctx context.Context, task *models.Task) error

	// Get returns the task or sentinel.ErrNotFound.
	Get(ctx context.Context, taskID id.TaskID) (*models.Task, error)

	// Update overwrites an existing task or returns sentinel.ErrNotFound.
	Update(ctx context.Context, task *models.Task) error

	// ListByStatus returns tasks in the given status, newest first.
	ListByStatus(ctx context.Context, status models.TaskStatus) ([]*models.Task, error)

	// ListByParticipant returns all tasks for one participant, newest first.
	ListByParticipant(ctx context.Context, participantID id.ParticipantID) ([]*models.Task, error)
}
