// Package service coordinates guidance task dispatch and resolution.
package service

import (
	"context"
	"errors"
	"log/slog"

	"reentry/internal/audit"
	"reentry/internal/guidance/models"
	"reentry/internal/guidance/store"
	id "reentry/pkg/domain"
	dErrors "reentry/pkg/domain-errors"
	"reentry/pkg/platform/sentinel"
	"reentry/pkg/requestcontext"
)

type Service struct {
	store  store.Store
	audit  *audit.Publisher
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithAuditPublisher(publisher *audit.Publisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func New(st store.Store, opts ...Option) *Service {
	s := &Service{store: st, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenTaskInput names the participant a task is raised for.
type OpenTaskInput struct {
	ParticipantID   id.ParticipantID
	ParticipantName string
	MentorID        string
	MentorName      string
	GuidanceNotes   string
}

// Open creates a pending guidance task.
func (s *Service) Open(ctx context.Context, in OpenTaskInput) (*models.Task, error) {
	now := requestcontext.Now(ctx)
	task, err := models.NewTask(in.ParticipantID, in.ParticipantName, in.MentorID, in.MentorName, in.GuidanceNotes, now)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, task); err != nil {
		return nil, translate(err, "create guidance task")
	}
	s.logger.InfoContext(ctx, "guidance task opened",
		"taskId", task.ID.String(),
		"participantId", task.ParticipantID.String(),
	)
	return task, nil
}

// CompleteTaskInput carries the staff response closing a task.
type CompleteTaskInput struct {
	TaskID        id.TaskID
	Response      string
	FollowUpNotes string
}

// Complete closes a pending task, attributed to the acting staff member. A
// completed task cannot be completed again.
func (s *Service) Complete(ctx context.Context, in CompleteTaskInput) (*models.Task, error) {
	task, err := s.store.Get(ctx, in.TaskID)
	if err != nil {
		return nil, translate(err, "load guidance task")
	}
	actor := requestcontext.Actor(ctx)
	if err := task.Complete(in.Response, in.FollowUpNotes, actor.ID, actor.Name, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, task); err != nil {
		return nil, translate(err, "save guidance task")
	}
	if s.audit != nil {
		if err := s.audit.Emit(ctx, audit.Event{
			ParticipantID: task.ParticipantID.String(),
			Action:        audit.ActionGuidanceTaskCompleted,
			Detail:        "task " + task.ID.String(),
		}); err != nil {
			s.logger.WarnContext(ctx, "audit emit failed", "error", err)
		}
	}
	s.logger.InfoContext(ctx, "guidance task completed",
		"taskId", task.ID.String(),
		"completedBy", actor.ID,
	)
	return task, nil
}

func (s *Service) Get(ctx context.Context, taskID id.TaskID) (*models.Task, error) {
	task, err := s.store.Get(ctx, taskID)
	if err != nil {
		return nil, translate(err, "load guidance task")
	}
	return task, nil
}

// ListPending returns open tasks, newest first.
func (s *Service) ListPending(ctx context.Context) ([]*models.Task, error) {
	tasks, err := s.store.ListByStatus(ctx, models.TaskPending)
	if err != nil {
		return nil, translate(err, "list guidance tasks")
	}
	return tasks, nil
}

// ListForParticipant returns every task for one participant, newest first.
func (s *Service) ListForParticipant(ctx context.Context, participantID id.ParticipantID) ([]*models.Task, error) {
	tasks, err := s.store.ListByParticipant(ctx, participantID)
	if err != nil {
		return nil, translate(err, "list guidance tasks")
	}
	return tasks, nil
}

func translate(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "guidance task not found")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.Wrap(err, dErrors.CodeConflict, "guidance task already exists")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, msg)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
