// Package service orchestrates the participant lifecycle: every write flows
// read, validate, transition, append history, persist. Stores return
// infrastructure sentinels; this layer translates them into coded domain
// errors and owns the optimistic-write retry.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"reentry/internal/audit"
	gmodels "reentry/internal/guidance/models"
	guidance "reentry/internal/guidance/service"
	"reentry/internal/notify"
	"reentry/internal/participant/models"
	"reentry/internal/participant/schedule"
	"reentry/internal/participant/state"
	"reentry/internal/participant/store"
	"reentry/internal/platform/metrics"
	id "reentry/pkg/domain"
	dErrors "reentry/pkg/domain-errors"
	"reentry/pkg/email"
	"reentry/pkg/platform/sentinel"
	"reentry/pkg/requestcontext"
)

// maxWriteRetries bounds the re-read-and-retry loop on version conflicts.
// Conflicts are rare (two staff editing the same record at once); three
// rounds is plenty before surfacing the conflict to the caller.
const maxWriteRetries = 3

// GuidanceDispatcher decouples the lifecycle from the guidance module; only
// task creation crosses the boundary.
type GuidanceDispatcher interface {
	Open(ctx context.Context, in guidance.OpenTaskInput) (*gmodels.Task, error)
}

type Service struct {
	store    store.Store
	guidance GuidanceDispatcher
	audit    *audit.Publisher
	metrics  *metrics.Metrics
	notifier notify.Notifier
	logger   *slog.Logger
	tracer   trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithGuidance(dispatcher GuidanceDispatcher) Option {
	return func(s *Service) { s.guidance = dispatcher }
}

func WithAuditPublisher(publisher *audit.Publisher) Option {
	return func(s *Service) { s.audit = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithNotifier(notifier notify.Notifier) Option {
	return func(s *Service) { s.notifier = notifier }
}

func New(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:  st,
		logger: slog.Default(),
		tracer: otel.Tracer("reentry/participant"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddParticipant enrolls a new record at the start of the pipeline.
func (s *Service) AddParticipant(ctx context.Context, req models.AddParticipantRequest) (*models.Participant, error) {
	ctx, span := s.tracer.Start(ctx, "participant.Add")
	defer span.End()

	req.Normalize()
	if req.FirstName == "" && req.LastName == "" && req.Email != "" {
		// Referral imports often arrive with nothing but an email address.
		req.FirstName, req.LastName = email.DeriveNameFromEmail(req.Email)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	actor := requestcontext.Actor(ctx)

	p, err := models.NewParticipant(id.NewParticipantID(), req.FirstName, req.LastName, now)
	if err != nil {
		return nil, err
	}
	p.Phone = req.Phone
	p.Email = req.Email
	p.ReleaseDate = req.ReleaseDate
	p.AppendHistory(models.NewHistoryEntry(models.HistoryStatusChange,
		"Participant enrolled, awaiting bridge team contact", actor.ID, actor.Name, now))

	if err := s.store.Create(ctx, p); err != nil {
		return nil, translate(err)
	}

	span.SetAttributes(attribute.String("participant.id", p.ID.String()))
	if s.metrics != nil {
		s.metrics.ParticipantsCreated.Inc()
	}
	s.emit(ctx, p.ID, audit.ActionParticipantCreated, "enrolled as "+string(p.Status))
	s.logger.InfoContext(ctx, "participant enrolled", "participantId", p.ID.String())
	return p, nil
}

func (s *Service) GetParticipant(ctx context.Context, participantID id.ParticipantID) (*models.Participant, error) {
	ctx, span := s.tracer.Start(ctx, "participant.Get")
	defer span.End()

	p, err := s.store.Get(ctx, participantID)
	if err != nil {
		return nil, translate(err)
	}
	p.MenteeStatus = schedule.DeriveMenteeStatus(p, requestcontext.Now(ctx))
	return p, nil
}

func (s *Service) ListParticipants(ctx context.Context) ([]*models.Participant, error) {
	ctx, span := s.tracer.Start(ctx, "participant.List")
	defer span.End()

	all, err := s.store.List(ctx)
	if err != nil {
		return nil, translate(err)
	}
	now := requestcontext.Now(ctx)
	for _, p := range all {
		p.MenteeStatus = schedule.DeriveMenteeStatus(p, now)
	}
	return all, nil
}

func (s *Service) DeleteParticipant(ctx context.Context, participantID id.ParticipantID) error {
	ctx, span := s.tracer.Start(ctx, "participant.Delete")
	defer span.End()

	if err := s.store.Delete(ctx, participantID); err != nil {
		return translate(err)
	}
	s.emit(ctx, participantID, audit.ActionParticipantDeleted, "")
	s.logger.InfoContext(ctx, "participant deleted", "participantId", participantID.String())
	return nil
}

// Subscribe streams document updates for one participant.
func (s *Service) Subscribe(ctx context.Context, participantID id.ParticipantID) (<-chan *models.Participant, error) {
	ch, err := s.store.Subscribe(ctx, participantID)
	if err != nil {
		return nil, translate(err)
	}
	return ch, nil
}

// AddNote appends a free-text note and its ledger entry.
func (s *Service) AddNote(ctx context.Context, participantID id.ParticipantID, req models.AddNoteRequest) (*models.Participant, error) {
	ctx, span := s.tracer.Start(ctx, "participant.AddNote")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	p, err := s.update(ctx, participantID, func(p *models.Participant) error {
		now := requestcontext.Now(ctx)
		actor := requestcontext.Actor(ctx)
		p.AddNote(models.NewNote(req.Content, actor.ID, actor.Name, now))
		p.AppendHistory(models.NewHistoryEntry(models.HistoryNoteAdded,
			"Note added", actor.ID, actor.Name, now))
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, participantID, audit.ActionNoteAdded, "")
	return p, nil
}

// update runs the read-mutate-write cycle with a bounded retry on version
// conflicts. mutate sees a fresh snapshot on every round, so a retried write
// re-applies the operation on top of the concurrent change rather than
// clobbering it.
func (s *Service) update(ctx context.Context, participantID id.ParticipantID, mutate func(*models.Participant) error) (*models.Participant, error) {
	var lastErr error
	for attempt := 0; attempt < maxWriteRetries; attempt++ {
		p, err := s.store.Get(ctx, participantID)
		if err != nil {
			return nil, translate(err)
		}
		if err := mutate(p); err != nil {
			return nil, err
		}
		p.MenteeStatus = schedule.DeriveMenteeStatus(p, requestcontext.Now(ctx))
		if err := p.Validate(); err != nil {
			return nil, err
		}

		err = s.store.Update(ctx, p)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			return nil, translate(err)
		}
		if s.metrics != nil {
			s.metrics.WriteConflicts.Inc()
		}
		s.logger.DebugContext(ctx, "optimistic write conflict, retrying",
			"participantId", participantID.String(), "attempt", attempt+1)
		lastErr = err
	}
	return nil, dErrors.Wrap(lastErr, dErrors.CodeConflict,
		"participant record kept changing underneath the write")
}

// applyEvent routes a status change through the state machine and attaches
// the side effects that belong to the transition.
func (s *Service) applyEvent(ctx context.Context, p *models.Participant, event state.Event) (models.Status, error) {
	next, err := state.Next(p.Status, event)
	if err != nil {
		return "", err
	}
	now := requestcontext.Now(ctx)
	p.ApplyStatus(next, now)

	switch event {
	case state.EventContactSuccessful:
		p.ResetAttempts()
	case state.EventMentorAssigned:
		p.ResetAttempts()
		schedule.OnMentorAssigned(p, now)
	case state.EventInitialContactSuccessful:
		p.ResetAttempts()
		schedule.OnInitialContactSuccessful(p, now)
	}

	if s.metrics != nil {
		s.metrics.StatusTransitions.WithLabelValues(string(next)).Inc()
	}
	return next, nil
}

func (s *Service) emit(ctx context.Context, participantID id.ParticipantID, action audit.Action, detail string) {
	if s.audit == nil {
		return
	}
	err := s.audit.Emit(ctx, audit.Event{
		ParticipantID: participantID.String(),
		Action:        action,
		Detail:        detail,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "audit emit failed",
			"participantId", participantID.String(), "action", string(action), "error", err)
	}
}

func translate(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "participant not found")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.Wrap(err, dErrors.CodeConflict, "participant already exists")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "participant record changed underneath the write")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeInvariantViolation, "stored participant record is corrupt")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "participant store unavailable")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "participant store operation failed")
	}
}

func transitionDetail(from, to models.Status) string {
	return fmt.Sprintf("%s -> %s", from, to)
}
