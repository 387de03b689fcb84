package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"reentry/internal/audit"
	guidance "reentry/internal/guidance/service"
	"reentry/internal/participant/attempts"
	"reentry/internal/participant/merge"
	"reentry/internal/participant/models"
	"reentry/internal/participant/schedule"
	"reentry/internal/participant/state"
	id "reentry/pkg/domain"
	dErrors "reentry/pkg/domain-errors"
	"reentry/pkg/platform/sentinel"
	"reentry/pkg/requestcontext"
)

// UpdateStatus moves a participant to a target status. The target is mapped
// back to the event that produces it; a target no event reaches from the
// current status is an invalid transition. Re-submitting the current status
// appends a reaffirmation entry without moving anything.
func (s *Service) UpdateStatus(ctx context.Context, participantID id.ParticipantID, req models.UpdateStatusRequest) (*models.Participant, error) {
	ctx, span := s.tracer.Start(ctx, "participant.UpdateStatus")
	defer span.End()
	span.SetAttributes(attribute.String("participant.target_status", string(req.Status)))

	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.update(ctx, participantID, func(p *models.Participant) error {
		now := requestcontext.Now(ctx)
		actor := requestcontext.Actor(ctx)

		if p.Status == req.Status {
			entry := models.NewHistoryEntry(models.HistoryStatusChange,
				fmt.Sprintf("Status reaffirmed as %s", req.Status), actor.ID, actor.Name, now)
			entry.Details = req.Details
			p.AppendHistory(entry)
			return nil
		}

		event, ok := state.EventForTarget(p.Status, req.Status)
		if !ok {
			return dErrors.New(dErrors.CodeInvalidTransition,
				fmt.Sprintf("no transition from %q to %q", p.Status, req.Status))
		}
		from := p.Status
		next, err := s.applyEvent(ctx, p, event)
		if err != nil {
			return err
		}
		entry := models.NewHistoryEntry(models.HistoryStatusChange,
			fmt.Sprintf("Status changed from %s to %s", from, next), actor.ID, actor.Name, now)
		entry.Details = req.Details
		p.AppendHistory(entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, participantID, audit.ActionStatusChanged, string(p.Status))
	return p, nil
}

// RecordContact processes a bridge-team contact form. The outcome decides
// the event: successful clears the participant for mentor matching,
// contacted parks them as reached, attempted runs the escalation rule, and
// unable escalates immediately.
func (s *Service) RecordContact(ctx context.Context, participantID id.ParticipantID, form models.ContactForm) (*models.Participant, error) {
	ctx, span := s.tracer.Start(ctx, "participant.RecordContact")
	defer span.End()

	form.Normalize()
	if err := form.Validate(); err != nil {
		return nil, err
	}

	var escalated bool
	p, err := s.update(ctx, participantID, func(p *models.Participant) error {
		escalated = false
		return s.applyContactOutcome(ctx, p, attempts.BridgeTrack, form.Outcome, form.Notes, &escalated)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ContactAttempts.WithLabelValues(attempts.BridgeTrack.Name, string(form.Outcome)).Inc()
	}
	if escalated {
		s.onEscalated(ctx, p, attempts.BridgeTrack.Name)
	}
	s.emit(ctx, participantID, audit.ActionContactRecorded, string(form.Outcome))
	return p, nil
}

// RecordInitialContact processes a mentor's first-contact form. A successful
// contact activates the mentorship and starts the weekly and check-in
// cadences; a guidance request opens a staff task after the write commits.
func (s *Service) RecordInitialContact(ctx context.Context, participantID id.ParticipantID, form models.InitialContactForm) (*models.Participant, error) {
	ctx, span := s.tracer.Start(ctx, "participant.RecordInitialContact")
	defer span.End()

	form.Normalize()
	if err := form.Validate(); err != nil {
		return nil, err
	}

	var escalated bool
	p, err := s.update(ctx, participantID, func(p *models.Participant) error {
		escalated = false
		return s.applyContactOutcome(ctx, p, attempts.MentorTrack, form.Outcome, form.Notes, &escalated)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ContactAttempts.WithLabelValues(attempts.MentorTrack.Name, string(form.Outcome)).Inc()
	}
	if escalated {
		s.onEscalated(ctx, p, attempts.MentorTrack.Name)
	}
	if form.GuidanceNeeded {
		s.dispatchGuidance(ctx, p, form.GuidanceNotes)
	}
	s.emit(ctx, participantID, audit.ActionInitialContactRecorded, string(form.Outcome))
	return p, nil
}

// applyContactOutcome is the shared outcome routing for both contact tracks.
func (s *Service) applyContactOutcome(ctx context.Context, p *models.Participant, track attempts.Track, outcome models.ContactOutcome, notes string, escalated *bool) error {
	now := requestcontext.Now(ctx)
	actor := requestcontext.Actor(ctx)
	from := p.Status

	var event state.Event
	switch outcome {
	case models.OutcomeSuccessful:
		if track.Name == attempts.BridgeTrack.Name {
			event = state.EventContactSuccessful
		} else {
			event = state.EventInitialContactSuccessful
		}
	case models.OutcomeContacted:
		if track.Name != attempts.BridgeTrack.Name {
			return dErrors.New(dErrors.CodeValidation,
				"outcome contacted only applies to bridge team contacts")
		}
		event = state.EventBridgeContacted
	case models.OutcomeAttempted:
		attemptEvent, err := track.Record(p, now)
		if err != nil {
			return err
		}
		event = attemptEvent
		*escalated = event == state.EventContactUnable || event == state.EventInitialContactUnable
	case models.OutcomeUnable:
		if track.Name == attempts.BridgeTrack.Name {
			event = state.EventContactUnable
		} else {
			event = state.EventInitialContactUnable
		}
		*escalated = true
	}

	next, err := s.applyEvent(ctx, p, event)
	if err != nil {
		return err
	}

	entry := models.NewHistoryEntry(models.HistoryContactAttempt,
		fmt.Sprintf("%s contact recorded as %s (%s)", track.Name, outcome, transitionDetail(from, next)),
		actor.ID, actor.Name, now)
	entry.Details = notes
	p.AppendHistory(entry)
	return nil
}

func (s *Service) onEscalated(ctx context.Context, p *models.Participant, track string) {
	if s.metrics != nil {
		s.metrics.Escalations.WithLabelValues(track).Inc()
	}
	if s.notifier != nil {
		s.notifier.Escalated(ctx, p, track)
	}
	s.logger.WarnContext(ctx, "participant escalated as unreachable",
		"participantId", p.ID.String(), "track", track)
}

// dispatchGuidance opens a staff task once the participant write has
// committed. The form submission stands even when the dispatch fails; the
// failure is logged for manual follow-up.
func (s *Service) dispatchGuidance(ctx context.Context, p *models.Participant, notes string) {
	if s.guidance == nil {
		s.logger.WarnContext(ctx, "guidance requested but no dispatcher configured",
			"participantId", p.ID.String())
		return
	}
	task, err := s.guidance.Open(ctx, guidance.OpenTaskInput{
		ParticipantID:   p.ID,
		ParticipantName: p.FullName(),
		MentorID:        p.AssignedMentor,
		MentorName:      p.AssignedMentorName,
		GuidanceNotes:   notes,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "guidance task dispatch failed",
			"participantId", p.ID.String(), "error", err)
		return
	}
	if s.metrics != nil {
		s.metrics.GuidanceTasksOpened.Inc()
	}
	s.emit(ctx, p.ID, audit.ActionGuidanceTaskOpened, task.ID.String())
}

// RecordWeeklyUpdate records the weekly form and resets its cadence from now.
func (s *Service) RecordWeeklyUpdate(ctx context.Context, participantID id.ParticipantID, form models.CheckInForm) (*models.Participant, error) {
	return s.recordCheckIn(ctx, participantID, form, checkInWeekly)
}

// RecordMonthlyCheckIn records the monthly mentee check-in.
func (s *Service) RecordMonthlyCheckIn(ctx context.Context, participantID id.ParticipantID, form models.CheckInForm) (*models.Participant, error) {
	return s.recordCheckIn(ctx, participantID, form, checkInMonthly)
}

// SubmitMonthlyReport records the mentor's monthly report.
func (s *Service) SubmitMonthlyReport(ctx context.Context, participantID id.ParticipantID, form models.CheckInForm) (*models.Participant, error) {
	return s.recordCheckIn(ctx, participantID, form, checkInReport)
}

type checkInKind string

const (
	checkInWeekly  checkInKind = "weekly update"
	checkInMonthly checkInKind = "monthly check-in"
	checkInReport  checkInKind = "monthly report"
)

// recordCheckIn shares the cadence-form flow: only active mentorships have
// running cadences, and recording always resets the deadline from now.
func (s *Service) recordCheckIn(ctx context.Context, participantID id.ParticipantID, form models.CheckInForm, kind checkInKind) (*models.Participant, error) {
	ctx, span := s.tracer.Start(ctx, "participant.RecordCheckIn")
	defer span.End()
	span.SetAttributes(attribute.String("participant.check_in", string(kind)))

	form.Normalize()
	if err := form.Validate(); err != nil {
		return nil, err
	}

	p, err := s.update(ctx, participantID, func(p *models.Participant) error {
		if p.Status != models.StatusActiveMentorship {
			return dErrors.New(dErrors.CodeInvalidTransition,
				fmt.Sprintf("%s requires an active mentorship, status is %q", kind, p.Status))
		}
		now := requestcontext.Now(ctx)
		actor := requestcontext.Actor(ctx)
		switch kind {
		case checkInWeekly:
			schedule.OnWeeklyUpdateRecorded(p, now)
		case checkInMonthly:
			schedule.OnMonthlyCheckInRecorded(p, now)
		case checkInReport:
			schedule.OnMonthlyReportSubmitted(p, now)
		}
		entry := models.NewHistoryEntry(models.HistoryFormSubmitted,
			fmt.Sprintf("Recorded %s", kind), actor.ID, actor.Name, now)
		entry.Details = form.Notes
		p.AppendHistory(entry)
		return nil
	})
	if err != nil {
		return nil, err
	}

	switch kind {
	case checkInWeekly:
		s.emit(ctx, participantID, audit.ActionWeeklyUpdateRecorded, "")
	case checkInMonthly:
		s.emit(ctx, participantID, audit.ActionMonthlyCheckInRecorded, "")
	case checkInReport:
		s.emit(ctx, participantID, audit.ActionMonthlyReportSubmitted, "")
	}
	return p, nil
}

// AssignToBridgeTeam records which bridge-team member owns the outreach.
// Assignment does not move the status.
func (s *Service) AssignToBridgeTeam(ctx context.Context, participantID id.ParticipantID, req models.AssignBridgeRequest) (*models.Participant, error) {
	ctx, span := s.tracer.Start(ctx, "participant.AssignToBridgeTeam")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	p, err := s.update(ctx, participantID, func(p *models.Participant) error {
		now := requestcontext.Now(ctx)
		actor := requestcontext.Actor(ctx)
		p.AssignedBridgeTeamMember = req.MemberID
		description := "Assigned to bridge team member"
		if req.MemberName != "" {
			description = "Assigned to bridge team member " + req.MemberName
		}
		p.AppendHistory(models.NewHistoryEntry(models.HistoryAssignmentChange,
			description, actor.ID, actor.Name, now))
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, participantID, audit.ActionBridgeAssigned, req.MemberID)
	return p, nil
}

// AssignToMentor pairs the participant with a mentor and opens the initial
// contact stage. The monthly report cadence starts at assignment.
func (s *Service) AssignToMentor(ctx context.Context, participantID id.ParticipantID, req models.AssignMentorRequest) (*models.Participant, error) {
	ctx, span := s.tracer.Start(ctx, "participant.AssignToMentor")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	p, err := s.update(ctx, participantID, func(p *models.Participant) error {
		now := requestcontext.Now(ctx)
		actor := requestcontext.Actor(ctx)
		from := p.Status
		next, err := s.applyEvent(ctx, p, state.EventMentorAssigned)
		if err != nil {
			return err
		}
		p.AssignedMentor = req.MentorID
		p.AssignedMentorName = req.MentorName
		p.AssignedMentorLeader = req.MentorLeader
		description := "Assigned to mentor"
		if req.MentorName != "" {
			description = "Assigned to mentor " + req.MentorName
		}
		entry := models.NewHistoryEntry(models.HistoryStatusChange,
			fmt.Sprintf("%s (%s)", description, transitionDetail(from, next)),
			actor.ID, actor.Name, now)
		p.AppendHistory(entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, participantID, audit.ActionMentorAssigned, req.MentorID)
	return p, nil
}

// CompleteGraduationStep marks one checklist step done. Completing a step
// twice is a no-op; the ledger records only the first completion.
func (s *Service) CompleteGraduationStep(ctx context.Context, participantID id.ParticipantID, stepID string) (*models.Participant, error) {
	ctx, span := s.tracer.Start(ctx, "participant.CompleteGraduationStep")
	defer span.End()

	if stepID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "step id is required")
	}
	var recorded bool
	p, err := s.update(ctx, participantID, func(p *models.Participant) error {
		if p.Status != models.StatusActiveMentorship {
			return dErrors.New(dErrors.CodeInvalidTransition,
				fmt.Sprintf("graduation steps require an active mentorship, status is %q", p.Status))
		}
		recorded = p.CompleteGraduationStep(stepID)
		if recorded {
			now := requestcontext.Now(ctx)
			actor := requestcontext.Actor(ctx)
			p.AppendHistory(models.NewHistoryEntry(models.HistoryFormSubmitted,
				"Completed graduation step "+stepID, actor.ID, actor.Name, now))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if recorded {
		s.emit(ctx, participantID, audit.ActionGraduationStepCompleted, stepID)
	}
	return p, nil
}

// MergeParticipants folds a duplicate source record into the target and then
// deletes the source. The target write commits first; a crash between the
// two steps leaves both records present, and re-running the merge is safe
// because the union dedupes on entry ids.
func (s *Service) MergeParticipants(ctx context.Context, req models.MergeRequest) (*models.Participant, error) {
	ctx, span := s.tracer.Start(ctx, "participant.Merge")
	defer span.End()

	sourceID, err := id.ParseParticipantID(req.SourceID)
	if err != nil {
		return nil, err
	}
	targetID, err := id.ParseParticipantID(req.TargetID)
	if err != nil {
		return nil, err
	}
	if sourceID == targetID {
		return nil, dErrors.New(dErrors.CodeValidation, "cannot merge a participant into itself")
	}
	span.SetAttributes(
		attribute.String("participant.merge_source", sourceID.String()),
		attribute.String("participant.merge_target", targetID.String()),
	)

	source, err := s.store.Get(ctx, sourceID)
	if err != nil {
		return nil, translate(err)
	}

	actor := requestcontext.Actor(ctx)
	merged, err := s.update(ctx, targetID, func(p *models.Participant) error {
		merge.Records(p, source, actor.ID, actor.Name, requestcontext.Now(ctx))
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Source removal is the second saga step. A missing source means a
	// previous merge attempt already removed it.
	if err := s.store.Delete(ctx, sourceID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, translate(err)
	}

	if s.metrics != nil {
		s.metrics.MergesCompleted.Inc()
	}
	s.emit(ctx, targetID, audit.ActionParticipantsMerged, "absorbed "+sourceID.String())
	s.logger.InfoContext(ctx, "participants merged",
		"sourceId", sourceID.String(), "targetId", targetID.String())
	return merged, nil
}
