package models

import (
	"strings"
	"time"

	dErrors "reentry/pkg/domain-errors"
)

// ContactOutcome is what the worker selected on a contact form.
type ContactOutcome string

const (
	// OutcomeSuccessful clears the participant for the next pipeline stage.
	OutcomeSuccessful ContactOutcome = "successful"
	// OutcomeContacted records that the participant was reached but is not
	// yet cleared for mentor matching (bridge track only).
	OutcomeContacted ContactOutcome = "contacted"
	// OutcomeAttempted records an unanswered attempt; escalation rules decide
	// whether the participant becomes unreachable.
	OutcomeAttempted ContactOutcome = "attempted"
	// OutcomeUnable marks the participant unreachable immediately, without
	// waiting for the attempt threshold.
	OutcomeUnable ContactOutcome = "unable"
)

// AddParticipantRequest is the intake form payload.
type AddParticipantRequest struct {
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Phone       string     `json:"phone,omitempty"`
	Email       string     `json:"email,omitempty"`
	ReleaseDate *time.Time `json:"releaseDate,omitempty"`
}

func (r *AddParticipantRequest) Normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Email = strings.TrimSpace(r.Email)
}

func (r *AddParticipantRequest) Validate() error {
	if r.FirstName == "" && r.LastName == "" {
		return dErrors.New(dErrors.CodeValidation, "firstName or lastName is required")
	}
	return nil
}

// ContactForm records a bridge-team contact.
type ContactForm struct {
	Outcome ContactOutcome `json:"outcome"`
	Notes   string         `json:"notes"`
	Method  string         `json:"method,omitempty"`
}

func (f *ContactForm) Normalize() {
	f.Notes = strings.TrimSpace(f.Notes)
	f.Method = strings.TrimSpace(f.Method)
}

func (f *ContactForm) Validate() error {
	switch f.Outcome {
	case OutcomeSuccessful, OutcomeContacted, OutcomeAttempted, OutcomeUnable:
	default:
		return dErrors.New(dErrors.CodeValidation, "outcome must be successful, contacted, attempted or unable")
	}
	if f.Notes == "" {
		return dErrors.New(dErrors.CodeValidation, "contact notes are required")
	}
	return nil
}

// InitialContactForm records a mentor's first-contact submission. When
// GuidanceNeeded is set, GuidanceNotes must be non-empty; the dispatcher is
// only invoked with complete input.
type InitialContactForm struct {
	Outcome        ContactOutcome `json:"outcome"`
	Notes          string         `json:"notes"`
	GuidanceNeeded bool           `json:"guidanceNeeded,omitempty"`
	GuidanceNotes  string         `json:"guidanceNotes,omitempty"`
}

func (f *InitialContactForm) Normalize() {
	f.Notes = strings.TrimSpace(f.Notes)
	f.GuidanceNotes = strings.TrimSpace(f.GuidanceNotes)
}

func (f *InitialContactForm) Validate() error {
	switch f.Outcome {
	case OutcomeSuccessful, OutcomeAttempted, OutcomeUnable:
	default:
		return dErrors.New(dErrors.CodeValidation, "outcome must be successful, attempted or unable")
	}
	if f.Notes == "" {
		return dErrors.New(dErrors.CodeValidation, "contact notes are required")
	}
	if f.GuidanceNeeded && f.GuidanceNotes == "" {
		return dErrors.New(dErrors.CodeValidation, "guidanceNotes are required when guidance is requested")
	}
	return nil
}

// CheckInForm covers weekly updates, monthly check-ins and monthly reports;
// the route determines which cadence it feeds.
type CheckInForm struct {
	Notes string `json:"notes"`
}

func (f *CheckInForm) Normalize() {
	f.Notes = strings.TrimSpace(f.Notes)
}

func (f *CheckInForm) Validate() error {
	if f.Notes == "" {
		return dErrors.New(dErrors.CodeValidation, "notes are required")
	}
	return nil
}

// UpdateStatusRequest moves a participant to a target status by routing the
// change through the state machine.
type UpdateStatusRequest struct {
	Status  Status `json:"status"`
	Details string `json:"details,omitempty"`
}

func (r *UpdateStatusRequest) Validate() error {
	if !r.Status.Valid() {
		return dErrors.New(dErrors.CodeValidation, "status is not a known value")
	}
	return nil
}

// AssignMentorRequest assigns a mentor (and optionally records the leader who
// made the assignment).
type AssignMentorRequest struct {
	MentorID     string `json:"mentorId"`
	MentorName   string `json:"mentorName,omitempty"`
	MentorLeader string `json:"mentorLeader,omitempty"`
}

func (r *AssignMentorRequest) Validate() error {
	if strings.TrimSpace(r.MentorID) == "" {
		return dErrors.New(dErrors.CodeValidation, "mentorId is required")
	}
	return nil
}

// AssignBridgeRequest assigns a bridge-team member.
type AssignBridgeRequest struct {
	MemberID   string `json:"memberId"`
	MemberName string `json:"memberName,omitempty"`
}

func (r *AssignBridgeRequest) Validate() error {
	if strings.TrimSpace(r.MemberID) == "" {
		return dErrors.New(dErrors.CodeValidation, "memberId is required")
	}
	return nil
}

// AddNoteRequest appends a free-text note.
type AddNoteRequest struct {
	Content string `json:"content"`
}

func (r *AddNoteRequest) Validate() error {
	if strings.TrimSpace(r.Content) == "" {
		return dErrors.New(dErrors.CodeValidation, "note content is required")
	}
	return nil
}

// MergeRequest resolves two duplicate records into one.
type MergeRequest struct {
	SourceID string `json:"sourceId"`
	TargetID string `json:"targetId"`
}
