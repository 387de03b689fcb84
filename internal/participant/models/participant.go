package models

import (
	"strings"
	"time"

	id "reentry/pkg/domain"
	dErrors "reentry/pkg/domain-errors"
)

// Participant is the aggregate root: one document per participant holding
// identity, pipeline status, cadence deadlines, attempt counters, notes and
// the append-only history ledger.
//
// Invariants:
//   - Status is always one of the fixed enum values
//   - History length never decreases; entries are never edited
//   - Every status-changing operation appends exactly one entry of type
//     status_change or contact_attempt
//   - Next*Due timestamps, once set, are strictly in the future relative to
//     the write that set them
//
// Version is the optimistic-concurrency token: stores reject a write whose
// Version does not match the persisted record, so two actors mutating the
// same participant from different devices cannot clobber each other's
// history appends.
type Participant struct {
	ID          id.ParticipantID `json:"id"`
	FirstName   string           `json:"firstName"`
	LastName    string           `json:"lastName"`
	Phone       string           `json:"phone,omitempty"`
	Email       string           `json:"email,omitempty"`
	ReleaseDate *time.Time       `json:"releaseDate,omitempty"`

	Status       Status       `json:"status"`
	MenteeStatus MenteeStatus `json:"menteeStatus,omitempty"`

	AssignedBridgeTeamMember string `json:"assignedBridgeTeamMember,omitempty"`
	AssignedMentor           string `json:"assignedMentor,omitempty"`
	AssignedMentorName       string `json:"assignedMentorName,omitempty"`
	AssignedMentorLeader     string `json:"assignedMentorLeader,omitempty"`

	SubmittedAt               time.Time  `json:"submittedAt"`
	MovedToBridgeAt           *time.Time `json:"movedToBridgeAt,omitempty"`
	AssignedToMentorAt        *time.Time `json:"assignedToMentorAt,omitempty"`
	InitialContactCompletedAt *time.Time `json:"initialContactCompletedAt,omitempty"`
	GraduatedAt               *time.Time `json:"graduatedAt,omitempty"`

	NextWeeklyUpdateDue   *time.Time `json:"nextWeeklyUpdateDue,omitempty"`
	NextMonthlyCheckInDue *time.Time `json:"nextMonthlyCheckInDue,omitempty"`
	NextMonthlyReportDue  *time.Time `json:"nextMonthlyReportDue,omitempty"`
	LastWeeklyUpdateAt    *time.Time `json:"lastWeeklyUpdateAt,omitempty"`
	LastMonthlyCheckInAt  *time.Time `json:"lastMonthlyCheckInAt,omitempty"`
	LastMonthlyReportAt   *time.Time `json:"lastMonthlyReportAt,omitempty"`

	NumberOfContactAttempts int        `json:"numberOfContactAttempts,omitempty"`
	FirstAttemptDate        *time.Time `json:"firstAttemptDate,omitempty"`
	LastAttemptDate         *time.Time `json:"lastAttemptDate,omitempty"`

	CompletedGraduationSteps []string `json:"completedGraduationSteps,omitempty"`

	Notes   []Note         `json:"notes"`
	History []HistoryEntry `json:"history"`

	Version int64 `json:"version"`
}

// NewParticipant creates an intake record. Status always starts at
// pending_bridge; phone-triage placeholders pass empty contact fields.
func NewParticipant(participantID id.ParticipantID, firstName, lastName string, now time.Time) (*Participant, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" && lastName == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "participant needs at least one name")
	}
	return &Participant{
		ID:           participantID,
		FirstName:    firstName,
		LastName:     lastName,
		Status:       StatusPendingBridge,
		MenteeStatus: MenteeStatusPending,
		SubmittedAt:  now,
		Notes:        []Note{},
		History:      []HistoryEntry{},
	}, nil
}

// FullName joins the name fields for display and task snapshots.
func (p *Participant) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// AppendHistory is the only way history grows. It returns the entry so
// callers can reference its id.
func (p *Participant) AppendHistory(entry HistoryEntry) HistoryEntry {
	p.History = append(p.History, entry)
	return entry
}

// AddNote appends a note. Notes are immutable once added.
func (p *Participant) AddNote(note Note) {
	p.Notes = append(p.Notes, note)
}

// HasGraduationStep reports whether a step id is already recorded.
func (p *Participant) HasGraduationStep(stepID string) bool {
	for _, s := range p.CompletedGraduationSteps {
		if s == stepID {
			return true
		}
	}
	return false
}

// CompleteGraduationStep records a step id once; repeats are no-ops.
func (p *Participant) CompleteGraduationStep(stepID string) bool {
	if p.HasGraduationStep(stepID) {
		return false
	}
	p.CompletedGraduationSteps = append(p.CompletedGraduationSteps, stepID)
	return true
}

// ApplyStatus moves the participant to next and stamps the matching stage
// timestamp. Legality of the move is the state machine's concern; this only
// records an already-validated transition.
func (p *Participant) ApplyStatus(next Status, now time.Time) {
	p.Status = next
	switch next {
	case StatusPendingMentor:
		if p.MovedToBridgeAt == nil {
			p.MovedToBridgeAt = &now
		}
	case StatusInitialContactPending:
		p.AssignedToMentorAt = &now
	case StatusActiveMentorship:
		p.InitialContactCompletedAt = &now
	case StatusGraduated:
		p.GraduatedAt = &now
	}
}

// RecordAttempt increments the attempt counters. The first attempt of a
// sequence anchors the escalation window.
func (p *Participant) RecordAttempt(now time.Time) {
	p.NumberOfContactAttempts++
	if p.FirstAttemptDate == nil {
		p.FirstAttemptDate = &now
	}
	p.LastAttemptDate = &now
}

// ResetAttempts clears the attempt sequence after a successful contact.
func (p *Participant) ResetAttempts() {
	p.NumberOfContactAttempts = 0
	p.FirstAttemptDate = nil
	p.LastAttemptDate = nil
}

// Validate checks the persisted-shape invariants before any write.
func (p *Participant) Validate() error {
	if p.ID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "participant id is not set")
	}
	if !p.Status.Valid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "participant status is not a known value")
	}
	if p.NumberOfContactAttempts < 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "contact attempt count cannot be negative")
	}
	return nil
}

// Clone returns a deep copy so store snapshots cannot be mutated by callers.
func (p *Participant) Clone() *Participant {
	cp := *p
	cp.Notes = append([]Note(nil), p.Notes...)
	cp.History = append([]HistoryEntry(nil), p.History...)
	cp.CompletedGraduationSteps = append([]string(nil), p.CompletedGraduationSteps...)
	cp.ReleaseDate = cloneTime(p.ReleaseDate)
	cp.MovedToBridgeAt = cloneTime(p.MovedToBridgeAt)
	cp.AssignedToMentorAt = cloneTime(p.AssignedToMentorAt)
	cp.InitialContactCompletedAt = cloneTime(p.InitialContactCompletedAt)
	cp.GraduatedAt = cloneTime(p.GraduatedAt)
	cp.NextWeeklyUpdateDue = cloneTime(p.NextWeeklyUpdateDue)
	cp.NextMonthlyCheckInDue = cloneTime(p.NextMonthlyCheckInDue)
	cp.NextMonthlyReportDue = cloneTime(p.NextMonthlyReportDue)
	cp.LastWeeklyUpdateAt = cloneTime(p.LastWeeklyUpdateAt)
	cp.LastMonthlyCheckInAt = cloneTime(p.LastMonthlyCheckInAt)
	cp.LastMonthlyReportAt = cloneTime(p.LastMonthlyReportAt)
	cp.FirstAttemptDate = cloneTime(p.FirstAttemptDate)
	cp.LastAttemptDate = cloneTime(p.LastAttemptDate)
	return &cp
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
