// Package models defines the guidance task records raised when an initial
// contact surfaces a need the mentor cannot resolve alone.
package models

import (
	"strings"
	"time"

	id "reentry/pkg/domain"
	dErrors "reentry/pkg/domain-errors"
)

type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
)

// Task is a request for staff guidance tied to a participant.
type Task struct {
	ID              id.TaskID        `json:"id"`
	ParticipantID   id.ParticipantID `json:"participantId"`
	ParticipantName string           `json:"participantName"`
	MentorID        string           `json:"mentorId,omitempty"`
	MentorName      string           `json:"mentorName,omitempty"`
	GuidanceNotes   string           `json:"guidanceNotes"`
	Status          TaskStatus       `json:"status"`
	Response        string           `json:"response,omitempty"`
	FollowUpNotes   string           `json:"followUpNotes,omitempty"`
	CompletedBy     string           `json:"completedBy,omitempty"`
	CompletedByName string           `json:"completedByName,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	CompletedAt     *time.Time       `json:"completedAt,omitempty"`
}

// NewTask opens a pending task. Notes are required; a task with nothing to
// act on is meaningless.
func NewTask(participantID id.ParticipantID, participantName, mentorID, mentorName, notes string, now time.Time) (*Task, error) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "guidance notes are required")
	}
	if participantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "participant id is required")
	}
	return &Task{
		ID:              id.NewTaskID(),
		ParticipantID:   participantID,
		ParticipantName: strings.TrimSpace(participantName),
		MentorID:        strings.TrimSpace(mentorID),
		MentorName:      strings.TrimSpace(mentorName),
		GuidanceNotes:   notes,
		Status:          TaskPending,
		CreatedAt:       now,
	}, nil
}

// Complete closes the task with the staff response, attributed to the
// completer. Completing twice is an error so a duplicate submission cannot
// silently overwrite the response.
func (t *Task) Complete(response, followUpNotes, completerID, completerName string, now time.Time) error {
	if t.Status == TaskCompleted {
		return dErrors.New(dErrors.CodeValidation, "guidance task is already completed")
	}
	t.Status = TaskCompleted
	t.Response = strings.TrimSpace(response)
	t.FollowUpNotes = strings.TrimSpace(followUpNotes)
	t.CompletedBy = completerID
	t.CompletedByName = completerName
	t.CompletedAt = &now
	return nil
}

func (t *Task) Clone() *Task {
	clone := *t
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		clone.CompletedAt = &at
	}
	return &clone
}
