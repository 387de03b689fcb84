package models

import (
	"time"

	"github.com/google/uuid"
)

// HistoryType classifies an audit-ledger entry.
type HistoryType string

const (
	HistoryStatusChange     HistoryType = "status_change"
	HistoryContactAttempt   HistoryType = "contact_attempt"
	HistoryNoteAdded        HistoryType = "note_added"
	HistoryFormSubmitted    HistoryType = "form_submitted"
	HistoryAssignmentChange HistoryType = "assignment_change"
)

// HistoryEntry is one immutable audit record. Entries are only ever appended
// to a participant's history, never edited or removed.
type HistoryEntry struct {
	ID            string            `json:"id"`
	Type          HistoryType       `json:"type"`
	Description   string            `json:"description"`
	Details       string            `json:"details,omitempty"`
	CreatedBy     string            `json:"createdBy,omitempty"`
	CreatedByName string            `json:"createdByName,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Note is a free-text annotation. Never mutated after creation.
type Note struct {
	ID            string    `json:"id"`
	Content       string    `json:"content"`
	CreatedBy     string    `json:"createdBy"`
	CreatedByName string    `json:"createdByName"`
	CreatedAt     time.Time `json:"createdAt"`
}

// NewHistoryEntry builds an entry with a fresh id. Metadata stays nil unless
// the caller attaches any.
func NewHistoryEntry(t HistoryType, description string, actorID, actorName string, at time.Time) HistoryEntry {
	return HistoryEntry{
		ID:            uuid.NewString(),
		Type:          t,
		Description:   description,
		CreatedBy:     actorID,
		CreatedByName: actorName,
		CreatedAt:     at,
	}
}

// NewNote builds a note with a fresh id.
func NewNote(content, actorID, actorName string, at time.Time) Note {
	return Note{
		ID:            uuid.NewString(),
		Content:       content,
		CreatedBy:     actorID,
		CreatedByName: actorName,
		CreatedAt:     at,
	}
}
