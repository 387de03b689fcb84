package merge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reentry/internal/participant/models"
	id "reentry/pkg/domain"
)

var mergeTime = time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)

func participantWith(t *testing.T, name string, notes, history int) *models.Participant {
	t.Helper()
	p, err := models.NewParticipant(id.NewParticipantID(), name, "Lee", mergeTime.Add(-72*time.Hour))
	require.NoError(t, err)
	for i := 0; i < notes; i++ {
		at := mergeTime.Add(-time.Duration(i+1) * time.Hour)
		p.AddNote(models.NewNote("note", "u1", "Casey", at))
	}
	for i := 0; i < history; i++ {
		at := mergeTime.Add(-time.Duration(i+1) * time.Minute)
		p.AppendHistory(models.NewHistoryEntry(models.HistoryFormSubmitted, "entry", "u1", "Casey", at))
	}
	return p
}

func noteIDs(notes []models.Note) map[string]struct{} {
	out := make(map[string]struct{}, len(notes))
	for _, n := range notes {
		out[n.ID] = struct{}{}
	}
	return out
}

// TestRecords_UnionCounts mirrors the canonical merge scenario: A has 2
// notes / 3 history entries, B has 1 note / 2 entries; merging A into B
// yields 3 notes and 6 history entries (5 originals plus the merge audit).
func TestRecords_UnionCounts(t *testing.T) {
	source := participantWith(t, "Alex", 2, 3)
	target := participantWith(t, "Blair", 1, 2)

	got := Records(target, source, "lead1", "Morgan", mergeTime)

	assert.Len(t, got.Notes, 3)
	assert.Len(t, got.History, 6)

	ids := noteIDs(got.Notes)
	for _, n := range source.Notes {
		_, ok := ids[n.ID]
		assert.True(t, ok, "source note %s must survive the merge", n.ID)
	}
}

func TestRecords_AppendsAuditEntryWithSourceID(t *testing.T) {
	source := participantWith(t, "Alex", 0, 0)
	target := participantWith(t, "Blair", 0, 0)

	got := Records(target, source, "lead1", "Morgan", mergeTime)

	require.Len(t, got.History, 1)
	entry := got.History[0]
	assert.Equal(t, models.HistoryNoteAdded, entry.Type)
	assert.Equal(t, "lead1", entry.CreatedBy)
	assert.Equal(t, "Morgan", entry.CreatedByName)
	assert.Equal(t, source.ID.String(), entry.Metadata[MetadataSourceID])
}

// TestRecords_RetryIsIdempotent simulates the partial-failure saga: the
// target write succeeded, the source delete failed, and the merge runs
// again. Nothing may be duplicated, including the audit entry.
func TestRecords_RetryIsIdempotent(t *testing.T) {
	source := participantWith(t, "Alex", 2, 3)
	target := participantWith(t, "Blair", 1, 2)

	first := Records(target, source, "lead1", "Morgan", mergeTime)
	notesAfterFirst := len(first.Notes)
	historyAfterFirst := len(first.History)

	second := Records(first, source, "lead1", "Morgan", mergeTime.Add(time.Minute))

	assert.Len(t, second.Notes, notesAfterFirst)
	assert.Len(t, second.History, historyAfterFirst)
}

func TestRecords_MostRecentFirstOrder(t *testing.T) {
	source := participantWith(t, "Alex", 3, 4)
	target := participantWith(t, "Blair", 2, 3)

	got := Records(target, source, "lead1", "Morgan", mergeTime)

	for i := 1; i < len(got.Notes); i++ {
		assert.False(t, got.Notes[i-1].CreatedAt.Before(got.Notes[i].CreatedAt),
			"notes must be ordered most-recent-first")
	}
	for i := 1; i < len(got.History); i++ {
		assert.False(t, got.History[i-1].CreatedAt.Before(got.History[i].CreatedAt),
			"history must be ordered most-recent-first")
	}
}

func TestRecords_BackfillsContactDetails(t *testing.T) {
	source := participantWith(t, "Alex", 0, 0)
	source.Phone = "555-0100"
	source.Email = "alex@example.org"
	target := participantWith(t, "Blair", 0, 0)
	target.Email = "blair@example.org"

	got := Records(target, source, "lead1", "Morgan", mergeTime)

	assert.Equal(t, "555-0100", got.Phone, "missing phone backfilled from source")
	assert.Equal(t, "blair@example.org", got.Email, "existing email kept")
}

func TestRecords_UnionsGraduationSteps(t *testing.T) {
	source := participantWith(t, "Alex", 0, 0)
	source.CompletedGraduationSteps = []string{"housing", "employment"}
	target := participantWith(t, "Blair", 0, 0)
	target.CompletedGraduationSteps = []string{"employment", "savings"}

	got := Records(target, source, "lead1", "Morgan", mergeTime)

	assert.ElementsMatch(t, []string{"employment", "savings", "housing"}, got.CompletedGraduationSteps)
}

func TestRecords_SourceUntouched(t *testing.T) {
	source := participantWith(t, "Alex", 2, 2)
	target := participantWith(t, "Blair", 1, 1)
	sourceNotes := len(source.Notes)
	sourceHistory := len(source.History)

	Records(target, source, "lead1", "Morgan", mergeTime)

	assert.Len(t, source.Notes, sourceNotes)
	assert.Len(t, source.History, sourceHistory)
}
