// Package merge combines two duplicate participant records into one. The
// combination itself is pure; the service layer runs the two-write saga
// (persist target, delete source) around it.
package merge

import (
	"fmt"
	"sort"
	"time"

	"reentry/internal/participant/models"
	stringsutil "reentry/pkg/platform/strings"
)

// MetadataSourceID keys the merged-from participant id in the synthetic
// merge-audit history entry. Retries look it up to stay idempotent.
const MetadataSourceID = "mergedFrom"

// Records unions source's notes and history into target and appends one
// merge-audit entry attributed to the actor. Both unions de-duplicate by
// entry id, so re-running the merge after a partial failure (target written,
// source not yet deleted) adds nothing twice. The merged slices are ordered
// most-recent-first, the canonical display order.
//
// Records mutates target and returns it; source is never modified.
func Records(target, source *models.Participant, actorID, actorName string, now time.Time) *models.Participant {
	target.Notes = unionNotes(target.Notes, source.Notes)
	target.History = unionHistory(target.History, source.History)

	if !alreadyMerged(target.History, source.ID.String()) {
		entry := models.NewHistoryEntry(
			models.HistoryNoteAdded,
			fmt.Sprintf("Merged duplicate record for %s", source.FullName()),
			actorID, actorName, now,
		)
		entry.Details = fmt.Sprintf("Absorbed %d notes and %d history entries", len(source.Notes), len(source.History))
		entry.Metadata = map[string]string{MetadataSourceID: source.ID.String()}
		target.AppendHistory(entry)
	}

	// Carry over identity details the target record is missing.
	if target.Phone == "" {
		target.Phone = source.Phone
	}
	if target.Email == "" {
		target.Email = source.Email
	}
	target.CompletedGraduationSteps = stringsutil.DedupeAndTrim(
		append(target.CompletedGraduationSteps, source.CompletedGraduationSteps...))

	sortNotes(target.Notes)
	sortHistory(target.History)
	return target
}

func alreadyMerged(history []models.HistoryEntry, sourceID string) bool {
	for _, e := range history {
		if e.Metadata[MetadataSourceID] == sourceID {
			return true
		}
	}
	return false
}

func unionNotes(target, source []models.Note) []models.Note {
	seen := make(map[string]struct{}, len(target))
	out := make([]models.Note, 0, len(target)+len(source))
	for _, n := range target {
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		out = append(out, n)
	}
	for _, n := range source {
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		out = append(out, n)
	}
	return out
}

func unionHistory(target, source []models.HistoryEntry) []models.HistoryEntry {
	seen := make(map[string]struct{}, len(target))
	out := make([]models.HistoryEntry, 0, len(target)+len(source))
	for _, e := range target {
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	for _, e := range source {
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	return out
}

func sortNotes(notes []models.Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].CreatedAt.After(notes[j].CreatedAt)
	})
}

func sortHistory(entries []models.HistoryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
}
