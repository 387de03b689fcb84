// Package store defines the participant document-store boundary. One JSON
// document per participant, keyed by id, with an optimistic-concurrency
// version token checked on every update.
package store

import (
	"context"

	"reentry/internal/participant/models"
	id "reentry/pkg/domain"
)

// Store is implemented by the memory, postgres and redis backends.
//
// Update is the concurrency control point: implementations compare the
// record's Version against the persisted one and return sentinel.ErrConflict
// when another writer got there first. On success the persisted Version is
// incremented and reflected on the passed record. Services re-read and retry
// a bounded number of times.
type Store interface {
	// Create persists a new document. sentinel.ErrAlreadyUsed when the id
	// is taken.
	Create(ctx context.Context, p *models.Participant) error

	// Get returns a snapshot of one document. sentinel.ErrNotFound when
	// absent. Callers own the returned record.
	Get(ctx context.Context, participantID id.ParticipantID) (*models.Participant, error)

	// Update writes a whole document if p.Version still matches.
	Update(ctx context.Context, p *models.Participant) error

	// Delete removes a document. sentinel.ErrNotFound when absent.
	Delete(ctx context.Context, participantID id.ParticipantID) error

	// List returns a snapshot of every document, for dashboards and the
	// due-date sweep. The snapshot may be slightly stale; the sweep only
	// reads.
	List(ctx context.Context) ([]*models.Participant, error)

	// Subscribe streams snapshots of one participant as it changes. The
	// channel closes when ctx is done or the participant is deleted.
	Subscribe(ctx context.Context, participantID id.ParticipantID) (<-chan *models.Participant, error)
}
