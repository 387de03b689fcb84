// Package postgres persists participant documents in PostgreSQL, one JSONB
// document per row with a version column for optimistic concurrency.
// This store is pure I/O; all lifecycle logic belongs in the service.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"reentry/internal/participant/models"
	id "reentry/pkg/domain"
	"reentry/pkg/platform/sentinel"
)

// notifyChannel carries participant ids for change-feed subscribers.
const notifyChannel = "participant_changes"

const uniqueViolation = "23505"

type Store struct {
	db *sql.DB
	// conninfo is kept for LISTEN connections; pq.Listener cannot share the
	// pooled *sql.DB.
	conninfo string
}

// New constructs a PostgreSQL-backed participant store. conninfo may be
// empty when subscriptions are not needed (e.g. batch tools).
func New(db *sql.DB, conninfo string) *Store {
	return &Store{db: db, conninfo: conninfo}
}

// EnsureSchema creates the participants table when absent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS participants (
			id         UUID PRIMARY KEY,
			version    BIGINT NOT NULL,
			doc        JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure participants schema: %w", err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, p *models.Participant) error {
	p.Version = 1
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal participant: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO participants (id, version, doc) VALUES ($1, $2, $3)`,
		p.ID.String(), p.Version, doc,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create participant: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, participantID id.ParticipantID) (*models.Participant, error) {
	var (
		doc     []byte
		version int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT doc, version FROM participants WHERE id = $1`,
		participantID.String(),
	).Scan(&doc, &version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get participant: %w", err)
	}
	return unmarshalParticipant(doc, version)
}

// Update compares-and-swaps on the version column. The document only lands
// when no other writer moved the version since this writer's read.
func (s *Store) Update(ctx context.Context, p *models.Participant) error {
	expected := p.Version
	p.Version = expected + 1
	doc, err := json.Marshal(p)
	if err != nil {
		p.Version = expected
		return fmt.Errorf("marshal participant: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE participants
		SET doc = $2, version = $3, updated_at = now()
		WHERE id = $1 AND version = $4
	`, p.ID.String(), doc, p.Version, expected)
	if err != nil {
		p.Version = expected
		return fmt.Errorf("update participant: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		p.Version = expected
		return fmt.Errorf("update participant: %w", err)
	}
	if affected == 0 {
		p.Version = expected
		var exists bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM participants WHERE id = $1)`,
			p.ID.String(),
		).Scan(&exists); err != nil {
			return fmt.Errorf("update participant: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	}

	// Change feed; best effort, the write itself already committed.
	_, _ = s.db.ExecContext(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, p.ID.String())
	return nil
}

func (s *Store) Delete(ctx context.Context, participantID id.ParticipantID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM participants WHERE id = $1`, participantID.String())
	if err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	_, _ = s.db.ExecContext(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, participantID.String())
	return nil
}

func (s *Store) List(ctx context.Context) ([]*models.Participant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc, version FROM participants ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var out []*models.Participant
	for rows.Next() {
		var (
			doc     []byte
			version int64
		)
		if err := rows.Scan(&doc, &version); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		p, err := unmarshalParticipant(doc, version)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return out, nil
}

// Subscribe LISTENs for change notifications and re-reads the document on
// each one. The channel closes when ctx ends or the participant is deleted.
func (s *Store) Subscribe(ctx context.Context, participantID id.ParticipantID) (<-chan *models.Participant, error) {
	if s.conninfo == "" {
		return nil, sentinel.ErrUnavailable
	}
	if _, err := s.Get(ctx, participantID); err != nil {
		return nil, err
	}

	listener := pq.NewListener(s.conninfo, 10*time.Second, time.Minute, nil)
	if err := listener.Listen(notifyChannel); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("listen %s: %w", notifyChannel, err)
	}

	ch := make(chan *models.Participant, 8)
	go func() {
		defer close(ch)
		defer listener.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case n := <-listener.Notify:
				if n == nil || n.Extra != participantID.String() {
					continue
				}
				p, err := s.Get(ctx, participantID)
				if err != nil {
					// Deleted or unreachable: the feed ends either way.
					return
				}
				select {
				case ch <- p:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}

func unmarshalParticipant(doc []byte, version int64) (*models.Participant, error) {
	var p models.Participant
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, fmt.Errorf("%w: unmarshal participant: %v", sentinel.ErrInvalidState, err)
	}
	p.Version = version
	return &p, nil
}
