// Package postgres persists guidance tasks in PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"reentry/internal/guidance/models"
	id "reentry/pkg/domain"
	"reentry/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the guidance_tasks table when absent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS guidance_tasks (
			id                UUID PRIMARY KEY,
			participant_id    UUID NOT NULL,
			participant_name  TEXT NOT NULL DEFAULT '',
			mentor_id         TEXT NOT NULL DEFAULT '',
			mentor_name       TEXT NOT NULL DEFAULT '',
			guidance_notes    TEXT NOT NULL,
			status            TEXT NOT NULL,
			response          TEXT NOT NULL DEFAULT '',
			follow_up_notes   TEXT NOT NULL DEFAULT '',
			completed_by      TEXT NOT NULL DEFAULT '',
			completed_by_name TEXT NOT NULL DEFAULT '',
			created_at        TIMESTAMPTZ NOT NULL,
			completed_at      TIMESTAMPTZ
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure guidance_tasks schema: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS idx_guidance_tasks_participant
		ON guidance_tasks (participant_id)
	`)
	if err != nil {
		return fmt.Errorf("ensure guidance_tasks index: %w", err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, task *models.Task) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO guidance_tasks
			(id, participant_id, participant_name, mentor_id, mentor_name,
			 guidance_notes, status, response, follow_up_notes,
			 completed_by, completed_by_name, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		task.ID.String(), task.ParticipantID.String(), task.ParticipantName,
		task.MentorID, task.MentorName, task.GuidanceNotes, string(task.Status),
		task.Response, task.FollowUpNotes, task.CompletedBy, task.CompletedByName,
		task.CreatedAt, task.CompletedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create guidance task: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, taskID id.TaskID) (*models.Task, error) {
	row := s.pool.QueryRow(ctx, selectColumns+` WHERE id = $1`, taskID.String())
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get guidance task: %w", err)
	}
	return task, nil
}

func (s *Store) Update(ctx context.Context, task *models.Task) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE guidance_tasks
		SET status = $2, response = $3, follow_up_notes = $4,
		    completed_by = $5, completed_by_name = $6, completed_at = $7
		WHERE id = $1
	`,
		task.ID.String(), string(task.Status), task.Response, task.FollowUpNotes,
		task.CompletedBy, task.CompletedByName, task.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update guidance task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) ListByStatus(ctx context.Context, status models.TaskStatus) ([]*models.Task, error) {
	rows, err := s.pool.Query(ctx,
		selectColumns+` WHERE status = $1 ORDER BY created_at DESC`, string(status))
	if err != nil {
		return nil, fmt.Errorf("list guidance tasks by status: %w", err)
	}
	return collectTasks(rows)
}

func (s *Store) ListByParticipant(ctx context.Context, participantID id.ParticipantID) ([]*models.Task, error) {
	rows, err := s.pool.Query(ctx,
		selectColumns+` WHERE participant_id = $1 ORDER BY created_at DESC`,
		participantID.String())
	if err != nil {
		return nil, fmt.Errorf("list guidance tasks by participant: %w", err)
	}
	return collectTasks(rows)
}

const selectColumns = `
	SELECT id, participant_id, participant_name, mentor_id, mentor_name,
	       guidance_notes, status, response, follow_up_notes,
	       completed_by, completed_by_name, created_at, completed_at
	FROM guidance_tasks`

func scanTask(row pgx.Row) (*models.Task, error) {
	var (
		task          models.Task
		taskID        string
		participantID string
		status        string
	)
	err := row.Scan(
		&taskID, &participantID, &task.ParticipantName, &task.MentorID,
		&task.MentorName, &task.GuidanceNotes, &status, &task.Response,
		&task.FollowUpNotes, &task.CompletedBy, &task.CompletedByName,
		&task.CreatedAt, &task.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	parsedTaskID, err := id.ParseTaskID(taskID)
	if err != nil {
		return nil, fmt.Errorf("stored task id: %w", err)
	}
	parsedParticipantID, err := id.ParseParticipantID(participantID)
	if err != nil {
		return nil, fmt.Errorf("stored participant id: %w", err)
	}
	task.ID = parsedTaskID
	task.ParticipantID = parsedParticipantID
	task.Status = models.TaskStatus(status)
	return &task, nil
}

func collectTasks(rows pgx.Rows) ([]*models.Task, error) {
	defer rows.Close()
	var out []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan guidance task: %w", err)
		}
		out = append(out, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read guidance tasks: %w", err)
	}
	return out, nil
}
