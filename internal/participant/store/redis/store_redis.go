// Package redis persists participant documents in Redis, one JSON value per
// key. WATCH/MULTI gives the same optimistic version check the other
// backends provide. This store is pure I/O; lifecycle logic lives in the
// service.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"reentry/internal/participant/models"
	id "reentry/pkg/domain"
	"reentry/pkg/platform/sentinel"
)

const keyPrefix = "participant:"

func participantKey(participantID id.ParticipantID) string {
	return keyPrefix + participantID.String()
}

func changeChannel(participantID id.ParticipantID) string {
	return "participant:changes:" + participantID.String()
}

type Store struct {
	client *redis.Client
}

func New(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Create(ctx context.Context, p *models.Participant) error {
	p.Version = 1
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal participant: %w", err)
	}
	ok, err := s.client.SetNX(ctx, participantKey(p.ID), doc, 0).Result()
	if err != nil {
		return fmt.Errorf("create participant: %w", err)
	}
	if !ok {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (s *Store) Get(ctx context.Context, participantID id.ParticipantID) (*models.Participant, error) {
	doc, err := s.client.Get(ctx, participantKey(participantID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get participant: %w", err)
	}
	var p models.Participant
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, fmt.Errorf("%w: unmarshal participant: %v", sentinel.ErrInvalidState, err)
	}
	return &p, nil
}

// Update holds a WATCH on the key while verifying the stored version still
// matches the caller's read. A concurrent write aborts the transaction.
func (s *Store) Update(ctx context.Context, p *models.Participant) error {
	key := participantKey(p.ID)
	expected := p.Version

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return sentinel.ErrNotFound
			}
			return fmt.Errorf("read current participant: %w", err)
		}
		var stored models.Participant
		if err := json.Unmarshal(current, &stored); err != nil {
			return fmt.Errorf("%w: unmarshal current participant: %v", sentinel.ErrInvalidState, err)
		}
		if stored.Version != expected {
			return sentinel.ErrConflict
		}

		p.Version = expected + 1
		doc, err := json.Marshal(p)
		if err != nil {
			p.Version = expected
			return fmt.Errorf("marshal participant: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, doc, 0)
			pipe.Publish(ctx, changeChannel(p.ID), doc)
			return nil
		})
		return err
	}, key)
	if err != nil {
		if p.Version != expected {
			p.Version = expected
		}
		if errors.Is(err, redis.TxFailedErr) {
			return sentinel.ErrConflict
		}
		if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrConflict) {
			return err
		}
		return fmt.Errorf("update participant: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, participantID id.ParticipantID) error {
	removed, err := s.client.Del(ctx, participantKey(participantID)).Result()
	if err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	if removed == 0 {
		return sentinel.ErrNotFound
	}
	// An empty payload signals deletion to subscribers.
	if err := s.client.Publish(ctx, changeChannel(participantID), "").Err(); err != nil {
		return fmt.Errorf("publish delete: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]*models.Participant, error) {
	var out []*models.Participant
	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		doc, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, fmt.Errorf("list participants: %w", err)
		}
		var p models.Participant
		if err := json.Unmarshal(doc, &p); err != nil {
			return nil, fmt.Errorf("%w: unmarshal participant: %v", sentinel.ErrInvalidState, err)
		}
		out = append(out, &p)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan participants: %w", err)
	}
	return out, nil
}

// Subscribe streams document updates over pub/sub. The channel closes when
// ctx ends or the participant is deleted.
func (s *Store) Subscribe(ctx context.Context, participantID id.ParticipantID) (<-chan *models.Participant, error) {
	if _, err := s.Get(ctx, participantID); err != nil {
		return nil, err
	}

	pubsub := s.client.Subscribe(ctx, changeChannel(participantID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe participant: %w", err)
	}

	ch := make(chan *models.Participant, 8)
	go func() {
		defer close(ch)
		defer pubsub.Close()
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				if msg.Payload == "" {
					// Deleted.
					return
				}
				var p models.Participant
				if err := json.Unmarshal([]byte(msg.Payload), &p); err != nil {
					continue
				}
				select {
				case ch <- &p:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}
