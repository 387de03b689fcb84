package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"reentry/internal/participant/models"
	id "reentry/pkg/domain"
	"reentry/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) newParticipant(name string) *models.Participant {
	p, err := models.NewParticipant(id.NewParticipantID(), name, "Tran", time.Now())
	s.Require().NoError(err)
	return p
}

func (s *MemoryStoreSuite) TestCreateAndGet() {
	s.Run("creates and retrieves by id", func() {
		p := s.newParticipant("Devon")
		s.Require().NoError(s.store.Create(s.ctx, p))
		s.Equal(int64(1), p.Version)

		found, err := s.store.Get(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal("Devon", found.FirstName)
	})

	s.Run("rejects duplicate ids", func() {
		p := s.newParticipant("Devon")
		s.Require().NoError(s.store.Create(s.ctx, p))
		s.Require().ErrorIs(s.store.Create(s.ctx, p), sentinel.ErrAlreadyUsed)
	})

	s.Run("ErrNotFound for unknown id", func() {
		_, err := s.store.Get(s.ctx, id.NewParticipantID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("snapshots are isolated", func() {
		p := s.newParticipant("Devon")
		s.Require().NoError(s.store.Create(s.ctx, p))

		first, err := s.store.Get(s.ctx, p.ID)
		s.Require().NoError(err)
		first.FirstName = "Mutated"

		second, err := s.store.Get(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal("Devon", second.FirstName)
	})
}

func (s *MemoryStoreSuite) TestOptimisticConcurrency() {
	s.Run("update bumps version", func() {
		p := s.newParticipant("Devon")
		s.Require().NoError(s.store.Create(s.ctx, p))

		p.Status = models.StatusPendingMentor
		s.Require().NoError(s.store.Update(s.ctx, p))
		s.Equal(int64(2), p.Version)
	})

	s.Run("stale version is rejected", func() {
		p := s.newParticipant("Devon")
		s.Require().NoError(s.store.Create(s.ctx, p))

		writerA, err := s.store.Get(s.ctx, p.ID)
		s.Require().NoError(err)
		writerB, err := s.store.Get(s.ctx, p.ID)
		s.Require().NoError(err)

		writerA.AppendHistory(models.NewHistoryEntry(models.HistoryContactAttempt, "attempt A", "a", "A", time.Now()))
		s.Require().NoError(s.store.Update(s.ctx, writerA))

		writerB.AppendHistory(models.NewHistoryEntry(models.HistoryContactAttempt, "attempt B", "b", "B", time.Now()))
		s.Require().ErrorIs(s.store.Update(s.ctx, writerB), sentinel.ErrConflict)

		// After re-reading, writer B succeeds and no history is lost.
		fresh, err := s.store.Get(s.ctx, p.ID)
		s.Require().NoError(err)
		fresh.AppendHistory(models.NewHistoryEntry(models.HistoryContactAttempt, "attempt B", "b", "B", time.Now()))
		s.Require().NoError(s.store.Update(s.ctx, fresh))

		final, err := s.store.Get(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Len(final.History, 2, "both appends must survive")
	})

	s.Run("update of missing record is ErrNotFound", func() {
		p := s.newParticipant("Ghost")
		p.Version = 1
		s.Require().ErrorIs(s.store.Update(s.ctx, p), sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestDeleteAndList() {
	s.Run("delete removes the record", func() {
		p := s.newParticipant("Devon")
		s.Require().NoError(s.store.Create(s.ctx, p))
		s.Require().NoError(s.store.Delete(s.ctx, p.ID))

		_, err := s.store.Get(s.ctx, p.ID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("delete of missing record is ErrNotFound", func() {
		s.Require().ErrorIs(s.store.Delete(s.ctx, id.NewParticipantID()), sentinel.ErrNotFound)
	})

	s.Run("list snapshots every record", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newParticipant("One")))
		s.Require().NoError(s.store.Create(s.ctx, s.newParticipant("Two")))

		all, err := s.store.List(s.ctx)
		s.Require().NoError(err)
		s.Len(all, 2)
	})
}

func (s *MemoryStoreSuite) TestSubscribe() {
	s.Run("streams update snapshots", func() {
		p := s.newParticipant("Devon")
		s.Require().NoError(s.store.Create(s.ctx, p))

		ctx, cancel := context.WithCancel(s.ctx)
		defer cancel()
		ch, err := s.store.Subscribe(ctx, p.ID)
		s.Require().NoError(err)

		p.Status = models.StatusPendingMentor
		s.Require().NoError(s.store.Update(s.ctx, p))

		select {
		case snapshot := <-ch:
			s.Equal(models.StatusPendingMentor, snapshot.Status)
		case <-time.After(time.Second):
			s.Fail("expected a snapshot on the subscription channel")
		}
	})

	s.Run("channel closes on delete", func() {
		p := s.newParticipant("Devon")
		s.Require().NoError(s.store.Create(s.ctx, p))

		ch, err := s.store.Subscribe(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Require().NoError(s.store.Delete(s.ctx, p.ID))

		select {
		case _, open := <-ch:
			s.False(open, "channel must close when the participant is deleted")
		case <-time.After(time.Second):
			s.Fail("expected the subscription channel to close")
		}
	})

	s.Run("subscribe to missing participant is ErrNotFound", func() {
		_, err := s.store.Subscribe(s.ctx, id.NewParticipantID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}
