//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"reentry/internal/participant/models"
	"reentry/internal/participant/store/postgres"
	id "reentry/pkg/domain"
	"reentry/pkg/platform/sentinel"
	"reentry/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *postgres.Store
	ctx   context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = postgres.New(s.pg.DB, s.pg.ConnInfo)
	s.Require().NoError(s.store.EnsureSchema(s.ctx))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(s.ctx, "participants"))
}

func (s *PostgresStoreSuite) newParticipant(first, last string) *models.Participant {
	p, err := models.NewParticipant(id.NewParticipantID(), first, last, time.Now().UTC())
	s.Require().NoError(err)
	return p
}

func (s *PostgresStoreSuite) TestCreateAndGet() {
	p := s.newParticipant("Marcus", "Webb")
	s.Require().NoError(s.store.Create(s.ctx, p))
	s.Equal(int64(1), p.Version)

	got, err := s.store.Get(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(p.ID, got.ID)
	s.Equal("Marcus", got.FirstName)
	s.Equal(models.StatusPendingBridge, got.Status)
	s.Equal(int64(1), got.Version)
}

func (s *PostgresStoreSuite) TestCreateDuplicate() {
	p := s.newParticipant("Marcus", "Webb")
	s.Require().NoError(s.store.Create(s.ctx, p))

	err := s.store.Create(s.ctx, p)
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)
}

func (s *PostgresStoreSuite) TestGetMissing() {
	_, err := s.store.Get(s.ctx, id.NewParticipantID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpdateBumpsVersion() {
	p := s.newParticipant("Marcus", "Webb")
	s.Require().NoError(s.store.Create(s.ctx, p))

	p.Phone = "555-0101"
	s.Require().NoError(s.store.Update(s.ctx, p))
	s.Equal(int64(2), p.Version)

	got, err := s.store.Get(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("555-0101", got.Phone)
	s.Equal(int64(2), got.Version)
}

func (s *PostgresStoreSuite) TestUpdateStaleVersionConflicts() {
	p := s.newParticipant("Marcus", "Webb")
	s.Require().NoError(s.store.Create(s.ctx, p))

	readerA, err := s.store.Get(s.ctx, p.ID)
	s.Require().NoError(err)
	readerB, err := s.store.Get(s.ctx, p.ID)
	s.Require().NoError(err)

	readerA.Phone = "555-0101"
	s.Require().NoError(s.store.Update(s.ctx, readerA))

	readerB.Email = "marcus@example.org"
	err = s.store.Update(s.ctx, readerB)
	s.ErrorIs(err, sentinel.ErrConflict)

	// Retry from a fresh read succeeds and keeps both writes.
	fresh, err := s.store.Get(s.ctx, p.ID)
	s.Require().NoError(err)
	fresh.Email = "marcus@example.org"
	s.Require().NoError(s.store.Update(s.ctx, fresh))

	got, err := s.store.Get(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("555-0101", got.Phone)
	s.Equal("marcus@example.org", got.Email)
	s.Equal(int64(3), got.Version)
}

func (s *PostgresStoreSuite) TestUpdateMissing() {
	p := s.newParticipant("Marcus", "Webb")
	p.Version = 1
	err := s.store.Update(s.ctx, p)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDelete() {
	p := s.newParticipant("Marcus", "Webb")
	s.Require().NoError(s.store.Create(s.ctx, p))

	s.Require().NoError(s.store.Delete(s.ctx, p.ID))

	_, err := s.store.Get(s.ctx, p.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.ErrorIs(s.store.Delete(s.ctx, p.ID), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestList() {
	a := s.newParticipant("Marcus", "Webb")
	b := s.newParticipant("Deja", "Coleman")
	s.Require().NoError(s.store.Create(s.ctx, a))
	s.Require().NoError(s.store.Create(s.ctx, b))

	all, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 2)
}

func (s *PostgresStoreSuite) TestSubscribeStreamsUpdates() {
	p := s.newParticipant("Marcus", "Webb")
	s.Require().NoError(s.store.Create(s.ctx, p))

	ctx, cancel := context.WithTimeout(s.ctx, 15*time.Second)
	defer cancel()

	ch, err := s.store.Subscribe(ctx, p.ID)
	s.Require().NoError(err)

	// Give the listener a moment to attach before the first write.
	time.Sleep(500 * time.Millisecond)

	p.Phone = "555-0101"
	s.Require().NoError(s.store.Update(s.ctx, p))

	select {
	case got := <-ch:
		s.Require().NotNil(got)
		s.Equal("555-0101", got.Phone)
	case <-ctx.Done():
		s.Fail("timed out waiting for subscription update")
	}
}
