package identity

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"keystone/pkg/domain"
	"keystone/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) TestLookupBehavior() {
	s.Run("returns principal by ID when active", func() {
		record := activeRecord(nil)
		s.Require().NoError(s.store.Save(context.Background(), record))

		found, err := s.store.FindActiveByID(context.Background(), record.ID)
		s.Require().NoError(err)
		s.Equal(record.Principal, *found)
	})

	s.Run("returns full record by email for login", func() {
		record := activeRecord(nil)
		s.Require().NoError(s.store.Save(context.Background(), record))

		found, err := s.store.FindActiveByEmail(context.Background(), record.Email)
		s.Require().NoError(err)
		s.Equal(record.PasswordHash, found.PasswordHash)
	})

	s.Run("email matching is case-insensitive", func() {
		record := activeRecord(nil)
		record.Email = "Mixed.Case@Example.COM"
		s.Require().NoError(s.store.Save(context.Background(), record))

		found, err := s.store.FindActiveByEmail(context.Background(), "mixed.case@example.com")
		s.Require().NoError(err)
		s.Equal(record.ID, found.ID)
	})

	s.Run("returns ErrNotFound for missing ID", func() {
		_, err := s.store.FindActiveByID(context.Background(), domain.UserID(uuid.New()))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestInactiveRecordsAreInvisible() {
	record := activeRecord(nil)
	record.Active = false
	s.Require().NoError(s.store.Save(context.Background(), record))

	s.Run("by ID", func() {
		_, err := s.store.FindActiveByID(context.Background(), record.ID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("by email", func() {
		_, err := s.store.FindActiveByEmail(context.Background(), record.Email)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestSaveReplacesExistingRecord() {
	record := activeRecord(nil)
	s.Require().NoError(s.store.Save(context.Background(), record))

	record.Role = domain.RoleTenantAdmin
	s.Require().NoError(s.store.Save(context.Background(), record))

	found, err := s.store.FindActiveByID(context.Background(), record.ID)
	s.Require().NoError(err)
	s.Equal(domain.RoleTenantAdmin, found.Role)
}
