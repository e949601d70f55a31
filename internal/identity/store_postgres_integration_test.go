//go:build integration

package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"

	"keystone/internal/identity"
	"keystone/pkg/domain"
	"keystone/pkg/platform/sentinel"
	"keystone/pkg/testutil/containers"
)

const usersSchema = `
CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY,
	email         TEXT NOT NULL,
	role          TEXT NOT NULL,
	tenant_id     UUID,
	verified      BOOLEAN NOT NULL DEFAULT FALSE,
	mfa_enabled   BOOLEAN NOT NULL DEFAULT FALSE,
	locked_until  TIMESTAMPTZ,
	password_hash TEXT NOT NULL,
	active        BOOLEAN NOT NULL DEFAULT TRUE
);
CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_idx ON users (lower(email));
`

type PostgresStoreSuite struct {
	suite.Suite
	pool  *pgxpool.Pool
	store *identity.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	ctx := context.Background()
	pg := containers.NewPostgresContainer(s.T())

	pool, err := pgxpool.New(ctx, pg.DSN)
	s.Require().NoError(err)
	s.pool = pool

	_, err = pool.Exec(ctx, usersSchema)
	s.Require().NoError(err)

	s.store = identity.NewPostgres(pool)
}

func (s *PostgresStoreSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *PostgresStoreSuite) SetupTest() {
	_, err := s.pool.Exec(context.Background(), "TRUNCATE users")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newRecord(active bool) identity.Record {
	tenantID := domain.TenantID(uuid.New())
	return identity.Record{
		Principal: identity.Principal{
			ID:       domain.UserID(uuid.New()),
			Email:    uuid.NewString() + "@example.test",
			Role:     domain.RoleEndUser,
			TenantID: &tenantID,
			Verified: true,
		},
		PasswordHash: "bcrypt-hash",
		Active:       active,
	}
}

func (s *PostgresStoreSuite) TestSaveAndFindByID() {
	ctx := context.Background()
	record := s.newRecord(true)
	s.Require().NoError(s.store.Save(ctx, record))

	found, err := s.store.FindActiveByID(ctx, record.ID)
	s.Require().NoError(err)
	s.Equal(record.ID, found.ID)
	s.Equal(record.Email, found.Email)
	s.Equal(domain.RoleEndUser, found.Role)
	s.Require().NotNil(found.TenantID)
	s.Equal(*record.TenantID, *found.TenantID)
}

func (s *PostgresStoreSuite) TestFindByEmailIsCaseInsensitive() {
	ctx := context.Background()
	record := s.newRecord(true)
	record.Email = "Mixed.Case@Example.Test"
	s.Require().NoError(s.store.Save(ctx, record))

	found, err := s.store.FindActiveByEmail(ctx, "mixed.case@example.test")
	s.Require().NoError(err)
	s.Equal(record.ID, found.ID)
	s.Equal(record.PasswordHash, found.PasswordHash)
}

func (s *PostgresStoreSuite) TestInactiveAccountsAreInvisible() {
	ctx := context.Background()
	record := s.newRecord(false)
	s.Require().NoError(s.store.Save(ctx, record))

	_, err := s.store.FindActiveByID(ctx, record.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.FindActiveByEmail(ctx, record.Email)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestMissingRecordIsNotFound() {
	_, err := s.store.FindActiveByID(context.Background(), domain.UserID(uuid.New()))
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestLockedUntilRoundTrips() {
	ctx := context.Background()
	until := time.Now().Add(time.Hour).UTC().Truncate(time.Microsecond)

	record := s.newRecord(true)
	record.LockedUntil = &until
	s.Require().NoError(s.store.Save(ctx, record))

	found, err := s.store.FindActiveByID(ctx, record.ID)
	s.Require().NoError(err)
	s.Require().NotNil(found.LockedUntil)
	s.WithinDuration(until, *found.LockedUntil, time.Millisecond)
}

func (s *PostgresStoreSuite) TestSaveUpserts() {
	ctx := context.Background()
	record := s.newRecord(true)
	s.Require().NoError(s.store.Save(ctx, record))

	record.Role = domain.RoleTenantAdmin
	record.MFAEnabled = true
	s.Require().NoError(s.store.Save(ctx, record))

	found, err := s.store.FindActiveByID(ctx, record.ID)
	s.Require().NoError(err)
	s.Equal(domain.RoleTenantAdmin, found.Role)
	s.True(found.MFAEnabled)
}
