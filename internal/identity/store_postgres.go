package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"keystone/pkg/domain"
	"keystone/pkg/platform/sentinel"
)

// PostgresStore resolves principals from the users table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const principalColumns = `id, email, role, tenant_id, verified, mfa_enabled, locked_until, password_hash, active`

// FindActiveByID returns the live principal for id. The active=TRUE predicate
// lives in SQL so deactivated accounts never materialize in memory.
func (s *PostgresStore) FindActiveByID(ctx context.Context, id domain.UserID) (*Principal, error) {
	query := `
		SELECT ` + principalColumns + `
		FROM users
		WHERE id = $1 AND active = TRUE
	`
	record, err := s.scanRecord(s.pool.QueryRow(ctx, query, uuid.UUID(id)))
	if err != nil {
		return nil, err
	}
	p := record.Principal
	return &p, nil
}

// FindActiveByEmail returns the full record for login flows.
func (s *PostgresStore) FindActiveByEmail(ctx context.Context, email string) (*Record, error) {
	query := `
		SELECT ` + principalColumns + `
		FROM users
		WHERE lower(email) = lower($1) AND active = TRUE
	`
	return s.scanRecord(s.pool.QueryRow(ctx, query, email))
}

// Save inserts or replaces a record. Used by seeds and tests; request
// handling never writes through this store.
func (s *PostgresStore) Save(ctx context.Context, record Record) error {
	query := `
		INSERT INTO users (id, email, role, tenant_id, verified, mfa_enabled, locked_until, password_hash, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			role = EXCLUDED.role,
			tenant_id = EXCLUDED.tenant_id,
			verified = EXCLUDED.verified,
			mfa_enabled = EXCLUDED.mfa_enabled,
			locked_until = EXCLUDED.locked_until,
			password_hash = EXCLUDED.password_hash,
			active = EXCLUDED.active
	`
	var tenantID *uuid.UUID
	if record.TenantID != nil {
		tid := uuid.UUID(*record.TenantID)
		tenantID = &tid
	}
	_, err := s.pool.Exec(ctx, query,
		uuid.UUID(record.ID),
		record.Email,
		record.Role.String(),
		tenantID,
		record.Verified,
		record.MFAEnabled,
		record.LockedUntil,
		record.PasswordHash,
		record.Active,
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) scanRecord(row pgx.Row) (*Record, error) {
	var (
		record      Record
		rawID       uuid.UUID
		rawRole     string
		tenantID    *uuid.UUID
		lockedUntil *time.Time
	)

	err := row.Scan(
		&rawID,
		&record.Email,
		&rawRole,
		&tenantID,
		&record.Verified,
		&record.MFAEnabled,
		&lockedUntil,
		&record.PasswordHash,
		&record.Active,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}

	record.ID = domain.UserID(rawID)
	role, err := domain.ParseRole(rawRole)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", rawID, err)
	}
	record.Role = role
	if tenantID != nil {
		tid := domain.TenantID(*tenantID)
		record.TenantID = &tid
	}
	record.LockedUntil = lockedUntil

	return &record, nil
}
