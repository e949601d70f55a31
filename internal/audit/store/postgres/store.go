package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"keystone/internal/audit"
)

// Store persists audit records in the audit_events table. Structured
// metadata travels as a jsonb column so query tooling can reach into it.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store. The caller owns the *sql.DB
// (opened with the lib/pq driver).
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const recordColumns = `
	id, category, timestamp, actor_id, tenant_id, action, resource,
	resource_id, client_ip, user_agent, method, path, duration_ms,
	status_code, success, error_message, metadata, request_id, trace_id`

// Append writes one record. Idempotent via ON CONFLICT DO NOTHING so a
// retried write never duplicates a trace.
func (s *Store) Append(ctx context.Context, record audit.Record) error {
	var metadata []byte
	if record.Metadata != nil {
		var err error
		metadata, err = json.Marshal(record.Metadata)
		if err != nil {
			return fmt.Errorf("marshal audit metadata: %w", err)
		}
	}

	query := `
		INSERT INTO audit_events (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		string(record.Category),
		record.Timestamp,
		nullable(record.ActorID),
		record.TenantID,
		string(record.Action),
		record.Resource,
		nullable(record.ResourceID),
		record.ClientIP,
		record.UserAgent,
		record.Method,
		record.Path,
		record.DurationMs,
		record.StatusCode,
		record.Success,
		nullable(record.ErrorMessage),
		metadata,
		nullable(record.RequestID),
		nullable(record.TraceID),
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListRecent returns the N most recent records.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM audit_events
		ORDER BY timestamp DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return s.scanRecords(rows)
}

// ListByActor returns records for a specific actor, newest first.
func (s *Store) ListByActor(ctx context.Context, actorID string) ([]audit.Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM audit_events
		WHERE actor_id = $1
		ORDER BY timestamp DESC
	`
	rows, err := s.db.QueryContext(ctx, query, actorID)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return s.scanRecords(rows)
}

func (s *Store) scanRecords(rows *sql.Rows) ([]audit.Record, error) {
	var records []audit.Record

	for rows.Next() {
		var (
			record   audit.Record
			rawID    uuid.UUID
			category string
			action   string
			actorID  sql.NullString
			resID    sql.NullString
			errMsg   sql.NullString
			reqID    sql.NullString
			traceID  sql.NullString
			metadata []byte
		)

		err := rows.Scan(
			&rawID,
			&category,
			&record.Timestamp,
			&actorID,
			&record.TenantID,
			&action,
			&record.Resource,
			&resID,
			&record.ClientIP,
			&record.UserAgent,
			&record.Method,
			&record.Path,
			&record.DurationMs,
			&record.StatusCode,
			&record.Success,
			&errMsg,
			&metadata,
			&reqID,
			&traceID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}

		record.ID = rawID
		record.Category = audit.EventCategory(category)
		record.Action = audit.Action(action)
		record.ActorID = actorID.String
		record.ResourceID = resID.String
		record.ErrorMessage = errMsg.String
		record.RequestID = reqID.String
		record.TraceID = traceID.String
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &record.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal audit metadata: %w", err)
			}
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}

	return records, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
