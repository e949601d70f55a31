package audit

import "context"

// Store is the durable sink for audit records. Append failures must be
// catchable without crashing the caller; the Recorder logs and swallows
// them so the HTTP response is never affected by audit storage trouble.
type Store interface {
	Append(ctx context.Context, record Record) error
}

// QueryStore is the read surface for stores that support it. The Kafka
// sink is append-only and does not implement it.
type QueryStore interface {
	Store
	ListRecent(ctx context.Context, limit int) ([]Record, error)
	ListByActor(ctx context.Context, actorID string) ([]Record, error)
}
