package ports

import (
	"context"

	"pos-cloud-sync/internal/domain"
)

// RecordStore pushes and pulls tenant records. Implementations take the
// identity per call and keep no tenant state of their own.
type RecordStore interface {
	// Push upserts rec keyed by its document id. It fails with
	// domain.ErrNoIdentity, without I/O, when id is not established.
	Push(ctx context.Context, id domain.Identity, collection string, rec domain.Record) (*domain.PushResult, error)

	// Pull returns records with updated_at greater than since (0 when nil),
	// in no particular order. Without an identity it returns an empty slice
	// and no error; a failed query returns an empty slice and an error
	// wrapping domain.ErrQueryFailed.
	Pull(ctx context.Context, id domain.Identity, collection string, since *int64) ([]domain.Record, error)
}

// EventQueue appends PendingEvent records to a tenant's queue
type EventQueue interface {
	AppendEvent(ctx context.Context, tenantID, collection string, rec domain.Record) (string, error)
}
