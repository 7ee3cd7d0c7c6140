package repository

import (
	"context"

	"course-payments/internal/domain/model"
)

// ProcessedEventRepository is the idempotency set keyed by
// (provider, provider_event_id). Record inserts inside the Apply transaction;
// a conflict means the event was already applied and the transaction rolls
// back as a duplicate no-op.
type ProcessedEventRepository interface {
	// Record returns domain.ErrDuplicateEvent when the event id is already present.
	Record(ctx context.Context, tx Tx, provider model.Provider, providerEventID, enrollmentID string) error
	Seen(ctx context.Context, tx Tx, provider model.Provider, providerEventID string) (bool, error)
}
