package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"course-payments/internal/domain"
	"course-payments/internal/domain/model"
	"course-payments/internal/domain/ports/repository"
)

// Ensure processedEventRepo implements repository.ProcessedEventRepository
var _ repository.ProcessedEventRepository = (*processedEventRepo)(nil)

type processedEventRepo struct {
	pool *pgxpool.Pool
}

func NewProcessedEventRepo(pool *pgxpool.Pool) *processedEventRepo {
	return &processedEventRepo{pool: pool}
}

// Record relies on the (provider, provider_event_id) unique index; the index
// is the authoritative duplicate check, not any prior Seen lookup.
func (r *processedEventRepo) Record(ctx context.Context, tx repository.Tx, provider model.Provider, providerEventID, enrollmentID string) error {
	const q = `
INSERT INTO processed_events (provider, provider_event_id, enrollment_id, processed_at)
VALUES ($1,$2,$3,NOW());`

	_, err := execSQL(ctx, r.pool, tx, q, string(provider), providerEventID, enrollmentID)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return err
		default:
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return domain.ErrDuplicateEvent
			}
			return domain.ErrOperationFailed
		}
	}
	return nil
}

func (r *processedEventRepo) Seen(ctx context.Context, tx repository.Tx, provider model.Provider, providerEventID string) (bool, error) {
	const q = `SELECT 1 FROM processed_events WHERE provider=$1 AND provider_event_id=$2;`
	row, err := pickRow(ctx, r.pool, tx, q, string(provider), providerEventID)
	if err != nil {
		return false, err
	}

	var one int
	if err := row.Scan(&one); err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, domain.ErrReadDatabaseRow
	}
	return true, nil
}
