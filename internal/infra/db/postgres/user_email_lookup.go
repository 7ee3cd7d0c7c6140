package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"course-payments/internal/domain"
)

// NewUserEmailLookup returns the recipient lookup the email sender needs.
// User accounts live in the platform's users table; this service only ever
// reads the address.
func NewUserEmailLookup(pool *pgxpool.Pool) func(ctx context.Context, userID string) (string, error) {
	return func(ctx context.Context, userID string) (string, error) {
		const q = `SELECT email FROM users WHERE id=$1;`
		row, err := pickRow(ctx, pool, nil, q, userID)
		if err != nil {
			return "", err
		}
		var email string
		if err := row.Scan(&email); err != nil {
			if err == pgx.ErrNoRows {
				return "", domain.ErrNotFound
			}
			return "", domain.ErrReadDatabaseRow
		}
		return email, nil
	}
}
