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

// Ensure ledgerRepo implements repository.InstallmentLedgerRepository
var _ repository.InstallmentLedgerRepository = (*ledgerRepo)(nil)

type ledgerRepo struct {
	pool *pgxpool.Pool
}

func NewLedgerRepo(pool *pgxpool.Pool) *ledgerRepo {
	return &ledgerRepo{pool: pool}
}

func (r *ledgerRepo) Append(ctx context.Context, tx repository.Tx, rec *model.InstallmentPaymentRecord) error {
	const q = `
INSERT INTO installment_payments (
  id, enrollment_id, installment_number, amount, currency, status, transaction_id, paid_at, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW());`

	_, err := execSQL(ctx, r.pool, tx, q,
		rec.ID, rec.EnrollmentID, rec.InstallmentNumber, rec.Amount, rec.Currency, rec.Status, rec.TransactionID, rec.PaidAt)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return err
		default:
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return domain.ErrDuplicateInstallment
			}
			return domain.ErrOperationFailed
		}
	}
	return nil
}

func (r *ledgerRepo) ListByEnrollment(ctx context.Context, tx repository.Tx, enrollmentID string) ([]*model.InstallmentPaymentRecord, error) {
	const q = `
SELECT id, enrollment_id, installment_number, amount, currency, status, transaction_id, paid_at, created_at
  FROM installment_payments
 WHERE enrollment_id=$1
 ORDER BY installment_number ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q, enrollmentID)
	if err != nil {
		switch err {
		case pgx.ErrNoRows:
			return nil, domain.ErrNotFound
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.InstallmentPaymentRecord
	for rows.Next() {
		rec := new(model.InstallmentPaymentRecord)
		if err := rows.Scan(&rec.ID, &rec.EnrollmentID, &rec.InstallmentNumber, &rec.Amount, &rec.Currency, &rec.Status, &rec.TransactionID, &rec.PaidAt, &rec.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *ledgerRepo) SumPaid(ctx context.Context, tx repository.Tx, enrollmentID string) (int64, int, error) {
	const q = `SELECT COALESCE(SUM(amount),0), COUNT(*) FROM installment_payments WHERE enrollment_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, enrollmentID)
	if err != nil {
		return 0, 0, err
	}

	var amount int64
	var count int
	if err := row.Scan(&amount, &count); err != nil {
		return 0, 0, domain.ErrReadDatabaseRow
	}
	return amount, count, nil
}
