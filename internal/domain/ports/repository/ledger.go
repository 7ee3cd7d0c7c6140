package repository

import (
	"context"

	"course-payments/internal/domain/model"
)

// InstallmentLedgerRepository is the append-only installment ledger.
// Append enforces strict monotonic installment numbers per enrollment at the
// storage layer (unique index), independent of the state machine's own
// idempotency check.
type InstallmentLedgerRepository interface {
	Append(ctx context.Context, tx Tx, rec *model.InstallmentPaymentRecord) error
	ListByEnrollment(ctx context.Context, tx Tx, enrollmentID string) ([]*model.InstallmentPaymentRecord, error)
	// SumPaid returns total amount and entry count; used by the periodic
	// consistency audit, not by the webhook hot path.
	SumPaid(ctx context.Context, tx Tx, enrollmentID string) (amount int64, count int, err error)
}
