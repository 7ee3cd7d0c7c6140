// File: internal/usecase/audit_uc.go
package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"course-payments/internal/domain/model"
	"course-payments/internal/domain/ports/repository"
	"course-payments/internal/infra/metrics"
)

// Compile-time check
var _ AuditUseCase = (*auditUC)(nil)

// AuditUseCase verifies the ledger invariants off the hot path:
// sum(ledger.amount) == enrollment.amount_paid and
// count(ledger) == enrollment.installments_paid.
type AuditUseCase interface {
	// CheckEnrollment returns false when the ledger disagrees with the aggregate.
	CheckEnrollment(ctx context.Context, enr *model.Enrollment) (bool, error)
	// Sweep audits enrollments in batches and returns how many mismatched.
	Sweep(ctx context.Context, batchSize int) (checked, mismatched int, err error)
}

type auditUC struct {
	enrollments repository.EnrollmentRepository
	ledger      repository.InstallmentLedgerRepository
	log         *zerolog.Logger
}

func NewAuditUseCase(enrollments repository.EnrollmentRepository, ledger repository.InstallmentLedgerRepository, logger *zerolog.Logger) *auditUC {
	compLog := logger.With().Str("component", "AuditUC").Logger()
	return &auditUC{enrollments: enrollments, ledger: ledger, log: &compLog}
}

func (u *auditUC) CheckEnrollment(ctx context.Context, enr *model.Enrollment) (bool, error) {
	if enr.PaymentType != model.PaymentTypeInstallment {
		return true, nil
	}
	sum, count, err := u.ledger.SumPaid(ctx, repository.NoTX, enr.ID)
	if err != nil {
		return false, err
	}
	if sum != enr.AmountPaid || count != enr.InstallmentsPaid {
		metrics.IncLedgerAuditMismatch()
		u.log.Error().
			Str("enrollment_id", enr.ID).
			Int64("ledger_sum", sum).
			Int64("amount_paid", enr.AmountPaid).
			Int("ledger_count", count).
			Int("installments_paid", enr.InstallmentsPaid).
			Msg("ledger inconsistent with enrollment aggregate")
		return false, nil
	}
	return true, nil
}

func (u *auditUC) Sweep(ctx context.Context, batchSize int) (int, int, error) {
	if batchSize <= 0 {
		batchSize = 200
	}
	checked, mismatched := 0, 0
	for offset := 0; ; offset += batchSize {
		batch, err := u.enrollments.ListAll(ctx, repository.NoTX, offset, batchSize)
		if err != nil {
			return checked, mismatched, err
		}
		if len(batch) == 0 {
			return checked, mismatched, nil
		}
		for _, enr := range batch {
			ok, err := u.CheckEnrollment(ctx, enr)
			if err != nil {
				return checked, mismatched, err
			}
			checked++
			if !ok {
				mismatched++
			}
		}
		if len(batch) < batchSize {
			return checked, mismatched, nil
		}
	}
}
