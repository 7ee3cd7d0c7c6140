// File: internal/usecase/reconcile_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"course-payments/internal/domain"
	"course-payments/internal/domain/model"
	"course-payments/internal/domain/ports/repository"
)

// Compile-time check
var _ ReconcileUseCase = (*reconcileUC)(nil)

// installmentGrace is how far out the next installment is scheduled.
const installmentGrace = 28 * 24 * time.Hour

// ApplyResult reports what a single event application did.
type ApplyResult struct {
	Enrollment *model.Enrollment
	// Duplicate is true when the provider event id was already recorded;
	// no state changed. Enrollment is nil when the replay was answered from
	// the cache without opening a transaction.
	Duplicate bool
	// FirstPayment is true when this event moved the enrollment out of
	// pending. Referral completion fires exactly on this.
	FirstPayment bool
	// Completed is true when this event made the enrollment fully paid.
	Completed bool
}

// ReconcileUseCase is the enrollment payment state machine. Apply is the only
// writer of the Enrollment aggregate after checkout creates it.
type ReconcileUseCase interface {
	Apply(ctx context.Context, resolved *model.ResolvedPaymentEvent) (*ApplyResult, error)
	GetEnrollment(ctx context.Context, id string) (*model.Enrollment, error)
}

type reconcileUC struct {
	enrollments repository.EnrollmentRepository
	ledger      repository.InstallmentLedgerRepository
	processed   repository.ProcessedEventRepository
	tm          repository.TransactionManager
	log         *zerolog.Logger
}

func NewReconcileUseCase(
	enrollments repository.EnrollmentRepository,
	ledger repository.InstallmentLedgerRepository,
	processed repository.ProcessedEventRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *reconcileUC {
	compLog := logger.With().Str("component", "ReconcileUC").Logger()
	return &reconcileUC{
		enrollments: enrollments,
		ledger:      ledger,
		processed:   processed,
		tm:          tm,
		log:         &compLog,
	}
}

// Apply runs the whole transition in one transaction: the enrollment row lock
// serializes concurrent deliveries for the same enrollment, and recording the
// provider event id first makes duplicate deliveries a committed no-op.
// Everything else is all-or-nothing with the lock held.
func (u *reconcileUC) Apply(ctx context.Context, resolved *model.ResolvedPaymentEvent) (*ApplyResult, error) {
	if resolved == nil || resolved.EnrollmentID == "" || resolved.ProviderEventID == "" {
		return nil, domain.ErrInvalidArgument
	}

	// Known replays skip the transaction and the row lock entirely. The
	// unique index stays authoritative: a cache miss or error falls through
	// to Record inside the transaction.
	if seen, err := u.processed.Seen(ctx, repository.NoTX, resolved.Provider, resolved.ProviderEventID); err == nil && seen {
		u.log.Info().
			Str("enrollment_id", resolved.EnrollmentID).
			Str("event_id", resolved.ProviderEventID).
			Msg("replayed event short-circuited")
		return &ApplyResult{Duplicate: true}, nil
	}

	res := &ApplyResult{}
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		enr, err := u.enrollments.FindByID(ctx, tx, resolved.EnrollmentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrEnrollmentNotFound
			}
			return err
		}

		if err := u.processed.Record(ctx, tx, resolved.Provider, resolved.ProviderEventID, enr.ID); err != nil {
			if errors.Is(err, domain.ErrDuplicateEvent) {
				res.Duplicate = true
				res.Enrollment = enr
				return nil
			}
			return err
		}

		res.FirstPayment = enr.PaymentStatus == model.PaymentStatusPending
		now := time.Now()

		switch enr.PaymentType {
		case model.PaymentTypeOnetime:
			if err := u.applyOnetime(enr, resolved, now); err != nil {
				return err
			}
		case model.PaymentTypeInstallment:
			if err := u.applyInstallment(ctx, tx, enr, resolved, now); err != nil {
				return err
			}
		default:
			return domain.ErrInvalidTransition
		}

		enr.UpdatedAt = now
		res.Completed = enr.Completed()
		res.Enrollment = enr
		return u.enrollments.Save(ctx, tx, enr)
	})
	if err != nil {
		return nil, err
	}

	if res.Duplicate {
		u.log.Info().
			Str("enrollment_id", resolved.EnrollmentID).
			Str("event_id", resolved.ProviderEventID).
			Msg("duplicate event ignored")
	}
	return res, nil
}

func (u *reconcileUC) applyOnetime(enr *model.Enrollment, resolved *model.ResolvedPaymentEvent, now time.Time) error {
	if enr.Completed() {
		// Distinct event id against an already-completed onetime enrollment.
		// The event is recorded so it never retries, but nothing moves.
		u.log.Warn().
			Str("enrollment_id", enr.ID).
			Str("event_id", resolved.ProviderEventID).
			Msg("onetime enrollment already completed; event recorded without mutation")
		return nil
	}
	enr.PaymentStatus = model.PaymentStatusCompleted
	enr.AmountPaid = resolved.Amount
	enr.Currency = resolved.Currency
	enr.HasAccess = true
	enr.TransactionID = resolved.ProviderReference
	setTrackIfUnset(enr, resolved)
	return nil
}

func (u *reconcileUC) applyInstallment(ctx context.Context, tx repository.Tx, enr *model.Enrollment, resolved *model.ResolvedPaymentEvent, now time.Time) error {
	if enr.Completed() {
		u.log.Warn().
			Str("enrollment_id", enr.ID).
			Str("event_id", resolved.ProviderEventID).
			Msg("installment plan already completed; event recorded without mutation")
		return nil
	}

	enr.InstallmentsPaid++
	rec := &model.InstallmentPaymentRecord{
		ID:                uuid.NewString(),
		EnrollmentID:      enr.ID,
		InstallmentNumber: enr.InstallmentsPaid,
		Amount:            resolved.Amount,
		Currency:          resolved.Currency,
		Status:            model.InstallmentStatusCompleted,
		TransactionID:     resolved.ProviderReference,
		PaidAt:            now,
		CreatedAt:         now,
	}
	if err := u.ledger.Append(ctx, tx, rec); err != nil {
		return err
	}

	enr.AmountPaid += resolved.Amount
	enr.Currency = resolved.Currency
	enr.HasAccess = true // access is granted on the FIRST installment
	enr.LastInstallmentPaidAt = &now
	enr.TransactionID = resolved.ProviderReference
	setTrackIfUnset(enr, resolved)

	if enr.InstallmentsPaid >= enr.TotalInstallments {
		enr.PaymentStatus = model.PaymentStatusCompleted
		enr.NextPaymentDue = nil
	} else {
		enr.PaymentStatus = model.PaymentStatusPartiallyPaid
		due := now.Add(installmentGrace)
		enr.NextPaymentDue = &due
	}
	return nil
}

func setTrackIfUnset(enr *model.Enrollment, resolved *model.ResolvedPaymentEvent) {
	if enr.LearningTrack == nil && resolved.LearningTrack != nil {
		track := *resolved.LearningTrack
		enr.LearningTrack = &track
	}
}

func (u *reconcileUC) GetEnrollment(ctx context.Context, id string) (*model.Enrollment, error) {
	if id == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.enrollments.FindByID(ctx, repository.NoTX, id)
}
