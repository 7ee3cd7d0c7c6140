// File: internal/usecase/dispatch_uc.go
package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"course-payments/internal/domain/model"
	"course-payments/internal/domain/ports/adapter"
	"course-payments/internal/infra/metrics"
)

// Compile-time check
var _ DispatchUseCase = (*dispatchUC)(nil)

// DispatchUseCase fires the best-effort downstream actions after a
// non-duplicate successful Apply. Each action fails independently; nothing
// here can undo the already-committed financial state, so failures are logged
// and counted, never returned.
type DispatchUseCase interface {
	Dispatch(ctx context.Context, enr *model.Enrollment, ev *model.PaymentEvent, firstPayment bool)
}

type dispatchUC struct {
	email    adapter.EmailSender
	referral adapter.ReferralNotifier
	log      *zerolog.Logger
}

func NewDispatchUseCase(email adapter.EmailSender, referral adapter.ReferralNotifier, logger *zerolog.Logger) *dispatchUC {
	compLog := logger.With().Str("component", "DispatchUC").Logger()
	return &dispatchUC{email: email, referral: referral, log: &compLog}
}

func (u *dispatchUC) Dispatch(ctx context.Context, enr *model.Enrollment, ev *model.PaymentEvent, firstPayment bool) {
	if enr == nil || ev == nil {
		return
	}

	if u.email != nil {
		if err := u.email.SendPaymentConfirmation(ctx, enr, ev); err != nil {
			metrics.IncSideEffectFailure("email")
			u.log.Error().Err(err).
				Str("enrollment_id", enr.ID).
				Str("user_id", enr.UserID).
				Msg("confirmation email failed")
		}
	}

	// Referral completion fires once, when the enrollment leaves pending.
	// Later installments never re-fire it.
	if firstPayment && u.referral != nil {
		if err := u.referral.CompleteReferral(ctx, enr); err != nil {
			metrics.IncSideEffectFailure("referral")
			u.log.Error().Err(err).
				Str("enrollment_id", enr.ID).
				Str("user_id", enr.UserID).
				Msg("referral completion signal failed")
		}
	}
}
