package adapter

import (
	"context"

	"course-payments/internal/domain/model"
)

// EmailSender sends the payment confirmation email. Template content is owned
// by the messaging subsystem; this port only carries the reconciled facts.
type EmailSender interface {
	SendPaymentConfirmation(ctx context.Context, enr *model.Enrollment, ev *model.PaymentEvent) error
}

// ReferralNotifier signals the external referral subsystem that a referred
// enrollment has produced its first successful payment.
type ReferralNotifier interface {
	CompleteReferral(ctx context.Context, enr *model.Enrollment) error
}
