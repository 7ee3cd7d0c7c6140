//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"course-payments/internal/domain/model"
	"course-payments/internal/usecase"
)

func TestDispatch_ReferralFiresOnce(t *testing.T) {
	ctx := context.Background()
	email := &MockEmailSender{}
	referral := &MockReferralNotifier{}
	uc := usecase.NewDispatchUseCase(email, referral, newTestLogger())

	enr := installmentEnrollment("E1", 4)
	ev := &resolvedEvent("E1", "evt-1", 50).PaymentEvent

	// First installment: both side effects.
	uc.Dispatch(ctx, enr, ev, true)
	// Installments 2..4: email only.
	uc.Dispatch(ctx, enr, ev, false)
	uc.Dispatch(ctx, enr, ev, false)
	uc.Dispatch(ctx, enr, ev, false)

	if email.Calls != 4 {
		t.Errorf("expected 4 confirmation emails, got %d", email.Calls)
	}
	if referral.Calls != 1 {
		t.Errorf("referral must fire exactly once, got %d", referral.Calls)
	}
}

func TestDispatch_FailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()
	email := &MockEmailSender{Err: errors.New("smtp down")}
	referral := &MockReferralNotifier{Err: errors.New("referral api 503")}
	uc := usecase.NewDispatchUseCase(email, referral, newTestLogger())

	enr := onetimeEnrollment("E2")
	ev := &resolvedEvent("E2", "evt-1", 90000).PaymentEvent

	// Must not panic or propagate; both actions attempted independently.
	uc.Dispatch(ctx, enr, ev, true)

	if email.Calls != 1 || referral.Calls != 1 {
		t.Errorf("both side effects must be attempted: email=%d referral=%d", email.Calls, referral.Calls)
	}
}

func TestDispatch_NilGuards(t *testing.T) {
	uc := usecase.NewDispatchUseCase(nil, nil, newTestLogger())
	uc.Dispatch(context.Background(), nil, nil, true)
	uc.Dispatch(context.Background(), onetimeEnrollment("E3"), &model.PaymentEvent{}, true)
}
