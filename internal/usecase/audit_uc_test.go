//go:build !integration

package usecase_test

import (
	"context"
	"testing"

	"course-payments/internal/usecase"
)

func TestAudit_CheckEnrollment(t *testing.T) {
	ctx := context.Background()
	deps := newReconcileDeps()
	audit := usecase.NewAuditUseCase(deps.enrollments, deps.ledger, newTestLogger())

	// Drive a real enrollment through the state machine; the audit must agree.
	deps.enrollments.Save(ctx, nil, installmentEnrollment("E1", 4))
	rec := deps.uc()
	for _, id := range []string{"evt-1", "evt-2"} {
		if _, err := rec.Apply(ctx, resolvedEvent("E1", id, 50)); err != nil {
			t.Fatalf("apply %s: %v", id, err)
		}
	}
	enr, _ := deps.enrollments.FindByID(ctx, nil, "E1")
	ok, err := audit.CheckEnrollment(ctx, enr)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !ok {
		t.Error("consistent enrollment flagged as mismatch")
	}

	// Corrupt the aggregate; the audit must flag it.
	enr.AmountPaid += 1
	deps.enrollments.Save(ctx, nil, enr)
	enr, _ = deps.enrollments.FindByID(ctx, nil, "E1")
	ok, err = audit.CheckEnrollment(ctx, enr)
	if err != nil {
		t.Fatalf("check corrupted: %v", err)
	}
	if ok {
		t.Error("corrupted aggregate passed the audit")
	}
}

func TestAudit_SweepCountsMismatches(t *testing.T) {
	ctx := context.Background()
	deps := newReconcileDeps()
	audit := usecase.NewAuditUseCase(deps.enrollments, deps.ledger, newTestLogger())
	rec := deps.uc()

	// One clean installment enrollment, one corrupted, one onetime (skipped).
	deps.enrollments.Save(ctx, nil, installmentEnrollment("clean", 4))
	deps.enrollments.Save(ctx, nil, installmentEnrollment("dirty", 4))
	deps.enrollments.Save(ctx, nil, onetimeEnrollment("once"))
	if _, err := rec.Apply(ctx, resolvedEvent("clean", "evt-c1", 50)); err != nil {
		t.Fatal(err)
	}
	if _, err := rec.Apply(ctx, resolvedEvent("dirty", "evt-d1", 50)); err != nil {
		t.Fatal(err)
	}
	dirty, _ := deps.enrollments.FindByID(ctx, nil, "dirty")
	dirty.InstallmentsPaid = 2 // no matching ledger line
	deps.enrollments.Save(ctx, nil, dirty)

	checked, mismatched, err := audit.Sweep(ctx, 2)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if checked != 3 {
		t.Errorf("expected 3 checked, got %d", checked)
	}
	if mismatched != 1 {
		t.Errorf("expected 1 mismatch, got %d", mismatched)
	}
}
