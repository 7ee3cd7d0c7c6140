//go:build integration

package postgres

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"course-payments/internal/domain"
	"course-payments/internal/domain/model"
	"course-payments/internal/domain/ports/repository"
)

func TestProcessedEventRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewProcessedEventRepo(testPool)

	t.Run("should record once and reject the replay", func(t *testing.T) {
		cleanup(t)
		enrollmentID := uuid.NewString()

		if err := repo.Record(ctx, nil, model.ProviderCardGateway, "evt_1", enrollmentID); err != nil {
			t.Fatalf("record: %v", err)
		}
		if err := repo.Record(ctx, nil, model.ProviderCardGateway, "evt_1", enrollmentID); err != domain.ErrDuplicateEvent {
			t.Fatalf("err = %v, want ErrDuplicateEvent", err)
		}
	})

	t.Run("same event id under a different provider is distinct", func(t *testing.T) {
		cleanup(t)
		enrollmentID := uuid.NewString()

		if err := repo.Record(ctx, nil, model.ProviderCardGateway, "evt_1", enrollmentID); err != nil {
			t.Fatalf("record card: %v", err)
		}
		if err := repo.Record(ctx, nil, model.ProviderRegionalGateway, "evt_1", enrollmentID); err != nil {
			t.Fatalf("record regional: %v", err)
		}
	})

	t.Run("Seen reflects recorded state", func(t *testing.T) {
		cleanup(t)
		enrollmentID := uuid.NewString()

		seen, err := repo.Seen(ctx, nil, model.ProviderCardGateway, "evt_x")
		if err != nil || seen {
			t.Fatalf("seen before record = %v, %v", seen, err)
		}
		if err := repo.Record(ctx, nil, model.ProviderCardGateway, "evt_x", enrollmentID); err != nil {
			t.Fatalf("record: %v", err)
		}
		seen, err = repo.Seen(ctx, nil, model.ProviderCardGateway, "evt_x")
		if err != nil || !seen {
			t.Fatalf("seen after record = %v, %v", seen, err)
		}
	})

	t.Run("duplicate inside a transaction rolls the whole tx back", func(t *testing.T) {
		cleanup(t)
		enrollments := NewEnrollmentRepo(testPool)
		enr := newTestEnrollment(t, model.PaymentTypeOnetime, 0)
		if err := enrollments.Save(ctx, nil, enr); err != nil {
			t.Fatalf("save enrollment: %v", err)
		}
		if err := repo.Record(ctx, nil, model.ProviderCardGateway, "evt_dup", enr.ID); err != nil {
			t.Fatalf("record: %v", err)
		}

		tm := NewTxManager(testPool)
		err := tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			locked, err := enrollments.FindByID(ctx, tx, enr.ID)
			if err != nil {
				return err
			}
			locked.PaymentStatus = model.PaymentStatusCompleted
			if err := enrollments.Save(ctx, tx, locked); err != nil {
				return err
			}
			return repo.Record(ctx, tx, model.ProviderCardGateway, "evt_dup", enr.ID)
		})
		if err != domain.ErrDuplicateEvent {
			t.Fatalf("withtx err = %v, want ErrDuplicateEvent", err)
		}

		found, _ := enrollments.FindByID(ctx, nil, enr.ID)
		if found.PaymentStatus != model.PaymentStatusPending {
			t.Errorf("write from aborted tx visible: %s", found.PaymentStatus)
		}
	})
}
