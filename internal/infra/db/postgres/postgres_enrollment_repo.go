package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"course-payments/internal/domain"
	"course-payments/internal/domain/model"
	"course-payments/internal/domain/ports/repository"
)

// Ensure enrollmentRepo implements repository.EnrollmentRepository
var _ repository.EnrollmentRepository = (*enrollmentRepo)(nil)

type enrollmentRepo struct {
	pool *pgxpool.Pool
}

func NewEnrollmentRepo(pool *pgxpool.Pool) *enrollmentRepo {
	return &enrollmentRepo{pool: pool}
}

const enrollmentColumns = `id, user_id, course_id, course_name, learning_track, payment_type, total_installments, payment_status, amount_paid, currency, installments_paid, has_access, next_payment_due, last_installment_paid_at, transaction_id, created_at, updated_at`

func (r *enrollmentRepo) Save(ctx context.Context, tx repository.Tx, e *model.Enrollment) error {
	const q = `
INSERT INTO enrollments (
  id, user_id, course_id, course_name, learning_track, payment_type, total_installments, payment_status, amount_paid, currency, installments_paid, has_access, next_payment_due, last_installment_paid_at, transaction_id, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,NOW()
) ON CONFLICT (id) DO UPDATE SET
  learning_track=$5, payment_status=$8, amount_paid=$9, currency=$10, installments_paid=$11, has_access=$12, next_payment_due=$13, last_installment_paid_at=$14, transaction_id=$15, updated_at=NOW();`

	var track *string
	if e.LearningTrack != nil {
		s := string(*e.LearningTrack)
		track = &s
	}
	_, err := execSQL(ctx, r.pool, tx, q,
		e.ID, e.UserID, e.CourseID, e.CourseName, track, string(e.PaymentType), e.TotalInstallments,
		string(e.PaymentStatus), e.AmountPaid, e.Currency, e.InstallmentsPaid, e.HasAccess,
		e.NextPaymentDue, e.LastInstallmentPaidAt, e.TransactionID, e.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *enrollmentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Enrollment, error) {
	q := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanEnrollment(row)
}

func (r *enrollmentRepo) ListAll(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.Enrollment, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + enrollmentColumns + ` FROM enrollments ORDER BY created_at ASC OFFSET $1 LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, offset, limit)
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

	var out []*model.Enrollment
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func scanEnrollment(row pgx.Row) (*model.Enrollment, error) {
	e := &model.Enrollment{}
	var track *string
	var paymentType, paymentStatus string
	if err := row.Scan(&e.ID, &e.UserID, &e.CourseID, &e.CourseName, &track, &paymentType, &e.TotalInstallments,
		&paymentStatus, &e.AmountPaid, &e.Currency, &e.InstallmentsPaid, &e.HasAccess,
		&e.NextPaymentDue, &e.LastInstallmentPaidAt, &e.TransactionID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if track != nil {
		t := model.LearningTrack(*track)
		e.LearningTrack = &t
	}
	e.PaymentType = model.PaymentType(paymentType)
	e.PaymentStatus = model.PaymentStatus(paymentStatus)
	return e, nil
}
