package repository

import (
	"context"

	"course-payments/internal/domain/model"
)

// EnrollmentRepository persists the Enrollment aggregate. FindByID takes the
// row lock when called with a live transaction handle; Save writes the full
// aggregate back inside the same transaction.
type EnrollmentRepository interface {
	Save(ctx context.Context, tx Tx, e *model.Enrollment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Enrollment, error)
	ListAll(ctx context.Context, tx Tx, offset, limit int) ([]*model.Enrollment, error)
}
