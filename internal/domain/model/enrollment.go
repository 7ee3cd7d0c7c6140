package model

import (
	"time"

	"course-payments/internal/domain"
)

type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "pending"        // created by checkout, no money seen yet
	PaymentStatusPartiallyPaid PaymentStatus = "partially_paid" // installment plan with 1..n-1 installments in
	PaymentStatusCompleted     PaymentStatus = "completed"      // fully paid (onetime or last installment)
	PaymentStatusFailed        PaymentStatus = "failed"         // manual/admin transition only
)

type PaymentType string

const (
	PaymentTypeOnetime     PaymentType = "onetime"
	PaymentTypeInstallment PaymentType = "installment"
)

type LearningTrack string

const (
	TrackOneOnOne        LearningTrack = "one_on_one"
	TrackGroupMentorship LearningTrack = "group_mentorship"
	TrackSelfPaced       LearningTrack = "self_paced"
)

// KnownTracks lists the only accepted track tokens. Anything else resolves to
// "not found", never to a fourth value.
var KnownTracks = []LearningTrack{TrackOneOnOne, TrackGroupMentorship, TrackSelfPaced}

// ParseLearningTrack maps a raw token onto a known track.
func ParseLearningTrack(s string) (LearningTrack, bool) {
	for _, t := range KnownTracks {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Enrollment is the aggregate tracking one user's purchase of one course.
// It is created by the external checkout flow with status=pending and mutated
// only by the reconciliation use case afterwards.
type Enrollment struct {
	ID         string // UUID
	UserID     string // UUID
	CourseID   string // UUID
	CourseName string // denormalized snapshot for emails/dashboards

	LearningTrack     *LearningTrack // nil until first successful payment resolves it
	PaymentType       PaymentType
	TotalInstallments int // 0 for onetime

	PaymentStatus         PaymentStatus
	AmountPaid            int64 // minor units, monotonically non-decreasing
	Currency              string
	InstallmentsPaid      int
	HasAccess             bool // sticky true once set
	NextPaymentDue        *time.Time
	LastInstallmentPaidAt *time.Time
	TransactionID         string // last-seen provider reference, display only

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewEnrollment creates a pending enrollment the way the checkout flow would.
func NewEnrollment(id, userID, courseID, courseName string, paymentType PaymentType, totalInstallments int) (*Enrollment, error) {
	if id == "" || userID == "" || courseID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if paymentType == PaymentTypeOnetime && totalInstallments != 0 {
		return nil, domain.ErrInvalidArgument
	}
	if paymentType == PaymentTypeInstallment && totalInstallments <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Enrollment{
		ID:                id,
		UserID:            userID,
		CourseID:          courseID,
		CourseName:        courseName,
		PaymentType:       paymentType,
		TotalInstallments: totalInstallments,
		PaymentStatus:     PaymentStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// Completed reports whether no further payments are expected.
func (e *Enrollment) Completed() bool { return e.PaymentStatus == PaymentStatusCompleted }
