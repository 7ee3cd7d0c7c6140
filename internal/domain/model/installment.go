package model

import "time"

// InstallmentPaymentRecord is one append-only ledger line. Ledger entries are
// only ever written for successful charges; there is no failed/voided state.
type InstallmentPaymentRecord struct {
	ID                string // UUID
	EnrollmentID      string
	InstallmentNumber int // 1-based, strictly increasing per enrollment
	Amount            int64
	Currency          string
	Status            string // always "completed"
	TransactionID     string // provider-assigned, unique per provider
	PaidAt            time.Time
	CreatedAt         time.Time
}

const InstallmentStatusCompleted = "completed"
