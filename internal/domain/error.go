package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound             = errors.New("entity not found")
	ErrAlreadyExists        = errors.New("entity already exists")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrEnrollmentNotFound   = errors.New("enrollment not found")
	ErrDuplicateEvent       = errors.New("payment event already processed")
	ErrDuplicateInstallment = errors.New("installment number already recorded")
	ErrInvalidTransition    = errors.New("invalid payment state transition")

	// Webhook ingestion errors
	ErrSignatureInvalid      = errors.New("webhook signature invalid")
	ErrMalformedPayload      = errors.New("webhook payload malformed")
	ErrUnresolvableReference = errors.New("payment event reference unresolvable")

	// Infra errors surfaced through repositories
	ErrOperationFailed    = errors.New("storage operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid execution context for query")
	ErrLockNotAcquired    = errors.New("lock not acquired")
)
