package model

import "time"

type Provider string

const (
	ProviderCardGateway     Provider = "card_gateway"
	ProviderRegionalGateway Provider = "regional_gateway"
)

// PaymentEvent is the canonical, provider-agnostic "charge succeeded"
// notification. It is ephemeral: only its (Provider, ProviderEventID) identity
// is persisted, as the idempotency key.
type PaymentEvent struct {
	Provider          Provider
	ProviderEventID   string // unique per provider; the idempotency key
	ProviderReference string // checkout reference string, e.g. "ENR-<id>-<track>-<ts>"
	Amount            int64  // minor units
	Currency          string
	RawMetadata       map[string]string
	CustomFields      []CustomField // nested provider "custom fields", when present
	OccurredAt        time.Time
}

// CustomField mirrors the regional gateway's nested custom-field entries.
type CustomField struct {
	VariableName string
	DisplayName  string
	Value        string
}

// ResolvedPaymentEvent is a PaymentEvent with the internal identifiers
// recovered from provider metadata. This is what the state machine consumes.
type ResolvedPaymentEvent struct {
	PaymentEvent
	EnrollmentID  string
	LearningTrack *LearningTrack // nil when no metadata source yielded a known track
}
