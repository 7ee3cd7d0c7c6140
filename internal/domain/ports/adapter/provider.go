package adapter

import (
	"context"

	"course-payments/internal/domain/model"
)

// ProviderAdapter is the hex port for inbound payment providers. Each adapter
// verifies the provider's signature over the raw body and normalizes the
// provider's native event shape into a model.PaymentEvent.
//
// VerifyAndParse returns (nil, nil) for event types the core does not process;
// the endpoint acknowledges those with 200 and drops them. Verification
// failures return domain.ErrSignatureInvalid, malformed bodies
// domain.ErrMalformedPayload. Adapters never mutate state.
type ProviderAdapter interface {
	Name() model.Provider
	// SignatureHeader names the HTTP header carrying the provider signature.
	SignatureHeader() string
	VerifyAndParse(ctx context.Context, rawBody []byte, signature string) (*model.PaymentEvent, error)
}
