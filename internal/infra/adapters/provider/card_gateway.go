// File: internal/infra/adapters/provider/card_gateway.go
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/webhook"

	"course-payments/internal/domain"
	"course-payments/internal/domain/model"
	"course-payments/internal/domain/ports/adapter"
)

var _ adapter.ProviderAdapter = (*CardGatewayAdapter)(nil)

// cardEventCheckoutCompleted is the only card-gateway event type the core
// processes; everything else is acknowledged and dropped.
const cardEventCheckoutCompleted = "checkout.session.completed"

// CardGatewayAdapter verifies and normalizes card-gateway webhooks. Signature
// verification is delegated to the provider SDK, which checks the signed
// timestamp and HMAC over the raw body before any parsing happens.
type CardGatewayAdapter struct {
	webhookSecret string
	log           *zerolog.Logger
}

func NewCardGatewayAdapter(webhookSecret string, logger *zerolog.Logger) (*CardGatewayAdapter, error) {
	if webhookSecret == "" {
		return nil, errors.New("card gateway webhook secret empty")
	}
	compLog := logger.With().Str("component", "CardGatewayAdapter").Logger()
	return &CardGatewayAdapter{webhookSecret: webhookSecret, log: &compLog}, nil
}

func (a *CardGatewayAdapter) Name() model.Provider { return model.ProviderCardGateway }

func (a *CardGatewayAdapter) SignatureHeader() string { return "Stripe-Signature" }

func (a *CardGatewayAdapter) VerifyAndParse(ctx context.Context, rawBody []byte, signature string) (*model.PaymentEvent, error) {
	event, err := webhook.ConstructEventWithOptions(
		rawBody,
		signature,
		a.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		if errors.Is(err, webhook.ErrNotSigned) ||
			errors.Is(err, webhook.ErrInvalidHeader) ||
			errors.Is(err, webhook.ErrNoValidSignature) ||
			errors.Is(err, webhook.ErrTooOld) {
			return nil, domain.ErrSignatureInvalid
		}
		return nil, domain.ErrMalformedPayload
	}

	if string(event.Type) != cardEventCheckoutCompleted {
		a.log.Debug().Str("event_type", string(event.Type)).Msg("ignoring event type")
		return nil, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, domain.ErrMalformedPayload
	}

	meta := make(map[string]string, len(session.Metadata))
	for k, v := range session.Metadata {
		meta[k] = v
	}
	// ClientReferenceID is a fallback carrier for the enrollment id when the
	// checkout flow could not attach metadata.
	if _, ok := meta["enrollment_id"]; !ok && session.ClientReferenceID != "" {
		meta["enrollment_id"] = session.ClientReferenceID
	}

	return &model.PaymentEvent{
		Provider:          model.ProviderCardGateway,
		ProviderEventID:   event.ID,
		ProviderReference: session.ID,
		Amount:            session.AmountTotal,
		Currency:          string(session.Currency),
		RawMetadata:       meta,
		OccurredAt:        time.Unix(event.Created, 0),
	}, nil
}
