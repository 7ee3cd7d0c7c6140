// File: internal/infra/adapters/provider/regional_gateway.go
package provider

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"course-payments/internal/domain"
	"course-payments/internal/domain/model"
	"course-payments/internal/domain/ports/adapter"
)

var _ adapter.ProviderAdapter = (*RegionalGatewayAdapter)(nil)

const (
	regionalSignatureHeader    = "x-regional-signature"
	regionalEventChargeSuccess = "charge.success"
)

// RegionalGatewayAdapter verifies and normalizes regional-gateway webhooks.
// The gateway signs the raw body with HMAC-SHA512 over the shared secret and
// sends the hex digest in x-regional-signature. The comparison must be
// constant time; hmac.Equal on the decoded digests, never a string compare.
type RegionalGatewayAdapter struct {
	webhookSecret []byte
	log           *zerolog.Logger
}

func NewRegionalGatewayAdapter(webhookSecret string, logger *zerolog.Logger) (*RegionalGatewayAdapter, error) {
	if webhookSecret == "" {
		return nil, errors.New("regional gateway webhook secret empty")
	}
	compLog := logger.With().Str("component", "RegionalGatewayAdapter").Logger()
	return &RegionalGatewayAdapter{webhookSecret: []byte(webhookSecret), log: &compLog}, nil
}

func (a *RegionalGatewayAdapter) Name() model.Provider { return model.ProviderRegionalGateway }

func (a *RegionalGatewayAdapter) SignatureHeader() string { return regionalSignatureHeader }

// regionalPayload mirrors the gateway's native webhook shape.
type regionalPayload struct {
	Event string `json:"event"`
	Data  struct {
		ID        json.Number `json:"id"`
		Reference string      `json:"reference"`
		Amount    int64       `json:"amount"`
		Currency  string      `json:"currency"`
		PaidAt    string      `json:"paid_at"`
		Metadata  struct {
			EnrollmentID  string `json:"enrollment_id"`
			LearningTrack string `json:"learning_track"`
			CustomFields  []struct {
				DisplayName  string `json:"display_name"`
				VariableName string `json:"variable_name"`
				Value        string `json:"value"`
			} `json:"custom_fields"`
		} `json:"metadata"`
	} `json:"data"`
}

func (a *RegionalGatewayAdapter) VerifyAndParse(ctx context.Context, rawBody []byte, signature string) (*model.PaymentEvent, error) {
	if err := a.verify(rawBody, signature); err != nil {
		return nil, err
	}

	var payload regionalPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return nil, domain.ErrMalformedPayload
	}

	if payload.Event != regionalEventChargeSuccess {
		a.log.Debug().Str("event_type", payload.Event).Msg("ignoring event type")
		return nil, nil
	}
	if payload.Data.ID.String() == "" || payload.Data.Reference == "" {
		return nil, domain.ErrMalformedPayload
	}

	meta := map[string]string{}
	if payload.Data.Metadata.EnrollmentID != "" {
		meta["enrollment_id"] = payload.Data.Metadata.EnrollmentID
	}
	if payload.Data.Metadata.LearningTrack != "" {
		meta["learning_track"] = payload.Data.Metadata.LearningTrack
	}

	fields := make([]model.CustomField, 0, len(payload.Data.Metadata.CustomFields))
	for _, f := range payload.Data.Metadata.CustomFields {
		fields = append(fields, model.CustomField{
			VariableName: f.VariableName,
			DisplayName:  f.DisplayName,
			Value:        f.Value,
		})
	}

	occurred := time.Now()
	if payload.Data.PaidAt != "" {
		if ts, err := time.Parse(time.RFC3339, payload.Data.PaidAt); err == nil {
			occurred = ts
		}
	}

	return &model.PaymentEvent{
		Provider:          model.ProviderRegionalGateway,
		ProviderEventID:   payload.Data.ID.String(),
		ProviderReference: payload.Data.Reference,
		Amount:            payload.Data.Amount,
		Currency:          payload.Data.Currency,
		RawMetadata:       meta,
		CustomFields:      fields,
		OccurredAt:        occurred,
	}, nil
}

func (a *RegionalGatewayAdapter) verify(rawBody []byte, signature string) error {
	if signature == "" {
		return domain.ErrSignatureInvalid
	}
	got, err := hex.DecodeString(signature)
	if err != nil {
		return domain.ErrSignatureInvalid
	}
	mac := hmac.New(sha512.New, a.webhookSecret)
	mac.Write(rawBody)
	if !hmac.Equal(mac.Sum(nil), got) {
		return domain.ErrSignatureInvalid
	}
	return nil
}

// Sign computes the hex HMAC-SHA512 digest of body. Exported for the checkout
// collaborator's outbound calls and for tests.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
