// File: internal/infra/adapters/notify/referral_client.go
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"course-payments/internal/config"
	"course-payments/internal/domain/model"
	"course-payments/internal/domain/ports/adapter"
)

var _ adapter.ReferralNotifier = (*ReferralClient)(nil)

// ReferralClient signals the referral subsystem over its internal HTTP API
// that a referred enrollment has produced its first payment. The redemption
// mechanics live entirely on the other side; this is a one-shot notification.
type ReferralClient struct {
	baseURL string
	token   string
	client  *http.Client
	log     *zerolog.Logger
}

func NewReferralClient(cfg config.ReferralConfig, logger *zerolog.Logger) (*ReferralClient, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("referral base url empty")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid referral base url: %w", err)
	}
	compLog := logger.With().Str("component", "ReferralClient").Logger()
	return &ReferralClient{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		client:  &http.Client{Timeout: 15 * time.Second},
		log:     &compLog,
	}, nil
}

type referralCompleteRequest struct {
	UserID       string `json:"user_id"`
	EnrollmentID string `json:"enrollment_id"`
	CourseID     string `json:"course_id"`
}

func (c *ReferralClient) CompleteReferral(ctx context.Context, enr *model.Enrollment) error {
	body, err := json.Marshal(referralCompleteRequest{
		UserID:       enr.UserID,
		EnrollmentID: enr.ID,
		CourseID:     enr.CourseID,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/internal/referrals/complete", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("referral request: %w", err)
	}
	defer resp.Body.Close()

	// 404 means the user was not referred; that is a normal outcome.
	if resp.StatusCode == http.StatusNotFound {
		c.log.Debug().Str("user_id", enr.UserID).Msg("no referral to complete")
		return nil
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("referral service status %d", resp.StatusCode)
	}
	return nil
}
