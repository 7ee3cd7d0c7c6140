// File: internal/infra/adapters/notify/smtp_email.go
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog"

	"course-payments/internal/config"
	"course-payments/internal/domain/model"
	"course-payments/internal/domain/ports/adapter"
)

var _ adapter.EmailSender = (*SMTPEmailSender)(nil)

// SMTPEmailSender sends the payment confirmation email. The receiving address
// comes from the messaging subsystem's directory keyed by user id; injected as
// a lookup so this adapter stays free of user storage.
type SMTPEmailSender struct {
	cfg         config.EmailConfig
	lookupEmail func(ctx context.Context, userID string) (string, error)
	log         *zerolog.Logger
}

func NewSMTPEmailSender(cfg config.EmailConfig, lookupEmail func(ctx context.Context, userID string) (string, error), logger *zerolog.Logger) (*SMTPEmailSender, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, errors.New("email host/from not configured")
	}
	if lookupEmail == nil {
		return nil, errors.New("email lookup required")
	}
	compLog := logger.With().Str("component", "SMTPEmailSender").Logger()
	return &SMTPEmailSender{cfg: cfg, lookupEmail: lookupEmail, log: &compLog}, nil
}

func (s *SMTPEmailSender) SendPaymentConfirmation(ctx context.Context, enr *model.Enrollment, ev *model.PaymentEvent) error {
	to, err := s.lookupEmail(ctx, enr.UserID)
	if err != nil {
		return fmt.Errorf("lookup recipient: %w", err)
	}

	subject := fmt.Sprintf("Payment received for %s", enr.CourseName)
	var body string
	if enr.PaymentType == model.PaymentTypeInstallment {
		body = fmt.Sprintf(
			"We received your payment of %d %s for %s (installment %d of %d).",
			ev.Amount, ev.Currency, enr.CourseName, enr.InstallmentsPaid, enr.TotalInstallments,
		)
	} else {
		body = fmt.Sprintf(
			"We received your payment of %d %s for %s. You now have full access.",
			ev.Amount, ev.Currency, enr.CourseName,
		)
	}

	msg := []byte("Subject: " + subject + "\r\n" +
		"From: " + s.cfg.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.From, s.cfg.Password, s.cfg.Host)
	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	s.log.Debug().Str("enrollment_id", enr.ID).Msg("confirmation email sent")
	return nil
}
