package services

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"

	"github.com/fluentpal/fluentpal/internal/config"
	"github.com/fluentpal/fluentpal/internal/logging"
)

// EmailSender delivers a single transactional email.
type EmailSender interface {
	Send(ctx context.Context, to, subject, html string) error
}

// EmailService picks a delivery provider from config. The console provider
// logs instead of sending and is the development default.
type EmailService struct {
	cfg    *config.EmailConfig
	resend *resend.Client
}

func NewEmailService(cfg *config.EmailConfig) *EmailService {
	s := &EmailService{cfg: cfg}
	if cfg.Provider == "resend" {
		s.resend = resend.NewClient(cfg.ResendAPIKey)
	}
	return s
}

func (s *EmailService) Send(ctx context.Context, to, subject, html string) error {
	switch s.cfg.Provider {
	case "resend":
		return s.sendResend(ctx, to, subject, html)
	case "console":
		logging.Info("Email (console provider)", map[string]interface{}{
			"to":      to,
			"subject": subject,
		})
		return nil
	default:
		return fmt.Errorf("unknown email provider: %q", s.cfg.Provider)
	}
}

func (s *EmailService) sendResend(ctx context.Context, to, subject, html string) error {
	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.FromAddress),
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}
	if _, err := s.resend.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("sending via resend: %w", err)
	}
	return nil
}
