package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/jaradmin/jar-backend/pkg/config"
	"github.com/jaradmin/jar-backend/pkg/logger"
)

// Message is a single outbound email.
type Message struct {
	ToName  string
	ToEmail string
	Subject string
	Text    string
	HTML    string
}

// Mailer sends transactional email. Delivery is best effort: callers treat a
// returned error as a log-and-continue condition, never as a request failure.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type service struct {
	cfg    config.MailConfig
	client *sendgrid.Client
	logg   *logger.Logger
}

type Params struct {
	Config config.MailConfig
	Logger *logger.Logger
}

// New builds a SendGrid-backed mailer. When mail is disabled the mailer
// silently drops messages so the rest of the system needs no special casing.
func New(p Params) (Mailer, error) {
	if p.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if p.Config.Enabled && strings.TrimSpace(p.Config.SendgridAPIKey) == "" {
		return nil, fmt.Errorf("sendgrid api key is required when mail is enabled")
	}

	return &service{
		cfg:    p.Config,
		client: sendgrid.NewSendClient(p.Config.SendgridAPIKey),
		logg:   p.Logger,
	}, nil
}

func (s *service) Send(ctx context.Context, msg Message) error {
	if !s.cfg.Enabled {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"to":      msg.ToEmail,
			"subject": msg.Subject,
		}), "mail disabled, dropping message")
		return nil
	}
	if strings.TrimSpace(msg.ToEmail) == "" {
		return fmt.Errorf("recipient email is required")
	}

	from := mail.NewEmail(s.cfg.FromName, s.cfg.FromEmail)
	to := mail.NewEmail(msg.ToName, msg.ToEmail)
	html := msg.HTML
	if html == "" {
		html = msg.Text
	}
	email := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, html)

	resp, err := s.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"to":      msg.ToEmail,
		"subject": msg.Subject,
		"status":  resp.StatusCode,
	}), "email sent")
	return nil
}
