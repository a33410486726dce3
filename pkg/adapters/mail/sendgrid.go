package mail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/folio/internal/logging"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/aretw0/folio/pkg/ports"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridAPI is the part of the SendGrid client used here.
type SendGridAPI interface {
	SendWithContext(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error)
}

// SendGrid sends mail via the SendGrid API.
type SendGrid struct {
	client SendGridAPI
	cfg    Config
	logger *slog.Logger
}

var _ ports.Mailer = (*SendGrid)(nil)

// NewSendGrid creates a SendGrid mailer for apiKey.
func NewSendGrid(apiKey string, cfg Config, logger *slog.Logger) (*SendGrid, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("sendgrid: api key is required")
	}
	return NewSendGridWithClient(sendgrid.NewSendClient(apiKey), cfg, logger), nil
}

// NewSendGridWithClient wraps an existing client.
func NewSendGridWithClient(client SendGridAPI, cfg Config, logger *slog.Logger) *SendGrid {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &SendGrid{client: client, cfg: cfg, logger: logger}
}

// Send sends m.
func (s *SendGrid) Send(ctx context.Context, m domain.Mail) error {
	m, err := s.cfg.prepare(m)
	if err != nil {
		return err
	}

	from := sgmail.NewEmail(s.cfg.FromName, s.cfg.FromEmail)
	to := sgmail.NewEmail("", m.To)
	message := sgmail.NewV3MailInit(from, m.Subject, to, sgmail.NewContent("text/plain", m.Body))
	if m.From != "" {
		message.SetReplyTo(sgmail.NewEmail("", m.From))
	}

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		s.logger.Error("SendGrid send failed", "err", err, "to", m.To)
		return fmt.Errorf("sendgrid: send failed: %w", err)
	}
	if response.StatusCode >= 400 {
		s.logger.Error("SendGrid returned error status", "status", response.StatusCode, "body", response.Body, "to", m.To)
		return fmt.Errorf("sendgrid: returned status %d", response.StatusCode)
	}

	s.logger.Info("Mail sent via SendGrid", "to", m.To, "subject", m.Subject, "status", response.StatusCode)
	return nil
}
