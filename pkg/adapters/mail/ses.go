package mail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/folio/internal/logging"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/aretw0/folio/pkg/ports"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SESAPI is the part of the SES v2 client used here.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SES sends mail via Amazon SES.
type SES struct {
	client SESAPI
	cfg    Config
	logger *slog.Logger
}

var _ ports.Mailer = (*SES)(nil)

// NewSES creates an SES mailer.
func NewSES(client SESAPI, cfg Config, logger *slog.Logger) *SES {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &SES{client: client, cfg: cfg, logger: logger}
}

// Send sends m.
func (s *SES) Send(ctx context.Context, m domain.Mail) error {
	m, err := s.cfg.prepare(m)
	if err != nil {
		return err
	}

	from := s.cfg.FromEmail
	if s.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.FromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{m.To},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(m.Subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Text: &types.Content{
						Data:    aws.String(m.Body),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}
	if m.From != "" {
		input.ReplyToAddresses = []string{m.From}
	}

	output, err := s.client.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("SES send failed", "err", err, "to", m.To)
		return fmt.Errorf("ses: send failed: %w", err)
	}

	s.logger.Info("Mail sent via SES", "to", m.To, "subject", m.Subject, "message_id", aws.ToString(output.MessageId))
	return nil
}
