package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/aretw0/folio/internal/logging"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/aretw0/folio/pkg/ports"
)

// SMTPConfig holds the relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTP sends mail through an SMTP relay with STARTTLS (port 587 by default).
type SMTP struct {
	addr   string
	auth   smtp.Auth
	cfg    Config
	send   SendFunc
	now    func() time.Time
	logger *slog.Logger
}

var _ ports.Mailer = (*SMTP)(nil)

// NewSMTP creates an SMTP mailer. send may be nil to use smtp.SendMail.
func NewSMTP(relay SMTPConfig, cfg Config, send SendFunc, logger *slog.Logger) *SMTP {
	if relay.Port == 0 {
		relay.Port = 587
	}
	if send == nil {
		send = smtp.SendMail
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	var auth smtp.Auth
	if relay.Username != "" {
		auth = smtp.PlainAuth("", relay.Username, relay.Password, relay.Host)
	}
	return &SMTP{
		addr:   net.JoinHostPort(relay.Host, fmt.Sprint(relay.Port)),
		auth:   auth,
		cfg:    cfg,
		send:   send,
		now:    time.Now,
		logger: logger,
	}
}

// Send sends m. smtp.SendMail does not take a context, so ctx is only checked before dialing.
func (s *SMTP) Send(ctx context.Context, m domain.Mail) error {
	m, err := s.cfg.prepare(m)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := s.compose(m)
	if err := s.send(s.addr, s.auth, s.cfg.FromEmail, []string{m.To}, msg); err != nil {
		s.logger.Error("SMTP send failed", "err", err, "to", m.To)
		return fmt.Errorf("smtp: send failed: %w", err)
	}
	s.logger.Info("Mail sent via SMTP", "to", m.To, "subject", m.Subject)
	return nil
}

func (s *SMTP) compose(m domain.Mail) []byte {
	from := s.cfg.FromEmail
	if s.cfg.FromName != "" {
		from = fmt.Sprintf("%q <%s>", s.cfg.FromName, s.cfg.FromEmail)
	}

	var b strings.Builder
	header := func(k, v string) {
		b.WriteString(k + ": " + sanitizeHeader(v) + "\r\n")
	}
	header("From", from)
	header("To", m.To)
	if m.From != "" {
		header("Reply-To", m.From)
	}
	header("Subject", m.Subject)
	header("Date", s.now().Format(time.RFC1123Z))
	header("MIME-Version", "1.0")
	header("Content-Type", "text/plain; charset=UTF-8")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(m.Body, "\n", "\r\n"))
	return []byte(b.String())
}

// sanitizeHeader keeps user input from injecting headers.
func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}
