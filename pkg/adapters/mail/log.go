package mail

import (
	"context"
	"log/slog"

	"github.com/aretw0/folio/internal/logging"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/aretw0/folio/pkg/ports"
)

// Log is a mailer that only logs, for development or when mail is disabled.
type Log struct {
	cfg    Config
	logger *slog.Logger
}

var _ ports.Mailer = (*Log)(nil)

// NewLog creates a logging mailer.
func NewLog(cfg Config, logger *slog.Logger) *Log {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Log{cfg: cfg, logger: logger}
}

// Send logs m instead of sending it.
func (l *Log) Send(ctx context.Context, m domain.Mail) error {
	m, err := l.cfg.prepare(m)
	if err != nil {
		return err
	}
	l.logger.Info("Mail not sent (log mailer)", "to", m.To, "reply_to", m.From, "subject", m.Subject, "bytes", len(m.Body))
	return nil
}
