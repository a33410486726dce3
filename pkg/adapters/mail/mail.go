package mail

import (
	"errors"
	"fmt"
	"net/mail"

	"github.com/aretw0/folio/pkg/domain"
)

// ErrInvalidMail is returned for mails that cannot be addressed.
var ErrInvalidMail = errors.New("invalid mail")

// Config is shared by every provider.
type Config struct {
	// FromEmail is the verified sender address.
	FromEmail string
	FromName  string
	// DefaultTo receives mails that have no recipient (the site owner).
	DefaultTo string
}

func (c Config) prepare(m domain.Mail) (domain.Mail, error) {
	if m.To == "" {
		m.To = c.DefaultTo
	}
	if m.To == "" {
		return m, fmt.Errorf("%w: no recipient", ErrInvalidMail)
	}
	if _, err := mail.ParseAddress(m.To); err != nil {
		return m, fmt.Errorf("%w: recipient: %w", ErrInvalidMail, err)
	}
	if m.From != "" {
		if _, err := mail.ParseAddress(m.From); err != nil {
			return m, fmt.Errorf("%w: reply-to: %w", ErrInvalidMail, err)
		}
	}
	return m, nil
}

// ValidAddress reports whether s parses as a single email address.
func ValidAddress(s string) bool {
	_, err := mail.ParseAddress(s)
	return err == nil
}
