package ports

import (
	"context"

	"github.com/aretw0/folio/pkg/domain"
)

// Mailer sends outbound email.
type Mailer interface {
	Send(ctx context.Context, mail domain.Mail) error
}
