package ports

import (
	"context"

	"github.com/aretw0/folio/pkg/domain"
)

// Sender delivers a message to the user outside of a turn response.
type Sender interface {
	Send(ctx context.Context, msg domain.Message) error
}

// Scheduler delivers paced messages after a turn was persisted.
// Schedule must not block on the delays.
type Scheduler interface {
	Schedule(ctx context.Context, conversationID string, msgs []domain.ScheduledMessage)
}
