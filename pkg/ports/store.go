package ports

import (
	"context"

	"github.com/aretw0/folio/pkg/domain"
)

// StateStore defines the interface for persisting conversation state.
// The engine treats it as opaque storage keyed by conversation ID.
type StateStore interface {
	// Save persists the state for a given conversation ID.
	Save(ctx context.Context, conversationID string, state *domain.ConversationState) error

	// Load retrieves the state for a given conversation ID.
	// Returns domain.ErrSessionNotFound if the conversation does not exist.
	Load(ctx context.Context, conversationID string) (*domain.ConversationState, error)

	// Delete removes the state for a given conversation ID.
	Delete(ctx context.Context, conversationID string) error

	// List returns the known conversation IDs.
	List(ctx context.Context) ([]string, error)
}
