package middleware

import (
	"context"

	"github.com/aretw0/folio/pkg/domain"
)

// SendTyping shows a typing indicator at the start of every turn.
func SendTyping() domain.Middleware {
	return func(ctx context.Context, tc domain.TurnContext, next domain.NextFunc) error {
		tc.Send(domain.TypingMessage())
		return next(ctx)
	}
}
