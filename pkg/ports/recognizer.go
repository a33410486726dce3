package ports

import (
	"context"

	"github.com/aretw0/folio/pkg/domain"
)

// Recognizer classifies an utterance.
// Matches are returned in any order; the engine ranks them.
type Recognizer interface {
	Recognize(ctx context.Context, text string) ([]domain.IntentMatch, error)
}

// RecognizerFunc adapts a function to Recognizer.
type RecognizerFunc func(ctx context.Context, text string) ([]domain.IntentMatch, error)

func (f RecognizerFunc) Recognize(ctx context.Context, text string) ([]domain.IntentMatch, error) {
	return f(ctx, text)
}
