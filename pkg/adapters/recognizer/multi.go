package recognizer

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/aretw0/folio/internal/logging"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/aretw0/folio/pkg/ports"
)

// Multi asks several recognizers and merges their matches.
type Multi struct {
	recognizers []ports.Recognizer
	logger      *slog.Logger
}

var _ ports.Recognizer = (*Multi)(nil)

// NewMulti combines recognizers, queried in order.
func NewMulti(logger *slog.Logger, recognizers ...ports.Recognizer) *Multi {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Multi{recognizers: recognizers, logger: logger}
}

// Recognize merges all matches ordered by confidence, earlier recognizers first on ties.
// A failing recognizer is skipped; Multi only fails when every recognizer failed.
func (m *Multi) Recognize(ctx context.Context, text string) ([]domain.IntentMatch, error) {
	var all []domain.IntentMatch
	var errs []error
	for _, r := range m.recognizers {
		matches, err := r.Recognize(ctx, text)
		if err != nil {
			m.logger.Warn("Recognizer failed", "err", err)
			errs = append(errs, err)
			continue
		}
		all = append(all, matches...)
	}
	if len(m.recognizers) > 0 && len(errs) == len(m.recognizers) {
		return nil, errors.Join(errs...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Confidence > all[j].Confidence
	})
	return all, nil
}
