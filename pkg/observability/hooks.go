package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/folio/pkg/domain"
)

// LogHooks writes one record per lifecycle event. Turns log at info, the rest at debug.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurn: func(ctx context.Context, e *domain.TurnEvent) {
			attrs := []any{
				"conversation_id", e.ConversationID,
				"intent", e.Intent,
				"dialog_id", e.Dialog,
				"duration", e.Duration,
			}
			if e.Err != nil {
				logger.WarnContext(ctx, "turn", append(attrs, "err", e.Err)...)
				return
			}
			logger.InfoContext(ctx, "turn", attrs...)
		},
		OnDialogBegin: func(ctx context.Context, e *domain.DialogEvent) {
			logger.DebugContext(ctx, "dialog_begin",
				"conversation_id", e.ConversationID,
				"dialog_id", e.DialogID,
				"depth", e.Depth,
			)
		},
		OnDialogEnd: func(ctx context.Context, e *domain.DialogEvent) {
			logger.DebugContext(ctx, "dialog_end",
				"conversation_id", e.ConversationID,
				"dialog_id", e.DialogID,
				"depth", e.Depth,
				"reason", e.Reason,
			)
		},
		OnPromptRetry: func(ctx context.Context, e *domain.PromptEvent) {
			logger.DebugContext(ctx, "prompt_retry",
				"conversation_id", e.ConversationID,
				"dialog_id", e.DialogID,
				"kind", e.Kind,
				"retries", e.Retries,
			)
		},
		OnPromptResult: func(ctx context.Context, e *domain.PromptEvent) {
			logger.DebugContext(ctx, "prompt_result",
				"conversation_id", e.ConversationID,
				"dialog_id", e.DialogID,
				"kind", e.Kind,
				"answered", e.Answered,
			)
		},
	}
}
