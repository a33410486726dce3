package runtime

import (
	"context"

	"github.com/aretw0/folio/pkg/domain"
)

func (e *Engine) base(tc *turnContext, t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: e.now(), Type: t, ConversationID: tc.turn.ConversationID}
}

func (e *Engine) emitTurn(ctx context.Context, ev *domain.TurnEvent) {
	if e.hooks.OnTurn != nil {
		e.hooks.OnTurn(ctx, ev)
	}
}

func (e *Engine) emitDialogBegin(ctx context.Context, tc *turnContext, id string) {
	if e.hooks.OnDialogBegin != nil {
		e.hooks.OnDialogBegin(ctx, &domain.DialogEvent{
			EventBase: e.base(tc, domain.EventDialogBegin),
			DialogID:  id,
			Depth:     tc.state.Depth(),
		})
	}
}

func (e *Engine) emitDialogEnd(ctx context.Context, tc *turnContext, id string, reason domain.EndReason) {
	if e.hooks.OnDialogEnd != nil {
		e.hooks.OnDialogEnd(ctx, &domain.DialogEvent{
			EventBase: e.base(tc, domain.EventDialogEnd),
			DialogID:  id,
			Depth:     tc.state.Depth(),
			Reason:    reason,
		})
	}
}

func (e *Engine) promptEvent(tc *turnContext, t domain.EventType, dialogID string, p *domain.PendingPrompt) *domain.PromptEvent {
	return &domain.PromptEvent{
		EventBase: e.base(tc, t),
		DialogID:  dialogID,
		Kind:      p.Kind,
		Retries:   p.Retries,
	}
}

func (e *Engine) emitPrompt(ctx context.Context, tc *turnContext, dialogID string, p *domain.PendingPrompt) {
	if e.hooks.OnPrompt != nil {
		e.hooks.OnPrompt(ctx, e.promptEvent(tc, domain.EventPrompt, dialogID, p))
	}
}

func (e *Engine) emitPromptRetry(ctx context.Context, tc *turnContext, dialogID string, p *domain.PendingPrompt) {
	if e.hooks.OnPromptRetry != nil {
		e.hooks.OnPromptRetry(ctx, e.promptEvent(tc, domain.EventPromptRetry, dialogID, p))
	}
}

func (e *Engine) emitPromptResult(ctx context.Context, tc *turnContext, dialogID string, p *domain.PendingPrompt, answered bool) {
	if e.hooks.OnPromptResult != nil {
		ev := e.promptEvent(tc, domain.EventPromptResult, dialogID, p)
		ev.Answered = answered
		e.hooks.OnPromptResult(ctx, ev)
	}
}
