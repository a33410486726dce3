package runtime

import (
	"context"
	"strings"

	"github.com/aretw0/folio/pkg/domain"
)

// dispatch routes a turn that middleware did not handle.
func (e *Engine) dispatch(ctx context.Context, tc *turnContext) error {
	if tc.routed {
		return nil
	}
	tc.routed = true

	if top := tc.state.Top(); top != nil && top.PendingPrompt != nil {
		return e.resolvePrompt(ctx, tc)
	}

	text := strings.TrimSpace(tc.turn.Text)

	// Explicit navigation: "/contact" begins that dialog directly.
	if strings.HasPrefix(text, "/") && !strings.ContainsAny(text, " \t\n") {
		if def, err := e.registry.ResolveByID(text); err == nil {
			return e.route(ctx, tc, def.ID, &domain.IntentMatch{Intent: def.ID, Confidence: 1})
		}
	}

	id, match := e.classify(ctx, text)
	return e.route(ctx, tc, id, match)
}

// classify asks the recognizer and picks the dialog to route to.
// Anything short of a confident match goes to the fallback dialog.
func (e *Engine) classify(ctx context.Context, text string) (string, *domain.IntentMatch) {
	if e.recognizer == nil || text == "" {
		return e.config.FallbackDialogID, nil
	}

	matches, err := e.recognizer.Recognize(ctx, text)
	if err != nil {
		e.logger.Warn("Recognizer failed, routing to fallback", "err", err)
		return e.config.FallbackDialogID, nil
	}

	m, im, ok := e.registry.Best(matches, e.config.MinConfidence)
	if !ok {
		e.logger.Debug("No confident intent", "matches", len(matches))
		return e.config.FallbackDialogID, nil
	}

	e.logger.Debug("Intent resolved", "intent", im.Intent, "confidence", im.Confidence, "dialog", m.Definition.ID)
	return m.Definition.ID, &im
}

// route resets the stack and begins id.
func (e *Engine) route(ctx context.Context, tc *turnContext, id string, match *domain.IntentMatch) error {
	tc.intent = match
	for tc.state.Depth() > 0 {
		frame, _ := tc.state.PopFrame()
		if !frame.Resting {
			e.emitDialogEnd(ctx, tc, frame.DialogID, domain.EndReset)
		}
	}
	return e.begin(ctx, tc, id, domain.Args{Kind: domain.ArgsBegin, Intent: match})
}
