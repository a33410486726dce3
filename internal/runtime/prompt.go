package runtime

import (
	"context"
	"strconv"
	"strings"

	"github.com/aretw0/folio/pkg/domain"
)

var (
	affirmatives = map[string]bool{"yes": true, "y": true, "yeah": true, "yep": true, "sure": true, "ok": true, "okay": true, "true": true, "1": true, "ja": true}
	negatives    = map[string]bool{"no": true, "n": true, "nope": true, "nah": true, "false": true, "0": true, "nee": true}
)

// resolvePrompt feeds the utterance to the prompt waiting on top of the stack.
func (e *Engine) resolvePrompt(ctx context.Context, tc *turnContext) error {
	frame := tc.state.Top()
	p := frame.PendingPrompt

	resp, ok := EvaluatePrompt(p, tc.turn.Text)
	if !ok {
		if p.Retries < p.MaxRetries {
			p.Retries++
			tc.sendPrompt(p, true)
			e.emitPromptRetry(ctx, tc, frame.DialogID, p)
			return nil
		}
		// Out of retries: the dialog continues without an answer.
		resp = nil
	}

	e.emitPromptResult(ctx, tc, frame.DialogID, p, resp != nil)
	frame.PendingPrompt = nil
	frame.StepIndex++
	return e.run(ctx, tc, domain.Args{Kind: domain.ArgsPrompt, Response: resp})
}

// EvaluatePrompt validates input against a prompt.
// It reports false when the input is not an acceptable answer.
func EvaluatePrompt(p *domain.PendingPrompt, input string) (*domain.PromptResponse, bool) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, false
	}

	switch p.Kind {
	case domain.PromptText:
		return &domain.PromptResponse{Kind: domain.PromptText, Text: input}, true

	case domain.PromptConfirm:
		v, ok := ParseConfirm(trimmed)
		if !ok {
			return nil, false
		}
		return &domain.PromptResponse{Kind: domain.PromptConfirm, Text: trimmed, Confirmed: v}, true

	case domain.PromptChoice:
		idx, ok := MatchChoice(p.Choices, trimmed)
		if !ok {
			return nil, false
		}
		c := p.Choices[idx]
		return &domain.PromptResponse{Kind: domain.PromptChoice, Text: c.Label, Index: idx, Choice: c}, true
	}
	return nil, false
}

// ParseConfirm reads a yes/no answer. Case and trailing punctuation are ignored.
func ParseConfirm(input string) (bool, bool) {
	s := strings.ToLower(strings.TrimRight(strings.TrimSpace(input), ".!?"))
	switch {
	case affirmatives[s]:
		return true, true
	case negatives[s]:
		return false, true
	}
	return false, false
}

// MatchChoice selects a choice by 1-based number first, then by case-insensitive
// label, then by postback value. It returns the zero-based index.
func MatchChoice(choices []domain.Choice, input string) (int, bool) {
	s := strings.TrimSpace(input)
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 1 && n <= len(choices) {
			return n - 1, true
		}
	}
	for i, c := range choices {
		if strings.EqualFold(c.Label, s) {
			return i, true
		}
	}
	for i, c := range choices {
		if c.Value != "" && strings.EqualFold(c.Value, s) {
			return i, true
		}
	}
	return 0, false
}

// sendPrompt asks p, or its retry text when re-prompting.
func (tc *turnContext) sendPrompt(p *domain.PendingPrompt, retry bool) {
	text := p.Text
	if retry && p.RetryText != "" {
		text = p.RetryText
	}
	tc.Send(domain.TextMessage(text, promptActions(p)...))
}

func promptActions(p *domain.PendingPrompt) []domain.Action {
	switch p.Kind {
	case domain.PromptChoice:
		actions := make([]domain.Action, len(p.Choices))
		for i, c := range p.Choices {
			actions[i] = domain.Action{Label: c.Label, Value: c.Postback()}
		}
		return actions
	case domain.PromptConfirm:
		return []domain.Action{{Label: "Yes", Value: "yes"}, {Label: "No", Value: "no"}}
	}
	return nil
}
