package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTurn         EventType = "turn"
	EventDialogBegin  EventType = "dialog_begin"
	EventDialogEnd    EventType = "dialog_end"
	EventPrompt       EventType = "prompt"
	EventPromptRetry  EventType = "prompt_retry"
	EventPromptResult EventType = "prompt_result"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp      time.Time `json:"timestamp"`
	Type           EventType `json:"type"`
	ConversationID string    `json:"conversation_id"`
}

// TurnEvent is emitted once per turn, after it finished.
type TurnEvent struct {
	EventBase
	Intent   string        `json:"intent,omitempty"`
	Dialog   string        `json:"dialog,omitempty"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// EndReason tells how a dialog left the stack.
type EndReason string

const (
	EndCompleted EndReason = "completed"
	EndCancelled EndReason = "cancelled"
	EndReplaced  EndReason = "replaced"
	EndReset     EndReason = "reset"
)

// DialogEvent represents a dialog entering or leaving the stack.
type DialogEvent struct {
	EventBase
	DialogID string    `json:"dialog_id"`
	Depth    int       `json:"depth"`
	Reason   EndReason `json:"reason,omitempty"`
}

// PromptEvent represents a prompt being issued, retried or resolved.
type PromptEvent struct {
	EventBase
	DialogID string     `json:"dialog_id"`
	Kind     PromptKind `json:"kind"`
	Retries  int        `json:"retries"`
	Answered bool       `json:"answered,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnTurn         func(context.Context, *TurnEvent)
	OnDialogBegin  func(context.Context, *DialogEvent)
	OnDialogEnd    func(context.Context, *DialogEvent)
	OnPrompt       func(context.Context, *PromptEvent)
	OnPromptRetry  func(context.Context, *PromptEvent)
	OnPromptResult func(context.Context, *PromptEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTurn:         chain(h.OnTurn, other.OnTurn),
		OnDialogBegin:  chain(h.OnDialogBegin, other.OnDialogBegin),
		OnDialogEnd:    chain(h.OnDialogEnd, other.OnDialogEnd),
		OnPrompt:       chain(h.OnPrompt, other.OnPrompt),
		OnPromptRetry:  chain(h.OnPromptRetry, other.OnPromptRetry),
		OnPromptResult: chain(h.OnPromptResult, other.OnPromptResult),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
