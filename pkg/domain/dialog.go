package domain

import (
	"context"
	"time"
)

// Step is one stage of a waterfall.
// A step drives the conversation through the Session. Returning without a
// control call falls through to the next step.
type Step func(ctx context.Context, s Session, args Args) error

// Definition is a registered dialog. It is immutable after registration.
type Definition struct {
	// ID is the absolute dialog path, e.g. "/contact".
	ID string

	// Steps run in order.
	Steps []Step

	// Triggers are intent names that start this dialog. "*" matches any intent.
	Triggers []string

	// Links lists the dialogs this one may begin or replace into.
	// They are checked at startup by Registry.Validate.
	Links []string

	// Description is shown by operator listings.
	Description string
}

// DialogInfo is the listing shape of a Definition.
type DialogInfo struct {
	ID          string   `json:"id"`
	Description string   `json:"description,omitempty"`
	Triggers    []string `json:"triggers,omitempty"`
	Links       []string `json:"links,omitempty"`
	Steps       int      `json:"steps"`
}

// Info describes the definition without its step functions.
func (d Definition) Info() DialogInfo {
	return DialogInfo{
		ID:          d.ID,
		Description: d.Description,
		Triggers:    d.Triggers,
		Links:       d.Links,
		Steps:       len(d.Steps),
	}
}

// Wildcard is the trigger matching any recognized intent.
const Wildcard = "*"

// ArgsKind tags why a step is running.
type ArgsKind int

const (
	// ArgsBegin is passed to step 0 of a freshly started dialog.
	ArgsBegin ArgsKind = iota
	// ArgsNext is passed after a fall-through or an explicit Next.
	ArgsNext
	// ArgsPrompt is passed after a prompt resolved (possibly without an answer).
	ArgsPrompt
	// ArgsResult is passed to a parent whose child dialog ended.
	ArgsResult
	// ArgsCancelled is passed to a parent whose child dialog was cancelled.
	ArgsCancelled
)

func (k ArgsKind) String() string {
	switch k {
	case ArgsBegin:
		return "begin"
	case ArgsNext:
		return "next"
	case ArgsPrompt:
		return "prompt"
	case ArgsResult:
		return "result"
	case ArgsCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Args is the tagged input of a step. Every accessor tolerates absence.
type Args struct {
	Kind ArgsKind

	// Value carries begin args, Next values and child results.
	Value any

	// Response is the prompt answer. Nil when the prompt ran out of retries.
	Response *PromptResponse

	// Intent is the match that routed to this dialog, on ArgsBegin only.
	Intent *IntentMatch
}

// Answered reports whether a prompt produced an answer.
func (a Args) Answered() bool {
	return a.Kind == ArgsPrompt && a.Response != nil
}

// ResponseText returns the answer of a text prompt.
func (a Args) ResponseText() (string, bool) {
	if !a.Answered() {
		return "", false
	}
	return a.Response.Text, true
}

// Confirmed returns the answer of a confirm prompt.
func (a Args) Confirmed() (bool, bool) {
	if !a.Answered() || a.Response.Kind != PromptConfirm {
		return false, false
	}
	return a.Response.Confirmed, true
}

// ChoiceIndex returns the zero-based index picked in a choice prompt.
func (a Args) ChoiceIndex() (int, bool) {
	if !a.Answered() || a.Response.Kind != PromptChoice {
		return 0, false
	}
	return a.Response.Index, true
}

// Entity looks up an entity of the routing intent.
func (a Args) Entity(entityType string) (Entity, bool) {
	if a.Intent == nil {
		return Entity{}, false
	}
	return a.Intent.Entity(entityType)
}

// Session is the handle a step uses to talk and to drive the dialog stack.
// Control calls (Next, EndDialog, BeginDialog, ReplaceDialog, CancelDialog and
// the prompts) are recorded; when a step makes several, the last one wins.
type Session interface {
	// Turn is the inbound activity being processed.
	Turn() Turn
	ConversationID() string

	// UserData is shared by every dialog of the conversation.
	UserData() map[string]any
	// DialogData is private to the current invocation and dropped when it ends.
	DialogData() map[string]any

	Send(msgs ...Message)
	SendText(text string, actions ...Action)
	// SendPaced delivers msg after delay, without holding the turn.
	SendPaced(delay time.Duration, msg Message)

	Next(value any)
	BeginDialog(id string, args any)
	EndDialog(result any)
	ReplaceDialog(id string, args any)
	CancelDialog()

	PromptText(text string, opts ...PromptOption)
	PromptConfirm(text string, opts ...PromptOption)
	PromptChoice(text string, choices []Choice, opts ...PromptOption)
}

// TurnContext is what middleware sees of a turn.
type TurnContext interface {
	Turn() Turn
	// SetText replaces the utterance seen by routing and dialogs.
	SetText(text string)
	State() *ConversationState
	Send(msgs ...Message)
	// BeginDialog pushes id on top of the current stack and runs it now.
	// Normal routing is skipped for the rest of the turn.
	BeginDialog(ctx context.Context, id string, args any) error
	// Routed reports whether the turn has already been dispatched.
	Routed() bool
	// Halt ends the turn without routing.
	Halt()
}

// NextFunc continues the middleware chain.
type NextFunc func(ctx context.Context) error

// Middleware runs around routing. Not calling next ends the pipeline.
type Middleware func(ctx context.Context, tc TurnContext, next NextFunc) error
