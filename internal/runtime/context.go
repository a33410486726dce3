package runtime

import (
	"context"
	"time"

	"github.com/aretw0/folio/pkg/domain"
)

// turnContext carries one turn through middleware and dialogs.
// It implements domain.TurnContext.
type turnContext struct {
	engine *Engine
	state  *domain.ConversationState
	turn   domain.Turn

	// outbox keeps sends in order. A zero delay means "with the response".
	outbox []domain.ScheduledMessage

	routed bool
	halted bool
	intent *domain.IntentMatch
	steps  int
}

func newTurnContext(e *Engine, state *domain.ConversationState, turn domain.Turn) *turnContext {
	return &turnContext{engine: e, state: state, turn: turn}
}

func (tc *turnContext) Turn() domain.Turn                { return tc.turn }
func (tc *turnContext) State() *domain.ConversationState { return tc.state }
func (tc *turnContext) Routed() bool                     { return tc.routed }

func (tc *turnContext) SetText(text string) {
	tc.turn.Text = text
}

func (tc *turnContext) Halt() {
	tc.halted = true
}

func (tc *turnContext) Send(msgs ...domain.Message) {
	for _, m := range msgs {
		tc.enqueue(0, m)
	}
}

func (tc *turnContext) BeginDialog(ctx context.Context, id string, args any) error {
	tc.routed = true
	return tc.engine.begin(ctx, tc, id, domain.Args{Kind: domain.ArgsBegin, Value: args})
}

func (tc *turnContext) enqueue(delay time.Duration, m domain.Message) {
	m.ConversationID = tc.turn.ConversationID
	if m.Type == "" {
		m.Type = domain.MessageText
	}
	tc.outbox = append(tc.outbox, domain.ScheduledMessage{Delay: delay, Message: m})
}

// result splits the outbox: the leading zero-delay messages go with the response,
// everything from the first paced message on is scheduled to keep the order.
func (tc *turnContext) result() *domain.TurnResult {
	res := &domain.TurnResult{
		ConversationID: tc.turn.ConversationID,
		Messages:       []domain.Message{},
	}
	i := 0
	for ; i < len(tc.outbox) && tc.outbox[i].Delay == 0; i++ {
		res.Messages = append(res.Messages, tc.outbox[i].Message)
	}
	if i < len(tc.outbox) {
		res.Scheduled = append([]domain.ScheduledMessage(nil), tc.outbox[i:]...)
	}
	if top := tc.state.Top(); top != nil {
		res.ActiveDialog = top.DialogID
	}
	return res
}

type controlKind int

const (
	ctrlNone controlKind = iota
	ctrlNext
	ctrlEnd
	ctrlBegin
	ctrlReplace
	ctrlCancel
	ctrlPrompt
)

// control is the single navigation decision a step made. Last call wins.
type control struct {
	kind     controlKind
	dialogID string
	value    any
	prompt   *domain.PendingPrompt
}

// stepSession is the domain.Session handed to one step execution.
type stepSession struct {
	tc    *turnContext
	frame int
	ctrl  control
}

var _ domain.Session = (*stepSession)(nil)

func (s *stepSession) Turn() domain.Turn      { return s.tc.turn }
func (s *stepSession) ConversationID() string { return s.tc.turn.ConversationID }

func (s *stepSession) UserData() map[string]any {
	if s.tc.state.UserData == nil {
		s.tc.state.UserData = make(map[string]any)
	}
	return s.tc.state.UserData
}

func (s *stepSession) DialogData() map[string]any {
	f := &s.tc.state.DialogStack[s.frame]
	if f.DialogData == nil {
		f.DialogData = make(map[string]any)
	}
	return f.DialogData
}

func (s *stepSession) Send(msgs ...domain.Message) {
	s.tc.Send(msgs...)
}

func (s *stepSession) SendText(text string, actions ...domain.Action) {
	s.tc.Send(domain.TextMessage(text, actions...))
}

func (s *stepSession) SendPaced(delay time.Duration, msg domain.Message) {
	if delay < 0 {
		delay = 0
	}
	s.tc.enqueue(delay, msg)
}

func (s *stepSession) Next(value any) {
	s.ctrl = control{kind: ctrlNext, value: value}
}

func (s *stepSession) BeginDialog(id string, args any) {
	s.ctrl = control{kind: ctrlBegin, dialogID: id, value: args}
}

func (s *stepSession) EndDialog(result any) {
	s.ctrl = control{kind: ctrlEnd, value: result}
}

func (s *stepSession) ReplaceDialog(id string, args any) {
	s.ctrl = control{kind: ctrlReplace, dialogID: id, value: args}
}

func (s *stepSession) CancelDialog() {
	s.ctrl = control{kind: ctrlCancel}
}

func (s *stepSession) PromptText(text string, opts ...domain.PromptOption) {
	s.prompt(domain.PromptText, text, nil, opts)
}

func (s *stepSession) PromptConfirm(text string, opts ...domain.PromptOption) {
	s.prompt(domain.PromptConfirm, text, nil, opts)
}

func (s *stepSession) PromptChoice(text string, choices []domain.Choice, opts ...domain.PromptOption) {
	s.prompt(domain.PromptChoice, text, append([]domain.Choice(nil), choices...), opts)
}

func (s *stepSession) prompt(kind domain.PromptKind, text string, choices []domain.Choice, opts []domain.PromptOption) {
	p := domain.NewPendingPrompt(kind, text, choices, s.tc.engine.config.MaxPromptRetries, opts...)
	s.ctrl = control{kind: ctrlPrompt, prompt: p}
}
