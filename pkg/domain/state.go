package domain

import "time"

// ConversationState is the persisted snapshot of one conversation.
type ConversationState struct {
	// ConversationID is the store key.
	ConversationID string `json:"conversation_id"`

	// UserID identifies the user behind the conversation, when the transport knows it.
	UserID string `json:"user_id,omitempty"`

	// UserData survives across dialogs. The engine never clears it.
	UserData map[string]any `json:"user_data"`

	// DialogStack holds the active invocations. The top is the last element.
	DialogStack []DialogFrame `json:"dialog_stack"`

	// Version is the dialog-graph version the stack was built against.
	Version string `json:"version,omitempty"`

	// UpdatedAt is stamped on every successful turn.
	UpdatedAt time.Time `json:"updated_at"`
}

// DialogFrame is one active dialog invocation.
type DialogFrame struct {
	DialogID   string         `json:"dialog_id"`
	StepIndex  int            `json:"step_index"`
	DialogData map[string]any `json:"dialog_data,omitempty"`

	// PendingPrompt is set while the frame waits for the user's answer.
	PendingPrompt *PendingPrompt `json:"pending_prompt,omitempty"`

	// Resting marks the idle default frame placed when the stack would become empty.
	// A resting frame is never resumed.
	Resting bool `json:"resting,omitempty"`
}

// NewConversationState creates an empty state for a conversation.
func NewConversationState(conversationID, userID string) *ConversationState {
	return &ConversationState{
		ConversationID: conversationID,
		UserID:         userID,
		UserData:       make(map[string]any),
		DialogStack:    []DialogFrame{},
	}
}

// Top returns the active frame, or nil when the stack is empty.
func (s *ConversationState) Top() *DialogFrame {
	if len(s.DialogStack) == 0 {
		return nil
	}
	return &s.DialogStack[len(s.DialogStack)-1]
}

// Depth returns the number of frames on the stack.
func (s *ConversationState) Depth() int {
	return len(s.DialogStack)
}

// PushFrame places a new frame for dialogID on top of the stack.
func (s *ConversationState) PushFrame(dialogID string) *DialogFrame {
	s.DialogStack = append(s.DialogStack, DialogFrame{
		DialogID:   dialogID,
		DialogData: make(map[string]any),
	})
	return s.Top()
}

// PopFrame removes the top frame and returns it.
func (s *ConversationState) PopFrame() (DialogFrame, bool) {
	if len(s.DialogStack) == 0 {
		return DialogFrame{}, false
	}
	frame := s.DialogStack[len(s.DialogStack)-1]
	s.DialogStack = s.DialogStack[:len(s.DialogStack)-1]
	return frame, true
}

// ResetStack truncates the stack. UserData is kept.
func (s *ConversationState) ResetStack() {
	s.DialogStack = s.DialogStack[:0]
}

// Clone returns a deep copy of the state, so a turn can mutate it freely
// and be discarded on failure.
func (s *ConversationState) Clone() *ConversationState {
	out := *s
	out.UserData = CloneMap(s.UserData)
	out.DialogStack = make([]DialogFrame, len(s.DialogStack))
	for i, f := range s.DialogStack {
		f.DialogData = CloneMap(f.DialogData)
		if f.PendingPrompt != nil {
			p := *f.PendingPrompt
			p.Choices = append([]Choice(nil), f.PendingPrompt.Choices...)
			f.PendingPrompt = &p
		}
		out.DialogStack[i] = f
	}
	return &out
}

// CloneMap deep-copies nested maps and slices. Other values are copied shallowly.
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return make(map[string]any)
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneMap(t)
	case []any:
		c := make([]any, len(t))
		for i, e := range t {
			c[i] = cloneValue(e)
		}
		return c
	default:
		return v
	}
}
