package domain

import "time"

// Attachment is a file sent by the user.
type Attachment struct {
	ContentType string `json:"content_type"`
	ContentURL  string `json:"content_url"`
	Name        string `json:"name,omitempty"`
}

// Turn is one inbound user activity.
type Turn struct {
	ConversationID string       `json:"conversation_id"`
	UserID         string       `json:"user_id,omitempty"`
	Text           string       `json:"text"`
	Attachments    []Attachment `json:"attachments,omitempty"`
	Timestamp      time.Time    `json:"timestamp,omitempty"`
}

// MessageType distinguishes visible messages from indicators.
type MessageType string

const (
	MessageText   MessageType = "message"
	MessageTyping MessageType = "typing"
)

// Action is a suggested reply rendered as a button.
type Action struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Card is a rich attachment.
type Card struct {
	Title    string   `json:"title,omitempty"`
	Subtitle string   `json:"subtitle,omitempty"`
	Text     string   `json:"text,omitempty"`
	ImageURL string   `json:"image_url,omitempty"`
	Buttons  []Action `json:"buttons,omitempty"`
}

// Message is one outbound activity.
type Message struct {
	ConversationID   string      `json:"conversation_id"`
	Type             MessageType `json:"type"`
	Text             string      `json:"text,omitempty"`
	SuggestedActions []Action    `json:"suggested_actions,omitempty"`
	Attachments      []Card      `json:"attachments,omitempty"`
}

// TextMessage builds a plain message with optional suggested actions.
func TextMessage(text string, actions ...Action) Message {
	return Message{Type: MessageText, Text: text, SuggestedActions: actions}
}

// TypingMessage builds a typing indicator.
func TypingMessage() Message {
	return Message{Type: MessageTyping}
}

// ScheduledMessage is a message delivered after Delay, measured from the
// previous scheduled message of the same turn.
type ScheduledMessage struct {
	Delay   time.Duration `json:"delay"`
	Message Message       `json:"message"`
}

// TurnResult is what a turn produced.
type TurnResult struct {
	ConversationID string `json:"conversation_id"`

	// Messages are delivered in order by the transport.
	Messages []Message `json:"messages"`

	// Scheduled were handed to the scheduler after the state was saved.
	Scheduled []ScheduledMessage `json:"scheduled,omitempty"`

	// ActiveDialog is the top of the stack after the turn.
	ActiveDialog string `json:"active_dialog,omitempty"`

	// Failed is set when the turn errored and Messages come from the fallback dialog.
	Failed bool `json:"failed,omitempty"`
}
