package domain

// PromptKind is the closed set of prompt types.
type PromptKind string

const (
	PromptText    PromptKind = "text"
	PromptConfirm PromptKind = "confirm"
	PromptChoice  PromptKind = "choice"
)

// DefaultMaxRetries is how many invalid answers are re-prompted before the
// prompt resolves without an answer.
const DefaultMaxRetries = 2

// Choice is one option of a choice prompt.
// Value is the postback sent by suggested actions; it defaults to Label.
type Choice struct {
	Label string `json:"label"`
	Value string `json:"value,omitempty"`
}

// Postback returns the value a client sends back when the choice is tapped.
func (c Choice) Postback() string {
	if c.Value != "" {
		return c.Value
	}
	return c.Label
}

// PendingPrompt is the question a frame is waiting on.
type PendingPrompt struct {
	Kind       PromptKind `json:"kind"`
	Text       string     `json:"text"`
	RetryText  string     `json:"retry_text,omitempty"`
	Choices    []Choice   `json:"choices,omitempty"`
	Retries    int        `json:"retries"`
	MaxRetries int        `json:"max_retries"`
}

// PromptOption customizes a prompt.
type PromptOption func(*PendingPrompt)

// WithRetryText sets the text sent when an answer is invalid.
func WithRetryText(text string) PromptOption {
	return func(p *PendingPrompt) {
		p.RetryText = text
	}
}

// WithMaxRetries overrides the retry budget. Zero resolves on the first invalid answer.
func WithMaxRetries(n int) PromptOption {
	return func(p *PendingPrompt) {
		if n >= 0 {
			p.MaxRetries = n
		}
	}
}

// NewPendingPrompt builds a prompt with a fresh retry counter.
func NewPendingPrompt(kind PromptKind, text string, choices []Choice, maxRetries int, opts ...PromptOption) *PendingPrompt {
	p := &PendingPrompt{
		Kind:       kind,
		Text:       text,
		Choices:    choices,
		MaxRetries: maxRetries,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PromptResponse is a validated answer.
type PromptResponse struct {
	Kind PromptKind `json:"kind"`

	// Text is the raw utterance (text prompts) or the matched label (choice prompts).
	Text string `json:"text"`

	// Confirmed is set by confirm prompts.
	Confirmed bool `json:"confirmed,omitempty"`

	// Index is the zero-based index of the selected choice.
	Index int `json:"index,omitempty"`

	// Choice is the selected option.
	Choice Choice `json:"choice,omitempty"`
}
