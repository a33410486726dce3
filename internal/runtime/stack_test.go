package runtime_test

import (
	"context"
	"testing"

	"github.com/aretw0/folio/internal/runtime"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/aretw0/folio/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stackDialogs exercises every way a frame can leave the stack.
func stackDialogs() []domain.Definition {
	return []domain.Definition{
		{
			ID:       "/",
			Triggers: []string{"Greeting"},
			Steps: []domain.Step{
				stepFn(func(s domain.Session, args domain.Args) {
					s.PromptConfirm("Shall we start?")
				}),
				stepFn(func(s domain.Session, args domain.Args) {
					if yes, ok := args.Confirmed(); ok && yes {
						s.BeginDialog("/name", nil)
						return
					}
					s.EndDialog(nil)
				}),
				stepFn(func(s domain.Session, args domain.Args) {
					name, _ := args.Value.(string)
					s.SendText("Nice to meet you, " + name)
				}),
			},
		},
		{
			ID: "/name",
			Steps: []domain.Step{
				stepFn(func(s domain.Session, args domain.Args) {
					s.PromptText("What is your name?")
				}),
				stepFn(func(s domain.Session, args domain.Args) {
					name, _ := args.ResponseText()
					s.EndDialog(name)
				}),
			},
		},
		{
			ID:       "/abort",
			Triggers: []string{"Abort"},
			Steps: []domain.Step{
				stepFn(func(s domain.Session, args domain.Args) {
					s.BeginDialog("/aborted", nil)
				}),
				stepFn(func(s domain.Session, args domain.Args) {
					s.SendText("aborted")
				}),
			},
		},
		{
			ID: "/aborted",
			Steps: []domain.Step{stepFn(func(s domain.Session, args domain.Args) {
				s.CancelDialog()
			})},
		},
		{
			ID:       "/swap",
			Triggers: []string{"Swap"},
			Steps: []domain.Step{stepFn(func(s domain.Session, args domain.Args) {
				s.ReplaceDialog("/swapped", nil)
			})},
		},
		{
			ID: "/swapped",
			Steps: []domain.Step{
				stepFn(func(s domain.Session, args domain.Args) {
					s.PromptText("Swapped. Say anything.")
				}),
				stepFn(func(s domain.Session, args domain.Args) {
					s.SendText("done")
				}),
			},
		},
		{
			ID: "/unknown",
			Steps: []domain.Step{stepFn(func(s domain.Session, args domain.Args) {
				s.SendText("Sorry, I did not get that.")
			})},
		},
	}
}

func TestEngine_StackNeverEmptyAcrossTurns(t *testing.T) {
	cfg := runtime.DefaultConfig()
	cfg.Version = "1"
	rec := keywords(0.9, map[string]string{"hi": "Greeting", "abort": "Abort", "swap": "Swap"})
	h := newHarness(t, rec, stackDialogs(),
		runtime.WithConfig(cfg),
		runtime.WithMiddleware(middleware.DialogVersion("1")),
	)

	turns := []struct {
		text string
		top  string
	}{
		{"hi", "/"},           // trigger, confirm pending
		{"yes", "/name"},      // prompt answer begins a child
		{"Ada", "/"},          // child ends, parent finishes, resting frame
		{"abort", "/"},        // child cancels, parent resumes and finishes
		{"swap", "/swapped"},  // replace leaves the replacement on top
		{"reset", "/"},        // reset in the middle of a prompt
		{"gibberish", "/"},    // fallback
		{"hi", "/"},           // trigger again
		{"no", "/"},           // prompt answer ends the dialog
		{"/swap", "/swapped"}, // explicit navigation
		{"anything", "/"},     // prompt answer ends the replacement
		{"reset", "/"},        // reset while resting
	}
	for i, turn := range turns {
		_, err := h.engine.HandleTurn(context.Background(), domain.Turn{ConversationID: "c1", Text: turn.text})
		require.NoError(t, err, "turn %d %q", i, turn.text)

		state := h.state()
		require.Greater(t, state.Depth(), 0, "turn %d %q left an empty stack", i, turn.text)
		assert.Equal(t, turn.top, state.Top().DialogID, "turn %d %q", i, turn.text)
	}
}
