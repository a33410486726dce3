package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/folio/internal/runtime"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var intents = map[string]string{"hi": "Greeting", "contact me": "Contact", "help": "Help"}

func TestEngine_GreetingStartsDefaultDialog(t *testing.T) {
	h := newHarness(t, keywords(0.9, intents), portfolio(nil))

	res := h.say("hi")

	require.Len(t, res.Messages, 2)
	assert.Equal(t, "Welcome!", res.Messages[0].Text)
	assert.Equal(t, "What would you like to know?", res.Messages[1].Text)
	assert.Len(t, res.Messages[1].SuggestedActions, 4)
	assert.Equal(t, "c1", res.Messages[0].ConversationID)
	assert.Equal(t, domain.MessageText, res.Messages[0].Type)
	assert.Equal(t, "/", res.ActiveDialog)
	assert.False(t, res.Failed)

	state := h.state()
	require.Len(t, state.DialogStack, 1)
	top := state.Top()
	assert.Equal(t, 1, top.StepIndex)
	require.NotNil(t, top.PendingPrompt)
	assert.Equal(t, domain.PromptChoice, top.PendingPrompt.Kind)
	assert.Equal(t, 0, top.PendingPrompt.Retries)
	assert.Equal(t, domain.DefaultMaxRetries, top.PendingPrompt.MaxRetries)
	assert.Equal(t, "u1", state.UserID)
}

func TestEngine_ChoiceByLabelBeginsChild(t *testing.T) {
	picked := -1
	h := newHarness(t, keywords(0.9, intents), portfolio(&picked))

	h.say("hi")
	res := h.say(menu[2].Label)

	assert.Equal(t, 2, picked)
	assert.Equal(t, []string{"contact dialog"}, texts(res))

	// The child ended, the root ran out of steps: the stack rests on the default dialog.
	state := h.state()
	require.Len(t, state.DialogStack, 1)
	assert.Equal(t, "/", state.Top().DialogID)
	assert.True(t, state.Top().Resting)
	assert.Nil(t, state.Top().PendingPrompt)
}

func TestEngine_ChoiceByNumberAndPostback(t *testing.T) {
	picked := -1
	h := newHarness(t, keywords(0.9, intents), portfolio(&picked))

	h.say("hi")
	h.say("4")
	assert.Equal(t, 3, picked)

	h.say("hi")
	h.say("work-smarter")
	assert.Equal(t, 1, picked)
}

func TestEngine_BelowThresholdRoutesToFallback(t *testing.T) {
	h := newHarness(t, keywords(0.3, intents), portfolio(nil))

	res := h.say("hi")

	require.Len(t, res.Messages, 1)
	assert.Equal(t, "Sorry, I did not get that.", res.Messages[0].Text)
	assert.Equal(t, []domain.Action{
		{Label: "Experience", Value: "experience"},
		{Label: "Work smarter", Value: "work-smarter"},
		{Label: "Contact", Value: "contact"},
	}, res.Messages[0].SuggestedActions)
	assert.Equal(t, "/", h.state().Top().DialogID, "the stack is never empty after a turn")
}

func TestEngine_RecognizerErrorRoutesToFallback(t *testing.T) {
	rec := keywords(0.9, intents)
	rec.err = errors.New("service unavailable")
	h := newHarness(t, rec, portfolio(nil))

	res := h.say("hi")
	assert.Equal(t, []string{"Sorry, I did not get that."}, texts(res))
	assert.False(t, res.Failed)
}

func TestEngine_NoRecognizerRoutesToFallback(t *testing.T) {
	h := newHarness(t, nil, portfolio(nil))
	res := h.say("hello there")
	assert.Equal(t, []string{"Sorry, I did not get that."}, texts(res))
}

func TestEngine_ExplicitNavigation(t *testing.T) {
	rec := keywords(0.9, intents)
	h := newHarness(t, rec, portfolio(nil))

	res := h.say("/help")
	assert.Equal(t, []string{"help dialog"}, texts(res))
	assert.Equal(t, 0, rec.Calls(), "explicit navigation skips the recognizer")

	res = h.say("/nope")
	assert.Equal(t, []string{"Sorry, I did not get that."}, texts(res))
}

func TestEngine_PendingPromptSkipsClassification(t *testing.T) {
	rec := keywords(0.9, intents)
	h := newHarness(t, rec, portfolio(nil))

	h.say("hi")
	require.Equal(t, 1, rec.Calls())

	// "help" is also an intent, but the pending choice prompt takes it.
	res := h.say("help")
	assert.Equal(t, []string{"help dialog"}, texts(res))
	assert.Equal(t, 1, rec.Calls())
}

func TestEngine_TriggerResetsStack(t *testing.T) {
	var ended []domain.DialogEvent
	hooks := domain.LifecycleHooks{OnDialogEnd: func(ctx context.Context, ev *domain.DialogEvent) {
		ended = append(ended, *ev)
	}}
	h := newHarness(t, keywords(0.9, intents), portfolio(nil), runtime.WithLifecycleHooks(hooks))

	seeded := domain.NewConversationState("c1", "u1")
	seeded.PushFrame("/")
	seeded.PushFrame("/experience")
	require.NoError(t, h.store.Save(context.Background(), "c1", seeded))

	res := h.say("/contact")
	assert.Equal(t, []string{"contact dialog"}, texts(res))

	state := h.state()
	require.Len(t, state.DialogStack, 1)
	assert.True(t, state.Top().Resting)

	require.Len(t, ended, 3)
	assert.Equal(t, "/experience", ended[0].DialogID)
	assert.Equal(t, domain.EndReset, ended[0].Reason)
	assert.Equal(t, "/", ended[1].DialogID)
	assert.Equal(t, domain.EndReset, ended[1].Reason)
	assert.Equal(t, "/contact", ended[2].DialogID)
	assert.Equal(t, domain.EndCompleted, ended[2].Reason)
}

func TestEngine_ExplicitNavigationDoesNotBypassPrompt(t *testing.T) {
	h := newHarness(t, keywords(0.9, intents), portfolio(nil))

	h.say("hi")
	res := h.say("/contact")

	assert.Equal(t, []string{"What would you like to know?"}, texts(res), "an unmatched answer re-prompts")
	assert.Equal(t, 1, h.state().Top().PendingPrompt.Retries)
}

func TestEngine_EmptyConversationID(t *testing.T) {
	h := newHarness(t, nil, portfolio(nil))
	_, err := h.engine.HandleTurn(context.Background(), domain.Turn{Text: "hi"})
	assert.ErrorIs(t, err, domain.ErrInvalidTurn)
}

func TestEngine_FailedTurnIsNotSaved(t *testing.T) {
	defs := portfolio(nil)
	defs = append(defs, domain.Definition{
		ID: "/experience",
		Steps: []domain.Step{func(ctx context.Context, s domain.Session, args domain.Args) error {
			s.UserData()["dirty"] = true
			return errors.New("portfolio feed unavailable")
		}},
	})
	h := newHarness(t, keywords(0.9, intents), defs)

	h.say("hi")
	before := h.state()

	res, err := h.engine.HandleTurn(context.Background(), domain.Turn{ConversationID: "c1", Text: "experience"})
	require.Error(t, err)

	var stepErr *domain.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "/experience", stepErr.DialogID)
	assert.Equal(t, 0, stepErr.StepIndex)

	require.NotNil(t, res)
	assert.True(t, res.Failed)
	assert.Equal(t, []string{"Sorry, I did not get that."}, texts(res))

	after := h.state()
	assert.Equal(t, before, after, "a failed turn must leave the stored state untouched")
	assert.NotContains(t, after.UserData, "dirty")
}

func TestEngine_FailedFirstTurnCreatesNothing(t *testing.T) {
	defs := append(portfolio(nil), domain.Definition{
		ID:       "/broken",
		Triggers: []string{"Broken"},
		Steps: []domain.Step{stepFn(func(s domain.Session, args domain.Args) {
			s.BeginDialog("/missing", nil)
		})},
	})
	h := newHarness(t, keywords(0.9, map[string]string{"break": "Broken"}), defs)

	_, err := h.engine.HandleTurn(context.Background(), domain.Turn{ConversationID: "c1", Text: "break"})
	assert.ErrorIs(t, err, domain.ErrDialogNotFound)

	_, err = h.store.Load(context.Background(), "c1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestEngine_StepPanicIsRecovered(t *testing.T) {
	defs := append(portfolio(nil), domain.Definition{
		ID:       "/panics",
		Triggers: []string{"Panic"},
		Steps: []domain.Step{func(ctx context.Context, s domain.Session, args domain.Args) error {
			var m map[string]int
			m["boom"]++
			return nil
		}},
	})
	h := newHarness(t, keywords(0.9, map[string]string{"panic": "Panic"}), defs)

	res, err := h.engine.HandleTurn(context.Background(), domain.Turn{ConversationID: "c1", Text: "panic"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")
	assert.True(t, res.Failed)
}

func TestEngine_Begin(t *testing.T) {
	h := newHarness(t, nil, portfolio(nil))

	res, err := h.engine.Begin(context.Background(), "c1", "u1", "/", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Welcome!", "What would you like to know?"}, texts(res))

	_, err = h.engine.Begin(context.Background(), "", "", "/", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidTurn)
}

func TestEngine_VersionStamp(t *testing.T) {
	cfg := runtime.DefaultConfig()
	cfg.Version = "2.0"
	h := newHarness(t, keywords(0.9, intents), portfolio(nil), runtime.WithConfig(cfg))

	h.say("hi")
	assert.Equal(t, "2.0", h.state().Version)
}

func TestEngine_CancelledTurnStillGetsFallback(t *testing.T) {
	h := newHarness(t, keywords(0.9, intents), portfolio(nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := h.engine.HandleTurn(ctx, domain.Turn{ConversationID: "c1", Text: "hi"})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.True(t, res.Failed)
	assert.Equal(t, []string{"Sorry, I did not get that."}, texts(res))
}

func TestEngine_TimedOutTurnStillGetsFallback(t *testing.T) {
	h := newHarness(t, keywords(0.9, intents), portfolio(nil))

	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	<-ctx.Done()

	res, err := h.engine.HandleTurn(ctx, domain.Turn{ConversationID: "c1", Text: "hi"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotNil(t, res)
	assert.True(t, res.Failed)
	assert.NotEmpty(t, res.Messages)
}
