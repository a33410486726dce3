package runtime_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/aretw0/folio/internal/runtime"
	"github.com/aretw0/folio/pkg/adapters/memory"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/aretw0/folio/pkg/ports"
	"github.com/aretw0/folio/pkg/registry"
	"github.com/aretw0/folio/pkg/session"
	"github.com/stretchr/testify/require"
)

var menu = []domain.Choice{
	{Label: "Experience", Value: "experience"},
	{Label: "Work smarter", Value: "work-smarter"},
	{Label: "Contact", Value: "contact"},
	{Label: "Help", Value: "help"},
}

var menuTargets = []string{"/experience", "/work-smarter", "/contact", "/help"}

// portfolio builds a small dialog set shaped like the real bot.
// picked records the choice index seen by the root dialog.
func portfolio(picked *int) []domain.Definition {
	say := func(text string) domain.Step {
		return func(ctx context.Context, s domain.Session, args domain.Args) error {
			s.SendText(text)
			return nil
		}
	}
	return []domain.Definition{
		{
			ID:       "/",
			Triggers: []string{"Greeting", "Default"},
			Links:    menuTargets,
			Steps: []domain.Step{
				say("Welcome!"),
				func(ctx context.Context, s domain.Session, args domain.Args) error {
					s.PromptChoice("What would you like to know?", menu)
					return nil
				},
				func(ctx context.Context, s domain.Session, args domain.Args) error {
					idx, ok := args.ChoiceIndex()
					if !ok {
						s.EndDialog(nil)
						return nil
					}
					if picked != nil {
						*picked = idx
					}
					s.BeginDialog(menuTargets[idx], nil)
					return nil
				},
			},
		},
		{
			ID: "unknown",
			Steps: []domain.Step{func(ctx context.Context, s domain.Session, args domain.Args) error {
				s.SendText("Sorry, I did not get that.",
					domain.Action{Label: "Experience", Value: "experience"},
					domain.Action{Label: "Work smarter", Value: "work-smarter"},
					domain.Action{Label: "Contact", Value: "contact"},
				)
				return nil
			}},
		},
		{ID: "/experience", Steps: []domain.Step{say("experience dialog")}},
		{ID: "/work-smarter", Steps: []domain.Step{say("work smarter dialog")}},
		{ID: "/contact", Triggers: []string{"Contact"}, Steps: []domain.Step{say("contact dialog")}},
		{ID: "/help", Triggers: []string{"Help"}, Steps: []domain.Step{say("help dialog")}},
	}
}

// keywords recognizes exact lowercase utterances with a fixed confidence.
func keywords(confidence float64, m map[string]string) *countingRecognizer {
	return &countingRecognizer{fn: func(text string) []domain.IntentMatch {
		if intent, ok := m[strings.ToLower(text)]; ok {
			return []domain.IntentMatch{{Intent: intent, Confidence: confidence}}
		}
		return nil
	}}
}

type countingRecognizer struct {
	mu    sync.Mutex
	calls int
	fn    func(text string) []domain.IntentMatch
	err   error
}

func (r *countingRecognizer) Recognize(ctx context.Context, text string) ([]domain.IntentMatch, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return r.fn(text), nil
}

func (r *countingRecognizer) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type harness struct {
	t      *testing.T
	engine *runtime.Engine
	store  *memory.Store
	reg    *registry.Registry
}

func newHarness(t *testing.T, rec ports.Recognizer, defs []domain.Definition, opts ...runtime.EngineOption) *harness {
	t.Helper()
	reg := registry.New()
	for _, d := range defs {
		require.NoError(t, reg.Register(d))
	}
	store := memory.NewStore()
	if rec != nil {
		opts = append([]runtime.EngineOption{runtime.WithRecognizer(rec)}, opts...)
	}
	return &harness{
		t:      t,
		engine: runtime.NewEngine(reg, session.NewManager(store), opts...),
		store:  store,
		reg:    reg,
	}
}

func (h *harness) say(text string) *domain.TurnResult {
	h.t.Helper()
	res, err := h.engine.HandleTurn(context.Background(), domain.Turn{ConversationID: "c1", UserID: "u1", Text: text})
	require.NoError(h.t, err)
	return res
}

func (h *harness) state() *domain.ConversationState {
	h.t.Helper()
	s, err := h.store.Load(context.Background(), "c1")
	require.NoError(h.t, err)
	return s
}

func texts(res *domain.TurnResult) []string {
	out := make([]string, 0, len(res.Messages))
	for _, m := range res.Messages {
		out = append(out, m.Text)
	}
	return out
}

func stepFn(fn func(s domain.Session, args domain.Args)) domain.Step {
	return func(ctx context.Context, s domain.Session, args domain.Args) error {
		fn(s, args)
		return nil
	}
}
