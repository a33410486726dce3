package folio_test

import (
	"context"
	"testing"

	"github.com/aretw0/folio"
	"github.com/aretw0/folio/pkg/adapters/memory"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/aretw0/folio/pkg/dsl"
	"github.com/aretw0/folio/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minimalDialogs() []domain.Definition {
	return []domain.Definition{
		dsl.Dialog("/").
			Say("Welcome!").
			Choice("Pick one", domain.Choice{Label: "Help"}).
			Then(func(ctx context.Context, s domain.Session, args domain.Args) error {
				if _, ok := args.ChoiceIndex(); ok {
					s.BeginDialog("/help", nil)
				}
				return nil
			}).
			MustBuild(),
		dsl.Dialog("/help").Say("Here is some help.").MustBuild(),
		dsl.Dialog("unknown").Say("Sorry?").MustBuild(),
	}
}

func TestNew_RequiresDefaultAndFallback(t *testing.T) {
	_, err := folio.New(folio.DefaultConfig(), folio.WithDialogs(dsl.Dialog("/").Say("hi").MustBuild()))
	assert.ErrorIs(t, err, domain.ErrDialogNotFound)

	_, err = folio.New(folio.DefaultConfig(), folio.WithDialogs(domain.Definition{ID: "/"}))
	assert.ErrorIs(t, err, domain.ErrInvalidDefinition)
}

func TestNew_RejectsBrokenLinks(t *testing.T) {
	defs := append(minimalDialogs(), domain.Definition{
		ID:    "/menu",
		Links: []string{"/nowhere"},
		Steps: minimalDialogs()[1].Steps,
	})
	_, err := folio.New(folio.DefaultConfig(), folio.WithDialogs(defs...))
	assert.ErrorIs(t, err, domain.ErrDialogNotFound)
	assert.Contains(t, err.Error(), "/nowhere")
}

func TestConfig_Defaults(t *testing.T) {
	bot, err := folio.New(folio.Config{Version: "1.0"}, folio.WithDialogs(minimalDialogs()...))
	require.NoError(t, err)

	cfg := bot.Config()
	assert.Equal(t, "/", cfg.DefaultDialogID)
	assert.Equal(t, "/unknown", cfg.FallbackDialogID)
	assert.Equal(t, 0.5, cfg.MinConfidence)
	assert.Equal(t, 2, cfg.MaxPromptRetries)
	assert.Equal(t, 32, cfg.MaxStackDepth)
	assert.Equal(t, "1.0", cfg.Version)
}

func TestBot_GreetStateAndReset(t *testing.T) {
	store := memory.NewStore()
	bot, err := folio.New(folio.Config{Version: "1.0"},
		folio.WithDialogs(minimalDialogs()...),
		folio.WithStore(store),
	)
	require.NoError(t, err)
	ctx := context.Background()

	res, err := bot.Greet(ctx, "c1", "u1")
	require.NoError(t, err)
	require.Len(t, res.Messages, 2)
	assert.Equal(t, "Welcome!", res.Messages[0].Text)
	assert.Equal(t, []domain.Action{{Label: "Help", Value: "Help"}}, res.Messages[1].SuggestedActions)

	state, err := bot.State(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "1.0", state.Version)
	assert.Equal(t, "u1", state.UserID)

	res, err = bot.HandleTurn(ctx, domain.Turn{ConversationID: "c1", Text: "1"})
	require.NoError(t, err)
	assert.Equal(t, "Here is some help.", res.Messages[0].Text)

	ids, err := bot.Conversations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, ids)

	require.NoError(t, bot.Reset(ctx, "c1"))
	_, err = bot.State(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestBot_Dialogs(t *testing.T) {
	bot, err := folio.New(folio.DefaultConfig(), folio.WithDialogs(minimalDialogs()...))
	require.NoError(t, err)

	var ids []string
	for _, d := range bot.Dialogs() {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"/", "/help", "/unknown"}, ids)
}

func TestBot_Middleware(t *testing.T) {
	bot, err := folio.New(folio.Config{Version: "2"},
		folio.WithDialogs(minimalDialogs()...),
		folio.WithMiddleware(middleware.SendTyping(), middleware.DialogVersion("2")),
	)
	require.NoError(t, err)

	res, err := bot.HandleTurn(context.Background(), domain.Turn{ConversationID: "c1", Text: "reset"})
	require.NoError(t, err)
	require.Len(t, res.Messages, 2)
	assert.Equal(t, domain.MessageTyping, res.Messages[0].Type)
	assert.Equal(t, "Your conversation has been reset.", res.Messages[1].Text)
}
