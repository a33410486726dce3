package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/folio/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	conversationID := "contract-test-conversation-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewConversationState(conversationID, "user-1")
		state.UserData["name"] = "Ada"
		state.UserData["count"] = 42
		state.Version = "1.0"
		frame := state.PushFrame("/contact")
		frame.StepIndex = 2
		frame.DialogData["email"] = "ada@example.com"
		frame.PendingPrompt = domain.NewPendingPrompt(domain.PromptChoice, "Pick one",
			[]domain.Choice{{Label: "Email"}, {Label: "Twitter", Value: "tw"}}, domain.DefaultMaxRetries)
		frame.PendingPrompt.Retries = 1

		err := store.Save(ctx, conversationID, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, conversationID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, conversationID, loaded.ConversationID)
		assert.Equal(t, "user-1", loaded.UserID)
		assert.Equal(t, "1.0", loaded.Version)
		assert.Equal(t, "Ada", loaded.UserData["name"])
		// JSON-backed stores turn ints into float64; only existence is part of the contract.
		assert.NotNil(t, loaded.UserData["count"])

		require.Len(t, loaded.DialogStack, 1)
		top := loaded.Top()
		assert.Equal(t, "/contact", top.DialogID)
		assert.Equal(t, 2, top.StepIndex)
		assert.Equal(t, "ada@example.com", top.DialogData["email"])
		require.NotNil(t, top.PendingPrompt)
		assert.Equal(t, domain.PromptChoice, top.PendingPrompt.Kind)
		assert.Equal(t, 1, top.PendingPrompt.Retries)
		assert.Equal(t, domain.DefaultMaxRetries, top.PendingPrompt.MaxRetries)
		assert.Equal(t, "tw", top.PendingPrompt.Choices[1].Value)
	})

	t.Run("Load Returns Copy", func(t *testing.T) {
		state := domain.NewConversationState(conversationID, "user-1")
		state.PushFrame("/")
		require.NoError(t, store.Save(ctx, conversationID, state))

		state.PushFrame("/mutated-after-save")

		loaded, err := store.Load(ctx, conversationID)
		require.NoError(t, err)
		assert.Len(t, loaded.DialogStack, 1, "mutations after Save must not leak into the store")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+conversationID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, conversationID, domain.NewConversationState(conversationID, ""))
		require.NoError(t, err)

		err = store.Delete(ctx, conversationID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, conversationID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := conversationID + "-1"
		id2 := conversationID + "-2"
		_ = store.Save(ctx, id1, domain.NewConversationState(id1, ""))
		_ = store.Save(ctx, id2, domain.NewConversationState(id2, ""))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		conversations, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, conversations, id1)
		assert.Contains(t, conversations, id2)
	})
}
