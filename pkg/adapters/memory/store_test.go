package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/folio/pkg/adapters/memory"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/aretw0/folio/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunStateStoreContract(t, store)
}

func TestMemoryStore_LoadIsolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	state := domain.NewConversationState("c1", "")
	state.UserData["name"] = "Ada"
	require.NoError(t, store.Save(ctx, "c1", state))

	loaded, err := store.Load(ctx, "c1")
	require.NoError(t, err)
	loaded.UserData["name"] = "Grace"

	again, err := store.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", again.UserData["name"])
}
