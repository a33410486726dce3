package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/folio/pkg/adapters/redis"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/aretw0/folio/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunStateStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()
	id := "conversation-ttl"

	require.NoError(t, store.Save(ctx, id, domain.NewConversationState(id, "")))

	ids, err := store.List(ctx)
	assert.NoError(t, err)
	assert.Contains(t, ids, id)

	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, id)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// Index pruning compares against the wall clock, not miniredis time.
	time.Sleep(1200 * time.Millisecond)

	ids, err = store.List(ctx)
	assert.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()
	id := "my-conversation"

	require.NoError(t, store.Save(ctx, id, domain.NewConversationState(id, "")))

	assert.True(t, mr.Exists("custom:app:state:my-conversation"), "Expected key with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:index"), "Expected index with custom prefix to exist")

	require.NoError(t, store.Ping(ctx))
	require.NoError(t, store.Delete(ctx, id))
	assert.False(t, mr.Exists("custom:app:state:my-conversation"))
}

func TestRedisStore_CorruptPayload(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client)

	require.NoError(t, mr.Set(redis.DefaultPrefix+"state:bad", "not-json"))
	_, err := store.Load(context.Background(), "bad")
	assert.ErrorContains(t, err, "unmarshal")
}

func TestRedisStore_IndexIDDoesNotCollide(t *testing.T) {
	_, client := newClient(t)
	store := redis.NewFromClient(client)
	ctx := context.Background()

	for _, id := range []string{"alice", "bob", "index", "state:index"} {
		require.NoError(t, store.Save(ctx, id, domain.NewConversationState(id, "")))
	}

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob", "index", "state:index"}, ids)

	state, err := store.Load(ctx, "index")
	require.NoError(t, err)
	assert.Equal(t, "index", state.ConversationID)

	require.NoError(t, store.Delete(ctx, "index"))
	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob", "state:index"}, ids)
}
