package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/folio/pkg/adapters/memory"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/aretw0/folio/pkg/ports"
	"github.com/aretw0/folio/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowStore simulates latency to provoke lost updates if locking is missing.
type slowStore struct {
	*memory.Store
}

func (s slowStore) Load(ctx context.Context, id string) (*domain.ConversationState, error) {
	time.Sleep(5 * time.Millisecond)
	return s.Store.Load(ctx, id)
}

func TestManager_UpdateSerializesReadModifyWrite(t *testing.T) {
	store := slowStore{memory.NewStore()}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"

	var wg sync.WaitGroup
	const writers = 10
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.Update(ctx, id, "u", func(ctx context.Context, s *domain.ConversationState) error {
				n, _ := s.UserData["count"].(int)
				s.UserData["count"] = n + 1
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	state, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, writers, state.UserData["count"])
}

func TestManager_UpdateDiscardsOnError(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()
	id := "atomic"

	require.NoError(t, manager.Update(ctx, id, "u", func(ctx context.Context, s *domain.ConversationState) error {
		s.PushFrame("/")
		return nil
	}))

	boom := errors.New("boom")
	err := manager.Update(ctx, id, "u", func(ctx context.Context, s *domain.ConversationState) error {
		s.PushFrame("/contact")
		s.UserData["dirty"] = true
		return boom
	})
	assert.ErrorIs(t, err, boom)

	state, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Len(t, state.DialogStack, 1)
	assert.NotContains(t, state.UserData, "dirty")
}

func TestManager_UpdateNewConversationNotPersistedOnError(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	_ = manager.Update(ctx, "fresh", "u", func(ctx context.Context, s *domain.ConversationState) error {
		assert.Equal(t, "fresh", s.ConversationID)
		assert.Equal(t, "u", s.UserID)
		return errors.New("fail")
	})

	_, err := manager.Load(ctx, "fresh")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

type recordingLocker struct {
	mu    sync.Mutex
	keys  []string
	ttls  []time.Duration
	fails bool
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fails {
		return nil, errors.New("lock unavailable")
	}
	l.keys = append(l.keys, key)
	l.ttls = append(l.ttls, ttl)
	return func(context.Context) error { return nil }, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &recordingLocker{}
	manager := session.NewManager(memory.NewStore(), session.WithLocker(locker), session.WithLockTTL(5*time.Second))
	ctx := context.Background()

	require.NoError(t, manager.Save(ctx, "c1", domain.NewConversationState("c1", "")))
	assert.Equal(t, []string{"c1"}, locker.keys)
	assert.Equal(t, []time.Duration{5 * time.Second}, locker.ttls)

	locker.fails = true
	err := manager.Save(ctx, "c1", domain.NewConversationState("c1", ""))
	assert.ErrorContains(t, err, "distributed lock")
}
