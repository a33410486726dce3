package ports_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/aretw0/folio/pkg/domain"
	"github.com/aretw0/folio/pkg/ports"
)

// jsonStore keeps states serialized, like a real backend.
type jsonStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newJSONStore() *jsonStore {
	return &jsonStore{data: make(map[string][]byte)}
}

func (m *jsonStore) Save(ctx context.Context, id string, state *domain.ConversationState) error {
	b, err := json.Marshal(state)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[id] = b
	return nil
}

func (m *jsonStore) Load(ctx context.Context, id string) (*domain.ConversationState, error) {
	m.mu.Lock()
	b, ok := m.data[id]
	m.mu.Unlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	var state domain.ConversationState
	if err := json.Unmarshal(b, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (m *jsonStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

func (m *jsonStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestStateStoreContract_JSONStore(t *testing.T) {
	ports.RunStateStoreContract(t, newJSONStore())
}
