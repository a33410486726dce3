package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/folio/internal/logging"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/aretw0/folio/pkg/ports"
)

// ErrNotConnected is returned by Send when nobody listens on the conversation.
var ErrNotConnected = errors.New("conversation has no connected client")

const subscriberBuffer = 16

// StreamManager fans out-of-turn messages to the clients of a conversation.
// It is the ports.Sender behind the pacing scheduler.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan domain.Message]struct{}
	logger      *slog.Logger
}

var _ ports.Sender = (*StreamManager)(nil)

// NewStreamManager creates an empty manager. A nil logger discards logs.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan domain.Message]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a listener for conversationID. The returned func
// unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(conversationID string) (<-chan domain.Message, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan domain.Message, subscriberBuffer)
	if _, ok := sm.subscribers[conversationID]; !ok {
		sm.subscribers[conversationID] = make(map[chan domain.Message]struct{})
	}
	sm.subscribers[conversationID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[conversationID]; ok {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(sm.subscribers, conversationID)
				}
			}
		})
	}
}

// Connected reports whether conversationID has a listener.
func (sm *StreamManager) Connected(conversationID string) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[conversationID]) > 0
}

// Send delivers msg to every listener of its conversation.
// Slow listeners drop the message rather than stall the sender.
func (sm *StreamManager) Send(ctx context.Context, msg domain.Message) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	subs := sm.subscribers[msg.ConversationID]
	if len(subs) == 0 {
		return fmt.Errorf("%w: %s", ErrNotConnected, msg.ConversationID)
	}
	for ch := range subs {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("Stream: client buffer full, dropping message", "conversation_id", msg.ConversationID)
		}
	}
	return nil
}

// SubscribeEvents handles GET /api/conversations/{id}/events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request, id string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.Info("SSE: client subscribed", "conversation_id", id)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected", "conversation_id", id)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				s.logger.Error("SSE: encode failed", "err", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Type, data)
			flusher.Flush()
		}
	}
}
