package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/folio/pkg/domain"
	"github.com/aretw0/folio/pkg/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ChatInbound is what the web chat widget sends.
type ChatInbound struct {
	Type        string              `json:"type"` // "message", "ping"
	Text        string              `json:"text"`
	Attachments []domain.Attachment `json:"attachments,omitempty"`
}

// ChatControl is a non-message frame sent to the widget.
type ChatControl struct {
	Type           string `json:"type"` // "session", "pong", "error"
	ConversationID string `json:"conversation_id,omitempty"`
	Text           string `json:"text,omitempty"`
}

// chatConn serializes writes; gorilla allows one concurrent writer.
type chatConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *chatConn) write(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(v)
}

// Chat handles GET /api/chat, the websocket used by the web chat widget.
// The optional "conversation" query parameter resumes a conversation; a new one
// is greeted right away. Paced messages arrive on the same socket.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request, params ChatParams) {
	convID := uuid.NewString()
	if params.Conversation != nil && *params.Conversation != "" {
		convID = *params.Conversation
	}
	var userID string
	if params.User != nil {
		userID = *params.User
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Chat: upgrade failed", "err", err)
		return
	}
	defer ws.Close()
	conn := &chatConn{conn: ws}

	stream, unsubscribe := s.Streams.Subscribe(convID)
	defer unsubscribe()
	go func() {
		for msg := range stream {
			if err := conn.write(msg); err != nil {
				s.logger.Debug("Chat: paced write failed", "conversation_id", convID, "err", err)
			}
		}
	}()

	ctx := r.Context()
	if err := conn.write(ChatControl{Type: "session", ConversationID: convID}); err != nil {
		return
	}
	s.logger.Info("Chat: connection opened", "conversation_id", convID)

	if _, err := s.Bot.State(ctx, convID); errors.Is(err, domain.ErrSessionNotFound) {
		res, err := s.Bot.Greet(ctx, convID, userID)
		if !s.deliver(conn, convID, res, err) {
			return
		}
	}

	for {
		var in ChatInbound
		if err := ws.ReadJSON(&in); err != nil {
			s.logger.Debug("Chat: connection closed", "conversation_id", convID, "err", err)
			return
		}

		switch in.Type {
		case "ping":
			if err := conn.write(ChatControl{Type: "pong"}); err != nil {
				return
			}
			continue
		case "message", "":
		default:
			continue
		}
		if strings.TrimSpace(in.Text) == "" && len(in.Attachments) == 0 {
			continue
		}

		if !s.chatTurn(ctx, conn, domain.Turn{
			ConversationID: convID,
			UserID:         userID,
			Text:           in.Text,
			Attachments:    in.Attachments,
			Timestamp:      time.Now().UTC(),
		}) {
			return
		}
	}
}

// chatTurn runs one turn and writes its messages. It reports whether the socket is still usable.
func (s *Server) chatTurn(ctx context.Context, conn *chatConn, turn domain.Turn) bool {
	clean, err := middleware.SanitizeInput(turn.Text, s.maxInputSize)
	if err != nil {
		s.logger.Warn("Chat: input rejected", "conversation_id", turn.ConversationID, "err", err)
		return conn.write(ChatControl{Type: "error", Text: "Message rejected."}) == nil
	}
	turn.Text = clean

	res, err := s.Bot.HandleTurn(ctx, turn)
	return s.deliver(conn, turn.ConversationID, res, err)
}

func (s *Server) deliver(conn *chatConn, convID string, res *domain.TurnResult, err error) bool {
	if err != nil {
		s.logger.Error("Chat: turn failed", "conversation_id", convID, "err", err)
	}
	if res == nil {
		return conn.write(ChatControl{Type: "error", Text: "Sorry, something went wrong. Please try again."}) == nil
	}
	for _, msg := range res.Messages {
		if err := conn.write(msg); err != nil {
			return false
		}
	}
	return true
}
