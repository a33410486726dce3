// Package http exposes a Bot over HTTP: a JSON turn endpoint, a websocket chat,
// server-sent events for paced messages and a small operator API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/folio"
	"github.com/aretw0/folio/internal/logging"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/aretw0/folio/pkg/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

//go:generate go tool oapi-codegen -package http -generate types,chi-server,spec -o api.gen.go ../../../api/openapi.yaml

// Bot is the part of folio.Bot the transport needs.
type Bot interface {
	HandleTurn(ctx context.Context, turn domain.Turn) (*domain.TurnResult, error)
	Greet(ctx context.Context, conversationID, userID string) (*domain.TurnResult, error)
	State(ctx context.Context, conversationID string) (*domain.ConversationState, error)
	Reset(ctx context.Context, conversationID string) error
	Conversations(ctx context.Context) ([]string, error)
	Dialogs() []domain.Definition
}

var _ Bot = (*folio.Bot)(nil)

var _ ServerInterface = (*Server)(nil)

// Server holds the handlers.
type Server struct {
	Bot     Bot
	Streams *StreamManager

	metrics      http.Handler
	logger       *slog.Logger
	maxInputSize int
}

// Option configures the Server.
type Option func(*Server)

// WithStreams shares a StreamManager, typically the sender behind the pacing scheduler.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithMetricsHandler mounts h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMaxInputSize bounds the utterance size accepted from clients.
func WithMaxInputSize(n int) Option {
	return func(s *Server) {
		s.maxInputSize = n
	}
}

// NewHandler creates a new HTTP handler for the bot.
func NewHandler(bot Bot, opts ...Option) http.Handler {
	s := &Server{
		Bot:          bot,
		logger:       logging.NewNop(),
		maxInputSize: middleware.DefaultMaxInputSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}

	r := chi.NewRouter()
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	r.Get("/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		spec, err := rawSpec()
		if err != nil {
			http.Error(w, "Failed to load spec", http.StatusInternalServerError)
			s.logger.Error("Failed to load OpenAPI spec", "err", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(spec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})

	HandlerWithOptions(s, ChiServerOptions{
		BaseRouter: r,
		ErrorHandlerFunc: func(w http.ResponseWriter, r *http.Request, err error) {
			s.logger.Warn("Invalid request parameters", "path", r.URL.Path, "err", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
		},
	})

	return enableCORS(r)
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Folio API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.json',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// PostMessage handles POST /api/messages. A turn without a conversation id
// opens a new conversation.
func (s *Server) PostMessage(w http.ResponseWriter, r *http.Request) {
	var body PostMessageJSONRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("PostMessage: Invalid request body", "err", err)
		return
	}
	turn := body.toDomain()
	if turn.ConversationID == "" {
		turn.ConversationID = uuid.NewString()
	}

	clean, err := middleware.SanitizeInput(turn.Text, s.maxInputSize)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid input: %v", err), http.StatusBadRequest)
		s.logger.Warn("PostMessage: Input rejected", "err", err, "size", len(turn.Text))
		return
	}
	turn.Text = clean

	res, err := s.Bot.HandleTurn(r.Context(), turn)
	if err != nil && res == nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrInvalidTurn) {
			status = http.StatusBadRequest
		}
		http.Error(w, fmt.Sprintf("Turn error: %v", err), status)
		s.logger.Error("Turn failed", "conversation_id", turn.ConversationID, "err", err)
		return
	}
	if err != nil {
		// The fallback answer is still delivered.
		s.logger.Error("Turn failed, delivering fallback", "conversation_id", turn.ConversationID, "err", err)
	}

	writeJSON(w, http.StatusOK, res, s.logger)
}

// StartConversation handles POST /api/conversations: it opens a conversation
// and returns the greeting.
func (s *Server) StartConversation(w http.ResponseWriter, r *http.Request) {
	var body StartConversationJSONRequestBody
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}
	var userID string
	if body.UserId != nil {
		userID = *body.UserId
	}

	id := uuid.NewString()
	res, err := s.Bot.Greet(r.Context(), id, userID)
	if err != nil && res == nil {
		http.Error(w, fmt.Sprintf("Greet error: %v", err), http.StatusInternalServerError)
		s.logger.Error("Greet failed", "conversation_id", id, "err", err)
		return
	}
	if err != nil {
		s.logger.Error("Greet failed, delivering fallback", "conversation_id", id, "err", err)
	}
	writeJSON(w, http.StatusCreated, res, s.logger)
}

// ListConversations handles GET /api/conversations.
func (s *Server) ListConversations(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Bot.Conversations(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("List error: %v", err), http.StatusInternalServerError)
		s.logger.Error("List conversations failed", "err", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ConversationList{Conversations: ids}, s.logger)
}

// GetConversation handles GET /api/conversations/{id}.
func (s *Server) GetConversation(w http.ResponseWriter, r *http.Request, id string) {
	state, err := s.Bot.State(r.Context(), id)
	if errors.Is(err, domain.ErrSessionNotFound) {
		http.Error(w, "Conversation not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("State error: %v", err), http.StatusInternalServerError)
		s.logger.Error("Load conversation failed", "conversation_id", id, "err", err)
		return
	}
	writeJSON(w, http.StatusOK, state, s.logger)
}

// DeleteConversation handles DELETE /api/conversations/{id}.
func (s *Server) DeleteConversation(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.Bot.Reset(r.Context(), id); err != nil {
		http.Error(w, fmt.Sprintf("Reset error: %v", err), http.StatusInternalServerError)
		s.logger.Error("Reset conversation failed", "conversation_id", id, "err", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDialogs handles GET /api/dialogs.
func (s *Server) ListDialogs(w http.ResponseWriter, r *http.Request) {
	defs := s.Bot.Dialogs()
	out := make([]domain.DialogInfo, len(defs))
	for i, d := range defs {
		out[i] = d.Info()
	}
	writeJSON(w, http.StatusOK, out, s.logger)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Health{Status: "ok"}, s.logger)
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}
	writeJSON(w, http.StatusOK, Info{
		App:        "folio-http",
		Version:    folio.Version,
		ApiVersion: apiVersion,
	}, s.logger)
}

func (t Turn) toDomain() domain.Turn {
	var turn domain.Turn
	if t.ConversationId != nil {
		turn.ConversationID = *t.ConversationId
	}
	if t.UserId != nil {
		turn.UserID = *t.UserId
	}
	if t.Text != nil {
		turn.Text = *t.Text
	}
	if t.Attachments != nil {
		for _, a := range *t.Attachments {
			att := domain.Attachment{ContentType: a.ContentType, ContentURL: a.ContentUrl}
			if a.Name != nil {
				att.Name = *a.Name
			}
			turn.Attachments = append(turn.Attachments, att)
		}
	}
	return turn
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Response encode failed", "err", err)
	}
}
