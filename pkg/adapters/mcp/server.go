// Package mcp exposes a Bot as a Model Context Protocol server, so an agent can
// hold a conversation with the portfolio bot and inspect its dialogs.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/folio"
	"github.com/aretw0/folio/internal/logging"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/aretw0/folio/pkg/middleware"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// DialogsURI is the resource listing the registered dialogs.
const DialogsURI = "folio://dialogs"

// TurnResponse is the structured result of the conversation tools.
type TurnResponse struct {
	ConversationID string           `json:"conversation_id" jsonschema_description:"Conversation to pass to the next send_message call"`
	Messages       []domain.Message `json:"messages" jsonschema_description:"Bot replies, in order"`
	ActiveDialog   string           `json:"active_dialog,omitempty" jsonschema_description:"Dialog on top of the stack after the turn"`
	Failed         bool             `json:"failed,omitempty" jsonschema_description:"Set when the turn failed and the replies come from the fallback dialog"`
}

// SendMessageArgs are the arguments of send_message.
type SendMessageArgs struct {
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text"`
	UserID         string `json:"user_id,omitempty"`
}

// StartConversationArgs are the arguments of start_conversation.
type StartConversationArgs struct {
	UserID string `json:"user_id,omitempty"`
}

// Bot is the part of folio.Bot the MCP server needs.
type Bot interface {
	HandleTurn(ctx context.Context, turn domain.Turn) (*domain.TurnResult, error)
	Greet(ctx context.Context, conversationID, userID string) (*domain.TurnResult, error)
	State(ctx context.Context, conversationID string) (*domain.ConversationState, error)
	Reset(ctx context.Context, conversationID string) error
	Dialogs() []domain.Definition
}

var _ Bot = (*folio.Bot)(nil)

// Server wraps the Bot and exposes it as an MCP Server.
type Server struct {
	bot       Bot
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance. A nil logger discards logs.
func NewServer(bot Bot, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		bot:    bot,
		logger: logger,
		mcpServer: server.NewMCPServer("folio-mcp", folio.Version,
			server.WithToolCapabilities(true),
			server.WithResourceCapabilities(false, true),
			server.WithRecovery(),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	sendTool := mcp.NewTool("send_message",
		mcp.WithDescription("Send a user message to the portfolio bot and get its replies."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation to continue")),
		mcp.WithString("text", mcp.Required(), mcp.Description("What the user says")),
		mcp.WithString("user_id", mcp.Description("User identifier (optional)")),
		mcp.WithOutputSchema[TurnResponse](),
	)
	s.mcpServer.AddTool(sendTool, mcp.NewStructuredToolHandler(s.handleSendMessage))

	startTool := mcp.NewTool("start_conversation",
		mcp.WithDescription("Open a new conversation and get the bot's greeting."),
		mcp.WithString("user_id", mcp.Description("User identifier (optional)")),
		mcp.WithOutputSchema[TurnResponse](),
	)
	s.mcpServer.AddTool(startTool, mcp.NewStructuredToolHandler(s.handleStartConversation))

	s.mcpServer.AddTool(mcp.NewTool("get_conversation",
		mcp.WithDescription("Inspect the stored state of a conversation: user data and dialog stack."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation to inspect")),
	), s.handleGetConversation)

	s.mcpServer.AddTool(mcp.NewTool("reset_conversation",
		mcp.WithDescription("Forget a conversation, including its user data."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation to reset")),
	), s.handleResetConversation)
}

func toResponse(res *domain.TurnResult) TurnResponse {
	return TurnResponse{
		ConversationID: res.ConversationID,
		Messages:       res.Messages,
		ActiveDialog:   res.ActiveDialog,
		Failed:         res.Failed,
	}
}

func (s *Server) handleSendMessage(ctx context.Context, request mcp.CallToolRequest, args SendMessageArgs) (TurnResponse, error) {
	if args.ConversationID == "" {
		return TurnResponse{}, errors.New("conversation_id is required")
	}
	clean, err := middleware.SanitizeInput(args.Text, middleware.DefaultMaxInputSize)
	if err != nil {
		s.logger.Warn("MCP send_message: Input rejected", "err", err, "size", len(args.Text))
		return TurnResponse{}, fmt.Errorf("input rejected: %w", err)
	}

	res, err := s.bot.HandleTurn(ctx, domain.Turn{
		ConversationID: args.ConversationID,
		UserID:         args.UserID,
		Text:           clean,
		Timestamp:      time.Now().UTC(),
	})
	if err != nil && res == nil {
		return TurnResponse{}, fmt.Errorf("turn failed: %w", err)
	}
	if err != nil {
		s.logger.Error("MCP send_message: Turn failed, returning fallback", "conversation_id", args.ConversationID, "err", err)
	}
	return toResponse(res), nil
}

func (s *Server) handleStartConversation(ctx context.Context, request mcp.CallToolRequest, args StartConversationArgs) (TurnResponse, error) {
	id := uuid.NewString()
	res, err := s.bot.Greet(ctx, id, args.UserID)
	if err != nil && res == nil {
		return TurnResponse{}, fmt.Errorf("greet failed: %w", err)
	}
	if err != nil {
		s.logger.Error("MCP start_conversation: Greet failed, returning fallback", "conversation_id", id, "err", err)
	}
	return toResponse(res), nil
}

func (s *Server) handleGetConversation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("conversation_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	state, err := s.bot.State(ctx, id)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("conversation %s not found", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
	}
	data, err := json.Marshal(state)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleResetConversation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("conversation_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.bot.Reset(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reset failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("conversation %s reset", id)), nil
}

func (s *Server) dialogsJSON() (string, error) {
	defs := s.bot.Dialogs()
	infos := make([]domain.DialogInfo, len(defs))
	for i, d := range defs {
		infos[i] = d.Info()
	}
	data, err := json.Marshal(infos)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(DialogsURI, "Registered dialogs",
		mcp.WithResourceDescription("Dialog ids, triggers and links known to the bot"),
		mcp.WithMIMEType("application/json"),
	), s.handleDialogs)
}

func (s *Server) handleDialogs(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	text, err := s.dialogsJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to list dialogs: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      DialogsURI,
			MIMEType: "application/json",
			Text:     text,
		},
	}, nil
}
