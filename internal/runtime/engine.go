package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/folio/internal/logging"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/aretw0/folio/pkg/ports"
	"github.com/aretw0/folio/pkg/registry"
	"github.com/aretw0/folio/pkg/session"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// maxStepsPerTurn guards against dialogs that replace or begin each other forever.
const maxStepsPerTurn = 256

// Config holds the engine policy.
type Config struct {
	DefaultDialogID  string
	FallbackDialogID string

	// MinConfidence is the lowest recognizer score that may route to a dialog.
	MinConfidence float64

	// MaxPromptRetries is the retry budget of prompts that do not set their own.
	MaxPromptRetries int

	// MaxStackDepth bounds nesting.
	MaxStackDepth int

	// Version stamps new conversation states.
	Version string
}

// DefaultConfig returns the stock policy.
func DefaultConfig() Config {
	return Config{
		DefaultDialogID:  domain.DefaultDialogID,
		FallbackDialogID: domain.FallbackDialogID,
		MinConfidence:    0.5,
		MaxPromptRetries: domain.DefaultMaxRetries,
		MaxStackDepth:    32,
	}
}

// Engine runs turns: middleware, routing, waterfalls and prompts.
type Engine struct {
	registry   *registry.Registry
	sessions   *session.Manager
	recognizer ports.Recognizer
	scheduler  ports.Scheduler
	middleware []domain.Middleware
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	tracer     trace.Tracer
	config     Config
	now        func() time.Time
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithRecognizer sets the intent classifier.
func WithRecognizer(r ports.Recognizer) EngineOption {
	return func(e *Engine) {
		e.recognizer = r
	}
}

// WithScheduler sets the paced message scheduler.
func WithScheduler(s ports.Scheduler) EngineOption {
	return func(e *Engine) {
		e.scheduler = s
	}
}

// WithMiddleware appends middleware, run in registration order.
func WithMiddleware(mw ...domain.Middleware) EngineOption {
	return func(e *Engine) {
		e.middleware = append(e.middleware, mw...)
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTracer overrides the global OpenTelemetry tracer.
func WithTracer(t trace.Tracer) EngineOption {
	return func(e *Engine) {
		e.tracer = t
	}
}

// WithConfig sets the engine policy.
func WithConfig(cfg Config) EngineOption {
	return func(e *Engine) {
		e.config = cfg
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a new engine over a populated registry.
func NewEngine(reg *registry.Registry, sessions *session.Manager, opts ...EngineOption) *Engine {
	e := &Engine{
		registry: reg,
		sessions: sessions,
		logger:   logging.NewNop(),
		tracer:   otel.Tracer("github.com/aretw0/folio/internal/runtime"),
		config:   DefaultConfig(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.config.DefaultDialogID = domain.NormalizeDialogID(e.config.DefaultDialogID)
	e.config.FallbackDialogID = domain.NormalizeDialogID(e.config.FallbackDialogID)
	return e
}

// Config returns the effective policy.
func (e *Engine) Config() Config {
	return e.config
}

// HandleTurn processes one inbound activity.
//
// Turns of the same conversation are serialized. The state is only persisted when
// the turn succeeds, and messages are only returned after the save. On failure the
// fallback dialog renders against a scratch state; its messages are returned in a
// result flagged Failed, together with the error.
func (e *Engine) HandleTurn(ctx context.Context, turn domain.Turn) (*domain.TurnResult, error) {
	if turn.ConversationID == "" {
		return nil, fmt.Errorf("%w: conversation id is required", domain.ErrInvalidTurn)
	}
	return e.transact(ctx, turn, func(ctx context.Context, tc *turnContext) error {
		return e.runPipeline(ctx, tc)
	})
}

// Begin starts dialogID for a conversation without an utterance, e.g. when a
// user joins. The stack is reset as for trigger routing.
func (e *Engine) Begin(ctx context.Context, conversationID, userID, dialogID string, args any) (*domain.TurnResult, error) {
	if conversationID == "" {
		return nil, fmt.Errorf("%w: conversation id is required", domain.ErrInvalidTurn)
	}
	turn := domain.Turn{ConversationID: conversationID, UserID: userID}
	return e.transact(ctx, turn, func(ctx context.Context, tc *turnContext) error {
		tc.routed = true
		tc.state.ResetStack()
		return e.begin(ctx, tc, dialogID, domain.Args{Kind: domain.ArgsBegin, Value: args})
	})
}

func (e *Engine) transact(ctx context.Context, turn domain.Turn, fn func(context.Context, *turnContext) error) (*domain.TurnResult, error) {
	start := e.now()
	ctx, span := e.tracer.Start(ctx, "folio.turn", trace.WithAttributes(
		attribute.String("folio.conversation_id", turn.ConversationID),
	))
	defer span.End()

	logger := e.logger.With("conversation_id", turn.ConversationID)

	var tc *turnContext
	err := e.sessions.Update(ctx, turn.ConversationID, turn.UserID, func(ctx context.Context, state *domain.ConversationState) error {
		if state.UserID == "" {
			state.UserID = turn.UserID
		}
		if state.Version == "" {
			state.Version = e.config.Version
		}
		tc = newTurnContext(e, state, turn)
		if err := fn(ctx, tc); err != nil {
			return err
		}
		if err := e.settle(tc); err != nil {
			return err
		}
		state.UpdatedAt = e.now()
		return nil
	})

	event := &domain.TurnEvent{
		EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventTurn, ConversationID: turn.ConversationID},
		Duration:  e.now().Sub(start),
		Err:       err,
	}
	if tc != nil && tc.intent != nil {
		event.Intent = tc.intent.Intent
		span.SetAttributes(attribute.String("folio.intent", tc.intent.Intent))
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("Turn failed", "err", err)
		result := e.fallback(ctx, turn)
		event.Dialog = result.ActiveDialog
		e.emitTurn(ctx, event)
		return result, err
	}

	result := tc.result()
	event.Dialog = result.ActiveDialog
	span.SetAttributes(attribute.String("folio.dialog", result.ActiveDialog))
	logger.Debug("Turn handled", "dialog", result.ActiveDialog, "messages", len(result.Messages), "scheduled", len(result.Scheduled))

	if len(result.Scheduled) > 0 {
		if e.scheduler != nil {
			e.scheduler.Schedule(context.WithoutCancel(ctx), turn.ConversationID, result.Scheduled)
		} else {
			logger.Warn("Paced messages dropped: no scheduler configured", "count", len(result.Scheduled))
		}
	}
	e.emitTurn(ctx, event)
	return result, nil
}

// settle restores the stack invariant: after a successful turn the stack is never empty.
func (e *Engine) settle(tc *turnContext) error {
	if tc.state.Depth() > 0 {
		return nil
	}
	if !e.registry.Has(e.config.DefaultDialogID) {
		return fmt.Errorf("cannot rest conversation: %w: %s", domain.ErrDialogNotFound, e.config.DefaultDialogID)
	}
	frame := tc.state.PushFrame(e.config.DefaultDialogID)
	frame.Resting = true
	return nil
}

// fallback renders the fallback dialog on a throwaway state. It ignores the
// caller's cancellation, since a cancelled or timed out turn still gets an answer.
func (e *Engine) fallback(ctx context.Context, turn domain.Turn) *domain.TurnResult {
	ctx = context.WithoutCancel(ctx)
	scratch := domain.NewConversationState(turn.ConversationID, turn.UserID)
	tc := newTurnContext(e, scratch, turn)
	tc.routed = true

	if err := e.begin(ctx, tc, e.config.FallbackDialogID, domain.Args{Kind: domain.ArgsBegin}); err != nil {
		e.logger.Error("Fallback dialog failed",
			"conversation_id", turn.ConversationID,
			"err", err,
		)
	}

	result := tc.result()
	result.Failed = true
	// Paced fallback messages are delivered inline; nothing is scheduled for a failed turn.
	for _, s := range result.Scheduled {
		result.Messages = append(result.Messages, s.Message)
	}
	result.Scheduled = nil
	return result
}
