package folio

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/folio/internal/logging"
	"github.com/aretw0/folio/internal/runtime"
	"github.com/aretw0/folio/pkg/adapters/memory"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/aretw0/folio/pkg/ports"
	"github.com/aretw0/folio/pkg/registry"
	"github.com/aretw0/folio/pkg/session"
	"go.opentelemetry.io/otel/trace"
)

// Config is the bot policy. It is passed explicitly; nothing here reads the environment.
type Config struct {
	// DefaultDialogID is the dialog conversations start and rest on ("/").
	DefaultDialogID string
	// FallbackDialogID answers unrouted and failed turns ("/unknown").
	FallbackDialogID string

	// MinConfidence is the recognizer score an intent needs to route (0.5).
	MinConfidence float64
	// MaxPromptRetries re-prompts before a prompt resolves unanswered (2).
	MaxPromptRetries int
	// MaxStackDepth bounds dialog nesting (32).
	MaxStackDepth int

	// Version stamps conversations; see middleware.DialogVersion.
	Version string

	// LockTTL bounds how long a distributed conversation lock is held.
	LockTTL time.Duration
}

// DefaultConfig returns the stock policy.
func DefaultConfig() Config {
	rc := runtime.DefaultConfig()
	return Config{
		DefaultDialogID:  rc.DefaultDialogID,
		FallbackDialogID: rc.FallbackDialogID,
		MinConfidence:    rc.MinConfidence,
		MaxPromptRetries: rc.MaxPromptRetries,
		MaxStackDepth:    rc.MaxStackDepth,
		LockTTL:          session.DefaultLockTTL,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.DefaultDialogID == "" {
		c.DefaultDialogID = d.DefaultDialogID
	}
	if c.FallbackDialogID == "" {
		c.FallbackDialogID = d.FallbackDialogID
	}
	if c.MinConfidence <= 0 {
		c.MinConfidence = d.MinConfidence
	}
	if c.MaxPromptRetries <= 0 {
		c.MaxPromptRetries = d.MaxPromptRetries
	}
	if c.MaxStackDepth <= 0 {
		c.MaxStackDepth = d.MaxStackDepth
	}
	if c.LockTTL <= 0 {
		c.LockTTL = d.LockTTL
	}
	return c
}

// Bot is the high-level entry point of the library.
// It wraps the internal runtime and owns the dialog registry and sessions.
type Bot struct {
	runtime  *runtime.Engine
	registry *registry.Registry
	sessions *session.Manager
	config   Config

	dialogs    []domain.Definition
	store      ports.StateStore
	locker     ports.DistributedLocker
	recognizer ports.Recognizer
	scheduler  ports.Scheduler
	middleware []domain.Middleware
	hooks      domain.LifecycleHooks
	tracer     trace.Tracer
	logger     *slog.Logger
}

// Option defines a functional option for configuring the Bot.
type Option func(*Bot)

// WithDialogs registers dialog definitions. Later definitions replace earlier ones with the same id.
func WithDialogs(defs ...domain.Definition) Option {
	return func(b *Bot) {
		b.dialogs = append(b.dialogs, defs...)
	}
}

// WithStore sets the conversation state store (default: in memory).
func WithStore(store ports.StateStore) Option {
	return func(b *Bot) {
		b.store = store
	}
}

// WithLocker serializes turns across processes sharing the store.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(b *Bot) {
		b.locker = locker
	}
}

// WithRecognizer sets the intent classifier.
func WithRecognizer(r ports.Recognizer) Option {
	return func(b *Bot) {
		b.recognizer = r
	}
}

// WithScheduler sets the delivery of paced messages.
func WithScheduler(s ports.Scheduler) Option {
	return func(b *Bot) {
		b.scheduler = s
	}
}

// WithMiddleware appends turn middleware, run in registration order.
func WithMiddleware(mw ...domain.Middleware) Option {
	return func(b *Bot) {
		b.middleware = append(b.middleware, mw...)
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(b *Bot) {
		b.hooks = b.hooks.Merge(hooks)
	}
}

// WithTracer overrides the global OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(b *Bot) {
		b.tracer = t
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bot) {
		b.logger = logger
	}
}

// New builds a Bot. It fails when a dialog definition is invalid, when a dialog
// links to an unknown id, or when the default or fallback dialog is missing.
func New(cfg Config, opts ...Option) (*Bot, error) {
	b := &Bot{config: cfg.withDefaults()}
	for _, opt := range opts {
		opt(b)
	}

	if b.logger == nil {
		b.logger = logging.NewNop()
	}
	if b.store == nil {
		b.store = memory.NewStore()
	}

	b.registry = registry.New()
	for _, def := range b.dialogs {
		if err := b.registry.Register(def); err != nil {
			return nil, err
		}
	}
	if err := b.registry.Validate(b.config.DefaultDialogID, b.config.FallbackDialogID); err != nil {
		return nil, fmt.Errorf("invalid dialog set: %w", err)
	}

	sessionOpts := []session.Option{
		session.WithLockTTL(b.config.LockTTL),
		session.WithLogger(b.logger),
	}
	if b.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(b.locker))
	}
	b.sessions = session.NewManager(b.store, sessionOpts...)

	runtimeOpts := []runtime.EngineOption{
		runtime.WithConfig(runtime.Config{
			DefaultDialogID:  b.config.DefaultDialogID,
			FallbackDialogID: b.config.FallbackDialogID,
			MinConfidence:    b.config.MinConfidence,
			MaxPromptRetries: b.config.MaxPromptRetries,
			MaxStackDepth:    b.config.MaxStackDepth,
			Version:          b.config.Version,
		}),
		runtime.WithLogger(b.logger),
		runtime.WithLifecycleHooks(b.hooks),
		runtime.WithMiddleware(b.middleware...),
	}
	if b.recognizer != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithRecognizer(b.recognizer))
	}
	if b.scheduler != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithScheduler(b.scheduler))
	}
	if b.tracer != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithTracer(b.tracer))
	}
	b.runtime = runtime.NewEngine(b.registry, b.sessions, runtimeOpts...)

	b.logger.Debug("Bot ready", "dialogs", len(b.registry.List()), "version", b.config.Version)
	return b, nil
}

// HandleTurn processes one inbound activity and returns the messages to deliver now.
// On failure the result still carries the fallback dialog's messages and is flagged Failed.
func (b *Bot) HandleTurn(ctx context.Context, turn domain.Turn) (*domain.TurnResult, error) {
	return b.runtime.HandleTurn(ctx, turn)
}

// Greet starts the default dialog for a conversation that has just been opened.
func (b *Bot) Greet(ctx context.Context, conversationID, userID string) (*domain.TurnResult, error) {
	return b.runtime.Begin(ctx, conversationID, userID, b.config.DefaultDialogID, nil)
}

// State returns the persisted state of a conversation.
func (b *Bot) State(ctx context.Context, conversationID string) (*domain.ConversationState, error) {
	return b.sessions.Load(ctx, conversationID)
}

// Reset forgets a conversation. User data is dropped too.
func (b *Bot) Reset(ctx context.Context, conversationID string) error {
	return b.sessions.Delete(ctx, conversationID)
}

// Conversations lists the ids of stored conversations.
func (b *Bot) Conversations(ctx context.Context) ([]string, error) {
	return b.sessions.List(ctx)
}

// Dialogs returns the registered dialogs in registration order.
func (b *Bot) Dialogs() []domain.Definition {
	return b.registry.List()
}

// Config returns the effective policy.
func (b *Bot) Config() Config {
	return b.config
}

// Store returns the underlying state store.
func (b *Bot) Store() ports.StateStore {
	return b.store
}
