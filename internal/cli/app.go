package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/folio"
	"github.com/aretw0/folio/internal/config"
	"github.com/aretw0/folio/internal/logging"
	"github.com/aretw0/folio/internal/portfolio"
	"github.com/aretw0/folio/pkg/adapters/dynamodb"
	"github.com/aretw0/folio/pkg/adapters/file"
	folihttp "github.com/aretw0/folio/pkg/adapters/http"
	"github.com/aretw0/folio/pkg/adapters/mail"
	"github.com/aretw0/folio/pkg/adapters/memory"
	"github.com/aretw0/folio/pkg/adapters/redis"
	"github.com/aretw0/folio/pkg/observability"
	"github.com/aretw0/folio/pkg/pacing"
	persistence "github.com/aretw0/folio/pkg/persistence/middleware"
	"github.com/aretw0/folio/pkg/ports"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// App is a fully wired bot with the infrastructure it owns.
type App struct {
	Bot     *folio.Bot
	Config  *config.AppConfig
	Logger  *slog.Logger
	Streams *folihttp.StreamManager
	Metrics *observability.Metrics
	// Registry gathers the bot and runtime metrics for /metrics.
	Registry *prometheus.Registry

	scheduler *pacing.Scheduler
	closers   []func() error
}

// AppOption customizes NewApp.
type AppOption func(*appOptions)

type appOptions struct {
	sender ports.Sender
	logOut io.Writer
	store  ports.StateStore
	mailer ports.Mailer
}

// WithSender delivers paced messages through sender instead of the stream manager.
func WithSender(sender ports.Sender) AppOption {
	return func(o *appOptions) {
		o.sender = sender
	}
}

// WithLogOutput sets where logs go (default: stderr).
func WithLogOutput(w io.Writer) AppOption {
	return func(o *appOptions) {
		o.logOut = w
	}
}

// WithStateStore bypasses the configured storage backend.
func WithStateStore(store ports.StateStore) AppOption {
	return func(o *appOptions) {
		o.store = store
	}
}

// WithMailer bypasses the configured mail provider.
func WithMailer(m ports.Mailer) AppOption {
	return func(o *appOptions) {
		o.mailer = m
	}
}

// NewApp builds the portfolio bot described by cfg. ctx bounds background
// work such as recognizer file watches.
func NewApp(ctx context.Context, cfg *config.AppConfig, opts ...AppOption) (*App, error) {
	o := appOptions{logOut: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	logger, err := createLogger(cfg.LogLevel, cfg.LogFormat, o.logOut)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
	}
	app.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.Metrics = observability.NewMetrics(app.Registry)
	app.Streams = folihttp.NewStreamManager(logger)

	var awsCfg *aws.Config
	loadAWS := func() (aws.Config, error) {
		if awsCfg == nil {
			c, err := loadAWSConfig(ctx, cfg.AWS)
			if err != nil {
				return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
			}
			awsCfg = &c
		}
		return *awsCfg, nil
	}

	store, locker := o.store, ports.DistributedLocker(nil)
	if store == nil {
		store, locker, err = app.createStore(cfg.Storage, loadAWS)
		if err != nil {
			app.Close()
			return nil, err
		}
	}
	store, err = wrapStore(store, cfg.Storage)
	if err != nil {
		app.Close()
		return nil, err
	}

	mailer := o.mailer
	if mailer == nil {
		mailer, err = createMailer(cfg.Mail, logger, loadAWS)
		if err != nil {
			app.Close()
			return nil, err
		}
	}

	rec, err := portfolio.NewRecognizer(ctx, portfolio.RecognizerConfig{
		RulesPath: cfg.Recognizer.RulesPath,
		QnAPath:   cfg.Recognizer.QnAPath,
		Watch:     cfg.Recognizer.Watch,
	}, logger)
	if err != nil {
		app.Close()
		return nil, err
	}

	sender := o.sender
	if sender == nil {
		sender = app.Streams
	}
	app.scheduler = pacing.New(sender, pacing.WithLogger(logger))
	app.closers = append(app.closers, app.scheduler.Close)

	botOpts := []folio.Option{
		folio.WithDialogs(portfolio.Dialogs(portfolio.Deps{
			Profile: portfolio.DefaultProfile(),
			Mailer:  mailer,
			Logger:  logger,
		})...),
		folio.WithStore(store),
		folio.WithRecognizer(rec),
		folio.WithScheduler(app.scheduler),
		folio.WithMiddleware(portfolio.Middleware(cfg.Bot.Version, cfg.Server.MaxInputSize)...),
		folio.WithLifecycleHooks(app.Metrics.Hooks()),
		folio.WithLifecycleHooks(observability.LogHooks(logger)),
		folio.WithLogger(logger),
	}
	if locker != nil {
		botOpts = append(botOpts, folio.WithLocker(locker))
	}

	app.Bot, err = folio.New(folio.Config{
		MinConfidence:    cfg.Bot.MinConfidence,
		MaxPromptRetries: cfg.Bot.MaxPromptRetries,
		MaxStackDepth:    cfg.Bot.MaxStackDepth,
		Version:          cfg.Bot.Version,
		LockTTL:          cfg.Bot.LockTTL,
	}, botOpts...)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("error initializing bot: %w", err)
	}

	logger.Debug("App ready",
		"storage", cfg.Storage.Backend,
		"mail", cfg.Mail.Provider,
		"encrypted", cfg.Storage.EncryptionKey != "",
	)
	return app, nil
}

// Close stops paced delivery and releases connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) createStore(cfg config.StorageConfig, loadAWS func() (aws.Config, error)) (ports.StateStore, ports.DistributedLocker, error) {
	switch cfg.Backend {
	case config.BackendMemory, "":
		return memory.NewStore(), nil, nil

	case config.BackendFile:
		return file.New(cfg.Dir), nil, nil

	case config.BackendRedis:
		prefix := cfg.RedisPrefix
		if prefix == "" {
			prefix = redis.DefaultPrefix
		}
		store := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
			redis.WithPrefix(prefix),
			redis.WithTTL(cfg.TTL),
		)
		a.closers = append(a.closers, store.Close)
		return store, redis.NewLocker(store.Client(), prefix+"lock:"), nil

	case config.BackendDynamoDB:
		awsCfg, err := loadAWS()
		if err != nil {
			return nil, nil, err
		}
		store, err := dynamodb.New(awsdynamodb.NewFromConfig(awsCfg), cfg.DynamoDBTable, dynamodb.WithTTL(cfg.TTL))
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

// wrapStore masks PII before encrypting, so masking sees plain state.
func wrapStore(store ports.StateStore, cfg config.StorageConfig) (ports.StateStore, error) {
	var mws []persistence.Middleware
	if len(cfg.PIIPatterns) > 0 {
		mws = append(mws, persistence.NewPIIMiddleware(cfg.PIIPatterns))
	}
	if cfg.EncryptionKey != "" {
		active, err := persistence.ParseKey(cfg.EncryptionKey)
		if err != nil {
			return nil, err
		}
		enc := persistence.EncryptionConfig{ActiveKey: active}
		for _, k := range cfg.FallbackKeys {
			key, err := persistence.ParseKey(k)
			if err != nil {
				return nil, fmt.Errorf("fallback key: %w", err)
			}
			enc.FallbackKeys = append(enc.FallbackKeys, key)
		}
		mws = append(mws, persistence.NewEncryptionMiddleware(enc))
	}
	return persistence.Chain(store, mws...), nil
}

func createMailer(cfg config.MailConfig, logger *slog.Logger, loadAWS func() (aws.Config, error)) (ports.Mailer, error) {
	mc := mail.Config{FromEmail: cfg.FromEmail, FromName: cfg.FromName, DefaultTo: cfg.To}

	switch cfg.Provider {
	case config.MailLog, "":
		return mail.NewLog(mc, logger), nil
	case config.MailSMTP:
		return mail.NewSMTP(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
		}, mc, nil, logger), nil
	case config.MailSendGrid:
		return mail.NewSendGrid(cfg.SendGridAPIKey, mc, logger)
	case config.MailSES:
		awsCfg, err := loadAWS()
		if err != nil {
			return nil, err
		}
		return mail.NewSES(sesv2.NewFromConfig(awsCfg), mc, logger), nil
	}
	return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
}

// createLogger configures the application logger. Logs never go to stdout,
// which belongs to the chat transcript and to MCP over stdio.
func createLogger(level, format string, w io.Writer) (*slog.Logger, error) {
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(format, "json") {
		return logging.NewJSON(w, lvl), nil
	}
	return logging.NewText(w, lvl), nil
}
