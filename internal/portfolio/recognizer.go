package portfolio

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/aretw0/folio/internal/logging"
	"github.com/aretw0/folio/pkg/adapters/recognizer"
)

var (
	//go:embed intents.yaml
	defaultRules []byte

	//go:embed qna.yaml
	defaultKnowledgeBase []byte
)

// RecognizerConfig selects the rule and knowledge base files. Empty paths use
// the built-in ones.
type RecognizerConfig struct {
	RulesPath string
	QnAPath   string
	// Watch reloads the files when they change, until the context is done.
	Watch bool
}

// NewRecognizer combines the keyword rules and the QnA knowledge base.
func NewRecognizer(ctx context.Context, cfg RecognizerConfig, logger *slog.Logger) (*recognizer.Multi, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	rules, err := loadRules(cfg.RulesPath)
	if err != nil {
		return nil, err
	}
	kb, err := loadKnowledgeBase(cfg.QnAPath)
	if err != nil {
		return nil, err
	}

	keyword := recognizer.NewKeyword(rules, recognizer.WithLogger(logger))
	qna := recognizer.NewQnA(kb, recognizer.WithLogger(logger))

	if cfg.Watch {
		if cfg.RulesPath != "" {
			go watch(ctx, logger, cfg.RulesPath, keyword.Watch)
		}
		if cfg.QnAPath != "" {
			go watch(ctx, logger, cfg.QnAPath, qna.Watch)
		}
	}

	return recognizer.NewMulti(logger, keyword, qna), nil
}

func watch(ctx context.Context, logger *slog.Logger, path string, fn func(context.Context, string) error) {
	if err := fn(ctx, path); err != nil && ctx.Err() == nil {
		logger.Error("Watcher stopped", "path", path, "err", err)
	}
}

func loadRules(path string) (*recognizer.RuleSet, error) {
	if path == "" {
		return recognizer.ParseRules(defaultRules)
	}
	rules, err := recognizer.LoadRules(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load intent rules: %w", err)
	}
	return rules, nil
}

func loadKnowledgeBase(path string) (*recognizer.KnowledgeBase, error) {
	if path == "" {
		return recognizer.ParseKnowledgeBase(defaultKnowledgeBase)
	}
	kb, err := recognizer.LoadKnowledgeBase(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load knowledge base: %w", err)
	}
	return kb, nil
}
