package recognizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"sync"

	"github.com/aretw0/folio/internal/logging"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/aretw0/folio/pkg/ports"
	"gopkg.in/yaml.v3"
)

// DefaultRuleConfidence is used by rules that do not set one.
const DefaultRuleConfidence = 0.8

// ErrInvalidRules is returned for malformed rule files.
var ErrInvalidRules = errors.New("invalid recognizer rules")

// Rule maps keywords and patterns to one intent.
type Rule struct {
	Intent     string   `yaml:"intent"`
	Confidence float64  `yaml:"confidence"`
	Keywords   []string `yaml:"keywords"`
	Patterns   []string `yaml:"patterns"`

	keywords []string
	patterns []*regexp.Regexp
}

// RuleSet is the content of a rules file:
//
//	intents:
//	  - intent: Greeting
//	    confidence: 0.9
//	    keywords: [hi, hello, good morning]
//	    patterns: ['^hey+\b']
type RuleSet struct {
	Intents []Rule `yaml:"intents"`
}

// ParseRules decodes and compiles a YAML rule set.
func ParseRules(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRules, err)
	}
	if err := rs.compile(); err != nil {
		return nil, err
	}
	return &rs, nil
}

// LoadRules reads a rules file.
func LoadRules(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules: %w", err)
	}
	return ParseRules(data)
}

func (rs *RuleSet) compile() error {
	var errs []error
	for i := range rs.Intents {
		r := &rs.Intents[i]
		if r.Intent == "" {
			errs = append(errs, fmt.Errorf("%w: rule %d has no intent", ErrInvalidRules, i))
			continue
		}
		if r.Confidence == 0 {
			r.Confidence = DefaultRuleConfidence
		}
		if r.Confidence < 0 || r.Confidence > 1 {
			errs = append(errs, fmt.Errorf("%w: intent %s: confidence %v out of [0,1]", ErrInvalidRules, r.Intent, r.Confidence))
		}
		r.keywords = r.keywords[:0]
		for _, k := range r.Keywords {
			if n := normalize(k); n != "" {
				r.keywords = append(r.keywords, n)
			}
		}
		r.patterns = r.patterns[:0]
		for _, p := range r.Patterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				errs = append(errs, fmt.Errorf("%w: intent %s: %w", ErrInvalidRules, r.Intent, err))
				continue
			}
			r.patterns = append(r.patterns, re)
		}
	}
	return errors.Join(errs...)
}

// Keyword is a rule based recognizer, standing in for a hosted language model.
type Keyword struct {
	mu     sync.RWMutex
	rules  *RuleSet
	logger *slog.Logger
}

var _ ports.Recognizer = (*Keyword)(nil)

// Option configures the in-process recognizers.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	threshold float64
}

// WithLogger sets the logger used for reloads.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithThreshold sets the lowest score QnA reports.
func WithThreshold(t float64) Option {
	return func(o *options) {
		o.threshold = t
	}
}

func newOptions(opts []Option) options {
	o := options{logger: logging.NewNop(), threshold: DefaultQnAThreshold}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewKeyword creates a recognizer over rules.
func NewKeyword(rules *RuleSet, opts ...Option) *Keyword {
	if rules == nil {
		rules = &RuleSet{}
	}
	return &Keyword{rules: rules, logger: newOptions(opts).logger}
}

// SetRules swaps the rule set.
func (k *Keyword) SetRules(rules *RuleSet) {
	k.mu.Lock()
	k.rules = rules
	k.mu.Unlock()
}

// Recognize returns one match per intent whose keyword or pattern occurs in text,
// ordered by confidence. An utterance that is exactly a keyword scores 1.
func (k *Keyword) Recognize(ctx context.Context, text string) ([]domain.IntentMatch, error) {
	k.mu.RLock()
	rules := k.rules
	k.mu.RUnlock()

	norm := normalize(text)
	if norm == "" {
		return nil, nil
	}

	var matches []domain.IntentMatch
	for _, r := range rules.Intents {
		if m, ok := r.match(text, norm); ok {
			matches = append(matches, m)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	return matches, nil
}

func (r Rule) match(raw, norm string) (domain.IntentMatch, bool) {
	for _, kw := range r.keywords {
		if kw == norm {
			return domain.IntentMatch{Intent: r.Intent, Confidence: 1}, true
		}
	}
	for _, kw := range r.keywords {
		if containsPhrase(norm, kw) {
			return domain.IntentMatch{Intent: r.Intent, Confidence: r.Confidence}, true
		}
	}
	for _, re := range r.patterns {
		if loc := re.FindStringSubmatchIndex(raw); loc != nil {
			m := domain.IntentMatch{Intent: r.Intent, Confidence: r.Confidence}
			for i, name := range re.SubexpNames() {
				if name == "" || loc[2*i] < 0 {
					continue
				}
				m.Entities = append(m.Entities, domain.Entity{
					Type:  name,
					Value: raw[loc[2*i]:loc[2*i+1]],
					Start: loc[2*i],
					End:   loc[2*i+1],
				})
			}
			return m, true
		}
	}
	return domain.IntentMatch{}, false
}

// Watch reloads the rules whenever path changes, until ctx is done.
// A file that fails to parse is logged and the previous rules stay in place.
func (k *Keyword) Watch(ctx context.Context, path string) error {
	return watchFile(ctx, path, k.logger, func(data []byte) error {
		rules, err := ParseRules(data)
		if err != nil {
			return err
		}
		k.SetRules(rules)
		return nil
	})
}
