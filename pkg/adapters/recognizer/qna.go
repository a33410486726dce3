package recognizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/aretw0/folio/pkg/domain"
	"github.com/aretw0/folio/pkg/ports"
	"gopkg.in/yaml.v3"
)

const (
	// QnAIntent is the intent reported for knowledge base answers.
	QnAIntent = "qna"
	// AnswerEntity is the entity type carrying the answer text.
	AnswerEntity = "answer"
	// DefaultQnAThreshold is the lowest question similarity reported.
	DefaultQnAThreshold = 0.5
)

// QnAEntry is one answer and the questions it answers.
type QnAEntry struct {
	Questions []string `yaml:"questions"`
	Answer    string   `yaml:"answer"`

	questions [][]string
}

// KnowledgeBase is the content of a QnA file:
//
//	entries:
//	  - questions: ["where do you live", "where are you based"]
//	    answer: "In Amsterdam."
type KnowledgeBase struct {
	Entries []QnAEntry `yaml:"entries"`
}

// ParseKnowledgeBase decodes a YAML knowledge base.
func ParseKnowledgeBase(data []byte) (*KnowledgeBase, error) {
	var kb KnowledgeBase
	if err := yaml.Unmarshal(data, &kb); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRules, err)
	}
	var errs []error
	for i := range kb.Entries {
		e := &kb.Entries[i]
		if e.Answer == "" || len(e.Questions) == 0 {
			errs = append(errs, fmt.Errorf("%w: qna entry %d needs questions and an answer", ErrInvalidRules, i))
			continue
		}
		e.questions = e.questions[:0]
		for _, q := range e.Questions {
			e.questions = append(e.questions, tokens(q))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &kb, nil
}

// LoadKnowledgeBase reads a QnA file.
func LoadKnowledgeBase(path string) (*KnowledgeBase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge base: %w", err)
	}
	return ParseKnowledgeBase(data)
}

// QnA answers from a knowledge base by word overlap with the known questions.
type QnA struct {
	mu        sync.RWMutex
	kb        *KnowledgeBase
	threshold float64
	logger    *slog.Logger
}

var _ ports.Recognizer = (*QnA)(nil)

// NewQnA creates a recognizer over kb.
func NewQnA(kb *KnowledgeBase, opts ...Option) *QnA {
	o := newOptions(opts)
	if kb == nil {
		kb = &KnowledgeBase{}
	}
	return &QnA{kb: kb, threshold: o.threshold, logger: o.logger}
}

// SetKnowledgeBase swaps the knowledge base.
func (q *QnA) SetKnowledgeBase(kb *KnowledgeBase) {
	q.mu.Lock()
	q.kb = kb
	q.mu.Unlock()
}

// Recognize reports the best answer whose question similarity clears the threshold.
func (q *QnA) Recognize(ctx context.Context, text string) ([]domain.IntentMatch, error) {
	q.mu.RLock()
	kb := q.kb
	q.mu.RUnlock()

	words := tokens(text)
	if len(words) == 0 {
		return nil, nil
	}

	best, bestScore := -1, 0.0
	for i, e := range kb.Entries {
		for _, question := range e.questions {
			if s := similarity(words, question); s > bestScore {
				best, bestScore = i, s
			}
		}
	}
	if best < 0 || bestScore < q.threshold {
		return nil, nil
	}

	answer := kb.Entries[best].Answer
	return []domain.IntentMatch{{
		Intent:     QnAIntent,
		Confidence: bestScore,
		Entities:   []domain.Entity{{Type: AnswerEntity, Value: answer}},
	}}, nil
}

// Watch reloads the knowledge base whenever path changes, until ctx is done.
func (q *QnA) Watch(ctx context.Context, path string) error {
	return watchFile(ctx, path, q.logger, func(data []byte) error {
		kb, err := ParseKnowledgeBase(data)
		if err != nil {
			return err
		}
		q.SetKnowledgeBase(kb)
		return nil
	})
}

// similarity is the Jaccard index of two word lists.
func similarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, w := range a {
		set[w] = true
	}
	union := len(set)
	inter := 0
	seen := make(map[string]bool, len(b))
	for _, w := range b {
		if seen[w] {
			continue
		}
		seen[w] = true
		if set[w] {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}
