package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/folio/pkg/domain"
)

// DefaultMaxInputSize is 4KB (conservative default)
const DefaultMaxInputSize = 4096

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// Sanitize rejects oversized or malformed utterances and strips control characters
// before anything else sees the text. A limit <= 0 uses DefaultMaxInputSize.
func Sanitize(limit int) domain.Middleware {
	if limit <= 0 {
		limit = DefaultMaxInputSize
	}
	return func(ctx context.Context, tc domain.TurnContext, next domain.NextFunc) error {
		clean, err := SanitizeInput(tc.Turn().Text, limit)
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrInvalidTurn, err)
		}
		tc.SetText(clean)
		return next(ctx)
	}
}

// SanitizeInput enforces the size limit, validates UTF-8 and strips
// control characters other than newline, tab and carriage return.
func SanitizeInput(input string, limit int) (string, error) {
	// Reject rather than truncate: a cut utterance could match the wrong intent.
	if len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}

	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	// Fast path: if no control chars, return as is.
	clean := true
	for _, r := range input {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}
