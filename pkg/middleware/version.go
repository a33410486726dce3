package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/folio/pkg/domain"
)

// DefaultResetPattern matches the "reset" command.
var DefaultResetPattern = regexp.MustCompile(`(?i)^reset`)

// VersionOption configures DialogVersion.
type VersionOption func(*versionConfig)

type versionConfig struct {
	resetPattern   *regexp.Regexp
	resetMessage   string
	upgradeMessage string
}

// WithResetPattern sets the command that clears the dialog stack. Nil disables it.
func WithResetPattern(re *regexp.Regexp) VersionOption {
	return func(c *versionConfig) {
		c.resetPattern = re
	}
}

// WithResetMessage sets the reply to the reset command.
func WithResetMessage(text string) VersionOption {
	return func(c *versionConfig) {
		c.resetMessage = text
	}
}

// WithUpgradeMessage sets the notice sent when a conversation is dropped after an upgrade.
// Empty disables the notice.
func WithUpgradeMessage(text string) VersionOption {
	return func(c *versionConfig) {
		c.upgradeMessage = text
	}
}

// DialogVersion clears the dialog stack of conversations stored by another bot
// version, and of users sending the reset command. User data is kept.
// The reset command is answered here and not routed.
func DialogVersion(version string, opts ...VersionOption) domain.Middleware {
	cfg := versionConfig{
		resetPattern:   DefaultResetPattern,
		resetMessage:   "Your conversation has been reset.",
		upgradeMessage: "I have been updated, so we need to start over.",
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(ctx context.Context, tc domain.TurnContext, next domain.NextFunc) error {
		state := tc.State()

		if cfg.resetPattern != nil && cfg.resetPattern.MatchString(tc.Turn().Text) {
			state.ResetStack()
			state.Version = version
			if cfg.resetMessage != "" {
				tc.Send(domain.TextMessage(cfg.resetMessage))
			}
			return nil
		}

		if state.Version != version {
			if active(state) && cfg.upgradeMessage != "" {
				tc.Send(domain.TextMessage(cfg.upgradeMessage))
			}
			state.ResetStack()
			state.Version = version
		}
		return next(ctx)
	}
}

// active reports whether the conversation is inside a dialog, not just resting.
func active(state *domain.ConversationState) bool {
	top := state.Top()
	return top != nil && !top.Resting
}
