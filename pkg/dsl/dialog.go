package dsl

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/folio/pkg/domain"
)

// DialogBuilder provides a fluent API for configuring a dialog.
type DialogBuilder struct {
	def domain.Definition
}

// Dialog starts a standalone dialog definition.
func Dialog(id string) *DialogBuilder {
	return &DialogBuilder{def: domain.Definition{ID: id}}
}

// Triggers adds the intent names that start the dialog. Use domain.Wildcard to match any intent.
func (d *DialogBuilder) Triggers(intents ...string) *DialogBuilder {
	d.def.Triggers = append(d.def.Triggers, intents...)
	return d
}

// Links declares dialogs this one may begin or replace with dynamic ids.
// Begin and Replace declare theirs automatically.
func (d *DialogBuilder) Links(ids ...string) *DialogBuilder {
	d.def.Links = append(d.def.Links, ids...)
	return d
}

// Describe sets the human readable summary shown by operator tools.
func (d *DialogBuilder) Describe(text string) *DialogBuilder {
	d.def.Description = text
	return d
}

// Then appends a hand-written step.
func (d *DialogBuilder) Then(step domain.Step) *DialogBuilder {
	d.def.Steps = append(d.def.Steps, step)
	return d
}

// Say sends a message and falls through to the next step.
func (d *DialogBuilder) Say(text string, actions ...domain.Action) *DialogBuilder {
	return d.Then(func(ctx context.Context, s domain.Session, args domain.Args) error {
		s.SendText(text, actions...)
		return nil
	})
}

// SayPaced shows a typing indicator, then sends a message after delay,
// without holding the turn.
func (d *DialogBuilder) SayPaced(delay time.Duration, text string, actions ...domain.Action) *DialogBuilder {
	return d.Then(func(ctx context.Context, s domain.Session, args domain.Args) error {
		s.SendPaced(0, domain.TypingMessage())
		s.SendPaced(delay, domain.TextMessage(text, actions...))
		return nil
	})
}

// Text asks a free text question. The next step receives the answer.
func (d *DialogBuilder) Text(prompt string, opts ...domain.PromptOption) *DialogBuilder {
	return d.Then(func(ctx context.Context, s domain.Session, args domain.Args) error {
		s.PromptText(prompt, opts...)
		return nil
	})
}

// Confirm asks a yes/no question. The next step receives the answer.
func (d *DialogBuilder) Confirm(prompt string, opts ...domain.PromptOption) *DialogBuilder {
	return d.Then(func(ctx context.Context, s domain.Session, args domain.Args) error {
		s.PromptConfirm(prompt, opts...)
		return nil
	})
}

// Choice asks to pick one of choices. The next step receives the pick.
func (d *DialogBuilder) Choice(prompt string, choices ...domain.Choice) *DialogBuilder {
	list := append([]domain.Choice(nil), choices...)
	return d.Then(func(ctx context.Context, s domain.Session, args domain.Args) error {
		s.PromptChoice(prompt, list)
		return nil
	})
}

// Begin starts a child dialog. The next step receives its result.
func (d *DialogBuilder) Begin(id string) *DialogBuilder {
	d.def.Links = append(d.def.Links, id)
	return d.Then(func(ctx context.Context, s domain.Session, args domain.Args) error {
		s.BeginDialog(id, args.Value)
		return nil
	})
}

// Replace swaps this dialog for another one.
func (d *DialogBuilder) Replace(id string) *DialogBuilder {
	d.def.Links = append(d.def.Links, id)
	return d.Then(func(ctx context.Context, s domain.Session, args domain.Args) error {
		s.ReplaceDialog(id, args.Value)
		return nil
	})
}

// End ends the dialog with the value it was resumed with, if any.
func (d *DialogBuilder) End() *DialogBuilder {
	return d.Then(func(ctx context.Context, s domain.Session, args domain.Args) error {
		s.EndDialog(args.Value)
		return nil
	})
}

// Build returns the definition.
func (d *DialogBuilder) Build() (domain.Definition, error) {
	if len(d.def.Steps) == 0 {
		return domain.Definition{}, fmt.Errorf("%w: dialog %s has no steps", domain.ErrInvalidDefinition, d.def.ID)
	}
	def := d.def
	def.Steps = append([]domain.Step(nil), d.def.Steps...)
	def.Triggers = append([]string(nil), d.def.Triggers...)
	def.Links = append([]string(nil), d.def.Links...)
	return def, nil
}

// MustBuild is Build for static dialog tables. It panics on error.
func (d *DialogBuilder) MustBuild() domain.Definition {
	def, err := d.Build()
	if err != nil {
		panic(err)
	}
	return def
}
