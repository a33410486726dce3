package tui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/folio/pkg/domain"
	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(wrapWidth()),
	)
	if err != nil {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}
	return r.Render
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func wrapWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
		return w - 4
	}
	return 80
}

// Printer writes bot messages to a terminal.
type Printer struct {
	out    io.Writer
	render func(string) (string, error)
}

// NewPrinter creates a Printer. A nil render prints text as is.
func NewPrinter(out io.Writer, render func(string) (string, error)) *Printer {
	return &Printer{out: out, render: render}
}

// Print writes msg. Typing indicators are shown as a faint ellipsis and
// suggested actions as a numbered list.
func (p *Printer) Print(msg domain.Message) {
	if msg.Type == domain.MessageTyping {
		fmt.Fprintln(p.out, "  ...")
		return
	}

	text := msg.Text
	if p.render != nil && text != "" {
		if rendered, err := p.render(text); err == nil {
			text = strings.TrimRight(rendered, "\n")
		}
	}
	if text != "" {
		fmt.Fprintln(p.out, text)
	}
	for _, card := range msg.Attachments {
		fmt.Fprintf(p.out, "  [%s] %s\n", card.Title, card.Text)
	}
	for i, a := range msg.SuggestedActions {
		fmt.Fprintf(p.out, "  %d. %s\n", i+1, a.Label)
	}
}

// PrintAll writes msgs in order.
func (p *Printer) PrintAll(msgs []domain.Message) {
	for _, m := range msgs {
		p.Print(m)
	}
}
