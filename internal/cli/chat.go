package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aretw0/folio/internal/presentation/tui"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/aretw0/folio/pkg/ports"
)

// Terminal prints bot output. It is also the ports.Sender of paced messages,
// so the transcript and the delayed messages never interleave mid-line.
type Terminal struct {
	mu      sync.Mutex
	printer *tui.Printer
	out     io.Writer
}

var _ ports.Sender = (*Terminal)(nil)

// NewTerminal creates a Terminal writing to out. render may be nil.
func NewTerminal(out io.Writer, render func(string) (string, error)) *Terminal {
	return &Terminal{printer: tui.NewPrinter(out, render), out: out}
}

// Send prints a paced message.
func (t *Terminal) Send(ctx context.Context, msg domain.Message) error {
	t.Print(msg)
	return nil
}

// Print writes messages in order.
func (t *Terminal) Print(msgs ...domain.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.printer.PrintAll(msgs)
}

func (t *Terminal) system(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	printSystemMessage(t.out, format, args...)
}

// ChatOptions configures a terminal conversation.
type ChatOptions struct {
	ConversationID string
	UserID         string
	// Fresh forgets the stored conversation first.
	Fresh bool
	In    io.Reader
}

var quitCommands = map[string]bool{"q": true, "quit": true, "exit": true}

// RunChat talks to the bot over the terminal until the input ends, a quit
// command is typed or ctx is cancelled. A new conversation is greeted; a stored
// one resumes where it was left.
func RunChat(ctx context.Context, app *App, term *Terminal, opts ChatOptions) error {
	if opts.ConversationID == "" {
		opts.ConversationID = "terminal"
	}
	logger := app.Logger.With("conversation_id", opts.ConversationID)

	if opts.Fresh {
		if err := app.Bot.Reset(ctx, opts.ConversationID); err != nil {
			return fmt.Errorf("failed to reset conversation: %w", err)
		}
	}

	state, err := app.Bot.State(ctx, opts.ConversationID)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		logger.Info("Conversation Created")
		res, err := app.Bot.Greet(ctx, opts.ConversationID, opts.UserID)
		if res != nil {
			term.Print(res.Messages...)
		}
		if err != nil {
			logger.Error("Greeting failed", "err", err)
		}
	case err != nil:
		return fmt.Errorf("failed to load conversation: %w", err)
	default:
		dialog := domain.DefaultDialogID
		if top := state.Top(); top != nil {
			dialog = top.DialogID
		}
		logger.Info("Conversation Resumed", "dialog", dialog)
		term.system("Resuming conversation '%s' at '%s'.", opts.ConversationID, dialog)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(opts.In)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		err := scanner.Err()
		if err == nil {
			err = io.EOF
		}
		readErr <- err
	}()

	for {
		select {
		case <-ctx.Done():
			return handleExecutionError(ctx.Err())
		case err := <-readErr:
			return handleExecutionError(err)
		case line := <-lines:
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			if quitCommands[strings.ToLower(text)] {
				term.system("Bye!")
				return nil
			}
			res, err := app.Bot.HandleTurn(ctx, domain.Turn{
				ConversationID: opts.ConversationID,
				UserID:         opts.UserID,
				Text:           text,
			})
			if res != nil {
				term.Print(res.Messages...)
			}
			if err != nil {
				logger.Error("Turn failed", "err", err)
				if res == nil {
					term.system("Error: %v", err)
				}
			}
		}
	}
}
