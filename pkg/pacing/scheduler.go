// Package pacing delivers the delayed ("typing...") part of a turn's output.
//
// Paced messages are presentational: the engine has already persisted the turn
// when they are handed over, so nothing here may touch conversation state.
package pacing

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/folio/internal/logging"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/aretw0/folio/pkg/ports"
)

// Scheduler sends paced messages through a Sender once their delays elapse.
// Batches of the same conversation are delivered in the order they were scheduled.
type Scheduler struct {
	sender ports.Sender
	logger *slog.Logger
	after  func(time.Duration) <-chan time.Time

	mu     sync.Mutex
	tails  map[string]chan struct{}
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

var _ ports.Scheduler = (*Scheduler)(nil)

// Option configures the Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger for delivery failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTimer replaces time.After, for tests.
func WithTimer(after func(time.Duration) <-chan time.Time) Option {
	return func(s *Scheduler) {
		s.after = after
	}
}

// New creates a Scheduler delivering through sender.
func New(sender ports.Sender, opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		sender: sender,
		logger: logging.NewNop(),
		after:  time.After,
		tails:  make(map[string]chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule queues msgs for a conversation and returns immediately.
// Each delay is relative to the previous message of the batch.
func (s *Scheduler) Schedule(ctx context.Context, conversationID string, msgs []domain.ScheduledMessage) {
	if len(msgs) == 0 {
		return
	}
	batch := append([]domain.ScheduledMessage(nil), msgs...)

	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		s.logger.Warn("Scheduler closed, dropping paced messages", "conversation_id", conversationID, "count", len(batch))
		return
	}
	prev := s.tails[conversationID]
	done := make(chan struct{})
	s.tails[conversationID] = done
	s.wg.Add(1)
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)

	go func() {
		defer s.wg.Done()
		defer close(done)
		defer stop()
		defer cancel()
		defer s.release(conversationID, done)

		if prev != nil {
			select {
			case <-prev:
			case <-ctx.Done():
				return
			}
		}
		s.deliver(ctx, conversationID, batch)
	}()
}

func (s *Scheduler) deliver(ctx context.Context, conversationID string, batch []domain.ScheduledMessage) {
	for i, m := range batch {
		if m.Delay > 0 {
			select {
			case <-s.after(m.Delay):
			case <-ctx.Done():
				s.logger.Debug("Paced delivery cancelled", "conversation_id", conversationID, "remaining", len(batch)-i)
				return
			}
		}
		if err := s.sender.Send(ctx, m.Message); err != nil {
			// Pacing is best effort; the turn already succeeded.
			s.logger.Warn("Paced message not delivered", "conversation_id", conversationID, "err", err)
		}
	}
}

func (s *Scheduler) release(conversationID string, done chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tails[conversationID] == done {
		delete(s.tails, conversationID)
	}
}

// Wait blocks until every scheduled batch has been delivered or cancelled.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Close cancels pending deliveries and waits for them to stop.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()
	s.wg.Wait()
	return nil
}
