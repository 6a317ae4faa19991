package workers

import (
	"context"
	"debate-lab/contract"
	"debate-lab/domain"
	"fmt"
	"log/slog"
	"sync"
)

// Mailbox queues the messages delivered to one identity and feeds them,
// one at a time and in arrival order, to that identity's handler.
//
// The queue is unbounded so a publisher never waits on a slow handler.
// Once closed, the handler invocation in flight completes and queued
// messages that never started are discarded.
type Mailbox struct {
	identity domain.Identity
	handler  contract.Handler
	log      *slog.Logger

	mu     sync.Mutex
	queue  []domain.Message
	closed bool
	notify chan struct{}
}

func NewMailbox(identity domain.Identity, handler contract.Handler, log *slog.Logger) *Mailbox {
	return &Mailbox{
		identity: identity,
		handler:  handler,
		log:      log.With("identity", string(identity)),
		notify:   make(chan struct{}, 1),
	}
}

func (m *Mailbox) Name() string {
	return fmt.Sprintf("Mailbox(%s)", m.identity)
}

// Post enqueues a message. It reports false when the mailbox is closed.
func (m *Mailbox) Post(msg domain.Message) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.queue = append(m.queue, msg)
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
	return true
}

// Close stops accepting messages and wakes the worker so it can exit.
func (m *Mailbox) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

func (m *Mailbox) Run(ctx context.Context) error {
	for {
		msg, ok, err := m.next(ctx)
		if !ok {
			return err
		}
		if err := m.handler.Handle(ctx, msg); err != nil {
			m.log.Warn("Handler failed",
				"kind", msg.Kind,
				"round", msg.Round,
				"error", err)
		}
	}
}

func (m *Mailbox) next(ctx context.Context) (domain.Message, bool, error) {
	for {
		m.mu.Lock()
		if m.closed {
			if dropped := len(m.queue); dropped > 0 {
				m.log.Debug("Mailbox closed, discarding queued messages", "dropped", dropped)
			}
			m.queue = nil
			m.mu.Unlock()
			return domain.Message{}, false, nil
		}
		if len(m.queue) > 0 {
			msg := m.queue[0]
			m.queue[0] = domain.Message{}
			m.queue = m.queue[1:]
			m.mu.Unlock()
			return msg, true, nil
		}
		m.mu.Unlock()

		select {
		case <-ctx.Done():
			return domain.Message{}, false, ctx.Err()
		case <-m.notify:
		}
	}
}
