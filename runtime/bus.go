package runtime

import (
	"context"
	"debate-lab/contract"
	"debate-lab/domain"
	"debate-lab/errors"
	"debate-lab/runtime/workers"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-playground/validator/v10"
)

type busState int

const (
	busCreated busState = iota
	busStarted
	busStopped
)

// Bus is an in-process publish/subscribe substrate.
//
// Every registered identity owns a mailbox drained by one supervised worker,
// so a given subscriber handles messages sequentially and in publish order.
// No ordering holds across subscribers.
//
// Publishing to a declared channel with no subscriber is a no-op.
// Publishing to a channel that was never declared fails with ErrChannelNotFound.
type Bus struct {
	log        *slog.Logger
	registry   *Registry
	supervisor contract.ISupervisor
	validate   *validator.Validate

	mu    sync.RWMutex
	state busState
	done  chan struct{}
}

func NewBus(log *slog.Logger, supervisor contract.ISupervisor, registry *Registry) *Bus {
	return &Bus{
		log:        log,
		registry:   registry,
		supervisor: supervisor,
		validate:   validator.New(),
		done:       make(chan struct{}),
	}
}

// Register binds a handler to an identity and subscribes it to its own channel.
func (b *Bus) Register(identity domain.Identity, handler contract.Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != busCreated {
		return errors.ErrBusStarted
	}
	if identity == "" {
		return fmt.Errorf("%w: empty identity", errors.ErrUnknownIdentity)
	}
	if identity == domain.UserIdentity {
		return fmt.Errorf("%w: %s", errors.ErrReservedIdentity, identity)
	}
	if err := b.registry.Register(identity, workers.NewMailbox(identity, handler, b.log)); err != nil {
		return err
	}
	return b.registry.Subscribe(identity.Channel(), identity)
}

func (b *Bus) Declare(channel domain.Channel) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != busCreated {
		return errors.ErrBusStarted
	}
	b.registry.Declare(channel)
	return nil
}

func (b *Bus) Subscribe(channel domain.Channel, identity domain.Identity) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != busCreated {
		return errors.ErrBusStarted
	}
	return b.registry.Subscribe(channel, identity)
}

// Validate checks at registration time that every channel exists.
func (b *Bus) Validate(channels ...domain.Channel) error {
	for _, channel := range channels {
		if !b.registry.HasChannel(channel) {
			return fmt.Errorf("%w: %s", errors.ErrChannelNotFound, channel)
		}
	}
	return nil
}

func (b *Bus) Publish(ctx context.Context, channel domain.Channel, msg domain.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.check(msg); err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.state == busStopped {
		return errors.ErrBusStopped
	}
	mailboxes, err := b.registry.MailboxesFor(channel)
	if err != nil {
		return err
	}
	for _, mailbox := range mailboxes {
		mailbox.Post(msg)
	}
	b.log.Debug("Message published",
		"channel", string(channel),
		"kind", msg.Kind,
		"round", msg.Round,
		"subscribers", len(mailboxes))
	return nil
}

func (b *Bus) check(msg domain.Message) error {
	if err := b.validate.Struct(msg); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrMalformedMessage, err)
	}
	if msg.Kind.CarriesContent() {
		if err := b.validate.Struct(msg.Utterance); err != nil {
			return fmt.Errorf("%w: %v", errors.ErrMalformedMessage, err)
		}
		return nil
	}
	if err := b.validate.Var(string(msg.Utterance.Source), "required"); err != nil {
		return fmt.Errorf("%w: missing source: %v", errors.ErrMalformedMessage, err)
	}
	return nil
}

// Start launches one supervised worker per registered identity.
// Handlers receive ctx; canceling it aborts in-flight handlers.
func (b *Bus) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != busCreated {
		return errors.ErrBusStarted
	}
	for _, mailbox := range b.registry.AllMailboxes() {
		b.supervisor.Add(mailbox)
	}
	b.state = busStarted

	go func() {
		defer close(b.done)
		b.supervisor.Run(ctx)
	}()
	b.log.Info("Message bus started")
	return nil
}

// Stop refuses new messages, lets every in-flight handler finish and returns
// once all workers exited. It must not be called from a handler.
func (b *Bus) Stop() {
	b.mu.Lock()
	previous := b.state
	b.state = busStopped
	b.mu.Unlock()

	if previous == busStopped {
		return
	}
	for _, mailbox := range b.registry.AllMailboxes() {
		mailbox.Close()
	}
	if previous == busStarted {
		<-b.done
	}
	b.log.Info("Message bus stopped")
}
