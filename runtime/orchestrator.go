// Package runtime wires the group chat onto the message bus.
// It routes and supervises; the turn-taking rules live in groupchat.
package runtime

import (
	"context"
	"debate-lab/contract"
	"debate-lab/domain"
	"debate-lab/domain/event"
	"debate-lab/groupchat"
	"debate-lab/persona"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type OrchestratorConfig struct {
	Manager       domain.Identity
	GroupChannel  domain.Channel
	Session       string
	MaxRounds     uint64
	RoundTimeout  time.Duration
	ModelTimeout  time.Duration
	HistoryWindow int
	Policy        groupchat.FailurePolicy
}

// Orchestrator registers the manager and one participant per persona on the bus,
// seeds the conversation and reports when it is over.
type Orchestrator struct {
	log          *slog.Logger
	cfg          OrchestratorConfig
	bus          contract.IBus
	sink         contract.EventSink
	manager      *groupchat.Manager
	participants []*groupchat.Participant

	doneOnce sync.Once
	done     chan struct{}
	mu       sync.Mutex
	reason   string
}

func NewOrchestrator(
	log *slog.Logger,
	cfg OrchestratorConfig,
	bus contract.IBus,
	client contract.ModelClient,
	personas []persona.Persona,
	selector contract.Selector,
	sanitizer contract.Sanitizer,
	sink contract.EventSink,
) (*Orchestrator, error) {
	o := &Orchestrator{
		log:  log,
		cfg:  cfg,
		bus:  bus,
		sink: sink,
		done: make(chan struct{}),
	}

	manager, err := groupchat.NewManager(log, groupchat.ManagerConfig{
		Identity:      cfg.Manager,
		GroupChannel:  cfg.GroupChannel,
		Participants:  persona.Identities(personas),
		RoundTimeout:  cfg.RoundTimeout,
		MaxRounds:     cfg.MaxRounds,
		HistoryWindow: cfg.HistoryWindow,
		Session:       cfg.Session,
	}, bus, selector, o)
	if err != nil {
		return nil, err
	}
	o.manager = manager

	if err := bus.Register(cfg.Manager, manager); err != nil {
		return nil, err
	}
	if err := bus.Declare(cfg.GroupChannel); err != nil {
		return nil, err
	}
	if err := bus.Subscribe(cfg.GroupChannel, cfg.Manager); err != nil {
		return nil, err
	}

	channels := []domain.Channel{cfg.GroupChannel, cfg.Manager.Channel()}
	for _, p := range personas {
		participant, err := groupchat.NewParticipant(log, groupchat.ParticipantConfig{
			Identity:      p.Identity,
			Persona:       p.SystemMessage,
			Manager:       cfg.Manager,
			HistoryWindow: cfg.HistoryWindow,
			CallTimeout:   cfg.ModelTimeout,
			Policy:        cfg.Policy,
		}, client, bus, sanitizer)
		if err != nil {
			return nil, err
		}
		if err := bus.Register(p.Identity, participant); err != nil {
			return nil, err
		}
		if err := bus.Subscribe(cfg.GroupChannel, p.Identity); err != nil {
			return nil, err
		}
		o.participants = append(o.participants, participant)
		channels = append(channels, p.Identity.Channel())
	}

	if err := bus.Validate(channels...); err != nil {
		return nil, err
	}
	log.Info("Group chat registered",
		"session", cfg.Session,
		"manager", string(cfg.Manager),
		"participants", len(o.participants),
		"policy", cfg.Policy)
	return o, nil
}

func (o *Orchestrator) Start(ctx context.Context) error {
	return o.bus.Start(ctx)
}

// Seed publishes the opening utterance to the manager.
// A seed equal to the terminate token ends the conversation before it starts.
func (o *Orchestrator) Seed(ctx context.Context, content string) error {
	if err := o.bus.Publish(ctx, o.cfg.Manager.Channel(), domain.NewSeed(content)); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return nil
}

// Done is closed once the conversation terminated, a round failed or the round limit was reached.
func (o *Orchestrator) Done() <-chan struct{} {
	return o.done
}

func (o *Orchestrator) Reason() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.reason
}

func (o *Orchestrator) Manager() *groupchat.Manager {
	return o.manager
}

func (o *Orchestrator) Participants() []*groupchat.Participant {
	return o.participants
}

// Stop drains the bus. In-flight model calls finish, queued messages are dropped.
func (o *Orchestrator) Stop() {
	o.bus.Stop()
}

// Consume forwards manager events to the sinks and watches for the end of the conversation.
func (o *Orchestrator) Consume(ctx context.Context, e event.Event) error {
	var err error
	if o.sink != nil {
		err = o.sink.Consume(ctx, e)
	}
	switch p := e.Payload.(type) {
	case event.ConversationTerminated:
		o.finish(fmt.Sprintf("terminated by %s", p.By))
	case event.RoundFailed:
		o.finish(fmt.Sprintf("round %d failed", p.Round))
	case event.RoundCompleted:
		if o.cfg.MaxRounds > 0 && p.Round >= o.cfg.MaxRounds {
			o.finish(fmt.Sprintf("%d rounds completed", p.Round))
		}
	}
	return err
}

func (o *Orchestrator) finish(reason string) {
	o.doneOnce.Do(func() {
		o.mu.Lock()
		o.reason = reason
		o.mu.Unlock()
		o.log.Info("Conversation over", "session", o.cfg.Session, "reason", reason)
		close(o.done)
	})
}
