package groupchat

import (
	"context"
	"debate-lab/contract"
	"debate-lab/domain"
	"debate-lab/errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
)

type ParticipantConfig struct {
	Identity domain.Identity
	// Persona is the system prompt, opaque to the protocol.
	Persona       string
	Manager       domain.Identity
	HistoryWindow int
	CallTimeout   time.Duration
	Policy        FailurePolicy
}

// Participant answers every prompt broadcast by the manager, once per round.
type Participant struct {
	log       *slog.Logger
	cfg       ParticipantConfig
	client    contract.ModelClient
	publisher contract.Publisher
	sanitizer contract.Sanitizer

	mu        sync.Mutex
	history   *domain.ChatHistory
	lastRound uint64
}

func NewParticipant(log *slog.Logger, cfg ParticipantConfig, client contract.ModelClient,
	publisher contract.Publisher, sanitizer contract.Sanitizer) (*Participant, error) {
	if cfg.Identity == "" || strings.TrimSpace(cfg.Persona) == "" {
		return nil, fmt.Errorf("%w: identity and persona are required", errors.ErrInvalidPersona)
	}
	if cfg.Identity == cfg.Manager {
		return nil, fmt.Errorf("%w: %s", errors.ErrDuplicateIdentity, cfg.Identity)
	}
	if cfg.Policy == "" {
		cfg.Policy = PolicyQuorum
	}
	return &Participant{
		log:       log.With("participant", string(cfg.Identity)),
		cfg:       cfg,
		client:    client,
		publisher: publisher,
		sanitizer: sanitizer,
		history:   domain.NewChatHistory(cfg.HistoryWindow),
	}, nil
}

func (p *Participant) Identity() domain.Identity {
	return p.cfg.Identity
}

func (p *Participant) History() []domain.Utterance {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.history.Items()
}

func (p *Participant) Handle(ctx context.Context, msg domain.Message) error {
	if msg.Kind != domain.KindManagerPrompt || msg.Utterance.Source != p.cfg.Manager {
		p.log.Debug("Ignoring message", "kind", msg.Kind, "from", string(msg.Utterance.Source))
		return nil
	}

	p.mu.Lock()
	// The same prompt can arrive on the group channel and on our own channel.
	if msg.Round <= p.lastRound {
		p.mu.Unlock()
		p.log.Debug("Prompt already answered", "round", msg.Round)
		return nil
	}
	p.lastRound = msg.Round
	p.history.Append(msg.Utterance)
	input := append([]domain.Utterance{{
		Source:  p.cfg.Identity,
		Content: p.cfg.Persona,
		Role:    domain.RoleSystem,
	}}, conversation(p.history.Items())...)
	p.mu.Unlock()

	content, err := p.complete(ctx, input)
	if err != nil {
		return p.fail(ctx, msg.Round, err)
	}
	if p.sanitizer != nil {
		content = p.sanitizer.Sanitize(content)
	}

	reply := domain.Utterance{Source: p.cfg.Identity, Content: content, Role: domain.RoleAssistant}
	p.mu.Lock()
	p.history.Append(reply)
	p.mu.Unlock()

	p.log.Debug("Reply ready", "round", msg.Round, "length", len(content))
	return p.publisher.Publish(ctx, p.cfg.Manager.Channel(), domain.NewReply(msg.Round, reply))
}

// conversation drops what the window left before the first prompt,
// providers reject a conversation opening on the assistant side.
func conversation(items []domain.Utterance) []domain.Utterance {
	return lo.DropWhile(items, func(u domain.Utterance) bool {
		return u.Role != domain.RoleUser
	})
}

func (p *Participant) complete(ctx context.Context, input []domain.Utterance) (string, error) {
	if p.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.CallTimeout)
		defer cancel()
	}
	content, err := p.client.Complete(ctx, input)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(content) == "" {
		return "", errors.ErrEmptyCompletion
	}
	return content, nil
}

// fail never retries. Under the quorum policy the manager is told so it can
// count an abstention; the error still goes back to the bus.
func (p *Participant) fail(ctx context.Context, round uint64, cause error) error {
	err := fmt.Errorf("%w: %s round %d: %w", errors.ErrTransport, p.cfg.Identity, round, cause)
	p.log.Error("Model call failed", "round", round, "policy", p.cfg.Policy, "error", cause)

	if p.cfg.Policy == PolicyQuorum {
		failure := domain.NewFailure(p.cfg.Identity, round, cause.Error())
		if perr := p.publisher.Publish(ctx, p.cfg.Manager.Channel(), failure); perr != nil {
			p.log.Error("Failure report not delivered", "round", round, "error", perr)
		}
	}
	return err
}
