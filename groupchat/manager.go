// Package groupchat implements the turn-taking protocol of the debate:
// a Manager that runs rounds and the Participants that answer them.
package groupchat

import (
	"context"
	"debate-lab/contract"
	"debate-lab/domain"
	"debate-lab/domain/event"
	"debate-lab/errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"
)

const deadlineReason = "round deadline exceeded"

type ManagerConfig struct {
	Identity     domain.Identity
	GroupChannel domain.Channel
	Participants []domain.Identity
	// RoundTimeout closes a round with abstentions once elapsed. Zero waits forever.
	RoundTimeout time.Duration
	// MaxRounds stops the debate after that many completed rounds. Zero never stops.
	MaxRounds     uint64
	HistoryWindow int
	Session       string
}

// Status is a point-in-time view of the manager's round.
type Status struct {
	State      domain.RoundState
	Round      uint64
	Collected  int
	Pending    []domain.Identity
	Terminated bool
}

// Manager runs the rounds of a group chat.
//
// It broadcasts a prompt to every participant, waits until each of them
// replied or abstained, picks a winner through its Selector and broadcasts
// the winner as the next prompt. Handle must be called from a single
// goroutine; the bus guarantees it.
type Manager struct {
	log       *slog.Logger
	cfg       ManagerConfig
	publisher contract.Publisher
	selector  contract.Selector
	sink      contract.EventSink
	now       func() time.Time

	mu         sync.Mutex
	state      domain.RoundState
	round      *domain.ConversationRound
	lastRound  uint64
	history    *domain.ChatHistory
	timer      *time.Timer
	terminated bool
}

func NewManager(log *slog.Logger, cfg ManagerConfig, publisher contract.Publisher,
	selector contract.Selector, sink contract.EventSink) (*Manager, error) {
	if len(cfg.Participants) == 0 {
		return nil, errors.ErrNoParticipants
	}
	if dups := lo.FindDuplicates(cfg.Participants); len(dups) > 0 {
		return nil, fmt.Errorf("%w: %v", errors.ErrDuplicateIdentity, dups)
	}
	if lo.Contains(cfg.Participants, cfg.Identity) {
		return nil, fmt.Errorf("%w: manager %s is also a participant", errors.ErrDuplicateIdentity, cfg.Identity)
	}
	if selector == nil {
		selector = FirstSelector{}
	}
	return &Manager{
		log:       log.With("manager", string(cfg.Identity)),
		cfg:       cfg,
		publisher: publisher,
		selector:  selector,
		sink:      sink,
		now:       time.Now,
		state:     domain.StateIdle,
		history:   domain.NewChatHistory(cfg.HistoryWindow),
	}, nil
}

func (m *Manager) Identity() domain.Identity {
	return m.cfg.Identity
}

func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := Status{State: m.state, Round: m.lastRound, Terminated: m.terminated}
	if m.round != nil {
		status.Collected = len(m.round.Responses())
		status.Pending = m.round.Pending()
	}
	return status
}

func (m *Manager) History() []domain.Utterance {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history.Items()
}

func (m *Manager) Handle(ctx context.Context, msg domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Our own broadcasts echoed back never count as a reply.
	if msg.Kind == domain.KindManagerPrompt && msg.Utterance.Source == m.cfg.Identity {
		return nil
	}
	if m.terminated {
		m.log.Debug("Conversation terminated, ignoring message", "kind", msg.Kind, "from", string(msg.Utterance.Source))
		return nil
	}
	if msg.Kind.CarriesContent() {
		m.history.Append(msg.Utterance)
	}
	if msg.IsTerminate() {
		m.log.Info("Terminate received", "from", string(msg.Utterance.Source), "round", m.lastRound)
		// the open round is abandoned, no deadline may complete it later
		m.terminated = true
		m.stopDeadline()
		m.round = nil
		m.state = domain.StateIdle
		m.emit(ctx, event.ConversationTerminatedType, event.ConversationTerminated{
			Round: m.lastRound,
			By:    msg.Utterance.Source,
		})
		return nil
	}

	switch msg.Kind {
	case domain.KindSeedPrompt:
		return m.seed(ctx, msg)
	case domain.KindParticipantReply:
		return m.collect(ctx, msg)
	case domain.KindParticipantFailure:
		return m.abstain(ctx, msg)
	case domain.KindRoundDeadline:
		return m.expire(ctx, msg)
	default:
		m.log.Debug("Ignoring message", "kind", msg.Kind, "from", string(msg.Utterance.Source))
		return nil
	}
}

func (m *Manager) seed(ctx context.Context, msg domain.Message) error {
	if m.state == domain.StateAwaitingResponses {
		m.log.Warn("Seed ignored, round in progress", "round", m.round.Number)
		return fmt.Errorf("%w: round %d", errors.ErrRoundInProgress, m.round.Number)
	}
	return m.startRound(ctx, msg.Utterance.Content, false)
}

// startRound opens round n+1 and broadcasts its prompt.
// The group channel only carries winners; seeds go to participants directly.
func (m *Manager) startRound(ctx context.Context, content string, toGroup bool) error {
	m.lastRound++
	number := m.lastRound
	prompt := domain.NewManagerPrompt(m.cfg.Identity, number, content)

	m.round = domain.NewConversationRound(number, m.cfg.Participants, m.now())
	m.state = domain.StateAwaitingResponses
	m.armDeadline(number)

	m.emit(ctx, event.RoundStartedType, event.RoundStarted{
		Round:    number,
		Prompt:   prompt.Utterance,
		Expected: m.round.Expected(),
	})

	channels := make([]domain.Channel, 0, len(m.cfg.Participants)+1)
	if toGroup {
		channels = append(channels, m.cfg.GroupChannel)
	}
	for _, p := range m.cfg.Participants {
		channels = append(channels, p.Channel())
	}

	var firstErr error
	for _, channel := range channels {
		if err := m.publisher.Publish(ctx, channel, prompt); err != nil {
			m.log.Error("Broadcast failed", "channel", string(channel), "round", number, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("broadcast round %d to %s: %w", number, channel, err)
			}
		}
	}
	return firstErr
}

func (m *Manager) currentRound(round uint64) bool {
	return m.state == domain.StateAwaitingResponses && m.round != nil && m.round.Number == round
}

func (m *Manager) collect(ctx context.Context, msg domain.Message) error {
	source := msg.Utterance.Source
	if !m.currentRound(msg.Round) {
		m.discard(ctx, msg, "reply outside the current round")
		return nil
	}
	if err := m.round.Collect(msg.Utterance); err != nil {
		m.discard(ctx, msg, err.Error())
		return nil
	}
	m.log.Debug("Reply collected",
		"round", msg.Round,
		"participant", string(source),
		"pending", len(m.round.Pending()))
	return m.completeIfSettled(ctx)
}

func (m *Manager) abstain(ctx context.Context, msg domain.Message) error {
	source := msg.Utterance.Source
	if !m.currentRound(msg.Round) {
		m.discard(ctx, msg, "failure outside the current round")
		return nil
	}
	if err := m.round.Abstain(source); err != nil {
		m.discard(ctx, msg, err.Error())
		return nil
	}
	m.log.Warn("Participant abstained", "round", msg.Round, "participant", string(source), "reason", msg.Reason)
	m.emit(ctx, event.ParticipantAbstainedType, event.ParticipantAbstained{
		Round:       msg.Round,
		Participant: source,
		Reason:      msg.Reason,
	})
	return m.completeIfSettled(ctx)
}

func (m *Manager) expire(ctx context.Context, msg domain.Message) error {
	if !m.currentRound(msg.Round) {
		return nil
	}
	for _, id := range m.round.AbstainPending() {
		m.log.Warn("Participant abstained", "round", msg.Round, "participant", string(id), "reason", deadlineReason)
		m.emit(ctx, event.ParticipantAbstainedType, event.ParticipantAbstained{
			Round:       msg.Round,
			Participant: id,
			Reason:      deadlineReason,
		})
	}
	return m.completeIfSettled(ctx)
}

func (m *Manager) completeIfSettled(ctx context.Context) error {
	if !m.round.Complete() {
		return nil
	}
	m.stopDeadline()

	round := m.round
	m.round = nil
	responses := round.Responses()
	duration := m.now().Sub(round.StartedAt)

	if len(responses) == 0 {
		m.state = domain.StateIdle
		m.log.Warn("Round failed, nobody answered", "round", round.Number)
		m.emit(ctx, event.RoundFailedType, event.RoundFailed{
			Round:     round.Number,
			Abstained: round.Abstained(),
			Duration:  duration,
		})
		return nil
	}

	idx := m.selector.Select(responses)
	if idx < 0 || idx >= len(responses) {
		m.log.Error("Selector returned an invalid index, using the first reply", "index", idx, "candidates", len(responses))
		idx = 0
	}
	winner := responses[idx]

	m.log.Info("Round completed",
		"round", round.Number,
		"winner", string(winner.Source),
		"responses", len(responses),
		"abstained", len(round.Abstained()),
		"duration_ms", duration.Milliseconds())
	m.emit(ctx, event.RoundCompletedType, event.RoundCompleted{
		Round:     round.Number,
		Winner:    winner,
		Responses: responses,
		Abstained: round.Abstained(),
		Duration:  duration,
	})
	if m.cfg.MaxRounds > 0 && round.Number >= m.cfg.MaxRounds {
		m.state = domain.StateIdle
		m.log.Info("Round limit reached", "rounds", round.Number)
		return nil
	}
	return m.startRound(ctx, winner.Content, true)
}

func (m *Manager) discard(ctx context.Context, msg domain.Message, reason string) {
	m.log.Debug("Message discarded",
		"kind", msg.Kind,
		"round", msg.Round,
		"participant", string(msg.Utterance.Source),
		"reason", reason)
	m.emit(ctx, event.ReplyDiscardedType, event.ReplyDiscarded{
		Round:       msg.Round,
		Participant: msg.Utterance.Source,
		Reason:      reason,
	})
}

func (m *Manager) armDeadline(round uint64) {
	m.stopDeadline()
	if m.cfg.RoundTimeout <= 0 {
		return
	}
	deadline := domain.NewRoundDeadline(m.cfg.Identity, round)
	m.timer = time.AfterFunc(m.cfg.RoundTimeout, func() {
		if err := m.publisher.Publish(context.Background(), m.cfg.Identity.Channel(), deadline); err != nil {
			m.log.Debug("Round deadline not delivered", "round", round, "error", err)
		}
	})
}

func (m *Manager) stopDeadline() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Manager) emit(ctx context.Context, t event.Type, payload any) {
	if m.sink == nil {
		return
	}
	if err := m.sink.Consume(ctx, event.New(t, m.cfg.Session, payload)); err != nil {
		m.log.Warn("Event sink failed", "type", t, "error", err)
	}
}
