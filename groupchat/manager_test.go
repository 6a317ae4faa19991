package groupchat

import (
	"context"
	"debate-lab/domain"
	"debate-lab/domain/event"
	"debate-lab/errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

type published struct {
	channel domain.Channel
	msg     domain.Message
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, channel domain.Channel, msg domain.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{channel: channel, msg: msg})
	return nil
}

func (f *fakePublisher) drain() []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.sent
	f.sent = nil
	return out
}

type captureSink struct {
	mu     sync.Mutex
	events []event.Event
}

func (c *captureSink) Consume(_ context.Context, e event.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *captureSink) ofType(t event.Type) []event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return lo.Filter(c.events, func(e event.Event, _ int) bool { return e.Type == t })
}

type fixedSelector int

func (f fixedSelector) Select([]domain.Utterance) int { return int(f) }

func newTestManager(t *testing.T, timeout time.Duration) (*Manager, *fakePublisher, *captureSink) {
	t.Helper()
	pub, sink := &fakePublisher{}, &captureSink{}
	m, err := NewManager(logs.GetLoggerFromLevel(slog.LevelDebug), ManagerConfig{
		Identity:      "Manager",
		GroupChannel:  "group_chat",
		Participants:  []domain.Identity{"A", "B"},
		RoundTimeout:  timeout,
		HistoryWindow: 50,
		Session:       "test",
	}, pub, FirstSelector{}, sink)
	require.NoError(t, err)
	return m, pub, sink
}

func reply(source domain.Identity, round uint64, content string) domain.Message {
	return domain.NewReply(round, domain.Utterance{Source: source, Content: content, Role: domain.RoleAssistant})
}

func channelsOf(sent []published) []domain.Channel {
	return lo.Map(sent, func(p published, _ int) domain.Channel { return p.channel })
}

func TestManager_Seed_Broadcasts_To_Every_Participant(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	m, pub, sink := newTestManager(t, 0)

	// When the seed arrives
	req.NoError(m.Handle(ctx, domain.NewSeed("Hello")))

	// Then each participant channel gets the round 1 prompt
	sent := pub.drain()
	req.ElementsMatch([]domain.Channel{"A", "B"}, channelsOf(sent))
	for _, p := range sent {
		req.Equal(domain.KindManagerPrompt, p.msg.Kind)
		req.Equal(uint64(1), p.msg.Round)
		req.Equal("Hello", p.msg.Utterance.Content)
		req.Equal(domain.Identity("Manager"), p.msg.Utterance.Source)
	}
	status := m.Status()
	req.Equal(domain.StateAwaitingResponses, status.State)
	req.ElementsMatch([]domain.Identity{"A", "B"}, status.Pending)
	req.Len(sink.ofType(event.RoundStartedType), 1)
}

func TestManager_Complete_Round_Broadcasts_Winner(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	m, pub, sink := newTestManager(t, 0)
	req.NoError(m.Handle(ctx, domain.NewSeed("Hello")))
	pub.drain()

	// Given one reply, the round is still open
	req.NoError(m.Handle(ctx, reply("B", 1, "from B")))
	req.Empty(pub.drain())
	req.Equal(1, m.Status().Collected)

	// When the last reply arrives
	req.NoError(m.Handle(ctx, reply("A", 1, "from A")))

	// Then the first arrival wins and is broadcast as round 2
	sent := pub.drain()
	req.ElementsMatch([]domain.Channel{"group_chat", "A", "B"}, channelsOf(sent))
	for _, p := range sent {
		req.Equal(uint64(2), p.msg.Round)
		req.Equal("from B", p.msg.Utterance.Content)
	}
	completed := sink.ofType(event.RoundCompletedType)
	req.Len(completed, 1)
	payload := completed[0].Payload.(event.RoundCompleted)
	req.Equal(domain.Identity("B"), payload.Winner.Source)
	req.Len(payload.Responses, 2)
	req.Equal(uint64(2), m.Status().Round)
}

func TestManager_Discards_Late_Duplicate_And_Unknown_Replies(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	m, pub, sink := newTestManager(t, 0)
	req.NoError(m.Handle(ctx, domain.NewSeed("Hello")))
	req.NoError(m.Handle(ctx, reply("A", 1, "first")))

	// When A answers twice and a stranger answers
	req.NoError(m.Handle(ctx, reply("A", 1, "again")))
	req.NoError(m.Handle(ctx, reply("C", 1, "stranger")))
	req.NoError(m.Handle(ctx, reply("B", 7, "future")))

	// Then nothing closes the round
	req.Equal(domain.StateAwaitingResponses, m.Status().State)
	req.Equal(1, m.Status().Collected)
	req.Len(sink.ofType(event.ReplyDiscardedType), 3)

	// And a round 1 reply after round 2 opened is late
	req.NoError(m.Handle(ctx, reply("B", 1, "on time")))
	pub.drain()
	req.NoError(m.Handle(ctx, reply("B", 1, "late")))
	req.Equal(uint64(2), m.Status().Round)
	req.Equal(0, m.Status().Collected)
	req.Empty(pub.drain())
}

func TestManager_Failure_Counts_As_Abstention(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	m, pub, sink := newTestManager(t, 0)
	req.NoError(m.Handle(ctx, domain.NewSeed("Hello")))
	pub.drain()

	// When B fails and A answers
	req.NoError(m.Handle(ctx, domain.NewFailure("B", 1, "timeout")))
	req.NoError(m.Handle(ctx, reply("A", 1, "from A")))

	// Then A wins with B abstaining
	sent := pub.drain()
	req.Len(sent, 3)
	req.Equal("from A", sent[0].msg.Utterance.Content)
	abstained := sink.ofType(event.ParticipantAbstainedType)
	req.Len(abstained, 1)
	req.Equal("timeout", abstained[0].Payload.(event.ParticipantAbstained).Reason)
	payload := sink.ofType(event.RoundCompletedType)[0].Payload.(event.RoundCompleted)
	req.Equal([]domain.Identity{"B"}, payload.Abstained)
}

func TestManager_Everybody_Failing_Returns_To_Idle(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	m, pub, sink := newTestManager(t, 0)
	req.NoError(m.Handle(ctx, domain.NewSeed("Hello")))
	pub.drain()

	// When every participant fails
	req.NoError(m.Handle(ctx, domain.NewFailure("A", 1, "boom")))
	req.NoError(m.Handle(ctx, domain.NewFailure("B", 1, "boom")))

	// Then the round fails without a broadcast
	req.Empty(pub.drain())
	req.Len(sink.ofType(event.RoundFailedType), 1)
	req.Equal(domain.StateIdle, m.Status().State)

	// And a new seed opens round 2
	req.NoError(m.Handle(ctx, domain.NewSeed("Again")))
	req.Equal(uint64(2), m.Status().Round)
}

func TestManager_Seed_While_Awaiting_Is_Rejected(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	m, pub, _ := newTestManager(t, 0)
	req.NoError(m.Handle(ctx, domain.NewSeed("Hello")))
	pub.drain()

	err := m.Handle(ctx, domain.NewSeed("Other"))

	req.ErrorIs(err, errors.ErrRoundInProgress)
	req.Empty(pub.drain())
	req.Equal(uint64(1), m.Status().Round)
}

func TestManager_Terminate_Is_Recorded_Without_Broadcast(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	m, pub, sink := newTestManager(t, 0)

	// When the conversation starts with the terminate token
	req.NoError(m.Handle(ctx, domain.NewSeed("TERMINATE")))

	// Then nothing is broadcast and the token stays in history
	req.Empty(pub.drain())
	req.Equal(domain.StateIdle, m.Status().State)
	req.Len(sink.ofType(event.ConversationTerminatedType), 1)
	history := m.History()
	req.Len(history, 1)
	req.Equal("TERMINATE", history[0].Content)
}

func TestManager_Terminate_Reply_Does_Not_Settle_Round(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	m, pub, sink := newTestManager(t, 0)
	req.NoError(m.Handle(ctx, domain.NewSeed("Hello")))
	pub.drain()

	req.NoError(m.Handle(ctx, reply("A", 1, "terminate")))

	req.Empty(pub.drain())
	status := m.Status()
	req.Equal(domain.StateIdle, status.State)
	req.True(status.Terminated)
	req.Equal(0, status.Collected)
	terminated := sink.ofType(event.ConversationTerminatedType)
	req.Len(terminated, 1)
	req.Equal(domain.Identity("A"), terminated[0].Payload.(event.ConversationTerminated).By)

	// And the remaining reply never completes the round
	req.NoError(m.Handle(ctx, reply("B", 1, "from B")))
	req.Empty(pub.drain())
	req.Empty(sink.ofType(event.RoundCompletedType))
}

func TestManager_Terminate_Disarms_Round_Deadline(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	m, pub, sink := newTestManager(t, 20*time.Millisecond)
	req.NoError(m.Handle(ctx, domain.NewSeed("Hello")))
	pub.drain()

	// Given a participant ends the conversation mid-round
	req.NoError(m.Handle(ctx, reply("A", 1, "terminate")))

	// When a deadline for that round is delivered anyway
	req.NoError(m.Handle(ctx, domain.NewRoundDeadline("Manager", 1)))
	time.Sleep(50 * time.Millisecond)

	// Then no round is completed nor started
	req.Empty(pub.drain())
	req.Empty(sink.ofType(event.ParticipantAbstainedType))
	req.Empty(sink.ofType(event.RoundCompletedType))
	req.Len(sink.ofType(event.RoundStartedType), 1)
	req.Equal(uint64(1), m.Status().Round)
}

func TestManager_Single_Participant_Completes_On_First_Reply(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	pub, sink := &fakePublisher{}, &captureSink{}
	m, err := NewManager(logs.GetLoggerFromLevel(slog.LevelError), ManagerConfig{
		Identity:     "Manager",
		GroupChannel: "group_chat",
		Participants: []domain.Identity{"A"},
		Session:      "test",
	}, pub, FirstSelector{}, sink)
	req.NoError(err)
	req.NoError(m.Handle(ctx, domain.NewSeed("Hello")))
	req.Equal([]domain.Channel{"A"}, channelsOf(pub.drain()))

	// When the only participant replies
	req.NoError(m.Handle(ctx, reply("A", 1, "from A")))

	// Then the round completes at once and round 2 goes to the group and to A
	completed := sink.ofType(event.RoundCompletedType)
	req.Len(completed, 1)
	req.Len(completed[0].Payload.(event.RoundCompleted).Responses, 1)
	sent := pub.drain()
	req.Equal([]domain.Channel{"group_chat", "A"}, channelsOf(sent))
	for _, p := range sent {
		req.Equal(uint64(2), p.msg.Round)
		req.Equal("from A", p.msg.Utterance.Content)
	}
}

func TestManager_Ignores_Own_Broadcast(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	m, pub, _ := newTestManager(t, 0)
	req.NoError(m.Handle(ctx, domain.NewSeed("Hello")))
	pub.drain()

	req.NoError(m.Handle(ctx, domain.NewManagerPrompt("Manager", 1, "Hello")))

	req.Equal(0, m.Status().Collected)
	req.Len(m.History(), 1)
}

func TestManager_Deadline_Abstains_Pending_Participants(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	m, pub, sink := newTestManager(t, 20*time.Millisecond)
	req.NoError(m.Handle(ctx, domain.NewSeed("Hello")))
	pub.drain()
	req.NoError(m.Handle(ctx, reply("A", 1, "from A")))

	// Given the deadline fires on the manager's own channel
	var deadline domain.Message
	req.Eventually(func() bool {
		for _, p := range pub.drain() {
			if p.msg.Kind == domain.KindRoundDeadline {
				req.Equal(domain.Channel("Manager"), p.channel)
				deadline = p.msg
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	// When the manager handles it
	req.NoError(m.Handle(ctx, deadline))

	// Then B abstains and A wins
	abstained := sink.ofType(event.ParticipantAbstainedType)
	req.Len(abstained, 1)
	req.Equal(domain.Identity("B"), abstained[0].Payload.(event.ParticipantAbstained).Participant)
	req.Equal(uint64(2), m.Status().Round)

	// And a stale deadline is ignored
	req.NoError(m.Handle(ctx, deadline))
	req.Equal(uint64(2), m.Status().Round)
}

func TestManager_Invalid_Selection_Falls_Back_To_First(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	pub := &fakePublisher{}
	m, err := NewManager(logs.GetLoggerFromLevel(slog.LevelDebug), ManagerConfig{
		Identity:     "Manager",
		GroupChannel: "group_chat",
		Participants: []domain.Identity{"A", "B"},
	}, pub, fixedSelector(5), nil)
	req.NoError(err)

	req.NoError(m.Handle(ctx, domain.NewSeed("Hello")))
	req.NoError(m.Handle(ctx, reply("B", 1, "from B")))
	pub.drain()
	req.NoError(m.Handle(ctx, reply("A", 1, "from A")))

	req.Equal("from B", pub.drain()[0].msg.Utterance.Content)
}

func TestManager_Broadcast_Error_Is_Returned(t *testing.T) {
	req := require.New(t)
	m, pub, _ := newTestManager(t, 0)
	pub.err = errors.ErrBusStopped

	err := m.Handle(context.Background(), domain.NewSeed("Hello"))

	req.ErrorIs(err, errors.ErrBusStopped)
}

func TestNewManager_Rejects_Bad_Membership(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelError)
	tests := []struct {
		name         string
		participants []domain.Identity
		want         error
	}{
		{"no participants", nil, errors.ErrNoParticipants},
		{"duplicates", []domain.Identity{"A", "A"}, errors.ErrDuplicateIdentity},
		{"manager as participant", []domain.Identity{"A", "Manager"}, errors.ErrDuplicateIdentity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewManager(log, ManagerConfig{Identity: "Manager", Participants: tt.participants}, &fakePublisher{}, nil, nil)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestManager_Stops_At_Round_Limit(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	pub := &fakePublisher{}
	m, err := NewManager(logs.GetLoggerFromLevel(slog.LevelDebug), ManagerConfig{
		Identity:     "Manager",
		GroupChannel: "group_chat",
		Participants: []domain.Identity{"A"},
		MaxRounds:    1,
	}, pub, FirstSelector{}, nil)
	req.NoError(err)

	req.NoError(m.Handle(ctx, domain.NewSeed("Hello")))
	pub.drain()
	req.NoError(m.Handle(ctx, reply("A", 1, "done")))

	// Then the winner is not broadcast again
	req.Empty(pub.drain())
	req.Equal(domain.StateIdle, m.Status().State)
}
