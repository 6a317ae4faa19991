package sink

import (
	"bytes"
	"context"
	"debate-lab/domain"
	"debate-lab/domain/event"
	"debate-lab/mocks"
	"debate-lab/repositories"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func completed() event.Event {
	return event.New(event.RoundCompletedType, "session-1", event.RoundCompleted{
		Round:  2,
		Winner: domain.Utterance{Source: "Obama", Content: "Yes we can build a better future together."},
		Responses: []domain.Utterance{
			{Source: "Trump", Content: "We will make it great again, believe me."},
			{Source: "Obama", Content: "Yes we can build a better future together."},
		},
		Abstained: []domain.Identity{"Biden"},
		Duration:  1500 * time.Millisecond,
	})
}

func TestFanout_Delivers_To_Every_Sink(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	first, second := mocks.NewMockEventSink(ctrl), mocks.NewMockEventSink(ctrl)
	fanout := NewFanout(logs.GetLoggerFromLevel(slog.LevelDebug), time.Second, first).Add(second)

	// Given the first sink fails
	first.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(fmt.Errorf("disk full"))
	second.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(nil)

	// When an event is fanned out
	err := fanout.Consume(context.Background(), completed())

	// Then the second sink still gets it and the failure is reported
	req.ErrorContains(err, "disk full")
}

func TestFanout_Bounds_Slow_Sinks(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	slow := mocks.NewMockEventSink(ctrl)
	fanout := NewFanout(logs.GetLoggerFromLevel(slog.LevelDebug), 20*time.Millisecond, slow)

	slow.EXPECT().Consume(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ event.Event) error {
			<-ctx.Done() // Waiting for timeout to trigger cancellation
			return ctx.Err()
		})

	start := time.Now()
	err := fanout.Consume(context.Background(), completed())

	req.ErrorIs(err, context.DeadlineExceeded)
	req.Less(time.Since(start), time.Second)
}

func TestConsole_Prints_Replies_And_Winner(t *testing.T) {
	req := require.New(t)
	var out bytes.Buffer
	console := NewConsole(&out, false)
	ctx := context.Background()

	req.NoError(console.Consume(ctx, event.New(event.RoundStartedType, "s", event.RoundStarted{
		Round:  1,
		Prompt: domain.Utterance{Source: "Manager", Content: "Hello"},
	})))
	req.NoError(console.Consume(ctx, completed()))
	req.NoError(console.Consume(ctx, event.New(event.ConversationTerminatedType, "s", event.ConversationTerminated{By: "User"})))

	printed := out.String()
	req.Contains(printed, "round 1")
	req.Contains(printed, "Manager: Hello")
	req.Contains(printed, "Trump: We will make it great again, believe me.\n")
	req.Contains(printed, "Obama: Yes we can build a better future together.  (selected)")
	req.Contains(printed, "terminated by User")
}

func TestTranscript_Stores_Completed_Rounds_Only(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	repository := mocks.NewMockITranscriptRepository(ctrl)
	transcript := NewTranscript(repository, logs.GetLoggerFromLevel(slog.LevelDebug))

	var stored repositories.DiskTurn
	repository.EXPECT().StoreTurn(gomock.Any()).DoAndReturn(func(turn repositories.DiskTurn) error {
		stored = turn
		return nil
	}).Times(1)

	req.NoError(transcript.Consume(context.Background(), event.New(event.RoundFailedType, "session-1", event.RoundFailed{Round: 1})))
	req.NoError(transcript.Consume(context.Background(), completed()))

	req.Equal("session-1", stored.Session)
	req.Equal(uint64(2), stored.Round)
	req.Equal("Obama", stored.Winner)
	req.Len(stored.Responses, 2)
	req.Equal([]string{"Biden"}, stored.Abstained)
}

func TestDetectLang(t *testing.T) {
	req := require.New(t)
	req.Equal("fr", DetectLang("Bonjour à tous, je suis très heureux de vous retrouver aujourd'hui pour parler de l'avenir."))
	req.NoError(NewLog(logs.GetLoggerFromLevel(slog.LevelDebug)).Consume(context.Background(), completed()))
}
