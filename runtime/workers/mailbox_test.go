package workers

import (
	"context"
	"debate-lab/contract"
	"debate-lab/domain"
	"debate-lab/mocks"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestMailbox_Delivers_In_Post_Order(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	var mu sync.Mutex
	var received []string
	done := make(chan struct{})
	handler := contract.HandlerFunc(func(ctx context.Context, msg domain.Message) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, msg.Utterance.Content)
		if len(received) == 10 {
			close(done)
		}
		return nil
	})
	mailbox := NewMailbox("A", handler, log)

	// Given ten messages posted before the worker runs
	for i := 0; i < 10; i++ {
		req.True(mailbox.Post(domain.NewSeed(fmt.Sprintf("m%d", i))))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = mailbox.Run(ctx) }()

	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("messages not delivered in time")
	}

	// Then they are handled in the order they were posted
	mu.Lock()
	defer mu.Unlock()
	for i, content := range received {
		req.Equal(fmt.Sprintf("m%d", i), content)
	}
}

func TestMailbox_Close_Finishes_In_Flight_And_Discards_Queue(t *testing.T) {
	req := require.New(t)
	log := slog.New(slog.DiscardHandler)
	ctrl := gomock.NewController(t)
	handler := mocks.NewMockHandler(ctrl)

	started := make(chan struct{})
	release := make(chan struct{})
	// Only the first message is ever handled
	handler.EXPECT().Handle(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, msg domain.Message) error {
			close(started)
			<-release
			return nil
		}).
		Times(1)

	mailbox := NewMailbox("A", handler, log)
	mailbox.Post(domain.NewSeed("first"))
	mailbox.Post(domain.NewSeed("second"))

	finished := make(chan error, 1)
	go func() { finished <- mailbox.Run(context.Background()) }()
	<-started

	// When the mailbox is closed during the first invocation
	mailbox.Close()
	req.False(mailbox.Post(domain.NewSeed("late")))

	// Then the worker waits for the in-flight handler
	select {
	case <-finished:
		req.Fail("worker returned before in-flight handler finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case err := <-finished:
		req.NoError(err)
	case <-time.After(time.Second):
		req.Fail("worker did not stop")
	}
	req.Zero(mailbox.Len())
}

func TestMailbox_Handler_Error_Does_Not_Stop_Worker(t *testing.T) {
	req := require.New(t)
	log := slog.New(slog.DiscardHandler)
	ctrl := gomock.NewController(t)
	handler := mocks.NewMockHandler(ctrl)

	done := make(chan struct{})
	gomock.InOrder(
		handler.EXPECT().Handle(gomock.Any(), gomock.Any()).Return(fmt.Errorf("boom")),
		handler.EXPECT().Handle(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, msg domain.Message) error {
				close(done)
				return nil
			}),
	)

	mailbox := NewMailbox("A", handler, log)
	mailbox.Post(domain.NewSeed("one"))
	mailbox.Post(domain.NewSeed("two"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = mailbox.Run(ctx) }()

	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("second message not handled")
	}
}
