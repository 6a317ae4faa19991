package llm

import (
	"context"
	"debate-lab/domain"
	"fmt"
	"strings"
	"time"
)

var offlineOpenings = []string{
	"Let me be very clear about %q.",
	"Folks, on %q the answer is simple.",
	"Here's the deal with %q.",
	"I have to disagree on %q.",
}

// Offline answers without any network call. Replies are deterministic for a given conversation.
type Offline struct {
	latency time.Duration
}

func NewOffline(latency time.Duration) *Offline {
	return &Offline{latency: latency}
}

func (o *Offline) Complete(ctx context.Context, messages []domain.Utterance) (string, error) {
	if o.latency > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(o.latency):
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var speaker domain.Identity = "Someone"
	topic := "this"
	turns := 0
	for _, u := range messages {
		switch u.Role {
		case domain.RoleSystem:
			speaker = u.Source
		case domain.RoleUser:
			topic = summarize(u.Content, 60)
			turns++
		}
	}
	opening := fmt.Sprintf(offlineOpenings[(len(speaker)+turns)%len(offlineOpenings)], topic)
	return fmt.Sprintf("%s %s speaking, turn %d.", opening, speaker, turns), nil
}

func summarize(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
