// Package projection builds local timelines from observed events.
// Handles ordering and deduplication of completed rounds.
// Does not emit events or interact with the bus.
package projection

import (
	"context"
	"debate-lab/domain"
	"debate-lab/domain/event"
	"sort"
	"sync"

	"github.com/samber/lo"
)

// Entry is the reply a round settled on.
type Entry struct {
	Round     uint64
	Utterance domain.Utterance
}

// Timeline holds the selected replies of one session in round order.
type Timeline struct {
	mu      sync.Mutex
	Owner   string
	entries []Entry
	closed  bool
}

func NewTimeline(session string) *Timeline {
	return &Timeline{Owner: session}
}

func (t *Timeline) Consume(_ context.Context, e event.Event) error {
	if e.Session != t.Owner {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	switch p := e.Payload.(type) {
	case event.RoundCompleted:
		if lo.ContainsBy(t.entries, func(entry Entry) bool { return entry.Round == p.Round }) {
			return nil
		}
		t.entries = append(t.entries, Entry{Round: p.Round, Utterance: p.Winner})
		sort.Slice(t.entries, func(i, j int) bool { return t.entries[i].Round < t.entries[j].Round })
	case event.ConversationTerminated:
		t.closed = true
	}
	return nil
}

func (t *Timeline) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Entry(nil), t.entries...)
}

// Wins counts the selected replies per participant.
func (t *Timeline) Wins() map[domain.Identity]int {
	return lo.CountValuesBy(t.Entries(), func(entry Entry) domain.Identity {
		return entry.Utterance.Source
	})
}

// Terminated reports whether a terminate message was seen.
func (t *Timeline) Terminated() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}
