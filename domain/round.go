package domain

import (
	"debate-lab/errors"
	"fmt"
	"time"
)

type RoundState string

const (
	StateIdle              RoundState = "IDLE"
	StateAwaitingResponses RoundState = "AWAITING_RESPONSES"
)

// ConversationRound tracks who is expected to answer a prompt and what came back.
// Each expected identity settles exactly once, either by replying or by abstaining.
type ConversationRound struct {
	Number    uint64
	StartedAt time.Time
	expected  []Identity
	settled   map[Identity]struct{}
	collected []Utterance
	abstained []Identity
}

func NewConversationRound(number uint64, expected []Identity, startedAt time.Time) *ConversationRound {
	order := make([]Identity, len(expected))
	copy(order, expected)
	return &ConversationRound{
		Number:    number,
		StartedAt: startedAt,
		expected:  order,
		settled:   make(map[Identity]struct{}, len(order)),
	}
}

func (r *ConversationRound) isExpected(id Identity) bool {
	for _, e := range r.expected {
		if e == id {
			return true
		}
	}
	return false
}

func (r *ConversationRound) settle(id Identity) error {
	if !r.isExpected(id) {
		return fmt.Errorf("%w: %s", errors.ErrUnexpectedParticipant, id)
	}
	if _, ok := r.settled[id]; ok {
		return fmt.Errorf("%w: %s", errors.ErrAlreadyAnswered, id)
	}
	r.settled[id] = struct{}{}
	return nil
}

// Collect records a reply, in arrival order.
func (r *ConversationRound) Collect(u Utterance) error {
	if err := r.settle(u.Source); err != nil {
		return err
	}
	r.collected = append(r.collected, u)
	return nil
}

// Abstain records that an expected participant will not answer this round.
func (r *ConversationRound) Abstain(id Identity) error {
	if err := r.settle(id); err != nil {
		return err
	}
	r.abstained = append(r.abstained, id)
	return nil
}

// AbstainPending turns every participant that has not settled yet into an abstention.
func (r *ConversationRound) AbstainPending() []Identity {
	pending := r.Pending()
	for _, id := range pending {
		_ = r.Abstain(id)
	}
	return pending
}

// Pending lists expected participants that neither replied nor abstained.
func (r *ConversationRound) Pending() []Identity {
	var pending []Identity
	for _, id := range r.expected {
		if _, ok := r.settled[id]; !ok {
			pending = append(pending, id)
		}
	}
	return pending
}

// Complete is true once every expected participant has settled.
func (r *ConversationRound) Complete() bool {
	return len(r.settled) == len(r.expected)
}

func (r *ConversationRound) Responses() []Utterance {
	out := make([]Utterance, len(r.collected))
	copy(out, r.collected)
	return out
}

func (r *ConversationRound) Abstained() []Identity {
	out := make([]Identity, len(r.abstained))
	copy(out, r.abstained)
	return out
}

func (r *ConversationRound) Expected() []Identity {
	out := make([]Identity, len(r.expected))
	copy(out, r.expected)
	return out
}
