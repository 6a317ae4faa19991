// Package domain contains core concepts of the group chat.
// This file defines the tagged messages exchanged over the bus.
// Messages are immutable and validated at the bus boundary.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Kind is the discriminant of a Message.
type Kind string

const (
	KindSeedPrompt         Kind = "SEED_PROMPT"
	KindManagerPrompt      Kind = "MANAGER_PROMPT"
	KindParticipantReply   Kind = "PARTICIPANT_REPLY"
	KindParticipantFailure Kind = "PARTICIPANT_FAILURE"
	KindRoundDeadline      Kind = "ROUND_DEADLINE"
	KindTerminate          Kind = "TERMINATE"
)

// CarriesContent reports whether messages of this kind must hold a full Utterance.
// Failures and deadlines only carry their source.
func (k Kind) CarriesContent() bool {
	switch k {
	case KindParticipantFailure, KindRoundDeadline:
		return false
	default:
		return true
	}
}

type Message struct {
	ID        uuid.UUID `validate:"required"`
	Kind      Kind      `validate:"required,oneof=SEED_PROMPT MANAGER_PROMPT PARTICIPANT_REPLY PARTICIPANT_FAILURE ROUND_DEADLINE TERMINATE"`
	Round     uint64
	Utterance Utterance `validate:"-"`
	Reason    string
	SentAt    time.Time
}

// IsTerminate is true for explicit TERMINATE messages and for any content equal to the token.
func (m Message) IsTerminate() bool {
	return m.Kind == KindTerminate || (m.Kind.CarriesContent() && m.Utterance.IsTerminate())
}

func newMessage(kind Kind, round uint64, u Utterance) Message {
	return Message{
		ID:        uuid.New(),
		Kind:      kind,
		Round:     round,
		Utterance: u,
		SentAt:    time.Now().UTC(),
	}
}

// NewSeed builds the external entry message. The terminate token produces a TERMINATE message.
func NewSeed(content string) Message {
	u := Utterance{Source: UserIdentity, Content: content, Role: RoleUser}
	if u.IsTerminate() {
		return newMessage(KindTerminate, 0, u)
	}
	return newMessage(KindSeedPrompt, 0, u)
}

func NewManagerPrompt(manager Identity, round uint64, content string) Message {
	return newMessage(KindManagerPrompt, round, Utterance{Source: manager, Content: content, Role: RoleUser})
}

func NewReply(round uint64, u Utterance) Message {
	return newMessage(KindParticipantReply, round, u)
}

func NewFailure(participant Identity, round uint64, reason string) Message {
	m := newMessage(KindParticipantFailure, round, Utterance{Source: participant, Role: RoleSystem})
	m.Reason = reason
	return m
}

func NewRoundDeadline(manager Identity, round uint64) Message {
	return newMessage(KindRoundDeadline, round, Utterance{Source: manager, Role: RoleSystem})
}
