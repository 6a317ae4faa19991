// Package event defines what the manager reports about a conversation.
// Events are observations for sinks; they never drive the protocol.
package event

import (
	"debate-lab/domain"
	"time"
)

type Type string

const (
	RoundStartedType           Type = "ROUND_STARTED"
	RoundCompletedType         Type = "ROUND_COMPLETED"
	RoundFailedType            Type = "ROUND_FAILED"
	ParticipantAbstainedType   Type = "PARTICIPANT_ABSTAINED"
	ReplyDiscardedType         Type = "REPLY_DISCARDED"
	ConversationTerminatedType Type = "CONVERSATION_TERMINATED"
)

type Event struct {
	Type      Type
	Session   string
	CreatedAt time.Time
	Payload   any
}

func New(t Type, session string, payload any) Event {
	return Event{Type: t, Session: session, CreatedAt: time.Now().UTC(), Payload: payload}
}

type RoundStarted struct {
	Round    uint64
	Prompt   domain.Utterance
	Expected []domain.Identity
}

type RoundCompleted struct {
	Round     uint64
	Winner    domain.Utterance
	Responses []domain.Utterance
	Abstained []domain.Identity
	Duration  time.Duration
}

type RoundFailed struct {
	Round     uint64
	Abstained []domain.Identity
	Duration  time.Duration
}

type ParticipantAbstained struct {
	Round       uint64
	Participant domain.Identity
	Reason      string
}

type ReplyDiscarded struct {
	Round       uint64
	Participant domain.Identity
	Reason      string
}

type ConversationTerminated struct {
	Round uint64
	By    domain.Identity
}
