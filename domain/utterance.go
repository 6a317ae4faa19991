package domain

import "strings"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// TerminateToken stops the manager from reacting when received as content.
const TerminateToken = "terminate"

// Utterance is one attributed unit of conversational content.
// Utterances are values and must not be mutated once created.
type Utterance struct {
	Source  Identity `validate:"required"`
	Content string   `validate:"required"`
	Role    Role     `validate:"required,oneof=user assistant system"`
}

// IsTerminate reports whether the content is the terminate token, ignoring case.
func (u Utterance) IsTerminate() bool {
	return strings.EqualFold(u.Content, TerminateToken)
}
