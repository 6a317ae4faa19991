// Package domain contains core concepts of the group chat.
// This file defines identities, channels and related invariants.
// No runtime, network, or UI logic should be added here.
package domain

// Identity names a participant or the manager.
// It is used both as channel name and as message attribution.
type Identity string

// Channel is a named topic on the message bus.
type Channel string

// UserIdentity marks utterances coming from outside the group chat.
const UserIdentity Identity = "User"

// Channel returns the private channel an identity listens on.
func (i Identity) Channel() Channel {
	return Channel(i)
}

func (i Identity) String() string {
	return string(i)
}
