package runtime

import (
	"debate-lab/domain"
	"debate-lab/errors"
	"debate-lab/runtime/workers"
	"fmt"
	"sync"
)

type Set map[domain.Identity]struct{}

type Registry struct {
	mu        sync.RWMutex
	Mailboxes map[domain.Identity]*workers.Mailbox // map identity -> Mailbox
	Channels  map[domain.Channel]Set               // map channel to subscribed identities
}

func NewRegistry() *Registry {
	return &Registry{
		Mailboxes: make(map[domain.Identity]*workers.Mailbox),
		Channels:  make(map[domain.Channel]Set),
	}
}

// Register binds an identity to its mailbox. Identities are unique.
func (r *Registry) Register(identity domain.Identity, mailbox *workers.Mailbox) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.Mailboxes[identity]; ok {
		return fmt.Errorf("%w: %s", errors.ErrDuplicateIdentity, identity)
	}
	r.Mailboxes[identity] = mailbox
	return nil
}

// Declare creates a channel that may have no subscriber yet.
func (r *Registry) Declare(channel domain.Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.Channels[channel]; !ok {
		r.Channels[channel] = make(Set)
	}
}

// Subscribe adds an identity to a channel, creating the channel on the fly.
// Subscribing twice is a no-op.
func (r *Registry) Subscribe(channel domain.Channel, identity domain.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.Mailboxes[identity]; !ok {
		return fmt.Errorf("%w: %s", errors.ErrUnknownIdentity, identity)
	}
	if _, ok := r.Channels[channel]; !ok {
		r.Channels[channel] = make(Set)
	}
	r.Channels[channel][identity] = struct{}{}
	return nil
}

func (r *Registry) HasChannel(channel domain.Channel) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.Channels[channel]
	return ok
}

// MailboxesFor resolves the subscribers of a channel into their mailboxes.
// A declared channel without subscribers yields an empty slice.
func (r *Registry) MailboxesFor(channel domain.Channel) ([]*workers.Mailbox, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, ok := r.Channels[channel]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrChannelNotFound, channel)
	}
	mailboxes := make([]*workers.Mailbox, 0, len(members))
	for identity := range members {
		if mailbox, exists := r.Mailboxes[identity]; exists {
			mailboxes = append(mailboxes, mailbox)
		}
	}
	return mailboxes, nil
}

func (r *Registry) AllMailboxes() []*workers.Mailbox {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mailboxes := make([]*workers.Mailbox, 0, len(r.Mailboxes))
	for _, mailbox := range r.Mailboxes {
		mailboxes = append(mailboxes, mailbox)
	}
	return mailboxes
}
