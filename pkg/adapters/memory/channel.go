package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/aretw0/concord/pkg/domain"
)

// inboxDepth bounds how many unconsumed reviewer messages a session may
// queue before Post starts rejecting.
const inboxDepth = 64

// ErrInboxFull is returned by Post when the reviewer side outpaces the
// engine beyond the inbox buffer.
var ErrInboxFull = errors.New("session inbox is full")

// Channel implements ports.Channel for one in-process session. Reviewer
// messages enqueue through Post and are consumed exactly once, in order,
// by Receive; both directions are recorded in a transcript for display
// surfaces to poll.
type Channel struct {
	inbox chan domain.Message

	mu         sync.RWMutex
	transcript []domain.Message
}

// NewChannel creates an empty per-session channel.
func NewChannel() *Channel {
	return &Channel{
		inbox: make(chan domain.Message, inboxDepth),
	}
}

// Send delivers an engine-authored message to the transcript. It never
// blocks on the reviewer.
func (c *Channel) Send(ctx context.Context, msg domain.Message) error {
	c.record(msg)
	return nil
}

// Receive blocks until the next reviewer message arrives or the context is
// cancelled. A message handed out here is gone from the queue: no replay,
// no skipping.
func (c *Channel) Receive(ctx context.Context) (domain.Message, error) {
	select {
	case msg := <-c.inbox:
		return msg, nil
	case <-ctx.Done():
		return domain.Message{}, ctx.Err()
	}
}

// Post enqueues a reviewer-authored message for the engine and records it
// in the transcript.
func (c *Channel) Post(msg domain.Message) error {
	select {
	case c.inbox <- msg:
		c.record(msg)
		return nil
	default:
		return ErrInboxFull
	}
}

// Pending reports how many posted messages the engine has not consumed
// yet.
func (c *Channel) Pending() int {
	return len(c.inbox)
}

// Transcript returns a copy of all messages seen so far, in order.
func (c *Channel) Transcript() []domain.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Message(nil), c.transcript...)
}

func (c *Channel) record(msg domain.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transcript = append(c.transcript, msg)
}
