package ports

import (
	"context"

	"github.com/aretw0/concord/pkg/domain"
)

// Channel is one session's message channel between the engine and the human
// reviewer. Implementations are addressable per session: two sessions never
// share a channel.
type Channel interface {
	// Send delivers an agent- or system-authored message to the display
	// surface. Fire-and-forget: it must not block on the reviewer.
	Send(ctx context.Context, msg domain.Message) error

	// Receive blocks until the next reviewer-authored message is available
	// and atomically marks it consumed. Each message is delivered exactly
	// once, in order: never replayed, never skipped. Returns ctx.Err()
	// when the context is cancelled while waiting.
	Receive(ctx context.Context) (domain.Message, error)
}
