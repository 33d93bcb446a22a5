package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/concord/internal/logging"
	"github.com/aretw0/concord/pkg/domain"
	"github.com/aretw0/concord/pkg/ports"
)

// Scope is the per-session execution scope handed to every step: the shared
// session state, the reviewer's message channel, and observability wiring.
// One Scope per workflow run; scopes are never shared across sessions.
type Scope struct {
	SessionID string
	State     *domain.SessionState
	Channel   ports.Channel
	Logger    *slog.Logger
	Hooks     domain.LifecycleHooks
}

// NewScope creates a scope for one session run.
func NewScope(sessionID string, state *domain.SessionState, channel ports.Channel) *Scope {
	return &Scope{
		SessionID: sessionID,
		State:     state,
		Channel:   channel,
		Logger:    logging.NewNop(),
	}
}

func (sc *Scope) logger() *slog.Logger {
	if sc.Logger == nil {
		return logging.NewNop()
	}
	return sc.Logger
}

// Say sends an agent-authored message to the reviewer.
func (sc *Scope) Say(ctx context.Context, content string) error {
	return sc.Channel.Send(ctx, domain.AgentMessage(content))
}

// Notify sends a system-authored message to the reviewer.
func (sc *Scope) Notify(ctx context.Context, content string) error {
	return sc.Channel.Send(ctx, domain.SystemMessage(content))
}

// Listen blocks until the reviewer's next message arrives. The message is
// consumed exactly once; callers own appending it to their loop state.
func (sc *Scope) Listen(ctx context.Context) (domain.Message, error) {
	return sc.Channel.Receive(ctx)
}

// FireCommit reports a set-once write into the shared session state.
func (sc *Scope) FireCommit(ctx context.Context, loop, slot string) {
	if sc.Hooks.OnCommit == nil {
		return
	}
	sc.Hooks.OnCommit(ctx, &domain.CommitEvent{
		EventBase: domain.EventBase{
			Timestamp: time.Now(),
			Type:      domain.EventCommit,
			SessionID: sc.SessionID,
			Loop:      loop,
		},
		Slot: slot,
	})
}
