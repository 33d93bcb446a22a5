package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventIterationStart EventType = "iteration_start"
	EventIterationEnd   EventType = "iteration_end"
	EventStepStart      EventType = "step_start"
	EventStepEnd        EventType = "step_end"
	EventLoopEnd        EventType = "loop_end"
	EventCommit         EventType = "commit"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	Loop      string    `json:"loop"`
}

// IterationEvent marks the start or end of one loop iteration.
type IterationEvent struct {
	EventBase
	Iteration int `json:"iteration"`
}

// StepEvent marks the start or end of one step within an iteration.
type StepEvent struct {
	EventBase
	Iteration int    `json:"iteration"`
	Step      string `json:"step"`
	IsError   bool   `json:"is_error,omitempty"`
}

// LoopEvent marks a loop reaching a terminal decision.
type LoopEvent struct {
	EventBase
	Iterations int      `json:"iterations"`
	Decision   Decision `json:"decision"`
}

// CommitEvent marks a set-once write into the shared session state.
type CommitEvent struct {
	EventBase
	Slot string `json:"slot"` // "goal" or "schema"
}

// LifecycleHooks defines callbacks for engine observability.
// Any nil hook is skipped.
type LifecycleHooks struct {
	OnIterationStart func(context.Context, *IterationEvent)
	OnIterationEnd   func(context.Context, *IterationEvent)
	OnStepStart      func(context.Context, *StepEvent)
	OnStepEnd        func(context.Context, *StepEvent)
	OnLoopEnd        func(context.Context, *LoopEvent)
	OnCommit         func(context.Context, *CommitEvent)
}

// Merge returns hooks that invoke h's callback first and then other's,
// skipping nil callbacks on either side.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnIterationStart: chain(h.OnIterationStart, other.OnIterationStart),
		OnIterationEnd:   chain(h.OnIterationEnd, other.OnIterationEnd),
		OnStepStart:      chain(h.OnStepStart, other.OnStepStart),
		OnStepEnd:        chain(h.OnStepEnd, other.OnStepEnd),
		OnLoopEnd:        chain(h.OnLoopEnd, other.OnLoopEnd),
		OnCommit:         chain(h.OnCommit, other.OnCommit),
	}
}

func chain[E any](first, second func(context.Context, *E)) func(context.Context, *E) {
	if first == nil {
		return second
	}
	if second == nil {
		return first
	}
	return func(ctx context.Context, ev *E) {
		first(ctx, ev)
		second(ctx, ev)
	}
}
