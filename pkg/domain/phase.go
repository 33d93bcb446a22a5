package domain

import "fmt"

// Phase tracks where a negotiation loop sits in the approval protocol.
// All loop variants share the same shape:
//
//	awaiting_input -> proposed -> {awaiting_feedback, approved, exhausted}
//	awaiting_feedback -> proposed
//
// Approved and Exhausted are terminal per loop instance.
type Phase string

const (
	PhaseAwaitingInput    Phase = "awaiting_input"
	PhaseProposed         Phase = "proposed"
	PhaseAwaitingFeedback Phase = "awaiting_feedback"
	PhaseApproved         Phase = "approved"
	PhaseExhausted        Phase = "exhausted"
)

var allowedPhaseTransitions = map[Phase]map[Phase]struct{}{
	PhaseAwaitingInput: {
		PhaseProposed:  {},
		PhaseExhausted: {},
	},
	PhaseProposed: {
		PhaseAwaitingFeedback: {},
		PhaseApproved:         {},
		PhaseExhausted:        {},
	},
	PhaseAwaitingFeedback: {
		PhaseProposed:  {},
		PhaseExhausted: {},
	},
	PhaseApproved:  {},
	PhaseExhausted: {},
}

// Terminal reports whether the phase ends its loop instance.
func (p Phase) Terminal() bool {
	return p == PhaseApproved || p == PhaseExhausted
}

// Transition validates the move from p to next and returns next.
// A violation is a programming error, not a user condition: callers must
// treat the returned ErrInvalidTransition as fatal to the workflow run.
func (p Phase) Transition(next Phase) (Phase, error) {
	if p == next {
		return next, nil
	}
	allowed, ok := allowedPhaseTransitions[p]
	if !ok {
		return p, fmt.Errorf("%w: unknown source phase %q", ErrInvalidTransition, p)
	}
	if _, ok := allowed[next]; !ok {
		return p, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p, next)
	}
	return next, nil
}
