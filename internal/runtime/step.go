package runtime

import "context"

// StepFunc is the atomic unit of loop work. It consumes the loop's current
// private state and returns the next state. Steps may talk to the reviewer
// through the scope's channel and may commit results into shared session
// state; they must never mutate the input state value in place.
type StepFunc[S any] func(ctx context.Context, sc *Scope, state S) (S, error)

// Step names a StepFunc so events and logs can identify it.
type Step[S any] struct {
	Name string
	Run  StepFunc[S]
}
