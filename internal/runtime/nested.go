package runtime

import "context"

// Nest adapts an inner loop into a single opaque step of an outer loop.
//
// The outer loop never reaches into the inner loop's private state: build
// constructs a fresh inner loop (with its own, independent iteration
// budget), project derives the inner trigger from the outer state, and
// merge folds the inner Outcome — decision first — back into the outer
// state. An inner DecisionExhausted must never satisfy the outer end
// condition; merge implementations route a "no confident answer" message
// to the reviewer instead and leave the outer state unapproved.
func Nest[Outer, Inner any](
	name string,
	build func() *Loop[Inner],
	project func(Outer) any,
	merge func(ctx context.Context, sc *Scope, state Outer, inner Outcome[Inner]) (Outer, error),
) Step[Outer] {
	return Step[Outer]{
		Name: name,
		Run: func(ctx context.Context, sc *Scope, state Outer) (Outer, error) {
			inner := build()
			outcome, err := inner.Run(ctx, sc, project(state))
			if err != nil {
				return state, err
			}
			return merge(ctx, sc, state, outcome)
		},
	}
}
