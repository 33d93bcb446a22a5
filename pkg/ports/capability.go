package ports

import "context"

// Capability is an opaque request/response operation: given a typed input
// snapshot it returns a typed output (a proposal, a critique, or free text
// plus a decision flag). It stands in for any "agent" call — remote model,
// local heuristic, or a scripted stub in tests. Latency and retries are the
// Capability's concern, not the loop's.
type Capability[In, Out any] interface {
	Run(ctx context.Context, in In) (Out, error)
}

// CapabilityFunc adapts a plain function to the Capability interface.
type CapabilityFunc[In, Out any] func(ctx context.Context, in In) (Out, error)

// Run implements Capability.
func (f CapabilityFunc[In, Out]) Run(ctx context.Context, in In) (Out, error) {
	return f(ctx, in)
}
