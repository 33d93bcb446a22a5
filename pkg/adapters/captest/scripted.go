// Package captest provides deterministic Capability stubs for tests.
package captest

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/concord/pkg/ports"
)

// Response configures one capability turn in a scripted sequence.
type Response[Out any] struct {
	Out Out
	Err error
}

// Scripted is a deterministic Capability that replays a fixed sequence of
// responses, one per Run call, and records every input it saw. Running past
// the end of the script is a test bug and fails loudly.
type Scripted[In, Out any] struct {
	mu        sync.Mutex
	index     int
	inputs    []In
	responses []Response[Out]
}

// NewScripted creates a scripted capability from the given responses.
func NewScripted[In, Out any](responses ...Response[Out]) *Scripted[In, Out] {
	cloned := make([]Response[Out], len(responses))
	copy(cloned, responses)
	return &Scripted[In, Out]{responses: cloned}
}

var _ ports.Capability[string, string] = (*Scripted[string, string])(nil)

// Run implements ports.Capability.
func (s *Scripted[In, Out]) Run(_ context.Context, in In) (Out, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero Out
	if s.index >= len(s.responses) {
		return zero, fmt.Errorf("script exhausted at call %d", s.index+1)
	}
	s.inputs = append(s.inputs, in)
	current := s.responses[s.index]
	s.index++
	if current.Err != nil {
		return zero, current.Err
	}
	return current.Out, nil
}

// Calls reports how many times the capability ran.
func (s *Scripted[In, Out]) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Inputs returns the inputs seen so far, in call order.
func (s *Scripted[In, Out]) Inputs() []In {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]In(nil), s.inputs...)
}
