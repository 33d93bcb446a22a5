package domain

import (
	"errors"
	"testing"
)

func TestPhaseTransitions(t *testing.T) {
	cases := []struct {
		name string
		from Phase
		to   Phase
		ok   bool
	}{
		{"input to proposed", PhaseAwaitingInput, PhaseProposed, true},
		{"proposed to feedback", PhaseProposed, PhaseAwaitingFeedback, true},
		{"feedback back to proposed", PhaseAwaitingFeedback, PhaseProposed, true},
		{"proposed to approved", PhaseProposed, PhaseApproved, true},
		{"proposed to exhausted", PhaseProposed, PhaseExhausted, true},
		{"input to exhausted", PhaseAwaitingInput, PhaseExhausted, true},
		{"self transition is a no-op", PhaseProposed, PhaseProposed, true},
		{"input straight to approved", PhaseAwaitingInput, PhaseApproved, false},
		{"approved is terminal", PhaseApproved, PhaseProposed, false},
		{"exhausted is terminal", PhaseExhausted, PhaseAwaitingInput, false},
		{"feedback to approved skips proposal", PhaseAwaitingFeedback, PhaseApproved, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, err := tc.from.Transition(tc.to)
			if tc.ok {
				if err != nil {
					t.Fatalf("Transition(%s -> %s) failed: %v", tc.from, tc.to, err)
				}
				if next != tc.to {
					t.Errorf("expected phase %s, got %s", tc.to, next)
				}
				return
			}
			if err == nil {
				t.Fatalf("Transition(%s -> %s) should have been rejected", tc.from, tc.to)
			}
			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("expected ErrInvalidTransition, got %v", err)
			}
			if next != tc.from {
				t.Errorf("rejected transition must not move the phase, got %s", next)
			}
		})
	}
}

func TestPhaseTerminal(t *testing.T) {
	if !PhaseApproved.Terminal() || !PhaseExhausted.Terminal() {
		t.Error("approved and exhausted must be terminal")
	}
	if PhaseProposed.Terminal() || PhaseAwaitingInput.Terminal() || PhaseAwaitingFeedback.Terminal() {
		t.Error("non-final phases must not be terminal")
	}
}
