package domain

// Decision is the tri-state outcome of one negotiation loop iteration.
type Decision string

const (
	// DecisionContinue means no consensus yet; the loop runs another round.
	DecisionContinue Decision = "continue"

	// DecisionApproved means the reviewer (or the critic, for an inner loop)
	// accepted the current proposal; the loop terminates successfully.
	DecisionApproved Decision = "approved"

	// DecisionExhausted means the iteration budget ran out without
	// consensus; the loop terminates and commits nothing.
	DecisionExhausted Decision = "exhausted"
)

// Terminal reports whether the decision ends its loop.
func (d Decision) Terminal() bool {
	return d == DecisionApproved || d == DecisionExhausted
}
