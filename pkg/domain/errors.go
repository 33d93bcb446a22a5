package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrBudgetExhausted is returned when a loop reaches its iteration budget
// without satisfying its end condition. It is an expected outcome, not a
// failure of the process: callers surface a plain-language message to the
// reviewer instead of aborting.
var ErrBudgetExhausted = errors.New("iteration budget exhausted without consensus")

// ErrAlreadyCommitted is returned by set-once commit slots when a second,
// different value is written for a key that already holds an approved value.
var ErrAlreadyCommitted = errors.New("value already committed")

// ErrInvalidTransition marks an illegal phase transition. This is an
// invariant violation and fatal to the workflow run.
var ErrInvalidTransition = errors.New("invalid phase transition")

// ErrAbsentProposal marks an approval that arrived without a proposal.
// No agent may approve nothing; fatal to the workflow run.
var ErrAbsentProposal = errors.New("approval of an absent proposal")

// MissingArtifactError reports a lookup of a named artifact that is not
// present among the session's uploads. Recoverable: the caller decides
// whether to retry with a corrected name or request reviewer feedback.
type MissingArtifactError struct {
	Name string
}

func (e *MissingArtifactError) Error() string {
	return fmt.Sprintf("no artifact named %q in this session", e.Name)
}

// IsMissingArtifact reports whether err is a MissingArtifactError.
func IsMissingArtifact(err error) bool {
	var target *MissingArtifactError
	return errors.As(err, &target)
}
