package runtime

import (
	"context"
	"fmt"
)

// Stage is one sequential phase of a workflow, usually wrapping a loop's
// Run. Skip, when set, lets a stage step aside if its result is already
// committed (session resume).
type Stage struct {
	Name string
	Run  func(ctx context.Context, sc *Scope, trigger string) error
	Skip func(sc *Scope) bool
}

// Workflow is the top-level composition of stages over one session's
// Scope. It is a pure composition root: all iteration logic lives in the
// loops its stages wrap.
type Workflow struct {
	Name   string
	Stages []Stage
}

// Run executes the stages in order with the caller's triggering input.
func (w *Workflow) Run(ctx context.Context, sc *Scope, input string) error {
	log := sc.logger().With("workflow", w.Name, "session_id", sc.SessionID)
	for _, stage := range w.Stages {
		if stage.Skip != nil && stage.Skip(sc) {
			log.Debug("stage skipped", "stage", stage.Name)
			continue
		}
		log.Debug("stage start", "stage", stage.Name)
		if err := stage.Run(ctx, sc, input); err != nil {
			return fmt.Errorf("workflow %q: stage %q: %w", w.Name, stage.Name, err)
		}
	}
	return nil
}
