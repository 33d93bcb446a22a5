package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/concord/pkg/domain"
)

// DefaultMaxIterations bounds a loop when no budget is configured.
const DefaultMaxIterations = 10

// SeedFunc synthesizes the loop's initial state from the trigger input the
// enclosing workflow (or outer loop) supplied. It runs once, on the first
// iteration only.
type SeedFunc[S any] func(ctx context.Context, sc *Scope, trigger any) (S, error)

// Outcome is what a loop reports upward when it stops: the terminal state,
// the decision that ended it, and how many iterations it consumed. Outer
// loops base their own end conditions purely on the Decision.
type Outcome[S any] struct {
	State      S
	Decision   domain.Decision
	Iterations int
}

// Loop is a bounded sequence of steps re-executed until Done holds or the
// iteration budget is spent. The zero value is not usable; populate Name,
// Steps, Seed and Done.
//
// The carry field is the loop's carry-over slot: the engine chains step
// outputs only within one iteration, so the loop itself threads the
// terminal step's output of iteration k into the first step of iteration
// k+1. The slot belongs to this instance alone — loops are constructed per
// workflow run, so concurrent sessions can never observe each other's
// carry-over.
type Loop[S any] struct {
	Name          string
	MaxIterations int
	Steps         []Step[S]
	Seed          SeedFunc[S]
	Done          func(S) bool

	// carry holds the previous iteration's terminal output; nil before the
	// first iteration completes. It is discarded with the loop instance.
	carry *S
}

func (l *Loop[S]) validate() error {
	if l.Name == "" {
		return errors.New("loop requires a name")
	}
	if len(l.Steps) == 0 {
		return fmt.Errorf("loop %q requires at least one step", l.Name)
	}
	if l.Seed == nil {
		return fmt.Errorf("loop %q requires a seed", l.Name)
	}
	if l.Done == nil {
		return fmt.Errorf("loop %q requires an end condition", l.Name)
	}
	return nil
}

func (l *Loop[S]) budget() int {
	if l.MaxIterations > 0 {
		return l.MaxIterations
	}
	return DefaultMaxIterations
}

// Run drives the loop to a terminal decision. The trigger is consumed by
// Seed on iteration 1; every later iteration starts from the carry-over
// slot instead. A spent budget is an expected outcome (DecisionExhausted),
// not an error; errors signal step failures or invariant violations and
// abort the run.
func (l *Loop[S]) Run(ctx context.Context, sc *Scope, trigger any) (Outcome[S], error) {
	var zero Outcome[S]
	if err := l.validate(); err != nil {
		return zero, err
	}

	log := sc.logger().With("loop", l.Name, "session_id", sc.SessionID)
	budget := l.budget()

	for iteration := 1; iteration <= budget; iteration++ {
		l.fireIteration(ctx, sc, domain.EventIterationStart, iteration)
		log.Debug("iteration start", "iteration", iteration)

		var state S
		var err error
		if l.carry == nil {
			// First iteration: synthesize state from the trigger input.
			state, err = l.Seed(ctx, sc, trigger)
			if err != nil {
				return zero, fmt.Errorf("loop %q: seed: %w", l.Name, err)
			}
		} else {
			// Later iterations: the engine supplies no cross-iteration
			// linkage, so read our own carry-over slot.
			state = *l.carry
		}

		for _, step := range l.Steps {
			l.fireStep(ctx, sc, domain.EventStepStart, iteration, step.Name, false)
			state, err = step.Run(ctx, sc, state)
			l.fireStep(ctx, sc, domain.EventStepEnd, iteration, step.Name, err != nil)
			if err != nil {
				return Outcome[S]{State: state, Decision: domain.DecisionContinue, Iterations: iteration},
					fmt.Errorf("loop %q: step %q: %w", l.Name, step.Name, err)
			}
		}

		// The terminal step's output becomes the carry-over for the next
		// iteration and the subject of the end condition.
		committed := state
		l.carry = &committed
		l.fireIteration(ctx, sc, domain.EventIterationEnd, iteration)

		if l.Done(state) {
			log.Info("loop approved", "iterations", iteration)
			l.fireLoopEnd(ctx, sc, iteration, domain.DecisionApproved)
			return Outcome[S]{State: state, Decision: domain.DecisionApproved, Iterations: iteration}, nil
		}
	}

	log.Info("loop exhausted", "iterations", budget)
	l.fireLoopEnd(ctx, sc, budget, domain.DecisionExhausted)
	return Outcome[S]{State: *l.carry, Decision: domain.DecisionExhausted, Iterations: budget}, nil
}

func (l *Loop[S]) fireIteration(ctx context.Context, sc *Scope, typ domain.EventType, iteration int) {
	var hook func(context.Context, *domain.IterationEvent)
	switch typ {
	case domain.EventIterationStart:
		hook = sc.Hooks.OnIterationStart
	case domain.EventIterationEnd:
		hook = sc.Hooks.OnIterationEnd
	}
	if hook == nil {
		return
	}
	hook(ctx, &domain.IterationEvent{
		EventBase: l.eventBase(sc, typ),
		Iteration: iteration,
	})
}

func (l *Loop[S]) fireStep(ctx context.Context, sc *Scope, typ domain.EventType, iteration int, step string, isErr bool) {
	var hook func(context.Context, *domain.StepEvent)
	switch typ {
	case domain.EventStepStart:
		hook = sc.Hooks.OnStepStart
	case domain.EventStepEnd:
		hook = sc.Hooks.OnStepEnd
	}
	if hook == nil {
		return
	}
	hook(ctx, &domain.StepEvent{
		EventBase: l.eventBase(sc, typ),
		Iteration: iteration,
		Step:      step,
		IsError:   isErr,
	})
}

func (l *Loop[S]) fireLoopEnd(ctx context.Context, sc *Scope, iterations int, decision domain.Decision) {
	if sc.Hooks.OnLoopEnd == nil {
		return
	}
	sc.Hooks.OnLoopEnd(ctx, &domain.LoopEvent{
		EventBase:  l.eventBase(sc, domain.EventLoopEnd),
		Iterations: iterations,
		Decision:   decision,
	})
}

func (l *Loop[S]) eventBase(sc *Scope, typ domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp: time.Now(),
		Type:      typ,
		SessionID: sc.SessionID,
		Loop:      l.Name,
	}
}
