// Package intent implements the goal negotiation flow: a bounded loop in
// which an agent capability proposes a user goal, the reviewer reacts, and
// the loop either commits an approved goal to the session or exhausts its
// budget.
package intent

import (
	"context"
	"fmt"

	"github.com/aretw0/concord/internal/runtime"
	"github.com/aretw0/concord/pkg/domain"
	"github.com/aretw0/concord/pkg/ports"
)

// LoopName identifies the flow in events and logs.
const LoopName = "intent"

// Exchange is the snapshot handed to the agent capability on each
// iteration: the full transcript so far plus the standing proposal, if any.
type Exchange struct {
	History  []domain.Message
	Proposed *domain.UserGoal
}

// Reply is the capability's answer. Approved means the reviewer's latest
// message accepted the standing proposal; a non-nil Proposed replaces the
// standing proposal wholesale.
type Reply struct {
	Narrative string
	Proposed  *domain.UserGoal
	Approved  bool
}

// Agent is the capability contract this flow drives.
type Agent = ports.Capability[Exchange, Reply]

// State is the loop-private state threaded across iterations.
type State struct {
	History  []domain.Message
	Proposed *domain.UserGoal
	Approved bool
	Phase    domain.Phase
}

// NewLoop builds the goal negotiation loop around an agent capability.
// maxIterations <= 0 falls back to the runtime default.
func NewLoop(agent Agent, maxIterations int) *runtime.Loop[State] {
	return &runtime.Loop[State]{
		Name:          LoopName,
		MaxIterations: maxIterations,
		Seed:          seed,
		Steps: []runtime.Step[State]{
			{Name: "propose-goal", Run: propose(agent)},
			{Name: "await-feedback", Run: awaitFeedback},
		},
		Done: func(s State) bool { return s.Approved },
	}
}

// Stage wraps the loop for workflow composition. A session whose goal slot
// is already committed skips the stage entirely on resume.
func Stage(agent Agent, maxIterations int) runtime.Stage {
	return runtime.Stage{
		Name: "negotiate-goal",
		Skip: func(sc *runtime.Scope) bool { return sc.State.Goal != nil },
		Run: func(ctx context.Context, sc *runtime.Scope, trigger string) error {
			loop := NewLoop(agent, maxIterations)
			outcome, err := loop.Run(ctx, sc, trigger)
			if err != nil {
				return err
			}
			if outcome.Decision == domain.DecisionExhausted {
				if err := sc.Notify(ctx, exhaustedMessage); err != nil {
					return err
				}
				return fmt.Errorf("goal negotiation: %w", domain.ErrBudgetExhausted)
			}
			return nil
		},
	}
}

const exhaustedMessage = "We couldn't settle on a goal within the allotted rounds. " +
	"Nothing was saved; start a new session to try again with a sharper description."

func seed(_ context.Context, _ *runtime.Scope, trigger any) (State, error) {
	opening, ok := trigger.(string)
	if !ok {
		return State{}, fmt.Errorf("intent loop expects a string trigger, got %T", trigger)
	}
	return State{
		History: []domain.Message{domain.UserMessage(opening)},
		Phase:   domain.PhaseAwaitingInput,
	}, nil
}

func propose(agent Agent) runtime.StepFunc[State] {
	return func(ctx context.Context, sc *runtime.Scope, s State) (State, error) {
		reply, err := agent.Run(ctx, Exchange{History: s.History, Proposed: s.Proposed})
		if err != nil {
			return s, fmt.Errorf("goal capability: %w", err)
		}

		if s.Phase, err = s.Phase.Transition(domain.PhaseProposed); err != nil {
			return s, err
		}
		if reply.Proposed != nil {
			proposed := *reply.Proposed
			s.Proposed = &proposed
		}

		if !reply.Approved {
			content := proposalMessage(reply.Narrative, s.Proposed)
			s.History = domain.AppendMessage(s.History, domain.AgentMessage(content))
			return s, sc.Say(ctx, content)
		}

		// The reviewer accepted: commit exactly what was on the table.
		if s.Proposed == nil {
			return s, domain.ErrAbsentProposal
		}
		if s.Phase, err = s.Phase.Transition(domain.PhaseApproved); err != nil {
			return s, err
		}
		if err := sc.State.CommitGoal(*s.Proposed); err != nil {
			return s, fmt.Errorf("commit goal: %w", err)
		}
		sc.FireCommit(ctx, LoopName, "goal")

		content := fmt.Sprintf("Finalized user goal:\n\n%s", s.Proposed)
		s.History = domain.AppendMessage(s.History, domain.AgentMessage(content))
		s.Approved = true
		return s, sc.Say(ctx, content)
	}
}

func awaitFeedback(ctx context.Context, sc *runtime.Scope, s State) (State, error) {
	if s.Approved {
		return s, nil
	}
	var err error
	if s.Phase, err = s.Phase.Transition(domain.PhaseAwaitingFeedback); err != nil {
		return s, err
	}
	msg, err := sc.Listen(ctx)
	if err != nil {
		return s, fmt.Errorf("awaiting reviewer feedback: %w", err)
	}
	s.History = domain.AppendMessage(s.History, msg)
	return s, nil
}

func proposalMessage(narrative string, goal *domain.UserGoal) string {
	if goal == nil {
		return narrative
	}
	if narrative == "" {
		return fmt.Sprintf("Proposed user goal:\n\n%s", goal)
	}
	return fmt.Sprintf("%s\n\nProposed user goal:\n\n%s", narrative, goal)
}
