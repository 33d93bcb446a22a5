// Package schema implements the schema negotiation flow: an outer loop
// that converses with the reviewer, nesting an inner proposer/critic loop
// that refines each proposal before it is ever shown to a human.
package schema

import (
	"context"
	"fmt"

	"github.com/aretw0/concord/internal/presentation/graph"
	"github.com/aretw0/concord/internal/runtime"
	"github.com/aretw0/concord/pkg/domain"
	"github.com/aretw0/concord/pkg/ports"
)

// LoopName identifies the outer negotiation loop in events and logs.
const LoopName = "schema"

// ProposerInput is the snapshot handed to the proposing capability: the
// committed goal, the names of the uploaded artifacts, the reviewer
// transcript, the standing proposal and the critic's latest objection.
type ProposerInput struct {
	Goal      domain.UserGoal
	Filenames []string
	History   []domain.Message
	Prior     *domain.GraphSchema
	Critique  string
}

// ProposerOutput is the proposing capability's answer. Approved means the
// reviewer's latest message accepted the standing proposal; a non-nil
// Proposed replaces the standing proposal wholesale.
type ProposerOutput struct {
	Narrative string
	Proposed  *domain.GraphSchema
	Approved  bool
}

// Proposer drafts and revises schema proposals.
type Proposer = ports.Capability[ProposerInput, ProposerOutput]

// CriticInput is the snapshot handed to the critic capability.
type CriticInput struct {
	Goal      domain.UserGoal
	Filenames []string
	Proposed  domain.GraphSchema
}

// Critic judges a proposal, returning CriticApproved or a critique for the
// proposer's next attempt.
type Critic = ports.Capability[CriticInput, string]

// Config assembles the two capabilities and the iteration budgets of the
// outer and inner loops. Zero budgets fall back to the defaults.
type Config struct {
	Proposer            Proposer
	Critic              Critic
	MaxIterations       int
	ReviewMaxIterations int
}

// State is the outer loop's private state threaded across iterations.
// Presented tracks whether the reviewer has seen at least one proposal;
// until then the loop proposes without waiting for input.
type State struct {
	History   []domain.Message
	Proposed  *domain.GraphSchema
	Approved  bool
	Presented bool
	Phase     domain.Phase
}

// NewLoop builds the outer schema negotiation loop.
func NewLoop(cfg Config) *runtime.Loop[State] {
	return &runtime.Loop[State]{
		Name:          LoopName,
		MaxIterations: cfg.MaxIterations,
		Seed:          seed,
		Steps: []runtime.Step[State]{
			{Name: "await-input", Run: awaitInput},
			runtime.Nest[State, ReviewState](
				"review-schema",
				func() *runtime.Loop[ReviewState] { return NewReviewLoop(cfg) },
				func(s State) any { return reviewTrigger{History: s.History, Prior: s.Proposed} },
				merge,
			),
		},
		Done: func(s State) bool { return s.Approved },
	}
}

// Stage wraps the loop for workflow composition. A session whose schema
// slot is already committed skips the stage entirely on resume.
func Stage(cfg Config) runtime.Stage {
	return runtime.Stage{
		Name: "negotiate-schema",
		Skip: func(sc *runtime.Scope) bool { return sc.State.Schema != nil },
		Run: func(ctx context.Context, sc *runtime.Scope, trigger string) error {
			loop := NewLoop(cfg)
			outcome, err := loop.Run(ctx, sc, trigger)
			if err != nil {
				return err
			}
			if outcome.Decision == domain.DecisionExhausted {
				if err := sc.Notify(ctx, exhaustedMessage); err != nil {
					return err
				}
				return fmt.Errorf("schema negotiation: %w", domain.ErrBudgetExhausted)
			}
			return nil
		},
	}
}

const exhaustedMessage = "We couldn't agree on a schema within the allotted rounds. " +
	"Nothing was saved; the approved goal is kept, so a new run can pick up from there."

const noConsensusMessage = "I couldn't settle on a schema I'm confident in from the " +
	"current uploads. Could you tell me which files matter most, or what the graph " +
	"should connect?"

func seed(_ context.Context, _ *runtime.Scope, trigger any) (State, error) {
	opening, ok := trigger.(string)
	if !ok {
		return State{}, fmt.Errorf("schema loop expects a string trigger, got %T", trigger)
	}
	s := State{Phase: domain.PhaseAwaitingInput}
	if opening != "" {
		s.History = []domain.Message{domain.UserMessage(opening)}
	}
	return s, nil
}

// awaitInput blocks for reviewer feedback, except on the very first pass:
// the loop leads with a proposal, it does not open with a question.
func awaitInput(ctx context.Context, sc *runtime.Scope, s State) (State, error) {
	if s.Approved || !s.Presented {
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

// merge folds the inner loop's outcome back into the reviewer conversation.
// Decision first: an exhausted inner loop asks the reviewer for direction
// and never counts as approval.
func merge(ctx context.Context, sc *runtime.Scope, s State, inner runtime.Outcome[ReviewState]) (State, error) {
	var err error
	if s.Phase, err = s.Phase.Transition(domain.PhaseProposed); err != nil {
		return s, err
	}

	if inner.Decision == domain.DecisionExhausted {
		s.History = domain.AppendMessage(s.History, domain.AgentMessage(noConsensusMessage))
		s.Presented = true
		return s, sc.Say(ctx, noConsensusMessage)
	}

	rs := inner.State
	if rs.Proposed == nil {
		return s, domain.ErrAbsentProposal
	}

	if rs.Approved {
		// The reviewer accepted: commit exactly what was on the table.
		if s.Phase, err = s.Phase.Transition(domain.PhaseApproved); err != nil {
			return s, err
		}
		if err := sc.State.CommitSchema(*rs.Proposed); err != nil {
			return s, fmt.Errorf("commit schema: %w", err)
		}
		sc.FireCommit(ctx, LoopName, "schema")

		content := "Finalized graph schema:\n\n" + graph.Fence(graph.Mermaid(*rs.Proposed))
		s.Proposed = rs.Proposed
		s.Approved = true
		s.History = domain.AppendMessage(s.History, domain.AgentMessage(content))
		return s, sc.Say(ctx, content)
	}

	// The critic signed off; present the refined proposal to the reviewer.
	content := proposalMessage(rs.Narrative, *rs.Proposed)
	proposed := *rs.Proposed
	s.Proposed = &proposed
	s.Presented = true
	s.History = domain.AppendMessage(s.History, domain.AgentMessage(content))
	return s, sc.Say(ctx, content)
}

func proposalMessage(narrative string, schema domain.GraphSchema) string {
	block := "Proposed graph schema:\n\n" + graph.Fence(graph.Mermaid(schema))
	if narrative == "" {
		return block
	}
	return narrative + "\n\n" + block
}
