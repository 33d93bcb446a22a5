package schema

import (
	"context"
	"fmt"

	"github.com/aretw0/concord/internal/runtime"
	"github.com/aretw0/concord/pkg/domain"
)

// ReviewLoopName identifies the inner proposer/critic loop in events and
// logs.
const ReviewLoopName = "schema-review"

// CriticApproved is the critic's sign-off verdict. Anything else the
// critic returns is treated as a critique for the proposer's next attempt.
const CriticApproved = "APPROVED"

// DefaultReviewIterations bounds the inner loop. Proposer/critic rounds
// cost no reviewer attention, but they are not free either.
const DefaultReviewIterations = 3

// ReviewState is the inner loop's private state. A fresh instance is built
// for every outer iteration, so critiques never leak across reviewer
// exchanges.
type ReviewState struct {
	History   []domain.Message
	Proposed  *domain.GraphSchema
	Narrative string
	Critique  string
	Approved  bool
}

// reviewTrigger is the projection of the outer state an inner loop starts
// from.
type reviewTrigger struct {
	History []domain.Message
	Prior   *domain.GraphSchema
}

// NewReviewLoop builds a fresh proposer/critic loop.
func NewReviewLoop(cfg Config) *runtime.Loop[ReviewState] {
	budget := cfg.ReviewMaxIterations
	if budget <= 0 {
		budget = DefaultReviewIterations
	}
	return &runtime.Loop[ReviewState]{
		Name:          ReviewLoopName,
		MaxIterations: budget,
		Seed:          reviewSeed,
		Steps: []runtime.Step[ReviewState]{
			{Name: "propose", Run: proposeStep(cfg.Proposer)},
			{Name: "critique", Run: critiqueStep(cfg.Critic)},
		},
		Done: func(rs ReviewState) bool {
			return rs.Approved || (rs.Proposed != nil && rs.Critique == CriticApproved)
		},
	}
}

func reviewSeed(_ context.Context, _ *runtime.Scope, trigger any) (ReviewState, error) {
	in, ok := trigger.(reviewTrigger)
	if !ok {
		return ReviewState{}, fmt.Errorf("review loop expects a reviewTrigger, got %T", trigger)
	}
	return ReviewState{History: in.History, Proposed: in.Prior}, nil
}

func proposeStep(proposer Proposer) runtime.StepFunc[ReviewState] {
	return func(ctx context.Context, sc *runtime.Scope, rs ReviewState) (ReviewState, error) {
		if sc.State.Goal == nil {
			return rs, fmt.Errorf("schema proposal requires a committed goal")
		}
		out, err := proposer.Run(ctx, ProposerInput{
			Goal:      *sc.State.Goal,
			Filenames: sc.State.CSVNames(),
			History:   rs.History,
			Prior:     rs.Proposed,
			Critique:  rs.Critique,
		})
		if err != nil {
			if domain.IsMissingArtifact(err) {
				// Recoverable: tell the reviewer which name failed and let
				// the round wind down without a proposal.
				rs.Critique = ""
				notice := fmt.Sprintf("I tried to inspect an upload that isn't there: %v. "+
					"Check the filename, or upload the file and try again.", err)
				return rs, sc.Say(ctx, notice)
			}
			return rs, fmt.Errorf("schema capability: %w", err)
		}

		rs.Approved = out.Approved
		if out.Approved {
			if rs.Proposed == nil && out.Proposed == nil {
				return rs, domain.ErrAbsentProposal
			}
		}
		if out.Proposed != nil {
			proposed := *out.Proposed
			rs.Proposed = &proposed
			rs.Narrative = out.Narrative
		}
		return rs, nil
	}
}

func critiqueStep(critic Critic) runtime.StepFunc[ReviewState] {
	return func(ctx context.Context, sc *runtime.Scope, rs ReviewState) (ReviewState, error) {
		if rs.Approved || rs.Proposed == nil {
			return rs, nil
		}
		verdict, err := critic.Run(ctx, CriticInput{
			Goal:      *sc.State.Goal,
			Filenames: sc.State.CSVNames(),
			Proposed:  *rs.Proposed,
		})
		if err != nil {
			return rs, fmt.Errorf("critic capability: %w", err)
		}
		rs.Critique = verdict
		return rs, nil
	}
}
