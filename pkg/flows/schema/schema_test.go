package schema

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/concord/internal/runtime"
	"github.com/aretw0/concord/pkg/adapters/captest"
	"github.com/aretw0/concord/pkg/adapters/memory"
	"github.com/aretw0/concord/pkg/domain"
)

var (
	weakSchema = domain.GraphSchema{
		EntityTypes: []domain.EntityType{
			{Label: "PERSON", Fields: []string{"name"}},
			{Label: "COMPANY", Fields: []string{"name"}},
		},
	}
	connectedSchema = domain.GraphSchema{
		EntityTypes: []domain.EntityType{
			{Label: "PERSON", Fields: []string{"name"}},
			{Label: "COMPANY", Fields: []string{"name"}},
		},
		RelationshipTypes: []domain.RelationshipType{
			{Label: "WORKS_AT", Source: "PERSON", Target: "COMPANY"},
		},
	}
)

func newScope(t *testing.T, feedback ...string) (*runtime.Scope, *memory.Channel) {
	t.Helper()
	ch := memory.NewChannel()
	for _, msg := range feedback {
		require.NoError(t, ch.Post(domain.UserMessage(msg)))
	}
	state := domain.NewSessionState()
	state.AddCSV(domain.CSVFile{Name: "people.csv", Header: "id,name,company_id", Rows: []string{"1,Ada,10"}})
	require.NoError(t, state.CommitGoal(domain.UserGoal{KindOfGraph: "org chart", Description: "Who works where."}))
	return runtime.NewScope("sess-1", state, ch), ch
}

func TestLoopCriticRefinesThenReviewerApproves(t *testing.T) {
	proposer := captest.NewScripted[ProposerInput, ProposerOutput](
		captest.Response[ProposerOutput]{Out: ProposerOutput{Narrative: "First cut.", Proposed: &weakSchema}},
		captest.Response[ProposerOutput]{Out: ProposerOutput{Narrative: "Connected per the note.", Proposed: &connectedSchema}},
		captest.Response[ProposerOutput]{Out: ProposerOutput{Approved: true}},
	)
	critic := captest.NewScripted[CriticInput, string](
		captest.Response[string]{Out: "PERSON and COMPANY are disconnected; relate them."},
		captest.Response[string]{Out: CriticApproved},
	)
	sc, ch := newScope(t, "approve")

	outcome, err := NewLoop(Config{Proposer: proposer, Critic: critic}).Run(context.Background(), sc, "")
	require.NoError(t, err)

	assert.Equal(t, domain.DecisionApproved, outcome.Decision)
	assert.Equal(t, 2, outcome.Iterations)
	require.NotNil(t, sc.State.Schema)
	assert.True(t, sc.State.Schema.Equal(connectedSchema))

	// The critique travels proposer-ward inside the inner loop only.
	inputs := proposer.Inputs()
	require.Len(t, inputs, 3)
	assert.Empty(t, inputs[0].Critique)
	assert.Contains(t, inputs[1].Critique, "disconnected")
	assert.Empty(t, inputs[2].Critique, "a fresh inner loop must not carry the old critique")
	require.NotNil(t, inputs[2].Prior)
	assert.True(t, inputs[2].Prior.Equal(connectedSchema))

	// The reviewer sees the refined proposal and the finalization, never
	// the critic's objection.
	transcript := ch.Transcript()
	var agentMsgs []string
	for _, m := range transcript {
		if m.Sender == domain.SenderAgent {
			agentMsgs = append(agentMsgs, m.Content)
		}
	}
	require.Len(t, agentMsgs, 2)
	assert.Contains(t, agentMsgs[0], "Proposed graph schema:")
	assert.Contains(t, agentMsgs[0], "```mermaid")
	assert.NotContains(t, agentMsgs[0], "disconnected")
	assert.True(t, strings.HasPrefix(agentMsgs[1], "Finalized graph schema:"))
}

func TestLoopMissingArtifactAsksReviewerForDirection(t *testing.T) {
	missing := &domain.MissingArtifactError{Name: "persons.csv"}
	proposer := captest.NewScripted[ProposerInput, ProposerOutput](
		captest.Response[ProposerOutput]{Err: missing},
		captest.Response[ProposerOutput]{Err: missing},
		captest.Response[ProposerOutput]{Err: missing},
		captest.Response[ProposerOutput]{Out: ProposerOutput{Narrative: "Using people.csv.", Proposed: &connectedSchema}},
		captest.Response[ProposerOutput]{Out: ProposerOutput{Approved: true}},
	)
	critic := captest.NewScripted[CriticInput, string](
		captest.Response[string]{Out: CriticApproved},
	)
	sc, ch := newScope(t, "the file is called people.csv", "approve")

	outcome, err := NewLoop(Config{Proposer: proposer, Critic: critic}).Run(context.Background(), sc, "")
	require.NoError(t, err)

	assert.Equal(t, domain.DecisionApproved, outcome.Decision)
	assert.Equal(t, 3, outcome.Iterations)
	require.NotNil(t, sc.State.Schema)
	assert.True(t, sc.State.Schema.Equal(connectedSchema))

	transcript := ch.Transcript()
	var contents []string
	for _, m := range transcript {
		if m.Sender == domain.SenderAgent {
			contents = append(contents, m.Content)
		}
	}
	assert.Contains(t, contents[0], "persons.csv")
	assert.Contains(t, strings.Join(contents, "\n"), "couldn't settle")
}

func TestStageInnerExhaustionNeverApproves(t *testing.T) {
	proposer := captest.NewScripted[ProposerInput, ProposerOutput](
		captest.Response[ProposerOutput]{Out: ProposerOutput{Proposed: &weakSchema}},
		captest.Response[ProposerOutput]{Out: ProposerOutput{Proposed: &weakSchema}},
		captest.Response[ProposerOutput]{Out: ProposerOutput{Proposed: &weakSchema}},
		captest.Response[ProposerOutput]{Out: ProposerOutput{Proposed: &weakSchema}},
	)
	critic := captest.NewScripted[CriticInput, string](
		captest.Response[string]{Out: "still disconnected"},
		captest.Response[string]{Out: "still disconnected"},
		captest.Response[string]{Out: "still disconnected"},
		captest.Response[string]{Out: "still disconnected"},
	)
	sc, ch := newScope(t, "keep trying")

	stage := Stage(Config{
		Proposer:            proposer,
		Critic:              critic,
		MaxIterations:       2,
		ReviewMaxIterations: 2,
	})
	err := stage.Run(context.Background(), sc, "")
	require.ErrorIs(t, err, domain.ErrBudgetExhausted)
	assert.Nil(t, sc.State.Schema, "an exhausted inner loop must never produce a commit")

	transcript := ch.Transcript()
	last := transcript[len(transcript)-1]
	assert.Equal(t, domain.SenderSystem, last.Sender)
	assert.Contains(t, last.Content, "couldn't agree")
}

func TestStageForwardsOpeningToProposer(t *testing.T) {
	// On a resumed session the goal stage is skipped, so the reviewer's
	// opening message reaches the schema loop as its trigger and must not
	// be dropped on the floor.
	proposer := captest.NewScripted[ProposerInput, ProposerOutput](
		captest.Response[ProposerOutput]{Out: ProposerOutput{Proposed: &connectedSchema}},
		captest.Response[ProposerOutput]{Out: ProposerOutput{Approved: true}},
	)
	critic := captest.NewScripted[CriticInput, string](
		captest.Response[string]{Out: CriticApproved},
	)
	sc, _ := newScope(t, "approve")

	stage := Stage(Config{Proposer: proposer, Critic: critic})
	opening := "only use people.csv, ignore the rest"
	require.NoError(t, stage.Run(context.Background(), sc, opening))

	first := proposer.Inputs()[0]
	require.NotEmpty(t, first.History)
	assert.Equal(t, domain.UserMessage(opening), first.History[0])
	assert.NotNil(t, sc.State.Schema)
}

func TestLoopApprovalWithoutProposalIsFatal(t *testing.T) {
	proposer := captest.NewScripted[ProposerInput, ProposerOutput](
		captest.Response[ProposerOutput]{Out: ProposerOutput{Approved: true}},
	)
	sc, _ := newScope(t)

	_, err := NewLoop(Config{Proposer: proposer, Critic: nil}).Run(context.Background(), sc, "")
	require.ErrorIs(t, err, domain.ErrAbsentProposal)
	assert.Nil(t, sc.State.Schema)
}

func TestStageSkipsWhenSchemaCommitted(t *testing.T) {
	sc, _ := newScope(t)
	require.NoError(t, sc.State.CommitSchema(connectedSchema))

	stage := Stage(Config{})
	require.NotNil(t, stage.Skip)
	assert.True(t, stage.Skip(sc))
}
