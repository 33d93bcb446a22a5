package concord_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	concord "github.com/aretw0/concord"
	"github.com/aretw0/concord/pkg/adapters/memory"
	"github.com/aretw0/concord/pkg/domain"
	"github.com/aretw0/concord/pkg/flows/intent"
	"github.com/aretw0/concord/pkg/ports"
)

func orgArtifacts() []domain.CSVFile {
	return []domain.CSVFile{
		{Name: "people.csv", Header: "id,name,company_id", Rows: []string{"1,Ada,10", "2,Grace,11"}},
		{Name: "companies.csv", Header: "id,name,city", Rows: []string{"10,Initech,Dallas", "11,Hooli,Palo Alto"}},
	}
}

func TestEngineFullNegotiation(t *testing.T) {
	engine := concord.New()
	ctx := context.Background()

	id, err := engine.StartSession(ctx, orgArtifacts()...)
	require.NoError(t, err)

	ch := memory.NewChannel()
	require.NoError(t, ch.Post(domain.UserMessage("approve"))) // goal
	require.NoError(t, ch.Post(domain.UserMessage("approve"))) // schema

	require.NoError(t, engine.Run(ctx, id, ch, "I want a graph of my org chart"))

	state, err := engine.Sessions().Load(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, state.Goal)
	assert.Contains(t, state.Goal.KindOfGraph, "org chart")
	require.NotNil(t, state.Schema)
	assert.True(t, state.Schema.Connected())
	_, hasPerson := state.Schema.Entity("PERSON")
	assert.True(t, hasPerson)
}

func TestEngineResumeSkipsCommittedStages(t *testing.T) {
	engine := concord.New()
	ctx := context.Background()

	id, err := engine.StartSession(ctx, orgArtifacts()...)
	require.NoError(t, err)

	// First run negotiates only the goal, then the reviewer goes silent
	// during schema negotiation.
	ch := memory.NewChannel()
	require.NoError(t, ch.Post(domain.UserMessage("approve")))
	runCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	err = engine.Run(runCtx, id, ch, "graph of my org chart")
	require.ErrorIs(t, err, context.DeadlineExceeded, "schema stage should time out awaiting input")

	state, err := engine.Sessions().Load(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, state.Goal, "the approved goal must survive the failed run")
	assert.Nil(t, state.Schema)

	// Second run resumes: the goal stage is skipped, only the schema needs
	// approval.
	ch2 := memory.NewChannel()
	require.NoError(t, ch2.Post(domain.UserMessage("approve")))
	require.NoError(t, engine.Run(ctx, id, ch2, "unused"))

	state, err = engine.Sessions().Load(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, state.Schema)

	// No second proposal for the goal: its transcript starts with the
	// schema proposal directly.
	msgs := ch2.Transcript()
	require.NotEmpty(t, msgs)
	assert.NotContains(t, msgs[0].Content, "user goal")
}

func TestEngineCustomIntentAgent(t *testing.T) {
	// The flow contracts are public API: a consumer outside this module
	// swaps in its own capability exactly like this.
	agent := ports.CapabilityFunc[intent.Exchange, intent.Reply](
		func(_ context.Context, in intent.Exchange) (intent.Reply, error) {
			if in.Proposed != nil {
				return intent.Reply{Proposed: in.Proposed, Approved: true}, nil
			}
			return intent.Reply{
				Narrative: "Fixed proposal.",
				Proposed:  &domain.UserGoal{KindOfGraph: "fixed graph", Description: "Always the same."},
			}, nil
		})
	engine := concord.New(concord.WithIntentAgent(func(*domain.SessionState) intent.Agent {
		return agent
	}))
	ctx := context.Background()

	id, err := engine.StartSession(ctx, orgArtifacts()...)
	require.NoError(t, err)

	channel := memory.NewChannel()
	require.NoError(t, channel.Post(domain.UserMessage("fine")))
	require.NoError(t, channel.Post(domain.UserMessage("approve")))
	require.NoError(t, engine.Run(ctx, id, channel, "anything"))

	state, err := engine.Sessions().Load(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, state.Goal)
	assert.Equal(t, "fixed graph", state.Goal.KindOfGraph)
}

func TestEngineAttachDoc(t *testing.T) {
	engine := concord.New()
	ctx := context.Background()

	id, err := engine.StartSession(ctx)
	require.NoError(t, err)

	doc := domain.DocFile{Name: "notes.md", Title: "Notes", Content: "People belong to companies."}
	require.NoError(t, engine.AttachDoc(ctx, id, doc))

	state, err := engine.Sessions().Load(ctx, id)
	require.NoError(t, err)
	stored, err := state.Doc("notes.md")
	require.NoError(t, err)
	assert.Equal(t, doc, stored)

	assert.ErrorIs(t, engine.AttachDoc(ctx, "missing", doc), domain.ErrSessionNotFound)
}

func TestEngineRunUnknownSession(t *testing.T) {
	engine := concord.New()
	err := engine.Run(context.Background(), "missing", memory.NewChannel(), "hello")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestRunnerTerminalSession(t *testing.T) {
	engine := concord.New()
	ctx := context.Background()

	id, err := engine.StartSession(ctx, orgArtifacts()...)
	require.NoError(t, err)

	var out bytes.Buffer
	runner := concord.NewRunner()
	runner.Input = strings.NewReader("approve\napprove\n")
	runner.Output = &out

	require.NoError(t, runner.Run(ctx, engine, id, "I want a graph of my org chart"))

	text := out.String()
	assert.Contains(t, text, "Finalized user goal:")
	assert.Contains(t, text, "Proposed graph schema:")
	assert.Contains(t, text, "Finalized graph schema:")
	assert.Contains(t, text, "```mermaid")

	state, err := engine.Sessions().Load(ctx, id)
	require.NoError(t, err)
	assert.NotNil(t, state.Goal)
	assert.NotNil(t, state.Schema)
}

func TestRunnerExitIsGraceful(t *testing.T) {
	engine := concord.New()
	ctx := context.Background()

	id, err := engine.StartSession(ctx, orgArtifacts()...)
	require.NoError(t, err)

	var out bytes.Buffer
	runner := concord.NewRunner()
	runner.Input = strings.NewReader("exit\n")
	runner.Output = &out

	require.NoError(t, runner.Run(ctx, engine, id, "graph of my org"))
	assert.Contains(t, out.String(), "Bye!")

	state, err := engine.Sessions().Load(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, state.Goal, "hanging up before approval commits nothing")
}
