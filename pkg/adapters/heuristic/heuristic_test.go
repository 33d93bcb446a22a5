package heuristic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/concord/pkg/flows/intent"
	"github.com/aretw0/concord/pkg/flows/schema"
	"github.com/aretw0/concord/pkg/domain"
	"github.com/aretw0/concord/pkg/tooling"
)

func TestSingularize(t *testing.T) {
	cases := map[string]string{
		"people":    "person",
		"companies": "company",
		"orders":    "order",
		"addresses": "address",
		"status":    "statu", // naive, acceptable for labels
		"glass":     "glass",
	}
	for in, want := range cases {
		assert.Equal(t, want, singularize(in), in)
	}
}

func TestEntityLabel(t *testing.T) {
	assert.Equal(t, "PERSON", entityLabel("people.csv"))
	assert.Equal(t, "ORDER_ITEM", entityLabel("order-items.csv"))
	assert.Equal(t, "COMPANY", entityLabel("companies.csv"))
}

func TestIsApproval(t *testing.T) {
	assert.True(t, isApproval("approve"))
	assert.True(t, isApproval("Looks good, thanks!"))
	assert.True(t, isApproval("LGTM"))
	assert.False(t, isApproval("no, change the entities"))
	assert.False(t, isApproval("that approves of nothing")) // not a leading cue
}

func TestIntentAgentProposesFromOpening(t *testing.T) {
	agent := NewIntentAgent()
	reply, err := agent.Run(context.Background(), intent.Exchange{
		History: []domain.Message{domain.UserMessage("I want a graph of USA freight logistics")},
	})
	require.NoError(t, err)
	require.NotNil(t, reply.Proposed)
	assert.False(t, reply.Approved)
	assert.Equal(t, "usa freight logistics", reply.Proposed.KindOfGraph)
	assert.Contains(t, reply.Proposed.Description, "freight logistics")
}

func TestIntentAgentAccretesClarifications(t *testing.T) {
	agent := NewIntentAgent()
	prior := &domain.UserGoal{KindOfGraph: "usa freight logistics", Description: "I want a graph of USA freight logistics."}
	reply, err := agent.Run(context.Background(), intent.Exchange{
		History: []domain.Message{
			domain.UserMessage("I want a graph of USA freight logistics"),
			domain.AgentMessage("Proposed user goal: ..."),
			domain.UserMessage("include delivery delays"),
		},
		Proposed: prior,
	})
	require.NoError(t, err)
	require.NotNil(t, reply.Proposed)
	assert.Equal(t, "usa freight logistics", reply.Proposed.KindOfGraph)
	assert.Contains(t, reply.Proposed.Description, "Include delivery delays.")
}

func TestIntentAgentSensesApproval(t *testing.T) {
	agent := NewIntentAgent()
	reply, err := agent.Run(context.Background(), intent.Exchange{
		History: []domain.Message{
			domain.UserMessage("a social graph"),
			domain.AgentMessage("Proposed user goal: ..."),
			domain.UserMessage("approve"),
		},
		Proposed: &domain.UserGoal{KindOfGraph: "social graph"},
	})
	require.NoError(t, err)
	assert.True(t, reply.Approved)
	assert.Nil(t, reply.Proposed)
}

func orgState() *domain.SessionState {
	state := domain.NewSessionState()
	state.AddCSV(domain.CSVFile{
		Name:   "people.csv",
		Header: "id,name,company_id",
		Rows:   []string{"1,Ada,10", "2,Grace,11"},
	})
	state.AddCSV(domain.CSVFile{
		Name:   "companies.csv",
		Header: "id,name,city",
		Rows:   []string{"10,Initech,Dallas"},
	})
	return state
}

func proposerInput(state *domain.SessionState, history ...domain.Message) schema.ProposerInput {
	return schema.ProposerInput{
		Goal:      domain.UserGoal{KindOfGraph: "org chart", Description: "Who works where."},
		Filenames: state.CSVNames(),
		History:   history,
	}
}

func TestProposerInfersEntitiesAndForeignKeys(t *testing.T) {
	state := orgState()
	p := NewProposer(tooling.NewRegistry(), state)

	out, err := p.Run(context.Background(), proposerInput(state))
	require.NoError(t, err)
	require.NotNil(t, out.Proposed)

	person, ok := out.Proposed.Entity("PERSON")
	require.True(t, ok)
	assert.Equal(t, []string{"name"}, person.Fields)

	company, ok := out.Proposed.Entity("COMPANY")
	require.True(t, ok)
	assert.Equal(t, []string{"name", "city"}, company.Fields)

	require.Len(t, out.Proposed.RelationshipTypes, 1)
	rel := out.Proposed.RelationshipTypes[0]
	assert.Equal(t, "HAS_COMPANY", rel.Label)
	assert.Equal(t, "PERSON", rel.Source)
	assert.Equal(t, "COMPANY", rel.Target)
	assert.True(t, out.Proposed.Connected())
}

func TestProposerTurnsJoinTableIntoRelationship(t *testing.T) {
	state := domain.NewSessionState()
	state.AddCSV(domain.CSVFile{Name: "people.csv", Header: "id,name", Rows: []string{"1,Ada"}})
	state.AddCSV(domain.CSVFile{Name: "companies.csv", Header: "id,name", Rows: []string{"10,Initech"}})
	state.AddCSV(domain.CSVFile{Name: "works_at.csv", Header: "person_id,company_id", Rows: []string{"1,10"}})
	p := NewProposer(tooling.NewRegistry(), state)

	out, err := p.Run(context.Background(), proposerInput(state))
	require.NoError(t, err)
	require.NotNil(t, out.Proposed)

	assert.Len(t, out.Proposed.EntityTypes, 2)
	require.Len(t, out.Proposed.RelationshipTypes, 1)
	rel := out.Proposed.RelationshipTypes[0]
	assert.Equal(t, "WORKS_AT", rel.Label)
	assert.Equal(t, "PERSON", rel.Source)
	assert.Equal(t, "COMPANY", rel.Target)
}

func TestProposerTrustsMentionedFilenames(t *testing.T) {
	state := orgState()
	p := NewProposer(tooling.NewRegistry(), state)

	_, err := p.Run(context.Background(), proposerInput(state,
		domain.UserMessage("just use persons.csv")))
	require.Error(t, err)
	assert.True(t, domain.IsMissingArtifact(err))
}

func TestProposerAnswersDisconnectionCritique(t *testing.T) {
	state := domain.NewSessionState()
	state.AddCSV(domain.CSVFile{Name: "people.csv", Header: "id,name", Rows: []string{"1,Ada"}})
	state.AddCSV(domain.CSVFile{Name: "projects.csv", Header: "id,title", Rows: []string{"7,Apollo"}})
	p := NewProposer(tooling.NewRegistry(), state)

	in := proposerInput(state)
	in.Critique = "The schema is disconnected: PROJECT cannot be reached from PERSON."
	out, err := p.Run(context.Background(), in)
	require.NoError(t, err)
	require.NotNil(t, out.Proposed)
	assert.True(t, out.Proposed.Connected())
}

func TestProposerSensesApproval(t *testing.T) {
	state := orgState()
	p := NewProposer(tooling.NewRegistry(), state)

	prior := &domain.GraphSchema{EntityTypes: []domain.EntityType{{Label: "PERSON"}}}
	in := proposerInput(state, domain.UserMessage("approve"))
	in.Prior = prior
	out, err := p.Run(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, out.Approved)
	assert.Nil(t, out.Proposed)
}

func TestCriticVerdicts(t *testing.T) {
	critic := NewCritic()
	run := func(s domain.GraphSchema) string {
		verdict, err := critic.Run(context.Background(), schema.CriticInput{Proposed: s})
		require.NoError(t, err)
		return verdict
	}

	assert.Contains(t, run(domain.GraphSchema{}), "no entity types")

	assert.Contains(t, run(domain.GraphSchema{
		EntityTypes: []domain.EntityType{{Label: "person"}},
	}), "ALL_CAPS_WITH_UNDERSCORES")

	assert.Contains(t, run(domain.GraphSchema{
		EntityTypes: []domain.EntityType{{Label: "PERSON"}},
		RelationshipTypes: []domain.RelationshipType{
			{Label: "WORKS_AT", Source: "PERSON", Target: "COMPANY"},
		},
	}), "not a proposed entity type")

	assert.Contains(t, run(domain.GraphSchema{
		EntityTypes: []domain.EntityType{{Label: "PERSON"}, {Label: "COMPANY"}},
	}), "disconnected")

	assert.Equal(t, schema.CriticApproved, run(domain.GraphSchema{
		EntityTypes: []domain.EntityType{{Label: "PERSON"}, {Label: "COMPANY"}},
		RelationshipTypes: []domain.RelationshipType{
			{Label: "WORKS_AT", Source: "PERSON", Target: "COMPANY"},
		},
	}))
}
