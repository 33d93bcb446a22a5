package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/concord/pkg/domain"
)

func TestMermaid(t *testing.T) {
	schema := domain.GraphSchema{
		EntityTypes: []domain.EntityType{
			{Label: "PERSON", Fields: []string{"name", "age"}},
			{Label: "COMPANY"},
		},
		RelationshipTypes: []domain.RelationshipType{
			{Label: "WORKS_AT", Source: "PERSON", Target: "COMPANY"},
		},
	}

	want := "graph TD\n" +
		"  PERSON[\"PERSON<br/>name, age\"]\n" +
		"  COMPANY[\"COMPANY\"]\n" +
		"  PERSON -->|WORKS_AT| COMPANY"
	assert.Equal(t, want, Mermaid(schema))
}

func TestMermaidEmptySchema(t *testing.T) {
	assert.Equal(t, "graph TD", Mermaid(domain.GraphSchema{}))
}

func TestFence(t *testing.T) {
	assert.Equal(t, "```mermaid\ngraph TD\n```", Fence("graph TD"))
}
