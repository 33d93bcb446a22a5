package heuristic

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/concord/pkg/flows/schema"
	"github.com/aretw0/concord/pkg/domain"
)

// Critic judges schema proposals on structural grounds: naming
// conventions, dangling relationship endpoints and overall connectivity.
// It returns schema.CriticApproved only for a proposal it cannot fault.
type Critic struct{}

// NewCritic creates the rule-based critic capability.
func NewCritic() *Critic {
	return &Critic{}
}

var _ schema.Critic = (*Critic)(nil)

// Run implements the schema.Critic contract.
func (c *Critic) Run(_ context.Context, in schema.CriticInput) (string, error) {
	proposed := in.Proposed

	if len(proposed.EntityTypes) == 0 {
		return "The proposal has no entity types; a graph needs at least one kind of node.", nil
	}

	for _, e := range proposed.EntityTypes {
		if !isUpperSnake(e.Label) {
			return fmt.Sprintf("Entity label %q must be ALL_CAPS_WITH_UNDERSCORES.", e.Label), nil
		}
	}
	for _, r := range proposed.RelationshipTypes {
		if !isUpperSnake(r.Label) {
			return fmt.Sprintf("Relationship label %q must be ALL_CAPS_WITH_UNDERSCORES.", r.Label), nil
		}
		if _, ok := proposed.Entity(r.Source); !ok {
			return fmt.Sprintf("Relationship %s names source %q, which is not a proposed entity type.", r.Label, r.Source), nil
		}
		if _, ok := proposed.Entity(r.Target); !ok {
			return fmt.Sprintf("Relationship %s names target %q, which is not a proposed entity type.", r.Label, r.Target), nil
		}
	}

	if !proposed.Connected() {
		return fmt.Sprintf("The schema is disconnected: %s. Relate every entity type to the rest of the graph.",
			orphanSummary(proposed)), nil
	}

	return schema.CriticApproved, nil
}

func orphanSummary(s domain.GraphSchema) string {
	anchor := s.EntityTypes[0].Label
	var orphans []string
	for _, e := range s.EntityTypes[1:] {
		if !reachable(s, anchor, e.Label) {
			orphans = append(orphans, e.Label)
		}
	}
	if len(orphans) == 0 {
		return "some entity types are unreachable"
	}
	return strings.Join(orphans, ", ") + " cannot be reached from " + anchor
}
