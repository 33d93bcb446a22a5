package domain

import "fmt"

// UserGoal is the reviewer's objective for the knowledge graph, as
// negotiated by the intent loop.
type UserGoal struct {
	// KindOfGraph states the graph's purpose in a few words,
	// e.g. "social network" or "USA freight logistics".
	KindOfGraph string `json:"kind_of_graph" yaml:"kind_of_graph" mapstructure:"kind_of_graph"`

	// Description is a short statement of the graph's intention,
	// e.g. "A dynamic routing and delivery system for cargo."
	Description string `json:"description" yaml:"description" mapstructure:"description"`
}

// Equal reports field-wise equality.
func (g UserGoal) Equal(other UserGoal) bool {
	return g == other
}

func (g UserGoal) String() string {
	return fmt.Sprintf("kind of graph: %s\ndescription: %s", g.KindOfGraph, g.Description)
}
