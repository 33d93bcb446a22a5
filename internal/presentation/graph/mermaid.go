// Package graph renders graph schemas for reviewer-facing output.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/concord/pkg/domain"
)

// Mermaid renders a schema as a mermaid "graph TD" diagram: one node per
// entity type with its fields listed under the label, and one labeled edge
// per relationship type. The output is a bare diagram body; wrap it with
// Fence for inclusion in a markdown message.
func Mermaid(s domain.GraphSchema) string {
	var b strings.Builder
	b.WriteString("graph TD\n")
	for _, e := range s.EntityTypes {
		if len(e.Fields) == 0 {
			fmt.Fprintf(&b, "  %s[\"%s\"]\n", e.Label, e.Label)
			continue
		}
		fmt.Fprintf(&b, "  %s[\"%s<br/>%s\"]\n", e.Label, e.Label, strings.Join(e.Fields, ", "))
	}
	for _, r := range s.RelationshipTypes {
		fmt.Fprintf(&b, "  %s -->|%s| %s\n", r.Source, r.Label, r.Target)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Fence wraps a mermaid diagram body in a fenced markdown code block.
func Fence(diagram string) string {
	return "```mermaid\n" + diagram + "\n```"
}
