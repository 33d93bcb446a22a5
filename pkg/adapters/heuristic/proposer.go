package heuristic

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/concord/pkg/flows/schema"
	"github.com/aretw0/concord/pkg/domain"
	"github.com/aretw0/concord/pkg/tooling"
)

// Proposer drafts graph schemas from the session's structured artifacts.
// It reads column layouts through the tool registry, one entity type per
// node-shaped file, and infers relationships from foreign-key columns and
// join-table filenames. Critiques about disconnected types are answered by
// adding fallback relationships rather than giving up.
//
// A Proposer is built per session run: it holds the session state the
// tools read from.
type Proposer struct {
	tools *tooling.Registry
	state *domain.SessionState
}

// NewProposer creates the rule-based schema capability for one session.
func NewProposer(tools *tooling.Registry, state *domain.SessionState) *Proposer {
	return &Proposer{tools: tools, state: state}
}

var _ schema.Proposer = (*Proposer)(nil)

// Run implements the schema.Proposer contract. When the reviewer's latest
// message names files, those names are trusted verbatim; a name that does
// not match an upload surfaces as a MissingArtifactError for the flow to
// relay.
func (p *Proposer) Run(ctx context.Context, in schema.ProposerInput) (schema.ProposerOutput, error) {
	latest := lastUserMessage(in.History)

	if in.Prior != nil && isApproval(latest) {
		return schema.ProposerOutput{Approved: true}, nil
	}

	filenames := in.Filenames
	if mentioned := mentionedFiles(latest); len(mentioned) > 0 {
		filenames = mentioned
	}
	if len(filenames) == 0 {
		return schema.ProposerOutput{}, fmt.Errorf("no structured artifacts to propose a schema from")
	}

	files := make([]fileShape, 0, len(filenames))
	for _, name := range filenames {
		shape, err := p.inspect(ctx, name)
		if err != nil {
			return schema.ProposerOutput{}, err
		}
		files = append(files, shape)
	}

	proposed := buildSchema(files)
	if in.Critique != "" {
		proposed = connectOrphans(proposed)
	}

	narrative := fmt.Sprintf("Drafted from %s: %d entity types, %d relationship types.",
		strings.Join(filenames, ", "), len(proposed.EntityTypes), len(proposed.RelationshipTypes))
	return schema.ProposerOutput{Narrative: narrative, Proposed: &proposed}, nil
}

// fileShape is what the proposer knows about one artifact after peeking it.
type fileShape struct {
	name    string
	label   string
	columns []string
}

func (p *Proposer) inspect(ctx context.Context, name string) (fileShape, error) {
	out, err := p.tools.Execute(ctx, p.state, "peek_file", map[string]any{"filename": name})
	if err != nil {
		return fileShape{}, err
	}
	sample, ok := out.([]string)
	if !ok || len(sample) == 0 {
		return fileShape{}, fmt.Errorf("peek_file returned an unusable sample for %q", name)
	}
	columns := strings.Split(sample[0], ",")
	for i := range columns {
		columns[i] = strings.TrimSpace(strings.ToLower(columns[i]))
	}
	return fileShape{name: name, label: entityLabel(name), columns: columns}, nil
}

// buildSchema turns file shapes into a schema. A file whose foreign keys
// reference exactly two other known entities and which carries no other
// fields is a join table: it becomes a relationship, not an entity.
func buildSchema(files []fileShape) domain.GraphSchema {
	known := map[string]bool{}
	for _, f := range files {
		known[f.label] = true
	}

	var s domain.GraphSchema
	for _, f := range files {
		refs, fields := splitColumns(f, known)
		if len(refs) == 2 && len(fields) == 0 {
			s.RelationshipTypes = append(s.RelationshipTypes, domain.RelationshipType{
				Label:  f.label,
				Source: refs[0],
				Target: refs[1],
			})
			continue
		}
		s.EntityTypes = append(s.EntityTypes, domain.EntityType{Label: f.label, Fields: fields})
		for _, target := range refs {
			s.RelationshipTypes = append(s.RelationshipTypes, domain.RelationshipType{
				Label:  "HAS_" + target,
				Source: f.label,
				Target: target,
			})
		}
	}
	return s
}

// splitColumns partitions a file's columns into foreign-key references to
// other known entities and plain fields. The file's own id column counts
// as neither.
func splitColumns(f fileShape, known map[string]bool) (refs []string, fields []string) {
	for _, col := range f.columns {
		if col == "id" || col == strings.ToLower(f.label)+"_id" {
			continue
		}
		if base, ok := strings.CutSuffix(col, "_id"); ok {
			target := strings.ToUpper(singularize(base))
			if known[target] {
				refs = append(refs, target)
				continue
			}
		}
		fields = append(fields, col)
	}
	return refs, fields
}

// connectOrphans links every entity unreachable from the first one to it
// with a generic relationship. Crude, but it turns a disconnection
// critique into a concrete revision the critic can evaluate.
func connectOrphans(s domain.GraphSchema) domain.GraphSchema {
	if s.Connected() || len(s.EntityTypes) < 2 {
		return s
	}
	anchor := s.EntityTypes[0].Label
	for _, e := range s.EntityTypes[1:] {
		if !reachable(s, anchor, e.Label) {
			s.RelationshipTypes = append(s.RelationshipTypes, domain.RelationshipType{
				Label:  "RELATED_TO",
				Source: anchor,
				Target: e.Label,
			})
		}
	}
	return s
}

func reachable(s domain.GraphSchema, from, to string) bool {
	adjacent := map[string][]string{}
	for _, r := range s.RelationshipTypes {
		adjacent[r.Source] = append(adjacent[r.Source], r.Target)
		adjacent[r.Target] = append(adjacent[r.Target], r.Source)
	}
	seen := map[string]bool{from: true}
	frontier := []string{from}
	for len(frontier) > 0 {
		next := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]
		for _, n := range adjacent[next] {
			if !seen[n] {
				seen[n] = true
				frontier = append(frontier, n)
			}
		}
	}
	return seen[to]
}
