package domain

import (
	"sort"
	"strings"
)

// EntityType is a proposed node type in the knowledge graph.
type EntityType struct {
	// Label names the type as an all-caps string with underscores,
	// e.g. PERSON, COMPANY, PRODUCT.
	Label string `json:"label" yaml:"label" mapstructure:"label"`

	// Fields lists the snake_case attribute names instances of this
	// type can carry.
	Fields []string `json:"fields,omitempty" yaml:"fields,omitempty" mapstructure:"fields"`
}

// RelationshipType is a proposed edge type in the knowledge graph.
type RelationshipType struct {
	// Label names the type as an all-caps string with underscores,
	// e.g. WORKS_AT, PURCHASED.
	Label  string `json:"label" yaml:"label" mapstructure:"label"`
	Source string `json:"source" yaml:"source" mapstructure:"source"`
	Target string `json:"target" yaml:"target" mapstructure:"target"`
}

// GraphSchema is the structured proposal negotiated by the schema loop:
// entity types and relationship types, no instances. It is replaced
// wholesale on revision, never merged field by field.
type GraphSchema struct {
	EntityTypes       []EntityType       `json:"entity_types" yaml:"entity_types" mapstructure:"entity_types"`
	RelationshipTypes []RelationshipType `json:"relationship_types" yaml:"relationship_types" mapstructure:"relationship_types"`
}

// Empty reports whether the schema proposes nothing.
func (s GraphSchema) Empty() bool {
	return len(s.EntityTypes) == 0 && len(s.RelationshipTypes) == 0
}

// Entity returns the entity type with the given label, if present.
func (s GraphSchema) Entity(label string) (EntityType, bool) {
	for _, e := range s.EntityTypes {
		if e.Label == label {
			return e, true
		}
	}
	return EntityType{}, false
}

// Connected reports whether every entity type is reachable from the first
// one, treating relationships as undirected edges. A schema with isolated
// components is a weak proposal; the critic uses this to push back.
func (s GraphSchema) Connected() bool {
	if len(s.EntityTypes) <= 1 {
		return true
	}
	adjacent := make(map[string][]string)
	for _, r := range s.RelationshipTypes {
		adjacent[r.Source] = append(adjacent[r.Source], r.Target)
		adjacent[r.Target] = append(adjacent[r.Target], r.Source)
	}
	seen := map[string]bool{s.EntityTypes[0].Label: true}
	frontier := []string{s.EntityTypes[0].Label}
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
	for _, e := range s.EntityTypes {
		if !seen[e.Label] {
			return false
		}
	}
	return true
}

// Equal reports whether two schemas propose the same types, ignoring order.
func (s GraphSchema) Equal(other GraphSchema) bool {
	return s.fingerprint() == other.fingerprint()
}

func (s GraphSchema) fingerprint() string {
	entities := make([]string, 0, len(s.EntityTypes))
	for _, e := range s.EntityTypes {
		fields := append([]string(nil), e.Fields...)
		sort.Strings(fields)
		entities = append(entities, e.Label+"("+strings.Join(fields, ",")+")")
	}
	sort.Strings(entities)

	relationships := make([]string, 0, len(s.RelationshipTypes))
	for _, r := range s.RelationshipTypes {
		relationships = append(relationships, r.Source+"-"+r.Label+"->"+r.Target)
	}
	sort.Strings(relationships)

	return strings.Join(entities, ";") + "|" + strings.Join(relationships, ";")
}
