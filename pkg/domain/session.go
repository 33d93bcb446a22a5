package domain

import "sort"

// SessionState is the shared, workflow-scoped state of one negotiation
// session. All loops read it; only the decisive step of a loop writes to
// it, and each commit slot is set-once: an approved value is never
// overwritten.
//
// SessionState is not safe for concurrent use by itself; the session
// Manager serializes access per session ID. Distinct sessions always use
// distinct SessionState values.
type SessionState struct {
	// CSVFiles maps filename -> structured artifact.
	CSVFiles map[string]CSVFile `json:"csv_files" yaml:"csv_files"`

	// Docs maps filename -> unstructured artifact.
	Docs map[string]DocFile `json:"docs" yaml:"docs"`

	// Goal is the approved user goal, nil until the intent loop commits it.
	Goal *UserGoal `json:"goal,omitempty" yaml:"goal,omitempty"`

	// Schema is the approved graph schema, nil until the schema loop
	// commits it.
	Schema *GraphSchema `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// NewSessionState creates an empty session state.
func NewSessionState() *SessionState {
	return &SessionState{
		CSVFiles: make(map[string]CSVFile),
		Docs:     make(map[string]DocFile),
	}
}

// AddCSV registers a structured artifact under its filename.
func (s *SessionState) AddCSV(f CSVFile) {
	if s.CSVFiles == nil {
		s.CSVFiles = make(map[string]CSVFile)
	}
	s.CSVFiles[f.Name] = f
}

// AddDoc registers an unstructured artifact under its filename.
func (s *SessionState) AddDoc(f DocFile) {
	if s.Docs == nil {
		s.Docs = make(map[string]DocFile)
	}
	s.Docs[f.Name] = f
}

// CSV looks up a structured artifact by name. Absence is a recoverable
// MissingArtifactError, not a panic: the caller decides whether to retry
// with a corrected name or ask the reviewer.
func (s *SessionState) CSV(name string) (CSVFile, error) {
	f, ok := s.CSVFiles[name]
	if !ok {
		return CSVFile{}, &MissingArtifactError{Name: name}
	}
	return f, nil
}

// CSVNames returns the registered structured artifact names, sorted.
func (s *SessionState) CSVNames() []string {
	names := make([]string, 0, len(s.CSVFiles))
	for name := range s.CSVFiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Doc looks up an unstructured artifact by name, with the same recoverable
// absence semantics as CSV.
func (s *SessionState) Doc(name string) (DocFile, error) {
	d, ok := s.Docs[name]
	if !ok {
		return DocFile{}, &MissingArtifactError{Name: name}
	}
	return d, nil
}

// DocNames returns the registered unstructured artifact names, sorted.
func (s *SessionState) DocNames() []string {
	names := make([]string, 0, len(s.Docs))
	for name := range s.Docs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CommitGoal writes the approved goal slot. Committing an identical value
// again is a no-op; a different value yields ErrAlreadyCommitted.
func (s *SessionState) CommitGoal(g UserGoal) error {
	if s.Goal != nil {
		if s.Goal.Equal(g) {
			return nil
		}
		return ErrAlreadyCommitted
	}
	s.Goal = &g
	return nil
}

// CommitSchema writes the approved schema slot with the same set-once
// semantics as CommitGoal.
func (s *SessionState) CommitSchema(schema GraphSchema) error {
	if s.Schema != nil {
		if s.Schema.Equal(schema) {
			return nil
		}
		return ErrAlreadyCommitted
	}
	s.Schema = &schema
	return nil
}

// Clone returns a deep copy safe to hand across a store boundary.
func (s *SessionState) Clone() *SessionState {
	out := NewSessionState()
	for name, f := range s.CSVFiles {
		copied := f
		copied.Rows = append([]string(nil), f.Rows...)
		out.CSVFiles[name] = copied
	}
	for name, d := range s.Docs {
		out.Docs[name] = d
	}
	if s.Goal != nil {
		goal := *s.Goal
		out.Goal = &goal
	}
	if s.Schema != nil {
		schema := GraphSchema{
			EntityTypes:       make([]EntityType, 0, len(s.Schema.EntityTypes)),
			RelationshipTypes: append([]RelationshipType(nil), s.Schema.RelationshipTypes...),
		}
		for _, e := range s.Schema.EntityTypes {
			copied := e
			copied.Fields = append([]string(nil), e.Fields...)
			schema.EntityTypes = append(schema.EntityTypes, copied)
		}
		out.Schema = &schema
	}
	return out
}
