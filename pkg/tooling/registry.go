// Package tooling gives capabilities bounded, named access to session
// artifacts. Capabilities never see raw uploads; they inspect files through
// registered tools like "peek_file" and "search_file".
package tooling

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aretw0/concord/pkg/domain"
)

// ToolFunc is a tool implementation. It receives the shared session state
// and a map of arguments, and returns a result or error.
type ToolFunc func(ctx context.Context, state *domain.SessionState, args map[string]any) (any, error)

// Registry manages the available tools.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]ToolFunc
}

// NewRegistry creates a registry with the builtin artifact tools.
func NewRegistry() *Registry {
	r := &Registry{
		tools: make(map[string]ToolFunc),
	}
	r.Register("peek_file", PeekFile)
	r.Register("search_file", SearchFile)
	return r
}

// Register adds a tool to the registry.
// If a tool with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn ToolFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[name] = fn
}

// Execute looks up a tool by name and executes it.
// Returns an error if the tool is not found.
func (r *Registry) Execute(ctx context.Context, state *domain.SessionState, name string, args map[string]any) (any, error) {
	r.mu.RLock()
	fn, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("tool not found: %s", name)
	}
	return fn(ctx, state, args)
}

func stringArg(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing required argument %q", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string", key)
	}
	return s, nil
}

// PeekFile returns the header plus the first rows of a structured artifact,
// or the markdown body of an unstructured one. A lookup of an unknown
// filename yields a MissingArtifactError so the caller can ask the reviewer
// for a corrected name instead of aborting.
func PeekFile(_ context.Context, state *domain.SessionState, args map[string]any) (any, error) {
	name, err := stringArg(args, "filename")
	if err != nil {
		return nil, err
	}
	if f, err := state.CSV(name); err == nil {
		return f.Sample(), nil
	}
	doc, err := state.Doc(name)
	if err != nil {
		return nil, err
	}
	return []string{doc.Content}, nil
}

// SearchFile returns the rows of a structured artifact containing the query
// substring. Heuristic capabilities use it to verify whether a suspected
// identifier is unique before treating it as a key.
func SearchFile(_ context.Context, state *domain.SessionState, args map[string]any) (any, error) {
	name, err := stringArg(args, "filename")
	if err != nil {
		return nil, err
	}
	query, err := stringArg(args, "query")
	if err != nil {
		return nil, err
	}

	f, err := state.CSV(name)
	if err != nil {
		return nil, err
	}

	var matches []string
	for _, row := range f.Rows {
		if strings.Contains(row, query) {
			matches = append(matches, row)
		}
	}
	return matches, nil
}
