package tooling

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/concord/pkg/domain"
)

func stateWithPeople(t *testing.T) *domain.SessionState {
	t.Helper()
	state := domain.NewSessionState()
	state.AddCSV(domain.CSVFile{
		Name:   "people.csv",
		Header: "id,name,team",
		Rows: []string{
			"1,Ada,platform",
			"2,Grace,compilers",
			"3,Edsger,platform",
		},
	})
	return state
}

func TestRegistryExecuteUnknownTool(t *testing.T) {
	r := NewRegistry()
	_, err := r.Execute(context.Background(), domain.NewSessionState(), "nope", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tool not found")
}

func TestRegistryRegisterCustomTool(t *testing.T) {
	r := NewRegistry()
	r.Register("count_files", func(_ context.Context, state *domain.SessionState, _ map[string]any) (any, error) {
		return len(state.CSVNames()), nil
	})

	out, err := r.Execute(context.Background(), stateWithPeople(t), "count_files", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, out)
}

func TestPeekFile(t *testing.T) {
	r := NewRegistry()
	state := stateWithPeople(t)

	out, err := r.Execute(context.Background(), state, "peek_file", map[string]any{"filename": "people.csv"})
	require.NoError(t, err)

	sample, ok := out.([]string)
	require.True(t, ok)
	require.Len(t, sample, 4)
	assert.Equal(t, "id,name,team", sample[0])
	assert.Equal(t, "1,Ada,platform", sample[1])
}

func TestPeekFileUnstructuredDoc(t *testing.T) {
	r := NewRegistry()
	state := stateWithPeople(t)
	state.AddDoc(domain.DocFile{
		Name:    "notes.md",
		Title:   "Team notes",
		Content: "# Team notes\n\nPlatform owns the ingest pipeline.",
	})

	out, err := r.Execute(context.Background(), state, "peek_file", map[string]any{"filename": "notes.md"})
	require.NoError(t, err)

	body, ok := out.([]string)
	require.True(t, ok)
	require.Len(t, body, 1)
	assert.Contains(t, body[0], "ingest pipeline")
}

func TestPeekFileMissingArtifact(t *testing.T) {
	r := NewRegistry()
	_, err := r.Execute(context.Background(), stateWithPeople(t), "peek_file", map[string]any{"filename": "ghosts.csv"})
	require.Error(t, err)
	assert.True(t, domain.IsMissingArtifact(err))
}

func TestPeekFileArgumentValidation(t *testing.T) {
	r := NewRegistry()
	state := stateWithPeople(t)

	_, err := r.Execute(context.Background(), state, "peek_file", map[string]any{})
	assert.ErrorContains(t, err, "missing required argument")

	_, err = r.Execute(context.Background(), state, "peek_file", map[string]any{"filename": 42})
	assert.ErrorContains(t, err, "must be a string")
}

func TestSearchFile(t *testing.T) {
	r := NewRegistry()
	state := stateWithPeople(t)

	out, err := r.Execute(context.Background(), state, "search_file", map[string]any{
		"filename": "people.csv",
		"query":    "platform",
	})
	require.NoError(t, err)

	matches, ok := out.([]string)
	require.True(t, ok)
	assert.Equal(t, []string{"1,Ada,platform", "3,Edsger,platform"}, matches)
}

func TestSearchFileNoMatches(t *testing.T) {
	r := NewRegistry()
	out, err := r.Execute(context.Background(), stateWithPeople(t), "search_file", map[string]any{
		"filename": "people.csv",
		"query":    "marketing",
	})
	require.NoError(t, err)
	assert.Empty(t, out)
}
