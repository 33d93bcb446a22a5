package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	concord "github.com/aretw0/concord"
	"github.com/aretw0/concord/pkg/domain"
)

func artifactsJSON(t *testing.T) string {
	t.Helper()
	data, err := json.Marshal([]domain.CSVFile{
		{Name: "people.csv", Header: "id,name,company_id", Rows: []string{"1,Ada,10"}},
		{Name: "companies.csv", Header: "id,name,city", Rows: []string{"10,Initech,Dallas"}},
	})
	require.NoError(t, err)
	return string(data)
}

func TestSessionToolsNegotiateToCompletion(t *testing.T) {
	s := NewServer(concord.New())
	ctx := context.Background()

	view, err := s.handleStartSession(ctx, mcp.CallToolRequest{}, map[string]any{
		"opening":   "I want a graph of my org chart",
		"artifacts": artifactsJSON(t),
	})
	require.NoError(t, err)
	require.NotEmpty(t, view.SessionID)
	assert.Equal(t, "running", view.Status)
	assert.Equal(t, []string{"companies.csv", "people.csv"}, view.Artifacts)
	require.NotEmpty(t, view.Messages, "the first goal proposal should be in the transcript")

	id := view.SessionID
	view, err = s.handleSendMessage(ctx, mcp.CallToolRequest{}, map[string]any{
		"session_id": id,
		"content":    "approve",
	})
	require.NoError(t, err)
	assert.Equal(t, "running", view.Status)

	view, err = s.handleSendMessage(ctx, mcp.CallToolRequest{}, map[string]any{
		"session_id": id,
		"content":    "approve",
	})
	require.NoError(t, err)
	assert.Equal(t, "completed", view.Status)
	require.NotNil(t, view.Goal)
	require.NotNil(t, view.Schema)
	assert.True(t, view.Schema.Connected())
}

func TestStartSessionValidation(t *testing.T) {
	s := NewServer(concord.New())

	_, err := s.handleStartSession(context.Background(), mcp.CallToolRequest{}, map[string]any{})
	assert.ErrorContains(t, err, "opening is required")

	_, err = s.handleStartSession(context.Background(), mcp.CallToolRequest{}, map[string]any{
		"opening":   "hello",
		"artifacts": "not json",
	})
	assert.ErrorContains(t, err, "invalid artifacts payload")
}

func TestSendMessageUnknownSession(t *testing.T) {
	s := NewServer(concord.New())
	_, err := s.handleSendMessage(context.Background(), mcp.CallToolRequest{}, map[string]any{
		"session_id": "nope",
		"content":    "hi",
	})
	assert.ErrorContains(t, err, "no active run")
}

func TestGetSessionReportsStoreState(t *testing.T) {
	engine := concord.New()
	s := NewServer(engine)
	ctx := context.Background()

	id, err := engine.StartSession(ctx)
	require.NoError(t, err)

	view, err := s.handleGetSession(ctx, mcp.CallToolRequest{}, map[string]any{"session_id": id})
	require.NoError(t, err)
	assert.Equal(t, "idle", view.Status, "a session without an MCP run is idle")
	assert.Nil(t, view.Goal)
}
