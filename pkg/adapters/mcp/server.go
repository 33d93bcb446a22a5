// Package mcp exposes the negotiation engine as an MCP server, so model
// hosts can drive sessions as tools: start a session, relay reviewer
// messages, read the transcript and the committed results.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	concord "github.com/aretw0/concord"
	"github.com/aretw0/concord/internal/presentation/graph"
	"github.com/aretw0/concord/pkg/adapters/memory"
	"github.com/aretw0/concord/pkg/domain"
)

// SessionView is the structured result shared by the session tools.
type SessionView struct {
	SessionID string              `json:"session_id"`
	Status    string              `json:"status"`
	Artifacts []string            `json:"artifacts"`
	Goal      *domain.UserGoal    `json:"goal,omitempty"`
	Schema    *domain.GraphSchema `json:"schema,omitempty"`
	Messages  []domain.Message    `json:"messages,omitempty"`
}

// Server wraps an Engine and exposes it over MCP.
type Server struct {
	engine    *concord.Engine
	mcpServer *server.MCPServer

	mu   sync.Mutex
	runs map[string]*run
}

type run struct {
	channel *memory.Channel
	cancel  context.CancelFunc
	done    chan struct{}

	mu  sync.Mutex
	err error
}

// NewServer creates an MCP server over the engine.
func NewServer(engine *concord.Engine) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("concord-mcp", concord.Version),
		runs:      make(map[string]*run),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE, shutting down
// gracefully when ctx is canceled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))
	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{Addr: addr, Handler: mux}
	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	startTool := mcp.NewTool("start_session",
		mcp.WithDescription("Start a negotiation session: upload CSV artifacts and open the goal conversation. Returns the session view including the agent's first proposal once available."),
		mcp.WithString("opening", mcp.Required(), mcp.Description("The reviewer's opening request, e.g. 'I want a graph of my org chart'")),
		mcp.WithString("artifacts", mcp.Description("JSON array of CSV artifacts: [{name, header, rows: [...]}, ...]")),
		mcp.WithOutputSchema[SessionView](),
	)
	s.mcpServer.AddTool(startTool, mcp.NewStructuredToolHandler(s.handleStartSession))

	messageTool := mcp.NewTool("send_message",
		mcp.WithDescription("Send a reviewer message to a running session (feedback or approval) and return the updated session view."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("content", mcp.Required(), mcp.Description("The reviewer's message")),
		mcp.WithOutputSchema[SessionView](),
	)
	s.mcpServer.AddTool(messageTool, mcp.NewStructuredToolHandler(s.handleSendMessage))

	viewTool := mcp.NewTool("get_session",
		mcp.WithDescription("Get a session's status, transcript and committed results."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[SessionView](),
	)
	s.mcpServer.AddTool(viewTool, mcp.NewStructuredToolHandler(s.handleGetSession))

	s.mcpServer.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List known session IDs."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids, err := s.engine.Sessions().List(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(ids)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) registerResources() {
	template := mcp.NewResourceTemplate(
		"concord://sessions/{session_id}/schema.mmd",
		"Committed schema diagram",
		mcp.WithTemplateDescription("The approved graph schema of a session, rendered as mermaid."),
		mcp.WithTemplateMIMEType("text/vnd.mermaid"),
	)
	s.mcpServer.AddResourceTemplate(template, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		id := extractSessionID(request.Params.URI)
		state, err := s.engine.Sessions().Load(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load session: %w", err)
		}
		if state.Schema == nil {
			return nil, fmt.Errorf("session %s has no committed schema yet", id)
		}
		return []mcp.ResourceContents{mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "text/vnd.mermaid",
			Text:     graph.Mermaid(*state.Schema),
		}}, nil
	})
}

func extractSessionID(uri string) string {
	rest, ok := strings.CutPrefix(uri, "concord://sessions/")
	if !ok {
		return ""
	}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		return rest[:i]
	}
	return rest
}

func (s *Server) handleStartSession(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (SessionView, error) {
	opening, _ := args["opening"].(string)
	if opening == "" {
		return SessionView{}, errors.New("opening is required")
	}

	var artifacts []domain.CSVFile
	if raw, ok := args["artifacts"].(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &artifacts); err != nil {
			return SessionView{}, fmt.Errorf("invalid artifacts payload: %w", err)
		}
	}

	id, err := s.engine.StartSession(ctx, artifacts...)
	if err != nil {
		return SessionView{}, fmt.Errorf("start session: %w", err)
	}

	active := &run{channel: memory.NewChannel(), done: make(chan struct{})}
	runCtx, cancel := context.WithCancel(context.Background())
	active.cancel = cancel

	s.mu.Lock()
	s.runs[id] = active
	s.mu.Unlock()

	go func() {
		defer cancel()
		err := s.engine.Run(runCtx, id, active.channel, opening)
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("session run ended with error", "session_id", id, "err", err)
		}
		active.mu.Lock()
		active.err = err
		active.mu.Unlock()
		close(active.done)
	}()

	s.awaitQuiet(active)
	return s.view(ctx, id)
}

func (s *Server) handleSendMessage(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (SessionView, error) {
	id, _ := args["session_id"].(string)
	content, _ := args["content"].(string)
	if id == "" || content == "" {
		return SessionView{}, errors.New("session_id and content are required")
	}

	s.mu.Lock()
	active := s.runs[id]
	s.mu.Unlock()
	if active == nil {
		return SessionView{}, fmt.Errorf("no active run for session %s", id)
	}
	if err := active.channel.Post(domain.UserMessage(content)); err != nil {
		return SessionView{}, fmt.Errorf("post message: %w", err)
	}

	s.awaitQuiet(active)
	return s.view(ctx, id)
}

func (s *Server) handleGetSession(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (SessionView, error) {
	id, _ := args["session_id"].(string)
	if id == "" {
		return SessionView{}, errors.New("session_id is required")
	}
	return s.view(ctx, id)
}

// awaitQuiet gives the workflow a moment to react before the view is
// assembled, so a tool call returns the agent's response to it instead of
// forcing an immediate follow-up poll. It returns as soon as the run needs
// input again (inbox drained and transcript stable) or ends.
func (s *Server) awaitQuiet(active *run) {
	deadline := time.After(2 * time.Second)
	var lastLen int
	stable := 0
	for {
		select {
		case <-active.done:
			return
		case <-deadline:
			return
		case <-time.After(20 * time.Millisecond):
			n := len(active.channel.Transcript())
			if n == lastLen {
				stable++
				if stable >= 3 && active.channel.Pending() == 0 {
					return
				}
			} else {
				stable = 0
				lastLen = n
			}
		}
	}
}

func (s *Server) view(ctx context.Context, id string) (SessionView, error) {
	state, err := s.engine.Sessions().Load(ctx, id)
	if err != nil {
		return SessionView{}, fmt.Errorf("load session: %w", err)
	}

	view := SessionView{
		SessionID: id,
		Status:    "idle",
		Artifacts: state.CSVNames(),
		Goal:      state.Goal,
		Schema:    state.Schema,
	}

	s.mu.Lock()
	active := s.runs[id]
	s.mu.Unlock()
	if active != nil {
		view.Messages = active.channel.Transcript()
		select {
		case <-active.done:
			active.mu.Lock()
			runErr := active.err
			active.mu.Unlock()
			if runErr != nil {
				view.Status = "failed"
			} else {
				view.Status = "completed"
			}
		default:
			view.Status = "running"
		}
	}
	return view, nil
}
