// Package http exposes the negotiation engine over a REST-ish API: create
// a session, post reviewer messages, read the transcript, stream agent
// messages over SSE.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-viper/mapstructure/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	concord "github.com/aretw0/concord"
	"github.com/aretw0/concord/pkg/adapters/memory"
	"github.com/aretw0/concord/pkg/domain"
)

// Server runs negotiation workflows for HTTP clients. Each created session
// gets its own channel and a background workflow goroutine; posted
// messages feed the channel, agent output is readable as a transcript or
// an SSE stream.
type Server struct {
	engine  *concord.Engine
	streams *StreamManager

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

func (r *run) finish(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
	close(r.done)
}

func (r *run) status() (string, string) {
	select {
	case <-r.done:
	default:
		return "running", ""
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "failed", r.err.Error()
	}
	return "completed", ""
}

// Option configures the handler.
type Option func(*config)

type config struct {
	metrics prometheus.Gatherer
}

// WithMetrics mounts a Prometheus /metrics endpoint for the gatherer.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(c *config) { c.metrics = g }
}

// NewHandler creates the HTTP handler for an engine.
func NewHandler(engine *concord.Engine, opts ...Option) http.Handler {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Server{
		engine:  engine,
		streams: NewStreamManager(),
		runs:    make(map[string]*run),
	}

	r := chi.NewRouter()
	r.Get("/healthz", s.health)
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.createSession)
		r.Get("/", s.listSessions)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Delete("/", s.deleteSession)
			r.Post("/messages", s.postMessage)
			r.Get("/transcript", s.getTranscript)
			r.Get("/events", s.subscribeEvents)
		})
	})
	if cfg.metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.metrics, promhttp.HandlerOpts{}))
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type createSessionRequest struct {
	Opening   string           `mapstructure:"opening"`
	Artifacts []domain.CSVFile `mapstructure:"artifacts"`
	Docs      []domain.DocFile `mapstructure:"docs"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	// Decode through a generic map so artifact shapes get mapstructure's
	// lenient field handling rather than strict JSON struct matching.
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	var body createSessionRequest
	if err := mapstructure.Decode(raw, &body); err != nil {
		http.Error(w, fmt.Sprintf("invalid session payload: %v", err), http.StatusBadRequest)
		return
	}
	if body.Opening == "" {
		http.Error(w, "opening message is required", http.StatusBadRequest)
		return
	}

	id, err := s.engine.StartSession(r.Context(), body.Artifacts...)
	if err != nil {
		http.Error(w, fmt.Sprintf("start session: %v", err), http.StatusInternalServerError)
		slog.Error("session creation failed", "err", err)
		return
	}
	for _, doc := range body.Docs {
		if err := s.engine.AttachDoc(r.Context(), id, doc); err != nil {
			http.Error(w, fmt.Sprintf("attach doc: %v", err), http.StatusInternalServerError)
			return
		}
	}

	active := &run{
		channel: memory.NewChannel(),
		done:    make(chan struct{}),
	}
	runCtx, cancel := context.WithCancel(context.Background())
	active.cancel = cancel

	s.mu.Lock()
	s.runs[id] = active
	s.mu.Unlock()

	channel := &broadcastChannel{Channel: active.channel, streams: s.streams, sessionID: id}
	go func() {
		defer cancel()
		err := s.engine.Run(runCtx, id, channel, body.Opening)
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("session run ended with error", "session_id", id, "err", err)
		}
		active.finish(err)
	}()

	writeJSON(w, http.StatusCreated, map[string]string{"session_id": id})
}

func (s *Server) lookup(sessionID string) *run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[sessionID]
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.engine.Sessions().List(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("list sessions: %v", err), http.StatusInternalServerError)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": ids})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	state, err := s.engine.Sessions().Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("load session: %v", err), http.StatusInternalServerError)
		return
	}

	resp := map[string]any{
		"session_id": id,
		"artifacts":  state.CSVNames(),
		"goal":       state.Goal,
		"schema":     state.Schema,
	}
	if active := s.lookup(id); active != nil {
		status, errMsg := active.status()
		resp["status"] = status
		if errMsg != "" {
			resp["error"] = errMsg
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	s.mu.Lock()
	active := s.runs[id]
	delete(s.runs, id)
	s.mu.Unlock()
	if active != nil {
		active.cancel()
	}

	if err := s.engine.Sessions().Delete(r.Context(), id); err != nil {
		http.Error(w, fmt.Sprintf("delete session: %v", err), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type postMessageRequest struct {
	Content string `json:"content"`
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	active := s.lookup(id)
	if active == nil {
		// The session may still exist in the store without an in-process
		// run, e.g. after a server restart with a Redis store.
		if !s.sessionStored(w, r, id) {
			return
		}
		http.Error(w, "no active run for session", http.StatusConflict)
		return
	}

	var body postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Content == "" {
		http.Error(w, "message content is required", http.StatusBadRequest)
		return
	}

	select {
	case <-active.done:
		status, _ := active.status()
		http.Error(w, fmt.Sprintf("session run already %s", status), http.StatusConflict)
		return
	default:
	}

	if err := active.channel.Post(domain.UserMessage(body.Content)); err != nil {
		if errors.Is(err, memory.ErrInboxFull) {
			http.Error(w, "reviewer inbox is full", http.StatusTooManyRequests)
			return
		}
		http.Error(w, fmt.Sprintf("post message: %v", err), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) getTranscript(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	active := s.lookup(id)
	if active == nil {
		if !s.sessionStored(w, r, id) {
			return
		}
		// Stored but idle: the transcript lives with the run, so there is
		// nothing to show yet.
		writeJSON(w, http.StatusOK, map[string]any{"messages": []domain.Message{}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": active.channel.Transcript()})
}

// sessionStored reports whether the session exists in the backing store,
// writing the error response itself when it does not.
func (s *Server) sessionStored(w http.ResponseWriter, r *http.Request, id string) bool {
	if _, err := s.engine.Sessions().Load(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
		} else {
			http.Error(w, fmt.Sprintf("load session: %v", err), http.StatusInternalServerError)
		}
		return false
	}
	return true
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}

// broadcastChannel fans every outbound message to SSE subscribers in
// addition to recording it on the transcript.
type broadcastChannel struct {
	*memory.Channel
	streams   *StreamManager
	sessionID string
}

func (b *broadcastChannel) Send(ctx context.Context, msg domain.Message) error {
	if err := b.Channel.Send(ctx, msg); err != nil {
		return err
	}
	if data, err := json.Marshal(msg); err == nil {
		b.streams.Broadcast(b.sessionID, string(data))
	}
	return nil
}
