package http

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
)

// StreamManager tracks active SSE subscriptions per session.
type StreamManager struct {
	mu   sync.Mutex
	subs map[string][]chan string
}

// NewStreamManager creates an empty manager.
func NewStreamManager() *StreamManager {
	return &StreamManager{subs: make(map[string][]chan string)}
}

// Subscribe registers a listener for one session's outbound messages.
// The returned cancel func must be called when the client goes away.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan string, func()) {
	ch := make(chan string, 16)
	sm.mu.Lock()
	sm.subs[sessionID] = append(sm.subs[sessionID], ch)
	sm.mu.Unlock()

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		subs := sm.subs[sessionID]
		for i, c := range subs {
			if c == ch {
				sm.subs[sessionID] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		if len(sm.subs[sessionID]) == 0 {
			delete(sm.subs, sessionID)
		}
	}
}

// Broadcast delivers a payload to every subscriber of the session. Slow
// subscribers are skipped rather than blocking the workflow.
func (sm *StreamManager) Broadcast(sessionID, payload string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for _, ch := range sm.subs[sessionID] {
		select {
		case ch <- payload:
		default:
		}
	}
}

// subscribeEvents streams a session's agent messages as server-sent
// events.
func (s *Server) subscribeEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch, cancel := s.streams.Subscribe(id)
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case payload := <-ch:
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
