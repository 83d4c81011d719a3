// Package api exposes the MindBridge HTTP surface: conversation turns,
// session inspection, therapist roster management, and health checks.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mindbridge-ai/MindBridge/internal/flow"
	"github.com/mindbridge-ai/MindBridge/internal/store"
)

// read/write timeouts for the HTTP server. Turn handling can block on
// model calls, so the write timeout is generous.
const (
	serverReadTimeout  = 30 * time.Second
	serverWriteTimeout = 120 * time.Second
)

// Server wires the workflow and store behind HTTP handlers.
type Server struct {
	workflow *flow.Workflow
	st       store.Store

	// sessionLocks serializes turns per session so two concurrent
	// requests for the same conversation cannot interleave state.
	// Entries are refcounted: the map slot lives as long as any
	// request holds or waits on the lock, so a DELETE racing a turn
	// cannot hand the next turn a fresh, unheld mutex.
	mu           sync.Mutex
	sessionLocks map[string]*sessionLock

	httpServer *http.Server
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewServer creates an API server around the given workflow and store.
func NewServer(workflow *flow.Workflow, st store.Store) *Server {
	return &Server{
		workflow:     workflow,
		st:           st,
		sessionLocks: make(map[string]*sessionLock),
	}
}

// acquireSessionLock blocks until the caller holds the session's lock.
// Every acquire must be paired with releaseSessionLock.
func (s *Server) acquireSessionLock(sessionID string) *sessionLock {
	s.mu.Lock()
	lock, ok := s.sessionLocks[sessionID]
	if !ok {
		lock = &sessionLock{}
		s.sessionLocks[sessionID] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.mu.Lock()
	return lock
}

// releaseSessionLock unlocks the session's lock and drops the map entry
// once no request holds or waits on it, so the map does not grow
// without bound.
func (s *Server) releaseSessionLock(sessionID string, lock *sessionLock) {
	lock.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(s.sessionLocks, sessionID)
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/turn", s.turnHandler)
	mux.HandleFunc("GET /v1/sessions/{id}", s.getSessionHandler)
	mux.HandleFunc("DELETE /v1/sessions/{id}", s.deleteSessionHandler)
	mux.HandleFunc("GET /v1/therapists", s.listTherapistsHandler)
	mux.HandleFunc("POST /v1/therapists", s.addTherapistHandler)
	mux.HandleFunc("GET /v1/stats", s.statsHandler)
	mux.HandleFunc("GET /health", s.healthHandler)
	return mux
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
	}
	slog.Info("Server.Run: MindBridge API listening", "addr", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("API server failed: %w", err)
	}
	return nil
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	slog.Info("Server.Shutdown: stopping API server")
	return s.httpServer.Shutdown(ctx)
}
