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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/routing"
)

// DefaultSession is used when a request names no session.
const DefaultSession = "default"

// Sessions is the navigation surface the server exposes. *session.Manager implements it.
type Sessions interface {
	Navigate(ctx context.Context, sessionID, path string) (*domain.Snapshot, error)
	Current(ctx context.Context, sessionID string) (*domain.Snapshot, error)
}

// NavigateRequest is the body of POST /navigate.
type NavigateRequest struct {
	Path    string `json:"path"`
	Session string `json:"session,omitempty"`
}

// Server serves navigation over HTTP.
type Server struct {
	Sessions Sessions
	Routes   []routing.RouteInfo
	Streams  *StreamManager

	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithGatherer exposes the gatherer's metrics on GET /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates the HTTP handler. routes is served as-is on GET /routes.
func NewHandler(sessions Sessions, routes []routing.RouteInfo, opts ...Option) http.Handler {
	s := &Server{
		Sessions: sessions,
		Routes:   routes,
		Streams:  NewStreamManager(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger

	r := chi.NewRouter()
	r.Post("/navigate", s.Navigate)
	r.Get("/state", s.GetState)
	r.Get("/routes", s.GetRoutes)
	r.Get("/events", s.SubscribeEvents)
	r.Get("/health", s.GetHealth)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StatusFor maps a navigation error to an HTTP status code.
func StatusFor(err error) int {
	var matchErr *domain.RouteMatchError
	var rejection *domain.HookRejection
	switch {
	case errors.As(err, &matchErr), errors.Is(err, domain.ErrSnapshotNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidPath):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrHookTimeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &rejection):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Navigate handles the POST /navigate request.
func (s *Server) Navigate(w http.ResponseWriter, r *http.Request) {
	var body NavigateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("navigate: invalid request body", "error", err)
		return
	}
	sessionID := body.Session
	if sessionID == "" {
		sessionID = DefaultSession
	}
	path, err := routing.SanitizePath(body.Path)
	if err != nil {
		http.Error(w, fmt.Sprintf("Navigate error: %v", err), StatusFor(err))
		s.logger.Warn("navigate: rejected path", "session_id", sessionID, "error", err)
		return
	}
	body.Path = path

	previous, err := s.Sessions.Current(r.Context(), sessionID)
	if err != nil && !errors.Is(err, domain.ErrSnapshotNotFound) {
		s.logger.Warn("navigate: previous snapshot unavailable", "session_id", sessionID, "error", err)
	}

	snap, err := s.Sessions.Navigate(r.Context(), sessionID, body.Path)
	if err != nil {
		code := StatusFor(err)
		http.Error(w, fmt.Sprintf("Navigate error: %v", err), code)
		if code == http.StatusInternalServerError {
			s.logger.Error("navigate failed", "session_id", sessionID, "path", body.Path, "error", err)
		} else {
			s.logger.Warn("navigate refused", "session_id", sessionID, "path", body.Path, "error", err)
		}
		return
	}

	if diff := domain.Diff(previous, snap); diff != nil {
		if bytes, err := json.Marshal(diff); err == nil {
			s.Streams.Broadcast(sessionID, string(bytes))
		}
	} else {
		s.logger.Debug("navigate: no diff", "session_id", sessionID)
	}

	writeJSON(w, s.logger, snap)
}

// GetState handles the GET /state request.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	sessionID := sessionParam(r)
	snap, err := s.Sessions.Current(r.Context(), sessionID)
	if err != nil {
		http.Error(w, fmt.Sprintf("State error: %v", err), StatusFor(err))
		return
	}
	writeJSON(w, s.logger, snap)
}

// GetRoutes handles the GET /routes request.
func (s *Server) GetRoutes(w http.ResponseWriter, r *http.Request) {
	routes := s.Routes
	if routes == nil {
		routes = []routing.RouteInfo{}
	}
	writeJSON(w, s.logger, routes)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, map[string]string{"status": "ok"})
}

// SubscribeEvents handles the GET /events request (SSE). Every committed
// navigation of the session is pushed as a snapshot diff.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("events: streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sessionID := sessionParam(r)
	s.logger.Info("events: client subscribed", "session_id", sessionID)

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("events: client disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func sessionParam(r *http.Request) string {
	if id := r.URL.Query().Get("session"); id != "" {
		return id
	}
	return DefaultSession
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "error", err)
	}
}

// StreamManager fans snapshot diffs out to SSE subscribers per session.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // session ID -> channels
	logger      *slog.Logger
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logging.NewNop(),
	}
}

// Subscribe registers a buffered channel for sessionID. The returned func
// unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(sessionID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

// Broadcast sends msg to every subscriber of sessionID without blocking.
func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			// slow client
			sm.logger.Warn("events: client buffer full, dropping message", "session_id", sessionID)
		}
	}
}
