// Package server exposes cycle history and the generated gallery over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"autonomous_spa_agent/cycle"
	"autonomous_spa_agent/publisher"
)

const defaultHistoryLimit = 50

// History keeps the most recent cycle outcomes in memory.
type History struct {
	mu       sync.Mutex
	limit    int
	outcomes []*cycle.Outcome
}

func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return &History{limit: limit}
}

// Add appends an outcome, dropping the oldest beyond the limit.
func (h *History) Add(out *cycle.Outcome) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.outcomes = append(h.outcomes, out)
	if len(h.outcomes) > h.limit {
		h.outcomes = h.outcomes[len(h.outcomes)-h.limit:]
	}
}

// Recent returns outcomes newest first.
func (h *History) Recent() []*cycle.Outcome {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*cycle.Outcome, len(h.outcomes))
	for i, o := range h.outcomes {
		out[len(h.outcomes)-1-i] = o
	}
	return out
}

func (h *History) get(id string) (*cycle.Outcome, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, o := range h.outcomes {
		if o.CycleID == id {
			return o, true
		}
	}
	return nil, false
}

type Server struct {
	history   *History
	catalog   *publisher.Catalog
	gallery   http.Handler
	startedAt time.Time
	logger    *log.Logger
}

// New serves history and the gallery files found under root.
func New(history *History, catalog *publisher.Catalog, root string, logger *log.Logger) (*Server, error) {
	if history == nil {
		return nil, errors.New("cycle history required")
	}
	if catalog == nil {
		return nil, errors.New("catalog required")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		history:   history,
		catalog:   catalog,
		gallery:   http.FileServer(http.Dir(root)),
		startedAt: time.Now(),
		logger:    logger,
	}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/cycles", s.handleCycles)
	mux.HandleFunc("/api/cycles/", s.handleCycleByID)
	mux.Handle("/", s.galleryHandler())
	return s.logMiddleware(mux)
}

// ListenAndServe runs the server until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Routes(), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) galleryHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") || strings.Contains(r.URL.Path, "/.git") {
			http.NotFound(w, r)
			return
		}
		s.gallery.ServeHTTP(w, r)
	})
}

// --- Handlers ---

type statusResp struct {
	StartedAt time.Time      `json:"started_at"`
	Apps      int            `json:"apps"`
	Cycles    int            `json:"cycles"`
	Succeeded int            `json:"succeeded"`
	LastCycle *cycle.Outcome `json:"last_cycle,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	apps, err := s.catalog.Scan()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	recent := s.history.Recent()
	resp := statusResp{StartedAt: s.startedAt, Apps: len(apps), Cycles: len(recent)}
	for _, o := range recent {
		if o.Succeeded() {
			resp.Succeeded++
		}
	}
	if len(recent) > 0 {
		resp.LastCycle = recent[0]
	}
	writeJSON(w, resp)
}

func (s *Server) handleCycles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.history.Recent())
}

func (s *Server) handleCycleByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/cycles/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	out, ok := s.history.get(id)
	if !ok {
		http.Error(w, "cycle not found", http.StatusNotFound)
		return
	}
	writeJSON(w, out)
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Printf("[server] %s %s (%s)", r.Method, r.URL.Path, time.Since(start).Round(time.Millisecond))
	})
}
