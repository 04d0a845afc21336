// Package api provides the HTTP API for observing a running simulation.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/mini-brain/internal/action"
	"github.com/talgya/mini-brain/internal/brain"
	"github.com/talgya/mini-brain/internal/engine"
	"github.com/talgya/mini-brain/internal/persistence"
)

// Server serves the simulation state over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine
	DB       *persistence.DB // Optional; serves persisted events
	Addr     string
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	srv *http.Server
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	adminLimiter := NewRateLimiter(30, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints.
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/brains", s.handleBrains)
	mux.HandleFunc("/api/v1/brain/", s.handleBrainRoutes(adminLimiter))
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/pools", s.handlePools)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/speed", s.adminOnly(RateLimitMiddleware(adminLimiter, s.handleSpeed)))

	return mux
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	s.srv = &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", s.Addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Shutdown stops a started server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through (for endpoints that support both GET and POST).
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no AISIM_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var status map[string]any
	s.Sim.Read(func() {
		status = map[string]any{
			"frame":    s.Sim.Frame,
			"sim_time": s.Sim.World.Clock().Accumulated().String(),
			"speed":    s.Eng.Speed(),
			"running":  s.Eng.Running(),
			"stats":    s.Sim.Stats,
		}
	})
	writeJSON(w, status)
}

type brainSummary struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	Z              float64 `json:"z"`
	Behavior       string  `json:"behavior"`
	CommittedScore float64 `json:"committed_score"`
	Queued         int     `json:"queued"`
	Decisions      int     `json:"decisions"`
	DebugInfo      bool    `json:"debug_info"`
}

func summarize(b *brain.Brain) brainSummary {
	a := b.Agent()
	pos := a.Position()
	return brainSummary{
		ID:             a.ID().String(),
		Name:           a.Name(),
		X:              pos.X,
		Y:              pos.Y,
		Z:              pos.Z,
		Behavior:       b.CurrentBehavior(),
		CommittedScore: b.CommittedScore(),
		Queued:         b.Queue().Len(),
		Decisions:      b.Decisions(),
		DebugInfo:      b.DebugInfo(),
	}
}

func (s *Server) handleBrains(w http.ResponseWriter, r *http.Request) {
	result := []brainSummary{}
	s.Sim.Read(func() {
		for _, b := range s.Sim.Brains {
			result = append(result, summarize(b))
		}
	})
	writeJSON(w, result)
}

// findBrain returns the brain of the agent called name. Caller holds the
// simulation lock.
func (s *Server) findBrain(name string) *brain.Brain {
	for _, b := range s.Sim.Brains {
		if b.Agent().Name() == name {
			return b
		}
	}
	return nil
}

// handleBrainRoutes serves /api/v1/brain/{name} and POST /api/v1/brain/{name}/debug.
func (s *Server) handleBrainRoutes(limiter *RateLimiter) http.HandlerFunc {
	debug := s.adminOnly(RateLimitMiddleware(limiter, s.handleBrainDebug))
	return func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/v1/brain/")
		if strings.HasSuffix(rest, "/debug") {
			debug(w, r)
			return
		}
		s.handleBrainDetail(w, r, rest)
	}
}

func (s *Server) handleBrainDetail(w http.ResponseWriter, r *http.Request, name string) {
	var (
		found  bool
		detail struct {
			brainSummary
			Queue      []string       `json:"queue"`
			Blackboard map[string]any `json:"blackboard,omitempty"`
		}
	)
	s.Sim.Read(func() {
		b := s.findBrain(name)
		if b == nil {
			return
		}
		found = true
		detail.brainSummary = summarize(b)
		detail.Queue = []string{}
		if !b.Queue().IsEmpty() {
			detail.Queue = strings.Split(b.Queue().DebugInfo(), "\n")
		}
		if bb, ok := s.Sim.World.Blackboards().Find(b.Agent().ID()); ok {
			detail.Blackboard = make(map[string]any)
			for _, k := range bb.Keys() {
				detail.Blackboard[k] = bb.Get(k, nil)
			}
		}
	})
	if !found {
		http.Error(w, "brain not found", http.StatusNotFound)
		return
	}
	writeJSON(w, detail)
}

func (s *Server) handleBrainDebug(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	name := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/v1/brain/"), "/debug")

	var req struct {
		DebugInfo bool `json:"debug_info"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	found := false
	s.Sim.Write(func() {
		if b := s.findBrain(name); b != nil {
			b.SetDebugInfo(req.DebugInfo)
			found = true
		}
	})
	if !found {
		http.Error(w, "brain not found", http.StatusNotFound)
		return
	}
	slog.Info("debug info changed", "agent", name, "debug_info", req.DebugInfo)
	writeJSON(w, map[string]any{"name": name, "debug_info": req.DebugInfo})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	// Persisted events, newest first.
	if r.URL.Query().Get("persisted") == "true" {
		if s.DB == nil {
			http.Error(w, "no database", http.StatusNotFound)
			return
		}
		events, err := s.DB.RecentEvents(limit)
		if err != nil {
			slog.Error("load events failed", "error", err)
			http.Error(w, "load events failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, events)
		return
	}

	category := r.URL.Query().Get("category")
	events := []engine.Event{}
	s.Sim.Read(func() {
		for _, e := range s.Sim.Events {
			if category == "" || e.Category == category {
				events = append(events, e)
			}
		}
	})

	start := 0
	if len(events) > limit {
		start = len(events) - limit
	}
	writeJSON(w, events[start:])
}

func (s *Server) handlePools(w http.ResponseWriter, r *http.Request) {
	type poolStats struct {
		Kind  string `json:"kind"`
		Live  int    `json:"live"`
		Free  int    `json:"free"`
		InUse int    `json:"in_use"`
	}
	result := []poolStats{}
	s.Sim.Read(func() {
		for _, k := range action.Kinds() {
			live, free := s.Sim.Pools.Stats(k)
			result = append(result, poolStats{Kind: k.String(), Live: live, Free: free, InUse: live - free})
		}
	})
	writeJSON(w, result)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		slog.Debug("write response failed", "error", err)
	}
}
