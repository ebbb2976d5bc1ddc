// Package api serves the running store simulation over HTTP.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/aisleflow/internal/advisor"
	"github.com/talgya/aisleflow/internal/engine"
	"github.com/talgya/aisleflow/internal/persistence"
	"github.com/talgya/aisleflow/internal/traffic"
	"github.com/talgya/aisleflow/internal/world"
)

// Server serves the simulation state over HTTP. Every read or swap of Sim
// goes through Eng.Do so handlers never observe a shopper mid-step.
type Server struct {
	Sim         *engine.Simulation
	Eng         *engine.Engine
	Options     engine.Options // Used to rebuild the world on reset or new layout
	DB          *persistence.DB
	Advisor     *advisor.Advisor
	Port        int
	AdminKey    string   // Bearer token for POST endpoints. Empty = POST disabled.
	CORSOrigins []string // Extra allowed origins beyond localhost dev servers

	hub       *Hub
	lastRunID string // Guarded by the engine lock
}

// NewServer wires a server to an engine. The engine's callbacks are replaced
// so each tick advances sim and reports reach stream clients.
func NewServer(sim *engine.Simulation, eng *engine.Engine, opts engine.Options) *Server {
	s := &Server{
		Sim:     sim,
		Eng:     eng,
		Options: opts,
		hub:     NewHub(),
	}
	eng.OnTick = s.step
	eng.OnReport = s.report
	eng.OnComplete = s.complete
	return s
}

// step advances the simulation. Runs under the engine lock.
func (s *Server) step(uint64) {
	s.Sim.Tick()
}

func (s *Server) report(uint64) {
	if s.hub.Len() == 0 {
		return
	}
	s.hub.Broadcast(s.frame("report", false))
}

// complete saves the finished run and pushes a final frame with the heatmap.
func (s *Server) complete(tick uint64) {
	summary := s.Sim.Summary()
	slog.Info("run complete", "tick", tick, "max_count", summary.MaxCount, "dead_spots", summary.DeadSpots)
	s.hub.Broadcast(s.frame("complete", true))

	if s.DB == nil {
		return
	}
	run, err := persistence.NewRun(s.Sim)
	if err != nil {
		slog.Error("capture run", "error", err)
		return
	}
	s.lastRunID = run.ID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.DB.SaveRun(ctx, run); err != nil {
			slog.Error("save run", "error", err)
		}
	}()
}

// frame builds a stream frame. Caller holds the engine lock.
func (s *Server) frame(kind string, withHeat bool) Frame {
	summary := s.Sim.Summary()
	f := Frame{
		Type:      kind,
		Tick:      s.Sim.CurrentTick(),
		Positions: s.Sim.AgentPositions(),
		MaxCount:  summary.MaxCount,
		DeadSpots: summary.DeadSpots,
	}
	if withHeat {
		f.Heatmap = s.Sim.HeatmapSnapshot()
	}
	return f
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	adviseLimiter := NewRateLimiter(10, time.Hour)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/heatmap", s.handleHeatmap)
	mux.HandleFunc("/api/v1/agents", s.handleAgents)
	mux.HandleFunc("/api/v1/traffic", s.handleTraffic)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/runs", s.handleRuns)
	mux.HandleFunc("/api/v1/stream", s.handleStream)

	// Admin endpoints (POST, require bearer token). GET passes through.
	mux.HandleFunc("/api/v1/layout", s.adminOnly(s.handleLayout))
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/reset", s.adminOnly(s.handleReset))
	mux.HandleFunc("/api/v1/advise", s.adminOnly(RateLimitMiddleware(adviseLimiter, s.handleAdvise)))

	return s.corsMiddleware(mux)
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", srv.Addr, "admin_auth", s.AdminKey != "", "advisor", s.Advisor.Enabled())

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Localhost dev servers are always allowed.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	for _, origin := range s.CORSOrigins {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowedOrigins[origin] = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
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
				http.Error(w, "admin endpoints disabled (no AISLEFLOW_ADMIN_KEY set)", http.StatusForbidden)
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
	s.Eng.Do(func() {
		counters := s.Sim.Counters()
		status = map[string]any{
			"tick":     s.Sim.CurrentTick(),
			"width":    s.Sim.Grid.Width(),
			"height":   s.Sim.Grid.Height(),
			"shoppers": len(s.Sim.Shoppers),
			"seed":     s.Sim.Seed,
			"visits":   counters.Visits,
			"picks":    counters.Picks,
			"trips":    counters.Trips,
		}
	})
	st := s.Eng.Status()
	status["budget"] = st.Budget
	status["speed"] = st.Speed
	status["completed"] = st.Completed
	status["progress"] = st.Progress
	status["advisor"] = s.Advisor.Enabled()
	writeJSON(w, status)
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	var resp map[string]any
	s.Eng.Do(func() {
		resp = map[string]any{
			"tick":    s.Sim.CurrentTick(),
			"width":   s.Sim.Grid.Width(),
			"height":  s.Sim.Grid.Height(),
			"heatmap": s.Sim.HeatmapSnapshot(),
		}
	})
	writeJSON(w, resp)
}

// handleAgents returns positions by default and full shopper detail with ?detail=1.
func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	detail := r.URL.Query().Get("detail") != ""
	var resp any
	s.Eng.Do(func() {
		if detail {
			resp = s.Sim.Agents()
			return
		}
		resp = map[string]any{
			"tick":      s.Sim.CurrentTick(),
			"positions": s.Sim.AgentPositions(),
		}
	})
	writeJSON(w, resp)
}

func (s *Server) handleTraffic(w http.ResponseWriter, r *http.Request) {
	var resp map[string]any
	s.Eng.Do(func() {
		summary := s.Sim.Summary()
		resp = map[string]any{
			"tick":       s.Sim.CurrentTick(),
			"summary":    summary,
			"report":     summary.Report(),
			"dead_ratio": summary.DeadRatio(),
		}
	})
	writeJSON(w, resp)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 50, 1000)
	var events []engine.Event
	s.Eng.Do(func() { events = s.Sim.RecentEvents(limit) })
	writeJSON(w, events)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	if id := r.URL.Query().Get("id"); id != "" {
		run, err := s.DB.GetRun(r.Context(), id)
		if errors.Is(err, persistence.ErrNotFound) {
			http.Error(w, "run not found", http.StatusNotFound)
			return
		}
		if err != nil {
			slog.Error("get run", "id", id, "error", err)
			http.Error(w, "lookup failed", http.StatusInternalServerError)
			return
		}
		advice, err := s.DB.AdviceForRun(r.Context(), id)
		if err != nil {
			slog.Error("advice for run", "id", id, "error", err)
		}
		writeJSON(w, map[string]any{"run": run, "advice": advice})
		return
	}

	runs, err := s.DB.RecentRuns(r.Context(), queryLimit(r, 20, 200))
	if err != nil {
		slog.Error("list runs", "error", err)
		http.Error(w, "list failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, runs)
}

// handleLayout returns the current layout, or on POST rebuilds the world
// from a supplied one. The new layout is not checked for preserved
// entrances or checkouts.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Layout []string `json:"layout"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if _, err := s.rebuild(req.Layout, nil); err != nil {
			writeLayoutError(w, err)
			return
		}
		slog.Info("layout replaced", "rows", len(req.Layout))
	}

	var rows []string
	s.Eng.Do(func() { rows = s.Sim.Layout() })
	writeJSON(w, map[string]any{"layout": rows})
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
	writeJSON(w, map[string]float64{"speed": s.Eng.Status().Speed})
}

// handleReset restarts the run on the current layout, optionally reseeded.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Seed *int64 `json:"seed"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
	}
	seed, err := s.rebuild(nil, req.Seed)
	if err != nil {
		writeLayoutError(w, err)
		return
	}
	writeJSON(w, map[string]any{"message": "run reset", "seed": seed})
}

// handleAdvise asks the advisor for a new layout. With "apply" the world is
// rebuilt from the candidate immediately.
func (s *Server) handleAdvise(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.Advisor.Enabled() {
		http.Error(w, "advisor disabled (no ANTHROPIC_API_KEY set)", http.StatusServiceUnavailable)
		return
	}
	var req struct {
		Apply bool `json:"apply"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
	}

	var (
		rows    []string
		runID   string
		summary traffic.Summary
	)
	s.Eng.Do(func() {
		rows = s.Sim.Layout()
		runID = s.lastRunID
		summary = s.Sim.Summary()
	})

	// The model call runs outside the engine lock so ticks keep flowing.
	res := s.Advisor.Advise(r.Context(), rows, summary)

	if s.DB != nil && runID != "" {
		adv, err := persistence.NewAdvice(runID, res.Suggestions, res.Layout, res.Changed)
		if err == nil {
			err = s.DB.SaveAdvice(r.Context(), adv)
		}
		if err != nil {
			slog.Error("save advice", "run", runID, "error", err)
		}
	}

	applied := false
	if req.Apply && res.Error == "" && res.Changed {
		if _, err := s.rebuild(res.Layout, nil); err != nil {
			writeLayoutError(w, err)
			return
		}
		applied = true
	}
	writeJSON(w, map[string]any{"advice": res, "applied": applied, "run_id": runID})
}

// rebuild constructs a fresh simulation and restarts the run. A nil layout
// reuses the current one; a nil seed keeps the configured seed.
func (s *Server) rebuild(rows []string, seed *int64) (int64, error) {
	var (
		err     error
		newSeed int64
	)
	s.Eng.ResetWith(func() {
		if rows == nil {
			rows = s.Sim.Layout()
		}
		opts := s.Options
		if seed != nil {
			opts.Seed = *seed
		}
		var sim *engine.Simulation
		sim, err = engine.New(rows, opts)
		if err != nil {
			return
		}
		s.Sim = sim
		s.Options = opts
		s.lastRunID = ""
		newSeed = opts.Seed
	})
	if err != nil {
		return 0, err
	}
	slog.Info("run restarted", "seed", newSeed)
	return newSeed, nil
}

func writeLayoutError(w http.ResponseWriter, err error) {
	if errors.Is(err, world.ErrInvalidLayout) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	slog.Error("rebuild simulation", "error", err)
	http.Error(w, "rebuild failed", http.StatusInternalServerError)
}

func queryLimit(r *http.Request, def, max int) int {
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= max {
			return n
		}
	}
	return def
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
