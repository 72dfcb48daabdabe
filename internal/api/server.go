// Package api provides the HTTP API for observing and steering a country.
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

	"github.com/talgya/civica/internal/engine"
	"github.com/talgya/civica/internal/nation"
	"github.com/talgya/civica/internal/persistence"
)

const (
	maxBodyBytes   = 64 << 10
	defaultEvents  = 50
	maxEvents      = 500
	statusEvents   = 3
	maxClockSpeed  = 1000
	ticksPerMinute = 30
)

// Server serves a country over HTTP.
type Server struct {
	Country  *engine.Country
	Clock    *engine.Clock   // nil disables /speed
	DB       *persistence.DB // nil disables /snapshot
	Port     int
	AdminKey string   // Bearer token for POST endpoints. Empty = POST disabled.
	Origins  []string // Extra CORS origins beyond the localhost dev servers.

	// OnTick runs after every tick triggered through the API.
	OnTick func(engine.TickReport)

	tickLimiter *RateLimiter
}

// Handler builds the routed handler. Exposed for tests.
func (s *Server) Handler() http.Handler {
	if s.tickLimiter == nil {
		s.tickLimiter = NewRateLimiter(ticksPerMinute, time.Minute)
	}

	mux := http.NewServeMux()

	// Public endpoints.
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/cities", s.handleCities)
	mux.HandleFunc("/api/v1/city/", s.handleCityDetail)
	mux.HandleFunc("/api/v1/laws", s.handleLaws)
	mux.HandleFunc("/api/v1/events", s.handleEvents)

	// Admin endpoints.
	mux.HandleFunc("/api/v1/tick", s.adminOnly(RateLimitMiddleware(s.tickLimiter, s.handleTick)))
	mux.HandleFunc("/api/v1/city", s.adminOnly(s.handleAddCity))
	mux.HandleFunc("/api/v1/law", s.adminOnly(s.handleAddLaw))
	mux.HandleFunc("/api/v1/event", s.adminOnly(s.handleAddEvent))
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/snapshot", s.adminOnly(s.handleSnapshot))

	return corsMiddleware(s.Origins, mux)
}

// Start begins serving in a goroutine. Shut the returned server down to stop.
func (s *Server) Start() *http.Server {
	addr := fmt.Sprintf(":%d", s.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	return srv
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Localhost dev servers are always allowed.
func corsMiddleware(extra []string, next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	for _, origin := range extra {
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

// adminOnly requires POST with a valid bearer token.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no CIVICA_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.Country.Snapshot()

	status := map[string]any{
		"name":          snap.Name,
		"description":   snap.Description,
		"year":          snap.Year,
		"population":    snap.Population,
		"resources":     snap.Resources,
		"cities":        len(snap.Cities),
		"laws":          len(snap.Laws),
		"events":        len(snap.Events),
		"recent_events": snap.RecentEvents(statusEvents),
	}
	if s.Clock != nil {
		status["speed"] = s.Clock.Speed()
		status["years_run"] = s.Clock.Years()
	}
	writeJSON(w, status)
}

func (s *Server) handleCities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Country.Snapshot().Cities)
}

// handleCityDetail serves GET /api/v1/city/:name.
func (s *Server) handleCityDetail(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/api/v1/city/")
	if name == "" {
		http.Error(w, "missing city name", http.StatusBadRequest)
		return
	}
	city, ok := s.Country.FindCity(name)
	if !ok {
		http.Error(w, fmt.Sprintf("city %q not found", name), http.StatusNotFound)
		return
	}
	writeJSON(w, city)
}

func (s *Server) handleLaws(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Country.Snapshot().Laws)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultEvents
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= maxEvents {
			limit = n
		}
	}
	events := s.Country.Snapshot().RecentEvents(limit)
	if events == nil {
		events = []nation.Event{}
	}
	writeJSON(w, events)
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	report := s.Country.RunTick(r.Context())
	if s.OnTick != nil {
		s.OnTick(report)
	}
	writeJSON(w, report)
}

func (s *Server) handleAddCity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string   `json:"name"`
		Population *int     `json:"population"`
		Features   []string `json:"features"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}
	pop := nation.DefaultCityPopulation
	if req.Population != nil {
		pop = *req.Population
	}
	if pop < 0 {
		http.Error(w, "population must not be negative", http.StatusBadRequest)
		return
	}

	city := s.Country.AddCity(req.Name, pop, req.Features)
	writeJSONStatus(w, http.StatusCreated, city)
}

func (s *Server) handleAddLaw(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string         `json:"title"`
		Description string         `json:"description"`
		Impact      map[string]int `json:"impact"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		http.Error(w, "title required", http.StatusBadRequest)
		return
	}

	law := s.Country.AddLaw(req.Title, req.Description, req.Impact)
	writeJSONStatus(w, http.StatusCreated, law)
}

func (s *Server) handleAddEvent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string         `json:"description"`
		Effect      map[string]int `json:"effect"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		http.Error(w, "description required", http.StatusBadRequest)
		return
	}

	ev := s.Country.AddEvent(req.Description, req.Effect)
	writeJSONStatus(w, http.StatusCreated, ev)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if s.Clock == nil {
		http.Error(w, "clock not running", http.StatusServiceUnavailable)
		return
	}
	var req struct {
		Speed float64 `json:"speed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Speed < 0 || req.Speed > maxClockSpeed {
		http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
		return
	}
	s.Clock.SetSpeed(req.Speed)
	slog.Info("speed changed", "speed", req.Speed)

	writeJSON(w, map[string]float64{"speed": s.Clock.Speed()})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	snap := s.Country.Snapshot()
	if err := s.DB.SaveCountry(snap); err != nil {
		slog.Error("snapshot save failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"year":    snap.Year,
		"message": "snapshot saved",
	})
}

// Shutdown stops srv, waiting up to timeout for in-flight requests.
func Shutdown(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
