// Package server provides the HTTP server for the nritya gesture controller.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/nritya/internal/app"
	"github.com/ayusman/nritya/internal/plugin"
	"github.com/ayusman/nritya/internal/server/api"
	"github.com/ayusman/nritya/internal/store"
)

// Config holds the server configuration. Every field is optional; routes
// are only registered for what is configured.
type Config struct {
	StaticDir string
	Store     *store.Store
	App       *app.App
	Plugins   *plugin.Manager
	Hub       *EventHub
}

// Server represents the HTTP server.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Store != nil {
		actions := api.NewActionHandler(s.config.Store)
		s.mux.Handle("/api/actions", actions)
		s.mux.Handle("/api/actions/", actions)

		var target api.ProfileSetter
		if s.config.App != nil {
			target = s.config.App
		}
		profiles := api.NewProfileHandler(s.config.Store, target)
		s.mux.Handle("/api/profiles", profiles)
		s.mux.Handle("/api/profiles/", profiles)

		s.mux.Handle("/api/events/recent", api.NewEventHandler(s.config.Store))
	}

	if s.config.Hub != nil {
		s.mux.Handle("/api/events", s.config.Hub)
	}

	if s.config.App != nil {
		calibration := api.NewCalibrationHandler(s.config.App, app.ErrNoCalibration)
		s.mux.Handle("/api/calibration", calibration)
		s.mux.Handle("/api/calibration/", calibration)
		s.mux.Handle("/api/simulate", api.NewSimulateHandler(s.config.App))
		s.mux.HandleFunc("/api/enabled", s.handleEnabled)
	}

	if s.config.Plugins != nil {
		s.mux.Handle("/api/plugins", api.NewPluginHandler(s.config.Plugins))
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if a := s.config.App; a != nil {
		response["enabled"] = a.IsEnabled()
		response["calibrating"] = a.Calibrating()
		if ev, ok := a.Current(); ok {
			response["current"] = ev
		}
	}
	if s.config.Hub != nil {
		response["clients"] = s.config.Hub.Clients()
	}

	writeJSON(w, http.StatusOK, response)
}

type enabledRequest struct {
	Enabled *bool `json:"enabled"`
}

// handleEnabled reads or sets the pipeline's enabled flag.
func (s *Server) handleEnabled(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut, http.MethodPost:
		var req enabledRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "enabled is required"})
			return
		}
		s.config.App.SetEnabled(*req.Enabled)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"enabled": s.config.App.IsEnabled()})
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}

// HTTPServer returns an *http.Server for addr so callers can shut it down.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
