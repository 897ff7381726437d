package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/ayusman/nritya/internal/gesture"
	"github.com/ayusman/nritya/internal/store"
)

// EventHandler serves the emitted event history.
type EventHandler struct {
	store *store.Store
}

// NewEventHandler creates an EventHandler.
func NewEventHandler(s *store.Store) *EventHandler {
	return &EventHandler{store: s}
}

type recentEventsResponse struct {
	Events []store.EventRecord  `json:"events"`
	Counts map[gesture.Type]int `json:"counts"`
}

// ServeHTTP handles GET /api/events/recent?limit=N&since=RFC3339.
func (h *EventHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	since := time.Now().Add(-24 * time.Hour)
	if v := r.URL.Query().Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid since")
			return
		}
		since = t
	}

	events, err := h.store.Events().Recent(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list events")
		return
	}
	counts, err := h.store.Events().Counts(since)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count events")
		return
	}
	if events == nil {
		events = []store.EventRecord{}
	}

	writeJSON(w, http.StatusOK, recentEventsResponse{Events: events, Counts: counts})
}

// KeySimulator accepts simulated key presses.
type KeySimulator interface {
	HandleKey(key string) *gesture.Event
}

// SimulateHandler feeds keys into the keyboard trigger path.
type SimulateHandler struct {
	sim KeySimulator
}

// NewSimulateHandler creates a SimulateHandler.
func NewSimulateHandler(sim KeySimulator) *SimulateHandler {
	return &SimulateHandler{sim: sim}
}

type simulateRequest struct {
	Key string `json:"key"`
}

type simulateResponse struct {
	Emitted bool           `json:"emitted"`
	Event   *gesture.Event `json:"event,omitempty"`
}

// ServeHTTP handles POST /api/simulate. A suppressed or unbound key answers
// 200 with emitted=false.
func (h *SimulateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}

	ev := h.sim.HandleKey(req.Key)
	writeJSON(w, http.StatusOK, simulateResponse{Emitted: ev != nil, Event: ev})
}
