package api

import (
	"errors"
	"net/http"

	"github.com/ayusman/nritya/internal/gesture"
	"github.com/ayusman/nritya/internal/store"
)

// ProfileSetter installs a calibration profile in the running classifier.
type ProfileSetter interface {
	SetProfile(p *gesture.Profile)
}

// ProfileHandler serves saved calibration profiles.
type ProfileHandler struct {
	store  *store.Store
	target ProfileSetter
}

// NewProfileHandler creates a ProfileHandler. target may be nil, in which
// case activation only updates the store.
func NewProfileHandler(s *store.Store, target ProfileSetter) *ProfileHandler {
	return &ProfileHandler{store: s, target: target}
}

type listProfilesResponse struct {
	Profiles []store.ProfileInfo `json:"profiles"`
}

// ServeHTTP routes /api/profiles, /api/profiles/{id} and
// /api/profiles/{id}/activate.
func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r.URL.Path, "/api/profiles")

	switch {
	case len(parts) == 0:
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, parts[0])
		case http.MethodDelete:
			h.delete(w, r, parts[0])
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case len(parts) == 2 && parts[1] == "activate":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.activate(w, r, parts[0])
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

func (h *ProfileHandler) list(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.store.Profiles().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list profiles")
		return
	}
	if profiles == nil {
		profiles = []store.ProfileInfo{}
	}
	writeJSON(w, http.StatusOK, listProfilesResponse{Profiles: profiles})
}

func (h *ProfileHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.store.Profiles().Get(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get profile")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Profiles().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete profile")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProfileHandler) activate(w http.ResponseWriter, r *http.Request, id string) {
	profiles := h.store.Profiles()
	p, err := profiles.Get(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get profile")
		return
	}
	if err := profiles.SetActive(id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to activate profile")
		return
	}
	if h.target != nil {
		h.target.SetProfile(p)
	}
	writeJSON(w, http.StatusOK, p)
}
