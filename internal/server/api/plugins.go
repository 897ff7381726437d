package api

import (
	"net/http"

	"github.com/ayusman/nritya/internal/plugin"
)

// PluginHandler lists discovered plugins.
type PluginHandler struct {
	manager *plugin.Manager
}

// NewPluginHandler creates a PluginHandler.
func NewPluginHandler(m *plugin.Manager) *PluginHandler {
	return &PluginHandler{manager: m}
}

type listPluginsResponse struct {
	Plugins []plugin.Manifest `json:"plugins"`
}

// ServeHTTP handles GET /api/plugins and POST /api/plugins (rediscover).
func (h *PluginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		if err := h.manager.Discover(); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to discover plugins")
			return
		}
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	plugins := h.manager.List()
	response := listPluginsResponse{Plugins: make([]plugin.Manifest, 0, len(plugins))}
	for _, p := range plugins {
		response.Plugins = append(response.Plugins, p.Manifest)
	}
	writeJSON(w, http.StatusOK, response)
}
