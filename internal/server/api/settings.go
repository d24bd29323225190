package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ayusman/gesturegenie/internal/genie"
	"github.com/ayusman/gesturegenie/internal/store"
)

// SettingsKey is the settings row the genie settings are persisted under.
const SettingsKey = "genie"

// SettingsController is the part of the genie controller the settings API uses.
type SettingsController interface {
	Settings() genie.Settings
	UpdateSettings(genie.Settings) error
}

// SettingsHandler reads and updates the live genie settings.
type SettingsHandler struct {
	controller SettingsController
	store      *store.Store
	logger     *slog.Logger
}

// NewSettingsHandler creates a SettingsHandler. The store may be nil, in
// which case changes are not persisted.
func NewSettingsHandler(c SettingsController, s *store.Store, logger *slog.Logger) *SettingsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsHandler{controller: c, store: s, logger: logger}
}

// updateSettingsRequest holds optional fields; omitted ones keep their value.
type updateSettingsRequest struct {
	Temperature *float64 `json:"temperature"`
	NumButtons  *int     `json:"num_buttons"`
	Octaves     *int     `json:"octaves"`
	Keyboard    *string  `json:"keyboard"`
}

// ServeHTTP handles GET and PUT /api/settings.
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.controller.Settings())
	case http.MethodPut:
		h.update(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SettingsHandler) update(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	settings := h.controller.Settings()
	if req.Temperature != nil {
		settings.Temperature = *req.Temperature
	}
	if req.NumButtons != nil {
		settings.NumButtons = *req.NumButtons
	}
	if req.Octaves != nil {
		settings.Octaves = *req.Octaves
	}
	if req.Keyboard != nil {
		settings.Keyboard = genie.Keyboard(*req.Keyboard)
	}

	if err := h.controller.UpdateSettings(settings); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	applied := h.controller.Settings()
	if h.store != nil {
		if err := h.store.Settings().SetJSON(SettingsKey, applied); err != nil {
			h.logger.Error("persist settings", "err", err)
			writeError(w, http.StatusInternalServerError, "Failed to save settings")
			return
		}
	}

	writeJSON(w, http.StatusOK, applied)
}
