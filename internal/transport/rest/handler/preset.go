package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"scaledrill/internal/model"
	"scaledrill/internal/service"
	"scaledrill/internal/transport/rest/middleware"
)

// PresetHandler handles preset endpoints
type PresetHandler struct {
	presetSvc *service.PresetService
}

// NewPresetHandler creates a new preset handler
func NewPresetHandler(presetSvc *service.PresetService) *PresetHandler {
	return &PresetHandler{presetSvc: presetSvc}
}

// PresetRequest is the request body for creating or updating a preset
type PresetRequest struct {
	Name   string            `json:"name"`
	Config model.DrillConfig `json:"config"`
}

// Create handles POST /v1/presets
func (h *PresetHandler) Create(w http.ResponseWriter, r *http.Request) {
	hostID := middleware.GetHostID(r.Context())
	if hostID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req PresetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name = strings.TrimSpace(req.Name); req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	preset, err := h.presetSvc.Create(r.Context(), hostID, req.Name, req.Config)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, preset)
}

// List handles GET /v1/presets
func (h *PresetHandler) List(w http.ResponseWriter, r *http.Request) {
	hostID := middleware.GetHostID(r.Context())
	if hostID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	presets, err := h.presetSvc.List(r.Context(), hostID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if presets == nil {
		presets = []*model.Preset{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"presets": presets})
}

// Get handles GET /v1/presets/{code}
func (h *PresetHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	preset, err := h.presetSvc.Get(r.Context(), code)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, preset)
}

// Update handles PUT /v1/presets/{code}
func (h *PresetHandler) Update(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	hostID := middleware.GetHostID(r.Context())

	var req PresetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	preset, err := h.presetSvc.Update(r.Context(), code, hostID, req.Name, req.Config)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, preset)
}

// Delete handles DELETE /v1/presets/{code}
func (h *PresetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	hostID := middleware.GetHostID(r.Context())

	if err := h.presetSvc.Delete(r.Context(), code, hostID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
