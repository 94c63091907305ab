package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"scaledrill/internal/model"
	"scaledrill/internal/service"
	"scaledrill/internal/theory"
	"scaledrill/internal/transport/rest/middleware"
)

// DrillHandler handles drill session endpoints and the stateless engine
// endpoints
type DrillHandler struct {
	drillSvc *service.DrillService
}

// NewDrillHandler creates a new drill handler
func NewDrillHandler(drillSvc *service.DrillService) *DrillHandler {
	return &DrillHandler{drillSvc: drillSvc}
}

// Options handles GET /v1/options
func (h *DrillHandler) Options(w http.ResponseWriter, r *http.Request) {
	cfg := model.NewDrillConfig(theory.Config{
		Roots:   theory.RootOptions,
		Modes:   theory.Modes,
		Degrees: theory.DefaultDegrees,
	})
	writeJSON(w, http.StatusOK, model.OptionsResponse{
		Roots:   cfg.Roots,
		Modes:   cfg.Modes,
		Degrees: cfg.Degrees,
	})
}

// Generate handles POST /v1/questions
func (h *DrillHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Config model.DrillConfig `json:"config"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	q, err := h.drillSvc.Generate(req.Config)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, q)
}

// Check handles POST /v1/check
func (h *DrillHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req model.CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	writeJSON(w, http.StatusOK, h.drillSvc.Check(req.Answer, req.Expected))
}

// Start handles POST /v1/drills
func (h *DrillHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req model.StartDrillRequest
	// An empty body starts a drill with the server defaults
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.drillSvc.Start(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Current handles GET /v1/drills/current
func (h *DrillHandler) Current(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())

	q, err := h.drillSvc.Current(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"question": q})
}

// Next handles POST /v1/drills/next
func (h *DrillHandler) Next(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())

	q, err := h.drillSvc.Next(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"question": q})
}

// Answer handles POST /v1/drills/answer
func (h *DrillHandler) Answer(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())

	var req model.SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.drillSvc.Answer(r.Context(), sessionID, req.Answer)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// UpdateConfig handles PUT /v1/drills/config
func (h *DrillHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())

	var req struct {
		Config model.DrillConfig `json:"config"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	q, err := h.drillSvc.UpdateConfig(r.Context(), sessionID, req.Config)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"question": q})
}

// End handles DELETE /v1/drills
func (h *DrillHandler) End(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r.Context())

	if err := h.drillSvc.End(r.Context(), sessionID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ended"})
}
