package handlers

import (
	"net/http"

	"github.com/ideaboard/ideaboard/internal/api"
	"github.com/ideaboard/ideaboard/internal/database"
)

// UpdateDedupeSettingsRequest is the body for PUT /api/settings/dedupe
type UpdateDedupeSettingsRequest struct {
	Enabled         *bool   `json:"enabled"`
	SimilarityFloor *int    `json:"similarity_floor" validate:"omitempty,gte=0,lte=100"`
	TopK            *int    `json:"top_k" validate:"omitempty,gte=1,lte=10"`
	SlackEnabled    *bool   `json:"slack_enabled"`
	SlackChannel    *string `json:"slack_channel" validate:"omitempty,max=128"`
}

// handleGetDedupeSettings handles GET /api/settings/dedupe
func (h *APIHandler) handleGetDedupeSettings(w http.ResponseWriter, r *http.Request) {
	_, workspaceID, ok := h.actorWorkspace(w, r)
	if !ok {
		return
	}

	settings, err := database.GetOrCreateDedupeSettings(database.GetDB(), workspaceID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	api.RespondJSON(w, http.StatusOK, settings)
}

// handleUpdateDedupeSettings handles PUT /api/settings/dedupe
func (h *APIHandler) handleUpdateDedupeSettings(w http.ResponseWriter, r *http.Request) {
	_, workspaceID, ok := h.actorWorkspace(w, r)
	if !ok {
		return
	}

	var req UpdateDedupeSettingsRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if fieldErrors := api.Validate(req); fieldErrors != nil {
		api.RespondValidationError(w, fieldErrors)
		return
	}

	db := database.GetDB()
	settings, err := database.GetOrCreateDedupeSettings(db, workspaceID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	if req.Enabled != nil {
		settings.Enabled = *req.Enabled
	}
	if req.SimilarityFloor != nil {
		settings.SimilarityFloor = *req.SimilarityFloor
	}
	if req.TopK != nil {
		settings.TopK = *req.TopK
	}
	if req.SlackEnabled != nil {
		settings.SlackEnabled = *req.SlackEnabled
	}
	if req.SlackChannel != nil {
		settings.SlackChannel = *req.SlackChannel
	}

	if err := database.UpdateDedupeSettings(db, settings); err != nil {
		h.respondServiceError(w, err)
		return
	}
	api.RespondJSON(w, http.StatusOK, settings)
}
