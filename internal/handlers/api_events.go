package handlers

import (
	"net/http"

	"github.com/ideaboard/ideaboard/internal/api"
	"github.com/ideaboard/ideaboard/internal/database"
)

// RecordDedupeEventRequest is the body for POST /api/dedupe-events
type RecordDedupeEventRequest struct {
	EventType       string `json:"event_type" validate:"required,oneof=shown accepted dismissed dashboard_dismissed"`
	IdeaUUID        string `json:"idea_uuid" validate:"required,uuid"`
	RelatedIdeaUUID string `json:"related_idea_uuid" validate:"omitempty,uuid"`
	Similarity      *int   `json:"similarity" validate:"omitempty,gte=0,lte=100"`
}

// handleRecordDedupeEvent handles POST /api/dedupe-events. The write is
// handed to the telemetry worker; the response does not wait for it.
func (h *APIHandler) handleRecordDedupeEvent(w http.ResponseWriter, r *http.Request) {
	_, workspaceID, ok := h.actorWorkspace(w, r)
	if !ok {
		return
	}

	var req RecordDedupeEventRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if fieldErrors := api.Validate(req); fieldErrors != nil {
		api.RespondValidationError(w, fieldErrors)
		return
	}

	idea, err := h.workspaces.GetIdeaByUUID(req.IdeaUUID, workspaceID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	var relatedID uint
	if req.RelatedIdeaUUID != "" {
		related, err := h.workspaces.GetIdeaByUUID(req.RelatedIdeaUUID, workspaceID)
		if err != nil {
			h.respondServiceError(w, err)
			return
		}
		relatedID = related.ID
	}

	h.telemetry.Record(database.DedupeEvent{
		WorkspaceID:   workspaceID,
		IdeaID:        idea.ID,
		RelatedIdeaID: relatedID,
		EventType:     database.DedupeEventType(req.EventType),
		Similarity:    req.Similarity,
	})

	api.RespondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
