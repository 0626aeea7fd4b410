package handlers

import (
	"net/http"

	"github.com/ideaboard/ideaboard/internal/api"
)

// handleListSuggestions handles GET /api/suggestions
func (h *APIHandler) handleListSuggestions(w http.ResponseWriter, r *http.Request) {
	_, workspaceID, ok := h.actorWorkspace(w, r)
	if !ok {
		return
	}

	suggestions, err := h.suggestions.ListPending(workspaceID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"suggestions": suggestions,
	})
}

// handleDismissSuggestion handles POST /api/suggestions/{uuid}/dismiss
func (h *APIHandler) handleDismissSuggestion(w http.ResponseWriter, r *http.Request) {
	actor, workspaceID, ok := h.actorWorkspace(w, r)
	if !ok {
		return
	}

	suggestionUUID := r.PathValue("uuid")
	if err := h.suggestions.Dismiss(suggestionUUID, workspaceID, actor); err != nil {
		h.respondServiceError(w, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
