package handlers

import (
	"errors"
	"net/http"

	"github.com/ideaboard/ideaboard/internal/api"
	"github.com/ideaboard/ideaboard/internal/logger"
	"github.com/ideaboard/ideaboard/internal/middleware"
	"github.com/ideaboard/ideaboard/internal/services"
)

// APIHandler handles the dashboard and widget API endpoints
type APIHandler struct {
	workspaces  *services.WorkspaceService
	suggestions *services.SuggestionService
	dedupe      *services.DedupeService
	merges      *services.MergeService
	votes       *services.VoteService
	embeddings  *services.EmbeddingService
	telemetry   services.TelemetryRecorder
	log         *logger.Logger
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(
	workspaces *services.WorkspaceService,
	suggestions *services.SuggestionService,
	dedupe *services.DedupeService,
	merges *services.MergeService,
	votes *services.VoteService,
	embeddings *services.EmbeddingService,
	telemetry services.TelemetryRecorder,
	log *logger.Logger,
) *APIHandler {
	return &APIHandler{
		workspaces:  workspaces,
		suggestions: suggestions,
		dedupe:      dedupe,
		merges:      merges,
		votes:       votes,
		embeddings:  embeddings,
		telemetry:   telemetry,
		log:         log.With("handler", "api"),
	}
}

// SetupRoutes sets up all API routes
func (h *APIHandler) SetupRoutes(mux *http.ServeMux) {
	// Dashboard (owner) routes, JWT-protected
	mux.HandleFunc("GET /api/suggestions", h.handleListSuggestions)
	mux.HandleFunc("POST /api/suggestions/{uuid}/dismiss", h.handleDismissSuggestion)
	mux.HandleFunc("GET /api/ideas", h.handleListIdeas)
	mux.HandleFunc("POST /api/ideas", h.handleCreateIdea)
	mux.HandleFunc("GET /api/ideas/{uuid}/similar", h.handleSimilarIdeas)
	mux.HandleFunc("POST /api/ideas/{uuid}/merge", h.handleMergeIdea)
	mux.HandleFunc("POST /api/dedupe-events", h.handleRecordDedupeEvent)
	mux.HandleFunc("GET /api/settings/dedupe", h.handleGetDedupeSettings)
	mux.HandleFunc("PUT /api/settings/dedupe", h.handleUpdateDedupeSettings)

	// Widget (contributor) routes, public
	mux.HandleFunc("POST /widget/{slug}/ideas", h.handleWidgetCreateIdea)
	mux.HandleFunc("POST /widget/{slug}/ideas/{uuid}/vote", h.handleToggleVote)
}

// actorWorkspace resolves the authenticated dashboard user's workspace.
// Returns false after writing the error response when resolution fails.
func (h *APIHandler) actorWorkspace(w http.ResponseWriter, r *http.Request) (string, uint, bool) {
	actor := middleware.GetUserFromContext(r.Context())
	if actor == "" {
		api.RespondError(w, http.StatusUnauthorized, "Missing authentication")
		return "", 0, false
	}
	ws, err := h.workspaces.ResolveWorkspace(actor)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			api.RespondError(w, http.StatusNotFound, "Workspace not found")
		} else {
			h.log.Error("workspace resolution failed", "actor", actor, "error", err)
			api.RespondError(w, http.StatusInternalServerError, "Internal server error")
		}
		return "", 0, false
	}
	return actor, ws.ID, true
}

// respondServiceError maps service-layer errors onto HTTP statuses.
func (h *APIHandler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		api.RespondError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, services.ErrForbidden):
		api.RespondError(w, http.StatusForbidden, "Forbidden")
	case errors.Is(err, services.ErrConflict):
		api.RespondError(w, http.StatusConflict, "Already processed")
	case services.IsPrecondition(err):
		api.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error("request failed", "error", err)
		api.RespondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
