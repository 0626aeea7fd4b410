package handlers

import (
	"errors"
	"net/http"

	"github.com/ideaboard/ideaboard/internal/api"
	"github.com/ideaboard/ideaboard/internal/database"
	"github.com/ideaboard/ideaboard/internal/services"
	"gorm.io/gorm"
)

// CreateIdeaRequest is the body for idea submission
type CreateIdeaRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=255"`
	Description string `json:"description" validate:"max=10000"`
}

// MergeIdeaRequest is the body for POST /api/ideas/{uuid}/merge. The path
// idea is the merge parent; the body names the source being folded in.
type MergeIdeaRequest struct {
	SourceIdeaUUID string `json:"source_idea_uuid" validate:"required,uuid"`
}

// ToggleVoteRequest identifies the voting contributor
type ToggleVoteRequest struct {
	ContributorUUID string `json:"contributor_uuid" validate:"required,uuid"`
}

// handleListIdeas handles GET /api/ideas
func (h *APIHandler) handleListIdeas(w http.ResponseWriter, r *http.Request) {
	_, workspaceID, ok := h.actorWorkspace(w, r)
	if !ok {
		return
	}

	p := api.ParsePagination(r)
	var ideas []database.Idea
	err := database.GetDB().
		Where("workspace_id = ?", workspaceID).
		Order("created_at DESC").
		Limit(p.PerPage).Offset(p.Offset()).
		Find(&ideas).Error
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"ideas":    ideas,
		"page":     p.Page,
		"per_page": p.PerPage,
	})
}

// handleCreateIdea handles POST /api/ideas (owner-submitted idea)
func (h *APIHandler) handleCreateIdea(w http.ResponseWriter, r *http.Request) {
	_, workspaceID, ok := h.actorWorkspace(w, r)
	if !ok {
		return
	}
	h.createIdea(w, r, workspaceID, database.IdeaStatusPublished)
}

// handleWidgetCreateIdea handles POST /widget/{slug}/ideas
func (h *APIHandler) handleWidgetCreateIdea(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspaceBySlug(w, r)
	if !ok {
		return
	}
	h.createIdea(w, r, ws.ID, database.IdeaStatusUnderReview)
}

// createIdea persists a new idea, then embeds it and runs duplicate
// detection inline. An embedding failure is not fatal: the idea is created
// and stays "pending" for similarity purposes.
func (h *APIHandler) createIdea(w http.ResponseWriter, r *http.Request, workspaceID uint, status database.IdeaStatus) {
	var req CreateIdeaRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if fieldErrors := api.Validate(req); fieldErrors != nil {
		api.RespondValidationError(w, fieldErrors)
		return
	}

	idea := database.Idea{
		WorkspaceID: workspaceID,
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
	}
	if err := database.GetDB().Create(&idea).Error; err != nil {
		h.respondServiceError(w, err)
		return
	}

	detection := "pending"
	if err := h.embeddings.EmbedIdea(r.Context(), idea.ID); err == nil {
		if _, err := h.dedupe.DetectDuplicates(idea.ID); err != nil {
			h.log.Warn("duplicate detection failed", "idea_id", idea.ID, "error", err)
		} else {
			detection = "completed"
		}
	}

	api.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"idea":      idea,
		"detection": detection,
	})
}

// handleSimilarIdeas handles GET /api/ideas/{uuid}/similar
func (h *APIHandler) handleSimilarIdeas(w http.ResponseWriter, r *http.Request) {
	_, workspaceID, ok := h.actorWorkspace(w, r)
	if !ok {
		return
	}

	idea, err := h.workspaces.GetIdeaByUUID(r.PathValue("uuid"), workspaceID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	// An unembedded idea has no candidates yet; skip the index query.
	ready, err := h.embeddings.HasEmbedding(idea.ID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if !ready {
		api.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"status":        "pending",
			"similar_ideas": []interface{}{},
		})
		return
	}

	result, err := h.dedupe.SimilarIdeas(idea.ID, workspaceID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	if result.Pending {
		api.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"status":        "pending",
			"similar_ideas": []interface{}{},
		})
		return
	}

	// Resolve internal ids to public UUIDs.
	ids := make([]uint, 0, len(result.Matches))
	for _, m := range result.Matches {
		ids = append(ids, m.IdeaID)
	}
	uuidByID := make(map[uint]string, len(ids))
	if len(ids) > 0 {
		var rows []database.Idea
		if err := database.GetDB().Select("id", "uuid").Where("id IN ?", ids).Find(&rows).Error; err != nil {
			h.respondServiceError(w, err)
			return
		}
		for _, row := range rows {
			uuidByID[row.ID] = row.UUID
		}
	}

	type similarIdea struct {
		IdeaID     string `json:"idea_id"`
		Similarity int    `json:"similarity"`
	}
	similar := make([]similarIdea, 0, len(result.Matches))
	for _, m := range result.Matches {
		uuid, found := uuidByID[m.IdeaID]
		if !found {
			continue
		}
		similar = append(similar, similarIdea{IdeaID: uuid, Similarity: m.Similarity})
	}

	api.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "ready",
		"similar_ideas": similar,
	})
}

// handleMergeIdea handles POST /api/ideas/{uuid}/merge
func (h *APIHandler) handleMergeIdea(w http.ResponseWriter, r *http.Request) {
	actor, workspaceID, ok := h.actorWorkspace(w, r)
	if !ok {
		return
	}

	parent, err := h.workspaces.GetIdeaByUUID(r.PathValue("uuid"), workspaceID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	var req MergeIdeaRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if fieldErrors := api.Validate(req); fieldErrors != nil {
		api.RespondValidationError(w, fieldErrors)
		return
	}

	var source database.Idea
	if err := database.GetDB().Where("uuid = ?", req.SourceIdeaUUID).First(&source).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			api.RespondError(w, http.StatusNotFound, "Idea not found")
		} else {
			h.respondServiceError(w, err)
		}
		return
	}

	// The source uuid comes from the request body; it must belong to a
	// workspace the actor owns before the merge may proceed.
	owned, err := h.workspaces.VerifyIdeaOwnership(source.ID, actor)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if !owned {
		h.respondServiceError(w, services.ErrForbidden)
		return
	}

	result, err := h.merges.Merge(source.ID, parent.ID, workspaceID, actor)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"merge":   result,
	})
}

// handleToggleVote handles POST /widget/{slug}/ideas/{uuid}/vote
func (h *APIHandler) handleToggleVote(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspaceBySlug(w, r)
	if !ok {
		return
	}

	var idea database.Idea
	err := database.GetDB().Where("uuid = ? AND workspace_id = ?", r.PathValue("uuid"), ws.ID).First(&idea).Error
	if err != nil {
		api.RespondError(w, http.StatusNotFound, "Idea not found")
		return
	}

	var req ToggleVoteRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if fieldErrors := api.Validate(req); fieldErrors != nil {
		api.RespondValidationError(w, fieldErrors)
		return
	}

	contributor, err := h.workspaces.GetContributor(req.ContributorUUID, ws.ID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	result, err := h.votes.ToggleVote(idea.ID, contributor.ID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	api.RespondJSON(w, http.StatusOK, result)
}

// workspaceBySlug resolves the widget tenant from the path. Returns false
// after writing the error response when resolution fails.
func (h *APIHandler) workspaceBySlug(w http.ResponseWriter, r *http.Request) (*database.Workspace, bool) {
	ws, err := h.workspaces.GetBySlug(r.PathValue("slug"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			api.RespondError(w, http.StatusNotFound, "Workspace not found")
		} else {
			h.respondServiceError(w, err)
		}
		return nil, false
	}
	return ws, true
}
