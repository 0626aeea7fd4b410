package services

import (
	"errors"
	"time"

	"github.com/ideaboard/ideaboard/internal/database"
	"github.com/ideaboard/ideaboard/internal/logger"
	"gorm.io/gorm"
)

// TelemetryRecorder accepts fire-and-forget dedupe events. Implementations
// must never block the caller; failures are logged, not returned.
type TelemetryRecorder interface {
	Record(event database.DedupeEvent)
}

// IdeaSummary is the slice of an idea exposed alongside a suggestion.
type IdeaSummary struct {
	UUID          string              `json:"uuid"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Status        database.IdeaStatus `json:"status"`
	RoadmapStatus string              `json:"roadmap_status"`
	VoteCount     int                 `json:"vote_count"`
	CreatedAt     time.Time           `json:"created_at"`
}

// SuggestionView is a pending suggestion joined with both referenced ideas.
type SuggestionView struct {
	UUID          string      `json:"uuid"`
	Similarity    int         `json:"similarity"`
	SourceIdea    IdeaSummary `json:"source_idea"`
	DuplicateIdea IdeaSummary `json:"duplicate_idea"`
	CreatedAt     time.Time   `json:"created_at"`
}

// SuggestionService owns the review workflow over duplicate suggestions.
// Dismiss is the only direct state change; accepting a suggestion happens by
// merging the underlying ideas, never by mutating the suggestion row.
type SuggestionService struct {
	db        *gorm.DB
	telemetry TelemetryRecorder
	log       *logger.Logger
}

// NewSuggestionService creates a new suggestion service
func NewSuggestionService(db *gorm.DB, telemetry TelemetryRecorder, log *logger.Logger) *SuggestionService {
	return &SuggestionService{db: db, telemetry: telemetry, log: log.With("service", "suggestions")}
}

// ListPending returns the workspace's pending suggestions ordered by
// similarity descending. Suggestions referencing a merged or vanished idea
// are filtered out at read time; merge never mutates suggestion rows.
func (s *SuggestionService) ListPending(workspaceID uint) ([]SuggestionView, error) {
	var suggestions []database.DuplicateSuggestion
	err := s.db.
		Where("workspace_id = ? AND status = ?", workspaceID, database.SuggestionStatusPending).
		Order("similarity DESC, id ASC").
		Find(&suggestions).Error
	if err != nil {
		return nil, err
	}
	if len(suggestions) == 0 {
		return []SuggestionView{}, nil
	}

	ideaIDs := make([]uint, 0, len(suggestions)*2)
	for _, sg := range suggestions {
		ideaIDs = append(ideaIDs, sg.SourceIdeaID, sg.DuplicateIdeaID)
	}

	var ideas []database.Idea
	if err := s.db.Where("id IN ? AND workspace_id = ?", ideaIDs, workspaceID).Find(&ideas).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]database.Idea, len(ideas))
	for _, idea := range ideas {
		byID[idea.ID] = idea
	}

	views := make([]SuggestionView, 0, len(suggestions))
	for _, sg := range suggestions {
		source, okA := byID[sg.SourceIdeaID]
		dup, okB := byID[sg.DuplicateIdeaID]
		if !okA || !okB {
			continue // dangling reference, tolerated
		}
		if source.IsMerged() || dup.IsMerged() {
			continue // stale since a merge; superseded without a row write
		}
		views = append(views, SuggestionView{
			UUID:          sg.UUID,
			Similarity:    sg.Similarity,
			SourceIdea:    summarize(source),
			DuplicateIdea: summarize(dup),
			CreatedAt:     sg.CreatedAt,
		})
	}
	return views, nil
}

// Dismiss marks a pending suggestion as dismissed. Not idempotent by
// design: a second dismiss is rejected with ErrConflict rather than
// silently accepted.
func (s *SuggestionService) Dismiss(suggestionUUID string, workspaceID uint, actorID string) error {
	var suggestion database.DuplicateSuggestion

	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("uuid = ? AND workspace_id = ?", suggestionUUID, workspaceID).
			First(&suggestion).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		if suggestion.Status != database.SuggestionStatusPending {
			return ErrConflict
		}

		now := time.Now()
		return tx.Model(&suggestion).Updates(map[string]interface{}{
			"status":      database.SuggestionStatusDismissed,
			"reviewed_at": now,
		}).Error
	})
	if err != nil {
		return err
	}

	sim := suggestion.Similarity
	s.telemetry.Record(database.DedupeEvent{
		WorkspaceID:   workspaceID,
		IdeaID:        suggestion.SourceIdeaID,
		RelatedIdeaID: suggestion.DuplicateIdeaID,
		EventType:     database.DedupeEventDashboardDismissed,
		Similarity:    &sim,
	})

	s.log.Info("suggestion dismissed",
		"workspace_id", workspaceID,
		"suggestion_uuid", suggestionUUID,
		"dismissed_by", actorID)
	return nil
}

func summarize(idea database.Idea) IdeaSummary {
	return IdeaSummary{
		UUID:          idea.UUID,
		Title:         idea.Title,
		Description:   idea.Description,
		Status:        idea.Status,
		RoadmapStatus: idea.RoadmapStatus,
		VoteCount:     idea.VoteCount,
		CreatedAt:     idea.CreatedAt,
	}
}
