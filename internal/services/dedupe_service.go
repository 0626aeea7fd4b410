package services

import (
	"errors"

	"github.com/ideaboard/ideaboard/internal/database"
	"github.com/ideaboard/ideaboard/internal/logger"
	"github.com/ideaboard/ideaboard/internal/similarity"
	"gorm.io/gorm"
)

// SuggestionNotifier announces newly created duplicate suggestions to an
// external channel. The channel is the workspace's configured destination;
// an empty string means the implementation's default. Best-effort:
// implementations swallow their own errors.
type SuggestionNotifier interface {
	NotifySuggestion(channel string, source, duplicate database.Idea, similarityScore int)
}

// DedupeService orchestrates the detection pipeline: query the similarity
// index, dedupe against existing suggestions and merge state, persist new
// suggestions, and emit telemetry.
type DedupeService struct {
	db        *gorm.DB
	index     *similarity.Index
	telemetry TelemetryRecorder
	notifier  SuggestionNotifier
	log       *logger.Logger
}

// NewDedupeService creates a new dedupe service. notifier may be nil.
func NewDedupeService(db *gorm.DB, index *similarity.Index, telemetry TelemetryRecorder, notifier SuggestionNotifier, log *logger.Logger) *DedupeService {
	return &DedupeService{
		db:        db,
		index:     index,
		telemetry: telemetry,
		notifier:  notifier,
		log:       log.With("service", "dedupe"),
	}
}

// DetectDuplicates runs detection for a freshly embedded idea and returns
// the newly created suggestions. Running it twice on an unchanged idea
// creates no duplicate pending rows: each candidate pair is existence-
// checked in both directions before insert. An idea with no embedding yet
// produces no suggestions and no error. Every surfaced candidate, new or
// pre-existing, emits a best-effort "shown" event.
func (s *DedupeService) DetectDuplicates(ideaID uint) ([]database.DuplicateSuggestion, error) {
	var idea database.Idea
	if err := s.db.First(&idea, ideaID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	settings, err := database.GetOrCreateDedupeSettings(s.db, idea.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if !settings.Enabled {
		return nil, nil
	}

	result, err := s.index.FindSimilar(idea.ID, idea.WorkspaceID, settings.TopK)
	if err != nil {
		return nil, err
	}
	if result.Pending {
		s.log.Debug("detection skipped, embedding pending", "idea_id", idea.ID)
		return nil, nil
	}

	var created []database.DuplicateSuggestion
	for _, match := range result.Matches {
		if match.Similarity < settings.SimilarityFloor {
			continue
		}

		existing, err := s.pendingForPair(idea.WorkspaceID, idea.ID, match.IdeaID)
		if err != nil {
			return created, err
		}

		if existing == nil {
			suggestion := database.DuplicateSuggestion{
				WorkspaceID:     idea.WorkspaceID,
				SourceIdeaID:    idea.ID,
				DuplicateIdeaID: match.IdeaID,
				Similarity:      match.Similarity,
				Status:          database.SuggestionStatusPending,
			}
			if err := s.db.Create(&suggestion).Error; err != nil {
				return created, err
			}
			created = append(created, suggestion)

			if s.notifier != nil && settings.SlackEnabled {
				var dup database.Idea
				if err := s.db.First(&dup, match.IdeaID).Error; err == nil {
					s.notifier.NotifySuggestion(settings.SlackChannel, idea, dup, match.Similarity)
				}
			}
		}

		sim := match.Similarity
		s.telemetry.Record(database.DedupeEvent{
			WorkspaceID:   idea.WorkspaceID,
			IdeaID:        idea.ID,
			RelatedIdeaID: match.IdeaID,
			EventType:     database.DedupeEventShown,
			Similarity:    &sim,
		})
	}

	if len(created) > 0 {
		s.log.Info("duplicate suggestions created",
			"workspace_id", idea.WorkspaceID,
			"idea_id", idea.ID,
			"count", len(created))
	}
	return created, nil
}

// SimilarIdeas answers the read-only similarity lookup for one idea, using
// the workspace's configured K. A missing embedding yields Pending, never
// an error.
func (s *DedupeService) SimilarIdeas(ideaID, workspaceID uint) (*similarity.Result, error) {
	settings, err := database.GetOrCreateDedupeSettings(s.db, workspaceID)
	if err != nil {
		return nil, err
	}
	return s.index.FindSimilar(ideaID, workspaceID, settings.TopK)
}

// pendingForPair finds a pending suggestion covering the unordered
// (ideaA, ideaB) pair, or nil. The pair is stored directionally, so both
// orientations are checked.
func (s *DedupeService) pendingForPair(workspaceID, ideaA, ideaB uint) (*database.DuplicateSuggestion, error) {
	var suggestion database.DuplicateSuggestion
	err := s.db.
		Where("workspace_id = ? AND status = ?", workspaceID, database.SuggestionStatusPending).
		Where("(source_idea_id = ? AND duplicate_idea_id = ?) OR (source_idea_id = ? AND duplicate_idea_id = ?)",
			ideaA, ideaB, ideaB, ideaA).
		First(&suggestion).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &suggestion, nil
}
