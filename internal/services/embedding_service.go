package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/ideaboard/ideaboard/internal/clients/openai"
	"github.com/ideaboard/ideaboard/internal/database"
	"github.com/ideaboard/ideaboard/internal/logger"
	"gorm.io/gorm"
)

// EmbeddingService persists similarity vectors for ideas. A provider
// failure leaves the idea without an embedding; downstream similarity
// lookups report "pending" rather than erroring.
type EmbeddingService struct {
	db     *gorm.DB
	client openai.Client
	log    *logger.Logger
}

// NewEmbeddingService creates a new embedding service
func NewEmbeddingService(db *gorm.DB, client openai.Client, log *logger.Logger) *EmbeddingService {
	return &EmbeddingService{db: db, client: client, log: log.With("service", "embeddings")}
}

// EmbedIdea computes and stores the embedding for an idea's current text.
// If the text is unchanged since the last embedding (same content hash) the
// provider call is skipped entirely.
func (s *EmbeddingService) EmbedIdea(ctx context.Context, ideaID uint) error {
	var idea database.Idea
	if err := s.db.First(&idea, ideaID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	text := idea.Title + "\n\n" + idea.Description
	hash := contentHash(text)

	var existing database.IdeaEmbedding
	err := s.db.Where("idea_id = ?", idea.ID).First(&existing).Error
	if err == nil && existing.ContentHash == hash {
		return nil // unchanged text, vector still valid
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	vectors, embedErr := s.client.Embed(ctx, []string{text})
	if embedErr != nil {
		s.log.Warn("embedding provider failed, idea stays pending",
			"idea_id", idea.ID, "error", embedErr)
		return embedErr
	}
	if len(vectors) != 1 {
		s.log.Warn("embedding provider returned unexpected vector count",
			"idea_id", idea.ID, "count", len(vectors))
		return errors.New("embedding provider returned no vector")
	}

	embedding := database.IdeaEmbedding{
		IdeaID:      idea.ID,
		WorkspaceID: idea.WorkspaceID,
		ContentHash: hash,
		Model:       s.client.Model(),
	}
	if err := embedding.SetVector(vectors[0]); err != nil {
		return err
	}

	// Replace any stale row for this idea in one transaction.
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("idea_id = ?", idea.ID).Delete(&database.IdeaEmbedding{}).Error; err != nil {
			return err
		}
		return tx.Create(&embedding).Error
	})
}

// HasEmbedding reports whether the idea currently has a stored vector.
func (s *EmbeddingService) HasEmbedding(ideaID uint) (bool, error) {
	var count int64
	err := s.db.Model(&database.IdeaEmbedding{}).Where("idea_id = ?", ideaID).Count(&count).Error
	return count > 0, err
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
