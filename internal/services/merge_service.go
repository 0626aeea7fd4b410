package services

import (
	"errors"

	"github.com/ideaboard/ideaboard/internal/database"
	"github.com/ideaboard/ideaboard/internal/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// User-facing precondition messages. Surfaced verbatim by the API.
const (
	msgSelfMerge       = "cannot merge an idea into itself"
	msgSourceMerged    = "idea is already merged"
	msgSourceIsTarget  = "cannot merge an idea that has other ideas merged into it"
	msgParentNotLive   = "Parent idea must be in Published status"
	msgParentIsMergedI = "cannot merge into an idea that is itself merged"
)

// MergeService consolidates duplicate ideas. The whole operation runs as one
// transaction: either every step lands or none do. It is deliberately not
// idempotent; re-merging an already-merged source fails a precondition
// instead of silently succeeding.
type MergeService struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewMergeService creates a new merge service
func NewMergeService(db *gorm.DB, log *logger.Logger) *MergeService {
	return &MergeService{db: db, log: log.With("service", "merge")}
}

// MergeResult summarizes a committed merge.
type MergeResult struct {
	SourceIdeaID    uint `json:"source_idea_id"`
	ParentIdeaID    uint `json:"parent_idea_id"`
	VotesMoved      int  `json:"votes_moved"`
	ParentVoteCount int  `json:"parent_vote_count"`
}

// Merge folds sourceIdeaID into parentIdeaID within the workspace.
//
// Preconditions are validated before any mutation, each with its own error.
// Votes migrate as a set union: a contributor who voted for both ideas ends
// up with exactly one vote on the parent. The parent's vote count is then
// recomputed from live rows rather than incremented, so skipped duplicates
// can never introduce drift. The source's embedding is removed so it never
// again surfaces as a similarity candidate.
func (s *MergeService) Merge(sourceIdeaID, parentIdeaID, workspaceID uint, actorID string) (*MergeResult, error) {
	if sourceIdeaID == parentIdeaID {
		return nil, NewPreconditionError(msgSelfMerge)
	}

	var result MergeResult

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Locks are taken in ascending id order so two opposite merges of
		// the same pair cannot deadlock on each other's first lock.
		firstID, secondID := sourceIdeaID, parentIdeaID
		if secondID < firstID {
			firstID, secondID = secondID, firstID
		}
		first, err := lockIdea(tx, firstID, workspaceID)
		if err != nil {
			return err
		}
		second, err := lockIdea(tx, secondID, workspaceID)
		if err != nil {
			return err
		}
		source, parent := first, second
		if source.ID != sourceIdeaID {
			source, parent = second, first
		}

		if err := checkMergePreconditions(tx, source, parent); err != nil {
			return err
		}

		var sourceVotes []database.Vote
		if err := tx.Where("idea_id = ?", source.ID).Find(&sourceVotes).Error; err != nil {
			return err
		}

		moved := 0
		for _, v := range sourceVotes {
			vote := database.Vote{IdeaID: parent.ID, ContributorID: v.ContributorID}
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&vote)
			if res.Error != nil {
				return res.Error
			}
			// RowsAffected is 0 when the contributor already voted for the
			// parent; union, not sum.
			moved += int(res.RowsAffected)
		}

		if err := tx.Where("idea_id = ?", source.ID).Delete(&database.Vote{}).Error; err != nil {
			return err
		}

		parentCount, err := recountVotes(tx, parent.ID)
		if err != nil {
			return err
		}
		if err := tx.Model(&database.Idea{}).Where("id = ?", parent.ID).
			Update("vote_count", parentCount).Error; err != nil {
			return err
		}

		if err := tx.Model(&database.Idea{}).Where("id = ?", source.ID).
			Updates(map[string]interface{}{
				"status":         database.IdeaStatusMerged,
				"merged_into_id": parent.ID,
				"vote_count":     0,
			}).Error; err != nil {
			return err
		}

		// A merged idea must never reappear in similarity searches.
		if err := tx.Where("idea_id = ?", source.ID).Delete(&database.IdeaEmbedding{}).Error; err != nil {
			return err
		}

		merge := database.IdeaMerge{
			WorkspaceID:  workspaceID,
			SourceIdeaID: source.ID,
			TargetIdeaID: parent.ID,
			VotesMoved:   moved,
			MergedBy:     actorID,
		}
		if err := tx.Create(&merge).Error; err != nil {
			return err
		}

		result = MergeResult{
			SourceIdeaID:    source.ID,
			ParentIdeaID:    parent.ID,
			VotesMoved:      moved,
			ParentVoteCount: parentCount,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("ideas merged",
		"workspace_id", workspaceID,
		"source_idea_id", result.SourceIdeaID,
		"parent_idea_id", result.ParentIdeaID,
		"votes_moved", result.VotesMoved,
		"merged_by", actorID)
	return &result, nil
}

// lockIdea loads an idea with a row-level write lock for the duration of
// the merge transaction. Concurrent merges or vote toggles on the same pair
// serialize on these locks instead of interleaving. sqlite has no row
// locks but serializes writers, so the clause is applied on postgres only.
func lockIdea(tx *gorm.DB, ideaID, workspaceID uint) (*database.Idea, error) {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var idea database.Idea
	err := q.
		Where("id = ? AND workspace_id = ?", ideaID, workspaceID).
		First(&idea).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &idea, nil
}

// checkMergePreconditions validates everything that must hold before the
// first mutating step. Each violation has a distinct, user-facing error.
func checkMergePreconditions(tx *gorm.DB, source, parent *database.Idea) error {
	if source.Status == database.IdeaStatusMerged {
		return NewPreconditionError(msgSourceMerged)
	}

	// The source must not itself be a merge target; merge graphs never
	// exceed depth 1.
	var childCount int64
	if err := tx.Model(&database.Idea{}).
		Where("merged_into_id = ?", source.ID).
		Count(&childCount).Error; err != nil {
		return err
	}
	if childCount > 0 {
		return NewPreconditionError(msgSourceIsTarget)
	}

	if parent.Status != database.IdeaStatusPublished {
		return NewPreconditionError(msgParentNotLive)
	}
	if parent.MergedIntoID != nil {
		return NewPreconditionError(msgParentIsMergedI)
	}
	return nil
}
