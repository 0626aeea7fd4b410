package services

import (
	"errors"

	"github.com/ideaboard/ideaboard/internal/database"
	"github.com/ideaboard/ideaboard/internal/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VoteService is the vote ledger guard: the only code path besides the
// merge engine allowed to write an idea's vote count. It keeps the
// denormalized count equal to the number of live vote rows, even when
// identical toggle requests race.
type VoteService struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewVoteService creates a new vote service
func NewVoteService(db *gorm.DB, log *logger.Logger) *VoteService {
	return &VoteService{db: db, log: log.With("service", "votes")}
}

// ToggleResult reports the outcome of a vote toggle.
type ToggleResult struct {
	Voted     bool `json:"voted"`
	VoteCount int  `json:"vote_count"`
}

// ToggleVote flips the contributor's vote on an idea. If a vote exists it is
// removed; otherwise one is created. The insert uses ON CONFLICT DO NOTHING
// so a concurrent identical request winning the race does not error the
// transaction; the vote is treated as present and the authoritative count
// is re-read instead of trusting a local increment.
func (s *VoteService) ToggleVote(ideaID, contributorID uint) (*ToggleResult, error) {
	var result ToggleResult

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var idea database.Idea
		if err := tx.First(&idea, ideaID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var existing database.Vote
		err := tx.Where("idea_id = ? AND contributor_id = ?", ideaID, contributorID).First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			result.Voted = false

		case errors.Is(err, gorm.ErrRecordNotFound):
			vote := database.Vote{IdeaID: ideaID, ContributorID: contributorID}
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&vote)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// Lost the race to an identical request. The vote exists;
				// fall through to the recount below.
				s.log.Debug("vote insert lost race, reconciling",
					"idea_id", ideaID, "contributor_id", contributorID)
			}
			result.Voted = true

		default:
			return err
		}

		count, err := recountVotes(tx, ideaID)
		if err != nil {
			return err
		}
		if err := tx.Model(&database.Idea{}).Where("id = ?", ideaID).
			Update("vote_count", count).Error; err != nil {
			return err
		}
		result.VoteCount = count
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// recountVotes returns the live vote count for an idea. Recomputing inside
// the same transaction is what keeps the denormalized counter honest under
// races; a floor of zero holds by construction.
func recountVotes(tx *gorm.DB, ideaID uint) (int, error) {
	var count int64
	err := tx.Model(&database.Vote{}).Where("idea_id = ?", ideaID).Count(&count).Error
	return int(count), err
}
