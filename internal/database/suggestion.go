package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SuggestionStatus represents the review state of a duplicate suggestion
type SuggestionStatus string

const (
	SuggestionStatusPending   SuggestionStatus = "pending"
	SuggestionStatusDismissed SuggestionStatus = "dismissed"
)

// DuplicateSuggestion is a system-proposed candidate duplicate pairing
// between two ideas, awaiting human review.
//
// The pair is stored directionally (source, duplicate) but treated as
// unordered: at most one pending suggestion may exist for a given pair in a
// workspace, in either direction. The detection pipeline enforces this with
// an existence check before insert.
//
// Idea references are weak. A merge does not mutate suggestion rows; the
// list query filters out suggestions whose ideas are merged or gone.
type DuplicateSuggestion struct {
	ID              uint             `gorm:"primaryKey" json:"id"`
	UUID            string           `gorm:"uniqueIndex;size:36;not null" json:"uuid"`
	WorkspaceID     uint             `gorm:"not null;index" json:"workspace_id"`
	SourceIdeaID    uint             `gorm:"not null;index" json:"source_idea_id"`
	DuplicateIdeaID uint             `gorm:"not null;index" json:"duplicate_idea_id"`
	Similarity      int              `gorm:"not null" json:"similarity"` // 0-100
	Status          SuggestionStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ReviewedAt      *time.Time       `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

func (DuplicateSuggestion) TableName() string {
	return "duplicate_suggestions"
}

func (s *DuplicateSuggestion) BeforeCreate(tx *gorm.DB) error {
	if s.UUID == "" {
		s.UUID = uuid.NewString()
	}
	return nil
}

// References reports whether the suggestion connects the two given ideas,
// in either direction.
func (s *DuplicateSuggestion) References(ideaA, ideaB uint) bool {
	return (s.SourceIdeaID == ideaA && s.DuplicateIdeaID == ideaB) ||
		(s.SourceIdeaID == ideaB && s.DuplicateIdeaID == ideaA)
}
