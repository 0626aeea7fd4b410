package database

import "time"

// IdeaMerge tracks when ideas are merged together.
// This provides an audit trail for merge operations. Suggestion rows are
// deliberately left untouched by a merge; this table is the durable record
// of what happened and when.
type IdeaMerge struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	WorkspaceID  uint      `gorm:"not null;index" json:"workspace_id"`
	SourceIdeaID uint      `gorm:"not null;index" json:"source_idea_id"` // The idea that was merged away
	TargetIdeaID uint      `gorm:"not null;index" json:"target_idea_id"` // The idea that absorbed the source
	VotesMoved   int       `json:"votes_moved"`                          // Votes migrated to the target (skips excluded)
	MergedBy     string    `gorm:"type:varchar(64);not null" json:"merged_by"`
	CreatedAt    time.Time `json:"created_at"`
}

func (IdeaMerge) TableName() string {
	return "idea_merges"
}
