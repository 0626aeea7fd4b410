package database

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Workspace is the tenant boundary. Every idea, vote, suggestion and
// telemetry event belongs to exactly one workspace.
type Workspace struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UUID      string    `gorm:"uniqueIndex;size:36;not null" json:"uuid"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Slug      string    `gorm:"uniqueIndex;size:128;not null" json:"slug"`
	OwnerID   string    `gorm:"type:varchar(64);not null;index" json:"owner_id"` // account id from the auth provider
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Workspace) TableName() string {
	return "workspaces"
}

// BeforeCreate assigns a UUID if none was provided
func (w *Workspace) BeforeCreate(tx *gorm.DB) error {
	if w.UUID == "" {
		w.UUID = uuid.NewString()
	}
	return nil
}

// Contributor is an end-user who submits and votes on ideas. Distinct from
// the workspace-owning account.
type Contributor struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UUID        string    `gorm:"uniqueIndex;size:36;not null" json:"uuid"`
	WorkspaceID uint      `gorm:"not null;index" json:"workspace_id"`
	Email       string    `gorm:"type:varchar(255);index" json:"email"`
	DisplayName string    `gorm:"type:varchar(128)" json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Contributor) TableName() string {
	return "contributors"
}

func (c *Contributor) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == "" {
		c.UUID = uuid.NewString()
	}
	return nil
}

// IdeaStatus represents the lifecycle status of an idea
type IdeaStatus string

const (
	IdeaStatusUnderReview IdeaStatus = "under_review"
	IdeaStatusPublished   IdeaStatus = "published"
	IdeaStatusDeclined    IdeaStatus = "declined"
	IdeaStatusMerged      IdeaStatus = "merged"
)

// ValidIdeaStatuses returns all statuses an idea may hold.
func ValidIdeaStatuses() []IdeaStatus {
	return []IdeaStatus{IdeaStatusUnderReview, IdeaStatusPublished, IdeaStatusDeclined, IdeaStatusMerged}
}

// Idea is a single feedback submission.
//
// Invariants maintained by the services layer:
//   - VoteCount always equals the number of live votes rows for the idea.
//   - Status == merged implies MergedIntoID != nil, and the referenced idea
//     is itself unmerged (merge chains never exceed depth 1).
type Idea struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UUID          string     `gorm:"uniqueIndex;size:36;not null" json:"uuid"`
	WorkspaceID   uint       `gorm:"not null;index" json:"workspace_id"`
	Title         string     `gorm:"type:varchar(255);not null" json:"title"`
	Description   string     `gorm:"type:text" json:"description"`
	Status        IdeaStatus `gorm:"type:varchar(20);not null;default:'under_review';index" json:"status"`
	RoadmapStatus string     `gorm:"type:varchar(50)" json:"roadmap_status"`
	VoteCount     int        `gorm:"not null;default:0" json:"vote_count"`
	MergedIntoID  *uint      `gorm:"index" json:"merged_into_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (Idea) TableName() string {
	return "ideas"
}

func (i *Idea) BeforeCreate(tx *gorm.DB) error {
	if i.UUID == "" {
		i.UUID = uuid.NewString()
	}
	return nil
}

// IsMerged reports whether the idea has been folded into another idea.
func (i *Idea) IsMerged() bool {
	return i.Status == IdeaStatusMerged
}

// IdeaEmbedding holds the current similarity vector for an idea. One row per
// idea; replaced when the idea's text changes, deleted when the idea is
// merged so it never reappears as a similarity candidate.
type IdeaEmbedding struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	IdeaID      uint      `gorm:"uniqueIndex;not null" json:"idea_id"`
	WorkspaceID uint      `gorm:"not null;index" json:"workspace_id"` // denormalized for index scoping
	Vector      string    `gorm:"type:text;not null" json:"-"`        // JSON-encoded []float32
	ContentHash string    `gorm:"type:varchar(64);not null" json:"content_hash"`
	Model       string    `gorm:"type:varchar(128)" json:"model"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (IdeaEmbedding) TableName() string {
	return "idea_embeddings"
}

// SetVector encodes and stores the embedding vector.
func (e *IdeaEmbedding) SetVector(v []float32) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	e.Vector = string(data)
	return nil
}

// GetVector decodes the stored embedding vector.
func (e *IdeaEmbedding) GetVector() ([]float32, error) {
	var v []float32
	if err := json.Unmarshal([]byte(e.Vector), &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Vote records one contributor's endorsement of an idea. At most one vote
// per (idea, contributor) pair, enforced by the composite unique index.
// Rows are only ever created or deleted, never updated.
type Vote struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	IdeaID        uint      `gorm:"not null;uniqueIndex:idx_votes_idea_contributor" json:"idea_id"`
	ContributorID uint      `gorm:"not null;uniqueIndex:idx_votes_idea_contributor" json:"contributor_id"`
	CreatedAt     time.Time `json:"created_at"`
}

func (Vote) TableName() string {
	return "votes"
}

// DedupeEventType classifies dedupe telemetry events
type DedupeEventType string

const (
	DedupeEventShown              DedupeEventType = "shown"
	DedupeEventAccepted           DedupeEventType = "accepted"
	DedupeEventDismissed          DedupeEventType = "dismissed"
	DedupeEventDashboardDismissed DedupeEventType = "dashboard_dismissed"
)

// ValidDedupeEventTypes returns all accepted event types.
func ValidDedupeEventTypes() []DedupeEventType {
	return []DedupeEventType{DedupeEventShown, DedupeEventAccepted, DedupeEventDismissed, DedupeEventDashboardDismissed}
}

// IsValidDedupeEventType reports whether t is a known event type.
func IsValidDedupeEventType(t DedupeEventType) bool {
	for _, v := range ValidDedupeEventTypes() {
		if v == t {
			return true
		}
	}
	return false
}

// DedupeEvent is an append-only telemetry record. Idea references are weak:
// rows are tolerated even after a referenced idea disappears.
type DedupeEvent struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	WorkspaceID   uint            `gorm:"not null;index" json:"workspace_id"`
	IdeaID        uint            `gorm:"not null;index" json:"idea_id"`
	RelatedIdeaID uint            `gorm:"index" json:"related_idea_id"`
	EventType     DedupeEventType `gorm:"type:varchar(30);not null" json:"event_type"`
	Similarity    *int            `json:"similarity,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (DedupeEvent) TableName() string {
	return "dedupe_events"
}
