package testhelpers

import (
	"testing"

	"github.com/ideaboard/ideaboard/internal/database"
	"gorm.io/gorm"
)

// ========================================
// Test Data Builders
// ========================================

// SeedWorkspace creates a workspace with sensible defaults
func SeedWorkspace(t *testing.T, db *gorm.DB, slug string) *database.Workspace {
	t.Helper()
	ws := &database.Workspace{
		Name:    "Workspace " + slug,
		Slug:    slug,
		OwnerID: "owner-" + slug,
	}
	if err := db.Create(ws).Error; err != nil {
		t.Fatalf("failed to seed workspace: %v", err)
	}
	return ws
}

// SeedContributor creates a contributor in the workspace
func SeedContributor(t *testing.T, db *gorm.DB, workspaceID uint, email string) *database.Contributor {
	t.Helper()
	c := &database.Contributor{
		WorkspaceID: workspaceID,
		Email:       email,
		DisplayName: email,
	}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("failed to seed contributor: %v", err)
	}
	return c
}

// IdeaBuilder builds ideas for tests
type IdeaBuilder struct {
	idea database.Idea
}

// NewIdea starts a builder with published status and no votes
func NewIdea(workspaceID uint, title string) *IdeaBuilder {
	return &IdeaBuilder{idea: database.Idea{
		WorkspaceID: workspaceID,
		Title:       title,
		Description: "Description for " + title,
		Status:      database.IdeaStatusPublished,
	}}
}

// WithStatus sets the idea status
func (b *IdeaBuilder) WithStatus(status database.IdeaStatus) *IdeaBuilder {
	b.idea.Status = status
	return b
}

// WithDescription sets the idea description
func (b *IdeaBuilder) WithDescription(desc string) *IdeaBuilder {
	b.idea.Description = desc
	return b
}

// WithVoteCount sets the stored vote count directly
func (b *IdeaBuilder) WithVoteCount(n int) *IdeaBuilder {
	b.idea.VoteCount = n
	return b
}

// MergedInto marks the idea as merged into the given parent
func (b *IdeaBuilder) MergedInto(parentID uint) *IdeaBuilder {
	b.idea.Status = database.IdeaStatusMerged
	b.idea.MergedIntoID = &parentID
	return b
}

// Create persists the idea
func (b *IdeaBuilder) Create(t *testing.T, db *gorm.DB) *database.Idea {
	t.Helper()
	idea := b.idea
	if err := db.Create(&idea).Error; err != nil {
		t.Fatalf("failed to seed idea: %v", err)
	}
	return &idea
}

// SeedEmbedding stores a similarity vector for the idea
func SeedEmbedding(t *testing.T, db *gorm.DB, workspaceID, ideaID uint, vector []float32) *database.IdeaEmbedding {
	t.Helper()
	emb := &database.IdeaEmbedding{
		IdeaID:      ideaID,
		WorkspaceID: workspaceID,
		ContentHash: "seeded",
		Model:       "stub-embedding-model",
	}
	if err := emb.SetVector(vector); err != nil {
		t.Fatalf("failed to encode vector: %v", err)
	}
	if err := db.Create(emb).Error; err != nil {
		t.Fatalf("failed to seed embedding: %v", err)
	}
	return emb
}

// SeedVote records a vote; the caller keeps vote_count in sync if needed
func SeedVote(t *testing.T, db *gorm.DB, ideaID, contributorID uint) *database.Vote {
	t.Helper()
	v := &database.Vote{IdeaID: ideaID, ContributorID: contributorID}
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("failed to seed vote: %v", err)
	}
	return v
}

// SeedSuggestion creates a pending duplicate suggestion
func SeedSuggestion(t *testing.T, db *gorm.DB, workspaceID, sourceID, duplicateID uint, similarity int) *database.DuplicateSuggestion {
	t.Helper()
	s := &database.DuplicateSuggestion{
		WorkspaceID:     workspaceID,
		SourceIdeaID:    sourceID,
		DuplicateIdeaID: duplicateID,
		Similarity:      similarity,
		Status:          database.SuggestionStatusPending,
	}
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("failed to seed suggestion: %v", err)
	}
	return s
}
