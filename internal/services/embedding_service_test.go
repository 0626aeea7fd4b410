package services

import (
	"context"
	"errors"
	"testing"

	"github.com/ideaboard/ideaboard/internal/database"
	"github.com/ideaboard/ideaboard/internal/logger"
	"github.com/ideaboard/ideaboard/internal/testhelpers"
)

func TestEmbedIdeaStoresVector(t *testing.T) {
	db := testhelpers.OpenTestDB(t)
	ws := testhelpers.SeedWorkspace(t, db, "acme")
	idea := testhelpers.NewIdea(ws.ID, "Dark mode").WithDescription("Please add a dark theme").Create(t, db)

	client := &testhelpers.StubEmbedClient{Default: []float32{0.1, 0.2, 0.3}}
	svc := NewEmbeddingService(db, client, logger.NewNop())

	if err := svc.EmbedIdea(context.Background(), idea.ID); err != nil {
		t.Fatalf("EmbedIdea failed: %v", err)
	}

	var stored database.IdeaEmbedding
	if err := db.Where("idea_id = ?", idea.ID).First(&stored).Error; err != nil {
		t.Fatalf("expected embedding row: %v", err)
	}
	if stored.WorkspaceID != ws.ID {
		t.Errorf("embedding workspace = %d, want %d", stored.WorkspaceID, ws.ID)
	}
	if stored.Model != "stub-embedding-model" {
		t.Errorf("embedding model = %q", stored.Model)
	}
	vec, err := stored.GetVector()
	if err != nil {
		t.Fatalf("failed to decode vector: %v", err)
	}
	if len(vec) != 3 || vec[0] != 0.1 {
		t.Errorf("unexpected vector %v", vec)
	}
}

func TestEmbedIdeaSkipsUnchangedText(t *testing.T) {
	db := testhelpers.OpenTestDB(t)
	ws := testhelpers.SeedWorkspace(t, db, "acme")
	idea := testhelpers.NewIdea(ws.ID, "Dark mode").Create(t, db)

	client := &testhelpers.StubEmbedClient{Default: []float32{1, 0}}
	svc := NewEmbeddingService(db, client, logger.NewNop())

	if err := svc.EmbedIdea(context.Background(), idea.ID); err != nil {
		t.Fatalf("first embed failed: %v", err)
	}
	if err := svc.EmbedIdea(context.Background(), idea.ID); err != nil {
		t.Fatalf("second embed failed: %v", err)
	}
	if client.Calls != 1 {
		t.Errorf("expected 1 provider call for unchanged text, got %d", client.Calls)
	}
}

func TestEmbedIdeaReplacesOnTextChange(t *testing.T) {
	db := testhelpers.OpenTestDB(t)
	ws := testhelpers.SeedWorkspace(t, db, "acme")
	idea := testhelpers.NewIdea(ws.ID, "Dark mode").Create(t, db)

	client := &testhelpers.StubEmbedClient{Default: []float32{1, 0}}
	svc := NewEmbeddingService(db, client, logger.NewNop())

	if err := svc.EmbedIdea(context.Background(), idea.ID); err != nil {
		t.Fatalf("first embed failed: %v", err)
	}

	if err := db.Model(&database.Idea{}).Where("id = ?", idea.ID).
		Update("description", "New wording").Error; err != nil {
		t.Fatalf("failed to update idea: %v", err)
	}
	client.Default = []float32{0, 1}

	if err := svc.EmbedIdea(context.Background(), idea.ID); err != nil {
		t.Fatalf("re-embed failed: %v", err)
	}
	if client.Calls != 2 {
		t.Errorf("expected 2 provider calls, got %d", client.Calls)
	}

	if n := testhelpers.CountRows(t, db, &database.IdeaEmbedding{}, "idea_id = ?", idea.ID); n != 1 {
		t.Errorf("expected exactly 1 embedding row, got %d", n)
	}
	var stored database.IdeaEmbedding
	if err := db.Where("idea_id = ?", idea.ID).First(&stored).Error; err != nil {
		t.Fatalf("failed to reload embedding: %v", err)
	}
	vec, _ := stored.GetVector()
	if len(vec) != 2 || vec[1] != 1 {
		t.Errorf("expected replaced vector, got %v", vec)
	}
}

func TestEmbedIdeaProviderFailureLeavesPending(t *testing.T) {
	db := testhelpers.OpenTestDB(t)
	ws := testhelpers.SeedWorkspace(t, db, "acme")
	idea := testhelpers.NewIdea(ws.ID, "Dark mode").Create(t, db)

	client := &testhelpers.StubEmbedClient{Err: errors.New("provider down")}
	svc := NewEmbeddingService(db, client, logger.NewNop())

	if err := svc.EmbedIdea(context.Background(), idea.ID); err == nil {
		t.Fatal("expected provider error to surface")
	}

	has, err := svc.HasEmbedding(idea.ID)
	if err != nil {
		t.Fatalf("HasEmbedding failed: %v", err)
	}
	if has {
		t.Error("expected no embedding after provider failure")
	}
}

func TestEmbedIdeaUnknownIdea(t *testing.T) {
	db := testhelpers.OpenTestDB(t)
	client := &testhelpers.StubEmbedClient{Default: []float32{1}}
	svc := NewEmbeddingService(db, client, logger.NewNop())

	err := svc.EmbedIdea(context.Background(), 9999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
