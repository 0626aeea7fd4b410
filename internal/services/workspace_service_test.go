package services

import (
	"errors"
	"testing"

	"github.com/ideaboard/ideaboard/internal/testhelpers"
)

func TestResolveWorkspace(t *testing.T) {
	db := testhelpers.OpenTestDB(t)
	ws := testhelpers.SeedWorkspace(t, db, "acme")

	svc := NewWorkspaceService(db)
	resolved, err := svc.ResolveWorkspace(ws.OwnerID)
	if err != nil {
		t.Fatalf("ResolveWorkspace failed: %v", err)
	}
	if resolved.ID != ws.ID {
		t.Errorf("resolved workspace %d, want %d", resolved.ID, ws.ID)
	}

	if _, err := svc.ResolveWorkspace("nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetBySlug(t *testing.T) {
	db := testhelpers.OpenTestDB(t)
	ws := testhelpers.SeedWorkspace(t, db, "acme")

	svc := NewWorkspaceService(db)
	found, err := svc.GetBySlug("acme")
	if err != nil {
		t.Fatalf("GetBySlug failed: %v", err)
	}
	if found.ID != ws.ID {
		t.Errorf("found workspace %d, want %d", found.ID, ws.ID)
	}

	if _, err := svc.GetBySlug("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetIdeaByUUIDScoping(t *testing.T) {
	db := testhelpers.OpenTestDB(t)
	ws := testhelpers.SeedWorkspace(t, db, "acme")
	other := testhelpers.SeedWorkspace(t, db, "globex")
	idea := testhelpers.NewIdea(ws.ID, "Dark mode").Create(t, db)

	svc := NewWorkspaceService(db)
	found, err := svc.GetIdeaByUUID(idea.UUID, ws.ID)
	if err != nil {
		t.Fatalf("GetIdeaByUUID failed: %v", err)
	}
	if found.ID != idea.ID {
		t.Errorf("found idea %d, want %d", found.ID, idea.ID)
	}

	// The same uuid through another workspace's scope must not resolve.
	if _, err := svc.GetIdeaByUUID(idea.UUID, other.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign scope, got %v", err)
	}
}

func TestVerifyIdeaOwnership(t *testing.T) {
	db := testhelpers.OpenTestDB(t)
	ws := testhelpers.SeedWorkspace(t, db, "acme")
	idea := testhelpers.NewIdea(ws.ID, "Dark mode").Create(t, db)

	svc := NewWorkspaceService(db)
	owned, err := svc.VerifyIdeaOwnership(idea.ID, ws.OwnerID)
	if err != nil {
		t.Fatalf("VerifyIdeaOwnership failed: %v", err)
	}
	if !owned {
		t.Error("expected owner to own the idea")
	}

	owned, err = svc.VerifyIdeaOwnership(idea.ID, "owner-globex")
	if err != nil {
		t.Fatalf("VerifyIdeaOwnership failed: %v", err)
	}
	if owned {
		t.Error("expected foreign owner to not own the idea")
	}
}

func TestGetContributorScoping(t *testing.T) {
	db := testhelpers.OpenTestDB(t)
	ws := testhelpers.SeedWorkspace(t, db, "acme")
	other := testhelpers.SeedWorkspace(t, db, "globex")
	c := testhelpers.SeedContributor(t, db, ws.ID, "ada@example.com")

	svc := NewWorkspaceService(db)
	found, err := svc.GetContributor(c.UUID, ws.ID)
	if err != nil {
		t.Fatalf("GetContributor failed: %v", err)
	}
	if found.ID != c.ID {
		t.Errorf("found contributor %d, want %d", found.ID, c.ID)
	}

	if _, err := svc.GetContributor(c.UUID, other.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for foreign scope, got %v", err)
	}
}
