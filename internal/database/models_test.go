package database

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func TestWorkspaceUUIDAssignedOnCreate(t *testing.T) {
	db := openTestDB(t)
	ws := Workspace{Name: "Acme", Slug: "acme", OwnerID: "owner-1"}
	if err := db.Create(&ws).Error; err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if ws.UUID == "" {
		t.Error("expected UUID to be assigned")
	}
}

func TestIdeaEmbeddingVectorRoundTrip(t *testing.T) {
	emb := IdeaEmbedding{}
	in := []float32{0.5, -0.25, 1}
	if err := emb.SetVector(in); err != nil {
		t.Fatalf("SetVector failed: %v", err)
	}
	out, err := emb.GetVector()
	if err != nil {
		t.Fatalf("GetVector failed: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("length mismatch: %d vs %d", len(out), len(in))
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("vector[%d] = %v, want %v", i, out[i], in[i])
		}
	}
}

func TestIdeaEmbeddingGetVectorCorrupt(t *testing.T) {
	emb := IdeaEmbedding{Vector: "not json"}
	if _, err := emb.GetVector(); err == nil {
		t.Error("expected error for corrupt vector")
	}
}

func TestSuggestionReferences(t *testing.T) {
	s := DuplicateSuggestion{SourceIdeaID: 1, DuplicateIdeaID: 2}
	if !s.References(1, 2) {
		t.Error("expected forward orientation to match")
	}
	if !s.References(2, 1) {
		t.Error("expected reverse orientation to match")
	}
	if s.References(1, 3) {
		t.Error("unexpected match for unrelated pair")
	}
}

func TestIsValidDedupeEventType(t *testing.T) {
	for _, v := range ValidDedupeEventTypes() {
		if !IsValidDedupeEventType(v) {
			t.Errorf("expected %s to be valid", v)
		}
	}
	if IsValidDedupeEventType("bogus") {
		t.Error("expected bogus type to be invalid")
	}
}

func TestGetOrCreateDedupeSettingsDefaults(t *testing.T) {
	db := openTestDB(t)
	ws := Workspace{Name: "Acme", Slug: "acme", OwnerID: "owner-1"}
	if err := db.Create(&ws).Error; err != nil {
		t.Fatalf("create failed: %v", err)
	}

	settings, err := GetOrCreateDedupeSettings(db, ws.ID)
	if err != nil {
		t.Fatalf("GetOrCreateDedupeSettings failed: %v", err)
	}
	if !settings.Enabled {
		t.Error("expected detection enabled by default")
	}
	if settings.SimilarityFloor != 55 {
		t.Errorf("default floor = %d, want 55", settings.SimilarityFloor)
	}
	if settings.TopK != 3 {
		t.Errorf("default top_k = %d, want 3", settings.TopK)
	}

	// Second call returns the same row, not a new one.
	again, err := GetOrCreateDedupeSettings(db, ws.ID)
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if again.ID != settings.ID {
		t.Error("expected the existing settings row")
	}
}

func TestUpdateDedupeSettings(t *testing.T) {
	db := openTestDB(t)
	settings, err := GetOrCreateDedupeSettings(db, 1)
	if err != nil {
		t.Fatalf("GetOrCreateDedupeSettings failed: %v", err)
	}

	settings.SimilarityFloor = 70
	settings.SlackEnabled = true
	settings.SlackChannel = "#feedback"
	if err := UpdateDedupeSettings(db, settings); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	reloaded, err := GetOrCreateDedupeSettings(db, 1)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.SimilarityFloor != 70 || !reloaded.SlackEnabled || reloaded.SlackChannel != "#feedback" {
		t.Errorf("settings not persisted: %+v", reloaded)
	}
}

func TestIdeaIsMerged(t *testing.T) {
	idea := Idea{Status: IdeaStatusPublished}
	if idea.IsMerged() {
		t.Error("published idea is not merged")
	}
	idea.Status = IdeaStatusMerged
	if !idea.IsMerged() {
		t.Error("merged idea should report merged")
	}
}
