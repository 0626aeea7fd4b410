package services

import (
	"errors"
	"testing"

	"github.com/ideaboard/ideaboard/internal/database"
	"github.com/ideaboard/ideaboard/internal/logger"
	"github.com/ideaboard/ideaboard/internal/testhelpers"
)

func TestMergeMovesVotesAsSetUnion(t *testing.T) {
	db := testhelpers.OpenTestDB(t)
	ws := testhelpers.SeedWorkspace(t, db, "acme")
	parent := testhelpers.NewIdea(ws.ID, "Dark mode").Create(t, db)
	source := testhelpers.NewIdea(ws.ID, "Night theme").Create(t, db)

	// 5 voters on the parent, 3 on the source, one contributor in both camps.
	var parentVoters []*database.Contributor
	for i := 0; i < 5; i++ {
		c := testhelpers.SeedContributor(t, db, ws.ID, "p@example.com")
		testhelpers.SeedVote(t, db, parent.ID, c.ID)
		parentVoters = append(parentVoters, c)
	}
	for i := 0; i < 2; i++ {
		c := testhelpers.SeedContributor(t, db, ws.ID, "s@example.com")
		testhelpers.SeedVote(t, db, source.ID, c.ID)
	}
	shared := parentVoters[0]
	testhelpers.SeedVote(t, db, source.ID, shared.ID)

	db.Model(&database.Idea{}).Where("id = ?", parent.ID).Update("vote_count", 5)
	db.Model(&database.Idea{}).Where("id = ?", source.ID).Update("vote_count", 3)

	svc := NewMergeService(db, logger.NewNop())
	result, err := svc.Merge(source.ID, parent.ID, ws.ID, "owner-acme")
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	// 5 + 3 voters with 1 overlap is 7 unique voters.
	if result.ParentVoteCount != 7 {
		t.Errorf("expected parent vote count 7, got %d", result.ParentVoteCount)
	}
	if result.VotesMoved != 2 {
		t.Errorf("expected 2 votes moved, got %d", result.VotesMoved)
	}

	var storedParent database.Idea
	if err := db.First(&storedParent, parent.ID).Error; err != nil {
		t.Fatalf("failed to reload parent: %v", err)
	}
	if storedParent.VoteCount != 7 {
		t.Errorf("stored parent vote count = %d, want 7", storedParent.VoteCount)
	}

	rows := testhelpers.CountRows(t, db, &database.Vote{}, "idea_id = ?", parent.ID)
	if rows != 7 {
		t.Errorf("expected 7 vote rows on parent, got %d", rows)
	}
	if n := testhelpers.CountRows(t, db, &database.Vote{}, "idea_id = ?", source.ID); n != 0 {
		t.Errorf("expected 0 vote rows on source, got %d", n)
	}
}

// Ideas lock in ascending id order regardless of which side is the source,
// so the merge direction must survive the reordering.
func TestMergeSourceWithLowerIDThanParent(t *testing.T) {
	db := testhelpers.OpenTestDB(t)
	ws := testhelpers.SeedWorkspace(t, db, "acme")
	source := testhelpers.NewIdea(ws.ID, "Night theme").Create(t, db)
	parent := testhelpers.NewIdea(ws.ID, "Dark mode").Create(t, db)
	c := testhelpers.SeedContributor(t, db, ws.ID, "ada@example.com")
	testhelpers.SeedVote(t, db, source.ID, c.ID)
	db.Model(&database.Idea{}).Where("id = ?", source.ID).Update("vote_count", 1)

	svc := NewMergeService(db, logger.NewNop())
	result, err := svc.Merge(source.ID, parent.ID, ws.ID, "owner-acme")
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if result.SourceIdeaID != source.ID || result.ParentIdeaID != parent.ID {
		t.Errorf("merge direction flipped: got source=%d parent=%d", result.SourceIdeaID, result.ParentIdeaID)
	}
	if result.VotesMoved != 1 || result.ParentVoteCount != 1 {
		t.Errorf("expected 1 vote moved onto the parent, got moved=%d count=%d",
			result.VotesMoved, result.ParentVoteCount)
	}

	var storedSource database.Idea
	if err := db.First(&storedSource, source.ID).Error; err != nil {
		t.Fatalf("failed to reload source: %v", err)
	}
	if storedSource.Status != database.IdeaStatusMerged {
		t.Errorf("source status = %q, want merged", storedSource.Status)
	}
	if storedSource.MergedIntoID == nil || *storedSource.MergedIntoID != parent.ID {
		t.Error("source merged_into_id does not reference the parent")
	}
}

func TestMergeMarksSourceAndDeletesEmbedding(t *testing.T) {
	db := testhelpers.OpenTestDB(t)
	ws := testhelpers.SeedWorkspace(t, db, "acme")
	parent := testhelpers.NewIdea(ws.ID, "Dark mode").Create(t, db)
	source := testhelpers.NewIdea(ws.ID, "Night theme").WithVoteCount(2).Create(t, db)
	testhelpers.SeedEmbedding(t, db, ws.ID, source.ID, []float32{1, 0})

	svc := NewMergeService(db, logger.NewNop())
	if _, err := svc.Merge(source.ID, parent.ID, ws.ID, "owner-acme"); err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	var stored database.Idea
	if err := db.First(&stored, source.ID).Error; err != nil {
		t.Fatalf("failed to reload source: %v", err)
	}
	if stored.Status != database.IdeaStatusMerged {
		t.Errorf("expected source status merged, got %s", stored.Status)
	}
	if stored.MergedIntoID == nil || *stored.MergedIntoID != parent.ID {
		t.Errorf("expected merged_into_id %d, got %v", parent.ID, stored.MergedIntoID)
	}
	if stored.VoteCount != 0 {
		t.Errorf("expected source vote count 0, got %d", stored.VoteCount)
	}

	if n := testhelpers.CountRows(t, db, &database.IdeaEmbedding{}, "idea_id = ?", source.ID); n != 0 {
		t.Error("expected source embedding to be deleted")
	}
}

func TestMergeWritesAuditRow(t *testing.T) {
	db := testhelpers.OpenTestDB(t)
	ws := testhelpers.SeedWorkspace(t, db, "acme")
	parent := testhelpers.NewIdea(ws.ID, "Dark mode").Create(t, db)
	source := testhelpers.NewIdea(ws.ID, "Night theme").Create(t, db)
	voter := testhelpers.SeedContributor(t, db, ws.ID, "ada@example.com")
	testhelpers.SeedVote(t, db, source.ID, voter.ID)

	svc := NewMergeService(db, logger.NewNop())
	if _, err := svc.Merge(source.ID, parent.ID, ws.ID, "owner-acme"); err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	var merge database.IdeaMerge
	if err := db.Where("source_idea_id = ?", source.ID).First(&merge).Error; err != nil {
		t.Fatalf("expected audit row: %v", err)
	}
	if merge.TargetIdeaID != parent.ID {
		t.Errorf("audit target = %d, want %d", merge.TargetIdeaID, parent.ID)
	}
	if merge.VotesMoved != 1 {
		t.Errorf("audit votes_moved = %d, want 1", merge.VotesMoved)
	}
	if merge.MergedBy != "owner-acme" {
		t.Errorf("audit merged_by = %q", merge.MergedBy)
	}
}

func TestMergeSelfRejected(t *testing.T) {
	db := testhelpers.OpenTestDB(t)
	ws := testhelpers.SeedWorkspace(t, db, "acme")
	idea := testhelpers.NewIdea(ws.ID, "Dark mode").Create(t, db)

	svc := NewMergeService(db, logger.NewNop())
	_, err := svc.Merge(idea.ID, idea.ID, ws.ID, "owner-acme")
	if !IsPrecondition(err) {
		t.Fatalf("expected precondition error, got %v", err)
	}
}

func TestMergeAlreadyMergedSourceRejected(t *testing.T) {
	db := testhelpers.OpenTestDB(t)
	ws := testhelpers.SeedWorkspace(t, db, "acme")
	parent := testhelpers.NewIdea(ws.ID, "Dark mode").Create(t, db)
	other := testhelpers.NewIdea(ws.ID, "Light mode").Create(t, db)
	source := testhelpers.NewIdea(ws.ID, "Night theme").MergedInto(other.ID).Create(t, db)

	svc := NewMergeService(db, logger.NewNop())
	_, err := svc.Merge(source.ID, parent.ID, ws.ID, "owner-acme")
	if !IsPrecondition(err) {
		t.Fatalf("expected precondition error, got %v", err)
	}
	if err.Error() != msgSourceMerged {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestMergeSourceWithChildrenRejected(t *testing.T) {
	db := testhelpers.OpenTestDB(t)
	ws := testhelpers.SeedWorkspace(t, db, "acme")
	parent := testhelpers.NewIdea(ws.ID, "Dark mode").Create(t, db)
	source := testhelpers.NewIdea(ws.ID, "Night theme").Create(t, db)
	testhelpers.NewIdea(ws.ID, "Black theme").MergedInto(source.ID).Create(t, db)

	svc := NewMergeService(db, logger.NewNop())
	_, err := svc.Merge(source.ID, parent.ID, ws.ID, "owner-acme")
	if !IsPrecondition(err) {
		t.Fatalf("expected precondition error, got %v", err)
	}
	if err.Error() != msgSourceIsTarget {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestMergeIntoUnpublishedParentRejected(t *testing.T) {
	db := testhelpers.OpenTestDB(t)
	ws := testhelpers.SeedWorkspace(t, db, "acme")
	source := testhelpers.NewIdea(ws.ID, "Night theme").Create(t, db)

	for _, status := range []database.IdeaStatus{database.IdeaStatusUnderReview, database.IdeaStatusDeclined} {
		parent := testhelpers.NewIdea(ws.ID, "Dark mode").WithStatus(status).Create(t, db)
		svc := NewMergeService(db, logger.NewNop())
		_, err := svc.Merge(source.ID, parent.ID, ws.ID, "owner-acme")
		if !IsPrecondition(err) {
			t.Fatalf("status %s: expected precondition error, got %v", status, err)
		}
		if err.Error() != msgParentNotLive {
			t.Errorf("status %s: unexpected message %q", status, err.Error())
		}
	}
}

func TestMergeAcrossWorkspacesNotFound(t *testing.T) {
	db := testhelpers.OpenTestDB(t)
	ws := testhelpers.SeedWorkspace(t, db, "acme")
	other := testhelpers.SeedWorkspace(t, db, "globex")
	parent := testhelpers.NewIdea(ws.ID, "Dark mode").Create(t, db)
	foreign := testhelpers.NewIdea(other.ID, "Night theme").Create(t, db)

	svc := NewMergeService(db, logger.NewNop())
	_, err := svc.Merge(foreign.ID, parent.ID, ws.ID, "owner-acme")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMergeFailureLeavesNoPartialState(t *testing.T) {
	db := testhelpers.OpenTestDB(t)
	ws := testhelpers.SeedWorkspace(t, db, "acme")
	parent := testhelpers.NewIdea(ws.ID, "Dark mode").WithStatus(database.IdeaStatusUnderReview).Create(t, db)
	source := testhelpers.NewIdea(ws.ID, "Night theme").WithVoteCount(1).Create(t, db)
	voter := testhelpers.SeedContributor(t, db, ws.ID, "ada@example.com")
	testhelpers.SeedVote(t, db, source.ID, voter.ID)

	svc := NewMergeService(db, logger.NewNop())
	if _, err := svc.Merge(source.ID, parent.ID, ws.ID, "owner-acme"); err == nil {
		t.Fatal("expected merge to fail")
	}

	var stored database.Idea
	if err := db.First(&stored, source.ID).Error; err != nil {
		t.Fatalf("failed to reload source: %v", err)
	}
	if stored.Status == database.IdeaStatusMerged {
		t.Error("source must not be marked merged after a failed merge")
	}
	if n := testhelpers.CountRows(t, db, &database.Vote{}, "idea_id = ?", source.ID); n != 1 {
		t.Errorf("expected source votes untouched, got %d rows", n)
	}
	if n := testhelpers.CountRows(t, db, &database.IdeaMerge{}, ""); n != 0 {
		t.Errorf("expected no audit rows, got %d", n)
	}
}
