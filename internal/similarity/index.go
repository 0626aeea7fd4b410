// Package similarity implements the read-side vector index used for
// duplicate detection. Embeddings live in the idea_embeddings table; queries
// are workspace-scoped in-memory cosine scans over a small tenant's vectors.
package similarity

import (
	"fmt"
	"math"
	"sort"

	"github.com/ideaboard/ideaboard/internal/database"
	"gorm.io/gorm"
)

// Match is one similarity candidate returned by the index.
type Match struct {
	IdeaID     uint `json:"idea_id"`
	Similarity int  `json:"similarity"` // 0-100
}

// Result is the outcome of a similarity query. Pending means the query idea
// has no embedding yet; callers must treat that as "not ready", not as an
// empty result.
type Result struct {
	Pending bool
	Matches []Match
}

// Index answers top-K nearest-idea queries. Pure read-side; it never
// mutates anything.
type Index struct {
	db *gorm.DB
}

// NewIndex creates a similarity index over the given connection
func NewIndex(db *gorm.DB) *Index {
	return &Index{db: db}
}

// FindSimilar returns the top-k most similar ideas to ideaID within the
// workspace, ordered by similarity descending. Ties are broken by lower
// candidate ID so results are deterministic. Excluded from candidates: the
// query idea itself, merged ideas, and ideas with no stored embedding.
func (ix *Index) FindSimilar(ideaID, workspaceID uint, k int) (*Result, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	var query database.IdeaEmbedding
	err := ix.db.Where("idea_id = ? AND workspace_id = ?", ideaID, workspaceID).First(&query).Error
	if err == gorm.ErrRecordNotFound {
		return &Result{Pending: true}, nil
	}
	if err != nil {
		return nil, err
	}

	queryVec, err := query.GetVector()
	if err != nil {
		return nil, fmt.Errorf("corrupt embedding for idea %d: %w", ideaID, err)
	}

	// Candidates: every embedded, unmerged idea in the workspace except the
	// query idea. The join drops embeddings whose idea row is gone.
	var candidates []database.IdeaEmbedding
	err = ix.db.
		Joins("JOIN ideas ON ideas.id = idea_embeddings.idea_id").
		Where("idea_embeddings.workspace_id = ?", workspaceID).
		Where("idea_embeddings.idea_id <> ?", ideaID).
		Where("ideas.status <> ?", database.IdeaStatusMerged).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		vec, err := c.GetVector()
		if err != nil {
			// Skip corrupt rows rather than failing the whole query.
			continue
		}
		matches = append(matches, Match{
			IdeaID:     c.IdeaID,
			Similarity: Score(queryVec, vec),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].IdeaID < matches[j].IdeaID
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return &Result{Matches: matches}, nil
}

// Score converts the cosine similarity of two vectors to an integer 0-100.
// Negative cosine values clamp to 0; mismatched or empty vectors score 0.
func Score(a, b []float32) int {
	cos := cosine(a, b)
	if cos <= 0 {
		return 0
	}
	score := int(math.Round(cos * 100))
	if score > 100 {
		score = 100
	}
	return score
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
