package lexical

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legal-lens/backend/internal/storage/models"
)

func testDocs() []models.Document {
	return []models.Document{
		{
			DocID:    "negligence_case",
			Title:    "Medical Negligence Standards",
			Content:  "The court examined negligence by medical professionals. Negligence must be gross.",
			Keywords: []string{"medical negligence", "gross negligence"},
			Statutes: []string{"IPC 304A"},
		},
		{
			DocID:    "privacy_case",
			Title:    "Right to Privacy",
			Content:  "Privacy is a fundamental right under the Constitution.",
			Keywords: []string{"right to privacy", "fundamental rights"},
			Statutes: []string{},
		},
	}
}

func TestTokenize(t *testing.T) {
	s := NewScorer(DefaultWeights())

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "lowercases and keeps long tokens",
			query: "Medical Negligence",
			want:  []string{"medical", "negligence"},
		},
		{
			name:  "drops short tokens",
			query: "is it a tort",
			want:  []string{"tort"},
		},
		{
			name:  "all tokens too short",
			query: "is it so",
			want:  nil,
		},
		{
			name:  "empty query",
			query: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Tokenize(tt.query))
		})
	}
}

func TestScoreFieldWeights(t *testing.T) {
	w := DefaultWeights()
	s := NewScorer(w)
	doc := models.Document{
		DocID:    "d1",
		Title:    "Murder Appeal",
		Content:  "unrelated text",
		Keywords: []string{"culpable homicide"},
		Statutes: []string{"IPC 302"},
	}

	// title hit only
	assert.InDelta(t, w.Title, s.Score([]string{"murder"}, doc, ""), 1e-9)

	// keyword hit awarded once even with multiple matching keywords
	multi := doc
	multi.Keywords = []string{"homicide rules", "homicide defences"}
	assert.InDelta(t, w.Keyword, s.Score([]string{"homicide"}, multi, ""), 1e-9)

	// statute field hit
	assert.InDelta(t, w.Statute, s.Score([]string{"302"}, doc, ""), 1e-9)

	// related judgment titles hit
	assert.InDelta(t, w.Related, s.Score([]string{"bachan"}, doc, "Bachan Singh v. State of Punjab"), 1e-9)
}

func TestScoreBodyFrequencyCapped(t *testing.T) {
	w := DefaultWeights()
	s := NewScorer(w)

	doc := models.Document{DocID: "d1", Title: "x", Content: strings.Repeat("negligence ", 3)}
	assert.InDelta(t, 3*w.BodyPerHit, s.Score([]string{"negligence"}, doc, ""), 1e-9)

	// 50 occurrences saturate at the cap
	doc.Content = strings.Repeat("negligence ", 50)
	assert.InDelta(t, w.BodyCap, s.Score([]string{"negligence"}, doc, ""), 1e-9)
}

func TestScoreClampedToOne(t *testing.T) {
	s := NewScorer(DefaultWeights())
	doc := models.Document{
		DocID:    "d1",
		Title:    "negligence privacy murder",
		Content:  strings.Repeat("negligence privacy murder ", 20),
		Keywords: []string{"negligence", "privacy", "murder"},
		Statutes: []string{"negligence privacy murder"},
	}

	score := s.Score([]string{"negligence", "privacy", "murder"}, doc, "negligence privacy murder")
	assert.Equal(t, 1.0, score)
}

func TestScoreNoTokens(t *testing.T) {
	s := NewScorer(DefaultWeights())
	assert.Zero(t, s.Score(nil, testDocs()[0], ""))
}

func TestRankExcludesZeroScores(t *testing.T) {
	s := NewScorer(DefaultWeights())

	results := s.Rank("medical negligence", testDocs(), nil)
	require.Len(t, results, 1)
	assert.Equal(t, "negligence_case", results[0].DocID)
	assert.Equal(t, models.SourceLexical, results[0].Source)
}

func TestRankNoTokensReturnsNothing(t *testing.T) {
	s := NewScorer(DefaultWeights())
	assert.Empty(t, s.Rank("a an it", testDocs(), nil))
}

func TestRankStableOrderOnTies(t *testing.T) {
	s := NewScorer(DefaultWeights())
	docs := []models.Document{
		{DocID: "first", Title: "Equal Title Match"},
		{DocID: "second", Title: "Equal Title Match"},
		{DocID: "third", Title: "Equal Title Match"},
	}

	for i := 0; i < 10; i++ {
		results := s.Rank("equal title", docs, nil)
		require.Len(t, results, 3)
		assert.Equal(t, "first", results[0].DocID)
		assert.Equal(t, "second", results[1].DocID)
		assert.Equal(t, "third", results[2].DocID)
	}
}

func TestRankOrdersByScore(t *testing.T) {
	s := NewScorer(DefaultWeights())

	results := s.Rank("negligence", testDocs(), nil)
	require.NotEmpty(t, results)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestRankSnippetsLongContent(t *testing.T) {
	s := NewScorer(DefaultWeights())
	docs := []models.Document{
		{DocID: "long", Title: "Negligence", Content: strings.Repeat("negligence ", 200)},
	}

	results := s.Rank("negligence", docs, nil)
	require.Len(t, results, 1)
	assert.LessOrEqual(t, len(results[0].Content), 500)
}

func TestRankSnippetKeepsRunesIntact(t *testing.T) {
	s := NewScorer(DefaultWeights())

	// Hindi text sized so the 500-byte cut lands inside a rune.
	docs := []models.Document{
		{DocID: "hindi", Title: "Negligence", Content: "negligence " + strings.Repeat("लापरवाही ", 100)},
	}

	results := s.Rank("negligence", docs, nil)
	require.Len(t, results, 1)
	assert.LessOrEqual(t, len(results[0].Content), 500)
	assert.True(t, utf8.ValidString(results[0].Content))
}
