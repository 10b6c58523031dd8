package semantic

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legal-lens/backend/internal/search/lexical"
	"github.com/legal-lens/backend/internal/storage/models"
	"github.com/legal-lens/backend/internal/vector"
	"github.com/legal-lens/backend/internal/vector/memory"
)

type stubProvider struct {
	embedding []float32
	err       error
}

func (p *stubProvider) Embed(_ context.Context, _ string) ([]float32, error) {
	return p.embedding, p.err
}

func testDocs() []models.Document {
	return []models.Document{
		{DocID: "negligence_case", Title: "Medical Negligence Standards", Content: "negligence by doctors"},
		{DocID: "privacy_case", Title: "Right to Privacy", Content: "privacy is fundamental"},
	}
}

func newFallback() *lexical.Scorer {
	return lexical.NewScorer(lexical.DefaultWeights())
}

func populatedIndex(t *testing.T) vector.Index {
	t.Helper()
	idx := memory.NewIndex()
	require.NoError(t, idx.Replace(context.Background(), []vector.DocVector{
		{DocID: "negligence_case", Embedding: []float32{1, 0}},
		{DocID: "privacy_case", Embedding: []float32{0, 1}},
	}))
	return idx
}

func TestRankSemantic(t *testing.T) {
	provider := &stubProvider{embedding: []float32{0.9, 0.1}}
	s := NewScorer(provider, populatedIndex(t), newFallback(), time.Second)

	results, source := s.Rank(context.Background(), "medical negligence", testDocs(), nil)

	assert.Equal(t, models.SourceSemantic, source)
	require.Len(t, results, 2)
	assert.Equal(t, "negligence_case", results[0].DocID)
	assert.Equal(t, models.SourceSemantic, results[0].Source)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestRankNoProviderDegradesToLexical(t *testing.T) {
	s := NewScorer(nil, populatedIndex(t), newFallback(), time.Second)

	results, source := s.Rank(context.Background(), "medical negligence", testDocs(), nil)

	assert.Equal(t, models.SourceLexical, source)
	require.NotEmpty(t, results)
	assert.Equal(t, models.SourceLexical, results[0].Source)
	assert.Equal(t, "negligence_case", results[0].DocID)
}

func TestRankEmptyIndexDegradesToLexical(t *testing.T) {
	provider := &stubProvider{embedding: []float32{1, 0}}
	s := NewScorer(provider, memory.NewIndex(), newFallback(), time.Second)

	_, source := s.Rank(context.Background(), "medical negligence", testDocs(), nil)
	assert.Equal(t, models.SourceLexical, source)
}

func TestRankProviderFailureDegradesToLexical(t *testing.T) {
	provider := &stubProvider{err: errors.New("rate limited")}
	s := NewScorer(provider, populatedIndex(t), newFallback(), time.Second)

	results, source := s.Rank(context.Background(), "medical negligence", testDocs(), nil)

	// degradation is observable via the source tag, never an error
	assert.Equal(t, models.SourceLexical, source)
	require.NotEmpty(t, results)
}

func TestRankNegativeSimilaritySurfaced(t *testing.T) {
	provider := &stubProvider{embedding: []float32{-1, 0}}
	s := NewScorer(provider, populatedIndex(t), newFallback(), time.Second)

	results, source := s.Rank(context.Background(), "anything", testDocs(), nil)

	assert.Equal(t, models.SourceSemantic, source)
	require.Len(t, results, 2)
	assert.Negative(t, results[1].Score)
}

func TestRankSkipsMatchesWithoutDocument(t *testing.T) {
	idx := memory.NewIndex()
	require.NoError(t, idx.Replace(context.Background(), []vector.DocVector{
		{DocID: "negligence_case", Embedding: []float32{1, 0}},
		{DocID: "stale_doc", Embedding: []float32{0, 1}},
	}))

	provider := &stubProvider{embedding: []float32{1, 0}}
	s := NewScorer(provider, idx, newFallback(), time.Second)

	results, source := s.Rank(context.Background(), "anything", testDocs(), nil)

	assert.Equal(t, models.SourceSemantic, source)
	require.Len(t, results, 1)
	assert.Equal(t, "negligence_case", results[0].DocID)
}
