package semantic

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/legal-lens/backend/internal/search/lexical"
	"github.com/legal-lens/backend/internal/storage/models"
	"github.com/legal-lens/backend/internal/vector"
	"github.com/legal-lens/backend/pkg/logger"
	"github.com/legal-lens/backend/pkg/utils"
)

// EmbeddingProvider turns text into a vector. Calls may fail or time out;
// the scorer tolerates both.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Scorer ranks documents by cosine similarity between the query embedding
// and pre-computed document embeddings. Whenever embeddings are unavailable
// (no provider, empty index, provider failure, timeout) it degrades to the
// lexical ranking instead of surfacing an error; the result source tag
// reports which scorer actually ran.
type Scorer struct {
	provider EmbeddingProvider
	index    vector.Index
	fallback *lexical.Scorer
	timeout  time.Duration
}

func NewScorer(provider EmbeddingProvider, index vector.Index, fallback *lexical.Scorer, timeout time.Duration) *Scorer {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Scorer{
		provider: provider,
		index:    index,
		fallback: fallback,
		timeout:  timeout,
	}
}

// Rank returns the ranked results and the source tag of the scorer that
// produced them (semantic, or lexical after degradation).
func (s *Scorer) Rank(ctx context.Context, query string, docs []models.Document, relatedTitles func(docID string) string) ([]models.ScoredResult, string) {
	if s.provider == nil || s.index == nil {
		return s.degrade(query, docs, relatedTitles, "no embedding provider configured")
	}

	count, err := s.index.Count(ctx)
	if err != nil || count == 0 {
		return s.degrade(query, docs, relatedTitles, "no document embeddings indexed")
	}

	embedCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	embedding, err := s.provider.Embed(embedCtx, query)
	if err != nil {
		logger.Warn("Query embedding failed", zap.Error(err))
		return s.degrade(query, docs, relatedTitles, "embedding provider unavailable")
	}

	matches, err := s.index.Search(ctx, embedding, len(docs))
	if err != nil {
		logger.Warn("Vector search failed", zap.Error(err))
		return s.degrade(query, docs, relatedTitles, "vector index unavailable")
	}

	byID := make(map[string]models.Document, len(docs))
	for _, d := range docs {
		byID[d.DocID] = d
	}

	results := make([]models.ScoredResult, 0, len(matches))
	for _, m := range matches {
		doc, ok := byID[m.DocID]
		if !ok {
			continue
		}
		// cosine similarity surfaced as-is; negatives rank low naturally
		results = append(results, models.ScoredResult{
			DocID:    doc.DocID,
			Title:    doc.Title,
			Content:  snippet(doc.Content),
			Score:    m.Score,
			Source:   models.SourceSemantic,
			Year:     doc.Year,
			Court:    doc.Court,
			Statutes: doc.Statutes,
			Keywords: doc.Keywords,
		})
	}

	return results, models.SourceSemantic
}

func (s *Scorer) degrade(query string, docs []models.Document, relatedTitles func(docID string) string, reason string) ([]models.ScoredResult, string) {
	logger.Debug("Semantic scorer degraded to lexical ranking", zap.String("reason", reason))
	return s.fallback.Rank(query, docs, relatedTitles), models.SourceLexical
}

func snippet(content string) string {
	const maxLen = 500
	return utils.Truncate(content, maxLen)
}
