package retrieval

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/legal-lens/backend/internal/cache/redis"
	"github.com/legal-lens/backend/internal/corpus"
	"github.com/legal-lens/backend/internal/kg/builder"
	"github.com/legal-lens/backend/internal/llm"
	"github.com/legal-lens/backend/internal/metrics"
	"github.com/legal-lens/backend/internal/storage/models"
	"github.com/legal-lens/backend/internal/vector"
	"github.com/legal-lens/backend/pkg/logger"
)

// Reindexer reloads the corpus from disk and rebuilds the derived state:
// the knowledge graph, the vector index, and the search cache. Only one
// reindex runs at a time; searches continue against the previous snapshot
// until the swap.
type Reindexer struct {
	engine        *Engine
	corpus        *corpus.Store
	index         vector.Index
	llm           *llm.Client
	cache         *redis.Client
	documentsPath string
	graphBackend  string

	mu sync.Mutex
}

type ReindexResult struct {
	Documents    int    `json:"documents"`
	GraphNodes   int    `json:"graph_nodes"`
	GraphEdges   int    `json:"graph_edges"`
	VectorsBuilt int    `json:"vectors_built"`
	DurationMS   int    `json:"duration_ms"`
	GraphBackend string `json:"graph_backend"`
}

func NewReindexer(engine *Engine, store *corpus.Store, index vector.Index, llmClient *llm.Client, cache *redis.Client, documentsPath, graphBackend string) *Reindexer {
	return &Reindexer{
		engine:        engine,
		corpus:        store,
		index:         index,
		llm:           llmClient,
		cache:         cache,
		documentsPath: documentsPath,
		graphBackend:  graphBackend,
	}
}

// Reindex reloads documents from disk, swaps the corpus snapshot, rebuilds
// the in-memory graph, and re-embeds the corpus into the vector index.
func (r *Reindexer) Reindex(ctx context.Context) (*ReindexResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()

	docs, err := corpus.LoadDocuments(r.documentsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}

	if err := r.corpus.Replace(docs); err != nil {
		return nil, fmt.Errorf("failed to replace corpus: %w", err)
	}
	metrics.CorpusDocuments.Set(float64(len(docs)))

	result := &ReindexResult{
		Documents:    len(docs),
		GraphBackend: r.graphBackend,
	}

	// An external graph database owns its own data; only the in-memory
	// backend is derived from the corpus.
	if r.graphBackend == "memory" {
		graph := builder.Build(r.engine.Registry().All(), docs)
		r.engine.SetGraph(graph)

		stats, err := graph.Stats(ctx)
		if err == nil {
			result.GraphNodes = stats.Nodes
			result.GraphEdges = stats.Edges
			metrics.KGNodesTotal.Set(float64(stats.Nodes))
			metrics.KGEdgesTotal.Set(float64(stats.Edges))
		}
	}

	if r.llm != nil && r.index != nil {
		built, err := r.rebuildVectors(ctx, docs)
		if err != nil {
			// Semantic retrieval degrades to lexical until the next
			// successful reindex; the lexical path stays correct.
			logger.Warn("Vector rebuild failed", zap.Error(err))
		} else {
			result.VectorsBuilt = built
		}
	}

	if r.cache != nil {
		if err := r.cache.InvalidateSearchCache(ctx); err != nil {
			logger.Warn("Failed to invalidate search cache", zap.Error(err))
		}
	}

	result.DurationMS = int(time.Since(start).Milliseconds())

	logger.Info("Reindex completed",
		zap.Int("documents", result.Documents),
		zap.Int("graph_nodes", result.GraphNodes),
		zap.Int("vectors_built", result.VectorsBuilt),
		zap.Int("duration_ms", result.DurationMS),
	)

	return result, nil
}

func (r *Reindexer) rebuildVectors(ctx context.Context, docs []models.Document) (int, error) {
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Title + "\n" + doc.Content
	}

	embeddings, err := r.llm.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, err
	}

	vectors := make([]vector.DocVector, len(docs))
	for i, doc := range docs {
		vectors[i] = vector.DocVector{DocID: doc.DocID, Embedding: embeddings[i]}
	}

	if err := r.index.Replace(ctx, vectors); err != nil {
		return 0, err
	}

	return len(vectors), nil
}

// ReplaceMappings installs a new statute mapping set. The registry is
// replaced wholesale; the graph is rebuilt (memory) or updated in place
// (external backend), and cached responses are dropped.
func (r *Reindexer) ReplaceMappings(ctx context.Context, mappings []models.StatuteMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.engine.Registry().Replace(mappings)

	if r.graphBackend == "memory" {
		graph := builder.Build(r.engine.Registry().All(), r.corpus.All())
		r.engine.SetGraph(graph)

		stats, err := graph.Stats(ctx)
		if err == nil {
			metrics.KGNodesTotal.Set(float64(stats.Nodes))
			metrics.KGEdgesTotal.Set(float64(stats.Edges))
		}
	} else {
		backend := r.engine.backend()
		for _, m := range mappings {
			if err := backend.AddMapping(ctx, m); err != nil {
				return fmt.Errorf("failed to apply mapping %s %s: %w", m.OldCode, m.OldSection, err)
			}
		}
	}

	if r.cache != nil {
		if err := r.cache.InvalidateSearchCache(ctx); err != nil {
			logger.Warn("Failed to invalidate search cache", zap.Error(err))
		}
	}

	logger.Info("Statute mappings replaced", zap.Int("count", len(mappings)))
	return nil
}
