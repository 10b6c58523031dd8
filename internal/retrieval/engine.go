package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/legal-lens/backend/internal/cache/redis"
	"github.com/legal-lens/backend/internal/corpus"
	"github.com/legal-lens/backend/internal/kg"
	"github.com/legal-lens/backend/internal/llm"
	"github.com/legal-lens/backend/internal/metrics"
	"github.com/legal-lens/backend/internal/search/fusion"
	"github.com/legal-lens/backend/internal/search/lexical"
	"github.com/legal-lens/backend/internal/search/semantic"
	"github.com/legal-lens/backend/internal/statute"
	"github.com/legal-lens/backend/internal/storage/models"
	"github.com/legal-lens/backend/internal/storage/sqlite"
	"github.com/legal-lens/backend/pkg/logger"
	"github.com/legal-lens/backend/pkg/utils"
)

// ErrInvalidQuery is returned for queries with no searchable terms: empty,
// whitespace-only, or nothing surviving tokenization.
var ErrInvalidQuery = errors.New("query contains no searchable terms")

const (
	searchCacheTTL    = 5 * time.Minute
	graphCiteScore    = 1.0
	graphConceptScore = 0.8
)

// SearchRequest carries one retrieval query through the engine.
type SearchRequest struct {
	Query         string `json:"query"`
	TopK          int    `json:"top_k"`
	UserID        string `json:"user_id"`
	IncludeAnswer bool   `json:"include_answer"`
}

// SearchResponse is the full result of one search. StatuteMapping is nil
// when the query carries no statute reference or the reference is unknown.
type SearchResponse struct {
	SearchID        string                 `json:"search_id"`
	Query           string                 `json:"query"`
	StatuteMapping  *models.StatuteMapping `json:"statute_mapping,omitempty"`
	RelatedStatutes []string               `json:"related_statutes,omitempty"`
	KGConcepts      []string               `json:"kg_concepts,omitempty"`
	Results         []models.ScoredResult  `json:"results"`
	TotalResults    int                    `json:"total_results"`
	RetrievalSource string                 `json:"retrieval_source"`
	Answer          string                 `json:"answer,omitempty"`
	LatencyMS       int                    `json:"latency_ms"`
	Cached          bool                   `json:"cached"`
}

// Engine orchestrates the full retrieval pipeline: statute resolution,
// knowledge graph lookups, lexical and semantic scoring, and fusion.
// Cache, history store, and LLM client may each be nil to disable the
// corresponding feature.
type Engine struct {
	corpus   *corpus.Store
	registry *statute.Registry
	lexical  *lexical.Scorer
	semantic *semantic.Scorer
	fusion   *fusion.Ranker
	llm      *llm.Client
	cache    *redis.Client
	db       *sqlite.Client

	mu      sync.RWMutex
	graph   kg.Backend
	maxHops int

	defaultTopK  int
	contextChars int
}

type Options struct {
	Corpus       *corpus.Store
	Registry     *statute.Registry
	Graph        kg.Backend
	Lexical      *lexical.Scorer
	Semantic     *semantic.Scorer
	Fusion       *fusion.Ranker
	LLM          *llm.Client
	Cache        *redis.Client
	DB           *sqlite.Client
	MaxHops      int
	DefaultTopK  int
	ContextChars int
}

func NewEngine(opts Options) *Engine {
	maxHops := opts.MaxHops
	if maxHops <= 0 {
		maxHops = 2
	}
	defaultTopK := opts.DefaultTopK
	if defaultTopK <= 0 {
		defaultTopK = 5
	}
	contextChars := opts.ContextChars
	if contextChars <= 0 {
		contextChars = 8000
	}

	return &Engine{
		corpus:       opts.Corpus,
		registry:     opts.Registry,
		graph:        opts.Graph,
		lexical:      opts.Lexical,
		semantic:     opts.Semantic,
		fusion:       opts.Fusion,
		llm:          opts.LLM,
		cache:        opts.Cache,
		db:           opts.DB,
		maxHops:      maxHops,
		defaultTopK:  defaultTopK,
		contextChars: contextChars,
	}
}

func (e *Engine) backend() kg.Backend {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.graph
}

// SetGraph swaps the active graph backend. Used by reindex and mapping
// replacement; searches in flight keep the backend they started with.
func (e *Engine) SetGraph(g kg.Backend) {
	e.mu.Lock()
	e.graph = g
	e.mu.Unlock()
}

// Registry exposes the statute registry for the admin surface.
func (e *Engine) Registry() *statute.Registry {
	return e.registry
}

// ResolveStatute looks up the successor mapping for a statute section.
func (e *Engine) ResolveStatute(ctx context.Context, code, section string) (models.StatuteMapping, bool, error) {
	return e.backend().GetMapping(ctx, code, section)
}

// GraphNode looks up a single node in the active graph backend.
func (e *Engine) GraphNode(ctx context.Context, nodeID string) (kg.Node, bool, error) {
	return e.backend().Node(ctx, nodeID)
}

// GraphNeighborhood returns the nodes reachable from a graph node, keyed
// by minimum hop distance.
func (e *Engine) GraphNeighborhood(ctx context.Context, nodeID string, maxHops int) (map[int][]kg.Node, error) {
	if maxHops <= 0 || maxHops > e.maxHops {
		maxHops = e.maxHops
	}
	return e.backend().MultiHop(ctx, nodeID, maxHops)
}

// GraphStats reports the size of the active graph backend.
func (e *Engine) GraphStats(ctx context.Context) (kg.Stats, error) {
	return e.backend().Stats(ctx)
}

// Search runs the full pipeline for one query.
func (e *Engine) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	start := time.Now()

	query := strings.TrimSpace(req.Query)
	if query == "" || len(e.lexical.Tokenize(query)) == 0 {
		metrics.SearchTotal.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidQuery
	}

	topK := req.TopK
	if topK <= 0 {
		topK = e.defaultTopK
	}

	cacheKey := utils.HashString(fmt.Sprintf("%s|%d|%t", query, topK, req.IncludeAnswer))
	if e.cache != nil {
		var cached SearchResponse
		hit, err := e.cache.GetSearch(ctx, cacheKey, &cached)
		if err != nil {
			logger.Warn("Search cache lookup failed", zap.Error(err))
		}
		if hit {
			metrics.CacheHits.WithLabelValues("search").Inc()
			metrics.SearchTotal.WithLabelValues("cached").Inc()
			cached.Cached = true
			cached.LatencyMS = int(time.Since(start).Milliseconds())
			metrics.SearchDuration.WithLabelValues("search").Observe(time.Since(start).Seconds())
			return &cached, nil
		}
		metrics.CacheMisses.WithLabelValues("search").Inc()
	}

	graph := e.backend()
	docs := e.corpus.All()

	resp := &SearchResponse{
		SearchID: uuid.New().String(),
		Query:    query,
	}

	// Statute resolution and graph neighborhood run before the scorers so
	// graph-derived results can join the fusion round.
	var graphResults []models.ScoredResult
	ref, hasRef := statute.ExtractReference(query)
	if hasRef {
		mapping, found, err := graph.GetMapping(ctx, ref.Code, ref.Section)
		if err != nil {
			logger.Warn("Statute mapping lookup failed",
				zap.String("code", ref.Code),
				zap.String("section", ref.Section),
				zap.Error(err),
			)
		}
		if found {
			resp.StatuteMapping = &mapping
			metrics.StatuteResolutions.WithLabelValues("resolved").Inc()
		} else {
			metrics.StatuteResolutions.WithLabelValues("unresolved").Inc()
		}

		statuteID := kg.StatuteID(ref.Code, ref.Section)
		resp.RelatedStatutes = e.relatedStatutes(ctx, graph, statuteID)
		graphResults = e.statuteGraphResults(ctx, graph, statuteID)
	} else {
		metrics.StatuteResolutions.WithLabelValues("none").Inc()
	}

	concepts, conceptResults := e.conceptMatches(ctx, graph, query, graphResults)
	resp.KGConcepts = concepts
	graphResults = append(graphResults, conceptResults...)

	// Lexical and semantic scoring are independent; run them concurrently
	// and join before fusion.
	relatedTitles := e.relatedTitlesFn(ctx, graph)

	var (
		wg              sync.WaitGroup
		lexicalResults  []models.ScoredResult
		semanticResults []models.ScoredResult
		semanticSource  string
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		lexicalResults = e.lexical.Rank(query, docs, relatedTitles)
	}()
	go func() {
		defer wg.Done()
		semanticResults, semanticSource = e.semantic.Rank(ctx, query, docs, relatedTitles)
	}()
	wg.Wait()

	if semanticSource != models.SourceSemantic {
		metrics.SemanticFallbacks.Inc()
	}
	resp.RetrievalSource = semanticSource

	resp.Results = e.fusion.Fuse(lexicalResults, semanticResults, graphResults, topK)
	resp.TotalResults = len(resp.Results)

	metrics.FusedResultsCount.Observe(float64(resp.TotalResults))
	for _, r := range resp.Results {
		metrics.ResultsBySource.WithLabelValues(r.Source).Inc()
	}

	if req.IncludeAnswer && e.llm != nil {
		retrievalContext := BuildContext(resp.Results, e.contextChars)
		answer, err := e.llm.GenerateAnswer(ctx, query, retrievalContext)
		if err != nil {
			// Answer synthesis is best effort; retrieval results stand alone.
			logger.Warn("Answer generation failed", zap.Error(err))
		} else {
			resp.Answer = answer
		}
	}

	resp.LatencyMS = int(time.Since(start).Milliseconds())
	metrics.SearchTotal.WithLabelValues("ok").Inc()
	metrics.SearchDuration.WithLabelValues("search").Observe(time.Since(start).Seconds())

	e.recordSearch(req.UserID, resp, semanticSource)

	if e.cache != nil {
		if err := e.cache.SetSearch(ctx, cacheKey, resp, searchCacheTTL); err != nil {
			logger.Warn("Failed to cache search response", zap.Error(err))
		}
	}

	logger.Info("Search completed",
		zap.String("search_id", resp.SearchID),
		zap.String("query", query),
		zap.Int("results", resp.TotalResults),
		zap.String("retrieval_source", semanticSource),
		zap.Int("latency_ms", resp.LatencyMS),
	)

	return resp, nil
}

// relatedStatutes walks the graph neighborhood of a statute node and
// collects every other statute reachable within the hop bound.
func (e *Engine) relatedStatutes(ctx context.Context, graph kg.Backend, statuteID string) []string {
	hops, err := graph.MultiHop(ctx, statuteID, e.maxHops)
	if err != nil {
		logger.Warn("Multi-hop traversal failed", zap.String("statute_id", statuteID), zap.Error(err))
		return nil
	}

	var related []string
	for hop := 1; hop <= e.maxHops; hop++ {
		for _, node := range hops[hop] {
			if node.Type == kg.NodeStatute {
				related = append(related, fmt.Sprintf("%s %s", node.Code, node.Section))
			}
		}
	}
	return related
}

// statuteGraphResults surfaces judgments citing the statute as graph
// retrieval results.
func (e *Engine) statuteGraphResults(ctx context.Context, graph kg.Backend, statuteID string) []models.ScoredResult {
	judgments, err := graph.JudgmentsCiting(ctx, statuteID)
	if err != nil {
		logger.Warn("Citing judgment lookup failed", zap.String("statute_id", statuteID), zap.Error(err))
		return nil
	}

	var results []models.ScoredResult
	for _, j := range judgments {
		if r, ok := e.graphResult(j, graphCiteScore); ok {
			results = append(results, r)
		}
	}
	return results
}

// conceptMatches finds legal concepts mentioned in the query plus the
// concepts interpreted by judgments already surfaced, and returns judgments
// interpreting the query concepts as additional graph results.
func (e *Engine) conceptMatches(ctx context.Context, graph kg.Backend, query string, seeded []models.ScoredResult) ([]string, []models.ScoredResult) {
	seen := make(map[string]bool)
	var concepts []string
	addConcept := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		concepts = append(concepts, name)
	}

	matched, err := graph.MatchConcepts(ctx, query)
	if err != nil {
		logger.Warn("Concept matching failed", zap.Error(err))
	}

	var results []models.ScoredResult
	surfaced := make(map[string]bool)
	for _, r := range seeded {
		surfaced[r.DocID] = true
	}

	for _, c := range matched {
		addConcept(c.Name)

		judgments, err := graph.JudgmentsInterpreting(ctx, c.ID)
		if err != nil {
			logger.Warn("Interpreting judgment lookup failed", zap.String("concept_id", c.ID), zap.Error(err))
			continue
		}
		for _, j := range judgments {
			if surfaced[j.ID] {
				continue
			}
			surfaced[j.ID] = true
			if r, ok := e.graphResult(j, graphConceptScore); ok {
				results = append(results, r)
			}
		}
	}

	for _, r := range seeded {
		nodes, err := graph.ConceptsOf(ctx, r.DocID)
		if err != nil {
			continue
		}
		for _, n := range nodes {
			addConcept(n.Name)
		}
	}

	return concepts, results
}

// graphResult joins a judgment node back to its corpus document. Judgments
// without a corpus document (graph-only entries) are skipped.
func (e *Engine) graphResult(node kg.Node, score float64) (models.ScoredResult, bool) {
	doc, ok := e.corpus.Get(node.ID)
	if !ok {
		return models.ScoredResult{}, false
	}

	content := utils.Truncate(doc.Content, 500)

	return models.ScoredResult{
		DocID:    doc.DocID,
		Title:    doc.Title,
		Content:  content,
		Score:    score,
		Source:   models.SourceGraph,
		Year:     doc.Year,
		Court:    doc.Court,
		Statutes: doc.Statutes,
		Keywords: doc.Keywords,
	}, true
}

// relatedTitlesFn returns a per-query memoized lookup of the titles of
// judgments sharing a cited statute with the given document.
func (e *Engine) relatedTitlesFn(ctx context.Context, graph kg.Backend) func(docID string) string {
	memo := make(map[string]string)
	var mu sync.Mutex

	return func(docID string) string {
		mu.Lock()
		defer mu.Unlock()

		if titles, ok := memo[docID]; ok {
			return titles
		}

		doc, ok := e.corpus.Get(docID)
		if !ok {
			memo[docID] = ""
			return ""
		}

		var titles []string
		seen := make(map[string]bool)
		for _, ref := range doc.Statutes {
			parts := strings.Fields(ref)
			if len(parts) != 2 {
				continue
			}
			judgments, err := graph.JudgmentsCiting(ctx, kg.StatuteID(parts[0], parts[1]))
			if err != nil {
				continue
			}
			for _, j := range judgments {
				if j.ID == docID || seen[j.ID] {
					continue
				}
				seen[j.ID] = true
				titles = append(titles, j.Title)
			}
		}

		joined := strings.Join(titles, " ")
		memo[docID] = joined
		return joined
	}
}

func (e *Engine) recordSearch(userID string, resp *SearchResponse, source string) {
	if e.db == nil {
		return
	}

	record := &models.SearchRecord{
		ID:           resp.SearchID,
		UserID:       userID,
		QueryText:    resp.Query,
		Answer:       resp.Answer,
		ResultCount:  resp.TotalResults,
		SemanticUsed: source == models.SourceSemantic,
		LatencyMS:    resp.LatencyMS,
		CreatedAt:    time.Now(),
	}

	if err := e.db.InsertSearchRecord(record); err != nil {
		logger.Warn("Failed to record search", zap.Error(err))
		return
	}

	for _, r := range resp.Results {
		src := &models.SearchSource{
			SearchID: resp.SearchID,
			DocID:    r.DocID,
			Source:   r.Source,
			Score:    r.Score,
		}
		if err := e.db.InsertSearchSource(src); err != nil {
			logger.Warn("Failed to record search source", zap.Error(err))
		}
	}
}

// BuildContext concatenates results into an LLM prompt context. Entries are
// included whole in rank order until the limit is reached; a result that
// would overflow maxChars is dropped along with everything after it.
func BuildContext(results []models.ScoredResult, maxChars int) string {
	const separator = "\n---\n"

	var b strings.Builder
	for _, r := range results {
		entry := r.Title + "\n" + r.Content
		added := len(entry)
		if b.Len() > 0 {
			added += len(separator)
		}
		if b.Len()+added > maxChars {
			break
		}
		if b.Len() > 0 {
			b.WriteString(separator)
		}
		b.WriteString(entry)
	}
	return b.String()
}
