package fusion

import (
	"sort"

	"github.com/legal-lens/backend/internal/storage/models"
)

// Weights scale each source's raw scores before merging. They should sum to
// 1 for score interpretability but are not required to.
type Weights struct {
	Semantic float64
	Lexical  float64
	Graph    float64
}

func DefaultWeights() Weights {
	return Weights{Semantic: 0.5, Lexical: 0.3, Graph: 0.2}
}

// Ranker merges per-source rankings into one deterministic ordering.
type Ranker struct {
	weights Weights
	maxTopK int
}

func NewRanker(weights Weights, maxTopK int) *Ranker {
	if maxTopK <= 0 {
		maxTopK = 10
	}
	return &Ranker{weights: weights, maxTopK: maxTopK}
}

// MaxTopK is the server-side result cap regardless of the requested top_k.
func (r *Ranker) MaxTopK() int {
	return r.maxTopK
}

// Fuse weights each source, dedups by doc_id keeping the maximum weighted
// score (agreement across sources is not summed), sorts descending, and
// truncates to topK clamped to the server cap. Ties keep first-seen
// insertion order (lexical, then semantic, then graph), so identical inputs
// always produce identical output. The winning entry keeps its source tag.
func (r *Ranker) Fuse(lexicalResults, semanticResults, graphResults []models.ScoredResult, topK int) []models.ScoredResult {
	type entry struct {
		result models.ScoredResult
		order  int
	}

	best := map[string]*entry{}
	order := 0

	merge := func(results []models.ScoredResult, weight float64) {
		for _, res := range results {
			weighted := res
			weighted.Score = res.Score * weight
			if e, ok := best[res.DocID]; ok {
				if weighted.Score > e.result.Score {
					e.result = weighted
				}
				continue
			}
			best[res.DocID] = &entry{result: weighted, order: order}
			order++
		}
	}

	merge(lexicalResults, r.weights.Lexical)
	merge(semanticResults, r.weights.Semantic)
	merge(graphResults, r.weights.Graph)

	entries := make([]*entry, 0, len(best))
	for _, e := range best {
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].result.Score != entries[j].result.Score {
			return entries[i].result.Score > entries[j].result.Score
		}
		return entries[i].order < entries[j].order
	})

	if topK <= 0 || topK > r.maxTopK {
		topK = r.maxTopK
	}
	if topK > len(entries) {
		topK = len(entries)
	}

	fused := make([]models.ScoredResult, topK)
	for i := 0; i < topK; i++ {
		fused[i] = entries[i].result
	}
	return fused
}
