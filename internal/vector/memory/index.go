package memory

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/legal-lens/backend/internal/vector"
)

// Index is a brute-force in-memory cosine index. Vectors are L2-normalized
// on insert so search reduces to dot products; fine for corpora of tens to
// low hundreds of documents.
type Index struct {
	mu      sync.RWMutex
	ids     []string
	vectors [][]float32
	dim     int
}

var _ vector.Index = (*Index)(nil)

func NewIndex() *Index { return &Index{} }

// Replace swaps the whole vector set, matching the corpus reindex model.
func (x *Index) Replace(_ context.Context, vectors []vector.DocVector) error {
	ids := make([]string, 0, len(vectors))
	normed := make([][]float32, 0, len(vectors))
	dim := -1

	for _, v := range vectors {
		if len(v.Embedding) == 0 {
			return errors.New("empty embedding for doc " + v.DocID)
		}
		if dim == -1 {
			dim = len(v.Embedding)
		} else if len(v.Embedding) != dim {
			return errors.New("embedding dimension mismatch for doc " + v.DocID)
		}
		ids = append(ids, v.DocID)
		normed = append(normed, normalize(v.Embedding))
	}

	x.mu.Lock()
	x.ids = ids
	x.vectors = normed
	x.dim = dim
	x.mu.Unlock()
	return nil
}

// Search returns the topK nearest documents by cosine similarity. Ties keep
// insertion order for deterministic output.
func (x *Index) Search(_ context.Context, embedding []float32, topK int) ([]vector.Match, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if topK <= 0 {
		topK = 5
	}

	if len(x.vectors) > 0 && len(embedding) != x.dim {
		return nil, errors.New("query embedding dimension mismatch")
	}

	query := normalize(embedding)
	matches := make([]vector.Match, len(x.vectors))
	for i, v := range x.vectors {
		matches[i] = vector.Match{DocID: x.ids[i], Score: dot(v, query)}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if topK > len(matches) {
		topK = len(matches)
	}
	return matches[:topK], nil
}

func (x *Index) Count(_ context.Context) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.ids), nil
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(float64(f) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
