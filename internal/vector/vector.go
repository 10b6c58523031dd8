package vector

import "context"

// DocVector pairs a document id with its pre-computed embedding.
type DocVector struct {
	DocID     string
	Embedding []float32
}

// Match is a similarity hit. Score is cosine similarity and may be
// negative; callers decide how to rank low scores.
type Match struct {
	DocID string
	Score float64
}

// Index is the similarity-search capability consumed by the semantic
// scorer. The in-memory implementation is the default; a Milvus
// implementation can be selected at startup.
type Index interface {
	Replace(ctx context.Context, vectors []DocVector) error
	Search(ctx context.Context, embedding []float32, topK int) ([]Match, error)
	Count(ctx context.Context) (int, error)
}
