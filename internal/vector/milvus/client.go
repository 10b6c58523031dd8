package milvus

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"

	"github.com/legal-lens/backend/internal/vector"
	"github.com/legal-lens/backend/pkg/logger"
)

// Client is a Milvus/Zilliz-backed vector.Index holding one embedding per
// judgment. Inner-product metric over L2-normalized vectors gives cosine
// similarity, matching the in-memory index.
type Client struct {
	client         client.Client
	collectionName string
	vectorDim      int
}

var _ vector.Index = (*Client)(nil)

func NewClient(endpoint, apiKey, collectionName string, vectorDim int) (*Client, error) {
	c, err := client.NewGrpcClient(context.Background(), endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client: %w", err)
	}

	logger.Info("Milvus vector index initialized",
		zap.String("endpoint", endpoint),
		zap.String("collection", collectionName),
	)

	return &Client{
		client:         c,
		collectionName: collectionName,
		vectorDim:      vectorDim,
	}, nil
}

func (m *Client) Close() error {
	return m.client.Close()
}

// EnsureCollection creates and loads the judgment collection if missing.
func (m *Client) EnsureCollection(ctx context.Context) error {
	has, err := m.client.HasCollection(ctx, m.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if has {
		return nil
	}

	schema := &entity.Schema{
		CollectionName: m.collectionName,
		Description:    "Legal judgment embeddings",
		Fields: []*entity.Field{
			{
				Name:       "doc_id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{"max_length": "64"},
			},
			{
				Name:       "embedding",
				DataType:   entity.FieldTypeFloatVector,
				TypeParams: map[string]string{"dim": fmt.Sprintf("%d", m.vectorDim)},
			},
		},
	}

	if err := m.client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx, _ := entity.NewIndexIvfFlat(entity.IP, 1024)
	if err := m.client.CreateIndex(ctx, m.collectionName, "embedding", idx, false); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	if err := m.client.LoadCollection(ctx, m.collectionName, false); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	logger.Info("Collection created and loaded", zap.String("collection", m.collectionName))
	return nil
}

// Replace drops existing vectors and inserts the new set, mirroring the
// wholesale corpus reindex model.
func (m *Client) Replace(ctx context.Context, vectors []vector.DocVector) error {
	if err := m.EnsureCollection(ctx); err != nil {
		return err
	}

	if err := m.client.Delete(ctx, m.collectionName, "", `doc_id != ""`); err != nil {
		return fmt.Errorf("failed to clear collection: %w", err)
	}

	if len(vectors) == 0 {
		return nil
	}

	ids := make([]string, len(vectors))
	embeddings := make([][]float32, len(vectors))
	for i, v := range vectors {
		ids[i] = v.DocID
		embeddings[i] = v.Embedding
	}

	_, err := m.client.Insert(
		ctx,
		m.collectionName,
		"",
		entity.NewColumnVarChar("doc_id", ids),
		entity.NewColumnFloatVector("embedding", m.vectorDim, embeddings),
	)
	if err != nil {
		return fmt.Errorf("failed to insert vectors: %w", err)
	}

	if err := m.client.Flush(ctx, m.collectionName, false); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}

	logger.Info("Vectors replaced in milvus", zap.Int("count", len(vectors)))
	return nil
}

func (m *Client) Search(ctx context.Context, embedding []float32, topK int) ([]vector.Match, error) {
	sp, _ := entity.NewIndexIvfFlatSearchParam(16)

	searchResult, err := m.client.Search(
		ctx,
		m.collectionName,
		[]string{},
		"",
		[]string{"doc_id"},
		[]entity.Vector{entity.FloatVector(embedding)},
		"embedding",
		entity.IP,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	var matches []vector.Match
	for _, sr := range searchResult {
		idCol := sr.Fields.GetColumn("doc_id")
		for i := 0; i < sr.ResultCount; i++ {
			id, err := idCol.Get(i)
			if err != nil {
				continue
			}
			matches = append(matches, vector.Match{
				DocID: id.(string),
				Score: float64(sr.Scores[i]),
			})
		}
	}

	return matches, nil
}

func (m *Client) Count(ctx context.Context) (int, error) {
	stats, err := m.client.GetCollectionStatistics(ctx, m.collectionName)
	if err != nil {
		return 0, fmt.Errorf("failed to get collection statistics: %w", err)
	}

	var count int
	fmt.Sscanf(stats["row_count"], "%d", &count)
	return count, nil
}
