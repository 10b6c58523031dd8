package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/legal-lens/backend/internal/metrics"
	"github.com/legal-lens/backend/pkg/circuitbreaker"
	"github.com/legal-lens/backend/pkg/retry"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = baseURL + "/v1"

	return &Client{
		client:         openai.NewClientWithConfig(cfg),
		model:          "gpt-4o-mini",
		embeddingModel: "text-embedding-3-small",
		cb: circuitbreaker.NewCircuitBreaker("llm-test", circuitbreaker.Config{
			MaxRequests:      1,
			Timeout:          time.Second,
			FailureThreshold: 3,
			SuccessThreshold: 1,
			Logger:           zap.NewNop(),
		}),
		retryConfig: retry.Config{
			MaxAttempts:  1,
			InitialDelay: time.Millisecond,
			MaxDelay:     time.Millisecond,
			Multiplier:   1.0,
			Logger:       zap.NewNop(),
		},
	}
}

func embeddingServer(t *testing.T, embeddings [][]float32, totalTokens int) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/embeddings", r.URL.Path)

		resp := openai.EmbeddingResponse{Object: "list"}
		for i, e := range embeddings {
			resp.Data = append(resp.Data, openai.Embedding{
				Object:    "embedding",
				Index:     i,
				Embedding: e,
			})
		}
		resp.Usage.PromptTokens = totalTokens
		resp.Usage.TotalTokens = totalTokens

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestEmbedRecordsTokenUsage(t *testing.T) {
	srv := embeddingServer(t, [][]float32{{0.1, 0.2, 0.3}}, 7)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	before := testutil.ToFloat64(metrics.EmbeddingTokensUsed)

	embedding, err := c.Embed(context.Background(), "right to privacy")
	require.NoError(t, err)
	assert.Len(t, embedding, 3)

	assert.InDelta(t, before+7, testutil.ToFloat64(metrics.EmbeddingTokensUsed), 0.001)
}

func TestEmbedBatchRecordsTokenUsage(t *testing.T) {
	srv := embeddingServer(t, [][]float32{{0.1, 0.2}, {0.3, 0.4}}, 11)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	before := testutil.ToFloat64(metrics.EmbeddingTokensUsed)

	embeddings, err := c.EmbedBatch(context.Background(), []string{"first text", "second text"})
	require.NoError(t, err)
	require.Len(t, embeddings, 2)

	assert.InDelta(t, before+11, testutil.ToFloat64(metrics.EmbeddingTokensUsed), 0.001)
}
