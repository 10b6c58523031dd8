package llm

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/legal-lens/backend/internal/metrics"
	"github.com/legal-lens/backend/pkg/circuitbreaker"
	"github.com/legal-lens/backend/pkg/logger"
	"github.com/legal-lens/backend/pkg/retry"
)

// Client wraps the OpenAI API for the two outbound calls this service
// makes: query/document embeddings and answer synthesis over retrieved
// context. Both run behind a circuit breaker with retries.
type Client struct {
	client         *openai.Client
	model          string
	embeddingModel string
	temperature    float32
	maxTokens      int
	cb             *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

func NewClient(apiKey, model, embeddingModel string, temperature float32, maxTokens int) *Client {
	client := openai.NewClient(apiKey)

	cb := circuitbreaker.NewCircuitBreaker("llm", circuitbreaker.Config{
		MaxRequests:      5,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Logger:           logger.GetLogger(),
	})

	retryConfig := retry.Config{
		MaxAttempts:    3,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Logger:         logger.GetLogger(),
	}

	logger.Info("LLM client initialized",
		zap.String("model", model),
		zap.String("embedding_model", embeddingModel),
	)

	return &Client{
		client:         client,
		model:          model,
		embeddingModel: embeddingModel,
		temperature:    temperature,
		maxTokens:      maxTokens,
		cb:             cb,
		retryConfig:    retryConfig,
	}
}

// Embed returns the embedding for one text. Satisfies the semantic
// scorer's EmbeddingProvider.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	var embedding []float32

	err := c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			resp, err := c.client.CreateEmbeddings(
				ctx,
				openai.EmbeddingRequest{
					Input: []string{text},
					Model: openai.EmbeddingModel(c.embeddingModel),
				},
			)
			if err != nil {
				return fmt.Errorf("failed to generate embedding: %w", err)
			}

			embedding = make([]float32, len(resp.Data[0].Embedding))
			copy(embedding, resp.Data[0].Embedding)
			metrics.EmbeddingTokensUsed.Add(float64(resp.Usage.TotalTokens))
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return embedding, nil
}

// EmbedBatch embeds texts in API-sized batches. Used by the out-of-band
// reindex path, never at query time.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var embeddings [][]float32

	const batchSize = 100
	for i := 0; i < len(texts); i += batchSize {
		end := i + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[i:end]

		err := c.cb.Execute(ctx, func() error {
			return retry.Do(ctx, c.retryConfig, func() error {
				resp, err := c.client.CreateEmbeddings(
					ctx,
					openai.EmbeddingRequest{
						Input: batch,
						Model: openai.EmbeddingModel(c.embeddingModel),
					},
				)
				if err != nil {
					return fmt.Errorf("failed to generate batch embeddings: %w", err)
				}

				for _, data := range resp.Data {
					embedding := make([]float32, len(data.Embedding))
					copy(embedding, data.Embedding)
					embeddings = append(embeddings, embedding)
				}
				metrics.EmbeddingTokensUsed.Add(float64(resp.Usage.TotalTokens))
				return nil
			})
		})
		if err != nil {
			return nil, err
		}
	}

	logger.Debug("Batch embeddings generated", zap.Int("count", len(embeddings)))

	return embeddings, nil
}

const answerSystemPrompt = `You are a legal research assistant specialized in Indian law.

Your answers must:
1. Rely ONLY on the provided judgment excerpts and statute mappings
2. Cite judgments by title when you draw on them
3. Note when an IPC section has been replaced by a BNS section, including repealed sections
4. State clearly when the provided context is insufficient to answer
5. Never present the answer as legal advice

Be concise and precise.`

// GenerateAnswer synthesizes a narrative answer from the retrieval context.
// Callers outside the retrieval core own this step; an empty context is
// valid and produces a "nothing found" style answer.
func (c *Client) GenerateAnswer(ctx context.Context, query, retrievalContext string) (string, error) {
	if retrievalContext == "" {
		retrievalContext = "No relevant documents were retrieved."
	}

	userPrompt := fmt.Sprintf(`Question: %s

Retrieved context:
%s

Answer the question from this context. Mention the relevant judgments and any statute replacements.`, query, retrievalContext)

	var answer string

	err := c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			resp, err := c.client.CreateChatCompletion(
				ctx,
				openai.ChatCompletionRequest{
					Model: c.model,
					Messages: []openai.ChatCompletionMessage{
						{Role: openai.ChatMessageRoleSystem, Content: answerSystemPrompt},
						{Role: openai.ChatMessageRoleUser, Content: userPrompt},
					},
					Temperature: c.temperature,
					MaxTokens:   c.maxTokens,
				},
			)
			if err != nil {
				return fmt.Errorf("failed to create completion: %w", err)
			}

			logger.Debug("Answer generated",
				zap.Int("prompt_tokens", resp.Usage.PromptTokens),
				zap.Int("completion_tokens", resp.Usage.CompletionTokens),
			)

			answer = resp.Choices[0].Message.Content
			return nil
		})
	})

	if err != nil {
		return "", err
	}

	return answer, nil
}
