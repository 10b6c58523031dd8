package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/legal-lens/backend/internal/api/handlers"
	"github.com/legal-lens/backend/internal/cache/redis"
	"github.com/legal-lens/backend/internal/corpus"
	"github.com/legal-lens/backend/internal/kg"
	"github.com/legal-lens/backend/internal/kg/builder"
	"github.com/legal-lens/backend/internal/kg/neo4j"
	"github.com/legal-lens/backend/internal/llm"
	"github.com/legal-lens/backend/internal/metrics"
	"github.com/legal-lens/backend/internal/middleware/ratelimit"
	"github.com/legal-lens/backend/internal/middleware/security"
	"github.com/legal-lens/backend/internal/middleware/validation"
	"github.com/legal-lens/backend/internal/retrieval"
	"github.com/legal-lens/backend/internal/search/fusion"
	"github.com/legal-lens/backend/internal/search/lexical"
	"github.com/legal-lens/backend/internal/search/semantic"
	"github.com/legal-lens/backend/internal/statute"
	"github.com/legal-lens/backend/internal/storage/models"
	"github.com/legal-lens/backend/internal/storage/sqlite"
	"github.com/legal-lens/backend/internal/vector"
	vectormemory "github.com/legal-lens/backend/internal/vector/memory"
	"github.com/legal-lens/backend/internal/vector/milvus"
	"github.com/legal-lens/backend/pkg/config"
	appLogger "github.com/legal-lens/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Legal Lens API Server")

	metrics.Init()

	// The corpus is the one hard dependency. Everything else degrades;
	// a missing or empty corpus is fatal.
	docs, err := corpus.LoadDocuments(cfg.Corpus.DocumentsPath)
	if err != nil {
		appLogger.Fatal("Failed to load corpus", zap.String("path", cfg.Corpus.DocumentsPath), zap.Error(err))
	}

	store := corpus.NewStore()
	if err := store.Replace(docs); err != nil {
		appLogger.Fatal("Failed to load corpus", zap.Error(err))
	}
	metrics.CorpusDocuments.Set(float64(len(docs)))
	appLogger.Info("Corpus loaded", zap.Int("documents", len(docs)))

	mappings, err := corpus.LoadMappings(cfg.Corpus.MappingPath)
	if err != nil {
		appLogger.Fatal("Failed to load statute mappings", zap.String("path", cfg.Corpus.MappingPath), zap.Error(err))
	}
	registry := statute.NewRegistry(mappings)
	appLogger.Info("Statute mappings loaded", zap.Int("mappings", len(mappings)))

	graph := buildGraph(cfg, mappings, docs)

	stats, err := graph.Stats(context.Background())
	if err != nil {
		appLogger.Warn("Failed to collect graph stats", zap.Error(err))
	} else {
		metrics.KGNodesTotal.Set(float64(stats.Nodes))
		metrics.KGEdgesTotal.Set(float64(stats.Edges))
		appLogger.Info("Knowledge graph ready",
			zap.String("backend", cfg.KG.Backend),
			zap.Int("nodes", stats.Nodes),
			zap.Int("edges", stats.Edges),
		)
	}

	index := buildVectorIndex(cfg)

	var llmClient *llm.Client
	if cfg.LLM.APIKey != "" {
		llmClient = llm.NewClient(
			cfg.LLM.APIKey,
			cfg.LLM.Model,
			cfg.LLM.EmbeddingModel,
			cfg.LLM.Temperature,
			cfg.LLM.MaxTokens,
		)
	} else {
		appLogger.Warn("No LLM API key configured; semantic search and answers disabled")
	}

	// Pre-computed embeddings let the in-memory index serve semantic
	// queries without an embedding pass at startup.
	if embeddings, err := corpus.LoadEmbeddings(cfg.Corpus.EmbeddingsPath); err != nil {
		appLogger.Warn("Failed to load embeddings", zap.Error(err))
	} else if embeddings != nil {
		vectors := make([]vector.DocVector, 0, len(embeddings))
		for docID, embedding := range embeddings {
			vectors = append(vectors, vector.DocVector{DocID: docID, Embedding: embedding})
		}
		if err := index.Replace(context.Background(), vectors); err != nil {
			appLogger.Warn("Failed to populate vector index", zap.Error(err))
		} else {
			appLogger.Info("Vector index populated", zap.Int("vectors", len(vectors)))
		}
	}

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	if err := sqliteClient.InitSchema(); err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	var cacheClient *redis.Client
	if cfg.Redis.Enabled {
		cacheClient, err = redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Warn("Redis unavailable; continuing without cache", zap.Error(err))
			cacheClient = nil
		} else {
			defer cacheClient.Close()
		}
	}

	lexicalScorer := lexical.NewScorer(lexical.DefaultWeights())

	var provider semantic.EmbeddingProvider
	if llmClient != nil {
		provider = llmClient
	}
	semanticScorer := semantic.NewScorer(
		provider,
		index,
		lexicalScorer,
		time.Duration(cfg.LLM.EmbedTimeoutSec)*time.Second,
	)

	ranker := fusion.NewRanker(fusion.Weights{
		Semantic: cfg.Retrieval.SemanticWeight,
		Lexical:  cfg.Retrieval.LexicalWeight,
		Graph:    cfg.Retrieval.GraphWeight,
	}, cfg.Retrieval.MaxTopK)

	engine := retrieval.NewEngine(retrieval.Options{
		Corpus:       store,
		Registry:     registry,
		Graph:        graph,
		Lexical:      lexicalScorer,
		Semantic:     semanticScorer,
		Fusion:       ranker,
		LLM:          llmClient,
		Cache:        cacheClient,
		DB:           sqliteClient,
		MaxHops:      cfg.KG.MaxHops,
		DefaultTopK:  cfg.Retrieval.DefaultTopK,
		ContextChars: cfg.Retrieval.ContextChars,
	})

	reindexer := retrieval.NewReindexer(
		engine,
		store,
		index,
		llmClient,
		cacheClient,
		cfg.Corpus.DocumentsPath,
		cfg.KG.Backend,
	)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, X-User-ID",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))

	limiter := ratelimit.New(ratelimit.Config{RequestsPerMinute: 120})
	defer limiter.Stop()
	app.Use(limiter.Middleware())

	app.Use(validation.Middleware(validation.Config{MaxQueryLength: 2000}))

	searchHandler := handlers.NewSearchHandler(engine, sqliteClient)
	statuteHandler := handlers.NewStatuteHandler(engine)
	graphHandler := handlers.NewGraphHandler(engine)
	adminHandler := handlers.NewAdminHandler(reindexer)
	wsHandler := handlers.NewWebSocketHandler(engine)

	api := app.Group("/api/v1")

	api.Post("/search", searchHandler.HandleSearch)
	api.Get("/search/history", searchHandler.GetHistory)
	api.Post("/feedback", searchHandler.HandleFeedback)

	api.Get("/statutes", statuteHandler.ListMappings)
	api.Get("/statutes/:code/:section", statuteHandler.GetMapping)

	api.Get("/graph/stats", graphHandler.GetStats)
	api.Get("/graph/:id", graphHandler.GetNeighborhood)

	api.Post("/admin/mapping", adminHandler.ReplaceMappings)
	api.Post("/admin/reindex", adminHandler.Reindex)

	app.Get("/metrics", metrics.MetricsHandler())

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ready",
			"documents": store.Len(),
		})
	})

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(wsHandler.HandleConnection))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}

func buildGraph(cfg *config.Config, mappings []models.StatuteMapping, docs []models.Document) kg.Backend {
	switch cfg.KG.Backend {
	case "neo4j":
		client, err := neo4j.NewClient(cfg.Neo4j.URI, cfg.Neo4j.Username, cfg.Neo4j.Password, cfg.Neo4j.Database)
		if err != nil {
			appLogger.Fatal("Failed to create Neo4j client", zap.Error(err))
		}
		return client
	default:
		return builder.Build(mappings, docs)
	}
}

func buildVectorIndex(cfg *config.Config) vector.Index {
	switch cfg.Vector.Backend {
	case "milvus":
		client, err := milvus.NewClient(cfg.Milvus.Endpoint, cfg.Milvus.APIKey, cfg.Milvus.CollectionName, cfg.Milvus.VectorDim)
		if err != nil {
			appLogger.Fatal("Failed to create Milvus client", zap.Error(err))
		}
		if err := client.EnsureCollection(context.Background()); err != nil {
			appLogger.Fatal("Failed to ensure Milvus collection", zap.Error(err))
		}
		return client
	default:
		return vectormemory.NewIndex()
	}
}
