package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Corpus    CorpusConfig
	KG        KGConfig
	Neo4j     Neo4jConfig
	Vector    VectorConfig
	Milvus    MilvusConfig
	SQLite    SQLiteConfig
	Redis     RedisConfig
	LLM       LLMConfig
	Retrieval RetrievalConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type CorpusConfig struct {
	DocumentsPath  string
	MappingPath    string
	EmbeddingsPath string
}

type KGConfig struct {
	Backend string
	MaxHops int
}

type Neo4jConfig struct {
	URI      string
	Username string
	Password string
	Database string
}

type VectorConfig struct {
	Backend string
}

type MilvusConfig struct {
	Endpoint       string
	APIKey         string
	CollectionName string
	VectorDim      int
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type LLMConfig struct {
	APIKey          string
	Model           string
	EmbeddingModel  string
	EmbeddingDim    int
	Temperature     float32
	MaxTokens       int
	EmbedTimeoutSec int
}

type RetrievalConfig struct {
	SemanticWeight float64
	LexicalWeight  float64
	GraphWeight    float64
	MaxTopK        int
	DefaultTopK    int
	ContextChars   int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/legal-lens")

	viper.SetEnvPrefix("LEGAL_LENS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 30)
	viper.SetDefault("server.bodyLimit", 10485760)

	viper.SetDefault("corpus.documentsPath", "./data/documents.json")
	viper.SetDefault("corpus.mappingPath", "./data/mapping.json")
	viper.SetDefault("corpus.embeddingsPath", "./data/embeddings.json")

	viper.SetDefault("kg.backend", "memory")
	viper.SetDefault("kg.maxHops", 2)

	viper.SetDefault("neo4j.uri", "bolt://localhost:7687")
	viper.SetDefault("neo4j.username", "neo4j")
	viper.SetDefault("neo4j.password", "password")
	viper.SetDefault("neo4j.database", "neo4j")

	viper.SetDefault("vector.backend", "memory")

	viper.SetDefault("milvus.endpoint", "localhost:19530")
	viper.SetDefault("milvus.collectionName", "legal_judgments")
	viper.SetDefault("milvus.vectorDim", 1536)

	viper.SetDefault("sqlite.path", "./data/legallens.db")

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("llm.model", "gpt-4")
	viper.SetDefault("llm.embeddingModel", "text-embedding-3-small")
	viper.SetDefault("llm.embeddingDim", 1536)
	viper.SetDefault("llm.temperature", 0.2)
	viper.SetDefault("llm.maxTokens", 1024)
	viper.SetDefault("llm.embedTimeoutSec", 15)

	viper.SetDefault("retrieval.semanticWeight", 0.5)
	viper.SetDefault("retrieval.lexicalWeight", 0.3)
	viper.SetDefault("retrieval.graphWeight", 0.2)
	viper.SetDefault("retrieval.maxTopK", 10)
	viper.SetDefault("retrieval.defaultTopK", 5)
	viper.SetDefault("retrieval.contextChars", 8000)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
