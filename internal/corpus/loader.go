package corpus

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/legal-lens/backend/internal/storage/models"
)

// LoadDocuments reads the judgment corpus from a JSON file. A missing or
// malformed corpus is fatal at startup; the service must not serve queries
// without one.
func LoadDocuments(path string) ([]models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus file %s: %w", path, err)
	}

	var docs []models.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("failed to parse corpus file %s: %w", path, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("corpus file %s contains no documents", path)
	}

	return docs, nil
}

// LoadMappings reads statute mapping records. The mapping source doubles as
// the seed for the statute registry and the knowledge graph.
func LoadMappings(path string) ([]models.StatuteMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file %s: %w", path, err)
	}

	var mappings []models.StatuteMapping
	if err := json.Unmarshal(data, &mappings); err != nil {
		return nil, fmt.Errorf("failed to parse mapping file %s: %w", path, err)
	}

	return mappings, nil
}

// LoadEmbeddings reads pre-computed document embeddings keyed by doc_id.
// Absence is not an error: the semantic scorer degrades to lexical ranking.
func LoadEmbeddings(path string) (map[string][]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read embeddings file %s: %w", path, err)
	}

	var embeddings map[string][]float32
	if err := json.Unmarshal(data, &embeddings); err != nil {
		return nil, fmt.Errorf("failed to parse embeddings file %s: %w", path, err)
	}

	return embeddings, nil
}
