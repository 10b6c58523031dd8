package corpus

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/legal-lens/backend/internal/storage/models"
	"github.com/legal-lens/backend/pkg/logger"
)

// Store holds the in-memory judgment corpus. Reads run lock-free against an
// immutable snapshot; Replace installs a complete new snapshot atomically so
// concurrent queries never observe a partially loaded set.
type Store struct {
	snap atomic.Pointer[snapshot]
}

type snapshot struct {
	docs []models.Document
	byID map[string]int
}

func NewStore() *Store {
	s := &Store{}
	s.snap.Store(&snapshot{byID: map[string]int{}})
	return s
}

// Replace swaps in a new corpus. doc_id must be unique within the set.
func (s *Store) Replace(docs []models.Document) error {
	byID := make(map[string]int, len(docs))
	for i, d := range docs {
		if d.DocID == "" {
			return fmt.Errorf("document at index %d has empty doc_id", i)
		}
		if _, dup := byID[d.DocID]; dup {
			return fmt.Errorf("duplicate doc_id %q", d.DocID)
		}
		byID[d.DocID] = i
	}

	copied := make([]models.Document, len(docs))
	copy(copied, docs)

	s.snap.Store(&snapshot{docs: copied, byID: byID})

	logger.Info("Corpus replaced", zap.Int("documents", len(copied)))
	return nil
}

// All returns the current snapshot in load order. Callers must treat the
// returned slice as read-only.
func (s *Store) All() []models.Document {
	return s.snap.Load().docs
}

// Get looks up a document by id in the current snapshot.
func (s *Store) Get(docID string) (models.Document, bool) {
	snap := s.snap.Load()
	i, ok := snap.byID[docID]
	if !ok {
		return models.Document{}, false
	}
	return snap.docs[i], true
}

func (s *Store) Len() int {
	return len(s.snap.Load().docs)
}
