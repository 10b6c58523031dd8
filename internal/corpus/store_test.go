package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legal-lens/backend/internal/storage/models"
)

func TestStoreReplaceAndGet(t *testing.T) {
	s := NewStore()

	require.NoError(t, s.Replace([]models.Document{
		{DocID: "a", Title: "First"},
		{DocID: "b", Title: "Second"},
	}))

	assert.Equal(t, 2, s.Len())

	doc, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "First", doc.Title)

	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestStoreReplaceRejectsDuplicateIDs(t *testing.T) {
	s := NewStore()

	err := s.Replace([]models.Document{
		{DocID: "a"},
		{DocID: "a"},
	})
	require.Error(t, err)
	assert.Equal(t, 0, s.Len(), "failed replace must not touch the snapshot")
}

func TestStoreReplaceRejectsEmptyID(t *testing.T) {
	s := NewStore()
	assert.Error(t, s.Replace([]models.Document{{Title: "no id"}}))
}

func TestStoreReplaceSwapsAtomically(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Replace([]models.Document{{DocID: "old"}}))

	before := s.All()

	require.NoError(t, s.Replace([]models.Document{{DocID: "new"}}))

	// the slice handed out earlier still reflects the old snapshot
	require.Len(t, before, 1)
	assert.Equal(t, "old", before[0].DocID)

	after := s.All()
	require.Len(t, after, 1)
	assert.Equal(t, "new", after[0].DocID)
}

func TestLoadDocuments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "documents.json")

	content := `[
		{"doc_id": "d1", "title": "Case One", "content": "text", "keywords": ["k"], "statutes": ["IPC 302"], "year": 2001, "court": "SC"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	docs, err := LoadDocuments(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "d1", docs[0].DocID)
	assert.Equal(t, []string{"IPC 302"}, docs[0].Statutes)
}

func TestLoadDocumentsMissingFileFails(t *testing.T) {
	_, err := LoadDocuments(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadDocumentsEmptyCorpusFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "documents.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o644))

	_, err := LoadDocuments(path)
	assert.Error(t, err)
}

func TestLoadEmbeddingsMissingFileIsOptional(t *testing.T) {
	embeddings, err := LoadEmbeddings(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Nil(t, embeddings)
}

func TestLoadEmbeddings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "embeddings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"d1": [0.1, 0.2], "d2": [0.3, 0.4]}`), 0o644))

	embeddings, err := LoadEmbeddings(path)
	require.NoError(t, err)
	require.Len(t, embeddings, 2)
	assert.InDelta(t, 0.2, embeddings["d1"][1], 1e-6)
}
