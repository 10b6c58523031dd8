package builder

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legal-lens/backend/internal/storage/models"
)

func TestJudgmentsFromCorpus(t *testing.T) {
	docs := []models.Document{
		{
			DocID:    "jacob_mathew_2005",
			Title:    "Jacob Mathew v. State of Punjab",
			Content:  strings.Repeat("Negligence by medical professionals must be gross to attract criminal liability. ", 5),
			Keywords: []string{"medical negligence"},
			Statutes: []string{"IPC 304A"},
			Year:     2005,
			Court:    "Supreme Court of India",
		},
	}

	judgments := JudgmentsFromCorpus(docs)
	require.Len(t, judgments, 1)

	j := judgments[0]
	assert.Equal(t, "jacob_mathew_2005", j.ID)
	assert.Equal(t, []string{"IPC_304A"}, j.Cites)
	assert.Equal(t, []string{"medical negligence"}, j.Concepts)
	assert.LessOrEqual(t, len(j.Summary), 200)
	assert.False(t, strings.HasSuffix(j.Summary, " "), "summary cut on a word boundary")
}

func TestJudgmentSummaryKeepsRunesIntact(t *testing.T) {
	// unbroken Hindi text forces the byte cut to land inside a rune
	docs := []models.Document{
		{
			DocID:   "hindi_judgment",
			Title:   "Hindi Judgment",
			Content: strings.Repeat("लापरवाही", 30),
		},
	}

	judgments := JudgmentsFromCorpus(docs)
	require.Len(t, judgments, 1)

	summary := judgments[0].Summary
	assert.LessOrEqual(t, len(summary), 200)
	assert.True(t, utf8.ValidString(summary))
}

func TestBuildWiresMappingsAndJudgments(t *testing.T) {
	ctx := context.Background()

	mappings := []models.StatuteMapping{
		{OldCode: "IPC", OldSection: "304A", NewCode: "BNS", NewSection: "106"},
	}
	docs := []models.Document{
		{
			DocID:    "jacob_mathew_2005",
			Title:    "Jacob Mathew v. State of Punjab",
			Content:  "Negligence standard.",
			Keywords: []string{"medical negligence", "criminal liability"},
			Statutes: []string{"IPC 304A"},
		},
	}

	g := Build(mappings, docs)

	m, found, err := g.GetMapping(ctx, "IPC", "304A")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "106", m.NewSection)

	judgments, err := g.JudgmentsCiting(ctx, "IPC_304A")
	require.NoError(t, err)
	require.Len(t, judgments, 1)
	assert.Equal(t, "jacob_mathew_2005", judgments[0].ID)

	concepts, err := g.ConceptsOf(ctx, "jacob_mathew_2005")
	require.NoError(t, err)
	assert.Len(t, concepts, 2)

	// co-interpreted concepts are linked pairwise
	stats, err := g.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Nodes)
}
