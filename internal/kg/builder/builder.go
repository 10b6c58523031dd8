package builder

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/legal-lens/backend/internal/kg"
	"github.com/legal-lens/backend/internal/storage/models"
	"github.com/legal-lens/backend/pkg/logger"
	"github.com/legal-lens/backend/pkg/utils"
)

// Build constructs the in-memory knowledge graph from the static mapping
// records plus judgment metadata derived from the corpus. It runs at
// startup and after an admin mapping replace; the result is read-only at
// query time.
func Build(mappings []models.StatuteMapping, docs []models.Document) *kg.Graph {
	g := kg.NewGraph()
	ctx := context.Background()

	for _, m := range mappings {
		g.AddMapping(ctx, m)
	}

	for _, j := range JudgmentsFromCorpus(docs) {
		g.AddJudgment(j)

		// concepts interpreted by the same judgment are related
		for i := 0; i < len(j.Concepts); i++ {
			for k := i + 1; k < len(j.Concepts); k++ {
				g.RelateConcepts(j.Concepts[i], j.Concepts[k])
			}
		}
	}

	stats, _ := g.Stats(ctx)
	logger.Info("Knowledge graph built",
		zap.Int("nodes", stats.Nodes),
		zap.Int("edges", stats.Edges),
	)

	return g
}

// JudgmentsFromCorpus derives graph-side judgment metadata from corpus
// documents: statute references become CITES targets and curated keywords
// become interpreted concepts.
func JudgmentsFromCorpus(docs []models.Document) []models.Judgment {
	judgments := make([]models.Judgment, 0, len(docs))
	for _, d := range docs {
		j := models.Judgment{
			ID:      d.DocID,
			Title:   d.Title,
			Year:    d.Year,
			Court:   d.Court,
			Summary: summarize(d.Content),
		}
		for _, s := range d.Statutes {
			j.Cites = append(j.Cites, statuteRefToID(s))
		}
		j.Concepts = append(j.Concepts, d.Keywords...)
		judgments = append(judgments, j)
	}
	return judgments
}

// statuteRefToID turns a display reference like "IPC 304A" into the
// canonical node id "IPC_304A".
func statuteRefToID(ref string) string {
	return strings.ReplaceAll(strings.TrimSpace(ref), " ", "_")
}

func summarize(content string) string {
	const maxLen = 200
	if len(content) <= maxLen {
		return content
	}
	cut := utils.Truncate(content, maxLen)
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut
}
