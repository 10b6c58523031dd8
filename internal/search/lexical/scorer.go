package lexical

import (
	"math"
	"sort"
	"strings"

	"github.com/jdkato/prose/v2"

	"github.com/legal-lens/backend/internal/storage/models"
	"github.com/legal-lens/backend/pkg/utils"
)

// Weights parametrizes the term-matching scorer. A single configurable
// implementation replaces the historical per-variant copies.
type Weights struct {
	Title       float64
	Keyword     float64
	Statute     float64
	Related     float64
	BodyPerHit  float64
	BodyCap     float64
	MinTokenLen int
}

func DefaultWeights() Weights {
	return Weights{
		Title:       0.40,
		Keyword:     0.35,
		Statute:     0.30,
		Related:     0.20,
		BodyPerHit:  0.03,
		BodyCap:     0.20,
		MinTokenLen: 3,
	}
}

type Scorer struct {
	weights Weights
}

func NewScorer(weights Weights) *Scorer {
	return &Scorer{weights: weights}
}

// Tokenize lowercases the query and drops tokens shorter than the
// configured minimum. Punctuation tokens fall out with the length filter.
func (s *Scorer) Tokenize(query string) []string {
	doc, err := prose.NewDocument(query,
		prose.WithTagging(false),
		prose.WithExtraction(false),
		prose.WithSegmentation(false),
	)
	if err != nil {
		return fallbackTokenize(query, s.weights.MinTokenLen)
	}

	var tokens []string
	for _, tok := range doc.Tokens() {
		t := strings.ToLower(tok.Text)
		if len(t) < s.weights.MinTokenLen {
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens
}

func fallbackTokenize(query string, minLen int) []string {
	var tokens []string
	for _, t := range strings.Fields(strings.ToLower(query)) {
		t = strings.Trim(t, ".,;:!?\"'()[]")
		if len(t) < minLen {
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens
}

// Score computes the weighted multi-field relevance of one document in
// [0, 1]. relatedTitles is the concatenation of titles of judgments the
// graph links to this document; empty when no graph context is available.
func (s *Scorer) Score(tokens []string, doc models.Document, relatedTitles string) float64 {
	if len(tokens) == 0 {
		return 0
	}

	title := strings.ToLower(doc.Title)
	content := strings.ToLower(doc.Content)
	statutes := strings.ToLower(strings.Join(doc.Statutes, " "))
	related := strings.ToLower(relatedTitles)

	keywords := make([]string, len(doc.Keywords))
	for i, k := range doc.Keywords {
		keywords[i] = strings.ToLower(k)
	}

	var score float64
	for _, token := range tokens {
		if strings.Contains(title, token) {
			score += s.weights.Title
		}

		// awarded at most once per token; first matching keyword wins
		for _, kw := range keywords {
			if strings.Contains(kw, token) || strings.Contains(token, kw) {
				score += s.weights.Keyword
				break
			}
		}

		if strings.Contains(statutes, token) {
			score += s.weights.Statute
		}

		if related != "" && strings.Contains(related, token) {
			score += s.weights.Related
		}

		if count := strings.Count(content, token); count > 0 {
			score += math.Min(float64(count)*s.weights.BodyPerHit, s.weights.BodyCap)
		}
	}

	return math.Min(score, 1.0)
}

// Rank scores every document and returns the non-zero hits in descending
// score order. Equal scores keep corpus order, so identical inputs always
// produce identical output.
func (s *Scorer) Rank(query string, docs []models.Document, relatedTitles func(docID string) string) []models.ScoredResult {
	tokens := s.Tokenize(query)
	if len(tokens) == 0 {
		return nil
	}

	var results []models.ScoredResult
	for _, doc := range docs {
		var related string
		if relatedTitles != nil {
			related = relatedTitles(doc.DocID)
		}

		score := s.Score(tokens, doc, related)
		if score == 0 {
			continue
		}

		results = append(results, models.ScoredResult{
			DocID:    doc.DocID,
			Title:    doc.Title,
			Content:  snippet(doc.Content),
			Score:    score,
			Source:   models.SourceLexical,
			Year:     doc.Year,
			Court:    doc.Court,
			Statutes: doc.Statutes,
			Keywords: doc.Keywords,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

func snippet(content string) string {
	const maxLen = 500
	return utils.Truncate(content, maxLen)
}
