package models

import "time"

// Document is a single retrievable judgment. Documents are immutable after
// load; the corpus is replaced wholesale on reindex.
type Document struct {
	DocID    string   `json:"doc_id"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Keywords []string `json:"keywords"`
	Statutes []string `json:"statutes"`
	Year     int      `json:"year,omitempty"`
	Court    string   `json:"court,omitempty"`
}

// StatuteMapping pairs a legacy statute section with its successor.
// NewSection "None" encodes repeal without replacement.
type StatuteMapping struct {
	OldCode     string `json:"old_code"`
	OldSection  string `json:"old_section"`
	NewCode     string `json:"new_code"`
	NewSection  string `json:"new_section"`
	Description string `json:"description"`
}

// Judgment is the graph-side view of a case: which statutes it cites and
// which legal concepts it interprets.
type Judgment struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Year     int      `json:"year"`
	Court    string   `json:"court"`
	Summary  string   `json:"summary"`
	Cites    []string `json:"cites"`
	Concepts []string `json:"concepts"`
}

// ScoredResult is produced per query and never persisted.
type ScoredResult struct {
	DocID    string   `json:"doc_id"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Score    float64  `json:"score"`
	Source   string   `json:"source"`
	Year     int      `json:"year,omitempty"`
	Court    string   `json:"court,omitempty"`
	Statutes []string `json:"statutes,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}

// Result source tags. The tag reflects the scorer that actually produced
// the score, including after semantic-to-lexical degradation.
const (
	SourceLexical  = "lexical"
	SourceSemantic = "semantic"
	SourceGraph    = "graph"
	SourceFused    = "fused"
)

// SearchRecord is one served query, persisted for the history endpoint.
type SearchRecord struct {
	ID           string
	UserID       string
	QueryText    string
	Answer       string
	ResultCount  int
	SemanticUsed bool
	LatencyMS    int
	CreatedAt    time.Time
}

// SearchSource attributes one result of a recorded search.
type SearchSource struct {
	ID       int     `json:"id"`
	SearchID string  `json:"search_id"`
	DocID    string  `json:"doc_id"`
	Source   string  `json:"source"`
	Score    float64 `json:"score"`
}

// Feedback is a user's verdict on a recorded search.
type Feedback struct {
	ID        int
	SearchID  string
	Helpful   bool
	Comment   string
	CreatedAt time.Time
}
