package kg

import (
	"context"
	"fmt"
	"strings"

	"github.com/legal-lens/backend/internal/storage/models"
)

type NodeType string

const (
	NodeStatute  NodeType = "statute"
	NodeJudgment NodeType = "judgment"
	NodeConcept  NodeType = "concept"
)

type Relationship string

const (
	RelReplacedBy Relationship = "REPLACED_BY"
	RelCites      Relationship = "CITES"
	RelInterprets Relationship = "INTERPRETS"
	RelRelatedTo  Relationship = "RELATED_TO"
	RelSubsetOf   Relationship = "SUBSET_OF"
	RelPartOf     Relationship = "PART_OF"
)

// Node is one entry in the knowledge graph. The populated fields depend on
// Type; IDs are unique across all variants.
type Node struct {
	ID   string   `json:"id"`
	Type NodeType `json:"type"`

	// statute
	Code    string `json:"code,omitempty"`
	Section string `json:"section,omitempty"`
	Active  bool   `json:"active,omitempty"`

	// judgment
	Title   string `json:"title,omitempty"`
	Year    int    `json:"year,omitempty"`
	Court   string `json:"court,omitempty"`
	Summary string `json:"summary,omitempty"`

	// concept
	Name string `json:"name,omitempty"`

	Description string `json:"description,omitempty"`
}

// Edge is a directed typed relation between two node ids.
type Edge struct {
	Source       string       `json:"source"`
	Target       string       `json:"target"`
	Relationship Relationship `json:"relationship"`
}

// Backend is the graph capability consumed by the retrieval engine. The
// in-memory implementation is the default; a Neo4j implementation can be
// selected at startup for deployments with an external graph database.
type Backend interface {
	Node(ctx context.Context, id string) (Node, bool, error)
	GetMapping(ctx context.Context, code, section string) (models.StatuteMapping, bool, error)
	JudgmentsCiting(ctx context.Context, statuteID string) ([]Node, error)
	ConceptsOf(ctx context.Context, judgmentID string) ([]Node, error)
	JudgmentsInterpreting(ctx context.Context, conceptID string) ([]Node, error)
	MatchConcepts(ctx context.Context, query string) ([]Node, error)
	MultiHop(ctx context.Context, startID string, maxHops int) (map[int][]Node, error)
	AddMapping(ctx context.Context, m models.StatuteMapping) error
	Stats(ctx context.Context) (Stats, error)
}

// Stats summarizes graph size for the admin/health surface.
type Stats struct {
	Nodes int            `json:"nodes"`
	Edges int            `json:"edges"`
	Types map[string]int `json:"types"`
}

// StatuteID derives the canonical node id for a statute section.
func StatuteID(code, section string) string {
	return fmt.Sprintf("%s_%s", code, section)
}

// ConceptID derives the canonical node id for a legal concept name.
func ConceptID(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}
