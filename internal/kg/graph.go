package kg

import (
	"context"
	"strings"
	"sync"

	"github.com/legal-lens/backend/internal/storage/models"
)

// Graph is the in-memory Backend: an arena of nodes indexed by id, with
// forward and backward adjacency lists. It is built once at startup and is
// read-only at query time; AddMapping is the single serialized writer.
type Graph struct {
	mu        sync.RWMutex
	nodes     []Node
	index     map[string]int
	fwd       map[int][]halfEdge
	bwd       map[int][]halfEdge
	edgeCount int

	// override mappings take precedence over REPLACED_BY edge traversal
	overrides map[string]models.StatuteMapping
}

type halfEdge struct {
	peer int
	rel  Relationship
}

func NewGraph() *Graph {
	return &Graph{
		index:     map[string]int{},
		fwd:       map[int][]halfEdge{},
		bwd:       map[int][]halfEdge{},
		overrides: map[string]models.StatuteMapping{},
	}
}

// upsertNode inserts the node if its id is new and returns its arena index.
// Callers must hold the write lock.
func (g *Graph) upsertNode(n Node) int {
	if i, ok := g.index[n.ID]; ok {
		return i
	}
	g.nodes = append(g.nodes, n)
	i := len(g.nodes) - 1
	g.index[n.ID] = i
	return i
}

// addEdge links two existing nodes. Duplicate edges are skipped.
// Callers must hold the write lock.
func (g *Graph) addEdge(sourceID, targetID string, rel Relationship) {
	s, ok := g.index[sourceID]
	if !ok {
		return
	}
	t, ok := g.index[targetID]
	if !ok {
		return
	}
	for _, e := range g.fwd[s] {
		if e.peer == t && e.rel == rel {
			return
		}
	}
	g.fwd[s] = append(g.fwd[s], halfEdge{peer: t, rel: rel})
	g.bwd[t] = append(g.bwd[t], halfEdge{peer: s, rel: rel})
	g.edgeCount++
}

// setOverride records a pre-loaded mapping that GetMapping consults before
// falling back to edge traversal. Callers must hold the write lock.
func (g *Graph) setOverride(m models.StatuteMapping) {
	g.overrides[StatuteID(m.OldCode, m.OldSection)] = m
}

// GetMapping resolves an old statute to its successor. Pre-loaded override
// mappings win over REPLACED_BY edges; they are not merged.
func (g *Graph) GetMapping(_ context.Context, code, section string) (models.StatuteMapping, bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	id := StatuteID(code, section)
	if m, ok := g.overrides[id]; ok {
		return m, true, nil
	}

	i, ok := g.index[id]
	if !ok {
		return models.StatuteMapping{}, false, nil
	}

	old := g.nodes[i]
	for _, e := range g.fwd[i] {
		if e.rel != RelReplacedBy {
			continue
		}
		succ := g.nodes[e.peer]
		if succ.Type != NodeStatute {
			continue
		}
		return models.StatuteMapping{
			OldCode:     old.Code,
			OldSection:  old.Section,
			NewCode:     succ.Code,
			NewSection:  succ.Section,
			Description: succ.Description,
		}, true, nil
	}

	return models.StatuteMapping{}, false, nil
}

// JudgmentsCiting returns all judgments with a CITES edge into the statute.
func (g *Graph) JudgmentsCiting(_ context.Context, statuteID string) ([]Node, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	t, ok := g.index[statuteID]
	if !ok {
		return nil, nil
	}

	var out []Node
	for _, e := range g.bwd[t] {
		if e.rel != RelCites {
			continue
		}
		n := g.nodes[e.peer]
		if n.Type == NodeJudgment {
			out = append(out, n)
		}
	}
	return out, nil
}

// ConceptsOf returns the concepts a judgment interprets.
func (g *Graph) ConceptsOf(_ context.Context, judgmentID string) ([]Node, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	s, ok := g.index[judgmentID]
	if !ok {
		return nil, nil
	}

	var out []Node
	for _, e := range g.fwd[s] {
		if e.rel != RelInterprets {
			continue
		}
		n := g.nodes[e.peer]
		if n.Type == NodeConcept {
			out = append(out, n)
		}
	}
	return out, nil
}

// JudgmentsInterpreting returns the judgments with an INTERPRETS edge into
// the concept.
func (g *Graph) JudgmentsInterpreting(_ context.Context, conceptID string) ([]Node, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	t, ok := g.index[conceptID]
	if !ok {
		return nil, nil
	}

	var out []Node
	for _, e := range g.bwd[t] {
		if e.rel != RelInterprets {
			continue
		}
		n := g.nodes[e.peer]
		if n.Type == NodeJudgment {
			out = append(out, n)
		}
	}
	return out, nil
}

// MatchConcepts finds concept nodes whose name words all occur in the query.
// Words of length <= 2 in the concept name are ignored, matching the query
// tokenizer's minimum token length.
func (g *Graph) MatchConcepts(_ context.Context, query string) ([]Node, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	queryLower := strings.ToLower(query)

	var out []Node
	for _, n := range g.nodes {
		if n.Type != NodeConcept {
			continue
		}
		if conceptMatches(queryLower, n.Name) {
			out = append(out, n)
		}
	}
	return out, nil
}

func conceptMatches(queryLower, name string) bool {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == '_' || r == ' '
	})

	matched := false
	for _, w := range words {
		if len(w) <= 2 {
			continue
		}
		if !strings.Contains(queryLower, w) {
			return false
		}
		matched = true
	}
	return matched
}

// MultiHop walks outward from startID treating edges as bidirectional for
// reachability. Each reachable node is reported once, at its minimum hop
// distance; traversal stops at maxHops (default 2).
func (g *Graph) MultiHop(_ context.Context, startID string, maxHops int) (map[int][]Node, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if maxHops <= 0 {
		maxHops = 2
	}

	result := map[int][]Node{}

	start, ok := g.index[startID]
	if !ok {
		return result, nil
	}

	visited := map[int]bool{start: true}
	frontier := []int{start}

	for hop := 1; hop <= maxHops && len(frontier) > 0; hop++ {
		var next []int
		for _, i := range frontier {
			for _, e := range g.fwd[i] {
				if !visited[e.peer] {
					visited[e.peer] = true
					next = append(next, e.peer)
				}
			}
			for _, e := range g.bwd[i] {
				if !visited[e.peer] {
					visited[e.peer] = true
					next = append(next, e.peer)
				}
			}
		}
		if len(next) > 0 {
			nodes := make([]Node, len(next))
			for j, i := range next {
				nodes[j] = g.nodes[i]
			}
			result[hop] = nodes
		}
		frontier = next
	}

	return result, nil
}

// AddMapping is the administrative mutation: it records the mapping as an
// override and materializes the statute nodes and REPLACED_BY edge. Writers
// are serialized.
func (g *Graph) AddMapping(_ context.Context, m models.StatuteMapping) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.setOverride(m)

	oldID := StatuteID(m.OldCode, m.OldSection)
	g.upsertNode(Node{
		ID:          oldID,
		Type:        NodeStatute,
		Code:        m.OldCode,
		Section:     m.OldSection,
		Active:      false,
		Description: m.Description,
	})

	if m.NewSection == "" || m.NewSection == "None" {
		return nil
	}

	newID := StatuteID(m.NewCode, m.NewSection)
	g.upsertNode(Node{
		ID:          newID,
		Type:        NodeStatute,
		Code:        m.NewCode,
		Section:     m.NewSection,
		Active:      true,
		Description: m.Description,
	})
	g.addEdge(oldID, newID, RelReplacedBy)

	return nil
}

// AddJudgment inserts a judgment node with CITES edges to the statutes it
// cites and INTERPRETS edges to the concepts it interprets. Cited statutes
// and concepts that are not in the graph yet are materialized.
func (g *Graph) AddJudgment(j models.Judgment) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.upsertNode(Node{
		ID:      j.ID,
		Type:    NodeJudgment,
		Title:   j.Title,
		Year:    j.Year,
		Court:   j.Court,
		Summary: j.Summary,
	})

	for _, cite := range j.Cites {
		code, section := splitStatuteID(cite)
		g.upsertNode(Node{
			ID:      cite,
			Type:    NodeStatute,
			Code:    code,
			Section: section,
		})
		g.addEdge(j.ID, cite, RelCites)
	}

	for _, concept := range j.Concepts {
		id := ConceptID(concept)
		g.upsertNode(Node{
			ID:   id,
			Type: NodeConcept,
			Name: strings.ReplaceAll(id, "_", " "),
		})
		g.addEdge(j.ID, id, RelInterprets)
	}
}

// RelateConcepts links two concepts with a RELATED_TO edge.
func (g *Graph) RelateConcepts(a, b string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.addEdge(ConceptID(a), ConceptID(b), RelRelatedTo)
}

func splitStatuteID(id string) (code, section string) {
	if i := strings.LastIndex(id, "_"); i > 0 {
		return id[:i], id[i+1:]
	}
	return id, ""
}

func (g *Graph) Stats(_ context.Context) (Stats, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	types := map[string]int{}
	for _, n := range g.nodes {
		types[string(n.Type)]++
	}
	return Stats{Nodes: len(g.nodes), Edges: g.edgeCount, Types: types}, nil
}

// Node returns the node with the given id from the current graph.
func (g *Graph) Node(_ context.Context, id string) (Node, bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	i, ok := g.index[id]
	if !ok {
		return Node{}, false, nil
	}
	return g.nodes[i], true, nil
}
