package neo4j

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/legal-lens/backend/internal/kg"
	"github.com/legal-lens/backend/internal/storage/models"
	"github.com/legal-lens/backend/pkg/circuitbreaker"
	"github.com/legal-lens/backend/pkg/logger"
	"github.com/legal-lens/backend/pkg/retry"
)

// Client is the Neo4j-backed kg.Backend for deployments that keep the legal
// knowledge graph in an external database. The node/edge schema mirrors the
// in-memory graph: LegalNode {id, type, code, section, title, name, ...}
// with typed relationships.
type Client struct {
	driver      neo4j.DriverWithContext
	database    string
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
}

var _ kg.Backend = (*Client)(nil)

func NewClient(uri, username, password, database string) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(
		uri,
		neo4j.BasicAuth(username, password, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("failed to verify connectivity: %w", err)
	}

	cb := circuitbreaker.NewCircuitBreaker("neo4j", circuitbreaker.Config{
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          20 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Logger:           logger.GetLogger(),
	})

	retryConfig := retry.Config{
		MaxAttempts:    3,
		InitialDelay:   200 * time.Millisecond,
		MaxDelay:       3 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Logger:         logger.GetLogger(),
	}

	logger.Info("Neo4j graph backend initialized", zap.String("uri", uri))

	return &Client{
		driver:      driver,
		database:    database,
		cb:          cb,
		retryConfig: retryConfig,
	}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

func (c *Client) read(ctx context.Context, query string, params map[string]any) ([]*neo4j.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var records []*neo4j.Record
	err := c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
			defer session.Close(ctx)

			result, err := session.Run(ctx, query, params)
			if err != nil {
				return err
			}
			records, err = result.Collect(ctx)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) Node(ctx context.Context, id string) (kg.Node, bool, error) {
	query := `
		MATCH (n:LegalNode {id: $id})
		RETURN n
		LIMIT 1
	`

	records, err := c.read(ctx, query, map[string]any{"id": id})
	if err != nil {
		return kg.Node{}, false, fmt.Errorf("failed to look up node: %w", err)
	}
	if len(records) == 0 {
		return kg.Node{}, false, nil
	}

	n, ok := nodeFromRecord(records[0], "n")
	return n, ok, nil
}

func (c *Client) GetMapping(ctx context.Context, code, section string) (models.StatuteMapping, bool, error) {
	query := `
		MATCH (old:LegalNode {id: $id, type: 'statute'})-[:REPLACED_BY]->(new:LegalNode {type: 'statute'})
		RETURN old.code AS old_code, old.section AS old_section,
		       new.code AS new_code, new.section AS new_section,
		       coalesce(new.description, '') AS description
		LIMIT 1
	`

	records, err := c.read(ctx, query, map[string]any{"id": kg.StatuteID(code, section)})
	if err != nil {
		return models.StatuteMapping{}, false, fmt.Errorf("failed to resolve mapping: %w", err)
	}
	if len(records) == 0 {
		return models.StatuteMapping{}, false, nil
	}

	rec := records[0]
	return models.StatuteMapping{
		OldCode:     stringValue(rec, "old_code"),
		OldSection:  stringValue(rec, "old_section"),
		NewCode:     stringValue(rec, "new_code"),
		NewSection:  stringValue(rec, "new_section"),
		Description: stringValue(rec, "description"),
	}, true, nil
}

func (c *Client) JudgmentsCiting(ctx context.Context, statuteID string) ([]kg.Node, error) {
	query := `
		MATCH (j:LegalNode {type: 'judgment'})-[:CITES]->(s:LegalNode {id: $id})
		RETURN j
	`

	records, err := c.read(ctx, query, map[string]any{"id": statuteID})
	if err != nil {
		return nil, fmt.Errorf("failed to find citing judgments: %w", err)
	}
	return nodesFromRecords(records, "j"), nil
}

func (c *Client) ConceptsOf(ctx context.Context, judgmentID string) ([]kg.Node, error) {
	query := `
		MATCH (j:LegalNode {id: $id})-[:INTERPRETS]->(c:LegalNode {type: 'concept'})
		RETURN c
	`

	records, err := c.read(ctx, query, map[string]any{"id": judgmentID})
	if err != nil {
		return nil, fmt.Errorf("failed to find interpreted concepts: %w", err)
	}
	return nodesFromRecords(records, "c"), nil
}

func (c *Client) JudgmentsInterpreting(ctx context.Context, conceptID string) ([]kg.Node, error) {
	query := `
		MATCH (j:LegalNode {type: 'judgment'})-[:INTERPRETS]->(c:LegalNode {id: $id})
		RETURN j
	`

	records, err := c.read(ctx, query, map[string]any{"id": conceptID})
	if err != nil {
		return nil, fmt.Errorf("failed to find interpreting judgments: %w", err)
	}
	return nodesFromRecords(records, "j"), nil
}

func (c *Client) MatchConcepts(ctx context.Context, queryText string) ([]kg.Node, error) {
	query := `
		MATCH (c:LegalNode {type: 'concept'})
		WHERE all(word IN split(c.name, ' ') WHERE size(word) <= 2 OR toLower($query) CONTAINS word)
		  AND any(word IN split(c.name, ' ') WHERE size(word) > 2)
		RETURN c
	`

	records, err := c.read(ctx, query, map[string]any{"query": queryText})
	if err != nil {
		return nil, fmt.Errorf("failed to match concepts: %w", err)
	}
	return nodesFromRecords(records, "c"), nil
}

func (c *Client) MultiHop(ctx context.Context, startID string, maxHops int) (map[int][]kg.Node, error) {
	if maxHops <= 0 {
		maxHops = 2
	}

	// shortestPath gives min-hop semantics over undirected traversal
	query := fmt.Sprintf(`
		MATCH (start:LegalNode {id: $id})
		MATCH path = shortestPath((start)-[*1..%d]-(n:LegalNode))
		WHERE n.id <> $id
		RETURN n, length(path) AS hops
	`, maxHops)

	records, err := c.read(ctx, query, map[string]any{"id": startID})
	if err != nil {
		return nil, fmt.Errorf("failed to traverse graph: %w", err)
	}

	result := map[int][]kg.Node{}
	for _, rec := range records {
		hopsVal, ok := rec.Get("hops")
		if !ok {
			continue
		}
		hops := int(hopsVal.(int64))
		if n, ok := nodeFromRecord(rec, "n"); ok {
			result[hops] = append(result[hops], n)
		}
	}
	return result, nil
}

func (c *Client) AddMapping(ctx context.Context, m models.StatuteMapping) error {
	query := `
		MERGE (old:LegalNode {id: $old_id})
		SET old.type = 'statute', old.code = $old_code, old.section = $old_section,
		    old.active = false, old.description = $description
		WITH old
		CALL {
			WITH old
			WITH old WHERE $new_section <> '' AND $new_section <> 'None'
			MERGE (new:LegalNode {id: $new_id})
			SET new.type = 'statute', new.code = $new_code, new.section = $new_section,
			    new.active = true, new.description = $description
			MERGE (old)-[:REPLACED_BY]->(new)
		}
		RETURN old.id
	`

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
			defer session.Close(ctx)

			_, err := session.Run(ctx, query, map[string]any{
				"old_id":      kg.StatuteID(m.OldCode, m.OldSection),
				"old_code":    m.OldCode,
				"old_section": m.OldSection,
				"new_id":      kg.StatuteID(m.NewCode, m.NewSection),
				"new_code":    m.NewCode,
				"new_section": m.NewSection,
				"description": m.Description,
			})
			if err != nil {
				return fmt.Errorf("failed to add mapping: %w", err)
			}
			return nil
		})
	})
}

func (c *Client) Stats(ctx context.Context) (kg.Stats, error) {
	records, err := c.read(ctx, `
		MATCH (n:LegalNode)
		OPTIONAL MATCH (n)-[r]->()
		RETURN n.type AS type, count(DISTINCT n) AS nodes, count(r) AS edges
	`, nil)
	if err != nil {
		return kg.Stats{}, fmt.Errorf("failed to compute graph stats: %w", err)
	}

	stats := kg.Stats{Types: map[string]int{}}
	for _, rec := range records {
		t := stringValue(rec, "type")
		if v, ok := rec.Get("nodes"); ok {
			n := int(v.(int64))
			stats.Types[t] = n
			stats.Nodes += n
		}
		if v, ok := rec.Get("edges"); ok {
			stats.Edges += int(v.(int64))
		}
	}
	return stats, nil
}

func nodesFromRecords(records []*neo4j.Record, key string) []kg.Node {
	var out []kg.Node
	for _, rec := range records {
		if n, ok := nodeFromRecord(rec, key); ok {
			out = append(out, n)
		}
	}
	return out
}

func nodeFromRecord(rec *neo4j.Record, key string) (kg.Node, bool) {
	val, ok := rec.Get(key)
	if !ok {
		return kg.Node{}, false
	}
	raw, ok := val.(neo4j.Node)
	if !ok {
		return kg.Node{}, false
	}

	props := raw.Props
	n := kg.Node{
		ID:          propString(props, "id"),
		Type:        kg.NodeType(propString(props, "type")),
		Code:        propString(props, "code"),
		Section:     propString(props, "section"),
		Title:       propString(props, "title"),
		Court:       propString(props, "court"),
		Summary:     propString(props, "summary"),
		Name:        propString(props, "name"),
		Description: propString(props, "description"),
	}
	if v, ok := props["year"].(int64); ok {
		n.Year = int(v)
	}
	if v, ok := props["active"].(bool); ok {
		n.Active = v
	}
	return n, true
}

func propString(props map[string]any, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

func stringValue(rec *neo4j.Record, key string) string {
	if v, ok := rec.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
