package kg

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legal-lens/backend/internal/storage/models"
)

func buildTestGraph(t *testing.T) *Graph {
	t.Helper()
	ctx := context.Background()

	g := NewGraph()
	require.NoError(t, g.AddMapping(ctx, models.StatuteMapping{
		OldCode: "IPC", OldSection: "302", NewCode: "BNS", NewSection: "101",
		Description: "Punishment for murder",
	}))
	require.NoError(t, g.AddMapping(ctx, models.StatuteMapping{
		OldCode: "IPC", OldSection: "377", NewCode: "BNS", NewSection: "None",
		Description: "Partially decriminalized",
	}))

	g.AddJudgment(models.Judgment{
		ID:       "navtej_johar_2018",
		Title:    "Navtej Singh Johar v. Union of India",
		Year:     2018,
		Cites:    []string{"IPC_377"},
		Concepts: []string{"constitutional_morality", "right_to_privacy"},
	})
	g.AddJudgment(models.Judgment{
		ID:       "puttaswamy_2017",
		Title:    "Justice K.S. Puttaswamy v. Union of India",
		Year:     2017,
		Concepts: []string{"right_to_privacy"},
	})

	return g
}

func TestGetMapping(t *testing.T) {
	g := buildTestGraph(t)
	ctx := context.Background()

	m, found, err := g.GetMapping(ctx, "IPC", "302")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "BNS", m.NewCode)
	assert.Equal(t, "101", m.NewSection)

	_, found, err = g.GetMapping(ctx, "IPC", "999")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetMappingOverridePrecedence(t *testing.T) {
	g := buildTestGraph(t)
	ctx := context.Background()

	// A later administrative mapping shadows the original edge.
	require.NoError(t, g.AddMapping(ctx, models.StatuteMapping{
		OldCode: "IPC", OldSection: "302", NewCode: "BNS", NewSection: "103",
	}))

	m, found, err := g.GetMapping(ctx, "IPC", "302")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "103", m.NewSection)
}

func TestRepealedMappingAddsNoSuccessorNode(t *testing.T) {
	g := buildTestGraph(t)
	ctx := context.Background()

	m, found, err := g.GetMapping(ctx, "IPC", "377")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "None", m.NewSection)

	_, ok, err := g.Node(ctx, "BNS_None")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestJudgmentsCiting(t *testing.T) {
	g := buildTestGraph(t)

	judgments, err := g.JudgmentsCiting(context.Background(), "IPC_377")
	require.NoError(t, err)
	require.Len(t, judgments, 1)
	assert.Equal(t, "navtej_johar_2018", judgments[0].ID)

	none, err := g.JudgmentsCiting(context.Background(), "IPC_302")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestConceptsOfAndInterpreting(t *testing.T) {
	g := buildTestGraph(t)
	ctx := context.Background()

	concepts, err := g.ConceptsOf(ctx, "navtej_johar_2018")
	require.NoError(t, err)
	names := make([]string, len(concepts))
	for i, c := range concepts {
		names[i] = c.Name
	}
	assert.ElementsMatch(t, []string{"constitutional morality", "right to privacy"}, names)

	judgments, err := g.JudgmentsInterpreting(ctx, "right_to_privacy")
	require.NoError(t, err)
	ids := make([]string, len(judgments))
	for i, j := range judgments {
		ids[i] = j.ID
	}
	assert.ElementsMatch(t, []string{"navtej_johar_2018", "puttaswamy_2017"}, ids)
}

func TestMatchConcepts(t *testing.T) {
	g := buildTestGraph(t)
	ctx := context.Background()

	matched, err := g.MatchConcepts(ctx, "what did the court say about the right to privacy")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "right_to_privacy", matched[0].ID)

	// partial concept phrase does not match
	matched, err = g.MatchConcepts(ctx, "constitutional questions")
	require.NoError(t, err)
	assert.Empty(t, matched)
}

func TestMultiHopMinDistance(t *testing.T) {
	g := buildTestGraph(t)
	ctx := context.Background()

	// IPC_377 -> navtej (1 hop) -> concepts and BNS successor spread over
	// hops; every node is reported once at its minimum distance.
	hops, err := g.MultiHop(ctx, "IPC_377", 3)
	require.NoError(t, err)

	hopOf := map[string]int{}
	for hop, nodes := range hops {
		for _, n := range nodes {
			_, dup := hopOf[n.ID]
			require.False(t, dup, "node %s reported twice", n.ID)
			hopOf[n.ID] = hop
		}
	}

	assert.Equal(t, 1, hopOf["navtej_johar_2018"])
	assert.Equal(t, 2, hopOf["right_to_privacy"])
	assert.Equal(t, 3, hopOf["puttaswamy_2017"])
	assert.NotContains(t, hopOf, "IPC_377", "start node is not part of the result")
}

func TestMultiHopBounded(t *testing.T) {
	g := buildTestGraph(t)

	hops, err := g.MultiHop(context.Background(), "IPC_377", 1)
	require.NoError(t, err)
	assert.NotEmpty(t, hops[1])
	assert.Empty(t, hops[2])
}

func TestMultiHopUnknownStart(t *testing.T) {
	g := buildTestGraph(t)

	hops, err := g.MultiHop(context.Background(), "nope", 2)
	require.NoError(t, err)
	assert.Empty(t, hops)
}

func TestStats(t *testing.T) {
	g := buildTestGraph(t)

	stats, err := g.Stats(context.Background())
	require.NoError(t, err)
	assert.Greater(t, stats.Nodes, 0)
	assert.Greater(t, stats.Edges, 0)
	assert.Equal(t, 2, stats.Types[string(NodeJudgment)])
}
