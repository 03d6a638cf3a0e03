package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveOrder_Chain(t *testing.T) {
	g := build(t,
		[]string{"a", "b", "c"},
		[][2]string{{"a", "b"}, {"b", "c"}},
	)

	order, err := g.ResolveOrder("a")
	require.NoError(t, err)
	require.Equal(t, []string{"c", "b", "a"}, order)
}

func TestResolveOrder_SingleNode(t *testing.T) {
	g := build(t, []string{"api"}, nil)

	order, err := g.ResolveOrder("api")
	require.NoError(t, err)
	require.Equal(t, []string{"api"}, order)
}

func TestResolveOrder_Diamond(t *testing.T) {
	g := build(t,
		[]string{"api", "auth", "billing", "db"},
		[][2]string{{"api", "auth"}, {"api", "billing"}, {"auth", "db"}, {"billing", "db"}},
	)

	order, err := g.ResolveOrder("api")
	require.NoError(t, err)
	require.Equal(t, []string{"db", "auth", "billing", "api"}, order)
}

func TestResolveOrder_TieBreakByInsertionOrder(t *testing.T) {
	// Three independent nodes: the order is exactly insertion order.
	g := build(t, []string{"c", "a", "b"}, nil)

	order, err := g.ResolveOrder("c", "a", "b")
	require.NoError(t, err)
	require.Equal(t, []string{"c", "a", "b"}, order)
}

func TestResolveOrder_ScopedToSeeds(t *testing.T) {
	g := build(t,
		[]string{"api", "db", "worker", "queue"},
		[][2]string{{"api", "db"}, {"worker", "queue"}},
	)

	order, err := g.ResolveOrder("api")
	require.NoError(t, err)
	require.Equal(t, []string{"db", "api"}, order)
	require.NotContains(t, order, "worker")
	require.NotContains(t, order, "queue")
}

func TestResolveOrder_WholeCatalog(t *testing.T) {
	g := build(t,
		[]string{"api", "db", "worker", "queue"},
		[][2]string{{"api", "db"}, {"worker", "queue"}, {"worker", "db"}},
	)

	order, err := g.ResolveOrder(g.NodeIDs()...)
	require.NoError(t, err)
	require.Equal(t, []string{"db", "api", "queue", "worker"}, order)
}

func TestResolveOrder_UnknownSeed(t *testing.T) {
	g := build(t, []string{"api"}, nil)

	_, err := g.ResolveOrder("ghost")
	require.ErrorIs(t, err, ErrUnknownService)
}

func TestResolveOrder_CycleUnresolvable(t *testing.T) {
	g := build(t,
		[]string{"a", "b", "c"},
		[][2]string{{"a", "b"}, {"b", "c"}, {"c", "a"}},
	)

	_, err := g.ResolveOrder("a")
	var unresolvable *UnresolvableOrderError
	require.ErrorAs(t, err, &unresolvable)
	require.Equal(t, []string{"a", "b", "c"}, unresolvable.Remaining)
}

func TestResolveOrder_PartialPlacementBeforeCycle(t *testing.T) {
	// leaf resolves; the cycle and everything depending on it remains.
	g := build(t,
		[]string{"entry", "a", "b", "leaf"},
		[][2]string{{"entry", "a"}, {"a", "b"}, {"b", "a"}, {"entry", "leaf"}},
	)

	_, err := g.ResolveOrder("entry")
	var unresolvable *UnresolvableOrderError
	require.ErrorAs(t, err, &unresolvable)
	require.Equal(t, []string{"entry", "a", "b"}, unresolvable.Remaining)
	require.NotContains(t, unresolvable.Remaining, "leaf")
}

func TestResolveOrder_CycleOutsideScope(t *testing.T) {
	// A cycle elsewhere in the catalog does not poison unrelated seeds.
	g := build(t,
		[]string{"api", "db", "a", "b"},
		[][2]string{{"api", "db"}, {"a", "b"}, {"b", "a"}},
	)

	order, err := g.ResolveOrder("api")
	require.NoError(t, err)
	require.Equal(t, []string{"db", "api"}, order)
}

func TestSubgraph_Closure(t *testing.T) {
	g := build(t,
		[]string{"api", "auth", "db", "worker"},
		[][2]string{{"api", "auth"}, {"auth", "db"}, {"worker", "db"}},
	)

	sub, err := g.Subgraph("api")
	require.NoError(t, err)
	require.Equal(t, []string{"api", "auth", "db"}, sub.NodeIDs())
	require.Equal(t, []string{"auth"}, sub.Neighbors("api"))
	require.Equal(t, []string{"db"}, sub.Neighbors("auth"))
	require.False(t, sub.HasNode("worker"))
}

func TestSubgraph_MultipleSeeds(t *testing.T) {
	g := build(t,
		[]string{"api", "db", "worker", "queue"},
		[][2]string{{"api", "db"}, {"worker", "queue"}},
	)

	sub, err := g.Subgraph("api", "worker")
	require.NoError(t, err)
	require.Equal(t, []string{"api", "db", "worker", "queue"}, sub.NodeIDs())
	require.Equal(t, 2, sub.EdgeCount())
}

func TestSubgraph_UnknownSeed(t *testing.T) {
	g := build(t, []string{"api"}, nil)

	_, err := g.Subgraph("api", "ghost")
	require.ErrorIs(t, err, ErrUnknownService)
}

func TestSubgraph_IndependentOfParent(t *testing.T) {
	g := build(t, []string{"api", "db"}, [][2]string{{"api", "db"}})

	sub, err := g.Subgraph("api")
	require.NoError(t, err)

	sub.AddNode("cache")
	require.NoError(t, sub.AddEdge("db", "cache"))
	require.False(t, g.HasNode("cache"))
	require.Empty(t, g.Neighbors("db"))
}
