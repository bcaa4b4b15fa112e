package trustgraph_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/juergengeck/trust.core/internal/trustgraph"
)

func TestGetTrustChain_BreadthFirstTree(t *testing.T) {
	g := newGraph()
	ctx := context.Background()

	upsert(t, g, ctx, "me", "alice", 0.9)
	upsert(t, g, ctx, "me", "bob", 0.8)
	upsert(t, g, ctx, "alice", "carol", 0.7)

	nodes := g.GetTrustChain("me", 3)

	byPerson := map[string]trustgraph.ChainNode{}
	for _, n := range nodes {
		byPerson[n.Person] = n
	}

	root := byPerson["me"]
	assert.Equal(t, 0, root.Depth)
	assert.Equal(t, trustgraph.LevelSelf, root.TrustLevel)

	alice := byPerson["alice"]
	assert.Equal(t, 1, alice.Depth)
	assert.Equal(t, "me", alice.EstablishedBy)

	carol := byPerson["carol"]
	assert.Equal(t, 2, carol.Depth)
	assert.Equal(t, "alice", carol.EstablishedBy)
}

func TestGetTrustChain_RespectsMaxDepth(t *testing.T) {
	g := newGraph()
	ctx := context.Background()

	upsert(t, g, ctx, "me", "alice", 0.9)
	upsert(t, g, ctx, "alice", "carol", 0.7)

	nodes := g.GetTrustChain("me", 1)

	for _, n := range nodes {
		assert.NotEqual(t, "carol", n.Person)
	}
}
