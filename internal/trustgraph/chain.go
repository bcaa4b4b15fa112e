package trustgraph

// ChainNode is one node of the tree returned by GetTrustChain.
type ChainNode struct {
	Person        string
	Depth         int
	EstablishedBy string // the "from" node of the edge that reached Person; "" for the root
	TrustLevel    Level
}

// GetTrustChain builds a breadth-first tree rooted at self (trust_level
// = "self"), traversing outgoing trust relationships, terminating at
// maxDepth.
func (g *Graph) GetTrustChain(self string, maxDepth int) []ChainNode {
	if maxDepth <= 0 {
		maxDepth = 3
	}

	visited := map[string]bool{self: true}
	nodes := []ChainNode{{Person: self, Depth: 0, TrustLevel: LevelSelf}}

	frontier := []string{self}
	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, node := range frontier {
			for _, e := range g.outgoing(node) {
				if visited[e.To] {
					continue
				}
				visited[e.To] = true
				nodes = append(nodes, ChainNode{
					Person:        e.To,
					Depth:         depth,
					EstablishedBy: node,
					TrustLevel:    e.Level,
				})
				next = append(next, e.To)
			}
		}
		frontier = next
	}

	return nodes
}
