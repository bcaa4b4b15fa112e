package trustgraph

// PathResult is the outcome of CalculateTrustPath.
type PathResult struct {
	Path       []string // node sequence, from..to inclusive
	PathLength int
	TotalTrust float64 // bottleneck (minimum) confidence along Path
	Bottleneck *Edge
	IsValid    bool
}

// CalculateTrustPath runs a directed breadth-first search over
// non-revoked TrustEdges up to maxDepth hops. Path score is the MINIMUM
// of edge confidences along the path (see DESIGN.md), recorded separately
// as the bottleneck edge. Returns ok=false if no path within maxDepth
// exists.
func (g *Graph) CalculateTrustPath(from, to string, maxDepth int) (PathResult, bool) {
	if maxDepth <= 0 {
		maxDepth = 6
	}
	if from == to {
		return PathResult{Path: []string{from}, PathLength: 0, TotalTrust: 1, IsValid: true}, true
	}

	type frame struct {
		node       string
		path       []string
		bottleneck *Edge
		trust      float64
	}

	visited := map[string]bool{from: true}
	queue := []frame{{node: from, path: []string{from}, trust: 1}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if len(cur.path)-1 >= maxDepth {
			continue
		}

		for _, e := range g.outgoing(cur.node) {
			if visited[e.To] {
				continue
			}

			nextTrust := cur.trust
			nextBottleneck := cur.bottleneck
			if nextBottleneck == nil || e.Confidence < nextBottleneck.Confidence {
				nextBottleneck = e
			}
			if e.Confidence < nextTrust {
				nextTrust = e.Confidence
			}

			nextPath := append(append([]string{}, cur.path...), e.To)

			if e.To == to {
				return PathResult{
					Path:       nextPath,
					PathLength: len(nextPath) - 1,
					TotalTrust: nextTrust,
					Bottleneck: nextBottleneck,
					IsValid:    true,
				}, true
			}

			visited[e.To] = true
			queue = append(queue, frame{node: e.To, path: nextPath, bottleneck: nextBottleneck, trust: nextTrust})
		}
	}

	return PathResult{}, false
}
